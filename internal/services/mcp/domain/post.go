package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwellhq/inkwell/internal/services/content"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PostSummary is the condensed post shape returned by listing tools.
type PostSummary struct {
	ID          string `json:"id" jsonschema:"post identifier"`
	Slug        string `json:"slug" jsonschema:"URL slug"`
	Title       string `json:"title" jsonschema:"post title"`
	Status      string `json:"status" jsonschema:"draft, scheduled, or published"`
	PublishedAt string `json:"published_at,omitempty" jsonschema:"publication time (RFC 3339)"`
}

// PostListInput represents the MCP tool input for listing posts.
type PostListInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category slug filter"`
	Tag      string `json:"tag,omitempty" jsonschema:"optional tag slug filter"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum posts to return"`
	Offset   int    `json:"offset,omitempty" jsonschema:"posts to skip before the first result"`
}

// PostListResult represents the MCP tool output for listing posts.
type PostListResult struct {
	Posts []PostSummary `json:"posts" jsonschema:"posts in every status, newest first"`
}

// PostListTool defines the MCP tool schema for listing posts.
func PostListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "post_list",
		Description: "Lists blog posts in every status, drafts included, newest first",
	}
}

// PostListHandler lists posts across all statuses for authoring agents.
func PostListHandler(svc *content.Service) mcp.ToolHandlerFor[PostListInput, PostListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PostListInput) (*mcp.CallToolResult, PostListResult, error) {
		posts, err := svc.ListAll(ctx, content.ListOptions{
			CategorySlug: input.Category,
			TagSlug:      input.Tag,
			Limit:        input.Limit,
			Offset:       input.Offset,
		})
		if err != nil {
			return nil, PostListResult{}, fmt.Errorf("post list failed: %w", err)
		}

		result := PostListResult{Posts: make([]PostSummary, 0, len(posts))}
		for _, post := range posts {
			result.Posts = append(result.Posts, summarize(post))
		}
		return nil, result, nil
	}
}

// PostSearchInput represents the MCP tool input for searching posts.
type PostSearchInput struct {
	Query string `json:"query" jsonschema:"text to match against titles and bodies"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum posts to return"`
}

// PostSearchResult represents the MCP tool output for searching posts.
type PostSearchResult struct {
	Posts []PostSummary `json:"posts" jsonschema:"matching published posts"`
}

// PostSearchTool defines the MCP tool schema for searching published posts.
func PostSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "post_search",
		Description: "Searches published posts by title and body text",
	}
}

// PostSearchHandler searches published posts.
func PostSearchHandler(svc *content.Service) mcp.ToolHandlerFor[PostSearchInput, PostSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PostSearchInput) (*mcp.CallToolResult, PostSearchResult, error) {
		posts, err := svc.Search(ctx, input.Query, input.Limit)
		if err != nil {
			return nil, PostSearchResult{}, fmt.Errorf("post search failed: %w", err)
		}

		result := PostSearchResult{Posts: make([]PostSummary, 0, len(posts))}
		for _, post := range posts {
			result.Posts = append(result.Posts, summarize(post))
		}
		return nil, result, nil
	}
}

// PostGetInput represents the MCP tool input for fetching one post.
type PostGetInput struct {
	ID string `json:"id" jsonschema:"post identifier"`
}

// PostGetResult represents the MCP tool output for fetching one post.
type PostGetResult struct {
	PostSummary
	Excerpt         string   `json:"excerpt,omitempty" jsonschema:"short summary"`
	Body            string   `json:"body" jsonschema:"markdown body"`
	CategoryID      string   `json:"category_id,omitempty" jsonschema:"category identifier"`
	TagIDs          []string `json:"tag_ids,omitempty" jsonschema:"tag identifiers"`
	ReadTimeMinutes int      `json:"read_time_minutes" jsonschema:"estimated reading time"`
}

// PostGetTool defines the MCP tool schema for fetching a post.
func PostGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "post_get",
		Description: "Fetches a single post, in any status, with its full body",
	}
}

// PostGetHandler fetches one post by identifier.
func PostGetHandler(svc *content.Service) mcp.ToolHandlerFor[PostGetInput, PostGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PostGetInput) (*mcp.CallToolResult, PostGetResult, error) {
		post, err := svc.GetPost(ctx, input.ID)
		if err != nil {
			return nil, PostGetResult{}, fmt.Errorf("post get failed: %w", err)
		}

		return nil, PostGetResult{
			PostSummary:     summarize(post),
			Excerpt:         post.Excerpt,
			Body:            post.Body,
			CategoryID:      post.CategoryID,
			TagIDs:          post.TagIDs,
			ReadTimeMinutes: post.ReadTimeMinutes,
		}, nil
	}
}

// PostCreateInput represents the MCP tool input for drafting a post.
type PostCreateInput struct {
	Title      string   `json:"title" jsonschema:"post title"`
	Excerpt    string   `json:"excerpt,omitempty" jsonschema:"optional short summary"`
	Body       string   `json:"body" jsonschema:"markdown body"`
	Slug       string   `json:"slug,omitempty" jsonschema:"optional URL slug, derived from the title when empty"`
	CategoryID string   `json:"category_id,omitempty" jsonschema:"optional category identifier"`
	TagIDs     []string `json:"tag_ids,omitempty" jsonschema:"optional tag identifiers"`
}

// PostCreateResult represents the MCP tool output for drafting a post.
type PostCreateResult struct {
	PostSummary
}

// PostCreateTool defines the MCP tool schema for creating a draft post.
func PostCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "post_create",
		Description: "Creates a new draft post; posts stay unpublished until post_publish",
	}
}

// PostCreateHandler creates a draft post.
func PostCreateHandler(svc *content.Service) mcp.ToolHandlerFor[PostCreateInput, PostCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PostCreateInput) (*mcp.CallToolResult, PostCreateResult, error) {
		post, err := svc.CreatePost(ctx, content.PostInput{
			Title:      input.Title,
			Excerpt:    input.Excerpt,
			Body:       input.Body,
			Slug:       input.Slug,
			CategoryID: input.CategoryID,
			TagIDs:     input.TagIDs,
		})
		if err != nil {
			return nil, PostCreateResult{}, fmt.Errorf("post create failed: %w", err)
		}
		return nil, PostCreateResult{PostSummary: summarize(post)}, nil
	}
}

// PostPublishInput represents the MCP tool input for publishing a post.
type PostPublishInput struct {
	ID          string `json:"id" jsonschema:"post identifier"`
	PublishedAt string `json:"published_at,omitempty" jsonschema:"optional future publication time (RFC 3339); empty publishes now"`
}

// PostPublishResult represents the MCP tool output for publishing a post.
type PostPublishResult struct {
	PostSummary
}

// PostPublishTool defines the MCP tool schema for publishing a post.
func PostPublishTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "post_publish",
		Description: "Publishes a draft post immediately, or schedules it for a future time",
	}
}

// PostPublishHandler publishes or schedules a post.
func PostPublishHandler(svc *content.Service) mcp.ToolHandlerFor[PostPublishInput, PostPublishResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PostPublishInput) (*mcp.CallToolResult, PostPublishResult, error) {
		var at time.Time
		if input.PublishedAt != "" {
			parsed, err := time.Parse(time.RFC3339, input.PublishedAt)
			if err != nil {
				return nil, PostPublishResult{}, fmt.Errorf("parse published_at: %w", err)
			}
			at = parsed
		}

		post, err := svc.PublishPost(ctx, input.ID, at)
		if err != nil {
			return nil, PostPublishResult{}, fmt.Errorf("post publish failed: %w", err)
		}
		return nil, PostPublishResult{PostSummary: summarize(post)}, nil
	}
}

func summarize(post content.Post) PostSummary {
	summary := PostSummary{
		ID:     post.ID,
		Slug:   post.Slug,
		Title:  post.Title,
		Status: post.Status,
	}
	if !post.PublishedAt.IsZero() {
		summary.PublishedAt = post.PublishedAt.UTC().Format(time.RFC3339)
	}
	return summary
}
