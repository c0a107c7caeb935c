package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwellhq/inkwell/internal/services/content"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TaxonomyEntry is one category or tag in a taxonomy resource payload.
type TaxonomyEntry struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CategoryListPayload represents the MCP resource payload for category listings.
type CategoryListPayload struct {
	Categories []TaxonomyEntry `json:"categories"`
}

// TagListPayload represents the MCP resource payload for tag listings.
type TagListPayload struct {
	Tags []TaxonomyEntry `json:"tags"`
}

// CategoryListResource defines the MCP resource for category listings.
func CategoryListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "category_list",
		Title:       "Categories",
		Description: "Readable listing of post categories",
		MIMEType:    "application/json",
		URI:         "categories://list",
	}
}

// TagListResource defines the MCP resource for tag listings.
func TagListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "tag_list",
		Title:       "Tags",
		Description: "Readable listing of post tags",
		MIMEType:    "application/json",
		URI:         "tags://list",
	}
}

// CategoryListResourceHandler returns a readable category listing resource.
func CategoryListResourceHandler(svc *content.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := CategoryListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("category list failed: %w", err)
		}

		payload := CategoryListPayload{}
		for _, category := range categories {
			payload.Categories = append(payload.Categories, TaxonomyEntry{
				ID:   category.ID,
				Slug: category.Slug,
				Name: category.Name,
			})
		}

		return taxonomyResult(uri, payload)
	}
}

// TagListResourceHandler returns a readable tag listing resource.
func TagListResourceHandler(svc *content.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := TagListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		tags, err := svc.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("tag list failed: %w", err)
		}

		payload := TagListPayload{}
		for _, tag := range tags {
			payload.Tags = append(payload.Tags, TaxonomyEntry{
				ID:   tag.ID,
				Slug: tag.Slug,
				Name: tag.Name,
			})
		}

		return taxonomyResult(uri, payload)
	}
}

func taxonomyResult(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal taxonomy listing: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
