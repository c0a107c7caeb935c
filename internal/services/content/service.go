package content

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/id"
	"github.com/inkwellhq/inkwell/internal/services/content/storage"
)

// Post statuses re-exported for callers.
const (
	StatusDraft     = storage.StatusDraft
	StatusScheduled = storage.StatusScheduled
	StatusPublished = storage.StatusPublished
)

// Post is one blog post.
type Post struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Excerpt         string    `json:"excerpt"`
	Body            string    `json:"body"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	SEOTitle        string    `json:"seo_title,omitempty"`
	SEODescription  string    `json:"seo_description,omitempty"`
	Status          string    `json:"status"`
	PublishedAt     time.Time `json:"published_at,omitzero"`
	CategoryID      string    `json:"category_id,omitempty"`
	TagIDs          []string  `json:"tag_ids,omitempty"`
	ReadTimeMinutes int       `json:"read_time_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Category is one post category.
type Category struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Tag is one post tag.
type Tag struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Excerpt        string   `json:"excerpt"`
	Body           string   `json:"body"`
	CoverImageURL  string   `json:"cover_image_url"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	CategoryID     string   `json:"category_id"`
	TagIDs         []string `json:"tag_ids"`
}

// ListOptions pages and filters public post listings.
type ListOptions struct {
	CategorySlug string
	TagSlug      string
	Search       string
	Limit        int
	Offset       int
}

// Service coordinates content authoring and publishing.
type Service struct {
	store storage.ContentStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a content service over the given store.
func NewService(store storage.ContentStore) *Service {
	return &Service{store: store, now: time.Now, newID: id.NewID}
}

// CreatePost creates a draft post. The slug derives from the title when not
// supplied explicitly.
func (s *Service) CreatePost(ctx context.Context, input PostInput) (Post, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Post{}, apperrors.E(apperrors.KindInvalidInput, "title is required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Title)
	}
	if slug == "" {
		return Post{}, apperrors.E(apperrors.KindInvalidInput, "slug could not be derived from title")
	}

	postID, err := s.newID()
	if err != nil {
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "generate post id", err)
	}
	now := s.now().UTC()
	record := storage.PostRecord{
		ID:              postID,
		Slug:            slug,
		Title:           strings.TrimSpace(input.Title),
		Excerpt:         strings.TrimSpace(input.Excerpt),
		Body:            input.Body,
		CoverImageURL:   strings.TrimSpace(input.CoverImageURL),
		SEOTitle:        strings.TrimSpace(input.SEOTitle),
		SEODescription:  strings.TrimSpace(input.SEODescription),
		Status:          StatusDraft,
		CategoryID:      strings.TrimSpace(input.CategoryID),
		TagIDs:          input.TagIDs,
		ReadTimeMinutes: EstimateReadTime(input.Body),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.PutPost(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Post{}, apperrors.E(apperrors.KindConflict, "slug is already in use")
		}
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "store post", err)
	}
	return postFromRecord(record), nil
}

// UpdatePost replaces the editable fields of an existing post. Status and
// publication time are controlled through PublishPost and UnpublishPost.
func (s *Service) UpdatePost(ctx context.Context, postID string, input PostInput) (Post, error) {
	record, err := s.loadPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return Post{}, apperrors.E(apperrors.KindInvalidInput, "title is required")
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Title)
	}
	record.Slug = slug
	record.Title = strings.TrimSpace(input.Title)
	record.Excerpt = strings.TrimSpace(input.Excerpt)
	record.Body = input.Body
	record.CoverImageURL = strings.TrimSpace(input.CoverImageURL)
	record.SEOTitle = strings.TrimSpace(input.SEOTitle)
	record.SEODescription = strings.TrimSpace(input.SEODescription)
	record.CategoryID = strings.TrimSpace(input.CategoryID)
	record.TagIDs = input.TagIDs
	record.ReadTimeMinutes = EstimateReadTime(input.Body)
	record.UpdatedAt = s.now().UTC()

	if err := s.store.PutPost(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Post{}, apperrors.E(apperrors.KindConflict, "slug is already in use")
		}
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "store post", err)
	}
	return postFromRecord(record), nil
}

// PublishPost publishes a post at the given time. A future time schedules the
// post instead of publishing it immediately.
func (s *Service) PublishPost(ctx context.Context, postID string, at time.Time) (Post, error) {
	record, err := s.loadPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	record.PublishedAt = at
	if at.After(s.now().UTC()) {
		record.Status = StatusScheduled
	} else {
		record.Status = StatusPublished
	}
	record.UpdatedAt = s.now().UTC()

	if err := s.store.PutPost(ctx, record); err != nil {
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "store post", err)
	}
	return postFromRecord(record), nil
}

// UnpublishPost reverts a post to draft.
func (s *Service) UnpublishPost(ctx context.Context, postID string) (Post, error) {
	record, err := s.loadPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	record.Status = StatusDraft
	record.PublishedAt = time.Time{}
	record.UpdatedAt = s.now().UTC()

	if err := s.store.PutPost(ctx, record); err != nil {
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "store post", err)
	}
	return postFromRecord(record), nil
}

// DeletePost removes a post.
func (s *Service) DeletePost(ctx context.Context, postID string) error {
	err := s.store.DeletePost(ctx, postID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.E(apperrors.KindNotFound, "post not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "delete post", err)
	}
	return nil
}

// GetPost returns one post by id, regardless of status.
func (s *Service) GetPost(ctx context.Context, postID string) (Post, error) {
	record, err := s.loadPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	return postFromRecord(record), nil
}

// GetPublishedBySlug returns one published post by slug. Drafts and scheduled
// posts are invisible to the public surface.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	record, err := s.store.GetPostBySlug(ctx, slug)
	if errors.Is(err, storage.ErrNotFound) {
		return Post{}, apperrors.E(apperrors.KindNotFound, "post not found")
	}
	if err != nil {
		return Post{}, apperrors.Wrap(apperrors.KindUnknown, "load post", err)
	}
	if record.Status != StatusPublished || record.PublishedAt.After(s.now().UTC()) {
		return Post{}, apperrors.E(apperrors.KindNotFound, "post not found")
	}
	return postFromRecord(record), nil
}

// ListPublished returns published posts visible at the current time.
func (s *Service) ListPublished(ctx context.Context, options ListOptions) ([]Post, error) {
	records, err := s.store.ListPosts(ctx, storage.PostFilter{
		Status:          StatusPublished,
		CategorySlug:    options.CategorySlug,
		TagSlug:         options.TagSlug,
		Search:          options.Search,
		PublishedBefore: s.now().UTC(),
		Limit:           options.Limit,
		Offset:          options.Offset,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list posts", err)
	}
	return postsFromRecords(records), nil
}

// ListAll returns every post for the back office, drafts included.
func (s *Service) ListAll(ctx context.Context, options ListOptions) ([]Post, error) {
	records, err := s.store.ListPosts(ctx, storage.PostFilter{
		CategorySlug: options.CategorySlug,
		TagSlug:      options.TagSlug,
		Search:       options.Search,
		Limit:        options.Limit,
		Offset:       options.Offset,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list posts", err)
	}
	return postsFromRecords(records), nil
}

// Search returns published posts matching a case-insensitive query over
// title, excerpt, and body.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "search query is required")
	}
	return s.ListPublished(ctx, ListOptions{Search: query, Limit: limit})
}

// CreateCategory creates a category named name.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperrors.E(apperrors.KindInvalidInput, "name is required")
	}
	categoryID, err := s.newID()
	if err != nil {
		return Category{}, apperrors.Wrap(apperrors.KindUnknown, "generate category id", err)
	}
	record := storage.CategoryRecord{ID: categoryID, Slug: Slugify(name), Name: name}
	if err := s.store.PutCategory(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Category{}, apperrors.E(apperrors.KindConflict, "category slug is already in use")
		}
		return Category{}, apperrors.Wrap(apperrors.KindUnknown, "store category", err)
	}
	return Category(record), nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	records, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list categories", err)
	}
	categories := make([]Category, 0, len(records))
	for _, record := range records {
		categories = append(categories, Category(record))
	}
	return categories, nil
}

// DeleteCategory removes one category.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	err := s.store.DeleteCategory(ctx, categoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.E(apperrors.KindNotFound, "category not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "delete category", err)
	}
	return nil
}

// CreateTag creates a tag named name.
func (s *Service) CreateTag(ctx context.Context, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, apperrors.E(apperrors.KindInvalidInput, "name is required")
	}
	tagID, err := s.newID()
	if err != nil {
		return Tag{}, apperrors.Wrap(apperrors.KindUnknown, "generate tag id", err)
	}
	record := storage.TagRecord{ID: tagID, Slug: Slugify(name), Name: name}
	if err := s.store.PutTag(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Tag{}, apperrors.E(apperrors.KindConflict, "tag slug is already in use")
		}
		return Tag{}, apperrors.Wrap(apperrors.KindUnknown, "store tag", err)
	}
	return Tag(record), nil
}

// ListTags returns all tags.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	records, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list tags", err)
	}
	tags := make([]Tag, 0, len(records))
	for _, record := range records {
		tags = append(tags, Tag(record))
	}
	return tags, nil
}

// DeleteTag removes one tag.
func (s *Service) DeleteTag(ctx context.Context, tagID string) error {
	err := s.store.DeleteTag(ctx, tagID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.E(apperrors.KindNotFound, "tag not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "delete tag", err)
	}
	return nil
}

func (s *Service) loadPost(ctx context.Context, postID string) (storage.PostRecord, error) {
	record, err := s.store.GetPost(ctx, strings.TrimSpace(postID))
	if errors.Is(err, storage.ErrNotFound) {
		return storage.PostRecord{}, apperrors.E(apperrors.KindNotFound, "post not found")
	}
	if err != nil {
		return storage.PostRecord{}, apperrors.Wrap(apperrors.KindUnknown, "load post", err)
	}
	return record, nil
}

func postFromRecord(record storage.PostRecord) Post {
	return Post{
		ID:              record.ID,
		Slug:            record.Slug,
		Title:           record.Title,
		Excerpt:         record.Excerpt,
		Body:            record.Body,
		CoverImageURL:   record.CoverImageURL,
		SEOTitle:        record.SEOTitle,
		SEODescription:  record.SEODescription,
		Status:          record.Status,
		PublishedAt:     record.PublishedAt,
		CategoryID:      record.CategoryID,
		TagIDs:          record.TagIDs,
		ReadTimeMinutes: record.ReadTimeMinutes,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func postsFromRecords(records []storage.PostRecord) []Post {
	posts := make([]Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, postFromRecord(record))
	}
	return posts
}
