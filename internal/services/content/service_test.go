package content

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/services/content/storage"
)

type fakeContentStore struct {
	posts      map[string]storage.PostRecord
	categories map[string]storage.CategoryRecord
	tags       map[string]storage.TagRecord
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		posts:      make(map[string]storage.PostRecord),
		categories: make(map[string]storage.CategoryRecord),
		tags:       make(map[string]storage.TagRecord),
	}
}

func (f *fakeContentStore) PutPost(ctx context.Context, record storage.PostRecord) error {
	for _, existing := range f.posts {
		if existing.Slug == record.Slug && existing.ID != record.ID {
			return storage.ErrConflict
		}
	}
	f.posts[record.ID] = record
	return nil
}

func (f *fakeContentStore) GetPost(ctx context.Context, id string) (storage.PostRecord, error) {
	record, ok := f.posts[id]
	if !ok {
		return storage.PostRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeContentStore) GetPostBySlug(ctx context.Context, slug string) (storage.PostRecord, error) {
	for _, record := range f.posts {
		if record.Slug == slug {
			return record, nil
		}
	}
	return storage.PostRecord{}, storage.ErrNotFound
}

func (f *fakeContentStore) ListPosts(ctx context.Context, filter storage.PostFilter) ([]storage.PostRecord, error) {
	var records []storage.PostRecord
	for _, record := range f.posts {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if !filter.PublishedBefore.IsZero() {
			if record.PublishedAt.IsZero() || record.PublishedAt.After(filter.PublishedBefore) {
				continue
			}
		}
		if filter.Search != "" {
			haystack := strings.ToLower(record.Title + " " + record.Excerpt + " " + record.Body)
			if !strings.Contains(haystack, strings.ToLower(filter.Search)) {
				continue
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeContentStore) DeletePost(ctx context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeContentStore) PutCategory(ctx context.Context, record storage.CategoryRecord) error {
	for _, existing := range f.categories {
		if existing.Slug == record.Slug && existing.ID != record.ID {
			return storage.ErrConflict
		}
	}
	f.categories[record.ID] = record
	return nil
}

func (f *fakeContentStore) GetCategoryBySlug(ctx context.Context, slug string) (storage.CategoryRecord, error) {
	for _, record := range f.categories {
		if record.Slug == slug {
			return record, nil
		}
	}
	return storage.CategoryRecord{}, storage.ErrNotFound
}

func (f *fakeContentStore) ListCategories(ctx context.Context) ([]storage.CategoryRecord, error) {
	var records []storage.CategoryRecord
	for _, record := range f.categories {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeContentStore) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeContentStore) PutTag(ctx context.Context, record storage.TagRecord) error {
	for _, existing := range f.tags {
		if existing.Slug == record.Slug && existing.ID != record.ID {
			return storage.ErrConflict
		}
	}
	f.tags[record.ID] = record
	return nil
}

func (f *fakeContentStore) GetTagBySlug(ctx context.Context, slug string) (storage.TagRecord, error) {
	for _, record := range f.tags {
		if record.Slug == slug {
			return record, nil
		}
	}
	return storage.TagRecord{}, storage.ErrNotFound
}

func (f *fakeContentStore) ListTags(ctx context.Context) ([]storage.TagRecord, error) {
	var records []storage.TagRecord
	for _, record := range f.tags {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeContentStore) DeleteTag(ctx context.Context, id string) error {
	if _, ok := f.tags[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.tags, id)
	return nil
}

func newTestService(store storage.ContentStore) *Service {
	service := NewService(store)
	service.now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	counter := 0
	service.newID = func() (string, error) {
		counter++
		return fmt.Sprintf("id-%d", counter), nil
	}
	return service
}

func TestCreatePostDerivesSlugAndReadTime(t *testing.T) {
	service := newTestService(newFakeContentStore())

	post, err := service.CreatePost(context.Background(), PostInput{
		Title: "Crème Brûlée Recipe",
		Body:  strings.Repeat("word ", 450),
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Slug != "creme-brulee-recipe" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}
	if post.ReadTimeMinutes != 3 {
		t.Fatalf("expected 3 minute read, got %d", post.ReadTimeMinutes)
	}
	if post.Status != StatusDraft {
		t.Fatalf("expected draft, got %q", post.Status)
	}
}

func TestCreatePostRequiresTitle(t *testing.T) {
	service := newTestService(newFakeContentStore())
	if _, err := service.CreatePost(context.Background(), PostInput{Body: "text"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreatePostSlugConflict(t *testing.T) {
	service := newTestService(newFakeContentStore())
	if _, err := service.CreatePost(context.Background(), PostInput{Title: "Same Title"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := service.CreatePost(context.Background(), PostInput{Title: "Same Title"}); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPublishAndVisibility(t *testing.T) {
	service := newTestService(newFakeContentStore())
	ctx := context.Background()

	post, err := service.CreatePost(ctx, PostInput{Title: "Launch Notes"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	// Drafts are invisible publicly.
	if _, err := service.GetPublishedBySlug(ctx, post.Slug); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found for draft, got %v", err)
	}

	published, err := service.PublishPost(ctx, post.ID, time.Time{})
	if err != nil {
		t.Fatalf("publish post: %v", err)
	}
	if published.Status != StatusPublished {
		t.Fatalf("expected published, got %q", published.Status)
	}

	loaded, err := service.GetPublishedBySlug(ctx, post.Slug)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if loaded.ID != post.ID {
		t.Fatalf("unexpected post %q", loaded.ID)
	}

	listed, err := service.ListPublished(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 published post, got %d", len(listed))
	}
}

func TestPublishInFutureSchedules(t *testing.T) {
	service := newTestService(newFakeContentStore())
	ctx := context.Background()

	post, err := service.CreatePost(ctx, PostInput{Title: "Coming Soon"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	future := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	scheduled, err := service.PublishPost(ctx, post.ID, future)
	if err != nil {
		t.Fatalf("publish post: %v", err)
	}
	if scheduled.Status != StatusScheduled {
		t.Fatalf("expected scheduled, got %q", scheduled.Status)
	}
	if _, err := service.GetPublishedBySlug(ctx, post.Slug); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected scheduled post to be invisible, got %v", err)
	}
}

func TestUnpublishPost(t *testing.T) {
	service := newTestService(newFakeContentStore())
	ctx := context.Background()

	post, err := service.CreatePost(ctx, PostInput{Title: "Retracted"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if _, err := service.PublishPost(ctx, post.ID, time.Time{}); err != nil {
		t.Fatalf("publish post: %v", err)
	}
	reverted, err := service.UnpublishPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("unpublish post: %v", err)
	}
	if reverted.Status != StatusDraft || !reverted.PublishedAt.IsZero() {
		t.Fatalf("expected clean draft, got %+v", reverted)
	}
}

func TestSearchPublishedOnly(t *testing.T) {
	service := newTestService(newFakeContentStore())
	ctx := context.Background()

	visible, err := service.CreatePost(ctx, PostInput{Title: "Visible Gopher Post", Body: "all about gophers"})
	if err != nil {
		t.Fatalf("create visible post: %v", err)
	}
	if _, err := service.PublishPost(ctx, visible.ID, time.Time{}); err != nil {
		t.Fatalf("publish visible post: %v", err)
	}
	if _, err := service.CreatePost(ctx, PostInput{Title: "Hidden Gopher Draft", Body: "gophers again"}); err != nil {
		t.Fatalf("create hidden post: %v", err)
	}

	results, err := service.Search(ctx, "GOPHER", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != visible.ID {
		t.Fatalf("expected only the published post, got %v", results)
	}

	if _, err := service.Search(ctx, "  ", 10); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for blank query, got %v", err)
	}
}

func TestCategoryAndTagLifecycle(t *testing.T) {
	service := newTestService(newFakeContentStore())
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, "Recipes & Food")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.Slug != "recipes-food" {
		t.Fatalf("unexpected category slug %q", category.Slug)
	}
	if _, err := service.CreateCategory(ctx, "Recipes & Food"); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict for duplicate category, got %v", err)
	}

	tag, err := service.CreateTag(ctx, "Go")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	tags, err := service.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 || tags[0].ID != tag.ID {
		t.Fatalf("unexpected tags %v", tags)
	}

	if err := service.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if err := service.DeleteTag(ctx, tag.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := service.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}
