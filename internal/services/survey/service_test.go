package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/services/survey/storage"
)

type fakeSurveyStore struct {
	surveys   map[string]storage.SurveyRecord
	responses []storage.ResponseRecord
}

func newFakeSurveyStore() *fakeSurveyStore {
	return &fakeSurveyStore{surveys: make(map[string]storage.SurveyRecord)}
}

func (f *fakeSurveyStore) PutSurvey(ctx context.Context, record storage.SurveyRecord) error {
	f.surveys[record.ID] = record
	return nil
}

func (f *fakeSurveyStore) GetSurvey(ctx context.Context, id string) (storage.SurveyRecord, error) {
	record, ok := f.surveys[id]
	if !ok {
		return storage.SurveyRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeSurveyStore) ListSurveys(ctx context.Context, activeOnly bool) ([]storage.SurveyRecord, error) {
	var records []storage.SurveyRecord
	for _, record := range f.surveys {
		if activeOnly && !record.Active {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeSurveyStore) DeleteSurvey(ctx context.Context, id string) error {
	if _, ok := f.surveys[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.surveys, id)
	return nil
}

func (f *fakeSurveyStore) PutResponse(ctx context.Context, record storage.ResponseRecord) error {
	f.responses = append(f.responses, record)
	return nil
}

func (f *fakeSurveyStore) ListResponses(ctx context.Context, surveyID string) ([]storage.ResponseRecord, error) {
	var records []storage.ResponseRecord
	for _, record := range f.responses {
		if record.SurveyID == surveyID {
			records = append(records, record)
		}
	}
	return records, nil
}

func newTestSurveyService(store storage.SurveyStore) *Service {
	service := NewService(store)
	service.now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	counter := 0
	service.newID = func() (string, error) {
		counter++
		return fmt.Sprintf("id-%d", counter), nil
	}
	return service
}

func TestCreateSurveyValidation(t *testing.T) {
	service := newTestSurveyService(newFakeSurveyStore())
	ctx := context.Background()

	if _, err := service.CreateSurvey(ctx, "  ", nil, true); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for blank title, got %v", err)
	}
	if _, err := service.CreateSurvey(ctx, "Reader poll", json.RawMessage(`{broken`), true); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for malformed questions, got %v", err)
	}

	created, err := service.CreateSurvey(ctx, "Reader poll", json.RawMessage(`[{"q":"How did you find us?"}]`), true)
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	if !created.Active {
		t.Fatal("expected active survey")
	}
}

func TestSubmitResponse(t *testing.T) {
	store := newFakeSurveyStore()
	service := newTestSurveyService(store)
	ctx := context.Background()

	created, err := service.CreateSurvey(ctx, "Reader poll", json.RawMessage(`[]`), true)
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}

	response, err := service.SubmitResponse(ctx, created.ID, "visitor-1", json.RawMessage(`{"q1":"search"}`))
	if err != nil {
		t.Fatalf("submit response: %v", err)
	}
	if response.SurveyID != created.ID {
		t.Fatalf("unexpected survey id %q", response.SurveyID)
	}

	responses, err := service.ListResponses(ctx, created.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	service := newTestSurveyService(newFakeSurveyStore())
	ctx := context.Background()

	inactive, err := service.CreateSurvey(ctx, "Closed poll", nil, false)
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}

	if _, err := service.SubmitResponse(ctx, inactive.ID, "visitor-1", json.RawMessage(`{}`)); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for inactive survey, got %v", err)
	}
	if _, err := service.SubmitResponse(ctx, "missing", "visitor-1", json.RawMessage(`{}`)); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found for unknown survey, got %v", err)
	}
	if _, err := service.SubmitResponse(ctx, inactive.ID, "", json.RawMessage(`{}`)); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for blank visitor, got %v", err)
	}
	if _, err := service.SubmitResponse(ctx, inactive.ID, "visitor-1", json.RawMessage(`{broken`)); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected invalid input for malformed answers, got %v", err)
	}
}

func TestListSurveysActiveOnly(t *testing.T) {
	service := newTestSurveyService(newFakeSurveyStore())
	ctx := context.Background()

	if _, err := service.CreateSurvey(ctx, "Active", nil, true); err != nil {
		t.Fatalf("create active: %v", err)
	}
	if _, err := service.CreateSurvey(ctx, "Draft", nil, false); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	public, err := service.ListSurveys(ctx, true)
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(public) != 1 || public[0].Title != "Active" {
		t.Fatalf("expected only active survey, got %v", public)
	}

	all, err := service.ListSurveys(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both surveys, got %d", len(all))
	}
}

func TestDeleteSurvey(t *testing.T) {
	service := newTestSurveyService(newFakeSurveyStore())
	ctx := context.Background()

	created, err := service.CreateSurvey(ctx, "Short lived", nil, true)
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	if err := service.DeleteSurvey(ctx, created.ID); err != nil {
		t.Fatalf("delete survey: %v", err)
	}
	if err := service.DeleteSurvey(ctx, created.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
