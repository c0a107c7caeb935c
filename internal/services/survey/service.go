// Package survey manages reader surveys and their responses.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/id"
	"github.com/inkwellhq/inkwell/internal/services/survey/storage"
)

// Survey is one survey definition.
type Survey struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Questions json.RawMessage `json:"questions"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Response is one submitted survey response.
type Response struct {
	ID          string          `json:"id"`
	SurveyID    string          `json:"survey_id"`
	VisitorID   string          `json:"visitor_id"`
	Answers     json.RawMessage `json:"answers"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Service coordinates survey authoring and response collection.
type Service struct {
	store storage.SurveyStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a survey service over the given store.
func NewService(store storage.SurveyStore) *Service {
	return &Service{store: store, now: time.Now, newID: id.NewID}
}

// CreateSurvey creates a survey. Questions must be a valid JSON document.
func (s *Service) CreateSurvey(ctx context.Context, title string, questions json.RawMessage, active bool) (Survey, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Survey{}, apperrors.E(apperrors.KindInvalidInput, "title is required")
	}
	if len(questions) > 0 && !json.Valid(questions) {
		return Survey{}, apperrors.E(apperrors.KindInvalidInput, "questions must be valid JSON")
	}

	surveyID, err := s.newID()
	if err != nil {
		return Survey{}, apperrors.Wrap(apperrors.KindUnknown, "generate survey id", err)
	}
	record := storage.SurveyRecord{
		ID:        surveyID,
		Title:     title,
		Questions: questions,
		Active:    active,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutSurvey(ctx, record); err != nil {
		return Survey{}, apperrors.Wrap(apperrors.KindUnknown, "store survey", err)
	}
	return surveyFromRecord(record), nil
}

// UpdateSurvey replaces a survey's title, questions, and active flag.
func (s *Service) UpdateSurvey(ctx context.Context, surveyID, title string, questions json.RawMessage, active bool) (Survey, error) {
	record, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return Survey{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Survey{}, apperrors.E(apperrors.KindInvalidInput, "title is required")
	}
	if len(questions) > 0 && !json.Valid(questions) {
		return Survey{}, apperrors.E(apperrors.KindInvalidInput, "questions must be valid JSON")
	}

	record.Title = title
	record.Questions = questions
	record.Active = active
	if err := s.store.PutSurvey(ctx, record); err != nil {
		return Survey{}, apperrors.Wrap(apperrors.KindUnknown, "store survey", err)
	}
	return surveyFromRecord(record), nil
}

// GetSurvey returns one survey by id.
func (s *Service) GetSurvey(ctx context.Context, surveyID string) (Survey, error) {
	record, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return Survey{}, err
	}
	return surveyFromRecord(record), nil
}

// ListSurveys returns surveys; activeOnly hides drafts from the public site.
func (s *Service) ListSurveys(ctx context.Context, activeOnly bool) ([]Survey, error) {
	records, err := s.store.ListSurveys(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list surveys", err)
	}
	surveys := make([]Survey, 0, len(records))
	for _, record := range records {
		surveys = append(surveys, surveyFromRecord(record))
	}
	return surveys, nil
}

// DeleteSurvey removes one survey and its responses.
func (s *Service) DeleteSurvey(ctx context.Context, surveyID string) error {
	err := s.store.DeleteSurvey(ctx, surveyID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.E(apperrors.KindNotFound, "survey not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, "delete survey", err)
	}
	return nil
}

// SubmitResponse records a visitor's answers for an active survey.
func (s *Service) SubmitResponse(ctx context.Context, surveyID, visitorID string, answers json.RawMessage) (Response, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return Response{}, apperrors.E(apperrors.KindInvalidInput, "visitor id is required")
	}
	if len(answers) == 0 || !json.Valid(answers) {
		return Response{}, apperrors.E(apperrors.KindInvalidInput, "answers must be valid JSON")
	}

	record, err := s.loadSurvey(ctx, surveyID)
	if err != nil {
		return Response{}, err
	}
	if !record.Active {
		return Response{}, apperrors.E(apperrors.KindInvalidInput, "survey is not accepting responses")
	}

	responseID, err := s.newID()
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.KindUnknown, "generate response id", err)
	}
	response := storage.ResponseRecord{
		ID:          responseID,
		SurveyID:    record.ID,
		VisitorID:   visitorID,
		Answers:     answers,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.store.PutResponse(ctx, response); err != nil {
		return Response{}, apperrors.Wrap(apperrors.KindUnknown, "store response", err)
	}
	return responseFromRecord(response), nil
}

// ListResponses returns a survey's responses for the back office.
func (s *Service) ListResponses(ctx context.Context, surveyID string) ([]Response, error) {
	if _, err := s.loadSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	records, err := s.store.ListResponses(ctx, surveyID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnknown, "list responses", err)
	}
	responses := make([]Response, 0, len(records))
	for _, record := range records {
		responses = append(responses, responseFromRecord(record))
	}
	return responses, nil
}

func (s *Service) loadSurvey(ctx context.Context, surveyID string) (storage.SurveyRecord, error) {
	record, err := s.store.GetSurvey(ctx, strings.TrimSpace(surveyID))
	if errors.Is(err, storage.ErrNotFound) {
		return storage.SurveyRecord{}, apperrors.E(apperrors.KindNotFound, "survey not found")
	}
	if err != nil {
		return storage.SurveyRecord{}, apperrors.Wrap(apperrors.KindUnknown, "load survey", err)
	}
	return record, nil
}

func surveyFromRecord(record storage.SurveyRecord) Survey {
	return Survey{
		ID:        record.ID,
		Title:     record.Title,
		Questions: json.RawMessage(record.Questions),
		Active:    record.Active,
		CreatedAt: record.CreatedAt,
	}
}

func responseFromRecord(record storage.ResponseRecord) Response {
	return Response{
		ID:          record.ID,
		SurveyID:    record.SurveyID,
		VisitorID:   record.VisitorID,
		Answers:     json.RawMessage(record.Answers),
		SubmittedAt: record.SubmittedAt,
	}
}
