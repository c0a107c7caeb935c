// Package storage defines persistence contracts for surveys and responses.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SurveyRecord is one stored survey definition. Questions are an opaque JSON
// document owned by the admin UI.
type SurveyRecord struct {
	ID        string
	Title     string
	Questions []byte
	Active    bool
	CreatedAt time.Time
}

// ResponseRecord is one stored survey response. Answers mirror the survey's
// question document shape.
type ResponseRecord struct {
	ID          string
	SurveyID    string
	VisitorID   string
	Answers     []byte
	SubmittedAt time.Time
}

// SurveyStore persists surveys and their responses.
type SurveyStore interface {
	PutSurvey(ctx context.Context, record SurveyRecord) error
	GetSurvey(ctx context.Context, id string) (SurveyRecord, error)
	ListSurveys(ctx context.Context, activeOnly bool) ([]SurveyRecord, error)
	DeleteSurvey(ctx context.Context, id string) error

	PutResponse(ctx context.Context, record ResponseRecord) error
	ListResponses(ctx context.Context, surveyID string) ([]ResponseRecord, error)
}
