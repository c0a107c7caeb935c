package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/httpx"
	"github.com/inkwellhq/inkwell/internal/services/chat/visitor"
	"github.com/inkwellhq/inkwell/internal/services/content"
	"github.com/inkwellhq/inkwell/internal/services/gate"
	"github.com/inkwellhq/inkwell/internal/services/newsletter"
	"github.com/inkwellhq/inkwell/internal/services/scheduling"
	"github.com/inkwellhq/inkwell/internal/services/site/views"
	"github.com/inkwellhq/inkwell/internal/services/survey"
)

// Deps carries the services the site handler exposes. Scheduling and
// ChatProxy are optional.
type Deps struct {
	Content    *content.Service
	Newsletter *newsletter.Service
	Surveys    *survey.Service
	Scheduling scheduling.Source
	AccessGate *gate.Gate
	ChatProxy  http.Handler
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type submitResponseRequest struct {
	Answers json.RawMessage `json:"answers"`
}

// NewHandler creates the public site routes.
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// HTML pages. The visitor cookie is issued on first page load so the
	// chat widget and survey forms share one identity.
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		visitor.FromRequest(w, r)
		posts, err := deps.Content.ListPublished(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		renderPage(w, r, http.StatusOK, "Blog", "", views.HomePage(posts))
	})
	mux.HandleFunc("GET /blog/{slug}", func(w http.ResponseWriter, r *http.Request) {
		visitor.FromRequest(w, r)
		post, err := deps.Content.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				renderPage(w, r, http.StatusNotFound, "Page not found", "", views.NotFoundPage())
				return
			}
			httpx.WriteError(w, err)
			return
		}
		renderPage(w, r, http.StatusOK, views.PageTitle(post), views.PageDescription(post), views.PostPage(post))
	})

	// JSON content APIs.
	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		posts, err := deps.Content.ListPublished(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"posts": posts})
	})
	mux.HandleFunc("GET /api/posts/{slug}", func(w http.ResponseWriter, r *http.Request) {
		post, err := deps.Content.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, post)
	})
	mux.HandleFunc("GET /api/search", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		posts, err := deps.Content.Search(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"posts": posts})
	})
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		categories, err := deps.Content.ListCategories(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
	})
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		tags, err := deps.Content.ListTags(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
	})

	// Newsletter.
	mux.HandleFunc("POST /api/newsletter/subscribe", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, deps.AccessGate, gate.ActionNewsletterSubscribe) {
			return
		}
		var payload subscribeRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := deps.Newsletter.Subscribe(r.Context(), payload.Email); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
	})
	mux.HandleFunc("POST /api/newsletter/unsubscribe", func(w http.ResponseWriter, r *http.Request) {
		var payload subscribeRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := deps.Newsletter.Unsubscribe(r.Context(), payload.Email); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
	})

	// Surveys.
	mux.HandleFunc("GET /api/surveys", func(w http.ResponseWriter, r *http.Request) {
		surveys, err := deps.Surveys.ListSurveys(r.Context(), true)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"surveys": surveys})
	})
	mux.HandleFunc("POST /api/surveys/{id}/responses", func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, deps.AccessGate, gate.ActionSurveySubmit) {
			return
		}
		var payload submitResponseRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		visitorID := visitor.FromRequest(w, r)
		response, err := deps.Surveys.SubmitResponse(r.Context(), r.PathValue("id"), visitorID, payload.Answers)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, response)
	})

	// Scheduling.
	mux.HandleFunc("GET /api/scheduling/event-types", func(w http.ResponseWriter, r *http.Request) {
		if deps.Scheduling == nil {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"event_types": []scheduling.EventType{}})
			return
		}
		eventTypes, err := deps.Scheduling.ListEventTypes(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"event_types": eventTypes})
	})

	// Live chat rides on the site origin; the chat service answers.
	if deps.ChatProxy != nil {
		mux.Handle("/live-chat/", deps.ChatProxy)
	}

	return httpx.Chain(mux, httpx.RequestID("site"), httpx.RecoverPanic())
}

// allow applies the access gate for a public write action. Blocked callers
// get 403, rate-limited callers get 429 with Retry-After.
func allow(w http.ResponseWriter, r *http.Request, accessGate *gate.Gate, action string) bool {
	if accessGate == nil {
		return true
	}
	decision := accessGate.CheckAccess(r.Context(), httpx.ClientIP(r), action)
	if decision.Blocked {
		httpx.WriteError(w, apperrors.E(apperrors.KindForbidden, "address is blocked"))
		return false
	}
	if !decision.Allowed {
		if decision.RetryAfter > 0 {
			seconds := int((decision.RetryAfter + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return false
	}
	return true
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, title, description string, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Layout(title, description, body).Render(r.Context(), w); err != nil {
		log.Printf("site: render page: %v", err)
	}
}

func listOptionsFromQuery(r *http.Request) content.ListOptions {
	query := r.URL.Query()
	options := content.ListOptions{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		TagSlug:      strings.TrimSpace(query.Get("tag")),
		Search:       strings.TrimSpace(query.Get("q")),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		options.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		options.Offset = offset
	}
	return options
}
