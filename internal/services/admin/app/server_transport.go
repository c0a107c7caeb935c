package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/internal/platform/authtoken"
	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/httpx"
	"github.com/inkwellhq/inkwell/internal/platform/requestctx"
	"github.com/inkwellhq/inkwell/internal/services/ai"
	chatstorage "github.com/inkwellhq/inkwell/internal/services/chat/storage"
	"github.com/inkwellhq/inkwell/internal/services/content"
	"github.com/inkwellhq/inkwell/internal/services/media"
	"github.com/inkwellhq/inkwell/internal/services/survey"
)

const maxUploadBytes = 32 << 20

// Deps carries the services the admin handler exposes. Media and Drafts are
// optional; their endpoints answer unavailable when unset.
type Deps struct {
	Content   *content.Service
	Surveys   *survey.Service
	Media     *media.Service
	Drafts    ai.Generator
	Blocklist chatstorage.BlocklistStore
	Presence  PresenceClient

	Tokens      authtoken.Config
	OperatorID  string
	OperatorKey string
}

type tokenRequest struct {
	AccessKey string `json:"access_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type publishRequest struct {
	PublishAt time.Time `json:"publish_at,omitzero"`
}

type presenceRequest struct {
	IsOnline bool `json:"is_online"`
}

type createSurveyRequest struct {
	Title     string          `json:"title"`
	Questions json.RawMessage `json:"questions"`
	Active    bool            `json:"active"`
}

type blocklistEntry struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitzero"`
}

// NewHandler creates the admin back-office routes.
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		var payload tokenRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if subtle.ConstantTimeCompare([]byte(payload.AccessKey), []byte(deps.OperatorKey)) != 1 {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnauthorized, "invalid access key"))
			return
		}
		token, err := authtoken.Issue(deps.Tokens, deps.OperatorID)
		if err != nil {
			httpx.WriteError(w, apperrors.Wrap(apperrors.KindUnknown, "issue token", err))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
	})

	protected := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, requireOperator(deps.Tokens, handler))
	}

	// Posts.
	protected("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		posts, err := deps.Content.ListAll(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"posts": posts})
	})
	protected("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var input content.PostInput
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.WriteError(w, err)
			return
		}
		post, err := deps.Content.CreatePost(r.Context(), input)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, post)
	})
	protected("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		post, err := deps.Content.GetPost(r.Context(), r.PathValue("id"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, post)
	})
	protected("PUT /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var input content.PostInput
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.WriteError(w, err)
			return
		}
		post, err := deps.Content.UpdatePost(r.Context(), r.PathValue("id"), input)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, post)
	})
	protected("DELETE /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Content.DeletePost(r.Context(), r.PathValue("id")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	protected("POST /posts/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		var payload publishRequest
		// An empty body publishes immediately.
		if r.ContentLength != 0 {
			if err := httpx.DecodeJSON(r, &payload); err != nil {
				httpx.WriteError(w, err)
				return
			}
		}
		post, err := deps.Content.PublishPost(r.Context(), r.PathValue("id"), payload.PublishAt)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, post)
	})
	protected("POST /posts/{id}/unpublish", func(w http.ResponseWriter, r *http.Request) {
		post, err := deps.Content.UnpublishPost(r.Context(), r.PathValue("id"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, post)
	})

	// Categories and tags.
	protected("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		categories, err := deps.Content.ListCategories(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
	})
	protected("POST /categories", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Name string `json:"name"`
		}
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		category, err := deps.Content.CreateCategory(r.Context(), payload.Name)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, category)
	})
	protected("DELETE /categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Content.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	protected("GET /tags", func(w http.ResponseWriter, r *http.Request) {
		tags, err := deps.Content.ListTags(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
	})
	protected("POST /tags", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Name string `json:"name"`
		}
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		tag, err := deps.Content.CreateTag(r.Context(), payload.Name)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, tag)
	})
	protected("DELETE /tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Content.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Surveys.
	protected("GET /surveys", func(w http.ResponseWriter, r *http.Request) {
		surveys, err := deps.Surveys.ListSurveys(r.Context(), false)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"surveys": surveys})
	})
	protected("POST /surveys", func(w http.ResponseWriter, r *http.Request) {
		var payload createSurveyRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		created, err := deps.Surveys.CreateSurvey(r.Context(), payload.Title, payload.Questions, payload.Active)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, created)
	})
	protected("DELETE /surveys/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Surveys.DeleteSurvey(r.Context(), r.PathValue("id")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	protected("GET /surveys/{id}/responses", func(w http.ResponseWriter, r *http.Request) {
		responses, err := deps.Surveys.ListResponses(r.Context(), r.PathValue("id"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"responses": responses})
	})

	// Media library.
	protected("GET /media", func(w http.ResponseWriter, r *http.Request) {
		if deps.Media == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnavailable, "media storage is not configured"))
			return
		}
		items, err := deps.Media.List(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"media": items})
	})
	protected("POST /media", func(w http.ResponseWriter, r *http.Request) {
		if deps.Media == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnavailable, "media storage is not configured"))
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindInvalidInput, "invalid multipart form"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindInvalidInput, "file field is required"))
			return
		}
		defer file.Close()

		uploaded, err := deps.Media.Upload(r.Context(), media.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			SizeBytes:   header.Size,
			Body:        file,
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, uploaded)
	})
	protected("DELETE /media/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Media == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnavailable, "media storage is not configured"))
			return
		}
		if err := deps.Media.Delete(r.Context(), r.PathValue("id")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Chat moderation.
	protected("PUT /presence", func(w http.ResponseWriter, r *http.Request) {
		if deps.Presence == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnavailable, "chat service is not configured"))
			return
		}
		var payload presenceRequest
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		event, err := deps.Presence.SetPresence(r.Context(), authtoken.BearerToken(r), payload.IsOnline)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, event)
	})
	protected("GET /blocklist", func(w http.ResponseWriter, r *http.Request) {
		records, err := deps.Blocklist.ListBlockedIPs(r.Context())
		if err != nil {
			httpx.WriteError(w, apperrors.Wrap(apperrors.KindUnknown, "list blocklist", err))
			return
		}
		entries := make([]blocklistEntry, 0, len(records))
		for _, record := range records {
			entries = append(entries, blocklistEntry(record))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"blocklist": entries})
	})
	protected("POST /blocklist", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Address string `json:"address"`
		}
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.WriteError(w, err)
			return
		}
		address := strings.TrimSpace(payload.Address)
		if net.ParseIP(address) == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindInvalidInput, "address must be a valid IP"))
			return
		}
		record := chatstorage.BlockedIPRecord{
			Address:   address,
			CreatedAt: time.Now().UTC(),
			CreatedBy: requestctx.OperatorIDFromContext(r.Context()),
		}
		if err := deps.Blocklist.PutBlockedIP(r.Context(), record); err != nil {
			httpx.WriteError(w, apperrors.Wrap(apperrors.KindUnknown, "block address", err))
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, blocklistEntry(record))
	})
	protected("DELETE /blocklist/{address}", func(w http.ResponseWriter, r *http.Request) {
		err := deps.Blocklist.DeleteBlockedIP(r.Context(), r.PathValue("address"))
		if errors.Is(err, chatstorage.ErrNotFound) {
			httpx.WriteError(w, apperrors.E(apperrors.KindNotFound, "address is not blocked"))
			return
		}
		if err != nil {
			httpx.WriteError(w, apperrors.Wrap(apperrors.KindUnknown, "unblock address", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// AI drafting.
	protected("POST /drafts", func(w http.ResponseWriter, r *http.Request) {
		if deps.Drafts == nil {
			httpx.WriteError(w, apperrors.E(apperrors.KindUnavailable, "draft generation is not configured"))
			return
		}
		var req ai.DraftRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		draft, err := deps.Drafts.GenerateDraft(r.Context(), req)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, draft)
	})

	return httpx.Chain(mux, httpx.RequestID("admin"), httpx.RecoverPanic())
}

// requireOperator verifies the bearer token and stores the operator id in
// request context. Failures answer as JSON.
func requireOperator(tokens authtoken.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := authtoken.Verify(tokens, authtoken.BearerToken(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithOperatorID(r.Context(), operatorID)))
	})
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
