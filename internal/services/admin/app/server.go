// Package server hosts the operator back office: a JWT-protected JSON API
// for authoring posts, categories, tags, surveys, and media, moderating the
// chat blocklist, toggling operator presence, and generating post drafts.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/internal/platform/authtoken"
	"github.com/inkwellhq/inkwell/internal/platform/timeouts"
	"github.com/inkwellhq/inkwell/internal/services/ai"
	chatsqlite "github.com/inkwellhq/inkwell/internal/services/chat/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/content"
	contentsqlite "github.com/inkwellhq/inkwell/internal/services/content/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/media"
	mediasqlite "github.com/inkwellhq/inkwell/internal/services/media/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/survey"
	surveysqlite "github.com/inkwellhq/inkwell/internal/services/survey/storage/sqlite"
)

// Config defines the inputs for the admin process.
type Config struct {
	HTTPAddr string

	ContentStoragePath string
	SurveyStoragePath  string
	MediaStoragePath   string
	// ChatStoragePath points at the chat service's database. The blocklist
	// lives there; both processes share the file under WAL.
	ChatStoragePath string

	// ChatBaseURL addresses the chat service so presence toggles flow through
	// its hub instead of writing the row behind its back.
	ChatBaseURL string

	TokenIssuer string
	TokenSecret string
	TokenTTL    time.Duration

	// OperatorID and OperatorKey are the credentials exchanged for a bearer
	// token at POST /auth/token.
	OperatorID  string
	OperatorKey string

	AIAPIKey       string
	AIModel        string
	AIResponsesURL string

	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UseSSL        bool

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the admin HTTP process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	contentStore    *contentsqlite.Store
	surveyStore     *surveysqlite.Store
	mediaStore      *mediasqlite.Store
	chatStore       *chatsqlite.Store
}

// NewServer builds a configured admin server and opens its storage.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.OperatorKey) == "" {
		return nil, errors.New("operator key is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	contentStore, err := contentsqlite.Open(config.ContentStoragePath)
	if err != nil {
		return nil, fmt.Errorf("open content storage: %w", err)
	}
	surveyStore, err := surveysqlite.Open(config.SurveyStoragePath)
	if err != nil {
		contentStore.Close()
		return nil, fmt.Errorf("open survey storage: %w", err)
	}
	mediaStore, err := mediasqlite.Open(config.MediaStoragePath)
	if err != nil {
		contentStore.Close()
		surveyStore.Close()
		return nil, fmt.Errorf("open media storage: %w", err)
	}
	chatStore, err := chatsqlite.Open(config.ChatStoragePath)
	if err != nil {
		contentStore.Close()
		surveyStore.Close()
		mediaStore.Close()
		return nil, fmt.Errorf("open chat storage: %w", err)
	}

	deps := Deps{
		Content:   content.NewService(contentStore),
		Surveys:   survey.NewService(surveyStore),
		Blocklist: chatStore,
		Tokens: authtoken.Config{
			Issuer: strings.TrimSpace(config.TokenIssuer),
			Secret: []byte(config.TokenSecret),
			TTL:    config.TokenTTL,
		},
		OperatorID:  strings.TrimSpace(config.OperatorID),
		OperatorKey: config.OperatorKey,
	}

	if addr := strings.TrimSpace(config.ChatBaseURL); addr != "" {
		deps.Presence = NewChatPresenceClient(addr, nil)
	}

	if strings.TrimSpace(config.S3Endpoint) != "" {
		objects, err := media.NewS3Store(media.S3Config{
			Endpoint:      config.S3Endpoint,
			AccessKey:     config.S3AccessKey,
			SecretKey:     config.S3SecretKey,
			Bucket:        config.S3Bucket,
			PublicBaseURL: config.S3PublicBaseURL,
			UseSSL:        config.S3UseSSL,
		})
		if err != nil {
			contentStore.Close()
			surveyStore.Close()
			mediaStore.Close()
			chatStore.Close()
			return nil, fmt.Errorf("connect media object storage: %w", err)
		}
		deps.Media = media.NewService(objects, mediaStore)
	}

	if strings.TrimSpace(config.AIAPIKey) != "" {
		generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			ResponsesURL: config.AIResponsesURL,
			APIKey:       config.AIAPIKey,
			Model:        config.AIModel,
		})
		if err != nil {
			contentStore.Close()
			surveyStore.Close()
			mediaStore.Close()
			chatStore.Close()
			return nil, fmt.Errorf("build draft generator: %w", err)
		}
		deps.Drafts = generator
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		contentStore:    contentStore,
		surveyStore:     surveyStore,
		mediaStore:      mediaStore,
		chatStore:       chatStore,
	}, nil
}

// Run creates and serves an admin server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init admin server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve admin: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("admin server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("admin server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	for name, closer := range map[string]interface{ Close() error }{
		"content storage": s.contentStore,
		"survey storage":  s.surveyStore,
		"media storage":   s.mediaStore,
		"chat storage":    s.chatStore,
	} {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			log.Printf("close %s: %v", name, err)
		}
	}
}
