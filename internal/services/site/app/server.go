// Package server hosts the public site: blog pages, JSON APIs, newsletter
// signup, survey submission, scheduling links, and a pass-through to the
// live-chat service so the widget talks to a single origin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwellhq/inkwell/internal/platform/timeouts"
	"github.com/inkwellhq/inkwell/internal/services/content"
	contentsqlite "github.com/inkwellhq/inkwell/internal/services/content/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/gate"
	"github.com/inkwellhq/inkwell/internal/services/newsletter"
	newslettersqlite "github.com/inkwellhq/inkwell/internal/services/newsletter/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/scheduling"
	"github.com/inkwellhq/inkwell/internal/services/survey"
	surveysqlite "github.com/inkwellhq/inkwell/internal/services/survey/storage/sqlite"
)

// Config defines the inputs for the site process.
type Config struct {
	HTTPAddr string

	ContentStoragePath    string
	NewsletterStoragePath string
	SurveyStoragePath     string

	RedisAddr string

	// ChatBaseURL addresses the chat service; /live-chat/* requests are
	// reverse-proxied there.
	ChatBaseURL string

	CalendlyToken   string
	CalendlyUserURI string
	CalendlyBaseURL string
	SchedulingTTL   time.Duration

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the public site HTTP process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	contentStore    *contentsqlite.Store
	newsletterStore *newslettersqlite.Store
	surveyStore     *surveysqlite.Store
	redisClient     *redis.Client
}

// NewServer builds a configured site server and opens its storage.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
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
	newsletterStore, err := newslettersqlite.Open(config.NewsletterStoragePath)
	if err != nil {
		contentStore.Close()
		return nil, fmt.Errorf("open newsletter storage: %w", err)
	}
	surveyStore, err := surveysqlite.Open(config.SurveyStoragePath)
	if err != nil {
		contentStore.Close()
		newsletterStore.Close()
		return nil, fmt.Errorf("open survey storage: %w", err)
	}

	var redisClient *redis.Client
	var counters gate.CounterStore = gate.NewMemoryCounters()
	if addr := strings.TrimSpace(config.RedisAddr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		counters = gate.NewRedisCounters(redisClient)
	}
	// Moderation blocklist checks happen inside the chat service behind the
	// proxy; the site gate only rate limits.
	accessGate := gate.New(gate.DefaultRules(), counters, nil)

	deps := Deps{
		Content:    content.NewService(contentStore),
		Newsletter: newsletter.NewService(newsletterStore),
		Surveys:    survey.NewService(surveyStore),
		AccessGate: accessGate,
	}

	if token := strings.TrimSpace(config.CalendlyToken); token != "" {
		client, err := scheduling.NewCalendlyClient(scheduling.CalendlyConfig{
			BaseURL: config.CalendlyBaseURL,
			Token:   token,
			UserURI: config.CalendlyUserURI,
		})
		if err != nil {
			contentStore.Close()
			newsletterStore.Close()
			surveyStore.Close()
			return nil, fmt.Errorf("build calendly client: %w", err)
		}
		deps.Scheduling = scheduling.NewCachedSource(client, config.SchedulingTTL)
	}

	if base := strings.TrimSpace(config.ChatBaseURL); base != "" {
		chatURL, err := url.Parse(base)
		if err != nil {
			contentStore.Close()
			newsletterStore.Close()
			surveyStore.Close()
			return nil, fmt.Errorf("parse chat base url: %w", err)
		}
		deps.ChatProxy = httputil.NewSingleHostReverseProxy(chatURL)
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
		newsletterStore: newsletterStore,
		surveyStore:     surveyStore,
		redisClient:     redisClient,
	}, nil
}

// Run creates and serves a site server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init site server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve site: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("site server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("site server listening on %s", s.httpAddr)
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
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Printf("close redis client: %v", err)
		}
	}
	for name, closer := range map[string]interface{ Close() error }{
		"content storage":    s.contentStore,
		"newsletter storage": s.newsletterStore,
		"survey storage":     s.surveyStore,
	} {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			log.Printf("close %s: %v", name, err)
		}
	}
}
