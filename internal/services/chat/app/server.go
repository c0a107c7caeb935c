// Package server hosts the live-chat HTTP and WebSocket surface.
//
// It owns the presence singleton, the visitor conversation store, and the
// access gate for chat actions. Widgets poll or subscribe over WebSocket;
// operator consoles authenticate with bearer tokens to toggle presence and
// receive chat notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkwellhq/inkwell/internal/platform/authtoken"
	"github.com/inkwellhq/inkwell/internal/platform/timeouts"
	"github.com/inkwellhq/inkwell/internal/services/chat"
	"github.com/inkwellhq/inkwell/internal/services/chat/storage"
	"github.com/inkwellhq/inkwell/internal/services/chat/storage/sqlite"
	"github.com/inkwellhq/inkwell/internal/services/gate"
)

// Config defines the inputs for the chat process.
type Config struct {
	HTTPAddr          string
	StoragePath       string
	RedisAddr         string
	TokenIssuer       string
	TokenSecret       string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the chat HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *sqlite.Store
	redisClient     *redis.Client
}

// blocklistLookup adapts the chat blocklist store to the gate's contract.
type blocklistLookup struct {
	store storage.BlocklistStore
}

func (b blocklistLookup) LookupBlockedIP(ctx context.Context, address string) error {
	_, err := b.store.GetBlockedIP(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return gate.ErrNotFound
	}
	return err
}

// NewServer builds a configured chat server and opens its storage.
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

	store, err := sqlite.Open(config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open chat storage: %w", err)
	}

	var redisClient *redis.Client
	var counters gate.CounterStore = gate.NewMemoryCounters()
	if addr := strings.TrimSpace(config.RedisAddr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		counters = gate.NewRedisCounters(redisClient)
	}
	accessGate := gate.New(gate.DefaultRules(), counters, blocklistLookup{store: store})

	hub := chat.NewHub()
	service := chat.NewService(store, store, hub)
	tokens := authtoken.Config{
		Issuer: strings.TrimSpace(config.TokenIssuer),
		Secret: []byte(config.TokenSecret),
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(service, hub, accessGate, tokens),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           store,
		redisClient:     redisClient,
	}, nil
}

// Run creates and serves a chat server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init chat server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve chat: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("chat server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("chat server listening on %s", s.httpAddr)
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
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close chat storage: %v", err)
		}
	}
}
