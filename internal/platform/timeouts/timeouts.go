// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ProviderRequest caps a single outbound call to an external provider
// (AI generation, scheduling API, object storage).
const ProviderRequest = 30 * time.Second

// StoreRequest caps a single storage round trip from a request handler.
const StoreRequest = 2 * time.Second
