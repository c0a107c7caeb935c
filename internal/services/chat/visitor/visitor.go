// Package visitor assigns stable anonymous identifiers to site visitors.
//
// A visitor keeps the same identifier across sessions so their chat
// conversation survives page reloads. The identifier carries no account
// linkage; clearing it simply mints a fresh anonymous identity.
package visitor

import (
	"net/http"
	"regexp"
	"time"

	"github.com/inkwellhq/inkwell/internal/platform/id"
)

// StorageKey is the fixed key under which the visitor identifier is kept on
// the client. Renaming it orphans every existing conversation.
const StorageKey = "inkwell_visitor_id"

// cookieTTL keeps returning visitors recognizable for a year.
const cookieTTL = 365 * 24 * time.Hour

var idShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Store reads and writes the visitor identifier on some client-side medium.
type Store interface {
	Get() (string, bool)
	Set(value string)
}

// GetOrCreate returns the stored visitor identifier, minting and persisting a
// new one when the store is empty or holds a malformed value.
func GetOrCreate(store Store) string {
	if value, ok := store.Get(); ok && Valid(value) {
		return value
	}
	value := id.NewVisitorID()
	store.Set(value)
	return value
}

// Valid reports whether value has the expected identifier shape.
func Valid(value string) bool {
	return idShape.MatchString(value)
}

// CookieJar adapts an HTTP request/response pair to the Store interface.
type CookieJar struct {
	Request *http.Request
	Writer  http.ResponseWriter
}

// Get returns the identifier cookie if present.
func (j CookieJar) Get() (string, bool) {
	cookie, err := j.Request.Cookie(StorageKey)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Set writes the identifier cookie on the response.
func (j CookieJar) Set(value string) {
	http.SetCookie(j.Writer, &http.Cookie{
		Name:     StorageKey,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest resolves the visitor identifier for an HTTP exchange, setting
// the cookie when a new identity is minted.
func FromRequest(w http.ResponseWriter, r *http.Request) string {
	return GetOrCreate(CookieJar{Request: r, Writer: w})
}
