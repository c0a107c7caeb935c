// Package id generates identifiers for stored records and visitors.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a 26-character lowercase base32 identifier backed by 16
// random bytes with UUIDv4 version and variant bits set.
func NewID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80
	return strings.ToLower(encoding.EncodeToString(raw)), nil
}

// NewVisitorID returns a lowercase dashed UUIDv4 string in the canonical
// 8-4-4-4-12 layout. Visitor identifiers are pseudonymous, not credentials.
func NewVisitorID() string {
	return uuid.NewString()
}
