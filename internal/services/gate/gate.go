// Package gate decides whether an inbound visitor action may proceed.
//
// The gate combines a fixed-window rate limiter with an IP blocklist. Every
// internal failure degrades to the permissive outcome: visitors are never
// blocked because a store was unreachable. This is a product decision that
// favors availability over strict enforcement.
package gate

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"time"
)

// ErrNotFound indicates a requested rule or blocklist row is missing.
var ErrNotFound = errors.New("record not found")

// Rule bounds one action inside a fixed window.
type Rule struct {
	Window   time.Duration
	MaxCount int
}

// RuleSource resolves the rate limit rule for a named action.
type RuleSource interface {
	RuleFor(ctx context.Context, action string) (Rule, error)
}

// CounterStore increments fixed-window counters keyed by identifier+action.
// Implementations reset the count when the window elapses and report the
// remaining window duration alongside the new count.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, remaining time.Duration, err error)
}

// BlocklistLookup answers whether an address is on the moderation blocklist.
// Implementations return ErrNotFound for addresses that are not listed.
type BlocklistLookup interface {
	LookupBlockedIP(ctx context.Context, address string) error
}

// Decision is the outcome of one gate check.
type Decision struct {
	Allowed    bool
	Blocked    bool
	RetryAfter time.Duration
}

// Gate guards public endpoints with rate limiting and blocklist checks.
type Gate struct {
	rules     RuleSource
	counters  CounterStore
	blocklist BlocklistLookup
}

// New builds a gate from its three collaborators.
func New(rules RuleSource, counters CounterStore, blocklist BlocklistLookup) *Gate {
	return &Gate{rules: rules, counters: counters, blocklist: blocklist}
}

// CheckAccess decides whether the caller may proceed with the named action.
//
// The rate limiter always applies, including for loopback callers. The
// blocklist check is skipped for loopback and empty identifiers to keep
// local development working. No error ever reaches the caller; failures
// are logged and treated as allowed.
func (g *Gate) CheckAccess(ctx context.Context, clientIdentifier string, action string) Decision {
	clientIdentifier = strings.TrimSpace(clientIdentifier)
	action = strings.TrimSpace(action)

	if decision, limited := g.applyRateLimit(ctx, clientIdentifier, action); limited {
		return decision
	}

	if isLoopback(clientIdentifier) {
		return Decision{Allowed: true}
	}
	if g.isBlocked(ctx, clientIdentifier) {
		return Decision{Allowed: false, Blocked: true}
	}
	return Decision{Allowed: true}
}

func (g *Gate) applyRateLimit(ctx context.Context, clientIdentifier string, action string) (Decision, bool) {
	if g.rules == nil || g.counters == nil {
		return Decision{}, false
	}
	rule, err := g.rules.RuleFor(ctx, action)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("gate: rule lookup failed action=%q: %v", action, err)
		}
		return Decision{}, false
	}
	if rule.MaxCount <= 0 || rule.Window <= 0 {
		return Decision{}, false
	}

	key := clientIdentifier + "|" + action
	count, remaining, err := g.counters.Increment(ctx, key, rule.Window)
	if err != nil {
		log.Printf("gate: counter increment failed key=%q: %v", key, err)
		return Decision{}, false
	}
	if count > rule.MaxCount {
		return Decision{Allowed: false, RetryAfter: remaining}, true
	}
	return Decision{}, false
}

func (g *Gate) isBlocked(ctx context.Context, address string) bool {
	if g.blocklist == nil {
		return false
	}
	err := g.blocklist.LookupBlockedIP(ctx, address)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	log.Printf("gate: blocklist lookup failed address=%q: %v", address, err)
	return false
}

func isLoopback(identifier string) bool {
	if identifier == "" {
		return true
	}
	ip := net.ParseIP(identifier)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
