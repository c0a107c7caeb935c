package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(E(tc.kind, "boom")); got != tc.want {
			t.Fatalf("kind %s: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestHTTPStatusUntypedError(t *testing.T) {
	if got := HTTPStatus(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", got)
	}
	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("expected 200 for nil error, got %d", got)
	}
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(KindUnavailable, "store write failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if KindOf(wrapped) != KindUnavailable {
		t.Fatalf("expected unavailable kind through chain, got %s", KindOf(wrapped))
	}
}

func TestMessageFallsBackForUntyped(t *testing.T) {
	if got := Message(stderrors.New("sql: connection reset")); got != "internal error" {
		t.Fatalf("expected opaque message for untyped error, got %q", got)
	}
	if got := Message(E(KindInvalidInput, "title is required")); got != "title is required" {
		t.Fatalf("expected typed message, got %q", got)
	}
}
