package authtoken

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/requestctx"
)

func testConfig() Config {
	return Config{
		Issuer: "inkwell-test",
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Hour,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	cfg := testConfig()
	token, err := Issue(cfg, "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	operatorID, err := Verify(cfg, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if operatorID != "op-1" {
		t.Fatalf("expected op-1, got %q", operatorID)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	issued := time.Now().Add(-2 * time.Hour)
	cfg.Now = func() time.Time { return issued }
	token, err := Issue(cfg, "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cfg.Now = time.Now
	if _, err := Verify(cfg, token); err == nil {
		t.Fatal("expected expiry error")
	} else if apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %s", apperrors.KindOf(err))
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	token, err := Issue(cfg, "op-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := testConfig()
	other.Secret = []byte("ffffffffffffffffffffffffffffffff")
	if _, err := Verify(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestMiddlewareStoresOperator(t *testing.T) {
	cfg := testConfig()
	token, err := Issue(cfg, "op-7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen string
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.OperatorIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != "op-7" {
		t.Fatalf("expected operator in context, got %q", seen)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	handler := Middleware(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/posts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
