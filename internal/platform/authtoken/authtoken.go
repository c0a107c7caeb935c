// Package authtoken issues and verifies operator session tokens.
package authtoken

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/inkwellhq/inkwell/internal/platform/errors"
	"github.com/inkwellhq/inkwell/internal/platform/requestctx"
)

const defaultTokenTTL = 12 * time.Hour

// Config defines how operator tokens are signed and verified.
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// operatorClaims is the internal claims type used for JWT parsing.
type operatorClaims struct {
	jwt.RegisteredClaims
	Operator bool `json:"operator"`
}

// Issue signs a token for the given operator id.
func Issue(cfg Config, operatorID string) (string, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "operator id is required")
	}
	if len(cfg.Secret) == 0 {
		return "", apperrors.E(apperrors.KindUnavailable, "token signer is not configured")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	claims := operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now().UTC()),
			ExpiresAt: jwt.NewNumericDate(now().UTC().Add(ttl)),
		},
		Operator: true,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUnavailable, "sign operator token", err)
	}
	return signed, nil
}

// Verify parses a token and returns the operator id it names.
func Verify(cfg Config, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.E(apperrors.KindUnauthorized, "authentication required")
	}
	if len(cfg.Secret) == 0 {
		return "", apperrors.E(apperrors.KindUnavailable, "token verifier is not configured")
	}

	var parsed operatorClaims
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Now != nil {
		options = append(options, jwt.WithTimeFunc(cfg.Now))
	}
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, options...)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUnauthorized, "invalid operator token", err)
	}
	if !parsed.Operator {
		return "", apperrors.E(apperrors.KindForbidden, "operator privilege required")
	}
	operatorID := strings.TrimSpace(parsed.Subject)
	if operatorID == "" {
		return "", apperrors.E(apperrors.KindUnauthorized, "invalid operator token")
	}
	return operatorID, nil
}

// BearerToken extracts the bearer credential from an Authorization header.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Middleware enforces operator authentication and stores the operator id in
// request context.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operatorID, err := Verify(cfg, BearerToken(r))
			if err != nil {
				status := apperrors.HTTPStatus(err)
				http.Error(w, apperrors.Message(err), status)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithOperatorID(r.Context(), operatorID)))
		})
	}
}
