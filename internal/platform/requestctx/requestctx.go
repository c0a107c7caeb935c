// Package requestctx carries request-scoped identity through context.
package requestctx

import "context"

type operatorIDContextKey struct{}

type visitorIDContextKey struct{}

// WithOperatorID stores an authenticated operator identifier in context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operatorIDContextKey{}, operatorID)
}

// OperatorIDFromContext returns the operator identifier stored in context.
func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(operatorIDContextKey{}).(string)
	return value
}

// WithVisitorID stores a pseudonymous visitor identifier in context.
func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, visitorIDContextKey{}, visitorID)
}

// VisitorIDFromContext returns the visitor identifier stored in context.
func VisitorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(visitorIDContextKey{}).(string)
	return value
}
