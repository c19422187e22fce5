// Package appctx carries request-scoped identity and tracing data in context.
package appctx

import (
	"context"

	"hidesync/internal/core/id"
)

// UserContext holds the authenticated caller.
type UserContext struct {
	UserID id.ID
	Email  string
	Tier   string
}

// TraceContext holds request tracing identifiers.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type userKey struct{}
type traceKey struct{}

// WithUser adds user context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns user context or nil.
func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetUserID returns the caller's user id, nil when unauthenticated.
func GetUserID(ctx context.Context) id.ID {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return id.Nil()
}

// GetUserTier returns the caller's subscription tier or empty string.
func GetUserTier(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Tier
	}
	return ""
}

// WithTrace adds trace context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace context or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if t, ok := ctx.Value(traceKey{}).(*TraceContext); ok {
		return t
	}
	return nil
}
