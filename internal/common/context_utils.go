package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	principalKey contextKey = "principal"
)

const (
	AuthMethodAPIKey  = "api_key"
	AuthMethodSession = "session"
)

// Principal is the authenticated caller of a request. UserID is uuid.Nil
// for API key callers.
type Principal struct {
	BusinessID uuid.UUID
	UserID     uuid.UUID
	Role       string
	Method     string
	APIKeyID   uuid.UUID
}

// WithPrincipal stores the authenticated caller in the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated caller from the context
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// GetBusinessIDFromContext extracts the tenant (business) ID from the request context
func GetBusinessIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.BusinessID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.BusinessID, true
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.UserID, true
}
