// Package auth provides JWT-based authentication and scope:action RBAC for
// chatforge-engine. Tokens are validated against JWKS endpoints of the
// account service.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT claims structure issued by the account service. It embeds
// RegisteredClaims for the standard fields and adds project context.
type Claims struct {
	jwt.RegisteredClaims
	ProjectID string   `json:"pid,omitempty"`   // Project UUID the token is scoped to
	Email     string   `json:"email,omitempty"` // User email address
	Roles     []string `json:"roles,omitempty"` // Role names within the project
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ExtractClaimsFromContext extracts project ID and subject from JWT claims in
// context. Returns an error if not authenticated or claims are invalid.
func ExtractClaimsFromContext(ctx context.Context) (uuid.UUID, string, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, "", fmt.Errorf("authentication required: no claims in context")
	}

	if claims.ProjectID == "" {
		return uuid.Nil, "", fmt.Errorf("missing project ID in JWT claims")
	}

	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid project ID format: %w", err)
	}

	return projectID, claims.Subject, nil
}
