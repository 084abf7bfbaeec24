// Package auth resolves bearer tokens into the current user.
package auth

import (
	"context"

	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// Provider is the Session/Identity Provider. Resolve returns an error
// wrapping common.ErrUnauthorized when the token does not identify a user.
type Provider interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// displayName picks the name a Supabase user registered with, if any.
func displayName(metadata map[string]any) string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
