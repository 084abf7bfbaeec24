package auth

import (
	"context"
	"fmt"

	supabase "github.com/nedpals/supabase-go"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// SupabaseProvider asks Supabase Auth who the token belongs to. Use it when
// the JWT secret is not available to this service.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(url, anonKey string) *SupabaseProvider {
	return &SupabaseProvider{client: supabase.CreateClient(url, anonKey)}
}

func (p *SupabaseProvider) Resolve(ctx context.Context, token string) (*models.User, error) {
	u, err := p.client.Auth.User(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if u == nil || u.ID == "" {
		return nil, fmt.Errorf("%w: unknown user", common.ErrUnauthorized)
	}
	return &models.User{
		ID:    u.ID,
		Email: u.Email,
		Name:  displayName(u.UserMetadata),
	}, nil
}
