package vocalis

import (
	"context"
	"time"
)

const grantPath = "/v1/auth/grant"

// AuthService issues short-lived access tokens.
type AuthService struct {
	client *Client
}

// Grant is a short-lived bearer token, for handing to clients that should
// not hold the account API key.
type Grant struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
}

// TTL returns the grant's lifetime.
func (g *Grant) TTL() time.Duration {
	return time.Duration(g.ExpiresIn * float64(time.Second))
}

// GrantToken exchanges the configured API key for a short-lived token.
// Use the result with WithAccessToken on a new client.
func (s *AuthService) GrantToken(ctx context.Context) (*Grant, error) {
	var out Grant
	if err := s.client.postJSON(ctx, grantPath, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
