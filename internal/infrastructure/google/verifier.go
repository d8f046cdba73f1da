package google

import (
	"context"
	"fmt"

	"github.com/go-member-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify validates the ID token and returns the social profile it carries.
// Tokens whose email is missing or unverified are rejected with domain.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (domain.SocialProfile, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return domain.SocialProfile{}, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	verified, _ := p.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return domain.SocialProfile{}, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}
	name, _ := p.Claims["name"].(string)
	return domain.SocialProfile{
		Provider:   domain.ProviderGoogle,
		Subject:    p.Subject,
		Email:      email,
		Name:       name,
		Attributes: p.Claims,
	}, nil
}
