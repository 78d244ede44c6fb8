package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"counselhub/internal/domain/entity"
)

// RoleClaim is the custom claim holding the caller's directory role.
const RoleClaim = "role"

// tokenVerifier is the part of *auth.Client the accessor needs.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type FirebaseAuthClient struct {
	client tokenVerifier
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// Identify verifies an ID token and reads the role from its custom claims.
// Tokens without a recognised role resolve to a plain user.
func (f *FirebaseAuthClient) Identify(ctx context.Context, token string) (entity.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return entity.Identity{}, err
	}
	return identityFromToken(result), nil
}

func identityFromToken(t *auth.Token) entity.Identity {
	id := entity.Identity{UserID: t.UID, Role: entity.RoleUser}
	if role, ok := t.Claims[RoleClaim].(string); ok {
		id.Role = entity.ParseRole(role)
	}
	if email, ok := t.Claims["email"].(string); ok {
		id.Email = email
	}
	return id
}
