package firebase

import (
	"context"
	stderrors "errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselhub/internal/domain/entity"
	"counselhub/pkg/errors"
)

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f[idToken]; ok {
		return t, nil
	}
	return nil, stderrors.New("token expired")
}

func TestFirebaseIdentify(t *testing.T) {
	c := &FirebaseAuthClient{client: fakeVerifier{
		"admin":  {UID: "u1", Claims: map[string]interface{}{"role": "admin", "email": "a@example.com"}},
		"lawyer": {UID: "u2", Claims: map[string]interface{}{"role": "lawyer"}},
		"plain":  {UID: "u3", Claims: map[string]interface{}{}},
		"bogus":  {UID: "u4", Claims: map[string]interface{}{"role": "superuser"}},
	}}
	ctx := context.Background()

	tests := []struct {
		token string
		want  entity.Identity
	}{
		{"admin", entity.Identity{UserID: "u1", Role: entity.RoleAdmin, Email: "a@example.com"}},
		{"lawyer", entity.Identity{UserID: "u2", Role: entity.RoleLawyer}},
		{"plain", entity.Identity{UserID: "u3", Role: entity.RoleUser}},
		{"bogus", entity.Identity{UserID: "u4", Role: entity.RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := c.Identify(ctx, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := c.Identify(ctx, "expired")
	assert.Error(t, err)
}

func TestStaticTokensAndChain(t *testing.T) {
	ctx := context.Background()
	static := NewStaticTokens(map[string]string{
		"dev-admin":  "admin-1:admin",
		"dev-lawyer": "lawyer-1:lawyer",
		"broken":     ":admin",
	})

	id, err := static.Identify(ctx, "dev-admin")
	require.NoError(t, err)
	assert.Equal(t, entity.Identity{UserID: "admin-1", Role: entity.RoleAdmin}, id)

	_, err = static.Identify(ctx, "broken")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	fb := &FirebaseAuthClient{client: fakeVerifier{"real": {UID: "u9", Claims: map[string]interface{}{}}}}
	chain := NewChain(static, fb)

	id, err = chain.Identify(ctx, "dev-lawyer")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleLawyer, id.Role)

	id, err = chain.Identify(ctx, "real")
	require.NoError(t, err)
	assert.Equal(t, "u9", id.UserID)

	_, err = chain.Identify(ctx, "nobody")
	assert.Error(t, err)

	_, err = NewChain().Identify(ctx, "x")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}
