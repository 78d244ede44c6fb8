package firebase

import (
	"context"
	"strings"

	"counselhub/internal/domain/entity"
	"counselhub/pkg/errors"
)

// StaticTokens resolves fixed bearer tokens configured for local runs.
type StaticTokens struct {
	identities map[string]entity.Identity
}

// NewStaticTokens takes token → "uid:role" pairs.
func NewStaticTokens(tokens map[string]string) *StaticTokens {
	identities := make(map[string]entity.Identity, len(tokens))
	for token, entry := range tokens {
		uid, role, _ := strings.Cut(entry, ":")
		if uid == "" {
			continue
		}
		identities[token] = entity.Identity{UserID: uid, Role: entity.ParseRole(role)}
	}
	return &StaticTokens{identities: identities}
}

func (s *StaticTokens) Identify(ctx context.Context, token string) (entity.Identity, error) {
	id, ok := s.identities[token]
	if !ok {
		return entity.Identity{}, errors.Unauthorized("unknown token", nil)
	}
	return id, nil
}

type accessor interface {
	Identify(ctx context.Context, token string) (entity.Identity, error)
}

// Chain tries each accessor in order and returns the first identity resolved.
type Chain []accessor

func NewChain(accessors ...accessor) Chain {
	out := Chain{}
	for _, a := range accessors {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (c Chain) Identify(ctx context.Context, token string) (entity.Identity, error) {
	var lastErr error = errors.Unauthorized("no identity provider configured", nil)
	for _, a := range c {
		id, err := a.Identify(ctx, token)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return entity.Identity{}, lastErr
}
