package repository

import (
	"fmt"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"counselhub/internal/domain/repository"
	"counselhub/pkg/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", status.Error(codes.NotFound, "gone"), errors.CodeNotFound},
		{"duplicate create", status.Error(codes.AlreadyExists, "dup"), errors.CodeValidation},
		{"unavailable", status.Error(codes.Unavailable, "down"), errors.CodeTransport},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), errors.CodeTransport},
		{"plain error", fmt.Errorf("socket closed"), errors.CodeTransport},
		{"app error passes through", errors.Validation("bad", nil), errors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(mapError(tt.err, "reviews/x"), tt.code))
		})
	}
	assert.NoError(t, mapError(nil, "reviews/x"))
}

func TestUpdatesAreSorted(t *testing.T) {
	got := updates(map[string]interface{}{"status": "closed", "updated_at": 1, "assigned_lawyer": "x"})
	paths := make([]string, 0, len(got))
	for _, u := range got {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{"assigned_lawyer", "status", "updated_at"}, paths)
}

func TestChangeKind(t *testing.T) {
	assert.Equal(t, repository.DocumentAdded, changeKind(firestore.DocumentAdded))
	assert.Equal(t, repository.DocumentModified, changeKind(firestore.DocumentModified))
	assert.Equal(t, repository.DocumentRemoved, changeKind(firestore.DocumentRemoved))
}
