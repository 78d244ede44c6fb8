package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	memory "counselhub/internal/adapter/repository"
	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/repository"
	"counselhub/pkg/errors"
)

var (
	admin  = entity.Identity{UserID: "admin-1", Role: entity.RoleAdmin}
	lawyer = entity.Identity{UserID: "lawyer-1", Role: entity.RoleLawyer}
	member = entity.Identity{UserID: "user-1", Role: entity.RoleUser}
)

var testCollections = LeadCollections{
	DirectContact: "intake_leads",
	MatchRequest:  "leads",
	Contacts:      "lead_contacts",
	Conflicts:     "lead_conflicts",
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// flakyClient wraps the in-memory client. Writes fail while failWrites is set, a
// chosen collection can be made to reject commits, and subscription error handlers
// are captured so tests can break a listener.
type flakyClient struct {
	*memory.MemoryCollectionClient

	mu             sync.Mutex
	failWrites     bool
	failCollection string
	onError        map[string]repository.ErrorHandler
}

func newFlakyClient() *flakyClient {
	return &flakyClient{
		MemoryCollectionClient: memory.NewMemoryCollectionClient(),
		onError:                map[string]repository.ErrorHandler{},
	}
}

func (f *flakyClient) Subscribe(ctx context.Context, q repository.Query, onSnapshot repository.SnapshotHandler, onError repository.ErrorHandler) (repository.Subscription, error) {
	f.mu.Lock()
	f.onError[q.Collection] = onError
	f.mu.Unlock()
	return f.MemoryCollectionClient.Subscribe(ctx, q, onSnapshot, onError)
}

func (f *flakyClient) breakListener(collection string, err error) {
	f.mu.Lock()
	fn := f.onError[collection]
	f.mu.Unlock()
	fn(err)
}

func (f *flakyClient) writeErr(collections ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.Transport("backend unavailable", nil)
	}
	for _, c := range collections {
		if f.failCollection != "" && c == f.failCollection {
			return errors.Transport("backend unavailable for "+c, nil)
		}
	}
	return nil
}

func (f *flakyClient) Create(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := f.writeErr(collection); err != nil {
		return err
	}
	return f.MemoryCollectionClient.Create(ctx, collection, id, data)
}

func (f *flakyClient) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := f.writeErr(collection); err != nil {
		return err
	}
	return f.MemoryCollectionClient.Update(ctx, collection, id, fields)
}

func (f *flakyClient) Delete(ctx context.Context, collection, id string) error {
	if err := f.writeErr(collection); err != nil {
		return err
	}
	return f.MemoryCollectionClient.Delete(ctx, collection, id)
}

func (f *flakyClient) Commit(ctx context.Context, ops []repository.WriteOp) error {
	collections := make([]string, 0, len(ops))
	for _, op := range ops {
		collections = append(collections, op.Collection)
	}
	if err := f.writeErr(collections...); err != nil {
		return err
	}
	return f.MemoryCollectionClient.Commit(ctx, ops)
}

func (f *flakyClient) setFailWrites(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

func (f *flakyClient) setFailCollection(c string) {
	f.mu.Lock()
	f.failCollection = c
	f.mu.Unlock()
}
