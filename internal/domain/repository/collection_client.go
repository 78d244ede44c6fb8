package repository

import (
	"context"
)

// Document is one stored record. Data holds backend-native values: nested maps,
// slices, time.Time, int64/float64, strings and bools.
type Document struct {
	ID   string
	Data map[string]interface{}
}

type ChangeKind int

const (
	DocumentAdded ChangeKind = iota
	DocumentModified
	DocumentRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case DocumentAdded:
		return "added"
	case DocumentModified:
		return "modified"
	case DocumentRemoved:
		return "removed"
	}
	return "unknown"
}

type DocumentChange struct {
	Kind ChangeKind
	Doc  Document
}

// Snapshot is one delivery of a subscription. Docs is the complete ordered result
// set at that point; Changes lists what moved since the previous delivery.
type Snapshot struct {
	Collection string
	Docs       []Document
	Changes    []DocumentChange
}

// Filter is an equality constraint on a top-level field.
type Filter struct {
	Field string
	Value interface{}
}

type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

type SnapshotHandler func(Snapshot)

// ErrorHandler receives listener failures. The subscription keeps retrying after
// reporting; consumers keep serving their last snapshot meanwhile.
type ErrorHandler func(error)

// Subscription is a standing listener. Stop releases it and is safe to call twice.
type Subscription interface {
	Stop()
}

type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteDelete
)

type WriteOp struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]interface{}
}

// CollectionClient is the real-time document store. Delivery is at-least-once and
// ordered per document; nothing is ordered across collections.
type CollectionClient interface {
	Subscribe(ctx context.Context, q Query, onSnapshot SnapshotHandler, onError ErrorHandler) (Subscription, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create fails if id already exists, so a retried create cannot duplicate a record.
	Create(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Update merges top-level fields and fails with NotFound if the document is missing.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// Commit applies every op or none of them.
	Commit(ctx context.Context, ops []WriteOp) error
}
