package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"counselhub/internal/domain/repository"
	"counselhub/pkg/errors"
)

// MemoryCollectionClient is an in-process CollectionClient. Every write is delivered
// synchronously to matching subscriptions before the write returns, under one lock, so
// per-document order holds. Handlers must not write back to the client.
type MemoryCollectionClient struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	subs        map[int]*memorySubscription
	nextSubID   int
}

func NewMemoryCollectionClient() *MemoryCollectionClient {
	return &MemoryCollectionClient{
		collections: make(map[string]map[string]map[string]interface{}),
		subs:        make(map[int]*memorySubscription),
	}
}

var _ repository.CollectionClient = (*MemoryCollectionClient)(nil)

type memorySubscription struct {
	id         int
	client     *MemoryCollectionClient
	query      repository.Query
	onSnapshot repository.SnapshotHandler
	last       map[string]map[string]interface{}
	stopOnce   sync.Once
}

func (s *memorySubscription) Stop() {
	s.stopOnce.Do(func() {
		s.client.mu.Lock()
		delete(s.client.subs, s.id)
		s.client.mu.Unlock()
	})
}

func (c *MemoryCollectionClient) Subscribe(ctx context.Context, q repository.Query, onSnapshot repository.SnapshotHandler, onError repository.ErrorHandler) (repository.Subscription, error) {
	if q.Collection == "" {
		return nil, errors.Validation("collection is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport("subscription context is done", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	sub := &memorySubscription{
		id:         c.nextSubID,
		client:     c,
		query:      q,
		onSnapshot: onSnapshot,
		last:       map[string]map[string]interface{}{},
	}
	c.subs[sub.id] = sub
	c.deliver(sub)

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Stop()
		}()
	}
	return sub, nil
}

func (c *MemoryCollectionClient) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.collections[collection][id]
	if !ok {
		return repository.Document{}, errors.NotFound(fmt.Sprintf("%s/%s", collection, id), nil)
	}
	return repository.Document{ID: id, Data: cloneMap(data)}, nil
}

func (c *MemoryCollectionClient) Create(ctx context.Context, collection, id string, data map[string]interface{}) error {
	return c.Commit(ctx, []repository.WriteOp{{Kind: repository.WriteCreate, Collection: collection, ID: id, Data: data}})
}

func (c *MemoryCollectionClient) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return c.Commit(ctx, []repository.WriteOp{{Kind: repository.WriteUpdate, Collection: collection, ID: id, Data: fields}})
}

func (c *MemoryCollectionClient) Delete(ctx context.Context, collection, id string) error {
	return c.Commit(ctx, []repository.WriteOp{{Kind: repository.WriteDelete, Collection: collection, ID: id}})
}

func (c *MemoryCollectionClient) Commit(ctx context.Context, ops []repository.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return errors.Transport("write context is done", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Validate the whole batch against current state plus earlier ops in it.
	exists := func(collection, id string) bool {
		_, ok := c.collections[collection][id]
		return ok
	}
	pending := map[string]bool{}
	for _, op := range ops {
		if op.Collection == "" || op.ID == "" {
			return errors.Validation("collection and id are required", nil)
		}
		key := op.Collection + "/" + op.ID
		present, seen := pending[key]
		if !seen {
			present = exists(op.Collection, op.ID)
		}
		switch op.Kind {
		case repository.WriteCreate:
			if present {
				return errors.Validation(fmt.Sprintf("document %s already exists", key), nil)
			}
			pending[key] = true
		case repository.WriteUpdate:
			if !present {
				return errors.NotFound(key, nil)
			}
		case repository.WriteDelete:
			pending[key] = false
		default:
			return errors.Validation("unknown write kind", nil)
		}
	}

	touched := map[string]bool{}
	for _, op := range ops {
		coll := c.collections[op.Collection]
		if coll == nil {
			coll = make(map[string]map[string]interface{})
			c.collections[op.Collection] = coll
		}
		switch op.Kind {
		case repository.WriteCreate:
			coll[op.ID] = cloneMap(op.Data)
		case repository.WriteUpdate:
			for k, v := range op.Data {
				coll[op.ID][k] = cloneValue(v)
			}
		case repository.WriteDelete:
			delete(coll, op.ID)
		}
		touched[op.Collection] = true
	}

	for _, sub := range c.sortedSubs() {
		if touched[sub.query.Collection] {
			c.deliver(sub)
		}
	}
	return nil
}

func (c *MemoryCollectionClient) sortedSubs() []*memorySubscription {
	out := make([]*memorySubscription, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// deliver computes the subscription's current result set and diff. Caller holds c.mu.
func (c *MemoryCollectionClient) deliver(sub *memorySubscription) {
	docs := c.run(sub.query)

	current := make(map[string]map[string]interface{}, len(docs))
	var changes []repository.DocumentChange
	for _, d := range docs {
		current[d.ID] = d.Data
		prev, had := sub.last[d.ID]
		switch {
		case !had:
			changes = append(changes, repository.DocumentChange{Kind: repository.DocumentAdded, Doc: d})
		case !reflect.DeepEqual(prev, d.Data):
			changes = append(changes, repository.DocumentChange{Kind: repository.DocumentModified, Doc: d})
		}
	}
	removedIDs := make([]string, 0)
	for id := range sub.last {
		if _, ok := current[id]; !ok {
			removedIDs = append(removedIDs, id)
		}
	}
	sort.Strings(removedIDs)
	for _, id := range removedIDs {
		changes = append(changes, repository.DocumentChange{
			Kind: repository.DocumentRemoved,
			Doc:  repository.Document{ID: id, Data: sub.last[id]},
		})
	}

	sub.last = current
	sub.onSnapshot(repository.Snapshot{
		Collection: sub.query.Collection,
		Docs:       docs,
		Changes:    changes,
	})
}

func (c *MemoryCollectionClient) run(q repository.Query) []repository.Document {
	var docs []repository.Document
	for id, data := range c.collections[q.Collection] {
		if !matches(data, q.Where) {
			continue
		}
		docs = append(docs, repository.Document{ID: id, Data: cloneMap(data)})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			cmp := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if cmp != 0 {
				if q.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func matches(data map[string]interface{}, where []repository.Filter) bool {
	for _, f := range where {
		if compareValues(data[f.Field], f.Value) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders values of the same kind; mismatched kinds compare by rank.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		bt := b.(time.Time)
		switch {
		case av.Before(bt):
			return -1
		case av.After(bt):
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	default:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int32, int64, float32, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	}
	return v
}
