package repository

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"counselhub/internal/domain/repository"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
)

type firestoreCollectionClient struct {
	client     *firestore.Client
	maxBackoff time.Duration
	log        *zap.Logger
}

// NewFirestoreCollectionClient adapts a Firestore client to the CollectionClient
// contract. Failed listeners are retried with exponential backoff capped at maxBackoff.
func NewFirestoreCollectionClient(client *firestore.Client, maxBackoff time.Duration) repository.CollectionClient {
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	return &firestoreCollectionClient{
		client:     client,
		maxBackoff: maxBackoff,
		log:        logger.Named("firestore"),
	}
}

type firestoreSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *firestoreSubscription) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (r *firestoreCollectionClient) Subscribe(ctx context.Context, q repository.Query, onSnapshot repository.SnapshotHandler, onError repository.ErrorHandler) (repository.Subscription, error) {
	if q.Collection == "" {
		return nil, errors.Validation("collection is required", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &firestoreSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)

		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = r.maxBackoff
		bo.MaxElapsedTime = 0

		for {
			err := r.listen(ctx, q, onSnapshot, bo)
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			r.log.Warn("listener failed, retrying",
				zap.String("collection", q.Collection),
				zap.Duration("retry_in", wait),
				zap.Error(err))
			if onError != nil {
				onError(mapError(err, "listen "+q.Collection))
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()

	return sub, nil
}

// listen runs one snapshot listener until it fails or ctx is done.
func (r *firestoreCollectionClient) listen(ctx context.Context, q repository.Query, onSnapshot repository.SnapshotHandler, bo backoff.BackOff) error {
	it := r.query(q).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				return ctx.Err()
			}
			return err
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}
		bo.Reset()

		out := repository.Snapshot{
			Collection: q.Collection,
			Docs:       make([]repository.Document, 0, len(docs)),
			Changes:    make([]repository.DocumentChange, 0, len(snap.Changes)),
		}
		for _, d := range docs {
			out.Docs = append(out.Docs, repository.Document{ID: d.Ref.ID, Data: d.Data()})
		}
		for _, ch := range snap.Changes {
			out.Changes = append(out.Changes, repository.DocumentChange{
				Kind: changeKind(ch.Kind),
				Doc:  repository.Document{ID: ch.Doc.Ref.ID, Data: ch.Doc.Data()},
			})
		}
		onSnapshot(out)
	}
}

func (r *firestoreCollectionClient) query(q repository.Query) firestore.Query {
	query := r.client.Collection(q.Collection).Query
	for _, f := range q.Where {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func changeKind(k firestore.DocumentChangeKind) repository.ChangeKind {
	switch k {
	case firestore.DocumentRemoved:
		return repository.DocumentRemoved
	case firestore.DocumentModified:
		return repository.DocumentModified
	default:
		return repository.DocumentAdded
	}
}

func (r *firestoreCollectionClient) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	doc, err := r.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return repository.Document{}, mapError(err, collection+"/"+id)
	}
	return repository.Document{ID: doc.Ref.ID, Data: doc.Data()}, nil
}

func (r *firestoreCollectionClient) Create(ctx context.Context, collection, id string, data map[string]interface{}) error {
	_, err := r.client.Collection(collection).Doc(id).Create(ctx, data)
	return mapError(err, collection+"/"+id)
}

func (r *firestoreCollectionClient) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	_, err := r.client.Collection(collection).Doc(id).Update(ctx, updates(fields))
	return mapError(err, collection+"/"+id)
}

func (r *firestoreCollectionClient) Delete(ctx context.Context, collection, id string) error {
	_, err := r.client.Collection(collection).Doc(id).Delete(ctx)
	return mapError(err, collection+"/"+id)
}

// Commit runs the ops in one transaction so a multi-document record is written
// or removed as a unit.
func (r *firestoreCollectionClient) Commit(ctx context.Context, ops []repository.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range ops {
			ref := r.client.Collection(op.Collection).Doc(op.ID)
			var err error
			switch op.Kind {
			case repository.WriteCreate:
				err = tx.Create(ref, op.Data)
			case repository.WriteUpdate:
				err = tx.Update(ref, updates(op.Data))
			case repository.WriteDelete:
				err = tx.Delete(ref)
			default:
				err = errors.Validation("unknown write kind", nil)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return mapError(err, "commit")
}

// updates turns a field map into Firestore updates in a stable order.
func updates(fields map[string]interface{}) []firestore.Update {
	paths := make([]string, 0, len(fields))
	for k := range fields {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	out := make([]firestore.Update, 0, len(paths))
	for _, p := range paths {
		out = append(out, firestore.Update{Path: p, Value: fields[p]})
	}
	return out
}

// mapError classifies backend failures into the application taxonomy.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.AlreadyExists:
		return errors.Validation(resource+" already exists", err)
	case codes.InvalidArgument:
		return errors.Validation("invalid document for "+resource, err)
	}
	return errors.Transport("collection store failure on "+resource, err)
}
