package usecase

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/repository"
	"counselhub/internal/domain/service"
	"counselhub/internal/infrastructure/metrics"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
	"counselhub/pkg/validation"
)

// ReviewSnapshot is what change listeners receive after every applied snapshot.
type ReviewSnapshot struct {
	Reviews []entity.Review
	Stats   service.ReviewStats
	Health  SyncHealth
}

// ReviewFilter narrows Query. Empty fields do not filter.
type ReviewFilter struct {
	Status entity.ReviewStatus
	Text   string
}

// ReviewStore is the moderation view of the reviews collection. Its state is a
// read-through cache of the collection subscription: writes go to the collection
// client and become visible only when the confirming snapshot arrives.
type ReviewStore struct {
	client     repository.CollectionClient
	collection string
	now        func() time.Time
	newID      func() string
	log        *zap.Logger

	// publishMu keeps snapshot application and listener notification in one order.
	publishMu sync.Mutex

	mu      sync.RWMutex
	reviews []entity.Review
	index   map[string]int
	stats   service.ReviewStats
	health  SyncHealth
	sub     repository.Subscription

	changes listeners[ReviewSnapshot]
}

type StoreOption func(*storeOptions)

type storeOptions struct {
	now   func() time.Time
	newID func() string
}

func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

func WithIDGenerator(newID func() string) StoreOption {
	return func(o *storeOptions) { o.newID = newID }
}

func buildOptions(opts []StoreOption) storeOptions {
	o := storeOptions{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewReviewStore(client repository.CollectionClient, collection string, opts ...StoreOption) *ReviewStore {
	o := buildOptions(opts)
	return &ReviewStore{
		client:     client,
		collection: collection,
		now:        o.now,
		newID:      o.newID,
		log:        logger.Named("review_store"),
		index:      map[string]int{},
		health:     SyncHealth{Collection: collection},
	}
}

// Start opens the reviews subscription. Close must be called when the owning
// session ends, otherwise the listener keeps running.
func (s *ReviewStore) Start(ctx context.Context) error {
	sub, err := s.client.Subscribe(ctx, repository.Query{
		Collection: s.collection,
		OrderBy:    "date",
		Descending: true,
	}, s.apply, s.fail)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *ReviewStore) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// apply rebuilds the cache from the full snapshot and refolds stats.
func (s *ReviewStore) apply(snap repository.Snapshot) {
	reviews := make([]entity.Review, 0, len(snap.Docs))
	index := make(map[string]int, len(snap.Docs))
	for _, doc := range snap.Docs {
		r, err := entity.ReviewFromDocument(doc.ID, doc.Data)
		if err != nil {
			s.log.Warn("skipping undecodable review", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		index[r.ID] = len(reviews)
		reviews = append(reviews, r)
	}
	stats := service.FoldReviewStats(reviews)

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	s.reviews = reviews
	s.index = index
	s.stats = stats
	s.health.Synced = true
	s.health.Stale = false
	s.health.LastError = ""
	s.health.LastSyncAt = s.now().UTC()
	health := s.health
	s.mu.Unlock()

	metrics.SnapshotsApplied.WithLabelValues(s.collection).Inc()
	metrics.Reviews.WithLabelValues(string(entity.ReviewPending)).Set(float64(stats.TotalPending))
	metrics.Reviews.WithLabelValues(string(entity.ReviewApproved)).Set(float64(stats.TotalApproved))
	metrics.Reviews.WithLabelValues(string(entity.ReviewRejected)).Set(float64(stats.TotalRejected))

	s.changes.notify(ReviewSnapshot{Reviews: copyReviews(reviews), Stats: stats, Health: health})
}

// fail keeps the last snapshot and marks the view stale.
func (s *ReviewStore) fail(err error) {
	s.mu.Lock()
	s.health.Stale = true
	s.health.LastError = err.Error()
	s.mu.Unlock()

	metrics.SubscriptionErrors.WithLabelValues(s.collection).Inc()
	s.log.Warn("reviews subscription degraded, serving last snapshot", zap.Error(err))
}

// Submit validates and persists a new pending review and returns its id.
func (s *ReviewStore) Submit(ctx context.Context, in entity.ReviewInput) (string, error) {
	if err := validation.Struct(in); err != nil {
		metrics.RecordAction("review_submit", err)
		return "", err
	}

	review := entity.NewReview(s.newID(), in, s.now())
	err := s.client.Create(ctx, s.collection, review.ID, review.ToDocument())
	metrics.RecordAction("review_submit", err)
	if err != nil {
		s.log.Error("failed to persist review", zap.Error(err))
		return "", err
	}

	s.log.Info("review submitted", zap.String("id", review.ID), zap.String("lawyer_id", review.LawyerID))
	return review.ID, nil
}

func (s *ReviewStore) Approve(ctx context.Context, actor entity.Identity, id string) error {
	err := s.decide(ctx, actor, id, entity.ReviewApproved)
	metrics.RecordAction("review_approve", err)
	return err
}

func (s *ReviewStore) Reject(ctx context.Context, actor entity.Identity, id string) error {
	err := s.decide(ctx, actor, id, entity.ReviewRejected)
	metrics.RecordAction("review_reject", err)
	return err
}

// decide moves a pending review to target. Repeating the decision already recorded
// is a no-op; reversing one is an InvalidTransitionError.
func (s *ReviewStore) decide(ctx context.Context, actor entity.Identity, id string, target entity.ReviewStatus) error {
	if err := service.Require(actor, service.CapModerateReviews); err != nil {
		return err
	}

	current, ok := s.Get(id)
	if !ok {
		return errors.NotFound("Review", nil)
	}
	if current.Status == target {
		return nil
	}
	if !current.Status.CanMoveTo(target) {
		return errors.InvalidTransition(string(current.Status), string(target))
	}

	err := s.client.Update(ctx, s.collection, id, map[string]interface{}{
		"status":      string(target),
		"moderatorId": actor.UserID,
		"moderatedAt": entity.FormatISO(s.now()),
	})
	if err != nil {
		s.log.Error("moderation write failed",
			zap.String("id", id), zap.String("target", string(target)), zap.Error(err))
		return err
	}

	s.log.Info("review moderated",
		zap.String("id", id), zap.String("status", string(target)), zap.String("moderator", actor.UserID))
	return nil
}

// Delete removes a review in any status.
func (s *ReviewStore) Delete(ctx context.Context, actor entity.Identity, id string) error {
	err := s.delete(ctx, actor, id)
	metrics.RecordAction("review_delete", err)
	return err
}

func (s *ReviewStore) delete(ctx context.Context, actor entity.Identity, id string) error {
	if err := service.Require(actor, service.CapModerateReviews); err != nil {
		return err
	}
	if _, ok := s.Get(id); !ok {
		return errors.NotFound("Review", nil)
	}
	if err := s.client.Delete(ctx, s.collection, id); err != nil {
		return err
	}
	s.log.Info("review deleted", zap.String("id", id), zap.String("moderator", actor.UserID))
	return nil
}

// Query returns a lazily evaluated sequence over the current reviews. Each range
// over it starts again from the latest snapshot.
func (s *ReviewStore) Query(f ReviewFilter) iter.Seq[entity.Review] {
	term := strings.ToLower(strings.TrimSpace(f.Text))
	return func(yield func(entity.Review) bool) {
		s.mu.RLock()
		reviews := s.reviews
		s.mu.RUnlock()

		// apply swaps the slice wholesale, so the captured one is never written to.
		for _, r := range reviews {
			if f.Status != "" && r.Status != f.Status {
				continue
			}
			if !r.Matches(term) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

func (s *ReviewStore) Get(id string) (entity.Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return entity.Review{}, false
	}
	return s.reviews[i], true
}

// Reviews returns a copy of the current set, newest first.
func (s *ReviewStore) Reviews() []entity.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyReviews(s.reviews)
}

// Stats returns the aggregate folded at the last applied snapshot.
func (s *ReviewStore) Stats() service.ReviewStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *ReviewStore) Health() SyncHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// ApprovedForLawyer lists the publicly visible reviews of one lawyer.
func (s *ReviewStore) ApprovedForLawyer(lawyerID string) []entity.Review {
	var out []entity.Review
	for r := range s.Query(ReviewFilter{Status: entity.ReviewApproved}) {
		if r.LawyerID == lawyerID {
			out = append(out, r)
		}
	}
	return out
}

func (s *ReviewStore) LawyerRating(lawyerID string) service.LawyerRating {
	s.mu.RLock()
	reviews := s.reviews
	s.mu.RUnlock()
	return service.FoldLawyerRating(lawyerID, reviews)
}

// OnChange registers fn for every applied snapshot and returns its unsubscribe func.
func (s *ReviewStore) OnChange(fn func(ReviewSnapshot)) func() {
	return s.changes.add(fn)
}

func copyReviews(in []entity.Review) []entity.Review {
	out := make([]entity.Review, len(in))
	copy(out, in)
	return out
}
