package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/repository"
	"counselhub/internal/domain/service"
	"counselhub/internal/infrastructure/metrics"
	"counselhub/pkg/errors"
	"counselhub/pkg/logger"
)

// LeadCollections names the documents the aggregator listens to and writes.
type LeadCollections struct {
	DirectContact string
	MatchRequest  string
	Contacts      string
	Conflicts     string
}

// LeadFilter narrows Filter. Empty fields do not filter.
type LeadFilter struct {
	Origin entity.LeadOrigin
	Status entity.LeadStatus
	Text   string
}

// LeadAggregator merges the direct-contact and match-request lead feeds into one
// staff view. Match-request leads get their contact tier attached from the staff-only
// contacts collection; the conflict tier is never held here.
type LeadAggregator struct {
	client repository.CollectionClient
	cols   LeadCollections
	now    func() time.Time
	log    *zap.Logger

	// publishMu serializes rebuild and notify so listeners see merged lists in
	// the order they were built.
	publishMu sync.Mutex

	mu       sync.RWMutex
	direct   []entity.DirectContactLead
	match    []entity.MatchRequestLead
	contacts map[string]entity.ContactInfo
	merged   []entity.Lead
	health   map[string]*SyncHealth
	subs     []repository.Subscription

	changes listeners[[]entity.Lead]
}

func NewLeadAggregator(client repository.CollectionClient, cols LeadCollections, opts ...StoreOption) *LeadAggregator {
	o := buildOptions(opts)
	health := map[string]*SyncHealth{}
	for _, c := range []string{cols.DirectContact, cols.MatchRequest, cols.Contacts} {
		health[c] = &SyncHealth{Collection: c}
	}
	return &LeadAggregator{
		client:   client,
		cols:     cols,
		now:      o.now,
		log:      logger.Named("lead_aggregator"),
		contacts: map[string]entity.ContactInfo{},
		health:   health,
	}
}

// Start opens all lead subscriptions together. If any fails to open, the ones that
// did open are released and the error is returned.
func (a *LeadAggregator) Start(ctx context.Context) error {
	queries := []struct {
		q     repository.Query
		apply repository.SnapshotHandler
	}{
		{repository.Query{Collection: a.cols.DirectContact, OrderBy: "created_at", Descending: true}, a.applyDirect},
		{repository.Query{Collection: a.cols.MatchRequest, OrderBy: "created_at", Descending: true}, a.applyMatch},
		{repository.Query{Collection: a.cols.Contacts}, a.applyContacts},
	}

	subs := make([]repository.Subscription, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range queries {
		g.Go(func() error {
			collection := item.q.Collection
			sub, err := a.client.Subscribe(ctx, item.q, item.apply, func(err error) { a.fail(collection, err) })
			if err != nil {
				return err
			}
			if gctx.Err() != nil {
				sub.Stop()
				return gctx.Err()
			}
			subs[i] = sub
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, sub := range subs {
			if sub != nil {
				sub.Stop()
			}
		}
		return err
	}

	a.mu.Lock()
	a.subs = subs
	a.mu.Unlock()
	return nil
}

func (a *LeadAggregator) Close() {
	a.mu.Lock()
	subs := a.subs
	a.subs = nil
	a.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}
}

func (a *LeadAggregator) applyDirect(snap repository.Snapshot) {
	leads := make([]entity.DirectContactLead, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		l, err := entity.DirectContactLeadFromDocument(doc.ID, doc.Data)
		if err != nil {
			a.log.Warn("skipping undecodable intake lead", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		leads = append(leads, l)
	}

	a.publishMu.Lock()
	defer a.publishMu.Unlock()

	a.mu.Lock()
	a.direct = leads
	a.rebuildLocked(snap.Collection)
	merged := a.merged
	a.mu.Unlock()

	a.publish(snap.Collection, merged)
}

func (a *LeadAggregator) applyMatch(snap repository.Snapshot) {
	leads := make([]entity.MatchRequestLead, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		l, err := entity.MatchRequestLeadFromDocument(doc.ID, doc.Data)
		if err != nil {
			a.log.Warn("skipping undecodable match request", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		leads = append(leads, l)
	}

	a.publishMu.Lock()
	defer a.publishMu.Unlock()

	a.mu.Lock()
	a.match = leads
	a.rebuildLocked(snap.Collection)
	merged := a.merged
	a.mu.Unlock()

	a.publish(snap.Collection, merged)
}

func (a *LeadAggregator) applyContacts(snap repository.Snapshot) {
	contacts := make(map[string]entity.ContactInfo, len(snap.Docs))
	for _, doc := range snap.Docs {
		c, err := entity.ContactFromDocument(doc.Data)
		if err != nil {
			a.log.Warn("skipping undecodable contact tier", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		contacts[doc.ID] = c
	}

	a.publishMu.Lock()
	defer a.publishMu.Unlock()

	a.mu.Lock()
	a.contacts = contacts
	a.rebuildLocked(snap.Collection)
	merged := a.merged
	a.mu.Unlock()

	a.publish(snap.Collection, merged)
}

// rebuildLocked re-merges both feeds and re-joins contact tiers. Caller holds a.mu.
func (a *LeadAggregator) rebuildLocked(collection string) {
	match := make([]entity.MatchRequestLead, len(a.match))
	for i, l := range a.match {
		if c, ok := a.contacts[l.ID]; ok {
			l.Contact = &c
		}
		match[i] = l
	}
	a.merged = MergeLeads(a.direct, match)

	if h, ok := a.health[collection]; ok {
		h.Synced = true
		h.Stale = false
		h.LastError = ""
		h.LastSyncAt = a.now().UTC()
	}
}

func (a *LeadAggregator) publish(collection string, merged []entity.Lead) {
	metrics.SnapshotsApplied.WithLabelValues(collection).Inc()
	stats := service.FoldLeadStats(merged)
	for _, origin := range []entity.LeadOrigin{entity.OriginDirectContact, entity.OriginMatchRequest} {
		counts := map[entity.LeadStatus]int{}
		for _, l := range merged {
			if l.Origin == origin {
				counts[l.Status()]++
			}
		}
		for status := range stats.ByStatus {
			metrics.Leads.WithLabelValues(string(origin), string(status)).Set(float64(counts[status]))
		}
	}
	a.changes.notify(copyLeads(merged))
}

func (a *LeadAggregator) fail(collection string, err error) {
	a.mu.Lock()
	if h, ok := a.health[collection]; ok {
		h.Stale = true
		h.LastError = err.Error()
	}
	a.mu.Unlock()

	metrics.SubscriptionErrors.WithLabelValues(collection).Inc()
	a.log.Warn("lead subscription degraded, serving last snapshot",
		zap.String("collection", collection), zap.Error(err))
}

// SubscribeAll streams the merged feed: the current list first, then one list per
// applied snapshot. Only the latest undelivered list is kept for a slow reader. The
// channel closes when ctx is done.
func (a *LeadAggregator) SubscribeAll(ctx context.Context) <-chan []entity.Lead {
	out := make(chan []entity.Lead, 1)
	var mu sync.Mutex
	closed := false

	offer := func(leads []entity.Lead) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-out:
		default:
		}
		out <- leads
	}

	// Registering and offering the current list under publishMu keeps a concurrent
	// publish from being overwritten by an older initial list.
	a.publishMu.Lock()
	unsubscribe := a.changes.add(offer)
	offer(a.Leads())
	a.publishMu.Unlock()

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}

// Leads returns a copy of the merged feed.
func (a *LeadAggregator) Leads() []entity.Lead {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyLeads(a.merged)
}

// OnChange registers fn for every merged update and returns its unsubscribe func.
func (a *LeadAggregator) OnChange(fn func([]entity.Lead)) func() {
	return a.changes.add(fn)
}

// Filter matches origin, status and a case-insensitive search over contact name,
// email, case summary and assigned lawyer.
func (a *LeadAggregator) Filter(f LeadFilter) []entity.Lead {
	term := strings.ToLower(strings.TrimSpace(f.Text))
	var out []entity.Lead
	for _, l := range a.Leads() {
		if f.Origin != "" && l.Origin != f.Origin {
			continue
		}
		if f.Status != "" && l.Status() != f.Status {
			continue
		}
		if l.Matches(term) {
			out = append(out, l)
		}
	}
	return out
}

func (a *LeadAggregator) Find(origin entity.LeadOrigin, id string) (entity.Lead, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, l := range a.merged {
		if l.Origin == origin && l.ID() == id {
			return l, true
		}
	}
	return entity.Lead{}, false
}

func (a *LeadAggregator) Stats() service.LeadStats {
	return service.FoldLeadStats(a.Leads())
}

func (a *LeadAggregator) Health() []SyncHealth {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]SyncHealth, 0, len(a.health))
	for _, c := range []string{a.cols.DirectContact, a.cols.MatchRequest, a.cols.Contacts} {
		if h, ok := a.health[c]; ok {
			out = append(out, *h)
		}
	}
	return out
}

func (a *LeadAggregator) collectionFor(origin entity.LeadOrigin) (string, error) {
	switch origin {
	case entity.OriginDirectContact:
		return a.cols.DirectContact, nil
	case entity.OriginMatchRequest:
		return a.cols.MatchRequest, nil
	}
	return "", errors.Validation("unknown lead origin "+string(origin), nil)
}

// UpdateStatus moves a lead forward through new, contacted, open and closed.
// Setting the current status again is a no-op.
func (a *LeadAggregator) UpdateStatus(ctx context.Context, actor entity.Identity, id string, origin entity.LeadOrigin, next entity.LeadStatus) error {
	err := a.updateStatus(ctx, actor, id, origin, next)
	metrics.RecordAction("lead_status", err)
	return err
}

func (a *LeadAggregator) updateStatus(ctx context.Context, actor entity.Identity, id string, origin entity.LeadOrigin, next entity.LeadStatus) error {
	if err := service.Require(actor, service.CapManageLeads); err != nil {
		return err
	}
	collection, err := a.collectionFor(origin)
	if err != nil {
		return err
	}
	if !next.Valid() {
		return errors.Validation("unknown lead status "+string(next), nil)
	}

	lead, ok := a.Find(origin, id)
	if !ok {
		return errors.NotFound("Lead", nil)
	}
	current := lead.Status()
	if current == next {
		return nil
	}
	if !current.CanMoveTo(next) {
		return errors.InvalidTransition(string(current), string(next))
	}

	if err := a.client.Update(ctx, collection, id, map[string]interface{}{
		"status":     string(next),
		"updated_at": a.now().UTC(),
	}); err != nil {
		a.log.Error("lead status write failed", zap.String("id", id), zap.Error(err))
		return err
	}

	a.log.Info("lead status updated",
		zap.String("id", id),
		zap.String("origin", string(origin)),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("actor", actor.UserID))
	return nil
}

// Remove hard-deletes a lead. A match request loses all three tiers in one commit.
func (a *LeadAggregator) Remove(ctx context.Context, actor entity.Identity, id string, origin entity.LeadOrigin) error {
	err := a.remove(ctx, actor, id, origin)
	metrics.RecordAction("lead_remove", err)
	return err
}

func (a *LeadAggregator) remove(ctx context.Context, actor entity.Identity, id string, origin entity.LeadOrigin) error {
	if err := service.Require(actor, service.CapManageLeads); err != nil {
		return err
	}
	collection, err := a.collectionFor(origin)
	if err != nil {
		return err
	}
	if _, ok := a.Find(origin, id); !ok {
		return errors.NotFound("Lead", nil)
	}

	if origin == entity.OriginDirectContact {
		err = a.client.Delete(ctx, collection, id)
	} else {
		err = a.client.Commit(ctx, []repository.WriteOp{
			{Kind: repository.WriteDelete, Collection: a.cols.MatchRequest, ID: id},
			{Kind: repository.WriteDelete, Collection: a.cols.Contacts, ID: id},
			{Kind: repository.WriteDelete, Collection: a.cols.Conflicts, ID: id},
		})
	}
	if err != nil {
		a.log.Error("lead delete failed", zap.String("id", id), zap.Error(err))
		return err
	}

	a.log.Info("lead removed", zap.String("id", id), zap.String("origin", string(origin)), zap.String("actor", actor.UserID))
	return nil
}

// Bulletin lists the match requests still in play as case-tier-only entries.
func (a *LeadAggregator) Bulletin(actor entity.Identity) ([]entity.BulletinEntry, error) {
	if err := service.Require(actor, service.CapViewBulletin); err != nil {
		return nil, err
	}
	return ProjectBulletin(a.Leads(), actor.UserID), nil
}

// ExpressInterest records a lawyer's interest in a match request. Repeating it is a no-op.
func (a *LeadAggregator) ExpressInterest(ctx context.Context, actor entity.Identity, id string) error {
	err := a.expressInterest(ctx, actor, id)
	metrics.RecordAction("lead_interest", err)
	return err
}

func (a *LeadAggregator) expressInterest(ctx context.Context, actor entity.Identity, id string) error {
	if err := service.Require(actor, service.CapExpressInterest); err != nil {
		return err
	}
	lead, ok := a.Find(entity.OriginMatchRequest, id)
	if !ok {
		return errors.NotFound("Lead", nil)
	}
	if lead.Status() == entity.LeadClosed {
		return errors.Validation("lead is closed", nil)
	}
	for _, uid := range lead.Match.InterestedLawyers {
		if uid == actor.UserID {
			return nil
		}
	}

	interested := append(append([]string{}, lead.Match.InterestedLawyers...), actor.UserID)
	return a.client.Update(ctx, a.cols.MatchRequest, id, map[string]interface{}{
		"interested_lawyers": interested,
		"updated_at":         a.now().UTC(),
	})
}

func copyLeads(in []entity.Lead) []entity.Lead {
	out := make([]entity.Lead, len(in))
	copy(out, in)
	return out
}
