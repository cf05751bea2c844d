package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache"
)

var (
	// ErrNoSession is returned by operations issued while logged out.
	ErrNoSession = errors.New("no active session")
	// ErrStaleSession is returned by operations whose session ended before
	// they could start.
	ErrStaleSession = errors.New("session changed, try again")
)

// Stopper ends a push subscription. After Stop returns nothing more is
// delivered.
type Stopper interface {
	Stop()
}

// PushFunc opens a push subscription for token.
type PushFunc func(ctx context.Context, token string, deliver func(beer.Notification)) Stopper

// ClientPush adapts a gateway client to a PushFunc.
func ClientPush(c *beer.Client) PushFunc {
	return func(ctx context.Context, token string, deliver func(beer.Notification)) Stopper {
		return c.Subscribe(ctx, token, deliver)
	}
}

// Options configures a Syncer. Every field is optional.
type Options struct {
	Cache  cache.Snapshots
	Push   PushFunc
	Logger *slog.Logger
}

// Syncer runs item operations against the gateway and feeds their outcome
// into a Store.
type Syncer struct {
	store   *Store
	gateway beer.Gateway
	cache   cache.Snapshots
	push    PushFunc
	logger  *slog.Logger

	mu  sync.Mutex // serializes session changes
	sub Stopper
}

// NewSyncer returns a Syncer bound to store and gateway.
func NewSyncer(store *Store, gateway beer.Gateway, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:   store,
		gateway: gateway,
		cache:   opts.Cache,
		push:    opts.Push,
		logger:  logger.With("component", "sync"),
	}
}

// Store returns the store the Syncer writes to.
func (s *Syncer) Store() *Store {
	return s.store
}

// SetToken switches the active session. The previous push subscription is
// stopped before state is reset, so nothing from the old session can land in
// the new one. A non-empty token opens a new subscription and runs an initial
// fetch-all, whose error is returned.
func (s *Syncer) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	if s.sub != nil {
		s.sub.Stop()
		s.sub = nil
	}
	epoch := s.store.reset(token)
	if token == "" {
		s.mu.Unlock()
		s.logger.Info("session cleared")
		return nil
	}
	if s.push != nil {
		s.sub = s.push(ctx, token, func(n beer.Notification) {
			s.applyPush(ctx, epoch, n)
		})
	}
	s.mu.Unlock()

	s.logger.Info("session started")
	return s.fetchAll(ctx, epoch, token)
}

// Close stops the push subscription, if any. State is left as is.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Stop()
		s.sub = nil
	}
}

// FetchAll replaces the collection with the server's full list.
func (s *Syncer) FetchAll(ctx context.Context) error {
	epoch, token := s.store.session()
	if token == "" {
		return ErrNoSession
	}
	return s.fetchAll(ctx, epoch, token)
}

func (s *Syncer) fetchAll(ctx context.Context, epoch uint64, token string) error {
	if !s.store.begin(epoch, familyFetch) {
		return ErrStaleSession
	}
	items, err := s.gateway.ListItems(ctx, token)
	if err != nil {
		if s.store.fail(epoch, familyFetch, err) {
			s.logger.Warn("fetch failed", "error", err)
		}
		return err
	}
	if !s.store.fetched(epoch, items) {
		s.logger.Debug("stale fetch dropped", "items", len(items))
		return nil
	}
	for _, it := range items {
		if it.Persisted() {
			s.mirror(ctx, it)
		}
	}
	s.logger.Debug("fetch complete", "items", len(items))
	return nil
}

// FetchPage appends one server page to the end of the collection.
func (s *Syncer) FetchPage(ctx context.Context, page int) error {
	epoch, token := s.store.session()
	if token == "" {
		return ErrNoSession
	}
	return s.fetchPage(ctx, epoch, token, page)
}

func (s *Syncer) fetchPage(ctx context.Context, epoch uint64, token string, page int) error {
	if !s.store.begin(epoch, familyFetch) {
		return ErrStaleSession
	}
	items, err := s.gateway.ListPage(ctx, token, page)
	if err != nil {
		if s.store.fail(epoch, familyFetch, err) {
			s.logger.Warn("page fetch failed", "page", page, "error", err)
		}
		return err
	}
	if !s.store.pageFetched(epoch, items) {
		s.logger.Debug("stale page dropped", "page", page)
		return nil
	}
	s.logger.Debug("page fetched", "page", page, "items", len(items))
	return nil
}

// Save creates item when it has no identifier and updates it otherwise. The
// server's copy is mirrored to the cache and merged into the collection.
func (s *Syncer) Save(ctx context.Context, item beer.Item) (beer.Item, error) {
	epoch, token := s.store.session()
	if token == "" {
		return beer.Item{}, ErrNoSession
	}
	return s.save(ctx, epoch, token, item)
}

func (s *Syncer) save(ctx context.Context, epoch uint64, token string, item beer.Item) (beer.Item, error) {
	if !s.store.begin(epoch, familySave) {
		return beer.Item{}, ErrStaleSession
	}

	var (
		saved beer.Item
		err   error
	)
	if item.Persisted() {
		saved, err = s.gateway.UpdateItem(ctx, token, item)
	} else {
		saved, err = s.gateway.CreateItem(ctx, token, item)
	}
	if err != nil {
		if s.store.fail(epoch, familySave, err) {
			s.logger.Warn("save failed", "id", item.ID, "error", err)
		}
		return beer.Item{}, err
	}

	if !s.store.current(epoch) {
		return saved, nil
	}
	if saved.Persisted() {
		s.mirror(ctx, saved)
	}
	s.store.saved(epoch, saved)
	s.logger.Info("item saved", "id", saved.ID, "name", saved.Name)
	return saved, nil
}

// Delete removes item on the server and then locally. An item that was never
// persisted completes immediately without a network call.
func (s *Syncer) Delete(ctx context.Context, item beer.Item) error {
	epoch, token := s.store.session()
	if token == "" {
		return ErrNoSession
	}
	return s.remove(ctx, epoch, token, item)
}

func (s *Syncer) remove(ctx context.Context, epoch uint64, token string, item beer.Item) error {
	if !s.store.begin(epoch, familyDelete) {
		return ErrStaleSession
	}
	if !item.Persisted() {
		s.store.deleted(epoch, "")
		return nil
	}

	if err := s.gateway.DeleteItem(ctx, token, item.ID); err != nil {
		if s.store.fail(epoch, familyDelete, err) {
			s.logger.Warn("delete failed", "id", item.ID, "error", err)
		}
		return err
	}
	if s.store.deleted(epoch, item.ID) {
		s.logger.Info("item deleted", "id", item.ID)
	}
	return nil
}

// ApplyPush merges n into the current session's collection and mirrors the
// item to the cache, like a save.
func (s *Syncer) ApplyPush(ctx context.Context, n beer.Notification) bool {
	return s.applyPush(ctx, s.store.Epoch(), n)
}

func (s *Syncer) applyPush(ctx context.Context, epoch uint64, n beer.Notification) bool {
	if !n.Merges() {
		s.logger.Debug("push ignored", "type", n.Type)
		return false
	}
	if !s.store.pushed(epoch, n) {
		return false
	}
	if n.Item.Persisted() {
		s.mirror(ctx, n.Item)
	}
	s.logger.Debug("push merged", "type", n.Type, "id", n.Item.ID)
	return true
}

func (s *Syncer) mirror(ctx context.Context, item beer.Item) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, item.ID, item); err != nil {
		s.logger.Warn("cache write failed", "id", item.ID, "error", err)
	}
}
