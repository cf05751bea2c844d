package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache/memory"
)

// MockGateway records calls and returns the values set up by each test.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListItems(ctx context.Context, token string) ([]beer.Item, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]beer.Item), args.Error(1)
}

func (m *MockGateway) ListPage(ctx context.Context, token string, page int) ([]beer.Item, error) {
	args := m.Called(ctx, token, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]beer.Item), args.Error(1)
}

func (m *MockGateway) CreateItem(ctx context.Context, token string, item beer.Item) (beer.Item, error) {
	args := m.Called(ctx, token, item)
	return args.Get(0).(beer.Item), args.Error(1)
}

func (m *MockGateway) UpdateItem(ctx context.Context, token string, item beer.Item) (beer.Item, error) {
	args := m.Called(ctx, token, item)
	return args.Get(0).(beer.Item), args.Error(1)
}

func (m *MockGateway) DeleteItem(ctx context.Context, token string, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

// fakePush captures the deliver callback of every subscription it opens.
type fakePush struct {
	mu       sync.Mutex
	tokens   []string
	delivers []func(beer.Notification)
	stopped  []bool
}

type fakeSub struct {
	p   *fakePush
	idx int
}

func (s fakeSub) Stop() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.stopped[s.idx] = true
}

func (p *fakePush) open(_ context.Context, token string, deliver func(beer.Notification)) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	p.delivers = append(p.delivers, deliver)
	p.stopped = append(p.stopped, false)
	return fakeSub{p: p, idx: len(p.tokens) - 1}
}

var (
	ipa   = beer.Item{ID: "1", Name: "IPA", Price: 10}
	stout = beer.Item{ID: "2", Name: "Stout", Price: 8, Favorite: true}
)

func newTestSyncer(t *testing.T, gw *MockGateway) (*Syncer, *memory.Store, *fakePush) {
	t.Helper()
	cache := memory.New()
	push := &fakePush{}
	s := NewSyncer(NewStore(), gw, Options{Cache: cache, Push: push.open})
	return s, cache, push
}

func loggedIn(t *testing.T, gw *MockGateway, initial ...beer.Item) (*Syncer, *memory.Store, *fakePush) {
	t.Helper()
	s, cache, push := newTestSyncer(t, gw)
	gw.On("ListItems", mock.Anything, "tok").Return(initial, nil).Once()
	require.NoError(t, s.SetToken(context.Background(), "tok"))
	return s, cache, push
}

func TestSyncer_SetTokenSubscribesAndFetches(t *testing.T) {
	gw := new(MockGateway)
	s, cache, push := loggedIn(t, gw, ipa, beer.Item{Name: "draft"})

	snap := s.Store().Snapshot()
	assert.True(t, snap.LoggedIn())
	assert.True(t, snap.HasItems)
	assert.False(t, snap.Fetching)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, []string{"tok"}, push.tokens)

	cached, err := cache.All(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 1, "only items with an identifier are mirrored")
	assert.Equal(t, "1", cached[0].ID)

	require.NoError(t, s.SetToken(context.Background(), ""))
	snap = s.Store().Snapshot()
	assert.False(t, snap.LoggedIn())
	assert.Empty(t, snap.Items)
	assert.True(t, push.stopped[0])
	assert.Len(t, push.tokens, 1, "logout must not resubscribe")

	gw.AssertExpectations(t)
}

func TestSyncer_SaveRoutesByIdentifier(t *testing.T) {
	gw := new(MockGateway)
	s, cache, _ := loggedIn(t, gw, ipa)
	ctx := context.Background()

	draft := beer.Item{Name: "Stout", Price: 8, Favorite: true}
	gw.On("CreateItem", mock.Anything, "tok", draft).Return(stout, nil).Once()

	saved, err := s.Save(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, stout, saved)
	assert.Equal(t, []beer.Item{stout, ipa}, s.Store().Snapshot().Items)

	edited := beer.Item{ID: "1", Name: "IPA", Price: 11}
	gw.On("UpdateItem", mock.Anything, "tok", edited).Return(edited, nil).Once()

	_, err = s.Save(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, []beer.Item{stout, edited}, s.Store().Snapshot().Items)

	cached, _ := cache.All(ctx)
	require.Len(t, cached, 2)
	assert.Equal(t, edited, cached[0])

	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything, draft)
	gw.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, edited)
}

func TestSyncer_SaveFailureRecordsError(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa)

	failure := &beer.NetworkError{Op: "updateItem", Status: 500, Err: errors.New("status 500")}
	gw.On("UpdateItem", mock.Anything, "tok", mock.Anything).Return(beer.Item{}, failure).Once()

	_, err := s.Save(context.Background(), beer.Item{ID: "1", Name: "IPA", Price: 99})
	require.ErrorIs(t, err, failure)

	snap := s.Store().Snapshot()
	assert.False(t, snap.Saving)
	assert.Equal(t, failure, snap.SaveErr)
	assert.Equal(t, []beer.Item{ipa}, snap.Items)
}

func TestSyncer_PushUpdateMergesWithoutTouchingSave(t *testing.T) {
	gw := new(MockGateway)
	s, cache, push := loggedIn(t, gw, ipa)

	push.delivers[0](beer.Notification{
		Type: beer.NotificationUpdated,
		Item: beer.Item{ID: "1", Name: "IPA", Price: 12},
	})

	snap := s.Store().Snapshot()
	assert.Equal(t, []beer.Item{{ID: "1", Name: "IPA", Price: 12}}, snap.Items)
	assert.False(t, snap.Saving)
	assert.Nil(t, snap.SaveErr)

	cached, _ := cache.All(context.Background())
	require.Len(t, cached, 1)
	assert.Equal(t, 12.0, cached[0].Price)

	assert.False(t, s.ApplyPush(context.Background(), beer.Notification{Type: "deleted", Item: ipa}))
}

func TestSyncer_PushCreateIsMirrored(t *testing.T) {
	gw := new(MockGateway)
	s, cache, _ := loggedIn(t, gw)

	created := beer.Item{ID: "9", Name: "Porter", Price: 7}
	require.True(t, s.ApplyPush(context.Background(), beer.Notification{Type: beer.NotificationCreated, Item: created}))

	assert.Equal(t, []beer.Item{created}, s.Store().Snapshot().Items)
	cached, err := cache.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []beer.Item{created}, cached)
}

func TestSyncer_StalePushNotMirrored(t *testing.T) {
	gw := new(MockGateway)
	s, cache, push := loggedIn(t, gw)

	gw.On("ListItems", mock.Anything, "tok-2").Return([]beer.Item{}, nil).Once()
	require.NoError(t, s.SetToken(context.Background(), "tok-2"))

	push.delivers[0](beer.Notification{Type: beer.NotificationCreated, Item: beer.Item{ID: "9", Name: "Porter"}})

	assert.Empty(t, s.Store().Snapshot().Items)
	cached, _ := cache.All(context.Background())
	assert.Empty(t, cached)
}

func TestSyncer_OperationsOnEndedSessionReportStale(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa)
	ctx := context.Background()
	stale := s.Store().Epoch() - 1

	_, err := s.save(ctx, stale, "tok", beer.Item{Name: "Porter"})
	assert.ErrorIs(t, err, ErrStaleSession)
	assert.ErrorIs(t, s.remove(ctx, stale, "tok", ipa), ErrStaleSession)
	assert.ErrorIs(t, s.fetchAll(ctx, stale, "tok"), ErrStaleSession)
	assert.ErrorIs(t, s.fetchPage(ctx, stale, "tok", 1), ErrStaleSession)

	snap := s.Store().Snapshot()
	assert.False(t, snap.Busy())
	assert.Equal(t, []beer.Item{ipa}, snap.Items)
	gw.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "ListPage", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNumberOfCalls(t, "ListItems", 1)
}

func TestSyncer_DeleteFailureKeepsItems(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa)

	gw.On("DeleteItem", mock.Anything, "tok", "1").Return(&beer.NetworkError{Op: "deleteItem", Err: errors.New("connection refused")}).Once()

	err := s.Delete(context.Background(), ipa)
	require.Error(t, err)

	snap := s.Store().Snapshot()
	assert.Equal(t, []beer.Item{ipa}, snap.Items)
	assert.False(t, snap.Deleting)
	require.Error(t, snap.DeleteErr)
	assert.Contains(t, snap.DeleteMessage(), "connection refused")
}

func TestSyncer_DeleteRemovesAndSkipsUnpersisted(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa, stout)

	gw.On("DeleteItem", mock.Anything, "tok", "1").Return(nil).Once()
	require.NoError(t, s.Delete(context.Background(), ipa))
	assert.Equal(t, []beer.Item{stout}, s.Store().Snapshot().Items)

	require.NoError(t, s.Delete(context.Background(), beer.Item{Name: "draft"}))
	assert.False(t, s.Store().Snapshot().Deleting)

	gw.AssertNumberOfCalls(t, "DeleteItem", 1)
}

func TestSyncer_FetchPageAppends(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa)

	gw.On("ListPage", mock.Anything, "tok", 1).Return([]beer.Item{stout, ipa}, nil).Once()
	require.NoError(t, s.FetchPage(context.Background(), 1))
	assert.Equal(t, []beer.Item{ipa, stout, ipa}, s.Store().Snapshot().Items)

	gw.On("ListPage", mock.Anything, "tok", 2).Return(nil, errors.New("timeout")).Once()
	require.Error(t, s.FetchPage(context.Background(), 2))
	snap := s.Store().Snapshot()
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, "timeout", snap.FetchMessage())
}

func TestSyncer_FetchFailureKeepsItems(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := loggedIn(t, gw, ipa)

	gw.On("ListItems", mock.Anything, "tok").Return(nil, errors.New("offline")).Once()
	require.Error(t, s.FetchAll(context.Background()))

	snap := s.Store().Snapshot()
	assert.Equal(t, []beer.Item{ipa}, snap.Items)
	assert.False(t, snap.Fetching)
	assert.EqualError(t, snap.FetchErr, "offline")
}

func TestSyncer_StaleFetchAfterLogoutIsDropped(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := newTestSyncer(t, gw)

	started := make(chan struct{})
	release := make(chan struct{})
	gw.On("ListItems", mock.Anything, "tok").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]beer.Item{ipa}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- s.SetToken(context.Background(), "tok") }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}
	require.True(t, s.Store().Snapshot().Fetching)

	require.NoError(t, s.SetToken(context.Background(), ""))
	close(release)
	require.NoError(t, <-done)

	snap := s.Store().Snapshot()
	assert.False(t, snap.LoggedIn())
	assert.False(t, snap.HasItems)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Fetching)
}

func TestSyncer_OldSubscriptionCannotReachNewSession(t *testing.T) {
	gw := new(MockGateway)
	s, _, push := loggedIn(t, gw, ipa)

	gw.On("ListItems", mock.Anything, "tok2").Return([]beer.Item{stout}, nil).Once()
	require.NoError(t, s.SetToken(context.Background(), "tok2"))
	require.True(t, push.stopped[0])

	push.delivers[0](beer.Notification{Type: beer.NotificationCreated, Item: beer.Item{ID: "9"}})
	assert.Equal(t, []beer.Item{stout}, s.Store().Snapshot().Items)

	push.delivers[1](beer.Notification{Type: beer.NotificationCreated, Item: beer.Item{ID: "9"}})
	assert.Equal(t, []string{"9", "2"}, ids(s.Store().Snapshot().Items))
}

func TestSyncer_OperationsRequireSession(t *testing.T) {
	gw := new(MockGateway)
	s, _, _ := newTestSyncer(t, gw)
	ctx := context.Background()

	assert.ErrorIs(t, s.FetchAll(ctx), ErrNoSession)
	assert.ErrorIs(t, s.FetchPage(ctx, 0), ErrNoSession)
	_, err := s.Save(ctx, ipa)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, s.Delete(ctx, ipa), ErrNoSession)

	gw.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything)
}
