package state

import (
	"errors"
	"sync"
	"time"

	"github.com/soniadragulescu/beerstore/internal/beer"
)

// Fallback texts shown when a failure carries no message.
const (
	FetchFallback  = "Failed to fetch items"
	SaveFallback   = "Failed to save item"
	DeleteFallback = "Failed to delete item"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Token    string
	Items    []beer.Item
	HasItems bool // false until the first successful fetch of this session

	Fetching  bool
	FetchErr  error
	Saving    bool
	SaveErr   error
	Deleting  bool
	DeleteErr error

	LastUpdated time.Time
}

// LoggedIn reports whether a session token is active.
func (s Snapshot) LoggedIn() bool {
	return s.Token != ""
}

// Busy reports whether any operation is in flight.
func (s Snapshot) Busy() bool {
	return s.Fetching || s.Saving || s.Deleting
}

func (s Snapshot) FetchMessage() string  { return errorMessage(s.FetchErr, FetchFallback) }
func (s Snapshot) SaveMessage() string   { return errorMessage(s.SaveErr, SaveFallback) }
func (s Snapshot) DeleteMessage() string { return errorMessage(s.DeleteErr, DeleteFallback) }

func errorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// family identifies one of the independent operation lifecycles.
type family int

const (
	familyFetch family = iota
	familySave
	familyDelete
)

// Store owns the synchronization state. Every mutation is one of the
// transitions below, applied atomically under the write lock.
//
// Transitions take the session epoch captured when their operation started
// and report whether they were applied. A transition whose epoch is no longer
// current is dropped without touching state.
type Store struct {
	mu       sync.RWMutex
	epoch    uint64
	snapshot Snapshot
	now      func() time.Time
}

// NewStore returns an empty, logged-out store. The zero Store is also ready
// to use.
func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) timestamp() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Items = cloneItems(s.snapshot.Items)
	return snap
}

// Epoch returns the current session epoch.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// session returns the epoch and token an operation should run under.
func (s *Store) session() (uint64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch, s.snapshot.Token
}

func (s *Store) current(epoch uint64) bool {
	return s.Epoch() == epoch
}

// reset discards all state, installs token and starts a new epoch.
func (s *Store) reset(token string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.snapshot = Snapshot{Token: token, LastUpdated: s.timestamp()}
	return s.epoch
}

func (s *Store) begin(epoch uint64, f family) bool {
	return s.apply(epoch, func(snap *Snapshot) {
		switch f {
		case familyFetch:
			snap.Fetching, snap.FetchErr = true, nil
		case familySave:
			snap.Saving, snap.SaveErr = true, nil
		case familyDelete:
			snap.Deleting, snap.DeleteErr = true, nil
		}
	})
}

func (s *Store) fail(epoch uint64, f family, err error) bool {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return s.apply(epoch, func(snap *Snapshot) {
		switch f {
		case familyFetch:
			snap.Fetching, snap.FetchErr = false, err
		case familySave:
			snap.Saving, snap.SaveErr = false, err
		case familyDelete:
			snap.Deleting, snap.DeleteErr = false, err
		}
	})
}

// fetched replaces the collection wholesale.
func (s *Store) fetched(epoch uint64, items []beer.Item) bool {
	return s.apply(epoch, func(snap *Snapshot) {
		snap.Items = cloneItems(items)
		snap.HasItems = true
		snap.Fetching = false
	})
}

// pageFetched appends items to the end of the collection. Entries already
// present are neither removed nor reordered, and duplicates are kept.
func (s *Store) pageFetched(epoch uint64, items []beer.Item) bool {
	return s.apply(epoch, func(snap *Snapshot) {
		for _, it := range items {
			snap.Items = append(snap.Items, it.Clone())
		}
		snap.HasItems = true
		snap.Fetching = false
	})
}

func (s *Store) saved(epoch uint64, item beer.Item) bool {
	return s.apply(epoch, func(snap *Snapshot) {
		snap.Items = mergeByID(snap.Items, item)
		snap.HasItems = true
		snap.Saving = false
	})
}

// deleted removes the first entry carrying id. An absent id only clears the
// in-flight flag.
func (s *Store) deleted(epoch uint64, id string) bool {
	return s.apply(epoch, func(snap *Snapshot) {
		if id != "" {
			for i := range snap.Items {
				if snap.Items[i].ID == id {
					snap.Items = append(snap.Items[:i:i], snap.Items[i+1:]...)
					break
				}
			}
		}
		snap.Deleting = false
	})
}

// pushed merges a server notification. It leaves the save lifecycle alone.
func (s *Store) pushed(epoch uint64, n beer.Notification) bool {
	if !n.Merges() {
		return false
	}
	return s.apply(epoch, func(snap *Snapshot) {
		snap.Items = mergeByID(snap.Items, n.Item)
		snap.HasItems = true
	})
}

func (s *Store) apply(epoch uint64, fn func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	fn(&s.snapshot)
	s.snapshot.LastUpdated = s.timestamp()
	return true
}

// mergeByID replaces the first entry with item's identifier in place, or
// prepends item when there is none.
func mergeByID(items []beer.Item, item beer.Item) []beer.Item {
	item = item.Clone()
	if item.ID != "" {
		for i := range items {
			if items[i].ID == item.ID {
				items[i] = item
				return items
			}
		}
	}
	out := make([]beer.Item, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func cloneItems(items []beer.Item) []beer.Item {
	if items == nil {
		return nil
	}
	dup := make([]beer.Item, len(items))
	for i := range items {
		dup[i] = items[i].Clone()
	}
	return dup
}
