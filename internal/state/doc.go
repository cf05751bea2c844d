// Package state is the item synchronization core of the client.
//
// # Overview
//
// Store holds the items of the active session together with the lifecycle
// flags and errors of each operation family. Syncer runs the operations
// against the remote gateway and feeds their outcome into the Store. The UI
// reads immutable snapshots and never mutates state directly.
//
// # Architecture
//
//	UI                    Syncer                     Store
//	┌──────────────┐      ┌─────────────────────┐    ┌──────────────────┐
//	│ Save(item)   │─────→│ begin(save)         │───→│ Saving = true    │
//	│              │      │ gateway.Create/Upd  │    │                  │
//	│              │      │ cache.Put           │    │                  │
//	│              │      │ saved(item)         │───→│ merge by id      │
//	│ Snapshot()   │←─────┼─────────────────────┼────│                  │
//	└──────────────┘      └─────────────────────┘    └──────────────────┘
//	                      push goroutine ───────────→ pushed(notification)
//
// # Operation Families
//
// Fetch, save and delete each own a flag and an error field. Starting an
// operation sets its flag and clears its error; completion clears the flag and
// either applies the result or records the error. The families do not touch
// each other's fields.
//
//   - fetch-all: replaces Items wholesale, mirrors identified items to the cache
//   - fetch-page: appends to the end, no de-duplication
//   - save: create without an identifier, update with one; the server copy is
//     mirrored to the cache then merged by identifier (replace in place, else
//     prepend)
//   - delete: removes the first entry with the identifier; an unpersisted item
//     completes immediately without a network call
//   - push: "created" and "updated" merge by identifier and are mirrored to
//     the cache like a save, other types are ignored; the save lifecycle is
//     left alone
//
// Merge by identifier is idempotent. When a push and a save touch the same
// item, whichever is applied last wins.
//
// # Session Gating
//
// Every token change advances the Store's epoch and resets the snapshot.
// Operations capture the epoch when they start and each transition is dropped
// if the epoch has moved by the time it is applied. A response that arrives
// after logout or a user switch therefore never reaches the new session. An
// operation whose epoch is already stale when it would start returns
// ErrStaleSession. The previous push subscription is stopped before the reset.
//
// # Concurrency Model
//
// Store guards its snapshot with a sync.RWMutex. Transitions hold the write
// lock only while mutating; network I/O and cache writes happen outside it.
// Snapshot deep-copies items so callers may keep or modify them freely.
//
// # Error Display
//
// FetchMessage, SaveMessage and DeleteMessage return the error text, falling
// back to "Failed to fetch items", "Failed to save item" and "Failed to delete
// item" when the error has none.
package state
