// Package app is the composition root of the BeerStore client.
//
// # Overview
//
// Run loads configuration, opens the local cache, builds the gateway client,
// the sync core, the session and the photo gallery, connects them and hands
// control to the terminal UI until the user quits or the context ends.
//
// # Startup Sequence
//
//  1. config.Load reads config.toml, then .env, then BEERSTORE_* variables
//  2. setupLogger opens the log file; the terminal belongs to the UI
//  3. prefs.Load reads theme, favorites filter and last username
//  4. The cache opens as SQLite under the data directory, or in memory with
//     -ephemeral
//  5. beer.NewClient builds the REST and push client for the API host
//  6. state.NewSyncer binds a fresh state.Store to the client and cache
//  7. session.New restores a saved token; every token change is forwarded to
//     Syncer.SetToken, which resets state and runs the initial fetch
//  8. photo.Gallery loads its index so previews work offline
//  9. ui.Run blocks until exit
//
// # Components
//
//   - app.go: Run, syncer wiring, cache selection and logger setup
//
// # Data Flow
//
//	┌──────────────┐ Login/Logout ┌──────────────┐ SetToken ┌──────────────┐
//	│   ui.Model   │─────────────>│   Session    │─────────>│    Syncer    │
//	└──────┬───────┘              └──────────────┘          └──────┬───────┘
//	       │ Save/Delete/Fetch                                     │
//	       └──────────────────────────────────────────────────────>│
//	                                                               v
//	       ┌─────────────── Snapshot() polled ─────────────  state.Store
//	       v
//	   ui.Model
//
// # Push Channel
//
// Each token change opens one push connection through state.ClientPush. When
// the socket closes the channel stays closed; the next login or restore opens
// a fresh one. Connect failures and drops are only logged.
//
// # Error Handling
//
// Fatal errors returned from Run:
//   - invalid config file or .env file
//   - log file or cache database that cannot be opened
//   - an API host the client cannot parse
//
// Everything after startup is recoverable: failed fetches and saves surface
// in the UI through the store's error fields and are logged; a failed session
// restore or photo index load is logged and the app continues logged out or
// without previews.
package app
