// Package ui provides the terminal user interface for BeerStore.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model. It never mutates item state itself:
// every operation goes through an ItemSyncer, and the model re-renders from
// state.Store snapshots polled on a short tick.
//
// # Package Structure
//
//   - app.go: Model, Options, message types, commands and Run
//   - login.go: Login form and login/logout commands
//   - list.go: Item list, header, footer and help overlay
//   - edit.go: Create and edit form, save and delete commands
//   - filter.go: Name search, favorites filter and the scroll window
//   - keys.go: Key bindings
//   - theme.go: Color themes and derived lipgloss styles
//
// # Views
//
//   - Login: username and password; shown whenever the session has no token
//   - List: the current items, newest first, filtered by name and favorites
//   - Edit: name, price, photo, location and favorite for one item
//
// # Offline Display
//
// Until the first fetch of a session lands, the list shows items from the
// local snapshot cache and the header carries an "offline" badge. The badge
// also appears when the last fetch never reached the server.
//
// # Scroll Window
//
// The list renders a window of PageWindow items. Moving the cursor onto the
// last shown row extends the window by another PageWindow, the terminal
// equivalent of infinite scroll. The "n" key asks the server for the next
// page and appends it to the list.
//
// # Problems Overlay
//
// The "p" key reads the tail of the application log through logtail and shows
// the latest warnings and errors, such as failed fetches or dropped push
// connections.
//
// # Themes
//
// Themes are cycled with "T" and the choice is persisted to the preferences
// file together with the favorites filter and the last username.
package ui
