// Package beer provides the domain types and the remote gateway for the beer
// service.
//
// # Overview
//
// The package is the I/O boundary of the client. It holds no business logic:
// it encodes requests, decodes responses and push frames, and reports
// failures as typed errors. Merging results into local state is the job of
// the state package.
//
// # Architecture
//
//   - types.go: Item, Photo, Location and Notification mirroring the API schema
//   - client.go: REST client (list, list page, create, update, delete, login)
//   - push.go: websocket push subscription
//   - errors.go: NetworkError and DecodeError
//
// # API Endpoints
//
//   - GET    /api/beer            all items
//   - GET    /api/beer/page/{n}   one page of items
//   - POST   /api/beer            create, returns the created item
//   - PUT    /api/beer/{id}       update, returns the updated item
//   - DELETE /api/beer/{id}       delete
//   - POST   /api/auth/login      exchange credentials for a token
//
// Every request carries "Authorization: Bearer <token>" when a token is set,
// Accept: application/json and a beerstore User-Agent.
//
// # Push Channel
//
// Subscribe dials ws://<host>/ and sends
//
//	{"type":"authorization","payload":{"token":"..."}}
//
// as its first frame. Inbound frames are {"type": string, "payload": Item}.
// A frame that fails to decode is logged as a DecodeError and skipped; the
// channel stays open. Connect failures and closes are logged and end the
// subscription. There is no reconnect.
//
// # Error Handling
//
// All REST failures are returned as *NetworkError carrying the operation name,
// the HTTP status when one was received, and the underlying cause:
//
//   - "getItems: execute request: dial tcp: connection refused"
//   - "deleteItem: status 500: api /api/beer/7 returned status 500"
//   - "createItem: decode response: unexpected EOF"
package beer
