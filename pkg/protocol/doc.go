// Package protocol defines the core message types used by the engine.
//
// The Language Server Protocol is a JSON-RPC 2.0 based protocol. This package
// contains the Go representations of the three wire message shapes and the
// request identifier type used to correlate them:
//
//   - Request: carries an ID and a method name, obligates exactly one Response
//   - Notification: carries a method name only, is never answered
//   - Response: carries an ID and either a result payload or an error object
//
// Payloads are kept opaque (json.RawMessage); the engine never interprets the
// semantic meaning of params or results. Method-specific payload schemas come
// from an external type catalogue.
//
// # Message Classification
//
// A decoded JSON object is classified structurally:
//
//   - Response iff it has "id" and one of "result"/"error"
//   - Request iff it has "id" and "method"
//   - Notification iff it has "method" and no "id"
//
// # Error Codes
//
// The package defines the standard JSON-RPC 2.0 error codes plus the LSP
// specific codes (ServerNotInitialized, RequestCancelled, ContentModified).
package protocol
