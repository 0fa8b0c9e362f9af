// Package api implements the HTTP layer of the service. Handlers decode
// and validate requests, call into the scheduler through the
// OperationQueue interface, and translate domain errors into stable
// status codes and user-safe messages. Handlers never expose raw error
// strings to clients.
package api
