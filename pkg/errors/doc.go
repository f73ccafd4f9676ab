// Package errors provides structured error handling with error codes for socialconnect.
//
// Every asynchronous failure reported by a provider, the account service or
// the federated login orchestrator carries one of these coded errors, so
// callers can branch on the category without parsing messages.
//
// # Basic Usage
//
//	import "github.com/tendant/socialconnect/pkg/errors"
//
//	// Create a simple error
//	err := errors.Configuration("appId is required")
//
//	// Wrap a transport failure
//	err := errors.Transport(ctx.Err(), "request has timed out.")
//
//	// Inspect
//	if errors.IsCode(err, errors.ErrCodeTransport) {
//		// show retry button
//	}
//
// # Error Codes
//
// Client taxonomy:
//   - ErrCodeConfiguration
//   - ErrCodeState
//   - ErrCodeTransport
//   - ErrCodeProvider
//   - ErrCodeBackend
//
// HTTP-facing (development backend):
//   - ErrCodeInternal
//   - ErrCodeInvalidInput
//   - ErrCodeNotFound
//   - ErrCodeAlreadyExists
//   - ErrCodeUnauthorized
//
// # HTTP Status Mapping
//
//	status := errors.MapErrorCodeToHTTPStatus(errors.ErrCodeAlreadyExists) // 409
package errors
