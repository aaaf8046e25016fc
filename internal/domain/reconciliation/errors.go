package reconciliation

import "errors"

var (
	// ErrInvalidStatusTransition is returned for a transition the request life cycle does not allow.
	ErrInvalidStatusTransition = errors.New("invalid request status transition")

	// ErrRequestInProgress is returned when a document already has a request in flight.
	ErrRequestInProgress = errors.New("request already in progress")

	// ErrTenantKeyRequired is returned when the tenant key input is blank.
	ErrTenantKeyRequired = errors.New("tenant key is required")

	// ErrUnknownMatchStrategy is returned for an unsupported tenant match strategy name.
	ErrUnknownMatchStrategy = errors.New("unknown tenant match strategy")
)
