package entitlement

import "errors"

// ErrMalformedPayload is returned when a raw entitlement payload cannot be decoded.
var ErrMalformedPayload = errors.New("malformed entitlement payload")
