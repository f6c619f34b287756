package poi

import "errors"

var (
	// ErrMissingCapability is logged when a registered handle cannot report
	// a position or a descriptor. Such handles are never tracked.
	ErrMissingCapability = errors.New("entity lacks position or descriptor accessor")
	ErrInvalidBands      = errors.New("invalid distance bands")
	ErrNoObserver        = errors.New("observer unavailable")
)
