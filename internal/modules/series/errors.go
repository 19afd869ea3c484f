package series

import "errors"

// The provider fails with exactly one of these kinds. All are terminal for the
// request: nothing is retried and no defaults are substituted, so absence of
// valid data is always an explicit failure.
var (
	// ErrInvalidDate marks a malformed start or end date. Caller error.
	ErrInvalidDate = errors.New("invalid date")

	// ErrProviderUnavailable marks an upstream fetch failure (network, auth,
	// rate limit). The wrapped cause carries the upstream diagnostic.
	ErrProviderUnavailable = errors.New("price provider unavailable")

	// ErrNoData marks an upstream response with zero usable rows for the
	// buffered window, e.g. an unknown ticker. Caller error.
	ErrNoData = errors.New("no price data")

	// ErrInsufficientData marks a window where trading-day snapping could not
	// produce at least two points, e.g. a window entirely inside a market
	// closure or a start/end collapse. Caller error.
	ErrInsufficientData = errors.New("insufficient data after trading-day snap")
)
