package tsdb

import "errors"

// Sentinel errors for time-series database operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, tsdb.ErrTimeout) {
//	    // Retryable: the store was too slow, not broken
//	}
var (
	// ErrUnavailable indicates the TSDB endpoint could not be reached.
	ErrUnavailable = errors.New("tsdb: unavailable")

	// ErrTimeout indicates a query exceeded its deadline.
	ErrTimeout = errors.New("tsdb: query timed out")

	// ErrQueryFailed indicates the TSDB rejected or failed the query.
	ErrQueryFailed = errors.New("tsdb: query failed")

	// ErrBadResponse indicates the TSDB returned a response that could
	// not be decoded as a Prometheus API payload.
	ErrBadResponse = errors.New("tsdb: malformed response")
)
