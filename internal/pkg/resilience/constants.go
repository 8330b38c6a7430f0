package resilience

import "time"

// Circuit breaker defaults.
const (
	DefaultMaxRequests           = 3
	DefaultInterval              = 60 * time.Second
	DefaultTimeout               = 30 * time.Second
	DefaultFailureThreshold      = 5
	DefaultFailureRatioThreshold = 0.6
	DefaultMinRequestsToTrip     = 10
)

// Retry defaults: two retries after the first attempt, each preceded by a
// random pause between 250 and 400 ms.
const (
	DefaultRetries       = 2
	DefaultRetryMinDelay = 250 * time.Millisecond
	DefaultRetryMaxDelay = 400 * time.Millisecond
)
