package github

import (
	"net/http"
	"strconv"
	"time"
)

// Rate is the rate limit state GitHub reports on every response.
// See https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api
type Rate struct {
	Limit     int
	Remaining int
	Used      int
	Reset     time.Time
	Resource  string
}

const (
	// Header keys use canonical form (http.CanonicalHeaderKey)
	limitHeaderKey     = "X-Ratelimit-Limit"
	remainingHeaderKey = "X-Ratelimit-Remaining"
	usedHeaderKey      = "X-Ratelimit-Used"
	resetHeaderKey     = "X-Ratelimit-Reset"
	resourceHeaderKey  = "X-Ratelimit-Resource"
)

// ParseRate returns nil when the headers are absent or malformed.
func ParseRate(headers http.Header) *Rate {
	var (
		limitStr     = headers.Get(limitHeaderKey)
		remainingStr = headers.Get(remainingHeaderKey)
		resetStr     = headers.Get(resetHeaderKey)
	)

	if limitStr == "" || remainingStr == "" || resetStr == "" {
		return nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return nil
	}
	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return nil
	}
	reset, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil
	}

	// optional
	used, _ := strconv.Atoi(headers.Get(usedHeaderKey))

	return &Rate{
		Limit:     limit,
		Remaining: remaining,
		Used:      used,
		Reset:     time.Unix(reset, 0).UTC(),
		Resource:  headers.Get(resourceHeaderKey),
	}
}
