package scoring

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	ErrUpstreamUnavailable = errors.New("scoring service unavailable")
	ErrUpstreamTimeout     = errors.New("scoring service timed out")
	ErrMalformedResponse   = errors.New("malformed scoring service response")
)

// UpstreamError is a non-2xx answer from the scoring service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("scoring service responded with status %v, body: %v", e.StatusCode, e.Body)
}

// IsTransient reports failures worth another attempt: connection errors and 5xx/429
// answers. Timeouts are not transient, the time budget is already spent.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return true
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode >= 500 || upstreamErr.StatusCode == 429
	}
	return false
}
