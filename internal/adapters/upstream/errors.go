package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable marks every failure to obtain a usable upstream response:
// transport errors, timeouts, non-2xx statuses, an open circuit and
// undecodable payloads.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Source, e.Code, http.StatusText(e.Code))
}

// Is makes a StatusError match ErrUnavailable.
func (e *StatusError) Is(target error) bool { return target == ErrUnavailable }

// clientSide reports whether the status was caused by the request rather
// than the upstream's health.
func (e *StatusError) clientSide() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

func unavailable(source, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, source, op, err)
}
