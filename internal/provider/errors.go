package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited         = errors.New("rate limited by upstream provider")
	ErrBillingExhausted    = errors.New("upstream provider credits exhausted")
	ErrProviderUnreachable = errors.New("provider unreachable")
	ErrMalformedResponse   = errors.New("malformed provider response")
)

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.Provider, e.Status)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrBillingExhausted
	default:
		return ErrProviderUnreachable
	}
}

// IsTerminal reports whether err must stop the chain instead of demoting to
// the next provider.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrBillingExhausted)
}
