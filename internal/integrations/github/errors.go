package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v60/github"
)

// Kind classifies an API failure so callers can decide, per call site,
// whether to degrade, skip, or abort.
type Kind int

const (
	// KindTransport covers timeouts, DNS failures and other network errors.
	KindTransport Kind = iota

	// KindNotFound is a 404 from the API.
	KindNotFound

	// KindRateLimited means the request was rejected by rate limiting.
	KindRateLimited

	// KindStatus covers all other non-2xx responses.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not-found"
	case KindRateLimited:
		return "rate-limited"
	default:
		return "status"
	}
}

// APIError is the typed error returned by every client operation.
type APIError struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("github %s: %s (%d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("github %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}

// wrapErr converts a go-github error into an *APIError.
func wrapErr(op string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}

	kind := KindTransport
	status := 0

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		kind = KindRateLimited
	case errors.As(err, &respErr):
		kind = KindStatus
		if respErr.Response != nil {
			status = respErr.Response.StatusCode
			if status == http.StatusNotFound {
				kind = KindNotFound
			}
		}
	}

	if status == 0 && resp != nil {
		status = resp.StatusCode
	}

	return &APIError{Kind: kind, Op: op, Status: status, Err: err}
}
