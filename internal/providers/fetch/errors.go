package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure
type Kind string

const (
	KindInvalidURL  Kind = "invalid_url"
	KindTransport   Kind = "transport"
	KindTimeout     Kind = "timeout"
	KindCanceled    Kind = "canceled"
	KindStatus      Kind = "status"
	KindRedirect    Kind = "redirect"
	KindCircuitOpen Kind = "circuit_open"
	KindContent     Kind = "content"
)

var (
	ErrTooManyRedirects   = errors.New("too many redirects")
	ErrRedirectScheme     = errors.New("redirect to unsupported scheme")
	ErrUnsupportedContent = errors.New("unsupported content")
)

// Error describes a failed fetch of URL
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s: HTTP %d", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the fetch ran out of time
func (e *Error) Timeout() bool { return e.Kind == KindTimeout }

// transient reports whether the failure says something about the remote
// host's health, as opposed to the caller's input or the page content.
func (e *Error) transient() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindStatus:
		return e.StatusCode >= 500 || e.StatusCode == 429
	default:
		return false
	}
}

// IsTimeout reports whether err is a fetch timeout
func IsTimeout(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Timeout()
}
