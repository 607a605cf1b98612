package translate

import (
	"errors"
	"fmt"
)

// Kind classifies a translation failure for retry handling.
type Kind int

const (
	// KindTransient covers network failures and server-side errors that
	// are worth retrying with backoff.
	KindTransient Kind = iota
	// KindRateLimited marks responses where the backend asked us to slow
	// down. Retried with a cooldown at the client level and again at the
	// pipeline level.
	KindRateLimited
	// KindFatal covers failures that will not improve on retry, such as
	// rejected requests or undecodable responses.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified translation failure.
//
// Kind: Failure classification used to pick a retry strategy
// Op: Short description of the operation that failed
// Err: Underlying cause, may be nil
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("translate: %s (%s)", e.Op, e.Kind)
	}
	return fmt.Sprintf("translate: %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err carries a rate-limit classification.
func IsRateLimited(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == KindRateLimited
}

// IsTransient reports whether err carries a transient classification.
func IsTransient(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Kind == KindTransient
}

// classifyStatus maps an HTTP status code to a failure kind.
// 429 means the backend is throttling us, 5xx is a server fault worth
// retrying, everything else non-2xx is treated as fatal.
func classifyStatus(status int) Kind {
	switch {
	case status == 429:
		return KindRateLimited
	case status >= 500 && status < 600:
		return KindTransient
	default:
		return KindFatal
	}
}
