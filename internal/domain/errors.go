package domain

import "errors"

// ErrorKind classifies exchange failures into the retry taxonomy the engine
// acts on. Adapters produce the kinds; the application layer only branches on
// them, never on adapter types.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindExpiredSignature   // timestamp outside the acceptance window
	KindInsufficientMargin // margin shortfall on order submit
	KindUnauthorized       // bad or unactivated credentials
	KindNotFound           // product/symbol mapping missing
	KindTransient          // network error, 429 or 5xx
)

func (k ErrorKind) String() string {
	switch k {
	case KindExpiredSignature:
		return "expired_signature"
	case KindInsufficientMargin:
		return "insufficient_margin"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classified is implemented by adapter errors that carry a kind.
type Classified interface {
	error
	ErrorKind() ErrorKind
}

// KindOf extracts the taxonomy kind from any error. Unclassified errors are
// KindUnknown.
func KindOf(err error) ErrorKind {
	var c Classified
	if errors.As(err, &c) {
		return c.ErrorKind()
	}
	return KindUnknown
}

// IsNotFound reports whether the error is a terminal product/symbol miss.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsTransient reports whether the error is worth a plain retry.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsExpiredSignature reports a time-window rejection.
func IsExpiredSignature(err error) bool { return KindOf(err) == KindExpiredSignature }
