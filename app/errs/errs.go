// Package errs holds the error kinds shared by the relay pipeline.
//
// Callers wrap the underlying cause with one of the sentinels below, so that
// errors.Is can classify a failure no matter how deep it was produced:
//
//	return fmt.Errorf("%w: feed %s returned status %d", errs.ErrFetch, name, code)
package errs

import "errors"

var (
	ErrFetch       = errors.New("fetch error")
	ErrParse       = errors.New("parse error")
	ErrConfig      = errors.New("config error")
	ErrTransform   = errors.New("transform error")
	ErrValidation  = errors.New("validation error")
	ErrDelivery    = errors.New("delivery error")
	ErrPersistence = errors.New("persistence error")
)

// KindOf returns a short label for the first known kind found in err's chain.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrTransform):
		return "transform"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
