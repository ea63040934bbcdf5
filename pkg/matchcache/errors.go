package matchcache

import "fmt"

// Sentinel error kinds. ErrInvariantViolation names internal invariant
// breaks, which are bugs rather than user-facing failures; no function in
// this package returns or wraps it.
var (
	ErrDuplicateOrder     = fmt.Errorf("matchcache: duplicate order")
	ErrUnknownOrder       = fmt.Errorf("matchcache: unknown order")
	ErrUnknownUser        = fmt.Errorf("matchcache: unknown user")
	ErrUnknownSecurity    = fmt.Errorf("matchcache: unknown security")
	ErrCompanyMismatch    = fmt.Errorf("matchcache: user registered under a different company")
	ErrInvariantViolation = fmt.Errorf("matchcache: invariant violation")
)

// wrap builds a caller-facing error that satisfies errors.Is(err, kind)
// while naming the offending key.
func wrap(kind error, key string) error {
	return fmt.Errorf("%w: %s", kind, key)
}
