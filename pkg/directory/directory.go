// Package directory tracks the user-to-company association the
// matcher's same-company exclusion rule depends on: a small manager
// interface backed by a map-guarded struct, covering identity rather
// than balances - there is no notion of money here, only which company
// a user belongs to.
package directory

import "github.com/sasha-s/go-deadlock"

// Directory registers and looks up the company a user belongs to. It
// satisfies matchcache.Directory without importing that package, so the
// cache's strict-mode company-consistency check stays optional and
// decoupled from any particular directory
// implementation.
type Directory interface {
	// Register associates userID with companyID. Re-registering the
	// same userID under a different companyID is an error: a user's
	// company does not change once seen.
	Register(userID, companyID string) error
	// CompanyOf returns the company a user is registered under, and
	// whether the user has been seen at all.
	CompanyOf(userID string) (string, bool)
	// Users returns every registered user id. Callers must not assume
	// a particular order.
	Users() []string
}

// InMemoryDirectory is a map-backed Directory guarded by the same
// go-deadlock convention the rest of this module uses for every lock.
type InMemoryDirectory struct {
	deadlock.Mutex

	companyOf map[string]string
}

// NewInMemoryDirectory returns an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{companyOf: make(map[string]string)}
}

// Register associates userID with companyID. It is idempotent for a
// matching re-registration and returns a *CompanyChangedError if userID
// is already registered under a different company.
func (d *InMemoryDirectory) Register(userID, companyID string) error {
	d.Lock()
	defer d.Unlock()

	if existing, ok := d.companyOf[userID]; ok {
		if existing != companyID {
			return &CompanyChangedError{UserID: userID, Registered: existing, Attempted: companyID}
		}
		return nil
	}
	d.companyOf[userID] = companyID
	return nil
}

// CompanyOf returns the company userID is registered under.
func (d *InMemoryDirectory) CompanyOf(userID string) (string, bool) {
	d.Lock()
	defer d.Unlock()
	company, ok := d.companyOf[userID]
	return company, ok
}

// Users returns every registered user id.
func (d *InMemoryDirectory) Users() []string {
	d.Lock()
	defer d.Unlock()
	out := make([]string, 0, len(d.companyOf))
	for userID := range d.companyOf {
		out = append(out, userID)
	}
	return out
}

// CompanyChangedError reports an attempt to re-register a user under a
// different company than the one already on file.
type CompanyChangedError struct {
	UserID     string
	Registered string
	Attempted  string
}

func (e *CompanyChangedError) Error() string {
	return "directory: user " + e.UserID + " already registered under company " + e.Registered + ", not " + e.Attempted
}
