package matchcache

import (
	"fmt"
	"log"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// Config enumerates the cache's configuration options. Zero-value
// Config is not meaningful; use DefaultConfig.
type Config struct {
	// EagerMatch runs the matcher inside AddOrder when true (the
	// default). When false, matching is deferred to query time.
	EagerMatch bool
	// StrictValidation converts silent no-ops (duplicate ids, unknown
	// keys) into returned errors.
	StrictValidation bool
	// ParallelCancellation enables chunked, concurrent cancellation for
	// batch cancel paths once a batch reaches CancelParallelThreshold.
	ParallelCancellation bool
	// EnableMatchLog turns on the append-only match-event log.
	EnableMatchLog bool
	// CancelChunkSize is the batch size used per goroutine when
	// ParallelCancellation splits a cancel batch into chunks.
	CancelChunkSize int
	// CancelParallelThreshold is the minimum batch size before
	// ParallelCancellation bothers spawning goroutines at all; below
	// it, chunking overhead isn't worth paying.
	CancelParallelThreshold int
}

// DefaultConfig returns the out-of-the-box defaults: eager matching,
// lenient validation, parallel cancellation enabled, match log disabled.
func DefaultConfig() Config {
	return Config{
		EagerMatch:              true,
		StrictValidation:        false,
		ParallelCancellation:    true,
		EnableMatchLog:          false,
		CancelChunkSize:         64,
		CancelParallelThreshold: 128,
	}
}

// Directory supplies the optional user->company consistency check. A
// nil Directory means the cache performs no cross-order company
// validation at all.
type Directory interface {
	Register(userID, companyID string) error
	CompanyOf(userID string) (string, bool)
}

// Cache is the public surface of the order-matching cache: add,
// cancel-by-id, cancel-by-user, cancel-by-security-with-min-qty,
// matching-size-by-security, and snapshot-all-orders.
type Cache struct {
	deadlock.RWMutex // the "orders lock": exclusive for add/cancel, shared for snapshot/size reads

	opts      Config
	directory Directory

	byID       map[string]*Order
	byUser     map[string]map[string]struct{}
	bySecurity map[string]map[string]struct{}
	buyList    map[string][]*Order
	sellList   map[string][]*Order

	// insertOrder records ids in arrival order for GetAllOrders. It is
	// maintained alongside byID rather than derived from map iteration,
	// since Go map iteration order is unspecified.
	insertOrder []string

	// securitiesSeen never shrinks: it records every security id that
	// has ever had an order added, so that get_matching_size_for_security
	// can tell "known security, zero lots matched" apart from "never
	// heard of this security" even after every order for it is cancelled.
	securitiesSeen map[string]struct{}

	// matchCacheMu guards matchCache independently of the orders lock:
	// a short critical section around the read-modify-write of one
	// counter, rather than holding the write lock for it.
	matchCacheMu deadlock.Mutex
	matchCache   map[string]uint64

	log *matchLog
}

// New constructs an empty Cache with the given configuration. Pass a
// non-nil Directory to enable the strict-mode company-consistency
// check; pass nil to disable cross-order company validation entirely.
func New(opts Config, directory Directory) *Cache {
	c := &Cache{
		opts:           opts,
		directory:      directory,
		byID:           make(map[string]*Order),
		byUser:         make(map[string]map[string]struct{}),
		bySecurity:     make(map[string]map[string]struct{}),
		buyList:        make(map[string][]*Order),
		sellList:       make(map[string][]*Order),
		securitiesSeen: make(map[string]struct{}),
		matchCache:     make(map[string]uint64),
	}
	if opts.EnableMatchLog {
		c.log = newMatchLog()
	}
	return c
}

// AddOrder admits a new order into the cache. Duplicate ids are a
// silent no-op in lenient mode and an ErrDuplicateOrder in strict mode;
// the existing order is never touched by a rejected duplicate. In eager
// mode (the default), the matcher runs before AddOrder returns.
func (c *Cache) AddOrder(o *Order) error {
	c.Lock()
	defer c.Unlock()

	if _, exists := c.byID[o.id]; exists {
		if c.opts.StrictValidation {
			return wrap(ErrDuplicateOrder, o.id)
		}
		return nil
	}

	if c.directory != nil {
		if existing, ok := c.directory.CompanyOf(o.userID); ok {
			if existing != o.companyID && c.opts.StrictValidation {
				return wrap(ErrCompanyMismatch, o.userID)
			}
		} else {
			// Register on first sight regardless of mode; only a
			// mismatched re-use is a validation failure, and only in
			// strict mode.
			_ = c.directory.Register(o.userID, o.companyID)
		}
	}

	c.insertIndexesLocked(o)
	log.Printf("[matchcache] order accepted: id=%s security=%s side=%s qty=%d", o.id, o.securityID, o.side, o.qty)

	if c.opts.EagerMatch {
		matched := c.match(o)
		if matched > 0 {
			c.addMatchCache(o.securityID, matched)
		}
	}
	return nil
}

// CancelOrder removes an order from every index and destroys its
// record. Cancelling a non-existent id is a silent no-op in lenient
// mode and an ErrUnknownOrder in strict mode. The match cache is never
// decremented: past matches are historical events.
func (c *Cache) CancelOrder(id string) error {
	c.Lock()
	defer c.Unlock()
	return c.cancelOrderLocked(id)
}

func (c *Cache) cancelOrderLocked(id string) error {
	o, ok := c.byID[id]
	if !ok {
		if c.opts.StrictValidation {
			return wrap(ErrUnknownOrder, id)
		}
		return nil
	}
	c.removeIndexesLocked(o)
	log.Printf("[matchcache] order cancelled: id=%s", id)
	return nil
}

// CancelOrdersForUser cancels every live order owned by userID. The id
// set is snapshotted and the user's index entry released before any
// individual cancellation runs; when ParallelCancellation is
// enabled and the batch is large enough, cancellations run concurrently
// in chunks, a performance optimization that does not change the
// observable end state.
func (c *Cache) CancelOrdersForUser(userID string) error {
	c.Lock()
	set, ok := c.byUser[userID]
	if !ok {
		c.Unlock()
		if c.opts.StrictValidation {
			return wrap(ErrUnknownUser, userID)
		}
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	delete(c.byUser, userID)
	c.Unlock()

	c.cancelBatch(ids)
	return nil
}

// CancelOrdersForSecurityWithMinQty cancels every live order on
// securityID whose *original* qty is >= minQty. The threshold compares
// against qty, not the current working quantity.
func (c *Cache) CancelOrdersForSecurityWithMinQty(securityID string, minQty uint64) error {
	c.RLock()
	set, ok := c.bySecurity[securityID]
	if !ok {
		c.RUnlock()
		if c.opts.StrictValidation {
			return wrap(ErrUnknownSecurity, securityID)
		}
		return nil
	}
	var ids []string
	for id := range set {
		if o := c.byID[id]; o != nil && o.qty >= minQty {
			ids = append(ids, id)
		}
	}
	c.RUnlock()

	c.cancelBatch(ids)
	return nil
}

// cancelBatch cancels each id, optionally splitting the work into
// concurrent chunks. Each CancelOrder call takes its own write lock, so
// chunking never changes the serial semantics - it only changes how the
// lock is interleaved with other callers.
func (c *Cache) cancelBatch(ids []string) {
	if !c.opts.ParallelCancellation || len(ids) < c.opts.CancelParallelThreshold {
		for _, id := range ids {
			_ = c.CancelOrder(id)
		}
		return
	}

	chunkSize := c.opts.CancelChunkSize
	if chunkSize <= 0 {
		chunkSize = len(ids)
	}
	var wg sync.WaitGroup
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			for _, id := range chunk {
				_ = c.CancelOrder(id)
			}
		}(chunk)
	}
	wg.Wait()
}

// GetMatchingSizeForSecurity returns the total matched lots for a
// security. In eager mode this is an O(1) read of the match cache. In
// lazy mode, every buy-side order for the security is driven through
// the matcher first.
func (c *Cache) GetMatchingSizeForSecurity(securityID string) (uint64, error) {
	if !c.opts.EagerMatch {
		c.driveLazyMatching(securityID)
	}

	c.RLock()
	defer c.RUnlock()
	if _, known := c.securitiesSeen[securityID]; !known {
		if c.opts.StrictValidation {
			return 0, wrap(ErrUnknownSecurity, securityID)
		}
		return 0, nil
	}
	return c.readMatchCache(securityID), nil
}

// GetOrderMatchesForSecurity returns the match-log records for a
// security, driving lazy matching first when needed. It returns an
// error if the match log was never enabled, and an empty (not nil)
// slice for a known security with no matches.
func (c *Cache) GetOrderMatchesForSecurity(securityID string) ([]MatchRecord, error) {
	if c.log == nil {
		return nil, fmt.Errorf("matchcache: match log is not enabled")
	}
	if !c.opts.EagerMatch {
		c.driveLazyMatching(securityID)
	}
	return c.log.forSecurity(securityID), nil
}

// GetAllMatches returns every match-log record in arrival order. It
// does not drive lazy matching for every security; callers that need a
// fully up to date lazy-mode log should call
// GetMatchingSizeForSecurity for each security of interest first.
func (c *Cache) GetAllMatches() ([]MatchRecord, error) {
	if c.log == nil {
		return nil, fmt.Errorf("matchcache: match log is not enabled")
	}
	return c.log.all(), nil
}

// driveLazyMatching runs the matcher across every buy-side order for a
// security. It is the lazy-mode counterpart to the eager match that
// normally happens inside AddOrder.
func (c *Cache) driveLazyMatching(securityID string) {
	c.Lock()
	defer c.Unlock()

	// Snapshot the slice header under the write lock; buyList entries
	// are only ever appended to or filtered under this same lock, so
	// the snapshot always reflects orders live at this instant and
	// never includes an order cancelled before this pass began.
	buys := c.buyList[securityID]
	for _, o := range buys {
		matched := c.match(o)
		if matched > 0 {
			c.addMatchCache(securityID, matched)
		}
	}
}

// GetAllOrders returns a stable snapshot of every live order, in
// insertion order.
func (c *Cache) GetAllOrders() []OrderSnapshot {
	c.RLock()
	defer c.RUnlock()

	out := make([]OrderSnapshot, 0, len(c.insertOrder))
	for _, id := range c.insertOrder {
		if o, ok := c.byID[id]; ok {
			out = append(out, o.Snapshot())
		}
	}
	return out
}

// insertIndexesLocked adds o to all four indexes. Callers must already
// hold the write lock.
func (c *Cache) insertIndexesLocked(o *Order) {
	c.byID[o.id] = o

	if c.byUser[o.userID] == nil {
		c.byUser[o.userID] = make(map[string]struct{})
	}
	c.byUser[o.userID][o.id] = struct{}{}

	if c.bySecurity[o.securityID] == nil {
		c.bySecurity[o.securityID] = make(map[string]struct{})
	}
	c.bySecurity[o.securityID][o.id] = struct{}{}
	c.securitiesSeen[o.securityID] = struct{}{}

	if o.side == Sell {
		c.sellList[o.securityID] = append(c.sellList[o.securityID], o)
	} else {
		c.buyList[o.securityID] = append(c.buyList[o.securityID], o)
	}

	c.insertOrder = append(c.insertOrder, o.id)
}

// removeIndexesLocked removes o from all four indexes and prunes any
// now-empty by-user/by-security entries. Callers must already hold the
// write lock.
func (c *Cache) removeIndexesLocked(o *Order) {
	delete(c.byID, o.id)

	if set, ok := c.byUser[o.userID]; ok {
		delete(set, o.id)
		if len(set) == 0 {
			delete(c.byUser, o.userID)
		}
	}

	if set, ok := c.bySecurity[o.securityID]; ok {
		delete(set, o.id)
		if len(set) == 0 {
			delete(c.bySecurity, o.securityID)
		}
	}

	if o.side == Sell {
		c.sellList[o.securityID] = removeOrderPtr(c.sellList[o.securityID], o)
	} else {
		c.buyList[o.securityID] = removeOrderPtr(c.buyList[o.securityID], o)
	}

	c.insertOrder = removeString(c.insertOrder, o.id)
}

func (c *Cache) addMatchCache(securityID string, n uint64) {
	c.matchCacheMu.Lock()
	c.matchCache[securityID] += n
	c.matchCacheMu.Unlock()
}

func (c *Cache) readMatchCache(securityID string) uint64 {
	c.matchCacheMu.Lock()
	defer c.matchCacheMu.Unlock()
	return c.matchCache[securityID]
}

// removeOrderPtr removes the first occurrence of target from s,
// preserving the order of remaining elements so insertion order stays
// meaningful for the tie-break rule in the matcher.
func removeOrderPtr(s []*Order, target *Order) []*Order {
	for i, o := range s {
		if o == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeString(s []string, target string) []string {
	for i, v := range s {
		if v == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
