// Package matchcache implements an in-memory order-matching cache for a
// simplified call auction: orders carry lot volumes but no price, and the
// cache reports, per security, how many lots could be matched between
// buyers and sellers under a same-company exclusion rule.
package matchcache

import (
	"github.com/sasha-s/go-deadlock"
)

// Side is the direction of an order. The only recognized Sell literal is
// "Sell"; every other string means Buy. ParseSide applies that rule once
// at the boundary so the rest of the package never has to re-derive it.
type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// ParseSide normalizes a raw side string into a Side using the
// compatibility rule inherited from the source contract: anything other
// than the literal "Sell" is a Buy.
func ParseSide(raw string) Side {
	if raw == string(Sell) {
		return Sell
	}
	return Buy
}

// Order is an immutable descriptor (id, security, side, total quantity,
// user, company) paired with a mutable working quantity and a per-order
// lock. Fields other than workingQty never change after construction.
type Order struct {
	deadlock.Mutex

	id         string
	securityID string
	side       Side
	qty        uint64
	userID     string
	companyID  string

	workingQty uint64
}

// NewOrder constructs an Order with working quantity equal to qty. qty
// must be non-zero; callers at the boundary (HTTP handlers, CLI seed
// loader) are responsible for rejecting zero-quantity requests before
// they reach the cache.
func NewOrder(id, securityID string, side Side, qty uint64, userID, companyID string) *Order {
	return &Order{
		id:         id,
		securityID: securityID,
		side:       side,
		qty:        qty,
		userID:     userID,
		companyID:  companyID,
		workingQty: qty,
	}
}

// ID returns the order's id.
func (o *Order) ID() string { return o.id }

// SecurityID returns the traded instrument's id.
func (o *Order) SecurityID() string { return o.securityID }

// Side returns Buy or Sell.
func (o *Order) Side() Side { return o.side }

// Qty returns the order's original total quantity. It never changes, so
// it is safe to read without acquiring the order's lock.
func (o *Order) Qty() uint64 { return o.qty }

// UserID returns the order's owning user.
func (o *Order) UserID() string { return o.userID }

// CompanyID returns the order's owning company.
func (o *Order) CompanyID() string { return o.companyID }

// WorkingQty returns the current unfilled remainder.
func (o *Order) WorkingQty() uint64 {
	o.Lock()
	defer o.Unlock()
	return o.workingQty
}

// FilledQty returns qty - workingQty.
func (o *Order) FilledQty() uint64 {
	o.Lock()
	defer o.Unlock()
	return o.qty - o.workingQty
}

// IsFilled reports whether the order has no working quantity left.
func (o *Order) IsFilled() bool {
	o.Lock()
	defer o.Unlock()
	return o.workingQty == 0
}

// Fill performs a saturating subtraction from the working quantity. It
// never fails: filling more than is working simply zeroes it out.
func (o *Order) Fill(n uint64) {
	o.Lock()
	defer o.Unlock()
	o.fillLocked(n)
}

// fillLocked assumes the caller already holds o's lock.
func (o *Order) fillLocked(n uint64) {
	if n >= o.workingQty {
		o.workingQty = 0
		return
	}
	o.workingQty -= n
}

// Unfill performs a saturating addition to the working quantity, capped
// at qty. It exists for symmetry with Fill and for test fixtures that
// need to undo a fill without reconstructing an order.
func (o *Order) Unfill(n uint64) {
	o.Lock()
	defer o.Unlock()
	o.workingQty += n
	if o.workingQty > o.qty {
		o.workingQty = o.qty
	}
}

// ResetFills restores the working quantity to qty. Test-only: production
// code never needs to un-fill an order back to its original state.
func (o *Order) ResetFills() {
	o.Lock()
	defer o.Unlock()
	o.workingQty = o.qty
}

// OrderSnapshot is a value-typed copy of an Order's state taken at a
// single instant. Snapshot handles never alias the cache's storage: the
// cache owns every Order, and callers only ever see copies.
type OrderSnapshot struct {
	ID         string
	SecurityID string
	Side       Side
	Qty        uint64
	UserID     string
	CompanyID  string
	WorkingQty uint64
}

// FilledQty returns Qty - WorkingQty for a snapshot.
func (s OrderSnapshot) FilledQty() uint64 { return s.Qty - s.WorkingQty }

// Snapshot takes a consistent, locked read of the order's full state.
func (o *Order) Snapshot() OrderSnapshot {
	o.Lock()
	defer o.Unlock()
	return OrderSnapshot{
		ID:         o.id,
		SecurityID: o.securityID,
		Side:       o.side,
		Qty:        o.qty,
		UserID:     o.userID,
		CompanyID:  o.companyID,
		WorkingQty: o.workingQty,
	}
}
