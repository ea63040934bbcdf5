package matchcache

import "github.com/sasha-s/go-deadlock"

// MatchRecord is one (buy, sell, qty) pairing produced by the matcher, in
// canonical orientation: BuyID always names the buy-side order
// regardless of which operand of the match call was the buy side.
type MatchRecord struct {
	SecurityID string
	BuyID      string
	SellID     string
	Qty        uint64
}

// matchLog is the optional append-only match-event log. It is pre-sharded
// per security (per the design note's suggested alternative to a
// post-hoc filter) in addition to keeping the flat arrival-order
// sequence, since the cache already knows a match's security at append
// time and a per-security slice makes the per-security query O(1)
// instead of an O(n) scan over the whole log.
type matchLog struct {
	deadlock.Mutex

	records    []MatchRecord
	bySecurity map[string][]MatchRecord
}

func newMatchLog() *matchLog {
	return &matchLog{bySecurity: make(map[string][]MatchRecord)}
}

func (l *matchLog) append(rec MatchRecord) {
	l.Lock()
	defer l.Unlock()
	l.records = append(l.records, rec)
	l.bySecurity[rec.SecurityID] = append(l.bySecurity[rec.SecurityID], rec)
}

// all returns a snapshot copy of the entire log, in arrival order.
func (l *matchLog) all() []MatchRecord {
	l.Lock()
	defer l.Unlock()
	out := make([]MatchRecord, len(l.records))
	copy(out, l.records)
	return out
}

// forSecurity returns a snapshot copy of one security's matches, in
// arrival order.
func (l *matchLog) forSecurity(securityID string) []MatchRecord {
	l.Lock()
	defer l.Unlock()
	src := l.bySecurity[securityID]
	out := make([]MatchRecord, len(src))
	copy(out, src)
	return out
}
