package matchcache

// match runs the unsorted-greedy matching algorithm for a single subject
// order o against the opposite-side working list for o's security. The
// caller must already hold the cache's write lock: match mutates the
// per-security working lists' element contents (through each Order's
// own lock) and relies on the write lock to guarantee no concurrent
// insert or cancel reorders the list out from under it.
//
// Lock order is always (subject, counterparty): o is locked for the
// whole pass, and each candidate is locked one at a time and released
// before the next is considered, so two matchers can never contend for
// the same pair of locks in opposite orders.
func (c *Cache) match(o *Order) uint64 {
	o.Lock()
	defer o.Unlock()

	if o.workingQty == 0 {
		return 0
	}

	var candidates []*Order
	if o.side == Sell {
		candidates = c.buyList[o.securityID]
	} else {
		candidates = c.sellList[o.securityID]
	}

	var total uint64
	for _, x := range candidates {
		if o.workingQty == 0 {
			break
		}
		if x == o {
			continue
		}

		x.Lock()
		if x.workingQty == 0 || x.companyID == o.companyID {
			x.Unlock()
			continue
		}

		m := o.workingQty
		if x.workingQty < m {
			m = x.workingQty
		}
		if m == 0 {
			x.Unlock()
			continue
		}

		o.fillLocked(m)
		x.fillLocked(m)
		total += m

		if c.log != nil {
			buyID, sellID := o.id, x.id
			if o.side == Sell {
				buyID, sellID = x.id, o.id
			}
			c.log.append(MatchRecord{
				SecurityID: o.securityID,
				BuyID:      buyID,
				SellID:     sellID,
				Qty:        m,
			})
		}

		x.Unlock()
	}

	return total
}
