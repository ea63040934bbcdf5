package matchcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchSkipsZeroWorkingQtyCandidates(t *testing.T) {
	c := New(DefaultConfig(), nil)

	sell := NewOrder("sell", "Sec", Sell, 100, "u1", "A")
	require.NoError(t, c.AddOrder(sell))
	sell.Fill(100) // pre-fill it directly, bypassing the matcher

	require.NoError(t, c.AddOrder(NewOrder("buy", "Sec", Buy, 100, "u2", "B")))

	size, err := c.GetMatchingSizeForSecurity("Sec")
	require.NoError(t, err)
	require.Equal(t, uint64(0), size)
}

func TestMatchIsIdempotentAfterFilled(t *testing.T) {
	c := New(DefaultConfig(), nil)

	buy := NewOrder("buy", "Sec", Buy, 100, "u1", "A")
	require.NoError(t, c.AddOrder(buy))
	require.NoError(t, c.AddOrder(NewOrder("sell", "Sec", Sell, 100, "u2", "B")))
	require.True(t, buy.IsFilled())

	// Driving the matcher again for an already-filled order must yield 0.
	matched := c.match(buy)
	require.Equal(t, uint64(0), matched)
}

func TestMatchOnlyConsultsOppositeSideAndSameSecurity(t *testing.T) {
	c := New(DefaultConfig(), nil)

	require.NoError(t, c.AddOrder(NewOrder("buy-other-sec", "SecOther", Buy, 100, "u1", "A")))
	require.NoError(t, c.AddOrder(NewOrder("buy-same-side", "Sec", Buy, 100, "u2", "A")))
	require.NoError(t, c.AddOrder(NewOrder("sell", "Sec", Sell, 100, "u3", "B")))

	size, err := c.GetMatchingSizeForSecurity("Sec")
	require.NoError(t, err)
	require.Equal(t, uint64(100), size)

	otherSize, err := c.GetMatchingSizeForSecurity("SecOther")
	require.NoError(t, err)
	require.Equal(t, uint64(0), otherSize)
}

func TestPartialFillLeavesCandidateAvailableForFutureMatches(t *testing.T) {
	c := New(DefaultConfig(), nil)

	require.NoError(t, c.AddOrder(NewOrder("sell", "Sec", Sell, 1000, "u1", "A")))
	require.NoError(t, c.AddOrder(NewOrder("buy1", "Sec", Buy, 300, "u2", "B")))
	require.NoError(t, c.AddOrder(NewOrder("buy2", "Sec", Buy, 400, "u3", "C")))

	size, err := c.GetMatchingSizeForSecurity("Sec")
	require.NoError(t, err)
	require.Equal(t, uint64(700), size)

	orders := c.GetAllOrders()
	var sell OrderSnapshot
	for _, o := range orders {
		if o.ID == "sell" {
			sell = o
		}
	}
	require.Equal(t, uint64(300), sell.WorkingQty)
}
