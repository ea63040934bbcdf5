package matchcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderlots/matchcache/pkg/directory"
	"github.com/orderlots/matchcache/pkg/matchcache"
)

func TestStrictModeRejectsCompanyMismatch(t *testing.T) {
	opts := matchcache.DefaultConfig()
	opts.StrictValidation = true
	dir := directory.NewInMemoryDirectory()
	c := matchcache.New(opts, dir)

	require.NoError(t, c.AddOrder(matchcache.NewOrder("1", "Sec", matchcache.Buy, 100, "alice", "CompanyA")))

	err := c.AddOrder(matchcache.NewOrder("2", "Sec", matchcache.Sell, 100, "alice", "CompanyB"))
	require.ErrorIs(t, err, matchcache.ErrCompanyMismatch)

	// the rejected mismatched-company order must not have been indexed.
	orders := c.GetAllOrders()
	require.Len(t, orders, 1)
}

func TestLenientModeIgnoresCompanyMismatch(t *testing.T) {
	opts := matchcache.DefaultConfig() // lenient by default
	dir := directory.NewInMemoryDirectory()
	c := matchcache.New(opts, dir)

	require.NoError(t, c.AddOrder(matchcache.NewOrder("1", "Sec", matchcache.Buy, 100, "alice", "CompanyA")))
	require.NoError(t, c.AddOrder(matchcache.NewOrder("2", "Sec", matchcache.Sell, 100, "alice", "CompanyB")))

	orders := c.GetAllOrders()
	require.Len(t, orders, 2)
}

func TestNoDirectoryMeansNoCompanyValidation(t *testing.T) {
	opts := matchcache.DefaultConfig()
	opts.StrictValidation = true
	c := matchcache.New(opts, nil)

	require.NoError(t, c.AddOrder(matchcache.NewOrder("1", "Sec", matchcache.Buy, 100, "alice", "CompanyA")))
	require.NoError(t, c.AddOrder(matchcache.NewOrder("2", "Sec", matchcache.Sell, 100, "alice", "CompanyB")))
}
