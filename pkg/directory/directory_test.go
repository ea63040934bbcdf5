package directory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	d := NewInMemoryDirectory()
	require.NoError(t, d.Register("alice", "CompanyA"))

	company, ok := d.CompanyOf("alice")
	require.True(t, ok)
	require.Equal(t, "CompanyA", company)

	_, ok = d.CompanyOf("bob")
	require.False(t, ok)
}

func TestReRegisterSameCompanyIsIdempotent(t *testing.T) {
	d := NewInMemoryDirectory()
	require.NoError(t, d.Register("alice", "CompanyA"))
	require.NoError(t, d.Register("alice", "CompanyA"))
}

func TestReRegisterDifferentCompanyErrors(t *testing.T) {
	d := NewInMemoryDirectory()
	require.NoError(t, d.Register("alice", "CompanyA"))

	err := d.Register("alice", "CompanyB")
	require.Error(t, err)

	var changed *CompanyChangedError
	require.ErrorAs(t, err, &changed)
	require.Equal(t, "alice", changed.UserID)
	require.Equal(t, "CompanyA", changed.Registered)
	require.Equal(t, "CompanyB", changed.Attempted)
}

func TestUsersListsEveryRegisteredUser(t *testing.T) {
	d := NewInMemoryDirectory()
	require.NoError(t, d.Register("alice", "CompanyA"))
	require.NoError(t, d.Register("bob", "CompanyB"))

	users := d.Users()
	require.ElementsMatch(t, []string{"alice", "bob"}, users)
}
