package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	a1, b1, err := DeriveAddress("alice-123")
	require.NoError(t, err)
	a2, b2, err := DeriveAddress("alice-123")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestDeriveAddressDistinctUsernames(t *testing.T) {
	seen := make(map[Address]string)
	for _, u := range []string{"alice", "bob", "alice-123", "Alice", "ALICE", "a-lice"} {
		addr, _, err := DeriveAddress(u)
		require.NoError(t, err)
		prev, dup := seen[addr]
		require.False(t, dup, "address collision between %q and %q", u, prev)
		seen[addr] = u
	}
}

func TestDeriveAddressOffCurve(t *testing.T) {
	for _, u := range []string{"alice", "bob", "carol-7", "dave"} {
		addr, _, err := DeriveAddress(u)
		require.NoError(t, err)
		assert.False(t, onCurve(addr), "derived address for %q decodes as a curve point", u)
	}
}

func TestDeriveAddressSmallestBump(t *testing.T) {
	// Every bump below the chosen one must have produced an on-curve digest,
	// otherwise the chosen bump is not the smallest valid one.
	for _, u := range []string{"alice", "bob", "zed-99"} {
		_, bump, err := DeriveAddress(u)
		require.NoError(t, err)
		for b := 0; b < int(bump); b++ {
			assert.True(t, onCurve(addressCandidate(u, uint8(b))),
				"username %q: bump %d was valid but %d was chosen", u, b, bump)
		}
	}
}

func TestAddressForBumpMatchesDerivation(t *testing.T) {
	addr, bump, err := DeriveAddress("alice-123")
	require.NoError(t, err)
	assert.Equal(t, addr, AddressForBump("alice-123", bump))
}

func TestSeedSeparation(t *testing.T) {
	// The zero-byte seed separator keeps shifted spellings apart.
	a1, _, err := DeriveAddress("ab-c")
	require.NoError(t, err)
	a2, _, err := DeriveAddress("a-bc")
	require.NoError(t, err)
	assert.NotEqual(t, a1, a2)
}
