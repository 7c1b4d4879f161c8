package ledger

import (
	"fmt"

	"github.com/mr-tron/base58" // Base58 text encoding for keys and addresses
)

// Identity is a 32-byte ed25519 public key identifying a caller. The zero
// value is not a usable identity.
type Identity [32]byte

// String renders the identity in base58, the form it travels in over the API.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// ParseIdentity decodes a base58 public key string into an Identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("invalid identity encoding: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid identity length: got %d bytes, want %d", len(b), len(id))
	}
	copy(id[:], b)
	return id, nil
}
