package ledger

import (
	"crypto/sha256" // Address digests

	"filippo.io/edwards25519"   // Curve-point check for derived addresses
	"github.com/mr-tron/base58" // Base58 text encoding
)

// Namespace is the constant seed prefix every address derivation starts
// from. Changing it moves every account to a different slot.
const Namespace = "username_wallet"

// Address is the 32-byte storage key of one username account. It is a pure
// function of (Namespace, username, bump) and is guaranteed to be off the
// ed25519 curve, so no keypair can ever sign for it.
type Address [32]byte

// String renders the address in base58.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// addressCandidate hashes one (namespace, username, bump) triple. Seeds are
// separated by a zero byte so "ab"+"c" and "a"+"bc" cannot collide.
func addressCandidate(username string, bump uint8) Address {
	h := sha256.New()
	h.Write([]byte(Namespace))
	h.Write([]byte{0})
	h.Write([]byte(username))
	h.Write([]byte{0})
	h.Write([]byte{bump})
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// onCurve reports whether the 32 bytes decode as a valid ed25519 point,
// i.e. whether some keypair could control the identifier independently.
func onCurve(b Address) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// DeriveAddress finds the unique (address, bump) pair for a username: the
// smallest bump in 0..255 whose digest is off-curve. Roughly half of all
// digests decode as curve points, so a miss across all 256 bumps is
// astronomically unlikely; it is still surfaced as ErrBumpNotFound rather
// than panicking.
func DeriveAddress(username string) (Address, uint8, error) {
	for bump := 0; bump <= 255; bump++ {
		a := addressCandidate(username, uint8(bump))
		if !onCurve(a) {
			return a, uint8(bump), nil
		}
	}
	return Address{}, 0, ErrBumpNotFound
}

// AddressForBump recomputes the address for a known (username, bump) pair,
// e.g. when re-checking a stored record against its slot.
func AddressForBump(username string, bump uint8) Address {
	return addressCandidate(username, bump)
}
