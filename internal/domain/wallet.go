package domain

import "time"

// Wallet Model — one row per registered username, keyed by derived address.
// Field layout mirrors the ledger record: owner, username, balance,
// creation time, derivation bump.
type Wallet struct {
	Address   string    `gorm:"primaryKey;size:64"`      // Base58 derived address
	Owner     string    `gorm:"size:64;not null;index"`  // Base58 owner public key
	Username  string    `gorm:"size:50;unique;not null"` // Registered handle, raw as validated
	Balance   uint64    `gorm:"not null;default:0"`      // Logical balance in minor units
	CreatedAt time.Time `gorm:"not null"`                // Registration time
	Bump      uint8     `gorm:"not null"`                // Derivation disambiguator
}
