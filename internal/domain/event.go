package domain

import "time"

// Event Model — one append-only row per successful ledger transition,
// written in the same transaction as the wallet mutation. Seq fixes the
// commit order; ID is the stable identifier events carry across backends.
type Event struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement"` // Commit order
	ID        string    `gorm:"size:36;unique;not null"`  // Event UUID
	Kind      string    `gorm:"size:32;not null;index"`   // UsernameRegistered, SolSent, SolWithdrawn
	Username  string    `gorm:"size:50;not null;index"`   // Handle the transition targeted
	Actor     string    `gorm:"size:64;not null"`         // Base58 public key of the acting party
	Amount    uint64    `gorm:"not null;default:0"`       // Transition amount; zero for registration
	Timestamp time.Time `gorm:"not null;index"`           // Transition time
}
