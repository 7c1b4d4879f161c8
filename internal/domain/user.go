package domain

// User Model — a signer account: the login identity that holds an ed25519
// keypair. Its public key is the caller identity the ledger sees.
type User struct {
	ID        uint   `gorm:"primaryKey"`      // Primary key
	Login     string `gorm:"unique;not null"` // Unique login name
	Password  string `gorm:"not null"`        // Hashed password
	Role      string `gorm:"default:user"`    // Role: user or admin
	PublicKey string `gorm:"unique;not null"` // Base58 ed25519 public key
}
