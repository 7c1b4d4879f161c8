package ledger

import (
	"context"
	"time"
)

// Account is the single record kept per registered username. Owner and
// Username are fixed at creation; only Balance changes afterwards.
type Account struct {
	Owner     Identity  // Registrant; sole party allowed to withdraw
	Username  string    // Registered handle, raw as validated
	Balance   uint64    // Logical balance in minor units
	CreatedAt time.Time // Registration time
	Bump      uint8     // Derivation disambiguator for the address
}

// Address recomputes the account's storage key from its own fields.
func (a *Account) Address() Address {
	return AddressForBump(a.Username, a.Bump)
}

// EventFilter narrows an event log read. Zero fields mean no filter.
type EventFilter struct {
	Username string    // Only events for this handle
	Kind     string    // Only events of this kind
	From     time.Time // Only events at or after this instant
	To       time.Time // Only events at or before this instant
}

// Store is the keyed account storage the ledger runs on. Implementations
// must provide create-once semantics per address and serialize UpdateAccount
// calls against the same address; operations on different addresses are
// independent. An implementation that cannot get exclusive access to an
// address within its bounded budget fails with ErrAccountBusy instead of
// blocking.
type Store interface {
	// CreateAccount claims an empty slot, writing the record and the event
	// atomically. Fails with ErrAlreadyExists if the slot is occupied, in
	// which case the existing record is untouched.
	CreateAccount(ctx context.Context, addr Address, acct *Account, ev Event) error

	// LoadAccount returns a snapshot of the record at addr, or
	// ErrAccountNotFound.
	LoadAccount(ctx context.Context, addr Address) (*Account, error)

	// UpdateAccount runs mutate against the current record under per-address
	// exclusion and commits the mutated record together with the returned
	// event, or nothing at all if mutate errors. Returns the committed
	// snapshot. Fails with ErrAccountNotFound if the slot is empty.
	UpdateAccount(ctx context.Context, addr Address, mutate func(*Account) (Event, error)) (*Account, error)

	// AccountsByOwner returns snapshots of every account registered by owner.
	AccountsByOwner(ctx context.Context, owner Identity) ([]*Account, error)

	// Events reads the ordered event log, oldest first, filtered and
	// paginated. limit <= 0 means no limit.
	Events(ctx context.Context, f EventFilter, offset, limit int) ([]Event, int64, error)
}
