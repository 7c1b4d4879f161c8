// Package ledger implements the username-keyed account ledger: deterministic
// address derivation, username validation, and the three guarded state
// transitions (Register, Deposit, Withdraw) over a pluggable Store. Every
// operation takes the caller identity and the current time explicitly, so
// the state machine reads no ambient state and is testable as-is.
package ledger

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus" // Structured operation logging
)

// Ledger applies guarded transitions against a Store. Operations on
// different usernames are independent; serialization per username is the
// Store's contract.
type Ledger struct {
	store   Store
	reserve uint64 // Storage floor each account's backing must retain
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithReserve sets the storage floor: the amount every account's backing
// storage is funded with at registration and may never drop below.
func WithReserve(units uint64) Option {
	return func(l *Ledger) { l.reserve = units }
}

// New builds a Ledger on top of a Store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve returns the configured storage floor.
func (l *Ledger) Reserve() uint64 {
	return l.reserve
}

// Register creates the account for username owned by caller. The username
// is validated first, then the slot is derived and claimed; a claim on an
// occupied slot fails with ErrAlreadyExists and changes nothing.
func (l *Ledger) Register(ctx context.Context, caller Identity, username string, now time.Time) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	addr, bump, err := DeriveAddress(username)
	if err != nil {
		return nil, err
	}
	acct := &Account{
		Owner:     caller,
		Username:  username,
		Balance:   0,
		CreatedAt: now,
		Bump:      bump,
	}
	ev := newEvent(EventUsernameRegistered, username, caller, 0, now)
	if err := l.store.CreateAccount(ctx, addr, acct, ev); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"username":  username,
		"owner":     caller.String(),
		"address":   addr.String(),
		"bump":      bump,
		"timestamp": now.Format(time.RFC3339),
	}).Info("Username registered")
	return acct, nil
}

// Deposit credits amount to the account registered for username. Anyone may
// deposit to any registered handle; whether the sender can actually cover
// the amount is the surrounding value-transfer layer's concern. Returns the
// updated balance.
func (l *Ledger) Deposit(ctx context.Context, sender Identity, username string, amount uint64, now time.Time) (uint64, error) {
	addr, _, err := DeriveAddress(username)
	if err != nil {
		return 0, err
	}
	acct, err := l.store.UpdateAccount(ctx, addr, func(a *Account) (Event, error) {
		if amount == 0 {
			return Event{}, ErrInvalidAmount
		}
		if a.Balance > math.MaxUint64-amount {
			return Event{}, ErrBalanceOverflow
		}
		next := a.Balance + amount
		// Backing storage holds reserve + balance; it must not wrap either.
		if l.reserve > math.MaxUint64-next {
			return Event{}, ErrBalanceOverflow
		}
		a.Balance = next
		return newEvent(EventSolSent, username, sender, amount, now), nil
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"username":  username,
		"sender":    sender.String(),
		"amount":    amount,
		"balance":   acct.Balance,
		"timestamp": now.Format(time.RFC3339),
	}).Info("Sol sent to username")
	return acct.Balance, nil
}

// Withdraw debits amount from the account registered for username and
// releases it to the caller. Checks run in fixed order: existence, then
// ownership, then amount, then balance sufficiency, then the storage floor.
// Returns the updated balance.
func (l *Ledger) Withdraw(ctx context.Context, caller Identity, username string, amount uint64, now time.Time) (uint64, error) {
	addr, _, err := DeriveAddress(username)
	if err != nil {
		return 0, err
	}
	acct, err := l.store.UpdateAccount(ctx, addr, func(a *Account) (Event, error) {
		if a.Owner != caller {
			return Event{}, ErrUnauthorized
		}
		if amount == 0 {
			return Event{}, ErrInvalidAmount
		}
		if amount > a.Balance {
			return Event{}, ErrInsufficientBalance
		}
		// The backing storage keeps the reserve plus the logical balance;
		// taking it below the reserve would invalidate the slot itself.
		backing := l.reserve + a.Balance
		if backing-amount < l.reserve {
			return Event{}, ErrBalanceUnderflow
		}
		a.Balance -= amount
		return newEvent(EventSolWithdrawn, username, a.Owner, amount, now), nil
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"username":  username,
		"owner":     caller.String(),
		"amount":    amount,
		"balance":   acct.Balance,
		"timestamp": now.Format(time.RFC3339),
	}).Info("Sol withdrawn from username")
	return acct.Balance, nil
}

// Lookup returns a snapshot of the account registered for username, or
// ErrAccountNotFound.
func (l *Ledger) Lookup(ctx context.Context, username string) (*Account, error) {
	addr, _, err := DeriveAddress(username)
	if err != nil {
		return nil, err
	}
	return l.store.LoadAccount(ctx, addr)
}

// AccountsByOwner enumerates every account registered by owner.
func (l *Ledger) AccountsByOwner(ctx context.Context, owner Identity) ([]*Account, error) {
	return l.store.AccountsByOwner(ctx, owner)
}

// Events reads the ordered event log through the underlying store.
func (l *Ledger) Events(ctx context.Context, f EventFilter, offset, limit int) ([]Event, int64, error) {
	return l.store.Events(ctx, f, offset, limit)
}
