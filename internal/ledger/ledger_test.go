package ledger_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"username_wallet/internal/ledger"
	"username_wallet/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identity builds a deterministic test identity from a tag byte.
func identity(tag byte) ledger.Identity {
	var id ledger.Identity
	for i := range id {
		id[i] = tag
	}
	return id
}

func newLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return ledger.New(mem, opts...), mem
}

func TestRegisterAndLookup(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	owner := identity('A')
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	acct, err := l.Register(ctx, owner, "alice-123", now)
	require.NoError(t, err)
	assert.Equal(t, owner, acct.Owner)
	assert.Equal(t, "alice-123", acct.Username)
	assert.Equal(t, uint64(0), acct.Balance)
	assert.Equal(t, now, acct.CreatedAt)

	got, err := l.Lookup(ctx, "alice-123")
	require.NoError(t, err)
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, "alice-123", got.Username)
	assert.Equal(t, uint64(0), got.Balance)
	assert.Equal(t, now, got.CreatedAt)

	// The stored bump re-derives the same slot.
	addr, bump, err := ledger.DeriveAddress("alice-123")
	require.NoError(t, err)
	assert.Equal(t, bump, got.Bump)
	assert.Equal(t, addr, got.Address())
}

func TestRegisterDuplicate(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "bob", now)
	require.NoError(t, err)

	// A second claim fails even for a different caller.
	_, err = l.Register(ctx, identity('B'), "bob", now.Add(time.Hour))
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists)

	// The original record is untouched.
	got, err := l.Lookup(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, identity('A'), got.Owner)
	assert.Equal(t, now, got.CreatedAt)
}

func TestRegisterValidation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()
	caller := identity('A')

	_, err := l.Register(ctx, caller, "ab", now)
	assert.ErrorIs(t, err, ledger.ErrUsernameTooShort)

	_, err = l.Register(ctx, caller, strings.Repeat("x", 51), now)
	assert.ErrorIs(t, err, ledger.ErrUsernameTooLong)

	_, err = l.Register(ctx, caller, "alice@example", now)
	assert.ErrorIs(t, err, ledger.ErrInvalidFormat)

	// Validation runs before any store access: nothing was created.
	_, err = l.Lookup(ctx, "alice@example")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestDepositIncreasesBalance(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()
	owner := identity('A')
	sender := identity('B')

	_, err := l.Register(ctx, owner, "carol", now)
	require.NoError(t, err)

	balance, err := l.Deposit(ctx, sender, "carol", 250, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), balance)

	balance, err = l.Deposit(ctx, sender, "carol", 750, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance)

	// Deposits never touch ownership.
	got, err := l.Lookup(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, owner, got.Owner)
}

func TestDepositZeroAmount(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "carol", now)
	require.NoError(t, err)

	_, err = l.Deposit(ctx, identity('B'), "carol", 0, now)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	got, err := l.Lookup(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Balance)
}

func TestDepositUnregistered(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Deposit(ctx, identity('B'), "nobody", 100, time.Now().UTC())
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	// The failed deposit must not have created the account.
	_, err = l.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestDepositOverflow(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "rich", now)
	require.NoError(t, err)

	_, err = l.Deposit(ctx, identity('B'), "rich", math.MaxUint64, now)
	require.NoError(t, err)

	_, err = l.Deposit(ctx, identity('B'), "rich", 1, now)
	assert.ErrorIs(t, err, ledger.ErrBalanceOverflow)

	got, err := l.Lookup(ctx, "rich")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.Balance)
}

func TestWithdrawChecksExistenceFirst(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	// An unauthorized caller against a nonexistent account sees NotFound,
	// because existence is checked before authorization.
	_, err := l.Withdraw(ctx, identity('B'), "ghost", 10, time.Now().UTC())
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestWithdrawUnauthorized(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "dave", now)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, identity('B'), "dave", 1000, now)
	require.NoError(t, err)

	// Unauthorized regardless of balance sufficiency.
	_, err = l.Withdraw(ctx, identity('B'), "dave", 10, now)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = l.Withdraw(ctx, identity('B'), "dave", 10000, now)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	got, err := l.Lookup(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got.Balance)
}

func TestWithdrawZeroAmount(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "dave", now)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, identity('A'), "dave", 0, now)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "dave", now)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, identity('B'), "dave", 100, now)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, identity('A'), "dave", 101, now)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	got, err := l.Lookup(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Balance)
}

func TestWithdrawWithReserve(t *testing.T) {
	// The storage floor lives outside the logical balance: the full logical
	// balance stays withdrawable with a reserve configured.
	l, _ := newLedger(t, ledger.WithReserve(1_000_000))
	ctx := context.Background()
	now := time.Now().UTC()

	require.Equal(t, uint64(1_000_000), l.Reserve())

	_, err := l.Register(ctx, identity('A'), "eve", now)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, identity('B'), "eve", 500, now)
	require.NoError(t, err)

	balance, err := l.Withdraw(ctx, identity('A'), "eve", 500, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestFullSequence(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()
	a := identity('A')
	b := identity('B')

	_, err := l.Register(ctx, a, "bob", now)
	require.NoError(t, err)

	balance, err := l.Deposit(ctx, b, "bob", 1_000_000_000, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), balance)

	balance, err = l.Withdraw(ctx, a, "bob", 500_000_000, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), balance)

	_, err = l.Withdraw(ctx, b, "bob", 500_000_000, now)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	balance, err = l.Withdraw(ctx, a, "bob", 500_000_000, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	_, err = l.Withdraw(ctx, a, "bob", 1, now)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestEventPerTransition(t *testing.T) {
	l, mem := newLedger(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := identity('A')
	b := identity('B')

	_, err := l.Register(ctx, a, "bob", now)
	require.NoError(t, err)
	_, err = l.Deposit(ctx, b, "bob", 100, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = l.Withdraw(ctx, a, "bob", 40, now.Add(2*time.Minute))
	require.NoError(t, err)

	// Failed transitions leave no trace in the log.
	_, err = l.Withdraw(ctx, b, "bob", 1, now)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = l.Deposit(ctx, b, "bob", 0, now)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	events, total, err := mem.Events(ctx, ledger.EventFilter{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, events, 3)

	assert.Equal(t, ledger.EventUsernameRegistered, events[0].Kind)
	assert.Equal(t, a, events[0].Actor)
	assert.Equal(t, uint64(0), events[0].Amount)

	assert.Equal(t, ledger.EventSolSent, events[1].Kind)
	assert.Equal(t, b, events[1].Actor)
	assert.Equal(t, uint64(100), events[1].Amount)

	assert.Equal(t, ledger.EventSolWithdrawn, events[2].Kind)
	assert.Equal(t, a, events[2].Actor)
	assert.Equal(t, uint64(40), events[2].Amount)

	for _, ev := range events {
		assert.Equal(t, "bob", ev.Username)
		assert.NotEmpty(t, ev.ID)
	}
}

func TestAccountsByOwner(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()
	a := identity('A')
	b := identity('B')

	_, err := l.Register(ctx, a, "first", now)
	require.NoError(t, err)
	_, err = l.Register(ctx, a, "second", now.Add(time.Second))
	require.NoError(t, err)
	_, err = l.Register(ctx, b, "other", now)
	require.NoError(t, err)

	accts, err := l.AccountsByOwner(ctx, a)
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "first", accts[0].Username)
	assert.Equal(t, "second", accts[1].Username)
}

func TestConcurrentDepositsLoseNoUpdate(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.Register(ctx, identity('A'), "hot-spot", now)
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := l.Deposit(ctx, identity('B'), "hot-spot", 1, now)
				if err == nil {
					return
				}
				// Transient contention is the only acceptable failure.
				if !errors.Is(err, ledger.ErrAccountBusy) {
					t.Errorf("deposit failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := l.Lookup(ctx, "hot-spot")
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), got.Balance)
}
