// Package store provides the ledger.Store implementations: a MySQL-backed
// store for the service and an in-memory store for tests and local runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"username_wallet/internal/ledger" // Store contract and record types
)

// Bounded budget for claiming a per-account lock. A caller that cannot get
// exclusive access within the budget fails with ErrAccountBusy instead of
// queueing behind the contention.
const (
	lockAttempts = 50
	lockBackoff  = 2 * time.Millisecond
)

// Memory is an in-memory ledger.Store. Accounts live in a map keyed by
// derived address; each address has its own single-slot semaphore, so
// operations on different usernames never contend.
type Memory struct {
	mu     sync.Mutex                            // Guards the maps and the event log
	accts  map[ledger.Address]*ledger.Account    // Address → record
	locks  map[ledger.Address]chan struct{}      // Address → per-account semaphore
	events []ledger.Event                        // Append-only, in commit order
}

var _ ledger.Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accts: make(map[ledger.Address]*ledger.Account),
		locks: make(map[ledger.Address]chan struct{}),
	}
}

// acquire claims the semaphore for addr within the bounded budget. The
// returned release must be called exactly once.
func (m *Memory) acquire(ctx context.Context, addr ledger.Address) (func(), error) {
	m.mu.Lock()
	ch, ok := m.locks[addr]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[addr] = ch
	}
	m.mu.Unlock()
	for i := 0; i < lockAttempts; i++ {
		select {
		case ch <- struct{}{}:
			return func() { <-ch }, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	return nil, ledger.ErrAccountBusy
}

// CreateAccount claims an empty slot and writes the record and event
// atomically. An occupied slot fails with ErrAlreadyExists untouched.
func (m *Memory) CreateAccount(ctx context.Context, addr ledger.Address, acct *ledger.Account, ev ledger.Event) error {
	release, err := m.acquire(ctx, addr)
	if err != nil {
		return err
	}
	defer release()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accts[addr]; ok {
		return ledger.ErrAlreadyExists
	}
	cp := *acct
	m.accts[addr] = &cp
	m.events = append(m.events, ev)
	return nil
}

// LoadAccount returns a snapshot of the record at addr.
func (m *Memory) LoadAccount(ctx context.Context, addr ledger.Address) (*ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accts[addr]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// UpdateAccount runs mutate under the per-address semaphore. The mutation
// works on a copy; only a successful mutate swaps the record in and appends
// the event, so a failed mutate leaves no trace.
func (m *Memory) UpdateAccount(ctx context.Context, addr ledger.Address, mutate func(*ledger.Account) (ledger.Event, error)) (*ledger.Account, error) {
	release, err := m.acquire(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer release()
	m.mu.Lock()
	cur, ok := m.accts[addr]
	if !ok {
		m.mu.Unlock()
		return nil, ledger.ErrAccountNotFound
	}
	work := *cur
	m.mu.Unlock()
	ev, err := mutate(&work)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	committed := work
	m.accts[addr] = &committed
	m.events = append(m.events, ev)
	snapshot := committed
	return &snapshot, nil
}

// AccountsByOwner returns snapshots of all accounts registered by owner,
// oldest registration first.
func (m *Memory) AccountsByOwner(ctx context.Context, owner ledger.Identity) ([]*ledger.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.Account
	for _, a := range m.accts {
		if a.Owner == owner {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Events reads the log in commit order with filter and pagination applied.
func (m *Memory) Events(ctx context.Context, f ledger.EventFilter, offset, limit int) ([]ledger.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []ledger.Event
	for _, ev := range m.events {
		if !matchEvent(f, ev) {
			continue
		}
		matched = append(matched, ev)
	}
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// matchEvent applies an EventFilter to one entry.
func matchEvent(f ledger.EventFilter, ev ledger.Event) bool {
	if f.Username != "" && ev.Username != f.Username {
		return false
	}
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if !f.From.IsZero() && ev.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.Timestamp.After(f.To) {
		return false
	}
	return true
}
