package ledger

import (
	"time"

	"github.com/google/uuid" // Stable event IDs across store backends
)

// Event kinds, one per successful state transition.
const (
	EventUsernameRegistered = "UsernameRegistered" // Register succeeded
	EventSolSent            = "SolSent"            // Deposit succeeded
	EventSolWithdrawn       = "SolWithdrawn"       // Withdraw succeeded
)

// Event is one entry of the append-only audit log. Exactly one event is
// recorded per successful transition, in the same atomic step as the
// account mutation.
type Event struct {
	ID        string    // UUID assigned at emission
	Kind      string    // One of the Event* kinds
	Username  string    // Handle the transition targeted
	Actor     Identity  // Owner for register/withdraw, sender for deposit
	Amount    uint64    // Transition amount; zero for registration
	Timestamp time.Time // Transition time as passed into the operation
}

// newEvent stamps a fresh log entry.
func newEvent(kind, username string, actor Identity, amount uint64, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Username:  username,
		Actor:     actor,
		Amount:    amount,
		Timestamp: at,
	}
}
