package ledger

import "errors"

// Ledger errors. Each one is a stable kind: handlers match with errors.Is
// and translate through Code, never by message text.
var (
	ErrUsernameTooShort    = errors.New("username too short (min 3 chars)")  // Register input error
	ErrUsernameTooLong     = errors.New("username too long (max 50 chars)")  // Register input error
	ErrInvalidFormat       = errors.New("invalid username format")           // Register input error
	ErrInvalidAmount       = errors.New("invalid amount")                    // Deposit/Withdraw input error
	ErrAlreadyExists       = errors.New("username already in use")           // Register state conflict
	ErrAccountNotFound     = errors.New("account not found")                 // Deposit/Withdraw/Lookup state conflict
	ErrUnauthorized        = errors.New("unauthorized")                      // Withdraw caller is not the owner
	ErrInsufficientBalance = errors.New("insufficient balance to withdraw")  // Withdraw exceeds logical balance
	ErrBalanceOverflow     = errors.New("balance overflow")                  // Deposit would wrap uint64
	ErrBalanceUnderflow    = errors.New("balance underflow")                 // Withdraw would wrap uint64
	ErrAccountBusy         = errors.New("account busy, retry later")         // transient per-account contention
	ErrBumpNotFound        = errors.New("no valid bump for username")        // derivation exhausted all 256 bumps
)

// Code returns the machine-readable kind for a ledger error, or "internal"
// for anything the ledger did not produce itself.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUsernameTooShort):
		return "username_too_short"
	case errors.Is(err, ErrUsernameTooLong):
		return "username_too_long"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrBalanceOverflow):
		return "balance_overflow"
	case errors.Is(err, ErrBalanceUnderflow):
		return "balance_underflow"
	case errors.Is(err, ErrAccountBusy):
		return "account_busy"
	case errors.Is(err, ErrBumpNotFound):
		return "bump_not_found"
	default:
		return "internal"
	}
}
