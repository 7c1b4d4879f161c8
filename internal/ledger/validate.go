package ledger

// Username length bounds.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 50
)

// ValidateUsername checks the raw username string against the registration
// rules, first failure wins: length < 3, length > 50, then charset. No
// trimming or case folding happens here or anywhere else; the string that
// passes validation is the string that gets stored and re-derived against.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLen {
		return ErrUsernameTooShort
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	for _, c := range []byte(username) {
		if !isUsernameChar(c) {
			return ErrInvalidFormat
		}
	}
	return nil
}

// isUsernameChar allows ASCII letters, digits and hyphens only.
func isUsernameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-':
		return true
	}
	return false
}
