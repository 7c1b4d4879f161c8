package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     error
	}{
		{"minimum length", "abc", nil},
		{"maximum length", strings.Repeat("a", 50), nil},
		{"letters digits hyphens", "Alice-123", nil},
		{"hyphen only", "---", nil},
		{"too short", "ab", ErrUsernameTooShort},
		{"empty", "", ErrUsernameTooShort},
		{"too long", strings.Repeat("a", 51), ErrUsernameTooLong},
		{"at sign", "alice@example", ErrInvalidFormat},
		{"space", "alice smith", ErrInvalidFormat},
		{"underscore", "alice_smith", ErrInvalidFormat},
		{"unicode", "alicé", ErrInvalidFormat},
		{"length checked before charset", "@", ErrUsernameTooShort},
		{"long checked before charset", strings.Repeat("@", 51), ErrUsernameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
