package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want bool
	}{
		{"too short", "short1!", false},
		{"single digit", "longenough1", false},
		{"two symbols", "password!!", true},
		{"letters only", "password", false},
		{"digit and symbol", "pass-word9", true},
		{"underscore is a word character", "pass__word", false},
		{"one space", "password here", false},
		{"spaces count as symbols", "pass word here", true},
		{"seven runes with extras", "ab12!@#", false},
		{"non-ascii letters count", "contraseñaé", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPassword(tt.pw))
		})
	}
}
