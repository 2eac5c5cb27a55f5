package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(512) 123-6789", "+15121236789"},
		{"512-123-6789", "+15121236789"},
		{"1 512 123 6789", "+15121236789"},
		{"15121236789", "+15121236789"},
		{"5121236789", "+15121236789"},
		{"no digits here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, E164(tt.in), "E164(%q)", tt.in)
	}
}
