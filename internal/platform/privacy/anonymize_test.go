package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"192.168.1.47", "192.168.1.0"},
		{"10.0.0.0", "10.0.0.0"},
		{"127.0.0.1", "127.0.0.0"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"", "unknown"},
		{"unknown", "unknown"},
		{"not-an-ip", "invalid"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AnonymizeIP(tt.input), "input %q", tt.input)
	}
}
