package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []interface{}
	}{
		{name: "empty", in: nil, want: nil},
		{name: "plain values pass", in: []interface{}{"mode", "ranked"}, want: []interface{}{"mode", "ranked"}},
		{name: "token redacted", in: []interface{}{"api_token", "abc"}, want: []interface{}{"api_token", "[REDACTED]"}},
		{name: "case insensitive", in: []interface{}{"Authorization", "Bearer x"}, want: []interface{}{"Authorization", "[REDACTED]"}},
		{name: "dangling key kept", in: []interface{}{"mode", "ranked", "orphan"}, want: []interface{}{"mode", "ranked", "orphan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeKVs(tt.in))
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := Nop()
	assert.Same(t, l, OrNop(l))

	// A nop logger accepts every call
	l.With("k", "v").Info("msg", "password", "x")
}
