package confval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "assemblyai", String("assemblyai"))
	assert.Empty(t, String(42))
	assert.Empty(t, String(nil))
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{in: 5, want: 5},
		{in: int64(300), want: 300},
		{in: float64(7), want: 7},
		{in: 7.5, want: 0},
		{in: "5", want: 0},
		{in: nil, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int(tt.in), "%#v", tt.in)
	}
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true))
	assert.False(t, Bool("true"))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"Treasurer"}, Strings([]string{"Treasurer"}))
	assert.Equal(t, []string{"a", "b"}, Strings([]any{"a", 1, "b"}))
	assert.Empty(t, Strings([]any{}))
	assert.Nil(t, Strings("a"))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   any
		want time.Duration
	}{
		{in: "90s", want: 90 * time.Second},
		{in: "5m", want: 5 * time.Minute},
		{in: int64(60), want: time.Minute},
		{in: 2, want: 2 * time.Second},
		{in: 3 * time.Hour, want: 3 * time.Hour},
		{in: "soon", want: 0},
		{in: true, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duration(tt.in), "%#v", tt.in)
	}
}

func TestTables(t *testing.T) {
	channel := map[string]any{"id": "2GB"}

	assert.Equal(t, []map[string]any{channel}, Tables([]map[string]any{channel}))
	assert.Equal(t, []map[string]any{channel}, Tables([]any{channel, "stray"}))
	assert.Nil(t, Tables(map[string]any{}))
}
