package audience_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/flagkit/pkg/audience"
)

func TestThreeValuedLogic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  audience.Result
		want audience.Result
	}{
		{"and true unknown", audience.And(audience.True, audience.Unknown), audience.Unknown},
		{"and false unknown", audience.And(audience.False, audience.Unknown), audience.False},
		{"and unknown false", audience.And(audience.Unknown, audience.False), audience.False},
		{"and true true", audience.And(audience.True, audience.True), audience.True},
		{"and empty", audience.And(), audience.True},
		{"or false unknown", audience.Or(audience.False, audience.Unknown), audience.Unknown},
		{"or true unknown", audience.Or(audience.Unknown, audience.True), audience.True},
		{"or false false", audience.Or(audience.False, audience.False), audience.False},
		{"or empty", audience.Or(), audience.False},
		{"not unknown", audience.Not(audience.Unknown), audience.Unknown},
		{"not true", audience.Not(audience.True), audience.False},
		{"not false", audience.Not(audience.False), audience.True},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestValueOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, audience.KindNull, audience.ValueOf(nil).Kind())
	assert.Equal(t, audience.KindString, audience.ValueOf("x").Kind())
	assert.Equal(t, audience.KindBool, audience.ValueOf(true).Kind())
	assert.Equal(t, audience.KindNumber, audience.ValueOf(3).Kind())
	assert.Equal(t, audience.KindNumber, audience.ValueOf(int64(3)).Kind())
	assert.Equal(t, audience.KindNumber, audience.ValueOf(float32(1.5)).Kind())
	assert.Equal(t, audience.KindInvalid, audience.ValueOf([]string{"a"}).Kind())

	n, ok := audience.ValueOf(uint8(7)).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 7.0, n)

	attrs := audience.NewAttributes(map[string]any{"plan": "pro", "seats": 4})
	assert.Equal(t, map[string]any{"plan": "pro", "seats": 4.0}, attrs.ToMap())
}
