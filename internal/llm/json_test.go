package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"array", "```json\n[{\"a\":1},{\"a\":2}]\n```", `[{"a":1},{"a":2}]`},
		{"object containing array", `{"a":[1,2]}`, `{"a":[1,2]}`},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestDecodeFirst(t *testing.T) {
	var v struct{ A int }

	found, err := decodeFirst(`[{"a":7},{"a":9}]`, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, v.A)

	found, err = decodeFirst(`[]`, &v)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = decodeFirst(`null`, &v)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = decodeFirst(`not json`, &v)
	assert.Error(t, err)

	_, err = decodeFirst(``, &v)
	assert.Error(t, err)
}
