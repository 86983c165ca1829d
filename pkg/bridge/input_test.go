package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	in, err := ParseInput(`{"action":"wait","ms":0,"headed":true,"unexpected":{"nested":1}}`)
	require.NoError(t, err)
	assert.Equal(t, "wait", in.Action)
	require.NotNil(t, in.Ms)
	assert.Equal(t, float64(0), *in.Ms)
	assert.True(t, in.Headed)
}

func TestParseInput_FractionalMs(t *testing.T) {
	in, err := ParseInput(`{"action":"wait","ms":1500.5}`)
	require.NoError(t, err)
	require.NotNil(t, in.Ms)
	assert.Equal(t, 1500.5, *in.Ms)
}

func TestParseInput_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		in, err := ParseInput(raw)
		require.NoError(t, err)
		assert.Equal(t, &Input{}, in)
	}
}

func TestParseInput_Invalid(t *testing.T) {
	tests := []string{
		`{not json`,
		`[1,2]`,
		`{"ms":"soon"}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseInput(raw)
			require.ErrorIs(t, err, ErrUsage)
			assert.Contains(t, err.Error(), "Invalid JSON input: ")
		})
	}
}

func TestInputSource(t *testing.T) {
	assert.Equal(t, "a", (&Input{Code: "a", Script: "b"}).source())
	assert.Equal(t, "b", (&Input{Script: "b"}).source())
	assert.Equal(t, "", (&Input{}).source())
}
