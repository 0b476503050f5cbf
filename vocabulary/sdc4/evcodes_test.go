package sdc4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEVCodes(t *testing.T) {
	codes := EVCodes()
	require.Len(t, codes, 16)

	// Every code has a fixed name and a template hint.
	for _, code := range codes {
		assert.True(t, IsEVCode(string(code)), "code %s", code)
		assert.NotEmpty(t, EVName(code), "name for %s", code)
		assert.NotEmpty(t, EVHints[code], "hint for %s", code)
	}
}

func TestEVName(t *testing.T) {
	assert.Equal(t, "Not Asked", EVName(EVNotAsked))
	assert.Equal(t, "Sufficient Quantity", EVName(EVQuantitySufficient))
	// Unknown codes echo back rather than emitting an empty ev-name.
	assert.Equal(t, "XYZ", EVName(EVCode("XYZ")))
}

func TestIsEVCode(t *testing.T) {
	assert.True(t, IsEVCode("NASK"))
	assert.False(t, IsEVCode("nask"))
	assert.False(t, IsEVCode(""))
}
