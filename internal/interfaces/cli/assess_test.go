package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessClaimText(t *testing.T) {
	out, err := runCommand(t, NewAssessCmd(), "text",
		"--carrier", "State Farm",
		"Steep slope charge", "Step flashing", "Ridge cap shingles",
		"Tear off comp shingles", "Drip edge", "Unknown widget xyz")
	require.NoError(t, err)
	assert.Contains(t, out, "URGENT:")
	assert.Contains(t, out, "overall risk:   CRITICAL")
	assert.Contains(t, out, "items matched:  5 of 6")
	assert.Contains(t, out, "priority items:")
	assert.Contains(t, out, "Steep slope charge")
}

func TestAssessNoMatches(t *testing.T) {
	out, err := runCommand(t, NewAssessCmd(), "text",
		"--carrier", "State Farm", "Unknown widget xyz")
	require.NoError(t, err)
	assert.Contains(t, out, "overall risk:   NONE")
	assert.Contains(t, out, "items matched:  0 of 1")
}
