package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfTestPasses(t *testing.T) {
	out, err := runCommand(t, NewSelfTestCmd(), "text")
	require.NoError(t, err)
	assert.Contains(t, out, "8 passed, 0 failed")
	assert.Equal(t, 8, strings.Count(out, "PASS"))
	assert.NotContains(t, out, "FAIL")
}

func TestSelfTestJSON(t *testing.T) {
	out, err := runCommand(t, NewSelfTestCmd(), "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"passed": 8`)
	assert.Contains(t, out, `"failed": 0`)
}
