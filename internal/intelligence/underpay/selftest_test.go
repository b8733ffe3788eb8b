package underpay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/database/memory"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
)

func TestSelfTestPassesAgainstDefaultCatalog(t *testing.T) {
	repo, err := memory.NewSeededRepository()
	require.NoError(t, err)

	report := underpay.SelfTest(context.Background(), repo, nil)
	for _, c := range report.Cases {
		assert.True(t, c.Passed, "case %q failed: %s", c.Name, c.Detail)
	}
	assert.True(t, report.OK())
	assert.Equal(t, 8, report.Passed)
	assert.Zero(t, report.Failed)
}

func TestSelfTestIsRepeatable(t *testing.T) {
	repo, err := memory.NewSeededRepository()
	require.NoError(t, err)
	ctx := context.Background()

	first := underpay.SelfTest(ctx, repo, nil)
	second := underpay.SelfTest(ctx, repo, nil)

	// The trend case writes a uniquely named pattern each run, so a second
	// run against the same store still sees a brand-new pair.
	assert.True(t, first.OK())
	assert.True(t, second.OK())
}
