package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settled-dev/settled/internal/config"
	"github.com/settled-dev/settled/internal/gitops"
	"github.com/settled-dev/settled/internal/ledger"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(dir, "Jane's Plumbing", "sole_trader"))

	for _, d := range []string{"accounts", "statements", "recon", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, "settled.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Jane's Plumbing", cfg.Business.Name)
	assert.Equal(t, "sole_trader", cfg.Business.EntityType)

	led, err := ledger.Load(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, led.All())
	assert.True(t, led.Exists(1010))

	assert.True(t, gitops.IsRepo(dir))

	// The initial commit left a clean tree.
	changed, err := gitops.HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRunInit_Idempotent(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(dir, "Jane's Plumbing", "sole_trader"))
	// Re-running over an existing books directory does not error.
	require.NoError(t, runInit(dir, "Jane's Plumbing", "sole_trader"))
}
