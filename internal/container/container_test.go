package container

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trans-gate/internal/app"
)

func TestBuildContainer(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "test.db"))
	t.Setenv("CONFIG_DIR", dir)

	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)

	// Resolving the app exercises the whole provider graph.
	err = container.Invoke(func(application *app.App) {
		assert.NotNil(t, application)
	})
	require.NoError(t, err)
}
