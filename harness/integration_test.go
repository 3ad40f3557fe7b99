package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/fixture"
	"github.com/skellig/stencil/model"
)

func TestCodegenIntegrationTest(t *testing.T) {
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)

	var seen *PluginInvocation
	dir, err := CodegenIntegrationTest(context.Background(), m, Params{
		Settings:      stencil.CodegenSettings(stencil.WithDebugComments(true)),
		ModuleVersion: "v1.2.3",
		Service:       fixture.ServiceID,
		OutputDir:     t.TempDir(),
		Commands:      [][]string{},
	}, func(ctx context.Context, inv *PluginInvocation) error {
		seen = inv
		// The strict build config is in place before the plugin runs.
		_, err := os.Stat(filepath.Join(inv.OutputDir, "go.mod"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(inv.OutputDir, ".golangci.yml"))
		assert.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)

	assert.Equal(t, dir, seen.OutputDir)
	assert.Equal(t, "v1.2.3", seen.ModuleVersion)
	assert.Equal(t, fixture.ServiceID, seen.Service)
	assert.Equal(t, DefaultRuntime().ModulePath, seen.Runtime.ModulePath)
	assert.True(t, seen.Settings.Codegen().Bool(stencil.DebugCommentsKey))

	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(mod), "require github.com/skellig/stencil")

	lint, err := os.ReadFile(filepath.Join(dir, ".golangci.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(lint), "staticcheck")
}

func TestCodegenIntegrationTestPluginError(t *testing.T) {
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)

	dir, err := CodegenIntegrationTest(context.Background(), m, Params{
		OutputDir: t.TempDir(),
		Commands:  [][]string{},
	}, func(ctx context.Context, inv *PluginInvocation) error {
		return assert.AnError
	})
	require.Error(t, err)
	require.ErrorIs(t, err, assert.AnError)
	assert.NotEmpty(t, dir)
}

func TestCodegenIntegrationTestCommandFailure(t *testing.T) {
	requireTool(t, "sh")
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)

	_, err = CodegenIntegrationTest(context.Background(), m, Params{
		OutputDir: t.TempDir(),
		Commands:  [][]string{{"sh", "-c", "echo lint exploded; exit 1"}},
	}, func(ctx context.Context, inv *PluginInvocation) error {
		return nil
	})
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Output, "lint exploded")
}
