package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/compiler/gen/client"
	"github.com/skellig/stencil/compiler/gen/server"
)

// TestEndToEndGeneratedProjects compiles and tests every generated
// project in the matrix. It shells out to the go toolchain and resolves
// modules, so it only runs when STENCIL_E2E=1.
func TestEndToEndGeneratedProjects(t *testing.T) {
	if os.Getenv("STENCIL_E2E") != "1" {
		t.Skip("set STENCIL_E2E=1 to run the end-to-end build matrix")
	}
	requireTool(t, "go")

	repoRoot, err := filepath.Abs("..")
	require.NoError(t, err)
	rc := RuntimeConfig{
		ModulePath: DefaultRuntime().ModulePath,
		Version:    "v0.0.0",
		LocalPath:  repoRoot,
	}

	backends := map[gen.Mode]gen.Backend{}
	cb, err := client.New()
	require.NoError(t, err)
	backends[gen.ModeClient] = cb
	sb, err := server.New()
	require.NoError(t, err)
	backends[gen.ModeServer] = sb

	for _, tc := range Cases() {
		for mode, backend := range backends {
			for _, dir := range []gen.Direction{gen.Marshall, gen.Unmarshall} {
				t.Run(fmt.Sprintf("%s/%s/%s", tc.Name, mode, dir), func(t *testing.T) {
					t.Parallel()
					err := RunTestCase(context.Background(), tc, backend, mode, dir,
						WithProjectOptions(WithRuntime(rc), WithRoot(t.TempDir())),
					)
					require.NoError(t, err)
				})
			}
		}
	}
}
