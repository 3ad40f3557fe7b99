package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/model"
)

// Params configures one integration run. Zero values are usable: a fresh
// uuid-suffixed output directory, the default command pipeline, and a nop
// logger.
type Params struct {
	// Settings is merged over the defaults and handed to the plugin
	// under the codegen key.
	Settings stencil.Settings

	// ModuleVersion is stamped into the plugin invocation.
	ModuleVersion string

	// Service selects the service shape the plugin generates for.
	Service model.ShapeID

	// Runtime is where the generated go.mod points its runtime
	// dependency.
	Runtime RuntimeConfig

	// OutputDir is the workspace; empty means a fresh temp directory.
	OutputDir string

	// Commands is the verification pipeline; nil means DefaultCommands.
	Commands [][]string

	Logger *zap.Logger
}

// PluginInvocation is the fully-resolved input handed to a codegen
// plugin.
type PluginInvocation struct {
	Model         *model.Model
	Settings      stencil.Settings
	ModuleVersion string
	Service       model.ShapeID
	Runtime       RuntimeConfig
	OutputDir     string
}

// PluginFunc is a codegen entry point under integration test. It writes
// generated sources into inv.OutputDir.
type PluginFunc func(ctx context.Context, inv *PluginInvocation) error

// lintConfig is the strict build configuration written into every
// integration workspace. Vet-class findings fail the build.
var lintConfig = map[string]any{
	"run": map[string]any{
		"timeout": "5m",
	},
	"linters": map[string]any{
		"enable": []string{"govet", "staticcheck", "unused", "errcheck"},
	},
	"issues": map[string]any{
		"exclude-use-default":   false,
		"max-issues-per-linter": 0,
		"max-same-issues":       0,
	},
}

// CodegenIntegrationTest generates a project through the plugin and
// verifies it builds cleanly. The strict build configuration (go.mod plus
// a lint config) is written before the plugin runs, so the plugin sees
// the workspace it must satisfy. The output directory is returned for
// inspection even when the run fails.
func CodegenIntegrationTest(ctx context.Context, m *model.Model, p Params, plugin PluginFunc) (string, error) {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.OutputDir == "" {
		p.OutputDir = filepath.Join(os.TempDir(), "stencil-integration-"+uuid.NewString())
	}
	if p.Commands == nil {
		p.Commands = DefaultCommands()
	}
	if p.Runtime.ModulePath == "" {
		p.Runtime = DefaultRuntime()
	}

	settings := stencil.CodegenSettings().Merge(p.Settings)

	if err := writeBuildConfig(p); err != nil {
		return p.OutputDir, err
	}

	inv := &PluginInvocation{
		Model:         m,
		Settings:      settings,
		ModuleVersion: p.ModuleVersion,
		Service:       p.Service,
		Runtime:       p.Runtime,
		OutputDir:     p.OutputDir,
	}
	if err := plugin(ctx, inv); err != nil {
		return p.OutputDir, fmt.Errorf("codegen plugin: %w", err)
	}

	for _, argv := range p.Commands {
		out, err := RunCommand(ctx, p.OutputDir, p.Logger, argv...)
		if err != nil {
			p.Logger.Error("integration build failed",
				zap.Strings("argv", argv),
				zap.String("output", out),
			)
			return p.OutputDir, err
		}
	}
	return p.OutputDir, nil
}

// writeBuildConfig writes go.mod and the lint config into the output
// directory.
func writeBuildConfig(p Params) error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", p.OutputDir, err)
	}

	name := filepath.Base(p.OutputDir)
	proj := &Project{
		modulePath: "stencil.test/" + name,
		runtime:    p.Runtime,
	}
	if err := os.WriteFile(filepath.Join(p.OutputDir, "go.mod"), []byte(proj.goMod()), 0o644); err != nil {
		return fmt.Errorf("write go.mod: %w", err)
	}

	lint, err := yaml.Marshal(lintConfig)
	if err != nil {
		return fmt.Errorf("marshal lint config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.OutputDir, ".golangci.yml"), lint, 0o644); err != nil {
		return fmt.Errorf("write lint config: %w", err)
	}
	return nil
}
