package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// The fixed module layout of every generated test workspace.
const (
	ModuleErrors = "errors"
	ModuleModel  = "model"
	ModuleOutput = "output"
)

// RuntimeConfig points a generated project's go.mod at the stencil
// runtime. LocalPath, when set, becomes a replace directive so hermetic
// workspaces build against the local checkout instead of a published
// module.
type RuntimeConfig struct {
	ModulePath string
	Version    string
	LocalPath  string
}

// DefaultRuntime returns the runtime coordinates of this repository.
func DefaultRuntime() RuntimeConfig {
	return RuntimeConfig{
		ModulePath: "github.com/skellig/stencil",
		Version:    "v0.4.0",
	}
}

// Project is the handle to one generated workspace: a uuid-isolated
// directory holding a go.mod, the fixed module packages, and any raw
// files. Files accumulate in memory and hit disk on Flush.
type Project struct {
	root       string
	modulePath string
	runtime    RuntimeConfig
	logger     *zap.Logger
	workers    int

	files []projectFile
	raw   map[string]string
}

type projectFile struct {
	path string // relative to root
	file *jen.File
}

// ProjectOption configures a generated workspace.
type ProjectOption func(*Project)

// WithRoot fixes the workspace directory instead of a fresh uuid-suffixed
// directory under the system temp dir.
func WithRoot(dir string) ProjectOption {
	return func(p *Project) {
		p.root = dir
	}
}

// WithRuntime sets the runtime coordinates written into go.mod.
func WithRuntime(rc RuntimeConfig) ProjectOption {
	return func(p *Project) {
		p.runtime = rc
	}
}

// WithProjectLogger sets the workspace logger.
func WithProjectLogger(l *zap.Logger) ProjectOption {
	return func(p *Project) {
		p.logger = l
	}
}

// NewProject creates a workspace handle named after the test case. The
// directory is created on Flush, not here.
func NewProject(name string, opts ...ProjectOption) *Project {
	p := &Project{
		root:       filepath.Join(os.TempDir(), "stencil-"+name+"-"+uuid.NewString()),
		modulePath: "stencil.test/" + name,
		runtime:    DefaultRuntime(),
		logger:     zap.NewNop(),
		workers:    runtime.GOMAXPROCS(0),
		raw:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the workspace directory.
func (p *Project) Root() string {
	return p.root
}

// ModulePath returns the generated module path.
func (p *Project) ModulePath() string {
	return p.modulePath
}

// PackagePath returns the import path of a module package.
func (p *Project) PackagePath(module string) string {
	return p.modulePath + "/" + module
}

// WithModule appends a file to one of the fixed module packages. The
// populate function receives a fresh file bound to the package; rendering
// errors abort the project build.
func (p *Project) WithModule(module, filename string, populate func(f *jen.File) error) error {
	switch module {
	case ModuleErrors, ModuleModel, ModuleOutput:
	default:
		return fmt.Errorf("stencil: unknown project module %q", module)
	}
	f := jen.NewFilePathName(p.PackagePath(module), module)
	f.HeaderComment("Code generated by stencil. DO NOT EDIT.")
	if err := populate(f); err != nil {
		return err
	}
	p.files = append(p.files, projectFile{
		path: filepath.Join(module, filename),
		file: f,
	})
	return nil
}

// AddRawFile stages a verbatim file (go.mod, configs, test sources).
func (p *Project) AddRawFile(relPath, content string) {
	p.raw[relPath] = content
}

// goMod renders the workspace go.mod, pinning the stencil runtime and,
// for local checkouts, a replace directive.
func (p *Project) goMod() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "module %s\n\ngo 1.24\n\nrequire %s %s\n", p.modulePath, p.runtime.ModulePath, p.runtime.Version)
	if p.runtime.LocalPath != "" {
		fmt.Fprintf(&b, "\nreplace %s => %s\n", p.runtime.ModulePath, p.runtime.LocalPath)
	}
	return b.String()
}

// Flush writes every staged file under the workspace root. Generated Go
// sources are formatted with goimports; a file that fails to format is
// dumped alongside with an .error suffix for debugging. Writes fan out on
// a bounded errgroup.
func (p *Project) Flush(ctx context.Context) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("create workspace %s: %w", p.root, err)
	}
	if err := os.WriteFile(filepath.Join(p.root, "go.mod"), []byte(p.goMod()), 0o644); err != nil {
		return fmt.Errorf("write go.mod: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for _, f := range p.files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return p.writeGenerated(f)
			}
		})
	}
	for path, content := range p.raw {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return p.writeRaw(path, content)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	p.logger.Info("workspace flushed",
		zap.String("root", p.root),
		zap.Int("generated", len(p.files)),
		zap.Int("raw", len(p.raw)),
	)
	return nil
}

func (p *Project) writeGenerated(f projectFile) error {
	var buf bytes.Buffer
	if err := f.file.Render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", f.path, err)
	}
	fullPath := filepath.Join(p.root, f.path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.path, err)
	}
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return fmt.Errorf("format %s: %w (unformatted written to %s)", f.path, err, debugPath)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func (p *Project) writeRaw(relPath, content string) error {
	fullPath := filepath.Join(p.root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}
