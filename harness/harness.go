package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/fixture"
	"github.com/skellig/stencil/model"
	"github.com/skellig/stencil/model/transform"
)

// TestEventStreamProject bundles everything one event-stream test case
// needs: the normalized model, the resolved well-known shapes, the symbol
// resolver, and the generated workspace handle. Immutable after
// construction; torn down by the external build/test process completing.
type TestEventStreamProject struct {
	Model     *model.Model
	Service   *model.Shape
	Operation *model.Shape
	Stream    *model.Shape
	Resolver  *gen.SymbolResolver
	Project   *Project
}

// NewTestProject builds the synthetic compilation unit for one wire case:
// error types, model types, builders, union variants, the
// direction-specific generator, and the test sources that drive it.
func NewTestProject(tc WireCase, backend gen.Backend, mode gen.Mode, dir gen.Direction, opts ...ProjectOption) (*TestEventStreamProject, error) {
	if backend.Mode() != mode {
		return nil, gen.NewConfigError("Mode", mode.String(), "backend mode does not match requested mode")
	}

	m, err := fixture.EventStream(tc.Protocol)
	if err != nil {
		return nil, err
	}
	// Event-stream normalization requires an operation-normalized model;
	// the order is load-bearing.
	m = transform.NormalizeOperations(m)
	m = transform.NormalizeEventStreams(m)

	service := m.ExpectShape(fixture.ServiceID)
	operation := m.ExpectShape(fixture.OperationID)
	stream := m.ExpectShape(fixture.StreamID)

	project := NewProject(fmt.Sprintf("%s-%s-%s", tc.Name, mode, dir), opts...)
	ctx, err := backend.CreateContext(m, fixture.ServiceID, nil)
	if err != nil {
		return nil, err
	}
	ctx.ModulePath = project.ModulePath()

	p := &TestEventStreamProject{
		Model:     m,
		Service:   service,
		Operation: operation,
		Stream:    stream,
		Resolver:  ctx.Resolver,
		Project:   project,
	}
	if err := p.render(ctx, backend, tc, dir); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *TestEventStreamProject) render(ctx *gen.Context, backend gen.Backend, tc WireCase, dir gen.Direction) error {
	if err := p.renderErrors(ctx, backend); err != nil {
		return err
	}
	if err := p.renderModels(ctx, backend); err != nil {
		return err
	}
	if err := p.renderOutput(ctx, backend, dir); err != nil {
		return err
	}
	return p.renderTests(ctx, tc, dir)
}

// renderErrors populates the errors module with the operation-level error
// hierarchy plus any error-marked union variants.
func (p *TestEventStreamProject) renderErrors(ctx *gen.Context, backend gen.Backend) error {
	return p.Project.WithModule(ModuleErrors, "errors.go", func(f *jen.File) error {
		rendered := make(map[model.ShapeID]struct{})
		for _, errID := range p.Operation.Errors {
			if err := p.renderErrorShape(ctx, backend, f, errID, rendered); err != nil {
				return err
			}
		}
		for _, variant := range p.Model.Members(p.Stream) {
			target := p.Model.ExpectShape(variant.MemberTarget)
			if target.Traits.Has(model.TraitError) {
				if err := p.renderErrorShape(ctx, backend, f, target.ID, rendered); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (p *TestEventStreamProject) renderErrorShape(ctx *gen.Context, backend gen.Backend, f *jen.File, id model.ShapeID, rendered map[model.ShapeID]struct{}) error {
	if _, done := rendered[id]; done {
		return nil
	}
	rendered[id] = struct{}{}
	return backend.RenderOperationError(ctx, f, p.Model.ExpectShape(id))
}

// renderModels walks the operation's input/output closure and renders a
// model type and builder for every novel structure, and a variant set for
// every novel union. Builtin-targeted members are skipped; each shape is
// expanded once, so cyclic models terminate.
func (p *TestEventStreamProject) renderModels(ctx *gen.Context, backend gen.Backend) error {
	structures, unions, constrained, err := p.collectClosure(ctx)
	if err != nil {
		return err
	}
	return p.Project.WithModule(ModuleModel, "model.go", func(f *jen.File) error {
		for _, s := range structures {
			if err := gen.RenderStructure(ctx, f, s); err != nil {
				return err
			}
			bg, err := backend.BuilderGenerator(ctx, s)
			if err != nil {
				return err
			}
			if err := bg.Render(f); err != nil {
				return err
			}
		}
		for _, u := range unions {
			if err := gen.RenderUnion(ctx, f, u); err != nil {
				return err
			}
		}
		if cg, ok := backend.(gen.ConstrainedTypeGenerator); ok {
			for _, s := range constrained {
				if err := cg.RenderConstrainedType(ctx, f, s); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// collectClosure gathers the novel shapes reachable from the operation's
// input and output, in model insertion order for deterministic output.
// The output structure itself is excluded: it renders into the output
// module.
func (p *TestEventStreamProject) collectClosure(ctx *gen.Context) (structures, unions, constrained []*model.Shape, err error) {
	visited := make(map[model.ShapeID]struct{})
	stack := []model.ShapeID{p.Operation.Input, p.Operation.Output}
	wanted := make(map[model.ShapeID]struct{})
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if id.IsBuiltin() {
			continue
		}
		s, ok := p.Model.Shape(id)
		if !ok {
			return nil, nil, nil, gen.NewGenerationError("models", id, "dangling reference in closure", nil)
		}
		switch s.Kind {
		case model.KindStructure, model.KindUnion:
			wanted[id] = struct{}{}
			stack = append(stack, s.Members...)
		case model.KindMember:
			stack = append(stack, s.MemberTarget)
		case model.KindList, model.KindMap:
			if ctx.Resolver.IsDirectlyConstrained(s) {
				wanted[id] = struct{}{}
			}
			stack = append(stack, s.Members...)
		case model.KindString, model.KindBoolean, model.KindInteger, model.KindLong, model.KindBlob, model.KindTimestamp:
			if ctx.Resolver.IsDirectlyConstrained(s) {
				wanted[id] = struct{}{}
			}
		default:
			return nil, nil, nil, gen.NewUnsupportedShapeError(s, "model closure")
		}
	}

	for _, s := range p.Model.Shapes() {
		if _, ok := wanted[s.ID]; !ok {
			continue
		}
		switch {
		case s.ID == p.Operation.Output:
			// Rendered into the output module.
		case s.Kind == model.KindStructure:
			structures = append(structures, s)
		case s.Kind == model.KindUnion:
			unions = append(unions, s)
		default:
			constrained = append(constrained, s)
		}
	}
	return structures, unions, constrained, nil
}

// renderOutput populates the output module: the operation's output shape,
// its builder, and the direction-specific generator.
func (p *TestEventStreamProject) renderOutput(ctx *gen.Context, backend gen.Backend, dir gen.Direction) error {
	return p.Project.WithModule(ModuleOutput, "output.go", func(f *jen.File) error {
		output := p.Model.ExpectShape(p.Operation.Output)
		if err := gen.RenderStructure(ctx, f, output); err != nil {
			return err
		}
		bg, err := backend.BuilderGenerator(ctx, output)
		if err != nil {
			return err
		}
		if err := bg.Render(f); err != nil {
			return err
		}
		return backend.RenderGenerator(ctx, f, p.Stream, dir)
	})
}

// RunOption configures RunTestCase.
type RunOption func(*runConfig)

type runConfig struct {
	logger      *zap.Logger
	commands    [][]string
	recorder    *Recorder
	projectOpts []ProjectOption
}

// WithRunLogger sets the run logger.
func WithRunLogger(l *zap.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithCommands replaces the default verification command pipeline.
func WithCommands(commands [][]string) RunOption {
	return func(c *runConfig) {
		c.commands = commands
	}
}

// WithRecorder records case results in the given recorder.
func WithRecorder(r *Recorder) RunOption {
	return func(c *runConfig) {
		c.recorder = r
	}
}

// WithProjectOptions forwards options to the generated workspace.
func WithProjectOptions(opts ...ProjectOption) RunOption {
	return func(c *runConfig) {
		c.projectOpts = append(c.projectOpts, opts...)
	}
}

// RunTestCase generates the project for one wire case, flushes it to
// disk, and drives the external verification commands against it. A
// failing command is a hard failure with the captured output attached;
// compilation failures are never retried.
func RunTestCase(ctx context.Context, tc WireCase, backend gen.Backend, mode gen.Mode, dir gen.Direction, opts ...RunOption) error {
	cfg := &runConfig{
		logger:   zap.NewNop(),
		commands: DefaultCommands(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	p, err := NewTestProject(tc, backend, mode, dir, cfg.projectOpts...)
	if err != nil {
		return err
	}
	if err := p.Project.Flush(ctx); err != nil {
		return err
	}
	cfg.logger.Info("generated project flushed",
		zap.String("case", tc.Name),
		zap.String("mode", mode.String()),
		zap.String("direction", dir.String()),
		zap.String("root", p.Project.Root()),
	)

	var output string
	var runErr error
	for _, argv := range cfg.commands {
		out, err := RunCommand(ctx, p.Project.Root(), cfg.logger, argv...)
		output += out
		if err != nil {
			runErr = err
			break
		}
	}

	if cfg.recorder != nil {
		result := CaseResult{
			Case:      tc.Name,
			Mode:      mode.String(),
			Direction: dir.String(),
			Protocol:  tc.Protocol.String(),
			Success:   runErr == nil,
			Output:    output,
			Duration:  time.Since(start),
		}
		// The build result is the signal; the ledger is bookkeeping.
		if err := cfg.recorder.Record(ctx, result); err != nil {
			cfg.logger.Warn("recording case result failed", zap.String("case", tc.Name), zap.Error(err))
		}
	}
	return runErr
}
