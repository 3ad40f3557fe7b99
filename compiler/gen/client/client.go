// Package client implements the client-mode code generation backend.
// Client builders are infallible: the client trusts the server to enforce
// constraints, so Build returns the value directly and no validating
// wrappers are emitted.
package client

import (
	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/model"
)

// Backend is the client-mode backend.
type Backend struct {
	cfg *gen.Config
}

// New returns a client backend with the given options applied on top of
// client mode.
func New(opts ...gen.Option) (*Backend, error) {
	cfg, err := gen.NewConfig(append([]gen.Option{gen.WithMode(gen.ModeClient)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if cfg.Mode != gen.ModeClient {
		return nil, gen.NewConfigError("Mode", cfg.Mode.String(), "client backend requires client mode")
	}
	return &Backend{cfg: cfg}, nil
}

// Mode implements gen.Backend.
func (b *Backend) Mode() gen.Mode {
	return gen.ModeClient
}

// CreateContext implements gen.Backend.
func (b *Backend) CreateContext(m *model.Model, service model.ShapeID, settings stencil.Settings) (*gen.Context, error) {
	svc, ok := m.Shape(service)
	if !ok {
		return nil, stencil.NewNotFoundErrorWithID("service", service)
	}
	if svc.Kind != model.KindService {
		return nil, gen.NewValidationError(service, "shape is not a service", nil)
	}
	cfg := *b.cfg
	cfg.Settings = b.cfg.Settings.Merge(settings)
	b.cfg.Logger.Debug("created generation context",
		zap.String("service", string(service)),
		zap.Stringer("mode", gen.ModeClient),
	)
	return &gen.Context{
		Model:    m,
		Service:  svc,
		Resolver: gen.NewSymbolResolver(&cfg),
		Settings: cfg.Settings,
	}, nil
}

// BuilderGenerator implements gen.Backend.
func (b *Backend) BuilderGenerator(ctx *gen.Context, s *model.Shape) (gen.BuilderGenerator, error) {
	if s.Kind != model.KindStructure {
		return nil, gen.NewUnsupportedShapeError(s, "client builder")
	}
	return &builderGenerator{ctx: ctx, shape: s}, nil
}

// RenderGenerator implements gen.Backend.
func (b *Backend) RenderGenerator(ctx *gen.Context, f *jen.File, stream *model.Shape, dir gen.Direction) error {
	return gen.RenderStreamCodec(ctx, f, stream, dir)
}

// RenderOperationError implements gen.Backend. Client error types carry
// the message only; the fault kind is a server-side concern.
func (b *Backend) RenderOperationError(ctx *gen.Context, f *jen.File, errShape *model.Shape) error {
	if _, ok := model.TraitOf[model.ErrorTrait](errShape); !ok {
		return gen.NewValidationError(errShape.ID, "shape has no error trait", nil)
	}
	name := ctx.Resolver.StructName(errShape)
	f.Commentf("%s is the client representation of the %s operation error.", name, errShape.ID)
	f.Type().Id(name).Struct(
		jen.Id("Message").String().Tag(map[string]string{"json": "message", "xml": "message", "msgpack": "message"}),
	)
	f.Func().Params(jen.Id("e").Op("*").Id(name)).Id("Error").Params().String().Block(
		jen.Return(jen.Lit(name + ": ").Op("+").Id("e").Dot("Message")),
	)
	return nil
}

// builderGenerator renders one infallible client builder.
type builderGenerator struct {
	ctx   *gen.Context
	shape *model.Shape
}

// Fallible implements gen.BuilderGenerator.
func (g *builderGenerator) Fallible() bool {
	return false
}

// Render implements gen.BuilderGenerator.
func (g *builderGenerator) Render(f *jen.File) error {
	ctx := g.ctx
	name := ctx.Resolver.StructName(g.shape)
	builder := ctx.Resolver.BuilderName(g.shape)
	members := ctx.Model.Members(g.shape)

	fields := make([]jen.Code, 0, len(members))
	for _, member := range members {
		target := ctx.Model.ExpectShape(member.MemberTarget)
		typ, err := gen.GoType(ctx, target)
		if err != nil {
			return err
		}
		fields = append(fields, jen.Id(fieldName(ctx, member)).Add(typ))
	}

	f.Commentf("%s assembles a %s.", builder, name)
	f.Type().Id(builder).Struct(fields...)

	f.Commentf("New%s returns an empty builder.", builder)
	f.Func().Id("New"+builder).Params().Op("*").Id(builder).Block(
		jen.Return(jen.Op("&").Id(builder).Values()),
	)

	for _, member := range members {
		target := ctx.Model.ExpectShape(member.MemberTarget)
		typ, err := gen.GoType(ctx, target)
		if err != nil {
			return err
		}
		setter := "Set" + ctx.Resolver.MemberName(member)
		f.Func().Params(jen.Id("b").Op("*").Id(builder)).Id(setter).
			Params(jen.Id("v").Add(typ)).
			Op("*").Id(builder).
			Block(
				jen.Id("b").Dot(fieldName(ctx, member)).Op("=").Id("v"),
				jen.Return(jen.Id("b")),
			)
	}

	assignments := jen.Dict{}
	for _, member := range members {
		assignments[jen.Id(ctx.Resolver.MemberName(member))] = jen.Id("b").Dot(fieldName(ctx, member))
	}
	f.Commentf("Build returns the assembled %s.", name)
	f.Func().Params(jen.Id("b").Op("*").Id(builder)).Id("Build").Params().Id(name).Block(
		jen.Return(jen.Id(name).Values(assignments)),
	)
	return nil
}

// fieldName returns the unexported builder field for a member.
func fieldName(ctx *gen.Context, member *model.Shape) string {
	name := ctx.Resolver.MemberName(member)
	return "v" + name
}
