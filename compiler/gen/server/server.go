// Package server implements the server-mode code generation backend.
// Servers own constraint enforcement: builders for structures that can
// reach a constrained shape are fallible, constrained shapes get
// validating wrapper types, and operation errors carry their fault kind.
package server

import (
	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/model"
)

// Backend is the server-mode backend.
type Backend struct {
	cfg *gen.Config
}

// New returns a server backend with the given options applied on top of
// server mode.
func New(opts ...gen.Option) (*Backend, error) {
	cfg, err := gen.NewConfig(append([]gen.Option{gen.WithMode(gen.ModeServer)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if cfg.Mode != gen.ModeServer {
		return nil, gen.NewConfigError("Mode", cfg.Mode.String(), "server backend requires server mode")
	}
	return &Backend{cfg: cfg}, nil
}

// Mode implements gen.Backend.
func (b *Backend) Mode() gen.Mode {
	return gen.ModeServer
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
		zap.Stringer("mode", gen.ModeServer),
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
		return nil, gen.NewUnsupportedShapeError(s, "server builder")
	}
	return &builderGenerator{
		ctx:      ctx,
		shape:    s,
		fallible: gen.CanReachConstrainedShape(ctx.Model, s, ctx.Resolver),
	}, nil
}

// RenderGenerator implements gen.Backend.
func (b *Backend) RenderGenerator(ctx *gen.Context, f *jen.File, stream *model.Shape, dir gen.Direction) error {
	return gen.RenderStreamCodec(ctx, f, stream, dir)
}

// RenderOperationError implements gen.Backend. Server error types expose
// the fault kind alongside the message.
func (b *Backend) RenderOperationError(ctx *gen.Context, f *jen.File, errShape *model.Shape) error {
	et, ok := model.TraitOf[model.ErrorTrait](errShape)
	if !ok {
		return gen.NewValidationError(errShape.ID, "shape has no error trait", nil)
	}
	name := ctx.Resolver.StructName(errShape)
	f.Commentf("%s is the server representation of the %s operation error.", name, errShape.ID)
	f.Type().Id(name).Struct(
		jen.Id("Message").String().Tag(map[string]string{"json": "message", "xml": "message", "msgpack": "message"}),
	)
	f.Func().Params(jen.Id("e").Op("*").Id(name)).Id("Error").Params().String().Block(
		jen.Return(jen.Lit(name + ": ").Op("+").Id("e").Dot("Message")),
	)
	f.Comment("Fault reports which side is at fault for this error.")
	f.Func().Params(jen.Id("e").Op("*").Id(name)).Id("Fault").Params().String().Block(
		jen.Return(jen.Lit(et.Fault)),
	)
	return nil
}

// RenderConstrainedType implements gen.ConstrainedTypeGenerator: a defined
// type over the base representation plus a validating constructor. The
// wrapper name is exported only when public-constrained-types-enabled is
// set.
func (b *Backend) RenderConstrainedType(ctx *gen.Context, f *jen.File, s *model.Shape) error {
	if !ctx.Resolver.IsDirectlyConstrained(s) {
		return gen.NewValidationError(s.ID, "shape is not directly constrained", nil)
	}
	base, err := gen.GoType(ctx, s)
	if err != nil {
		return err
	}
	name := wrapperName(ctx, s)
	if debugComments(ctx) {
		f.Commentf("%s: constrained by %s.", name, describeConstraints(s))
	}
	f.Type().Id(name).Add(base)

	checks := constraintChecks(s, jen.Id("v"), name, func() jen.Code { return jen.Id("zero") })
	var body []jen.Code
	if len(checks) > 0 {
		body = append(body, jen.Var().Id("zero").Id(name))
		body = append(body, checks...)
	}
	body = append(body, jen.Return(jen.Id(name).Call(jen.Id("v")), jen.Nil()))
	f.Func().Id("New"+exported(name)).
		Params(jen.Id("v").Add(base)).
		Params(jen.Id(name), jen.Error()).
		Block(body...)
	return nil
}

func wrapperName(ctx *gen.Context, s *model.Shape) string {
	name := ctx.Resolver.StructName(s)
	if ctx.Settings.Codegen().Bool(stencil.PublicConstrainedTypesKey) {
		return name
	}
	return "constrained" + name
}

func exported(name string) string {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return name
	}
	return string(name[0]-'a'+'A') + name[1:]
}

// builderGenerator renders one server builder. Builders are fallible when
// their structure can reach a constrained shape (required members
// included); otherwise Build returns the value alone, exactly like the
// client's.
type builderGenerator struct {
	ctx      *gen.Context
	shape    *model.Shape
	fallible bool
}

// Fallible implements gen.BuilderGenerator.
func (g *builderGenerator) Fallible() bool {
	return g.fallible
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

	if debugComments(ctx) {
		f.Commentf("%s: fallible=%t for %s.", builder, g.fallible, g.shape.ID)
	}
	f.Commentf("%s assembles a validated %s.", builder, name)
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

	return g.renderBuild(f, name, builder, members)
}

func (g *builderGenerator) renderBuild(f *jen.File, name, builder string, members []*model.Shape) error {
	ctx := g.ctx
	assignments := jen.Dict{}
	for _, member := range members {
		assignments[jen.Id(ctx.Resolver.MemberName(member))] = jen.Id("b").Dot(fieldName(ctx, member))
	}

	if !g.fallible {
		f.Commentf("Build returns the assembled %s.", name)
		f.Func().Params(jen.Id("b").Op("*").Id(builder)).Id("Build").Params().Id(name).Block(
			jen.Return(jen.Id(name).Values(assignments)),
		)
		return nil
	}

	var body []jen.Code
	zero := func() jen.Code { return jen.Id(name).Values() }
	for _, member := range members {
		field := jen.Id("b").Dot(fieldName(ctx, member))
		if member.Traits.Has(model.TraitRequired) {
			// Reflect over the field's address: an unset interface member
			// reflects as the invalid zero Value, which IsZero panics on.
			body = append(body, jen.If(
				jen.Qual("reflect", "ValueOf").Call(jen.Op("&").Add(jen.Id("b").Dot(fieldName(ctx, member)))).Dot("Elem").Call().Dot("IsZero").Call(),
			).Block(
				jen.Return(zero(), jen.Qual("fmt", "Errorf").Call(
					jen.Lit(name+": missing required member "+member.ID.Member()),
				)),
			))
		}
		target := ctx.Model.ExpectShape(member.MemberTarget)
		if ctx.Resolver.IsDirectlyConstrained(target) {
			body = append(body, constraintChecks(target, field, name, zero)...)
		}
	}
	body = append(body, jen.Return(jen.Id(name).Values(assignments), jen.Nil()))

	f.Commentf("Build validates and returns the assembled %s.", name)
	f.Func().Params(jen.Id("b").Op("*").Id(builder)).Id("Build").
		Params().
		Params(jen.Id(name), jen.Error()).
		Block(body...)
	return nil
}

// constraintChecks renders the validation statements for one constrained
// shape applied to the expression value. Each failed check returns the
// zero expression plus an error.
func constraintChecks(s *model.Shape, value jen.Code, context string, zero func() jen.Code) []jen.Code {
	var checks []jen.Code
	if lt, ok := model.TraitOf[model.LengthTrait](s); ok {
		if lt.Min != nil {
			checks = append(checks, jen.If(
				jen.Len(value).Op("<").Lit(int(*lt.Min)),
			).Block(
				jen.Return(zero(), jen.Qual("fmt", "Errorf").Call(
					jen.Lit(context+": "+s.ID.Name()+" shorter than minimum length %d"), jen.Lit(int(*lt.Min)),
				)),
			))
		}
		if lt.Max != nil {
			checks = append(checks, jen.If(
				jen.Len(value).Op(">").Lit(int(*lt.Max)),
			).Block(
				jen.Return(zero(), jen.Qual("fmt", "Errorf").Call(
					jen.Lit(context+": "+s.ID.Name()+" longer than maximum length %d"), jen.Lit(int(*lt.Max)),
				)),
			))
		}
	}
	if pt, ok := model.TraitOf[model.PatternTrait](s); ok {
		checks = append(checks, jen.If(
			jen.Op("!").Qual("regexp", "MustCompile").Call(jen.Lit(pt.Expr)).Dot("MatchString").Call(jen.String().Call(value)),
		).Block(
			jen.Return(zero(), jen.Qual("fmt", "Errorf").Call(
				jen.Lit(context+": "+s.ID.Name()+" does not match %q"), jen.Lit(pt.Expr),
			)),
		))
	}
	if s.Traits.Has(model.TraitUniqueItems) {
		checks = append(checks, jen.Block(
			jen.Id("seen").Op(":=").Make(jen.Map(jen.String()).Struct()),
			jen.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Add(value)).Block(
				jen.Id("k").Op(":=").Qual("fmt", "Sprint").Call(jen.Id("item")),
				jen.If(jen.List(jen.Id("_"), jen.Id("dup")).Op(":=").Id("seen").Index(jen.Id("k")), jen.Id("dup")).Block(
					jen.Return(zero(), jen.Qual("fmt", "Errorf").Call(
						jen.Lit(context+": "+s.ID.Name()+" contains duplicate element %v"), jen.Id("item"),
					)),
				),
				jen.Id("seen").Index(jen.Id("k")).Op("=").Struct().Values(),
			),
		))
	}
	return checks
}

func debugComments(ctx *gen.Context) bool {
	return ctx.Settings.Codegen().Bool(stencil.DebugCommentsKey)
}

func describeConstraints(s *model.Shape) string {
	var parts []string
	for _, t := range s.Traits {
		switch t.ID() {
		case model.TraitLength, model.TraitRange, model.TraitPattern, model.TraitUniqueItems:
			parts = append(parts, t.ID().String())
		}
	}
	if len(parts) == 0 {
		return "no constraint traits"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// fieldName returns the unexported builder field for a member.
func fieldName(ctx *gen.Context, member *model.Shape) string {
	return "v" + ctx.Resolver.MemberName(member)
}
