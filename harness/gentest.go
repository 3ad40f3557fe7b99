package harness

import (
	"fmt"
	"time"

	"github.com/dave/jennifer/jen"

	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/model"
)

// renderTests writes the direction-specific _test.go into the output
// module. The file drives the generated wire logic against the case's
// event fixtures, so the external `go test` run is the verdict on the
// generated code.
func (p *TestEventStreamProject) renderTests(ctx *gen.Context, tc WireCase, dir gen.Direction) error {
	switch dir {
	case gen.Marshall:
		return p.Project.WithModule(ModuleOutput, "marshall_test.go", func(f *jen.File) error {
			return p.renderMarshallTest(ctx, f, tc)
		})
	case gen.Unmarshall:
		return p.Project.WithModule(ModuleOutput, "unmarshall_test.go", func(f *jen.File) error {
			return p.renderUnmarshallTest(ctx, f, tc)
		})
	default:
		return gen.NewGenerationError("tests", p.Stream.ID, "unknown direction", nil)
	}
}

// renderMarshallTest emits one block per fixture event: marshal it,
// assert the event-type header, and assert the frame survives a binary
// encode/decode round trip.
func (p *TestEventStreamProject) renderMarshallTest(ctx *gen.Context, f *jen.File, tc WireCase) error {
	name := p.Resolver.StructName(p.Stream)
	var blocks []jen.Code
	for i, ev := range tc.Events {
		label := fmt.Sprintf("event %d (%s)", i, ev.Member)
		lit, err := p.eventLiteral(ctx, ev)
		if err != nil {
			return err
		}
		blocks = append(blocks, jen.Block(
			jen.Id("ev").Op(":=").Add(lit),
			jen.List(jen.Id("frame"), jen.Err()).Op(":=").Id("Marshal"+name).Call(jen.Id("ev")),
			fatalIfErr(label+": marshal"),
			jen.If(
				jen.Id("got").Op(":=").Id("frame").Dot("EventType").Call(),
				jen.Id("got").Op("!=").Lit(ev.Member),
			).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit(label+": event type = %q, want %q"), jen.Id("got"), jen.Lit(ev.Member)),
			),
			jen.List(jen.Id("data"), jen.Err()).Op(":=").Qual(gen.WirePkg, "EncodeFrame").Call(jen.Id("frame")),
			fatalIfErr(label+": encode"),
			jen.List(jen.Id("decoded"), jen.Err()).Op(":=").Qual(gen.WirePkg, "DecodeFrame").Call(jen.Id("data")),
			fatalIfErr(label+": decode"),
			jen.If(jen.Op("!").Qual("reflect", "DeepEqual").Call(jen.Id("frame"), jen.Id("decoded"))).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit(label+": frame changed across encode/decode")),
			),
		))
	}
	f.Func().Id("TestMarshall"+name).
		Params(jen.Id("t").Op("*").Qual("testing", "T")).
		Block(blocks...)
	return nil
}

// renderUnmarshallTest emits one block per fixture event: assemble the
// frame the marshalling side would have produced, unmarshal it, and
// assert structural equality with the expected event.
func (p *TestEventStreamProject) renderUnmarshallTest(ctx *gen.Context, f *jen.File, tc WireCase) error {
	name := p.Resolver.StructName(p.Stream)
	codec, err := gen.CodecExpr(tc.Protocol)
	if err != nil {
		return err
	}

	blocks := []jen.Code{jen.Id("codec").Op(":=").Add(codec)}
	for i, ev := range tc.Events {
		if ev.MarshallOnly {
			continue
		}
		label := fmt.Sprintf("event %d (%s)", i, ev.Member)
		lit, err := p.eventLiteral(ctx, ev)
		if err != nil {
			return err
		}
		blocks = append(blocks, jen.Block(
			jen.Id("want").Op(":=").Add(lit),
			jen.List(jen.Id("payload"), jen.Err()).Op(":=").Id("codec").Dot("Marshal").Call(jen.Id("want").Dot("Value")),
			fatalIfErr(label+": marshal payload"),
			jen.Id("frame").Op(":=").Op("&").Qual(gen.WirePkg, "Frame").Values(jen.Dict{
				jen.Id("Headers"): jen.Index().Qual(gen.WirePkg, "Header").Values(
					headerLit(gen.WirePkg, "HeaderMessageType", jen.Qual(gen.WirePkg, "MessageTypeEvent")),
					headerLit(gen.WirePkg, "HeaderEventType", jen.Lit(ev.Member)),
					headerLit(gen.WirePkg, "HeaderContentType", jen.Id("codec").Dot("ContentType").Call()),
				),
				jen.Id("Payload"): jen.Id("payload"),
			}),
			jen.List(jen.Id("got"), jen.Err()).Op(":=").Id("Unmarshal"+name).Call(jen.Id("frame")),
			fatalIfErr(label+": unmarshal"),
			jen.If(jen.Op("!").Qual("reflect", "DeepEqual").Call(jen.Id("got"), jen.Id("want"))).Block(
				jen.Id("t").Dot("Fatalf").Call(jen.Lit(label+": event = %#v, want %#v"), jen.Id("got"), jen.Id("want")),
			),
		))
	}
	f.Func().Id("TestUnmarshall"+name).
		Params(jen.Id("t").Op("*").Qual("testing", "T")).
		Block(blocks...)
	return nil
}

// eventLiteral returns the expression constructing the variant value for
// one event fixture.
func (p *TestEventStreamProject) eventLiteral(ctx *gen.Context, ev EventFixture) (jen.Code, error) {
	member, target, err := p.streamVariant(ev.Member)
	if err != nil {
		return nil, err
	}
	variant := p.Resolver.VariantName(p.Stream, member)
	value, err := p.payloadLiteral(ctx, target, ev)
	if err != nil {
		return nil, err
	}
	return jen.Op("&").Add(ctx.NamedType(variant)).Values(jen.Dict{jen.Id("Value"): value}), nil
}

// payloadLiteral constructs the payload value for one variant target.
// Union targets recurse once into the member UnionMember selects.
func (p *TestEventStreamProject) payloadLiteral(ctx *gen.Context, target *model.Shape, ev EventFixture) (jen.Code, error) {
	switch target.Kind {
	case model.KindString:
		return jen.Lit(ev.StringValue), nil
	case model.KindStructure:
		dict := jen.Dict{}
		for _, m := range p.Model.Members(target) {
			v, ok := ev.StructFields[m.ID.Member()]
			if !ok {
				continue
			}
			dict[jen.Id(p.Resolver.MemberName(m))] = fieldLiteral(v)
		}
		return ctx.NamedType(p.Resolver.StructName(target)).Values(dict), nil
	case model.KindUnion:
		for _, m := range p.Model.Members(target) {
			if m.ID.Member() != ev.UnionMember {
				continue
			}
			inner, err := p.payloadLiteral(ctx, p.Model.ExpectShape(m.MemberTarget), ev)
			if err != nil {
				return nil, err
			}
			variant := p.Resolver.VariantName(target, m)
			return jen.Op("&").Add(ctx.NamedType(variant)).Values(jen.Dict{jen.Id("Value"): inner}), nil
		}
		return nil, gen.NewGenerationError("tests", target.ID, fmt.Sprintf("no union member named %q", ev.UnionMember), nil)
	default:
		return nil, gen.NewUnsupportedShapeError(target, "event fixture")
	}
}

// fieldLiteral renders one structure field value. Byte slices and
// timestamps need explicit constructor expressions; everything else is a
// plain literal.
func fieldLiteral(v any) jen.Code {
	switch val := v.(type) {
	case []byte:
		return jen.Index().Byte().Parens(jen.Lit(string(val)))
	case time.Time:
		lit := jen.Qual("time", "Unix").Call(jen.Lit(val.Unix()), jen.Lit(int64(val.Nanosecond())))
		if val.Location() == time.UTC {
			lit = lit.Dot("UTC").Call()
		}
		return lit
	default:
		return jen.Lit(v)
	}
}

// streamVariant resolves a stream union member by its wire name.
func (p *TestEventStreamProject) streamVariant(name string) (member, target *model.Shape, err error) {
	for _, m := range p.Model.Members(p.Stream) {
		if m.ID.Member() == name {
			return m, p.Model.ExpectShape(m.MemberTarget), nil
		}
	}
	return nil, nil, gen.NewGenerationError("tests", p.Stream.ID, fmt.Sprintf("no stream variant named %q", name), nil)
}

func headerLit(pkg, nameConst string, value jen.Code) jen.Code {
	return jen.Values(jen.Dict{
		jen.Id("Name"):  jen.Qual(pkg, nameConst),
		jen.Id("Value"): jen.Qual(pkg, "StringValue").Call(value),
	})
}

func fatalIfErr(label string) jen.Code {
	return jen.If(jen.Err().Op("!=").Nil()).Block(
		jen.Id("t").Dot("Fatalf").Call(jen.Lit(label+": %v"), jen.Err()),
	)
}
