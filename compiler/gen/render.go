package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/skellig/stencil/model"
)

// WirePkg is the import path of the frame runtime generated code links
// against.
const WirePkg = "github.com/skellig/stencil/wire"

// GoType returns the Go type expression for a shape. Structures and unions
// resolve to their named generated types; aggregates recurse into their
// member targets with a visited set, so a cyclic anonymous aggregate is an
// UnsupportedShapeError rather than unbounded recursion.
func GoType(ctx *Context, s *model.Shape) (jen.Code, error) {
	return goType(ctx, s, make(map[model.ShapeID]struct{}))
}

func goType(ctx *Context, s *model.Shape, visited map[model.ShapeID]struct{}) (jen.Code, error) {
	if _, seen := visited[s.ID]; seen {
		return nil, NewUnsupportedShapeError(s, "cyclic anonymous aggregate")
	}
	visited[s.ID] = struct{}{}

	switch s.Kind {
	case model.KindString:
		return jen.String(), nil
	case model.KindBoolean:
		return jen.Bool(), nil
	case model.KindInteger:
		return jen.Int32(), nil
	case model.KindLong:
		return jen.Int64(), nil
	case model.KindBlob:
		return jen.Index().Byte(), nil
	case model.KindTimestamp:
		return jen.Qual("time", "Time"), nil
	case model.KindStructure, model.KindUnion:
		return ctx.NamedType(ctx.Resolver.StructName(s)), nil
	case model.KindMember:
		return goType(ctx, ctx.Model.ExpectShape(s.MemberTarget), visited)
	case model.KindList:
		elem, err := memberType(ctx, s, "member", visited)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(elem), nil
	case model.KindMap:
		key, err := memberType(ctx, s, "key", visited)
		if err != nil {
			return nil, err
		}
		value, err := memberType(ctx, s, "value", visited)
		if err != nil {
			return nil, err
		}
		return jen.Map(key).Add(value), nil
	default:
		return nil, NewUnsupportedShapeError(s, "type mapping")
	}
}

func memberType(ctx *Context, s *model.Shape, member string, visited map[model.ShapeID]struct{}) (jen.Code, error) {
	return goType(ctx, ctx.Model.ExpectShape(s.ID.WithMember(member)), visited)
}

// RenderStructure renders the plain model struct for a structure shape.
// Fields carry json, xml, and msgpack tags named after the model member,
// so every payload codec agrees on the wire names.
func RenderStructure(ctx *Context, f *jen.File, s *model.Shape) error {
	name := ctx.Resolver.StructName(s)
	members := ctx.Model.Members(s)

	fields := make([]jen.Code, 0, len(members))
	for _, member := range members {
		target := ctx.Model.ExpectShape(member.MemberTarget)
		typ, err := GoType(ctx, target)
		if err != nil {
			return err
		}
		wireName := member.ID.Member()
		fields = append(fields, jen.Id(ctx.Resolver.MemberName(member)).Add(typ).Tag(map[string]string{
			"json":    wireName,
			"xml":     wireName,
			"msgpack": wireName,
		}))
	}
	f.Commentf("%s is the model type for %s.", name, s.ID)
	f.Type().Id(name).Struct(fields...)
	return nil
}

// RenderUnion renders a union as a sealed interface plus one variant
// struct per member. Variant structs hold the member's value under a
// single Value field.
func RenderUnion(ctx *Context, f *jen.File, union *model.Shape) error {
	name := ctx.Resolver.StructName(union)
	marker := "is" + name

	f.Commentf("%s is the tagged union for %s.", name, union.ID)
	f.Type().Id(name).Interface(jen.Id(marker).Params())

	for _, member := range ctx.Model.Members(union) {
		target := ctx.Model.ExpectShape(member.MemberTarget)
		typ, err := GoType(ctx, target)
		if err != nil {
			return err
		}
		variant := ctx.Resolver.VariantName(union, member)
		f.Commentf("%s is the %q variant of %s.", variant, member.ID.Member(), name)
		f.Type().Id(variant).Struct(jen.Id("Value").Add(typ))
		f.Func().Params(jen.Op("*").Id(variant)).Id(marker).Params().Block()
	}
	return nil
}

// RenderStreamCodec renders the direction-specific wire logic for an
// event stream union: Marshal<Union> for Marshall, Unmarshal<Union> for
// Unmarshall. Both halves dispatch over the variant set and delegate
// payload encoding to the protocol's codec from the wire runtime.
func RenderStreamCodec(ctx *Context, f *jen.File, stream *model.Shape, dir Direction) error {
	proto, err := ctx.Protocol()
	if err != nil {
		return err
	}
	codec, err := CodecExpr(proto)
	if err != nil {
		return err
	}
	switch dir {
	case Marshall:
		return renderMarshal(ctx, f, stream, codec)
	case Unmarshall:
		return renderUnmarshal(ctx, f, stream, codec)
	default:
		return NewGenerationError("generator", stream.ID, "unknown direction", nil)
	}
}

// CodecExpr returns the wire codec literal for a protocol, for callers
// assembling generated code around the stream logic.
func CodecExpr(proto model.ShapeID) (jen.Code, error) {
	switch proto {
	case model.ProtocolRestJSON:
		return jen.Qual(WirePkg, "JSONCodec").Values(), nil
	case model.ProtocolRestXML:
		return jen.Qual(WirePkg, "XMLCodec").Values(), nil
	case model.ProtocolRPCMsgpack:
		return jen.Qual(WirePkg, "MsgpackCodec").Values(), nil
	default:
		return nil, NewValidationError(proto, "no codec for protocol", nil)
	}
}

func renderMarshal(ctx *Context, f *jen.File, stream *model.Shape, codec jen.Code) error {
	name := ctx.Resolver.StructName(stream)
	cases := []jen.Code{}
	for _, member := range ctx.Model.Members(stream) {
		variant := ctx.Resolver.VariantName(stream, member)
		eventType := member.ID.Member()
		cases = append(cases, jen.Case(jen.Op("*").Add(ctx.NamedType(variant))).Block(
			jen.List(jen.Id("payload"), jen.Err()).Op(":=").Id("codec").Dot("Marshal").Call(jen.Id("v").Dot("Value")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(jen.Op("&").Qual(WirePkg, "Frame").Values(jen.Dict{
				jen.Id("Headers"): jen.Index().Qual(WirePkg, "Header").Values(
					headerLit(WirePkg, "HeaderMessageType", jen.Qual(WirePkg, "MessageTypeEvent")),
					headerLit(WirePkg, "HeaderEventType", jen.Lit(eventType)),
					headerLit(WirePkg, "HeaderContentType", jen.Id("codec").Dot("ContentType").Call()),
				),
				jen.Id("Payload"): jen.Id("payload"),
			}), jen.Nil()),
		))
	}
	cases = append(cases, jen.Default().Block(
		jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(jen.Lit("marshal "+name+": unknown event type %T"), jen.Id("ev"))),
	))

	f.Commentf("Marshal%s encodes one event into a wire frame.", name)
	f.Func().Id("Marshal"+name).
		Params(jen.Id("ev").Add(ctx.NamedType(name))).
		Params(jen.Op("*").Qual(WirePkg, "Frame"), jen.Error()).
		Block(
			jen.Id("codec").Op(":=").Add(codec),
			jen.Switch(jen.Id("v").Op(":=").Id("ev").Assert(jen.Type())).Block(cases...),
		)
	return nil
}

func headerLit(pkg, nameConst string, value jen.Code) jen.Code {
	return jen.Values(jen.Dict{
		jen.Id("Name"):  jen.Qual(pkg, nameConst),
		jen.Id("Value"): jen.Qual(pkg, "StringValue").Call(value),
	})
}

func renderUnmarshal(ctx *Context, f *jen.File, stream *model.Shape, codec jen.Code) error {
	name := ctx.Resolver.StructName(stream)
	cases := []jen.Code{}
	for _, member := range ctx.Model.Members(stream) {
		target := ctx.Model.ExpectShape(member.MemberTarget)
		typ, err := GoType(ctx, target)
		if err != nil {
			return err
		}
		variant := ctx.Resolver.VariantName(stream, member)
		cases = append(cases, jen.Case(jen.Lit(member.ID.Member())).Block(
			jen.Var().Id("value").Add(typ),
			jen.If(
				jen.Err().Op(":=").Id("codec").Dot("Unmarshal").Call(jen.Id("frame").Dot("Payload"), jen.Op("&").Id("value")),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(jen.Op("&").Add(ctx.NamedType(variant)).Values(jen.Dict{jen.Id("Value"): jen.Id("value")}), jen.Nil()),
		))
	}
	cases = append(cases, jen.Default().Block(
		jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(
			jen.Lit("unmarshal "+name+": unknown event type %q"),
			jen.Id("frame").Dot("EventType").Call(),
		)),
	))

	f.Commentf("Unmarshal%s decodes one wire frame into an event.", name)
	f.Func().Id("Unmarshal"+name).
		Params(jen.Id("frame").Op("*").Qual(WirePkg, "Frame")).
		Params(ctx.NamedType(name), jen.Error()).
		Block(
			jen.Id("codec").Op(":=").Add(codec),
			jen.Switch(jen.Id("frame").Dot("EventType").Call()).Block(cases...),
		)
	return nil
}
