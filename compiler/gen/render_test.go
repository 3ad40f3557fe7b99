package gen

import (
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellig/stencil/fixture"
	"github.com/skellig/stencil/model"
)

func newRenderContext(t *testing.T, proto model.ShapeID) *Context {
	t.Helper()
	m, err := fixture.EventStream(proto)
	require.NoError(t, err)
	return &Context{
		Model:    m,
		Service:  m.ExpectShape(fixture.ServiceID),
		Resolver: newTestResolver(t),
	}
}

func TestGoType(t *testing.T) {
	ctx := newRenderContext(t, model.ProtocolRestJSON)
	tests := []struct {
		id   model.ShapeID
		want string
	}{
		{"stencil.api#String", "string"},
		{"stencil.api#Boolean", "bool"},
		{"stencil.api#Integer", "int32"},
		{"stencil.api#Long", "int64"},
		{"stencil.api#Blob", "[]byte"},
		{"stencil.api#Timestamp", "time.Time"},
		{"test#TestStruct", "TestStruct"},
		{"test#TestStream", "TestStream"},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			code, err := GoType(ctx, ctx.Model.ExpectShape(tt.id))
			require.NoError(t, err)
			assert.Equal(t, tt.want, jen.Add(code).GoString())
		})
	}
}

func TestGoTypeQualifiesWithModulePath(t *testing.T) {
	ctx := newRenderContext(t, model.ProtocolRestJSON)
	ctx.ModulePath = "stencil.test/demo"

	code, err := GoType(ctx, ctx.Model.ExpectShape("test#TestStruct"))
	require.NoError(t, err)
	assert.Contains(t, jen.Add(code).GoString(), "model.TestStruct")
}

func TestGoTypeRejectsServiceShape(t *testing.T) {
	ctx := newRenderContext(t, model.ProtocolRestJSON)
	_, err := GoType(ctx, ctx.Model.ExpectShape(fixture.ServiceID))
	require.Error(t, err)
	assert.True(t, IsUnsupportedShapeError(err))
}

func TestRenderStructure(t *testing.T) {
	ctx := newRenderContext(t, model.ProtocolRestJSON)
	f := jen.NewFile("model")
	require.NoError(t, RenderStructure(ctx, f, ctx.Model.ExpectShape("test#TestStruct")))

	code := f.GoString()
	assert.Contains(t, code, "type TestStruct struct")
	assert.Contains(t, code, "SomeString string")
	assert.Contains(t, code, "SomeInt int32")
	// Wire names are shared across every payload codec.
	assert.Contains(t, code, `json:"someString"`)
	assert.Contains(t, code, `xml:"someString"`)
	assert.Contains(t, code, `msgpack:"someString"`)
}

func TestRenderUnion(t *testing.T) {
	ctx := newRenderContext(t, model.ProtocolRestJSON)
	f := jen.NewFile("model")
	require.NoError(t, RenderUnion(ctx, f, ctx.Model.ExpectShape(fixture.StreamID)))

	code := f.GoString()
	assert.Contains(t, code, "type TestStream interface")
	assert.Contains(t, code, "isTestStream()")
	assert.Contains(t, code, "type TestStreamMessageWithString struct")
	assert.Contains(t, code, "Value string")
	assert.Contains(t, code, "func (*TestStreamMessageWithString) isTestStream()")
}

func TestRenderStreamCodec(t *testing.T) {
	for _, proto := range model.KnownProtocols() {
		t.Run(proto.Name(), func(t *testing.T) {
			ctx := newRenderContext(t, proto)
			stream := ctx.Model.ExpectShape(fixture.StreamID)

			f := jen.NewFile("output")
			require.NoError(t, RenderStreamCodec(ctx, f, stream, Marshall))
			code := f.GoString()
			assert.Contains(t, code, "func MarshalTestStream(ev TestStream)")
			assert.Contains(t, code, "HeaderEventType")

			f = jen.NewFile("output")
			require.NoError(t, RenderStreamCodec(ctx, f, stream, Unmarshall))
			code = f.GoString()
			assert.Contains(t, code, "func UnmarshalTestStream(frame *wire.Frame)")
			assert.Contains(t, code, `case "messageWithStruct":`)
		})
	}
}

func TestCodecExpr(t *testing.T) {
	for _, proto := range model.KnownProtocols() {
		code, err := CodecExpr(proto)
		require.NoError(t, err)
		assert.NotNil(t, code)
	}
	_, err := CodecExpr("test#bogus")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
