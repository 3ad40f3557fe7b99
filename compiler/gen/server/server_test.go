package server

import (
	"reflect"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/compiler/gen"
	"github.com/skellig/stencil/fixture"
	"github.com/skellig/stencil/model"
	"github.com/skellig/stencil/model/transform"
)

func newTestContext(t *testing.T, settings stencil.Settings) (*Backend, *gen.Context) {
	t.Helper()
	b, err := New()
	require.NoError(t, err)
	m, err := fixture.Constrained()
	require.NoError(t, err)
	ctx := newContextFor(t, b, m, settings)
	return b, ctx
}

// The constrained fixture has no service; tests attach a minimal one so
// CreateContext has something to resolve.
func newContextFor(t *testing.T, b *Backend, m *model.Model, settings stencil.Settings) *gen.Context {
	t.Helper()
	svc := &model.Shape{
		ID:     "test#AnalysisService",
		Kind:   model.KindService,
		Traits: model.Traits{model.ProtocolTrait{Protocol: model.ProtocolRestJSON}},
	}
	if _, ok := m.Shape(svc.ID); !ok {
		require.NoError(t, m.Add(svc))
	}
	ctx, err := b.CreateContext(m, svc.ID, settings)
	require.NoError(t, err)
	return ctx
}

func TestCreateContextRejectsMissingService(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)

	_, err = b.CreateContext(m, "test#Missing", nil)
	require.Error(t, err)
	assert.True(t, stencil.IsNotFoundError(err))
	assert.ErrorIs(t, err, stencil.ErrNotFound)
}

func TestCreateContextLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b, err := New(gen.WithLogger(zap.New(core)))
	require.NoError(t, err)
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)

	_, err = b.CreateContext(m, fixture.ServiceID, nil)
	require.NoError(t, err)

	entries := logs.FilterMessage("created generation context").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(fixture.ServiceID), fields["service"])
	assert.Equal(t, "server", fields["mode"])
}

func TestBuilderFallibility(t *testing.T) {
	b, ctx := newTestContext(t, nil)

	// StructureA has a required member: fallible.
	fallible, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#StructureA"))
	require.NoError(t, err)
	assert.True(t, fallible.Fallible())

	// RecursiveShape reaches nothing constrained: infallible even on the
	// server.
	infallible, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#RecursiveShape"))
	require.NoError(t, err)
	assert.False(t, infallible.Fallible())

	// DefaultOnly: a default is not a constraint.
	defaulted, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#DefaultOnly"))
	require.NoError(t, err)
	assert.False(t, defaulted.Fallible())
}

func TestFallibleBuilderRender(t *testing.T) {
	b, ctx := newTestContext(t, nil)
	bg, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#StructureA"))
	require.NoError(t, err)

	f := jen.NewFile("models")
	require.NoError(t, bg.Render(f))
	code := f.GoString()
	assert.Contains(t, code, "type StructureABuilder struct")
	assert.Contains(t, code, "func (b *StructureABuilder) Build() (StructureA, error)")
	assert.Contains(t, code, "missing required member s")
	// The lone-range int member produces no validation.
	assert.NotContains(t, code, "missing required member int")
}

func TestInfallibleBuilderRender(t *testing.T) {
	b, ctx := newTestContext(t, nil)
	bg, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#RecursiveShape"))
	require.NoError(t, err)

	f := jen.NewFile("models")
	require.NoError(t, bg.Render(f))
	code := f.GoString()
	assert.Contains(t, code, "func (b *RecursiveShapeBuilder) Build() RecursiveShape")
}

func TestRenderConstrainedTypePrivate(t *testing.T) {
	b, ctx := newTestContext(t, nil)
	f := jen.NewFile("models")
	require.NoError(t, b.RenderConstrainedType(ctx, f, ctx.Model.ExpectShape("test#LengthString")))
	code := f.GoString()
	assert.Contains(t, code, "type constrainedLengthString string")
	assert.Contains(t, code, "func NewConstrainedLengthString(v string) (constrainedLengthString, error)")
	assert.Contains(t, code, "shorter than minimum length")
	assert.Contains(t, code, "longer than maximum length")
}

func TestRenderConstrainedTypePublic(t *testing.T) {
	settings := stencil.CodegenSettings(stencil.WithPublicConstrainedTypes(true))
	b, ctx := newTestContext(t, settings)
	f := jen.NewFile("models")
	require.NoError(t, b.RenderConstrainedType(ctx, f, ctx.Model.ExpectShape("test#PatternString")))
	code := f.GoString()
	assert.Contains(t, code, "type PatternString string")
	assert.Contains(t, code, "regexp.MustCompile")
}

func TestRenderConstrainedTypeRejectsUnconstrained(t *testing.T) {
	b, ctx := newTestContext(t, nil)
	err := b.RenderConstrainedType(ctx, jen.NewFile("models"), ctx.Model.ExpectShape("test#MapB"))
	require.Error(t, err)
	assert.True(t, gen.IsValidationError(err))
}

func TestDebugCommentsSetting(t *testing.T) {
	settings := stencil.CodegenSettings(stencil.WithDebugComments(true))
	b, ctx := newTestContext(t, settings)
	bg, err := b.BuilderGenerator(ctx, ctx.Model.ExpectShape("test#StructureA"))
	require.NoError(t, err)

	f := jen.NewFile("models")
	require.NoError(t, bg.Render(f))
	assert.Contains(t, f.GoString(), "fallible=true")
}

func TestRenderOperationErrorWithFault(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)
	ctx, err := b.CreateContext(m, fixture.ServiceID, nil)
	require.NoError(t, err)

	f := jen.NewFile("errors")
	require.NoError(t, b.RenderOperationError(ctx, f, ctx.Model.ExpectShape("test#SomeError")))
	code := f.GoString()
	assert.Contains(t, code, "func (e *SomeError) Fault() string")
	assert.Contains(t, code, `"client"`)
}

func TestRequiredInterfaceMemberCheck(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	m, err := fixture.EventStream(model.ProtocolRestJSON)
	require.NoError(t, err)
	m = transform.NormalizeOperations(m)
	m = transform.NormalizeEventStreams(m)
	ctx, err := b.CreateContext(m, fixture.ServiceID, nil)
	require.NoError(t, err)

	// The canonical output structure holds a required member whose Go
	// type is an interface (the stream union). The required check must
	// reflect over the field's address: reflect.ValueOf on a nil
	// interface yields the invalid zero Value, which IsZero panics on.
	bg, err := b.BuilderGenerator(ctx, m.ExpectShape("test#TestStreamOpOutput"))
	require.NoError(t, err)
	require.True(t, bg.Fallible())

	f := jen.NewFile("output")
	require.NoError(t, bg.Render(f))
	code := f.GoString()
	assert.Contains(t, code, "reflect.ValueOf(&b.vValue).Elem().IsZero()")
	assert.NotContains(t, code, "reflect.ValueOf(b.vValue)")

	var unset error
	assert.False(t, reflect.ValueOf(unset).IsValid())
	assert.True(t, reflect.ValueOf(&unset).Elem().IsZero())
	unset = stencil.ErrNotFound
	assert.False(t, reflect.ValueOf(&unset).Elem().IsZero())
}

func TestUniqueItemsValidation(t *testing.T) {
	b, ctx := newTestContext(t, nil)

	// A structure holding a required unique list member exercises both
	// the required check and the uniqueItems loop.
	m := ctx.Model
	require.NoError(t, m.Add(&model.Shape{
		ID: "test#Holder", Kind: model.KindStructure,
		Members: []model.ShapeID{"test#Holder$items"},
	}))
	require.NoError(t, m.Add(&model.Shape{
		ID: "test#Holder$items", Kind: model.KindMember,
		Traits:       model.Traits{model.RequiredTrait{}},
		MemberTarget: "test#UniqueList",
	}))

	bg, err := b.BuilderGenerator(ctx, m.ExpectShape("test#Holder"))
	require.NoError(t, err)
	require.True(t, bg.Fallible())

	f := jen.NewFile("models")
	require.NoError(t, bg.Render(f))
	code := f.GoString()
	assert.Contains(t, code, "duplicate element")
	assert.Contains(t, code, "missing required member items")
}
