package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellig/stencil/model"
)

func buildModel(t *testing.T, shapes ...*model.Shape) *model.Model {
	t.Helper()
	m := model.New()
	for _, s := range shapes {
		require.NoError(t, m.Add(s))
	}
	return m
}

func TestCanReachConstrainedShapeDirect(t *testing.T) {
	m := buildModel(t, &model.Shape{
		ID: "test#MapA", Kind: model.KindMap,
		Traits:  model.Traits{model.LengthTrait{Min: intPtr(1), Max: intPtr(69)}},
		Members: []model.ShapeID{"test#MapA$key", "test#MapA$value"},
	}, &model.Shape{
		ID: "test#MapA$key", Kind: model.KindMember, MemberTarget: "stencil.api#String",
	}, &model.Shape{
		ID: "test#MapA$value", Kind: model.KindMember, MemberTarget: "stencil.api#String",
	}, &model.Shape{
		ID: "stencil.api#String", Kind: model.KindString,
	})
	r := newTestResolver(t)
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#MapA"), r))
	assert.False(t, CanReachConstrainedShape(m, m.ExpectShape("stencil.api#String"), r))
}

// The sample scenario: MapA (length 1..69, value MapB), MapB (value
// StructureA), StructureA with a required string member and an int member
// carrying a lone range.
func TestCanReachConstrainedShapeSampleScenario(t *testing.T) {
	m := buildModel(t,
		&model.Shape{
			ID: "test#MapA", Kind: model.KindMap,
			Traits:  model.Traits{model.LengthTrait{Min: intPtr(1), Max: intPtr(69)}},
			Members: []model.ShapeID{"test#MapA$key", "test#MapA$value"},
		},
		&model.Shape{ID: "test#MapA$key", Kind: model.KindMember, MemberTarget: "stencil.api#String"},
		&model.Shape{ID: "test#MapA$value", Kind: model.KindMember, MemberTarget: "test#MapB"},
		&model.Shape{
			ID: "test#MapB", Kind: model.KindMap,
			Members: []model.ShapeID{"test#MapB$key", "test#MapB$value"},
		},
		&model.Shape{ID: "test#MapB$key", Kind: model.KindMember, MemberTarget: "stencil.api#String"},
		&model.Shape{ID: "test#MapB$value", Kind: model.KindMember, MemberTarget: "test#StructureA"},
		&model.Shape{
			ID: "test#StructureA", Kind: model.KindStructure,
			Members: []model.ShapeID{"test#StructureA$s", "test#StructureA$int"},
		},
		&model.Shape{
			ID: "test#StructureA$s", Kind: model.KindMember,
			Traits:       model.Traits{model.RequiredTrait{}},
			MemberTarget: "stencil.api#String",
		},
		&model.Shape{
			ID: "test#StructureA$int", Kind: model.KindMember,
			Traits:       model.Traits{model.RangeTrait{Min: floatPtr(0), Max: floatPtr(10)}},
			MemberTarget: "stencil.api#Integer",
		},
		&model.Shape{ID: "stencil.api#String", Kind: model.KindString},
		&model.Shape{ID: "stencil.api#Integer", Kind: model.KindInteger},
	)
	r := newTestResolver(t)

	// MapA directly, MapB through StructureA's required member.
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#MapA"), r))
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#MapB"), r))
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#StructureA"), r))

	// The lone range member is informational: neither directly
	// constrained nor a reachability source.
	intMember := m.ExpectShape("test#StructureA$int")
	assert.False(t, r.IsDirectlyConstrained(intMember))
	assert.False(t, CanReachConstrainedShape(m, intMember, r))
}

func TestCanReachConstrainedShapeSelfRecursive(t *testing.T) {
	// R's only path is through itself with no escape: must terminate
	// and report false.
	m := buildModel(t,
		&model.Shape{
			ID: "test#R", Kind: model.KindStructure,
			Members: []model.ShapeID{"test#R$self"},
		},
		&model.Shape{ID: "test#R$self", Kind: model.KindMember, MemberTarget: "test#R"},
	)
	r := newTestResolver(t)
	assert.False(t, CanReachConstrainedShape(m, m.ExpectShape("test#R"), r))
}

func TestCanReachConstrainedShapeMutualRecursion(t *testing.T) {
	m := buildModel(t,
		&model.Shape{ID: "test#A", Kind: model.KindStructure, Members: []model.ShapeID{"test#A$b"}},
		&model.Shape{ID: "test#A$b", Kind: model.KindMember, MemberTarget: "test#B"},
		&model.Shape{ID: "test#B", Kind: model.KindStructure, Members: []model.ShapeID{"test#B$a", "test#B$s"}},
		&model.Shape{ID: "test#B$a", Kind: model.KindMember, MemberTarget: "test#A"},
		&model.Shape{ID: "test#B$s", Kind: model.KindMember, MemberTarget: "test#LengthString"},
		&model.Shape{
			ID: "test#LengthString", Kind: model.KindString,
			Traits: model.Traits{model.LengthTrait{Max: intPtr(8)}},
		},
	)
	r := newTestResolver(t)
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#A"), r))
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#B"), r))
}

func TestCanReachConstrainedShapeThroughUnion(t *testing.T) {
	m := buildModel(t,
		&model.Shape{ID: "test#U", Kind: model.KindUnion, Members: []model.ShapeID{"test#U$v"}},
		&model.Shape{ID: "test#U$v", Kind: model.KindMember, MemberTarget: "test#PatternString"},
		&model.Shape{
			ID: "test#PatternString", Kind: model.KindString,
			Traits: model.Traits{model.PatternTrait{Expr: "^a"}},
		},
	)
	r := newTestResolver(t)
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#U"), r))
}

func TestCanReachConstrainedShapeDefaultOnly(t *testing.T) {
	// A structure whose only special trait anywhere is a default on one
	// member reports false.
	m := buildModel(t,
		&model.Shape{ID: "test#DefaultOnly", Kind: model.KindStructure, Members: []model.ShapeID{"test#DefaultOnly$n"}},
		&model.Shape{
			ID: "test#DefaultOnly$n", Kind: model.KindMember,
			Traits:       model.Traits{model.DefaultTrait{Value: float64(0)}},
			MemberTarget: "stencil.api#Integer",
		},
		&model.Shape{ID: "stencil.api#Integer", Kind: model.KindInteger},
	)
	r := newTestResolver(t)
	assert.False(t, CanReachConstrainedShape(m, m.ExpectShape("test#DefaultOnly"), r))
}

func TestCanReachConstrainedShapeRequiredMember(t *testing.T) {
	m := buildModel(t,
		&model.Shape{ID: "test#S", Kind: model.KindStructure, Members: []model.ShapeID{"test#S$a"}},
		&model.Shape{
			ID: "test#S$a", Kind: model.KindMember,
			Traits:       model.Traits{model.RequiredTrait{}},
			MemberTarget: "stencil.api#String",
		},
		&model.Shape{ID: "stencil.api#String", Kind: model.KindString},
		// A list whose element structure is S: reaches S, which has a
		// required member.
		&model.Shape{ID: "test#L", Kind: model.KindList, Members: []model.ShapeID{"test#L$member"}},
		&model.Shape{ID: "test#L$member", Kind: model.KindMember, MemberTarget: "test#S"},
	)
	r := newTestResolver(t)
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#S"), r))
	assert.True(t, CanReachConstrainedShape(m, m.ExpectShape("test#L"), r))

	// The required member itself targets a plain string: from the member
	// shape there is nothing constrained downstream.
	assert.False(t, CanReachConstrainedShape(m, m.ExpectShape("test#S$a"), r))
}

func floatPtr(v float64) *float64 { return &v }
