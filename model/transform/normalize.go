package transform

import (
	"fmt"

	"github.com/skellig/stencil/model"
)

// StreamMemberName is the canonical member name an event stream union is
// re-homed under after normalization.
const StreamMemberName = "value"

// NormalizeOperations returns a model where every operation's input and
// output are dedicated structures in canonical position: operation "ns#Op"
// reads from "ns#OpInput" and writes to "ns#OpOutput". Shared or missing
// input/output structures are cloned (or created empty) under the
// canonical name; operations already canonical are left alone, so the pass
// is idempotent.
func NormalizeOperations(m *model.Model) *model.Model {
	out := m.Clone()
	for _, op := range out.OperationShapes() {
		op.Input = normalizeIOShape(out, op, op.Input, "Input")
		op.Output = normalizeIOShape(out, op, op.Output, "Output")
	}
	return out
}

func normalizeIOShape(m *model.Model, op *model.Shape, current model.ShapeID, suffix string) model.ShapeID {
	canonical := model.ShapeID(op.ID.Namespace() + "#" + op.ID.Name() + suffix)
	if current == canonical {
		return canonical
	}
	if _, ok := m.Shape(canonical); ok {
		return canonical
	}
	if current == "" {
		if err := m.Add(&model.Shape{ID: canonical, Kind: model.KindStructure}); err != nil {
			panic("stencil: " + err.Error())
		}
		return canonical
	}
	src := m.ExpectShape(current)
	clone := src.Clone()
	clone.ID = canonical
	clone.Members = nil
	if err := m.Add(clone); err != nil {
		panic("stencil: " + err.Error())
	}
	for _, memberID := range src.Members {
		member := m.ExpectShape(memberID).Clone()
		member.ID = canonical.WithMember(memberID.Member())
		if _, ok := m.Shape(member.ID); !ok {
			if err := m.Add(member); err != nil {
				panic("stencil: " + err.Error())
			}
		}
		clone.Members = append(clone.Members, member.ID)
	}
	return canonical
}

// NormalizeEventStreams returns a model where every event stream union is
// attached to its operation's canonical input/output structure under the
// fixed member name "value", and every union variant's target shape exists
// in the arena. The pass requires an operation-normalized model and panics
// when run out of order.
func NormalizeEventStreams(m *model.Model) *model.Model {
	out := m.Clone()
	for _, op := range out.OperationShapes() {
		for _, io := range []model.ShapeID{op.Input, op.Output} {
			requireCanonical(out, op, io)
			normalizeStreamMember(out, out.ExpectShape(io))
		}
	}
	return out
}

func requireCanonical(m *model.Model, op *model.Shape, io model.ShapeID) {
	if io == "" {
		panic(fmt.Sprintf("stencil: operation %s has no canonical input/output; run NormalizeOperations first", op.ID))
	}
	name := io.Name()
	base := op.ID.Name()
	if io.Namespace() != op.ID.Namespace() || (name != base+"Input" && name != base+"Output") {
		panic(fmt.Sprintf("stencil: operation %s references non-canonical shape %s; run NormalizeOperations first", op.ID, io))
	}
	m.ExpectShape(io)
}

func normalizeStreamMember(m *model.Model, io *model.Shape) {
	for i, memberID := range io.Members {
		member := m.ExpectShape(memberID)
		target, ok := m.Shape(member.MemberTarget)
		if !ok || target.Kind != model.KindUnion || !target.Traits.Has(model.TraitStreaming) {
			continue
		}
		ensureVariantTargets(m, target)
		if memberID.Member() == StreamMemberName {
			continue
		}
		canonical := io.ID.WithMember(StreamMemberName)
		rehomed := member.Clone()
		rehomed.ID = canonical
		if _, exists := m.Shape(canonical); !exists {
			if err := m.Add(rehomed); err != nil {
				panic("stencil: " + err.Error())
			}
		}
		m.Remove(memberID)
		io.Members[i] = canonical
	}
}

// ensureVariantTargets creates an empty message structure for any union
// variant whose target is missing from the arena. Builtin targets are
// provided by the prelude and never synthesized.
func ensureVariantTargets(m *model.Model, union *model.Shape) {
	for _, variantID := range union.Members {
		variant := m.ExpectShape(variantID)
		if variant.MemberTarget.IsBuiltin() {
			continue
		}
		if _, ok := m.Shape(variant.MemberTarget); !ok {
			if err := m.Add(&model.Shape{ID: variant.MemberTarget, Kind: model.KindStructure}); err != nil {
				panic("stencil: " + err.Error())
			}
		}
	}
}
