// Package transform provides model-to-model rewrite passes. Every pass
// takes an immutable model and returns a new one; inputs are never mutated.
package transform

import (
	"fmt"

	"github.com/skellig/stencil/model"
)

// ReplaceProtocol returns a model where the service carries exactly one
// protocol trait: every known protocol trait is removed first, then proto
// is attached. Replacing a protocol with itself is idempotent in effect.
func ReplaceProtocol(m *model.Model, service, proto model.ShapeID) *model.Model {
	out := m.Clone()
	svc := out.ExpectShape(service)
	if svc.Kind != model.KindService {
		panic(fmt.Sprintf("stencil: replace protocol on non-service shape %s (%s)", service, svc.Kind))
	}
	svc.Traits = svc.Traits.Remove(model.TraitProtocol)
	svc.Traits = svc.Traits.Add(model.ProtocolTrait{Protocol: proto})
	return out
}

// RemoveShapes returns a model without the given shapes. Every id must be
// present; a miss is a test-setup error and panics. Dangling references to
// removed shapes are the caller's concern: this is a fixture surgery tool,
// not a graph validator.
func RemoveShapes(m *model.Model, ids []model.ShapeID) *model.Model {
	out := m.Clone()
	for _, id := range ids {
		out.ExpectShape(id)
		out.Remove(id)
	}
	return out
}

// RemoveOperations returns a model where the given operations are detached
// from the service and dropped from the arena.
//
// Preconditions and postconditions are hard assertions: every operation to
// remove must currently exist on the service, and the service must retain
// at least one operation afterward. A service with zero operations as a
// side effect of a removal utility is a programming error.
func RemoveOperations(m *model.Model, service model.ShapeID, ops []model.ShapeID) *model.Model {
	out := m.Clone()
	svc := out.ExpectShape(service)
	if svc.Kind != model.KindService {
		panic(fmt.Sprintf("stencil: remove operations on non-service shape %s (%s)", service, svc.Kind))
	}
	current := make(map[model.ShapeID]bool, len(svc.Operations))
	for _, op := range svc.Operations {
		current[op] = true
	}
	for _, op := range ops {
		if !current[op] {
			panic(fmt.Sprintf("stencil: operation %s is not attached to service %s", op, service))
		}
		delete(current, op)
	}
	if len(current) == 0 {
		panic(fmt.Sprintf("stencil: removing %d operation(s) would leave service %s without operations", len(ops), service))
	}

	remove := make(map[model.ShapeID]bool, len(ops))
	for _, op := range ops {
		remove[op] = true
	}
	kept := make([]model.ShapeID, 0, len(current))
	for _, op := range svc.Operations {
		if !remove[op] {
			kept = append(kept, op)
		}
	}
	svc.Operations = kept
	for _, op := range ops {
		out.Remove(op)
	}
	return out
}
