package gen

import "github.com/skellig/stencil/model"

// CapabilityPolicy decides which trait+shape-kind combinations the active
// generation mode materializes as a distinct validated type. Constraint
// traits the model recognizes but the policy rejects are informational
// only: a @range on a scalar member documents intent but never produces a
// validating wrapper.
//
// The boundary is mode-dependent and deliberately a value-type table
// rather than hardcoded logic, so callers can widen or narrow it per
// Config.
type CapabilityPolicy map[model.Kind]map[model.TraitID]bool

// Materializes reports whether the policy turns the given trait on the
// given shape kind into a validated type.
func (p CapabilityPolicy) Materializes(kind model.Kind, trait model.TraitID) bool {
	return p[kind][trait]
}

// With returns a copy of the policy with the given combination enabled.
func (p CapabilityPolicy) With(kind model.Kind, trait model.TraitID) CapabilityPolicy {
	out := make(CapabilityPolicy, len(p))
	for k, traits := range p {
		row := make(map[model.TraitID]bool, len(traits))
		for t, v := range traits {
			row[t] = v
		}
		out[k] = row
	}
	if out[kind] == nil {
		out[kind] = make(map[model.TraitID]bool)
	}
	out[kind][trait] = true
	return out
}

// DefaultPolicy returns the standard materialization table:
//
//	string:    length, pattern
//	list:      length, uniqueItems
//	map:       length
//
// Structures and unions carry no type-level constraint traits of their
// own (required members surface through reachability instead), and
// member-attached or scalar constraint traits never materialize.
func DefaultPolicy() CapabilityPolicy {
	return CapabilityPolicy{
		model.KindString: {
			model.TraitLength:  true,
			model.TraitPattern: true,
		},
		model.KindList: {
			model.TraitLength:      true,
			model.TraitUniqueItems: true,
		},
		model.KindMap: {
			model.TraitLength: true,
		},
	}
}

// constraintTraits is the set of traits the classifier considers at all;
// everything else (required, default, error, protocol, streaming) is not a
// type-level validation rule.
var constraintTraits = []model.TraitID{
	model.TraitLength,
	model.TraitRange,
	model.TraitPattern,
	model.TraitUniqueItems,
}
