package model

import "fmt"

// TraitID identifies a trait kind. The set is closed: adding a trait means
// adding a variant here and a concrete type below, which forces every
// classifier switch to be revisited at compile time.
type TraitID int

// The closed set of trait kinds.
const (
	TraitInvalid TraitID = iota
	TraitLength
	TraitRange
	TraitPattern
	TraitUniqueItems
	TraitRequired
	TraitDefault
	TraitError
	TraitProtocol
	TraitStreaming
)

var traitNames = [...]string{
	TraitInvalid:     "invalid",
	TraitLength:      "length",
	TraitRange:       "range",
	TraitPattern:     "pattern",
	TraitUniqueItems: "uniqueItems",
	TraitRequired:    "required",
	TraitDefault:     "default",
	TraitError:       "error",
	TraitProtocol:    "protocol",
	TraitStreaming:   "streaming",
}

// String returns the trait kind name.
func (t TraitID) String() string {
	if t < 0 || int(t) >= len(traitNames) {
		return fmt.Sprintf("TraitID(%d)", int(t))
	}
	return traitNames[t]
}

// Trait is one annotation attached to a shape. Implementations form a
// closed variant set; external packages cannot add variants.
type Trait interface {
	// ID returns the trait kind.
	ID() TraitID

	isTrait()
}

// LengthTrait constrains the length of a string, list, or map.
type LengthTrait struct {
	Min *int64
	Max *int64
}

// RangeTrait constrains the numeric range of a scalar.
type RangeTrait struct {
	Min *float64
	Max *float64
}

// PatternTrait constrains a string to a regular expression.
type PatternTrait struct {
	Expr string
}

// UniqueItemsTrait constrains a list to unique elements.
type UniqueItemsTrait struct{}

// RequiredTrait marks a member as required on its containing structure.
// It attaches to the member edge, not to the target's type identity.
type RequiredTrait struct{}

// DefaultTrait supplies a fallback value for a member. A default is not a
// validation rule; shapes carrying one are never counted as constrained.
type DefaultTrait struct {
	Value any
}

// Fault values carried by ErrorTrait.
const (
	FaultClient = "client"
	FaultServer = "server"
)

// ErrorTrait marks a structure as an operation error with a fault kind.
type ErrorTrait struct {
	Fault string
}

// ProtocolTrait attaches a wire protocol to a service. At most one may be
// present on a service at a time; see transform.ReplaceProtocol.
type ProtocolTrait struct {
	Protocol ShapeID
}

// StreamingTrait marks a union as an event stream payload.
type StreamingTrait struct{}

// ID implementations for the variant set.
func (LengthTrait) ID() TraitID      { return TraitLength }
func (RangeTrait) ID() TraitID       { return TraitRange }
func (PatternTrait) ID() TraitID     { return TraitPattern }
func (UniqueItemsTrait) ID() TraitID { return TraitUniqueItems }
func (RequiredTrait) ID() TraitID    { return TraitRequired }
func (DefaultTrait) ID() TraitID     { return TraitDefault }
func (ErrorTrait) ID() TraitID       { return TraitError }
func (ProtocolTrait) ID() TraitID    { return TraitProtocol }
func (StreamingTrait) ID() TraitID   { return TraitStreaming }

func (LengthTrait) isTrait()      {}
func (RangeTrait) isTrait()       {}
func (PatternTrait) isTrait()     {}
func (UniqueItemsTrait) isTrait() {}
func (RequiredTrait) isTrait()    {}
func (DefaultTrait) isTrait()     {}
func (ErrorTrait) isTrait()       {}
func (ProtocolTrait) isTrait()    {}
func (StreamingTrait) isTrait()   {}

// Traits is an ordered trait set. Attaching a trait whose kind is already
// present replaces it in place, preserving first-attachment order.
type Traits []Trait

// Get returns the trait with the given kind, if present.
func (ts Traits) Get(id TraitID) (Trait, bool) {
	for _, t := range ts {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

// Has reports whether a trait with the given kind is present.
func (ts Traits) Has(id TraitID) bool {
	_, ok := ts.Get(id)
	return ok
}

// Add returns the set with t attached, replacing an existing trait of the
// same kind in place.
func (ts Traits) Add(t Trait) Traits {
	for i, existing := range ts {
		if existing.ID() == t.ID() {
			out := make(Traits, len(ts))
			copy(out, ts)
			out[i] = t
			return out
		}
	}
	out := make(Traits, len(ts), len(ts)+1)
	copy(out, ts)
	return append(out, t)
}

// Remove returns the set without any trait of the given kind.
func (ts Traits) Remove(id TraitID) Traits {
	out := make(Traits, 0, len(ts))
	for _, t := range ts {
		if t.ID() != id {
			out = append(out, t)
		}
	}
	return out
}

// TraitOf returns the trait of concrete type T attached to the shape.
func TraitOf[T Trait](s *Shape) (T, bool) {
	var zero T
	for _, t := range s.Traits {
		if v, ok := t.(T); ok {
			return v, true
		}
	}
	return zero, false
}
