package model

import "fmt"

// Shape is a node in the model graph. Link fields hold non-owning ShapeIDs;
// the Model arena owns every shape, and cycles through member targets are
// expected.
type Shape struct {
	ID     ShapeID
	Kind   Kind
	Traits Traits

	// Members holds the ordered member shape ids of a structure, union,
	// list ($member), or map ($key, $value).
	Members []ShapeID

	// MemberTarget is the target shape id of a member.
	MemberTarget ShapeID

	// Operations holds the ordered operation ids of a service.
	Operations []ShapeID

	// Input, Output, and Errors describe an operation.
	Input  ShapeID
	Output ShapeID
	Errors []ShapeID
}

// Clone returns a deep copy of the shape.
func (s *Shape) Clone() *Shape {
	out := *s
	out.Traits = make(Traits, len(s.Traits))
	copy(out.Traits, s.Traits)
	out.Members = append([]ShapeID(nil), s.Members...)
	out.Operations = append([]ShapeID(nil), s.Operations...)
	out.Errors = append([]ShapeID(nil), s.Errors...)
	return &out
}

// Model is an arena of shapes with identity-keyed lookup and stable
// insertion order. Loaded models are treated as immutable; rewrites in
// model/transform clone the arena rather than mutating it.
type Model struct {
	shapes map[ShapeID]*Shape
	order  []ShapeID
}

// New returns an empty model.
func New() *Model {
	return &Model{shapes: make(map[ShapeID]*Shape)}
}

// Add inserts a shape into the arena. Duplicate ids are rejected.
func (m *Model) Add(s *Shape) error {
	if _, ok := m.shapes[s.ID]; ok {
		return fmt.Errorf("add shape %s: duplicate id", s.ID)
	}
	m.shapes[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

// Remove drops a shape from the arena. Removing an absent id is a no-op.
// Dangling references to the removed shape are the caller's concern.
func (m *Model) Remove(id ShapeID) {
	if _, ok := m.shapes[id]; !ok {
		return
	}
	delete(m.shapes, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Shape returns the shape with the given id.
func (m *Model) Shape(id ShapeID) (*Shape, bool) {
	s, ok := m.shapes[id]
	return s, ok
}

// ExpectShape returns the shape with the given id, panicking when absent.
// A miss is a programming or test-setup error, not a runtime condition.
func (m *Model) ExpectShape(id ShapeID) *Shape {
	s, ok := m.shapes[id]
	if !ok {
		panic(fmt.Sprintf("stencil: expected shape %s in model", id))
	}
	return s
}

// Len returns the number of shapes in the arena.
func (m *Model) Len() int {
	return len(m.order)
}

// Shapes returns every shape in insertion order.
func (m *Model) Shapes() []*Shape {
	out := make([]*Shape, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.shapes[id])
	}
	return out
}

// ServiceShapes returns every service shape in insertion order.
func (m *Model) ServiceShapes() []*Shape {
	return m.shapesOfKind(KindService)
}

// OperationShapes returns every operation shape in insertion order.
func (m *Model) OperationShapes() []*Shape {
	return m.shapesOfKind(KindOperation)
}

func (m *Model) shapesOfKind(k Kind) []*Shape {
	var out []*Shape
	for _, id := range m.order {
		if s := m.shapes[id]; s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// Members resolves the member shapes of a structure, union, list, or map,
// in declaration order. Unresolvable member ids panic: a model with
// dangling member links is malformed by construction.
func (m *Model) Members(of *Shape) []*Shape {
	out := make([]*Shape, 0, len(of.Members))
	for _, id := range of.Members {
		out = append(out, m.ExpectShape(id))
	}
	return out
}

// Clone returns a deep copy of the model. Cycles are handled naturally:
// shapes are copied one arena slot at a time, never by chasing links.
func (m *Model) Clone() *Model {
	out := New()
	for _, id := range m.order {
		out.shapes[id] = m.shapes[id].Clone()
		out.order = append(out.order, id)
	}
	return out
}
