package gen

import "github.com/skellig/stencil/model"

// CanReachConstrainedShape reports whether any path of member edges
// starting at s terminates at a directly constrained shape. A structure
// with a required member counts as a terminal on its own: it cannot be
// safely default-constructed, so everything that reaches it is
// constrained too.
//
// The answer is root-relative, so results are not memoized across calls;
// cycle safety comes from a per-call visited set instead. Traversal is an
// iterative DFS with an explicit stack, so self-recursive and mutually
// recursive graphs terminate without recursion-depth limits: each shape is
// pushed at most once per query.
func CanReachConstrainedShape(m *model.Model, s *model.Shape, r *SymbolResolver) bool {
	visited := make(map[model.ShapeID]struct{})
	stack := []model.ShapeID{s.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		node, ok := m.Shape(id)
		if !ok {
			// Dangling link: nothing reachable through it.
			continue
		}
		if r.IsDirectlyConstrained(node) {
			return true
		}
		if node.Kind == model.KindStructure && hasRequiredMember(m, node) {
			return true
		}
		stack = append(stack, edges(node)...)
	}
	return false
}

// edges returns the ids a traversal continues through from node. Service
// and operation shapes contribute none: reachability is about value
// graphs, not the service closure.
func edges(node *model.Shape) []model.ShapeID {
	switch node.Kind {
	case model.KindMember:
		if node.MemberTarget == "" {
			return nil
		}
		return []model.ShapeID{node.MemberTarget}
	case model.KindStructure, model.KindUnion, model.KindList, model.KindMap:
		return node.Members
	default:
		return nil
	}
}

func hasRequiredMember(m *model.Model, structure *model.Shape) bool {
	for _, memberID := range structure.Members {
		if member, ok := m.Shape(memberID); ok && member.Traits.Has(model.TraitRequired) {
			return true
		}
	}
	return false
}
