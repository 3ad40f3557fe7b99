// Package model defines the shape graph consumed by the stencil code
// generator: typed shape nodes, trait annotations, and the identity-keyed
// arena holding them. Graphs are loaded once and treated as immutable;
// rewrites live in model/transform and always produce a new graph value.
package model

import (
	"fmt"
	"strings"
)

// BuiltinNamespace is the foundational namespace holding the prelude
// scalar shapes. Members targeting it are never rendered.
const BuiltinNamespace = "stencil.api"

// ProtocolNamespace holds the known protocol trait identifiers.
const ProtocolNamespace = "stencil.protocols"

// Known protocol trait identifiers. ReplaceProtocol removes exactly this
// set before attaching the requested protocol.
var (
	ProtocolRestJSON   = ShapeID(ProtocolNamespace + "#restJson")
	ProtocolRestXML    = ShapeID(ProtocolNamespace + "#restXml")
	ProtocolRPCMsgpack = ShapeID(ProtocolNamespace + "#rpcMsgpack")
)

// KnownProtocols returns the set of protocol identifiers the generator
// understands, in a stable order.
func KnownProtocols() []ShapeID {
	return []ShapeID{ProtocolRestJSON, ProtocolRestXML, ProtocolRPCMsgpack}
}

// ShapeID is an absolute shape identifier of the form "namespace#Name",
// with an optional "$member" suffix for member shapes.
type ShapeID string

// ParseShapeID validates and returns an absolute shape identifier.
func ParseShapeID(s string) (ShapeID, error) {
	ns, rest, ok := strings.Cut(s, "#")
	if !ok || ns == "" || rest == "" {
		return "", fmt.Errorf("parse shape id %q: want namespace#Name: %w", s, errInvalidID)
	}
	name, member, hasMember := strings.Cut(rest, "$")
	if name == "" || (hasMember && member == "") {
		return "", fmt.Errorf("parse shape id %q: empty name or member: %w", s, errInvalidID)
	}
	for _, part := range []string{name, member} {
		if strings.ContainsAny(part, "#$ \t") {
			return "", fmt.Errorf("parse shape id %q: invalid character in %q: %w", s, part, errInvalidID)
		}
	}
	return ShapeID(s), nil
}

// MustParseShapeID is ParseShapeID that panics on malformed input. Intended
// for identifiers fixed at compile time.
func MustParseShapeID(s string) ShapeID {
	id, err := ParseShapeID(s)
	if err != nil {
		panic("stencil: " + err.Error())
	}
	return id
}

var errInvalidID = fmt.Errorf("invalid shape id")

// Namespace returns the namespace part of the identifier.
func (id ShapeID) Namespace() string {
	ns, _, _ := strings.Cut(string(id), "#")
	return ns
}

// Name returns the shape name, without namespace or member suffix.
func (id ShapeID) Name() string {
	_, rest, _ := strings.Cut(string(id), "#")
	name, _, _ := strings.Cut(rest, "$")
	return name
}

// Member returns the member name, or "" when the id is not a member id.
func (id ShapeID) Member() string {
	_, member, _ := strings.Cut(string(id), "$")
	return member
}

// IsMember reports whether the id carries a member suffix.
func (id ShapeID) IsMember() bool {
	return strings.Contains(string(id), "$")
}

// WithMember returns the member id for the named member of this shape.
func (id ShapeID) WithMember(name string) ShapeID {
	return id.Parent() + ShapeID("$"+name)
}

// Parent returns the containing shape id for a member id, and the id
// itself otherwise.
func (id ShapeID) Parent() ShapeID {
	parent, _, _ := strings.Cut(string(id), "$")
	return ShapeID(parent)
}

// IsBuiltin reports whether the id belongs to the prelude namespace.
func (id ShapeID) IsBuiltin() bool {
	return id.Namespace() == BuiltinNamespace
}

// String returns the identifier text.
func (id ShapeID) String() string {
	return string(id)
}
