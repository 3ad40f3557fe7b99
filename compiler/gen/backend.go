package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/model"
)

// Direction selects which half of the wire logic a generator renders.
type Direction int

const (
	// Marshall renders event-to-frame logic.
	Marshall Direction = iota
	// Unmarshall renders frame-to-event logic.
	Unmarshall
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Marshall:
		return "marshall"
	case Unmarshall:
		return "unmarshall"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Context is the bundle threaded through one generation run: the model,
// the resolved service, the symbol resolver, and the settings document.
// Read-only after construction.
type Context struct {
	Model    *model.Model
	Service  *model.Shape
	Resolver *SymbolResolver
	Settings stencil.Settings

	// ModulePath is the module path of the generated project, when
	// rendering targets one. Empty for pure analysis contexts; named
	// model types then render unqualified.
	ModulePath string
}

// ModelPackage returns the import path of the generated project's model
// package, or "" when no project is attached.
func (c *Context) ModelPackage() string {
	if c.ModulePath == "" {
		return ""
	}
	return c.ModulePath + "/model"
}

// NamedType returns a reference to a generated named type, qualified with
// the model package when a generated project is attached.
func (c *Context) NamedType(name string) *jen.Statement {
	if pkg := c.ModelPackage(); pkg != "" {
		return jen.Qual(pkg, name)
	}
	return jen.Id(name)
}

// Mode returns the context's generation mode.
func (c *Context) Mode() Mode {
	return c.Resolver.Mode()
}

// Protocol returns the service's attached protocol.
func (c *Context) Protocol() (model.ShapeID, error) {
	pt, ok := model.TraitOf[model.ProtocolTrait](c.Service)
	if !ok {
		return "", NewValidationError(c.Service.ID, "service has no protocol trait", nil)
	}
	return pt.Protocol, nil
}

// Backend is the pluggable code generation flavor. The harness
// orchestration is generic over this interface and never over a concrete
// implementation; client and server backends share the orchestration and
// differ only in rendering and validation rules.
type Backend interface {
	// Mode returns the backend's generation mode.
	Mode() Mode

	// CreateContext builds the codegen context for a service.
	CreateContext(m *model.Model, service model.ShapeID, settings stencil.Settings) (*Context, error)

	// BuilderGenerator returns the builder renderer for a structure.
	BuilderGenerator(ctx *Context, s *model.Shape) (BuilderGenerator, error)

	// RenderGenerator renders the marshall or unmarshall logic for the
	// event stream union into f.
	RenderGenerator(ctx *Context, f *jen.File, stream *model.Shape, dir Direction) error

	// RenderOperationError renders the error type for one operation
	// error shape into f.
	RenderOperationError(ctx *Context, f *jen.File, errShape *model.Shape) error
}

// ConstrainedTypeGenerator is an optional backend capability: rendering
// validating wrapper types for directly constrained shapes. The harness
// discovers it by type assertion, so backends without validated types
// (the client) simply do not implement it.
type ConstrainedTypeGenerator interface {
	// RenderConstrainedType renders the wrapper type for a directly
	// constrained shape into f.
	RenderConstrainedType(ctx *Context, f *jen.File, s *model.Shape) error
}

// BuilderGenerator renders one structure's builder type.
type BuilderGenerator interface {
	// Render writes the builder into f.
	Render(f *jen.File) error

	// Fallible reports whether the rendered Build method returns an
	// error alongside the value.
	Fallible() bool
}
