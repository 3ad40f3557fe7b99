// Package load parses the textual stencil model definition language into a
// shape graph. The language is line-oriented and versioned:
//
//	$version: "1"
//	namespace test
//
//	@restJson
//	service TestService {
//	    operations: [TestStreamOp]
//	}
//
//	structure TestStreamInputOutput {
//	    @required
//	    value: TestStream
//	}
//
//	@length(min: 1, max: 69)
//	map MapA { key: String, value: MapB }
//
// Trait lines attach to the next definition, or to the next member inside
// a block. Unqualified targets resolve to the file namespace first, then to
// the prelude. The prelude scalars (stencil.api#String and friends) are
// injected into every parsed model.
package load

import (
	"fmt"
	"os"

	"github.com/skellig/stencil"
	"github.com/skellig/stencil/model"
)

// SyntaxError reports a malformed model definition.
type SyntaxError struct {
	Line    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("stencil: syntax error at line %d: %s", e.Line, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SyntaxError) Unwrap() error {
	return e.Cause
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// newResolveError reports a reference that names no shape. These carry
// stencil.ErrInvalidModel so callers can tell structural errors from plain
// syntax errors.
func newResolveError(line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Message: fmt.Sprintf(format, args...), Cause: stencil.ErrInvalidModel}
}

// preludeShapes lists the foundational scalar shapes injected into every
// parsed model.
var preludeShapes = map[string]model.Kind{
	"String":    model.KindString,
	"Boolean":   model.KindBoolean,
	"Integer":   model.KindInteger,
	"Long":      model.KindLong,
	"Blob":      model.KindBlob,
	"Timestamp": model.KindTimestamp,
}

// injectPrelude adds the stencil.api scalar shapes to the model.
func injectPrelude(m *model.Model) {
	for _, name := range []string{"String", "Boolean", "Integer", "Long", "Blob", "Timestamp"} {
		id := model.ShapeID(model.BuiltinNamespace + "#" + name)
		if _, ok := m.Shape(id); ok {
			continue
		}
		// Add cannot fail here: the id was just checked.
		_ = m.Add(&model.Shape{ID: id, Kind: preludeShapes[name]})
	}
}

// Parse parses a model definition into a shape graph.
func Parse(src string) (*model.Model, error) {
	p := newParser(src)
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.model, nil
}

// ParseFile parses the model definition at path.
func ParseFile(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(string(data))
}
