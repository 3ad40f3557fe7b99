package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skellig/stencil/model"
)

// SymbolResolver maps shapes to generated Go identifiers and answers
// mode-dependent capability questions. One resolver is built per codegen
// context and is read-only afterward, so concurrent use is safe.
type SymbolResolver struct {
	cfg   *Config
	title cases.Caser
}

// NewSymbolResolver returns a resolver for the given config.
func NewSymbolResolver(cfg *Config) *SymbolResolver {
	return &SymbolResolver{
		cfg:   cfg,
		title: cases.Title(language.English, cases.NoLower),
	}
}

// Config returns the resolver's configuration.
func (r *SymbolResolver) Config() *Config {
	return r.cfg
}

// Mode returns the active generation mode.
func (r *SymbolResolver) Mode() Mode {
	return r.cfg.Mode
}

// StructName returns the exported Go type name for a shape.
func (r *SymbolResolver) StructName(s *model.Shape) string {
	return r.exported(s.ID.Name())
}

// MemberName returns the exported Go field name for a member shape.
func (r *SymbolResolver) MemberName(s *model.Shape) string {
	return r.exported(s.ID.Member())
}

// VariantName returns the exported Go type name for a union variant.
func (r *SymbolResolver) VariantName(union, member *model.Shape) string {
	return r.StructName(union) + r.MemberName(member)
}

// BuilderName returns the builder type name for a structure.
func (r *SymbolResolver) BuilderName(s *model.Shape) string {
	return r.StructName(s) + "Builder"
}

// ElementName returns a singular identifier for a list's element, used in
// generated loop variables and validation messages.
func (r *SymbolResolver) ElementName(list *model.Shape) string {
	return inflect.Singularize(lowerFirst(list.ID.Name()))
}

// exported turns a model name into an exported Go identifier. Snake-case
// names camelize; already-cased names keep their interior casing and get a
// title-cased first rune.
func (r *SymbolResolver) exported(name string) string {
	if name == "" {
		return ""
	}
	if strings.ContainsAny(name, "_-") {
		return inflect.Camelize(strings.ReplaceAll(name, "-", "_"))
	}
	first, rest := name[:1], name[1:]
	return r.title.String(first) + rest
}

func lowerFirst(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// IsDirectlyConstrained reports whether the shape itself carries a
// validation trait the active policy materializes. Pure: repeated calls
// with the same shape give identical answers.
//
// A default trait opts the shape out entirely: defaults are fallback
// values, not validation rules. Required-ness is not considered here; it
// surfaces at the containing structure through reachability.
func (r *SymbolResolver) IsDirectlyConstrained(s *model.Shape) bool {
	if s.Traits.Has(model.TraitDefault) {
		return false
	}
	for _, trait := range constraintTraits {
		if s.Traits.Has(trait) && r.cfg.Policy.Materializes(s.Kind, trait) {
			return true
		}
	}
	return false
}
