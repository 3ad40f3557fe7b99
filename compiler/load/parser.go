package load

import (
	"strconv"
	"strings"

	"github.com/skellig/stencil/model"
)

// parser holds the line-oriented parse state. Targets are recorded raw
// during the statement pass and resolved against the namespace and prelude
// once the whole file has been read, so forward references work.
type parser struct {
	lines     []string
	namespace string
	version   bool
	model     *model.Model

	pendingTraits model.Traits

	// raw target references, fixed up by resolve().
	memberTargets map[model.ShapeID]ref
	opInputs      map[model.ShapeID]ref
	opOutputs     map[model.ShapeID]ref
	opErrors      map[model.ShapeID][]ref
	svcOps        map[model.ShapeID][]ref
}

type ref struct {
	name string
	line int
}

func newParser(src string) *parser {
	return &parser{
		lines:         strings.Split(src, "\n"),
		model:         model.New(),
		memberTargets: make(map[model.ShapeID]ref),
		opInputs:      make(map[model.ShapeID]ref),
		opOutputs:     make(map[model.ShapeID]ref),
		opErrors:      make(map[model.ShapeID][]ref),
		svcOps:        make(map[model.ShapeID][]ref),
	}
}

func (p *parser) run() error {
	injectPrelude(p.model)
	i := 0
	for i < len(p.lines) {
		line := cleanLine(p.lines[i])
		lineNo := i + 1
		if line == "" {
			i++
			continue
		}
		switch {
		case strings.HasPrefix(line, "$version:"):
			if p.version {
				return NewSyntaxError(lineNo, "duplicate $version statement")
			}
			p.version = true
			i++
		case strings.HasPrefix(line, "namespace "):
			if !p.version {
				return NewSyntaxError(lineNo, "missing $version statement before namespace")
			}
			if p.namespace != "" {
				return NewSyntaxError(lineNo, "duplicate namespace statement")
			}
			p.namespace = strings.TrimSpace(strings.TrimPrefix(line, "namespace "))
			if p.namespace == "" {
				return NewSyntaxError(lineNo, "empty namespace")
			}
			i++
		case strings.HasPrefix(line, "@"):
			t, err := parseTrait(line, lineNo)
			if err != nil {
				return err
			}
			p.pendingTraits = p.pendingTraits.Add(t)
			i++
		default:
			if p.namespace == "" {
				return NewSyntaxError(lineNo, "definition before namespace statement")
			}
			next, err := p.parseDefinition(i)
			if err != nil {
				return err
			}
			i = next
		}
	}
	if !p.version {
		return NewSyntaxError(1, "missing $version statement")
	}
	if p.namespace == "" {
		return NewSyntaxError(len(p.lines), "missing namespace statement")
	}
	if len(p.pendingTraits) > 0 {
		return NewSyntaxError(len(p.lines), "dangling trait without a definition")
	}
	return p.resolve()
}

// cleanLine strips comments and surrounding whitespace.
func cleanLine(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// parseDefinition consumes one shape definition starting at line index i
// and returns the index of the line after it.
func (p *parser) parseDefinition(i int) (int, error) {
	line := cleanLine(p.lines[i])
	lineNo := i + 1
	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	kind, ok := model.KindForName(keyword)
	if !ok || kind == model.KindMember {
		return 0, NewSyntaxError(lineNo, "unknown definition keyword %q", keyword)
	}

	name, body, hasBody := splitHeader(rest)
	if name == "" {
		return 0, NewSyntaxError(lineNo, "missing shape name in %q", line)
	}
	id := model.ShapeID(p.namespace + "#" + name)
	shape := &model.Shape{ID: id, Kind: kind, Traits: p.pendingTraits}
	p.pendingTraits = nil
	if err := p.model.Add(shape); err != nil {
		return 0, NewSyntaxError(lineNo, "%s", err.Error())
	}

	if kind.IsScalar() {
		if hasBody {
			return 0, NewSyntaxError(lineNo, "scalar shape %s cannot have a body", name)
		}
		return i + 1, nil
	}

	// Aggregate shapes take a block body, either inline on the header
	// line or spread over the following lines up to a closing brace.
	var bodyLines []bodyLine
	next := i + 1
	switch {
	case hasBody && body != "":
		for _, part := range strings.Split(body, ",") {
			if part = strings.TrimSpace(part); part != "" {
				bodyLines = append(bodyLines, bodyLine{text: part, no: lineNo})
			}
		}
	case hasBody:
		// "{}" inline: empty block.
	default:
		if !strings.HasSuffix(line, "{") {
			return 0, NewSyntaxError(lineNo, "%s %s: expected block body", keyword, name)
		}
		for {
			if next >= len(p.lines) {
				return 0, NewSyntaxError(lineNo, "%s %s: unterminated block", keyword, name)
			}
			bl := cleanLine(p.lines[next])
			no := next + 1
			next++
			if bl == "}" {
				break
			}
			if bl != "" {
				bodyLines = append(bodyLines, bodyLine{text: bl, no: no})
			}
		}
	}

	if err := p.parseBody(shape, bodyLines); err != nil {
		return 0, err
	}
	return next, nil
}

type bodyLine struct {
	text string
	no   int
}

// splitHeader splits "Name { body }" / "Name {" / "Name" into the name and
// any inline body.
func splitHeader(rest string) (name, body string, hasBody bool) {
	name, after, found := strings.Cut(rest, "{")
	name = strings.TrimSpace(name)
	if !found {
		return name, "", false
	}
	after = strings.TrimSpace(after)
	if after == "" {
		// Header ends with "{": body follows on later lines.
		return name, "", false
	}
	body = strings.TrimSpace(strings.TrimSuffix(after, "}"))
	return name, body, true
}

func (p *parser) parseBody(shape *model.Shape, body []bodyLine) error {
	var memberTraits model.Traits
	for _, bl := range body {
		line := bl.text
		for strings.HasPrefix(line, "@") {
			traitText, rest := cutTrait(line)
			t, err := parseTrait(traitText, bl.no)
			if err != nil {
				return err
			}
			memberTraits = memberTraits.Add(t)
			line = rest
		}
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return NewSyntaxError(bl.no, "expected \"name: Target\" in %s, got %q", shape.ID, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch {
		case shape.Kind == model.KindService && key == "operations":
			for _, op := range parseList(value) {
				p.svcOps[shape.ID] = append(p.svcOps[shape.ID], ref{name: op, line: bl.no})
			}
			if len(memberTraits) > 0 {
				return NewSyntaxError(bl.no, "traits cannot be attached to an operations list")
			}
		case shape.Kind == model.KindOperation:
			switch key {
			case "input":
				p.opInputs[shape.ID] = ref{name: value, line: bl.no}
			case "output":
				p.opOutputs[shape.ID] = ref{name: value, line: bl.no}
			case "errors":
				for _, e := range parseList(value) {
					p.opErrors[shape.ID] = append(p.opErrors[shape.ID], ref{name: e, line: bl.no})
				}
			default:
				return NewSyntaxError(bl.no, "unknown operation property %q", key)
			}
		case shape.Kind == model.KindList && key != "member":
			return NewSyntaxError(bl.no, "list %s: expected \"member: Target\", got %q", shape.ID, key)
		case shape.Kind == model.KindMap && key != "key" && key != "value":
			return NewSyntaxError(bl.no, "map %s: expected key/value members, got %q", shape.ID, key)
		default:
			memberID := shape.ID.WithMember(key)
			member := &model.Shape{ID: memberID, Kind: model.KindMember, Traits: memberTraits}
			if err := p.model.Add(member); err != nil {
				return NewSyntaxError(bl.no, "%s", err.Error())
			}
			shape.Members = append(shape.Members, memberID)
			p.memberTargets[memberID] = ref{name: value, line: bl.no}
		}
		memberTraits = nil
	}
	if len(memberTraits) > 0 {
		return NewSyntaxError(body[len(body)-1].no, "dangling member trait in %s", shape.ID)
	}
	return nil
}

// cutTrait splits a leading trait token (with optional argument list) off a
// member line.
func cutTrait(line string) (trait, rest string) {
	if idx := strings.Index(line, "("); idx >= 0 {
		if end := strings.Index(line[idx:], ")"); end >= 0 {
			close := idx + end + 1
			return strings.TrimSpace(line[:close]), strings.TrimSpace(line[close:])
		}
	}
	trait, rest, _ = strings.Cut(line, " ")
	return trait, strings.TrimSpace(rest)
}

// parseList splits "[A, B, C]" into its elements.
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolve fixes up every raw target reference now that all shapes exist.
func (p *parser) resolve() error {
	for memberID, r := range p.memberTargets {
		target, err := p.resolveTarget(r)
		if err != nil {
			return err
		}
		p.model.ExpectShape(memberID).MemberTarget = target
	}
	for opID, r := range p.opInputs {
		target, err := p.resolveTarget(r)
		if err != nil {
			return err
		}
		p.model.ExpectShape(opID).Input = target
	}
	for opID, r := range p.opOutputs {
		target, err := p.resolveTarget(r)
		if err != nil {
			return err
		}
		p.model.ExpectShape(opID).Output = target
	}
	for opID, refs := range p.opErrors {
		op := p.model.ExpectShape(opID)
		for _, r := range refs {
			target, err := p.resolveTarget(r)
			if err != nil {
				return err
			}
			op.Errors = append(op.Errors, target)
		}
	}
	for svcID, refs := range p.svcOps {
		svc := p.model.ExpectShape(svcID)
		for _, r := range refs {
			target, err := p.resolveTarget(r)
			if err != nil {
				return err
			}
			if p.model.ExpectShape(target).Kind != model.KindOperation {
				return NewSyntaxError(r.line, "service %s references non-operation %s", svcID, target)
			}
			svc.Operations = append(svc.Operations, target)
		}
	}
	return nil
}

func (p *parser) resolveTarget(r ref) (model.ShapeID, error) {
	if strings.Contains(r.name, "#") {
		id, err := model.ParseShapeID(r.name)
		if err != nil {
			return "", NewSyntaxError(r.line, "%s", err.Error())
		}
		if _, ok := p.model.Shape(id); !ok {
			return "", newResolveError(r.line, "unresolved target %s", id)
		}
		return id, nil
	}
	local := model.ShapeID(p.namespace + "#" + r.name)
	if _, ok := p.model.Shape(local); ok {
		return local, nil
	}
	if _, ok := preludeShapes[r.name]; ok {
		return model.ShapeID(model.BuiltinNamespace + "#" + r.name), nil
	}
	return "", newResolveError(r.line, "unresolved target %q in namespace %s", r.name, p.namespace)
}

// parseTrait parses one "@name" or "@name(args)" annotation.
func parseTrait(text string, line int) (model.Trait, error) {
	text = strings.TrimPrefix(text, "@")
	name, args, hasArgs := strings.Cut(text, "(")
	name = strings.TrimSpace(name)
	if hasArgs {
		args = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(args), ")"))
	}
	switch name {
	case "required":
		return model.RequiredTrait{}, nil
	case "uniqueItems":
		return model.UniqueItemsTrait{}, nil
	case "streaming":
		return model.StreamingTrait{}, nil
	case "length":
		min, max, err := parseMinMax(args, line)
		if err != nil {
			return nil, err
		}
		t := model.LengthTrait{}
		if min != nil {
			v := int64(*min)
			t.Min = &v
		}
		if max != nil {
			v := int64(*max)
			t.Max = &v
		}
		return t, nil
	case "range":
		min, max, err := parseMinMax(args, line)
		if err != nil {
			return nil, err
		}
		return model.RangeTrait{Min: min, Max: max}, nil
	case "pattern":
		return model.PatternTrait{Expr: strings.Trim(args, `"`)}, nil
	case "default":
		return model.DefaultTrait{Value: parseLiteral(args)}, nil
	case "error":
		fault := strings.Trim(args, `"`)
		if fault != model.FaultClient && fault != model.FaultServer {
			return nil, NewSyntaxError(line, "@error fault must be %q or %q, got %q", model.FaultClient, model.FaultServer, fault)
		}
		return model.ErrorTrait{Fault: fault}, nil
	case "restJson":
		return model.ProtocolTrait{Protocol: model.ProtocolRestJSON}, nil
	case "restXml":
		return model.ProtocolTrait{Protocol: model.ProtocolRestXML}, nil
	case "rpcMsgpack":
		return model.ProtocolTrait{Protocol: model.ProtocolRPCMsgpack}, nil
	default:
		return nil, NewSyntaxError(line, "unknown trait @%s", name)
	}
}

// parseMinMax parses "min: 1, max: 69" with both bounds optional.
func parseMinMax(args string, line int) (min, max *float64, err error) {
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, nil, NewSyntaxError(line, "expected \"min: N\" or \"max: N\", got %q", part)
		}
		n, perr := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if perr != nil {
			return nil, nil, NewSyntaxError(line, "invalid bound %q: %v", strings.TrimSpace(value), perr)
		}
		switch strings.TrimSpace(key) {
		case "min":
			min = &n
		case "max":
			max = &n
		default:
			return nil, nil, NewSyntaxError(line, "unknown bound %q", strings.TrimSpace(key))
		}
	}
	return min, max, nil
}

// parseLiteral interprets a default value argument as a string, bool, or
// number, falling back to the raw text.
func parseLiteral(s string) any {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		return strings.Trim(s, `"`)
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
