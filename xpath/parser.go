package xpath

import "fmt"

type parser struct {
	toks []token
	pos  int
	expr string
}

// Compile tokenizes and parses expr into an Expr tree, spec §4.B's
// "token stream plus a parsed expression node tree, both retained on the
// schema node".
func Compile(expr string) (Expr, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, expr: expr}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tkEOF {
		return nil, fmt.Errorf("xpath: trailing input at %q in %q", p.peek().text, expr)
	}
	return e, nil
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tkPunct && t.text == s
}

func (p *parser) isName(s string) bool {
	t := p.peek()
	return t.kind == tkName && t.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return fmt.Errorf("xpath: expected %q, got %q in %q", s, p.peek().text, p.expr)
	}
	p.advance()
	return nil
}

// parseExpr == OrExpr, the XPath 1.0 grammar's top production.
func (p *parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (Expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isName("or") {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: "or", L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (Expr, error) {
	l, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isName("and") {
		p.advance()
		r, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: "and", L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseEquality() (Expr, error) {
	l, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.isPunct("=") || p.isPunct("!=") {
		op := p.advance().text
		r, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseRelational() (Expr, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isPunct("<") || p.isPunct("<=") || p.isPunct(">") || p.isPunct(">=") {
		op := p.advance().text
		r, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.advance().text
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isName("div") || p.isName("mod") {
		op := p.advance().text
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isPunct("-") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{X: x}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (Expr, error) {
	l, err := p.parsePathOrPrimary()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("|") {
		return l, nil
	}
	parts := []Expr{l}
	for p.isPunct("|") {
		p.advance()
		r, err := p.parsePathOrPrimary()
		if err != nil {
			return nil, err
		}
		parts = append(parts, r)
	}
	return &BinaryExpr{Op: "|", L: parts[0], R: unionRest(parts[1:])}, nil
}

func unionRest(parts []Expr) Expr {
	if len(parts) == 1 {
		return parts[0]
	}
	return &BinaryExpr{Op: "|", L: parts[0], R: unionRest(parts[1:])}
}

// parsePathOrPrimary implements XPath's UnionExpr operand production,
// which XPath 1.0 calls PathExpr: a location path, or a FilterExpr
// (PrimaryExpr plus predicates) optionally followed by a relative
// location path (e.g. "current()/../foo").
func (p *parser) parsePathOrPrimary() (Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tkPunct && (t.text == "/" || t.text == "//"):
		return p.parseAbsoluteLocationPath()
	case t.kind == tkPunct && (t.text == "." || t.text == ".." || t.text == "@" || t.text == "*"):
		steps, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		return &PathExpr{Steps: steps}, nil
	case t.kind == tkNumber:
		p.advance()
		return &NumberLit{Value: t.num}, nil
	case t.kind == tkString:
		p.advance()
		return &StringLit{Value: t.text}, nil
	case t.kind == tkPunct && t.text == "(":
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return p.continueFilter(e)
	case t.kind == tkName:
		return p.parseNameLed()
	default:
		return nil, fmt.Errorf("xpath: unexpected token %q in %q", t.text, p.expr)
	}
}

// parseNameLed disambiguates, at a name token, between a function call
// ("count(" ), an axis-qualified step ("child::foo"), and a bare
// relative location path starting with a name test ("foo/bar").
func (p *parser) parseNameLed() (Expr, error) {
	save := p.pos
	name := p.advance().text
	switch {
	case p.isPunct("("):
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		call := &FuncCall{Name: name, Args: args}
		return p.continueFilter(call)
	case p.isPunct("::"):
		p.pos = save
		steps, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		return &PathExpr{Steps: steps}, nil
	default:
		p.pos = save
		steps, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		return &PathExpr{Steps: steps}, nil
	}
}

// continueFilter handles the optional "/ RelativeLocationPath" tail of
// a FilterExpr, e.g. "current()/../foo" or "deref(x)/../y".
func (p *parser) continueFilter(primary Expr) (Expr, error) {
	if !(p.isPunct("/") || p.isPunct("//")) {
		return primary, nil
	}
	leading := p.advance().text
	steps, err := p.parseRelativeLocationPath()
	if err != nil {
		return nil, err
	}
	if leading == "//" {
		steps = append([]Step{{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}}}, steps...)
	}
	return &PathExpr{Filter: primary, Steps: steps}, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	if p.isPunct(")") {
		p.advance()
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseAbsoluteLocationPath() (Expr, error) {
	leading := p.advance().text // "/" or "//"
	path := &PathExpr{Absolute: true}
	if leading == "//" {
		path.Steps = append(path.Steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}})
	}
	if p.atStepStart() {
		rest, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		path.Steps = append(path.Steps, rest...)
	}
	return path, nil
}

func (p *parser) atStepStart() bool {
	t := p.peek()
	if t.kind == tkName {
		return true
	}
	if t.kind == tkPunct {
		switch t.text {
		case ".", "..", "@", "*":
			return true
		}
	}
	return false
}

func (p *parser) parseRelativeLocationPath() ([]Step, error) {
	var steps []Step
	s, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, s)
	for p.isPunct("/") || p.isPunct("//") {
		leading := p.advance().text
		if leading == "//" {
			steps = append(steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNode}})
		}
		s, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

var axisNames = map[string]Axis{
	"child":              AxisChild,
	"parent":              AxisParent,
	"self":                AxisSelf,
	"descendant":          AxisDescendant,
	"descendant-or-self":  AxisDescendantOrSelf,
	"attribute":           AxisAttribute,
}

func (p *parser) parseStep() (Step, error) {
	if p.isPunct(".") {
		p.advance()
		return Step{Axis: AxisSelf, Test: NodeTest{Kind: TestNode}}, nil
	}
	if p.isPunct("..") {
		p.advance()
		return Step{Axis: AxisParent, Test: NodeTest{Kind: TestNode}}, nil
	}
	axis := AxisChild
	if p.isPunct("@") {
		p.advance()
		axis = AxisAttribute
	} else if p.peek().kind == tkName {
		save := p.pos
		name := p.advance().text
		if p.isPunct("::") {
			p.advance()
			a, ok := axisNames[name]
			if !ok {
				return Step{}, fmt.Errorf("xpath: unknown axis %q", name)
			}
			axis = a
		} else {
			p.pos = save
		}
	}
	test, err := p.parseNodeTest()
	if err != nil {
		return Step{}, err
	}
	var preds []Expr
	for p.isPunct("[") {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return Step{}, err
		}
		if err := p.expectPunct("]"); err != nil {
			return Step{}, err
		}
		preds = append(preds, e)
	}
	return Step{Axis: axis, Test: test, Predicates: preds}, nil
}

func (p *parser) parseNodeTest() (NodeTest, error) {
	if p.isPunct("*") {
		p.advance()
		return NodeTest{Kind: TestWildcard}, nil
	}
	if p.peek().kind != tkName {
		return NodeTest{}, fmt.Errorf("xpath: expected node test, got %q in %q", p.peek().text, p.expr)
	}
	first := p.advance().text
	if first == "node" && p.isPunct("(") {
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{Kind: TestNode}, nil
	}
	if !p.isPunct(":") {
		return NodeTest{Kind: TestName, Local: first}, nil
	}
	p.advance()
	if p.isPunct("*") {
		p.advance()
		return NodeTest{Kind: TestPrefixWildcard, Prefix: first}, nil
	}
	if p.peek().kind != tkName {
		return NodeTest{}, fmt.Errorf("xpath: expected name after %q: in %q", first, p.expr)
	}
	local := p.advance().text
	return NodeTest{Kind: TestName, Prefix: first, Local: local}, nil
}
