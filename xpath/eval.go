package xpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/gval"
)

// Kind is one of the four XPath 1.0 value types.
type Kind int

const (
	KindNodeSet Kind = iota
	KindString
	KindNumber
	KindBoolean
)

// Value is the tagged union XPath 1.0 evaluation produces and consumes.
type Value struct {
	Kind  Kind
	Nodes []NodeModel
	Str   string
	Num   float64
	Bool  bool
}

func (v Value) ToBoolean() bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case KindString:
		return len(v.Str) > 0
	case KindNodeSet:
		return len(v.Nodes) > 0
	default:
		return false
	}
}

func (v Value) ToNumber() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case KindString:
		return stringToNumber(v.Str)
	case KindNodeSet:
		return stringToNumber(v.ToString())
	default:
		return math.NaN()
	}
}

func (v Value) ToString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return formatNumber(v.Num)
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNodeSet:
		if len(v.Nodes) == 0 {
			return ""
		}
		return v.Nodes[0].StringValue()
	default:
		return ""
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// Eval evaluates expr against ctx. The arithmetic and comparison
// operators are handed to gval once their operands are scalars; "or"
// and "and" short-circuit here and "|" unions node-sets here, without
// gval. The XPath-specific parts are the node-set axis/predicate walk
// and the coercion rules that decide WHICH gval expression and
// argument types to build.
func Eval(expr Expr, ctx *Context) (Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return Value{Kind: KindNumber, Num: e.Value}, nil
	case *StringLit:
		return Value{Kind: KindString, Str: e.Value}, nil
	case *UnaryExpr:
		x, err := Eval(e.X, ctx)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindNumber, Num: -x.ToNumber()}, nil
	case *FuncCall:
		return evalFuncCall(ctx, e)
	case *BinaryExpr:
		return evalBinary(ctx, e)
	case *PathExpr:
		return evalPath(ctx, e)
	default:
		return Value{}, fmt.Errorf("xpath: unhandled expression node %T", expr)
	}
}

func evalFuncCall(ctx *Context, e *FuncCall) (Value, error) {
	f, ok := lookupFunc(ctx, e.Name)
	if !ok {
		return Value{}, fmt.Errorf("xpath: unknown function %q", e.Name)
	}
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := Eval(a, ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return f(ctx, args)
}

func evalBinary(ctx *Context, e *BinaryExpr) (Value, error) {
	switch e.Op {
	case "or":
		l, err := Eval(e.L, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.ToBoolean() {
			return Value{Kind: KindBoolean, Bool: true}, nil
		}
		r, err := Eval(e.R, ctx)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBoolean, Bool: r.ToBoolean()}, nil
	case "and":
		l, err := Eval(e.L, ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.ToBoolean() {
			return Value{Kind: KindBoolean, Bool: false}, nil
		}
		r, err := Eval(e.R, ctx)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBoolean, Bool: r.ToBoolean()}, nil
	case "|":
		l, err := Eval(e.L, ctx)
		if err != nil {
			return Value{}, err
		}
		r, err := Eval(e.R, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.Kind != KindNodeSet || r.Kind != KindNodeSet {
			return Value{}, fmt.Errorf("xpath: '|' requires node-set operands")
		}
		return Value{Kind: KindNodeSet, Nodes: append(append([]NodeModel{}, l.Nodes...), r.Nodes...)}, nil
	}

	l, err := Eval(e.L, ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := Eval(e.R, ctx)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case "=", "!=", "<", "<=", ">", ">=":
		if l.Kind == KindNodeSet || r.Kind == KindNodeSet {
			return compareWithNodeSet(e.Op, l, r)
		}
		return compareScalar(e.Op, l, r)
	case "+", "-", "*", "div", "mod":
		return evalArithmetic(e.Op, l.ToNumber(), r.ToNumber())
	default:
		return Value{}, fmt.Errorf("xpath: unknown operator %q", e.Op)
	}
}

var gvalArithOp = map[string]string{"div": "/", "mod": "%"}
var gvalCompareOp = map[string]string{"=": "==", "!=": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">="}

// evalArithmetic hands addition/subtraction/multiplication/div/mod off
// to gval once both operands are plain float64s.
func evalArithmetic(op string, lv, rv float64) (Value, error) {
	gop, ok := gvalArithOp[op]
	if !ok {
		gop = op
	}
	res, err := gval.Evaluate(fmt.Sprintf("l %s r", gop), map[string]interface{}{"l": lv, "r": rv})
	if err != nil {
		return Value{}, fmt.Errorf("xpath: arithmetic %q: %w", op, err)
	}
	f, ok := res.(float64)
	if !ok {
		return Value{}, fmt.Errorf("xpath: arithmetic %q produced non-numeric result", op)
	}
	return Value{Kind: KindNumber, Num: f}, nil
}

// compareScalar implements the XPath 1.0 coercion rules for comparing
// two non-node-set values, then hands the actual comparison to gval
// once both sides share a representation (bool, float64, or string).
func compareScalar(op string, l, r Value) (Value, error) {
	if op != "=" && op != "!=" {
		return evalCompareNumeric(op, l.ToNumber(), r.ToNumber())
	}
	switch {
	case l.Kind == KindBoolean || r.Kind == KindBoolean:
		return evalCompareGval(gvalCompareOp[op], l.ToBoolean(), r.ToBoolean())
	case l.Kind == KindNumber || r.Kind == KindNumber:
		return evalCompareNumeric(op, l.ToNumber(), r.ToNumber())
	default:
		return evalCompareGval(gvalCompareOp[op], l.ToString(), r.ToString())
	}
}

func evalCompareNumeric(op string, lv, rv float64) (Value, error) {
	return evalCompareGval(gvalCompareOp[op], lv, rv)
}

func evalCompareGval(gop string, l, r interface{}) (Value, error) {
	res, err := gval.Evaluate(fmt.Sprintf("l %s r", gop), map[string]interface{}{"l": l, "r": r})
	if err != nil {
		return Value{}, fmt.Errorf("xpath: comparison: %w", err)
	}
	b, ok := res.(bool)
	if !ok {
		return Value{}, fmt.Errorf("xpath: comparison produced non-boolean result")
	}
	return Value{Kind: KindBoolean, Bool: b}, nil
}

// compareWithNodeSet implements XPath 1.0's existential node-set
// comparison rule: true if any member of the node-set, converted to
// the other operand's type, compares true against it.
func compareWithNodeSet(op string, l, r Value) (Value, error) {
	if l.Kind == KindNodeSet && r.Kind == KindNodeSet {
		for _, ln := range l.Nodes {
			for _, rn := range r.Nodes {
				ok, err := compareScalar(op, Value{Kind: KindString, Str: ln.StringValue()}, Value{Kind: KindString, Str: rn.StringValue()})
				if err != nil {
					return Value{}, err
				}
				if ok.Bool {
					return Value{Kind: KindBoolean, Bool: true}, nil
				}
			}
		}
		return Value{Kind: KindBoolean, Bool: false}, nil
	}
	ns, other, nsIsLeft := l, r, true
	if other.Kind == KindNodeSet {
		ns, other, nsIsLeft = r, l, false
	}
	for _, n := range ns.Nodes {
		var sv Value
		switch other.Kind {
		case KindNumber:
			sv = Value{Kind: KindNumber, Num: stringToNumber(n.StringValue())}
		case KindBoolean:
			sv = Value{Kind: KindBoolean, Bool: n.StringValue() != ""}
		default:
			sv = Value{Kind: KindString, Str: n.StringValue()}
		}
		var res Value
		var err error
		if nsIsLeft {
			res, err = compareScalar(op, sv, other)
		} else {
			res, err = compareScalar(op, other, sv)
		}
		if err != nil {
			return Value{}, err
		}
		if res.Bool {
			return Value{Kind: KindBoolean, Bool: true}, nil
		}
	}
	return Value{Kind: KindBoolean, Bool: false}, nil
}

func evalPath(ctx *Context, p *PathExpr) (Value, error) {
	var start []NodeModel
	switch {
	case p.Filter != nil:
		fv, err := Eval(p.Filter, ctx)
		if err != nil {
			return Value{}, err
		}
		if fv.Kind != KindNodeSet {
			return Value{}, fmt.Errorf("xpath: filter expression did not evaluate to a node-set")
		}
		start = fv.Nodes
	case p.Absolute:
		start = []NodeModel{ctx.Root}
	default:
		start = []NodeModel{ctx.Current}
	}

	nodes := start
	for _, step := range p.Steps {
		var err error
		nodes, err = evalStep(ctx, nodes, step)
		if err != nil {
			return Value{}, err
		}
	}
	return Value{Kind: KindNodeSet, Nodes: nodes}, nil
}

func evalStep(ctx *Context, nodes []NodeModel, step Step) ([]NodeModel, error) {
	var candidates []NodeModel
	for _, n := range nodes {
		candidates = append(candidates, axisNodes(n, step.Axis)...)
	}
	var filtered []NodeModel
	for _, n := range candidates {
		if nodeTestMatches(ctx, n, step.Test) {
			filtered = append(filtered, n)
		}
	}
	var err error
	for _, pred := range step.Predicates {
		filtered, err = applyPredicate(ctx, filtered, pred)
		if err != nil {
			return nil, err
		}
	}
	return filtered, nil
}

func axisNodes(n NodeModel, axis Axis) []NodeModel {
	switch axis {
	case AxisChild:
		var out []NodeModel
		it := n.Children()
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, c)
		}
		return out
	case AxisParent:
		if p := n.Parent(); p != nil {
			return []NodeModel{p}
		}
		return nil
	case AxisSelf:
		return []NodeModel{n}
	case AxisDescendant:
		return descendants(n, false)
	case AxisDescendantOrSelf:
		return descendants(n, true)
	case AxisAttribute:
		var out []NodeModel
		it := n.Attributes()
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, c)
		}
		return out
	default:
		return nil
	}
}

func descendants(n NodeModel, includeSelf bool) []NodeModel {
	var out []NodeModel
	if includeSelf {
		out = append(out, n)
	}
	it := n.Children()
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, descendants(c, true)...)
	}
	return out
}

func nodeTestMatches(ctx *Context, n NodeModel, test NodeTest) bool {
	switch test.Kind {
	case TestNode, TestWildcard:
		return true
	case TestPrefixWildcard:
		if ctx.Resolver == nil {
			return false
		}
		uri, ok := ctx.Resolver(test.Prefix)
		return ok && n.NamespaceURI() == uri
	case TestName:
		if test.Prefix == "" {
			return n.Name() == test.Local
		}
		if ctx.Resolver == nil {
			return false
		}
		uri, ok := ctx.Resolver(test.Prefix)
		return ok && n.NamespaceURI() == uri && n.Name() == test.Local
	default:
		return false
	}
}

func applyPredicate(ctx *Context, nodes []NodeModel, pred Expr) ([]NodeModel, error) {
	var result []NodeModel
	for i, n := range nodes {
		child := ctx.child()
		child.Current = n
		child.ContextPosition = i + 1
		child.ContextSize = len(nodes)
		v, err := Eval(pred, child)
		if err != nil {
			return nil, err
		}
		var keep bool
		if v.Kind == KindNumber {
			keep = float64(i+1) == v.Num
		} else {
			keep = v.ToBoolean()
		}
		if keep {
			result = append(result, n)
		}
	}
	return result, nil
}
