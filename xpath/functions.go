package xpath

import (
	"fmt"
	"regexp"
	"strings"
)

// Func is the signature every XPath/YANG function implementation has.
// Arguments are evaluated to Values by the caller before Func runs;
// node-set-returning argument expressions (e.g. the sole argument to
// count()) arrive as a Value of Kind NodeSet.
type Func func(ctx *Context, args []Value) (Value, error)

// FunctionTable maps a function's local name to its implementation.
// Context.Functions (xpath/model.go) lets a caller add or override
// entries without touching this package; Eval consults the context's
// table first and falls back to defaultFunctions.
type FunctionTable map[string]Func

func lookupFunc(ctx *Context, name string) (Func, bool) {
	if ctx.Functions != nil {
		if f, ok := ctx.Functions[name]; ok {
			return f, true
		}
	}
	f, ok := defaultFunctions[name]
	return f, ok
}

// defaultFunctions holds the pure XPath 1.0 core plus the handful of
// YANG additions (current, re-match) that need no schema/identity
// lookup. The identity- and type-aware YANG functions (deref,
// derived-from[-or-self], enum-value, bit-is-set) have no schema-free
// implementation: a caller that needs them registers them on
// Context.Functions. Package yangkit registers none of them.
var defaultFunctions = FunctionTable{
	"position": func(ctx *Context, args []Value) (Value, error) {
		return Value{Kind: KindNumber, Num: float64(ctx.ContextPosition)}, nil
	},
	"last": func(ctx *Context, args []Value) (Value, error) {
		return Value{Kind: KindNumber, Num: float64(ctx.ContextSize)}, nil
	},
	"count": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindNodeSet {
			return Value{}, fmt.Errorf("xpath: count() requires one node-set argument")
		}
		return Value{Kind: KindNumber, Num: float64(len(args[0].Nodes))}, nil
	},
	"current": func(ctx *Context, args []Value) (Value, error) {
		return Value{Kind: KindNodeSet, Nodes: []NodeModel{ctx.Current}}, nil
	},
	"name": func(ctx *Context, args []Value) (Value, error) {
		n := contextOrFirst(ctx, args)
		if n == nil {
			return Value{Kind: KindString, Str: ""}, nil
		}
		return Value{Kind: KindString, Str: n.Name()}, nil
	},
	"local-name": func(ctx *Context, args []Value) (Value, error) {
		n := contextOrFirst(ctx, args)
		if n == nil {
			return Value{Kind: KindString, Str: ""}, nil
		}
		return Value{Kind: KindString, Str: n.Name()}, nil
	},
	"namespace-uri": func(ctx *Context, args []Value) (Value, error) {
		n := contextOrFirst(ctx, args)
		if n == nil {
			return Value{Kind: KindString, Str: ""}, nil
		}
		return Value{Kind: KindString, Str: n.NamespaceURI()}, nil
	},
	"string": func(ctx *Context, args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{Kind: KindString, Str: ctx.Current.StringValue()}, nil
		}
		return Value{Kind: KindString, Str: args[0].ToString()}, nil
	},
	"number": func(ctx *Context, args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{Kind: KindNumber, Num: stringToNumber(ctx.Current.StringValue())}, nil
		}
		return Value{Kind: KindNumber, Num: args[0].ToNumber()}, nil
	},
	"boolean": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("xpath: boolean() requires one argument")
		}
		return Value{Kind: KindBoolean, Bool: args[0].ToBoolean()}, nil
	},
	"not": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("xpath: not() requires one argument")
		}
		return Value{Kind: KindBoolean, Bool: !args[0].ToBoolean()}, nil
	},
	"true": func(ctx *Context, args []Value) (Value, error) {
		return Value{Kind: KindBoolean, Bool: true}, nil
	},
	"false": func(ctx *Context, args []Value) (Value, error) {
		return Value{Kind: KindBoolean, Bool: false}, nil
	},
	"starts-with": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("xpath: starts-with() requires two arguments")
		}
		return Value{Kind: KindBoolean, Bool: strings.HasPrefix(args[0].ToString(), args[1].ToString())}, nil
	},
	"contains": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("xpath: contains() requires two arguments")
		}
		return Value{Kind: KindBoolean, Bool: strings.Contains(args[0].ToString(), args[1].ToString())}, nil
	},
	"substring-before": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("xpath: substring-before() requires two arguments")
		}
		s, sep := args[0].ToString(), args[1].ToString()
		if i := strings.Index(s, sep); i >= 0 {
			return Value{Kind: KindString, Str: s[:i]}, nil
		}
		return Value{Kind: KindString, Str: ""}, nil
	},
	"substring-after": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("xpath: substring-after() requires two arguments")
		}
		s, sep := args[0].ToString(), args[1].ToString()
		if i := strings.Index(s, sep); i >= 0 {
			return Value{Kind: KindString, Str: s[i+len(sep):]}, nil
		}
		return Value{Kind: KindString, Str: ""}, nil
	},
	"substring": func(ctx *Context, args []Value) (Value, error) {
		if len(args) < 2 || len(args) > 3 {
			return Value{}, fmt.Errorf("xpath: substring() requires two or three arguments")
		}
		s := []rune(args[0].ToString())
		start := round(args[1].ToNumber())
		length := len(s) - start + 1
		if len(args) == 3 {
			length = round(args[2].ToNumber())
		}
		lo, hi := start, start+length
		if lo < 1 {
			lo = 1
		}
		if hi > len(s)+1 {
			hi = len(s) + 1
		}
		if lo >= hi || lo > len(s) {
			return Value{Kind: KindString, Str: ""}, nil
		}
		return Value{Kind: KindString, Str: string(s[lo-1 : hi-1])}, nil
	},
	"string-length": func(ctx *Context, args []Value) (Value, error) {
		s := ctx.Current.StringValue()
		if len(args) == 1 {
			s = args[0].ToString()
		}
		return Value{Kind: KindNumber, Num: float64(len([]rune(s)))}, nil
	},
	"normalize-space": func(ctx *Context, args []Value) (Value, error) {
		s := ctx.Current.StringValue()
		if len(args) == 1 {
			s = args[0].ToString()
		}
		return Value{Kind: KindString, Str: strings.Join(strings.Fields(s), " ")}, nil
	},
	"translate": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 3 {
			return Value{}, fmt.Errorf("xpath: translate() requires three arguments")
		}
		src, from, to := []rune(args[0].ToString()), []rune(args[1].ToString()), []rune(args[2].ToString())
		var out []rune
		for _, c := range src {
			idx := -1
			for i, f := range from {
				if f == c {
					idx = i
					break
				}
			}
			switch {
			case idx < 0:
				out = append(out, c)
			case idx < len(to):
				out = append(out, to[idx])
			}
		}
		return Value{Kind: KindString, Str: string(out)}, nil
	},
	"concat": func(ctx *Context, args []Value) (Value, error) {
		if len(args) < 2 {
			return Value{}, fmt.Errorf("xpath: concat() requires at least two arguments")
		}
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.ToString())
		}
		return Value{Kind: KindString, Str: b.String()}, nil
	},
	"sum": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindNodeSet {
			return Value{}, fmt.Errorf("xpath: sum() requires one node-set argument")
		}
		var total float64
		for _, n := range args[0].Nodes {
			total += stringToNumber(n.StringValue())
		}
		return Value{Kind: KindNumber, Num: total}, nil
	},
	// re-match(string, pattern) implements the YANG "pattern" regular
	// expression subset via the stdlib regexp package (XSD-subset
	// patterns are close enough to RE2 for the common anchored case;
	// full XSD-regex translation lives with the type engine, not here).
	"re-match": func(ctx *Context, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("xpath: re-match() requires two arguments")
		}
		re, err := regexp.Compile(args[1].ToString())
		if err != nil {
			return Value{}, fmt.Errorf("xpath: re-match(): %w", err)
		}
		return Value{Kind: KindBoolean, Bool: re.MatchString(args[0].ToString())}, nil
	},
}

func contextOrFirst(ctx *Context, args []Value) NodeModel {
	if len(args) == 0 {
		return ctx.Current
	}
	if args[0].Kind == KindNodeSet && len(args[0].Nodes) > 0 {
		return args[0].Nodes[0]
	}
	return nil
}

func round(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
