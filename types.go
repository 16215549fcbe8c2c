package yangkit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/openconfig/ygot/util"
)

// TypeErrorKind classifies a type-engine failure, per spec.md §4.E.
type TypeErrorKind int

const (
	ErrSyntax TypeErrorKind = iota
	ErrOutOfRange
	ErrOutOfLength
	ErrPatternMismatch
	ErrUnknownEnumOrBit
	ErrUnknownIdentity
	ErrMissingInstance
	ErrUnionNoMatch
)

func (k TypeErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntactic"
	case ErrOutOfRange:
		return "out-of-range"
	case ErrOutOfLength:
		return "out-of-length"
	case ErrPatternMismatch:
		return "pattern-mismatch"
	case ErrUnknownEnumOrBit:
		return "unknown-enum-or-bit"
	case ErrUnknownIdentity:
		return "unknown-identity"
	case ErrMissingInstance:
		return "missing-instance"
	case ErrUnionNoMatch:
		return "union-no-match"
	default:
		return "unknown"
	}
}

// TypeError is what Store returns for a value that does not satisfy
// its restrictions.
type TypeError struct {
	Kind  TypeErrorKind
	Type  string
	Value string
	Msg   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: value %q does not satisfy type %q: %s", e.Kind, e.Value, e.Type, e.Msg)
}

func typeErr(kind TypeErrorKind, t *yang.YangType, value, msg string, args ...interface{}) *TypeError {
	name := ""
	if t != nil {
		name = t.Name
	}
	return &TypeError{Kind: kind, Type: name, Value: value, Msg: fmt.Sprintf(msg, args...)}
}

// TypedValue is a validated, typed leaf/leaf-list value: the four
// type-engine operations spec.md §4.E names (Store, Compare, Duplicate,
// Print) all operate on this representation rather than on raw
// strings, so a value is validated exactly once.
type TypedValue struct {
	Type *yang.YangType
	// Canonical is the type's canonical lexical representation,
	// produced once at Store time and reused by Print.
	Canonical string
	// Num backs ordered Compare for every numeric kind (decimal64 holds
	// its parsed value, not scaled by fraction-digits). Large 64-bit integers
	// lose precision here past 2^53; an exact-integer comparator would
	// need a big.Int-backed TypedValue, which spec.md does not require.
	Num float64
}

// Store validates s against t's restrictions and returns the typed
// value, or a *TypeError.
func Store(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	if t == nil {
		return nil, typeErr(ErrSyntax, t, s, "no type information")
	}
	switch t.Kind {
	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64:
		return storeInt(t, s)
	case yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64:
		return storeUint(t, s)
	case yang.Ydecimal64:
		return storeDecimal(t, s)
	case yang.Ystring:
		return storeString(t, s)
	case yang.Ybool:
		return storeBool(t, s)
	case yang.Yenum:
		return storeEnum(t, s)
	case yang.Ybits:
		return storeBits(t, s)
	case yang.Yempty:
		return &TypedValue{Type: t, Canonical: ""}, nil
	case yang.Ybinary:
		return storeString(t, s) // base64 text, length-restricted like a string
	case yang.Yidentityref:
		return storeIdentity(t, s)
	case yang.Yleafref:
		return storeString(t, s) // leafref target-type validation happens at the validator layer
	case yang.YinstanceIdentifier:
		return storeString(t, s) // syntax only; resolution is a validator concern
	case yang.Yunion:
		return storeUnion(t, s)
	default:
		return storeString(t, s)
	}
}

func storeInt(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	bits := bitSizeOf(t.Kind)
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, typeErr(ErrOutOfRange, t, s, "outside the %s value space", t.Name)
		}
		return nil, typeErr(ErrSyntax, t, s, "not a valid %s: %v", t.Name, err)
	}
	if !rangeAllows(t, float64(v)) {
		return nil, typeErr(ErrOutOfRange, t, s, "outside declared range")
	}
	return &TypedValue{Type: t, Canonical: strconv.FormatInt(v, 10), Num: float64(v)}, nil
}

func storeUint(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	bits := bitSizeOf(t.Kind)
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return nil, typeErr(ErrSyntax, t, s, "not a valid %s: %v", t.Name, err)
	}
	if !rangeAllows(t, float64(v)) {
		return nil, typeErr(ErrOutOfRange, t, s, "outside declared range")
	}
	return &TypedValue{Type: t, Canonical: strconv.FormatUint(v, 10), Num: float64(v)}, nil
}

func bitSizeOf(k yang.TypeKind) int {
	switch k {
	case yang.Yint8, yang.Yuint8:
		return 8
	case yang.Yint16, yang.Yuint16:
		return 16
	case yang.Yint32, yang.Yuint32:
		return 32
	default:
		return 64
	}
}

func storeDecimal(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, typeErr(ErrSyntax, t, s, "not a valid decimal64: %v", err)
	}
	fd := t.FractionDigits
	if !rangeAllows(t, f) {
		return nil, typeErr(ErrOutOfRange, t, s, "outside declared range")
	}
	canonical := strconv.FormatFloat(f, 'f', fd, 64)
	return &TypedValue{Type: t, Canonical: canonical, Num: f}, nil
}

func storeString(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	if !lengthAllows(t, len([]rune(s))) {
		return nil, typeErr(ErrOutOfLength, t, s, "outside declared length")
	}
	patterns, _ := util.SanitizedPattern(t)
	for _, pat := range patterns {
		if matched, err := regexpMatch(pat, s); err == nil && !matched {
			return nil, typeErr(ErrPatternMismatch, t, s, "does not match pattern %q", pat)
		}
	}
	return &TypedValue{Type: t, Canonical: s}, nil
}

func storeBool(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	switch strings.TrimSpace(s) {
	case "true":
		return &TypedValue{Type: t, Canonical: "true", Num: 1}, nil
	case "false":
		return &TypedValue{Type: t, Canonical: "false", Num: 0}, nil
	default:
		return nil, typeErr(ErrSyntax, t, s, "boolean must be 'true' or 'false'")
	}
}

func storeEnum(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	if t.Enum == nil {
		return nil, typeErr(ErrUnknownEnumOrBit, t, s, "enumeration has no members")
	}
	if !t.Enum.IsDefined(s) {
		return nil, typeErr(ErrUnknownEnumOrBit, t, s, "not a declared enum member")
	}
	return &TypedValue{Type: t, Canonical: s, Num: float64(t.Enum.Value(s))}, nil
}

// storeBits canonicalizes a bits value into ascending position order
// (RFC 7950 §9.7.4: the canonical form lists bits by assigned position,
// not the order they appear in s), and rejects a name repeated in s.
// Bit.Names() sorts alphabetically, not by position, so it is only used
// here for the membership check; ordering walks Bit.Values() instead.
func storeBits(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	if t.Bit == nil {
		return nil, typeErr(ErrUnknownEnumOrBit, t, s, "bits type has no members")
	}
	fields := strings.Fields(s)
	known := map[string]bool{}
	for _, name := range t.Bit.Names() {
		known[name] = true
	}
	set := map[string]bool{}
	for _, f := range fields {
		if !known[f] {
			return nil, typeErr(ErrUnknownEnumOrBit, t, s, "%q is not a declared bit", f)
		}
		if set[f] {
			return nil, typeErr(ErrUnknownEnumOrBit, t, s, "duplicate bit %q", f)
		}
		set[f] = true
	}
	var ordered []string
	for _, value := range t.Bit.Values() {
		name := t.Bit.Name(value)
		if set[name] {
			ordered = append(ordered, name)
		}
	}
	return &TypedValue{Type: t, Canonical: strings.Join(ordered, " ")}, nil
}

func storeIdentity(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	// yangkit builds no identity closure, so s is not checked against
	// known identities or this leaf's identityref base: any non-empty
	// value is stored as given.
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, typeErr(ErrUnknownIdentity, t, s, "empty identityref")
	}
	return &TypedValue{Type: t, Canonical: s}, nil
}

func storeUnion(t *yang.YangType, s string) (*TypedValue, *TypeError) {
	var lastErr *TypeError
	for _, member := range t.Type {
		v, err := Store(member, s)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, typeErr(ErrUnionNoMatch, t, s, "matched no union member (last: %v)", lastErr)
	}
	return nil, typeErr(ErrUnionNoMatch, t, s, "union has no member types")
}

func rangeAllows(t *yang.YangType, v float64) bool {
	if t.Range == nil || len(t.Range) == 0 {
		return true
	}
	for _, r := range t.Range {
		lo, hi := numberToFloat(r.Min), numberToFloat(r.Max)
		if v >= lo && v <= hi {
			return true
		}
	}
	return false
}

func lengthAllows(t *yang.YangType, n int) bool {
	if t.Length == nil || len(t.Length) == 0 {
		return true
	}
	for _, r := range t.Length {
		lo, hi := numberToFloat(r.Min), numberToFloat(r.Max)
		if float64(n) >= lo && float64(n) <= hi {
			return true
		}
	}
	return false
}

func numberToFloat(n yang.Number) float64 {
	switch n.Kind {
	case yang.MinNumber:
		return -math.MaxFloat64
	case yang.MaxNumber:
		return math.MaxFloat64
	}
	f := float64(n.Value)
	for i := uint8(0); i < n.FractionDigits; i++ {
		f /= 10
	}
	if n.Kind == yang.Negative {
		f = -f
	}
	return f
}

func regexpMatch(pattern, s string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// Compare orders two typed values of the same declared type. Numeric
// kinds compare by value and enumerations by assigned value; everything
// else compares lexically on the
// canonical string, which is what RFC 7950 "unique"/list-key ordering
// and leaf-list duplicate detection need.
func Compare(a, b *TypedValue) int {
	if isNumericKind(a.Type.Kind) {
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.Canonical, b.Canonical)
}

func isNumericKind(k yang.TypeKind) bool {
	switch k {
	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64,
		yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64,
		yang.Ydecimal64, yang.Yenum:
		return true
	default:
		return false
	}
}

// Duplicate returns an independent copy of v; TypedValue holds no
// shared mutable state today, but callers (leaf-list element storage)
// rely on this boundary rather than aliasing a schema-owned value.
func Duplicate(v *TypedValue) *TypedValue {
	cp := *v
	return &cp
}

// Print renders v's canonical lexical representation, e.g. for XML/
// JSON encoding.
func Print(v *TypedValue) string { return v.Canonical }
