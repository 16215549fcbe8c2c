package yangkit

import (
	"testing"

	"github.com/openconfig/goyang/pkg/yang"
)

func TestStoreInt8Range(t *testing.T) {
	typ := &yang.YangType{
		Name: "int8",
		Kind: yang.Yint8,
		Range: yang.YangRange{
			{Min: yang.FromInt(0), Max: yang.FromInt(100)},
		},
	}
	if _, err := Store(typ, "50"); err != nil {
		t.Fatalf("Store(50): %v", err)
	}
	if _, err := Store(typ, "200"); err == nil {
		t.Fatalf("Store(200) should have failed range check")
	} else if err.Kind != ErrOutOfRange {
		t.Fatalf("got error kind %v, want ErrOutOfRange", err.Kind)
	}
}

func TestStoreInt64MaxRoundTrip(t *testing.T) {
	typ := &yang.YangType{Name: "int64", Kind: yang.Yint64}
	v, err := Store(typ, "9223372036854775807")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if Print(v) != "9223372036854775807" {
		t.Fatalf("Print() = %q", Print(v))
	}
}

func TestStoreStringPattern(t *testing.T) {
	typ := &yang.YangType{
		Name:    "ifname",
		Kind:    yang.Ystring,
		Pattern: []string{"eth[0-9]+"},
	}
	if _, err := Store(typ, "eth0"); err != nil {
		t.Fatalf("Store(eth0): %v", err)
	}
	if _, err := Store(typ, "gi0/1"); err == nil {
		t.Fatalf("Store(gi0/1) should have failed pattern check")
	}
}

func TestStoreBool(t *testing.T) {
	typ := &yang.YangType{Name: "boolean", Kind: yang.Ybool}
	v, err := Store(typ, "true")
	if err != nil {
		t.Fatalf("Store(true): %v", err)
	}
	if Print(v) != "true" {
		t.Fatalf("Print() = %q, want true", Print(v))
	}
	if _, err := Store(typ, "maybe"); err == nil {
		t.Fatalf("Store(maybe) should have failed")
	}
}

func TestStoreEnum(t *testing.T) {
	enum := yang.NewEnumType()
	enum.Set("up", 1)
	enum.Set("down", 2)
	typ := &yang.YangType{Name: "status", Kind: yang.Yenum, Enum: enum}
	v, err := Store(typ, "up")
	if err != nil {
		t.Fatalf("Store(up): %v", err)
	}
	if v.Num != 1 {
		t.Fatalf("enum value = %v, want 1", v.Num)
	}
	if _, err := Store(typ, "sideways"); err == nil {
		t.Fatalf("Store(sideways) should have failed")
	}
}

func TestCompareNumeric(t *testing.T) {
	typ := &yang.YangType{Name: "int32", Kind: yang.Yint32}
	a, _ := Store(typ, "5")
	b, _ := Store(typ, "10")
	if Compare(a, b) >= 0 {
		t.Fatalf("Compare(5, 10) should be negative")
	}
}

func TestDuplicateIndependence(t *testing.T) {
	typ := &yang.YangType{Name: "int32", Kind: yang.Yint32}
	a, _ := Store(typ, "5")
	b := Duplicate(a)
	b.Canonical = "mutated"
	if a.Canonical == "mutated" {
		t.Fatalf("Duplicate aliased the original value")
	}
}

func TestStoreBitsCanonicalOrderIgnoresInputOrder(t *testing.T) {
	bits := yang.NewBitfield()
	bits.Set("disable-nagle", 0)
	bits.Set("auto-sense-speed", 1)
	bits.Set("full-duplex", 2)
	typ := &yang.YangType{Name: "flags", Kind: yang.Ybits, Bit: bits}

	v, err := Store(typ, "full-duplex disable-nagle")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if v.Canonical != "disable-nagle full-duplex" {
		t.Fatalf("Canonical = %q, want %q", v.Canonical, "disable-nagle full-duplex")
	}
}

func TestStoreBitsRejectsDuplicate(t *testing.T) {
	bits := yang.NewBitfield()
	bits.Set("disable-nagle", 0)
	bits.Set("full-duplex", 1)
	typ := &yang.YangType{Name: "flags", Kind: yang.Ybits, Bit: bits}

	if _, err := Store(typ, "full-duplex full-duplex"); err == nil {
		t.Fatalf("Store with a repeated bit should have failed")
	} else if err.Kind != ErrUnknownEnumOrBit {
		t.Fatalf("got error kind %v, want ErrUnknownEnumOrBit", err.Kind)
	}
}

func TestStoreBitsRejectsUnknownMember(t *testing.T) {
	bits := yang.NewBitfield()
	bits.Set("disable-nagle", 0)
	typ := &yang.YangType{Name: "flags", Kind: yang.Ybits, Bit: bits}

	if _, err := Store(typ, "not-a-bit"); err == nil {
		t.Fatalf("Store with an undeclared bit should have failed")
	}
}

func TestStoreUnionFallsThroughMembers(t *testing.T) {
	typ := &yang.YangType{
		Name: "union",
		Kind: yang.Yunion,
		Type: []*yang.YangType{
			{Name: "int32", Kind: yang.Yint32},
			{Name: "string", Kind: yang.Ystring},
		},
	}
	v, err := Store(typ, "not-a-number")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if v.Type.Kind != yang.Ystring {
		t.Fatalf("union resolved to %v, want Ystring", v.Type.Kind)
	}
}
