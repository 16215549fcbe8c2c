package dictionary

import "testing"

func TestInternUniqueness(t *testing.T) {
	d := New()
	a := d.Insert([]byte("interface"))
	b := d.Insert([]byte("interface"))
	if a != b {
		t.Fatalf("two interns of the same bytes produced different handles: %v != %v", a, b)
	}
	if d.RefCount(a) != 2 {
		t.Fatalf("expected refcount 2 after two inserts, got %d", d.RefCount(a))
	}
}

func TestLeakFree(t *testing.T) {
	d := New()
	h := d.Insert([]byte("name"))
	d.Insert([]byte("name"))
	d.Remove(h)
	if d.Len() != 1 {
		t.Fatalf("entry freed too early: Len()=%d", d.Len())
	}
	d.Remove(h)
	if d.Len() != 0 {
		t.Fatalf("entry not freed after matching removes: Len()=%d", d.Len())
	}
	if _, ok := d.Lookup([]byte("name")); ok {
		t.Fatalf("lookup found a freed entry")
	}
}

func TestDistinctStrings(t *testing.T) {
	d := New()
	a := d.Insert([]byte("foo"))
	b := d.Insert([]byte("foobar"))
	if a == b {
		t.Fatalf("distinct strings interned to the same handle")
	}
	if d.String(a) != "foo" || d.String(b) != "foobar" {
		t.Fatalf("String() did not round-trip: %q %q", d.String(a), d.String(b))
	}
}
