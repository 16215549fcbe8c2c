// Package dictionary implements the interned-string store described in
// spec component A: every schema identifier and repeated literal is
// stored once per Dictionary and referred to by a Handle, so that
// identifier equality becomes pointer (handle) equality.
package dictionary

import (
	"sync"

	"github.com/derekparker/trie"
)

// Handle identifies one interned string. Handles are only comparable
// within the Dictionary that produced them.
type Handle int

// zero is never a valid handle; it is returned on lookup misses.
const zero Handle = 0

type entry struct {
	key      string
	refcount int
}

// Dictionary interns byte strings. The lookup index is a byte-trie
// (github.com/derekparker/trie) keyed on the string bytes; the trie's
// leaf value is the Handle. Only exact-key lookup is exposed; there is
// no prefix-query method. Every method takes an internal mutex, so
// concurrent calls from several goroutines are serialized.
type Dictionary struct {
	mu      sync.Mutex
	index   *trie.Trie
	entries map[Handle]*entry
	next    Handle
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{
		index:   trie.New(),
		entries: make(map[Handle]*entry),
		next:    1,
	}
}

// Insert interns a copy of b and returns its Handle. Interning the same
// bytes twice returns the same Handle (testable property 1) and bumps
// the refcount instead of allocating a new entry.
func (d *Dictionary) Insert(b []byte) Handle {
	return d.insert(string(b))
}

// InsertZC is the ownership-taking variant of Insert: the caller hands b
// over and must not reuse it. The bytes are still copied into the
// interned string, exactly as Insert does; on a duplicate b is dropped
// and the prior storage reused.
func (d *Dictionary) InsertZC(b []byte) Handle {
	return d.insert(string(b))
}

func (d *Dictionary) insert(s string) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if node, ok := d.index.Find(s); ok {
		h := node.Meta().(Handle)
		d.entries[h].refcount++
		return h
	}
	h := d.next
	d.next++
	d.entries[h] = &entry{key: s, refcount: 1}
	d.index.Add(s, h)
	return h
}

// Lookup returns the Handle for b without incrementing its refcount, and
// false if b has never been interned.
func (d *Dictionary) Lookup(b []byte) (Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node, ok := d.index.Find(string(b))
	if !ok {
		return zero, false
	}
	return node.Meta().(Handle), true
}

// String returns the interned string for h, or "" if h is unknown.
func (d *Dictionary) String(h Handle) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[h]
	if !ok {
		return ""
	}
	return e.key
}

// Remove drops one reference to h, freeing its storage when the last
// reference drops (spec §4.A: "frees when the last reference drops").
func (d *Dictionary) Remove(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[h]
	if !ok {
		return
	}
	e.refcount--
	if e.refcount <= 0 {
		delete(d.entries, h)
		d.index.Remove(e.key)
	}
}

// Len reports the number of live (non-freed) entries. Used by tests to
// check testable property 2 (leak-free after matched insert/remove).
func (d *Dictionary) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// RefCount reports the current refcount of h, or 0 if it is unknown.
func (d *Dictionary) RefCount(h Handle) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[h]
	if !ok {
		return 0
	}
	return e.refcount
}
