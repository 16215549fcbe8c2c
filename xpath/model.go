// Package xpath implements the YANG subset of XPath 1.0 described in
// spec component B: location paths over the child/parent/self/descendant/
// descendant-or-self axes, predicates with arithmetic/logical/comparison
// operators over the four XPath types, and the function subset required
// by YANG 1.1 when/must/leafref/unique/key expressions.
//
// The evaluator is parameterized by the NodeModel adapter (spec §9's
// "evaluator trait parameterized by a node-model adapter") so the same
// Eval can run over a compiled schema tree (Mode SchemaOnly) and over a
// data tree (Mode Data). Package yangkit evaluates only in Mode Data,
// for when/must/leafref during validation; it runs no compile-time
// typecheck of paths in Mode SchemaOnly.
package xpath

// Mode selects which tree an evaluation runs over.
type Mode int

const (
	// SchemaOnly evaluates over the compiled schema tree only. Nothing
	// in package yangkit evaluates in this mode.
	SchemaOnly Mode = iota
	// Data evaluates over a data tree.
	Data
)

// NodeModel is the adapter a concrete tree (schema or data) must satisfy
// to be walked by the evaluator. Implementations: the adapters returned
// by (*yangkit.SchemaNode).AsNodeModel (schema-only mode) and
// yangkit.AsNodeModel (data mode).
type NodeModel interface {
	// Parent returns the parent node, or nil at the root.
	Parent() NodeModel
	// Children returns the node's children in document/schema order.
	// For a data leaf/leaf-list this is empty.
	Children() NodeModel_Iterator
	// Name is the node's local name.
	Name() string
	// NamespaceURI is the node's namespace, used by namespace-uri() and
	// by prefixed name tests.
	NamespaceURI() string
	// IsRoot reports whether this node is the document/schema root.
	IsRoot() bool
	// StringValue is this node's XPath string-value: for a leaf/leaf-list
	// term node, its canonical value; for an inner node, the
	// concatenation of its descendant term values in document order.
	StringValue() string
	// Attributes returns the node's attribute axis members (RFC 7952
	// metadata annotations for a data node); adapters with no attribute
	// concept (e.g. a schema node) return an empty iterator.
	Attributes() NodeModel_Iterator
}

// NodeModel_Iterator avoids forcing every adapter to materialize a slice
// up front; Eval still builds a materialized NodeSet for predicates
// (spec §4.B: "materializes node-sets lazily where it can but produces a
// materialized set for predicates").
type NodeModel_Iterator interface {
	Next() (NodeModel, bool)
}

// SliceIterator adapts a plain slice to NodeModel_Iterator.
type SliceIterator struct {
	nodes []NodeModel
	i     int
}

func NewSliceIterator(nodes []NodeModel) *SliceIterator { return &SliceIterator{nodes: nodes} }

func (s *SliceIterator) Next() (NodeModel, bool) {
	if s == nil || s.i >= len(s.nodes) {
		return nil, false
	}
	n := s.nodes[s.i]
	s.i++
	return n, true
}

// Resolver resolves a namespace prefix to its URI. It is derived from
// the defining module's imports at compile time (spec §4.B: "derived
// from the defining module's imports at compile time, not call time"),
// not re-derived per call.
type Resolver func(prefix string) (uri string, ok bool)

// Context carries the evaluation context node, the document/schema root,
// the namespace resolver bound at compile time, and the evaluation mode.
type Context struct {
	Current  NodeModel
	Root     NodeModel
	Resolver Resolver
	Mode     Mode

	// ContextPosition and ContextSize support position()/last() inside a
	// predicate; the evaluator sets these while iterating a NodeSet.
	ContextPosition int
	ContextSize     int

	// Functions extends the builtin function table (spec §4.B's YANG
	// 1.1 subset) with adapter-specific functions such as derived-from,
	// deref, enum-value and bit-is-set, which need schema knowledge the
	// evaluator lacks. Package yangkit sets no Functions, so a when or
	// must expression calling one of these fails with an
	// unknown-function error.
	Functions FunctionTable
}

func (c *Context) child() *Context {
	cp := *c
	return &cp
}
