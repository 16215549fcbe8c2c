package yangkit

import (
	"sort"
	"strings"
)

// DataBranch is the physical node kind for every container and list
// instance; spec.md §3 groups these together as "inner nodes" since
// both hold ordered children keyed by schema identity.
type DataBranch struct {
	baseNode
	id       string
	children []DataNode
	byName   map[string][]DataNode
}

func (b *DataBranch) IsNil() bool       { return b == nil }
func (b *DataBranch) IsBranchNode() bool { return true }
func (b *DataBranch) IsLeafNode() bool  { return false }
func (b *DataBranch) IsOpaqueNode() bool { return false }
func (b *DataBranch) Schema() *SchemaNode { return b.schema }
func (b *DataBranch) Parent() DataNode   { return b.parent }
func (b *DataBranch) Name() string       { return b.schema.Name }

func (b *DataBranch) QName(rfc7951 bool) string {
	if rfc7951 {
		return b.schema.ModuleName + ":" + b.schema.Name
	}
	return b.schema.Name
}

// ID renders this branch's instance identifier: the bare name for a
// container, or NAME[k=v]... for a list instance, per keyID.
func (b *DataBranch) ID() string {
	if b.id != "" {
		return b.id
	}
	return b.schema.Name
}

func (b *DataBranch) Path() string { return joinPath(b.parent, b.ID()) }
func (b *DataBranch) String() string {
	if b == nil {
		return ""
	}
	return b.ID()
}
func (b *DataBranch) Children() []DataNode { return b.children }
func (b *DataBranch) Len() int             { return len(b.children) }

func (b *DataBranch) SetValueString(string) error {
	return newError(Unsupported, b.Path(), "a branch node has no scalar value")
}
func (b *DataBranch) ValueString() string { return "" }

// Get returns the first child whose rendered ID equals id.
func (b *DataBranch) Get(id string) DataNode {
	for _, c := range b.children {
		if idOf(c) == id {
			return c
		}
	}
	return nil
}

// GetAll returns every child whose rendered ID starts with id's name
// component, i.e. every instance of a list/leaf-list regardless of key.
func (b *DataBranch) GetAll(id string) []DataNode {
	name := id
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	var out []DataNode
	for _, c := range b.byName[name] {
		out = append(out, c)
	}
	return out
}

func (b *DataBranch) Exist(id string) bool { return b.Get(id) != nil }

// Create inserts a brand-new child node for id (failing if one already
// exists), the EditCreate semantics spec.md §4.F's edit-attribute
// table names.
func (b *DataBranch) Create(id string, value ...string) (DataNode, error) {
	return b.edit(id, &EditOption{Operation: EditCreate}, value...)
}

// Update merges/creates a child for id with the given value(s),
// EditMerge semantics.
func (b *DataBranch) Update(id string, value ...string) (DataNode, error) {
	return b.edit(id, &EditOption{Operation: EditMerge}, value...)
}

func (b *DataBranch) edit(id string, opt *EditOption, value ...string) (DataNode, error) {
	steps, err := ParsePath(id)
	if err != nil {
		return nil, wrapError(InvalidSyntax, id, err, "parsing node id")
	}
	if len(steps) != 1 {
		return nil, newError(InvalidSyntax, id, "Create/Update expect a single step id, got %d", len(steps))
	}
	step := steps[0]
	name := step.Name
	child := b.schema.Child(name)
	if child == nil {
		return nil, newError(ReferenceNotFound, id, "no schema node named %q under %q", name, b.schema.Name)
	}
	var v string
	if len(value) > 0 {
		v = value[0]
	}
	var node DataNode
	if v != "" || child.Kind == KindLeaf || child.Kind == KindLeafList {
		node, err = NewWithValue(child, v)
	} else {
		node, err = New(child)
	}
	if err != nil {
		return nil, err
	}
	if dl, ok := node.(*DataBranch); ok {
		dl.id = keyIDFromPredicates(child, step.Predicates)
	}
	return b.Insert(node, opt)
}

// Insert places child under b in schema-defined sibling order,
// replacing an existing same-ID instance unless opt forbids it. The
// NETCONF edit operation opt carries (spec.md §5's ietf-netconf:operation
// supplement) governs what happens to an existing same-ID instance:
// create/merge/replace insert (create requiring absence), delete/remove
// only remove the existing instance named by child's ID, never
// inserting child itself (delete requires the instance to exist,
// remove is a silent no-op when it does not). When opt also carries an
// InsertOption, child is spliced among its same-name siblings at the
// requested position instead of simply appended, per the
// yang:insert/yang:key/yang:value attributes spec.md §5 names.
func (b *DataBranch) Insert(child DataNode, opt *EditOption) (DataNode, error) {
	if child == nil {
		return nil, newError(InvalidValue, b.Path(), "nil child")
	}
	name := child.Name()
	existing := b.Get(idOf(child))
	switch opt.op() {
	case EditCreate:
		if existing != nil {
			return nil, newEditError(TagDataExists, b.Path(), "node %q already exists", idOf(child))
		}
	case EditDelete:
		if existing == nil {
			return nil, newEditError(TagDataMissing, b.Path(), "node %q does not exist", idOf(child))
		}
		b.removeChild(existing)
		return existing, nil
	case EditRemove:
		if existing == nil {
			return nil, nil
		}
		b.removeChild(existing)
		return existing, nil
	}
	if existing != nil {
		b.removeChild(existing)
	}
	setParentOf(child, b)
	b.insertOrdered(child, name, opt.insert())
	b.resort()
	return existing, nil
}

// insertOrdered appends child to b.children/byName, splicing it among
// its same-name siblings at pos's requested position when pos is
// non-nil (the default, nil, is a plain append -- the position an
// unordered list/leaf-list or a container/leaf insert always uses).
// resort's stable sort preserves whatever relative order is established
// here across same-schema siblings once it regroups by schema.
func (b *DataBranch) insertOrdered(child DataNode, name string, pos InsertOption) {
	b.byName[name] = append(b.byName[name], child)
	if pos == nil {
		b.children = append(b.children, child)
		return
	}
	switch p := pos.(type) {
	case InsertToFirst:
		b.children = insertChildAt(b.children, b.firstSiblingIndex(name), child)
	case InsertToLast:
		b.children = insertChildAt(b.children, b.lastSiblingIndex(name)+1, child)
	case InsertToBefore:
		if ref := b.Get(name + p.Key); ref != nil {
			b.children = insertChildAt(b.children, indexOfChild(b.children, ref), child)
			return
		}
		b.children = append(b.children, child)
	case InsertToAfter:
		if ref := b.Get(name + p.Key); ref != nil {
			b.children = insertChildAt(b.children, indexOfChild(b.children, ref)+1, child)
			return
		}
		b.children = append(b.children, child)
	default:
		b.children = append(b.children, child)
	}
}

// firstSiblingIndex returns the index of the first existing child named
// name, or len(b.children) if there is none yet.
func (b *DataBranch) firstSiblingIndex(name string) int {
	for i, c := range b.children {
		if c.Name() == name {
			return i
		}
	}
	return len(b.children)
}

// lastSiblingIndex returns the index of the last existing child named
// name, or -1 if there is none yet.
func (b *DataBranch) lastSiblingIndex(name string) int {
	last := -1
	for i, c := range b.children {
		if c.Name() == name {
			last = i
		}
	}
	return last
}

func indexOfChild(children []DataNode, target DataNode) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}
	return len(children)
}

// insertChildAt splices child into children at index at (clamped into
// range), shifting later elements right.
func insertChildAt(children []DataNode, at int, child DataNode) []DataNode {
	if at < 0 || at > len(children) {
		at = len(children)
	}
	children = append(children, nil)
	copy(children[at+1:], children[at:])
	children[at] = child
	return children
}

// Delete removes child from b if present.
func (b *DataBranch) Delete(child DataNode) error {
	if child == nil {
		return nil
	}
	if !b.removeChild(child) {
		return newEditError(TagDataMissing, b.Path(), "node %q does not exist", idOf(child))
	}
	return nil
}

func (b *DataBranch) removeChild(child DataNode) bool {
	removed := false
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		siblings := b.byName[child.Name()]
		for i, c := range siblings {
			if c == child {
				b.byName[child.Name()] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	return removed
}

// Remove detaches b from its parent.
func (b *DataBranch) Remove() error {
	if b.parent == nil {
		return newError(Unsupported, b.Path(), "cannot remove the root node")
	}
	return b.parent.Delete(b)
}

// resort keeps children grouped by schema (stable within a group),
// matching the teacher's sorted-sibling invariant that list-key lookup
// and printers both depend on.
func (b *DataBranch) resort() {
	sort.SliceStable(b.children, func(i, j int) bool {
		si, sj := b.children[i].Schema(), b.children[j].Schema()
		if si != sj {
			return schemaOrder(si) < schemaOrder(sj)
		}
		return false
	})
}

func schemaOrder(s *SchemaNode) int {
	if s == nil || s.Parent == nil {
		return 0
	}
	for i, c := range s.Parent.order {
		if c == s {
			return i
		}
	}
	return 0
}

func setParentOf(n DataNode, p DataNode) {
	switch v := n.(type) {
	case *DataBranch:
		v.parent = p
	case *DataLeaf:
		v.parent = p
	case *DataAny:
		v.parent = p
	case *DataOpaque:
		v.parent = p
	}
}

func idOf(n DataNode) string {
	switch v := n.(type) {
	case *DataBranch:
		return v.ID()
	case *DataLeaf:
		return v.ID()
	case *DataAny:
		return v.schema.Name
	case *DataOpaque:
		return v.name
	default:
		return n.Name()
	}
}

// keyIDFromPredicates renders a list instance id from the "key=value"
// predicates ParsePath split out of a Create/Update node-id argument.
func keyIDFromPredicates(schema *SchemaNode, predicates []string) string {
	values := make(map[string]string, len(predicates))
	for _, p := range predicates {
		if i := strings.IndexByte(p, '='); i >= 0 {
			values[p[:i]] = p[i+1:]
		}
	}
	ordered := make([]string, len(schema.Key))
	for i, k := range schema.Key {
		ordered[i] = values[k]
	}
	return keyID(schema, ordered)
}
