package yangkit

// DataOpaque holds a node admitted under a schema-less or store-failed
// path: RFC 7951 §5.3/NETCONF both require the parser to keep data it
// cannot resolve against a schema, rather than rejecting the whole
// message (spec.md §3's "opaque node" invariant). The teacher repo
// drops such nodes on the floor (its DataBranch.UnmarshalJSON skips
// unknown fields silently); this type restores that requirement.
type DataOpaque struct {
	baseNode
	name     string
	value    string
	children []DataNode
}

func (o *DataOpaque) IsNil() bool        { return o == nil }
func (o *DataOpaque) IsBranchNode() bool  { return len(o.children) > 0 }
func (o *DataOpaque) IsLeafNode() bool   { return len(o.children) == 0 }
func (o *DataOpaque) IsOpaqueNode() bool { return true }
func (o *DataOpaque) Schema() *SchemaNode { return nil }
func (o *DataOpaque) Parent() DataNode    { return o.parent }
func (o *DataOpaque) Name() string        { return o.name }
func (o *DataOpaque) QName(bool) string   { return o.name }

func (o *DataOpaque) Path() string { return joinPath(o.parent, o.name) }
func (o *DataOpaque) String() string {
	if o == nil {
		return ""
	}
	return o.name
}
func (o *DataOpaque) Children() []DataNode { return o.children }
func (o *DataOpaque) Len() int             { return len(o.children) }

func (o *DataOpaque) Get(id string) DataNode {
	for _, c := range o.children {
		if c.Name() == id {
			return c
		}
	}
	return nil
}
func (o *DataOpaque) GetAll(id string) []DataNode {
	var out []DataNode
	for _, c := range o.children {
		if c.Name() == id {
			out = append(out, c)
		}
	}
	return out
}
func (o *DataOpaque) Exist(id string) bool { return o.Get(id) != nil }

func (o *DataOpaque) Create(id string, value ...string) (DataNode, error) {
	child := &DataOpaque{name: id}
	if len(value) > 0 {
		child.value = value[0]
	}
	return o.Insert(child, &EditOption{Operation: EditCreate})
}
func (o *DataOpaque) Update(id string, value ...string) (DataNode, error) {
	if existing := o.Get(id); existing != nil {
		if len(value) > 0 {
			_ = existing.SetValueString(value[0])
		}
		return existing, nil
	}
	return o.Create(id, value...)
}

func (o *DataOpaque) Insert(child DataNode, opt *EditOption) (DataNode, error) {
	c, ok := child.(*DataOpaque)
	if !ok {
		return nil, newError(InvalidValue, o.Path(), "opaque nodes can only hold opaque children")
	}
	existing := o.Get(c.name)
	if existing != nil && opt.op() == EditCreate {
		return nil, newEditError(TagDataExists, o.Path(), "node %q already exists", c.name)
	}
	c.parent = o
	o.children = append(o.children, c)
	return existing, nil
}

func (o *DataOpaque) Delete(child DataNode) error {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return nil
		}
	}
	return newEditError(TagDataMissing, o.Path(), "node does not exist")
}

func (o *DataOpaque) Remove() error {
	if o.parent == nil {
		return newError(Unsupported, o.Path(), "detached opaque node")
	}
	return o.parent.Delete(o)
}

func (o *DataOpaque) SetValueString(value string) error { o.value = value; return nil }
func (o *DataOpaque) ValueString() string                { return o.value }
