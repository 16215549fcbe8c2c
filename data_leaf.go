package yangkit

// DataLeaf is the physical node kind for a leaf, and for one element of
// a leaf-list (spec.md §3 and the teacher model leaf-lists as multiple
// same-schema DataLeaf siblings rather than a single multi-valued node;
// SingleLeafList mode, which the teacher also supports, is not carried
// forward — see DESIGN.md).
type DataLeaf struct {
	baseNode
	value *TypedValue
}

func (l *DataLeaf) IsNil() bool        { return l == nil }
func (l *DataLeaf) IsBranchNode() bool  { return false }
func (l *DataLeaf) IsLeafNode() bool   { return true }
func (l *DataLeaf) IsOpaqueNode() bool { return false }
func (l *DataLeaf) Schema() *SchemaNode { return l.schema }
func (l *DataLeaf) Parent() DataNode    { return l.parent }
func (l *DataLeaf) Name() string        { return l.schema.Name }

func (l *DataLeaf) QName(rfc7951 bool) string {
	if rfc7951 {
		return l.schema.ModuleName + ":" + l.schema.Name
	}
	return l.schema.Name
}

// ID renders LEAF for a leaf, or LEAF[.=VALUE] for a leaf-list
// instance, matching the node-id grammar ParsePath accepts back.
func (l *DataLeaf) ID() string {
	if l.schema.Kind == KindLeafList {
		return l.schema.Name + "[.=" + l.ValueString() + "]"
	}
	return l.schema.Name
}

func (l *DataLeaf) Path() string { return joinPath(l.parent, l.ID()) }
func (l *DataLeaf) String() string {
	if l == nil {
		return ""
	}
	return l.ID()
}
func (l *DataLeaf) Children() []DataNode { return nil }
func (l *DataLeaf) Len() int             { return 1 }
func (l *DataLeaf) Get(string) DataNode      { return nil }
func (l *DataLeaf) GetAll(string) []DataNode { return nil }
func (l *DataLeaf) Exist(string) bool        { return false }

func (l *DataLeaf) Create(string, ...string) (DataNode, error) {
	return nil, newError(Unsupported, l.Path(), "a leaf has no children")
}
func (l *DataLeaf) Update(string, ...string) (DataNode, error) {
	return nil, newError(Unsupported, l.Path(), "a leaf has no children")
}
func (l *DataLeaf) Insert(DataNode, *EditOption) (DataNode, error) {
	return nil, newError(Unsupported, l.Path(), "a leaf has no children")
}
func (l *DataLeaf) Delete(DataNode) error {
	return newError(Unsupported, l.Path(), "a leaf has no children")
}

func (l *DataLeaf) Remove() error {
	if l.parent == nil {
		return newError(Unsupported, l.Path(), "detached leaf")
	}
	return l.parent.Delete(l)
}

// SetValueString stores value through the type engine, so an invalid
// leaf can never exist in the tree.
func (l *DataLeaf) SetValueString(value string) error {
	v, terr := Store(l.schema.Type, value)
	if terr != nil {
		return wrapError(TypeMismatch, l.Path(), terr, "storing leaf value")
	}
	l.value = v
	return nil
}

func (l *DataLeaf) ValueString() string {
	if l.value == nil {
		return ""
	}
	return Print(l.value)
}
