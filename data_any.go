package yangkit

// DataAny is the physical node kind for an anydata/anyxml instance:
// its content is an opaque, schema-unvalidated subtree kept verbatim,
// per spec.md §3. The teacher never modeled anydata/anyxml as a
// distinct kind (it has no yangtree file for it); this type is new,
// grounded on the teacher's DataLeaf shape since both are childless,
// value-bearing leaves from the tree's point of view.
type DataAny struct {
	baseNode
	raw string // the verbatim serialized subtree (XML or JSON text)
}

func (a *DataAny) IsNil() bool        { return a == nil }
func (a *DataAny) IsBranchNode() bool  { return false }
func (a *DataAny) IsLeafNode() bool   { return false }
func (a *DataAny) IsOpaqueNode() bool { return false }
func (a *DataAny) Schema() *SchemaNode { return a.schema }
func (a *DataAny) Parent() DataNode    { return a.parent }
func (a *DataAny) Name() string        { return a.schema.Name }

func (a *DataAny) QName(rfc7951 bool) string {
	if rfc7951 {
		return a.schema.ModuleName + ":" + a.schema.Name
	}
	return a.schema.Name
}

func (a *DataAny) Path() string { return joinPath(a.parent, a.schema.Name) }
func (a *DataAny) String() string {
	if a == nil {
		return ""
	}
	return a.schema.Name
}
func (a *DataAny) Children() []DataNode      { return nil }
func (a *DataAny) Len() int                  { return 1 }
func (a *DataAny) Get(string) DataNode       { return nil }
func (a *DataAny) GetAll(string) []DataNode  { return nil }
func (a *DataAny) Exist(string) bool         { return false }

func (a *DataAny) Create(string, ...string) (DataNode, error) {
	return nil, newError(Unsupported, a.Path(), "anydata/anyxml content is opaque")
}
func (a *DataAny) Update(string, ...string) (DataNode, error) {
	return nil, newError(Unsupported, a.Path(), "anydata/anyxml content is opaque")
}
func (a *DataAny) Insert(DataNode, *EditOption) (DataNode, error) {
	return nil, newError(Unsupported, a.Path(), "anydata/anyxml content is opaque")
}
func (a *DataAny) Delete(DataNode) error {
	return newError(Unsupported, a.Path(), "anydata/anyxml content is opaque")
}

func (a *DataAny) Remove() error {
	if a.parent == nil {
		return newError(Unsupported, a.Path(), "detached anydata node")
	}
	return a.parent.Delete(a)
}

// SetValueString stores the raw serialized subtree verbatim; no type
// validation applies to anydata/anyxml content.
func (a *DataAny) SetValueString(value string) error { a.raw = value; return nil }
func (a *DataAny) ValueString() string                { return a.raw }
