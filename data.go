package yangkit

import (
	"fmt"
	"strings"

	"github.com/mvarela/yangkit/xpath"
)

// New constructs the zero-value data node for schema: a *DataBranch for
// container/list/rpc/notification kinds, *DataLeaf for a leaf or one
// leaf-list element, *DataAny for anydata/anyxml, or
// *DataOpaque when schema is nil (an unknown node admitted under a
// schema-less parse, per spec.md §3's opaque-node invariant).
func New(schema *SchemaNode) (DataNode, error) {
	if schema == nil {
		return &DataOpaque{}, nil
	}
	switch schema.Kind {
	case KindLeaf, KindLeafList:
		return &DataLeaf{schema: schema}, nil
	case KindAny:
		return &DataAny{schema: schema}, nil
	default:
		return &DataBranch{schema: schema, byName: map[string][]DataNode{}}, nil
	}
}

// NewWithValue constructs a leaf/leaf-list node and stores value into
// it in the same step, returning a *TypeError wrapped as a structured
// Error on failure.
func NewWithValue(schema *SchemaNode, value string) (DataNode, error) {
	n, err := New(schema)
	if err != nil {
		return nil, err
	}
	if err := n.SetValueString(value); err != nil {
		return nil, err
	}
	return n, nil
}

// Metadata is an RFC 7952 annotation attached to a data node: a JSON
// "@name" member's entries when decoded from JSON (Module set, Namespace
// empty), or an extension-namespaced XML attribute (Namespace set,
// Module empty) when decoded from XML.
type Metadata struct {
	Module    string
	Namespace string
	Name      string
	Value     string
}

// QName renders the metadata's qualifier (module name or namespace URI,
// whichever is known) joined to its name, for diagnostics.
func (m Metadata) QName() string {
	if m.Module != "" {
		return m.Module + ":" + m.Name
	}
	if m.Namespace != "" {
		return m.Namespace + ":" + m.Name
	}
	return m.Name
}

// baseNode holds the fields every physical kind needs: its schema, its
// parent pointer, whether its value came from schema "default"
// insertion (spec.md §3), and its attached RFC 7952 metadata.
// DataBranch/DataLeaf/DataAny/DataOpaque each embed it rather than
// duplicating Parent/Schema/Path.
type baseNode struct {
	schema    *SchemaNode
	parent    DataNode
	isDefault bool
	metadata  []Metadata
}

func (b *baseNode) IsDataNode() {}

func (b *baseNode) IsDefault() bool   { return b.isDefault }
func (b *baseNode) SetDefault(v bool) { b.isDefault = v }

func (b *baseNode) Metadata() []Metadata { return b.metadata }
func (b *baseNode) AddMetadata(m Metadata) {
	b.metadata = append(b.metadata, m)
}

func joinPath(parent DataNode, id string) string {
	if parent == nil {
		return "/" + id
	}
	p := parent.Path()
	if p == "/" || p == "" {
		return "/" + id
	}
	return p + "/" + id
}

// --- xpath.NodeModel adapter for data nodes -------------------------
//
// dataNodeModel lets any DataNode be walked by the XPath evaluator the
// same way a SchemaNode is, via schemaNodeModel; spec.md requires one
// evaluator usable against either tree (§3, §9).

type dataNodeModel struct{ n DataNode }

func (m dataNodeModel) Parent() xpath.NodeModel {
	p := m.n.Parent()
	if p == nil {
		return nil
	}
	return dataNodeModel{p}
}
func (m dataNodeModel) Children() xpath.NodeModel_Iterator {
	kids := m.n.Children()
	nodes := make([]xpath.NodeModel, len(kids))
	for i, c := range kids {
		nodes[i] = dataNodeModel{c}
	}
	return xpath.NewSliceIterator(nodes)
}
func (m dataNodeModel) Name() string { return m.n.Name() }
func (m dataNodeModel) NamespaceURI() string {
	if s := m.n.Schema(); s != nil {
		return s.Namespace
	}
	return ""
}
func (m dataNodeModel) IsRoot() bool        { return m.n.Parent() == nil }
func (m dataNodeModel) StringValue() string { return m.n.ValueString() }

// Attributes exposes this node's RFC 7952 metadata on the XPath
// attribute axis (spec.md §4.C/§6): each Metadata entry is wrapped as a
// childless, valueless-parent NodeModel whose string-value is the
// annotation's value.
func (m dataNodeModel) Attributes() xpath.NodeModel_Iterator {
	meta := m.n.Metadata()
	nodes := make([]xpath.NodeModel, len(meta))
	for i, md := range meta {
		nodes[i] = metadataNodeModel{owner: m.n, meta: md}
	}
	return xpath.NewSliceIterator(nodes)
}

// metadataNodeModel adapts a single Metadata annotation to NodeModel so
// it can be returned from the attribute axis; it has no children or
// attributes of its own.
type metadataNodeModel struct {
	owner DataNode
	meta  Metadata
}

func (m metadataNodeModel) Parent() xpath.NodeModel            { return dataNodeModel{m.owner} }
func (m metadataNodeModel) Children() xpath.NodeModel_Iterator { return xpath.NewSliceIterator(nil) }
func (m metadataNodeModel) Attributes() xpath.NodeModel_Iterator {
	return xpath.NewSliceIterator(nil)
}
func (m metadataNodeModel) Name() string { return m.meta.Name }
func (m metadataNodeModel) NamespaceURI() string {
	if m.meta.Namespace != "" {
		return m.meta.Namespace
	}
	return m.meta.Module
}
func (m metadataNodeModel) IsRoot() bool        { return false }
func (m metadataNodeModel) StringValue() string { return m.meta.Value }

// AsNodeModel adapts node for use with xpath.Eval.
func AsNodeModel(node DataNode) xpath.NodeModel { return dataNodeModel{node} }

// keyID renders a list instance identifier as NAME[K1=V1][K2=V2]...,
// the format the teacher's DataBranch.ID uses and spec.md's
// node-id/path-predicate grammar parses back with ParsePath.
func keyID(schema *SchemaNode, keyValues []string) string {
	var b strings.Builder
	b.WriteString(schema.Name)
	for i, k := range schema.Key {
		if i < len(keyValues) {
			fmt.Fprintf(&b, "[%s=%s]", k, keyValues[i])
		}
	}
	return b.String()
}
