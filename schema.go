package yangkit

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mvarela/yangkit/dictionary"
	"github.com/mvarela/yangkit/xpath"
	"github.com/openconfig/goyang/pkg/yang"
)

// NodeKind is the schema-level node classification spec.md §3 uses to
// pick a data node's physical kind at parse time.
type NodeKind int

const (
	KindContainer NodeKind = iota
	KindList
	KindLeaf
	KindLeafList
	KindChoice
	KindCase
	KindAny // anydata or anyxml
	KindRPC
	KindAction
	KindNotification
	KindModule
)

func (k NodeKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindList:
		return "list"
	case KindLeaf:
		return "leaf"
	case KindLeafList:
		return "leaf-list"
	case KindChoice:
		return "choice"
	case KindCase:
		return "case"
	case KindAny:
		return "any"
	case KindRPC:
		return "rpc"
	case KindAction:
		return "action"
	case KindNotification:
		return "notification"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// mustConstraint pairs a compiled must expression with the
// error-message/error-app-tag a validation failure should surface.
type mustConstraint struct {
	Expr         xpath.Expr
	ErrorMessage string
	ErrorAppTag  string
}

// SchemaNode wraps a goyang *yang.Entry with the extra compiled state
// spec.md §4.D asks for on top of what ToEntry already resolves:
// compiled when/must expressions, a compiled leafref path, and the
// interned node name (component A's dictionary put to use).
type SchemaNode struct {
	Name       string
	Namespace  string
	ModuleName string
	Kind       NodeKind

	entry  *yang.Entry
	Parent *SchemaNode
	byName map[string]*SchemaNode
	order  []*SchemaNode

	Config    bool
	Mandatory bool

	Key           []string
	MinElements   int
	MaxElements   int // -1 means unbounded
	UniqueClauses [][]string

	Type    *yang.YangType
	Default []string

	When xpath.Expr
	Must []mustConstraint

	LeafrefPath            xpath.Expr
	LeafrefRequireInstance bool

	dict   *dictionary.Dictionary
	handle dictionary.Handle
}

// --- xpath.NodeModel adapter --------------------------------------
//
// SchemaNode exposes Parent/ChildNodes as plain fields and methods for
// ordinary Go callers; schemaNodeModel is the separate adapter Eval
// walks; it exists because xpath.NodeModel's Parent() method would
// otherwise collide with SchemaNode's public Parent field.

type schemaNodeModel struct{ n *SchemaNode }

func (m schemaNodeModel) Parent() xpath.NodeModel {
	if m.n.Parent == nil {
		return nil
	}
	return schemaNodeModel{m.n.Parent}
}
func (m schemaNodeModel) Children() xpath.NodeModel_Iterator {
	nodes := make([]xpath.NodeModel, len(m.n.order))
	for i, c := range m.n.order {
		nodes[i] = schemaNodeModel{c}
	}
	return xpath.NewSliceIterator(nodes)
}
func (m schemaNodeModel) Attributes() xpath.NodeModel_Iterator {
	return xpath.NewSliceIterator(nil)
}
func (m schemaNodeModel) Name() string         { return m.n.Name }
func (m schemaNodeModel) NamespaceURI() string { return m.n.Namespace }
func (m schemaNodeModel) IsRoot() bool         { return m.n.Parent == nil }
func (m schemaNodeModel) StringValue() string  { return "" }

// AsNodeModel adapts s for use with xpath.Eval in SchemaOnly mode.
func (s *SchemaNode) AsNodeModel() xpath.NodeModel { return schemaNodeModel{s} }

// --- lookups -------------------------------------------------------

// Child returns the named direct child, or nil.
func (s *SchemaNode) Child(name string) *SchemaNode { return s.byName[name] }

// ChildNodes returns the node's direct children in schema order.
func (s *SchemaNode) ChildNodes() []*SchemaNode { return s.order }

// FindSchema resolves a "/"-separated schema path (module-qualified
// names are accepted as "prefix:name") starting from s.
func (s *SchemaNode) FindSchema(path string) (*SchemaNode, error) {
	cur := s
	for _, elem := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if elem == "" {
			continue
		}
		if i := strings.IndexByte(elem, ':'); i >= 0 {
			elem = elem[i+1:]
		}
		next := cur.Child(elem)
		if next == nil {
			return nil, newError(ReferenceNotFound, path, "no schema node named %q under %q", elem, cur.Name)
		}
		cur = next
	}
	return cur, nil
}

// --- compilation -----------------------------------------------------

// Load reads and compiles the YANG modules at the given file paths (and
// any modules/submodules they import/include from the context's search
// directories) into a schema forest, returning its synthetic root.
func Load(ctx *Context, files ...string) (*SchemaNode, error) {
	if !ctx.noYanglib {
		if err := loadBuiltins(ctx); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		if err := ctx.modules.Read(f); err != nil {
			return nil, wrapError(InvalidSyntax, f, err, "reading module")
		}
		ctx.RefImplementedApply(moduleNameFromPath(f))
	}
	if errs := ctx.modules.Process(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, newError(InvalidSyntax, "", "module processing failed: %s", strings.Join(msgs, "; "))
	}

	root := &SchemaNode{Name: "", Kind: KindModule, Config: true, byName: map[string]*SchemaNode{}, dict: ctx.Dictionary}
	for name, mod := range ctx.modules.Modules {
		if strings.Contains(name, "@") {
			continue // revision-qualified alias of an entry already present
		}
		if !ctx.isImplemented(name) && !ctx.allImplemented {
			continue
		}
		e := yang.ToEntry(mod)
		if e == nil {
			continue
		}
		for _, childName := range sortedEntryNames(e.Dir) {
			child := buildSchemaNode(ctx, e.Dir[childName], root, e)
			attachChild(root, child)
		}
	}
	ctx.Schema = root
	return root, nil
}

// RefImplementedApply marks a module implemented by name; Load calls
// this automatically for every file passed to it, matching RFC 7950's
// rule that a module read directly (not merely imported) is
// implemented.
func (c *Context) RefImplementedApply(name string) {
	if c.refImplemented == nil {
		c.refImplemented = map[string]bool{}
	}
	c.refImplemented[name] = true
}

func moduleNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".yang")
	if i := strings.IndexByte(base, '@'); i >= 0 {
		base = base[:i]
	}
	return base
}

func sortedEntryNames(dir map[string]*yang.Entry) []string {
	names := make([]string, 0, len(dir))
	for n := range dir {
		names = append(names, n)
	}
	// goyang's Entry.Dir is unordered; names are sorted lexically. The
	// source declaration order is not recovered, so ChildNodes and every
	// sibling order derived from it follow lexical name order.
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func buildSchemaNode(ctx *Context, e *yang.Entry, parent *SchemaNode, moduleEntry *yang.Entry) *SchemaNode {
	n := &SchemaNode{
		Name:   e.Name,
		Parent: parent,
		byName: map[string]*SchemaNode{},
		dict:   ctx.Dictionary,
	}
	n.handle = ctx.Dictionary.Insert([]byte(e.Name))
	n.Namespace = namespaceOf(e, moduleEntry)
	n.ModuleName = moduleNameOf(moduleEntry)
	n.Kind = classify(e)
	n.Config = configOf(e, parent)
	n.Mandatory = mandatoryOf(e.Node)

	if e.Key != "" {
		n.Key = strings.Fields(e.Key)
	}
	n.MinElements, n.MaxElements = listBounds(e)

	if e.Type != nil {
		n.Type = e.Type
		if e.Type.Kind == yang.Yleafref && e.Type.Path != "" {
			if compiled, err := xpath.Compile(e.Type.Path); err == nil {
				n.LeafrefPath = compiled
			}
		}
	}
	if e.Default != "" {
		n.Default = []string{e.Default}
	}
	if list, ok := e.Node.(*yang.List); ok {
		for _, u := range list.Unique {
			n.UniqueClauses = append(n.UniqueClauses, strings.Fields(u.Name))
		}
	}

	wm := extractWhenMust(e.Node)
	if wm.When != nil && wm.When.Name != "" {
		if compiled, err := xpath.Compile(wm.When.Name); err == nil {
			n.When = compiled
		}
	}
	for _, m := range wm.Must {
		if m == nil || m.Name == "" {
			continue
		}
		compiled, err := xpath.Compile(m.Name)
		if err != nil {
			continue
		}
		mc := mustConstraint{Expr: compiled}
		if m.ErrorMessage != nil {
			mc.ErrorMessage = m.ErrorMessage.Name
		}
		if m.ErrorAppTag != nil {
			mc.ErrorAppTag = m.ErrorAppTag.Name
		}
		n.Must = append(n.Must, mc)
	}

	for _, childName := range sortedEntryNames(e.Dir) {
		c := buildSchemaNode(ctx, e.Dir[childName], n, moduleEntry)
		attachChild(n, c)
	}
	return n
}

// whenMust is the pair of "when"/"must" substatements goyang's per-
// statement generated types (yang.Leaf, yang.Container, ...) each
// carry; RFC 7950 allows both on every data-defining statement except
// choice/case, which allow only "when".
type whenMust struct {
	When *yang.Value
	Must []*yang.Must
}

func extractWhenMust(n yang.Node) whenMust {
	switch v := n.(type) {
	case *yang.Container:
		return whenMust{v.When, v.Must}
	case *yang.List:
		return whenMust{v.When, v.Must}
	case *yang.Leaf:
		return whenMust{v.When, v.Must}
	case *yang.LeafList:
		return whenMust{v.When, v.Must}
	case *yang.Choice:
		return whenMust{When: v.When}
	case *yang.Case:
		return whenMust{When: v.When}
	case *yang.AnyXML:
		return whenMust{v.When, v.Must}
	case *yang.AnyData:
		return whenMust{v.When, v.Must}
	case *yang.Uses:
		return whenMust{When: v.When}
	case *yang.Augment:
		return whenMust{When: v.When}
	default:
		return whenMust{}
	}
}

// mandatoryOf reports whether n carries "mandatory true". Only leaf,
// choice, anyxml, anydata and uses-refined nodes support the
// substatement per RFC 7950; container, list, leaf-list and case
// never do (a list/leaf-list's cardinality is governed by
// min-elements instead).
func mandatoryOf(n yang.Node) bool {
	switch v := n.(type) {
	case *yang.Leaf:
		return v.Mandatory != nil && v.Mandatory.Name == "true"
	case *yang.Choice:
		return v.Mandatory != nil && v.Mandatory.Name == "true"
	case *yang.AnyXML:
		return v.Mandatory != nil && v.Mandatory.Name == "true"
	case *yang.AnyData:
		return v.Mandatory != nil && v.Mandatory.Name == "true"
	default:
		return false
	}
}

func attachChild(parent, child *SchemaNode) {
	parent.byName[child.Name] = child
	parent.order = append(parent.order, child)
}

func namespaceOf(e, moduleEntry *yang.Entry) string {
	if moduleEntry != nil && moduleEntry.Node != nil {
		if m, ok := moduleEntry.Node.(*yang.Module); ok && m.Namespace != nil {
			return m.Namespace.Name
		}
	}
	return ""
}

// moduleNameOf returns the defining module's short name, the qualifier
// RFC 7951 §4 uses for a JSON member name ("module:name") -- distinct
// from namespaceOf's XML namespace URI, which RFC 7950's XML encoding
// uses instead.
func moduleNameOf(moduleEntry *yang.Entry) string {
	if moduleEntry != nil && moduleEntry.Node != nil {
		if m, ok := moduleEntry.Node.(*yang.Module); ok {
			return m.Name
		}
	}
	return ""
}

// classify maps goyang's EntryKind (plus the ListAttr/RPC markers it
// layers on top) onto the physical node kinds spec.md §3 names. This
// snapshot of goyang has no distinct AnyDataEntry constant, so
// anydata and anyxml both classify as KindAny; spec.md treats both as
// the same physical data-node kind anyway.
func classify(e *yang.Entry) NodeKind {
	if e.RPC != nil {
		return KindRPC
	}
	switch e.Kind {
	case yang.LeafEntry:
		if e.ListAttr != nil {
			return KindLeafList
		}
		return KindLeaf
	case yang.DirectoryEntry:
		if e.ListAttr != nil {
			return KindList
		}
		return KindContainer
	case yang.ChoiceEntry:
		return KindChoice
	case yang.CaseEntry:
		return KindCase
	case yang.AnyXMLEntry:
		return KindAny
	default:
		return KindContainer
	}
}

func configOf(e *yang.Entry, parent *SchemaNode) bool {
	switch e.Config {
	case yang.TSTrue:
		return true
	case yang.TSFalse:
		return false
	default:
		if parent != nil {
			return parent.Config
		}
		return true
	}
}

func listBounds(e *yang.Entry) (min int, max int) {
	max = -1
	if e.ListAttr == nil {
		return 0, -1
	}
	if e.ListAttr.MinElements != nil {
		if v, err := strconv.Atoi(e.ListAttr.MinElements.Name); err == nil {
			min = v
		}
	}
	if e.ListAttr.MaxElements != nil && e.ListAttr.MaxElements.Name != "unbounded" {
		if v, err := strconv.Atoi(e.ListAttr.MaxElements.Name); err == nil {
			max = v
		}
	}
	return min, max
}

// String renders a short human-readable summary, useful in test
// failure messages and debug logging.
func (s *SchemaNode) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}
