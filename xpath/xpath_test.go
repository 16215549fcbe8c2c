package xpath

import "testing"

// fakeNode is a minimal NodeModel used to exercise the evaluator
// without pulling in the schema or data tree packages.
type fakeNode struct {
	name     string
	ns       string
	value    string
	parent   *fakeNode
	children []*fakeNode
}

func (n *fakeNode) Parent() NodeModel {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Children() NodeModel_Iterator {
	nodes := make([]NodeModel, len(n.children))
	for i, c := range n.children {
		nodes[i] = c
	}
	return NewSliceIterator(nodes)
}

func (n *fakeNode) Name() string         { return n.name }
func (n *fakeNode) NamespaceURI() string { return n.ns }
func (n *fakeNode) IsRoot() bool         { return n.parent == nil }

func (n *fakeNode) Attributes() NodeModel_Iterator { return NewSliceIterator(nil) }

func (n *fakeNode) StringValue() string {
	if len(n.children) == 0 {
		return n.value
	}
	s := ""
	for _, c := range n.children {
		s += c.StringValue()
	}
	return s
}

func (n *fakeNode) addChild(c *fakeNode) *fakeNode {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

func newTestTree() *fakeNode {
	root := &fakeNode{name: "root", ns: "urn:test"}
	iface := root.addChild(&fakeNode{name: "interfaces", ns: "urn:test"})
	eth0 := iface.addChild(&fakeNode{name: "interface", ns: "urn:test"})
	eth0.addChild(&fakeNode{name: "name", ns: "urn:test", value: "eth0"})
	eth0.addChild(&fakeNode{name: "mtu", ns: "urn:test", value: "1500"})
	eth1 := iface.addChild(&fakeNode{name: "interface", ns: "urn:test"})
	eth1.addChild(&fakeNode{name: "name", ns: "urn:test", value: "eth1"})
	eth1.addChild(&fakeNode{name: "mtu", ns: "urn:test", value: "9000"})
	return root
}

func evalString(t *testing.T, exprStr string, cur NodeModel, root NodeModel) Value {
	t.Helper()
	e, err := Compile(exprStr)
	if err != nil {
		t.Fatalf("Compile(%q): %v", exprStr, err)
	}
	ctx := &Context{Current: cur, Root: root, Mode: Data}
	v, err := Eval(e, ctx)
	if err != nil {
		t.Fatalf("Eval(%q): %v", exprStr, err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "1 + 2 * 3", root, root)
	if v.Kind != KindNumber || v.Num != 7 {
		t.Fatalf("got %+v, want number 7", v)
	}
}

func TestAbsolutePathAndPredicate(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "/interfaces/interface[name='eth1']/mtu", root, root)
	if v.Kind != KindNodeSet || len(v.Nodes) != 1 {
		t.Fatalf("got %+v, want a single-node node-set", v)
	}
	if got := v.Nodes[0].StringValue(); got != "9000" {
		t.Fatalf("mtu = %q, want 9000", got)
	}
}

func TestPositionPredicate(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "/interfaces/interface[2]/name", root, root)
	if v.Kind != KindNodeSet || len(v.Nodes) != 1 {
		t.Fatalf("got %+v, want a single-node node-set", v)
	}
	if got := v.Nodes[0].StringValue(); got != "eth1" {
		t.Fatalf("name = %q, want eth1", got)
	}
}

func TestCountFunction(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "count(/interfaces/interface)", root, root)
	if v.Kind != KindNumber || v.Num != 2 {
		t.Fatalf("got %+v, want number 2", v)
	}
}

func TestNodeSetComparison(t *testing.T) {
	root := newTestTree()
	iface := root.children[0]
	eth0 := iface.children[0]
	v := evalString(t, "mtu = '1500'", eth0, root)
	if v.Kind != KindBoolean || !v.Bool {
		t.Fatalf("got %+v, want true", v)
	}
}

func TestCurrentFunction(t *testing.T) {
	root := newTestTree()
	iface := root.children[0]
	eth1 := iface.children[1]
	v := evalString(t, "current()/name", eth1, root)
	if v.Kind != KindNodeSet || len(v.Nodes) != 1 || v.Nodes[0].StringValue() != "eth1" {
		t.Fatalf("got %+v, want eth1", v)
	}
}

func TestBooleanFunctions(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "not(false())", root, root)
	if v.Kind != KindBoolean || !v.Bool {
		t.Fatalf("got %+v, want true", v)
	}
}

func TestStringFunctions(t *testing.T) {
	root := newTestTree()
	v := evalString(t, "concat('eth', '0') = 'eth0'", root, root)
	if v.Kind != KindBoolean || !v.Bool {
		t.Fatalf("got %+v, want true", v)
	}
}

func TestParentAxis(t *testing.T) {
	root := newTestTree()
	iface := root.children[0]
	eth0 := iface.children[0]
	v := evalString(t, "..", eth0, root)
	if v.Kind != KindNodeSet || len(v.Nodes) != 1 || v.Nodes[0].Name() != "interfaces" {
		t.Fatalf("got %+v, want interfaces", v)
	}
}
