package yangkit

import (
	"testing"

	"github.com/openconfig/goyang/pkg/yang"
)

// buildTestSchema constructs a small interfaces/interface{name,mtu} tree
// by hand, bypassing goyang parsing entirely -- the data-tree package
// only depends on the *SchemaNode shape, not on how it was compiled.
func buildTestSchema() *SchemaNode {
	const ns = "urn:test:interfaces"
	const mod = "test-interfaces"
	root := &SchemaNode{Name: "", Kind: KindModule, Config: true, byName: map[string]*SchemaNode{}}
	interfaces := &SchemaNode{Name: "interfaces", Namespace: ns, ModuleName: mod, Kind: KindContainer, Config: true, byName: map[string]*SchemaNode{}}
	attachChild(root, interfaces)

	iface := &SchemaNode{Name: "interface", Namespace: ns, ModuleName: mod, Kind: KindList, Config: true, Key: []string{"name"}, MaxElements: -1, byName: map[string]*SchemaNode{}}
	attachChild(interfaces, iface)

	name := &SchemaNode{Name: "name", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Ystring}}
	attachChild(iface, name)
	mtu := &SchemaNode{Name: "mtu", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Yuint32}}
	attachChild(iface, mtu)
	descr := &SchemaNode{Name: "description", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Ystring}, Default: []string{"none"}}
	attachChild(iface, descr)

	return root
}

func TestNewAndInsertBranch(t *testing.T) {
	schema := buildTestSchema()
	root, err := New(schema)
	if err != nil {
		t.Fatalf("New(root): %v", err)
	}
	ifacesSchema := schema.Child("interfaces")
	node, err := root.(*DataBranch).Create("interfaces")
	if err != nil {
		t.Fatalf("Create(interfaces): %v", err)
	}
	if node.Schema() != ifacesSchema {
		t.Fatalf("inserted node carries the wrong schema")
	}
	if root.Get("interfaces") == nil {
		t.Fatalf("Get(interfaces) did not find the inserted container")
	}
}

func TestCreateListInstanceAndKeyID(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, err := branch.Create("interfaces")
	if err != nil {
		t.Fatalf("Create(interfaces): %v", err)
	}
	ifacesBranch := ifacesNode.(*DataBranch)

	eth0, err := ifacesBranch.Create("interface[name=eth0]")
	if err != nil {
		t.Fatalf("Create(interface[name=eth0]): %v", err)
	}
	if eth0.Path() != "/interfaces/interface[name=eth0]" {
		t.Fatalf("Path() = %q", eth0.Path())
	}
	if !ifacesBranch.Exist("interface[name=eth0]") {
		t.Fatalf("Exist() did not find the freshly created list instance")
	}

	if _, err := ifacesBranch.Create("interface[name=eth0]"); err == nil {
		t.Fatalf("Create on an existing key should fail under EditCreate semantics")
	}
}

func TestDataLeafValueRoundTrip(t *testing.T) {
	schema := buildTestSchema()
	mtuSchema := schema.Child("interfaces").Child("interface").Child("mtu")
	leaf, err := NewWithValue(mtuSchema, "1500")
	if err != nil {
		t.Fatalf("NewWithValue: %v", err)
	}
	if leaf.ValueString() != "1500" {
		t.Fatalf("ValueString() = %q, want 1500", leaf.ValueString())
	}
	if _, err := NewWithValue(mtuSchema, "not-a-number"); err == nil {
		t.Fatalf("NewWithValue should have rejected a non-numeric uint32")
	}
}

func TestDeleteAndRemove(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0, _ := ifacesBranch.Create("interface[name=eth0]")

	if err := eth0.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ifacesBranch.Exist("interface[name=eth0]") {
		t.Fatalf("node still present after Remove")
	}
}

func TestGetAllReturnsEveryListInstance(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	ifacesBranch.Create("interface[name=eth0]")
	ifacesBranch.Create("interface[name=eth1]")

	all := ifacesBranch.GetAll("interface")
	if len(all) != 2 {
		t.Fatalf("GetAll(interface) returned %d nodes, want 2", len(all))
	}
}

func TestOpaqueNodeHoldsUnknownContent(t *testing.T) {
	o := &DataOpaque{name: "vendor-extension"}
	if _, err := o.Create("field", "value"); err != nil {
		t.Fatalf("Create on opaque node: %v", err)
	}
	if got := o.Get("field").ValueString(); got != "value" {
		t.Fatalf("opaque child value = %q, want value", got)
	}
	if !o.IsOpaqueNode() {
		t.Fatalf("IsOpaqueNode() = false")
	}
}
