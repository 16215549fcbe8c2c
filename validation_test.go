package yangkit

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/mvarela/yangkit/xpath"
	"github.com/openconfig/goyang/pkg/yang"
)

func mustCompile(t *testing.T, expr string) xpath.Expr {
	t.Helper()
	e, err := xpath.Compile(expr)
	if err != nil {
		t.Fatalf("xpath.Compile(%q): %v", expr, err)
	}
	return e
}

// buildChoiceTestSchema builds a container "link" holding a mandatory
// choice "addr-choice" with two cases, "static" (an "ip-address" leaf
// and a "prefix-length" leaf defaulting to "24") and "dhcp" (a
// "dhcp-client-id" leaf), exercising schema-transparent choice/case
// handling the plain interfaces fixture has no need for.
func buildChoiceTestSchema() *SchemaNode {
	const ns = "urn:test:link"
	const mod = "test-link"
	root := &SchemaNode{Name: "", Kind: KindModule, Config: true, byName: map[string]*SchemaNode{}}
	link := &SchemaNode{Name: "link", Namespace: ns, ModuleName: mod, Kind: KindContainer, Config: true, byName: map[string]*SchemaNode{}}
	attachChild(root, link)

	choice := &SchemaNode{Name: "addr-choice", Namespace: ns, ModuleName: mod, Kind: KindChoice, Config: true, Mandatory: true, byName: map[string]*SchemaNode{}}
	attachChild(link, choice)

	static := &SchemaNode{Name: "static", Namespace: ns, ModuleName: mod, Kind: KindCase, Config: true, byName: map[string]*SchemaNode{}}
	attachChild(choice, static)
	ipAddr := &SchemaNode{Name: "ip-address", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Ystring}}
	attachChild(static, ipAddr)
	prefixLen := &SchemaNode{Name: "prefix-length", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Yuint8}, Default: []string{"24"}}
	attachChild(static, prefixLen)

	dhcp := &SchemaNode{Name: "dhcp", Namespace: ns, ModuleName: mod, Kind: KindCase, Config: true, byName: map[string]*SchemaNode{}}
	attachChild(choice, dhcp)
	dhcpID := &SchemaNode{Name: "dhcp-client-id", Namespace: ns, ModuleName: mod, Kind: KindLeaf, Config: true, Type: &yang.YangType{Kind: yang.Ystring}}
	attachChild(dhcp, dhcpID)

	return root
}

func TestValidateMandatoryChoiceMissing(t *testing.T) {
	schema := buildChoiceTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	branch.Create("link")

	errs := Validate(root, false)
	found := false
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a mandatory-choice error with no case populated, got: %# v", pretty.Formatter(errs))
	}
}

func TestValidateMandatoryChoiceSatisfiedInsertsCaseDefaults(t *testing.T) {
	schema := buildChoiceTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	linkNode, _ := branch.Create("link")
	link := linkNode.(*DataBranch)

	ipSchema := schema.Child("link").Child("addr-choice").Child("static").Child("ip-address")
	ipNode, err := NewWithValue(ipSchema, "10.0.0.1")
	if err != nil {
		t.Fatalf("NewWithValue(ip-address): %v", err)
	}
	if _, err := link.Insert(ipNode, &EditOption{Operation: EditMerge}); err != nil {
		t.Fatalf("Insert(ip-address): %v", err)
	}

	errs := Validate(root, false)
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			t.Fatalf("populating the static case should satisfy the mandatory choice, got: %# v", pretty.Formatter(errs))
		}
	}
	prefix := link.Get("prefix-length")
	if prefix == nil {
		t.Fatalf("expected prefix-length's case default to be inserted once the static case was populated")
	}
	if !prefix.IsDefault() {
		t.Fatalf("inserted default leaf should be flagged IsDefault")
	}
	if link.Exist("dhcp-client-id") {
		t.Fatalf("the unselected dhcp case must not gain any inserted member")
	}
}

func TestValidateChoiceExclusivityViolation(t *testing.T) {
	schema := buildChoiceTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	linkNode, _ := branch.Create("link")
	link := linkNode.(*DataBranch)

	ipSchema := schema.Child("link").Child("addr-choice").Child("static").Child("ip-address")
	ipNode, _ := NewWithValue(ipSchema, "10.0.0.1")
	link.Insert(ipNode, &EditOption{Operation: EditMerge})

	dhcpSchema := schema.Child("link").Child("addr-choice").Child("dhcp").Child("dhcp-client-id")
	dhcpNode, _ := NewWithValue(dhcpSchema, "client-1")
	link.Insert(dhcpNode, &EditOption{Operation: EditMerge})

	errs := Validate(root, false)
	found := false
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a choice-exclusivity violation with both cases populated, got: %# v", pretty.Formatter(errs))
	}
}

func TestValidateMandatoryLeafMissing(t *testing.T) {
	schema := buildTestSchema()
	nameSchema := schema.Child("interfaces").Child("interface").Child("name")
	nameSchema.Mandatory = true

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	ifacesBranch.Create("interface[name=eth0]")

	errs := Validate(root, false)
	if len(errs) == 0 {
		t.Fatalf("expected a mandatory-leaf error, got none; tree:\n%# v", pretty.Formatter(root))
	}
	found := false
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ConstraintViolated error among: %# v", pretty.Formatter(errs))
	}
}

func TestValidateCardinalityMaxElements(t *testing.T) {
	schema := buildTestSchema()
	ifaceSchema := schema.Child("interfaces").Child("interface")
	ifaceSchema.MaxElements = 1

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	ifacesBranch.Create("interface[name=eth0]")
	ifacesBranch.Create("interface[name=eth1]")

	errs := Validate(root, false)
	if len(errs) == 0 {
		t.Fatalf("expected a max-elements violation, got none; tree:\n%# v", pretty.Formatter(root))
	}
}

func TestValidateDefaultInsertion(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")

	Validate(root, false)

	descr := eth0.Get("description")
	if descr == nil {
		t.Fatalf("expected the default-valued description leaf to be inserted")
	}
	if got := descr.ValueString(); got != "none" {
		t.Fatalf("description default = %q, want %q\n%# v", got, "none", pretty.Formatter(descr))
	}
}

func TestValidateMustConstraint(t *testing.T) {
	schema := buildTestSchema()
	mtuSchema := schema.Child("interfaces").Child("interface").Child("mtu")
	mtuSchema.Must = []mustConstraint{{
		Expr:         mustCompile(t, "number(.) > 100"),
		ErrorMessage: "mtu must exceed 100",
	}}

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	eth0.Create("mtu", "50")

	errs := Validate(root, false)
	if len(errs) == 0 {
		t.Fatalf("expected the must constraint to fail for mtu=50")
	}
	matched := false
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			matched = true
		}
	}
	if !matched {
		t.Fatalf("expected a ConstraintViolated error, got: %# v", pretty.Formatter(errs))
	}
}

func TestValidateWhenRemovesNode(t *testing.T) {
	schema := buildTestSchema()
	descrSchema := schema.Child("interfaces").Child("interface").Child("description")
	descrSchema.When = mustCompile(t, "../mtu > 1000")

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	eth0.Create("mtu", "500")
	eth0.Create("description", "should be removed")

	Validate(root, false)

	if eth0.Exist("description") {
		t.Fatalf("description should have been removed by its false when condition")
	}
}

func TestValidateStateDataRejectedWhenConfigOnly(t *testing.T) {
	schema := buildTestSchema()
	schema.Child("interfaces").Child("interface").Child("mtu").Config = false

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	eth0.Create("mtu", "1500")

	errs := Validate(root, true)
	found := false
	for _, e := range errs {
		if e.Kind == ConstraintViolated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected state data under configOnly to be rejected, got: %# v", pretty.Formatter(errs))
	}
}

func TestValidateLeafrefResolution(t *testing.T) {
	schema := buildTestSchema()
	descrSchema := schema.Child("interfaces").Child("interface").Child("description")
	descrSchema.Type = &yang.YangType{Kind: yang.Yleafref}
	descrSchema.LeafrefPath = mustCompile(t, "../../interface/name")

	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	eth0.Create("description", "eth0")

	errs := Validate(root, false)
	for _, e := range errs {
		if e.Kind == ReferenceNotFound {
			t.Fatalf("leafref pointing at an existing name should resolve, got: %# v", pretty.Formatter(errs))
		}
	}
}
