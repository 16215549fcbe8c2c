package yangkit

import (
	"strings"
	"testing"
)

func TestEncodeJSONBareUint32AndQuotedString(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	eth0.Create("mtu", "1500")

	var buf strings.Builder
	if err := EncodeJSON(&buf, root); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"mtu":1500`) {
		t.Fatalf("uint32 mtu should be a bare JSON number, got: %s", out)
	}
	if !strings.Contains(out, `"name":"eth0"`) {
		t.Fatalf("string name should be a quoted JSON string, got: %s", out)
	}
}

func TestDecodeJSONListRoundTrip(t *testing.T) {
	schema := buildTestSchema()
	doc := `{
		"test-interfaces:interfaces": {
			"interface": [
				{"name": "eth0", "mtu": 1500},
				{"name": "eth1", "mtu": 9000}
			]
		}
	}`
	tree, err := DecodeJSON(strings.NewReader(doc), schema, ParseFull)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	branch := tree.(*DataBranch)
	ifaces := branch.Get("interfaces").(*DataBranch)
	all := ifaces.GetAll("interface")
	if len(all) != 2 {
		t.Fatalf("got %d interface instances, want 2", len(all))
	}
	eth1 := ifaces.Get("interface[name=eth1]")
	if eth1 == nil {
		t.Fatalf("eth1 instance not found by key id")
	}
	mtu := eth1.(*DataBranch).Get("mtu")
	if mtu.ValueString() != "9000" {
		t.Fatalf("eth1 mtu = %q, want 9000", mtu.ValueString())
	}
}

func TestEncodeJSONWithDefaultsModes(t *testing.T) {
	schema := buildTestSchema()
	root, _ := New(schema)
	branch := root.(*DataBranch)
	ifacesNode, _ := branch.Create("interfaces")
	ifacesBranch := ifacesNode.(*DataBranch)
	eth0Node, _ := ifacesBranch.Create("interface[name=eth0]")
	eth0 := eth0Node.(*DataBranch)
	eth0.Create("name", "eth0")
	descr, _ := eth0.Create("description", "none")
	descr.SetDefault(true)

	var trimmed strings.Builder
	if err := EncodeJSON(&trimmed, root, WithDefaultsTrim); err != nil {
		t.Fatalf("EncodeJSON(trim): %v", err)
	}
	if strings.Contains(trimmed.String(), "description") {
		t.Fatalf("trim mode should omit the default-valued leaf, got: %s", trimmed.String())
	}

	var all strings.Builder
	if err := EncodeJSON(&all, root, WithDefaultsReportAll); err != nil {
		t.Fatalf("EncodeJSON(report-all): %v", err)
	}
	if !strings.Contains(all.String(), `"description":"none"`) {
		t.Fatalf("report-all mode should include the default-valued leaf, got: %s", all.String())
	}

	var tagged strings.Builder
	if err := EncodeJSON(&tagged, root, WithDefaultsReportAllTagged); err != nil {
		t.Fatalf("EncodeJSON(report-all-tagged): %v", err)
	}
	if !strings.Contains(tagged.String(), `"@description":{"default":true}`) {
		t.Fatalf("report-all-tagged mode should emit an @description default tag, got: %s", tagged.String())
	}
}

func TestJSONMetadataRoundTrip(t *testing.T) {
	schema := buildTestSchema()
	doc := `{
		"test-interfaces:interfaces": {
			"interface": [
				{"name": "eth0", "mtu": 1500, "@mtu": {"ex:origin": "static"}}
			]
		}
	}`
	tree, err := DecodeJSON(strings.NewReader(doc), schema, ParseFull)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	branch := tree.(*DataBranch)
	eth0 := branch.Get("interfaces").(*DataBranch).Get("interface[name=eth0]").(*DataBranch)
	mtu := eth0.Get("mtu")
	meta := mtu.Metadata()
	if len(meta) != 1 || meta[0].Module != "ex" || meta[0].Name != "origin" || meta[0].Value != "static" {
		t.Fatalf("expected one ex:origin=static metadata annotation, got %#v", meta)
	}

	var buf strings.Builder
	if err := EncodeJSON(&buf, tree); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"@mtu":{"ex:origin":"static"}`) {
		t.Fatalf("re-encoded JSON missing @mtu metadata, got: %s", buf.String())
	}
}

func TestDecodeJSONOpaqueMember(t *testing.T) {
	schema := buildTestSchema()
	doc := `{"interfaces": {"vendor:unknown-leaf": 42}}`
	tree, err := DecodeJSON(strings.NewReader(doc), schema, ParseOpaqueAllowed)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	branch := tree.(*DataBranch)
	ifaces := branch.Get("interfaces").(*DataBranch)
	unknown := ifaces.Get("unknown-leaf")
	if unknown == nil || !unknown.IsOpaqueNode() {
		t.Fatalf("unknown-leaf was not admitted as opaque")
	}
}
