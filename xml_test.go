package yangkit

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestEncodeDecodeXMLRoundTrip(t *testing.T) {
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
	if err := EncodeXML(&buf, root); err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	xmlText := buf.String()
	if !strings.Contains(xmlText, "<mtu>1500</mtu>") {
		t.Fatalf("encoded XML missing mtu value: %s", xmlText)
	}

	decoded, err := DecodeXML(strings.NewReader(xmlText), schema, ParseFull)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	decodedBranch := decoded.(*DataBranch)
	ifaces := decodedBranch.Get("interfaces").(*DataBranch)
	instance := ifaces.Get("interface[name=eth0]")
	if instance == nil {
		t.Fatalf("decoded tree missing interface[name=eth0]; children: %v", ifaces.Children())
	}
	eth0Decoded := instance.(*DataBranch)
	if got := eth0Decoded.Get("mtu").ValueString(); got != "1500" {
		t.Fatalf("decoded mtu = %q, want 1500", got)
	}
}

func TestDecodeXMLRejectsUnknownElementWithoutOpaqueMode(t *testing.T) {
	schema := buildTestSchema()
	xmlText := `<interfaces><bogus>1</bogus></interfaces>`
	if _, err := DecodeXML(strings.NewReader(xmlText), schema, ParseFull); err == nil {
		t.Fatalf("expected an error for an unknown element under ParseFull")
	}
}

func TestDecodeXMLAdmitsOpaqueElement(t *testing.T) {
	schema := buildTestSchema()
	xmlText := `<interfaces><bogus>1</bogus></interfaces>`
	tree, err := DecodeXML(strings.NewReader(xmlText), schema, ParseOpaqueAllowed)
	if err != nil {
		t.Fatalf("DecodeXML under ParseOpaqueAllowed: %v", err)
	}
	branch := tree.(*DataBranch)
	ifaces := branch.Get("interfaces").(*DataBranch)
	bogus := ifaces.Get("bogus")
	if bogus == nil || !bogus.IsOpaqueNode() {
		t.Fatalf("bogus element was not admitted as an opaque node")
	}
}

func TestEncodeXMLWithDefaultsModes(t *testing.T) {
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
	if err := EncodeXML(&trimmed, root, WithDefaultsTrim); err != nil {
		t.Fatalf("EncodeXML(trim): %v", err)
	}
	if strings.Contains(trimmed.String(), "<description>") {
		t.Fatalf("trim mode should omit the default-valued leaf: %s", trimmed.String())
	}

	var all strings.Builder
	if err := EncodeXML(&all, root, WithDefaultsReportAll); err != nil {
		t.Fatalf("EncodeXML(report-all): %v", err)
	}
	if !strings.Contains(all.String(), "<description>none</description>") {
		t.Fatalf("report-all mode should include the default-valued leaf: %s", all.String())
	}

	var tagged strings.Builder
	if err := EncodeXML(&tagged, root, WithDefaultsReportAllTagged); err != nil {
		t.Fatalf("EncodeXML(report-all-tagged): %v", err)
	}
	if !strings.Contains(tagged.String(), `default="true"`) {
		t.Fatalf("report-all-tagged mode should tag the default leaf: %s", tagged.String())
	}

	var explicit strings.Builder
	if err := EncodeXML(&explicit, root, WithDefaultsExplicit); err != nil {
		t.Fatalf("EncodeXML(explicit): %v", err)
	}
	if strings.Contains(explicit.String(), "<description>") {
		t.Fatalf("explicit mode should omit a node flagged IsDefault: %s", explicit.String())
	}
}

// A single document can name the same list key twice: the second
// occurrence's nc:operation="delete" attribute removes the instance the
// first occurrence just inserted, exercising parseEditAttributes end to
// end through the normal DecodeXML path rather than unit-testing it in
// isolation.
func TestDecodeXMLNetconfOperationDeleteAttribute(t *testing.T) {
	schema := buildTestSchema()
	xmlText := `<interfaces>` +
		`<interface><name>eth0</name><mtu>1500</mtu></interface>` +
		`<interface xmlns:nc="urn:ietf:params:xml:ns:netconf:base:1.0" nc:operation="delete"><name>eth0</name></interface>` +
		`</interfaces>`

	tree, err := DecodeXML(strings.NewReader(xmlText), schema, ParseFull)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	ifaces := tree.(*DataBranch).Get("interfaces").(*DataBranch)
	if ifaces.Exist("interface[name=eth0]") {
		t.Fatalf("nc:operation=delete should have removed the matching list instance")
	}
}

func TestDecodeXMLMetadataAttribute(t *testing.T) {
	schema := buildTestSchema()
	xmlText := `<interfaces><interface><name xmlns:ex="urn:example:ext" ex:origin="static">eth0</name></interface></interfaces>`
	tree, err := DecodeXML(strings.NewReader(xmlText), schema, ParseOpaqueAllowed)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	branch := tree.(*DataBranch)
	name := branch.Get("interfaces").(*DataBranch).Get("interface[name=eth0]").(*DataBranch).Get("name")
	meta := name.Metadata()
	if len(meta) != 1 || meta[0].Name != "origin" || meta[0].Value != "static" {
		t.Fatalf("expected one origin=static metadata annotation, got %#v", meta)
	}
}

func TestParseEditAttributesInsertPositioning(t *testing.T) {
	attrs := []xml.Attr{
		{Name: xml.Name{Space: nsYang1, Local: "insert"}, Value: "before"},
		{Name: xml.Name{Space: nsYang1, Local: "key"}, Value: "[name='eth0']"},
	}
	opt, meta := parseEditAttributes(attrs)
	if len(meta) != 0 {
		t.Fatalf("yang:insert/yang:key attributes must not be treated as metadata, got %#v", meta)
	}
	before, ok := opt.InsertOption.(InsertToBefore)
	if !ok {
		t.Fatalf("expected an InsertToBefore option, got %#v", opt.InsertOption)
	}
	if before.Key != "[name=eth0]" {
		t.Fatalf("InsertToBefore.Key = %q, want %q", before.Key, "[name=eth0]")
	}
}

func TestDecodeXMLConfigOnlySkipsStateData(t *testing.T) {
	schema := buildTestSchema()
	schema.Child("interfaces").Child("interface").Child("mtu").Config = false
	xmlText := `<interfaces><interface><name>eth0</name><mtu>1500</mtu></interface></interfaces>`
	tree, err := DecodeXML(strings.NewReader(xmlText), schema, ParseConfigOnly)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	branch := tree.(*DataBranch)
	iface := branch.Get("interfaces").(*DataBranch).Get("interface[name=eth0]").(*DataBranch)
	if iface.Exist("mtu") {
		t.Fatalf("config-only parse should have skipped the state-data mtu leaf")
	}
}
