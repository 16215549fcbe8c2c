package yangkit

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ParseMode selects which subset of a module a Decode call accepts,
// per spec.md §4.F's five parse modes. Only two change decoding:
// ParseConfigOnly skips config=false nodes and ParseOpaqueAllowed keeps
// unknown nodes as DataOpaque. ParseRPCOrAction and ParseNotification
// decode exactly as ParseFull does.
type ParseMode int

const (
	ParseFull ParseMode = iota
	ParseConfigOnly
	ParseRPCOrAction
	ParseNotification
	ParseOpaqueAllowed
)

// EncodeXML serializes node as an XML element tree onto w, the
// encoding/xml.Encoder-based layer spec.md §4.C calls for: an
// open-element boundary is only namespace-qualified ("xmlns=...")
// where the child's module differs from its parent's, matching
// NETCONF's minimal-namespace-repetition convention. mode selects the
// ietf-netconf-with-defaults reporting mode (spec.md §5), defaulting to
// WithDefaultsReportAll when omitted so existing single-argument call
// sites keep their current behavior.
func EncodeXML(w io.Writer, node DataNode, mode ...WithDefaultsMode) error {
	m := WithDefaultsReportAll
	if len(mode) > 0 {
		m = mode[0]
	}
	enc := xml.NewEncoder(w)
	// The synthetic forest root (schema name "") has no element of its
	// own -- NETCONF content is a sequence of top-level elements, not a
	// single-rooted document, so its children are written directly.
	if s := node.Schema(); s != nil && s.Name == "" && !node.IsOpaqueNode() {
		for _, c := range node.Children() {
			if err := encodeXMLNode(enc, c, "", m); err != nil {
				return err
			}
		}
		return enc.Flush()
	}
	if err := encodeXMLNode(enc, node, "", m); err != nil {
		return err
	}
	return enc.Flush()
}

func encodeXMLNode(enc *xml.Encoder, node DataNode, parentNS string, mode WithDefaultsMode) error {
	if skipForWithDefaults(node, mode) {
		return nil
	}
	if node.IsOpaqueNode() {
		o := node.(*DataOpaque)
		start := xml.StartElement{Name: xml.Name{Local: o.name}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if len(o.children) == 0 {
			if err := enc.EncodeToken(xml.CharData(o.value)); err != nil {
				return err
			}
		}
		for _, c := range o.children {
			if err := encodeXMLNode(enc, c, "", mode); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}

	schema := node.Schema()
	start := xml.StartElement{Name: xml.Name{Local: schema.Name}}
	if schema.Namespace != "" && schema.Namespace != parentNS {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: schema.Namespace})
	}
	if mode == WithDefaultsReportAllTagged && isTrimmableDefault(node) {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Space: nsNetconfWithDefaults, Local: "default"}, Value: "true"})
	}
	for _, md := range node.Metadata() {
		space := md.Namespace
		if space == "" {
			space = md.Module
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Space: space, Local: md.Name}, Value: md.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	switch schema.Kind {
	case KindLeaf, KindLeafList:
		if err := enc.EncodeToken(xml.CharData(node.ValueString())); err != nil {
			return err
		}
	case KindAny:
		if err := enc.EncodeToken(xml.CharData(node.ValueString())); err != nil {
			return err
		}
	default:
		ns := schema.Namespace
		if ns == "" {
			ns = parentNS
		}
		for _, c := range node.Children() {
			if err := encodeXMLNode(enc, c, ns, mode); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

// DecodeXML parses XML data against schema's children, building the
// equivalent DataBranch. Elements whose name matches no schema child
// are admitted as DataOpaque when mode is ParseOpaqueAllowed and
// rejected (ReferenceNotFound) otherwise, per spec.md §3's opaque-node
// invariant and §4.F's parse-mode list.
func DecodeXML(r io.Reader, schema *SchemaNode, mode ParseMode) (DataNode, error) {
	dec := xml.NewDecoder(r)
	root, err := New(schema)
	if err != nil {
		return nil, err
	}
	branch, ok := root.(*DataBranch)
	if !ok {
		return nil, newError(Unsupported, schema.Name, "DecodeXML requires a branch schema root")
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapError(InvalidSyntax, schema.Name, err, "reading XML token stream")
		}
		if se, ok := tok.(xml.StartElement); ok {
			if err := decodeXMLElement(dec, se, branch, mode); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

func decodeXMLElement(dec *xml.Decoder, se xml.StartElement, parent *DataBranch, mode ParseMode) error {
	childSchema := parent.schema.Child(se.Name.Local)
	if childSchema == nil {
		if mode != ParseOpaqueAllowed {
			return newError(ReferenceNotFound, se.Name.Local, "no schema node named %q under %q", se.Name.Local, parent.schema.Name)
		}
		return decodeOpaqueElement(dec, se, parent)
	}
	if mode == ParseConfigOnly && !childSchema.Config {
		return skipXMLElement(dec)
	}
	child, err := New(childSchema)
	if err != nil {
		return err
	}
	opt, meta := parseEditAttributes(se.Attr)
	for _, m := range meta {
		child.AddMetadata(m)
	}
	switch v := child.(type) {
	case *DataLeaf:
		text, err := readXMLCharData(dec, se)
		if err != nil {
			return err
		}
		if err := v.SetValueString(strings.TrimSpace(text)); err != nil {
			return err
		}
		_, err = parent.Insert(v, opt)
		return err
	case *DataAny:
		text, err := readXMLCharData(dec, se)
		if err != nil {
			return err
		}
		v.raw = text
		_, err = parent.Insert(v, opt)
		return err
	case *DataBranch:
		for {
			tok, err := dec.Token()
			if err != nil {
				return wrapError(InvalidSyntax, childSchema.Name, err, "reading XML token stream")
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if err := decodeXMLElement(dec, t, v, mode); err != nil {
					return err
				}
			case xml.EndElement:
				if childSchema.Kind == KindList {
					v.id = keyID(childSchema, keyValuesOf(v, childSchema))
				}
				_, err = parent.Insert(v, opt)
				return err
			}
		}
	}
	return nil
}

// parseEditAttributes splits an element's XML attributes into the
// ietf-netconf:operation/yang:insert family (consumed as an EditOption)
// and every other namespaced attribute, treated as an RFC 7952 metadata
// annotation (spec.md §4.C/§6).
func parseEditAttributes(attrs []xml.Attr) (*EditOption, []Metadata) {
	opt := &EditOption{Operation: EditMerge}
	var insertAttr, keyAttr, valueAttr string
	var meta []Metadata
	for _, a := range attrs {
		switch {
		case a.Name.Space == nsNetconfBase && a.Name.Local == "operation":
			opt.Operation = parseEditOperation(a.Value)
		case a.Name.Space == nsYang1 && a.Name.Local == "insert":
			insertAttr = a.Value
		case a.Name.Space == nsYang1 && a.Name.Local == "key":
			keyAttr = a.Value
		case a.Name.Space == nsYang1 && a.Name.Local == "value":
			valueAttr = a.Value
		case a.Name.Space != "" && a.Name.Space != "xmlns":
			meta = append(meta, Metadata{Namespace: a.Name.Space, Name: a.Name.Local, Value: a.Value})
		}
	}
	switch insertAttr {
	case "first":
		opt.InsertOption = InsertToFirst{}
	case "last":
		opt.InsertOption = InsertToLast{}
	case "before":
		opt.InsertOption = InsertToBefore{Key: insertPredicate(keyAttr, valueAttr)}
	case "after":
		opt.InsertOption = InsertToAfter{Key: insertPredicate(keyAttr, valueAttr)}
	}
	return opt, meta
}

// insertPredicate renders a yang:key (list) or yang:value (leaf-list)
// attribute value into the bracket-predicate suffix DataBranch.Get
// expects, e.g. "[name='eth0']" -> "[name=eth0]" or a bare leaf-list
// value -> "[.=value]".
func insertPredicate(keyAttr, valueAttr string) string {
	if keyAttr != "" {
		return strings.ReplaceAll(strings.ReplaceAll(keyAttr, "'", ""), "\"", "")
	}
	return "[.=" + valueAttr + "]"
}

func decodeOpaqueElement(dec *xml.Decoder, se xml.StartElement, parent *DataBranch) error {
	node := &DataOpaque{name: se.Name.Local}
	for {
		tok, err := dec.Token()
		if err != nil {
			return wrapError(InvalidSyntax, se.Name.Local, err, "reading XML token stream")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			save := node
			if err := decodeOpaqueChild(dec, t, save); err != nil {
				return err
			}
		case xml.CharData:
			node.value += string(t)
		case xml.EndElement:
			_, err := parent.Insert(node, &EditOption{Operation: EditMerge})
			return err
		}
	}
}

func decodeOpaqueChild(dec *xml.Decoder, se xml.StartElement, parent *DataOpaque) error {
	child := &DataOpaque{name: se.Name.Local, parent: parent}
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := decodeOpaqueChild(dec, t, child); err != nil {
				return err
			}
		case xml.CharData:
			child.value += string(t)
		case xml.EndElement:
			parent.children = append(parent.children, child)
			return nil
		}
	}
}

func readXMLCharData(dec *xml.Decoder, se xml.StartElement) (string, error) {
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", wrapError(InvalidSyntax, se.Name.Local, err, "reading XML character data")
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return text.String(), nil
		case xml.StartElement:
			return "", newError(InvalidSyntax, se.Name.Local, "unexpected mixed content in leaf %q", se.Name.Local)
		}
	}
}

func skipXMLElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// WithDefaultsMode is the ietf-netconf-with-defaults reporting mode a
// print pass applies to default-valued leaves, per spec.md §5's
// supplemented feature.
type WithDefaultsMode int

const (
	WithDefaultsTrim WithDefaultsMode = iota
	WithDefaultsReportAll
	WithDefaultsReportAllTagged
	WithDefaultsExplicit
)

func (m WithDefaultsMode) String() string {
	switch m {
	case WithDefaultsTrim:
		return "trim"
	case WithDefaultsReportAll:
		return "report-all"
	case WithDefaultsReportAllTagged:
		return "report-all-tagged"
	case WithDefaultsExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}
