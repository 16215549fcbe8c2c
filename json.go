package yangkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
)

// EncodeJSON renders node as RFC 7951 JSON onto w: every member name
// at a module boundary is written "module:name", container/list
// members are nested objects/arrays, and a Yempty leaf is printed as
// JSON null as RFC 7951 §6.9 requires. mode selects the
// ietf-netconf-with-defaults reporting mode (spec.md §5), defaulting to
// WithDefaultsReportAll when omitted.
func EncodeJSON(w io.Writer, node DataNode, mode ...WithDefaultsMode) error {
	m := WithDefaultsReportAll
	if len(mode) > 0 {
		m = mode[0]
	}
	var buf bytes.Buffer
	if err := encodeJSONValue(&buf, node, "", true, m); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func jsonMemberName(node DataNode, parentModule string, topLevel bool) string {
	if node.IsOpaqueNode() {
		return node.Name()
	}
	mod := node.Schema().ModuleName
	if topLevel || mod != parentModule {
		return mod + ":" + node.Name()
	}
	return node.Name()
}

func encodeJSONValue(buf *bytes.Buffer, node DataNode, parentModule string, topLevel bool, mode WithDefaultsMode) error {
	if node.IsOpaqueNode() {
		o := node.(*DataOpaque)
		if len(o.children) == 0 {
			buf.WriteString(strconv.Quote(o.value))
			return nil
		}
		buf.WriteByte('{')
		for i, c := range o.children {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "%q:", c.Name())
			if err := encodeJSONValue(buf, c, "", false, mode); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}

	schema := node.Schema()
	switch schema.Kind {
	case KindLeaf, KindLeafList:
		return encodeJSONScalar(buf, schema, node.ValueString())
	case KindAny:
		buf.WriteString(strconv.Quote(node.ValueString()))
		return nil
	default:
		mod := schema.ModuleName
		var children []DataNode
		for _, c := range node.Children() {
			if !skipForWithDefaults(c, mode) {
				children = append(children, c)
			}
		}
		// group list and leaf-list siblings into one JSON array each (RFC
		// 7951 §5.3/§5.4), even when only one instance is present
		grouped := map[string][]DataNode{}
		order := []string{}
		for _, c := range children {
			name := jsonMemberName(c, mod, false)
			if _, seen := grouped[name]; !seen {
				order = append(order, name)
			}
			grouped[name] = append(grouped[name], c)
		}
		var fields []string
		for _, name := range order {
			group := grouped[name]
			var vb bytes.Buffer
			if len(group) > 1 || (len(group) == 1 && group[0].Schema() != nil && (group[0].Schema().Kind == KindLeafList || group[0].Schema().Kind == KindList)) {
				vb.WriteByte('[')
				for j, g := range group {
					if j > 0 {
						vb.WriteByte(',')
					}
					if err := encodeJSONValue(&vb, g, mod, false, mode); err != nil {
						return err
					}
				}
				vb.WriteByte(']')
			} else {
				if err := encodeJSONValue(&vb, group[0], mod, false, mode); err != nil {
					return err
				}
			}
			fields = append(fields, fmt.Sprintf("%q:%s", name, vb.String()))
			if meta := jsonMetadataField(name, group, mode); meta != "" {
				fields = append(fields, meta)
			}
		}
		buf.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(f)
		}
		buf.WriteByte('}')
		return nil
	}
}

// jsonMetadataField renders the "@name" sibling member RFC 7952 JSON
// uses to carry a group's annotations (and, in report-all-tagged mode,
// its with-defaults "default" tag), or "" if the group carries none.
func jsonMetadataField(name string, group []DataNode, mode WithDefaultsMode) string {
	isList := len(group) > 1 || (len(group) == 1 && group[0].Schema() != nil && (group[0].Schema().Kind == KindLeafList || group[0].Schema().Kind == KindList))
	objs := make([]string, len(group))
	any := false
	for i, n := range group {
		objs[i] = jsonMetadataObject(n, mode)
		if objs[i] != "{}" {
			any = true
		}
	}
	if !any {
		return ""
	}
	if !isList {
		return fmt.Sprintf("%q:%s", "@"+name, objs[0])
	}
	return fmt.Sprintf("%q:[%s]", "@"+name, strings.Join(objs, ","))
}

func jsonMetadataObject(n DataNode, mode WithDefaultsMode) string {
	var fields []string
	if mode == WithDefaultsReportAllTagged && isTrimmableDefault(n) {
		fields = append(fields, `"default":true`)
	}
	for _, md := range n.Metadata() {
		key := md.Name
		if md.Module != "" {
			key = md.Module + ":" + md.Name
		}
		fields = append(fields, fmt.Sprintf("%q:%q", key, md.Value))
	}
	return "{" + strings.Join(fields, ",") + "}"
}

// encodeJSONScalar applies RFC 7951 §6's per-type JSON encoding: small
// integers and decimal64 as a bare number, 64-bit integers as a quoted
// string (a JSON number cannot carry 64 bits of precision losslessly),
// bool as true/false, empty as null, everything else as a string.
func encodeJSONScalar(buf *bytes.Buffer, schema *SchemaNode, value string) error {
	if schema.Type == nil {
		buf.WriteString(strconv.Quote(value))
		return nil
	}
	switch schema.Type.Kind {
	case yang.Yint8, yang.Yint16, yang.Yint32,
		yang.Yuint8, yang.Yuint16, yang.Yuint32,
		yang.Ydecimal64:
		buf.WriteString(value)
	case yang.Yint64, yang.Yuint64:
		buf.WriteString(strconv.Quote(value))
	case yang.Ybool:
		buf.WriteString(value)
	case yang.Yempty:
		buf.WriteString("null")
	default:
		buf.WriteString(strconv.Quote(value))
	}
	return nil
}

// DecodeJSON parses RFC 7951 JSON data against schema, accepting
// opaque members when mode is ParseOpaqueAllowed and module-qualified
// or bare member names alike (a member under a module boundary may be
// written unqualified once its module is already established by an
// ancestor, per RFC 7951 §4's qualification rule).
func DecodeJSON(r io.Reader, schema *SchemaNode, mode ParseMode) (DataNode, error) {
	dec := json.NewDecoder(r)
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, wrapError(InvalidSyntax, schema.Name, err, "decoding JSON document")
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, newError(InvalidSyntax, schema.Name, "top-level JSON value must be an object")
	}
	root, err := New(schema)
	if err != nil {
		return nil, err
	}
	branch := root.(*DataBranch)
	if err := decodeJSONObject(branch, obj, mode); err != nil {
		return nil, err
	}
	return root, nil
}

// decodeJSONObject decodes every ordinary member of obj onto branch,
// then applies every "@name" member's RFC 7952 annotations in a second
// pass: metadata always follows the member it annotates, per RFC 7952
// §4's convention, but a JSON object's member order is not guaranteed,
// so the members it annotates must already exist before attachment is
// attempted.
func decodeJSONObject(branch *DataBranch, obj map[string]interface{}, mode ParseMode) error {
	for name, v := range obj {
		if strings.HasPrefix(name, "@") {
			continue
		}
		if err := decodeJSONMember(branch, name, v, mode); err != nil {
			return err
		}
	}
	for name, v := range obj {
		if strings.HasPrefix(name, "@") {
			applyJSONMetadata(branch, name, v)
		}
	}
	return nil
}

// applyJSONMetadata attaches the annotations an "@name" member carries
// to the already-decoded sibling instance(s) named name: a single
// object for a container/leaf, or a same-length array of objects for a
// list/leaf-list (RFC 7952 §4's per-instance annotation rule).
func applyJSONMetadata(parent *DataBranch, name string, v interface{}) {
	local := strings.TrimPrefix(name, "@")
	_, local = splitModuleName(local)
	targets := parent.GetAll(local)
	if len(targets) == 0 {
		return
	}
	switch t := v.(type) {
	case map[string]interface{}:
		attachJSONMetadata(targets[0], t)
	case []interface{}:
		for i, elem := range t {
			if i >= len(targets) {
				break
			}
			if m, ok := elem.(map[string]interface{}); ok {
				attachJSONMetadata(targets[i], m)
			}
		}
	}
}

func attachJSONMetadata(node DataNode, obj map[string]interface{}) {
	for k, v := range obj {
		mod, local := splitModuleName(k)
		node.AddMetadata(Metadata{Module: mod, Name: local, Value: fmt.Sprint(v)})
	}
}

func splitModuleName(s string) (mod, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

func decodeJSONMember(parent *DataBranch, name string, v interface{}, mode ParseMode) error {
	local := name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		local = name[i+1:]
	}
	childSchema := parent.schema.Child(local)
	if childSchema == nil {
		if mode != ParseOpaqueAllowed {
			return newError(ReferenceNotFound, local, "no schema node named %q under %q", local, parent.schema.Name)
		}
		return decodeJSONOpaque(parent, local, v)
	}
	if mode == ParseConfigOnly && !childSchema.Config {
		return nil
	}
	switch childSchema.Kind {
	case KindLeaf:
		s, err := jsonScalarString(v)
		if err != nil {
			return err
		}
		node, err := NewWithValue(childSchema, s)
		if err != nil {
			return err
		}
		_, err = parent.Insert(node, &EditOption{Operation: EditMerge})
		return err
	case KindLeafList:
		arr, ok := v.([]interface{})
		if !ok {
			return newError(InvalidSyntax, local, "leaf-list %q must be a JSON array", local)
		}
		for _, elem := range arr {
			s, err := jsonScalarString(elem)
			if err != nil {
				return err
			}
			node, err := NewWithValue(childSchema, s)
			if err != nil {
				return err
			}
			if _, err := parent.Insert(node, &EditOption{Operation: EditMerge}); err != nil {
				return err
			}
		}
		return nil
	case KindAny:
		b, _ := json.Marshal(v)
		node := &DataAny{baseNode: baseNode{schema: childSchema}, raw: string(b)}
		_, err := parent.Insert(node, &EditOption{Operation: EditMerge})
		return err
	case KindList:
		arr, ok := v.([]interface{})
		if !ok {
			return newError(InvalidSyntax, local, "list %q must be a JSON array", local)
		}
		for _, elem := range arr {
			obj, ok := elem.(map[string]interface{})
			if !ok {
				return newError(InvalidSyntax, local, "list %q entry must be a JSON object", local)
			}
			child, err := New(childSchema)
			if err != nil {
				return err
			}
			cb := child.(*DataBranch)
			if err := decodeJSONObject(cb, obj, mode); err != nil {
				return err
			}
			cb.id = keyID(childSchema, keyValuesOf(cb, childSchema))
			if _, err := parent.Insert(cb, &EditOption{Operation: EditMerge}); err != nil {
				return err
			}
		}
		return nil
	default:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return newError(InvalidSyntax, local, "container %q must be a JSON object", local)
		}
		child, err := New(childSchema)
		if err != nil {
			return err
		}
		cb := child.(*DataBranch)
		if err := decodeJSONObject(cb, obj, mode); err != nil {
			return err
		}
		_, err = parent.Insert(cb, &EditOption{Operation: EditMerge})
		return err
	}
}

func decodeJSONOpaque(parent *DataBranch, name string, v interface{}) error {
	node := &DataOpaque{name: name}
	switch t := v.(type) {
	case map[string]interface{}:
		for k, cv := range t {
			if err := decodeOpaqueJSONChild(node, k, cv); err != nil {
				return err
			}
		}
	default:
		node.value = fmt.Sprint(v)
	}
	_, err := parent.Insert(node, &EditOption{Operation: EditMerge})
	return err
}

func decodeOpaqueJSONChild(parent *DataOpaque, name string, v interface{}) error {
	child := &DataOpaque{name: name, parent: parent}
	if m, ok := v.(map[string]interface{}); ok {
		for k, cv := range m {
			if err := decodeOpaqueJSONChild(child, k, cv); err != nil {
				return err
			}
		}
	} else {
		child.value = fmt.Sprint(v)
	}
	parent.children = append(parent.children, child)
	return nil
}

func jsonScalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	default:
		return "", newError(InvalidSyntax, "", "unsupported JSON scalar %T", v)
	}
}

func keyValuesOf(branch *DataBranch, schema *SchemaNode) []string {
	out := make([]string, len(schema.Key))
	for i, k := range schema.Key {
		if c := branch.Get(k); c != nil {
			out[i] = c.ValueString()
		}
	}
	return out
}
