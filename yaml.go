package yangkit

import (
	"bytes"
	"io"
	"strconv"

	"github.com/openconfig/goyang/pkg/yang"
	"gopkg.in/yaml.v2"
)

// EncodeYAML renders node as YAML onto w, a third print format
// alongside EncodeXML/EncodeJSON kept for tooling that prefers a
// human-editable config format over NETCONF's own wire encodings.
// Member order matches schema order (via yaml.MapSlice) and scalar
// leaves are rendered as native YAML types rather than all strings, so
// output reads like hand-written YAML, not a dump of RFC 7951 JSON.
func EncodeYAML(w io.Writer, node DataNode, mode ...WithDefaultsMode) error {
	m := WithDefaultsReportAll
	if len(mode) > 0 {
		m = mode[0]
	}
	v, err := toYAMLValue(node, "", true, m)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		return wrapError(Semantic, node.Path(), err, "marshaling YAML")
	}
	_, err = w.Write(b)
	return err
}

func toYAMLValue(node DataNode, parentModule string, topLevel bool, mode WithDefaultsMode) (interface{}, error) {
	if node.IsOpaqueNode() {
		o := node.(*DataOpaque)
		if len(o.children) == 0 {
			return o.value, nil
		}
		items := make(yaml.MapSlice, 0, len(o.children))
		for _, c := range o.children {
			v, err := toYAMLValue(c, "", false, mode)
			if err != nil {
				return nil, err
			}
			items = append(items, yaml.MapItem{Key: c.Name(), Value: v})
		}
		return items, nil
	}

	schema := node.Schema()
	switch schema.Kind {
	case KindLeaf, KindLeafList:
		return yamlScalar(schema, node.ValueString()), nil
	case KindAny:
		return node.ValueString(), nil
	default:
		mod := schema.ModuleName
		var children []DataNode
		for _, c := range node.Children() {
			if !skipForWithDefaults(c, mode) {
				children = append(children, c)
			}
		}
		grouped := map[string][]DataNode{}
		order := []string{}
		for _, c := range children {
			name := jsonMemberName(c, mod, false)
			if _, seen := grouped[name]; !seen {
				order = append(order, name)
			}
			grouped[name] = append(grouped[name], c)
		}
		items := make(yaml.MapSlice, 0, len(order))
		for _, name := range order {
			group := grouped[name]
			if len(group) > 1 || (len(group) == 1 && group[0].Schema() != nil && group[0].Schema().Kind == KindLeafList) {
				arr := make([]interface{}, 0, len(group))
				for _, g := range group {
					v, err := toYAMLValue(g, mod, false, mode)
					if err != nil {
						return nil, err
					}
					arr = append(arr, v)
				}
				items = append(items, yaml.MapItem{Key: name, Value: arr})
			} else {
				v, err := toYAMLValue(group[0], mod, false, mode)
				if err != nil {
					return nil, err
				}
				items = append(items, yaml.MapItem{Key: name, Value: v})
			}
		}
		return items, nil
	}
}

// yamlScalar converts a leaf's canonical string value to the native Go
// value YAML renders it as: an integer type as int64, Ybool as bool,
// Yempty as nil (YAML's "~"), everything else left as a string.
func yamlScalar(schema *SchemaNode, value string) interface{} {
	if schema.Type == nil {
		return value
	}
	switch schema.Type.Kind {
	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64,
		yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		return value
	case yang.Ybool:
		return value == "true"
	case yang.Yempty:
		return nil
	default:
		return value
	}
}

// DecodeYAML parses a YAML document against schema, reusing the JSON
// decode path once the tree is normalized to the shapes
// decodeJSONMember expects: yaml.v2 decodes a mapping to
// map[interface{}]interface{} (not map[string]interface{}) and an
// integer scalar to a Go int (not float64), so normalizeYAML converts
// both before decodeJSONObject ever sees the tree.
func DecodeYAML(r io.Reader, schema *SchemaNode, mode ParseMode) (DataNode, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, wrapError(InvalidSyntax, schema.Name, err, "reading YAML document")
	}
	var raw interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, wrapError(InvalidSyntax, schema.Name, err, "decoding YAML document")
	}
	obj, ok := normalizeYAML(raw).(map[string]interface{})
	if !ok {
		return nil, newError(InvalidSyntax, schema.Name, "top-level YAML value must be a mapping")
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

// normalizeYAML recursively converts a yaml.v2 decode result into the
// shapes the JSON decode path expects: map[interface{}]interface{} ->
// map[string]interface{}, int -> float64 (jsonScalarString's numeric
// case), leaving []interface{} and other scalars untouched.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, cv := range t {
			out[toYAMLKey(k)] = normalizeYAML(cv)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, cv := range t {
			out[k] = normalizeYAML(cv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, cv := range t {
			out[i] = normalizeYAML(cv)
		}
		return out
	case int:
		return float64(t)
	default:
		return v
	}
}

func toYAMLKey(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return ""
}
