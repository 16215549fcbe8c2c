package yangkit

// Namespace URIs for the NETCONF/YANG XML attributes xml.go's decoder
// recognizes, per spec.md §5's ietf-netconf:operation and
// yang:insert/yang:key/yang:value supplements, and for RFC 6243's
// with-defaults tagging attribute, which only the encoder writes.
const (
	nsNetconfBase         = "urn:ietf:params:xml:ns:netconf:base:1.0"
	nsYang1               = "urn:ietf:params:xml:ns:yang:1"
	nsNetconfWithDefaults = "urn:ietf:params:xml:ns:netconf:default:1.0"
)

// parseEditOperation maps an ietf-netconf:operation attribute value to
// the Operation it names, defaulting to EditMerge for an unrecognized
// or empty value (NETCONF's own default edit operation).
func parseEditOperation(value string) Operation {
	switch value {
	case "create":
		return EditCreate
	case "replace":
		return EditReplace
	case "delete":
		return EditDelete
	case "remove":
		return EditRemove
	default:
		return EditMerge
	}
}

// isTrimmableDefault reports whether n is a value RFC 6243's "trim"
// mode omits from output: either explicitly flagged as schema-default
// (IsDefault), or a leaf whose value the user set but which still
// equals its schema's declared default.
func isTrimmableDefault(n DataNode) bool {
	if n.IsDefault() {
		return true
	}
	s := n.Schema()
	if s == nil || len(s.Default) == 0 {
		return false
	}
	if s.Kind != KindLeaf && s.Kind != KindLeafList {
		return false
	}
	v := n.ValueString()
	for _, d := range s.Default {
		if v == d {
			return true
		}
	}
	return false
}

// skipForWithDefaults reports whether mode requires n to be omitted
// entirely from print output.
func skipForWithDefaults(n DataNode, mode WithDefaultsMode) bool {
	switch mode {
	case WithDefaultsTrim:
		return isTrimmableDefault(n)
	case WithDefaultsExplicit:
		return n.IsDefault()
	default:
		return false
	}
}
