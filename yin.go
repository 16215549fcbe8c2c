package yangkit

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// yinArgElementByKeyword holds the RFC 7950 §11 exceptions to "arg as the
// 'name' attribute": statements whose YANG argument is instead carried
// by a named child element rather than an attribute (e.g. "description"
// carries its argument in a child <text> element, not an attribute).
var yinArgElementByKeyword = map[string]string{
	"description":   "text",
	"reference":     "text",
	"contact":       "text",
	"organization":  "text",
	"error-message": "value",
}

// yinValueAttrByKeyword names the attribute (other than the default
// "name") a statement's YIN element argument is written as, per the
// RFC 7950 §11 mapping table.
var yinValueAttrByKeyword = map[string]string{
	"range":              "value",
	"length":             "value",
	"pattern":            "value",
	"position":           "value",
	"value":              "value",
	"fraction-digits":    "value",
	"min-elements":       "value",
	"max-elements":       "value",
	"enum":               "name",
	"bit":                "name",
	"if-feature":         "name",
	"must":               "condition",
	"when":               "condition",
	"error-app-tag":      "value",
	"yin-element":        "value",
	"default":            "value",
	"revision-date":      "date",
	"namespace":          "uri",
	"base":               "name",
	"type":               "name",
	"belongs-to":         "module",
	"uses":                "name",
	"prefix":             "value",
	"key":                "value",
	"config":             "value",
	"mandatory":          "value",
	"path":               "value",
	"status":             "value",
	"ordered-by":         "value",
	"presence":           "value",
	"unique":             "tag",
	"require-instance":   "value",
	"yang-version":       "value",
	"revision":           "date",
	"import":             "module",
	"include":            "module",
	"augment":            "target-node",
	"refine":             "target-node",
}

// TranspileYIN turns a YIN document (RFC 7950 §11) into equivalent
// YANG concrete syntax, so it can be fed through the same goyang parser
// the native YANG front-end uses. No example repo in the retrieval
// pack implements a YIN reader (goyang has none); this is a from-
// scratch textual transpiler rather than a second native AST, which
// keeps the rest of the compiler (schema.go, Load) oblivious to which
// front-end produced the source text.
func TranspileYIN(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", wrapError(InvalidSyntax, "", err, "reading YIN document")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := transpileYINElement(dec, t, &b, depth); err != nil {
				return "", err
			}
		}
	}
	return b.String(), nil
}

func transpileYINElement(dec *xml.Decoder, start xml.StartElement, b *strings.Builder, depth int) error {
	keyword := start.Name.Local
	indent := strings.Repeat("  ", depth)
	arg, hasArg := yinArgument(start, keyword)

	var head strings.Builder
	fmt.Fprintf(&head, "%s%s", indent, keyword)
	if hasArg && yinArgElementByKeyword[keyword] == "" {
		fmt.Fprintf(&head, " %s", yinQuote(arg))
	}

	// Each child is transpiled into body as soon as its start tag is
	// seen, not deferred -- the decoder hands back a child's own
	// EndElement before its parent's, so we must fully consume a
	// child's subtree before the next Token() call can be the
	// parent's own closing tag.
	var body strings.Builder
	var textArg string
	haveChildren := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return wrapError(InvalidSyntax, keyword, err, "reading YIN element %q", keyword)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if want := yinArgElementByKeyword[keyword]; want != "" && t.Name.Local == want {
				inner, err := yinReadText(dec)
				if err != nil {
					return err
				}
				textArg = inner
				continue
			}
			haveChildren = true
			if err := transpileYINElement(dec, t, &body, depth+1); err != nil {
				return err
			}
		case xml.CharData:
			// ignore whitespace between elements
		case xml.EndElement:
			b.WriteString(head.String())
			if textArg != "" {
				fmt.Fprintf(b, " %s", yinQuote(textArg))
			}
			if !haveChildren {
				b.WriteString(";\n")
				return nil
			}
			b.WriteString(" {\n")
			b.WriteString(body.String())
			fmt.Fprintf(b, "%s}\n", indent)
			return nil
		}
	}
}

// yinArgument extracts a statement's argument per RFC 7950 §11's table:
// the "name" attribute by default, or the keyword-specific attribute
// yinValueAttrByKeyword names.
func yinArgument(start xml.StartElement, keyword string) (string, bool) {
	attr := "name"
	if a, ok := yinValueAttrByKeyword[keyword]; ok {
		attr = a
	}
	for _, a := range start.Attr {
		if a.Name.Local == attr {
			return a.Value, true
		}
	}
	return "", false
}

func yinReadText(dec *xml.Decoder) (string, error) {
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return text.String(), nil
		}
	}
}

// yinQuote renders s as a double-quoted YANG string, escaping the
// characters RFC 7950 §6.1.3 requires inside a quoted string.
func yinQuote(s string) string {
	return strconv.Quote(s)
}
