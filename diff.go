package yangkit

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/diff"
	"github.com/pmezard/go-difflib/difflib"
)

// ChangeKind classifies one entry of a Diff's change list, per
// spec.md §4.G's "create|delete|replace|none" closing requirement.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeCreate
	ChangeDelete
	ChangeReplace
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "none"
	}
}

// Change is one node-level entry of a Diff result.
type Change struct {
	Kind ChangeKind
	Path string
	From string // previous value, for replace/delete
	To   string // new value, for create/replace
}

// Diff compares before and after (either may be nil for a whole-tree
// create/delete) and returns the ordered change list. Sibling lists
// are compared by list-key instance id, matching the teacher's
// DiffUpdated; DiffUpdated itself only ever returned create/replace
// sets (the caller had to call it twice, swapping arguments, to get
// deletes) -- Diff folds both directions into one pass and also emits
// ChangeNone for unchanged leaves, since spec.md's change list names
// all four kinds explicitly.
func Diff(before, after DataNode) []Change {
	var changes []Change
	diffNode(before, after, &changes)
	return changes
}

func diffNode(before, after DataNode, out *[]Change) {
	switch {
	case before == nil && after == nil:
		return
	case before == nil:
		*out = append(*out, Change{Kind: ChangeCreate, Path: after.Path(), To: after.ValueString()})
		for _, c := range after.Children() {
			diffNode(nil, c, out)
		}
		return
	case after == nil:
		*out = append(*out, Change{Kind: ChangeDelete, Path: before.Path(), From: before.ValueString()})
		for _, c := range before.Children() {
			diffNode(c, nil, out)
		}
		return
	}

	if before.IsLeafNode() || before.IsOpaqueNode() && len(before.Children()) == 0 {
		if cmp.Equal(before.ValueString(), after.ValueString()) {
			*out = append(*out, Change{Kind: ChangeNone, Path: after.Path()})
		} else {
			*out = append(*out, Change{Kind: ChangeReplace, Path: after.Path(), From: before.ValueString(), To: after.ValueString()})
		}
		return
	}

	beforeByID := map[string]DataNode{}
	for _, c := range before.Children() {
		beforeByID[idOf(c)] = c
	}
	seen := map[string]bool{}
	for _, c := range after.Children() {
		id := idOf(c)
		seen[id] = true
		diffNode(beforeByID[id], c, out)
	}
	for _, c := range before.Children() {
		if !seen[idOf(c)] {
			diffNode(c, nil, out)
		}
	}
}

// FormatChanges renders changes as a human-readable report: one "+" or
// "-" line per create/delete, godebug's line differ for each replace,
// and nothing for ChangeNone. FormatDocumentDiff covers whole
// serialized documents instead.
func FormatChanges(changes []Change) string {
	var b strings.Builder
	for _, c := range changes {
		switch c.Kind {
		case ChangeNone:
			continue
		case ChangeCreate:
			fmt.Fprintf(&b, "+ %s = %s\n", c.Path, c.To)
		case ChangeDelete:
			fmt.Fprintf(&b, "- %s = %s\n", c.Path, c.From)
		case ChangeReplace:
			fmt.Fprintf(&b, "%s", diff.Diff(c.Path+" = "+c.From, c.Path+" = "+c.To))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatDocumentDiff renders a unified diff between two whole
// serialized documents (e.g. two EncodeXML/EncodeJSON outputs), for
// callers that want textual rather than structural output.
func FormatDocumentDiff(before, after string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
