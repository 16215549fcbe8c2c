package yangkit

import "fmt"

// PathSelect classifies how a single path step selects nodes, mirroring
// the small XPath subset spec.md §4.C's node-id/path-predicate grammar
// needs (child name, self, root, descendant-or-self, parent, wildcard).
type PathSelect int

const (
	PathSelectChild       PathSelect = iota // plain NAME step
	PathSelectSelf                          // "."
	PathSelectFromRoot                      // path begins with "/"
	PathSelectAllMatched                    // "//" or "..." (descendant-or-self)
	PathSelectParent                        // ".."
	PathSelectAllChildren                   // "*"
)

// PathStep is one "/"-separated element of a parsed node-id path, with
// its namespace prefix, predicates (key selectors or a numeric
// position filter) split out.
type PathStep struct {
	Prefix     string
	Name       string
	Value      string // set only for a trailing "=value" terminal step
	Select     PathSelect
	Predicates []string
}

var pathStepKeyword = map[string]PathSelect{
	".":                          PathSelectSelf,
	"self::node()":               PathSelectAllChildren,
	"..":                         PathSelectParent,
	"parent::node()":             PathSelectParent,
	"*":                          PathSelectAllChildren,
	"...":                        PathSelectAllMatched,
	"descendant-or-self::node()": PathSelectAllMatched,
	"child::node()":              PathSelectChild,
}

func updatePathSelect(s *PathStep) *PathStep {
	if sel, ok := pathStepKeyword[s.Name]; ok {
		s.Select = sel
	}
	return s
}

// ParsePath splits a node-id path (e.g. "/if:interfaces/interface[name=eth0]/mtu")
// into its ordered steps. It is a character scanner, not a general XPath
// parser: it understands exactly the subset spec.md §4.C's node-id and
// path-predicate grammar requires, and defers predicate expression
// evaluation to the xpath package.
func ParsePath(path string) ([]*PathStep, error) {
	steps := make([]*PathStep, 0, 8)
	step := &PathStep{}
	length := len(path)
	if length == 0 {
		return nil, fmt.Errorf("yangkit: empty path")
	}
	begin := 0
	end := 0
	insideBrackets := 0
	switch path[end] {
	case '/':
		step.Select = PathSelectFromRoot
		begin++
	case '=':
		step.Value = path[end+1:]
		return append(steps, step), nil
	case '[', ']':
		return nil, fmt.Errorf("yangkit: path %q starts with bracket", path)
	}
	end++
	for end < length {
		switch path[end] {
		case '/':
			if insideBrackets <= 0 {
				if path[end-1] == '/' {
					step.Select = PathSelectAllMatched
				} else {
					if begin < end {
						step.Name = path[begin:end]
					}
					begin = end + 1
					steps = append(steps, updatePathSelect(step))
					step = &PathStep{}
				}
			}
		case '[':
			if path[end-1] != '\\' {
				if insideBrackets <= 0 {
					if begin < end {
						step.Name = path[begin:end]
					}
					begin = end + 1
				}
				insideBrackets++
			}
		case ']':
			if path[end-1] != '\\' {
				insideBrackets--
				if insideBrackets <= 0 {
					step.Predicates = append(step.Predicates, path[begin:end])
					begin = end + 1
				}
			}
		case '=':
			if insideBrackets <= 0 {
				if begin < end {
					step.Name = path[begin:end]
					begin = end + 1
				}
				step.Value = path[begin:]
				return append(steps, updatePathSelect(step)), nil
			}
		case ':':
			if insideBrackets <= 0 {
				step.Prefix = path[begin:end]
				begin = end + 1
			}
		}
		end++
	}
	if insideBrackets > 0 {
		return nil, fmt.Errorf("yangkit: unbalanced bracket in path %q", path)
	}
	if path[end-1] == '/' {
		step.Select = PathSelectAllMatched
	} else if begin < end {
		step.Name = path[begin:end]
	}
	steps = append(steps, updatePathSelect(step))
	return steps, nil
}
