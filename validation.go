package yangkit

import (
	"github.com/golang/glog"
	"github.com/mvarela/yangkit/xpath"
	"github.com/openconfig/goyang/pkg/yang"
)

// Validate runs the fourteen-step ordered pipeline spec.md §4.G names
// against tree, returning every Error found rather than stopping at
// the first: all fourteen steps always run. The steps, in order: opaque
// rejection, state-data rule, default insertion, choice exclusivity,
// mandatory, cardinality, key uniqueness, unique, leaf-list
// uniqueness, duplicate siblings, when (fixpoint), must, leafref
// resolution, instance-identifier resolution.
func Validate(tree DataNode, configOnly bool) []*Error {
	var errs []*Error
	errs = append(errs, rejectOpaque(tree)...)
	errs = append(errs, checkStateDataRule(tree, configOnly)...)
	insertDefaults(tree)
	errs = append(errs, checkChoiceExclusivity(tree)...)
	errs = append(errs, checkMandatory(tree)...)
	errs = append(errs, checkCardinality(tree)...)
	errs = append(errs, checkKeyUniqueness(tree)...)
	errs = append(errs, checkUnique(tree)...)
	errs = append(errs, checkLeafListUniqueness(tree)...)
	errs = append(errs, checkDuplicateSiblings(tree)...)
	errs = append(errs, evaluateWhenFixpoint(tree)...)
	errs = append(errs, evaluateMust(tree)...)
	errs = append(errs, resolveLeafrefs(tree)...)
	errs = append(errs, resolveInstanceIdentifiers(tree)...)
	return errs
}

func walk(node DataNode, visit func(DataNode)) {
	visit(node)
	for _, c := range node.Children() {
		walk(c, visit)
	}
}

// rejectOpaque flags any DataOpaque node still present once validation
// runs: spec.md §3 allows opaque nodes to exist in a parsed tree, but
// §4.G's pipeline is where a caller that wants a fully schema-valid
// tree finds out they remain.
func rejectOpaque(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		if n.IsOpaqueNode() {
			errs = append(errs, newError(Semantic, n.Path(), "node has no matching schema"))
		}
	})
	return errs
}

// checkStateDataRule rejects config=false content when configOnly is
// set, e.g. validating a <edit-config> candidate payload.
func checkStateDataRule(tree DataNode, configOnly bool) []*Error {
	if !configOnly {
		return nil
	}
	var errs []*Error
	walk(tree, func(n DataNode) {
		if s := n.Schema(); s != nil && !s.Config {
			errs = append(errs, newError(ConstraintViolated, n.Path(), "state data not allowed here"))
		}
	})
	return errs
}

// insertDefaults creates a leaf for every schema child carrying a
// "default" statement that is absent from its parent branch, per
// RFC 7950 §7.6.1's default-value insertion rule.
func insertDefaults(tree DataNode) {
	branch, ok := tree.(*DataBranch)
	if !ok {
		walkBranches(tree)
		return
	}
	insertDefaultsOn(branch)
}

func walkBranches(node DataNode) {
	if b, ok := node.(*DataBranch); ok {
		insertDefaultsOn(b)
	}
	for _, c := range node.Children() {
		walkBranches(c)
	}
}

func insertDefaultsOn(branch *DataBranch) {
	insertDefaultsForChildren(branch, branch.schema.ChildNodes())
	for _, c := range branch.children {
		if cb, ok := c.(*DataBranch); ok {
			insertDefaultsOn(cb)
		}
	}
}

// insertDefaultsForChildren inserts a default instance for every leaf/
// leaf-list in members missing from branch. A choice member only has
// its chosen case's defaults inserted, and only once some other member
// of that case is already present (RFC 7950 §7.6.1's case-gating rule,
// spec.md §4.G step 3): default insertion never implicitly picks a case.
func insertDefaultsForChildren(branch *DataBranch, members []*SchemaNode) {
	for _, child := range members {
		switch child.Kind {
		case KindChoice:
			for _, caseNode := range child.ChildNodes() {
				if caseMemberPresent(branch, caseNode) {
					insertDefaultsForChildren(branch, caseNode.ChildNodes())
				}
			}
		case KindLeaf, KindLeafList:
			insertDefaultLeaf(branch, child)
		}
	}
}

// insertDefaultLeaf inserts child's first declared default value into
// branch if child has one and no instance of it is present yet.
func insertDefaultLeaf(branch *DataBranch, child *SchemaNode) {
	if len(child.Default) == 0 || branch.Exist(child.Name) {
		return
	}
	node, err := NewWithValue(child, child.Default[0])
	if err != nil {
		return
	}
	node.SetDefault(true)
	branch.Insert(node, &EditOption{Operation: EditMerge})
	glog.V(1).Infof("%s: inserted default %q = %q", branch.Path(), child.Name, child.Default[0])
}

// caseMemberPresent reports whether some concrete descendant of caseNode
// already appears under b. Choice/case nodes are schema-transparent in
// the data tree (they never appear by name themselves), so a nested
// choice member is resolved by recursing into its own cases.
func caseMemberPresent(b *DataBranch, caseNode *SchemaNode) bool {
	for _, member := range caseNode.ChildNodes() {
		if member.Kind == KindChoice {
			for _, nested := range member.ChildNodes() {
				if caseMemberPresent(b, nested) {
					return true
				}
			}
			continue
		}
		if b.Exist(member.Name) {
			return true
		}
	}
	return false
}

// selectedCase returns the case of choice currently populated under b,
// or nil if none is.
func selectedCase(b *DataBranch, choice *SchemaNode) *SchemaNode {
	for _, caseNode := range choice.ChildNodes() {
		if caseMemberPresent(b, caseNode) {
			return caseNode
		}
	}
	return nil
}

// checkChoiceExclusivity verifies that at most one case of each choice
// is populated under a given branch.
func checkChoiceExclusivity(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok {
			return
		}
		for _, choice := range b.schema.ChildNodes() {
			if choice.Kind != KindChoice {
				continue
			}
			var populated []*SchemaNode
			for _, caseNode := range choice.ChildNodes() {
				if caseMemberPresent(b, caseNode) {
					populated = append(populated, caseNode)
				}
			}
			if len(populated) > 1 {
				errs = append(errs, newError(ConstraintViolated, b.Path(),
					"more than one case of choice %q is populated", choice.Name))
			}
		}
	})
	return errs
}

// checkMandatory verifies every mandatory leaf/choice under a present
// branch has a value; config=false nodes are not exempted, even when
// Validate runs config-only. A mandatory choice is schema-transparent
// in the data tree, so it is satisfied by some case having a member
// present rather than by a node literally named after the choice.
func checkMandatory(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok {
			return
		}
		for _, child := range b.schema.ChildNodes() {
			if !child.Mandatory {
				continue
			}
			if child.Kind == KindChoice {
				if selectedCase(b, child) == nil {
					errs = append(errs, newError(ConstraintViolated, b.Path(), "mandatory choice %q has no case selected", child.Name))
				}
				continue
			}
			if !b.Exist(child.Name) {
				errs = append(errs, newError(ConstraintViolated, b.Path(), "mandatory node %q is missing", child.Name))
			}
		}
	})
	return errs
}

// checkCardinality enforces each list/leaf-list's min-elements/
// max-elements bounds.
func checkCardinality(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok {
			return
		}
		for _, child := range b.schema.ChildNodes() {
			if child.Kind != KindList && child.Kind != KindLeafList {
				continue
			}
			count := len(b.GetAll(child.Name))
			if count < child.MinElements {
				errs = append(errs, newError(ConstraintViolated, b.Path(), "%q has %d elements, fewer than min-elements %d", child.Name, count, child.MinElements))
			}
			if child.MaxElements >= 0 && count > child.MaxElements {
				errs = append(errs, newError(ConstraintViolated, b.Path(), "%q has %d elements, more than max-elements %d", child.Name, count, child.MaxElements))
			}
		}
	})
	return errs
}

// checkKeyUniqueness verifies no two instances of a keyed list share
// the same key-value tuple.
func checkKeyUniqueness(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok || b.schema.Kind != KindList || len(b.schema.Key) == 0 {
			return
		}
		parent, ok := b.Parent().(*DataBranch)
		if !ok {
			return
		}
		seen := map[string]bool{}
		for _, sib := range parent.GetAll(b.schema.Name) {
			id := idOf(sib)
			if seen[id] {
				errs = append(errs, newError(Duplicate, sib.Path(), "duplicate list key %q", id))
			}
			seen[id] = true
		}
	})
	return errs
}

// checkUnique enforces each list's "unique" clauses: no two instances
// may agree on every leaf named by a clause.
func checkUnique(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok || b.schema.Kind != KindList || len(b.schema.UniqueClauses) == 0 {
			return
		}
		parent, ok := b.Parent().(*DataBranch)
		if !ok {
			return
		}
		instances := parent.GetAll(b.schema.Name)
		for _, clause := range b.schema.UniqueClauses {
			seen := map[string]bool{}
			for _, inst := range instances {
				ib, ok := inst.(*DataBranch)
				if !ok {
					continue
				}
				key := ""
				for _, path := range clause {
					if target, err := ib.FindNode(path); err == nil && target != nil {
						key += "/" + target.ValueString()
					}
				}
				if seen[key] {
					errs = append(errs, newError(ConstraintViolated, inst.Path(), "unique clause %v violated", clause))
				}
				seen[key] = true
			}
		}
	})
	return errs
}

// checkLeafListUniqueness rejects duplicate values within the same
// leaf-list instance set, per RFC 7950 §7.7.5.
func checkLeafListUniqueness(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok {
			return
		}
		for _, child := range b.schema.ChildNodes() {
			if child.Kind != KindLeafList {
				continue
			}
			seen := map[string]bool{}
			for _, inst := range b.GetAll(child.Name) {
				v := inst.ValueString()
				if seen[v] {
					errs = append(errs, newError(Duplicate, inst.Path(), "duplicate leaf-list value %q", v))
				}
				seen[v] = true
			}
		}
	})
	return errs
}

// checkDuplicateSiblings rejects two leaf instances of the same
// non-list leaf under one branch (a state invariant Insert already
// enforces for single-valued leaves; checked again here so a tree
// built by other means is still caught).
func checkDuplicateSiblings(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		b, ok := n.(*DataBranch)
		if !ok {
			return
		}
		for _, child := range b.schema.ChildNodes() {
			if child.Kind != KindLeaf && child.Kind != KindContainer {
				continue
			}
			if len(b.GetAll(child.Name)) > 1 {
				errs = append(errs, newError(Duplicate, b.Path(), "more than one instance of %q", child.Name))
			}
		}
	})
	return errs
}

// evaluateWhenFixpoint evaluates every node's "when" condition
// repeatedly until no previously-true node turns false across a pass,
// since one node's presence can gate another's "when" (RFC 7950
// §7.21.5's notion that "when" removal can cascade).
func evaluateWhenFixpoint(tree DataNode) []*Error {
	var errs []*Error
	for {
		changed := false
		walk(tree, func(n DataNode) {
			s := n.Schema()
			if s == nil || s.When == nil {
				return
			}
			ok, err := evalBool(n, s.When)
			if err != nil {
				errs = append(errs, wrapError(Semantic, n.Path(), err, "evaluating when"))
				return
			}
			if !ok {
				if p, ok := n.Parent().(*DataBranch); ok {
					glog.V(1).Infof("%s: removing %q, when false", p.Path(), n.Name())
					if p.Delete(n) == nil {
						changed = true
					}
				}
			}
		})
		if !changed {
			break
		}
	}
	return errs
}

// evaluateMust evaluates every node's compiled "must" constraints.
func evaluateMust(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		s := n.Schema()
		if s == nil {
			return
		}
		for _, m := range s.Must {
			ok, err := evalBool(n, m.Expr)
			if err != nil {
				errs = append(errs, wrapError(Semantic, n.Path(), err, "evaluating must"))
				continue
			}
			if !ok {
				msg := m.ErrorMessage
				if msg == "" {
					msg = "must constraint failed"
				}
				errs = append(errs, newError(ConstraintViolated, n.Path(), "%s", msg))
			}
		}
	})
	return errs
}

// resolveLeafrefs confirms every leafref-typed leaf's value names an
// existing instance of its target path, unless require-instance is
// false.
func resolveLeafrefs(tree DataNode) []*Error {
	var errs []*Error
	walk(tree, func(n DataNode) {
		s := n.Schema()
		if s == nil || s.LeafrefPath == nil {
			return
		}
		if s.Type != nil && s.Type.OptionalInstance {
			return // require-instance false
		}
		val, err := xpath.Eval(s.LeafrefPath, xpathContext(n))
		if err != nil {
			errs = append(errs, wrapError(Semantic, n.Path(), err, "resolving leafref"))
			return
		}
		found := false
		for _, node := range val.Nodes {
			if dm, ok := node.(dataNodeModel); ok && dm.n.ValueString() == n.ValueString() {
				found = true
			}
		}
		if !found {
			errs = append(errs, newError(ReferenceNotFound, n.Path(), "leafref value %q matches no instance", n.ValueString()))
		}
	})
	return errs
}

// resolveInstanceIdentifiers confirms every instance-identifier typed
// leaf's value resolves to an existing node, via FindNode against the
// document root.
func resolveInstanceIdentifiers(tree DataNode) []*Error {
	var errs []*Error
	root, ok := rootOf(tree).(*DataBranch)
	if !ok {
		return nil
	}
	walk(tree, func(n DataNode) {
		s := n.Schema()
		if s == nil || s.Type == nil || s.Type.Kind != yang.YinstanceIdentifier {
			return
		}
		if _, err := root.FindNode(n.ValueString()); err != nil {
			errs = append(errs, newError(ReferenceNotFound, n.Path(), "instance-identifier %q resolves to nothing", n.ValueString()))
		}
	})
	return errs
}

func evalBool(n DataNode, expr xpath.Expr) (bool, error) {
	v, err := xpath.Eval(expr, xpathContext(n))
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

func xpathContext(n DataNode) *xpath.Context {
	return &xpath.Context{
		Current:         AsNodeModel(n),
		Root:            AsNodeModel(rootOf(n)),
		Mode:            xpath.Data,
		ContextPosition: 1,
		ContextSize:     1,
	}
}

func rootOf(n DataNode) DataNode {
	for n.Parent() != nil {
		n = n.Parent()
	}
	return n
}

// FindNode resolves a node-id path from b, using ParsePath and schema
// child lookup; it is the data-tree analogue of SchemaNode.FindSchema.
func (b *DataBranch) FindNode(path string) (DataNode, error) {
	steps, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	var cur DataNode = b
	for _, step := range steps {
		switch step.Select {
		case PathSelectParent:
			cur = cur.Parent()
		case PathSelectSelf:
			// no-op
		default:
			id := step.Name
			for _, p := range step.Predicates {
				id += "[" + p + "]"
			}
			cur = cur.Get(id)
		}
		if cur == nil {
			return nil, newError(ReferenceNotFound, path, "no node named %q", step.Name)
		}
	}
	return cur, nil
}
