// Package registry catalogues the resource kinds of an API Management
// service: their nouns, parent/child and composite relationships,
// reference properties, and per-kind quirks. The registry is built once at
// package load and never mutated; both traversals and the file parser
// consume it.
//
// Two edge sets are deliberately distinct. Traversal edges (parent-of-child
// and primary-of-composite) form the forest the extractor walks top-down.
// Dependency edges are a superset - they add composite secondaries,
// declared references, and the policy-to-named-value dependency - and
// order the publisher's puts and deletes.
package registry

import "slices"

var (
	successors map[*Kind][]*Kind
	topoOrder  []*Kind
)

func init() {
	successors = make(map[*Kind][]*Kind)
	for _, k := range kinds {
		if pred, ok := PredecessorOf(k); ok {
			successors[pred] = append(successors[pred], k)
		}
	}
	topoOrder = buildTopoOrder()
}

// AllKinds returns every registered kind. The returned slice must not be
// modified.
func AllKinds() []*Kind { return kinds }

// RootKinds returns the kinds with no traversal predecessor - the roots of
// the extractor's traversal forest.
func RootKinds() []*Kind {
	var roots []*Kind
	for _, k := range kinds {
		if _, ok := PredecessorOf(k); !ok {
			roots = append(roots, k)
		}
	}
	return roots
}

// PredecessorOf returns the kind's traversal predecessor: its parent for
// child kinds, its primary for composite kinds. ok is false for root
// kinds.
func PredecessorOf(k *Kind) (*Kind, bool) {
	switch {
	case k.IsChild():
		return k.Parent, true
	case k.IsComposite():
		return k.Primary, true
	default:
		return nil, false
	}
}

// SuccessorsOf returns the kinds whose traversal predecessor is k. The
// returned slice must not be modified.
func SuccessorsOf(k *Kind) []*Kind { return successors[k] }

// DependenciesOf returns the kinds k depends on: its parent (child kinds),
// its primary and secondary (composite kinds), every declared reference
// target, and - for policy kinds - the service-level named value kind.
func DependenciesOf(k *Kind) []*Kind {
	var deps []*Kind
	add := func(d *Kind) {
		if d != nil && d != k && !slices.Contains(deps, d) {
			deps = append(deps, d)
		}
	}
	if k.IsChild() {
		add(k.Parent)
	}
	if k.IsComposite() {
		add(k.Primary)
		add(k.Secondary)
	}
	for _, r := range k.MandatoryRefs {
		add(r.Kind)
	}
	for _, r := range k.OptionalRefs {
		add(r.Kind)
	}
	if k.IsPolicy() {
		add(NamedValue)
	}
	return deps
}

// TopologicalOrder returns all kinds ordered so that every kind appears
// after its dependencies. The order is deterministic across runs.
func TopologicalOrder() []*Kind { return topoOrder }

// ParseOrder returns all kinds ordered most-specific first - the reverse
// of TopologicalOrder. The file parser tries kinds in this order so that,
// on ambiguous shapes, a child kind wins over its root counterpart.
func ParseOrder() []*Kind {
	out := make([]*Kind, len(topoOrder))
	for i, k := range topoOrder {
		out[len(topoOrder)-1-i] = k
	}
	return out
}

// buildTopoOrder runs Kahn's algorithm over the dependency edges. The
// catalogue is validated acyclic by construction (tests assert it), so the
// walk always consumes every kind. Ties resolve in catalogue order for
// determinism.
func buildTopoOrder() []*Kind {
	indegree := make(map[*Kind]int, len(kinds))
	dependents := make(map[*Kind][]*Kind, len(kinds))
	for _, k := range kinds {
		deps := DependenciesOf(k)
		indegree[k] = len(deps)
		for _, d := range deps {
			dependents[d] = append(dependents[d], k)
		}
	}

	var order []*Kind
	ready := make([]*Kind, 0, len(kinds))
	for _, k := range kinds {
		if indegree[k] == 0 {
			ready = append(ready, k)
		}
	}
	for len(ready) > 0 {
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, dep := range dependents[k] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(kinds) {
		panic("registry: dependency cycle in kind catalogue")
	}
	return order
}
