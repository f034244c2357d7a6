package registry

import (
	"slices"
	"testing"
)

// Registry-wide invariants: a kind is at most one of child/composite,
// links are composites with a secondary, every policy kind depends on the
// service-level named value kind, and a kind with an information file has
// a directory and a DTO schema.
func TestKindInvariants(t *testing.T) {
	for _, kind := range AllKinds() {
		if kind.IsChild() && kind.IsComposite() {
			t.Errorf("%s is both child and composite", kind)
		}
		if kind.IsLink() {
			if !kind.IsComposite() {
				t.Errorf("link %s is not composite", kind)
			}
			if kind.Secondary == nil {
				t.Errorf("link %s has no secondary", kind)
			}
		}
		if kind.IsPolicy() {
			if !slices.Contains(DependenciesOf(kind), NamedValue) {
				t.Errorf("policy %s does not depend on namedValue", kind)
			}
		}
		if kind.HasInformationFile() && !kind.HasDirectory() {
			t.Errorf("%s has an information file but no directory", kind)
		}
		if kind.HasInformationFile() && !kind.HasDto() {
			t.Errorf("%s has an information file but no DTO schema", kind)
		}
	}
}

func TestRootKinds(t *testing.T) {
	roots := RootKinds()
	for _, kind := range roots {
		if kind.IsChild() || kind.IsComposite() {
			t.Errorf("root kind %s has a traversal predecessor", kind)
		}
	}
	for _, want := range []*Kind{NamedValue, Api, Product, Workspace, ServicePolicy, Subscription} {
		if !slices.Contains(roots, want) {
			t.Errorf("expected %s among root kinds", want)
		}
	}
	if slices.Contains(roots, ApiPolicy) || slices.Contains(roots, ProductApi) {
		t.Error("child/composite kinds must not be roots")
	}
}

func TestSuccessorsMirrorPredecessors(t *testing.T) {
	for _, kind := range AllKinds() {
		for _, succ := range SuccessorsOf(kind) {
			pred, ok := PredecessorOf(succ)
			if !ok || pred != kind {
				t.Errorf("successor %s of %s has predecessor %v", succ, kind, pred)
			}
		}
		if pred, ok := PredecessorOf(kind); ok {
			if !slices.Contains(SuccessorsOf(pred), kind) {
				t.Errorf("%s missing from successors of %s", kind, pred)
			}
		}
	}
}

func TestDependenciesOf(t *testing.T) {
	tests := []struct {
		kind *Kind
		want []*Kind
	}{
		{kind: ApiPolicy, want: []*Kind{Api, NamedValue}},
		{kind: ProductApi, want: []*Kind{Product, Api}},
		{kind: Diagnostic, want: []*Kind{Logger}},
		{kind: Api, want: []*Kind{VersionSet}},
		{kind: NamedValue, want: nil},
		{kind: WorkspaceApiOperationPolicy, want: []*Kind{WorkspaceApiOperation, NamedValue}},
	}
	for _, tt := range tests {
		got := DependenciesOf(tt.kind)
		if len(got) != len(tt.want) {
			t.Errorf("DependenciesOf(%s) = %v, want %v", tt.kind, got, tt.want)
			continue
		}
		for _, dep := range tt.want {
			if !slices.Contains(got, dep) {
				t.Errorf("DependenciesOf(%s) missing %s", tt.kind, dep)
			}
		}
	}
}

// Every kind must appear after all of its dependencies in the
// topological order, and the parse order is its exact reverse.
func TestTopologicalOrder(t *testing.T) {
	order := TopologicalOrder()
	if len(order) != len(AllKinds()) {
		t.Fatalf("topological order covers %d kinds, want %d", len(order), len(AllKinds()))
	}
	pos := make(map[*Kind]int, len(order))
	for i, kind := range order {
		pos[kind] = i
	}
	for _, kind := range order {
		for _, dep := range DependenciesOf(kind) {
			if pos[dep] > pos[kind] {
				t.Errorf("%s appears before its dependency %s", kind, dep)
			}
		}
	}

	parse := ParseOrder()
	for i := range parse {
		if parse[i] != order[len(order)-1-i] {
			t.Fatal("parse order is not the reverse of topological order")
		}
	}
}

func TestReservedNames(t *testing.T) {
	if !Subscription.IsReserved(MustName("master")) {
		t.Error("master subscription must be reserved")
	}
	if !Subscription.IsReserved(MustName("Master")) {
		t.Error("reserved check must be case-insensitive")
	}
	for _, g := range []string{"administrators", "developers", "guests"} {
		if !Group.IsReserved(MustName(g)) {
			t.Errorf("group %s must be reserved", g)
		}
	}
	if Group.IsReserved(MustName("partners")) {
		t.Error("partners must not be reserved")
	}
}
