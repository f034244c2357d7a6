package registry

import "testing"

func TestNameEquality(t *testing.T) {
	a := MustName("Orders")
	b := MustName("orders")
	if !a.Equal(b) {
		t.Error("name equality must be case-insensitive")
	}
	if a.Fold() != b.Fold() {
		t.Error("folded forms must match")
	}
	if a.String() != "Orders" {
		t.Error("original casing must be preserved")
	}
	if _, err := NewName("   "); err == nil {
		t.Error("whitespace-only name must be rejected")
	}
	if _, err := NewName(""); err == nil {
		t.Error("empty name must be rejected")
	}
}

func TestParentChain(t *testing.T) {
	chain := EmptyChain.Append(Api, MustName("orders")).Append(ApiOperation, MustName("getOrder"))
	if chain.Len() != 2 {
		t.Fatalf("len = %d, want 2", chain.Len())
	}
	innermost, ok := chain.Innermost()
	if !ok || innermost.Kind != ApiOperation {
		t.Errorf("innermost = %v", innermost)
	}
	prefix := chain.Prefix(1)
	if prefix.Len() != 1 || prefix.Ancestors()[0].Kind != Api {
		t.Errorf("prefix = %v", prefix.Ancestors())
	}

	// Append must not mutate the receiver.
	if chain.Len() != 2 {
		t.Error("Append mutated the receiver")
	}
	other := EmptyChain.Append(Api, MustName("ORDERS")).Append(ApiOperation, MustName("GETORDER"))
	if !chain.Equal(other) {
		t.Error("chain equality must use case-insensitive names")
	}

	prepended := chain.Prepend(Workspace, MustName("ws"))
	if prepended.Len() != 3 || prepended.Ancestors()[0].Kind != Workspace {
		t.Errorf("prepended = %v", prepended.Ancestors())
	}
}

func TestKeyCanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "Root",
			key:  Key{Kind: Product, Name: MustName("starter")},
			want: "/products/starter",
		},
		{
			name: "Child",
			key: Key{
				Kind:    ApiPolicy,
				Name:    MustName("policy"),
				Parents: EmptyChain.Append(Api, MustName("orders")),
			},
			want: "/apis/orders/policies/policy",
		},
		{
			name: "DeepChild",
			key: Key{
				Kind: WorkspaceApiOperationPolicy,
				Name: MustName("policy"),
				Parents: EmptyChain.
					Append(Workspace, MustName("ws1")).
					Append(WorkspaceApi, MustName("orders")).
					Append(WorkspaceApiOperation, MustName("getOrder")),
			},
			want: "/workspaces/ws1/apis/orders/operations/getOrder/policies/policy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFoldEquality(t *testing.T) {
	a := Key{Kind: Product, Name: MustName("Starter")}
	b := Key{Kind: Product, Name: MustName("starter")}
	if a.Fold() != b.Fold() {
		t.Error("folded keys must match for case-insensitive names")
	}
	if !a.Equal(b) {
		t.Error("keys must compare equal")
	}
}
