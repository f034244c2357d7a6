package registry

import "testing"

func TestParseRevision(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRoot string
		wantRev  int
		wantOK   bool
	}{
		{name: "RootName", input: "orders", wantOK: false},
		{name: "Revision", input: "orders;rev=2", wantRoot: "orders", wantRev: 2, wantOK: true},
		{name: "LargeRevision", input: "orders;rev=120", wantRoot: "orders", wantRev: 120, wantOK: true},
		{name: "ZeroRevision", input: "orders;rev=0", wantOK: false},
		{name: "NegativeRevision", input: "orders;rev=-1", wantOK: false},
		{name: "NonNumeric", input: "orders;rev=abc", wantOK: false},
		{name: "EmptyRoot", input: ";rev=1", wantOK: false},
		{name: "UppercaseSuffix", input: "orders;REV=3", wantRoot: "orders", wantRev: 3, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, rev, ok := ParseRevision(MustName(tt.input))
			if ok != tt.wantOK {
				t.Fatalf("ParseRevision(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if root.String() != tt.wantRoot {
				t.Errorf("root = %q, want %q", root, tt.wantRoot)
			}
			if rev != tt.wantRev {
				t.Errorf("rev = %d, want %d", rev, tt.wantRev)
			}
		})
	}
}

func TestCombineRevision(t *testing.T) {
	combined, err := CombineRevision(MustName("orders"), 4)
	if err != nil {
		t.Fatalf("CombineRevision: %v", err)
	}
	if combined.String() != "orders;rev=4" {
		t.Errorf("combined = %q, want orders;rev=4", combined)
	}
	if IsRootName(combined) {
		t.Error("combined name should not be a root name")
	}

	if _, err := CombineRevision(MustName("orders"), 0); err == nil {
		t.Error("expected error for revision 0")
	}
	if _, err := CombineRevision(MustName("orders;rev=2"), 3); err == nil {
		t.Error("expected error combining onto a revisioned name")
	}
}

// Round-tripping parse and combine must preserve the root, and combining
// any root with a fresh revision must never yield a root name.
func TestRevisionRoundTrip(t *testing.T) {
	for _, input := range []string{"orders", "orders;rev=1", "orders;rev=7", "a;rev=12"} {
		name := MustName(input)
		root := RootName(name)
		next := 1
		if _, rev, ok := ParseRevision(name); ok {
			next = rev + 1
		}
		combined, err := CombineRevision(root, next)
		if err != nil {
			t.Fatalf("CombineRevision(%q, %d): %v", root, next, err)
		}
		if IsRootName(combined) {
			t.Errorf("IsRootName(%q) = true, want false", combined)
		}
		gotRoot, gotRev, ok := ParseRevision(combined)
		if !ok || !gotRoot.Equal(root) || gotRev != next {
			t.Errorf("ParseRevision(%q) = (%q, %d, %v), want (%q, %d, true)", combined, gotRoot, gotRev, ok, root, next)
		}
	}
}

func TestRootName(t *testing.T) {
	if got := RootName(MustName("orders;rev=2")); got.String() != "orders" {
		t.Errorf("RootName = %q, want orders", got)
	}
	if got := RootName(MustName("orders")); got.String() != "orders" {
		t.Errorf("RootName = %q, want orders", got)
	}
}
