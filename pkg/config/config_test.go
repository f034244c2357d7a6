package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apimsync/apimsync/pkg/registry"
)

func writeConfig(t *testing.T, content string) *Matcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configuration.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewMatcher(path)
}

func apiKey(name string) registry.Key {
	return registry.Key{Kind: registry.Api, Name: registry.MustName(name)}
}

func TestIncludes(t *testing.T) {
	m := writeConfig(t, `
apis:
  - orders
  - billing:
      operations:
        - getInvoice
namedValues: []
`)
	ctx := context.Background()

	tests := []struct {
		name string
		key  registry.Key
		want Decision
	}{
		{name: "BareName", key: apiKey("orders"), want: Included},
		{name: "MappingName", key: apiKey("billing"), want: Included},
		{name: "NotListed", key: apiKey("inventory"), want: Excluded},
		{name: "EmptyArrayExcludes", key: registry.Key{Kind: registry.NamedValue, Name: registry.MustName("nv1")}, want: Excluded},
		{name: "AbsentSectionIsUnspecified", key: registry.Key{Kind: registry.Product, Name: registry.MustName("p1")}, want: Unspecified},
		{
			name: "NestedIncluded",
			key: registry.Key{
				Kind:    registry.ApiOperation,
				Name:    registry.MustName("getInvoice"),
				Parents: registry.NewChain(registry.Ancestor{Kind: registry.Api, Name: registry.MustName("billing")}),
			},
			want: Included,
		},
		{
			name: "NestedExcluded",
			key: registry.Key{
				Kind:    registry.ApiOperation,
				Name:    registry.MustName("other"),
				Parents: registry.NewChain(registry.Ancestor{Kind: registry.Api, Name: registry.MustName("billing")}),
			},
			want: Excluded,
		},
		{
			name: "NestedScopeAbsent",
			key: registry.Key{
				Kind:    registry.ApiOperation,
				Name:    registry.MustName("anything"),
				Parents: registry.NewChain(registry.Ancestor{Kind: registry.Api, Name: registry.MustName("orders")}),
			},
			want: Unspecified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Includes(ctx, tt.key)
			if err != nil {
				t.Fatalf("Includes: %v", err)
			}
			if got != tt.want {
				t.Errorf("Includes(%s) = %v, want %v", tt.key.String(), got, tt.want)
			}
		})
	}
}

// Revisions share the inclusion decision of their root name, both as the
// looked-up resource and as an ancestor on the path.
func TestIncludesAPIRevisions(t *testing.T) {
	m := writeConfig(t, `
apis:
  - orders:
      operations:
        - getOrder
`)
	ctx := context.Background()

	for _, name := range []string{"orders", "orders;rev=2", "ORDERS;rev=9"} {
		got, err := m.Includes(ctx, apiKey(name))
		if err != nil {
			t.Fatal(err)
		}
		if got != Included {
			t.Errorf("Includes(%s) = %v, want Included", name, got)
		}
	}

	// Walking through a revisioned API ancestor collapses to the root.
	opKey := registry.Key{
		Kind:    registry.ApiOperation,
		Name:    registry.MustName("getOrder"),
		Parents: registry.NewChain(registry.Ancestor{Kind: registry.Api, Name: registry.MustName("orders;rev=2")}),
	}
	got, err := m.Includes(ctx, opKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != Included {
		t.Errorf("Includes through revisioned ancestor = %v, want Included", got)
	}
}

func TestIncludesWithoutConfiguration(t *testing.T) {
	m := NewMatcher("")
	got, err := m.Includes(context.Background(), apiKey("anything"))
	if err != nil {
		t.Fatal(err)
	}
	if got != Unspecified {
		t.Errorf("decision = %v, want Unspecified", got)
	}
}

func TestOverride(t *testing.T) {
	m := writeConfig(t, `
namedValues:
  - nv1:
      properties:
        value: production-secret
apis:
  - orders:
      properties:
        apiRevision: "9"
        isCurrent: true
        serviceUrl: https://prod.example.com
`)
	ctx := context.Background()

	obj, ok, err := m.Override(ctx, registry.Key{Kind: registry.NamedValue, Name: registry.MustName("nv1")})
	if err != nil || !ok {
		t.Fatalf("Override = %v, %v", ok, err)
	}
	props := obj["properties"].(map[string]any)
	if props["value"] != "production-secret" {
		t.Errorf("value = %v", props["value"])
	}

	// API overrides must never rewrite revision identity.
	obj, ok, err = m.Override(ctx, apiKey("orders"))
	if err != nil || !ok {
		t.Fatalf("Override = %v, %v", ok, err)
	}
	props = obj["properties"].(map[string]any)
	if _, present := props["apiRevision"]; present {
		t.Error("apiRevision must be stripped from API overrides")
	}
	if _, present := props["isCurrent"]; present {
		t.Error("isCurrent must be stripped from API overrides")
	}
	if props["serviceUrl"] != "https://prod.example.com" {
		t.Errorf("serviceUrl = %v", props["serviceUrl"])
	}

	if _, ok, _ := m.Override(ctx, apiKey("missing")); ok {
		t.Error("no override expected for unknown name")
	}
}
