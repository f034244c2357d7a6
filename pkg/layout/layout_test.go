package layout

import (
	"path/filepath"
	"testing"

	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/registry"
)

func key(kind *registry.Kind, name string, ancestors ...registry.Ancestor) registry.Key {
	return registry.Key{Kind: kind, Name: registry.MustName(name), Parents: registry.NewChain(ancestors...)}
}

func ancestor(kind *registry.Kind, name string) registry.Ancestor {
	return registry.Ancestor{Kind: kind, Name: registry.MustName(name)}
}

func TestInformationFile(t *testing.T) {
	tests := []struct {
		name string
		key  registry.Key
		want string
	}{
		{
			name: "Product",
			key:  key(registry.Product, "p1"),
			want: filepath.Join("svc", "products", "p1", "productInformation.json"),
		},
		{
			name: "NamedValue",
			key:  key(registry.NamedValue, "nv1"),
			want: filepath.Join("svc", "named values", "nv1", "namedValueInformation.json"),
		},
		{
			name: "RevisionedApi",
			key:  key(registry.Api, "api1;rev=2"),
			want: filepath.Join("svc", "apis", "api1;rev=2", "apiInformation.json"),
		},
		{
			name: "WorkspaceApi",
			key:  key(registry.WorkspaceApi, "orders", ancestor(registry.Workspace, "ws1")),
			want: filepath.Join("svc", "workspaces", "ws1", "apis", "orders", "apiInformation.json"),
		},
		{
			name: "ProductApiLink",
			key:  key(registry.ProductApi, "orders", ancestor(registry.Product, "p1")),
			want: filepath.Join("svc", "products", "p1", "apiLinks", "orders", "apiLinkInformation.json"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InformationFile("svc", tt.key)
			if !ok {
				t.Fatal("expected an information file")
			}
			if got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}

	if _, ok := InformationFile("svc", key(registry.ApiPolicy, "policy", ancestor(registry.Api, "a"))); ok {
		t.Error("policies have no information file")
	}
}

func TestPolicyFile(t *testing.T) {
	tests := []struct {
		name string
		key  registry.Key
		want string
	}{
		{
			name: "Fragment",
			key:  key(registry.PolicyFragment, "f1"),
			want: filepath.Join("svc", "policy fragments", "f1", "policy.xml"),
		},
		{
			name: "ServicePolicy",
			key:  key(registry.ServicePolicy, "policy"),
			want: filepath.Join("svc", "policy.xml"),
		},
		{
			name: "ApiPolicy",
			key:  key(registry.ApiPolicy, "policy", ancestor(registry.Api, "orders")),
			want: filepath.Join("svc", "apis", "orders", "policy.xml"),
		},
		{
			name: "OperationPolicy",
			key: key(registry.ApiOperationPolicy, "policy",
				ancestor(registry.Api, "orders"), ancestor(registry.ApiOperation, "getOrder")),
			want: filepath.Join("svc", "apis", "orders", "operations", "getOrder", "policy.xml"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PolicyFile("svc", tt.key)
			if !ok {
				t.Fatal("expected a policy file")
			}
			if got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}

	if _, ok := PolicyFile("svc", key(registry.Product, "p1")); ok {
		t.Error("products are not policies")
	}
}

func TestSpecificationFile(t *testing.T) {
	got, ok := SpecificationFile("svc", key(registry.Api, "orders"), apispec.Default)
	if !ok {
		t.Fatal("expected a specification file")
	}
	want := filepath.Join("svc", "apis", "orders", "specification.yaml")
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	if _, ok := SpecificationFile("svc", key(registry.Product, "p1"), apispec.Default); ok {
		t.Error("only API kinds have specification files")
	}
}

func TestURLs(t *testing.T) {
	service := "https://management.azure.com/subscriptions/s/resourceGroups/g/providers/Microsoft.ApiManagement/service/svc"

	collection := CollectionURL(service, registry.ApiOperationPolicy, registry.NewChain(
		ancestor(registry.Api, "orders"), ancestor(registry.ApiOperation, "getOrder"),
	))
	wantCollection := service + "/apis/orders/operations/getOrder/policies"
	if collection != wantCollection {
		t.Errorf("collection = %q, want %q", collection, wantCollection)
	}

	element := ElementURL(service, key(registry.VersionSet, "vs1"))
	if element != service+"/apiVersionSets/vs1" {
		t.Errorf("element = %q", element)
	}

	link := ElementURL(service, key(registry.ProductGroup, "team", ancestor(registry.Product, "p1")))
	if link != service+"/products/p1/groupLinks/team" {
		t.Errorf("link element = %q", link)
	}
}
