package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/config"
)

// fakeService serves a small live service: two products, a policy
// fragment, the master subscription, and an API with a specification
// export. Every other collection is empty.
func fakeService(t *testing.T) *apim.Client {
	t.Helper()
	r := chi.NewRouter()
	var serverURL string

	list := func(items ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprintf(w, `{"value":[%s]}`, strings.Join(items, ","))
		}
	}

	r.Get("/service/test/products", list(
		`{"name":"p1","properties":{"displayName":"Starter"}}`,
		`{"name":"p2","properties":{"displayName":"Premium"}}`,
	))
	r.Get("/service/test/subscriptions", list(
		`{"name":"master","properties":{"scope":"/apis","displayName":"Built-in all-access subscription"}}`,
		`{"name":"s1","properties":{"scope":"/products/p1","displayName":"Starter sub"}}`,
	))
	r.Get("/service/test/policyFragments", list(`{"name":"f1"}`))
	r.Get("/service/test/policyFragments/f1", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("format") != "rawxml" {
			t.Errorf("fragment fetched without format=rawxml")
		}
		fmt.Fprint(w, `{"name":"f1","properties":{"description":"shared","format":"rawxml","value":"<fragment/>"}}`)
	})
	r.Get("/service/test/apis", list(
		`{"name":"orders","properties":{"displayName":"Orders","path":"orders","type":"http","serviceUrl":"https://backend.example.com"}}`,
	))
	r.Get("/service/test/apis/orders", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("export") == "true" {
			fmt.Fprintf(w, `{"value":{"link":"%s/export/orders"}}`, serverURL)
			return
		}
		fmt.Fprint(w, `{"name":"orders","properties":{"displayName":"Orders","path":"orders"}}`)
	})
	r.Get("/export/orders", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "openapi: 3.0.1\ninfo:\n  title: Orders\n")
	})

	// Remaining collections are empty.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"value":[]}`)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client, err := apim.NewClient(apim.Options{
		ServiceURL: server.URL + "/service/test",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func runExtract(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := ""
	if configYAML != "" {
		configPath = filepath.Join(t.TempDir(), "configuration.yaml")
		if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e := &Extractor{
		Client:      fakeService(t),
		ServiceDir:  dir,
		Matcher:     config.NewMatcher(configPath),
		DefaultSpec: apispec.Default,
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return dir
}

func mustReadJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return m
}

// Seed case 1: both products land in the canonical tree.
func TestExtractWritesProducts(t *testing.T) {
	dir := runExtract(t, "")
	for _, name := range []string{"p1", "p2"} {
		path := filepath.Join(dir, "products", name, "productInformation.json")
		m := mustReadJSON(t, path)
		props := m["properties"].(map[string]any)
		if props["displayName"] == "" {
			t.Errorf("product %s has no displayName", name)
		}
	}
}

// The master subscription never reaches the tree; ordinary subscriptions
// do.
func TestExtractSkipsMasterSubscription(t *testing.T) {
	dir := runExtract(t, "")
	if _, err := os.Stat(filepath.Join(dir, "subscriptions", "master")); !os.IsNotExist(err) {
		t.Error("master subscription must not be extracted")
	}
	if _, err := os.Stat(filepath.Join(dir, "subscriptions", "s1", "subscriptionInformation.json")); err != nil {
		t.Errorf("ordinary subscription missing: %v", err)
	}
}

// Seed case 6: the fragment's XML goes to policy.xml and the information
// file carries neither format nor value.
func TestExtractPolicyFragment(t *testing.T) {
	dir := runExtract(t, "")
	xml, err := os.ReadFile(filepath.Join(dir, "policy fragments", "f1", "policy.xml"))
	if err != nil {
		t.Fatalf("policy.xml missing: %v", err)
	}
	if string(xml) != "<fragment/>" {
		t.Errorf("policy.xml = %q", xml)
	}
	m := mustReadJSON(t, filepath.Join(dir, "policy fragments", "f1", "policyFragmentInformation.json"))
	props := m["properties"].(map[string]any)
	if _, ok := props["format"]; ok {
		t.Error("information file must not contain properties.format")
	}
	if _, ok := props["value"]; ok {
		t.Error("information file must not contain properties.value")
	}
	if props["description"] != "shared" {
		t.Errorf("description = %v", props["description"])
	}
}

// The API's information file drops serviceUrl for plain http APIs, and
// the specification is exported next to it.
func TestExtractAPIWithSpecification(t *testing.T) {
	dir := runExtract(t, "")
	m := mustReadJSON(t, filepath.Join(dir, "apis", "orders", "apiInformation.json"))
	props := m["properties"].(map[string]any)
	if _, ok := props["serviceUrl"]; ok {
		t.Error("serviceUrl must be dropped for http APIs")
	}
	spec, err := os.ReadFile(filepath.Join(dir, "apis", "orders", "specification.yaml"))
	if err != nil {
		t.Fatalf("specification missing: %v", err)
	}
	if !strings.Contains(string(spec), "openapi: 3.0.1") {
		t.Errorf("specification = %q", spec)
	}
}

// Configuration exclusion: a product array naming only p1 keeps p2 out
// of the tree.
func TestExtractHonoursConfiguration(t *testing.T) {
	dir := runExtract(t, "products:\n  - p1\n")
	if _, err := os.Stat(filepath.Join(dir, "products", "p1", "productInformation.json")); err != nil {
		t.Errorf("included product missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "products", "p2")); !os.IsNotExist(err) {
		t.Error("excluded product must not be extracted")
	}
}
