package apim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/registry"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Options{
		ServiceURL: server.URL + "/service/test",
		Token:      "token",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func TestGetOptional(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/service/test/products/{name}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "name") == "missing" {
			http.Error(w, `{"error":{"code":"ResourceNotFound"}}`, http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"name":"p1","properties":{"displayName":"Starter"}}`)
	})
	client, _ := newTestClient(t, r)
	ctx := context.Background()

	body, ok, err := client.GetOptional(ctx, client.ServiceURL()+"/products/p1", nil)
	if err != nil || !ok {
		t.Fatalf("GetOptional = %v, %v", ok, err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatal(err)
	}
	if m["name"] != "p1" {
		t.Errorf("name = %v", m["name"])
	}

	_, ok, err = client.GetOptional(ctx, client.ServiceURL()+"/products/missing", nil)
	if err != nil {
		t.Fatalf("404 must not surface: %v", err)
	}
	if ok {
		t.Error("ok = true for missing resource")
	}
}

func TestListPagination(t *testing.T) {
	r := chi.NewRouter()
	var serverURL string
	r.Get("/service/test/apis", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("api-version") == "" {
			t.Error("api-version query missing")
		}
		if req.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value":[{"name":"a3"}]}`)
			return
		}
		fmt.Fprintf(w, `{"value":[{"name":"a1"},{"name":"a2"}],"nextLink":"%s/service/test/apis?page=2&api-version=2022-08-01"}`, serverURL)
	})
	client, server := newTestClient(t, r)
	serverURL = server.URL

	var names []string
	err := client.List(context.Background(), client.ServiceURL()+"/apis", nil, func(item json.RawMessage) error {
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &v); err != nil {
			return err
		}
		names = append(names, v.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a1", "a2", "a3"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDeleteWaitsForCompletion(t *testing.T) {
	var polls atomic.Int32
	r := chi.NewRouter()
	var serverURL string
	r.Delete("/service/test/apis/orders", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Location", serverURL+"/operations/1?api-version=2022-08-01")
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/operations/1", func(w http.ResponseWriter, req *http.Request) {
		if polls.Add(1) < 2 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	client, server := newTestClient(t, r)
	serverURL = server.URL

	err := client.Delete(context.Background(), client.ServiceURL()+"/apis/orders", nil, DeleteOptions{WaitForCompletion: true})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if polls.Load() < 2 {
		t.Errorf("polled %d times, want at least 2", polls.Load())
	}
}

func TestDeleteIgnoreNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/service/test/backends/b1", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	client, _ := newTestClient(t, r)

	if err := client.Delete(context.Background(), client.ServiceURL()+"/backends/b1", nil, DeleteOptions{IgnoreNotFound: true}); err != nil {
		t.Fatalf("Delete with IgnoreNotFound: %v", err)
	}
	err := client.Delete(context.Background(), client.ServiceURL()+"/backends/b1", nil, DeleteOptions{})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestSupported(t *testing.T) {
	var probes atomic.Int32
	r := chi.NewRouter()
	r.Get("/service/test/workspaces", func(w http.ResponseWriter, req *http.Request) {
		probes.Add(1)
		http.Error(w, `{"error":{"code":"MethodNotAllowedInPricingTier","message":"not available"}}`, http.StatusBadRequest)
	})
	r.Get("/service/test/gateways", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Request processing failed due to internal error", http.StatusInternalServerError)
	})
	r.Get("/service/test/apis", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"value":[]}`)
	})
	client, _ := newTestClient(t, r)
	ctx := context.Background()

	tests := []struct {
		kind *registry.Kind
		want bool
	}{
		{kind: registry.Workspace, want: false},
		{kind: registry.Gateway, want: false},
		{kind: registry.Api, want: true},
		// Children inherit from their dependency closure.
		{kind: registry.WorkspaceApi, want: false},
		{kind: registry.GatewayApi, want: false},
	}
	for _, tt := range tests {
		got, err := client.Supported(ctx, tt.kind)
		if err != nil {
			t.Fatalf("Supported(%s): %v", tt.kind, err)
		}
		if got != tt.want {
			t.Errorf("Supported(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}

	// Memoised: re-asking must not probe again.
	before := probes.Load()
	client.Supported(ctx, registry.Workspace)
	if probes.Load() != before {
		t.Error("second lookup probed the service again")
	}
}

func TestSupportedPropagatesUnknownErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/service/test/loggers", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	client, _ := newTestClient(t, r)
	if _, err := client.Supported(context.Background(), registry.Logger); err == nil {
		t.Fatal("unclassified probe errors must propagate")
	}
}

func TestPolicyFormatQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/service/test/policies/policy", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("format") != "rawxml" {
			t.Errorf("format = %q, want rawxml", req.URL.Query().Get("format"))
		}
		fmt.Fprint(w, `{"properties":{"format":"rawxml","value":"<policies/>"}}`)
	})
	client, _ := newTestClient(t, r)
	_, err := client.Get(context.Background(), client.ServiceURL()+"/policies/policy", url.Values{"format": {"rawxml"}})
	if err != nil {
		t.Fatal(err)
	}
}
