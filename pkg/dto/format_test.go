package dto

import (
	"strings"
	"testing"
)

func TestRelativeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "FullARMID",
			input: "/subscriptions/abc/resourceGroups/rg/providers/Microsoft.ApiManagement/service/svc/apis/orders",
			want:  "/apis/orders",
		},
		{
			name:  "CaseInsensitiveMarker",
			input: "/providers/microsoft.apimanagement/SERVICE/svc/products/starter",
			want:  "/products/starter",
		},
		{
			name:  "AlreadyRelative",
			input: "/apis/orders",
			want:  "/apis/orders",
		},
		{name: "Empty", input: "", want: ""},
		{
			name:  "ServiceOnly",
			input: "/providers/Microsoft.ApiManagement/service/svc",
			want:  "/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeID(tt.input); got != tt.want {
				t.Errorf("RelativeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Any id containing the service marker must come out starting with "/"
// and free of both the marker and the service name.
func TestRelativeIDInvariant(t *testing.T) {
	inputs := []string{
		"/subscriptions/s/resourceGroups/g/providers/Microsoft.ApiManagement/service/my-svc/apis/a1",
		"/providers/Microsoft.ApiManagement/service/my-svc/backends/b",
		"/providers/Microsoft.ApiManagement/service/my-svc/namedValues/nv;rev=1",
	}
	for _, input := range inputs {
		got := RelativeID(input)
		if !strings.HasPrefix(got, "/") {
			t.Errorf("RelativeID(%q) = %q does not start with /", input, got)
		}
		if strings.Contains(strings.ToLower(got), "microsoft.apimanagement/service/") {
			t.Errorf("RelativeID(%q) = %q still contains the marker", input, got)
		}
		if strings.Contains(got, "my-svc") {
			t.Errorf("RelativeID(%q) = %q still contains the service name", input, got)
		}
	}
}

func TestFormatLink(t *testing.T) {
	m := map[string]any{
		"name": "link-1",
		"properties": map[string]any{
			"apiId": "/subscriptions/s/resourceGroups/g/providers/Microsoft.ApiManagement/service/svc/apis/orders",
		},
	}
	FormatLink("apiId")(m, "orders")
	if m["name"] != "orders" {
		t.Errorf("name = %v, want orders", m["name"])
	}
	if got, _ := StringProperty(m, "apiId"); got != "/apis/orders" {
		t.Errorf("apiId = %q, want /apis/orders", got)
	}
}

func TestFormatPolicyFragment(t *testing.T) {
	m := map[string]any{
		"properties": map[string]any{
			"description": "shared checks",
			"format":      "rawxml",
			"value":       "<fragment/>",
		},
	}
	FormatPolicyFragment(m, "f1")
	props, _ := Properties(m, false)
	if _, ok := props["format"]; ok {
		t.Error("format must be removed")
	}
	if _, ok := props["value"]; ok {
		t.Error("value must be removed")
	}
	if props["description"] != "shared checks" {
		t.Error("other properties must survive")
	}
}

func TestFormatAPI(t *testing.T) {
	tests := []struct {
		name        string
		apiType     string
		wantService bool
	}{
		{name: "HTTP", apiType: "http", wantService: false},
		{name: "Missing", apiType: "", wantService: false},
		{name: "WebSocket", apiType: "websocket", wantService: true},
		{name: "GraphQLUpper", apiType: "GraphQL", wantService: true},
		{name: "Soap", apiType: "soap", wantService: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := map[string]any{"serviceUrl": "https://backend.example.com"}
			if tt.apiType != "" {
				props["type"] = tt.apiType
			}
			m := map[string]any{"properties": props}
			FormatAPI(nil)(m, "orders")
			_, has := props["serviceUrl"]
			if has != tt.wantService {
				t.Errorf("serviceUrl present = %v, want %v", has, tt.wantService)
			}
		})
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/apis/orders", "orders"},
		{"orders", "orders"},
		{"/a/b/c/", "c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LastSegment(tt.input); got != tt.want {
			t.Errorf("LastSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
