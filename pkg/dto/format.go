package dto

import "strings"

const serviceMarker = "microsoft.apimanagement/service/"

// RelativeID rewrites an absolute ARM resource id into the service-relative
// form stored in information files. If id contains the service marker
// (case-insensitively), everything up to and including the marker and the
// following service-name segment is dropped and the remainder is emitted
// with a leading slash. Other values, including the empty string, pass
// through unchanged.
func RelativeID(id string) string {
	idx := strings.Index(strings.ToLower(id), serviceMarker)
	if idx < 0 {
		return id
	}
	rest := id[idx+len(serviceMarker):]
	if cut := strings.IndexByte(rest, '/'); cut >= 0 {
		rest = rest[cut+1:]
	} else {
		rest = ""
	}
	return "/" + rest
}

// RewriteReference rewrites properties.<name> through RelativeID when the
// property is present and a string.
func RewriteReference(m map[string]any, name string) {
	p, ok := Properties(m, false)
	if !ok {
		return
	}
	if s, ok := p[name].(string); ok {
		p[name] = RelativeID(s)
	}
}

// FormatLink prepares a link DTO for disk: the kind-declared property is
// rewritten to a relative id and the top-level name is pinned to the given
// name. The extractor passes the key's name, which for a link is the name
// of the secondary resource it points at.
func FormatLink(linkProperty string) func(m map[string]any, name string) {
	return func(m map[string]any, name string) {
		RewriteReference(m, linkProperty)
		m["name"] = name
	}
}

// FormatReferences rewrites each named reference property to a relative
// id.
func FormatReferences(properties ...string) func(m map[string]any, name string) {
	return func(m map[string]any, _ string) {
		for _, prop := range properties {
			RewriteReference(m, prop)
		}
	}
}

// FormatPolicyFragment strips properties.format and properties.value:
// fragment bodies live in the side policy.xml file and must never appear
// in the information file.
func FormatPolicyFragment(m map[string]any, _ string) {
	if p, ok := Properties(m, false); ok {
		delete(p, "format")
		delete(p, "value")
	}
}

// FormatAPI drops properties.serviceUrl for API types that do not use it.
// The service rejects a serviceUrl on anything but websocket and graphql
// passthrough APIs, and echoes a generated one back on extraction.
func FormatAPI(refs func(map[string]any, string)) func(m map[string]any, name string) {
	return func(m map[string]any, name string) {
		if refs != nil {
			refs(m, name)
		}
		p, ok := Properties(m, false)
		if !ok {
			return
		}
		t, _ := p["type"].(string)
		switch strings.ToLower(t) {
		case "websocket", "graphql":
		default:
			delete(p, "serviceUrl")
		}
	}
}

// Compose chains write formatters left to right.
func Compose(fns ...func(map[string]any, string)) func(map[string]any, string) {
	return func(m map[string]any, name string) {
		for _, fn := range fns {
			fn(m, name)
		}
	}
}
