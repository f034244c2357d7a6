// Package apispec models the API specification formats the service can
// import and export: OpenAPI (v2/v3, JSON/YAML), WSDL, WADL, and GraphQL.
package apispec

import (
	"fmt"
	"strings"
)

// Format is the serialisation of an OpenAPI document.
type Format int

// OpenAPI serialisations.
const (
	FormatJSON Format = iota
	FormatYAML
)

// Version is the OpenAPI major version.
type Version int

// OpenAPI versions.
const (
	VersionV2 Version = iota
	VersionV3
)

// Specification is a tagged variant over the supported specification
// kinds. Exactly one of the Is* predicates holds for a valid value.
type Specification struct {
	kind    specKind
	format  Format
	version Version
}

type specKind int

const (
	specOpenAPI specKind = iota
	specGraphQL
	specWadl
	specWsdl
)

// GraphQL is the GraphQL schema specification.
var GraphQL = Specification{kind: specGraphQL}

// Wadl is the WADL specification.
var Wadl = Specification{kind: specWadl}

// Wsdl is the WSDL specification.
var Wsdl = Specification{kind: specWsdl}

// OpenAPI builds an OpenAPI specification variant.
func OpenAPI(version Version, format Format) Specification {
	return Specification{kind: specOpenAPI, format: format, version: version}
}

// Default is the specification used when API_SPECIFICATION_FORMAT is
// unset: OpenAPI v3 YAML.
var Default = OpenAPI(VersionV3, FormatYAML)

// IsOpenAPI reports whether s is an OpenAPI variant, returning its
// version and format.
func (s Specification) IsOpenAPI() (Version, Format, bool) {
	return s.version, s.format, s.kind == specOpenAPI
}

// IsGraphQL reports whether s is the GraphQL variant.
func (s Specification) IsGraphQL() bool { return s.kind == specGraphQL }

// IsWadl reports whether s is the WADL variant.
func (s Specification) IsWadl() bool { return s.kind == specWadl }

// IsWsdl reports whether s is the WSDL variant.
func (s Specification) IsWsdl() bool { return s.kind == specWsdl }

// Extension returns the file extension of the on-disk specification file,
// without the dot.
func (s Specification) Extension() string {
	switch s.kind {
	case specGraphQL:
		return "graphql"
	case specWadl:
		return "wadl"
	case specWsdl:
		return "wsdl"
	default:
		if s.format == FormatJSON {
			return "json"
		}
		return "yaml"
	}
}

// FileName returns the on-disk specification file name,
// "specification.<ext>".
func (s Specification) FileName() string {
	return "specification." + s.Extension()
}

// String names the variant for logs.
func (s Specification) String() string {
	switch s.kind {
	case specGraphQL:
		return "graphql"
	case specWadl:
		return "wadl"
	case specWsdl:
		return "wsdl"
	default:
		v := "v3"
		if s.version == VersionV2 {
			v = "v2"
		}
		f := "yaml"
		if s.format == FormatJSON {
			f = "json"
		}
		return "openapi-" + v + "-" + f
	}
}

// ParseDefault resolves the API_SPECIFICATION_FORMAT environment value to
// a specification. The empty string yields [Default].
func ParseDefault(value string) (Specification, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return Default, nil
	case "wadl":
		return Wadl, nil
	case "json", "openapiv3json":
		return OpenAPI(VersionV3, FormatJSON), nil
	case "yaml", "openapiv3yaml":
		return OpenAPI(VersionV3, FormatYAML), nil
	case "openapiv2json":
		return OpenAPI(VersionV2, FormatJSON), nil
	case "openapiv2yaml":
		return OpenAPI(VersionV2, FormatYAML), nil
	default:
		return Specification{}, fmt.Errorf("unknown specification format %q", value)
	}
}

// ForAPIType picks the specification for an API's type field: soap APIs
// export WSDL, graphql APIs export their schema, and everything else uses
// the configured default.
func ForAPIType(apiType string, dflt Specification) Specification {
	switch strings.ToLower(apiType) {
	case "soap":
		return Wsdl
	case "graphql":
		return GraphQL
	default:
		return dflt
	}
}

// ExportQuery returns the format value of the export GET
// (?format=<value>&export=true). GraphQL has no export query; callers read
// the schema child instead.
func (s Specification) ExportQuery() (string, bool) {
	switch s.kind {
	case specWadl:
		return "wadl-link-json", true
	case specWsdl:
		return "wsdl-link", true
	case specGraphQL:
		return "", false
	default:
		// The service exports OpenAPI v2 only as JSON; YAML is derived
		// locally afterwards.
		if s.version == VersionV2 {
			return "swagger-link-json", true
		}
		if s.format == FormatJSON {
			return "openapi+json-link", true
		}
		return "openapi-link", true
	}
}

// NeedsReserialise reports whether the exported document must be parsed
// and re-serialised locally because the service cannot produce the
// requested form directly (OpenAPI v2 in YAML).
func (s Specification) NeedsReserialise() bool {
	v, f, ok := s.IsOpenAPI()
	return ok && v == VersionV2 && f == FormatYAML
}

// ImportFormat returns the properties.format value for publishing the
// specification, and whether the PUT needs the ?import=true query.
func (s Specification) ImportFormat() (format string, importQuery bool) {
	switch s.kind {
	case specWadl:
		return "wadl-xml", true
	case specWsdl:
		return "wsdl", true
	case specGraphQL:
		return "", false
	default:
		name := "openapi"
		if s.version == VersionV2 {
			name = "swagger"
		}
		if s.format == FormatJSON {
			return name + "+json", false
		}
		return name + "+yaml", false
	}
}

// ParseFileName maps a specification file name back to its variant. The
// OpenAPI version of a json/yaml file is not recoverable from the name;
// v3 is assumed, which matches how the publisher treats tree files.
func ParseFileName(name string) (Specification, bool) {
	switch name {
	case "specification.graphql":
		return GraphQL, true
	case "specification.wadl":
		return Wadl, true
	case "specification.wsdl":
		return Wsdl, true
	case "specification.json":
		return OpenAPI(VersionV3, FormatJSON), true
	case "specification.yaml":
		return OpenAPI(VersionV3, FormatYAML), true
	default:
		return Specification{}, false
	}
}
