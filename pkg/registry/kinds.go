package registry

import "github.com/apimsync/apimsync/pkg/dto"

// The catalogue. Kinds are wired as package-level records; relationship
// pointers reference kinds defined earlier, so the declaration order below
// is load-bearing.

// NamedValue is the root named-value kind. Every policy kind depends on it
// because policy XML may reference named values.
var NamedValue = &Kind{
	Singular:      "namedValue",
	Plural:        "namedValues",
	CollectionURI: "namedValues",
	CollectionDir: "named values",
	FileName:      "namedValueInformation.json",
	NewDTO:        func() any { return new(dto.NamedValue) },
}

// Tag is the root tag kind.
var Tag = &Kind{
	Singular:      "tag",
	Plural:        "tags",
	CollectionURI: "tags",
	CollectionDir: "tags",
	FileName:      "tagInformation.json",
	NewDTO:        func() any { return new(dto.Tag) },
}

// Gateway is the self-hosted gateway kind.
var Gateway = &Kind{
	Singular:      "gateway",
	Plural:        "gateways",
	CollectionURI: "gateways",
	CollectionDir: "gateways",
	FileName:      "gatewayInformation.json",
	NewDTO:        func() any { return new(dto.Gateway) },
}

// VersionSet is the API version set kind.
var VersionSet = &Kind{
	Singular:      "versionSet",
	Plural:        "versionSets",
	CollectionURI: "apiVersionSets",
	CollectionDir: "version sets",
	FileName:      "versionSetInformation.json",
	NewDTO:        func() any { return new(dto.VersionSet) },
}

// Backend is the backend kind.
var Backend = &Kind{
	Singular:      "backend",
	Plural:        "backends",
	CollectionURI: "backends",
	CollectionDir: "backends",
	FileName:      "backendInformation.json",
	NewDTO:        func() any { return new(dto.Backend) },
}

// Logger is the logger kind.
var Logger = &Kind{
	Singular:      "logger",
	Plural:        "loggers",
	CollectionURI: "loggers",
	CollectionDir: "loggers",
	FileName:      "loggerInformation.json",
	NewDTO:        func() any { return new(dto.Logger) },
}

// Diagnostic is the service-level diagnostic kind. Its loggerId reference
// is mandatory.
var Diagnostic = &Kind{
	Singular:      "diagnostic",
	Plural:        "diagnostics",
	CollectionURI: "diagnostics",
	CollectionDir: "diagnostics",
	FileName:      "diagnosticInformation.json",
	NewDTO:        func() any { return new(dto.Diagnostic) },
	OnWrite:       dto.FormatReferences("loggerId"),
	MandatoryRefs: []Reference{{Kind: Logger, Property: "loggerId"}},
}

// PolicyFragment is the reusable policy fragment kind. On disk the XML
// body lives in policy.xml and the information file omits format/value.
var PolicyFragment = &Kind{
	Singular:      "policyFragment",
	Plural:        "policyFragments",
	CollectionURI: "policyFragments",
	CollectionDir: "policy fragments",
	FileName:      "policyFragmentInformation.json",
	NewDTO:        func() any { return new(dto.Policy) },
	OnWrite:       dto.FormatPolicyFragment,
	PolicyScope:   PolicyScopeFragment,
}

// ServicePolicy is the global policy of the service. Its XML lives at the
// service root as <name>.xml; there is no information file.
var ServicePolicy = &Kind{
	Singular:      "policy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	PolicyScope:   PolicyScopeService,
}

// Product is the product kind.
var Product = &Kind{
	Singular:      "product",
	Plural:        "products",
	CollectionURI: "products",
	CollectionDir: "products",
	FileName:      "productInformation.json",
	NewDTO:        func() any { return new(dto.Product) },
}

// Group is the group kind. The three built-in groups are system-reserved.
var Group = &Kind{
	Singular:      "group",
	Plural:        "groups",
	CollectionURI: "groups",
	CollectionDir: "groups",
	FileName:      "groupInformation.json",
	NewDTO:        func() any { return new(dto.Group) },
	Reserved:      []string{"administrators", "developers", "guests"},
}

// Api is the API kind. Names carry revisions via the ";rev=<n>" suffix.
var Api = &Kind{
	Singular:      "api",
	Plural:        "apis",
	CollectionURI: "apis",
	CollectionDir: "apis",
	FileName:      "apiInformation.json",
	NewDTO:        func() any { return new(dto.API) },
	OnWrite:       dto.FormatAPI(dto.FormatReferences("apiVersionSetId")),
	OptionalRefs:  []Reference{{Kind: VersionSet, Property: "apiVersionSetId"}},
	API:           true,
}

// Subscription is the subscription kind. The master subscription is
// system-reserved. Its scope may reference a product or an API.
var Subscription = &Kind{
	Singular:      "subscription",
	Plural:        "subscriptions",
	CollectionURI: "subscriptions",
	CollectionDir: "subscriptions",
	FileName:      "subscriptionInformation.json",
	NewDTO:        func() any { return new(dto.Subscription) },
	OnWrite:       dto.FormatReferences("scope"),
	OptionalRefs: []Reference{
		{Kind: Product, Property: "scope"},
		{Kind: Api, Property: "scope"},
	},
	Reserved: []string{"master"},
}

// ApiPolicy is the per-API policy. XML lives as <name>.xml inside the
// API's directory.
var ApiPolicy = &Kind{
	Singular:      "apiPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        Api,
	PolicyScope:   PolicyScopeParent,
}

// ApiDiagnostic is the per-API diagnostic.
var ApiDiagnostic = &Kind{
	Singular:      "apiDiagnostic",
	Plural:        "diagnostics",
	CollectionURI: "diagnostics",
	CollectionDir: "diagnostics",
	FileName:      "diagnosticInformation.json",
	NewDTO:        func() any { return new(dto.Diagnostic) },
	OnWrite:       dto.FormatReferences("loggerId"),
	Parent:        Api,
	MandatoryRefs: []Reference{{Kind: Logger, Property: "loggerId"}},
}

// ApiOperation is the per-API operation. Operations are defined by the
// API's specification; the tools traverse them only to reach their
// policies, so the kind has a directory but no information file.
var ApiOperation = &Kind{
	Singular:      "apiOperation",
	Plural:        "operations",
	CollectionURI: "operations",
	CollectionDir: "operations",
	Parent:        Api,
}

// ApiOperationPolicy is the per-operation policy.
var ApiOperationPolicy = &Kind{
	Singular:      "apiOperationPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        ApiOperation,
	PolicyScope:   PolicyScopeParent,
}

// ApiRelease is the per-API release. Releases exist only under the current
// revision of an API.
var ApiRelease = &Kind{
	Singular:      "apiRelease",
	Plural:        "releases",
	CollectionURI: "releases",
	CollectionDir: "releases",
	FileName:      "releaseInformation.json",
	NewDTO:        func() any { return new(dto.APIRelease) },
	Parent:        Api,
}

// ApiTag attaches a tag to an API. Identity is the tag under the API.
var ApiTag = &Kind{
	Singular:      "apiTag",
	Plural:        "tags",
	CollectionURI: "tags",
	CollectionDir: "tags",
	FileName:      "tagInformation.json",
	NewDTO:        func() any { return new(dto.Tag) },
	Primary:       Api,
	Secondary:     Tag,
}

// ProductPolicy is the per-product policy.
var ProductPolicy = &Kind{
	Singular:      "productPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        Product,
	PolicyScope:   PolicyScopeParent,
}

// ProductTag attaches a tag to a product.
var ProductTag = &Kind{
	Singular:      "productTag",
	Plural:        "tags",
	CollectionURI: "tags",
	CollectionDir: "tags",
	FileName:      "tagInformation.json",
	NewDTO:        func() any { return new(dto.Tag) },
	Primary:       Product,
	Secondary:     Tag,
}

// ProductApi links an API into a product. The DTO carries the API's
// absolute id under properties.apiId; the on-disk directory is named after
// the API.
var ProductApi = &Kind{
	Singular:      "productApi",
	Plural:        "apiLinks",
	CollectionURI: "apiLinks",
	CollectionDir: "apiLinks",
	FileName:      "apiLinkInformation.json",
	NewDTO:        func() any { return new(dto.Link) },
	OnWrite:       dto.FormatLink("apiId"),
	Primary:       Product,
	Secondary:     Api,
	LinkProperty:  "apiId",
}

// ProductGroup links a group into a product.
var ProductGroup = &Kind{
	Singular:      "productGroup",
	Plural:        "groupLinks",
	CollectionURI: "groupLinks",
	CollectionDir: "groupLinks",
	FileName:      "groupLinkInformation.json",
	NewDTO:        func() any { return new(dto.Link) },
	OnWrite:       dto.FormatLink("groupId"),
	Primary:       Product,
	Secondary:     Group,
	LinkProperty:  "groupId",
}

// GatewayApi links an API into a self-hosted gateway.
var GatewayApi = &Kind{
	Singular:      "gatewayApi",
	Plural:        "apiLinks",
	CollectionURI: "apiLinks",
	CollectionDir: "apiLinks",
	FileName:      "apiLinkInformation.json",
	NewDTO:        func() any { return new(dto.Link) },
	OnWrite:       dto.FormatLink("apiId"),
	Primary:       Gateway,
	Secondary:     Api,
	LinkProperty:  "apiId",
}

// Workspace is the workspace kind; the workspace branch of the catalogue
// mirrors the service-level kinds beneath it.
var Workspace = &Kind{
	Singular:      "workspace",
	Plural:        "workspaces",
	CollectionURI: "workspaces",
	CollectionDir: "workspaces",
	FileName:      "workspaceInformation.json",
	NewDTO:        func() any { return new(dto.Workspace) },
}

// WorkspaceNamedValue is the named value scoped to a workspace.
var WorkspaceNamedValue = &Kind{
	Singular:      "workspaceNamedValue",
	Plural:        "namedValues",
	CollectionURI: "namedValues",
	CollectionDir: "named values",
	FileName:      "namedValueInformation.json",
	NewDTO:        func() any { return new(dto.NamedValue) },
	Parent:        Workspace,
}

// WorkspaceBackend is the backend scoped to a workspace.
var WorkspaceBackend = &Kind{
	Singular:      "workspaceBackend",
	Plural:        "backends",
	CollectionURI: "backends",
	CollectionDir: "backends",
	FileName:      "backendInformation.json",
	NewDTO:        func() any { return new(dto.Backend) },
	Parent:        Workspace,
}

// WorkspaceTag is the tag scoped to a workspace.
var WorkspaceTag = &Kind{
	Singular:      "workspaceTag",
	Plural:        "tags",
	CollectionURI: "tags",
	CollectionDir: "tags",
	FileName:      "tagInformation.json",
	NewDTO:        func() any { return new(dto.Tag) },
	Parent:        Workspace,
}

// WorkspaceVersionSet is the version set scoped to a workspace.
var WorkspaceVersionSet = &Kind{
	Singular:      "workspaceVersionSet",
	Plural:        "versionSets",
	CollectionURI: "apiVersionSets",
	CollectionDir: "version sets",
	FileName:      "versionSetInformation.json",
	NewDTO:        func() any { return new(dto.VersionSet) },
	Parent:        Workspace,
}

// WorkspacePolicy is the policy of a workspace; XML lives as <name>.xml in
// the workspace directory.
var WorkspacePolicy = &Kind{
	Singular:      "workspacePolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        Workspace,
	PolicyScope:   PolicyScopeParent,
}

// WorkspacePolicyFragment is the policy fragment scoped to a workspace.
var WorkspacePolicyFragment = &Kind{
	Singular:      "workspacePolicyFragment",
	Plural:        "policyFragments",
	CollectionURI: "policyFragments",
	CollectionDir: "policy fragments",
	FileName:      "policyFragmentInformation.json",
	NewDTO:        func() any { return new(dto.Policy) },
	OnWrite:       dto.FormatPolicyFragment,
	Parent:        Workspace,
	PolicyScope:   PolicyScopeFragment,
}

// WorkspaceGroup is the group scoped to a workspace.
var WorkspaceGroup = &Kind{
	Singular:      "workspaceGroup",
	Plural:        "groups",
	CollectionURI: "groups",
	CollectionDir: "groups",
	FileName:      "groupInformation.json",
	NewDTO:        func() any { return new(dto.Group) },
	Parent:        Workspace,
	Reserved:      []string{"administrators", "developers", "guests"},
}

// WorkspaceProduct is the product scoped to a workspace.
var WorkspaceProduct = &Kind{
	Singular:      "workspaceProduct",
	Plural:        "products",
	CollectionURI: "products",
	CollectionDir: "products",
	FileName:      "productInformation.json",
	NewDTO:        func() any { return new(dto.Product) },
	Parent:        Workspace,
}

// WorkspaceProductPolicy is the policy of a workspace product.
var WorkspaceProductPolicy = &Kind{
	Singular:      "workspaceProductPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        WorkspaceProduct,
	PolicyScope:   PolicyScopeParent,
}

// WorkspaceProductGroup links a workspace group into a workspace product.
var WorkspaceProductGroup = &Kind{
	Singular:      "workspaceProductGroup",
	Plural:        "groupLinks",
	CollectionURI: "groupLinks",
	CollectionDir: "groupLinks",
	FileName:      "groupLinkInformation.json",
	NewDTO:        func() any { return new(dto.Link) },
	OnWrite:       dto.FormatLink("groupId"),
	Primary:       WorkspaceProduct,
	Secondary:     WorkspaceGroup,
	LinkProperty:  "groupId",
}

// WorkspaceApi is the API scoped to a workspace; revision semantics match
// Api.
var WorkspaceApi = &Kind{
	Singular:      "workspaceApi",
	Plural:        "apis",
	CollectionURI: "apis",
	CollectionDir: "apis",
	FileName:      "apiInformation.json",
	NewDTO:        func() any { return new(dto.API) },
	OnWrite:       dto.FormatAPI(dto.FormatReferences("apiVersionSetId")),
	Parent:        Workspace,
	OptionalRefs:  []Reference{{Kind: WorkspaceVersionSet, Property: "apiVersionSetId"}},
	API:           true,
}

// WorkspaceApiPolicy is the policy of a workspace API.
var WorkspaceApiPolicy = &Kind{
	Singular:      "workspaceApiPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        WorkspaceApi,
	PolicyScope:   PolicyScopeParent,
}

// WorkspaceApiOperation is the operation of a workspace API.
var WorkspaceApiOperation = &Kind{
	Singular:      "workspaceApiOperation",
	Plural:        "operations",
	CollectionURI: "operations",
	CollectionDir: "operations",
	Parent:        WorkspaceApi,
}

// WorkspaceApiOperationPolicy is the policy of a workspace API operation.
var WorkspaceApiOperationPolicy = &Kind{
	Singular:      "workspaceApiOperationPolicy",
	Plural:        "policies",
	CollectionURI: "policies",
	NewDTO:        func() any { return new(dto.Policy) },
	Parent:        WorkspaceApiOperation,
	PolicyScope:   PolicyScopeParent,
}

// WorkspaceApiRelease is the release of a workspace API.
var WorkspaceApiRelease = &Kind{
	Singular:      "workspaceApiRelease",
	Plural:        "releases",
	CollectionURI: "releases",
	CollectionDir: "releases",
	FileName:      "releaseInformation.json",
	NewDTO:        func() any { return new(dto.APIRelease) },
	Parent:        WorkspaceApi,
}

// WorkspaceSubscription is the subscription scoped to a workspace.
var WorkspaceSubscription = &Kind{
	Singular:      "workspaceSubscription",
	Plural:        "subscriptions",
	CollectionURI: "subscriptions",
	CollectionDir: "subscriptions",
	FileName:      "subscriptionInformation.json",
	NewDTO:        func() any { return new(dto.Subscription) },
	OnWrite:       dto.FormatReferences("scope"),
	Parent:        Workspace,
	OptionalRefs: []Reference{
		{Kind: WorkspaceProduct, Property: "scope"},
		{Kind: WorkspaceApi, Property: "scope"},
	},
	Reserved: []string{"master"},
}

// kinds lists every registered kind. Order matters only for determinism of
// iteration; relationships are expressed through the records themselves.
var kinds = []*Kind{
	NamedValue, Tag, Gateway, VersionSet, Backend, Logger, Diagnostic,
	PolicyFragment, ServicePolicy, Product, Group, Api, Subscription,
	ApiPolicy, ApiDiagnostic, ApiOperation, ApiOperationPolicy, ApiRelease,
	ApiTag, ProductPolicy, ProductTag, ProductApi, ProductGroup, GatewayApi,
	Workspace, WorkspaceNamedValue, WorkspaceBackend, WorkspaceTag,
	WorkspaceVersionSet, WorkspacePolicy, WorkspacePolicyFragment,
	WorkspaceGroup, WorkspaceProduct, WorkspaceProductPolicy,
	WorkspaceProductGroup, WorkspaceApi, WorkspaceApiPolicy,
	WorkspaceApiOperation, WorkspaceApiOperationPolicy,
	WorkspaceApiRelease, WorkspaceSubscription,
}
