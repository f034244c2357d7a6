// Package dto holds the typed wire schemas for API Management resources
// and the normalizer that round-trips raw JSON through them.
//
// Normalization is a deserialize-then-reserialize pass: unknown fields are
// dropped, required fields are enforced, and string values keep their
// characters unescaped because policy envelopes carry inline XML.
package dto

// NamedValue is the schema for named values.
type NamedValue struct {
	Properties *NamedValueProperties `json:"properties,omitempty"`
}

// NamedValueProperties carries the named value contract.
type NamedValueProperties struct {
	DisplayName string          `json:"displayName,omitempty"`
	Value       string          `json:"value,omitempty"`
	Secret      *bool           `json:"secret,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	KeyVault    *KeyVaultSecret `json:"keyVault,omitempty"`
}

// KeyVaultSecret points a named value at a key vault secret.
type KeyVaultSecret struct {
	SecretIdentifier string `json:"secretIdentifier,omitempty"`
	IdentityClientID string `json:"identityClientId,omitempty"`
}

// Tag is the schema for tags.
type Tag struct {
	Properties *TagProperties `json:"properties,omitempty"`
}

// TagProperties carries the tag contract.
type TagProperties struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Gateway is the schema for self-hosted gateways.
type Gateway struct {
	Properties *GatewayProperties `json:"properties,omitempty"`
}

// GatewayProperties carries the gateway contract.
type GatewayProperties struct {
	Description  string           `json:"description,omitempty"`
	LocationData *GatewayLocation `json:"locationData,omitempty"`
}

// GatewayLocation describes where a gateway is deployed.
type GatewayLocation struct {
	Name            string `json:"name,omitempty"`
	City            string `json:"city,omitempty"`
	District        string `json:"district,omitempty"`
	CountryOrRegion string `json:"countryOrRegion,omitempty"`
}

// VersionSet is the schema for API version sets.
type VersionSet struct {
	Properties *VersionSetProperties `json:"properties,omitempty"`
}

// VersionSetProperties carries the version set contract.
type VersionSetProperties struct {
	DisplayName       string `json:"displayName,omitempty"`
	VersioningScheme  string `json:"versioningScheme,omitempty"`
	Description       string `json:"description,omitempty"`
	VersionQueryName  string `json:"versionQueryName,omitempty"`
	VersionHeaderName string `json:"versionHeaderName,omitempty"`
}

// Backend is the schema for backends.
type Backend struct {
	Properties *BackendProperties `json:"properties,omitempty"`
}

// BackendProperties carries the backend contract.
type BackendProperties struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	URL         string           `json:"url,omitempty"`
	Protocol    string           `json:"protocol,omitempty"`
	ResourceID  string           `json:"resourceId,omitempty"`
	TLS         *BackendTLS      `json:"tls,omitempty"`
	Proxy       *BackendProxy    `json:"proxy,omitempty"`
	Credentials *BackendCreds    `json:"credentials,omitempty"`
	Pool        *BackendPoolInfo `json:"pool,omitempty"`
	Type        string           `json:"type,omitempty"`
}

// BackendTLS controls certificate validation for a backend.
type BackendTLS struct {
	ValidateCertificateChain *bool `json:"validateCertificateChain,omitempty"`
	ValidateCertificateName  *bool `json:"validateCertificateName,omitempty"`
}

// BackendProxy routes backend traffic through a proxy.
type BackendProxy struct {
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// BackendCreds attaches credentials to backend calls.
type BackendCreds struct {
	Query         map[string][]string `json:"query,omitempty"`
	Header        map[string][]string `json:"header,omitempty"`
	Certificate   []string            `json:"certificate,omitempty"`
	CertificateID []string            `json:"certificateIds,omitempty"`
	Authorization *BackendAuth        `json:"authorization,omitempty"`
}

// BackendAuth is the authorization header scheme for a backend.
type BackendAuth struct {
	Scheme    string `json:"scheme,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// BackendPoolInfo lists the members of a load-balanced backend pool.
type BackendPoolInfo struct {
	Services []BackendPoolService `json:"services,omitempty"`
}

// BackendPoolService is one member of a backend pool.
type BackendPoolService struct {
	ID       string `json:"id,omitempty"`
	Priority *int   `json:"priority,omitempty"`
	Weight   *int   `json:"weight,omitempty"`
}

// Logger is the schema for loggers.
type Logger struct {
	Properties *LoggerProperties `json:"properties,omitempty"`
}

// LoggerProperties carries the logger contract.
type LoggerProperties struct {
	LoggerType  string            `json:"loggerType,omitempty"`
	Description string            `json:"description,omitempty"`
	IsBuffered  *bool             `json:"isBuffered,omitempty"`
	ResourceID  string            `json:"resourceId,omitempty"`
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Diagnostic is the schema for diagnostics.
type Diagnostic struct {
	Properties *DiagnosticProperties `json:"properties,omitempty"`
}

// DiagnosticProperties carries the diagnostic contract.
// LoggerID is required: a diagnostic without a logger is meaningless.
type DiagnosticProperties struct {
	LoggerID                string               `json:"loggerId"`
	AlwaysLog               string               `json:"alwaysLog,omitempty"`
	Verbosity               string               `json:"verbosity,omitempty"`
	LogClientIP             *bool                `json:"logClientIp,omitempty"`
	HTTPCorrelationProtocol string               `json:"httpCorrelationProtocol,omitempty"`
	Sampling                *DiagnosticSampling  `json:"sampling,omitempty"`
	Frontend                *PipelineDiagnostics `json:"frontend,omitempty"`
	Backend                 *PipelineDiagnostics `json:"backend,omitempty"`
	OperationNameFormat     string               `json:"operationNameFormat,omitempty"`
	Metrics                 *bool                `json:"metrics,omitempty"`
}

func (d *Diagnostic) validate() error {
	if d.Properties == nil {
		return missingProperty("properties")
	}
	if d.Properties.LoggerID == "" {
		return missingProperty("properties.loggerId")
	}
	return nil
}

// DiagnosticSampling controls the sampling rate of a diagnostic.
type DiagnosticSampling struct {
	SamplingType string   `json:"samplingType,omitempty"`
	Percentage   *float64 `json:"percentage,omitempty"`
}

// PipelineDiagnostics configures request/response logging for one
// direction of the gateway pipeline.
type PipelineDiagnostics struct {
	Request  *HTTPMessageDiagnostic `json:"request,omitempty"`
	Response *HTTPMessageDiagnostic `json:"response,omitempty"`
}

// HTTPMessageDiagnostic selects headers and body bytes to log.
type HTTPMessageDiagnostic struct {
	Headers []string            `json:"headers,omitempty"`
	Body    *BodyDiagnostic     `json:"body,omitempty"`
	Masking *DiagnosticDataMask `json:"dataMasking,omitempty"`
}

// BodyDiagnostic bounds how many body bytes are logged.
type BodyDiagnostic struct {
	Bytes *int `json:"bytes,omitempty"`
}

// DiagnosticDataMask masks named headers and query parameters.
type DiagnosticDataMask struct {
	QueryParams []DataMaskEntry `json:"queryParams,omitempty"`
	Headers     []DataMaskEntry `json:"headers,omitempty"`
}

// DataMaskEntry is one masking rule.
type DataMaskEntry struct {
	Mode  string `json:"mode,omitempty"`
	Value string `json:"value,omitempty"`
}

// Product is the schema for products.
type Product struct {
	Properties *ProductProperties `json:"properties,omitempty"`
}

// ProductProperties carries the product contract.
type ProductProperties struct {
	DisplayName          string `json:"displayName,omitempty"`
	Description          string `json:"description,omitempty"`
	Terms                string `json:"terms,omitempty"`
	SubscriptionRequired *bool  `json:"subscriptionRequired,omitempty"`
	ApprovalRequired     *bool  `json:"approvalRequired,omitempty"`
	SubscriptionsLimit   *int   `json:"subscriptionsLimit,omitempty"`
	State                string `json:"state,omitempty"`
}

// Group is the schema for groups.
type Group struct {
	Properties *GroupProperties `json:"properties,omitempty"`
}

// GroupProperties carries the group contract.
type GroupProperties struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
}

// Subscription is the schema for subscriptions.
type Subscription struct {
	Properties *SubscriptionProperties `json:"properties,omitempty"`
}

// SubscriptionProperties carries the subscription contract.
// Scope is required: it points the subscription at a product or an API.
type SubscriptionProperties struct {
	Scope        string `json:"scope"`
	DisplayName  string `json:"displayName,omitempty"`
	OwnerID      string `json:"ownerId,omitempty"`
	State        string `json:"state,omitempty"`
	AllowTracing *bool  `json:"allowTracing,omitempty"`
}

func (s *Subscription) validate() error {
	if s.Properties == nil {
		return missingProperty("properties")
	}
	if s.Properties.Scope == "" {
		return missingProperty("properties.scope")
	}
	return nil
}

// API is the schema for APIs and workspace APIs.
type API struct {
	Properties *APIProperties `json:"properties,omitempty"`
}

// APIProperties carries the API contract.
type APIProperties struct {
	DisplayName            string                  `json:"displayName,omitempty"`
	Description            string                  `json:"description,omitempty"`
	Path                   string                  `json:"path,omitempty"`
	ServiceURL             string                  `json:"serviceUrl,omitempty"`
	Type                   string                  `json:"type,omitempty"`
	APIType                string                  `json:"apiType,omitempty"`
	Protocols              []string                `json:"protocols,omitempty"`
	APIRevision            string                  `json:"apiRevision,omitempty"`
	APIRevisionDescription string                  `json:"apiRevisionDescription,omitempty"`
	APIVersion             string                  `json:"apiVersion,omitempty"`
	APIVersionDescription  string                  `json:"apiVersionDescription,omitempty"`
	APIVersionSetID        string                  `json:"apiVersionSetId,omitempty"`
	IsCurrent              *bool                   `json:"isCurrent,omitempty"`
	SourceAPIID            string                  `json:"sourceApiId,omitempty"`
	SubscriptionRequired   *bool                   `json:"subscriptionRequired,omitempty"`
	SubscriptionKeys       *SubscriptionKeyNames   `json:"subscriptionKeyParameterNames,omitempty"`
	AuthenticationSettings *AuthenticationSettings `json:"authenticationSettings,omitempty"`
	Contact                *APIContact             `json:"contact,omitempty"`
	License                *APILicense             `json:"license,omitempty"`
	TermsOfServiceURL      string                  `json:"termsOfServiceUrl,omitempty"`
}

// SubscriptionKeyNames renames the header/query carrying the key.
type SubscriptionKeyNames struct {
	Header string `json:"header,omitempty"`
	Query  string `json:"query,omitempty"`
}

// AuthenticationSettings configures OAuth2/OpenID for an API.
type AuthenticationSettings struct {
	OAuth2 *OAuth2Settings `json:"oAuth2,omitempty"`
	OpenID *OpenIDSettings `json:"openid,omitempty"`
}

// OAuth2Settings references an authorization server.
type OAuth2Settings struct {
	AuthorizationServerID string `json:"authorizationServerId,omitempty"`
	Scope                 string `json:"scope,omitempty"`
}

// OpenIDSettings references an OpenID provider.
type OpenIDSettings struct {
	OpenIDProviderID          string   `json:"openidProviderId,omitempty"`
	BearerTokenSendingMethods []string `json:"bearerTokenSendingMethods,omitempty"`
}

// APIContact is the API's contact block.
type APIContact struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// APILicense is the API's license block.
type APILicense struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// APIOperation is the schema for API operations.
type APIOperation struct {
	Properties *APIOperationProperties `json:"properties,omitempty"`
}

// APIOperationProperties carries the operation contract.
type APIOperationProperties struct {
	DisplayName string `json:"displayName,omitempty"`
	Method      string `json:"method,omitempty"`
	URLTemplate string `json:"urlTemplate,omitempty"`
	Description string `json:"description,omitempty"`
}

// APIRelease is the schema for API releases.
type APIRelease struct {
	Properties *APIReleaseProperties `json:"properties,omitempty"`
}

// APIReleaseProperties carries the release contract.
type APIReleaseProperties struct {
	APIID string `json:"apiId,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Workspace is the schema for workspaces.
type Workspace struct {
	Properties *WorkspaceProperties `json:"properties,omitempty"`
}

// WorkspaceProperties carries the workspace contract.
type WorkspaceProperties struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// Policy is the envelope shared by every policy kind. The Value holds the
// raw XML body on the wire; on disk the XML lives in a side file and the
// information file (when one exists) omits both Format and Value.
type Policy struct {
	Properties *PolicyProperties `json:"properties,omitempty"`
}

// PolicyProperties carries the policy contract.
type PolicyProperties struct {
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	Value       string `json:"value,omitempty"`
}

// Link is the fixed shape of link resources: a name plus a properties bag
// whose kind-declared property carries the secondary's resource id.
type Link struct {
	Name       string         `json:"name,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (l *Link) validate() error {
	if len(l.Properties) == 0 {
		return missingProperty("properties")
	}
	return nil
}

// APISchema is the schema child that stores a GraphQL document.
type APISchema struct {
	Properties *APISchemaProperties `json:"properties,omitempty"`
}

// APISchemaProperties carries the schema contract.
type APISchemaProperties struct {
	ContentType string             `json:"contentType,omitempty"`
	Document    *APISchemaDocument `json:"document,omitempty"`
}

// APISchemaDocument wraps the schema text.
type APISchemaDocument struct {
	Value string `json:"value,omitempty"`
}
