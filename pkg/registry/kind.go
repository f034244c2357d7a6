package registry

// PolicyScope distinguishes where a policy kind stores its XML body on
// disk.
type PolicyScope int

const (
	// PolicyScopeNone marks kinds that are not policies.
	PolicyScopeNone PolicyScope = iota
	// PolicyScopeService stores the XML as <name>.xml at the service root.
	PolicyScopeService
	// PolicyScopeParent stores the XML as <name>.xml inside the parent's
	// per-instance directory.
	PolicyScopeParent
	// PolicyScopeFragment stores the XML as policy.xml inside the
	// fragment's own per-instance directory.
	PolicyScopeFragment
)

// Reference declares a DTO property that carries the absolute resource id
// of another resource.
type Reference struct {
	Kind     *Kind
	Property string // property name under "properties"
}

// Kind describes one resource type: its nouns, its place in the traversal
// forest, its DTO schema, and its quirks. Kinds are registered once at
// package init and never mutated; orchestrator code mostly dispatches on
// the facet accessors, and on identity for the few kinds with publish
// steps of their own (releases, products, named values).
type Kind struct {
	Singular string // e.g. "api"
	Plural   string // configuration section key, e.g. "apis"

	CollectionURI string // URI path segment, e.g. "apiVersionSets"
	CollectionDir string // on-disk directory name, "" if none
	FileName      string // information file name, "" if none

	// NewDTO constructs a zero value of the kind's typed schema.
	// Nil for kinds without a wire DTO.
	NewDTO func() any

	// OnWrite reshapes a DTO object before the extractor persists it.
	// Nil when the kind needs no reshaping. The second argument is the
	// resource's name.
	OnWrite func(m map[string]any, name string)

	Parent    *Kind // IsChild: the single parent kind
	Primary   *Kind // IsComposite: traversal predecessor
	Secondary *Kind // IsComposite: the kind whose name is the identity

	// LinkProperty is the DTO property (under "properties") carrying the
	// secondary's absolute resource id. Non-empty only for link kinds.
	LinkProperty string

	PolicyScope PolicyScope

	MandatoryRefs []Reference
	OptionalRefs  []Reference

	// API marks kinds whose names carry revisions via a ";rev=<n>" suffix.
	API bool

	// Reserved lists system names the tools never create or delete,
	// case-folded.
	Reserved []string
}

// HasDirectory reports whether the kind occupies a subtree on disk.
func (k *Kind) HasDirectory() bool { return k.CollectionDir != "" }

// HasInformationFile reports whether the kind persists a JSON information
// file in its per-instance directory.
func (k *Kind) HasInformationFile() bool { return k.FileName != "" }

// HasDto reports whether the kind has a typed wire DTO.
func (k *Kind) HasDto() bool { return k.NewDTO != nil }

// IsChild reports whether the kind occurs only under a single parent kind.
func (k *Kind) IsChild() bool { return k.Parent != nil }

// IsComposite reports whether the kind's identity is "secondary under
// primary". Composite kinds are never Child.
func (k *Kind) IsComposite() bool { return k.Primary != nil }

// IsLink reports whether the kind is a composite whose DTO carries the
// secondary's absolute resource id in a declared property.
func (k *Kind) IsLink() bool { return k.LinkProperty != "" }

// IsPolicy reports whether the kind is a policy envelope with a
// side-stored XML body.
func (k *Kind) IsPolicy() bool { return k.PolicyScope != PolicyScopeNone }

// IsReserved reports whether name is a system-reserved instance of this
// kind.
func (k *Kind) IsReserved(name Name) bool {
	fold := name.Fold()
	for _, r := range k.Reserved {
		if r == fold {
			return true
		}
	}
	return false
}

// String returns the kind's singular noun.
func (k *Kind) String() string { return k.Singular }
