// Package layout maps resource keys to their two addresses: the canonical
// on-disk path inside a service directory, and the management URI on the
// live service.
//
// The two mappings are intentionally kept in one package: the publisher's
// file parser inverts the disk mapping, and tests assert that every key
// produced by parsing maps back onto a file that exists.
package layout

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/registry"
)

// ChainDir returns the directory a parent chain occupies under the
// service directory: for each ancestor, its collection directory then its
// name.
func ChainDir(serviceDir string, chain registry.ParentChain) string {
	dir := serviceDir
	for _, a := range chain.Ancestors() {
		dir = filepath.Join(dir, a.Kind.CollectionDir, a.Name.String())
	}
	return dir
}

// CollectionDir returns the directory holding all instances of the key's
// kind, and false when the kind occupies no subtree on disk.
func CollectionDir(serviceDir string, kind *registry.Kind, parents registry.ParentChain) (string, bool) {
	if !kind.HasDirectory() {
		return "", false
	}
	return filepath.Join(ChainDir(serviceDir, parents), kind.CollectionDir), true
}

// InstanceDir returns the per-instance directory of the key, and false
// when its kind occupies no subtree on disk. For link kinds the key's name
// is the secondary's name, so the mapping is uniform across kinds.
func InstanceDir(serviceDir string, key registry.Key) (string, bool) {
	collection, ok := CollectionDir(serviceDir, key.Kind, key.Parents)
	if !ok {
		return "", false
	}
	return filepath.Join(collection, key.Name.String()), true
}

// InformationFile returns the path of the key's JSON information file, and
// false when its kind has none.
func InformationFile(serviceDir string, key registry.Key) (string, bool) {
	if !key.Kind.HasInformationFile() {
		return "", false
	}
	dir, ok := InstanceDir(serviceDir, key)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, key.Kind.FileName), true
}

// PolicyFile returns the path of the key's side-stored XML body, and false
// when its kind is not a policy.
//
// Fragments store policy.xml inside their own directory; per-parent
// policies store <name>.xml inside the parent's directory; the service
// policy stores <name>.xml at the service root.
func PolicyFile(serviceDir string, key registry.Key) (string, bool) {
	switch key.Kind.PolicyScope {
	case registry.PolicyScopeFragment:
		dir, ok := InstanceDir(serviceDir, key)
		if !ok {
			return "", false
		}
		return filepath.Join(dir, "policy.xml"), true
	case registry.PolicyScopeParent:
		return filepath.Join(ChainDir(serviceDir, key.Parents), key.Name.String()+".xml"), true
	case registry.PolicyScopeService:
		return filepath.Join(serviceDir, key.Name.String()+".xml"), true
	default:
		return "", false
	}
}

// SpecificationFile returns the path of an API's specification file for
// the given variant.
func SpecificationFile(serviceDir string, key registry.Key, spec apispec.Specification) (string, bool) {
	if !key.Kind.API {
		return "", false
	}
	dir, _ := InstanceDir(serviceDir, key)
	return filepath.Join(dir, spec.FileName()), true
}

// CollectionURL returns the management URI of the kind's collection under
// the given parent chain.
func CollectionURL(serviceURL string, kind *registry.Kind, parents registry.ParentChain) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(serviceURL, "/"))
	for _, a := range parents.Ancestors() {
		b.WriteByte('/')
		b.WriteString(a.Kind.CollectionURI)
		b.WriteByte('/')
		b.WriteString(a.Name.String())
	}
	b.WriteByte('/')
	b.WriteString(kind.CollectionURI)
	return b.String()
}

// ElementURL returns the management URI of the key's element.
func ElementURL(serviceURL string, key registry.Key) string {
	return CollectionURL(serviceURL, key.Kind, key.Parents) + "/" + key.Name.String()
}

// RelativeToService rebases p against the service directory, returning a
// slash-separated relative path. ok is false when p lies outside the
// service directory.
func RelativeToService(serviceDir, p string) (string, bool) {
	rel, err := filepath.Rel(serviceDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SplitPath splits a slash-separated relative path into its segments.
func SplitPath(rel string) []string {
	rel = path.Clean(rel)
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}
