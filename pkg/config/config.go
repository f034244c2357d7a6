// Package config implements the hierarchical inclusion and override
// configuration. The configuration is a YAML (or JSON) tree of nested
// lists keyed by the plural nouns of resource kinds; each list item is
// either a bare name or a single-key mapping whose value holds child
// sections and override properties.
//
// Lookups are memoised on two levels: the parsed root document is a lazy
// single cell, and the section object reached for each parent chain is
// cached so sibling lookups reuse the walked prefix. API ancestors
// collapse to their root name before the walk, so every revision of an
// API shares one scope.
package config

import (
	"context"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/memo"
	"github.com/apimsync/apimsync/pkg/registry"
)

// Decision is the tri-state outcome of an inclusion lookup.
type Decision int

const (
	// Unspecified means no configuration entry exists for the kind at the
	// relevant scope; callers treat this as "extract by default".
	Unspecified Decision = iota
	// Included means the kind's array at the scope names the resource.
	Included
	// Excluded means the kind's array exists at the scope but does not
	// name the resource.
	Excluded
)

// Matcher answers inclusion and override queries against one
// configuration file. The zero value (or a Matcher for an empty path)
// answers Unspecified for everything.
type Matcher struct {
	path string

	root     memo.Lazy[map[string]any]
	sections memo.Map[string, section]
}

// section is the configuration object reached for one parent scope; a
// nil object means no section exists there.
type section struct {
	object map[string]any
}

// NewMatcher returns a Matcher over the configuration file at path. An
// empty path means no configuration.
func NewMatcher(path string) *Matcher {
	return &Matcher{path: path}
}

// Includes reports whether the configuration names key at its scope.
//
// For API kinds, membership also succeeds when the array names the key's
// root name: all revisions of an API share the inclusion decision of
// their root.
func (m *Matcher) Includes(ctx context.Context, key registry.Key) (Decision, error) {
	sec, err := m.sectionFor(ctx, key.Parents)
	if err != nil || sec.object == nil {
		return Unspecified, err
	}
	items, ok := sec.object[key.Kind.Plural].([]any)
	if !ok {
		return Unspecified, nil
	}
	names := []string{key.Name.Fold()}
	if key.Kind.API {
		names = append(names, registry.RootName(key.Name).Fold())
	}
	for _, item := range items {
		if _, matched := matchItem(item, names); matched {
			return Included, nil
		}
	}
	return Excluded, nil
}

// Override returns the configuration object registered for key, to be
// merged into its DTO at publish time. ok is false when no object exists.
//
// For API kinds the returned object never rewrites revision identity:
// properties.apiRevision and properties.isCurrent are stripped.
func (m *Matcher) Override(ctx context.Context, key registry.Key) (map[string]any, bool, error) {
	sec, err := m.sectionFor(ctx, key.Parents)
	if err != nil || sec.object == nil {
		return nil, false, err
	}
	items, ok := sec.object[key.Kind.Plural].([]any)
	if !ok {
		return nil, false, nil
	}
	names := []string{key.Name.Fold()}
	if key.Kind.API {
		names = append(names, registry.RootName(key.Name).Fold())
	}
	for _, item := range items {
		obj, matched := matchItem(item, names)
		if !matched || obj == nil {
			continue
		}
		if key.Kind.API {
			obj = stripRevisionIdentity(obj)
		}
		return obj, true, nil
	}
	return nil, false, nil
}

// sectionFor walks the configuration down the parent chain and returns
// the section object at that scope. A missing section anywhere along the
// walk yields a nil object.
func (m *Matcher) sectionFor(ctx context.Context, chain registry.ParentChain) (section, error) {
	if m == nil || m.path == "" {
		return section{}, nil
	}
	return m.sections.Do(ctx, chainKey(chain), func(ctx context.Context) (section, error) {
		if chain.Len() == 0 {
			root, err := m.rootObject(ctx)
			if err != nil {
				return section{}, err
			}
			return section{object: root}, nil
		}
		parent, err := m.sectionFor(ctx, chain.Prefix(chain.Len()-1))
		if err != nil || parent.object == nil {
			return section{}, err
		}
		innermost, _ := chain.Innermost()
		items, ok := parent.object[innermost.Kind.Plural].([]any)
		if !ok {
			return section{}, nil
		}
		names := []string{innermost.Name.Fold()}
		if innermost.Kind.API {
			names = []string{registry.RootName(innermost.Name).Fold()}
		}
		for _, item := range items {
			if obj, matched := matchItem(item, names); matched {
				return section{object: obj}, nil
			}
		}
		return section{}, nil
	})
}

func (m *Matcher) rootObject(ctx context.Context) (map[string]any, error) {
	return m.root.Get(ctx, func(context.Context) (map[string]any, error) {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading configuration %s", m.path)
		}
		var obj map[string]any
		if err := yaml.Unmarshal(data, &obj); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing configuration %s", m.path)
		}
		return obj, nil
	})
}

// matchItem matches one list item against the candidate folded names. It
// returns the item's object when the item is a single-key mapping, nil
// for a bare name.
func matchItem(item any, foldedNames []string) (map[string]any, bool) {
	switch v := item.(type) {
	case string:
		for _, n := range foldedNames {
			if strings.ToLower(v) == n {
				return nil, true
			}
		}
	case map[string]any:
		if len(v) != 1 {
			return nil, false
		}
		for key, value := range v {
			for _, n := range foldedNames {
				if strings.ToLower(key) == n {
					obj, _ := value.(map[string]any)
					return obj, true
				}
			}
		}
	}
	return nil, false
}

// chainKey folds a parent chain to its cache key, collapsing API
// revisions so "root;rev=2" and "root" share one entry.
func chainKey(chain registry.ParentChain) string {
	var b strings.Builder
	for _, a := range chain.Ancestors() {
		name := a.Name
		if a.Kind.API {
			name = registry.RootName(name)
		}
		b.WriteByte('/')
		b.WriteString(a.Kind.Plural)
		b.WriteByte('/')
		b.WriteString(name.Fold())
	}
	return b.String()
}

func stripRevisionIdentity(obj map[string]any) map[string]any {
	props, ok := obj["properties"].(map[string]any)
	if !ok {
		return obj
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	cleaned := make(map[string]any, len(props))
	for k, v := range props {
		switch k {
		case "apiRevision", "isCurrent":
		default:
			cleaned[k] = v
		}
	}
	out["properties"] = cleaned
	return out
}
