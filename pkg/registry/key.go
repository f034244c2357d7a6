package registry

import "strings"

// Ancestor is one (kind, name) pair in a parent chain.
type Ancestor struct {
	Kind *Kind
	Name Name
}

// ParentChain is the ordered sequence of ancestors of a resource, from the
// outermost ancestor down to the immediate parent. The zero value is the
// empty chain (a root resource).
//
// Chains are immutable values: Append, Prepend and Prefix return new
// chains and never alias the receiver's backing array in a way callers
// can observe.
type ParentChain struct {
	ancestors []Ancestor
}

// EmptyChain is the chain of a root resource.
var EmptyChain = ParentChain{}

// NewChain builds a chain from ancestors, outermost first.
func NewChain(ancestors ...Ancestor) ParentChain {
	return ParentChain{ancestors: append([]Ancestor(nil), ancestors...)}
}

// Append returns a new chain with (kind, name) added as the innermost
// ancestor.
func (p ParentChain) Append(kind *Kind, name Name) ParentChain {
	out := make([]Ancestor, len(p.ancestors)+1)
	copy(out, p.ancestors)
	out[len(p.ancestors)] = Ancestor{Kind: kind, Name: name}
	return ParentChain{ancestors: out}
}

// Prepend returns a new chain with (kind, name) added as the outermost
// ancestor.
func (p ParentChain) Prepend(kind *Kind, name Name) ParentChain {
	out := make([]Ancestor, len(p.ancestors)+1)
	out[0] = Ancestor{Kind: kind, Name: name}
	copy(out[1:], p.ancestors)
	return ParentChain{ancestors: out}
}

// Prefix returns the chain truncated to its first n ancestors.
// Prefix(0) is the empty chain; n beyond the length returns the full
// chain.
func (p ParentChain) Prefix(n int) ParentChain {
	if n >= len(p.ancestors) {
		return p
	}
	return ParentChain{ancestors: p.ancestors[:n:n]}
}

// Ancestors returns the chain's pairs, outermost first. The returned
// slice must not be modified.
func (p ParentChain) Ancestors() []Ancestor { return p.ancestors }

// Len returns the number of ancestors.
func (p ParentChain) Len() int { return len(p.ancestors) }

// Innermost returns the immediate parent and true, or a zero Ancestor and
// false for the empty chain.
func (p ParentChain) Innermost() (Ancestor, bool) {
	if len(p.ancestors) == 0 {
		return Ancestor{}, false
	}
	return p.ancestors[len(p.ancestors)-1], true
}

// Equal reports elementwise equality, with names compared
// case-insensitively.
func (p ParentChain) Equal(other ParentChain) bool {
	if len(p.ancestors) != len(other.ancestors) {
		return false
	}
	for i, a := range p.ancestors {
		b := other.ancestors[i]
		if a.Kind != b.Kind || !a.Name.Equal(b.Name) {
			return false
		}
	}
	return true
}

// Key addresses one resource instance: its kind, its name, and the chain
// of ancestors above it. Keys are immutable values.
type Key struct {
	Kind    *Kind
	Name    Name
	Parents ParentChain
}

// String renders the canonical form
// /{parent.collectionPath}/{parent.name}/.../{kind.collectionPath}/{name}
// with original casing.
func (k Key) String() string {
	var b strings.Builder
	for _, a := range k.Parents.ancestors {
		b.WriteByte('/')
		b.WriteString(a.Kind.CollectionURI)
		b.WriteByte('/')
		b.WriteString(a.Name.String())
	}
	b.WriteByte('/')
	b.WriteString(k.Kind.CollectionURI)
	b.WriteByte('/')
	b.WriteString(k.Name.String())
	return b.String()
}

// Fold returns the case-folded canonical form, usable as a map key.
// Two keys that address the same resource fold identically.
func (k Key) Fold() string { return strings.ToLower(k.String()) }

// Equal reports whether both keys address the same resource.
func (k Key) Equal(other Key) bool {
	return k.Kind == other.Kind && k.Name.Equal(other.Name) && k.Parents.Equal(other.Parents)
}

// Chain returns the key's parents extended with the key itself, for use as
// the parent chain of the key's children.
func (k Key) Chain() ParentChain {
	return k.Parents.Append(k.Kind, k.Name)
}
