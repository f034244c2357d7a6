package publish

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/registry"
)

func consistencyErr(format string, args ...any) error {
	return errors.New(errors.ErrCodeConsistency, format, args...)
}

// Relationships holds the dependency edges over the resources found in a
// tree snapshot. Both directions are materialised; Validate asserts they
// mirror each other and that the successor graph is acyclic.
type Relationships struct {
	keys         map[string]registry.Key
	parsed       map[string]struct{}
	predecessors map[string]map[string]struct{}
	successors   map[string]map[string]struct{}
}

func newRelationships() *Relationships {
	return &Relationships{
		keys:         make(map[string]registry.Key),
		parsed:       make(map[string]struct{}),
		predecessors: make(map[string]map[string]struct{}),
		successors:   make(map[string]map[string]struct{}),
	}
}

// Keys returns every registered key, sorted by canonical form for
// deterministic iteration. The set includes keys only referenced by
// edges; see ParsedKeys for the keys backed by files.
func (r *Relationships) Keys() []registry.Key {
	folds := make([]string, 0, len(r.keys))
	for f := range r.keys {
		folds = append(folds, f)
	}
	sort.Strings(folds)
	keys := make([]registry.Key, len(folds))
	for i, f := range folds {
		keys[i] = r.keys[f]
	}
	return keys
}

// ParsedKeys returns the keys that were parsed from files in the
// snapshot, sorted. Keys that entered the maps only as edge endpoints
// (referenced resources absent from the tree, inferred parents) are
// excluded: they order processing but are never put or deleted
// themselves.
func (r *Relationships) ParsedKeys() []registry.Key {
	folds := make([]string, 0, len(r.parsed))
	for f := range r.parsed {
		folds = append(folds, f)
	}
	sort.Strings(folds)
	keys := make([]registry.Key, len(folds))
	for i, f := range folds {
		keys[i] = r.keys[f]
	}
	return keys
}

// Key resolves a folded canonical form back to its key.
func (r *Relationships) Key(fold string) (registry.Key, bool) {
	k, ok := r.keys[fold]
	return k, ok
}

// Contains reports whether the key is registered: parsed from a file in
// the snapshot or added as the endpoint of an edge.
func (r *Relationships) Contains(key registry.Key) bool {
	_, ok := r.keys[key.Fold()]
	return ok
}

// Predecessors returns the keys that must be processed before key on the
// put path.
func (r *Relationships) Predecessors(key registry.Key) []registry.Key {
	return r.resolve(r.predecessors[key.Fold()])
}

// Successors returns the keys that depend on key and must be processed
// before it on the delete path.
func (r *Relationships) Successors(key registry.Key) []registry.Key {
	return r.resolve(r.successors[key.Fold()])
}

func (r *Relationships) resolve(set map[string]struct{}) []registry.Key {
	if len(set) == 0 {
		return nil
	}
	folds := make([]string, 0, len(set))
	for f := range set {
		folds = append(folds, f)
	}
	sort.Strings(folds)
	keys := make([]registry.Key, 0, len(folds))
	for _, f := range folds {
		if k, ok := r.keys[f]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r *Relationships) register(key registry.Key) string {
	fold := key.Fold()
	if _, ok := r.keys[fold]; !ok {
		r.keys[fold] = key
		r.predecessors[fold] = make(map[string]struct{})
		r.successors[fold] = make(map[string]struct{})
	}
	return fold
}

func (r *Relationships) addEdge(predecessor, successor registry.Key) {
	p := r.register(predecessor)
	s := r.register(successor)
	if p == s {
		return
	}
	r.successors[p][s] = struct{}{}
	r.predecessors[s][p] = struct{}{}
}

// BuildRelationships scans every file the parser's operations can see,
// parses each into a key, and derives the dependency edges:
// parent-of-child, primary-and-secondary of composites, declared
// references, and the revision-to-root edge of APIs. Policies get no
// edges to the named values their XML mentions.
func BuildRelationships(ctx context.Context, parser *Parser) (*Relationships, error) {
	files, err := parser.Ops.ServiceFiles(ctx)
	if err != nil {
		return nil, err
	}
	rel := newRelationships()
	for _, file := range files {
		key, ok, err := parser.Parse(ctx, file)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := rel.addResource(ctx, parser, key); err != nil {
			return nil, err
		}
	}
	if err := rel.Validate(); err != nil {
		return nil, err
	}
	return rel, nil
}

// addResource registers key and every edge it induces.
func (r *Relationships) addResource(ctx context.Context, parser *Parser, key registry.Key) error {
	r.parsed[r.register(key)] = struct{}{}

	if key.Kind.IsChild() {
		if parent, ok := parentKey(key); ok {
			r.addEdge(parent, key)
		}
	}

	if key.Kind.IsComposite() {
		if primary, ok := parentKey(key); ok {
			r.addEdge(primary, key)
		}
		secondary, ok, err := r.secondaryKey(ctx, parser, key)
		if err != nil {
			return err
		}
		if ok {
			r.addEdge(secondary, key)
		}
	}

	if err := r.addReferenceEdges(ctx, parser, key); err != nil {
		return err
	}

	// A non-root revision depends on its root API.
	if key.Kind.API && !registry.IsRootName(key.Name) {
		root := registry.Key{Kind: key.Kind, Name: registry.RootName(key.Name), Parents: key.Parents}
		r.addEdge(root, key)
	}

	return nil
}

// parentKey derives the key of the innermost ancestor.
func parentKey(key registry.Key) (registry.Key, bool) {
	innermost, ok := key.Parents.Innermost()
	if !ok {
		return registry.Key{}, false
	}
	return registry.Key{
		Kind:    innermost.Kind,
		Name:    innermost.Name,
		Parents: key.Parents.Prefix(key.Parents.Len() - 1),
	}, true
}

// secondaryKey derives the composite's secondary: for links, the last
// segment of the DTO's declared property; otherwise the key's own name.
func (r *Relationships) secondaryKey(ctx context.Context, parser *Parser, key registry.Key) (registry.Key, bool, error) {
	name := key.Name
	if key.Kind.IsLink() {
		path, _ := layout.InformationFile(parser.ServiceDir, key)
		data, err := parser.readFile(ctx, path)
		if err == nil {
			if m, objErr := dto.AsObject(data); objErr == nil {
				if id, ok := dto.StringProperty(m, key.Kind.LinkProperty); ok && id != "" {
					parsed, nameErr := registry.NewName(dto.LastSegment(id))
					if nameErr != nil {
						return registry.Key{}, false, nameErr
					}
					name = parsed
				}
			}
		}
	}
	chain, ok := referenceChain(key.Kind.Secondary, key.Parents)
	if !ok {
		return registry.Key{}, false, nil
	}
	return registry.Key{Kind: key.Kind.Secondary, Name: name, Parents: chain}, true, nil
}

// addReferenceEdges reads the resource's DTO and adds an edge for every
// declared reference property present in it.
func (r *Relationships) addReferenceEdges(ctx context.Context, parser *Parser, key registry.Key) error {
	refs := slices.Concat(key.Kind.MandatoryRefs, key.Kind.OptionalRefs)
	if len(refs) == 0 {
		return nil
	}
	path, ok := layout.InformationFile(parser.ServiceDir, key)
	if !ok {
		return nil
	}
	data, err := parser.readFile(ctx, path)
	if err != nil {
		return nil
	}
	m, err := dto.AsObject(data)
	if err != nil {
		return nil
	}
	for _, ref := range refs {
		id, ok := dto.StringProperty(m, ref.Property)
		if !ok || id == "" {
			continue
		}
		// Properties shared by several reference targets (subscription
		// scope) resolve by the collection segment inside the id.
		if !strings.Contains(strings.ToLower(id), "/"+strings.ToLower(ref.Kind.CollectionURI)+"/") {
			continue
		}
		name, err := registry.NewName(dto.LastSegment(id))
		if err != nil {
			return errors.Wrap(errors.ErrCodeSchema, err, "reference %s of %s", ref.Property, key.String())
		}
		chain, ok := referenceChain(ref.Kind, key.Parents)
		if !ok {
			continue
		}
		r.addEdge(registry.Key{Kind: ref.Kind, Name: name, Parents: chain}, key)
	}
	return nil
}

// referenceChain finds the parent chain of a referenced kind: the prefix
// of the referrer's chain whose kinds equal the referenced kind's
// traversal-predecessor hierarchy. Root reference kinds resolve to the
// empty chain.
func referenceChain(refKind *registry.Kind, chain registry.ParentChain) (registry.ParentChain, bool) {
	var hierarchy []*registry.Kind
	for k := refKind; ; {
		pred, ok := registry.PredecessorOf(k)
		if !ok {
			break
		}
		hierarchy = append([]*registry.Kind{pred}, hierarchy...)
		k = pred
	}
	if len(hierarchy) == 0 {
		return registry.EmptyChain, true
	}
	ancestors := chain.Ancestors()
	if len(ancestors) < len(hierarchy) {
		return registry.ParentChain{}, false
	}
	for i, kind := range hierarchy {
		if ancestors[i].Kind != kind {
			return registry.ParentChain{}, false
		}
	}
	return chain.Prefix(len(hierarchy)), true
}

// Validate asserts the three structural invariants: every referenced key
// is registered on both sides, every edge is mutual, and the successor
// graph is acyclic. All findings are aggregated into one error.
func (r *Relationships) Validate() error {
	var findings []error

	for fold, succs := range r.successors {
		if _, ok := r.predecessors[fold]; !ok {
			findings = append(findings, consistencyErr("key %s missing from predecessor map", fold))
		}
		for s := range succs {
			if _, ok := r.predecessors[s]; !ok {
				findings = append(findings, consistencyErr("successor %s of %s is not registered", s, fold))
				continue
			}
			if _, ok := r.predecessors[s][fold]; !ok {
				findings = append(findings, consistencyErr("edge %s -> %s is not mutual", fold, s))
			}
		}
	}
	for fold, preds := range r.predecessors {
		if _, ok := r.successors[fold]; !ok {
			findings = append(findings, consistencyErr("key %s missing from successor map", fold))
		}
		for p := range preds {
			if _, ok := r.successors[p]; !ok {
				findings = append(findings, consistencyErr("predecessor %s of %s is not registered", p, fold))
				continue
			}
			if _, ok := r.successors[p][fold]; !ok {
				findings = append(findings, consistencyErr("edge %s <- %s is not mutual", fold, p))
			}
		}
	}

	if cycle := r.findCycle(); len(cycle) > 0 {
		findings = append(findings, errors.New(errors.ErrCodeCycle, "dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	return errors.Aggregate(errors.ErrCodeConsistency, findings)
}

// findCycle runs depth-first search with white/gray/black coloring over
// the successor graph. On re-entering a gray vertex it reports the cycle:
// the path segment from the first occurrence of that vertex, closed by
// the vertex itself.
func (r *Relationships) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(r.keys))
	var path []string
	var cycle []string

	var dfs func(fold string) bool
	dfs = func(fold string) bool {
		color[fold] = gray
		path = append(path, fold)
		succs := make([]string, 0, len(r.successors[fold]))
		for s := range r.successors[fold] {
			succs = append(succs, s)
		}
		sort.Strings(succs)
		for _, s := range succs {
			switch color[s] {
			case white:
				if dfs(s) {
					return true
				}
			case gray:
				start := slices.Index(path, s)
				cycle = append(slices.Clone(path[start:]), s)
				return true
			}
		}
		path = path[:len(path)-1]
		color[fold] = black
		return false
	}

	folds := make([]string, 0, len(r.keys))
	for f := range r.keys {
		folds = append(folds, f)
	}
	sort.Strings(folds)
	for _, f := range folds {
		if color[f] == white {
			if dfs(f) {
				return cycle
			}
		}
	}
	return nil
}
