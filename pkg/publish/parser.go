// Package publish implements the publisher: it parses a tree snapshot
// into a resource set, builds the predecessor/successor relationship maps,
// and drives dependency-ordered parallel puts and deletes against the
// live service.
package publish

import (
	"context"
	"strings"

	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/fsops"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/memo"
	"github.com/apimsync/apimsync/pkg/registry"
)

// Parser maps files inside a service directory onto resource keys. Kinds
// are tried most-specific first (reverse topological order), and each
// kind's structural constraints - collection directory, file name, and a
// parent chain anchored at the service directory - must all hold.
type Parser struct {
	ServiceDir string
	Ops        fsops.Operations

	// files memoises information-file reads: link parsing and reference
	// derivation revisit the same files.
	files memo.Map[string, fileRead]
}

type fileRead struct {
	data []byte
	err  error
}

// readFile reads a file through the parser's memoised cache.
func (p *Parser) readFile(ctx context.Context, path string) ([]byte, error) {
	r, err := p.files.Do(ctx, path, func(ctx context.Context) (fileRead, error) {
		data, readErr := p.Ops.ReadFile(ctx, path)
		return fileRead{data: data, err: readErr}, nil
	})
	if err != nil {
		return nil, err
	}
	return r.data, r.err
}

// Parse maps the slash-separated path rel (relative to the service
// directory) onto a resource key. ok is false for files that belong to no
// kind, such as documentation living next to the tree.
func (p *Parser) Parse(ctx context.Context, rel string) (registry.Key, bool, error) {
	segments := layout.SplitPath(rel)
	if len(segments) == 0 {
		return registry.Key{}, false, nil
	}
	file := segments[len(segments)-1]

	if key, ok := p.parseSpecification(segments, file); ok {
		return key, true, nil
	}
	for _, kind := range registry.ParseOrder() {
		key, ok, err := p.parseAs(ctx, kind, segments, file)
		if err != nil {
			return registry.Key{}, false, err
		}
		if ok {
			return key, true, nil
		}
	}
	return registry.Key{}, false, nil
}

func (p *Parser) parseAs(ctx context.Context, kind *registry.Kind, segments []string, file string) (registry.Key, bool, error) {
	if kind.HasInformationFile() && file == kind.FileName {
		if key, ok := p.instanceKey(kind, segments[:len(segments)-1]); ok {
			if kind.IsLink() {
				if err := p.checkLinkDirectory(ctx, key); err != nil {
					return registry.Key{}, false, err
				}
			}
			return key, true, nil
		}
	}
	if kind.IsPolicy() {
		return p.parsePolicy(kind, segments, file)
	}
	return registry.Key{}, false, nil
}

// parseSpecification recognises API specification files. The resulting
// key is the API itself: a specification change republishes the API.
func (p *Parser) parseSpecification(segments []string, file string) (registry.Key, bool) {
	if _, ok := apispecFileNames[file]; !ok {
		return registry.Key{}, false
	}
	for _, kind := range []*registry.Kind{registry.WorkspaceApi, registry.Api} {
		if key, ok := p.instanceKey(kind, segments[:len(segments)-1]); ok {
			return key, true
		}
	}
	return registry.Key{}, false
}

var apispecFileNames = map[string]struct{}{
	"specification.graphql": {},
	"specification.wadl":    {},
	"specification.wsdl":    {},
	"specification.json":    {},
	"specification.yaml":    {},
}

func (p *Parser) parsePolicy(kind *registry.Kind, segments []string, file string) (registry.Key, bool, error) {
	if !strings.HasSuffix(file, ".xml") {
		return registry.Key{}, false, nil
	}
	switch kind.PolicyScope {
	case registry.PolicyScopeFragment:
		if file != "policy.xml" {
			return registry.Key{}, false, nil
		}
		key, ok := p.instanceKey(kind, segments[:len(segments)-1])
		return key, ok, nil

	case registry.PolicyScopeService:
		if len(segments) != 1 {
			return registry.Key{}, false, nil
		}
		name, err := registry.NewName(strings.TrimSuffix(file, ".xml"))
		if err != nil {
			return registry.Key{}, false, nil
		}
		return registry.Key{Kind: kind, Name: name, Parents: registry.EmptyChain}, true, nil

	case registry.PolicyScopeParent:
		chain, ok := p.chainFor(segments[:len(segments)-1])
		if !ok {
			return registry.Key{}, false, nil
		}
		innermost, hasParent := chain.Innermost()
		if !hasParent || innermost.Kind != kind.Parent {
			return registry.Key{}, false, nil
		}
		name, err := registry.NewName(strings.TrimSuffix(file, ".xml"))
		if err != nil {
			return registry.Key{}, false, nil
		}
		return registry.Key{Kind: kind, Name: name, Parents: chain}, true, nil
	}
	return registry.Key{}, false, nil
}

// instanceKey matches segments of the form
// <parent chain dirs...>/<kind.collectionDir>/<name> and returns the
// instance's key. The parent chain must anchor at the kind's traversal
// predecessor.
func (p *Parser) instanceKey(kind *registry.Kind, segments []string) (registry.Key, bool) {
	if !kind.HasDirectory() || len(segments) < 2 {
		return registry.Key{}, false
	}
	if segments[len(segments)-2] != kind.CollectionDir {
		return registry.Key{}, false
	}
	chain, ok := p.chainFor(segments[:len(segments)-2])
	if !ok {
		return registry.Key{}, false
	}
	innermost, hasParent := chain.Innermost()
	pred, hasPred := registry.PredecessorOf(kind)
	switch {
	case hasPred && (!hasParent || innermost.Kind != pred):
		return registry.Key{}, false
	case !hasPred && hasParent:
		return registry.Key{}, false
	}
	name, err := registry.NewName(segments[len(segments)-1])
	if err != nil {
		return registry.Key{}, false
	}
	return registry.Key{Kind: kind, Name: name, Parents: chain}, true
}

// chainFor resolves directory segments into a parent chain anchored at
// the service directory. Segments come in (collectionDir, name) pairs;
// each pair must name a kind whose traversal predecessor is the chain so
// far.
func (p *Parser) chainFor(segments []string) (registry.ParentChain, bool) {
	if len(segments)%2 != 0 {
		return registry.ParentChain{}, false
	}
	chain := registry.EmptyChain
	var innermost *registry.Kind
	for i := 0; i+1 < len(segments); i += 2 {
		kind, ok := childByDirectory(innermost, segments[i])
		if !ok {
			return registry.ParentChain{}, false
		}
		name, err := registry.NewName(segments[i+1])
		if err != nil {
			return registry.ParentChain{}, false
		}
		chain = chain.Append(kind, name)
		innermost = kind
	}
	return chain, true
}

// childByDirectory finds the kind occupying directory dir directly under
// an instance of pred (nil for the service root).
func childByDirectory(pred *registry.Kind, dir string) (*registry.Kind, bool) {
	for _, kind := range registry.AllKinds() {
		if !kind.HasDirectory() || kind.CollectionDir != dir {
			continue
		}
		kindPred, hasPred := registry.PredecessorOf(kind)
		if (pred == nil) != !hasPred {
			continue
		}
		if pred == nil || kindPred == pred {
			return kind, true
		}
	}
	return nil, false
}

// checkLinkDirectory verifies that a link's directory name matches the
// secondary resource its DTO points at. A missing or unreadable file is
// accepted - the parser also runs against trees where the file was just
// deleted.
func (p *Parser) checkLinkDirectory(ctx context.Context, key registry.Key) error {
	path, _ := layout.InformationFile(p.ServiceDir, key)
	data, err := p.readFile(ctx, path)
	if err != nil {
		return nil
	}
	m, err := dto.AsObject(data)
	if err != nil {
		return nil
	}
	id, ok := dto.StringProperty(m, key.Kind.LinkProperty)
	if !ok || id == "" {
		return nil
	}
	if !strings.EqualFold(dto.LastSegment(id), key.Name.String()) {
		return consistencyErr("link %s points at %q but lives in directory %q", key.String(), dto.LastSegment(id), key.Name)
	}
	return nil
}
