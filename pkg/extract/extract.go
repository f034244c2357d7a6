// Package extract implements the extractor: a parallel top-down walk over
// the traversal forest that snapshots a live service into the canonical
// directory tree.
//
// Ordering guarantee: a resource's artefacts are fully written before any
// of its successors are processed; siblings are unordered. Child
// processing runs inside the parent's task so cancellation propagates
// down the walk.
package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/config"
	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/registry"
)

// Extractor snapshots a service into a directory tree.
type Extractor struct {
	Client      *apim.Client
	ServiceDir  string
	Matcher     *config.Matcher
	DefaultSpec apispec.Specification
	Logger      *log.Logger
}

// Run walks every root kind in parallel and writes the tree.
func (e *Extractor) Run(ctx context.Context) error {
	if e.Logger == nil {
		e.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e.Logger.Info("extracting service", "dir", e.ServiceDir)

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range registry.RootKinds() {
		g.Go(func() error {
			return e.processKind(ctx, kind, registry.EmptyChain)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	e.Logger.Info("extraction finished", "dir", e.ServiceDir)
	return nil
}

// processKind extracts every instance of kind under parents, then
// recurses into the successors of each instance.
func (e *Extractor) processKind(ctx context.Context, kind *registry.Kind, parents registry.ParentChain) error {
	supported, err := e.Client.Supported(ctx, kind)
	if err != nil {
		return err
	}
	if !supported {
		e.Logger.Warn("skipping kind: not supported by service SKU", "kind", kind.Singular)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	listErr := e.list(ctx, kind, parents, func(name registry.Name, body json.RawMessage) {
		g.Go(func() error {
			return e.processResource(ctx, registry.Key{Kind: kind, Name: name, Parents: parents}, body)
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return listErr
}

// list enumerates the kind's collection and emits each instance's name
// together with its normalised DTO (nil for kinds without one). Policy
// kinds need a per-item GET because the list endpoint omits the raw XML.
func (e *Extractor) list(ctx context.Context, kind *registry.Kind, parents registry.ParentChain, emit func(registry.Name, json.RawMessage)) error {
	uri := e.Client.CollectionURL(kind, parents)
	return e.Client.List(ctx, uri, nil, func(item json.RawMessage) error {
		name, err := itemName(item)
		if err != nil {
			return err
		}
		if !kind.HasDto() {
			emit(name, nil)
			return nil
		}
		body := item
		if kind.IsPolicy() {
			raw, ok, err := e.Client.GetOptional(ctx, uri+"/"+name.String(), url.Values{"format": {"rawxml"}})
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			body = raw
		}
		normalized, err := dto.Normalize(body, kind.NewDTO)
		if err != nil {
			return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeSchema), err, "normalizing %s %s", kind.Singular, name)
		}
		if kind.IsLink() {
			// A link's identity is the secondary resource it points at.
			linked, ok := linkSecondaryName(normalized, kind.LinkProperty)
			if !ok {
				return errors.New(errors.ErrCodeMissingProperty, "link %s %s has no properties.%s", kind.Singular, name, kind.LinkProperty)
			}
			name = linked
		}
		emit(name, normalized)
		return nil
	})
}

// processResource writes one resource's artefacts, then walks its
// successors.
func (e *Extractor) processResource(ctx context.Context, key registry.Key, body json.RawMessage) error {
	extract, err := e.shouldExtract(ctx, key)
	if err != nil {
		return err
	}
	if !extract {
		return nil
	}
	if err := e.writeArtifacts(ctx, key, body); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, successor := range registry.SuccessorsOf(key.Kind) {
		// Releases live only under the current revision of an API.
		if key.Kind.API && isReleaseKind(successor) && !registry.IsRootName(key.Name) {
			continue
		}
		g.Go(func() error {
			return e.processKind(ctx, successor, key.Chain())
		})
	}
	return g.Wait()
}

func (e *Extractor) shouldExtract(ctx context.Context, key registry.Key) (bool, error) {
	if key.Kind.IsReserved(key.Name) {
		return false, nil
	}
	decision, err := e.Matcher.Includes(ctx, key)
	if err != nil {
		return false, err
	}
	if decision == config.Excluded {
		e.Logger.Warn("skipping resource: excluded by configuration", "resource", key.String())
		return false, nil
	}
	return true, nil
}

func (e *Extractor) writeArtifacts(ctx context.Context, key registry.Key, body json.RawMessage) error {
	if key.Kind.HasInformationFile() && body != nil {
		if err := e.writeInformationFile(key, body); err != nil {
			return err
		}
	}
	if key.Kind.IsPolicy() && body != nil {
		if err := e.writePolicyFile(key, body); err != nil {
			return err
		}
	}
	if key.Kind.API {
		if err := e.writeSpecification(ctx, key, body); err != nil {
			return err
		}
	}
	e.Logger.Info("extracted", "resource", key.String())
	return nil
}

func (e *Extractor) writeInformationFile(key registry.Key, body json.RawMessage) error {
	m, err := dto.AsObject(body)
	if err != nil {
		return err
	}
	if key.Kind.OnWrite != nil {
		key.Kind.OnWrite(m, key.Name.String())
	}
	data, err := dto.MarshalCanonical(m)
	if err != nil {
		return err
	}
	path, _ := layout.InformationFile(e.ServiceDir, key)
	return writeFile(path, data)
}

func (e *Extractor) writePolicyFile(key registry.Key, body json.RawMessage) error {
	xml, err := dto.PolicyBody(body)
	if err != nil {
		return err
	}
	path, _ := layout.PolicyFile(e.ServiceDir, key)
	return writeFile(path, []byte(xml))
}

func itemName(item json.RawMessage) (registry.Name, error) {
	var envelope struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(item, &envelope); err != nil {
		return registry.Name{}, errors.Wrap(errors.ErrCodeSchema, err, "decoding collection item")
	}
	return registry.NewName(envelope.Name)
}

func linkSecondaryName(body json.RawMessage, property string) (registry.Name, bool) {
	m, err := dto.AsObject(body)
	if err != nil {
		return registry.Name{}, false
	}
	id, ok := dto.StringProperty(m, property)
	if !ok || id == "" {
		return registry.Name{}, false
	}
	name, err := registry.NewName(dto.LastSegment(id))
	if err != nil {
		return registry.Name{}, false
	}
	return name, true
}

func isReleaseKind(kind *registry.Kind) bool {
	return kind == registry.ApiRelease || kind == registry.WorkspaceApiRelease
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
