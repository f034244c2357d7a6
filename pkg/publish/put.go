package publish

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/registry"
)

// putResource assembles the DTO from the snapshot, merges the
// configuration override, and dispatches the kind-specific put.
func (p *Publisher) putResource(ctx context.Context, key registry.Key) error {
	if key.Kind.IsReserved(key.Name) {
		p.Logger.Warn("skipping reserved resource", "resource", key.String())
		return nil
	}

	m, ok, err := p.readDTO(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		// Kinds without file artefacts (API operations) carry nothing to
		// put; their content arrives with the API's specification.
		return nil
	}

	override, hasOverride, err := p.Matcher.Override(ctx, key)
	if err != nil {
		return err
	}
	if hasOverride {
		m = dto.Merge(m, override)
	}

	if skip, reason := p.skipSecretWithoutValue(key, m); skip {
		p.Logger.Warn("skipping named value", "resource", key.String(), "reason", reason)
		return nil
	}

	if p.DryRun {
		p.Logger.Info("would put", "resource", key.String())
		return nil
	}

	switch {
	case key.Kind.API:
		err = p.putAPI(ctx, key, m)
	case isReleaseKind(key.Kind):
		err = p.putRelease(ctx, key, m)
	case isProductKind(key.Kind):
		err = p.putProduct(ctx, key, m)
	default:
		err = p.putPlain(ctx, key, m)
	}
	if err != nil {
		return err
	}
	p.Logger.Info("put", "resource", key.String())
	return nil
}

// readDTO reads the resource's artefacts from the current snapshot. For
// policy kinds the XML file is the body and the information file, when
// present, contributes metadata (winning on overlap).
func (p *Publisher) readDTO(ctx context.Context, key registry.Key) (map[string]any, bool, error) {
	if key.Kind.IsPolicy() {
		path, _ := layout.PolicyFile(p.ServiceDir, key)
		xml, err := p.current.ReadFile(ctx, path)
		if err != nil {
			return nil, false, err
		}
		var info map[string]any
		if infoPath, ok := layout.InformationFile(p.ServiceDir, key); ok {
			if data, err := p.current.ReadFile(ctx, infoPath); err == nil {
				if info, err = dto.AsObject(data); err != nil {
					return nil, false, err
				}
			}
		}
		return dto.InjectPolicyBody(string(xml), info), true, nil
	}

	path, ok := layout.InformationFile(p.ServiceDir, key)
	if !ok {
		return nil, false, nil
	}
	data, err := p.current.ReadFile(ctx, path)
	if err != nil {
		if key.Kind.API {
			// An API represented only by its specification file still
			// publishes: the PUT carries the imported document.
			return map[string]any{}, true, nil
		}
		return nil, false, err
	}
	m, err := dto.AsObject(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// skipSecretWithoutValue implements the named-value guard: a secret
// without a value or key vault reference cannot be put.
func (p *Publisher) skipSecretWithoutValue(key registry.Key, m map[string]any) (bool, string) {
	if key.Kind != registry.NamedValue && key.Kind != registry.WorkspaceNamedValue {
		return false, ""
	}
	props, ok := dto.Properties(m, false)
	if !ok {
		return false, ""
	}
	secret, _ := props["secret"].(bool)
	if !secret {
		return false, ""
	}
	if v, ok := props["value"].(string); ok && v != "" {
		return false, ""
	}
	if kv, ok := props["keyVault"].(map[string]any); ok {
		if id, ok := kv["secretIdentifier"].(string); ok && id != "" {
			return false, ""
		}
	}
	return true, "secret named value carries neither a value nor a key vault reference"
}

// putPlain PUTs the normalised DTO to the element URI. For link kinds the
// element name is the link's own name from the DTO, not the directory
// name.
func (p *Publisher) putPlain(ctx context.Context, key registry.Key, m map[string]any) error {
	body, err := p.normalized(key, m, false)
	if err != nil {
		return err
	}
	_, err = p.Client.Put(ctx, p.elementURL(key, m), nil, body)
	return err
}

// elementURL returns the PUT/DELETE URI of key. Link elements publish
// under their own name carried in the DTO; the key name (the secondary's
// name) is the fallback.
func (p *Publisher) elementURL(key registry.Key, m map[string]any) string {
	if key.Kind.IsLink() && m != nil {
		if name, ok := m["name"].(string); ok && name != "" {
			return p.Client.CollectionURL(key.Kind, key.Parents) + "/" + name
		}
	}
	return p.Client.ElementURL(key)
}

// normalized runs the DTO through its schema. When rawFallback is set a
// schema mismatch falls back to the raw object instead of blocking the
// put - the API and release paths opt into this.
func (p *Publisher) normalized(key registry.Key, m map[string]any, rawFallback bool) ([]byte, error) {
	raw, err := dto.Marshal(m)
	if err != nil {
		return nil, err
	}
	if !key.Kind.HasDto() {
		return raw, nil
	}
	body, err := dto.Normalize(raw, key.Kind.NewDTO)
	if err != nil {
		if rawFallback {
			return raw, nil
		}
		return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeSchema), err, "normalizing %s", key.String())
	}
	return body, nil
}

// putRelease pins properties.apiId to the parent API before the PUT: the
// service rejects releases whose apiId is absent or absolute.
func (p *Publisher) putRelease(ctx context.Context, key registry.Key, m map[string]any) error {
	parent, ok := parentKey(key)
	if ok {
		props, _ := dto.Properties(m, true)
		props["apiId"] = parent.String()
	}
	body, err := p.normalized(key, m, true)
	if err != nil {
		return err
	}
	_, err = p.Client.Put(ctx, p.Client.ElementURL(key), nil, body)
	return err
}

// putProduct PUTs the product and, only when the product did not exist
// before, removes the companions the service creates automatically: the
// subscription scoped to the product and the built-in group links.
func (p *Publisher) putProduct(ctx context.Context, key registry.Key, m map[string]any) error {
	existed, err := p.Client.Exists(ctx, p.Client.ElementURL(key))
	if err != nil {
		return err
	}
	if err := p.putPlain(ctx, key, m); err != nil {
		return err
	}
	if existed {
		return nil
	}
	if err := p.deleteAutoCreatedSubscriptions(ctx, key); err != nil {
		return err
	}
	return p.deleteAutoCreatedGroupLinks(ctx, key)
}

// deleteAutoCreatedSubscriptions removes subscriptions whose scope ends
// with the freshly created product. The master subscription survives.
func (p *Publisher) deleteAutoCreatedSubscriptions(ctx context.Context, key registry.Key) error {
	subKind, chain := subscriptionScopeFor(key)
	uri := p.Client.CollectionURL(subKind, chain)
	suffix := "/" + strings.ToLower(key.Kind.CollectionURI) + "/" + key.Name.Fold()
	return p.Client.List(ctx, uri, nil, func(item json.RawMessage) error {
		m, err := dto.AsObject(item)
		if err != nil {
			return err
		}
		name, _ := m["name"].(string)
		if name == "" || subKind.IsReserved(registry.MustName(name)) {
			return nil
		}
		scope, _ := dto.StringProperty(m, "scope")
		if !strings.HasSuffix(strings.ToLower(scope), suffix) {
			return nil
		}
		return p.Client.Delete(ctx, uri+"/"+name, nil, apim.DeleteOptions{IgnoreNotFound: true, WaitForCompletion: true})
	})
}

// deleteAutoCreatedGroupLinks removes the group links the service adds to
// a new product.
func (p *Publisher) deleteAutoCreatedGroupLinks(ctx context.Context, key registry.Key) error {
	linkKind := registry.ProductGroup
	if key.Kind == registry.WorkspaceProduct {
		linkKind = registry.WorkspaceProductGroup
	}
	uri := p.Client.CollectionURL(linkKind, key.Chain())
	return p.Client.List(ctx, uri, nil, func(item json.RawMessage) error {
		m, err := dto.AsObject(item)
		if err != nil {
			return err
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil
		}
		return p.Client.Delete(ctx, uri+"/"+name, nil, apim.DeleteOptions{IgnoreNotFound: true, WaitForCompletion: true})
	})
}

// subscriptionScopeFor picks the subscription kind and collection scope
// matching a product kind.
func subscriptionScopeFor(key registry.Key) (*registry.Kind, registry.ParentChain) {
	if key.Kind == registry.WorkspaceProduct {
		return registry.WorkspaceSubscription, key.Parents
	}
	return registry.Subscription, registry.EmptyChain
}

// deleteResource removes key from the service, tolerating 404 and
// waiting for asynchronous completion. A "deleted" revision folder whose
// revision became current on the service is left alone: the root-named
// folder now represents it.
func (p *Publisher) deleteResource(ctx context.Context, key registry.Key) error {
	if key.Kind.IsReserved(key.Name) {
		p.Logger.Warn("skipping reserved resource", "resource", key.String())
		return nil
	}
	if key.Kind.API {
		if root, rev, ok := registry.ParseRevision(key.Name); ok {
			current, err := p.currentRevisionOf(ctx, registry.Key{Kind: key.Kind, Name: root, Parents: key.Parents})
			if err != nil {
				return err
			}
			if current == rev {
				p.Logger.Info("skipping delete: revision is current", "resource", key.String())
				return nil
			}
		}
	}
	if p.DryRun {
		p.Logger.Info("would delete", "resource", key.String())
		return nil
	}
	err := p.Client.Delete(ctx, p.Client.ElementURL(key), nil, apim.DeleteOptions{IgnoreNotFound: true, WaitForCompletion: true})
	if err != nil {
		return err
	}
	p.Logger.Info("deleted", "resource", key.String())
	return nil
}

func isReleaseKind(kind *registry.Kind) bool {
	return kind == registry.ApiRelease || kind == registry.WorkspaceApiRelease
}

func isProductKind(kind *registry.Kind) bool {
	return kind == registry.Product || kind == registry.WorkspaceProduct
}
