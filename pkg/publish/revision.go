package publish

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/apimsync/apimsync/pkg/apim"
	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/registry"
)

// putAPI publishes an API. When the tree's root-named API carries a
// revision number that differs from the one current on the service, the
// new revision is never put directly: it is created from the current one
// and flipped current through a one-shot release (the make-current
// dance). The main DTO and the specification follow.
func (p *Publisher) putAPI(ctx context.Context, key registry.Key, m map[string]any) error {
	existing, exists, err := p.existingAPI(ctx, key)
	if err != nil {
		return err
	}

	if registry.IsRootName(key.Name) && exists {
		if err := p.makeCurrentIfNeeded(ctx, key, existing, m); err != nil {
			return err
		}
		if key.Kind == registry.WorkspaceApi {
			// Workspace APIs keep their service-side type across
			// revisions; the service rejects a type change in place.
			preserveExistingType(m, existing)
		}
	}

	body, err := p.normalized(key, m, true)
	if err != nil {
		return err
	}
	if _, err := p.Client.Put(ctx, p.Client.ElementURL(key), nil, body); err != nil {
		return err
	}

	return p.putSpecificationIfPresent(ctx, key, m)
}

func (p *Publisher) existingAPI(ctx context.Context, key registry.Key) (map[string]any, bool, error) {
	raw, ok, err := p.Client.GetOptional(ctx, p.Client.ElementURL(key), nil)
	if err != nil || !ok {
		return nil, false, err
	}
	m, err := dto.AsObject(raw)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// makeCurrentIfNeeded runs the dance when the DTO names a revision other
// than the service's current one:
//
//  1. PUT {root};rev={new} with a minimal DTO sourcing the current API.
//  2. PUT a one-shot release pointing at the new revision - this flips
//     "current" on the service.
//  3. DELETE the release; the revision stays current.
func (p *Publisher) makeCurrentIfNeeded(ctx context.Context, key registry.Key, existing, m map[string]any) error {
	newRev, ok := revisionNumber(m)
	if !ok {
		return nil
	}
	currentRev, ok := revisionNumber(existing)
	if !ok || currentRev == newRev {
		return nil
	}

	revName, err := registry.CombineRevision(key.Name, newRev)
	if err != nil {
		return err
	}
	revKey := registry.Key{Kind: key.Kind, Name: revName, Parents: key.Parents}
	seed := map[string]any{
		"properties": map[string]any{
			"apiRevision": strconv.Itoa(newRev),
			"sourceApiId": key.String(),
		},
	}
	body, err := dto.Marshal(seed)
	if err != nil {
		return err
	}
	if _, err := p.Client.Put(ctx, p.Client.ElementURL(revKey), nil, body); err != nil {
		return err
	}

	releaseName := "apiops-set-current-" + uuid.NewString()[:8]
	releaseURI := p.Client.ElementURL(key) + "/releases/" + releaseName
	release := map[string]any{
		"properties": map[string]any{
			"apiId": revKey.String(),
		},
	}
	releaseBody, err := dto.Marshal(release)
	if err != nil {
		return err
	}
	if _, err := p.Client.Put(ctx, releaseURI, nil, releaseBody); err != nil {
		return err
	}
	return p.Client.Delete(ctx, releaseURI, nil, apim.DeleteOptions{IgnoreNotFound: true, WaitForCompletion: true})
}

// currentRevisionOf resolves the revision number current on the service
// for a root API, memoised per root for the run.
func (p *Publisher) currentRevisionOf(ctx context.Context, rootKey registry.Key) (int, error) {
	s, err := p.currentRevision.Do(ctx, rootKey.Fold(), func(ctx context.Context) (string, error) {
		existing, ok, err := p.existingAPI(ctx, rootKey)
		if err != nil || !ok {
			return "", err
		}
		rev, _ := dto.StringProperty(existing, "apiRevision")
		return rev, nil
	})
	if err != nil || s == "" {
		return 0, err
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil {
		return 0, nil
	}
	return n, nil
}

func revisionNumber(m map[string]any) (int, bool) {
	s, ok := dto.StringProperty(m, "apiRevision")
	if !ok || s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func preserveExistingType(m, existing map[string]any) {
	existingProps, ok := dto.Properties(existing, false)
	if !ok {
		return
	}
	props, _ := dto.Properties(m, true)
	for _, field := range []string{"type", "apiType", "apiVersionSetId", "apiVersion"} {
		if v, ok := existingProps[field]; ok {
			props[field] = v
		}
	}
}

// findSpecificationFile locates the API's specification file in the
// current snapshot, trying each known variant.
func (p *Publisher) findSpecificationFile(ctx context.Context, key registry.Key) (apispec.Specification, []byte, bool) {
	for _, spec := range []apispec.Specification{
		apispec.GraphQL,
		apispec.Wsdl,
		apispec.Wadl,
		apispec.OpenAPI(apispec.VersionV3, apispec.FormatJSON),
		apispec.OpenAPI(apispec.VersionV3, apispec.FormatYAML),
	} {
		path, _ := layout.SpecificationFile(p.ServiceDir, key, spec)
		if data, err := p.current.ReadFile(ctx, path); err == nil {
			return spec, data, true
		}
	}
	return apispec.Specification{}, nil, false
}

// putSpecificationIfPresent imports the snapshot's specification file
// into the freshly put API.
func (p *Publisher) putSpecificationIfPresent(ctx context.Context, key registry.Key, m map[string]any) error {
	spec, content, ok := p.findSpecificationFile(ctx, key)
	if !ok {
		return nil
	}
	if spec.IsGraphQL() {
		return p.putGraphQLSchema(ctx, key, content)
	}

	format, needsImport := spec.ImportFormat()
	props := map[string]any{
		"format": format,
		"value":  string(content),
	}
	if path, ok := dto.StringProperty(m, "path"); ok {
		props["path"] = path
	}
	if spec.IsWsdl() {
		props["apiType"] = "soap"
	}
	body, err := dto.Marshal(map[string]any{"properties": props})
	if err != nil {
		return err
	}
	uri := p.Client.ElementURL(key)
	if needsImport {
		uri += "?import=true"
	}
	_, err = p.Client.Put(ctx, uri, nil, body)
	return err
}

func (p *Publisher) putGraphQLSchema(ctx context.Context, key registry.Key, content []byte) error {
	body, err := dto.Marshal(map[string]any{
		"properties": map[string]any{
			"contentType": "application/vnd.ms-azure-apim.graphql.schema",
			"document":    map[string]any{"value": string(content)},
		},
	})
	if err != nil {
		return err
	}
	_, err = p.Client.Put(ctx, p.Client.ElementURL(key)+"/schemas/graphql", nil, body)
	return err
}
