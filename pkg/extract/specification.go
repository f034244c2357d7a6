package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/apimsync/apimsync/pkg/apispec"
	"github.com/apimsync/apimsync/pkg/dto"
	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/registry"
)

// downloadClient fetches the export link. The link is a pre-signed blob
// URL, so no management credentials are attached.
var downloadClient = &http.Client{Timeout: 5 * time.Minute}

// writeSpecification exports the API's specification and writes it next
// to the information file. The format follows the API's type: soap APIs
// export WSDL, graphql APIs their schema, everything else the configured
// default.
func (e *Extractor) writeSpecification(ctx context.Context, key registry.Key, body json.RawMessage) error {
	apiType := ""
	if body != nil {
		if m, err := dto.AsObject(body); err == nil {
			apiType, _ = dto.StringProperty(m, "type")
		}
	}
	spec := apispec.ForAPIType(apiType, e.DefaultSpec)

	var content []byte
	var err error
	if spec.IsGraphQL() {
		content, err = e.fetchGraphQLSchema(ctx, key)
	} else {
		content, err = e.fetchExport(ctx, key, spec)
	}
	if err != nil || content == nil {
		return err
	}
	path, _ := layout.SpecificationFile(e.ServiceDir, key, spec)
	return writeFile(path, content)
}

// fetchExport drives the two-step export: the management GET answers with
// a download link, which is then fetched unauthenticated.
func (e *Extractor) fetchExport(ctx context.Context, key registry.Key, spec apispec.Specification) ([]byte, error) {
	format, ok := spec.ExportQuery()
	if !ok {
		return nil, nil
	}
	uri := e.Client.ElementURL(key)
	query := url.Values{"format": {format}, "export": {"true"}}
	raw, found, err := e.Client.GetOptional(ctx, uri, query)
	if err != nil || !found {
		return nil, err
	}

	var export struct {
		Value struct {
			Link string `json:"link"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "decoding specification export for %s", key.String())
	}
	if export.Value.Link == "" {
		return nil, errors.New(errors.ErrCodeSchema, "specification export for %s carries no link", key.String())
	}

	content, err := e.download(ctx, export.Value.Link)
	if err != nil {
		return nil, err
	}
	if spec.NeedsReserialise() {
		// The service exports OpenAPI v2 only as JSON; derive the YAML
		// form locally.
		content, err = yaml.JSONToYAML(content)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSchema, err, "reserialising specification for %s", key.String())
		}
	}
	return content, nil
}

// fetchGraphQLSchema reads the "graphql" schema child of the API.
func (e *Extractor) fetchGraphQLSchema(ctx context.Context, key registry.Key) ([]byte, error) {
	uri := e.Client.ElementURL(key) + "/schemas/graphql"
	raw, found, err := e.Client.GetOptional(ctx, uri, nil)
	if err != nil || !found {
		return nil, err
	}
	var schema dto.APISchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "decoding graphql schema for %s", key.String())
	}
	if schema.Properties == nil || schema.Properties.Document == nil {
		return nil, nil
	}
	return []byte(schema.Properties.Document.Value), nil
}

func (e *Extractor) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "downloading specification")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeNetwork, "downloading specification: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
