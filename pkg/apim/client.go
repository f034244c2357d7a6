// Package apim is the management-plane client. It wraps HTTP access to
// the service with the classification the traversals rely on: optional
// GETs absorb 404s, collection probes recognise SKU-unsupported error
// fingerprints, transient failures retry with backoff, and deletes can
// wait for asynchronous completion.
package apim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/apimsync/apimsync/pkg/errors"
	"github.com/apimsync/apimsync/pkg/httputil"
	"github.com/apimsync/apimsync/pkg/layout"
	"github.com/apimsync/apimsync/pkg/memo"
	"github.com/apimsync/apimsync/pkg/registry"
)

// DefaultAPIVersion is the management API version used when none is
// configured.
const DefaultAPIVersion = "2022-08-01"

// Client talks to one API Management service instance.
type Client struct {
	http       *http.Client
	serviceURL string
	apiVersion string
	headers    map[string]string
	logger     *log.Logger

	sku memo.Map[*registry.Kind, bool]
}

// Options configures a Client.
type Options struct {
	// ServiceURL is the full management URL of the service, e.g.
	// https://management.azure.com/subscriptions/s/resourceGroups/g/
	// providers/Microsoft.ApiManagement/service/name.
	ServiceURL string
	// Token is the bearer token for the management plane.
	Token string
	// APIVersion overrides DefaultAPIVersion.
	APIVersion string
	// Logger defaults to a discard logger.
	Logger *log.Logger
	// HTTPClient overrides the default transport, used by tests.
	HTTPClient *http.Client
}

// NewClient creates a Client for the given service.
func NewClient(opts Options) (*Client, error) {
	if opts.ServiceURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidName, "service URL must not be empty")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	headers := map[string]string{}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}
	return &Client{
		http:       httpClient,
		serviceURL: strings.TrimRight(opts.ServiceURL, "/"),
		apiVersion: apiVersion,
		headers:    headers,
		logger:     logger,
	}, nil
}

// ServiceURL returns the service's management URL without a trailing
// slash.
func (c *Client) ServiceURL() string { return c.serviceURL }

// CollectionURL returns the collection URI for kind under parents.
func (c *Client) CollectionURL(kind *registry.Kind, parents registry.ParentChain) string {
	return layout.CollectionURL(c.serviceURL, kind, parents)
}

// ElementURL returns the element URI for key.
func (c *Client) ElementURL(key registry.Key) string {
	return layout.ElementURL(c.serviceURL, key)
}

// Get fetches uri and returns the raw body. 404 surfaces as
// ErrCodeNotFound.
func (c *Client) Get(ctx context.Context, uri string, query url.Values) ([]byte, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, _, err = c.do(ctx, http.MethodGet, uri, query, nil)
		return err
	})
	return body, err
}

// GetOptional fetches uri with 404-tolerant semantics: a missing resource
// yields ok=false and no error.
func (c *Client) GetOptional(ctx context.Context, uri string, query url.Values) ([]byte, bool, error) {
	body, err := c.Get(ctx, uri, query)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return body, true, nil
}

// Exists probes uri and maps 404 to false.
func (c *Client) Exists(ctx context.Context, uri string) (bool, error) {
	_, ok, err := c.GetOptional(ctx, uri, nil)
	return ok, err
}

// collectionPage is one page of a collection listing.
type collectionPage struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"nextLink"`
}

// List walks the paginated collection at uri and calls fn for each item.
func (c *Client) List(ctx context.Context, uri string, query url.Values, fn func(item json.RawMessage) error) error {
	next := c.withQuery(uri, query)
	for next != "" {
		var page collectionPage
		body, err := c.getRaw(ctx, next)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return errors.Wrap(errors.ErrCodeSchema, err, "decoding collection page")
		}
		for _, item := range page.Value {
			if err := fn(item); err != nil {
				return err
			}
		}
		next = page.NextLink
	}
	return nil
}

// Put writes body to uri and returns the response body.
func (c *Client) Put(ctx context.Context, uri string, query url.Values, body []byte) ([]byte, error) {
	var respBody []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		respBody, _, err = c.do(ctx, http.MethodPut, uri, query, body)
		return err
	})
	return respBody, err
}

// DeleteOptions controls delete behaviour.
type DeleteOptions struct {
	// IgnoreNotFound absorbs a 404 response.
	IgnoreNotFound bool
	// WaitForCompletion polls the Location header of an asynchronous
	// delete until the operation finishes.
	WaitForCompletion bool
}

// Delete removes the resource at uri.
func (c *Client) Delete(ctx context.Context, uri string, query url.Values, opts DeleteOptions) error {
	var location string
	err := httputil.RetryWithBackoff(ctx, func() error {
		_, resp, err := c.do(ctx, http.MethodDelete, uri, query, nil)
		if resp != nil {
			location = resp.Header.Get("Location")
		}
		return err
	})
	if err != nil {
		if opts.IgnoreNotFound && errors.Is(err, errors.ErrCodeNotFound) {
			return nil
		}
		return err
	}
	if opts.WaitForCompletion && location != "" {
		return c.waitForOperation(ctx, location)
	}
	return nil
}

// waitForOperation polls an Azure-AsyncOperation/Location URL until it
// stops answering 202.
func (c *Client) waitForOperation(ctx context.Context, location string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
		_, resp, err := c.do(ctx, http.MethodGet, location, nil, nil)
		if err != nil {
			if errors.Is(err, errors.ErrCodeNotFound) {
				return nil
			}
			return err
		}
		if resp.StatusCode != http.StatusAccepted {
			return nil
		}
	}
}

func (c *Client) getRaw(ctx context.Context, fullURL string) ([]byte, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, _, err = c.do(ctx, http.MethodGet, fullURL, nil, nil)
		return err
	})
	return body, err
}

func (c *Client) withQuery(uri string, query url.Values) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("api-version", c.apiVersion)
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + q.Encode()
}

// do performs one request. uri may or may not already carry a query; the
// api-version parameter is appended unless present.
func (c *Client) do(ctx context.Context, method, uri string, query url.Values, body []byte) ([]byte, *http.Response, error) {
	fullURL := uri
	if !strings.Contains(uri, "api-version=") {
		fullURL = c.withQuery(uri, query)
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, uri)}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "reading response of %s %s", method, uri)}
	}
	if err := classifyStatus(method, uri, resp.StatusCode, respBody); err != nil {
		return respBody, resp, err
	}
	return respBody, resp, nil
}

// StatusError is a non-2xx response. The SKU oracle inspects the code and
// body fingerprint together, so both travel with the error.
type StatusError struct {
	Method     string
	URI        string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := e.Body
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URI, e.StatusCode, msg)
}

// classifyStatus maps response codes onto the error taxonomy.
func classifyStatus(method, uri string, code int, body []byte) error {
	statusErr := &StatusError{Method: method, URI: uri, StatusCode: code, Body: strings.TrimSpace(string(body))}
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, statusErr, "%s %s", method, uri)
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, statusErr, "%s %s", method, uri)}
	default:
		return errors.Wrap(errors.ErrCodeNetwork, statusErr, "%s %s", method, uri)
	}
}
