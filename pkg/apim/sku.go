package apim

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/apimsync/apimsync/pkg/registry"
)

// Lower service tiers reject whole resource collections. The service
// answers those probes with two known fingerprints; anything else is a
// real failure and propagates.
const (
	pricingTierFingerprint   = "methodnotallowedinpricingtier"
	internalErrorFingerprint = "request processing failed due to internal error"
)

// Supported reports whether the service's SKU offers the given kind.
//
// Root kinds are probed with a GET against their collection; non-root
// kinds are supported iff all of their dependencies are. Results are
// memoised for the client's lifetime and concurrent callers for the same
// kind share a single probe.
func (c *Client) Supported(ctx context.Context, kind *registry.Kind) (bool, error) {
	return c.sku.Do(ctx, kind, func(ctx context.Context) (bool, error) {
		if _, hasPred := registry.PredecessorOf(kind); !hasPred {
			return c.probeCollection(ctx, kind)
		}
		for _, dep := range registry.DependenciesOf(kind) {
			ok, err := c.Supported(ctx, dep)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}

// probeCollection issues a single GET without retries: the unsupported
// fingerprints are deterministic, and backing off on them would stall the
// walk for nothing.
func (c *Client) probeCollection(ctx context.Context, kind *registry.Kind) (bool, error) {
	uri := c.CollectionURL(kind, registry.EmptyChain)
	_, _, err := c.do(ctx, "GET", uri, nil, nil)
	if err == nil {
		return true, nil
	}
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		body := strings.ToLower(statusErr.Body)
		switch {
		case statusErr.StatusCode == http.StatusBadRequest && strings.Contains(body, pricingTierFingerprint):
			return false, nil
		case statusErr.StatusCode == http.StatusInternalServerError && strings.Contains(body, internalErrorFingerprint):
			return false, nil
		}
	}
	return false, err
}
