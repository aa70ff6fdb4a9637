// Package catalog loads the product list from the upstream catalog endpoint
// and exposes its loading state to the view.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
)

// Fetcher performs the single GET against the catalog endpoint.
type Fetcher struct {
	client   *http.Client
	endpoint string
}

// NewFetcher returns a Fetcher for endpoint. A nil client means a client
// without a timeout.
func NewFetcher(client *http.Client, endpoint string) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client, endpoint: endpoint}
}

// FetchProducts makes one attempt. Transport errors, non-2xx statuses and
// undecodable bodies all come back as errors.
func (f *Fetcher) FetchProducts(ctx context.Context) (products []model.Product, err error) {
	ctx, span := obs.Tracer("storefront/catalog").Start(ctx, "catalog.fetch")
	span.SetAttributes(attribute.String("catalog.endpoint", f.endpoint))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "catalog fetch failed")
		} else {
			span.SetAttributes(attribute.Int("catalog.products", len(products)))
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", f.endpoint)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("GET %s: unexpected status %d", f.endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return products, nil
}
