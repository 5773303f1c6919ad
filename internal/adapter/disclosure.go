package adapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

// Disclosure fronts the congressional trading disclosure API. The API
// key travels in the X-Api-Key header; an empty key means the public,
// lower-rate tier.
type Disclosure struct {
	t      *transport
	apiKey string
}

// NewDisclosure creates the disclosure adapter.
func NewDisclosure(cfg Config) *Disclosure {
	return &Disclosure{t: newTransport(cfg), apiKey: cfg.APIKey}
}

func (d *Disclosure) header() http.Header {
	h := http.Header{}
	if d.apiKey != "" {
		h.Set("X-Api-Key", d.apiKey)
	}
	return h
}

// listGet performs a list fetch where upstream 404 means an empty page,
// not an error.
func listGet[T any](ctx context.Context, t *transport, path string, q query.Query, header http.Header) (model.Page[T], error) {
	body, err := t.get(ctx, path, q.Params(), header)
	if errors.Is(err, resilience.ErrNotFound) {
		zap.L().Debug("adapter: list 404, returning empty page", zap.String("query", q.Canonical()))
		return model.Page[T]{Meta: model.PageMeta{Page: 1, Size: query.DefaultSize}}, nil
	}
	if err != nil {
		return model.Page[T]{}, err
	}
	page, err := decode[model.Page[T]](body)
	if err != nil {
		return model.Page[T]{}, eris.Wrapf(err, "adapter: decode %s", q.Tag())
	}
	// Inconsistent paging metadata is upstream's bug, not a reason to
	// drop the rows the caller asked for.
	if err := page.Meta.Validate(); err != nil {
		zap.L().Warn("adapter: inconsistent paging metadata", zap.String("query", q.Canonical()), zap.Error(err))
	}
	return page, nil
}

// Politicians fetches one page of politicians.
func (d *Disclosure) Politicians(ctx context.Context, q query.Politicians) (model.Page[model.Politician], error) {
	return listGet[model.Politician](ctx, d.t, "/politicians", q, d.header())
}

// Politician fetches a single politician by ID. 404 is NotFound.
func (d *Disclosure) Politician(ctx context.Context, id model.PoliticianID) (model.Politician, error) {
	body, err := d.t.get(ctx, "/politicians/"+string(id), nil, d.header())
	if err != nil {
		return model.Politician{}, err
	}
	p, err := decode[model.Politician](body)
	if err != nil {
		return model.Politician{}, eris.Wrap(err, "adapter: decode politician")
	}
	return p, nil
}

// Issuers fetches one page of issuers.
func (d *Disclosure) Issuers(ctx context.Context, q query.Issuers) (model.Page[model.Issuer], error) {
	return listGet[model.Issuer](ctx, d.t, "/issuers", q, d.header())
}

// Issuer fetches a single issuer by ID. 404 is NotFound.
func (d *Disclosure) Issuer(ctx context.Context, id model.IssuerID) (model.Issuer, error) {
	body, err := d.t.get(ctx, "/issuers/"+string(id), nil, d.header())
	if err != nil {
		return model.Issuer{}, err
	}
	iss, err := decode[model.Issuer](body)
	if err != nil {
		return model.Issuer{}, eris.Wrap(err, "adapter: decode issuer")
	}
	return iss, nil
}

// Trades fetches one page of trades. Upstream paging metadata passes
// through unchanged.
func (d *Disclosure) Trades(ctx context.Context, q query.Trades) (model.Page[model.Trade], error) {
	return listGet[model.Trade](ctx, d.t, "/trades", q, d.header())
}
