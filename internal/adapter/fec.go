package adapter

import (
	"context"
	"net/url"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
)

// FEC fronts the campaign-finance API. Per api.data.gov convention the
// key is an api_key query parameter.
type FEC struct {
	t      *transport
	apiKey string
}

// NewFEC creates the campaign-finance adapter.
func NewFEC(cfg Config) *FEC {
	return &FEC{t: newTransport(cfg), apiKey: cfg.APIKey}
}

// keyed wraps a query so api_key joins its canonical parameters on the
// wire without ever entering the cache key.
type keyed struct {
	query.Query
	apiKey string
}

func (k keyed) Params() url.Values {
	v := k.Query.Params()
	v.Set("api_key", k.apiKey)
	return v
}

// Candidates fetches one page of candidates.
func (f *FEC) Candidates(ctx context.Context, q query.Candidates) (model.Page[model.Candidate], error) {
	return listGet[model.Candidate](ctx, f.t, "/candidates", keyed{q, f.apiKey}, nil)
}

// Committees fetches one page of committees.
func (f *FEC) Committees(ctx context.Context, q query.Committees) (model.Page[model.Committee], error) {
	return listGet[model.Committee](ctx, f.t, "/committees", keyed{q, f.apiKey}, nil)
}

// Contributions fetches one page of itemized receipts.
func (f *FEC) Contributions(ctx context.Context, q query.Contributions) (model.Page[model.Contribution], error) {
	return listGet[model.Contribution](ctx, f.t, "/schedules/schedule_a", keyed{q, f.apiKey}, nil)
}
