package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/captrades/internal/adapter"
	"github.com/sells-group/captrades/internal/cache"
	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

var fastRetry = resilience.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
	Multiplier:     2.0,
	JitterFraction: 0,
}

// fakeDisclosure implements disclosureAPI with call counting.
type fakeDisclosure struct {
	mu          sync.Mutex
	tradeCalls  int
	tradesFn    func(q query.Trades) (model.Page[model.Trade], error)
	politicians map[model.PoliticianID]model.Politician
	issuers     map[model.IssuerID]model.Issuer
}

func (f *fakeDisclosure) Trades(_ context.Context, q query.Trades) (model.Page[model.Trade], error) {
	f.mu.Lock()
	f.tradeCalls++
	f.mu.Unlock()
	return f.tradesFn(q)
}

func (f *fakeDisclosure) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tradeCalls
}

func (f *fakeDisclosure) Politicians(context.Context, query.Politicians) (model.Page[model.Politician], error) {
	return model.Page[model.Politician]{}, nil
}

func (f *fakeDisclosure) Politician(_ context.Context, id model.PoliticianID) (model.Politician, error) {
	p, ok := f.politicians[id]
	if !ok {
		return model.Politician{}, resilience.ErrNotFound
	}
	return p, nil
}

func (f *fakeDisclosure) Issuers(context.Context, query.Issuers) (model.Page[model.Issuer], error) {
	return model.Page[model.Issuer]{}, nil
}

func (f *fakeDisclosure) Issuer(_ context.Context, id model.IssuerID) (model.Issuer, error) {
	iss, ok := f.issuers[id]
	if !ok {
		return model.Issuer{}, resilience.ErrNotFound
	}
	return iss, nil
}

func newTestClient(t *testing.T, d disclosureAPI, primary, fallback adapter.PriceVendor) *Client {
	t.Helper()
	c, err := cache.New(cache.Config{Root: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return newClient(d, primary, fallback, nil, c, fastRetry, nil)
}

func tradePage(page, size, totalItems int) model.Page[model.Trade] {
	total := model.TotalPagesFor(totalItems, size)
	p := model.Page[model.Trade]{
		Meta: model.PageMeta{Page: page, Size: size, TotalItems: totalItems, TotalPages: total},
	}
	start := (page - 1) * size
	for i := start; i < start+size && i < totalItems; i++ {
		p.Items = append(p.Items, model.Trade{
			ReportID:   "r1",
			TxIndex:    i,
			Politician: "P000197",
			Issuer:     "431889",
			Direction:  model.DirectionBuy,
			Asset:      model.AssetStock,
			TxDate:     model.NewDate(2024, 1, 5),
			PubDate:    model.NewDate(2024, 2, 1),
		})
	}
	return p
}

func TestTradesCachedAfterFetch(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		return tradePage(1, 25, 2), nil
	}}
	c := newTestClient(t, fake, nil, nil)

	q := query.NewTrades().WithPolitician("P000197")
	first, err := c.Trades(context.Background(), q)
	require.NoError(t, err)
	second, err := c.Trades(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.calls(), "second read must come from cache")
}

func TestTradesRetriesTransient(t *testing.T) {
	t.Parallel()

	var n int
	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		n++
		if n < 3 {
			return model.Page[model.Trade]{}, resilience.NewTransientError(errors.New("conn reset"), resilience.CauseNetwork, 0)
		}
		return tradePage(1, 25, 1), nil
	}}
	c := newTestClient(t, fake, nil, nil)

	got, err := c.Trades(context.Background(), query.NewTrades())
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, 3, fake.calls())
}

func TestTradesAuthNotRetried(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		return model.Page[model.Trade]{}, &resilience.AuthError{Kind: resilience.AuthInvalidKey}
	}}
	c := newTestClient(t, fake, nil, nil)

	_, err := c.Trades(context.Background(), query.NewTrades())
	var ae *resilience.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, fake.calls(), "auth errors must not be retried")
}

func TestTradesParseFailureCachedNegatively(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		return model.Page[model.Trade]{}, &resilience.ParseError{Err: errors.New("unexpected token"), Snippet: "<html>maintenance</html>"}
	}}
	c := newTestClient(t, fake, nil, nil)

	_, err := c.Trades(context.Background(), query.NewTrades())
	var pe *resilience.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, fake.calls(), "parse errors must not be retried")

	// The failure is remembered negatively, so a hot retry loop stays
	// off the wire while the marker lives.
	_, err = c.Trades(context.Background(), query.NewTrades())
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Snippet, "maintenance")
	assert.Equal(t, 1, fake.calls())
}

func TestInvalidQueryNeverHitsNetwork(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		t.Error("adapter must not be called for an invalid query")
		return model.Page[model.Trade]{}, nil
	}}
	c := newTestClient(t, fake, nil, nil)

	_, err := c.Trades(context.Background(), query.NewTrades().WithPage(0))
	var iq *resilience.InvalidQueryError
	require.True(t, errors.As(err, &iq))
	assert.Equal(t, 0, fake.calls())
}

func TestTradesAllWalksPagesInOrder(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		return tradePage(q.Page(), q.Size(), 7), nil
	}}
	c := newTestClient(t, fake, nil, nil)

	q := query.NewTrades().WithSize(3)
	items, err := c.TradesAll(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, items, 7)
	for i, trade := range items {
		assert.Equal(t, i, trade.TxIndex, "walk must preserve page order")
	}
	assert.Equal(t, 3, fake.calls())

	// Every page is cached independently, so a second walk is free.
	_, err = c.TradesAll(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls())
}

func TestTradesAllPartialResult(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
		if q.Page() > 1 {
			return model.Page[model.Trade]{}, &resilience.AuthError{Kind: resilience.AuthForbidden}
		}
		return tradePage(1, 3, 7), nil
	}}
	c := newTestClient(t, fake, nil, nil)

	items, err := c.TradesAll(context.Background(), query.NewTrades().WithSize(3))

	var partial *PartialResult
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 1, partial.Completed)
	var ae *resilience.AuthError
	assert.True(t, errors.As(partial.Err, &ae))
	assert.Len(t, items, 3, "completed pages are returned alongside the error")
}

func TestResolveDropsUnresolvableTrades(t *testing.T) {
	t.Parallel()

	fake := &fakeDisclosure{
		tradesFn: func(q query.Trades) (model.Page[model.Trade], error) {
			return model.Page[model.Trade]{}, nil
		},
		politicians: map[model.PoliticianID]model.Politician{
			"P000197": {ID: "P000197", LastName: "Pelosi", Chamber: model.ChamberHouse},
		},
		issuers: map[model.IssuerID]model.Issuer{
			"431889": {ID: "431889", Name: "Apple Inc", Ticker: "AAPL"},
		},
	}
	c := newTestClient(t, fake, nil, nil)

	trades := []model.Trade{
		{ReportID: "r1", TxIndex: 0, Politician: "P000197", Issuer: "431889"},
		{ReportID: "r1", TxIndex: 1, Politician: "P999999", Issuer: "431889"},
		{ReportID: "r2", TxIndex: 0, Politician: "P000197", Issuer: "000000"},
	}

	refs, kept, err := c.Resolve(context.Background(), trades)
	require.NoError(t, err)

	require.Len(t, kept, 1)
	assert.Equal(t, "r1/0", kept[0].ID().String())
	assert.Contains(t, refs.Politicians, model.PoliticianID("P000197"))
	assert.Contains(t, refs.Issuers, model.IssuerID("431889"))
	assert.NotContains(t, refs.Politicians, model.PoliticianID("P999999"))
}
