package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

func testConfig(baseURL, key string) Config {
	return Config{
		BaseURL:   baseURL,
		APIKey:    key,
		UserAgent: "captrades-test/1.0",
		Timeout:   5 * time.Second,
		RPS:       1000,
	}
}

func tradesPage(n int, meta model.PageMeta) model.Page[model.Trade] {
	page := model.Page[model.Trade]{Meta: meta}
	for i := range n {
		page.Items = append(page.Items, model.Trade{
			ReportID:   "r1",
			TxIndex:    i,
			Politician: "P000197",
			Issuer:     "431889",
			Ticker:     "AAPL",
			Asset:      model.AssetStock,
			Direction:  model.DirectionBuy,
			Size:       model.SizeBucket{Low: 1001, High: 15000},
			TxDate:     model.NewDate(2024, 1, 5),
			PubDate:    model.NewDate(2024, 2, 1),
		})
	}
	return page
}

func TestDisclosureTrades(t *testing.T) {
	t.Parallel()

	want := tradesPage(2, model.PageMeta{Page: 1, Size: 25, TotalItems: 2, TotalPages: 1})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/trades", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "captrades-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "P000197", r.URL.Query().Get("politician_id"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	d := NewDisclosure(testConfig(srv.URL, "test-key"))
	got, err := d.Trades(context.Background(), query.NewTrades().WithPolitician("P000197"))

	require.NoError(t, err)
	assert.Equal(t, want.Meta, got.Meta)
	assert.Equal(t, want.Items, got.Items)
}

func TestDisclosureList404IsEmptyPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDisclosure(testConfig(srv.URL, ""))
	got, err := d.Trades(context.Background(), query.NewTrades())

	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestDisclosureListKeepsInconsistentMeta(t *testing.T) {
	t.Parallel()

	// TotalPages disagrees with TotalItems/Size. The rows still reach
	// the caller, metadata untouched; the mismatch is only logged.
	want := tradesPage(2, model.PageMeta{Page: 1, Size: 25, TotalItems: 2, TotalPages: 9})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	d := NewDisclosure(testConfig(srv.URL, ""))
	got, err := d.Trades(context.Background(), query.NewTrades())

	require.NoError(t, err)
	require.Error(t, want.Meta.Validate())
	assert.Equal(t, want.Meta, got.Meta)
	assert.Len(t, got.Items, 2)
}

func TestDisclosureSingle404IsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDisclosure(testConfig(srv.URL, ""))
	_, err := d.Politician(context.Background(), "P999999")

	assert.ErrorIs(t, err, resilience.ErrNotFound)
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		header map[string]string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "429 with retry-after",
			status: http.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "2"},
			check: func(t *testing.T, err error) {
				var rl *resilience.RateLimitedError
				require.True(t, errors.As(err, &rl))
				assert.Equal(t, 2*time.Second, rl.RetryAfter)
			},
		},
		{
			name:   "401 invalid key",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var ae *resilience.AuthError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, resilience.AuthInvalidKey, ae.Kind)
			},
		},
		{
			name:   "403 forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var ae *resilience.AuthError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, resilience.AuthForbidden, ae.Kind)
			},
		},
		{
			name:   "503 transient",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				assert.True(t, resilience.IsTransient(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			d := NewDisclosure(testConfig(srv.URL, ""))
			_, err := d.Politician(context.Background(), "P000197")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDecodeFailureIsParseError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>upstream maintenance page</html>`))
	}))
	defer srv.Close()

	d := NewDisclosure(testConfig(srv.URL, ""))
	_, err := d.Trades(context.Background(), query.NewTrades())

	require.Error(t, err)
	var pe *resilience.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Snippet, "<html>")
	assert.False(t, resilience.IsRetryable(err))
}

func TestPrimaryPricesConventions(t *testing.T) {
	t.Parallel()

	bars := []model.DailyPrice{
		{Date: model.NewDate(2015, 1, 2), Close: 223615, AdjClose: 223615, Volume: 300, SplitFactor: 1},
		{Date: model.NewDate(2015, 1, 5), Close: 219555, AdjClose: 219555, Volume: 420, SplitFactor: 1},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/daily/BRK-A/prices", r.URL.Path)
		assert.Equal(t, "prim-key", r.URL.Query().Get("token"))
		assert.Equal(t, "2015-01-01", r.URL.Query().Get("start_date"))
		assert.Empty(t, r.URL.Query().Get("ticker"))
		json.NewEncoder(w).Encode(bars)
	}))
	defer srv.Close()

	p := NewPrimaryPrices(testConfig(srv.URL, "prim-key"))
	q := query.NewPrices("BRK-A", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	series, err := p.Series(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, model.SourcePrimary, series.Source)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, "BRK-A", series.Bars[0].Ticker, "adapter stamps ticker onto bars")
}

func TestFallbackPricesConventions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/eod", r.URL.Path)
		assert.Equal(t, "fb-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "BRK.A", r.URL.Query().Get("ticker"))
		json.NewEncoder(w).Encode([]model.DailyPrice{})
	}))
	defer srv.Close()

	f := NewFallbackPrices(testConfig(srv.URL, "fb-key"))
	q := query.NewPrices("BRK.A", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31)).ForFallback()
	series, err := f.Series(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, series.Source)
	assert.Empty(t, series.Bars)
}

func TestPricesOutOfOrderIsParseError(t *testing.T) {
	t.Parallel()

	bars := []model.DailyPrice{
		{Date: model.NewDate(2015, 1, 5), Close: 2, AdjClose: 2},
		{Date: model.NewDate(2015, 1, 2), Close: 1, AdjClose: 1},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(bars)
	}))
	defer srv.Close()

	p := NewPrimaryPrices(testConfig(srv.URL, "k"))
	_, err := p.Series(context.Background(), query.NewPrices("X", model.Date{}, model.Date{}))

	var pe *resilience.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestFECKeyNotInCanonicalForm(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fec-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "C00123456", r.URL.Query().Get("committee_id"))
		json.NewEncoder(w).Encode(model.Page[model.Contribution]{
			Meta: model.PageMeta{Page: 1, Size: 25, TotalItems: 0, TotalPages: 0},
		})
	}))
	defer srv.Close()

	f := NewFEC(testConfig(srv.URL, "fec-key"))
	q := query.NewContributions("C00123456", 2024)
	_, err := f.Contributions(context.Background(), q)

	require.NoError(t, err)
	assert.NotContains(t, q.Canonical(), "api_key")
}
