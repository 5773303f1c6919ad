package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/resilience"
)

func TestTradesCanonicalStable(t *testing.T) {
	t.Parallel()

	build := func() Trades {
		return NewTrades().
			WithPolitician("P000197").
			WithTxDates(model.NewDate(2024, 1, 1), model.NewDate(2024, 3, 31)).
			WithSize(25)
	}

	a, b := build(), build()
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t,
		"disclosure/trades?politician_id=P000197&tx_date_from=2024-01-01&tx_date_to=2024-03-31",
		a.Canonical(),
	)
}

func TestTradesDefaultsOmitted(t *testing.T) {
	t.Parallel()

	q := NewTrades()
	assert.Equal(t, "disclosure/trades", q.Canonical())

	// Default paging and default sort add nothing; explicit non-defaults do.
	withPage := q.WithPage(2)
	assert.Equal(t, "disclosure/trades?page=2", withPage.Canonical())

	withSort := q.WithSort("pub_date", Desc)
	assert.Equal(t, "disclosure/trades", withSort.Canonical())

	withSortAsc := q.WithSort("tx_date", Asc)
	assert.Equal(t, "disclosure/trades?sort=tx_date.asc", withSortAsc.Canonical())
}

func TestTradesBuilderIsPure(t *testing.T) {
	t.Parallel()

	base := NewTrades().WithPolitician("P000197")
	derived := base.WithPage(3).WithTicker("AAPL")

	assert.Equal(t, 1, base.Page())
	assert.Equal(t, 3, derived.Page())
	assert.NotEqual(t, base.Canonical(), derived.Canonical())
	assert.Equal(t, "disclosure/trades?politician_id=P000197", base.Canonical())
}

func TestTradesValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		q     Trades
		field string
	}{
		{"page zero", NewTrades().WithPage(0), "page"},
		{"size too big", NewTrades().WithSize(101), "size"},
		{"inverted tx range", NewTrades().WithTxDates(model.NewDate(2024, 3, 1), model.NewDate(2024, 1, 1)), "tx_date"},
		{"unknown sort", NewTrades().WithSort("sector", Asc), "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.q.Validate()
			require.Error(t, err)

			var iq *resilience.InvalidQueryError
			require.True(t, errors.As(err, &iq))
			assert.Equal(t, tt.field, iq.Field)
		})
	}

	assert.NoError(t, NewTrades().WithSize(100).WithSort("value", Desc).Validate())
}

func TestPricesCanonical(t *testing.T) {
	t.Parallel()

	q := NewPrices("brk.a", model.NewDate(2015, 1, 1), model.NewDate(2015, 12, 31))
	assert.Equal(t,
		"prices/primary?end_date=2015-12-31&start_date=2015-01-01&ticker=BRK.A",
		q.Canonical(),
	)

	fb := q.ForFallback()
	assert.Equal(t,
		"prices/fallback?end_date=2015-12-31&start_date=2015-01-01&ticker=BRK.A",
		fb.Canonical(),
	)
	// Retargeting does not touch the original.
	assert.Equal(t, TagPricesPrimary, q.Tag())
}

func TestPricesValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPrices("AAPL", model.NewDate(2024, 1, 1), model.NewDate(2024, 6, 30)).Validate())
	assert.Error(t, NewPrices("", model.NewDate(2024, 1, 1), model.NewDate(2024, 6, 30)).Validate())
	assert.Error(t, NewPrices("AAPL", model.NewDate(2024, 6, 30), model.NewDate(2024, 1, 1)).Validate())
	assert.Error(t, NewPrices("AAPL", model.Date{}, model.Date{}).WithResample("hourly").Validate())
}

func TestContributionsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewContributions("C00123456", 2024).Validate())
	assert.Error(t, NewContributions("", 2024).Validate())
	assert.Error(t, NewContributions("C00123456", 2023).Validate())
}

func TestPoliticiansCanonical(t *testing.T) {
	t.Parallel()

	q := NewPoliticians().WithChamber(model.ChamberSenate).WithActive(true)
	assert.Equal(t, "disclosure/politicians?active=true&chamber=senate", q.Canonical())
}
