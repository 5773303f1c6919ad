package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/captrades/internal/analysis"
	"github.com/sells-group/captrades/internal/client"
	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
	"github.com/sells-group/captrades/internal/resilience"
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Derive trading performance from disclosures and prices",
	Long:  "Fetches trades, joins them to daily price series, and aggregates returns by politician, issuer, sector, party, or chamber.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		q := query.NewTrades()
		if v, _ := cmd.Flags().GetString("politician"); v != "" {
			q = q.WithPolitician(model.PoliticianID(v))
		}
		from, to, err := dateRangeFlags(cmd, "from", "to")
		if err != nil {
			return err
		}
		if !from.IsZero() || !to.IsZero() {
			q = q.WithTxDates(from, to)
		}

		ref := model.Today()
		if v, _ := cmd.Flags().GetString("ref"); v != "" {
			ref, err = model.ParseDate(v)
			if err != nil {
				return eris.Wrap(err, "parse --ref")
			}
		}

		trades, err := c.TradesAll(ctx, q)
		if err != nil {
			var partial *client.PartialResult
			if !errors.As(err, &partial) {
				return eris.Wrap(err, "perf: fetch trades")
			}
			zap.L().Warn("continuing with partial trade set",
				zap.Int("pages", partial.Completed), zap.Error(partial.Err))
		}
		if len(trades) == 0 {
			fmt.Fprintln(os.Stderr, "No trades found.")
			return nil
		}

		refs, resolved, err := c.Resolve(ctx, trades)
		if err != nil {
			return eris.Wrap(err, "perf: resolve refs")
		}

		series := fetchSeriesFor(ctx, c, resolved, ref)
		returns := analysis.Returns(resolved, series, ref)

		by, _ := cmd.Flags().GetString("by")
		rows, err := aggregateRows(by, returns, refs)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(rows)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tTRADES\tPRICED\tMEAN\tMEDIAN\tWIN RATE\tNOTIONAL (LOW-HIGH)")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%d\t%d\t%+.2f%%\t%+.2f%%\t%.0f%%\t%.0f-%.0f\n",
				row.Group, row.Count, row.Priced,
				row.MeanReturnPct*100, row.MedianReturnPct*100, row.WinRate*100,
				row.TotalNotionalLow, row.TotalNotionalHigh)
		}
		return w.Flush()
	},
}

// perfRow is one aggregate with its group label, ordered for output.
type perfRow struct {
	Group string `json:"group"`
	analysis.Aggregate
}

func aggregateRows(by string, returns []analysis.TradeReturn, refs client.TradeRefs) ([]perfRow, error) {
	var rows []perfRow
	switch by {
	case "politician", "":
		for k, agg := range analysis.ByPolitician(returns) {
			label := string(k)
			if p, ok := refs.Politicians[k]; ok {
				label = fmt.Sprintf("%s %s (%s)", p.FirstName, p.LastName, k)
			}
			rows = append(rows, perfRow{Group: label, Aggregate: agg})
		}
	case "issuer":
		for k, agg := range analysis.ByIssuer(returns) {
			label := string(k)
			if iss, ok := refs.Issuers[k]; ok {
				label = fmt.Sprintf("%s (%s)", iss.Name, k)
			}
			rows = append(rows, perfRow{Group: label, Aggregate: agg})
		}
	case "sector":
		for k, agg := range analysis.BySector(returns, refs.Issuers) {
			rows = append(rows, perfRow{Group: k, Aggregate: agg})
		}
	case "party":
		for k, agg := range analysis.ByParty(returns, refs.Politicians) {
			rows = append(rows, perfRow{Group: string(k), Aggregate: agg})
		}
	case "chamber":
		for k, agg := range analysis.ByChamber(returns, refs.Politicians) {
			rows = append(rows, perfRow{Group: string(k), Aggregate: agg})
		}
	default:
		return nil, eris.Errorf("unknown --by value %q", by)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanReturnPct != rows[j].MeanReturnPct {
			return rows[i].MeanReturnPct > rows[j].MeanReturnPct
		}
		return rows[i].Group < rows[j].Group
	})
	return rows, nil
}

// fetchSeriesFor pulls one price series per distinct ticker in the trade
// set. Unresolvable tickers just drop out of the join; the analysis pass
// records those trades as unpriced.
func fetchSeriesFor(ctx context.Context, c *client.Client, trades []model.Trade, ref model.Date) map[string]model.PriceSeries {
	earliest := ref
	tickers := make(map[string]struct{})
	for _, t := range trades {
		if t.Ticker == "" {
			continue
		}
		tickers[t.Ticker] = struct{}{}
		if t.TxDate.Before(earliest) {
			earliest = t.TxDate
		}
	}

	series := make(map[string]model.PriceSeries, len(tickers))
	for ticker := range tickers {
		s, err := c.Prices(ctx, query.NewPrices(ticker, earliest.AddDays(-7), ref))
		if err != nil {
			var ut *resilience.UnresolvableTickerError
			if errors.As(err, &ut) {
				zap.L().Warn("skipping unresolvable ticker", zap.String("ticker", ticker))
				continue
			}
			zap.L().Warn("price fetch failed", zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		series[ticker] = s
	}
	return series
}

func init() {
	perfCmd.Flags().String("politician", "", "restrict to one politician ID")
	perfCmd.Flags().String("from", "", "transaction date lower bound (YYYY-MM-DD)")
	perfCmd.Flags().String("to", "", "transaction date upper bound (YYYY-MM-DD)")
	perfCmd.Flags().String("ref", "", "reference date for exit prices (default today)")
	perfCmd.Flags().String("by", "politician", "grouping: politician|issuer|sector|party|chamber")
	perfCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(perfCmd)
}
