package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List disclosed trades",
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
		if v, _ := cmd.Flags().GetString("issuer"); v != "" {
			q = q.WithIssuer(model.IssuerID(v))
		}
		if v, _ := cmd.Flags().GetString("ticker"); v != "" {
			q = q.WithTicker(v)
		}
		from, to, err := dateRangeFlags(cmd, "from", "to")
		if err != nil {
			return err
		}
		if !from.IsZero() || !to.IsZero() {
			q = q.WithTxDates(from, to)
		}

		all, _ := cmd.Flags().GetBool("all")
		var trades []model.Trade
		if all {
			trades, err = c.TradesAll(ctx, q)
		} else {
			var page model.Page[model.Trade]
			page, err = c.Trades(ctx, q)
			trades = page.Items
		}
		if err != nil {
			return eris.Wrap(err, "trades")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(trades)
		}

		if len(trades) == 0 {
			fmt.Fprintln(os.Stderr, "No trades found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TRADE\tPOLITICIAN\tTICKER\tDIR\tSIZE\tTX DATE\tPUBLISHED")
		for _, t := range trades {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f-%.0f\t%s\t%s\n",
				t.ID(), t.Politician, t.Ticker, t.Direction,
				t.Size.Low, t.Size.High, t.TxDate, t.PubDate)
		}
		return w.Flush()
	},
}

func dateRangeFlags(cmd *cobra.Command, fromFlag, toFlag string) (model.Date, model.Date, error) {
	var from, to model.Date
	if v, _ := cmd.Flags().GetString(fromFlag); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return from, to, eris.Wrapf(err, "parse --%s", fromFlag)
		}
		from = d
	}
	if v, _ := cmd.Flags().GetString(toFlag); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return from, to, eris.Wrapf(err, "parse --%s", toFlag)
		}
		to = d
	}
	return from, to, nil
}

func init() {
	tradesCmd.Flags().String("politician", "", "filter by politician ID")
	tradesCmd.Flags().String("issuer", "", "filter by issuer ID")
	tradesCmd.Flags().String("ticker", "", "filter by ticker")
	tradesCmd.Flags().String("from", "", "transaction date lower bound (YYYY-MM-DD)")
	tradesCmd.Flags().String("to", "", "transaction date upper bound (YYYY-MM-DD)")
	tradesCmd.Flags().Bool("all", false, "walk all pages")
	tradesCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(tradesCmd)
}
