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

var pricesCmd = &cobra.Command{
	Use:   "prices <ticker>",
	Short: "Fetch a daily price series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		from, to, err := dateRangeFlags(cmd, "from", "to")
		if err != nil {
			return err
		}
		if from.IsZero() || to.IsZero() {
			to = model.Today()
			from = to.AddDays(-365)
		}

		q := query.NewPrices(args[0], from, to)

		var series model.PriceSeries
		if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
			series, err = c.RefreshPrices(ctx, q)
		} else {
			series, err = c.Prices(ctx, q)
		}
		if err != nil {
			return eris.Wrapf(err, "prices %s", args[0])
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(series)
		}

		fmt.Printf("%s (%s): %d bars\n", series.Ticker, series.Source, len(series.Bars))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tCLOSE\tADJ CLOSE\tVOLUME")
		for _, bar := range series.Bars {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\n", bar.Date, bar.Close, bar.AdjClose, bar.Volume)
		}
		return w.Flush()
	},
}

func init() {
	pricesCmd.Flags().String("from", "", "series start (YYYY-MM-DD, default one year back)")
	pricesCmd.Flags().String("to", "", "series end (YYYY-MM-DD, default today)")
	pricesCmd.Flags().Bool("refresh", false, "drop cached series and re-fetch both vendors")
	pricesCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(pricesCmd)
}
