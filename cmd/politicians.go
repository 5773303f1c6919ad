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

var politiciansCmd = &cobra.Command{
	Use:   "politicians",
	Short: "List politicians on the disclosure feed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		q := query.NewPoliticians()
		if v, _ := cmd.Flags().GetString("chamber"); v != "" {
			q = q.WithChamber(model.Chamber(v))
		}
		if v, _ := cmd.Flags().GetString("party"); v != "" {
			q = q.WithParty(model.Party(v))
		}
		if v, _ := cmd.Flags().GetString("state"); v != "" {
			q = q.WithState(v)
		}

		politicians, err := c.PoliticiansAll(ctx, q)
		if err != nil {
			return eris.Wrap(err, "politicians")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(politicians)
		}

		if len(politicians) == 0 {
			fmt.Fprintln(os.Stderr, "No politicians found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCHAMBER\tPARTY\tSTATE")
		for _, p := range politicians {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n",
				p.ID, p.FirstName, p.LastName, p.Chamber, p.Party, p.State)
		}
		return w.Flush()
	},
}

func init() {
	politiciansCmd.Flags().String("chamber", "", "filter by chamber (house|senate)")
	politiciansCmd.Flags().String("party", "", "filter by party")
	politiciansCmd.Flags().String("state", "", "filter by two-letter state")
	politiciansCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(politiciansCmd)
}
