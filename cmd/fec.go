package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/captrades/internal/model"
	"github.com/sells-group/captrades/internal/query"
)

var fecCmd = &cobra.Command{
	Use:   "fec",
	Short: "Query campaign-finance records",
}

var fecCandidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List candidates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		q := query.NewCandidates()
		if v, _ := cmd.Flags().GetString("office"); v != "" {
			q = q.WithOffice(v)
		}
		if v, _ := cmd.Flags().GetString("party"); v != "" {
			q = q.WithParty(model.Party(v))
		}
		if v, _ := cmd.Flags().GetInt("cycle"); v != 0 {
			q = q.WithCycle(v)
		}
		if v, _ := cmd.Flags().GetString("name"); v != "" {
			q = q.WithName(v)
		}

		candidates, err := c.CandidatesAll(ctx, q)
		if err != nil {
			return eris.Wrap(err, "fec candidates")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(candidates)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOFFICE\tPARTY")
		for _, cd := range candidates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cd.CandidateID, cd.Name, cd.Office, cd.Party)
		}
		return w.Flush()
	},
}

var fecCommitteesCmd = &cobra.Command{
	Use:   "committees",
	Short: "List committees",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		q := query.NewCommittees()
		if v, _ := cmd.Flags().GetString("candidate"); v != "" {
			q = q.WithCandidate(v)
		}
		if v, _ := cmd.Flags().GetString("type"); v != "" {
			q = q.WithType(v)
		}

		committees, err := c.CommitteesAll(ctx, q)
		if err != nil {
			return eris.Wrap(err, "fec committees")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(committees)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE")
		for _, cm := range committees {
			fmt.Fprintf(w, "%s\t%s\t%s\n", cm.CommitteeID, cm.Name, cm.Type)
		}
		return w.Flush()
	},
}

var fecContributionsCmd = &cobra.Command{
	Use:   "contributions <committee-id> <cycle>",
	Short: "List itemized contributions to a committee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		cycle, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Wrap(err, "parse cycle")
		}

		q := query.NewContributions(args[0], cycle)
		if v, _ := cmd.Flags().GetFloat64("min-amount"); v > 0 {
			q = q.WithMinAmount(v)
		}

		contributions, err := c.ContributionsAll(ctx, q)
		if err != nil {
			return eris.Wrap(err, "fec contributions")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(contributions)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tAMOUNT\tCONTRIBUTOR\tEMPLOYER")
		for _, cn := range contributions {
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", cn.Date, cn.Amount, cn.Contributor, cn.Employer)
		}
		return w.Flush()
	},
}

func init() {
	fecCandidatesCmd.Flags().String("office", "", "filter by office")
	fecCandidatesCmd.Flags().String("party", "", "filter by party")
	fecCandidatesCmd.Flags().Int("cycle", 0, "filter by election cycle")
	fecCandidatesCmd.Flags().String("name", "", "filter by candidate name")
	fecCandidatesCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	fecCommitteesCmd.Flags().String("candidate", "", "filter by linked candidate ID")
	fecCommitteesCmd.Flags().String("type", "", "filter by committee type")
	fecCommitteesCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	fecContributionsCmd.Flags().Float64("min-amount", 0, "minimum contribution amount")
	fecContributionsCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	fecCmd.AddCommand(fecCandidatesCmd)
	fecCmd.AddCommand(fecCommitteesCmd)
	fecCmd.AddCommand(fecContributionsCmd)
	rootCmd.AddCommand(fecCmd)
}
