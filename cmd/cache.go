package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <tag>",
	Short: "Drop cached entries under a tag",
	Long:  "Drops every cached entry under an adapter tag (for example disclosure/trades). With --match, only entries whose canonical form contains the given substring are dropped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initClient()
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		match, _ := cmd.Flags().GetString("match")
		if err := c.InvalidatePrefix(args[0], match); err != nil {
			return eris.Wrap(err, "cache clear")
		}
		fmt.Fprintf(os.Stderr, "Cleared %s entries.\n", args[0])
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().String("match", "", "only drop entries whose canonical query contains this substring")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
