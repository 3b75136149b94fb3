package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kuitang/landingcheck/internal/suite"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the checks in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, _ := cmd.Flags().GetStringSlice("tag")
			groups, _ := cmd.Flags().GetStringSlice("group")
			checks := suite.Filter(suite.Catalog(), suite.Selector{Tags: tags, Groups: groups})

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGROUP\tTAGS\tVIEWPORT\tABSENCE")
			for _, c := range checks {
				vp := "-"
				if c.Viewport != nil {
					vp = c.Viewport.Key + " " + c.Viewport.Size()
				}
				tagList := strings.Join(c.Tags, ",")
				if tagList == "" {
					tagList = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Group, tagList, vp, c.Absence)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d check(s)\n", len(checks))
			return nil
		},
	}
	cmd.Flags().StringSlice("tag", nil, "Only list checks carrying any of these tags")
	cmd.Flags().StringSlice("group", nil, "Only list checks in these groups")
	return cmd
}
