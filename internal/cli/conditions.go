package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/liamcoop/spinecheck/catalog"
	"github.com/spf13/cobra"
)

func newConditionsCommand(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "conditions",
		Short: "List the conditions in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			return printConditions(cmd.OutOrStdout(), cat, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the catalog as JSON")
	return cmd
}

func printConditions(out io.Writer, cat *catalog.Catalog, jsonOutput bool) error {
	entries := cat.Entries()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSEVERITY\tSYMPTOMS\tTRIGGERS")
	for _, c := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Severity, strings.Join(c.Symptoms, ","), orDash(c.Triggers))
	}
	return tw.Flush()
}

func locationChoices() []string { return catalog.Locations() }

func symptomChoices() []string { return catalog.Symptoms() }
