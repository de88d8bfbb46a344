package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"nagctl/internal/nagios"
	"nagctl/internal/output"
)

var listOutputFormat string

// listCmd lists object definitions across the configuration tree.
var listCmd = &cobra.Command{
	Use:   "list [type]",
	Short: "List Nagios object definitions",
	Long: `List object definitions across the whole configuration tree, with
their defining file and line.

Examples:
  nagctl list
  nagctl list host
  nagctl list service -o json`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return objectTypeNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOutputFormat)
	if err != nil {
		return err
	}

	var filter nagios.ObjectType
	if len(args) == 1 {
		t, err := nagios.ParseObjectType(args[0])
		if err != nil {
			return err
		}
		filter = t
	}

	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}

	var rows []output.Row
	for _, f := range store.Files {
		for _, b := range f.Blocks {
			if filter != "" && b.Type != filter {
				continue
			}
			rows = append(rows, output.RowFor(b))
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type < rows[j].Type
		}
		return rows[i].Name < rows[j].Name
	})

	return output.RenderRows(cmd.OutOrStdout(), format, rows)
}
