package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nagctl/internal/nagios"
	"nagctl/internal/output"
)

var (
	getOutputFormat string
	getParams       []string
)

// getCmd prints one object definition.
var getCmd = &cobra.Command{
	Use:   "get <type> [name]",
	Short: "Show a Nagios object definition",
	Long: `Show the definition of one object, located across the whole
configuration tree. Table output prints the raw definition text; json and
yaml print the parsed attributes.

Examples:
  nagctl get host host1
  nagctl get service --param host_name=host1 --param service_description=Ping -o yaml`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return objectTypeNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	getCmd.Flags().StringArrayVarP(&getParams, "param", "p", nil, "Identifying attribute as key=value (repeatable)")
}

func runGet(cmd *cobra.Command, args []string) error {
	t, err := nagios.ParseObjectType(args[0])
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(getOutputFormat)
	if err != nil {
		return err
	}

	extra, err := parseParams(getParams, nil)
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	key := make(map[string]string)
	for k, v := range keyParams(t, name, extra) {
		key[k] = fmt.Sprintf("%v", v)
	}
	if len(key) == 0 {
		return fmt.Errorf("identify the %s with a name argument or --param flags", t)
	}

	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}

	block, err := store.Find(t, key)
	if err != nil {
		return err
	}
	if block == nil {
		return fmt.Errorf("no %s object matches %v", t, key)
	}

	return output.RenderBlock(cmd.OutOrStdout(), format, block, store.File(block.File).Lines)
}
