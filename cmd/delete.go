package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nagctl/internal/nagios"
	"nagctl/internal/reconcile"
)

var (
	deleteParams     []string
	deleteValidate   bool
	deleteNagiosBin  string
	deleteBackup     bool
	deleteEmptyFiles bool
)

// deleteCmd removes an object and every reference to it.
var deleteCmd = &cobra.Command{
	Use:   "delete <type> [name]",
	Short: "Delete a Nagios object and clean up references to it",
	Long: `Delete an object definition. References to the object in member lists
elsewhere in the configuration (hostgroup members, dependency fields, ...) are
removed as well. Deleting an object that does not exist is not an error.

Types with a compound key (service, dependencies, escalations) are identified
with --param instead of a bare name.

Examples:
  nagctl delete host host1
  nagctl delete service --param host_name=host1 --param service_description=Ping`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return objectTypeNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringArrayVarP(&deleteParams, "param", "p", nil, "Identifying attribute as key=value (repeatable)")
	deleteCmd.Flags().BoolVar(&deleteValidate, "validate", false, "Validate with 'nagios -v' after the change; roll back on failure")
	deleteCmd.Flags().StringVar(&deleteNagiosBin, "nagios-bin", "", "Path to the Nagios executable (default: auto-detect)")
	deleteCmd.Flags().BoolVar(&deleteBackup, "backup", false, "Keep a timestamped backup of every modified file")
	deleteCmd.Flags().BoolVar(&deleteEmptyFiles, "delete-empty-files", false, "Delete a file left empty after its last object is removed")
}

func runDelete(cmd *cobra.Command, args []string) error {
	t, err := nagios.ParseObjectType(args[0])
	if err != nil {
		return err
	}

	extra, err := parseParams(deleteParams, nil)
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	params := keyParams(t, name, extra)
	if len(params) == 0 {
		return fmt.Errorf("identify the %s with a name argument or --param flags", t)
	}

	req := baseRequest()
	req.Type = t
	req.State = reconcile.StateAbsent
	req.Parameters = params
	req.Validate = deleteValidate
	req.NagiosBin = deleteNagiosBin
	req.Backup = deleteBackup
	req.DeleteEmptyFiles = deleteEmptyFiles

	res := reconcile.New(nil).Apply(cmd.Context(), req)
	printResult(cmd, res)
	return resultError(res)
}

func objectTypeNames() []string {
	types := nagios.AllObjectTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
