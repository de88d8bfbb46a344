package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nagctl/internal/manifest"
	"nagctl/internal/nagios"
	"nagctl/internal/reconcile"
)

var (
	applyType       string
	applyParams     []string
	applyRemove     []string
	applyState      string
	applyNoUpdate   bool
	applyPath       string
	applyValidate   bool
	applyNagiosBin  string
	applyBackup     bool
	applyFile       string
	applyValues     []string
	applyOwner      string
	applyGroup      string
	applyMode       string
	applyFollow     bool
	applyDeleteEmpt bool
)

// applyCmd reconciles one object from flags, or a whole manifest with -f.
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile Nagios object definitions with the desired state",
	Long: `Reconcile one object given on the command line, or every object of a
YAML manifest given with -f.

Examples:
  nagctl apply --type host --param host_name=host1 --param alias="Host 1" --param use=generic-host
  nagctl apply --type host --param host_name=host1 --remove notes_url
  nagctl apply --type service --param host_name=host1 --param service_description=Ping --state absent
  nagctl apply -f desired.yaml --set env=prod --validate --backup`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyType, "type", "t", "", "Nagios object type")
	applyCmd.Flags().StringArrayVarP(&applyParams, "param", "p", nil, "Object attribute as key=value (repeatable)")
	applyCmd.Flags().StringArrayVar(&applyRemove, "remove", nil, "Attribute to remove from the object (repeatable)")
	applyCmd.Flags().StringVar(&applyState, "state", "present", "Desired state (present, absent)")
	applyCmd.Flags().BoolVar(&applyNoUpdate, "no-update", false, "Leave an existing object untouched")
	applyCmd.Flags().StringVar(&applyPath, "path", "", "Target file for a newly created object")
	applyCmd.Flags().BoolVar(&applyValidate, "validate", false, "Validate with 'nagios -v' after the change; roll back on failure")
	applyCmd.Flags().StringVar(&applyNagiosBin, "nagios-bin", "", "Path to the Nagios executable (default: auto-detect)")
	applyCmd.Flags().BoolVar(&applyBackup, "backup", false, "Keep a timestamped backup of every modified file")
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Apply every object of this YAML manifest")
	applyCmd.Flags().StringArrayVar(&applyValues, "set", nil, "Template value for manifest rendering, key=value (repeatable)")
	applyCmd.Flags().StringVar(&applyOwner, "owner", "", "Owner applied to touched files")
	applyCmd.Flags().StringVar(&applyGroup, "group", "", "Group applied to touched files")
	applyCmd.Flags().StringVar(&applyMode, "mode", "", "Octal permission mode applied to touched files")
	applyCmd.Flags().BoolVar(&applyFollow, "follow", true, "Apply ownership through symlinks instead of to the link itself")
	applyCmd.Flags().BoolVar(&applyDeleteEmpt, "delete-empty-files", false, "Delete a file left empty after its last object is removed")
}

func runApply(cmd *cobra.Command, args []string) error {
	base := baseRequest()
	base.Validate = applyValidate
	base.NagiosBin = applyNagiosBin
	base.Backup = applyBackup
	base.DeleteEmptyFiles = applyDeleteEmpt

	attrs := reconcile.OwnerGroupMode{Owner: applyOwner, Group: applyGroup, Mode: applyMode, Follow: applyFollow}
	var r *reconcile.Reconciler
	if attrs.IsZero() {
		r = reconcile.New(nil)
	} else {
		r = reconcile.New(attrs)
	}

	if applyFile != "" {
		return runApplyManifest(cmd, r, base)
	}

	if applyType == "" {
		return fmt.Errorf("either --type or -f is required")
	}
	t, err := nagios.ParseObjectType(applyType)
	if err != nil {
		return err
	}
	state, err := reconcile.ParseState(applyState)
	if err != nil {
		return err
	}
	params, err := parseParams(applyParams, applyRemove)
	if err != nil {
		return err
	}

	req := base
	req.Type = t
	req.State = state
	req.Parameters = params
	req.Update = !applyNoUpdate
	req.Path = applyPath

	res := r.Apply(cmd.Context(), req)
	printResult(cmd, res)
	return resultError(res)
}

func runApplyManifest(cmd *cobra.Command, r *reconcile.Reconciler, base reconcile.Request) error {
	values := make(map[string]string, len(applyValues))
	for _, kv := range applyValues {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid template value %q: expected key=value", kv)
		}
		values[key] = value
	}

	m, err := manifest.Load(applyFile, values)
	if err != nil {
		return err
	}

	results := manifest.ApplyAll(cmd.Context(), r, m, base)
	for _, res := range results {
		printResult(cmd, res)
	}

	last := results[len(results)-1]
	if err := resultError(last); err != nil {
		return err
	}
	return nil
}

func printResult(cmd *cobra.Command, res reconcile.Result) {
	status := "unchanged"
	switch {
	case res.Failed:
		status = "failed"
	case res.Changed:
		status = "changed"
	}
	cmd.Printf("%s: %s\n", status, res.Message)
	for _, b := range res.Backups {
		cmd.Printf("backup: %s\n", b)
	}
}
