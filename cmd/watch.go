package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"nagctl/internal/manifest"
	"nagctl/internal/reconcile"
	"nagctl/internal/watcher"
)

var (
	watchDebounce time.Duration
	watchValidate bool
	watchBackup   bool
	watchBin      string
)

// watchCmd re-applies manifests whenever they change on disk.
var watchCmd = &cobra.Command{
	Use:   "watch <manifest-dir>",
	Short: "Watch a directory of manifests and re-apply on change",
	Long: `Watch a directory for changes to YAML manifest files and reconcile the
objects of each changed manifest. Rapid save sequences are debounced into one
apply. Runs until interrupted.

Example:
  nagctl watch ./desired --validate`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "How long to wait for further writes before re-applying")
	watchCmd.Flags().BoolVar(&watchValidate, "validate", false, "Validate with 'nagios -v' after each change; roll back on failure")
	watchCmd.Flags().BoolVar(&watchBackup, "backup", false, "Keep a timestamped backup of every modified file")
	watchCmd.Flags().StringVar(&watchBin, "nagios-bin", "", "Path to the Nagios executable (default: auto-detect)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	base := baseRequest()
	base.Validate = watchValidate
	base.Backup = watchBackup
	base.NagiosBin = watchBin

	r := reconcile.New(nil)
	w := watcher.New(args[0], watchDebounce)

	changes := make(chan string, 16)
	errCh := make(chan error, 1)
	ctx := cmd.Context()
	go func() {
		errCh <- w.Start(ctx, changes)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == nil || ctx.Err() != nil {
				return nil
			}
			return err
		case path := <-changes:
			m, err := manifest.Load(path, nil)
			if err != nil {
				cmd.PrintErrf("skipping %s: %v\n", path, err)
				continue
			}
			for _, res := range manifest.ApplyAll(ctx, r, m, base) {
				printResult(cmd, res)
			}
		}
	}
}
