package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"nagctl/internal/transaction"
	"nagctl/internal/validator"
)

// recoverCmd repairs configuration files left behind by an interrupted run.
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore files from journals left by interrupted transactions",
	Long: `Every change is journaled before any file is overwritten. If a run is
interrupted between writing files and finishing validation, the journal stays
behind; this command restores each affected file to its pre-transaction
content and removes the journal.`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	dir := rootConfigDir
	if dir == "" {
		cfg := rootNagiosCfg
		if cfg == "" {
			found, err := validator.FindMainConfig()
			if err != nil {
				return err
			}
			cfg = found
		}
		dir = filepath.Dir(cfg)
	}

	repaired, err := transaction.Recover(dir)
	if err != nil {
		return err
	}
	if repaired == 0 {
		cmd.Println("no interrupted transactions found")
		return nil
	}
	cmd.Printf("recovered %d interrupted transaction(s)\n", repaired)
	return nil
}
