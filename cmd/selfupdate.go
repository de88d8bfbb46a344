package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// updateRepo is the GitHub repository (owner/name) releases are published to.
// Overridable at build time with -ldflags "-X nagctl/cmd.updateRepo=...".
var updateRepo = "nagios-tools/nagctl"

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update nagctl to the latest released version",
		Long: fmt.Sprintf(`Check the releases of %s on GitHub and replace the
current binary when a newer version exists.`, updateRepo),
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	current := rootCmd.Version
	// Development builds do not carry a release version to compare against.
	if current == "" || current == "dev" {
		return fmt.Errorf("cannot self-update a development build")
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("create updater: %w", err)
	}

	cmd.Printf("checking %s for releases newer than %s\n", updateRepo, current)
	latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(updateRepo))
	if err != nil {
		return fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", updateRepo)
	}
	if !latest.GreaterThan(current) {
		cmd.Printf("%s is up to date\n", current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	cmd.Printf("updating %s to %s (released %s)\n", exe, latest.Version(), latest.PublishedAt.Format("2006-01-02"))
	if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
		return fmt.Errorf("update to %s: %w", latest.Version(), err)
	}
	cmd.Printf("updated to %s\n", latest.Version())
	return nil
}
