package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"nagctl/internal/validator"
)

var (
	verifyNagiosBin string
	verifyTimeout   time.Duration
	verifyQuiet     bool
)

// verifyCmd runs the external syntax check without changing anything.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the Nagios configuration with 'nagios -v'",
	Long: `Run the Nagios syntax check against the main configuration file. The
binary and configuration file are auto-detected unless given explicitly.

Examples:
  nagctl verify
  nagctl verify --nagios-cfg /etc/nagios/nagios.cfg --nagios-bin /usr/sbin/nagios`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyNagiosBin, "nagios-bin", "", "Path to the Nagios executable (default: auto-detect)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", validator.DefaultTimeout, "Maximum time for the check to run")
	verifyCmd.Flags().BoolVarP(&verifyQuiet, "quiet", "q", false, "Suppress the progress indicator and check output")
}

func runVerify(cmd *cobra.Command, args []string) error {
	mainCfg := rootNagiosCfg
	if mainCfg == "" {
		found, err := validator.FindMainConfig()
		if err != nil {
			return err
		}
		mainCfg = found
	}

	bin := verifyNagiosBin
	if bin == "" {
		found, err := validator.FindBinary()
		if err != nil {
			return err
		}
		bin = found
	}

	var s *spinner.Spinner
	if !verifyQuiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = fmt.Sprintf(" checking %s", mainCfg)
		s.Start()
	}

	runner := validator.NewRunner(bin)
	runner.Timeout = verifyTimeout
	ok, out, err := runner.Verify(cmd.Context(), mainCfg)

	if s != nil {
		s.Stop()
	}

	if err != nil {
		return err
	}
	if !ok {
		if !verifyQuiet {
			cmd.Print(out)
		}
		return fmt.Errorf("configuration check failed")
	}
	cmd.Printf("configuration check passed: %s\n", mainCfg)
	return nil
}
