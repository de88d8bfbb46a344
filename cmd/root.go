package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nagctl/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeReverted indicates the change was committed, failed validation,
	// and was rolled back.
	ExitCodeReverted = 2
)

var (
	rootNagiosCfg string
	rootConfigDir string
	rootLogLevel  string
)

// rootCmd represents the base command for the nagctl application.
var rootCmd = &cobra.Command{
	Use:   "nagctl",
	Short: "Manage Nagios object definitions declaratively",
	Long: `nagctl reconciles declared Nagios object definitions (hosts, services,
contacts, ...) against the configuration files on disk: it locates existing
definitions across the whole configuration tree, applies minimal in-place
edits, and can validate the result with "nagios -v", rolling back on failure.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(rootLogLevel)
		if err != nil {
			return err
		}
		logging.Init(level, os.Stderr)
		return nil
	},
}

func parseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug, nil
	case "", "info":
		return logging.LevelInfo, nil
	case "warn":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return logging.LevelInfo, errors.New("invalid log level: must be one of debug, info, warn, error")
	}
}

// revertedError marks a failure whose change was rolled back, so the CLI can
// exit with a dedicated code.
type revertedError struct {
	message string
}

func (e *revertedError) Error() string {
	return e.message
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nagctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var reverted *revertedError
	if errors.As(err, &reverted) {
		return ExitCodeReverted
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootNagiosCfg, "nagios-cfg", "", "Path to the main Nagios configuration file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&rootConfigDir, "config-dir", "", "Scan this directory tree instead of resolving includes from nagios.cfg")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
