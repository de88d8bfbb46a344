// Package validator runs the external Nagios syntax check ("nagios -v") and
// discovers the daemon binary and main configuration file when the caller
// does not provide them.
package validator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"nagctl/pkg/logging"
)

const subsystem = "Validator"

// DefaultTimeout bounds one validator invocation. The original design ran the
// subprocess without a timeout; a hung daemon binary would hang the whole
// reconciliation.
const DefaultTimeout = 30 * time.Second

// execCommandContext is a variable to allow mocking in tests.
var execCommandContext = exec.CommandContext

// ExecError reports that the validator could not be invoked or did not finish
// in time. Callers treat it exactly like a failed validation: the transaction
// is rolled back.
type ExecError struct {
	Bin string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("validator %s: %v", e.Bin, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Runner invokes the syntax checker.
type Runner struct {
	Bin     string
	Timeout time.Duration
}

// NewRunner creates a Runner for the given binary with the default timeout.
func NewRunner(bin string) *Runner {
	return &Runner{Bin: bin, Timeout: DefaultTimeout}
}

// Verify runs "<bin> -v <mainConfig>" and reports whether the configuration
// passed. The combined subprocess output is returned for failure messages.
// An invocation failure or timeout returns an *ExecError.
func (r *Runner) Verify(ctx context.Context, mainConfig string) (bool, string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.Debug(subsystem, "Running %s -v %s", r.Bin, mainConfig)
	cmd := execCommandContext(ctx, r.Bin, "-v", mainConfig)
	out, err := cmd.CombinedOutput()
	output := string(out)

	if err == nil {
		logging.Info(subsystem, "Configuration check passed")
		return true, output, nil
	}

	if ctx.Err() != nil {
		return false, output, &ExecError{Bin: r.Bin, Err: fmt.Errorf("timed out after %s", timeout)}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logging.Warn(subsystem, "Configuration check failed (exit %d)", exitErr.ExitCode())
		return false, output, nil
	}
	return false, output, &ExecError{Bin: r.Bin, Err: err}
}

// commonBinPaths are checked after PATH when discovering the daemon binary.
var commonBinPaths = []string{
	"/usr/sbin/nagios",
	"/usr/local/sbin/nagios",
	"/usr/local/nagios/bin/nagios",
	"/usr/sbin/nagios4",
	"/usr/sbin/nagios3",
}

// FindBinary locates the Nagios executable via PATH, falling back to common
// installation locations.
func FindBinary() (string, error) {
	if path, err := exec.LookPath("nagios"); err == nil {
		return path, nil
	}
	for _, path := range commonBinPaths {
		if isExecutable(path) {
			return path, nil
		}
	}
	return "", errors.New("could not find nagios executable")
}

// commonConfigPaths are probed when no main configuration path is given.
var commonConfigPaths = []string{
	"/etc/nagios/nagios.cfg",
	"/etc/nagios4/nagios.cfg",
	"/etc/nagios3/nagios.cfg",
	"/usr/local/nagios/etc/nagios.cfg",
}

// FindMainConfig locates nagios.cfg in its conventional locations.
func FindMainConfig() (string, error) {
	for _, path := range commonConfigPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.New("could not find nagios.cfg")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0111 != 0
}
