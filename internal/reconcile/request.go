package reconcile

import (
	"fmt"
	"time"

	"nagctl/internal/nagios"
)

// State declares whether the object should exist.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// ParseState validates a state value, defaulting empty to present.
func ParseState(s string) (State, error) {
	switch State(s) {
	case "", StatePresent:
		return StatePresent, nil
	case StateAbsent:
		return StateAbsent, nil
	default:
		return "", fmt.Errorf("invalid state %q: must be 'present' or 'absent'", s)
	}
}

// Request describes one reconciliation: the desired object and the options
// controlling how the change is written and checked.
type Request struct {
	// Type is the Nagios object type.
	Type nagios.ObjectType
	// Parameters maps attribute names to string, integer, or nil values;
	// nil removes the attribute from an existing object.
	Parameters map[string]interface{}
	// State is present (default) or absent.
	State State
	// Update controls whether an existing object is modified. When false an
	// existing object is left untouched and reported unchanged.
	Update bool
	// Path is the target file for a newly created object. Empty selects
	// <config-dir>/pynag/<type>/<description>.cfg.
	Path string
	// NagiosCfg is the main configuration file. Empty triggers discovery,
	// unless ConfigDir is set.
	NagiosCfg string
	// ConfigDir scans a directory tree directly instead of resolving
	// includes from NagiosCfg.
	ConfigDir string
	// NagiosBin is the daemon executable used for validation. Empty
	// triggers discovery when Validate is set.
	NagiosBin string
	// Validate runs the external syntax check after commit and rolls back
	// on failure.
	Validate bool
	// Backup copies each modified file to a timestamped sibling before
	// overwriting it.
	Backup bool
	// ValidateTimeout bounds the validator subprocess; zero means the
	// default.
	ValidateTimeout time.Duration
	// DeleteEmptyFiles removes a file left without content after its last
	// block is deleted. The default keeps the empty file.
	DeleteEmptyFiles bool
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Changed reports whether any file content changed.
	Changed bool
	// Failed reports that the operation did not succeed.
	Failed bool
	// Reverted reports that a committed change was rolled back after a
	// failed validation.
	Reverted bool
	// Message is the human-readable outcome.
	Message string
	// Path is the file that defines (or defined) the object.
	Path string
	// Backups lists backup files created during commit.
	Backups []string
}

// failure builds a failed Result with a formatted message.
func failure(format string, args ...interface{}) Result {
	return Result{Failed: true, Message: fmt.Sprintf(format, args...)}
}
