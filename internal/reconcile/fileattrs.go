package reconcile

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// FileAttrs is the injected capability that applies filesystem attributes
// (owner, group, mode) to files after they are written. The reconciliation
// core never applies attributes itself, so tests can run without touching
// real ownership.
type FileAttrs interface {
	Apply(path string) error
}

// NoopFileAttrs leaves files exactly as written.
type NoopFileAttrs struct{}

func (NoopFileAttrs) Apply(string) error { return nil }

// OwnerGroupMode applies any combination of owner, group, and permission
// mode. Empty fields are skipped.
type OwnerGroupMode struct {
	Owner string
	Group string
	Mode  string
	// Follow resolves symlinks before changing ownership; when false the
	// link itself is changed.
	Follow bool
}

// IsZero reports whether no attribute is set.
func (a OwnerGroupMode) IsZero() bool {
	return a.Owner == "" && a.Group == "" && a.Mode == ""
}

func (a OwnerGroupMode) Apply(path string) error {
	if a.Mode != "" {
		mode, err := strconv.ParseUint(a.Mode, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid mode %q: %w", a.Mode, err)
		}
		if err := os.Chmod(path, os.FileMode(mode)); err != nil {
			return err
		}
	}

	uid, gid := -1, -1
	if a.Owner != "" {
		u, err := user.Lookup(a.Owner)
		if err != nil {
			return fmt.Errorf("lookup owner %q: %w", a.Owner, err)
		}
		uid, _ = strconv.Atoi(u.Uid)
	}
	if a.Group != "" {
		g, err := user.LookupGroup(a.Group)
		if err != nil {
			return fmt.Errorf("lookup group %q: %w", a.Group, err)
		}
		gid, _ = strconv.Atoi(g.Gid)
	}
	if uid != -1 || gid != -1 {
		chown := os.Lchown
		if a.Follow {
			chown = os.Chown
		}
		if err := chown(path, uid, gid); err != nil {
			return err
		}
	}
	return nil
}
