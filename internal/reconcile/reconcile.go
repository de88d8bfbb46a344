// Package reconcile drives one object reconciliation end to end: locate the
// current definition, compute the minimal edit, stage and commit the file
// writes, optionally run the external syntax check, and roll everything back
// when the check fails.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nagctl/internal/configstore"
	"nagctl/internal/editor"
	"nagctl/internal/nagios"
	"nagctl/internal/transaction"
	"nagctl/internal/validator"
	"nagctl/pkg/logging"
)

const subsystem = "Reconcile"

// Reconciler applies reconciliation requests. The zero value is usable;
// Attrs defaults to a no-op.
type Reconciler struct {
	// Attrs is applied to every touched file after a successful commit.
	Attrs FileAttrs
}

// New creates a Reconciler with the given file-attribute capability.
func New(attrs FileAttrs) *Reconciler {
	if attrs == nil {
		attrs = NoopFileAttrs{}
	}
	return &Reconciler{Attrs: attrs}
}

// Apply runs one reconciliation. The configuration tree is re-read from disk,
// the desired state is compared against it, and any change is committed as a
// single transaction. The returned Result always describes the outcome; the
// tree is left exactly as found unless the Result reports a committed change.
func (r *Reconciler) Apply(ctx context.Context, req Request) Result {
	if r.Attrs == nil {
		r.Attrs = NoopFileAttrs{}
	}

	params, err := nagios.NormalizeParams(req.Parameters)
	if err != nil {
		return failure("%v", err)
	}

	store, err := r.loadStore(ctx, req)
	if err != nil {
		return failure("failed to read Nagios configuration: %v", err)
	}

	key, err := resolveKey(req.Type, params)
	if err != nil {
		return failure("%v", err)
	}
	desc := nagios.Description(req.Type, key)

	block, err := store.Find(req.Type, key)
	if err != nil {
		return failure("failed to check object availability: %v", err)
	}

	w := transaction.NewWriter(store.Dir)

	var result Result
	if req.State == StateAbsent {
		result = r.stageDelete(store, w, req, block, desc)
	} else {
		result = r.stageApply(store, w, req, params, block, desc)
	}
	if result.Failed || !result.Changed {
		return result
	}

	if err := w.Commit(req.Backup); err != nil {
		result = failure("failed to write Nagios object: %v", err)
		result.Path = resultPath(result, w)
		return result
	}
	result.Backups = w.Backups()

	if req.Validate {
		if failed := r.validate(ctx, store, w, req); failed != nil {
			failed.Path = result.Path
			failed.Backups = result.Backups
			return *failed
		}
	}

	for _, path := range w.Paths() {
		if err := r.Attrs.Apply(path); err != nil {
			result.Failed = true
			result.Message = fmt.Sprintf("failed to apply file attributes to %s: %v", path, err)
			return result
		}
	}

	logging.Info(subsystem, "%s", result.Message)
	return result
}

// loadStore builds the config store for this invocation, discovering the
// main configuration file when neither a path nor a directory is given.
func (r *Reconciler) loadStore(ctx context.Context, req Request) (*configstore.Store, error) {
	if req.ConfigDir != "" {
		return configstore.LoadDir(ctx, req.ConfigDir)
	}
	cfg := req.NagiosCfg
	if cfg == "" {
		found, err := validator.FindMainConfig()
		if err != nil {
			return nil, err
		}
		cfg = found
	}
	return configstore.Load(ctx, cfg)
}

// stageApply handles state=present: create the object, merge the delta into
// the existing block, or report no change.
func (r *Reconciler) stageApply(store *configstore.Store, w *transaction.Writer, req Request, params map[string]*string, block *nagios.Block, desc string) Result {
	if block == nil {
		return r.stageCreate(store, w, req, params, desc)
	}

	path := block.File
	if !req.Update {
		return Result{
			Changed: false,
			Message: fmt.Sprintf("%s %s already exists, update disabled", req.Type, desc),
			Path:    path,
		}
	}

	f := store.File(path)
	changed, err := editor.Merge(f, block, params)
	if err != nil {
		return failure("failed to update %s %s: %v", req.Type, desc, err)
	}
	if !changed {
		return Result{
			Changed: false,
			Message: fmt.Sprintf("%s %s already matches the desired parameters", req.Type, desc),
			Path:    path,
		}
	}
	if err := w.Stage(path, f.Content()); err != nil {
		return failure("%v", err)
	}
	return Result{
		Changed: true,
		Message: fmt.Sprintf("%s %s updated in %s", req.Type, desc, path),
		Path:    path,
	}
}

// stageCreate builds a fresh definition and appends it to the target file.
func (r *Reconciler) stageCreate(store *configstore.Store, w *transaction.Writer, req Request, params map[string]*string, desc string) Result {
	text, err := editor.Build(req.Type, params, keyAttrsForCreate(req.Type, params))
	if err != nil {
		return failure("%v", err)
	}

	path := req.Path
	if path == "" {
		path = filepath.Join(store.Dir, "pynag", string(req.Type), desc+".cfg")
	}

	existing, err := currentContent(store, path)
	if err != nil {
		return failure("failed to read %s: %v", path, err)
	}
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	if err := w.Stage(path, existing+text); err != nil {
		return failure("%v", err)
	}
	return Result{
		Changed: true,
		Message: fmt.Sprintf("%s %s created in %s", req.Type, desc, path),
		Path:    path,
	}
}

// currentContent returns the file's present content: the loaded copy when the
// path is part of the store, otherwise whatever is on disk. A create target
// may legitimately live outside the include set, and its content must be
// appended to, never replaced.
func currentContent(store *configstore.Store, path string) (string, error) {
	if f := store.File(path); f != nil {
		return f.Content(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// stageDelete handles state=absent: remove the block and strip references to
// it across the store. state=absent on a missing object is a clean no-op.
func (r *Reconciler) stageDelete(store *configstore.Store, w *transaction.Writer, req Request, block *nagios.Block, desc string) Result {
	if block == nil {
		return Result{
			Changed: false,
			Message: fmt.Sprintf("%s %s is not present", req.Type, desc),
		}
	}

	path := block.File
	f := store.File(path)
	if _, err := editor.Remove(f, block); err != nil {
		return failure("failed to delete %s %s: %v", req.Type, desc, err)
	}

	cascaded, err := editor.CascadeDelete(store, req.Type, desc)
	if err != nil {
		return failure("failed to clean up references to %s %s: %v", req.Type, desc, err)
	}

	// Stage only after all in-memory edits are done: a cascade edit may have
	// touched the deleted block's own file too.
	empty := strings.TrimSpace(f.Content()) == ""
	if empty && req.DeleteEmptyFiles {
		if err := w.StageDelete(path); err != nil {
			return failure("%v", err)
		}
	} else {
		if err := w.Stage(path, f.Content()); err != nil {
			return failure("%v", err)
		}
	}
	for _, cf := range cascaded {
		if cf.Path == path {
			continue
		}
		if err := w.Stage(cf.Path, cf.Content()); err != nil {
			return failure("%v", err)
		}
	}

	msg := fmt.Sprintf("%s %s deleted from %s", req.Type, desc, path)
	if len(cascaded) > 0 {
		msg += fmt.Sprintf(", references removed from %d file(s)", len(cascaded))
	}
	return Result{Changed: true, Message: msg, Path: path}
}

// validate runs the external syntax check against the committed tree and
// rolls everything back on failure. A non-nil return is the failed Result.
func (r *Reconciler) validate(ctx context.Context, store *configstore.Store, w *transaction.Writer, req Request) *Result {
	mainCfg := req.NagiosCfg
	if mainCfg == "" {
		mainCfg = store.MainConfig
	}
	if mainCfg == "" {
		if found, err := validator.FindMainConfig(); err == nil {
			mainCfg = found
		}
	}

	bin := req.NagiosBin
	if bin == "" {
		found, err := validator.FindBinary()
		if err != nil {
			return r.revert(w, "could not find Nagios executable, required by validate: %v", err)
		}
		bin = found
	}
	if mainCfg == "" {
		return r.revert(w, "validation requires a main Nagios configuration file")
	}

	runner := validator.NewRunner(bin)
	if req.ValidateTimeout > 0 {
		runner.Timeout = req.ValidateTimeout
	}

	ok, output, err := runner.Verify(ctx, mainCfg)
	if err != nil {
		return r.revert(w, "validation could not run: %v", err)
	}
	if !ok {
		return r.revert(w, "Nagios configuration validation failed: %s", strings.TrimSpace(output))
	}
	return nil
}

// revert rolls the transaction back and builds the failure Result, always
// reporting that the change was reverted.
func (r *Reconciler) revert(w *transaction.Writer, format string, args ...interface{}) *Result {
	msg := fmt.Sprintf(format, args...)
	if err := w.Rollback(); err != nil {
		logging.Error(subsystem, err, "Rollback after failed validation did not complete")
		msg += fmt.Sprintf(" (rollback incomplete: %v)", err)
	} else {
		msg += "; changes reverted"
	}
	return &Result{Failed: true, Reverted: true, Message: msg}
}

func resultPath(res Result, w *transaction.Writer) string {
	if res.Path != "" {
		return res.Path
	}
	if paths := w.Paths(); len(paths) > 0 {
		return paths[0]
	}
	return ""
}
