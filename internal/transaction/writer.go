// Package transaction stages configuration file writes and applies them as a
// unit. Every staged file's pre-transaction content is held in memory, so
// rollback never depends on the optional on-disk backups. A durable journal
// written before the first overwrite allows an interrupted run to be repaired
// with Recover.
package transaction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nagctl/pkg/logging"
)

const subsystem = "Transaction"

// entry tracks one staged file. A nil newContent deletes the file on commit;
// a nil original records that the file did not exist before the transaction.
type entry struct {
	path       string
	newContent *string
	original   *string
	mode       os.FileMode
	backupPath string
	written    bool
}

// Writer collects staged writes for one reconciliation and commits or rolls
// them back as a unit. It is consumed exactly once.
type Writer struct {
	id         string
	journalDir string
	entries    []*entry
	byPath     map[string]*entry
	committed  bool
}

// NewWriter creates a Writer. journalDir is where the crash-recovery journal
// is kept; an empty journalDir disables journaling.
func NewWriter(journalDir string) *Writer {
	return &Writer{
		id:         uuid.NewString(),
		journalDir: journalDir,
		byPath:     make(map[string]*entry),
	}
}

// ID returns the transaction identifier.
func (w *Writer) ID() string {
	return w.id
}

// Len returns the number of staged files.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Stage records new content for a file without writing anything. The file's
// current content is captured now so rollback is possible regardless of
// backup settings. Staging the same path again replaces the pending content.
func (w *Writer) Stage(path string, content string) error {
	e, err := w.entryFor(path)
	if err != nil {
		return err
	}
	e.newContent = &content
	return nil
}

// StageDelete records that a file should be removed on commit.
func (w *Writer) StageDelete(path string) error {
	e, err := w.entryFor(path)
	if err != nil {
		return err
	}
	e.newContent = nil
	return nil
}

func (w *Writer) entryFor(path string) (*entry, error) {
	if e, ok := w.byPath[path]; ok {
		return e, nil
	}

	e := &entry{path: path, mode: 0644}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		s := string(data)
		e.original = &s
		if info, statErr := os.Stat(path); statErr == nil {
			e.mode = info.Mode().Perm()
		}
	case errors.Is(err, os.ErrNotExist):
		// new file
	default:
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}

	w.entries = append(w.entries, e)
	w.byPath[path] = e
	return e, nil
}

// Commit writes every staged file, creating parent directories for new files.
// With backup enabled, each pre-existing file is first copied to a
// timestamp-suffixed sibling; backups survive the transaction and are never
// used for rollback. A write failure rolls back the files already written and
// returns the failure.
func (w *Writer) Commit(backup bool) error {
	if w.committed {
		return fmt.Errorf("transaction %s already committed", w.id)
	}

	if err := w.writeJournal(); err != nil {
		return err
	}

	ts := time.Now().Unix()
	for _, e := range w.entries {
		if backup && e.original != nil {
			e.backupPath = fmt.Sprintf("%s.%d.bak", e.path, ts)
			if err := os.WriteFile(e.backupPath, []byte(*e.original), e.mode); err != nil {
				w.revertWritten()
				return fmt.Errorf("backup %s: %w", e.path, err)
			}
		}

		if e.newContent == nil {
			if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				w.revertWritten()
				return fmt.Errorf("remove %s: %w", e.path, err)
			}
		} else {
			if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
				w.revertWritten()
				return fmt.Errorf("create directory for %s: %w", e.path, err)
			}
			if err := os.WriteFile(e.path, []byte(*e.newContent), e.mode); err != nil {
				w.revertWritten()
				return fmt.Errorf("write %s: %w", e.path, err)
			}
		}
		e.written = true
	}

	w.committed = true
	w.removeJournal()
	logging.Info(subsystem, "Committed transaction %s (%d files)", w.id, len(w.entries))
	return nil
}

// Rollback restores every staged file to its pre-transaction content from the
// in-memory originals. Files that did not exist before are removed. It is
// valid both after a failed commit and after a successful commit whose result
// failed validation.
func (w *Writer) Rollback() error {
	var errs []error
	for i := len(w.entries) - 1; i >= 0; i-- {
		e := w.entries[i]
		if err := restore(e); err != nil {
			errs = append(errs, err)
		}
	}
	w.removeJournal()
	w.committed = false
	if len(errs) > 0 {
		return fmt.Errorf("rollback transaction %s: %w", w.id, errors.Join(errs...))
	}
	logging.Info(subsystem, "Rolled back transaction %s (%d files)", w.id, len(w.entries))
	return nil
}

// revertWritten undoes the entries already written during a failing commit.
func (w *Writer) revertWritten() {
	for i := len(w.entries) - 1; i >= 0; i-- {
		e := w.entries[i]
		if !e.written {
			continue
		}
		if err := restore(e); err != nil {
			logging.Error(subsystem, err, "Failed to revert %s during aborted commit", e.path)
		}
		e.written = false
	}
	w.removeJournal()
}

func restore(e *entry) error {
	if e.original == nil {
		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", e.path, err)
		}
		return nil
	}
	if err := os.WriteFile(e.path, []byte(*e.original), e.mode); err != nil {
		return fmt.Errorf("restore %s: %w", e.path, err)
	}
	return nil
}

// Backups returns the backup files created by Commit, in staging order.
func (w *Writer) Backups() []string {
	var paths []string
	for _, e := range w.entries {
		if e.backupPath != "" {
			paths = append(paths, e.backupPath)
		}
	}
	return paths
}

// Paths returns the staged file paths in staging order.
func (w *Writer) Paths() []string {
	paths := make([]string, len(w.entries))
	for i, e := range w.entries {
		paths[i] = e.path
	}
	return paths
}
