package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nagctl/pkg/logging"
)

// journalPrefix names journal files so Recover can find them.
const journalPrefix = "nagctl-txn-"

// journalEntry is the durable record of one staged file's prior state.
type journalEntry struct {
	Path     string `json:"path"`
	Existed  bool   `json:"existed"`
	Original string `json:"original,omitempty"`
	Mode     uint32 `json:"mode"`
}

// journalRecord is the on-disk journal document. It holds enough to restore
// every file a transaction was about to overwrite, closing the window where
// an interruption between commit and validation strands a half-applied tree.
type journalRecord struct {
	ID      string         `json:"id"`
	Started time.Time      `json:"started"`
	Entries []journalEntry `json:"entries"`
}

func (w *Writer) journalPath() string {
	return filepath.Join(w.journalDir, journalPrefix+w.id+".json")
}

// writeJournal persists the pre-transaction state before any file is
// overwritten. The journal is written to a temp file and renamed into place.
func (w *Writer) writeJournal() error {
	if w.journalDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.journalDir, 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	rec := journalRecord{ID: w.id, Started: time.Now()}
	for _, e := range w.entries {
		je := journalEntry{Path: e.path, Mode: uint32(e.mode)}
		if e.original != nil {
			je.Existed = true
			je.Original = *e.original
		}
		rec.Entries = append(rec.Entries, je)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}

	tmp := w.journalPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	if err := os.Rename(tmp, w.journalPath()); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

func (w *Writer) removeJournal() {
	if w.journalDir == "" {
		return
	}
	if err := os.Remove(w.journalPath()); err != nil && !os.IsNotExist(err) {
		logging.Warn(subsystem, "Failed to remove journal %s: %v", w.journalPath(), err)
	}
}

// Recover restores the original file contents recorded by any journals left
// behind by interrupted transactions, then removes the journals. It returns
// the number of transactions repaired.
func Recover(journalDir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(journalDir, journalPrefix+"*.json"))
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return repaired, fmt.Errorf("read journal %s: %w", path, err)
		}
		var rec journalRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return repaired, fmt.Errorf("decode journal %s: %w", path, err)
		}

		for _, je := range rec.Entries {
			if !je.Existed {
				if err := os.Remove(je.Path); err != nil && !os.IsNotExist(err) {
					return repaired, fmt.Errorf("recover %s: %w", je.Path, err)
				}
				continue
			}
			mode := os.FileMode(je.Mode)
			if mode == 0 {
				mode = 0644
			}
			if err := os.WriteFile(je.Path, []byte(je.Original), mode); err != nil {
				return repaired, fmt.Errorf("recover %s: %w", je.Path, err)
			}
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return repaired, fmt.Errorf("remove journal %s: %w", path, err)
		}
		logging.Info(subsystem, "Recovered interrupted transaction %s (%d files)", rec.ID, len(rec.Entries))
		repaired++
	}
	return repaired, nil
}
