// Package configstore indexes the Nagios configuration file tree. It resolves
// cfg_file/cfg_dir include directives from the main configuration, parses
// every object file into blocks with line provenance, and offers lookup by
// natural key and by reference.
package configstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"nagctl/internal/nagios"
	"nagctl/pkg/logging"
)

const subsystem = "Store"

// parseConcurrency bounds the number of files parsed in parallel during Load.
const parseConcurrency = 8

// File is one configuration file: its path, raw line arena, and the blocks
// parsed out of it. Unparsed text (comments, blank lines) lives only in the
// arena and is reproduced verbatim on serialization.
type File struct {
	Path   string
	Lines  []string
	Blocks []*nagios.Block
}

// Content reassembles the file text byte-for-byte.
func (f *File) Content() string {
	return nagios.JoinLines(f.Lines)
}

// Reparse rebuilds the file's block index after its lines changed.
func (f *File) Reparse() error {
	blocks, err := nagios.ParseBlocks(f.Path, f.Lines)
	if err != nil {
		return &ParseError{Path: f.Path, Err: err}
	}
	f.Blocks = blocks
	return nil
}

// Store is the indexed configuration tree for one reconciliation run. It is
// rebuilt from disk on every invocation; nothing is cached across runs.
type Store struct {
	MainConfig string
	Dir        string
	Files      []*File

	byPath map[string]*File
}

// Reference pairs a block with the attribute through which it references
// another object by name.
type Reference struct {
	Block *nagios.Block
	Attr  string
}

// Load builds a Store by resolving include directives from the main Nagios
// configuration file and parsing every referenced object file.
func Load(ctx context.Context, mainConfig string) (*Store, error) {
	data, err := os.ReadFile(mainConfig)
	if err != nil {
		return nil, &ParseError{Path: mainConfig, Err: err}
	}

	dir := filepath.Dir(mainConfig)
	paths, err := resolveIncludes(string(data), dir)
	if err != nil {
		return nil, &ParseError{Path: mainConfig, Err: err}
	}

	store := &Store{MainConfig: mainConfig, Dir: dir}
	if err := store.parseAll(ctx, paths); err != nil {
		return nil, err
	}
	logging.Info(subsystem, "Loaded %d config files from %s", len(store.Files), mainConfig)
	return store, nil
}

// LoadDir builds a Store directly from a directory tree of .cfg files,
// without a main configuration file.
func LoadDir(ctx context.Context, dir string) (*Store, error) {
	paths, err := collectCfgFiles(dir)
	if err != nil {
		return nil, &ParseError{Path: dir, Err: err}
	}

	store := &Store{Dir: dir}
	if err := store.parseAll(ctx, paths); err != nil {
		return nil, err
	}
	logging.Info(subsystem, "Loaded %d config files under %s", len(store.Files), dir)
	return store, nil
}

// resolveIncludes extracts cfg_file and cfg_dir directives, resolving
// relative paths against the main config's directory and expanding cfg_dir
// recursively into its .cfg files.
func resolveIncludes(mainConfig string, baseDir string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, raw := range strings.Split(mainConfig, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if value != "" && !filepath.IsAbs(value) {
			value = filepath.Join(baseDir, value)
		}

		switch name {
		case "cfg_file":
			add(value)
		case "cfg_dir":
			files, err := collectCfgFiles(value)
			if err != nil {
				return nil, fmt.Errorf("cfg_dir %s: %w", value, err)
			}
			for _, f := range files {
				add(f)
			}
		}
	}

	return paths, nil
}

// collectCfgFiles walks a directory recursively and returns all .cfg files.
func collectCfgFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".cfg") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// parseAll reads and parses every file, bounded-concurrently. All reads
// complete before the store is returned; nothing writes during a load.
func (s *Store) parseAll(ctx context.Context, paths []string) error {
	files := make([]*File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &ParseError{Path: path, Err: err}
			}
			f := &File{Path: path, Lines: nagios.SplitLines(string(data))}
			if err := f.Reparse(); err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.Files = files
	s.byPath = make(map[string]*File, len(files))
	for _, f := range files {
		s.byPath[f.Path] = f
	}
	return nil
}

// File returns the loaded file at path, or nil.
func (s *Store) File(path string) *File {
	return s.byPath[path]
}

// Find locates the block of the given type whose attributes match every
// entry of key. It returns nil when no block matches and an error when the
// key is ambiguous (more than one match).
func (s *Store) Find(t nagios.ObjectType, key map[string]string) (*nagios.Block, error) {
	var found *nagios.Block
	for _, f := range s.Files {
		for _, b := range f.Blocks {
			if b.Type != t || !b.Matches(key) {
				continue
			}
			if found != nil {
				return nil, fmt.Errorf("more than one %s object matches %v", t, key)
			}
			found = b
		}
	}
	return found, nil
}

// FindReferencing returns every (block, attribute) pair whose comma-separated
// value list mentions name, restricted to the reference-bearing attributes
// for the deleted object's type.
func (s *Store) FindReferencing(t nagios.ObjectType, name string) []Reference {
	attrs := nagios.ReferenceAttrsFor(t)
	if len(attrs) == 0 {
		return nil
	}

	var refs []Reference
	for _, f := range s.Files {
		for _, b := range f.Blocks {
			for _, ra := range attrs {
				if b.Type != ra.Type {
					continue
				}
				value, ok := b.Get(ra.Attr)
				if !ok {
					continue
				}
				if listContains(value, name) {
					refs = append(refs, Reference{Block: b, Attr: ra.Attr})
				}
			}
		}
	}
	return refs
}

// listContains reports whether a comma-separated list includes name as a
// whole element.
func listContains(list, name string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == name {
			return true
		}
	}
	return false
}
