// Package editor applies block-level edits to configuration files: creating
// definition stanzas, merging attribute deltas into existing blocks, and
// removing blocks with cascading reference cleanup. Edits are exact
// line-range splices against the file's line arena, so every untouched line
// survives byte-for-byte.
package editor

import (
	"fmt"
	"sort"
	"strings"

	"nagctl/internal/configstore"
	"nagctl/internal/nagios"
	"nagctl/pkg/logging"
)

const subsystem = "Editor"

// ValidationError reports a create request whose required identifying
// attributes are missing or null.
type ValidationError struct {
	Type nagios.ObjectType
	Attr string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s attribute must be defined for %s objects", e.Attr, e.Type)
}

// Build validates the parameters for a new object and renders its definition
// text. Nil-valued parameters are skipped; a nil or absent required key
// attribute is a ValidationError.
func Build(t nagios.ObjectType, params map[string]*string, keyAttrs []string) (string, error) {
	attrs := make(map[string]string, len(params))
	for name, value := range params {
		if value != nil {
			attrs[name] = *value
		}
	}
	for _, name := range keyAttrs {
		if _, ok := attrs[name]; !ok {
			return "", &ValidationError{Type: t, Attr: name}
		}
	}
	return nagios.Format(t, attrs), nil
}

// Merge applies an attribute delta to an existing block in place. A nil delta
// value removes the attribute line when present; a non-nil value replaces the
// line's value portion, or appends a new line before the closing brace when
// the attribute is absent. Returns false when the merge leaves the file text
// byte-identical.
func Merge(f *configstore.File, b *nagios.Block, delta map[string]*string) (bool, error) {
	before := f.Content()

	names := make([]string, 0, len(delta))
	for name := range delta {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := delta[name]
		idx := attrLineIndex(f.Lines, b, name)

		switch {
		case value == nil:
			if idx >= 0 {
				f.Lines = append(f.Lines[:idx], f.Lines[idx+1:]...)
				b.End--
			}
		case idx >= 0:
			f.Lines[idx] = replaceValue(f.Lines[idx], name, *value)
		default:
			line := fmt.Sprintf("    %s  %s", name, *value)
			f.Lines = append(f.Lines[:b.End], append([]string{line}, f.Lines[b.End:]...)...)
			b.End++
		}
	}

	if f.Content() == before {
		return false, nil
	}
	if err := f.Reparse(); err != nil {
		return false, err
	}
	logging.Debug(subsystem, "Merged %d attribute(s) into %s block in %s", len(delta), b.Type, f.Path)
	return true, nil
}

// Remove splices the block's line range out of its file and reports whether
// the file is left without any content. Whether such a file is kept or
// deleted is the caller's policy.
func Remove(f *configstore.File, b *nagios.Block) (empty bool, err error) {
	f.Lines = append(f.Lines[:b.Start], f.Lines[b.End+1:]...)
	if err := f.Reparse(); err != nil {
		return false, err
	}
	logging.Debug(subsystem, "Removed %s block from %s", b.Type, f.Path)
	return strings.TrimSpace(f.Content()) == "", nil
}

// CascadeDelete strips every reference to a deleted object from member-list
// attributes across the store. It returns the files it modified. References
// are re-resolved after each edit so line spans stay accurate.
func CascadeDelete(store *configstore.Store, t nagios.ObjectType, name string) ([]*configstore.File, error) {
	touched := make(map[string]*configstore.File)

	for {
		refs := store.FindReferencing(t, name)
		if len(refs) == 0 {
			break
		}
		ref := refs[0]
		f := store.File(ref.Block.File)
		if f == nil {
			return nil, fmt.Errorf("referencing file %s not loaded", ref.Block.File)
		}
		if err := stripListEntry(f, ref.Block, ref.Attr, name); err != nil {
			return nil, err
		}
		touched[f.Path] = f
		logging.Debug(subsystem, "Removed %s from %s.%s in %s", name, ref.Block.Type, ref.Attr, f.Path)
	}

	files := make([]*configstore.File, 0, len(touched))
	for _, f := range store.Files {
		if touched[f.Path] == f {
			files = append(files, f)
		}
	}
	return files, nil
}

// stripListEntry removes name from a block's comma-separated attribute list,
// preserving the order of the remaining entries. An emptied list drops the
// whole attribute line.
func stripListEntry(f *configstore.File, b *nagios.Block, attr, name string) error {
	idx := attrLineIndex(f.Lines, b, attr)
	if idx < 0 {
		return fmt.Errorf("attribute %s not found in %s block at %s:%d", attr, b.Type, f.Path, b.Start+1)
	}

	current, _ := b.Get(attr)
	var remaining []string
	for _, item := range strings.Split(current, ",") {
		if s := strings.TrimSpace(item); s != "" && s != name {
			remaining = append(remaining, s)
		}
	}

	if len(remaining) == 0 {
		f.Lines = append(f.Lines[:idx], f.Lines[idx+1:]...)
	} else {
		f.Lines[idx] = replaceValue(f.Lines[idx], attr, strings.Join(remaining, ","))
	}
	return f.Reparse()
}

// attrLineIndex finds the line within the block's span whose first field is
// the attribute name. Returns -1 when the attribute has no line.
func attrLineIndex(lines []string, b *nagios.Block, name string) int {
	for i := b.Start + 1; i < b.End && i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if c := strings.Index(line, ";"); c >= 0 {
			line = strings.TrimSpace(line[:c])
		}
		if line == "" {
			continue
		}
		field := line
		if sep := strings.IndexAny(line, " \t"); sep >= 0 {
			field = line[:sep]
		}
		if field == name {
			return i
		}
	}
	return -1
}

// replaceValue rewrites the value portion of an attribute line, keeping the
// indentation, attribute name, separator, and any trailing comment intact.
func replaceValue(raw, name, newValue string) string {
	i := strings.Index(raw, name)
	if i < 0 {
		return raw
	}
	rest := raw[i+len(name):]

	j := 0
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
		j++
	}
	prefix := raw[:i+len(name)+j]
	tail := rest[j:]

	suffix := ""
	if k := strings.Index(tail, ";"); k >= 0 {
		ws := k
		for ws > 0 && (tail[ws-1] == ' ' || tail[ws-1] == '\t') {
			ws--
		}
		suffix = tail[ws:]
	}

	if j == 0 && newValue != "" {
		prefix += "  "
	}
	return prefix + newValue + suffix
}
