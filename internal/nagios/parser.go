package nagios

import (
	"fmt"
	"strings"
)

// SplitLines breaks file content into the line arena used for block
// provenance. Joining the result with "\n" reproduces the content
// byte-for-byte; a trailing newline shows up as a final empty element.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// ParseBlocks scans a file's line arena for define blocks. Lines outside
// blocks (comments, blank lines, directives) are not modeled; they stay in
// the arena untouched. Blocks with a type outside the known set are parsed
// but never matched by lookups.
func ParseBlocks(path string, lines []string) ([]*Block, error) {
	var blocks []*Block
	var current *Block

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if current == nil {
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
				continue
			}
			if !strings.HasPrefix(line, "define") {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(line, "define"))
			if !strings.HasSuffix(rest, "{") {
				return nil, fmt.Errorf("%s:%d: malformed define line %q", path, i+1, line)
			}
			typeName := strings.TrimSpace(strings.TrimSuffix(rest, "{"))
			if typeName == "" {
				return nil, fmt.Errorf("%s:%d: define block without a type", path, i+1)
			}
			current = &Block{
				Type:  ObjectType(typeName),
				File:  path,
				Start: i,
			}
			continue
		}

		if line == "}" {
			current.End = i
			blocks = append(blocks, current)
			current = nil
			continue
		}

		// Attribute line. Anything after an unescaped semicolon is a comment.
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		name, value := line, ""
		if sep := strings.IndexAny(line, " \t"); sep >= 0 {
			name, value = line[:sep], strings.TrimSpace(line[sep:])
		}
		current.Attrs = append(current.Attrs, Attribute{Name: name, Value: value})
	}

	if current != nil {
		return nil, fmt.Errorf("%s:%d: unterminated define %s block", path, current.Start+1, current.Type)
	}
	return blocks, nil
}
