package nagios

import (
	"fmt"
	"sort"
	"strings"
)

// Attribute is one "name value" line of an object definition, in declaration
// order.
type Attribute struct {
	Name  string
	Value string
}

// Block is one parsed "define <type> { ... }" construct. Start and End are
// inclusive 0-based line indexes into the owning file's line arena, covering
// the define line through the closing brace, so edits can be applied as exact
// line-range splices.
type Block struct {
	Type  ObjectType
	Attrs []Attribute
	File  string
	Start int
	End   int
}

// Get returns the value of a named attribute.
func (b *Block) Get(name string) (string, bool) {
	for _, a := range b.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsTemplate reports whether the block is a template definition (register 0).
func (b *Block) IsTemplate() bool {
	v, ok := b.Get("register")
	return ok && strings.TrimSpace(v) == "0"
}

// Matches reports whether every attribute in key is present on the block with
// an equal value.
func (b *Block) Matches(key map[string]string) bool {
	for name, want := range key {
		got, ok := b.Get(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Format renders the block as fresh definition text, one attribute per line.
// Key attributes come first, remaining attributes in sorted order, matching
// how created objects are serialized.
func Format(t ObjectType, attrs map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "define %s {\n", t)

	written := make(map[string]bool)
	for _, name := range append([]string{TemplateKeyAttr}, KeyAttributes(t)...) {
		if v, ok := attrs[name]; ok && !written[name] {
			fmt.Fprintf(&b, "    %s  %s\n", name, v)
			written[name] = true
		}
	}

	rest := make([]string, 0, len(attrs))
	for name := range attrs {
		if !written[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(&b, "    %s  %s\n", name, attrs[name])
	}

	b.WriteString("}\n")
	return b.String()
}

// NormalizeParams converts caller parameters to the attribute model. Values
// must be strings, integers, or nil; nil marks the attribute for removal.
func NormalizeParams(params map[string]interface{}) (map[string]*string, error) {
	out := make(map[string]*string, len(params))
	for name, value := range params {
		switch v := value.(type) {
		case nil:
			out[name] = nil
		case string:
			s := v
			out[name] = &s
		case int:
			s := fmt.Sprintf("%d", v)
			out[name] = &s
		case int64:
			s := fmt.Sprintf("%d", v)
			out[name] = &s
		default:
			return nil, fmt.Errorf("parameter %q must be null, integer or string, got %T", name, value)
		}
	}
	return out, nil
}
