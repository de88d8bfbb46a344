package reconcile

import (
	"fmt"

	"nagctl/internal/nagios"
)

// AmbiguousKeyError reports parameters that omit the natural-key attributes
// required to identify an object of the requested type. No write is attempted.
type AmbiguousKeyError struct {
	Type nagios.ObjectType
	Attr string
}

func (e *AmbiguousKeyError) Error() string {
	return fmt.Sprintf("%s parameter must be defined for %s objects", e.Attr, e.Type)
}

// resolveKey derives the identifying attribute set from caller parameters.
// Template objects (register 0) are keyed by their "name" attribute; other
// objects by the natural key of their type, with every supplied compound-key
// attribute participating in the lookup.
func resolveKey(t nagios.ObjectType, params map[string]*string) (map[string]string, error) {
	if isTemplate(params) {
		name := params[nagios.TemplateKeyAttr]
		if name == nil {
			return nil, &AmbiguousKeyError{Type: t, Attr: nagios.TemplateKeyAttr}
		}
		return map[string]string{nagios.TemplateKeyAttr: *name}, nil
	}

	for _, attr := range nagios.RequiredKeyAttributes(t) {
		if params[attr] == nil {
			return nil, &AmbiguousKeyError{Type: t, Attr: attr}
		}
	}

	key := make(map[string]string)
	for _, attr := range nagios.KeyAttributes(t) {
		if v := params[attr]; v != nil {
			key[attr] = *v
		}
	}
	if len(key) == 0 {
		return nil, &AmbiguousKeyError{Type: t, Attr: nagios.KeyAttributes(t)[0]}
	}
	return key, nil
}

func isTemplate(params map[string]*string) bool {
	v := params["register"]
	return v != nil && *v == "0"
}

// keyAttrsForCreate lists the attributes that must be present when building a
// new object definition.
func keyAttrsForCreate(t nagios.ObjectType, params map[string]*string) []string {
	if isTemplate(params) {
		return []string{nagios.TemplateKeyAttr}
	}
	return nagios.RequiredKeyAttributes(t)
}
