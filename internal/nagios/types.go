// Package nagios models Nagios object definitions: the closed set of object
// types, their natural keys, and the parsed representation of
// "define <type> { ... }" blocks with exact source-line provenance.
package nagios

import (
	"fmt"
	"sort"
	"strings"
)

// ObjectType identifies one of the Nagios object definition types.
type ObjectType string

const (
	TypeHost              ObjectType = "host"
	TypeHostgroup         ObjectType = "hostgroup"
	TypeService           ObjectType = "service"
	TypeServicegroup      ObjectType = "servicegroup"
	TypeContact           ObjectType = "contact"
	TypeContactgroup      ObjectType = "contactgroup"
	TypeTimeperiod        ObjectType = "timeperiod"
	TypeCommand           ObjectType = "command"
	TypeServiceDependency ObjectType = "servicedependency"
	TypeServiceEscalation ObjectType = "serviceescalation"
	TypeHostDependency    ObjectType = "hostdependency"
	TypeHostEscalation    ObjectType = "hostescalation"
)

// AllObjectTypes lists every supported object type in a stable order.
func AllObjectTypes() []ObjectType {
	return []ObjectType{
		TypeHost, TypeHostgroup, TypeService, TypeServicegroup,
		TypeContact, TypeContactgroup, TypeTimeperiod, TypeCommand,
		TypeServiceDependency, TypeServiceEscalation,
		TypeHostDependency, TypeHostEscalation,
	}
}

// ParseObjectType validates a type name against the closed set.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllObjectTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown object type %q", s)
}

// keyAttr is the single identifying attribute for types with a simple key.
var keyAttr = map[ObjectType]string{
	TypeHost:         "host_name",
	TypeHostgroup:    "hostgroup_name",
	TypeServicegroup: "servicegroup_name",
	TypeContact:      "contact_name",
	TypeContactgroup: "contactgroup_name",
	TypeTimeperiod:   "timeperiod_name",
	TypeCommand:      "command_name",
}

// tupleAttrs lists the attributes that together identify types with a
// compound key. Only attributes the caller actually supplies participate in
// the lookup, but requiredKeyAttrs must always be present.
var tupleAttrs = map[ObjectType][]string{
	TypeService: {
		"service_description", "host_name", "hostgroup_name",
	},
	TypeServiceDependency: {
		"host_name", "dependent_host_name",
		"hostgroup_name", "dependent_hostgroup_name",
		"service_description", "dependent_service_description",
		"servicegroup_name", "dependent_servicegroup_name",
	},
	TypeHostDependency: {
		"host_name", "hostgroup_name",
		"dependent_host_name", "dependent_hostgroup_name",
	},
	TypeServiceEscalation: {
		"host_name", "hostgroup_name", "service_description",
	},
	TypeHostEscalation: {
		"host_name", "hostgroup_name",
	},
}

// requiredKeyAttrs are the attributes that must be present in the caller's
// parameters for a lookup or create to be well defined.
var requiredKeyAttrs = map[ObjectType][]string{
	TypeService:           {"service_description"},
	TypeServiceDependency: {},
	TypeHostDependency:    {},
	TypeServiceEscalation: {"host_name"},
	TypeHostEscalation:    {"host_name"},
}

// TemplateKeyAttr identifies template objects (register 0), which are keyed
// by their "name" attribute regardless of type.
const TemplateKeyAttr = "name"

// KeyAttributes returns the identifying attribute names for an object type.
func KeyAttributes(t ObjectType) []string {
	if attr, ok := keyAttr[t]; ok {
		return []string{attr}
	}
	return tupleAttrs[t]
}

// RequiredKeyAttributes returns the subset of KeyAttributes that must be
// present and non-nil in caller parameters.
func RequiredKeyAttributes(t ObjectType) []string {
	if attr, ok := keyAttr[t]; ok {
		return []string{attr}
	}
	return requiredKeyAttrs[t]
}

// Description returns a short human-readable identity for a key set, used for
// default file names and messages: the template name for a template key, the
// simple key value when there is one, otherwise the non-empty tuple values
// joined with "_".
func Description(t ObjectType, key map[string]string) string {
	if name, ok := key[TemplateKeyAttr]; ok {
		return name
	}
	if attr, ok := keyAttr[t]; ok {
		return key[attr]
	}
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		if v := key[name]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "_")
}

// ReferenceAttr names an attribute of a referencing type whose
// comma-separated value list may mention objects of another type by name.
type ReferenceAttr struct {
	Type ObjectType
	Attr string
}

// referenceAttrs maps a deleted object's type to the member-list attributes
// that can reference it. Servicegroup members and command references are
// excluded: the former pair host and service names positionally, the latter
// embed arguments, so neither can be edited safely by bare name.
var referenceAttrs = map[ObjectType][]ReferenceAttr{
	TypeHost: {
		{TypeHost, "parents"},
		{TypeHostgroup, "members"},
		{TypeService, "host_name"},
		{TypeHostDependency, "host_name"},
		{TypeHostDependency, "dependent_host_name"},
		{TypeServiceDependency, "host_name"},
		{TypeServiceDependency, "dependent_host_name"},
		{TypeHostEscalation, "host_name"},
		{TypeServiceEscalation, "host_name"},
	},
	TypeHostgroup: {
		{TypeHost, "hostgroups"},
		{TypeService, "hostgroup_name"},
		{TypeHostDependency, "hostgroup_name"},
		{TypeHostDependency, "dependent_hostgroup_name"},
		{TypeServiceDependency, "hostgroup_name"},
		{TypeServiceDependency, "dependent_hostgroup_name"},
		{TypeHostEscalation, "hostgroup_name"},
		{TypeServiceEscalation, "hostgroup_name"},
	},
	TypeServicegroup: {
		{TypeService, "servicegroups"},
		{TypeServiceDependency, "servicegroup_name"},
		{TypeServiceDependency, "dependent_servicegroup_name"},
	},
	TypeContact: {
		{TypeContactgroup, "members"},
		{TypeHost, "contacts"},
		{TypeService, "contacts"},
		{TypeHostEscalation, "contacts"},
		{TypeServiceEscalation, "contacts"},
	},
	TypeContactgroup: {
		{TypeContact, "contactgroups"},
		{TypeHost, "contact_groups"},
		{TypeService, "contact_groups"},
		{TypeHostEscalation, "contact_groups"},
		{TypeServiceEscalation, "contact_groups"},
	},
}

// ReferenceAttrsFor returns the reference-bearing (type, attribute) pairs for
// objects of the given type. The result may be empty.
func ReferenceAttrsFor(t ObjectType) []ReferenceAttr {
	return referenceAttrs[t]
}
