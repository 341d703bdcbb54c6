// Package entity describes the person and organisation records exchanged with the ODS and PMS systems.
package entity

import (
	"strings"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

// Entity is a decoded JSON object for a person or organisation.
type Entity map[string]any

// Kind is the closed set of entity variants.
type Kind string

const (
	KindPerson       Kind = "person"
	KindOrganisation Kind = "organisation"
)

func (k Kind) String() string {
	return string(k)
}

// ParseKind maps a loose type string onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "people", "individual":
		return KindPerson, true
	case "organisation", "organization", "organisations", "org", "company":
		return KindOrganisation, true
	}
	return "", false
}

// Classify decides whether e is a person or an organisation.
func Classify(e Entity) Kind {
	if e.String("odsEntityType") == string(KindPerson) || e.String("odsType") == string(KindPerson) {
		return KindPerson
	}
	if e.String("firstName") != "" || e.String("lastName") != "" || e.String("surname") != "" {
		return KindPerson
	}
	return KindOrganisation
}

// String returns the field as a string, or "" when it is absent or not a scalar.
func (e Entity) String(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return normalizers.Stringify(v)
}

// First returns the first non-empty string among keys.
func (e Entity) First(keys ...string) string {
	for _, k := range keys {
		if s := e.String(k); s != "" {
			return s
		}
	}
	return ""
}

// Has reports whether key holds a truthy value.
func (e Entity) Has(key string) bool {
	v, ok := e[key]
	return ok && !IsFalsy(v)
}

// Clone returns a shallow copy.
func (e Entity) Clone() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Reference is the identifier another system uses for this record.
func (e Entity) Reference() string {
	return e.First("reference", "Reference")
}

func (e Entity) ID() string {
	return e.String("id")
}

// IsFalsy reports nil, "", false and numeric zero.
func IsFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case int32:
		return t == 0
	}
	return false
}

// DisplayName is the human label shown for a record.
func DisplayName(e Entity) string {
	if Classify(e) == KindPerson {
		first := e.String("firstName")
		last := e.First("surname", "lastName")
		name := strings.TrimSpace(first + " " + last)
		if name == "" {
			return "Unknown Person"
		}
		return name
	}

	if name := e.First("name", "organisationName", "registeredName", "tradingName"); name != "" {
		return name
	}
	return "Unknown Organisation"
}

// Icon is the font-awesome class for the record kind.
func Icon(e Entity) string {
	if Classify(e) == KindPerson {
		return "fa-user"
	}
	return "fa-building"
}
