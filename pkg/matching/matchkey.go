// Package matching derives the exact-match keys used to pair ODS and PMS records
package matching

import (
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

const (
	personPrefix  = "person:"
	orgABNPrefix  = "org:abn:"
	orgNamePrefix = "org:name:"
)

// GenerateMatchKey returns the key under which two records of the same real-world entity collide.
//
// Persons key on first name, surname and date of birth, falling back to email when no date of
// birth is known. Organisations key on ABN (or company number) and fall back to the name.
// Keys are exact: records that differ after normalization never share a key.
func GenerateMatchKey(e entity.Entity) string {
	if entity.Classify(e) == entity.KindPerson {
		first := normalizers.Normalize(e["firstName"])
		last := normalizers.Normalize(firstPresent(e, "surname", "lastName"))

		if dob := e.String("dateOfBirth"); dob != "" {
			return personPrefix + first + ":" + last + ":" + dob
		}
		return personPrefix + first + ":" + last + ":" + normalizers.Normalize(e["email"])
	}

	abn := normalizers.RemoveWhitespace(e.First("abn", "companyNumber"))
	if abn != "" {
		return orgABNPrefix + abn
	}
	return orgNamePrefix + normalizers.Normalize(firstPresent(e, "name", "organisationName", "registeredName"))
}

// firstPresent returns the first truthy raw value among keys.
func firstPresent(e entity.Entity, keys ...string) any {
	for _, k := range keys {
		if e.Has(k) {
			return e[k]
		}
	}
	return nil
}
