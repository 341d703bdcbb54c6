// Package conflicts compares a matched ODS record against its PMS counterpart field by field
package conflicts

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

var systemFields = map[string]bool{
	"id":       true,
	"odsId":    true,
	"pmsId":    true,
	"source":   true,
	"created":  true,
	"modified": true,
	"odsType":  true,
}

var fieldSeverity = map[string]models.Severity{
	"email":       models.SeverityHigh,
	"phone":       models.SeverityHigh,
	"dateOfBirth": models.SeverityHigh,
	"abn":         models.SeverityHigh,

	"address":     models.SeverityMedium,
	"suburb":      models.SeverityMedium,
	"postcode":    models.SeverityMedium,
	"tradingName": models.SeverityMedium,

	"middleName":    models.SeverityLow,
	"preferredName": models.SeverityLow,
	"title":         models.SeverityLow,
}

var fieldLabels = map[string]string{
	"firstName":        "First Name",
	"lastName":         "Last Name",
	"middleName":       "Middle Name",
	"preferredName":    "Preferred Name",
	"dateOfBirth":      "Date of Birth",
	"email":            "Email Address",
	"phone":            "Phone Number",
	"address":          "Street Address",
	"suburb":           "Suburb",
	"postcode":         "Postcode",
	"state":            "State",
	"country":          "Country",
	"abn":              "ABN",
	"acn":              "ACN",
	"tradingName":      "Trading Name",
	"organisationName": "Organisation Name",
}

// Detector finds fields whose normalized values disagree. It holds no per-call state.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// DetectConflicts compares primary (ODS) against secondary (PMS). Fields are visited in name order.
// A field is only compared when both sides hold a non-empty scalar.
func (d *Detector) DetectConflicts(primary, secondary entity.Entity) []models.Conflict {
	conflicts := []models.Conflict{}
	if primary == nil || secondary == nil {
		return conflicts
	}

	for _, field := range unionFields(primary, secondary) {
		if conflict, ok := compareField(field, primary[field], secondary[field]); ok {
			conflicts = append(conflicts, conflict)
		}
	}
	return conflicts
}

func unionFields(a, b entity.Entity) []string {
	seen := make(map[string]bool, len(a)+len(b))
	fields := make([]string, 0, len(a)+len(b))
	for _, m := range []entity.Entity{a, b} {
		for k := range m {
			if systemFields[k] || seen[k] {
				continue
			}
			seen[k] = true
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

func compareField(field string, odsValue, pmsValue any) (models.Conflict, bool) {
	if entity.IsFalsy(odsValue) || entity.IsFalsy(pmsValue) {
		return models.Conflict{}, false
	}
	if !isScalar(odsValue) || !isScalar(pmsValue) {
		return models.Conflict{}, false
	}
	if normalizers.Normalize(odsValue) == normalizers.Normalize(pmsValue) {
		return models.Conflict{}, false
	}

	return models.Conflict{
		Field:          field,
		Label:          FieldLabel(field),
		OdsValue:       odsValue,
		PmsValue:       pmsValue,
		Severity:       FieldSeverity(field),
		CanAutoResolve: canAutoResolve(field, odsValue, pmsValue),
	}, true
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any, entity.Entity, []entity.Entity:
		return false
	}
	return true
}

// FieldSeverity is the severity of a disagreement on field.
func FieldSeverity(field string) models.Severity {
	if s, ok := fieldSeverity[field]; ok {
		return s
	}
	return models.SeverityInfo
}

// FieldLabel returns the display label, splitting unknown camelCase names into words.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	var b strings.Builder
	for _, r := range field {
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// canAutoResolve only ever sees values that already differ after Normalize, which strips the same
// separators, zeros and case these rules do. Emitted conflicts therefore report false; keep the rules
// in step with Normalize rather than loosening them here.
func canAutoResolve(field string, odsValue, pmsValue any) bool {
	ods := normalizers.Stringify(odsValue)
	pms := normalizers.Stringify(pmsValue)

	switch field {
	case "phone":
		return normalizers.StripPhoneSeparators(ods) == normalizers.StripPhoneSeparators(pms)
	case "postcode":
		return normalizers.StripLeadingZeros(ods) == normalizers.StripLeadingZeros(pms)
	case "email":
		return strings.ToLower(ods) == strings.ToLower(pms)
	}
	return false
}
