package conflicts

import (
	"strings"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

// Analysis summarises a conflict list for review decisions.
type Analysis struct {
	HasConflicts      bool            `json:"hasConflicts"`
	TotalConflicts    int             `json:"totalConflicts"`
	HighSeverity      int             `json:"highSeverity"`
	MediumSeverity    int             `json:"mediumSeverity"`
	LowSeverity       int             `json:"lowSeverity"`
	InfoSeverity      int             `json:"infoSeverity"`
	AutoResolvable    int             `json:"autoResolvable"`
	RequiresReview    bool            `json:"requiresReview"`
	Severity          models.Severity `json:"severity,omitempty"`
	AllAutoResolvable bool            `json:"allAutoResolvable"`
}

// AnalyzeConflicts counts conflicts by severity. Review is required when anything high or medium is present.
func AnalyzeConflicts(conflicts []models.Conflict) Analysis {
	if len(conflicts) == 0 {
		return Analysis{}
	}

	analysis := Analysis{
		HasConflicts:   true,
		TotalConflicts: len(conflicts),
	}

	for _, c := range conflicts {
		switch c.Severity {
		case models.SeverityHigh:
			analysis.HighSeverity++
		case models.SeverityMedium:
			analysis.MediumSeverity++
		case models.SeverityLow:
			analysis.LowSeverity++
		default:
			analysis.InfoSeverity++
		}
		if c.CanAutoResolve {
			analysis.AutoResolvable++
		}
	}

	switch {
	case analysis.HighSeverity > 0:
		analysis.Severity = models.SeverityHigh
		analysis.RequiresReview = true
	case analysis.MediumSeverity > 0:
		analysis.Severity = models.SeverityMedium
		analysis.RequiresReview = true
	case analysis.LowSeverity > 0:
		analysis.Severity = models.SeverityLow
	default:
		analysis.Severity = models.SeverityInfo
	}

	analysis.AllAutoResolvable = analysis.AutoResolvable == analysis.TotalConflicts
	return analysis
}

type Action string

const (
	ActionKeepOds Action = "keepOds"
	ActionUsePms  Action = "usePms"
	ActionMerge   Action = "merge"
	ActionManual  Action = "manual"
)

// ResolutionOption is one way a person can settle a conflict.
type ResolutionOption struct {
	Action      Action `json:"action"`
	Label       string `json:"label"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// ResolutionOptions lists the choices for a conflict: keep, replace, merge when the values overlap,
// and manual entry for high severity fields.
func ResolutionOptions(conflict models.Conflict) []ResolutionOption {
	options := []ResolutionOption{
		{
			Action:      ActionKeepOds,
			Label:       "Keep ShareDo value",
			Value:       conflict.OdsValue,
			Description: "Use the value from ShareDo ODS",
		},
		{
			Action:      ActionUsePms,
			Label:       "Use PMS value",
			Value:       conflict.PmsValue,
			Description: "Update ShareDo with the PMS value",
		},
	}

	ods := normalizers.Stringify(conflict.OdsValue)
	pms := normalizers.Stringify(conflict.PmsValue)
	if canMerge(conflict.Field, ods, pms) {
		options = append(options, ResolutionOption{
			Action:      ActionMerge,
			Label:       "Merge values",
			Value:       longest(ods, pms),
			Description: "Combine both values",
		})
	}

	if conflict.Severity == models.SeverityHigh {
		options = append(options, ResolutionOption{
			Action:      ActionManual,
			Label:       "Enter manually",
			Value:       nil,
			Description: "Specify a custom value",
		})
	}

	return options
}

func canMerge(field, ods, pms string) bool {
	switch field {
	case "address":
		return true
	case "firstName", "lastName":
		return strings.Contains(ods, pms) || strings.Contains(pms, ods)
	}
	return false
}

// longest prefers the PMS value on ties.
func longest(ods, pms string) string {
	if len(ods) > len(pms) {
		return ods
	}
	return pms
}
