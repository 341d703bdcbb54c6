package models

import (
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
)

// Source records which system(s) a merged result came from.
type Source string

const (
	SourceShareDo  Source = "sharedo"
	SourcePMS      Source = "pms"
	SourceExternal Source = "external"
	SourceMatched  Source = "matched"
)

// MatchType records how an external record was paired with an internal one.
type MatchType string

const (
	MatchTypeNone      MatchType = ""
	MatchTypeKey       MatchType = "key"
	MatchTypeReference MatchType = "reference"
)

// MergedResult is the single unified view of one real-world entity.
type MergedResult struct {
	ID                 string        `json:"id"`
	Source             Source        `json:"source"`
	SourceLabel        string        `json:"sourceLabel"`
	OdsID              string        `json:"odsId,omitempty"`
	PmsID              string        `json:"pmsId,omitempty"`
	ProviderSystemName string        `json:"providerSystemName,omitempty"`
	OdsType            string        `json:"odsType,omitempty"`
	Reference          string        `json:"reference,omitempty"`
	MatchKey           string        `json:"matchKey"`
	MatchType          MatchType     `json:"matchType,omitempty"`
	DisplayName        string        `json:"displayName"`
	Icon               string        `json:"icon"`
	Data               entity.Entity `json:"data,omitempty"`
	PmsData            entity.Entity `json:"pmsData,omitempty"`
	HasConflicts       bool          `json:"hasConflicts"`
	Conflicts          []Conflict    `json:"conflicts,omitempty"`
	PairFingerprint    string        `json:"pairFingerprint,omitempty"`

	PrimaryEmail     string `json:"primaryEmail,omitempty"`
	PrimaryPhone     string `json:"primaryPhone,omitempty"`
	FormattedAddress string `json:"formattedAddress,omitempty"`
	SourceClass      string `json:"sourceClass,omitempty"`
}

// IsInternal reports whether the result already exists in the ODS.
func (m MergedResult) IsInternal() bool {
	return m.Source == SourceShareDo || m.Source == SourceMatched
}

// Severity ranks how much a conflicting field matters.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// Rank orders severities from info (1) to high (4). Unknown is 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Conflict is one field whose values disagree between the ODS and PMS records.
type Conflict struct {
	Field          string   `json:"field"`
	Label          string   `json:"label"`
	OdsValue       any      `json:"odsValue"`
	PmsValue       any      `json:"pmsValue"`
	Severity       Severity `json:"severity"`
	CanAutoResolve bool     `json:"canAutoResolve"`
}

// MatchWarning flags an external record whose reference and key pointed at different internal results.
type MatchWarning struct {
	Kind               string `json:"kind"`
	ExternalID         string `json:"externalId"`
	ProviderSystemName string `json:"providerSystemName,omitempty"`
	ReferenceMatchID   string `json:"referenceMatchId,omitempty"`
	KeyMatchID         string `json:"keyMatchId,omitempty"`
	ReferenceMatchOds  string `json:"referenceMatchOdsId,omitempty"`
	KeyMatchOds        string `json:"keyMatchOdsId,omitempty"`
	MatchKey           string `json:"matchKey,omitempty"`
	Fingerprint        string `json:"fingerprint,omitempty"`
	Message            string `json:"message"`
}

const (
	WarningReferenceKeyMismatch = "reference_key_mismatch"
	WarningAlreadyMatched       = "already_matched"
)

// MergeOutcome is everything one merge call produced.
type MergeOutcome struct {
	Results  []MergedResult `json:"results"`
	Warnings []MatchWarning `json:"warnings"`
	Skipped  int            `json:"skipped"`
}
