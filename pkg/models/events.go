package models

import "time"

// Event types published to the event bus.
const (
	EventSearchCompleted = "search.completed"
	EventEntityImported  = "entity.imported"
	EventMatchAmbiguous  = "match.ambiguous"
)

// ImportLink ties a newly created ODS record to the external record it came from.
type ImportLink struct {
	OdsID              string `json:"odsId"`
	ExternalID         string `json:"externalId"`
	ProviderSystemName string `json:"providerSystemName"`
	EntityType         string `json:"entityType"`
	DisplayName        string `json:"displayName"`
}

type EntityImportedEvent struct {
	TenantID  string     `json:"tenantId,omitempty"`
	SearchID  string     `json:"searchId,omitempty"`
	Link      ImportLink `json:"link"`
	Duplicate bool       `json:"duplicate"`
	Timestamp time.Time  `json:"timestamp"`
}

type SearchCompletedEvent struct {
	SearchID   string      `json:"searchId"`
	TenantID   string      `json:"tenantId,omitempty"`
	Query      string      `json:"query"`
	EntityType EntityType  `json:"entityType"`
	OdsCount   int         `json:"odsCount"`
	PmsCount   int         `json:"pmsCount"`
	TotalCount int         `json:"totalCount"`
	Warnings   int         `json:"warnings"`
	Legs       []LegStatus `json:"legs"`
	DurationMs int64       `json:"durationMs"`
	Timestamp  time.Time   `json:"timestamp"`
}

type MatchAmbiguousEvent struct {
	SearchID  string       `json:"searchId,omitempty"`
	TenantID  string       `json:"tenantId,omitempty"`
	Warning   MatchWarning `json:"warning"`
	Timestamp time.Time    `json:"timestamp"`
}
