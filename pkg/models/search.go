package models

import "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"

// EntityType is the search filter: a single kind or all kinds.
type EntityType string

const (
	EntityTypeAll          EntityType = "all"
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganisation EntityType = "organisation"
)

// Kinds expands the filter into the entity kinds to query.
func (t EntityType) Kinds() []entity.Kind {
	switch t {
	case EntityTypePerson:
		return []entity.Kind{entity.KindPerson}
	case EntityTypeOrganisation:
		return []entity.Kind{entity.KindOrganisation}
	}
	return []entity.Kind{entity.KindPerson, entity.KindOrganisation}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query      string     `json:"query" query:"query" validate:"max=200"`
	EntityType EntityType `json:"entityType" query:"entityType" validate:"omitempty,oneof=all person organisation"`
	Page       int        `json:"page" query:"page" validate:"min=0"`
	PageSize   int        `json:"pageSize" query:"pageSize" validate:"min=0,max=100"`
	TimeoutMs  int        `json:"timeoutMs" query:"timeoutMs" validate:"min=0,max=60000"`
}

const (
	LegInternal = "ods"
	LegExternal = "pms"

	LegErrorTimeout = "timeout"
	LegErrorFailed  = "error"
)

// LegStatus reports how one side of a search settled.
type LegStatus struct {
	Leg     string `json:"leg"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// SearchResponse is the unified, merged answer to a search.
type SearchResponse struct {
	SearchID   string         `json:"searchId,omitempty"`
	Results    []MergedResult `json:"results"`
	OdsCount   int            `json:"odsCount"`
	PmsCount   int            `json:"pmsCount"`
	TotalCount int            `json:"totalCount"`
	Warnings   []MatchWarning `json:"warnings,omitempty"`
	Legs       []LegStatus    `json:"legs"`
}

// MergeRequest is the body of POST /api/v1/merge.
type MergeRequest struct {
	Internal ResultSet         `json:"internal"`
	External ResultSet         `json:"external"`
	Labels   map[string]string `json:"labels,omitempty"`
}
