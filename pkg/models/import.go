package models

import (
	"time"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
)

// Contact type categories the ODS accepts on create.
const (
	ContactCategoryEmail       = 2100
	ContactCategoryPersonPhone = 2101
	ContactCategoryOrgPhone    = 2102
)

// ContactDetail is one entry of the contactDetails aspect.
type ContactDetail struct {
	ContactTypeCategoryID int    `json:"contactTypeCategoryId" validate:"required"`
	ContactTypeSystemName string `json:"contactTypeSystemName" validate:"required"`
	ContactValue          string `json:"contactValue" validate:"required"`
	IsActive              bool   `json:"isActive"`
	IsPrimary             bool   `json:"isPrimary"`
}

// AspectData holds aspect payloads, each a JSON document encoded as a string.
type AspectData struct {
	FormBuilder        string `json:"formBuilder"`
	ContactDetails     string `json:"contactDetails"`
	ContactPreferences string `json:"contactPreferences,omitempty"`
}

// CreatePayload is the body posted to the ODS aspect create endpoints. Empty fields are omitted.
type CreatePayload struct {
	Tags              []string   `json:"tags"`
	AspectData        AspectData `json:"aspectData"`
	Reference         string     `json:"reference,omitempty"`
	ExternalReference string     `json:"externalReference,omitempty"`

	FirstName           string `json:"firstName,omitempty"`
	Surname             string `json:"surname,omitempty"`
	MiddleNameOrInitial string `json:"middleNameOrInitial,omitempty"`
	PreferredName       string `json:"preferredName,omitempty"`
	DateOfBirth         int    `json:"dateOfBirth,omitempty"`

	OrganisationName string `json:"organisationName,omitempty"`
	TradingName      string `json:"tradingName,omitempty"`
	ABN              string `json:"abn,omitempty"`
	ACN              string `json:"acn,omitempty"`

	PostalAddress  string `json:"postalAddress,omitempty"`
	PostalSuburb   string `json:"postalSuburb,omitempty"`
	PostalState    string `json:"postalState,omitempty"`
	PostalPostcode string `json:"postalPostcode,omitempty"`
	PostalCountry  string `json:"postalCountry,omitempty"`
}

// FieldError is a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned by entity validation.
type ValidationResult struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

// ValidateRequest is the body of POST /api/v1/import/validate.
type ValidateRequest struct {
	EntityType string        `json:"entityType" validate:"required,oneof=person organisation"`
	Data       entity.Entity `json:"data" validate:"required"`
}

// ImportAudit is a row of import_audit.
type ImportAudit struct {
	ID                 string    `json:"id" db:"id"`
	TenantID           string    `json:"tenant_id" db:"tenant_id"`
	ExternalID         string    `json:"external_id" db:"external_id"`
	ProviderSystemName string    `json:"provider_system_name" db:"provider_system_name"`
	EntityType         string    `json:"entity_type" db:"entity_type"`
	OdsID              string    `json:"ods_id" db:"ods_id"`
	Payload            []byte    `json:"-" db:"payload"`
	PayloadFingerprint string    `json:"payload_fingerprint" db:"payload_fingerprint"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusResolved ReviewStatus = "resolved"
)

// MatchReview is a row of match_reviews: an ambiguous match waiting for a person to decide.
type MatchReview struct {
	ID                  string       `json:"id" db:"id"`
	TenantID            string       `json:"tenant_id" db:"tenant_id"`
	Kind                string       `json:"kind" db:"kind"`
	ExternalID          string       `json:"external_id" db:"external_id"`
	ProviderSystemName  string       `json:"provider_system_name" db:"provider_system_name"`
	ReferenceMatchOdsID *string      `json:"reference_match_ods_id,omitempty" db:"reference_match_ods_id"`
	KeyMatchOdsID       *string      `json:"key_match_ods_id,omitempty" db:"key_match_ods_id"`
	MatchKey            string       `json:"match_key" db:"match_key"`
	Fingerprint         string       `json:"fingerprint" db:"fingerprint"`
	Message             string       `json:"message" db:"message"`
	Status              ReviewStatus `json:"status" db:"status"`
	Resolution          *string      `json:"resolution,omitempty" db:"resolution"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	ResolvedAt          *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy          *string      `json:"resolved_by,omitempty" db:"resolved_by"`
}

// ResolveReviewRequest is the body of POST /api/v1/reviews/:id/resolve.
type ResolveReviewRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=reference key separate"`
}
