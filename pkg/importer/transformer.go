// Package importer turns external-only merged results into ODS create payloads and records the import.
package importer

import (
	"encoding/json"
	"fmt"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

const (
	clientTag      = "client"
	defaultCountry = "Australia"

	personFormBuilder       = `{"formData":{"firstNationsPerson":false,"gdpr-communication-consent-details-sms-consent":false,"gdpr-communication-consent-details-email-consent":false},"formIds":[],"formId":null}`
	organisationFormBuilder = `{"formData":{},"formIds":[],"formId":null}`
	contactPreferences      = `{"contactHoursFrom":null,"contactHoursTo":null}`
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// Source returns the payload to import: the external record for external-only results.
func Source(result models.MergedResult) entity.Entity {
	if result.Data != nil {
		return result.Data
	}
	if result.PmsData != nil {
		return result.PmsData
	}
	return entity.Entity{}
}

// ExternalID is the identifier stored in reference and externalReference.
func ExternalID(result models.MergedResult) string {
	if result.PmsID != "" {
		return result.PmsID
	}
	return Source(result).ID()
}

// DetermineKind picks person or organisation for the create endpoint.
func DetermineKind(result models.MergedResult) entity.Kind {
	data := Source(result)
	for _, declared := range []string{result.OdsType, data.First("odsType", "odsEntityType")} {
		if kind, ok := entity.ParseKind(declared); ok {
			return kind
		}
	}
	if data.Has("firstName") || data.Has("lastName") {
		return entity.KindPerson
	}
	if data.Has("organisationName") || data.Has("name") || data.Has("abn") {
		return entity.KindOrganisation
	}
	return entity.KindPerson
}

// BuildPayload converts a merged result into the ODS create payload for its kind.
func (t *Transformer) BuildPayload(result models.MergedResult) (entity.Kind, models.CreatePayload, error) {
	kind := DetermineKind(result)
	data := Source(result)

	contacts, err := json.Marshal(contactDetails(kind, data))
	if err != nil {
		return kind, models.CreatePayload{}, fmt.Errorf("failed to encode contact details: %w", err)
	}

	ref := ExternalID(result)
	payload := models.CreatePayload{
		Tags: []string{clientTag},
		AspectData: models.AspectData{
			ContactDetails: string(contacts),
		},
		Reference:         ref,
		ExternalReference: ref,
	}

	if kind == entity.KindPerson {
		payload.AspectData.FormBuilder = personFormBuilder
		payload.AspectData.ContactPreferences = contactPreferences
		payload.FirstName = data.String("firstName")
		payload.Surname = data.First("lastName", "surname")
		payload.MiddleNameOrInitial = data.First("middleName", "middleNameOrInitial")
		payload.PreferredName = data.First("preferredName", "firstName")
		if dob := data.String("dateOfBirth"); dob != "" {
			if pure, ok := ConvertToPureDate(dob); ok {
				payload.DateOfBirth = pure
			}
		}
	} else {
		payload.AspectData.FormBuilder = organisationFormBuilder
		payload.OrganisationName = data.First("name", "organisationName")
		payload.TradingName = data.String("tradingName")
		payload.ABN = normalizers.RemoveWhitespace(data.String("abn"))
		payload.ACN = normalizers.RemoveWhitespace(data.String("acn"))
	}

	payload.PostalAddress = data.First("address", "postalAddress")
	payload.PostalSuburb = data.First("suburb", "postalSuburb")
	payload.PostalState = data.First("state", "postalState")
	payload.PostalPostcode = data.First("postcode", "postalPostcode")
	payload.PostalCountry = data.First("country", "postalCountry")
	if payload.PostalCountry == "" {
		payload.PostalCountry = defaultCountry
	}

	return kind, payload, nil
}

func contactDetails(kind entity.Kind, data entity.Entity) []models.ContactDetail {
	details := []models.ContactDetail{}
	email := data.String("email")
	if email != "" {
		details = append(details, models.ContactDetail{
			ContactTypeCategoryID: models.ContactCategoryEmail,
			ContactTypeSystemName: "email",
			ContactValue:          email,
			IsActive:              true,
			IsPrimary:             true,
		})
	}

	if phone := data.String("phone"); phone != "" {
		detail := models.ContactDetail{
			ContactTypeCategoryID: models.ContactCategoryPersonPhone,
			ContactTypeSystemName: "mobile",
			ContactValue:          phone,
			IsActive:              true,
			IsPrimary:             email == "",
		}
		if kind == entity.KindOrganisation {
			detail.ContactTypeCategoryID = models.ContactCategoryOrgPhone
			detail.ContactTypeSystemName = "phone"
		}
		details = append(details, detail)
	}

	return details
}
