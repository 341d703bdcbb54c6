package validation

import (
	"fmt"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

// ValidateEntity validates e as the kind named by odsType/odsEntityType, or as a person
// when it has a first or last name and as an organisation otherwise.
func ValidateEntity(e entity.Entity) models.ValidationResult {
	if e == nil {
		return invalid(models.FieldError{Field: "entity", Message: "Entity is null or undefined"})
	}

	declared := e.First("odsType", "odsEntityType")
	if declared == "" {
		if e.Has("firstName") || e.Has("lastName") {
			return ValidatePerson(e)
		}
		return ValidateOrganisation(e)
	}

	kind, ok := entity.ParseKind(declared)
	if !ok {
		return invalid(models.FieldError{Field: "odsType", Message: fmt.Sprintf("Unknown entity type: %s", declared)})
	}
	return ValidateKind(kind, e)
}

// ValidateKind validates e against the rules for kind.
func ValidateKind(kind entity.Kind, e entity.Entity) models.ValidationResult {
	if kind == entity.KindPerson {
		return ValidatePerson(e)
	}
	return ValidateOrganisation(e)
}

func ValidatePerson(e entity.Entity) models.ValidationResult {
	var errs []models.FieldError

	if blank(e.String("firstName")) {
		errs = append(errs, models.FieldError{Field: "firstName", Message: "First name is required for persons"})
	}
	if !e.Has("surname") && !e.Has("lastName") {
		errs = append(errs, models.FieldError{Field: "surname", Message: "Surname is required for persons"})
	}
	errs = append(errs, contactErrors(e)...)
	if e.Has("dateOfBirth") && !IsValidDate(e["dateOfBirth"]) {
		errs = append(errs, models.FieldError{Field: "dateOfBirth", Message: "Invalid date format (expected YYYY-MM-DD or YYYYMMDD)"})
	}

	return result(errs)
}

func ValidateOrganisation(e entity.Entity) models.ValidationResult {
	var errs []models.FieldError

	if !e.Has("name") && !e.Has("organisationName") {
		errs = append(errs, models.FieldError{Field: "name", Message: "Organisation name is required"})
	}
	if abn := e.String("abn"); abn != "" && !valid(abn, "abn") {
		errs = append(errs, models.FieldError{Field: "abn", Message: "Invalid ABN format (must be 11 digits)"})
	}
	if acn := e.String("acn"); acn != "" && !valid(acn, "acn") {
		errs = append(errs, models.FieldError{Field: "acn", Message: "Invalid ACN format (must be 9 digits)"})
	}
	errs = append(errs, contactErrors(e)...)

	return result(errs)
}

func contactErrors(e entity.Entity) []models.FieldError {
	var errs []models.FieldError
	if email := e.String("email"); email != "" && !valid(email, "ods_email") {
		errs = append(errs, models.FieldError{Field: "email", Message: "Invalid email format"})
	}
	if phone := e.String("phone"); phone != "" && !valid(phone, "au_phone") {
		errs = append(errs, models.FieldError{Field: "phone", Message: "Invalid phone format"})
	}
	return errs
}

// ValidateContactDetails checks required fields and that the contact type suits the entity kind:
// persons use mobile or direct-line, organisations use phone.
func ValidateContactDetails(details []models.ContactDetail, kind entity.Kind) models.ValidationResult {
	var errs []models.FieldError

	for i, cd := range details {
		prefix := fmt.Sprintf("contactDetails[%d]", i)
		if cd.ContactTypeCategoryID == 0 {
			errs = append(errs, models.FieldError{Field: prefix + ".contactTypeCategoryId", Message: "Contact type category ID is required"})
		}
		if cd.ContactTypeSystemName == "" {
			errs = append(errs, models.FieldError{Field: prefix + ".contactTypeSystemName", Message: "Contact type system name is required"})
		}
		if cd.ContactValue == "" {
			errs = append(errs, models.FieldError{Field: prefix + ".contactValue", Message: "Contact value is required"})
		}

		switch {
		case kind == entity.KindPerson && cd.ContactTypeSystemName == "phone":
			errs = append(errs, models.FieldError{Field: prefix + ".contactTypeSystemName", Message: "Persons should use 'mobile' or 'direct-line', not 'phone'"})
		case kind == entity.KindOrganisation && (cd.ContactTypeSystemName == "mobile" || cd.ContactTypeSystemName == "direct-line"):
			errs = append(errs, models.FieldError{Field: prefix + ".contactTypeSystemName", Message: "Organisations should use 'phone', not 'mobile' or 'direct-line'"})
		}
	}

	return result(errs)
}

// Merge combines results, keeping every error.
func Merge(results ...models.ValidationResult) models.ValidationResult {
	var errs []models.FieldError
	for _, r := range results {
		errs = append(errs, r.Errors...)
	}
	return result(errs)
}

func result(errs []models.FieldError) models.ValidationResult {
	if errs == nil {
		errs = []models.FieldError{}
	}
	return models.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func invalid(errs ...models.FieldError) models.ValidationResult {
	return result(errs)
}

func valid(value, tag string) bool {
	return validate.Var(value, tag) == nil
}
