package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

func TestIsValidABN(t *testing.T) {
	assert.True(t, IsValidABN("51824753556"))
	assert.True(t, IsValidABN("51 824 753 556"))
	assert.False(t, IsValidABN("51824753557"))
	assert.False(t, IsValidABN("1234"))
	assert.False(t, IsValidABN("5182475355a"))
}

func TestIsValidACN(t *testing.T) {
	assert.True(t, IsValidACN("004085616"))
	assert.True(t, IsValidACN("004 085 616"))
	assert.True(t, IsValidACN("000000019"))
	assert.False(t, IsValidACN("004085617"))
	assert.False(t, IsValidACN("12345"))
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"0412111223", true},
		{"0412 111 223", true},
		{"+61412111223", true},
		{"(02) 9876-5432", true},
		{"61298765432", true},
		{"0112345678", false},
		{"12345", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidPhone(tt.phone))
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("sarah.anderson@lawfirm.com"))
	assert.False(t, IsValidEmail("sarah anderson@lawfirm.com"))
	assert.False(t, IsValidEmail("sarah@lawfirm"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("1982-04-15"))
	assert.True(t, IsValidDate(19820415.0))
	assert.True(t, IsValidDate(19820415))
	assert.False(t, IsValidDate("1899-12-31"))
	assert.False(t, IsValidDate("1982-13-01"))
	assert.False(t, IsValidDate("1982-04-32"))
	assert.False(t, IsValidDate("15/04/1982"))
	assert.False(t, IsValidDate("19820415"))
	assert.False(t, IsValidDate(999.0))
}

func TestValidateEntity(t *testing.T) {
	t.Run("valid person", func(t *testing.T) {
		res := ValidateEntity(entity.Entity{"firstName": "Sarah", "lastName": "Anderson", "email": "sarah.anderson@lawfirm.com", "phone": "0412111223", "dateOfBirth": "1982-04-15"})
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
	})

	t.Run("person missing names", func(t *testing.T) {
		res := ValidateEntity(entity.Entity{"odsType": "person", "email": "bad"})
		assert.False(t, res.IsValid)
		require.Len(t, res.Errors, 3)
		assert.Equal(t, models.FieldError{Field: "firstName", Message: "First name is required for persons"}, res.Errors[0])
		assert.Equal(t, "surname", res.Errors[1].Field)
		assert.Equal(t, "email", res.Errors[2].Field)
	})

	t.Run("organisation with bad abn", func(t *testing.T) {
		res := ValidateEntity(entity.Entity{"name": "Legal Solutions Pty Ltd", "abn": "11223344556"})
		assert.False(t, res.IsValid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "abn", res.Errors[0].Field)
	})

	t.Run("organisation without a name", func(t *testing.T) {
		res := ValidateEntity(entity.Entity{"odsEntityType": "organisation", "abn": "51824753556"})
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "name", res.Errors[0].Field)
	})

	t.Run("unknown type", func(t *testing.T) {
		res := ValidateEntity(entity.Entity{"odsType": "matter"})
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "odsType", res.Errors[0].Field)
		assert.Equal(t, "Unknown entity type: matter", res.Errors[0].Message)
	})

	t.Run("nil entity", func(t *testing.T) {
		res := ValidateEntity(nil)
		assert.False(t, res.IsValid)
		assert.Equal(t, "entity", res.Errors[0].Field)
	})
}

func TestValidateContactDetails(t *testing.T) {
	t.Run("person may not use phone", func(t *testing.T) {
		res := ValidateContactDetails([]models.ContactDetail{
			{ContactTypeCategoryID: 2100, ContactTypeSystemName: "email", ContactValue: "a@x.com"},
			{ContactTypeCategoryID: 2101, ContactTypeSystemName: "phone", ContactValue: "0412111223"},
		}, entity.KindPerson)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "contactDetails[1].contactTypeSystemName", res.Errors[0].Field)
	})

	t.Run("organisation may not use mobile", func(t *testing.T) {
		res := ValidateContactDetails([]models.ContactDetail{
			{ContactTypeCategoryID: 2102, ContactTypeSystemName: "mobile", ContactValue: "0412111223"},
		}, entity.KindOrganisation)
		assert.False(t, res.IsValid)
	})

	t.Run("required fields", func(t *testing.T) {
		res := ValidateContactDetails([]models.ContactDetail{{}}, entity.KindPerson)
		assert.Len(t, res.Errors, 3)
	})

	t.Run("no details is valid", func(t *testing.T) {
		assert.True(t, ValidateContactDetails(nil, entity.KindOrganisation).IsValid)
	})
}

func TestValidator_CustomTags(t *testing.T) {
	type org struct {
		ABN   string `validate:"omitempty,abn"`
		ACN   string `validate:"omitempty,acn"`
		Phone string `validate:"omitempty,au_phone"`
		Email string `validate:"omitempty,ods_email"`
	}

	assert.NoError(t, Validator().Struct(org{ABN: "51824753556", ACN: "004085616", Phone: "0298887778", Email: "enquiries@legalsolutions.com.au"}))
	assert.Error(t, Validator().Struct(org{ABN: "11223344556"}))
}
