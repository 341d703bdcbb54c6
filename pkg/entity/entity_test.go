package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    Entity
		expected Kind
	}{
		{"ods entity type", Entity{"odsEntityType": "person"}, KindPerson},
		{"ods type", Entity{"odsType": "person"}, KindPerson},
		{"pms person with lastName", Entity{"lastName": "Anderson"}, KindPerson},
		{"ods person with surname", Entity{"surname": "Anderson"}, KindPerson},
		{"organisation by name", Entity{"name": "Legal Solutions Pty Ltd"}, KindOrganisation},
		{"explicit organisation", Entity{"odsType": "organisation", "name": "Acme"}, KindOrganisation},
		{"empty", Entity{}, KindOrganisation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.input))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Sarah Anderson", DisplayName(Entity{"firstName": "Sarah", "lastName": "Anderson"}))
	assert.Equal(t, "Sarah Anderson", DisplayName(Entity{"firstName": "Sarah", "surname": "Anderson", "lastName": "Ignored"}))
	assert.Equal(t, "Legal Solutions Pty Ltd", DisplayName(Entity{"organisationName": "Legal Solutions Pty Ltd"}))
	assert.Equal(t, "Trading Co", DisplayName(Entity{"tradingName": "Trading Co"}))
	assert.Equal(t, "Unknown Person", DisplayName(Entity{"odsType": "person"}))
	assert.Equal(t, "Unknown Organisation", DisplayName(Entity{}))
}

func TestIcon(t *testing.T) {
	assert.Equal(t, "fa-user", Icon(Entity{"firstName": "Sarah"}))
	assert.Equal(t, "fa-building", Icon(Entity{"name": "Acme"}))
}

func TestEntity_String(t *testing.T) {
	e := Entity{"postcode": 2000.0, "nested": map[string]any{"a": 1}, "none": nil}
	assert.Equal(t, "2000", e.String("postcode"))
	assert.Equal(t, "", e.String("nested"))
	assert.Equal(t, "", e.String("none"))
	assert.Equal(t, "", e.String("missing"))
}

func TestIsFalsy(t *testing.T) {
	assert.True(t, IsFalsy(nil))
	assert.True(t, IsFalsy(""))
	assert.True(t, IsFalsy(false))
	assert.True(t, IsFalsy(0.0))
	assert.False(t, IsFalsy("0"))
	assert.False(t, IsFalsy(map[string]any{}))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Organization")
	assert.True(t, ok)
	assert.Equal(t, KindOrganisation, k)

	_, ok = ParseKind("all")
	assert.False(t, ok)
}
