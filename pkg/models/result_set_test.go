package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSet_UnmarshalJSON(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`[{"id":"PMS-P005"},null,{"id":"PMS-O002"}]`), &rs))
		assert.Len(t, rs.Results, 2)
		assert.Equal(t, "PMS-P005", rs.Results[0].ID())
		assert.Equal(t, 1, rs.Malformed)
	})

	t.Run("non-object elements are dropped and counted", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`[1, {"id":"ods-1","firstName":"Sarah"}, "x", [2]]`), &rs))
		require.Len(t, rs.Results, 1)
		assert.Equal(t, "Sarah", rs.Results[0].String("firstName"))
		assert.Equal(t, 3, rs.Malformed)
		assert.True(t, rs.Success)
	})

	t.Run("results object drops non-object elements", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`{"results":["x",{"id":"1"}],"totalResults":5,"success":true}`), &rs))
		require.Len(t, rs.Results, 1)
		assert.Equal(t, "1", rs.Results[0].ID())
		assert.Equal(t, 1, rs.Malformed)
		assert.Equal(t, 5, rs.TotalResults)
		assert.True(t, rs.Success)
	})

	t.Run("results object keeps totals", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`{"results":[{"id":"1"}],"totalResults":12,"hasMore":true,"success":true}`), &rs))
		assert.Len(t, rs.Results, 1)
		assert.Equal(t, 12, rs.TotalResults)
		assert.True(t, rs.HasMore)
		assert.Equal(t, 12, rs.Count())
	})

	t.Run("single object is wrapped", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`{"id":"ods-1","firstName":"Sarah"}`), &rs))
		require.Len(t, rs.Results, 1)
		assert.Equal(t, "Sarah", rs.Results[0].String("firstName"))
	})

	t.Run("null is empty", func(t *testing.T) {
		var rs ResultSet
		require.NoError(t, json.Unmarshal([]byte(`null`), &rs))
		assert.Empty(t, rs.Results)
		assert.Equal(t, 0, rs.Count())
	})

	t.Run("scalar is rejected", func(t *testing.T) {
		var rs ResultSet
		assert.Error(t, json.Unmarshal([]byte(`"nope"`), &rs))
	})
}

func TestEntityType_Kinds(t *testing.T) {
	assert.Len(t, EntityTypeAll.Kinds(), 2)
	assert.Len(t, EntityType("").Kinds(), 2)
	assert.Equal(t, "person", EntityTypePerson.Kinds()[0].String())
}

func TestSeverity_Rank(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityInfo.Rank())
	assert.Equal(t, 0, Severity("").Rank())
}
