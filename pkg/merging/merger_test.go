package merging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

func newTestMerger() *Merger {
	return NewMerger(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), nil)
}

func set(records ...entity.Entity) models.ResultSet {
	return models.ResultSet{Results: records, Success: true}
}

func TestMerger_MergeResults_KeyMatch(t *testing.T) {
	m := newTestMerger()

	t.Run("same person on both sides becomes one matched result", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-1", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15", "email": "sarah.anderson@lawfirm.com"}
		pms := entity.Entity{"id": "PMS-P005", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15", "phone": "0412111223"}

		outcome := m.MergeResults(context.Background(), set(ods), set(pms), Labels{})
		require.Len(t, outcome.Results, 1)

		r := outcome.Results[0]
		assert.Equal(t, "merged-1", r.ID)
		assert.Equal(t, models.SourceMatched, r.Source)
		assert.Equal(t, "Matched", r.SourceLabel)
		assert.Equal(t, "ods-1", r.OdsID)
		assert.Equal(t, "PMS-P005", r.PmsID)
		assert.Equal(t, "person:sarah:anderson:1982-04-15", r.MatchKey)
		assert.Equal(t, models.MatchTypeKey, r.MatchType)
		assert.Equal(t, ods, r.Data)
		assert.Equal(t, pms, r.PmsData)
		assert.False(t, r.HasConflicts)
		assert.Empty(t, r.Conflicts)
		assert.NotEmpty(t, r.PairFingerprint)
		assert.Empty(t, outcome.Warnings)
	})

	t.Run("differing phone is a high severity conflict", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-1", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15", "phone": "0412111222"}
		pms := entity.Entity{"id": "PMS-P005", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15", "phone": "0412111223"}

		outcome := m.MergeResults(context.Background(), set(ods), set(pms), Labels{})
		require.Len(t, outcome.Results, 1)
		r := outcome.Results[0]
		assert.True(t, r.HasConflicts)
		require.Len(t, r.Conflicts, 1)
		assert.Equal(t, "phone", r.Conflicts[0].Field)
		assert.Equal(t, models.SeverityHigh, r.Conflicts[0].Severity)
		assert.False(t, r.Conflicts[0].CanAutoResolve)
	})

	t.Run("organisations match on abn", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-9", "name": "Legal Solutions Pty Ltd", "abn": "11223344556", "postcode": "2000"}
		pms := entity.Entity{"id": "PMS-O002", "name": "Legal Solutions Pty Ltd", "abn": "11223344556", "postcode": "2001"}

		outcome := m.MergeResults(context.Background(), set(ods), set(pms), Labels{})
		require.Len(t, outcome.Results, 1)
		r := outcome.Results[0]
		assert.Equal(t, "org:abn:11223344556", r.MatchKey)
		assert.Equal(t, models.SourceMatched, r.Source)
		assert.Equal(t, "fa-building", r.Icon)
		require.Len(t, r.Conflicts, 1)
		assert.Equal(t, "postcode", r.Conflicts[0].Field)
		assert.Equal(t, models.SeverityMedium, r.Conflicts[0].Severity)
	})
}

func TestMerger_MergeResults_Unmatched(t *testing.T) {
	m := newTestMerger()

	t.Run("internal only record", func(t *testing.T) {
		outcome := m.MergeResults(context.Background(), set(entity.Entity{"id": "ods-1", "firstName": "John", "surname": "Citizen"}), models.ResultSet{}, Labels{})
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, models.SourceShareDo, outcome.Results[0].Source)
		assert.Equal(t, "ShareDo", outcome.Results[0].SourceLabel)
		assert.Equal(t, "John Citizen", outcome.Results[0].DisplayName)
		assert.False(t, outcome.Results[0].HasConflicts)
		assert.Nil(t, outcome.Results[0].PmsData)
	})

	t.Run("external only record carries its payload twice", func(t *testing.T) {
		pms := entity.Entity{"id": "PMS-P010", "firstName": "Jane", "lastName": "Doe"}
		outcome := m.MergeResults(context.Background(), models.ResultSet{}, set(pms), Labels{PMS: "Practice"})
		require.Len(t, outcome.Results, 1)
		r := outcome.Results[0]
		assert.Equal(t, models.SourcePMS, r.Source)
		assert.Equal(t, "Practice", r.SourceLabel)
		assert.Equal(t, "PMS-P010", r.PmsID)
		assert.Equal(t, pms, r.Data)
		assert.Equal(t, pms, r.PmsData)
	})

	t.Run("other providers are labelled external", func(t *testing.T) {
		rec := entity.Entity{"id": "CRM-1", "name": "Acme", "providerSystemName": "crm"}
		outcome := m.MergeResults(context.Background(), models.ResultSet{}, set(rec), Labels{})
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, models.SourceExternal, outcome.Results[0].Source)
		assert.Equal(t, "External", outcome.Results[0].SourceLabel)
		assert.Equal(t, "crm", outcome.Results[0].ProviderSystemName)
	})

	t.Run("both empty", func(t *testing.T) {
		outcome := m.MergeResults(context.Background(), models.ResultSet{}, models.ResultSet{}, Labels{})
		assert.Empty(t, outcome.Results)
		assert.Empty(t, outcome.Warnings)
	})
}

func TestMerger_MergeResults_Reference(t *testing.T) {
	m := newTestMerger()

	t.Run("reference match wins over a different key", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-1", "firstName": "Sarah", "surname": "Anderson", "reference": "PMS-P001", "dateOfBirth": "1982-04-15"}
		pms := entity.Entity{"id": "PMS-P001", "firstName": "Sarah", "lastName": "Anderson", "email": "sarah@x.com"}

		outcome := m.MergeResults(context.Background(), set(ods), set(pms), Labels{})
		require.Len(t, outcome.Results, 1)
		r := outcome.Results[0]
		assert.Equal(t, models.SourceMatched, r.Source)
		assert.Equal(t, models.MatchTypeReference, r.MatchType)
		assert.Equal(t, "PMS-P001", r.Reference)
		assert.Equal(t, "PMS-P001", r.PmsID)
	})

	t.Run("capitalised Reference field is honoured", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-1", "name": "Acme", "Reference": "PMS-O001"}
		pms := entity.Entity{"id": "PMS-O001", "name": "Acme Holdings"}

		outcome := m.MergeResults(context.Background(), set(ods), set(pms), Labels{})
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, models.MatchTypeReference, outcome.Results[0].MatchType)
	})

	t.Run("reference and key pointing at different records", func(t *testing.T) {
		byRef := entity.Entity{"id": "ods-1", "name": "Old Name Pty Ltd", "reference": "PMS-O002"}
		byKey := entity.Entity{"id": "ods-2", "name": "Legal Solutions", "abn": "11223344556"}
		pms := entity.Entity{"id": "PMS-O002", "name": "Legal Solutions", "abn": "11223344556"}

		outcome := m.MergeResults(context.Background(), set(byRef, byKey), set(pms), Labels{})
		require.Len(t, outcome.Results, 2)
		assert.Equal(t, models.SourceMatched, outcome.Results[0].Source)
		assert.Equal(t, models.MatchTypeReference, outcome.Results[0].MatchType)
		assert.Equal(t, models.SourceShareDo, outcome.Results[1].Source)

		require.Len(t, outcome.Warnings, 1)
		w := outcome.Warnings[0]
		assert.Equal(t, models.WarningReferenceKeyMismatch, w.Kind)
		assert.Equal(t, "PMS-O002", w.ExternalID)
		assert.Equal(t, "merged-1", w.ReferenceMatchID)
		assert.Equal(t, "merged-2", w.KeyMatchID)
		assert.NotEmpty(t, w.Fingerprint)
	})
}

func TestMerger_MergeResults_Completeness(t *testing.T) {
	m := newTestMerger()

	t.Run("second external hit on a matched result stays separate", func(t *testing.T) {
		ods := entity.Entity{"id": "ods-1", "name": "Acme", "abn": "51824753556"}
		first := entity.Entity{"id": "PMS-O010", "name": "Acme", "abn": "51824753556"}
		second := entity.Entity{"id": "PMS-O011", "name": "Acme Duplicate", "abn": "51824753556"}

		outcome := m.MergeResults(context.Background(), set(ods), set(first, second), Labels{})
		require.Len(t, outcome.Results, 2)
		assert.Equal(t, "PMS-O010", outcome.Results[0].PmsID)
		assert.Equal(t, models.SourcePMS, outcome.Results[1].Source)
		assert.Equal(t, "PMS-O011", outcome.Results[1].PmsID)
		assert.Equal(t, "merged-2", outcome.Results[1].ID)

		require.Len(t, outcome.Warnings, 1)
		assert.Equal(t, models.WarningAlreadyMatched, outcome.Warnings[0].Kind)
	})

	t.Run("every record appears exactly once", func(t *testing.T) {
		internal := set(
			entity.Entity{"id": "ods-1", "firstName": "Sarah", "surname": "Anderson", "dateOfBirth": "1982-04-15"},
			entity.Entity{"id": "ods-2", "name": "Legal Solutions", "abn": "11223344556"},
			entity.Entity{"id": "ods-3", "firstName": "John", "surname": "Citizen", "email": "john@x.com"},
		)
		external := set(
			entity.Entity{"id": "PMS-P005", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15"},
			entity.Entity{"id": "PMS-O002", "name": "Legal Solutions Pty Ltd", "abn": "11 223 344 556"},
			entity.Entity{"id": "PMS-P099", "firstName": "Zed", "lastName": "Zero"},
		)

		outcome := m.MergeResults(context.Background(), internal, external, Labels{})
		require.Len(t, outcome.Results, 4)

		odsSeen := map[string]int{}
		pmsSeen := map[string]int{}
		for _, r := range outcome.Results {
			if r.OdsID != "" {
				odsSeen[r.OdsID]++
			}
			if r.PmsID != "" {
				pmsSeen[r.PmsID]++
			}
			assert.Equal(t, len(r.Conflicts) > 0, r.HasConflicts)
			if r.Source == models.SourceMatched {
				assert.NotNil(t, r.Data)
				assert.NotNil(t, r.PmsData)
			}
		}
		assert.Equal(t, map[string]int{"ods-1": 1, "ods-2": 1, "ods-3": 1}, odsSeen)
		assert.Equal(t, map[string]int{"PMS-P005": 1, "PMS-O002": 1, "PMS-P099": 1}, pmsSeen)

		assert.Equal(t, "ods-3", outcome.Results[2].OdsID)
		assert.Equal(t, "PMS-P099", outcome.Results[3].PmsID)
		assert.Equal(t, "merged-4", outcome.Results[3].ID)
	})

	t.Run("merging is repeatable", func(t *testing.T) {
		internal := set(entity.Entity{"id": "ods-1", "firstName": "Sarah", "surname": "Anderson", "dateOfBirth": "1982-04-15", "phone": "1"})
		external := set(entity.Entity{"id": "PMS-P005", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15", "phone": "2"})

		first := m.MergeResults(context.Background(), internal, external, Labels{})
		second := m.MergeResults(context.Background(), internal, external, Labels{})
		assert.Equal(t, first, second)
	})
}

func TestMerger_MergeResults_Malformed(t *testing.T) {
	m := newTestMerger()

	var internal, external models.ResultSet
	require.NoError(t, json.Unmarshal([]byte(`[1, {"id": "ods-1", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15"}]`), &internal))
	require.NoError(t, json.Unmarshal([]byte(`{"results": ["x", {"id": "PMS-P005", "firstName": "Sarah", "lastName": "Anderson", "dateOfBirth": "1982-04-15"}, null]}`), &external))

	outcome := m.MergeResults(context.Background(), internal, external, Labels{})
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, models.SourceMatched, outcome.Results[0].Source)
	assert.Equal(t, 3, outcome.Skipped)
}

func TestLabelsFromMap(t *testing.T) {
	labels := LabelsFromMap(map[string]string{"pms": "Practice", "matched": ""})
	assert.Equal(t, "Practice", labels.PMS)
	assert.Equal(t, "Matched", labels.Matched)
	assert.Equal(t, "ShareDo", labels.ShareDo)
}
