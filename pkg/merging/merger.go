// Package merging reconciles ODS and PMS search results into one list of unified entities
package merging

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/conflicts"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/fingerprint"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/matching"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/metrics"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

// DefaultProviderSystemName is the PMS whose records are labelled "pms" rather than "external".
const DefaultProviderSystemName = "pms"

// Labels are the source labels shown next to each result.
type Labels struct {
	ShareDo  string `json:"sharedo"`
	PMS      string `json:"pms"`
	Matched  string `json:"matched"`
	External string `json:"external"`
}

func DefaultLabels() Labels {
	return Labels{
		ShareDo:  "ShareDo",
		PMS:      "PMS",
		Matched:  "Matched",
		External: "External",
	}
}

// LabelsFromMap overlays caller supplied labels onto the defaults.
func LabelsFromMap(m map[string]string) Labels {
	labels := DefaultLabels()
	if v := m["sharedo"]; v != "" {
		labels.ShareDo = v
	}
	if v := m["pms"]; v != "" {
		labels.PMS = v
	}
	if v := m["matched"]; v != "" {
		labels.Matched = v
	}
	if v := m["external"]; v != "" {
		labels.External = v
	}
	return labels
}

func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	if l.ShareDo == "" {
		l.ShareDo = d.ShareDo
	}
	if l.PMS == "" {
		l.PMS = d.PMS
	}
	if l.Matched == "" {
		l.Matched = d.Matched
	}
	if l.External == "" {
		l.External = d.External
	}
	return l
}

// Merger pairs internal and external records by reference and match key. It keeps no state between calls.
type Merger struct {
	logger          ectologger.Logger
	detector        *conflicts.Detector
	defaultProvider string
}

func NewMerger(logger ectologger.Logger, detector *conflicts.Detector) *Merger {
	if detector == nil {
		detector = conflicts.NewDetector()
	}
	return &Merger{
		logger:          logger,
		detector:        detector,
		defaultProvider: DefaultProviderSystemName,
	}
}

// WithDefaultProvider changes which provider's unmatched records are labelled "pms".
func (m *Merger) WithDefaultProvider(systemName string) *Merger {
	m.defaultProvider = systemName
	return m
}

// MergeResults returns one result per distinct entity. Internal records keep their input order and
// unmatched external records are appended in theirs. An external record pairs with the internal record
// whose reference equals its id, otherwise with the internal record sharing its match key.
func (m *Merger) MergeResults(ctx context.Context, internal, external models.ResultSet, labels Labels) models.MergeOutcome {
	ctx, span := tracing.StartSpan(ctx, "merging.Merger.MergeResults")
	defer span.End()

	labels = labels.withDefaults()
	log := m.logger.WithContext(ctx)

	outcome := models.MergeOutcome{
		Results:  make([]models.MergedResult, 0, internal.Len()+external.Len()),
		Warnings: []models.MatchWarning{},
	}
	byKey := map[string]int{}
	byReference := map[string]int{}

	if skipped := internal.Malformed + external.Malformed; skipped > 0 {
		log.WithFields(map[string]any{
			"internal_malformed": internal.Malformed,
			"external_malformed": external.Malformed,
		}).Warn("Skipping malformed records")
		outcome.Skipped = skipped
	}

	for _, item := range internal.Results {
		result := m.internalResult(item, len(outcome.Results)+1, labels)
		idx := len(outcome.Results)
		outcome.Results = append(outcome.Results, result)
		byKey[result.MatchKey] = idx
		if result.Reference != "" {
			byReference[result.Reference] = idx
		}
	}

	for _, item := range external.Results {
		m.mergeExternal(ctx, &outcome, item, byKey, byReference, labels)
	}

	for _, r := range outcome.Results {
		metrics.RecordMergedResult(string(r.Source))
	}

	log.WithFields(map[string]any{
		"internal_count": internal.Len(),
		"external_count": external.Len(),
		"merged_count":   len(outcome.Results),
		"warnings":       len(outcome.Warnings),
		"skipped":        outcome.Skipped,
	}).Debug("Merged search results")

	return outcome
}

func (m *Merger) internalResult(item entity.Entity, n int, labels Labels) models.MergedResult {
	return models.MergedResult{
		ID:          mergedID(n),
		Source:      models.SourceShareDo,
		SourceLabel: labels.ShareDo,
		OdsID:       item.First("id", "odsId"),
		OdsType:     entity.Classify(item).String(),
		Reference:   item.Reference(),
		MatchKey:    matching.GenerateMatchKey(item),
		DisplayName: entity.DisplayName(item),
		Icon:        entity.Icon(item),
		Data:        item,
		Conflicts:   []models.Conflict{},
	}
}

func (m *Merger) mergeExternal(
	ctx context.Context,
	outcome *models.MergeOutcome,
	item entity.Entity,
	byKey, byReference map[string]int,
	labels Labels,
) {
	key := matching.GenerateMatchKey(item)
	externalID := item.ID()
	provider := item.String("providerSystemName")

	var refIdx int
	var refHit bool
	if externalID != "" {
		refIdx, refHit = byReference[externalID]
	}
	keyIdx, keyHit := byKey[key]

	target := -1
	switch {
	case refHit:
		target = refIdx
	case keyHit:
		target = keyIdx
	}

	if refHit && keyHit && refIdx != keyIdx {
		refResult, keyResult := outcome.Results[refIdx], outcome.Results[keyIdx]
		m.warn(ctx, outcome, models.MatchWarning{
			Kind:               models.WarningReferenceKeyMismatch,
			ExternalID:         externalID,
			ProviderSystemName: provider,
			ReferenceMatchID:   refResult.ID,
			KeyMatchID:         keyResult.ID,
			ReferenceMatchOds:  refResult.OdsID,
			KeyMatchOds:        keyResult.OdsID,
			MatchKey:           key,
			Fingerprint:        fingerprint.Pair(provider, externalID, refResult.OdsID, keyResult.OdsID),
			Message:            fmt.Sprintf("external record %s matches %s by reference and %s by key", externalID, refResult.ID, keyResult.ID),
		})
	}

	if target >= 0 && outcome.Results[target].Source == models.SourceMatched {
		existing := outcome.Results[target]
		m.warn(ctx, outcome, models.MatchWarning{
			Kind:               models.WarningAlreadyMatched,
			ExternalID:         externalID,
			ProviderSystemName: provider,
			ReferenceMatchID:   existing.ID,
			ReferenceMatchOds:  existing.OdsID,
			MatchKey:           key,
			Fingerprint:        fingerprint.Pair(provider, externalID, existing.OdsID),
			Message:            fmt.Sprintf("external record %s matches %s which is already paired with %s", externalID, existing.ID, existing.PmsID),
		})
		target = -1
	}

	if target < 0 {
		outcome.Results = append(outcome.Results, m.externalResult(item, key, len(outcome.Results)+1, labels))
		return
	}

	result := &outcome.Results[target]
	found := m.detector.DetectConflicts(result.Data, item)

	result.Source = models.SourceMatched
	result.SourceLabel = labels.Matched
	result.PmsID = externalID
	result.PmsData = item
	result.ProviderSystemName = provider
	result.HasConflicts = len(found) > 0
	result.Conflicts = found
	result.PairFingerprint = fingerprint.Pair(provider, externalID, result.OdsID)
	if refHit && (!keyHit || refIdx != keyIdx) {
		result.MatchType = models.MatchTypeReference
	} else {
		result.MatchType = models.MatchTypeKey
	}

	for _, c := range found {
		metrics.RecordConflict(string(c.Severity))
	}
	if len(found) > 0 {
		m.logger.WithContext(ctx).WithFields(map[string]any{
			"merged_id": result.ID,
			"pms_id":    externalID,
			"conflicts": len(found),
		}).Debug("Data conflicts detected")
	}
}

func (m *Merger) externalResult(item entity.Entity, key string, n int, labels Labels) models.MergedResult {
	provider := item.String("providerSystemName")
	source, label := models.SourcePMS, labels.PMS
	if provider != "" && provider != m.defaultProvider {
		source, label = models.SourceExternal, labels.External
	}

	return models.MergedResult{
		ID:                 mergedID(n),
		Source:             source,
		SourceLabel:        label,
		PmsID:              item.ID(),
		ProviderSystemName: provider,
		OdsType:            entity.Classify(item).String(),
		MatchKey:           key,
		DisplayName:        entity.DisplayName(item),
		Icon:               entity.Icon(item),
		Data:               item,
		PmsData:            item,
		Conflicts:          []models.Conflict{},
	}
}

func (m *Merger) warn(ctx context.Context, outcome *models.MergeOutcome, w models.MatchWarning) {
	outcome.Warnings = append(outcome.Warnings, w)
	metrics.RecordMatchWarning(w.Kind)
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":               w.Kind,
		"external_id":        w.ExternalID,
		"reference_match_id": w.ReferenceMatchID,
		"key_match_id":       w.KeyMatchID,
		"match_key":          w.MatchKey,
	}).Warn(w.Message)
}

func mergedID(n int) string {
	return fmt.Sprintf("merged-%d", n)
}
