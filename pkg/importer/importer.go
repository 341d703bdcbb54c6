package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/fingerprint"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/merging"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/metrics"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/validation"
)

type Creator interface {
	Create(ctx context.Context, kind entity.Kind, payload models.CreatePayload) (string, error)
}

type AuditStore interface {
	FindByExternalID(ctx context.Context, tenantID, provider, externalID string) (*models.ImportAudit, error)
	Create(ctx context.Context, audit *models.ImportAudit) error
}

type LinkRecorder interface {
	LinkImport(ctx context.Context, link models.ImportLink) error
}

type EventPublisher interface {
	PublishEntityImported(ctx context.Context, event models.EntityImportedEvent) error
}

// ValidationError carries field-scoped failures that block a create.
type ValidationError struct {
	Result models.ValidationResult
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Errors))
	for _, fe := range e.Result.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type Importer struct {
	creator     Creator
	audits      AuditStore
	links       LinkRecorder
	events      EventPublisher
	transformer *Transformer
	logger      ectologger.Logger
}

// NewImporter wires the import pipeline. audits, links and events may be nil.
func NewImporter(creator Creator, audits AuditStore, links LinkRecorder, events EventPublisher, logger ectologger.Logger) *Importer {
	return &Importer{
		creator:     creator,
		audits:      audits,
		links:       links,
		events:      events,
		transformer: NewTransformer(),
		logger:      logger,
	}
}

// Validate checks the record that would be created, converting dates the way the payload will.
func Validate(kind entity.Kind, data entity.Entity) models.ValidationResult {
	view := data.Clone()
	if dob := view.String("dateOfBirth"); dob != "" {
		if pure, ok := ConvertToPureDate(dob); ok {
			view["dateOfBirth"] = pure
		}
	}
	return validation.ValidateKind(kind, view)
}

// Import creates an external-only result in the ODS. Results already in the ODS are returned unchanged.
func (i *Importer) Import(ctx context.Context, result models.MergedResult) (models.MergedResult, error) {
	ctx, span := tracing.StartSpan(ctx, "importer.Importer.Import")
	defer span.End()

	if result.IsInternal() {
		return result, nil
	}

	kind := DetermineKind(result)
	data := Source(result)
	externalID := ExternalID(result)
	provider := result.ProviderSystemName
	if provider == "" {
		provider = merging.DefaultProviderSystemName
	}
	tenantID := appctx.GetTenantID(ctx)

	log := i.logger.WithContext(ctx).WithFields(map[string]any{
		"external_id": externalID,
		"provider":    provider,
		"entity_type": kind.String(),
	})

	if v := Validate(kind, data); !v.IsValid {
		metrics.RecordImport(kind.String(), "invalid")
		return result, &ValidationError{Result: v}
	}

	if i.audits != nil && externalID != "" {
		existing, err := i.audits.FindByExternalID(ctx, tenantID, provider, externalID)
		if err != nil {
			tracing.RecordError(span, err)
			return result, err
		}
		if existing != nil {
			log.WithField("ods_id", existing.OdsID).Info("External record already imported")
			metrics.RecordImport(kind.String(), "duplicate")
			imported := markImported(result, existing.OdsID)
			i.publish(ctx, imported, kind, provider, externalID, true)
			return imported, nil
		}
	}

	_, payload, err := i.transformer.BuildPayload(result)
	if err != nil {
		metrics.RecordImport(kind.String(), "failed")
		return result, fmt.Errorf("failed to build payload: %w", err)
	}

	odsID, err := i.creator.Create(ctx, kind, payload)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordImport(kind.String(), "failed")
		log.WithError(err).Warn("Failed to import entity")
		return result, err
	}
	metrics.RecordImport(kind.String(), "created")
	log.WithField("ods_id", odsID).Info("Imported entity into ODS")

	imported := markImported(result, odsID)

	if i.audits != nil {
		if err := i.audits.Create(ctx, newAudit(tenantID, provider, externalID, kind, odsID, payload)); err != nil {
			log.WithError(err).Warn("Failed to write import audit")
		}
	}

	if i.links != nil {
		link := importLink(imported, kind, provider, externalID)
		if err := i.links.LinkImport(ctx, link); err != nil {
			log.WithError(err).Warn("Failed to record import link")
		}
	}

	i.publish(ctx, imported, kind, provider, externalID, false)

	return imported, nil
}

func (i *Importer) publish(ctx context.Context, imported models.MergedResult, kind entity.Kind, provider, externalID string, duplicate bool) {
	if i.events == nil {
		return
	}
	event := models.EntityImportedEvent{
		TenantID:  appctx.GetTenantID(ctx),
		SearchID:  appctx.GetSearchID(ctx),
		Link:      importLink(imported, kind, provider, externalID),
		Duplicate: duplicate,
		Timestamp: time.Now().UTC(),
	}
	if err := i.events.PublishEntityImported(ctx, event); err != nil {
		i.logger.WithContext(ctx).WithError(err).Warn("Failed to publish import event")
	}
}

func markImported(result models.MergedResult, odsID string) models.MergedResult {
	result.OdsID = odsID
	result.Source = models.SourceShareDo
	result.SourceLabel = merging.DefaultLabels().ShareDo
	return result
}

func importLink(result models.MergedResult, kind entity.Kind, provider, externalID string) models.ImportLink {
	return models.ImportLink{
		OdsID:              result.OdsID,
		ExternalID:         externalID,
		ProviderSystemName: provider,
		EntityType:         kind.String(),
		DisplayName:        result.DisplayName,
	}
}

func newAudit(tenantID, provider, externalID string, kind entity.Kind, odsID string, payload models.CreatePayload) *models.ImportAudit {
	raw, _ := json.Marshal(payload)
	var asMap map[string]any
	_ = json.Unmarshal(raw, &asMap)

	return &models.ImportAudit{
		ID:                 uuid.NewString(),
		TenantID:           tenantID,
		ExternalID:         externalID,
		ProviderSystemName: provider,
		EntityType:         kind.String(),
		OdsID:              odsID,
		Payload:            raw,
		PayloadFingerprint: fingerprint.Generate(asMap),
		CreatedAt:          time.Now().UTC(),
	}
}
