package importaudit

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/database"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

const table = "import_audit"

var columns = []string{"id", "tenant_id", "external_id", "provider_system_name", "entity_type", "ods_id", "payload", "payload_fingerprint", "created_at"}

// Repository records every external record imported into the ODS
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// FindByExternalID returns the earlier import of an external record, or nil when it has not been imported.
func (r *Repository) FindByExternalID(ctx context.Context, tenantID, provider, externalID string) (*models.ImportAudit, error) {
	ctx, span := tracing.StartSpan(ctx, "importaudit.Repository.FindByExternalID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("provider_system_name", provider),
		sb.Equal("external_id", externalID),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var audit models.ImportAudit
	if err := r.db.GetContext(ctx, &audit, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("external_id", externalID).Error("Failed to find import audit")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find import audit")
	}

	return &audit, nil
}

func (r *Repository) Create(ctx context.Context, audit *models.ImportAudit) error {
	ctx, span := tracing.StartSpan(ctx, "importaudit.Repository.Create")
	defer span.End()

	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols(columns...)
	sb.Values(audit.ID, audit.TenantID, audit.ExternalID, audit.ProviderSystemName, audit.EntityType, audit.OdsID, audit.Payload, audit.PayloadFingerprint, audit.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"external_id": audit.ExternalID,
			"ods_id":      audit.OdsID,
		}).Error("Failed to create import audit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create import audit")
	}

	return nil
}

// ListByOdsID returns the imports that produced an ODS record, newest first.
func (r *Repository) ListByOdsID(ctx context.Context, tenantID, odsID string) ([]models.ImportAudit, error) {
	ctx, span := tracing.StartSpan(ctx, "importaudit.Repository.ListByOdsID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("ods_id", odsID),
	)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	audits := []models.ImportAudit{}
	if err := r.db.SelectContext(ctx, &audits, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("ods_id", odsID).Error("Failed to list import audits")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list import audits")
	}

	return audits, nil
}
