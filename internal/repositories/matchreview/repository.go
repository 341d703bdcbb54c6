package matchreview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/database"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

const (
	table        = "match_reviews"
	defaultLimit = 100
	maxLimit     = 500
)

var (
	insertColumns = []string{"id", "tenant_id", "kind", "external_id", "provider_system_name", "reference_match_ods_id", "key_match_ods_id", "match_key", "fingerprint", "message", "status", "created_at"}
	selectColumns = append(append([]string{}, insertColumns...), "resolution", "resolved_at", "resolved_by")
)

// Repository is the queue of ambiguous matches waiting for a person to resolve
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

// RecordWarnings queues one review per warning for the tenant in ctx. A warning already queued
// (same fingerprint) is skipped, so repeating a search does not grow the queue.
func (r *Repository) RecordWarnings(ctx context.Context, warnings []models.MatchWarning) error {
	ctx, span := tracing.StartSpan(ctx, "matchreview.Repository.RecordWarnings")
	defer span.End()

	if len(warnings) == 0 {
		return nil
	}

	tenantID := appctx.GetTenantID(ctx)
	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols(insertColumns...)
	for _, w := range warnings {
		sb.Values(
			uuid.NewString(),
			tenantID,
			w.Kind,
			w.ExternalID,
			w.ProviderSystemName,
			nullable(w.ReferenceMatchOds),
			nullable(w.KeyMatchOds),
			w.MatchKey,
			w.Fingerprint,
			w.Message,
			models.ReviewStatusPending,
			now,
		)
	}

	query, args := sb.Build()
	query = database.OnConflictDoNothing(query, "tenant_id", "fingerprint")

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("count", len(warnings)).Error("Failed to record match reviews")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record match reviews")
	}

	inserted, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"warnings": len(warnings),
		"queued":   inserted,
	}).Debug("Recorded match reviews")
	return nil
}

// List returns reviews for a tenant, newest first. An empty status lists every review.
func (r *Repository) List(ctx context.Context, tenantID string, status models.ReviewStatus, limit int) ([]models.MatchReview, error) {
	ctx, span := tracing.StartSpan(ctx, "matchreview.Repository.List")
	defer span.End()

	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	sb := database.NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From(table)
	sb.Where(sb.Equal("tenant_id", tenantID))
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	reviews := []models.MatchReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match reviews")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match reviews")
	}

	return reviews, nil
}

func (r *Repository) Get(ctx context.Context, tenantID, id string) (*models.MatchReview, error) {
	ctx, span := tracing.StartSpan(ctx, "matchreview.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From(table)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var review models.MatchReview
	if err := r.db.GetContext(ctx, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match review %s not found", id))
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("review_id", id).Error("Failed to get match review")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match review")
	}

	return &review, nil
}

// Resolve records the decision on a pending review. Resolving twice is a conflict.
func (r *Repository) Resolve(ctx context.Context, tenantID, id, resolution, resolvedBy string) (*models.MatchReview, error) {
	ctx, span := tracing.StartSpan(ctx, "matchreview.Repository.Resolve")
	defer span.End()

	review, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if review.Status == models.ReviewStatusResolved {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "match review %s is already resolved", id)
	}

	now := time.Now().UTC()
	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", models.ReviewStatusResolved),
		ub.Assign("resolution", resolution),
		ub.Assign("resolved_at", now),
		ub.Assign("resolved_by", nullable(resolvedBy)),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
		ub.Equal("status", models.ReviewStatusPending),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("review_id", id).Error("Failed to resolve match review")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve match review")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "match review %s is already resolved", id)
	}

	review.Status = models.ReviewStatusResolved
	review.Resolution = &resolution
	review.ResolvedAt = &now
	review.ResolvedBy = nullable(resolvedBy)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id":  id,
		"resolution": resolution,
	}).Info("Resolved match review")
	return review, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
