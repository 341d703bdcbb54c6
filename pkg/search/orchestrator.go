// Package search runs the internal and external searches side by side and merges what comes back.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/merging"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/metrics"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/ods"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/providers"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

const (
	DefaultTimeout           = 5 * time.Second
	DefaultPageSize          = 10
	MaxPageSize              = 100
	DefaultSideEffectTimeout = 5 * time.Second

	timeoutMessage = "PMS search timed out"
)

type InternalSearcher interface {
	Search(ctx context.Context, req ods.SearchRequest) (models.ResultSet, error)
}

type ProviderSource interface {
	Providers() []providers.Provider
	Capable(ctx context.Context, kind entity.Kind) []providers.Provider
}

// ReviewRecorder persists ambiguous matches for a person to resolve.
type ReviewRecorder interface {
	RecordWarnings(ctx context.Context, warnings []models.MatchWarning) error
}

type EventPublisher interface {
	PublishSearchCompleted(ctx context.Context, event models.SearchCompletedEvent) error
	PublishMatchAmbiguous(ctx context.Context, searchID, tenantID string, warnings []models.MatchWarning) error
}

type Config struct {
	DefaultTimeout    time.Duration
	DefaultPageSize   int
	MaxPageSize       int
	// SideEffectTimeout bounds review recording and event publishing, which run after the response is built
	SideEffectTimeout time.Duration
}

type Orchestrator struct {
	internal  InternalSearcher
	providers ProviderSource
	merger    *merging.Merger
	reviews   ReviewRecorder
	events    EventPublisher
	cfg       Config
	logger    ectologger.Logger
	pending   sync.WaitGroup
}

// NewOrchestrator wires a search orchestrator. reviews and events may be nil.
func NewOrchestrator(
	cfg Config,
	internal InternalSearcher,
	source ProviderSource,
	merger *merging.Merger,
	reviews ReviewRecorder,
	events EventPublisher,
	logger ectologger.Logger,
) *Orchestrator {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = DefaultSideEffectTimeout
	}

	return &Orchestrator{
		internal:  internal,
		providers: source,
		merger:    merger,
		reviews:   reviews,
		events:    events,
		cfg:       cfg,
		logger:    logger,
	}
}

func (o *Orchestrator) withDefaults(req models.SearchRequest) (models.SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.EntityType == "" {
		req.EntityType = models.EntityTypeAll
	}
	switch req.EntityType {
	case models.EntityTypeAll, models.EntityTypePerson, models.EntityTypeOrganisation:
	default:
		return req, httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported entity type: %s", req.EntityType)
	}
	if req.Page < 0 {
		req.Page = 0
	}
	if req.PageSize <= 0 {
		req.PageSize = o.cfg.DefaultPageSize
	}
	if req.PageSize > o.cfg.MaxPageSize {
		req.PageSize = o.cfg.MaxPageSize
	}
	if req.TimeoutMs <= 0 {
		req.TimeoutMs = int(o.cfg.DefaultTimeout / time.Millisecond)
	}
	return req, nil
}

// Search queries the ODS and every capable provider concurrently. The external leg is bounded by
// the request timeout; a failed or late leg contributes no results and is reported in Legs.
func (o *Orchestrator) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	req, err := o.withDefaults(req)
	if err != nil {
		return nil, err
	}

	searchID := uuid.NewString()
	ctx = appctx.SetSearchID(ctx, searchID)
	ctx, span := tracing.StartSpan(ctx, "search.Orchestrator.Search")
	defer span.End()
	tracing.SetAttributes(ctx, map[string]string{
		"search.id":          searchID,
		"search.entity_type": string(req.EntityType),
	})

	start := time.Now()
	kinds := req.EntityType.Kinds()

	var (
		internal, external       models.ResultSet
		internalLeg, externalLeg models.LegStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		internal, internalLeg = o.searchInternal(gctx, req, kinds)
		return nil
	})
	g.Go(func() error {
		external, externalLeg = o.searchExternal(gctx, req, kinds)
		return nil
	})
	_ = g.Wait()

	outcome := o.merger.MergeResults(ctx, internal, external, merging.DefaultLabels())
	results := merging.EnrichResults(outcome.Results)

	resp := &models.SearchResponse{
		SearchID:   searchID,
		Results:    results,
		OdsCount:   internal.Count(),
		PmsCount:   external.Count(),
		TotalCount: len(results),
		Warnings:   outcome.Warnings,
		Legs:       []models.LegStatus{internalLeg, externalLeg},
	}

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"search_id":   searchID,
		"entity_type": string(req.EntityType),
		"ods_count":   resp.OdsCount,
		"pms_count":   resp.PmsCount,
		"total_count": resp.TotalCount,
		"warnings":    len(resp.Warnings),
		"ods_ok":      internalLeg.Success,
		"pms_ok":      externalLeg.Success,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Search completed")

	o.runAfterSearch(ctx, req, resp, time.Since(start))
	return resp, nil
}

// Wait blocks until every detached after-search task has finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// runAfterSearch records reviews and publishes events off the request path. The work keeps the
// request's values but not its cancellation, and is bounded by SideEffectTimeout.
func (o *Orchestrator) runAfterSearch(ctx context.Context, req models.SearchRequest, resp *models.SearchResponse, elapsed time.Duration) {
	if o.reviews == nil && o.events == nil {
		return
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.SideEffectTimeout)
	summary := *resp
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer cancel()
		o.afterSearch(detached, req, &summary, elapsed)
	}()
}

func (o *Orchestrator) searchInternal(ctx context.Context, req models.SearchRequest, kinds []entity.Kind) (models.ResultSet, models.LegStatus) {
	start := time.Now()
	rs, err := o.internal.Search(ctx, ods.SearchRequest{
		Query:    req.Query,
		Kinds:    kinds,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Warn("ODS search failed")
		metrics.RecordSearchLeg(models.LegInternal, models.LegErrorFailed, time.Since(start))
		return models.EmptyResultSet(), models.LegStatus{
			Leg:     models.LegInternal,
			Error:   models.LegErrorFailed,
			Message: err.Error(),
		}
	}

	metrics.RecordSearchLeg(models.LegInternal, "success", time.Since(start))
	return rs, models.LegStatus{Leg: models.LegInternal, Success: true, Count: rs.Len()}
}

type pair struct {
	provider providers.Provider
	kind     entity.Kind
}

type pairResult struct {
	rs  models.ResultSet
	err error
}

// pairs lists (provider, kind) combinations in provider order, persons before organisations.
func (o *Orchestrator) pairs(ctx context.Context, kinds []entity.Kind) []pair {
	capable := make(map[entity.Kind]map[string]bool, len(kinds))
	for _, kind := range kinds {
		capable[kind] = map[string]bool{}
		for _, p := range o.providers.Capable(ctx, kind) {
			capable[kind][p.SystemName()] = true
		}
	}

	var out []pair
	for _, p := range o.providers.Providers() {
		for _, kind := range kinds {
			if capable[kind][p.SystemName()] {
				out = append(out, pair{provider: p, kind: kind})
			}
		}
	}
	return out
}

func (o *Orchestrator) searchExternal(ctx context.Context, req models.SearchRequest, kinds []entity.Kind) (models.ResultSet, models.LegStatus) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
	defer cancel()

	pairs := o.pairs(ctx, kinds)
	if len(pairs) == 0 {
		metrics.RecordSearchLeg(models.LegExternal, "success", time.Since(start))
		return models.EmptyResultSet(), models.LegStatus{Leg: models.LegExternal, Success: true}
	}

	results := make([]pairResult, len(pairs))
	done := make(chan struct{})
	go func() {
		var fan errgroup.Group
		for i, p := range pairs {
			fan.Go(func() error {
				rs, err := p.provider.Search(ctx, providers.Query{
					Query:    req.Query,
					Kind:     p.kind,
					Page:     req.Page,
					PageSize: req.PageSize,
				})
				results[i] = pairResult{rs: rs, err: err}
				return nil
			})
		}
		_ = fan.Wait()
		close(done)
	}()

	// Providers that ignore cancellation keep running after the deadline; their results are dropped.
	select {
	case <-done:
		if ctx.Err() == nil {
			return o.collect(ctx, pairs, results, start)
		}
	case <-ctx.Done():
	}

	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		metrics.RecordSearchLeg(models.LegExternal, models.LegErrorFailed, time.Since(start))
		return models.EmptyResultSet(), models.LegStatus{
			Leg:     models.LegExternal,
			Error:   models.LegErrorFailed,
			Message: "PMS search cancelled",
		}
	}

	o.logger.WithContext(ctx).WithField("timeout_ms", req.TimeoutMs).Warn(timeoutMessage)
	metrics.RecordSearchLeg(models.LegExternal, models.LegErrorTimeout, time.Since(start))
	return models.EmptyResultSet(), models.LegStatus{
		Leg:     models.LegExternal,
		Error:   models.LegErrorTimeout,
		Message: timeoutMessage,
	}
}

func (o *Orchestrator) collect(ctx context.Context, pairs []pair, results []pairResult, start time.Time) (models.ResultSet, models.LegStatus) {
	combined := models.ResultSet{Results: []entity.Entity{}, Success: true}
	var failures []string

	for i, r := range results {
		name := pairs[i].provider.SystemName()
		if r.err != nil {
			o.logger.WithContext(ctx).WithError(r.err).WithFields(map[string]any{
				"provider":    name,
				"entity_type": pairs[i].kind.String(),
			}).Warn("Provider search failed")
			failures = append(failures, fmt.Sprintf("%s/%s: %v", name, pairs[i].kind, r.err))
			continue
		}

		for _, e := range r.rs.Results {
			record := e.Clone()
			if record.String("providerSystemName") == "" {
				record["providerSystemName"] = name
			}
			combined.Results = append(combined.Results, record)
		}
		combined.TotalResults += r.rs.Count()
		combined.Malformed += r.rs.Malformed
		combined.HasMore = combined.HasMore || r.rs.HasMore
	}

	if len(failures) == len(pairs) {
		metrics.RecordSearchLeg(models.LegExternal, models.LegErrorFailed, time.Since(start))
		return models.EmptyResultSet(), models.LegStatus{
			Leg:     models.LegExternal,
			Error:   models.LegErrorFailed,
			Message: strings.Join(failures, "; "),
		}
	}

	metrics.RecordSearchLeg(models.LegExternal, "success", time.Since(start))
	return combined, models.LegStatus{
		Leg:     models.LegExternal,
		Success: true,
		Message: strings.Join(failures, "; "),
		Count:   combined.Len(),
	}
}

func (o *Orchestrator) afterSearch(ctx context.Context, req models.SearchRequest, resp *models.SearchResponse, elapsed time.Duration) {
	log := o.logger.WithContext(ctx).WithField("search_id", resp.SearchID)
	tenantID := appctx.GetTenantID(ctx)

	if len(resp.Warnings) > 0 && o.reviews != nil {
		if err := o.reviews.RecordWarnings(ctx, resp.Warnings); err != nil {
			log.WithError(err).Warn("Failed to record match reviews")
		}
	}

	if o.events == nil {
		return
	}
	if len(resp.Warnings) > 0 {
		if err := o.events.PublishMatchAmbiguous(ctx, resp.SearchID, tenantID, resp.Warnings); err != nil {
			log.WithError(err).Warn("Failed to publish ambiguous match events")
		}
	}
	err := o.events.PublishSearchCompleted(ctx, models.SearchCompletedEvent{
		SearchID:   resp.SearchID,
		TenantID:   tenantID,
		Query:      req.Query,
		EntityType: req.EntityType,
		OdsCount:   resp.OdsCount,
		PmsCount:   resp.PmsCount,
		TotalCount: resp.TotalCount,
		Warnings:   len(resp.Warnings),
		Legs:       resp.Legs,
		DurationMs: elapsed.Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to publish search event")
	}
}
