package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

// Executor runs managed transactions. *Client satisfies it.
type Executor interface {
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error)
	ExecuteRead(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error)
}

type LinkService struct {
	exec   Executor
	logger ectologger.Logger
}

func NewLinkService(exec Executor, logger ectologger.Logger) *LinkService {
	return &LinkService{
		exec:   exec,
		logger: logger,
	}
}

const linkImportCypher = `
	MERGE (o:OdsEntity {id: $ods_id, tenant_id: $tenant_id})
	SET o.entity_type = $entity_type, o.display_name = $display_name
	MERGE (x:ExternalRecord {provider: $provider, external_id: $external_id, tenant_id: $tenant_id})
	MERGE (o)-[r:IMPORTED_FROM]->(x)
	ON CREATE SET r.created_at = $created_at
	RETURN r
`

const linksForOdsCypher = `
	MATCH (o:OdsEntity {id: $ods_id, tenant_id: $tenant_id})-[:IMPORTED_FROM]->(x:ExternalRecord)
	RETURN x.provider AS provider, x.external_id AS external_id, o.entity_type AS entity_type, o.display_name AS display_name
`

func linkParams(tenantID string, link models.ImportLink, now time.Time) map[string]any {
	return map[string]any{
		"ods_id":       link.OdsID,
		"tenant_id":    tenantID,
		"entity_type":  link.EntityType,
		"display_name": link.DisplayName,
		"provider":     link.ProviderSystemName,
		"external_id":  link.ExternalID,
		"created_at":   now.UTC().Format(time.RFC3339),
	}
}

// LinkImport records that an ODS record was created from an external record. Repeat calls are no-ops.
func (s *LinkService) LinkImport(ctx context.Context, link models.ImportLink) error {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.LinkImport")
	defer span.End()

	params := linkParams(appctx.GetTenantID(ctx), link, time.Now())
	_, err := s.exec.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, linkImportCypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.WithContext(ctx).WithError(err).Error("Failed to link import in graph")
		return fmt.Errorf("failed to link import in graph: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"ods_id":      link.OdsID,
		"external_id": link.ExternalID,
		"provider":    link.ProviderSystemName,
	}).Debug("Linked import in graph")
	return nil
}

// LinksForOds lists the external records an ODS record was imported from.
func (s *LinkService) LinksForOds(ctx context.Context, odsID string) ([]models.ImportLink, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.LinkService.LinksForOds")
	defer span.End()

	out, err := s.exec.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, linksForOdsCypher, map[string]any{
			"ods_id":    odsID,
			"tenant_id": appctx.GetTenantID(ctx),
		})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		links := make([]models.ImportLink, 0, len(records))
		for _, rec := range records {
			m := rec.AsMap()
			links = append(links, models.ImportLink{
				OdsID:              odsID,
				ProviderSystemName: asString(m["provider"]),
				ExternalID:         asString(m["external_id"]),
				EntityType:         asString(m["entity_type"]),
				DisplayName:        asString(m["display_name"]),
			})
		}
		return links, nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to read import links: %w", err)
	}

	links, _ := out.([]models.ImportLink)
	return links, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
