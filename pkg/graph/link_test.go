package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

type failingExecutor struct {
	err error
}

func (f failingExecutor) ExecuteWrite(_ context.Context, _ neo4j.ManagedTransactionWork) (any, error) {
	return nil, f.err
}

func (f failingExecutor) ExecuteRead(_ context.Context, _ neo4j.ManagedTransactionWork) (any, error) {
	return nil, f.err
}

func TestLinkParams(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	params := linkParams("tenant-1", models.ImportLink{
		OdsID:              "ods-1",
		ExternalID:         "PMS-P005",
		ProviderSystemName: "pms",
		EntityType:         "person",
		DisplayName:        "Sarah Anderson",
	}, now)

	assert.Equal(t, "ods-1", params["ods_id"])
	assert.Equal(t, "tenant-1", params["tenant_id"])
	assert.Equal(t, "PMS-P005", params["external_id"])
	assert.Equal(t, "pms", params["provider"])
	assert.Equal(t, "2026-03-01T10:00:00Z", params["created_at"])
}

func TestLinkService_Errors(t *testing.T) {
	svc := NewLinkService(failingExecutor{err: errors.New("bolt down")}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := svc.LinkImport(context.Background(), models.ImportLink{OdsID: "ods-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bolt down")

	_, err = svc.LinksForOds(context.Background(), "ods-1")
	require.Error(t, err)
}

func TestLinkImportCypher_IsIdempotent(t *testing.T) {
	assert.Contains(t, linkImportCypher, "MERGE (o)-[r:IMPORTED_FROM]->(x)")
	assert.NotContains(t, linkImportCypher, "CREATE (")
}
