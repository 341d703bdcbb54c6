package matchreview

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/database"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *Repository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	repo := NewRepository(database.NewDatabaseInstance(sqlx.NewDb(db, "sqlmock"), logger), logger)
	return mock, repo
}

func reviewRow(status models.ReviewStatus) *sqlmock.Rows {
	return sqlmock.NewRows(selectColumns).AddRow(
		"review-1", "tenant-1", models.WarningReferenceKeyMismatch, "PMS-P005", "pms",
		"ods-1", "ods-2", "person:sarah:anderson:1982-04-15", "fp-1", "ambiguous", string(status),
		time.Now().UTC(), nil, nil, nil,
	)
}

func TestRepository_RecordWarnings(t *testing.T) {
	t.Run("inserts one row per warning and skips known fingerprints", func(t *testing.T) {
		mock, repo := setupMockDB(t)
		ctx := appctx.SetTenantID(context.Background(), "tenant-1")

		mock.ExpectExec(`INSERT INTO match_reviews (.+) ON CONFLICT \(tenant_id, fingerprint\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.RecordWarnings(ctx, []models.MatchWarning{
			{Kind: models.WarningReferenceKeyMismatch, ExternalID: "PMS-P005", ReferenceMatchOds: "ods-1", KeyMatchOds: "ods-2", Fingerprint: "fp-1"},
			{Kind: models.WarningAlreadyMatched, ExternalID: "PMS-P006", ReferenceMatchOds: "ods-1", Fingerprint: "fp-2"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no warnings is a no-op", func(t *testing.T) {
		mock, repo := setupMockDB(t)
		require.NoError(t, repo.RecordWarnings(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_List(t *testing.T) {
	mock, repo := setupMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM match_reviews WHERE (.+) ORDER BY created_at DESC`).
		WillReturnRows(reviewRow(models.ReviewStatusPending))

	reviews, err := repo.List(context.Background(), "tenant-1", models.ReviewStatusPending, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "PMS-P005", reviews[0].ExternalID)
	require.NotNil(t, reviews[0].KeyMatchOdsID)
	assert.Equal(t, "ods-2", *reviews[0].KeyMatchOdsID)
	assert.Nil(t, reviews[0].Resolution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Resolve(t *testing.T) {
	t.Run("marks a pending review resolved", func(t *testing.T) {
		mock, repo := setupMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM match_reviews WHERE`).
			WithArgs("review-1", "tenant-1").
			WillReturnRows(reviewRow(models.ReviewStatusPending))
		mock.ExpectExec(`UPDATE match_reviews SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		review, err := repo.Resolve(context.Background(), "tenant-1", "review-1", "reference", "user-7")
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusResolved, review.Status)
		require.NotNil(t, review.Resolution)
		assert.Equal(t, "reference", *review.Resolution)
		require.NotNil(t, review.ResolvedBy)
		assert.Equal(t, "user-7", *review.ResolvedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a review that is already resolved", func(t *testing.T) {
		mock, repo := setupMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM match_reviews WHERE`).
			WillReturnRows(reviewRow(models.ReviewStatusResolved))

		_, err := repo.Resolve(context.Background(), "tenant-1", "review-1", "key", "")
		require.Error(t, err)
		assert.Equal(t, 409, httperror.GetStatusCode(err))
	})

	t.Run("unknown review is not found", func(t *testing.T) {
		mock, repo := setupMockDB(t)
		mock.ExpectQuery(`SELECT (.+) FROM match_reviews WHERE`).
			WillReturnRows(sqlmock.NewRows(selectColumns))

		_, err := repo.Resolve(context.Background(), "tenant-1", "missing", "key", "")
		require.Error(t, err)
		assert.Equal(t, 404, httperror.GetStatusCode(err))
	})
}
