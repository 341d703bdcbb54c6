package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

type fakeSearcher struct {
	got models.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	f.got = req
	return &models.SearchResponse{SearchID: "search-1", Results: []models.MergedResult{}, Legs: []models.LegStatus{}}, nil
}

func TestHandler_Search(t *testing.T) {
	t.Run("binds the json body", func(t *testing.T) {
		searcher := &fakeSearcher{}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"sarah","entityType":"person","pageSize":5,"timeoutMs":250}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		err := NewHandler(searcher).Search(echo.New().NewContext(req, rec))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.SearchRequest{Query: "sarah", EntityType: models.EntityTypePerson, PageSize: 5, TimeoutMs: 250}, searcher.got)

		var resp models.SearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "search-1", resp.SearchID)
	})

	t.Run("binds query parameters on GET", func(t *testing.T) {
		searcher := &fakeSearcher{}
		req := httptest.NewRequest(http.MethodGet, "/?query=legal&entityType=organisation", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, NewHandler(searcher).Search(echo.New().NewContext(req, rec)))
		assert.Equal(t, "legal", searcher.got.Query)
		assert.Equal(t, models.EntityTypeOrganisation, searcher.got.EntityType)
	})

	t.Run("rejects an oversized page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"pageSize":500}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		err := NewHandler(&fakeSearcher{}).Search(echo.New().NewContext(req, httptest.NewRecorder()))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}
