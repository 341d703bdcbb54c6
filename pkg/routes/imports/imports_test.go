package imports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/importer"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

type fakeImporter struct {
	err error
}

func (f *fakeImporter) Import(_ context.Context, result models.MergedResult) (models.MergedResult, error) {
	if f.err != nil {
		return result, f.err
	}
	result.Source = models.SourceMatched
	result.OdsID = "ods-42"
	return result, nil
}

func post(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(echo.New().NewContext(req, rec)))
	return rec
}

func TestHandler_Import(t *testing.T) {
	t.Run("returns the imported result", func(t *testing.T) {
		rec := post(t, NewHandler(&fakeImporter{}).Import, `{"id":"merged-1","source":"pms","pmsId":"PMS-P001"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var result models.MergedResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "ods-42", result.OdsID)
		assert.Equal(t, models.SourceMatched, result.Source)
	})

	t.Run("validation failures are unprocessable", func(t *testing.T) {
		verr := &importer.ValidationError{Result: models.ValidationResult{
			Errors: []models.FieldError{{Field: "abn", Message: "Invalid ABN"}},
		}}
		rec := post(t, NewHandler(&fakeImporter{err: verr}).Import, `{"id":"merged-1","source":"pms"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body ValidationFailure
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.IsValid)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "abn", body.Errors[0].Field)
	})
}

func TestHandler_Validate(t *testing.T) {
	rec := post(t, NewHandler(&fakeImporter{}).Validate, `{"entityType":"person","data":{"firstName":"Sarah","lastName":"Anderson","email":"not-an-email"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
}
