package conflicts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/conflicts"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

func post(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(echo.New().NewContext(req, rec)))
	return rec
}

func TestHandler_Detect(t *testing.T) {
	h := NewHandler(conflicts.NewDetector())
	rec := post(t, h.Detect, `{
		"primary": {"firstName": "Sarah", "lastName": "Anderson", "phone": "0412111222"},
		"secondary": {"firstName": "Sarah", "lastName": "Anderson", "phone": "0412111223"}
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "phone", resp.Conflicts[0].Field)
	assert.True(t, resp.Analysis.RequiresReview)
	assert.Equal(t, models.SeverityHigh, resp.Analysis.Severity)
}

func TestHandler_Options(t *testing.T) {
	h := NewHandler(conflicts.NewDetector())
	rec := post(t, h.Options, `{"field":"phone","odsValue":"0412111222","pmsValue":"0412111223","severity":"high"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var options []conflicts.ResolutionOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &options))
	require.NotEmpty(t, options)
	assert.Equal(t, conflicts.ActionKeepOds, options[0].Action)
	assert.Equal(t, conflicts.ActionManual, options[len(options)-1].Action)
}
