package ods

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Token: "token"}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

const personRow = `{"id":"ods-1","firstName":"Sarah","surname":"Anderson",` +
	`"aspectData":{"ContactDetails":[{"contactTypeSystemName":"direct-line","contactValue":"0298887777"},` +
	`{"contactTypeSystemName":"email","contactValue":"sarah@example.com"}]},` +
	`"locations":[{"addressLine1":"100 Legal St","town":"Sydney","postCode":"2000","county":"NSW"}]}`

func TestClient_Search(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, searchPath, r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalRows": 5,
			"rows": []map[string]any{
				{"id": "ods-1", "odsEntityType": "person", "result": personRow},
				{"id": "ods-2", "odsEntityType": "organisation", "result": "{not json"},
			},
		})
	}))
	defer server.Close()

	rs, err := newTestClient(server.URL).Search(context.Background(), SearchRequest{Query: "sarah", Kinds: []entity.Kind{entity.KindPerson}, PageSize: 10})
	require.NoError(t, err)

	t.Run("builds the quick search payload", func(t *testing.T) {
		assert.Equal(t, "sarah", payload["query"])
		assert.Equal(t, "quick", payload["searchType"])
		assert.Equal(t, float64(10), payload["pageSize"])
		assert.Equal(t, []any{"person"}, payload["odsEntityTypes"])
		assert.Equal(t, map[string]any{"enabled": false}, payload["searchParticipants"])
		assert.Equal(t, false, payload["wallManagement"])
	})

	t.Run("skips rows that fail to parse", func(t *testing.T) {
		require.Len(t, rs.Results, 1)
		assert.True(t, rs.Success)
		assert.Equal(t, 5, rs.TotalResults)
		assert.True(t, rs.HasMore)
	})

	t.Run("flattens contacts and the first location", func(t *testing.T) {
		e := rs.Results[0]
		assert.Equal(t, "ods-1", e.String("odsId"))
		assert.Equal(t, "person", e.String("odsEntityType"))
		assert.Equal(t, "person", e.String("odsType"))
		assert.Equal(t, "sarah@example.com", e.String("email"))
		assert.Equal(t, "0298887777", e.String("phone"))
		assert.Equal(t, "100 Legal St", e.String("address"))
		assert.Equal(t, "Sydney", e.String("suburb"))
		assert.Equal(t, "2000", e.String("postcode"))
		assert.Equal(t, "NSW", e.String("state"))
	})
}

func TestBuildSearchPayload_AllKinds(t *testing.T) {
	p := buildSearchPayload(SearchRequest{Kinds: []entity.Kind{entity.KindPerson, entity.KindOrganisation}})
	assert.Equal(t, []string{"person", "organisation"}, p.OdsEntityTypes)
	assert.Equal(t, defaultPageSize, p.PageSize)
	assert.True(t, p.SearchOds.Enabled)
	assert.Nil(t, p.SearchOds.Label)
}

func TestFlatten_InfersOrganisation(t *testing.T) {
	e := entity.Entity{"name": "Legal Solutions Pty Ltd"}
	Flatten(e)
	assert.Equal(t, "organisation", e.String("odsType"))
}

func TestClient_LoadEntityByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ods/organisation/org-1":
			_, _ = w.Write([]byte(`{"id":"org-1","name":"Legal Solutions Pty Ltd"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	t.Run("falls back to the organisation endpoint", func(t *testing.T) {
		e, err := client.LoadEntityByID(context.Background(), "org-1")
		require.NoError(t, err)
		assert.Equal(t, "Legal Solutions Pty Ltd", e.String("name"))
	})

	t.Run("returns nil when neither endpoint knows the id", func(t *testing.T) {
		e, err := client.LoadEntityByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("returns nil for an empty id", func(t *testing.T) {
		e, err := client.LoadEntityByID(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, e)
	})
}

func TestClient_Create(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path == createOrganisationPath {
			http.Error(w, `{"message":"abn invalid"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"id":"ods-99"}`))
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	t.Run("posts people to the people aspect endpoint", func(t *testing.T) {
		id, err := client.Create(context.Background(), entity.KindPerson, models.CreatePayload{FirstName: "Sarah"})
		require.NoError(t, err)
		assert.Equal(t, "ods-99", id)
		assert.Equal(t, createPersonPath, gotPath)
	})

	t.Run("maps ODS rejections to 422", func(t *testing.T) {
		_, err := client.Create(context.Background(), entity.KindOrganisation, models.CreatePayload{OrganisationName: "X"})
		require.Error(t, err)
		assert.True(t, httperror.IsHTTPError(err))
		assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(err))
	})
}
