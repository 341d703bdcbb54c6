// Package ods talks to the internal Object Data Store over its REST API.
package ods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/httpclient"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

const (
	searchPath             = "/api/ods/_search"
	personPath             = "/api/ods/person/%s"
	organisationPath       = "/api/ods/organisation/%s"
	createPersonPath       = "/api/aspects/ods/people/"
	createOrganisationPath = "/api/aspects/ods/organisations/"

	defaultPageSize = 20
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	http   *httpclient.Client
	logger ectologger.Logger
}

func NewClient(cfg Config, logger ectologger.Logger) *Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.BaseURL = cfg.BaseURL
	httpCfg.BearerToken = cfg.Token
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}

	return &Client{
		http:   httpclient.NewClient(httpCfg, logger),
		logger: logger,
	}
}

// SearchRequest selects one page of ODS entities.
type SearchRequest struct {
	Query    string
	Kinds    []entity.Kind
	Page     int
	PageSize int
}

type searchParticipants struct {
	Enabled bool `json:"enabled"`
}

type searchOds struct {
	Enabled                   bool     `json:"enabled"`
	AssociatedWithMatterOwner bool     `json:"associatedWithMatterOwner"`
	Label                     *string  `json:"label"`
	OtherOdsIDs               []string `json:"otherOdsIds"`
}

type searchPayload struct {
	Query              string             `json:"query"`
	Page               int                `json:"page"`
	PageSize           int                `json:"pageSize"`
	SearchType         string             `json:"searchType"`
	SearchParticipants searchParticipants `json:"searchParticipants"`
	SearchOds          searchOds          `json:"searchOds"`
	Competencies       []string           `json:"competencies"`
	Teams              []string           `json:"teams"`
	Roles              []string           `json:"roles"`
	OdsTypes           []string           `json:"odsTypes"`
	WallManagement     bool               `json:"wallManagement"`
	OdsEntityTypes     []string           `json:"odsEntityTypes"`
}

type searchRow struct {
	ID            string `json:"id"`
	OdsEntityType string `json:"odsEntityType"`
	Result        string `json:"result"`
}

type searchResponse struct {
	Rows      []searchRow `json:"rows"`
	TotalRows int         `json:"totalRows"`
	Page      int         `json:"page"`
}

type contactDetail struct {
	ContactTypeSystemName string `json:"contactTypeSystemName"`
	ContactValue          string `json:"contactValue"`
}

func buildSearchPayload(req SearchRequest) searchPayload {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	kinds := req.Kinds
	if len(kinds) != 1 {
		kinds = []entity.Kind{entity.KindPerson, entity.KindOrganisation}
	}

	return searchPayload{
		Query:              req.Query,
		Page:               req.Page,
		PageSize:           pageSize,
		SearchType:         "quick",
		SearchParticipants: searchParticipants{Enabled: false},
		SearchOds:          searchOds{Enabled: true, OtherOdsIDs: []string{}},
		Competencies:       []string{},
		Teams:              []string{},
		Roles:              []string{},
		OdsTypes:           []string{},
		OdsEntityTypes:     ectolinq.Map(kinds, func(k entity.Kind) string { return k.String() }),
	}
}

// Search runs a quick search and flattens each row into an entity.
func (c *Client) Search(ctx context.Context, req SearchRequest) (models.ResultSet, error) {
	ctx, span := tracing.StartSpan(ctx, "ods.Client.Search")
	defer span.End()

	var resp searchResponse
	if err := c.http.DoJSON(ctx, searchPath, buildSearchPayload(req), &resp); err != nil {
		tracing.RecordError(span, err)
		return models.EmptyResultSet(), fmt.Errorf("ods search failed: %w", err)
	}

	results := make([]entity.Entity, 0, len(resp.Rows))
	malformed := 0
	for _, row := range resp.Rows {
		e, err := flattenRow(row)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithField("row_id", row.ID).Warn("Failed to parse ODS result row")
			malformed++
			continue
		}
		results = append(results, e)
	}

	total := resp.TotalRows
	if total == 0 {
		total = len(results)
	}

	return models.ResultSet{
		Results:      results,
		TotalResults: total,
		Page:         resp.Page,
		HasMore:      len(results) > 0 && resp.TotalRows > len(results),
		Success:      true,
		Malformed:    malformed,
	}, nil
}

func flattenRow(row searchRow) (entity.Entity, error) {
	var e entity.Entity
	if err := json.Unmarshal([]byte(row.Result), &e); err != nil {
		return nil, fmt.Errorf("invalid result json: %w", err)
	}
	if e == nil {
		return nil, errors.New("empty result")
	}

	if e.ID() == "" {
		e["id"] = row.ID
	}
	e["odsId"] = e.ID()
	if e.String("odsEntityType") == "" && row.OdsEntityType != "" {
		e["odsEntityType"] = row.OdsEntityType
	}

	Flatten(e)
	return e, nil
}

// Flatten lifts contact details and the first location onto top-level fields and fills odsType.
func Flatten(e entity.Entity) {
	flattenContacts(e)
	flattenLocation(e)

	if e.String("odsType") == "" {
		if t := e.String("odsEntityType"); t != "" {
			e["odsType"] = t
		} else if e.String("firstName") != "" || e.String("lastName") != "" {
			e["odsType"] = entity.KindPerson.String()
		} else {
			e["odsType"] = entity.KindOrganisation.String()
		}
	}
}

func flattenContacts(e entity.Entity) {
	aspects, ok := e["aspectData"].(map[string]any)
	if !ok {
		return
	}
	raw, err := json.Marshal(aspects["ContactDetails"])
	if err != nil {
		return
	}
	var contacts []contactDetail
	if err := json.Unmarshal(raw, &contacts); err != nil {
		return
	}

	email := ectolinq.Find(contacts, func(c contactDetail) bool {
		return c.ContactTypeSystemName == "email"
	})
	if email.ContactValue != "" {
		if e.String("email") == "" {
			e["email"] = email.ContactValue
		}
		e["primaryEmail"] = email.ContactValue
	}

	phone := ectolinq.Find(contacts, func(c contactDetail) bool {
		return c.ContactTypeSystemName == "mobile" || c.ContactTypeSystemName == "direct-line" || c.ContactTypeSystemName == "phone"
	})
	if phone.ContactValue != "" {
		if e.String("phone") == "" {
			e["phone"] = phone.ContactValue
		}
		e["primaryPhone"] = phone.ContactValue
	}
}

func flattenLocation(e entity.Entity) {
	locations, ok := e["locations"].([]any)
	if !ok || len(locations) == 0 {
		return
	}
	loc, ok := locations[0].(map[string]any)
	if !ok {
		return
	}
	first := entity.Entity(loc)
	e["address"] = first["addressLine1"]
	e["suburb"] = first["town"]
	e["postcode"] = first["postCode"]
	e["state"] = first["county"]
}

// LoadEntityByID fetches a person, falling back to an organisation. It returns nil when neither exists.
func (c *Client) LoadEntityByID(ctx context.Context, id string) (entity.Entity, error) {
	ctx, span := tracing.StartSpan(ctx, "ods.Client.LoadEntityByID")
	defer span.End()

	if id == "" {
		return nil, nil
	}

	for _, path := range []string{personPath, organisationPath} {
		var e entity.Entity
		err := c.http.GetJSON(ctx, fmt.Sprintf(path, id), &e)
		if err == nil && e != nil {
			return e, nil
		}

		var statusErr *httpclient.StatusError
		if err != nil && !errors.As(err, &statusErr) {
			tracing.RecordError(span, err)
			return nil, httperror.WrapError(http.StatusBadGateway, err)
		}
	}

	c.logger.WithContext(ctx).WithField("ods_id", id).Debug("Entity not found in ODS")
	return nil, nil
}

type createResponse struct {
	ID string `json:"id"`
}

// Create posts an aspect payload and returns the new ODS id.
func (c *Client) Create(ctx context.Context, kind entity.Kind, payload models.CreatePayload) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "ods.Client.Create")
	defer span.End()

	path := createPersonPath
	if kind == entity.KindOrganisation {
		path = createOrganisationPath
	}

	var created createResponse
	if err := c.http.DoJSON(ctx, path, payload, &created); err != nil {
		tracing.RecordError(span, err)
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return "", httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "ODS rejected %s: %s", kind, statusErr.Body)
		}
		return "", httperror.WrapError(http.StatusBadGateway, fmt.Errorf("failed to create %s in ODS: %w", kind, err))
	}
	if created.ID == "" {
		return "", httperror.NewHTTPErrorf(http.StatusBadGateway, "ODS create for %s returned no id", kind)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"ods_id":      created.ID,
		"entity_type": kind.String(),
	}).Info("Created entity in ODS")

	return created.ID, nil
}
