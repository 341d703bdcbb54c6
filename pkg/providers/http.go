package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/expressions"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/httpclient"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

// HTTPConfig describes a provider reached over a JSON search API.
type HTTPConfig struct {
	SystemName  string
	DisplayName string
	BaseURL     string
	Token       string
	Timeout     time.Duration

	PersonPath       string
	OrganisationPath string
	// CapabilitiesPath, when set, is fetched with GET and must return {"kinds": [...], "maxPageSize": n}.
	CapabilitiesPath string

	ResultsExpression string
	TotalExpression   string
	HasMoreExpression string
	// FieldMap maps entity fields to JMESPath expressions evaluated against each provider record.
	FieldMap map[string]string
}

type HTTPProvider struct {
	cfg       HTTPConfig
	client    *httpclient.Client
	evaluator *expressions.Evaluator
	logger    ectologger.Logger
}

func NewHTTPProvider(cfg HTTPConfig, evaluator *expressions.Evaluator, logger ectologger.Logger) (*HTTPProvider, error) {
	if cfg.SystemName == "" {
		return nil, fmt.Errorf("provider system name is required")
	}
	if cfg.ResultsExpression == "" {
		cfg.ResultsExpression = "results"
	}
	if cfg.TotalExpression == "" {
		cfg.TotalExpression = "totalResults"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.SystemName
	}

	exprs := []string{cfg.ResultsExpression, cfg.TotalExpression}
	if cfg.HasMoreExpression != "" {
		exprs = append(exprs, cfg.HasMoreExpression)
	}
	for _, expr := range cfg.FieldMap {
		exprs = append(exprs, expr)
	}
	for _, expr := range exprs {
		if err := evaluator.Validate(expr); err != nil {
			return nil, fmt.Errorf("provider %s: invalid expression %q: %w", cfg.SystemName, expr, err)
		}
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.BaseURL = cfg.BaseURL
	httpCfg.BearerToken = cfg.Token
	if cfg.Timeout > 0 {
		httpCfg.Timeout = cfg.Timeout
	}

	return &HTTPProvider{
		cfg:       cfg,
		client:    httpclient.NewClient(httpCfg, logger),
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

func (p *HTTPProvider) SystemName() string {
	return p.cfg.SystemName
}

type remoteCapabilities struct {
	Kinds       []string `json:"kinds"`
	MaxPageSize int      `json:"maxPageSize"`
}

// Capabilities asks the provider when a capabilities path is configured, otherwise derives them from the configured paths.
func (p *HTTPProvider) Capabilities(ctx context.Context) (Capabilities, error) {
	ctx, span := tracing.StartSpan(ctx, "providers.HTTPProvider.Capabilities")
	defer span.End()

	caps := Capabilities{SystemName: p.cfg.SystemName, DisplayName: p.cfg.DisplayName}

	if p.cfg.CapabilitiesPath == "" {
		if p.cfg.PersonPath != "" {
			caps.Kinds = append(caps.Kinds, entity.KindPerson)
		}
		if p.cfg.OrganisationPath != "" {
			caps.Kinds = append(caps.Kinds, entity.KindOrganisation)
		}
		return caps, nil
	}

	var remote remoteCapabilities
	if err := p.client.GetJSON(ctx, p.cfg.CapabilitiesPath, &remote); err != nil {
		tracing.RecordError(span, err)
		return caps, fmt.Errorf("capability discovery for %s failed: %w", p.cfg.SystemName, err)
	}

	for _, k := range remote.Kinds {
		if kind, ok := entity.ParseKind(k); ok && !ectolinq.Contains(caps.Kinds, kind) {
			caps.Kinds = append(caps.Kinds, kind)
		}
	}
	caps.MaxPageSize = remote.MaxPageSize
	return caps, nil
}

type searchBody struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Type     string `json:"type"`
}

func (p *HTTPProvider) Search(ctx context.Context, q Query) (models.ResultSet, error) {
	ctx, span := tracing.StartSpan(ctx, "providers.HTTPProvider.Search")
	defer span.End()

	path := p.cfg.PersonPath
	if q.Kind == entity.KindOrganisation {
		path = p.cfg.OrganisationPath
	}
	if path == "" {
		return models.EmptyResultSet(), fmt.Errorf("provider %s does not search %s", p.cfg.SystemName, q.Kind)
	}

	var doc any
	body := searchBody{Query: q.Query, Page: q.Page, PageSize: q.PageSize, Type: q.Kind.String()}
	if err := p.client.DoJSON(ctx, path, body, &doc); err != nil {
		tracing.RecordError(span, err)
		return models.EmptyResultSet(), fmt.Errorf("provider %s search failed: %w", p.cfg.SystemName, err)
	}

	return p.extract(doc, q)
}

func (p *HTTPProvider) extract(doc any, q Query) (models.ResultSet, error) {
	records, err := p.evaluator.EvaluateRecords(p.cfg.ResultsExpression, doc)
	if err != nil {
		return models.EmptyResultSet(), err
	}

	results := make([]entity.Entity, 0, len(records))
	for _, record := range records {
		e := entity.Entity(record).Clone()
		if len(p.cfg.FieldMap) > 0 {
			projected, err := p.evaluator.Project(p.cfg.FieldMap, record)
			if err != nil {
				return models.EmptyResultSet(), err
			}
			for k, v := range projected {
				e[k] = v
			}
		}
		if e.String("odsType") == "" {
			e["odsType"] = q.Kind.String()
		}
		results = append(results, e)
	}

	total, err := p.evaluator.EvaluateInt(p.cfg.TotalExpression, doc)
	if err != nil {
		return models.EmptyResultSet(), err
	}

	hasMore := q.PageSize > 0 && total > (q.Page+1)*q.PageSize
	if p.cfg.HasMoreExpression != "" {
		if hasMore, err = p.evaluator.EvaluateBool(p.cfg.HasMoreExpression, doc); err != nil {
			return models.EmptyResultSet(), err
		}
	}

	return models.ResultSet{
		Results:      results,
		TotalResults: total,
		Page:         q.Page,
		HasMore:      hasMore,
		Success:      true,
	}, nil
}
