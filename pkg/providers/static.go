package providers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/tracing"
)

//go:embed fixtures/pms.json
var defaultFixture []byte

const staticPageSize = 20

type StaticConfig struct {
	SystemName  string
	DisplayName string
	// FixturePath points at a JSON file of {"persons": [...], "organisations": [...]}. Empty uses the bundled data set.
	FixturePath string
	MinLatency  time.Duration
	MaxLatency  time.Duration
}

type fixture struct {
	Persons       []entity.Entity `json:"persons"`
	Organisations []entity.Entity `json:"organisations"`
}

// StaticProvider serves an in-memory data set, standing in for a practice management system.
type StaticProvider struct {
	cfg    StaticConfig
	logger ectologger.Logger

	mu            sync.RWMutex
	persons       []entity.Entity
	organisations []entity.Entity
}

func NewStaticProvider(cfg StaticConfig, logger ectologger.Logger) (*StaticProvider, error) {
	raw := defaultFixture
	if cfg.FixturePath != "" {
		b, err := os.ReadFile(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", cfg.FixturePath, err)
		}
		raw = b
	}

	var data fixture
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if cfg.SystemName == "" {
		cfg.SystemName = "pms"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "PMS"
	}

	logger.WithFields(map[string]any{
		"provider":      cfg.SystemName,
		"persons":       len(data.Persons),
		"organisations": len(data.Organisations),
	}).Info("Loaded static provider data")

	p := &StaticProvider{
		cfg:           cfg,
		logger:        logger,
		persons:       make([]entity.Entity, 0, len(data.Persons)),
		organisations: make([]entity.Entity, 0, len(data.Organisations)),
	}
	for _, e := range data.Persons {
		p.Add(entity.KindPerson, e)
	}
	for _, e := range data.Organisations {
		p.Add(entity.KindOrganisation, e)
	}
	return p, nil
}

func (p *StaticProvider) SystemName() string {
	return p.cfg.SystemName
}

func (p *StaticProvider) Capabilities(_ context.Context) (Capabilities, error) {
	return Capabilities{
		SystemName:  p.cfg.SystemName,
		DisplayName: p.cfg.DisplayName,
		Kinds:       []entity.Kind{entity.KindPerson, entity.KindOrganisation},
		MaxPageSize: staticPageSize,
	}, nil
}

// Search matches the query case-insensitively as a substring of the kind's searchable fields.
func (p *StaticProvider) Search(ctx context.Context, q Query) (models.ResultSet, error) {
	ctx, span := tracing.StartSpan(ctx, "providers.StaticProvider.Search")
	defer span.End()

	if err := p.simulateLatency(ctx); err != nil {
		return models.EmptyResultSet(), err
	}

	p.mu.RLock()
	dataset := p.persons
	fields := []string{"firstName", "lastName", "email", "phone"}
	if q.Kind == entity.KindOrganisation {
		dataset = p.organisations
		fields = []string{"name", "organisationName", "tradingName", "abn", "email"}
	}
	p.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(q.Query))
	matches := dataset
	if term != "" {
		matches = ectolinq.Filter(dataset, func(e entity.Entity) bool {
			return matchesAny(e, fields, term)
		})
	}

	start := q.Page * staticPageSize
	end := min(start+staticPageSize, len(matches))
	page := []entity.Entity{}
	if start < len(matches) {
		page = make([]entity.Entity, 0, end-start)
		for _, e := range matches[start:end] {
			page = append(page, e.Clone())
		}
	}

	return models.ResultSet{
		Results:      page,
		TotalResults: len(matches),
		Page:         q.Page,
		HasMore:      len(matches) > start+staticPageSize,
		Success:      true,
	}, nil
}

func matchesAny(e entity.Entity, fields []string, term string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(e.String(field)), term) {
			return true
		}
	}
	return false
}

// Add stores a record and returns it. Records without an id get the next sequential one, and
// missing source and odsType fields are filled in.
func (p *StaticProvider) Add(kind entity.Kind, e entity.Entity) entity.Entity {
	p.mu.Lock()
	defer p.mu.Unlock()

	record := e.Clone()
	if record.String("source") == "" {
		record["source"] = "pms"
	}
	if record.String("odsType") == "" {
		record["odsType"] = kind.String()
	}
	if kind == entity.KindOrganisation {
		if record.ID() == "" {
			record["id"] = fmt.Sprintf("PMS-O%05d", len(p.organisations)+1)
		}
		p.organisations = append(p.organisations, record)
	} else {
		if record.ID() == "" {
			record["id"] = fmt.Sprintf("PMS-P%05d", len(p.persons)+1)
		}
		p.persons = append(p.persons, record)
	}
	return record
}

func (p *StaticProvider) simulateLatency(ctx context.Context) error {
	if p.cfg.MaxLatency <= 0 {
		return ctx.Err()
	}

	delay := p.cfg.MinLatency
	if spread := p.cfg.MaxLatency - p.cfg.MinLatency; spread > 0 {
		delay += rand.N(spread)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
