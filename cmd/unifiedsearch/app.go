package main

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/config"
	"github.com/Alterspective-Engine/UnifiedDataSearch/internal/repositories/importaudit"
	"github.com/Alterspective-Engine/UnifiedDataSearch/internal/repositories/matchreview"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/conflicts"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/database"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/expressions"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/graph"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/importer"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/kafka"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/merging"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/ods"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/providers"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/redis"
	conflictroutes "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/conflicts"
	entityroutes "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/health"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/imports"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/merge"
	providerroutes "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/providers"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/review"
	searchroutes "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/routes/search"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/search"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/startup"
)

// App is the composition root: every collaborator is built here and handed to its consumers.
type App struct {
	startup *startup.Startup
	health  *health.Checker
	logger  ectologger.Logger

	db       *database.DatabaseInstance
	redis    *redis.Client
	graph    *graph.Client
	producer *kafka.Producer

	ods          *ods.Client
	registry     *providers.Registry
	detector     *conflicts.Detector
	merger       *merging.Merger
	orchestrator *search.Orchestrator
	importer     *importer.Importer
	reviews      *matchreview.Repository
}

// newApp registers the infrastructure dependencies. Services are wired by wire once they have started.
func newApp(cfg *config.Config, logger ectologger.Logger) (*App, error) {
	app := &App{
		startup:  startup.NewStartup(logger, cfg.StartupMaxAttempts),
		health:   health.NewChecker(cfg.Version),
		logger:   logger,
		detector: conflicts.NewDetector(),
	}

	if err := app.addInfrastructure(cfg, logger); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) wire(cfg *config.Config, logger ectologger.Logger) error {
	a.ods = ods.NewClient(ods.Config{
		BaseURL: cfg.OdsBaseURL,
		Token:   cfg.OdsToken,
		Timeout: cfg.OdsTimeout,
	}, logger)

	list, err := buildProviders(cfg, logger)
	if err != nil {
		return err
	}

	// Optional collaborators stay nil interfaces when not configured.
	var (
		cache       providers.CapabilityCache
		reviewStore search.ReviewRecorder
		searchSink  search.EventPublisher
		auditStore  importer.AuditStore
		links       importer.LinkRecorder
		importSink  importer.EventPublisher
	)
	if a.redis != nil {
		cache = a.redis
	}
	if a.db != nil {
		a.reviews = matchreview.NewRepository(a.db, logger)
		reviewStore = a.reviews
		auditStore = importaudit.NewRepository(a.db, logger)
	}
	if a.graph != nil {
		links = graph.NewLinkService(a.graph, logger)
	}
	if a.producer != nil {
		searchSink = a.producer
		importSink = a.producer
	}

	a.registry = providers.NewRegistry(cache, cfg.CapabilityCacheTTL, logger, list...)
	a.merger = merging.NewMerger(logger, a.detector).WithDefaultProvider(cfg.PmsSystemName)
	a.orchestrator = search.NewOrchestrator(search.Config{
		DefaultTimeout:    cfg.SearchDefaultTimeout(),
		DefaultPageSize:   cfg.SearchDefaultPageSize,
		MaxPageSize:       cfg.SearchMaxPageSize,
		SideEffectTimeout: cfg.SearchSideEffectTimeout(),
	}, a.ods, a.registry, a.merger, reviewStore, searchSink, logger)
	a.importer = importer.NewImporter(a.ods, auditStore, links, importSink, logger)

	return nil
}

func (a *App) addInfrastructure(cfg *config.Config, logger ectologger.Logger) error {
	if cfg.DatabaseEnabled() {
		migrations := database.NewMigrationService(logger, database.MigrationConfig{
			MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
			Version:             cfg.DatabaseMigrationVersion,
		})
		a.startup.AddDependency(startup.Func{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				db, err := database.Connect(ctx, database.Config{
					DSN:             cfg.DatabaseDSN(),
					MaxOpenConns:    cfg.DatabaseMaxOpenConns,
					MaxIdleConns:    cfg.DatabaseMaxIdleConns,
					ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
				}, logger)
				if err != nil {
					return err
				}
				a.db = db
				return nil
			},
			StopFunc: func(context.Context) error {
				if a.db == nil {
					return nil
				}
				return a.db.Close()
			},
		})
		a.startup.AddDependency(startup.Func{
			Name:     "migrations",
			Upstream: []string{"database"},
			StartFunc: func(context.Context) error {
				return migrations.Migrate(a.db)
			},
		})
		a.health.AddCheck("database", health.PingFunc(func(ctx context.Context) error {
			if a.db == nil {
				return errors.New("database not connected")
			}
			return a.db.PingContext(ctx)
		}), true)
	}

	if cfg.RedisEnabled() {
		a.redis = redis.NewClient(redis.Config{
			Host:      cfg.RedisHost,
			Port:      cfg.RedisPort,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
		a.startup.AddDependency(startup.Func{
			Name:      "redis",
			StartFunc: a.redis.Connect,
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
		a.health.AddCheck("redis", health.PingFunc(a.redis.Ping), false)
	}

	if cfg.GraphEnabled() {
		client, err := graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			return err
		}
		a.graph = client
		a.startup.AddDependency(startup.Func{
			Name:      "graph",
			StartFunc: client.VerifyConnectivity,
			StopFunc:  client.Close,
		})
		a.health.AddCheck("graph", health.PingFunc(client.VerifyConnectivity), false)
	}

	if cfg.KafkaEnabled {
		a.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		a.startup.AddDependency(startup.Func{
			Name: "kafka",
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}

	return nil
}

func buildProviders(cfg *config.Config, logger ectologger.Logger) ([]providers.Provider, error) {
	var list []providers.Provider

	if cfg.PmsEnabled {
		pms, err := providers.NewStaticProvider(providers.StaticConfig{
			SystemName:  cfg.PmsSystemName,
			DisplayName: cfg.PmsDisplayName,
			FixturePath: cfg.PmsFixturePath,
			MinLatency:  cfg.PmsMinLatency,
			MaxLatency:  cfg.PmsMaxLatency,
		}, logger)
		if err != nil {
			return nil, err
		}
		list = append(list, pms)
	}

	if cfg.ExternalProviderEnabled() {
		external, err := providers.NewHTTPProvider(providers.HTTPConfig{
			SystemName:        cfg.ExternalProviderSystemName,
			DisplayName:       cfg.ExternalProviderDisplayName,
			BaseURL:           cfg.ExternalProviderBaseURL,
			Token:             cfg.ExternalProviderToken,
			Timeout:           cfg.ExternalProviderTimeout,
			PersonPath:        cfg.ExternalProviderPersonPath,
			OrganisationPath:  cfg.ExternalProviderOrganisationPath,
			CapabilitiesPath:  cfg.ExternalProviderCapabilitiesPath,
			ResultsExpression: cfg.ExternalProviderResults,
			TotalExpression:   cfg.ExternalProviderTotal,
			HasMoreExpression: cfg.ExternalProviderHasMore,
			FieldMap:          cfg.ExternalProviderFields(),
		}, expressions.NewEvaluator(), logger)
		if err != nil {
			return nil, err
		}
		list = append(list, external)
	}

	return list, nil
}

// RegisterRoutes mounts the API under g.
func (a *App) RegisterRoutes(g *echo.Group) {
	searchroutes.NewHandler(a.orchestrator).Register(g.Group("/search"))
	merge.NewHandler(a.merger).Register(g.Group("/merge"))
	conflictroutes.NewHandler(a.detector).Register(g.Group("/conflicts"))
	imports.NewHandler(a.importer).Register(g.Group("/import"))
	entityroutes.NewHandler(a.ods).Register(g.Group("/entities"))
	providerroutes.NewHandler(a.registry).Register(g.Group("/providers"))
	if a.reviews != nil {
		review.NewHandler(a.reviews).Register(g.Group("/reviews"))
	}
}

// Close lets in-flight search events finish, bounded by ctx, before stopping infrastructure.
func (a *App) Close(ctx context.Context) error {
	if a.orchestrator != nil {
		done := make(chan struct{})
		go func() {
			a.orchestrator.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.WithContext(ctx).Warn("Stopping before pending search events finished")
		}
	}
	return a.startup.Stop(ctx)
}
