package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"unified-search"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"60"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (import audit and match review queue). Empty host disables persistence.
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"unified_search"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    uint          `env:"DB_MIGRATION_VERSION" env-default:"0"`

	// Redis (provider capability cache). Empty host disables caching.
	RedisHost          string        `env:"REDIS_HOST" env-default:""`
	RedisPort          int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword      string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB            int           `env:"REDIS_DB" env-default:"0"`
	RedisKeyPrefix     string        `env:"REDIS_KEY_PREFIX" env-default:"unified-search:"`
	CapabilityCacheTTL time.Duration `env:"CAPABILITY_CACHE_TTL" env-default:"5m"`

	// Kafka producer (search, import and ambiguous match events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"unified-search-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Graph database (ODS to external record links). Empty host disables link recording.
	GraphDBHost     string `env:"GRAPH_DB_HOST" env-default:""`
	GraphDBPort     int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser     string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword string `env:"GRAPH_DB_PASSWORD" env-default:""`

	// Tracing
	TraceExporter string        `env:"OTEL_TRACES_EXPORTER" env-default:"none"`
	OTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol  string        `env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	OTLPTimeout   time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT" env-default:"10s"`

	// ODS (ShareDo)
	OdsBaseURL string        `env:"ODS_BASE_URL" env-default:"http://localhost:5000"`
	OdsToken   string        `env:"ODS_TOKEN" env-default:""`
	OdsTimeout time.Duration `env:"ODS_TIMEOUT" env-default:"10s"`

	// Built-in PMS provider backed by a fixture
	PmsEnabled     bool          `env:"PMS_ENABLED" env-default:"true"`
	PmsSystemName  string        `env:"PMS_SYSTEM_NAME" env-default:"pms"`
	PmsDisplayName string        `env:"PMS_DISPLAY_NAME" env-default:"PMS"`
	PmsFixturePath string        `env:"PMS_FIXTURE_PATH" env-default:""`
	PmsMinLatency  time.Duration `env:"PMS_MIN_LATENCY" env-default:"100ms"`
	PmsMaxLatency  time.Duration `env:"PMS_MAX_LATENCY" env-default:"300ms"`

	// Optional HTTP provider. Empty base URL disables it.
	ExternalProviderSystemName       string        `env:"EXTERNAL_PROVIDER_SYSTEM_NAME" env-default:"external"`
	ExternalProviderDisplayName      string        `env:"EXTERNAL_PROVIDER_DISPLAY_NAME" env-default:"External"`
	ExternalProviderBaseURL          string        `env:"EXTERNAL_PROVIDER_BASE_URL" env-default:""`
	ExternalProviderToken            string        `env:"EXTERNAL_PROVIDER_TOKEN" env-default:""`
	ExternalProviderTimeout          time.Duration `env:"EXTERNAL_PROVIDER_TIMEOUT" env-default:"10s"`
	ExternalProviderPersonPath       string        `env:"EXTERNAL_PROVIDER_PERSON_PATH" env-default:"/api/persons/search"`
	ExternalProviderOrganisationPath string        `env:"EXTERNAL_PROVIDER_ORGANISATION_PATH" env-default:"/api/organisations/search"`
	ExternalProviderCapabilitiesPath string        `env:"EXTERNAL_PROVIDER_CAPABILITIES_PATH" env-default:""`
	ExternalProviderResults          string        `env:"EXTERNAL_PROVIDER_RESULTS_EXPRESSION" env-default:"results"`
	ExternalProviderTotal            string        `env:"EXTERNAL_PROVIDER_TOTAL_EXPRESSION" env-default:"totalResults"`
	ExternalProviderHasMore          string        `env:"EXTERNAL_PROVIDER_HAS_MORE_EXPRESSION" env-default:"hasMore"`

	// ExternalProviderFieldMap is "field=expression" pairs separated by semicolons.
	ExternalProviderFieldMap string `env:"EXTERNAL_PROVIDER_FIELD_MAP" env-default:""`

	// Search
	SearchDefaultTimeoutMs    int `env:"SEARCH_DEFAULT_TIMEOUT_MS" env-default:"5000"`
	SearchDefaultPageSize     int `env:"SEARCH_DEFAULT_PAGE_SIZE" env-default:"10"`
	SearchMaxPageSize         int `env:"SEARCH_MAX_PAGE_SIZE" env-default:"100"`
	SearchSideEffectTimeoutMs int `env:"SEARCH_SIDE_EFFECT_TIMEOUT_MS" env-default:"5000"`
}

// Load reads an optional .env file and then the environment. Unset variables take their env-default.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()

	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		v.SetDefault(name, field.Tag.Get("env-default"))
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "env"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseHost != ""
}

// DatabaseDSN is the lib/pq connection string for the audit database.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DatabaseUserName, c.DatabasePassword),
		Host:     c.DatabaseHost + ":" + c.DatabasePort,
		Path:     c.DatabaseName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DatabaseSSLMode),
	}
	return u.String()
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) GraphEnabled() bool {
	return c.GraphDBHost != ""
}

func (c *Config) ExternalProviderEnabled() bool {
	return c.ExternalProviderBaseURL != ""
}

// ExternalProviderFields parses ExternalProviderFieldMap. Malformed pairs are skipped.
func (c *Config) ExternalProviderFields() map[string]string {
	fields := map[string]string{}
	for _, pair := range strings.Split(c.ExternalProviderFieldMap, ";") {
		name, expr, ok := strings.Cut(pair, "=")
		name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
		if !ok || name == "" || expr == "" {
			continue
		}
		fields[name] = expr
	}
	return fields
}

func (c *Config) SearchDefaultTimeout() time.Duration {
	return time.Duration(c.SearchDefaultTimeoutMs) * time.Millisecond
}

// SearchSideEffectTimeout bounds the review writes and events that follow a search.
func (c *Config) SearchSideEffectTimeout() time.Duration {
	return time.Duration(c.SearchSideEffectTimeoutMs) * time.Millisecond
}
