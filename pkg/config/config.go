package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Query    QueryConfig
	Source   SourceConfig
	Mock     MockConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Metrics  MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SALES_APP_ENV" default:"dev"`
	Port         string `envconfig:"SALES_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SALES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALES_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"SALES_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// LogOutputFormat returns the configured log format, falling back to
// console output in dev and JSON everywhere else.
func (a AppConfig) LogOutputFormat() string {
	if format := strings.TrimSpace(a.LogFormat); format != "" {
		return format
	}
	if a.IsDev() {
		return LogFormatConsole
	}
	return LogFormatJSON
}

type UpstreamConfig struct {
	BaseURL string        `envconfig:"SALES_UPSTREAM_BASE_URL" default:"http://109.73.206.144:6969"`
	Timeout time.Duration `envconfig:"SALES_UPSTREAM_TIMEOUT" default:"10s"`
	// MaxBodyBytes caps how much of a successful upstream body is read.
	MaxBodyBytes int64 `envconfig:"SALES_UPSTREAM_MAX_BODY_BYTES" default:"10485760"`
	// ErrorExcerptBytes caps how much of a failed upstream body reaches clients.
	ErrorExcerptBytes int64 `envconfig:"SALES_UPSTREAM_ERROR_EXCERPT_BYTES" default:"512"`
}

type QueryConfig struct {
	DefaultLookback time.Duration `envconfig:"SALES_QUERY_DEFAULT_LOOKBACK" default:"720h"`
	DefaultLimit    int           `envconfig:"SALES_QUERY_DEFAULT_LIMIT" default:"100"`
	MaxLimit        int           `envconfig:"SALES_QUERY_MAX_LIMIT" default:"1000"`
}

type SourceConfig struct {
	Kind     string `envconfig:"SALES_SOURCE_KIND" default:"upstream"`
	MockSeed int64  `envconfig:"SALES_SOURCE_MOCK_SEED" default:"42"`
	MockRows int    `envconfig:"SALES_SOURCE_MOCK_ROWS" default:"500"`
}

// UsesMock reports whether orders come from the local generator.
func (s SourceConfig) UsesMock() bool {
	return strings.EqualFold(strings.TrimSpace(s.Kind), SourceKindMock)
}

type MockConfig struct {
	Routes bool `envconfig:"SALES_MOCK_ROUTES" default:"false"`
}

type CacheConfig struct {
	Enabled   bool          `envconfig:"SALES_CACHE_ENABLED" default:"false"`
	TTL       time.Duration `envconfig:"SALES_CACHE_TTL" default:"60s"`
	KeyPrefix string        `envconfig:"SALES_CACHE_KEY_PREFIX" default:"sa"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALES_REDIS_URL"`
	Address      string        `envconfig:"SALES_REDIS_ADDR"`
	Password     string        `envconfig:"SALES_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALES_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"SALES_REDIS_WRITE_TIMEOUT" default:"2s"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"SALES_METRICS_ENABLED" default:"true"`
}

// validate reports every invalid setting at once so a misconfigured
// deployment can be fixed in a single pass.
func (c *Config) validate() error {
	var errs error
	kind := strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if kind != SourceKindUpstream && kind != SourceKindMock {
		errs = multierr.Append(errs, fmt.Errorf("%s must be %q or %q", EnvSourceKind, SourceKindUpstream, SourceKindMock))
	}
	if kind == SourceKindUpstream {
		u, err := url.Parse(strings.TrimSpace(c.Upstream.BaseURL))
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s must be an absolute URL", EnvUpstreamBaseURL))
		}
	}
	if c.Source.MockRows < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvSourceMockRows))
	}
	if c.Upstream.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvUpstreamTimeout))
	}
	if c.Query.MaxLimit < 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 1", EnvQueryMaxLimit))
	}
	if c.Query.DefaultLimit < 1 || c.Query.DefaultLimit > c.Query.MaxLimit {
		errs = multierr.Append(errs, fmt.Errorf("%s must be within [1, %s]", EnvQueryDefaultLimit, EnvQueryMaxLimit))
	}
	if c.Query.DefaultLookback < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvQueryDefaultLookback))
	}
	if c.Cache.Enabled && c.Redis.URL == "" && c.Redis.Address == "" {
		errs = multierr.Append(errs, fmt.Errorf("either %s or %s is required when %s is set", EnvRedisURL, EnvRedisAddr, EnvCacheEnabled))
	}
	return errs
}
