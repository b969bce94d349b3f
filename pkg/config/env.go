package config

const EnvPrefix = "SALES"

const (
	AppEnvDev = "dev"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"

	SourceKindUpstream = "upstream"
	SourceKindMock     = "mock"
)

const (
	EnvAppEnv   = "SALES_APP_ENV"
	EnvPort     = "SALES_APP_PORT"
	EnvLogLevel = "SALES_LOG_LEVEL"

	EnvUpstreamBaseURL = "SALES_UPSTREAM_BASE_URL"
	EnvUpstreamTimeout = "SALES_UPSTREAM_TIMEOUT"

	EnvQueryDefaultLookback = "SALES_QUERY_DEFAULT_LOOKBACK"
	EnvQueryDefaultLimit    = "SALES_QUERY_DEFAULT_LIMIT"
	EnvQueryMaxLimit        = "SALES_QUERY_MAX_LIMIT"

	EnvSourceKind     = "SALES_SOURCE_KIND"
	EnvSourceMockRows = "SALES_SOURCE_MOCK_ROWS"
	EnvMockRoutes     = "SALES_MOCK_ROUTES"

	EnvCacheEnabled = "SALES_CACHE_ENABLED"
	EnvCacheTTL     = "SALES_CACHE_TTL"

	EnvRedisURL  = "SALES_REDIS_URL"
	EnvRedisAddr = "SALES_REDIS_ADDR"
)
