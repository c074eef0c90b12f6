package config

type GeneralConfig struct {
	BindAddress     string `yaml:"bindAddress" env:"BIND_ADDRESS"`
	Port            int    `yaml:"port" env:"PORT"`
	LogDirectory    string `yaml:"logDirectory" env:"LOG_DIRECTORY"`
	LogColors       bool   `yaml:"logColors"`
	JsonLogs        bool   `yaml:"jsonLogs" env:"JSON_LOGS"`
	LogLevel        string `yaml:"logLevel" env:"LOG_LEVEL"`
	TrustAnyForward bool   `yaml:"trustAnyForwardedAddress"`
}

type UploadsConfig struct {
	ApiToken     string `yaml:"apiToken" env:"API_TOKEN"`
	MaxSizeBytes int64  `yaml:"maxSizeBytes"`
	VerifyHash   bool   `yaml:"verifyHash"`
}

type SnapshotsConfig struct {
	PublicBaseUrl   string `yaml:"publicBaseUrl" env:"PUBLIC_BASE_URL"`
	Extension       string `yaml:"extension"`
	KeyNamespace    string `yaml:"keyNamespace"`
	HistoryTtlDays  int    `yaml:"historyTtlDays"`
	CacheTtlSeconds int    `yaml:"cacheTtlSeconds"`
}

type MetadataConfig struct {
	// Backend is one of "redis", "postgres" or "memory".
	Backend string `yaml:"backend" env:"METADATA_BACKEND"`
}

type DatabaseConfig struct {
	Postgres string        `yaml:"postgres" env:"POSTGRES"`
	Pool     *DbPoolConfig `yaml:"pool"`
}

type DbPoolConfig struct {
	MaxConnections int `yaml:"maxConnections"`
	MaxIdle        int `yaml:"maxIdleConnections"`
}

type RedisConfig struct {
	Enabled bool               `yaml:"enabled" env:"REDIS_ENABLED"`
	Shards  []RedisShardConfig `yaml:"shards,flow"`
	DbNum   int                `yaml:"databaseNumber"`
	// Address adds a single shard named "env" when set through the environment.
	Address string `yaml:"-" env:"REDIS_ADDR"`
}

type RedisShardConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"addr"`
}

type BlobsConfig struct {
	// Type is "s3" or "file".
	Type    string            `yaml:"type"`
	Options map[string]string `yaml:"options"`
}

type ResponseCacheConfig struct {
	// Backend is one of "redis", "memory" or "none".
	Backend string `yaml:"backend"`
}

type NotificationsConfig struct {
	Enabled                bool                `yaml:"enabled"`
	Queue                  QueueConfig         `yaml:"queue"`
	Consumer               ConsumerConfig      `yaml:"consumer"`
	DeliveryTimeoutSeconds int                 `yaml:"deliveryTimeoutSeconds"`
	EnqueueAttempts        int                 `yaml:"enqueueAttempts"`
	Secrets                map[string]string   `yaml:"secrets"`
	SourceName             string              `yaml:"sourceName"`
	Webhooks               []WebhookSeedConfig `yaml:"webhooks,flow"`
}

type QueueConfig struct {
	// Backend is one of "redis" or "memory".
	Backend                  string `yaml:"backend" env:"QUEUE_BACKEND"`
	Name                     string `yaml:"name"`
	VisibilityTimeoutSeconds int    `yaml:"visibilityTimeoutSeconds"`
	MaxDeliveries            int    `yaml:"maxDeliveries"`
}

type ConsumerConfig struct {
	Enabled             bool `yaml:"enabled"`
	BatchSize           int  `yaml:"batchSize"`
	NumWorkers          int  `yaml:"numWorkers"`
	PollIntervalSeconds int  `yaml:"pollIntervalSeconds"`
	RetryDelaySeconds   int  `yaml:"retryDelaySeconds"`
}

type WebhookSeedConfig struct {
	Id            string `yaml:"id"`
	Type          string `yaml:"type"`
	Url           string `yaml:"url"`
	AuthSecretRef string `yaml:"authSecretRef"`
}

type BackgroundConfig struct {
	NumWorkers int `yaml:"numWorkers"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Enabled           bool    `yaml:"enabled"`
	BurstCount        int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn" env:"SENTRY_DSN"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}
