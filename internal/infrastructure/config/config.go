package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. STOCKDASH_API_BASE_URL
const EnvPrefix = "STOCKDASH"

// Config holds all configuration for the dashboard
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	API       APIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Export    ExportConfig
	Storage   StorageConfig
	PDF       PDFConfig
	Dashboard DashboardConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds presentation server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	TrustedProxies   []string
	RequestTimeout   time.Duration // per request, 0 = none
	MaxBodyBytes     int64
	LoginRateLimit   int // login attempts per LoginRateWindow and client IP
	LoginRateWindow  time.Duration
}

// APIConfig holds configuration of the REST backend client
type APIConfig struct {
	BaseURL         string        // e.g. http://localhost:8000/api/v1
	Timeout         time.Duration // per request
	MaxResponseSize int64         // bytes read from a response body
	RateLimit       float64       // requests per second for bulk page walks, 0 = unlimited
	RateBurst       int
	PageSize        int // per_page used when fetching every page
}

// SessionConfig holds token/user persistence configuration
type SessionConfig struct {
	Store     string // file, redis, memory
	FilePath  string // file store location
	KeyPrefix string // redis key prefix
	TTL       time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ExportConfig holds export engine configuration
type ExportConfig struct {
	Directory string // where generated files are written
	Prefix    string // filename prefix
	Timestamp bool   // append _YYYY-MM-DD to filenames
	Title     string // banner/document title
}

// StorageConfig holds artifact storage configuration
type StorageConfig struct {
	Type              string        // filesystem, s3
	BasePath          string        // filesystem root
	BaseURL           string        // public URL prefix for filesystem artifacts
	Retention         time.Duration // artifacts older than this are cleaned up
	Endpoint          string        // S3 endpoint
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// PDFConfig holds headless Chrome configuration for PDF rendering
type PDFConfig struct {
	ChromePath string        // empty = auto-detect
	RemoteURL  string        // ws:// URL of a running Chrome, overrides ChromePath
	Timeout    time.Duration // per render
	Headless   bool
	NoSandbox  bool
	Landscape  bool
}

// DashboardConfig holds dashboard behaviour
type DashboardConfig struct {
	RefreshInterval  time.Duration // auto-refresh period while the dashboard is active
	TrendDays        int
	RecentLimit      int
	TopLimit         int
	PrecheckStockOut bool   // advisory client-side stock check before stock-out
	Timezone         string // IANA zone for calendar-day bucketing
	LookupWorkers    int    // concurrent product lookups when ranking
}

// Location resolves Timezone, falling back to UTC
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelemetryConfig holds OpenTelemetry tracing configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled   bool
	Path      string
	Namespace string
}

// Load reads configuration from config.toml (optional) and STOCKDASH_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/stockdash")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("export.timestamp", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			RequestTimeout:   v.GetDuration("http.request_timeout"),
			MaxBodyBytes:     v.GetInt64("http.max_body_bytes"),
			LoginRateLimit:   v.GetInt("http.login_rate_limit"),
			LoginRateWindow:  v.GetDuration("http.login_rate_window"),
		},
		API: APIConfig{
			BaseURL:         v.GetString("api.base_url"),
			Timeout:         v.GetDuration("api.timeout"),
			MaxResponseSize: v.GetInt64("api.max_response_size"),
			RateLimit:       v.GetFloat64("api.rate_limit"),
			RateBurst:       v.GetInt("api.rate_burst"),
			PageSize:        v.GetInt("api.page_size"),
		},
		Session: SessionConfig{
			Store:     v.GetString("session.store"),
			FilePath:  v.GetString("session.file_path"),
			KeyPrefix: v.GetString("session.key_prefix"),
			TTL:       v.GetDuration("session.ttl"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Export: ExportConfig{
			Directory: v.GetString("export.directory"),
			Prefix:    v.GetString("export.prefix"),
			Timestamp: v.GetBool("export.timestamp"),
			Title:     v.GetString("export.title"),
		},
		Storage: StorageConfig{
			Type:              v.GetString("storage.type"),
			BasePath:          v.GetString("storage.base_path"),
			BaseURL:           v.GetString("storage.base_url"),
			Retention:         v.GetDuration("storage.retention"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		PDF: PDFConfig{
			ChromePath: v.GetString("pdf.chrome_path"),
			RemoteURL:  v.GetString("pdf.remote_url"),
			Timeout:    v.GetDuration("pdf.timeout"),
			Headless:   !v.GetBool("pdf.headful"),
			NoSandbox:  v.GetBool("pdf.no_sandbox"),
			Landscape:  v.GetBool("pdf.landscape"),
		},
		Dashboard: DashboardConfig{
			RefreshInterval:  v.GetDuration("dashboard.refresh_interval"),
			TrendDays:        v.GetInt("dashboard.trend_days"),
			RecentLimit:      v.GetInt("dashboard.recent_limit"),
			TopLimit:         v.GetInt("dashboard.top_limit"),
			PrecheckStockOut: v.GetBool("dashboard.precheck_stock_out"),
			Timezone:         v.GetString("dashboard.timezone"),
			LookupWorkers:    v.GetInt("dashboard.lookup_workers"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics.enabled"),
			Path:      v.GetString("metrics.path"),
			Namespace: v.GetString("metrics.namespace"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for unset configuration
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stock-dashboard"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 2 * time.Minute // exports can take a while
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if cfg.HTTP.LoginRateLimit == 0 {
		cfg.HTTP.LoginRateLimit = 10
	}
	if cfg.HTTP.LoginRateWindow == 0 {
		cfg.HTTP.LoginRateWindow = time.Minute
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000/api/v1"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.MaxResponseSize == 0 {
		cfg.API.MaxResponseSize = 32 << 20
	}
	if cfg.API.RateBurst == 0 {
		cfg.API.RateBurst = 5
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = 100
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "file"
	}
	if cfg.Session.FilePath == "" {
		cfg.Session.FilePath = ".stockdash/session.json"
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "stockdash:session:"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Export.Directory == "" {
		cfg.Export.Directory = "exports"
	}
	if cfg.Export.Prefix == "" {
		cfg.Export.Prefix = "inventory_report"
	}
	if cfg.Export.Title == "" {
		cfg.Export.Title = "Inventory Report"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "filesystem"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = cfg.Export.Directory
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/api/v1/exports/files"
	}
	if cfg.Storage.Retention == 0 {
		cfg.Storage.Retention = 7 * 24 * time.Hour
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.PDF.Timeout == 0 {
		cfg.PDF.Timeout = 60 * time.Second
	}
	if cfg.Dashboard.RefreshInterval == 0 {
		cfg.Dashboard.RefreshInterval = 30 * time.Second
	}
	if cfg.Dashboard.TrendDays == 0 {
		cfg.Dashboard.TrendDays = 30
	}
	if cfg.Dashboard.RecentLimit == 0 {
		cfg.Dashboard.RecentLimit = 10
	}
	if cfg.Dashboard.TopLimit == 0 {
		cfg.Dashboard.TopLimit = 10
	}
	if cfg.Dashboard.LookupWorkers == 0 {
		cfg.Dashboard.LookupWorkers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "stockdash"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if c.API.PageSize < 1 || c.API.PageSize > 100 {
		return fmt.Errorf("api.page_size must be between 1 and 100, got %d", c.API.PageSize)
	}

	switch c.Session.Store {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("session.store must be one of file, redis, memory, got %q", c.Session.Store)
	}

	switch c.Storage.Type {
	case "filesystem":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when storage.type is s3")
		}
	default:
		return fmt.Errorf("storage.type must be filesystem or s3, got %q", c.Storage.Type)
	}

	if c.Dashboard.RefreshInterval < time.Second {
		return fmt.Errorf("dashboard.refresh_interval must be at least 1s")
	}
	if c.Dashboard.TrendDays < 1 || c.Dashboard.TrendDays > 365 {
		return fmt.Errorf("dashboard.trend_days must be between 1 and 365, got %d", c.Dashboard.TrendDays)
	}
	if c.Dashboard.Timezone != "" {
		if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
			return fmt.Errorf("dashboard.timezone: %w", err)
		}
	}

	if c.App.Env == "production" {
		if u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
