package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"contractlens/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	CORS     CORSConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Pacing   PacingConfig
	Chunking ChunkingConfig
	Limits   LimitsConfig
	Prompts  PromptsConfig
	DB       DBConfig
	S3       S3Config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds optional bearer-token settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// Enabled reports whether API requests must carry a token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// ProviderConfig holds settings for a single text-generation provider.
type ProviderConfig struct {
	Provider        string  `mapstructure:"provider"`
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	Endpoint        string  `mapstructure:"endpoint"`
	TimeoutSecs     int     `mapstructure:"timeout_secs"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

// Timeout returns the per-request timeout, defaulting to 60s.
func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// LLMConfig holds provider settings. The flat fields are shared by both
// modes unless Analyzer or Humanizer names its own provider.
type LLMConfig struct {
	Provider        string  `mapstructure:"provider"`
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	Endpoint        string  `mapstructure:"endpoint"`
	TimeoutSecs     int     `mapstructure:"timeout_secs"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`

	Analyzer  ProviderConfig `mapstructure:"analyzer"`
	Humanizer ProviderConfig `mapstructure:"humanizer"`
	Fallback  ProviderConfig `mapstructure:"fallback"`
}

// SharedConfig returns the flat provider fields as a ProviderConfig.
func (l *LLMConfig) SharedConfig() *ProviderConfig {
	return &ProviderConfig{
		Provider:        l.Provider,
		APIKey:          l.APIKey,
		Model:           l.Model,
		Endpoint:        l.Endpoint,
		TimeoutSecs:     l.TimeoutSecs,
		MaxOutputTokens: l.MaxOutputTokens,
		Temperature:     l.Temperature,
	}
}

// PrimaryFor returns the provider config for a mode, falling back to the
// shared flat fields.
func (l *LLMConfig) PrimaryFor(mode domain.Mode) *ProviderConfig {
	switch mode {
	case domain.ModeAnalyze:
		if l.Analyzer.Provider != "" {
			return &l.Analyzer
		}
	case domain.ModeHumanize:
		if l.Humanizer.Provider != "" {
			return &l.Humanizer
		}
	}
	return l.SharedConfig()
}

// FallbackConfig returns the fallback provider config, or nil if not configured.
func (l *LLMConfig) FallbackConfig() *ProviderConfig {
	if l.Fallback.Provider != "" {
		return &l.Fallback
	}
	return nil
}

// PacingConfig holds inter-segment pacing settings.
type PacingConfig struct {
	Strategy string        `mapstructure:"strategy"`
	Interval time.Duration `mapstructure:"interval"`
	MaxWait  time.Duration `mapstructure:"max_wait"`
}

// ChunkSize holds segment size and overlap for one mode, in characters.
type ChunkSize struct {
	MaxSegmentSize int `mapstructure:"max_segment_size"`
	OverlapSize    int `mapstructure:"overlap_size"`
}

// ChunkingConfig holds per-mode segmentation settings.
type ChunkingConfig struct {
	Analyzer  ChunkSize `mapstructure:"analyzer"`
	Humanizer ChunkSize `mapstructure:"humanizer"`
	Lookback  int       `mapstructure:"lookback"`
}

// For returns the chunk size for a mode.
func (c *ChunkingConfig) For(mode domain.Mode) ChunkSize {
	if mode == domain.ModeHumanize {
		return c.Humanizer
	}
	return c.Analyzer
}

// LimitsConfig holds input limits applied before a run starts.
type LimitsConfig struct {
	MaxUploadMB      int64         `mapstructure:"max_upload_mb"`
	MinAnalyzeChars  int           `mapstructure:"min_analyze_chars"`
	MinHumanizeChars int           `mapstructure:"min_humanize_chars"`
	URLFetchTimeout  time.Duration `mapstructure:"url_fetch_timeout"`
	MaxURLBytes      int64         `mapstructure:"max_url_bytes"`
}

// PromptsConfig points at an optional YAML file overriding the built-in templates.
type PromptsConfig struct {
	OverridePath string `mapstructure:"override_path"`
}

// DBConfig holds PostgreSQL connection settings for run history. An empty
// host disables history.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// Enabled reports whether run history should be stored.
func (d *DBConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for archiving uploaded contracts. An empty bucket
// disables archiving.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Enabled reports whether uploads should be archived.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// MinChars returns the minimum normalized text length for a mode.
func (l *LimitsConfig) MinChars(mode domain.Mode) int {
	if mode == domain.ModeHumanize {
		return l.MinHumanizeChars
	}
	return l.MinAnalyzeChars
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	for _, mode := range []domain.Mode{domain.ModeAnalyze, domain.ModeHumanize} {
		cs := c.Chunking.For(mode)
		if cs.MaxSegmentSize <= 0 || cs.OverlapSize < 0 || cs.OverlapSize >= cs.MaxSegmentSize {
			return fmt.Errorf("%w: %s overlap (%d) must be smaller than max segment size (%d)",
				domain.ErrInvalidChunkConfig, mode, cs.OverlapSize, cs.MaxSegmentSize)
		}
	}
	switch c.Pacing.Strategy {
	case "fixed", "adaptive", "none":
	default:
		return fmt.Errorf("unknown pacing strategy: %s", c.Pacing.Strategy)
	}
	return nil
}

// Load reads configuration from a .env file (if present) and environment
// variables with the CONTRACTLENS_ prefix.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CONTRACTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "contractlens")

	// LLM defaults (shared)
	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "meta-llama/llama-3.3-70b-instruct:free")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.max_output_tokens", 4000)
	v.SetDefault("llm.temperature", 0.2)

	// Per-mode and fallback providers
	for _, p := range []string{"analyzer", "humanizer", "fallback"} {
		v.SetDefault("llm."+p+".provider", "")
		v.SetDefault("llm."+p+".api_key", "")
		v.SetDefault("llm."+p+".model", "")
		v.SetDefault("llm."+p+".endpoint", "")
		v.SetDefault("llm."+p+".timeout_secs", 60)
		v.SetDefault("llm."+p+".max_output_tokens", 4000)
		v.SetDefault("llm."+p+".temperature", 0.2)
	}

	// Pacing defaults
	v.SetDefault("pacing.strategy", "fixed")
	v.SetDefault("pacing.interval", "5s")
	v.SetDefault("pacing.max_wait", "2m")

	// Chunking defaults
	v.SetDefault("chunking.analyzer.max_segment_size", 15000)
	v.SetDefault("chunking.analyzer.overlap_size", 500)
	v.SetDefault("chunking.humanizer.max_segment_size", 8000)
	v.SetDefault("chunking.humanizer.overlap_size", 300)
	v.SetDefault("chunking.lookback", 200)

	// Limits defaults
	v.SetDefault("limits.max_upload_mb", 10)
	v.SetDefault("limits.min_analyze_chars", 50)
	v.SetDefault("limits.min_humanize_chars", 10)
	v.SetDefault("limits.url_fetch_timeout", "15s")
	v.SetDefault("limits.max_url_bytes", 5<<20)

	// Prompt template override
	v.SetDefault("prompts.override_path", "")

	// DB defaults (history is off until a host is set)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "contractlens")
	v.SetDefault("db.password", "contractlens")
	v.SetDefault("db.name", "contractlens")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults (archiving is off until a bucket is set)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "CONTRACTLENS_SERVER_PORT",
		"server.read_timeout":         "CONTRACTLENS_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "CONTRACTLENS_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":     "CONTRACTLENS_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":          "CONTRACTLENS_SERVER_ENVIRONMENT",
		"log.level":                   "CONTRACTLENS_LOG_LEVEL",
		"log.format":                  "CONTRACTLENS_LOG_FORMAT",
		"cors.allowed_origins":        "CONTRACTLENS_CORS_ALLOWED_ORIGINS",
		"auth.jwt_secret":             "CONTRACTLENS_AUTH_JWT_SECRET",
		"auth.issuer":                 "CONTRACTLENS_AUTH_ISSUER",
		"llm.provider":                "CONTRACTLENS_LLM_PROVIDER",
		"llm.api_key":                 "CONTRACTLENS_LLM_API_KEY",
		"llm.model":                   "CONTRACTLENS_LLM_MODEL",
		"llm.endpoint":                "CONTRACTLENS_LLM_ENDPOINT",
		"llm.timeout_secs":            "CONTRACTLENS_LLM_TIMEOUT_SECS",
		"llm.max_output_tokens":       "CONTRACTLENS_LLM_MAX_OUTPUT_TOKENS",
		"llm.temperature":             "CONTRACTLENS_LLM_TEMPERATURE",
		"pacing.strategy":             "CONTRACTLENS_PACING_STRATEGY",
		"pacing.interval":             "CONTRACTLENS_PACING_INTERVAL",
		"pacing.max_wait":             "CONTRACTLENS_PACING_MAX_WAIT",
		"chunking.analyzer.max_segment_size":  "CONTRACTLENS_CHUNKING_ANALYZER_MAX_SEGMENT_SIZE",
		"chunking.analyzer.overlap_size":      "CONTRACTLENS_CHUNKING_ANALYZER_OVERLAP_SIZE",
		"chunking.humanizer.max_segment_size": "CONTRACTLENS_CHUNKING_HUMANIZER_MAX_SEGMENT_SIZE",
		"chunking.humanizer.overlap_size":     "CONTRACTLENS_CHUNKING_HUMANIZER_OVERLAP_SIZE",
		"chunking.lookback":                   "CONTRACTLENS_CHUNKING_LOOKBACK",
		"limits.max_upload_mb":                "CONTRACTLENS_LIMITS_MAX_UPLOAD_MB",
		"limits.min_analyze_chars":            "CONTRACTLENS_LIMITS_MIN_ANALYZE_CHARS",
		"limits.min_humanize_chars":           "CONTRACTLENS_LIMITS_MIN_HUMANIZE_CHARS",
		"limits.url_fetch_timeout":            "CONTRACTLENS_LIMITS_URL_FETCH_TIMEOUT",
		"limits.max_url_bytes":                "CONTRACTLENS_LIMITS_MAX_URL_BYTES",
		"prompts.override_path":               "CONTRACTLENS_PROMPTS_OVERRIDE_PATH",
		"db.host":                             "CONTRACTLENS_DB_HOST",
		"db.port":                             "CONTRACTLENS_DB_PORT",
		"db.user":                             "CONTRACTLENS_DB_USER",
		"db.password":                         "CONTRACTLENS_DB_PASSWORD",
		"db.name":                             "CONTRACTLENS_DB_NAME",
		"db.sslmode":                          "CONTRACTLENS_DB_SSLMODE",
		"db.max_open":                         "CONTRACTLENS_DB_MAX_OPEN",
		"db.max_idle":                         "CONTRACTLENS_DB_MAX_IDLE",
		"s3.region":                           "CONTRACTLENS_S3_REGION",
		"s3.bucket":                           "CONTRACTLENS_S3_BUCKET",
		"s3.endpoint":                         "CONTRACTLENS_S3_ENDPOINT",
		"s3.access_key":                       "CONTRACTLENS_S3_ACCESS_KEY",
		"s3.secret_key":                       "CONTRACTLENS_S3_SECRET_KEY",
		"s3.presign_expiry":                   "CONTRACTLENS_S3_PRESIGN_EXPIRY",
	}
	for _, p := range []string{"analyzer", "humanizer", "fallback"} {
		for _, field := range []string{"provider", "api_key", "model", "endpoint", "timeout_secs", "max_output_tokens", "temperature"} {
			key := "llm." + p + "." + field
			envBindings[key] = "CONTRACTLENS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if CONTRACTLENS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CONTRACTLENS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		Issuer:    v.GetString("auth.issuer"),
	}

	// The original deployment used GOOGLE_API_KEY / OPENROUTER_API_KEY; honour
	// them when no explicit key is configured.
	apiKey := v.GetString("llm.api_key")
	provider := v.GetString("llm.provider")
	if apiKey == "" {
		apiKey = providerKeyFromEnv(provider)
	}

	cfg.LLM = LLMConfig{
		Provider:        provider,
		APIKey:          apiKey,
		Model:           v.GetString("llm.model"),
		Endpoint:        v.GetString("llm.endpoint"),
		TimeoutSecs:     v.GetInt("llm.timeout_secs"),
		MaxOutputTokens: v.GetInt("llm.max_output_tokens"),
		Temperature:     v.GetFloat64("llm.temperature"),
		Analyzer:        providerConfig(v, "llm.analyzer"),
		Humanizer:       providerConfig(v, "llm.humanizer"),
		Fallback:        providerConfig(v, "llm.fallback"),
	}

	cfg.Pacing = PacingConfig{
		Strategy: v.GetString("pacing.strategy"),
		Interval: v.GetDuration("pacing.interval"),
		MaxWait:  v.GetDuration("pacing.max_wait"),
	}

	cfg.Chunking = ChunkingConfig{
		Analyzer: ChunkSize{
			MaxSegmentSize: v.GetInt("chunking.analyzer.max_segment_size"),
			OverlapSize:    v.GetInt("chunking.analyzer.overlap_size"),
		},
		Humanizer: ChunkSize{
			MaxSegmentSize: v.GetInt("chunking.humanizer.max_segment_size"),
			OverlapSize:    v.GetInt("chunking.humanizer.overlap_size"),
		},
		Lookback: v.GetInt("chunking.lookback"),
	}

	cfg.Limits = LimitsConfig{
		MaxUploadMB:      v.GetInt64("limits.max_upload_mb"),
		MinAnalyzeChars:  v.GetInt("limits.min_analyze_chars"),
		MinHumanizeChars: v.GetInt("limits.min_humanize_chars"),
		URLFetchTimeout:  v.GetDuration("limits.url_fetch_timeout"),
		MaxURLBytes:      v.GetInt64("limits.max_url_bytes"),
	}
	cfg.Prompts = PromptsConfig{OverridePath: v.GetString("prompts.override_path")}

	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	pc := ProviderConfig{
		Provider:        v.GetString(prefix + ".provider"),
		APIKey:          v.GetString(prefix + ".api_key"),
		Model:           v.GetString(prefix + ".model"),
		Endpoint:        v.GetString(prefix + ".endpoint"),
		TimeoutSecs:     v.GetInt(prefix + ".timeout_secs"),
		MaxOutputTokens: v.GetInt(prefix + ".max_output_tokens"),
		Temperature:     v.GetFloat64(prefix + ".temperature"),
	}
	if pc.Provider != "" && pc.APIKey == "" {
		pc.APIKey = providerKeyFromEnv(pc.Provider)
	}
	return pc
}

func providerKeyFromEnv(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return ""
	}
}
