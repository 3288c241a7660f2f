package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const generationFunctionPath = "/functions/v1/gerar-plano"

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Supabase      SupabaseConfig
	Generation    GenerationConfig
	Session       SessionConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

// SupabaseConfig points at the external auth provider
type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string // Optional: enables local signature checks of access tokens
}

type GenerationConfig struct {
	FunctionURL     string
	Level           string
	DurationMinutes int
	TimeoutSeconds  int
}

type SessionConfig struct {
	Secret              string
	CookieName          string
	MaxAgeHours         int
	CookieDomain        string
	CookieSecure        bool
	UserCacheTTLSeconds int // 0 disables the provider lookup cache
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint string
	ServiceName      string
	ServiceNamespace string
	ServiceVersion   string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("LESSON_LEVEL", "Educação Infantil")
	v.SetDefault("LESSON_DURATION_MINUTES", 50)
	v.SetDefault("GENERATION_TIMEOUT_SECONDS", 120)
	v.SetDefault("SESSION_COOKIE_NAME", "escribo_session")
	v.SetDefault("SESSION_MAX_AGE_HOURS", 24*7)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("SESSION_USER_CACHE_TTL_SECONDS", 30)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "escribo-web")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "escribo")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("PROFILING_ENABLED", false)
	v.SetDefault("PROFILING_APP_NAME", "escribo-web")
	v.SetDefault("PROFILING_SAMPLE_TYPES", "cpu,alloc_space,inuse_space,goroutines")
	v.SetDefault("PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Supabase: SupabaseConfig{
			// NEXT_PUBLIC_ names are accepted so an existing front-end .env keeps working
			URL:       strings.TrimRight(firstNonEmpty(v.GetString("SUPABASE_URL"), v.GetString("NEXT_PUBLIC_SUPABASE_URL")), "/"),
			AnonKey:   firstNonEmpty(v.GetString("SUPABASE_ANON_KEY"), v.GetString("NEXT_PUBLIC_SUPABASE_ANON_KEY")),
			JWTSecret: v.GetString("SUPABASE_JWT_SECRET"),
		},
		Generation: GenerationConfig{
			FunctionURL:     v.GetString("GENERATION_FUNCTION_URL"),
			Level:           v.GetString("LESSON_LEVEL"),
			DurationMinutes: v.GetInt("LESSON_DURATION_MINUTES"),
			TimeoutSeconds:  v.GetInt("GENERATION_TIMEOUT_SECONDS"),
		},
		Session: SessionConfig{
			Secret:              v.GetString("SESSION_SECRET"),
			CookieName:          v.GetString("SESSION_COOKIE_NAME"),
			MaxAgeHours:         v.GetInt("SESSION_MAX_AGE_HOURS"),
			CookieDomain:        v.GetString("COOKIE_DOMAIN"),
			CookieSecure:        v.GetBool("COOKIE_SECURE"),
			UserCacheTTLSeconds: v.GetInt("SESSION_USER_CACHE_TTL_SECONDS"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint: v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:      v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace: v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:   v.GetString("O11Y_SERVICE_VERSION"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("PROFILING_ENABLED"),
			Endpoint:              v.GetString("PROFILING_ENDPOINT"),
			AppName:               v.GetString("PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	if cfg.Generation.FunctionURL == "" && cfg.Supabase.URL != "" {
		cfg.Generation.FunctionURL = cfg.Supabase.URL + generationFunctionPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the server cannot run without
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET is required and must be at least 32 characters")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.UserCacheTTLSeconds < 0 {
		return fmt.Errorf("SESSION_USER_CACHE_TTL_SECONDS must not be negative")
	}

	if c.Generation.DurationMinutes <= 0 {
		return fmt.Errorf("LESSON_DURATION_MINUTES must be positive")
	}
	if c.Generation.Level == "" {
		return fmt.Errorf("LESSON_LEVEL must not be empty")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// Warnings lists configuration gaps that are logged at startup but do not stop
// the server. Pages that need the provider fail per request instead.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Supabase.URL == "" {
		warnings = append(warnings, "SUPABASE_URL is not set")
	}
	if c.Supabase.AnonKey == "" {
		warnings = append(warnings, "SUPABASE_ANON_KEY is not set")
	}
	if c.Generation.FunctionURL == "" {
		warnings = append(warnings, "GENERATION_FUNCTION_URL is not set and cannot be derived from SUPABASE_URL")
	}
	return warnings
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
