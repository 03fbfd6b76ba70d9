package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	UploadDir         string
	ProjectRoot       string
	DocumentRoot      string
	MaxFileSizeMB     int
	MaxSearchDepth    int
	DashboardCacheTTL time.Duration
	EventChannelBase  string
	DebugDiagnostics  bool
	CORSAllowOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("THESIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ThesisTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("upload.dir", "uploads/chapters")
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.max_search_depth", 4)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("event.channel_base", "thesistrack")
	v.SetDefault("debug.diagnostics", false)
	v.SetDefault("cors.allow_origins", "*")

	ttlString := v.GetString("dashboard.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		UploadDir:         v.GetString("upload.dir"),
		ProjectRoot:       v.GetString("project.root"),
		DocumentRoot:      v.GetString("document.root"),
		MaxFileSizeMB:     v.GetInt("upload.max_file_size_mb"),
		MaxSearchDepth:    v.GetInt("upload.max_search_depth"),
		DashboardCacheTTL: ttl,
		EventChannelBase:  v.GetString("event.channel_base"),
		DebugDiagnostics:  v.GetBool("debug.diagnostics"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 10
	}

	if cfg.MaxSearchDepth <= 0 {
		cfg.MaxSearchDepth = 4
	}

	return cfg, nil
}
