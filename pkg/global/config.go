package global

import (
	"strings"
	"time"
)

// Config is the process configuration assembled from the environment (and .env).
type Config struct {
	Port        string
	Env         string
	CORSOrigins []string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string

	AI       AIConfig
	Analysis AnalysisConfig

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel string
	LogFile  string
}

type AIConfig struct {
	Enabled        bool
	Endpoint       string
	APIKey         string
	DeploymentName string
	Timeout        time.Duration
}

type AnalysisConfig struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	Parallel        bool
	FetchTimeout    time.Duration
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads every setting the server needs. MONGODB_URI is mandatory.
func LoadConfig() *Config {
	return &Config{
		Port:          GetEnvOrDefault("PORT", "8000"),
		Env:           GetEnvOrDefault("ENV", "development"),
		CORSOrigins:   splitList(GetEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MongoURI:      GetMongoURI(),
		MongoDatabase: GetDatabaseName(),
		RedisAddress:  GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),
		AI: AIConfig{
			Enabled:        GetEnvBool("AI_ENABLED", true),
			Endpoint:       GetEnvOrDefault("AZURE_OPENAI_ENDPOINT", ""),
			APIKey:         GetEnvOrDefault("AZURE_OPENAI_API_KEY", ""),
			DeploymentName: GetEnvOrDefault("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-35-turbo"),
			Timeout:        GetEnvDuration("AI_TIMEOUT", 30*time.Second),
		},
		Analysis: AnalysisConfig{
			CacheTTL:        GetEnvDuration("ANALYSIS_CACHE_TTL", 300*time.Second),
			CacheMaxEntries: GetEnvInt("ANALYSIS_CACHE_MAX_ENTRIES", 100),
			Parallel:        GetEnvBool("ANALYSIS_PARALLEL", true),
			FetchTimeout:    GetEnvDuration("ANALYSIS_FETCH_TIMEOUT", 10*time.Second),
		},
		JWTSecret: GetEnvOrDefault("JWT_SECRET", "change-me"),
		JWTTTL:    GetEnvDuration("JWT_TTL", 24*time.Hour),
		LogLevel:  GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:   GetEnvOrDefault("LOG_FILE", ""),
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
