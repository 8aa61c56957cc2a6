package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nebula/internal/llm"
)

const (
	DefaultPort      = ":8000"
	DefaultAPIPrefix = "/api/v1"
	DefaultProject   = "Nebula AI"
	DefaultVersion   = "1.0.0"
	DefaultDatabase  = "nebula_db"
	DefaultBucket    = "nebula-exports"
)

// Config is built once by Load and passed by value afterwards.
type Config struct {
	Port        string
	Env         string
	ProjectName string
	Version     string
	APIPrefix   string
	CORSOrigins []string
	LogLevel    slog.Level

	Providers llm.ProviderSettings

	DatabaseURL  string
	DatabaseName string
	// StorePath persists projects to a JSON file when no database is reachable.
	StorePath string
	CacheSize int

	Artifact ArtifactConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// IsLocal reports whether the process runs in the local development profile.
func (c Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local")
}

// Load reads .env when present, then the process environment. Missing
// provider credentials are not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(getenv("APP_ENV"), "local")
	return Config{
		Port:        normalizePort(firstNonEmpty(getenv("PORT"), DefaultPort)),
		Env:         env,
		ProjectName: firstNonEmpty(getenv("PROJECT_NAME"), DefaultProject),
		Version:     firstNonEmpty(getenv("APP_VERSION"), DefaultVersion),
		APIPrefix:   normalizePrefix(firstNonEmpty(getenv("API_PREFIX"), DefaultAPIPrefix)),
		CORSOrigins: splitList(firstNonEmpty(getenv("BACKEND_CORS_ORIGINS"), "http://localhost:3000,http://localhost:5173")),
		LogLevel:    parseLevel(getenv("LOG_LEVEL")),
		Providers: llm.ProviderSettings{
			GroqAPIKey:   getenv("GROQ_API_KEY"),
			GroqModel:    getenv("GROQ_MODEL"),
			GeminiAPIKey: firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY")),
			GeminiModel:  getenv("GEMINI_MODEL"),
			HFToken:      firstNonEmpty(getenv("HF_TOKEN"), getenv("HUGGINGFACEHUB_API_TOKEN")),
			HFModel:      getenv("HF_MODEL"),
			Fake:         parseBool(getenv("LLM_FAKE"), false),
			Timeout:      parseDuration(getenv("LLM_TIMEOUT"), 60*time.Second),
		},
		DatabaseURL:  firstNonEmpty(getenv("DATABASE_URL"), getenv("PROJECT_STORE_PG_DSN")),
		DatabaseName: firstNonEmpty(getenv("DATABASE_NAME"), DefaultDatabase),
		StorePath:    getenv("PROJECT_STORE_PATH"),
		CacheSize:    parseInt(getenv("PROJECT_CACHE_SIZE"), 256),
		Artifact:     loadArtifactConfig(env),
	}, nil
}

// WithPort returns a copy of c listening on port.
func (c Config) WithPort(port string) Config {
	if strings.TrimSpace(port) != "" {
		c.Port = normalizePort(port)
	}
	return c
}

func loadArtifactConfig(env string) ArtifactConfig {
	local := strings.EqualFold(env, "local")
	endpoint := getenv("ARTIFACT_S3_ENDPOINT")
	if local {
		endpoint = firstNonEmpty(getenv("ARTIFACT_MINIO_ENDPOINT"), endpoint)
	}
	accessDefault, secretDefault := "", ""
	if local {
		accessDefault, secretDefault = "nebula", "nebula123"
	}
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(getenv("ARTIFACT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(getenv("ARTIFACT_S3_ACCESS_KEY"), getenv("MINIO_ROOT_USER"), accessDefault),
		SecretKey: firstNonEmpty(getenv("ARTIFACT_S3_SECRET_KEY"), getenv("MINIO_ROOT_PASSWORD"), secretDefault),
		Bucket:    firstNonEmpty(getenv("ARTIFACT_S3_BUCKET"), DefaultBucket),
		UseSSL:    !local && parseBool(getenv("ARTIFACT_S3_USE_SSL"), true),
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

func normalizePrefix(p string) string {
	p = "/" + strings.Trim(strings.TrimSpace(p), "/")
	if p == "/" {
		return ""
	}
	return p
}

func splitList(raw string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
