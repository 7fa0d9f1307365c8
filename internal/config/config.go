package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string

	PhotoBackend   string
	PhotoPath      string
	PhotoPublicURL string
	S3Endpoint     string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
	S3PublicURL    string

	GoogleAPIKey   string
	GoogleSearchCX string
	ImageSearchURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthHeader     string
	AuthDevUser    string
	MaxUploadBytes int64

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, fills in variables that are not already
// set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "/data/beautytracker.db"),
		VisionBackend: getEnv("VISION_BACKEND", "claude"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),

		PhotoBackend:   getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:      getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PhotoPublicURL: getEnv("PHOTO_PUBLIC_URL", "/media"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Bucket:       getEnv("S3_BUCKET", "beautytracker"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3UseSSL:       getEnvBool("S3_USE_SSL", true),
		S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),

		GoogleAPIKey:   getEnv("GOOGLE_API_KEY", ""),
		GoogleSearchCX: getEnv("GOOGLE_CUSTOM_SEARCH_CX", ""),
		ImageSearchURL: getEnv("IMAGE_SEARCH_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthHeader:     getEnv("AUTH_HEADER", "X-User-ID"),
		AuthDevUser:    getEnv("AUTH_DEV_USER", ""),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// ImageSearchEnabled reports whether Google Custom Search credentials are set.
func (c *Config) ImageSearchEnabled() bool {
	return c.GoogleAPIKey != "" && c.GoogleSearchCX != ""
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvBool(key string, defaultVal bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return v
}
