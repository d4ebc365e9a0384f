package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port      string
	Env       string
	MongoURI  string
	MongoDB   string
	JWTSecret string
	JWTTTL    time.Duration
	UploadDir string
	LogLevel  string
}

// Load reads .env (if present) and the process environment.
// There is deliberately no in-memory storage fallback: a bad MONGO_URI
// surfaces at startup, not as silent data loss later.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		Env:       getenv("APP_ENV", "development"),
		MongoURI:  getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getenv("MONGO_DB", "lifehub"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		UploadDir: getenv("UPLOAD_DIR", "uploads"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttl := getenv("JWT_TTL", "72h")
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL %q: %w", ttl, err)
	}
	cfg.JWTTTL = d

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
