package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Search tuning.
	RetrieveK         int     // candidates requested from the index per search
	ReturnK           int     // max candidates handed to the answer generator
	DistanceThreshold float64 // post-filter confidence cutoff (cosine distance)
	FollowupThreshold float64 // top-candidate distance above which clarification triggers
	MaxFollowups      int     // hard ceiling on clarification rounds

	// Collaborator endpoints.
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	QdrantURL          string
	QdrantCollection   string
	QdrantVectorSize   int

	// Optional local cross-encoder for reranking. Empty disables reranking.
	CrossEncoderModel string

	// Optional YAML override for the follow-up category table.
	CategoriesPath string

	DBPath  string
	DataDir string
	APIPort string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it is loaded
// automatically; variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load() // Try current directory

	// Walk up to find a .env next to go.mod (running from cmd/ subdirs).
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "escalation_docs"),
		CrossEncoderModel:  getEnv("CROSS_ENCODER_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
		CategoriesPath:     getEnv("CATEGORIES_PATH", ""),
		DBPath:             getEnv("DB_PATH", "./data/escalation-helper.db"),
		DataDir:            getEnv("DATA_DIR", "./data/docs"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	var parseErr error
	cfg.RetrieveK = getEnvInt("RETRIEVE_K", 20, &parseErr)
	cfg.ReturnK = getEnvInt("RETURN_K", 3, &parseErr)
	cfg.MaxFollowups = getEnvInt("MAX_FOLLOWUPS", 4, &parseErr)
	cfg.DistanceThreshold = getEnvFloat("DISTANCE_THRESHOLD", 0.40, &parseErr)
	cfg.FollowupThreshold = getEnvFloat("FOLLOWUP_THRESHOLD", 0.30, &parseErr)
	if parseErr != nil {
		return nil, parseErr
	}

	if cfg.RetrieveK <= 0 {
		return nil, fmt.Errorf("RETRIEVE_K must be greater than 0")
	}
	if cfg.ReturnK <= 0 {
		return nil, fmt.Errorf("RETURN_K must be greater than 0")
	}
	if cfg.ReturnK > cfg.RetrieveK {
		return nil, fmt.Errorf("RETURN_K (%d) must not exceed RETRIEVE_K (%d)", cfg.ReturnK, cfg.RetrieveK)
	}
	if cfg.DistanceThreshold < 0 || cfg.DistanceThreshold > 1 {
		return nil, fmt.Errorf("DISTANCE_THRESHOLD must be in [0, 1]")
	}
	if cfg.FollowupThreshold < 0 || cfg.FollowupThreshold > 1 {
		return nil, fmt.Errorf("FOLLOWUP_THRESHOLD must be in [0, 1]")
	}
	if cfg.MaxFollowups <= 0 {
		return nil, fmt.Errorf("MAX_FOLLOWUPS must be greater than 0")
	}

	// Vector size must match the embedding model output. For
	// text-embedding-ada-002 this is 1536 dimensions.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "1536")
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Create the data directory for the feedback DB if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable, recording the first parse
// failure in errOut.
func getEnvInt(key string, defaultValue int, errOut *error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		if *errOut == nil {
			*errOut = fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return defaultValue
	}
	return parsed
}

// getEnvFloat parses a float environment variable, recording the first parse
// failure in errOut.
func getEnvFloat(key string, defaultValue float64, errOut *error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		if *errOut == nil {
			*errOut = fmt.Errorf("%s must be a valid number: %w", key, err)
		}
		return defaultValue
	}
	return parsed
}
