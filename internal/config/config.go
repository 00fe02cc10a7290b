package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int               `json:"port"`
	AllowedOrigins []string          `json:"allowed_origins"`
	LogConfig      logger.LogConfig  `json:"log_config"`
	Database       DatabaseConfig    `json:"database"`
	VectorStore    VectorStoreConfig `json:"vector_store"`
	AI             AIConfig          `json:"ai"`
	Translation    TranslationConfig `json:"translation"`
	Ingest         IngestConfig      `json:"ingest"`
	Synthesis      SynthesisConfig   `json:"synthesis"`
	EmbedCache     EmbedCacheConfig  `json:"embed_cache"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorStoreConfig struct {
	Type       string       `json:"type"`
	Collection string       `json:"collection"`
	Dim        int          `json:"dim"`
	Qdrant     QdrantConfig `json:"qdrant"`
}

type QdrantConfig struct {
	URL     string `json:"url"`
	APIKey  string `json:"api_key"`
	Timeout int    `json:"timeout"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	EmbedModel string      `json:"embed_model"`
	GenModel   string      `json:"gen_model"`
	Data       interface{} `json:"data"`
}

type TranslationConfig struct {
	Strategy         string `json:"strategy"`
	TTLHours         int    `json:"ttl_hours"`
	CleanupGraceDays int    `json:"cleanup_grace_days"`
	CleanupSpec      string `json:"cleanup_spec"`
}

type IngestConfig struct {
	Dir string `json:"dir"`
}

type SynthesisConfig struct {
	Strategy string `json:"strategy"`
}

type EmbedCacheConfig struct {
	LRUSize    int  `json:"lru_size"`
	LRUTTLMins int  `json:"lru_ttl_mins"`
	UseDB      bool `json:"use_db"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	switch cfg.VectorStore.Type {
	case "pgvector", "memory":
	case "qdrant":
		if cfg.VectorStore.Qdrant.URL == "" {
			return nil, fmt.Errorf("vector_store.qdrant.url is required for qdrant store")
		}
	default:
		return nil, fmt.Errorf("vector_store.type must be pgvector, qdrant or memory")
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "textbook_content"
	}
	if cfg.VectorStore.Dim == 0 {
		cfg.VectorStore.Dim = 384
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "local"
	}
	if cfg.Translation.Strategy == "" {
		cfg.Translation.Strategy = "placeholder"
	}
	if cfg.Translation.TTLHours == 0 {
		cfg.Translation.TTLHours = 24
	}
	if cfg.Translation.CleanupGraceDays == 0 {
		cfg.Translation.CleanupGraceDays = 7
	}
	if cfg.Translation.CleanupSpec == "" {
		cfg.Translation.CleanupSpec = "30 4 * * *"
	}
	if cfg.Synthesis.Strategy == "" {
		cfg.Synthesis.Strategy = "template"
	}
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 10000
	}
	if cfg.EmbedCache.LRUTTLMins == 0 {
		cfg.EmbedCache.LRUTTLMins = 120
	}
	return &cfg, nil
}
