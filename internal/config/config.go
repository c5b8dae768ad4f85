package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ministore modes select how topics are materialized.
const (
	ModeBooks   = "books"
	ModeCatalog = "catalog"
	ModeAPI     = "api"
	ModeSearch  = "search"
)

// Config holds all configuration for the application
type Config struct {
	// OpenAI settings
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIStub    bool // If true, use canned responses instead of real API calls

	// Analysis settings
	TopicCount      int
	TopicMaxWords   int
	MaxInputChars   int
	MaxSummaryChars int
	FallbackTopics  []string

	// Ministore settings
	MinistoreMode    string
	UserID           int
	CategoryID       int
	Language         string
	BookBaseURL      string
	CatalogBaseURL   string
	SearchBaseURL    string
	ItemsPerBook     int
	CatalogItems     int
	SearchNumResults int
	BookAPIURL       string
	BookAPIKey       string

	// Serper shopping search
	SerperAPIKey string
	SerperURL    string

	// MySQL
	DBHost     string
	DBPort     int
	DBUsername string
	DBPassword string
	DBDatabase string

	// HTTP
	HTTPAddr     string
	FetchTimeout time.Duration
	DataDir      string

	// Inbox processing
	InboxEnabled bool
	IMAPServer   string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
	IMAPFolder   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       string

	ScheduleCron string
	MaxRetries   int
	RetryDelay   time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// fileConfig is the optional YAML overlay pointed to by CONFIG_FILE.
// Values in it become defaults; environment variables still win.
type fileConfig struct {
	OpenAI struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"openai"`
	Analysis struct {
		TopicCount     int      `yaml:"topic_count"`
		FallbackTopics []string `yaml:"fallback_topics"`
	} `yaml:"analysis"`
	Ministore struct {
		Mode             string `yaml:"mode"`
		UserID           int    `yaml:"user_id"`
		CategoryID       int    `yaml:"category_id"`
		Language         string `yaml:"language"`
		BookBaseURL      string `yaml:"book_base_url"`
		CatalogBaseURL   string `yaml:"catalog_base_url"`
		SearchBaseURL    string `yaml:"search_base_url"`
		ItemsPerBook     int    `yaml:"items_per_book"`
		CatalogItems     int    `yaml:"catalog_items"`
		SearchNumResults int    `yaml:"search_num_results"`
		BookAPIURL       string `yaml:"book_api_url"`
	} `yaml:"ministore"`
}

// Load loads configuration from .env, the optional YAML file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config := &Config{
		OpenAIAPIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", orString(file.OpenAI.Model, "gpt-4o-mini")),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", file.OpenAI.BaseURL),
		OpenAIStub:    getEnvBoolOrDefault("OPENAI_STUB", false),

		TopicCount:      getEnvIntOrDefault("TOPIC_COUNT", orInt(file.Analysis.TopicCount, 3)),
		TopicMaxWords:   getEnvIntOrDefault("TOPIC_MAX_WORDS", 5),
		MaxInputChars:   getEnvIntOrDefault("MAX_INPUT_CHARS", 15000),
		MaxSummaryChars: getEnvIntOrDefault("MAX_SUMMARY_CHARS", 5000),
		FallbackTopics: getEnvSliceOrDefault("FALLBACK_TOPICS", orSlice(file.Analysis.FallbackTopics,
			[]string{"productos relacionados", "servicios disponibles", "ofertas destacadas"})),

		MinistoreMode:    strings.ToLower(getEnvOrDefault("MINISTORE_MODE", orString(file.Ministore.Mode, ModeBooks))),
		UserID:           getEnvIntOrDefault("MINISTORE_USER_ID", orInt(file.Ministore.UserID, 221)),
		CategoryID:       getEnvIntOrDefault("MINISTORE_CATEGORY_ID", orInt(file.Ministore.CategoryID, 1)),
		Language:         getEnvOrDefault("MINISTORE_LANGUAGE", orString(file.Ministore.Language, "es")),
		BookBaseURL:      getEnvOrDefault("BOOK_BASE_URL", orString(file.Ministore.BookBaseURL, "https://www.deanna2u.com/book")),
		CatalogBaseURL:   getEnvOrDefault("CATALOG_BASE_URL", orString(file.Ministore.CatalogBaseURL, "https://www.deanna2u.com/ministore")),
		SearchBaseURL:    getEnvOrDefault("SEARCH_BASE_URL", orString(file.Ministore.SearchBaseURL, "https://www.deanna2u.com/")),
		ItemsPerBook:     getEnvIntOrDefault("ITEMS_PER_BOOK", orInt(file.Ministore.ItemsPerBook, 4)),
		CatalogItems:     getEnvIntOrDefault("CATALOG_ITEMS", orInt(file.Ministore.CatalogItems, 8)),
		SearchNumResults: getEnvIntOrDefault("SEARCH_NUM_RESULTS", orInt(file.Ministore.SearchNumResults, 10)),
		BookAPIURL:       getEnvOrDefault("BOOK_API_URL", orString(file.Ministore.BookAPIURL, "https://www.deanna2u.com/api/create_new_book")),
		BookAPIKey:       getEnvOrDefault("BOOK_API_KEY", getEnvOrDefault("DEANNA2U_API_KEY", "")),

		SerperAPIKey: getEnvOrDefault("SERPER_API_KEY", getEnvOrDefault("Serper.dev_Key", "")),
		SerperURL:    getEnvOrDefault("SERPER_URL", "https://google.serper.dev/search"),

		DBHost:     getEnvOrDefault("DB_HOST", ""),
		DBPort:     getEnvIntOrDefault("DB_PORT", 3306),
		DBUsername: getEnvOrDefault("DB_USERNAME", ""),
		DBPassword: getEnvOrDefault("DB_PASSWORD", ""),
		DBDatabase: getEnvOrDefault("DB_DATABASE", ""),

		HTTPAddr:     getEnvOrDefault("HTTP_ADDR", ":8080"),
		FetchTimeout: getEnvDurationOrDefault("FETCH_TIMEOUT", 20*time.Second),
		DataDir:      getEnvOrDefault("DATA_DIR", "data"),

		InboxEnabled: getEnvBoolOrDefault("INBOX_ENABLED", false),
		IMAPServer:   getEnvOrDefault("IMAP_SERVER", "imap.gmail.com"),
		IMAPPort:     getEnvIntOrDefault("IMAP_PORT", 993),
		IMAPUsername: getEnvOrDefault("IMAP_USERNAME", ""),
		IMAPPassword: getEnvOrDefault("IMAP_PASSWORD", ""),
		IMAPFolder:   getEnvOrDefault("IMAP_FOLDER", "INBOX"),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: getEnvOrDefault("SMTP_USERNAME", ""),
		SMTPPassword: getEnvOrDefault("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", ""),
		SMTPTo:       getEnvOrDefault("SMTP_TO", ""),

		ScheduleCron: getEnvOrDefault("SCHEDULE_CRON", "0 0 6 * * *"), // Daily at 6 AM
		MaxRetries:   getEnvIntOrDefault("MAX_RETRIES", 3),
		RetryDelay:   getEnvDurationOrDefault("RETRY_DELAY", 5*time.Minute),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" && !c.OpenAIStub {
		return fmt.Errorf("OPENAI_API_KEY is required when not using stubbed mode")
	}
	if c.TopicCount < 1 {
		return fmt.Errorf("TOPIC_COUNT must be at least 1, got %d", c.TopicCount)
	}

	switch c.MinistoreMode {
	case ModeBooks, ModeCatalog:
		if c.DBHost == "" {
			return fmt.Errorf("DB_HOST is required for ministore mode %q", c.MinistoreMode)
		}
		if c.SerperAPIKey == "" {
			return fmt.Errorf("SERPER_API_KEY is required for ministore mode %q", c.MinistoreMode)
		}
	case ModeAPI:
		if c.BookAPIKey == "" {
			return fmt.Errorf("BOOK_API_KEY is required for ministore mode %q", c.MinistoreMode)
		}
	case ModeSearch:
	default:
		return fmt.Errorf("unknown MINISTORE_MODE %q", c.MinistoreMode)
	}

	if c.InboxEnabled {
		if c.IMAPUsername == "" {
			return fmt.Errorf("IMAP_USERNAME is required")
		}
		if c.IMAPPassword == "" {
			return fmt.Errorf("IMAP_PASSWORD is required")
		}
		if c.SMTPFrom == "" {
			return fmt.Errorf("SMTP_FROM is required")
		}
		if c.SMTPTo == "" {
			return fmt.Errorf("SMTP_TO is required")
		}
	}
	return nil
}

// HasDB reports whether MySQL connection settings are present.
func (c *Config) HasDB() bool {
	return c.DBHost != ""
}

// DSN returns the go-sql-driver/mysql data source name.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBDatabase)
}

// Helper functions for environment variables
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Try to parse as JSON array first
		var jsonArray []string
		if err := json.Unmarshal([]byte(value), &jsonArray); err == nil {
			return jsonArray
		}

		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orSlice(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}
