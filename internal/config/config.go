package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger backend
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	PostgresURL  string
	BoltDBPath   string

	// Chat transport
	Transport           string
	AllowedSender       string
	WhatsAppSessionPath string
	AssistantMode       string

	// Remote classification
	LLMProvider     string
	AnthropicAPIKey string
	GeminiAPIKey    string
	LLMModel        string
	LLMTimeout      time.Duration

	// Categories
	CategoryCacheTTL  time.Duration
	CategoryRulesFile string
	CategorySource    string

	ChartsDir string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:  getEnv("DATA_BACKEND", "json"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/carteira.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		BoltDBPath:   getEnv("BOLT_DB_PATH", "./data/carteira.bolt"),

		Transport:           getEnv("TRANSPORT", "whatsapp"),
		AllowedSender:       getEnv("ALLOWED_SENDER", ""),
		WhatsAppSessionPath: getEnv("WHATSAPP_SESSION_PATH", "./data/whatsapp.db"),
		AssistantMode:       getEnv("ASSISTANT_MODE", "intent"),

		LLMProvider:     getEnv("LLM_PROVIDER", "none"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 20*time.Second),

		CategoryCacheTTL:  getEnvDuration("CATEGORY_CACHE_TTL", time.Hour),
		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),
		CategorySource:    getEnv("CATEGORY_SOURCE", "store"),

		ChartsDir: getEnv("CHARTS_DIR", "./data/charts"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "carteira"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions_sheets"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Registros"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categorias"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks the bot configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	backends := []string{"json", "sqlite", "postgres", "bolt", "memory"}
	if !oneOf(c.DataBackend, backends...) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, backends))
	}
	switch c.DataBackend {
	case "json":
		if c.DataDir == "" {
			errors = append(errors, "DATA_DIR cannot be empty when using json backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		}
	case "bolt":
		if c.BoltDBPath == "" {
			errors = append(errors, "BOLT_DB_PATH cannot be empty when using bolt backend")
		}
	}

	transports := []string{"whatsapp", "console", "none"}
	if !oneOf(c.Transport, transports...) {
		errors = append(errors, fmt.Sprintf("invalid transport '%s': must be one of %v", c.Transport, transports))
	}
	if c.Transport == "whatsapp" {
		if c.AllowedSender == "" {
			errors = append(errors, "ALLOWED_SENDER is required when using whatsapp transport")
		}
		if c.WhatsAppSessionPath == "" {
			errors = append(errors, "WHATSAPP_SESSION_PATH cannot be empty when using whatsapp transport")
		}
	}

	if !oneOf(c.AssistantMode, "intent", "context") {
		errors = append(errors, fmt.Sprintf("invalid assistant mode '%s': must be intent or context", c.AssistantMode))
	}

	providers := []string{"anthropic", "gemini", "none"}
	if !oneOf(c.LLMProvider, providers...) {
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of %v", c.LLMProvider, providers))
	}
	if c.LLMProvider == "anthropic" && c.AnthropicAPIKey == "" {
		errors = append(errors, "ANTHROPIC_API_KEY is required when LLM_PROVIDER is anthropic")
	}
	if c.LLMProvider == "gemini" && c.GeminiAPIKey == "" {
		errors = append(errors, "GEMINI_API_KEY is required when LLM_PROVIDER is gemini")
	}
	if c.LLMTimeout < time.Second || c.LLMTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be between 1s and 5m", c.LLMTimeout))
	}

	if c.CategoryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must be at least 1 second", c.CategoryCacheTTL))
	}
	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("category rules file does not exist: %s", c.CategoryRulesFile))
		}
	}
	if !oneOf(c.CategorySource, "store", "sheets") {
		errors = append(errors, fmt.Sprintf("invalid category source '%s': must be store or sheets", c.CategorySource))
	}
	if c.CategorySource == "sheets" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when CATEGORY_SOURCE is sheets")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks what the sheets worker needs on top of AMQP.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME is required for the worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
