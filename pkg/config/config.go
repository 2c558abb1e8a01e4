package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	LLM      LLMConfig
	Journal  JournalConfig
	Admin    AdminConfig
	Redis    RedisConfig
	Mail     MailConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
	ResetExp   time.Duration
}

// LLMConfig selects the rephrasing provider. Provider is "gigachat" or "openai".
type LLMConfig struct {
	Provider string
	Model    string
	GigaChat GigaChatConfig
	OpenAI   OpenAIConfig
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type JournalConfig struct {
	HeaderImagePath string
	MaxUploadBytes  int64
}

// AdminConfig identifies the management account by email.
type AdminConfig struct {
	Email    string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ViewTTL  time.Duration
}

type MailConfig struct {
	SendGridAPIKey string
	BaseURL        string
	FromEmail      string
	FromName       string
	ResetURL       string
}

const (
	ProviderGigaChat = "gigachat"
	ProviderOpenAI   = "openai"
)

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for Docker/K8s
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "12"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	resetExp, _ := strconv.Atoi(getEnv("JWT_RESET_EXPIRATION_MINUTES", "30"))
	openAITimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT_SECONDS", "180"))
	maxUploadMB, _ := strconv.Atoi(getEnv("JOURNAL_MAX_UPLOAD_MB", "10"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	dbMaxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	viewTTL, _ := strconv.Atoi(getEnv("REDIS_VIEW_TTL_SECONDS", "300"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGigaChat))
	defaultModel := "GigaChat"
	if provider == ProviderOpenAI {
		defaultModel = "gpt-4o-mini"
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "journal_reframer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(dbMaxConns),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
			ResetExp:   time.Duration(resetExp) * time.Minute,
		},
		LLM: LLMConfig{
			Provider: provider,
			Model:    getEnv("LLM_MODEL", defaultModel),
			GigaChat: GigaChatConfig{
				APIKey:             getEnv("GIGACHAT_API_KEY", ""),
				Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
				InsecureSkipVerify: insecureSkipVerify,
			},
			OpenAI: OpenAIConfig{
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				Timeout: time.Duration(openAITimeout) * time.Second,
			},
		},
		Journal: JournalConfig{
			HeaderImagePath: getEnv("JOURNAL_HEADER_IMAGE", "assets/templates/aurora_header.png"),
			MaxUploadBytes:  int64(maxUploadMB) * 1024 * 1024,
		},
		Admin: AdminConfig{
			Email:    strings.ToLower(getEnv("ADMIN_EMAIL", "admin@aurora.com")),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			ViewTTL:  time.Duration(viewTTL) * time.Second,
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			BaseURL:        getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", "no-reply@aurora.com"),
			FromName:       getEnv("SENDGRID_FROM_NAME", "Journal Reframer"),
			ResetURL:       getEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() []error {
	errs := make([]error, 0)
	switch c.LLM.Provider {
	case ProviderGigaChat:
		if c.LLM.GigaChat.APIKey == "" {
			errs = append(errs, errors.Errorf("GIGACHAT_API_KEY is required for provider %q", c.LLM.Provider))
		}
	case ProviderOpenAI:
		if c.LLM.OpenAI.APIKey == "" {
			errs = append(errs, errors.Errorf("OPENAI_API_KEY is required for provider %q", c.LLM.Provider))
		}
	default:
		errs = append(errs, errors.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY must not be empty"))
	}
	if c.Admin.Email == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL must not be empty"))
	}
	if c.Journal.MaxUploadBytes <= 0 {
		errs = append(errs, errors.Errorf("JOURNAL_MAX_UPLOAD_MB must be positive, got %d", c.Journal.MaxUploadBytes))
	}
	if int64(c.Server.BodyLimit) < c.Journal.MaxUploadBytes {
		errs = append(errs, errors.Errorf("SERVER_BODY_LIMIT_MB must cover JOURNAL_MAX_UPLOAD_MB"))
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
