package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Upload   UploadConfig
	OCR      OCRConfig
	Database DatabaseConfig

	// EnvFileLoaded reports whether a .env file was found at startup.
	EnvFileLoaded bool
}

type ServerConfig struct {
	Port      string
	Host      string
	Env       string
	StaticDir string
}

type ProviderConfig struct {
	Name        string
	DemoMode    bool
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration

	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string

	OllamaURL   string
	OllamaModel string

	GeminiAPIKey string
	GeminiModel  string
}

type UploadConfig struct {
	MaxFileMB int
}

type OCRConfig struct {
	Tesseract   string
	Lang        string
	TessdataDir string
	Timeout     time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

const (
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
	ProviderGemini   = "gemini"
	ProviderDemo     = "demo"
)

func Load() *Config {
	envLoaded := godotenv.Load() == nil

	return &Config{
		EnvFileLoaded: envLoaded,
		Server: ServerConfig{
			Port:      getEnv("PORT", "3000"),
			Host:      getEnv("HOST", "0.0.0.0"),
			Env:       getEnv("ENV", "development"),
			StaticDir: getEnv("STATIC_DIR", "./public"),
		},
		Provider: ProviderConfig{
			Name:            strings.ToLower(getEnv("PROVIDER", ProviderDeepSeek)),
			DemoMode:        getEnvAsBool("DEMO_MODE", false),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.3),
			Timeout:         getEnvAsDuration("PROVIDER_TIMEOUT", "90s"),
			MaxAttempts:     getEnvAsInt("PROVIDER_MAX_ATTEMPTS", 1),
			RetryDelay:      getEnvAsDuration("PROVIDER_RETRY_DELAY", "2s"),
			DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
			DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			DeepSeekModel:   getEnv("DEEPSEEK_MODEL", "deepseek-chat"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.1"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Upload: UploadConfig{
			MaxFileMB: getEnvAsInt("MAX_FILE_MB", 30),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_PATH", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", "2m"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "writing_feedback"),
		},
	}
}

// IsDemo reports whether every request short-circuits to the canned feedback table.
func (c *Config) IsDemo() bool {
	return c.Provider.DemoMode || c.Provider.Name == ProviderDemo
}

// MaxFileBytes is the upload limit derived from MAX_FILE_MB.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Upload.MaxFileMB) * 1024 * 1024
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true"
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
