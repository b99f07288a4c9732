package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OpenAI     OpenAIConfig
	Generation GenerationConfig
	Scheduler  SchedulerConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// OpenAIConfig carries the generative model credentials and retry policy.
// Injected into the LLM service at construction, never read from globals.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

type GenerationConfig struct {
	QuizQuestions  int
	FlashcardCount int
	MaxTokens      int
}

type SchedulerConfig struct {
	Workers   int
	QueueSize int
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine: environment variables are used directly
	// (useful for Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	llmTimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT_SECONDS", "60"))
	llmRetries, _ := strconv.Atoi(getEnv("OPENAI_MAX_RETRIES", "3"))
	llmBackoff, _ := strconv.Atoi(getEnv("OPENAI_RETRY_BACKOFF_MS", "1000"))
	quizQuestions, _ := strconv.Atoi(getEnv("GEN_QUIZ_QUESTIONS", "5"))
	flashcardCount, _ := strconv.Atoi(getEnv("GEN_FLASHCARD_COUNT", "10"))
	maxTokens, _ := strconv.Atoi(getEnv("GEN_MAX_TOKENS", "2048"))
	workers, _ := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "4"))
	queueSize, _ := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "64"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "studygenie"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			RequestTimeout: time.Duration(llmTimeout) * time.Second,
			MaxRetries:     llmRetries,
			RetryBackoff:   time.Duration(llmBackoff) * time.Millisecond,
		},
		Generation: GenerationConfig{
			QuizQuestions:  quizQuestions,
			FlashcardCount: flashcardCount,
			MaxTokens:      maxTokens,
		},
		Scheduler: SchedulerConfig{
			Workers:   workers,
			QueueSize: queueSize,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
