package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config — все настройки бота. Обязателен только TELEGRAM_TOKEN,
// остальные подсистемы отключаются при пустых значениях.
type Config struct {
	TelegramToken string

	// Сегментация SAM-3 через fal.ai
	FalKey     string
	FalBaseURL string

	// Vision-модель через Ollama
	OllamaHost  string
	OllamaPort  int
	VisionModel string

	// S3-хранилище для загрузки снимков
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3UseSSL      bool
	UploadsBucket string

	// История анализов
	DatabaseURL string

	// Параметры пайплайна
	SegmentTimeoutSeconds  int
	MaxMaskCoveragePercent float64
	UseLLMPreanalysis      bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		FalKey:     os.Getenv("FAL_KEY"),
		FalBaseURL: os.Getenv("FAL_BASE_URL"),

		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost"),
		OllamaPort:  getInt("OLLAMA_PORT", 11434),
		VisionModel: getEnv("VISION_MODEL", "qwen2.5vl:7b"),

		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:      getBool("S3_USE_SSL", true),
		UploadsBucket: getEnv("UPLOADS_BUCKET", "skin-uploads"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SegmentTimeoutSeconds:  getInt("SEGMENT_TIMEOUT_SECONDS", 5),
		MaxMaskCoveragePercent: getFloat("MAX_MASK_COVERAGE_PERCENT", 25),
		UseLLMPreanalysis:      getBool("USE_LLM_PREANALYSIS", true),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
