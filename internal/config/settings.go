package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLLMTimeout            = 120 * time.Second
	DefaultRetryLimit            = 3
	DefaultSnippetMaxLines       = 20
	DefaultLowQualityThreshold   = 0.5
	DefaultInvalidClassification = 0.3
	DefaultOutdatedWindowYears   = 2
	DefaultMinEvidenceWords      = 5
	DefaultExtractionConcurrency = 1
	DefaultForecastYears         = 5
	DefaultDatabasePath          = "accreditation.db"
	DefaultAnthropicModel        = "claude-sonnet-4-20250514"
	DefaultOpenAIModel           = "gpt-4o-mini"
	DefaultOpenAIBaseURL         = "https://api.openai.com/v1"
	providerAnthropic            = "anthropic"
	providerOpenAI               = "openai"
	envPrefix                    = "ACCRED_"
)

// Settings are the runtime knobs of the engine.
type Settings struct {
	LLMProvider                string
	LLMModel                   string
	LLMBaseURL                 string
	LLMTimeout                 time.Duration
	RetryLimit                 int
	SnippetMaxLines            int
	LowQualityThreshold        float64
	InvalidClassificationFloor float64
	OutdatedWindowYears        int
	MinEvidenceWords           int
	ExtractionConcurrency      int
	ForecastYears              int
	DatabasePath               string
	TablesPath                 string
	LogLevel                   string
}

func DefaultSettings() Settings {
	return Settings{
		LLMProvider:                providerAnthropic,
		LLMTimeout:                 DefaultLLMTimeout,
		RetryLimit:                 DefaultRetryLimit,
		SnippetMaxLines:            DefaultSnippetMaxLines,
		LowQualityThreshold:        DefaultLowQualityThreshold,
		InvalidClassificationFloor: DefaultInvalidClassification,
		OutdatedWindowYears:        DefaultOutdatedWindowYears,
		MinEvidenceWords:           DefaultMinEvidenceWords,
		ExtractionConcurrency:      DefaultExtractionConcurrency,
		ForecastYears:              DefaultForecastYears,
		DatabasePath:               DefaultDatabasePath,
		LogLevel:                   "info",
	}
}

// SettingsFromEnv overlays ACCRED_* environment variables on the defaults.
// Malformed numeric values keep the default.
func SettingsFromEnv() Settings {
	s := DefaultSettings()
	s.LLMProvider = strings.ToLower(envString("LLM_PROVIDER", s.LLMProvider))
	s.LLMModel = envString("LLM_MODEL", s.LLMModel)
	s.LLMBaseURL = envString("LLM_BASE_URL", s.LLMBaseURL)
	s.LLMTimeout = time.Duration(envInt("LLM_TIMEOUT_SECONDS", int(s.LLMTimeout/time.Second))) * time.Second
	s.RetryLimit = envInt("RETRY_LIMIT", s.RetryLimit)
	s.SnippetMaxLines = envInt("SNIPPET_MAX_LINES", s.SnippetMaxLines)
	s.LowQualityThreshold = envFloat("LOW_QUALITY_THRESHOLD", s.LowQualityThreshold)
	s.InvalidClassificationFloor = envFloat("INVALID_CLASSIFICATION_FLOOR", s.InvalidClassificationFloor)
	s.OutdatedWindowYears = envInt("OUTDATED_WINDOW_YEARS", s.OutdatedWindowYears)
	s.MinEvidenceWords = envInt("MIN_EVIDENCE_WORDS", s.MinEvidenceWords)
	s.ExtractionConcurrency = envInt("EXTRACTION_CONCURRENCY", s.ExtractionConcurrency)
	s.ForecastYears = envInt("FORECAST_YEARS", s.ForecastYears)
	s.DatabasePath = envString("DB_PATH", s.DatabasePath)
	s.TablesPath = envString("TABLES_PATH", s.TablesPath)
	s.LogLevel = envString("LOG_LEVEL", s.LogLevel)
	return s.withModelDefaults()
}

func (s Settings) withModelDefaults() Settings {
	if s.LLMModel == "" {
		switch s.LLMProvider {
		case providerOpenAI:
			s.LLMModel = DefaultOpenAIModel
		default:
			s.LLMModel = DefaultAnthropicModel
		}
	}
	if s.LLMProvider == providerOpenAI && s.LLMBaseURL == "" {
		s.LLMBaseURL = DefaultOpenAIBaseURL
	}
	if s.LLMTimeout <= 0 {
		s.LLMTimeout = DefaultLLMTimeout
	}
	if s.RetryLimit < 1 {
		s.RetryLimit = DefaultRetryLimit
	}
	if s.ExtractionConcurrency < 1 {
		s.ExtractionConcurrency = DefaultExtractionConcurrency
	}
	return s
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
