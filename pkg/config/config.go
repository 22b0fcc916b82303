package config

import (
	"os"
	"strconv"
)

type Config struct {
	// LLM provider selection. "google" uses Gemini through langchaingo,
	// "openai" uses the OpenAI chat API.
	LLMProvider    string
	GoogleApiKey   string
	OpenAIApiKey   string
	ReasoningModel string
	FastModel      string

	// Web search backend: "tavily", "duckduckgo" or "arxiv". MistralApiKey
	// optionally enables full-text PDF extraction for arXiv results.
	SearchProvider string
	TavilyApiKey   string
	MistralApiKey  string
	SearchCount    int

	// Email notification. Empty SendGridApiKey disables delivery and the
	// report is logged instead.
	SendGridApiKey string
	EmailFrom      string
	EmailTo        string

	DatabaseURL string
	Port        string

	// Report archive settings for the pgvector store.
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
	CollectionName string

	TraceViewerURL string
}

func Load() *Config {
	return &Config{
		LLMProvider:    getEnv("LLM_PROVIDER", "google"),
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		OpenAIApiKey:   getEnv("OPENAI_API_KEY", ""),
		ReasoningModel: getEnv("REASONING_MODEL", "gemini-3-pro-preview"),
		FastModel:      getEnv("FAST_MODEL", "gemini-3-flash-preview"),
		SearchProvider: getEnv("SEARCH_PROVIDER", "duckduckgo"),
		TavilyApiKey:   getEnv("TAVILY_API_KEY", ""),
		MistralApiKey:  getEnv("MISTRAL_API_KEY", ""),
		SearchCount:    getEnvAsInt("SEARCH_COUNT", 3),
		SendGridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailTo:        getEnv("EMAIL_TO", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnv("PORT", "3000"),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		CollectionName: getEnv("COLLECTION_NAME", "research_reports"),
		TraceViewerURL: getEnv("TRACE_VIEWER_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
