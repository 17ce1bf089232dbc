package domain

import "fmt"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Matching defaults. The two thresholds are independent decision
// boundaries and must stay separate values.
const (
	// DefaultNoveltyThreshold: a best-match score at or below this marks
	// a hazard, activity, control or injury as new.
	DefaultNoveltyThreshold = 0.35

	// DefaultActivityReuseThreshold: a title and process match scoring at
	// or above this reuses the historical activities.
	DefaultActivityReuseThreshold = 0.4

	// DefaultBatchSize bounds the number of texts per embedding request.
	DefaultBatchSize = 100
)

// MatchingSettings holds retrieval and classification configuration.
type MatchingSettings struct {
	// NoveltyThreshold is the hazard novelty boundary (score <= threshold is new).
	NoveltyThreshold float64

	// ActivityReuseThreshold is the activity reuse boundary (score >= threshold reuses).
	ActivityReuseThreshold float64

	// BatchSize is the embedding batch size used when building caches.
	BatchSize int

	// RequestsPerSecond limits embedding calls. Zero disables limiting.
	RequestsPerSecond float64
}

// ValidateThreshold checks that a matching threshold lies in (0, 1].
func ValidateThreshold(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%w: %s threshold %.3f must be in (0, 1]", ErrInvalidInput, name, v)
	}
	return nil
}

// Validate checks both thresholds, the batch size and the rate limit.
func (m MatchingSettings) Validate() error {
	if err := ValidateThreshold("novelty", m.NoveltyThreshold); err != nil {
		return err
	}
	if err := ValidateThreshold("activity reuse", m.ActivityReuseThreshold); err != nil {
		return err
	}
	if m.BatchSize < 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidInput, m.BatchSize)
	}
	if m.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second %.2f", ErrInvalidInput, m.RequestsPerSecond)
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Matching holds thresholds and batching.
	Matching MatchingSettings

	// DataDir is where corpora, caches and the database live.
	// Empty means the default ~/.riskmatch directory.
	DataDir string
}

// DefaultMatchingSettings returns the tuned thresholds and batch size.
func DefaultMatchingSettings() MatchingSettings {
	return MatchingSettings{
		NoveltyThreshold:       DefaultNoveltyThreshold,
		ActivityReuseThreshold: DefaultActivityReuseThreshold,
		BatchSize:              DefaultBatchSize,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users must set them explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Matching:  DefaultMatchingSettings(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
