package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// mockAIValidator records what it was asked to validate.
type mockAIValidator struct {
	embedErr error
	llmErr   error
	embedded *domain.EmbeddingSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedded = cfg
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.Matching, settings.Matching)
	assert.Equal(t, defaults, service.GetDefaults())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyEmbedProvider, "openai")
	_ = store.Set(KeyEmbedModel, "text-embedding-3-large")
	_ = store.Set(KeyNoveltyThreshold, 0.3)
	_ = store.Set(KeyReuseThreshold, 0.5)
	_ = store.Set(KeyBatchSize, 25)
	_ = store.Set(KeyDataDir, "/srv/riskmatch")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.InDelta(t, 0.3, settings.Matching.NoveltyThreshold, 1e-9)
	assert.InDelta(t, 0.5, settings.Matching.ActivityReuseThreshold, 1e-9)
	assert.Equal(t, 25, settings.Matching.BatchSize)
	assert.Equal(t, "/srv/riskmatch", settings.DataDir)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyEmbedProvider, "invalid_provider")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProvider(""), settings.Embedding.Provider)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic, Model: "claude", APIKey: "k"}
	settings.Matching.RequestsPerSecond = 5
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.LLM, got.LLM)
	assert.InDelta(t, 5.0, got.Matching.RequestsPerSecond, 1e-9)

	_, hasDataDir := store.Get(KeyDataDir)
	assert.False(t, hasDataDir, "empty data dir is not written")
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	settings, _ := service.Get()
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))
	settings, _ = service.Get()
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.True(t, settings.Embedding.IsConfigured())

	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "k"))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
	assert.Error(t, service.SetEmbeddingProvider(domain.AIProvider("x"), "", ""))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk"))
	settings, _ := service.Get()
	assert.Equal(t, "gpt-4", settings.LLM.Model)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))
	settings, _ = service.Get()
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)

	assert.Error(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
}

func TestSettingsService_SetThresholds(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetThresholds(0.3, 0.45))
	settings, _ := service.Get()
	assert.InDelta(t, 0.3, settings.Matching.NoveltyThreshold, 1e-9)
	assert.InDelta(t, 0.45, settings.Matching.ActivityReuseThreshold, 1e-9)

	assert.ErrorIs(t, service.SetThresholds(0, 0.4), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetThresholds(0.35, 1.5), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.ErrorIs(t, service.Validate(), domain.ErrEmbeddingUnavailable)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	assert.NoError(t, service.Validate())
}

func TestSettingsService_Validate_RejectsStoredThresholds(t *testing.T) {
	tests := []struct {
		key   string
		value float64
	}{
		{KeyNoveltyThreshold, 0},
		{KeyNoveltyThreshold, -0.2},
		{KeyReuseThreshold, 0},
		{KeyReuseThreshold, 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.key, tt.value), func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, nil)
			require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
			require.NoError(t, store.Set(tt.key, tt.value))

			err := service.Validate()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.ErrorContains(t, err, "threshold")
		})
	}
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	store := memory.NewConfigStore()
	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())

	boom := errors.New("unreachable")
	validator := &mockAIValidator{embedErr: boom, llmErr: boom}
	service := NewSettingsService(store, validator)
	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	assert.ErrorIs(t, service.ValidateEmbeddingConfig(), boom)
	assert.ErrorIs(t, service.ValidateLLMConfig(), boom)
	require.NotNil(t, validator.embedded)
	assert.Equal(t, domain.AIProviderOllama, validator.embedded.Provider)
}
