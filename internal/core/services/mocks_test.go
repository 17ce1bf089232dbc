package services

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 256

// mockEmbeddingService hashes words into a bag-of-words vector so that
// identical phrases score 1 and phrases with no shared words score near 0.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedErr   error
	batchErr   error
	embedCalls int
	batchSizes []int
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, mockDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%mockDims]++
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = m.vector(t)
	}
	return result, nil
}

func (m *mockEmbeddingService) batchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batchSizes)
}

func (m *mockEmbeddingService) Dimensions() int { return mockDims }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

// shortBatchEmbedder returns one vector fewer than requested.
type shortBatchEmbedder struct {
	mockEmbeddingService
}

func (m *shortBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := m.mockEmbeddingService.EmbedBatch(ctx, texts)
	if err != nil || len(vecs) == 0 {
		return vecs, err
	}
	return vecs[:len(vecs)-1], nil
}

// mockLLMService returns a fixed reply and records the last conversation.
type mockLLMService struct {
	reply    string
	chatErr  error
	calls    int
	messages []driven.ChatMessage
}

func (m *mockLLMService) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.reply, m.chatErr
}

func (m *mockLLMService) Chat(_ context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = msgs
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errNoPrompt
}

func (m *mockPromptStore) Reload() {}

type promptErr string

func (e promptErr) Error() string { return string(e) }

const errNoPrompt = promptErr("no such prompt")

// unit returns a normalised vector for hand-built retrieval tests.
func unit(xs ...float32) []float32 {
	var n float64
	for _, x := range xs {
		n += float64(x) * float64(x)
	}
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = float32(float64(x) / math.Sqrt(n))
	}
	return out
}
