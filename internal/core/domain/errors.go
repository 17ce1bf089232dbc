package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidScore indicates a severity or likelihood outside 1..5.
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrAlreadyReviewed indicates a pending hazard was already approved or rejected.
	ErrAlreadyReviewed = errors.New("hazard already reviewed")

	// ErrConfigNotFound indicates the config file does not exist yet.
	ErrConfigNotFound = errors.New("config not found")

	// Knowledge Base Errors.

	// ErrEmptyCorpus indicates a retrieval was attempted against a corpus
	// with no phrases. Callers must check the corpus before ranking.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrCacheMismatch indicates the persisted embedding cache does not
	// line up with its corpus. The domain must be re-embedded.
	ErrCacheMismatch = errors.New("embedding cache out of sync with corpus")

	// ErrCacheCorrupt indicates an embedding cache file could not be decoded.
	ErrCacheCorrupt = errors.New("embedding cache corrupt")

	// AI Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Hazard synthesis and activity generation are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Matching is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
