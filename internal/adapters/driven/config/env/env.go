// Package env applies environment overrides to stored settings.
//
// A .env file in the working directory is loaded first; variables already
// set in the process environment win over the file. Recognised variables:
//
//	OPENAI_API_KEY       API key for OpenAI embeddings and chat
//	ANTHROPIC_API_KEY    API key for Anthropic chat
//	RISKMATCH_DATA_DIR   directory holding corpora, caches and the database
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// Environment variable names.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	OpenAIAPIKey    = "OPENAI_API_KEY"
	AnthropicAPIKey = "ANTHROPIC_API_KEY"
	DataDir         = "RISKMATCH_DATA_DIR"
)

// LoadDotEnv loads variables from the given files, or ./.env when none
// are given. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
		logger.Debug("env: loaded %s", f)
	}
	return nil
}

// Apply overlays environment values onto settings. An API key is only
// applied to a provider that needs it.
func Apply(settings *domain.AppSettings) {
	apply(settings, os.LookupEnv)
}

func apply(settings *domain.AppSettings, lookup func(string) (string, bool)) {
	keyFor := func(p domain.AIProvider) (string, bool) {
		switch p {
		case domain.AIProviderOpenAI:
			return nonEmpty(lookup(OpenAIAPIKey))
		case domain.AIProviderAnthropic:
			return nonEmpty(lookup(AnthropicAPIKey))
		default:
			return "", false
		}
	}

	if key, ok := keyFor(settings.Embedding.Provider); ok {
		settings.Embedding.APIKey = key
		logger.Debug("env: embedding API key from environment")
	}
	if key, ok := keyFor(settings.LLM.Provider); ok {
		settings.LLM.APIKey = key
		logger.Debug("env: LLM API key from environment")
	}
	if dir, ok := nonEmpty(lookup(DataDir)); ok {
		settings.DataDir = dir
		logger.Debug("env: data dir %s", dir)
	}
}

func nonEmpty(v string, ok bool) (string, bool) {
	return v, ok && v != ""
}
