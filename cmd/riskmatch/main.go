// Command riskmatch suggests and reviews workplace hazards by matching
// activities against previously approved risk assessments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/ai"
	"github.com/custodia-labs/riskmatch/internal/adapters/driven/config/env"
	configfile "github.com/custodia-labs/riskmatch/internal/adapters/driven/config/file"
	corpusfile "github.com/custodia-labs/riskmatch/internal/adapters/driven/corpus/file"
	cachefile "github.com/custodia-labs/riskmatch/internal/adapters/driven/embedcache/file"
	"github.com/custodia-labs/riskmatch/internal/adapters/driven/parser/blocks"
	"github.com/custodia-labs/riskmatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/riskmatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driven"
	"github.com/custodia-labs/riskmatch/internal/core/services"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := env.LoadDotEnv(); err != nil {
		return err
	}

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	env.Apply(settings)

	dataDir, err := resolveDataDir(settings.DataDir)
	if err != nil {
		return err
	}

	// Missing providers are reported when a command needs them, so that
	// `settings` keeps working on a fresh install.
	var (
		embedder driven.EmbeddingService
		llm      driven.LLMService
	)
	aiServices, err := ai.Initialise(settings, false)
	if err != nil {
		logger.Warn("AI services unavailable: %v", err)
	} else {
		defer aiServices.Close()
		embedder = aiServices.EmbeddingService
		llm = aiServices.LLMService
		for _, w := range aiServices.Warnings {
			logger.Debug("ai: %s", w)
		}
	}

	corpus, err := corpusfile.NewCorpusStore(filepath.Join(dataDir, "corpus"))
	if err != nil {
		return err
	}
	cache, err := cachefile.NewCache(filepath.Join(dataDir, "embeddings"))
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(filepath.Join(dataDir, "data"))
	if err != nil {
		return err
	}
	defer store.Close()

	prompts, err := configfile.NewPromptStore("", services.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	kb := services.NewKnowledgeBase(corpus, cache, embedder, settings.Matching.BatchSize)
	kb.SetWatcher(corpusfile.NewWatcher(corpus.Dir()), services.DefaultWatchQuietPeriod)

	classifier := services.NewClassifier(kb, services.NewRetriever(embedder))
	if err := classifier.SetThresholds(settings.Matching.NoveltyThreshold, settings.Matching.ActivityReuseThreshold); err != nil {
		logger.Warn("%v; using default thresholds (see 'riskmatch settings')", err)
	}

	synthesizer := services.NewSynthesizer(llm, blocks.New())
	synthesizer.SetPromptStore(prompts)

	cli.SetServices(cli.Services{
		Hazard:    services.NewHazardService(classifier, synthesizer, store.KnownDataStore()),
		Knowledge: kb,
		Review:    services.NewReviewService(store.HazardStore(), store.KnownDataStore(), kb, classifier),
		Settings:  settingsService,
	})
	cli.SetVersion(version)

	return cli.ExecuteContext(ctx)
}

// resolveDataDir returns dir, or ~/.riskmatch when it is empty.
func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving data directory: %w", err)
	}
	return filepath.Join(home, ".riskmatch"), nil
}
