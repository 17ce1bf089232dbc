package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, matching thresholds, and the data directory.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to match phrases against the knowledge bases.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to generate hazards and activities for new work.`,
	RunE:  runSettingsLLM,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by key.

Keys:
  embedding.provider, embedding.model, embedding.base_url
  llm.provider, llm.model, llm.base_url
  matching.novelty_threshold, matching.activity_reuse_threshold
  matching.batch_size, matching.requests_per_second
  data.dir

API keys are set with 'riskmatch settings set-key' so they stay out of
shell history.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:       "set-key <embedding|llm>",
	Short:     "Set a provider API key without echoing it",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsSetKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if jsonOutput {
		masked := *settings
		if masked.Embedding.APIKey != "" {
			masked.Embedding.APIKey = maskAPIKey(masked.Embedding.APIKey)
		}
		if masked.LLM.APIKey != "" {
			masked.LLM.APIKey = maskAPIKey(masked.LLM.APIKey)
		}
		return printJSON(cmd, masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())

	cmd.Println("[Matching]")
	cmd.Printf("  Novelty threshold: %.2f\n", settings.Matching.NoveltyThreshold)
	cmd.Printf("  Activity reuse threshold: %.2f\n", settings.Matching.ActivityReuseThreshold)
	cmd.Printf("  Batch size: %d\n", settings.Matching.BatchSize)
	if settings.Matching.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f requests/s\n", settings.Matching.RequestsPerSecond)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	cmd.Println("[Data]")
	if settings.DataDir != "" {
		cmd.Printf("  Directory: %s\n", settings.DataDir)
	} else {
		cmd.Println("  Directory: ~/.riskmatch (default)")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'riskmatch settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	if p == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", p.Description())
		cmd.Printf("  Model: %s\n", model)
	}
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := oldBadge("configured")
	if !configured {
		status = newBadge("not configured")
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	cmd.Println("riskmatch Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Embeddings decide whether activities, hazards, controls and injuries are new.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("An LLM generates hazards and activities for work that has not been seen before.")
	cmd.Print("Configure an LLM provider now? [Y/n]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "n" || answer == "no" {
		cmd.Println("Skipped. Suggestions for new activities will be unavailable.")
		cmd.Println()
	} else if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// providerStep holds what differs between the embedding and LLM prompts.
type providerStep struct {
	label     string
	providers []domain.AIProvider
	defaults  map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	validate  func() error
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerStep{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		defaults:  domain.DefaultEmbeddingModels(),
		set:       settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerStep{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		defaults:  domain.DefaultLLMModels(),
		set:       settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, step providerStep) error {
	cmd.Printf("Select %s Provider\n", step.label)
	for i, p := range step.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(step.providers), 1)
	selected := step.providers[idx-1]

	defaultModel := step.defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.set(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := step.validate(); err != nil {
		cmd.Printf("%s: %v\n", errText("FAILED"), err)
		return fmt.Errorf("%s configuration validation failed: %w", step.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", step.label, selected.Description(), model)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	key, value := strings.ToLower(strings.TrimSpace(args[0])), strings.TrimSpace(args[1])

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	switch key {
	case "embedding.provider", "llm.provider":
		p := domain.AIProvider(strings.ToLower(value))
		set, apiKey := settingsService.SetEmbeddingProvider, settings.Embedding.APIKey
		if key == "llm.provider" {
			set, apiKey = settingsService.SetLLMProvider, settings.LLM.APIKey
		}
		if err := set(p, "", apiKey); err != nil {
			return fmt.Errorf("%w (run 'riskmatch settings %s' to configure it interactively)",
				err, strings.TrimSuffix(key, ".provider"))
		}
		cmd.Printf("Set %s to %s with its default model.\n", key, p)
		return nil
	case "matching.novelty_threshold", "matching.activity_reuse_threshold":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		novelty, reuse := settings.Matching.NoveltyThreshold, settings.Matching.ActivityReuseThreshold
		// A broken stored value for the other threshold falls back to its
		// default so each key can be repaired on its own.
		if domain.ValidateThreshold("novelty", novelty) != nil {
			novelty = domain.DefaultNoveltyThreshold
		}
		if domain.ValidateThreshold("activity reuse", reuse) != nil {
			reuse = domain.DefaultActivityReuseThreshold
		}
		if key == "matching.novelty_threshold" {
			novelty = v
		} else {
			reuse = v
		}
		if err := settingsService.SetThresholds(novelty, reuse); err != nil {
			return err
		}
		cmd.Printf("Set %s to %s.\n", key, value)
		return nil
	}

	if err := applySetting(settings, key, value); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Set %s to %s.\n", key, value)
	return nil
}

// applySetting updates the plain string and numeric settings.
func applySetting(settings *domain.AppSettings, key, value string) error {
	switch key {
	case "embedding.model":
		settings.Embedding.Model = value
	case "embedding.base_url":
		settings.Embedding.BaseURL = value
	case "llm.model":
		settings.LLM.Model = value
	case "llm.base_url":
		settings.LLM.BaseURL = value
	case "data.dir":
		settings.DataDir = value
	case "matching.batch_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: batch size must be a positive integer", domain.ErrInvalidInput)
		}
		settings.Matching.BatchSize = n
	case "matching.requests_per_second":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("%w: requests per second must be zero or more", domain.ErrInvalidInput)
		}
		settings.Matching.RequestsPerSecond = v
	case "embedding.api_key", "llm.api_key":
		return fmt.Errorf("%w: use 'riskmatch settings set-key' for API keys", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	target := strings.ToLower(args[0])
	var provider domain.AIProvider
	switch target {
	case "embedding":
		provider = settings.Embedding.Provider
	case "llm":
		provider = settings.LLM.Provider
	default:
		return fmt.Errorf("%w: expected 'embedding' or 'llm', got %q", domain.ErrInvalidInput, args[0])
	}
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: the %s provider %q does not use an API key", domain.ErrInvalidInput, target, provider)
	}

	cmd.Printf("Enter %s API key: ", provider.Description())
	key := readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()
	if key == "" {
		return errors.New("API key is required")
	}

	if target == "embedding" {
		settings.Embedding.APIKey = key
	} else {
		settings.LLM.APIKey = key
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Saved %s API key %s.\n", target, maskAPIKey(key))
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, and falls
// back to a plain line read from reader otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
