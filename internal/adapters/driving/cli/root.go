// Package cli provides the riskmatch command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose    bool
	jsonOutput bool
)

// Services wired in by main.
var (
	hazardService    driving.HazardService
	knowledgeService driving.KnowledgeService
	reviewService    driving.ReviewService
	settingsService  driving.SettingsService
)

// Services holds the driving ports the commands call into.
type Services struct {
	Hazard    driving.HazardService
	Knowledge driving.KnowledgeService
	Review    driving.ReviewService
	Settings  driving.SettingsService
}

// SetServices injects the driving ports used by all commands.
func SetServices(s Services) {
	hazardService = s.Hazard
	knowledgeService = s.Knowledge
	reviewService = s.Review
	settingsService = s.Settings
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "riskmatch",
	Short: "Hazard matching for workplace risk assessments",
	Long: `riskmatch suggests hazards, injuries and controls for work activities by
matching them against previously approved risk assessments, and generates
new suggestions with an LLM when an activity has not been seen before.

Approved assessments are learned into five knowledge bases (activities,
hazards, controls, injuries, and title/process pairs) that also decide
whether a submitted phrase is new or already known.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print matching and provider diagnostics")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
	// cobra prints to stderr unless an output is set.
	rootCmd.SetOut(os.Stdout)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, typically cancelled on SIGINT.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

var (
	newBadge = color.New(color.FgYellow, color.Bold).SprintFunc()
	oldBadge = color.New(color.FgGreen).SprintFunc()
	errText  = color.New(color.FgRed).SprintFunc()
	dimText  = color.New(color.Faint).SprintFunc()
)

// badge renders a new/old marker for a reviewed field.
func badge(status domain.FieldStatus) string {
	if status == domain.FieldStatusNew {
		return newBadge("[NEW]")
	}
	return oldBadge("[OLD]")
}

// errNotConfigured builds the error returned when main did not wire a service.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}

// hintFor adds a next step to errors users can fix themselves.
func hintFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "Configure an embedding provider with 'riskmatch settings embedding'."
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "Configure an LLM provider with 'riskmatch settings llm'."
	case errors.Is(err, domain.ErrCacheMismatch), errors.Is(err, domain.ErrCacheCorrupt):
		return "Rebuild the embeddings with 'riskmatch kb reembed'."
	default:
		return ""
	}
}
