package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/logger"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <activity>",
	Short: "Suggest hazards for a work activity",
	Long: `Suggests hazards, injuries and existing controls for a work activity.

Activities that closely match an approved assessment reuse its stored
hazards. New activities are sent to the LLM together with the closest
approved assessments as examples.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

var (
	activitiesTitle   string
	activitiesProcess string
	activitiesDBOnly  bool
)

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Suggest work activities for a form title and process",
	Long: `Suggests work activities for a risk assessment form title and process.

When the title and process closely match an approved assessment, its
activities are reused. Otherwise three activities are generated by the LLM.
Use --db-only to list the closest stored records without generating.`,
	Args: cobra.NoArgs,
	RunE: runActivities,
}

func init() {
	activitiesCmd.Flags().StringVar(&activitiesTitle, "title", "", "form title")
	activitiesCmd.Flags().StringVar(&activitiesProcess, "process", "", "process name")
	activitiesCmd.Flags().BoolVar(&activitiesDBOnly, "db-only", false, "only list stored records, never generate")
	_ = activitiesCmd.MarkFlagRequired("process")

	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(activitiesCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if hazardService == nil {
		return errNotConfigured("hazard")
	}
	activity := strings.Join(args, " ")

	hazards, err := hazardService.Suggest(cmd.Context(), activity)
	if err != nil {
		// Suggestions fail closed: the form stays usable without them.
		logger.Warn("suggest %q: %v", activity, err)
		hazards = []domain.StructuredHazardFields{}
		if !jsonOutput {
			printNoSuggestion(cmd, err)
			return nil
		}
	}

	if jsonOutput {
		return printJSON(cmd, hazards)
	}
	if len(hazards) == 0 {
		cmd.Println("No suggestion available.")
		return nil
	}

	cmd.Printf("Hazards for %q:\n\n", activity)
	for i := range hazards {
		printHazard(cmd, i+1, hazards[i])
	}
	return nil
}

func printHazard(cmd *cobra.Command, n int, h domain.StructuredHazardFields) {
	cmd.Printf("  [%d] %s\n", n, deref(h.Description, "(no description)"))
	if len(h.Types) > 0 {
		cmd.Printf("      Type:     %s\n", strings.Join(h.Types, ", "))
	}
	if len(h.Injuries) > 0 {
		cmd.Printf("      Injuries: %s\n", strings.Join(h.Injuries, " && "))
	}
	if h.ExistingControls != nil {
		cmd.Printf("      Controls: %s\n", *h.ExistingControls)
	}
	if h.RiskType != nil {
		cmd.Printf("      Risk:     %s\n", *h.RiskType)
	}
	if h.Severity != nil && h.Likelihood != nil {
		rpn := domain.ComputeRPN(*h.Severity, *h.Likelihood)
		if h.RPN != nil {
			rpn = *h.RPN
		}
		cmd.Printf("      S x L:    %d x %d = %d\n", *h.Severity, *h.Likelihood, rpn)
	}
	cmd.Println()
}

func runActivities(cmd *cobra.Command, _ []string) error {
	if hazardService == nil {
		return errNotConfigured("hazard")
	}
	ctx := cmd.Context()

	if activitiesDBOnly {
		records, err := hazardService.MatchedRecords(ctx, activitiesTitle, activitiesProcess)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, records)
		}
		if len(records) == 0 {
			cmd.Println("No stored records match.")
			return nil
		}
		for i := range records {
			r := records[i]
			cmd.Printf("  %s / %s: %s - %s (RPN %d)\n", r.Title, r.Process, r.ActivityName, r.HazardDes, r.RPN)
		}
		return nil
	}

	activities, err := hazardService.MatchedActivities(ctx, activitiesTitle, activitiesProcess)
	if err != nil {
		logger.Warn("activities: %v", err)
		activities = []string{}
		if !jsonOutput {
			printNoSuggestion(cmd, err)
			return nil
		}
	}

	if jsonOutput {
		return printJSON(cmd, activities)
	}
	if len(activities) == 0 {
		cmd.Println("No suggestion available.")
		return nil
	}
	cmd.Println("Suggested activities:")
	for i, a := range activities {
		cmd.Printf("  %d. %s\n", i+1, a)
	}
	return nil
}

func printNoSuggestion(cmd *cobra.Command, err error) {
	cmd.Println("No suggestion available.")
	if verbose {
		cmd.Printf("%s %v\n", errText("Error:"), err)
	}
	if hint := hintFor(err); hint != "" {
		cmd.Println(dimText(hint))
	}
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
