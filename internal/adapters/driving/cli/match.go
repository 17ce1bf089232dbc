package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

var matchCmd = &cobra.Command{
	Use:   "match <domain> <text>",
	Short: "Check whether a phrase is new to a knowledge base",
	Long: `Classifies a phrase against one knowledge base and reports the closest
known phrase, its similarity score, and whether the phrase counts as new.

Domains: activity, hazard, control, injury, title_process.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	if hazardService == nil {
		return errNotConfigured("hazard")
	}

	d, err := domain.ParseKnowledgeDomain(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")

	c, err := hazardService.Classify(cmd.Context(), d, text)
	if err != nil {
		if hint := hintFor(err); hint != "" {
			cmd.Println(dimText(hint))
		}
		return err
	}

	if jsonOutput {
		return printJSON(cmd, c)
	}

	cmd.Printf("%s %s\n", badge(c.Status()), text)
	cmd.Printf("  Domain:     %s\n", d.Description())
	if c.BestMatch != "" {
		cmd.Printf("  Best match: %s\n", c.BestMatch)
	} else {
		cmd.Println("  Best match: (knowledge base is empty)")
	}
	cmd.Printf("  Score:      %.4f\n", c.Score)
	return nil
}
