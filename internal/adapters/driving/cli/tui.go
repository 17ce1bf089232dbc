package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/adapters/driving/tui"
)

// runProgram starts a Bubbletea program. Replaced in tests.
var runProgram = func(cmd *cobra.Command, model tea.Model) error {
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err := p.Run()
	return err
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Review pending hazards interactively",
	Long: `Launch the interactive review queue.

Every pending hazard is listed with [NEW] or [OLD] badges showing whether
its activity, hazard, control and injury are already known.

Controls:
  ↑/k, ↓/j - Move through the queue
  Enter    - Show every field of a hazard
  a        - Approve and learn its phrases
  r        - Reject
  s        - Knowledge base stats
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("panic in TUI: %v", r)
		}
	}()

	if reviewService == nil {
		return errNotConfigured("review")
	}

	app, err := tui.NewApp(tui.NewPorts(reviewService, knowledgeService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runProgram(cmd, app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
