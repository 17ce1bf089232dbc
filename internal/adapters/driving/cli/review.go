package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Submit and review hazard assessments",
	Long: `Submitted assessments wait in a review queue. Approving one stores it and
teaches every knowledge base its phrases; rejecting it discards it.`,
}

var submitRecord domain.KnownData

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue a hazard assessment for review",
	Args:  cobra.NoArgs,
	RunE:  runReviewSubmit,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assessments awaiting review",
	Args:  cobra.NoArgs,
	RunE:  runReviewList,
}

var approvedLimit int

var reviewApprovedCmd = &cobra.Command{
	Use:   "approved",
	Short: "List approved assessments",
	Args:  cobra.NoArgs,
	RunE:  runReviewApproved,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve an assessment and learn from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewApprove,
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject an assessment",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewReject,
}

func init() {
	f := reviewSubmitCmd.Flags()
	f.StringVar(&submitRecord.Title, "title", "", "form title")
	f.StringVar(&submitRecord.Process, "process", "", "process name")
	f.StringVar(&submitRecord.ActivityName, "activity", "", "work activity (required)")
	f.StringVar(&submitRecord.HazardType, "hazard-type", "", "comma-separated hazard types")
	f.StringVar(&submitRecord.HazardDes, "hazard", "", "hazard description")
	f.StringVar(&submitRecord.Injury, "injury", "", "possible injury")
	f.StringVar(&submitRecord.Control, "control", "", "existing risk control")
	f.StringVar(&submitRecord.RiskType, "risk-type", "", "risk control type")
	f.IntVar(&submitRecord.Severity, "severity", 0, "severity 1-5 (required)")
	f.IntVar(&submitRecord.Likelihood, "likelihood", 0, "likelihood 1-5 (required)")
	_ = reviewSubmitCmd.MarkFlagRequired("activity")
	_ = reviewSubmitCmd.MarkFlagRequired("severity")
	_ = reviewSubmitCmd.MarkFlagRequired("likelihood")

	reviewApprovedCmd.Flags().IntVarP(&approvedLimit, "limit", "n", 20, "maximum number of records (0 = all)")

	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApprovedCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewSubmit(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}

	pending, err := reviewService.Submit(cmd.Context(), submitRecord)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, pending)
	}
	cmd.Printf("Submitted %s for review (RPN %d).\n", pending.ID, pending.Record.RPN)
	return nil
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}

	pending, err := reviewService.Pending(cmd.Context())
	if err != nil {
		if hint := hintFor(err); hint != "" {
			cmd.Println(dimText(hint))
		}
		return err
	}
	if jsonOutput {
		return printJSON(cmd, pending)
	}
	if len(pending) == 0 {
		cmd.Println("No assessments awaiting review.")
		return nil
	}

	for i := range pending {
		p := pending[i]
		r := p.Pending.Record
		cmd.Printf("%s  %s / %s  (submitted %s)\n",
			p.Pending.ID, orDash(r.Title), orDash(r.Process), p.Pending.SubmittedAt.Format("2006-01-02 15:04"))
		printField(cmd, "Activity", p.Activity)
		printField(cmd, "Hazard", p.Hazard)
		printField(cmd, "Control", p.Control)
		printField(cmd, "Injury", p.Injury)
		cmd.Printf("  %-9s %d x %d = %d\n", "S x L:", r.Severity, r.Likelihood, r.RPN)
		cmd.Println()
	}
	return nil
}

func printField(cmd *cobra.Command, label string, f domain.AnnotatedField) {
	if f.Text == "" {
		return
	}
	cmd.Printf("  %-9s %s %s\n", label+":", badge(f.Status), f.Text)
}

func runReviewApproved(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}

	records, err := reviewService.Approved(cmd.Context(), approvedLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No approved assessments yet.")
		return nil
	}

	for _, g := range groupApproved(records) {
		cmd.Printf("%s / %s / %s\n", orDash(g.process), g.activity, orDash(g.hazardType))
		cmd.Printf("  Hazard:   %s\n", orDash(g.hazard))
		cmd.Printf("  Injuries: %s\n", orDash(strings.Join(g.injuries, " && ")))
		cmd.Printf("  Controls: %s\n", orDash(strings.Join(g.controls, " && ")))
		cmd.Println()
	}
	return nil
}

// approvedGroup collects the injuries and controls recorded for the same
// process, activity and hazard across several approved records.
type approvedGroup struct {
	process, activity, hazardType, hazard string
	injuries, controls                    []string
}

func groupApproved(records []domain.KnownData) []*approvedGroup {
	var groups []*approvedGroup
	index := make(map[[3]string]*approvedGroup)

	for i := range records {
		r := records[i]
		key := [3]string{r.Process, r.ActivityName, r.HazardDes}
		g, ok := index[key]
		if !ok {
			g = &approvedGroup{process: r.Process, activity: r.ActivityName, hazardType: r.HazardType, hazard: r.HazardDes}
			index[key] = g
			groups = append(groups, g)
		}
		g.injuries = appendUnique(g.injuries, r.Injury)
		g.controls = appendUnique(g.controls, r.Control)
	}
	return groups
}

func appendUnique(list []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, s) {
			return list
		}
	}
	return append(list, s)
}

func runReviewApprove(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}
	if err := reviewService.Approve(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Approved %s.\n", args[0])
	return nil
}

func runReviewReject(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}
	if err := reviewService.Reject(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Rejected %s.\n", args[0])
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
