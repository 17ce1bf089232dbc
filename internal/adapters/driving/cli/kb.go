package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/riskmatch/internal/adapters/driven/seed/yamlfile"
	"github.com/custodia-labs/riskmatch/internal/core/domain"
	"github.com/custodia-labs/riskmatch/internal/core/ports/driving"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Maintain the knowledge bases",
	Long: `Inspect and rebuild the five knowledge bases.

Each knowledge base is a corpus of phrases plus an embedding cache that
must stay aligned with it. Use 'kb stats' to check alignment and
'kb reembed' to rebuild caches after editing a corpus by hand.`,
}

var kbReembedCmd = &cobra.Command{
	Use:   "reembed [domain|all]",
	Short: "Rebuild embedding caches from their corpora",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKBReembed,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show phrase and embedding counts",
	Args:  cobra.NoArgs,
	RunE:  runKBStats,
}

var kbAppendCmd = &cobra.Command{
	Use:   "append <domain> <phrase>",
	Short: "Add a phrase to a knowledge base",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runKBAppend,
}

var kbWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild knowledge bases when their corpus files change",
	Long: `Watches the corpus directory and rebuilds a knowledge base whenever its
corpus file is edited. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runKBWatch,
}

var kbImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import approved assessments from a seed file",
	Long: `Stores every assessment in a YAML seed file as approved and learns its
phrases. Each knowledge base is rebuilt once at the end. Nothing is stored
if any record is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runKBImport,
}

var kbExportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Export approved assessments to a seed file",
	Long:  `Writes every approved assessment, oldest first, to a YAML seed file. Use - for stdout.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runKBExport,
}

func init() {
	kbCmd.AddCommand(kbReembedCmd)
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbAppendCmd)
	kbCmd.AddCommand(kbWatchCmd)
	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbExportCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBReembed(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errNotConfigured("knowledge")
	}

	domains := domain.AllKnowledgeDomains()
	if len(args) == 1 && !strings.EqualFold(args[0], "all") {
		d, err := domain.ParseKnowledgeDomain(args[0])
		if err != nil {
			return err
		}
		domains = []domain.KnowledgeDomain{d}
	}

	for _, d := range domains {
		cmd.Printf("Re-embedding %s... ", d)
		if err := knowledgeService.Reembed(cmd.Context(), d); err != nil {
			cmd.Println(errText("FAILED"))
			return fmt.Errorf("reembed %s: %w", d, err)
		}
		cmd.Println("OK")
	}
	return nil
}

func runKBStats(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errNotConfigured("knowledge")
	}

	stats, err := knowledgeService.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, stats)
	}

	cmd.Printf("%-15s %8s %11s  %s\n", "DOMAIN", "PHRASES", "EMBEDDINGS", "STATUS")
	stale := false
	for _, s := range stats {
		status := oldBadge("in sync")
		switch {
		case s.Phrases == 0 && !s.CacheExists:
			status = dimText("empty")
		case s.ModelChanged:
			status = newBadge("stale (model " + s.Model + ")")
			stale = true
		case !s.InSync():
			status = newBadge("stale")
			stale = true
		}
		cmd.Printf("%-15s %8d %11d  %s\n", s.Domain, s.Phrases, s.Embeddings, status)
	}
	if stale {
		cmd.Println()
		cmd.Println("Run 'riskmatch kb reembed' to rebuild stale caches.")
	}
	return nil
}

func runKBAppend(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errNotConfigured("knowledge")
	}
	d, err := domain.ParseKnowledgeDomain(args[0])
	if err != nil {
		return err
	}
	phrase := strings.Join(args[1:], " ")

	if err := knowledgeService.Append(cmd.Context(), d, phrase); err != nil {
		return fmt.Errorf("append to %s: %w", d, err)
	}
	cmd.Printf("Added %q to %s.\n", strings.TrimSpace(phrase), d)
	return nil
}

func runKBWatch(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errNotConfigured("knowledge")
	}

	cmd.Println("Watching corpus files. Press Ctrl+C to stop.")
	return knowledgeService.Watch(cmd.Context(), func(e driving.RebuildEvent) {
		if e.Err != nil {
			cmd.Printf("%s rebuild %s: %v\n", errText("✗"), e.Domain, e.Err)
			return
		}
		cmd.Printf("%s rebuilt %s (%d phrases, %s)\n", oldBadge("✓"), e.Domain, e.Phrases, e.Duration.Round(time.Millisecond))
	})
}

func runKBImport(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}

	records, err := yamlfile.ReadFile(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		cmd.Println("Seed file has no records.")
		return nil
	}

	n, err := reviewService.Import(cmd.Context(), records)
	if err != nil {
		if n > 0 {
			cmd.Printf("Stored %d of %d records before failing.\n", n, len(records))
		}
		return err
	}
	cmd.Printf("Imported %d records.\n", n)
	return nil
}

func runKBExport(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errNotConfigured("review")
	}

	records, err := reviewService.Export(cmd.Context())
	if err != nil {
		return err
	}

	if args[0] == "-" {
		return yamlfile.Write(cmd.OutOrStdout(), records)
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := yamlfile.WriteFile(args[0], records); err != nil {
		return err
	}
	cmd.Printf("Exported %d records to %s.\n", len(records), args[0])
	return nil
}
