package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"campus-advisor/internal/app"
	"campus-advisor/internal/indexer"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the data directory once",
	Long: `Loads every document below DATA_DIR, extracts modules and schedule
entries, embeds the general documents and publishes the new index.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	report, err := a.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if ingestJSON {
		return printJSON(cmd, report)
	}
	printReport(cmd, a.Runner().Status().Version, report)
	return nil
}

func printReport(cmd *cobra.Command, version string, r *indexer.Report) {
	cmd.Printf("Index %s\n", version)
	cmd.Printf("  Documents:        %d (%d failed)\n", r.Documents, r.FailedDocuments)
	cmd.Printf("  Modules:          %d\n", r.Modules)
	cmd.Printf("  Schedule entries: %d (%d unmatched)\n", r.ScheduleEntries, r.UnmatchedEntries)
	cmd.Printf("  Chunks:           %d\n", r.Chunks)
	if len(r.Details) > 0 {
		cmd.Println()
		cmd.Println("Issues:")
		for _, issue := range r.Details {
			cmd.Printf("  %s\n", issue)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
