package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type scrapeSummary struct {
	RunID          string `json:"runId"`
	BaseURL        string `json:"baseUrl"`
	State          string `json:"state"`
	Products       int    `json:"products"`
	PagesFetched   int    `json:"pagesFetched"`
	UsedFallback   bool   `json:"usedFallback"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	DocumentURI    string `json:"documentUri,omitempty"`
	SummaryURI     string `json:"summaryUri,omitempty"`
	Persisted      bool   `json:"persisted"`
	MessageID      string `json:"messageId,omitempty"`
}

func newScrapeCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs one extraction and exports the catalog",
		Long: `Fetches the base listing page (or --url), extracts and deduplicates
products, writes the catalog document and summary to the configured storage
backend, and optionally persists the products and publishes a run notification.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, err := appInstance.Execute(cmd.Context(), baseURL)
			if err != nil {
				return fmt.Errorf("scrape: %w", err)
			}

			res := report.Result
			summary := scrapeSummary{
				RunID:          report.RunID,
				BaseURL:        res.BaseURL,
				State:          string(res.State),
				Products:       len(res.Products),
				PagesFetched:   res.PagesFetched,
				UsedFallback:   res.UsedFallback,
				FallbackReason: res.FallbackReason,
				Persisted:      report.Persisted,
				MessageID:      report.MessageID,
			}
			if report.Export != nil {
				summary.DocumentURI = report.Export.Document.URI
				summary.SummaryURI = report.Export.Summary.URI
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "listing page to extract (defaults to scraper.base_url)")
	return cmd
}
