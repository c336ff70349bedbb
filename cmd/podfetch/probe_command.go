package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"podfetch/internal/catalog"
	"podfetch/internal/feed"
	"podfetch/internal/subrule"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var ruleFlag string
	var timeoutFlag int

	cmd := &cobra.Command{
		Use:   "probe <feed-url>",
		Short: "Probe a feed's download links for their final URLs",
		Long: "Fetches a feed and issues a request per enclosure, printing the URL the\n" +
			"feed advertises and the URL it ultimately resolves to. With --rule, also\n" +
			"prints the filename the rule would produce for each enclosure URL.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rule *subrule.Rule
			if ruleFlag != "" {
				parsed, err := subrule.Parse(ruleFlag)
				if err != nil {
					return err
				}
				rule = parsed
			}

			timeout := time.Duration(timeoutFlag) * time.Second
			fetcher := feed.NewFetcher(timeout)
			entries, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: timeout}
			for _, entry := range entries {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				cmd.Println(entry.SourceURL)
				final, status, probeErr := probeURL(cmd, client, entry.SourceURL)
				if probeErr != nil {
					cmd.Printf("  error: %v\n", probeErr)
				} else {
					cmd.Printf("  -> %s (%s)\n", final, status)
				}
				if rule != nil {
					cmd.Printf("  name: %s\n", catalog.ResolveFilename(rule, entry.SourceURL))
				}
				cmd.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&ruleFlag, "rule", "r", "", "Substitution rule to test against each enclosure URL")
	cmd.Flags().IntVarP(&timeoutFlag, "timeout", "t", 5, "Per-request timeout in seconds")
	return cmd
}

func probeURL(cmd *cobra.Command, client *http.Client, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "podfetch")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Request.URL.String(), resp.Status, nil
}
