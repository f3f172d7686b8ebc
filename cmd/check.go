package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [baseURL]",
	Short: "Query a deployment's /api/config and judge the keys it serves",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := config.DefaultCheckBaseURL
		if len(args) == 1 {
			baseURL = args[0]
		}
		return runCheck(cmd.Context(), cmd.OutOrStdout(), http.DefaultClient, baseURL)
	},
}

// runCheck prints the diagnosis. Failures are reported in the output, the
// returned error is only for writes that failed.
func runCheck(ctx context.Context, out io.Writer, client *http.Client, baseURL string) error {
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/config"
	lines := []string{
		fmt.Sprintf("Testing API endpoint: %s", apiURL),
		strings.Repeat("=", 50),
	}

	status, doc, err := config.Fetch(ctx, client, apiURL)
	switch {
	case err != nil && status == 0:
		lines = append(lines, fmt.Sprintf("Test failed: %v", err))
	case err != nil && status == http.StatusOK:
		lines = append(lines, fmt.Sprintf("Status: %d", status), fmt.Sprintf("Test failed: %v", err))
	case err != nil:
		lines = append(lines, fmt.Sprintf("Status: %d", status), "API endpoint returned an error")
	default:
		pretty, err := formatResponse(doc)
		if err != nil {
			lines = append(lines, fmt.Sprintf("Status: %d", status), fmt.Sprintf("Test failed: %v", err))
			break
		}
		report := config.Inspect(doc)
		lines = append(lines,
			fmt.Sprintf("Status: %d", status),
			"Response: "+pretty,
			"",
			"Analysis:",
			"- Provider: "+report.Provider,
			"- OpenAI Key: "+config.Verdict(report.OpenAIPresent, report.OpenAILengthOK),
			"- Sonar Key: "+config.Verdict(report.SonarPresent, report.SonarLengthOK),
		)
		if report.OpenAIConfigured {
			lines = append(lines, "OpenAI API key appears to be configured correctly")
		} else {
			lines = append(lines, "OpenAI API key is not properly configured")
		}
	}

	if _, err := io.WriteString(out, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("writing report: %w", errors.WithStack(err))
	}
	return nil
}

func formatResponse(v any) (string, error) {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting response: %w", errors.WithStack(err))
	}
	return string(pretty), nil
}
