package cmd

import (
	"fmt"
	"strings"

	"github.com/EPecherkin/ai-rm/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Write the config document into BUNDLE_BUCKET",
	Long: `bundle stores the config document (keys from the environment or their
placeholders) as config.json in BUNDLE_BUCKET. Sessions read it when the
config endpoint cannot be reached.

BUNDLE_BUCKET defaults to a directory under the user cache dir. A mem://
bucket is gone when this command exits, so it is refused here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.HasPrefix(config.BundleBucket(), "mem://") {
			return errors.Errorf("BUNDLE_BUCKET %q does not outlive the process", config.BundleBucket())
		}
		bucket, err := config.OpenBucket(cmd.Context(), config.BundleBucket())
		if err != nil {
			return err
		}
		defer bucket.Close()

		doc := config.Expose()
		if err := config.WriteBundle(cmd.Context(), bucket, doc); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config bundle written to %s/%s\n", config.BundleBucket(), config.BundleKey)
		fmt.Fprintf(out, "OpenAI key length: %d\n", len(doc.OpenAI))
		fmt.Fprintf(out, "Sonar key length: %d\n", len(doc.Sonar))
		return nil
	},
}
