package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var prefixesCmd = &cobra.Command{
	Use:   "prefixes",
	Short: "List S3 key-prefixes for an S3 upload",
	Long: `Lists the key-prefixes directly below the key_prefix of an S3 credentials
file, one per line. The output can be passed to 'dsbulk upload -t S3 -l'.`,
	Args: cobra.NoArgs,
	RunE: runPrefixes,
}

func init() {
	prefixesCmd.Flags().String("s3-credentials", "", "JSON file with S3 coordinates (required)")
	prefixesCmd.Flags().String("delimiter", "/", "key-prefix delimiter")
	prefixesCmd.Flags().StringP("output", "o", "", "write prefixes to a file instead of stdout")
	_ = prefixesCmd.MarkFlagRequired("s3-credentials")

	rootCmd.AddCommand(prefixesCmd)
}

func runPrefixes(cmd *cobra.Command, _ []string) error {
	if prefixService == nil || loadCoordinates == nil {
		return errors.New("prefix service not configured")
	}

	credsPath, _ := cmd.Flags().GetString("s3-credentials")
	delimiter, _ := cmd.Flags().GetString("delimiter")
	output, _ := cmd.Flags().GetString("output")

	coords, err := loadCoordinates(credsPath)
	if err != nil {
		return err
	}

	items, err := prefixService.Discover(cmd.Context(), *coords, delimiter)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.String())
		b.WriteByte('\n')
	}

	if output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), b.String())
		return err
	}

	if err := os.WriteFile(output, []byte(b.String()), 0o644); err != nil { //nolint:gosec // Input list, not secret
		return fmt.Errorf("writing %s: %w", output, err)
	}
	cmd.Printf("Wrote %d prefixes to %s\n", len(items), output)
	return nil
}
