package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zestclient/zest/packages/reqfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check request files without sending anything",
	Long: `Validate request files: JSON documents are checked against the
request schema, then every file is parsed and lowered the same way
send would, including multipart file resolution.`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	failures := 0
	for _, path := range args {
		if err := validateFile(path); err != nil {
			failures++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d files invalid", failures, len(args))
	}
	return nil
}

func validateFile(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := reqfile.ValidateJSON(data); err != nil {
			return err
		}
	}
	_, err := reqfile.Load(path)
	return err
}
