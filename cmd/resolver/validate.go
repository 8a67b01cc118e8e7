package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resolution-engine/internal/request"
)

var validateCmd = &cobra.Command{
	Use:   "validate <request-file>...",
	Short: "Check request files without fetching",
	Long: `Validate parses each request file and checks its provider, endpoint
templates, time specification, predicate, and outcome tokens. Nothing is
fetched. All files are checked; the command fails if any is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		if _, err := request.Load(path); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "invalid %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", path)
	}
	if failed > 0 {
		return configError{fmt.Errorf("%d of %d request file(s) invalid", failed, len(args))}
	}
	return nil
}
