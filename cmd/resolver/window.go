package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resolution-engine/internal/request"
	"github.com/pdiddy/resolution-engine/internal/timewindow"
	"github.com/pdiddy/resolution-engine/pkg/types"
)

var windowCmd = &cobra.Command{
	Use:   "window [request-file]",
	Short: "Print the UTC evidence window of a local time specification",
	Long: `Window converts a local wall-clock time specification into the UTC
millisecond spans the fetcher would request. Give a request file, or use
--tz with --at, --from/--to, or two --point flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWindow,
}

func init() {
	windowCmd.Flags().String("tz", "", "IANA timezone, e.g. US/Eastern")
	windowCmd.Flags().String("at", "", "single local time (YYYY-MM-DD HH:MM[:SS])")
	windowCmd.Flags().String("from", "", "scan range start")
	windowCmd.Flags().String("to", "", "scan range end")
	windowCmd.Flags().StringSlice("point", nil, "comparison time; give twice")
	windowCmd.Flags().Int64("width-ms", 0, "fixed window width (default 60000)")

	rootCmd.AddCommand(windowCmd)
}

func runWindow(cmd *cobra.Command, args []string) error {
	var spec types.TimeSpec
	if len(args) == 1 {
		req, err := request.Load(args[0])
		if err != nil {
			return wrapConfig(err)
		}
		spec = req.Time
	} else {
		spec.Timezone, _ = cmd.Flags().GetString("tz")
		spec.At, _ = cmd.Flags().GetString("at")
		spec.From, _ = cmd.Flags().GetString("from")
		spec.To, _ = cmd.Flags().GetString("to")
		spec.Points, _ = cmd.Flags().GetStringSlice("point")
		spec.WidthMS, _ = cmd.Flags().GetInt64("width-ms")
	}

	w, err := timewindow.ResolveSpec(spec)
	if err != nil {
		return configError{err}
	}
	out := cmd.OutOrStdout()
	for _, s := range w.Segments {
		fmt.Fprintf(out, "%d %d  %s .. %s\n", s.StartMS, s.EndMS,
			time.UnixMilli(s.StartMS).UTC().Format(time.RFC3339),
			time.UnixMilli(s.EndMS).UTC().Format(time.RFC3339))
	}
	return nil
}
