package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resolution-engine/internal/request"
	"github.com/pdiddy/resolution-engine/internal/resolve"
)

// Exit codes. Every outcome token, p3 included, exits 0.
const (
	exitFailure     = 1
	exitConfigError = 2
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <request-file>",
	Short: "Resolve one question and print its recommendation",
	Long: `Resolve loads a request file, fetches its evidence, evaluates its
predicate, and prints one line to stdout:

  recommendation: <token>

Fetch failures and ambiguous evidence resolve to p3. An invalid request
(bad timezone, malformed predicate, unknown provider) is reported on
stderr with a non-zero exit code and no recommendation.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("now", "", "evaluate as of this RFC 3339 time instead of the wall clock")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	nowFlag, _ := cmd.Flags().GetString("now")
	now, err := parseNow(nowFlag)
	if err != nil {
		return configError{err}
	}

	req, err := request.Load(args[0])
	if err != nil {
		return wrapConfig(err)
	}

	cfg := engineConfig()
	engine := resolve.New(cfg.Fetch,
		resolve.WithClock(now),
		resolve.WithLogger(logger),
		resolve.WithSecrets(loadedSecret),
	)

	out, err := engine.Resolve(cmd.Context(), req)
	if err != nil {
		return wrapConfig(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recommendation: %s\n", out)
	return nil
}

// configError marks an error as a configuration error for the exit code.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func wrapConfig(err error) error {
	if resolve.IsConfigError(err) {
		return configError{err}
	}
	return err
}

func exitCode(err error) int {
	var ce configError
	if errors.As(err, &ce) || resolve.IsConfigError(err) {
		return exitConfigError
	}
	return exitFailure
}
