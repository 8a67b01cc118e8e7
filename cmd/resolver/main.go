// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the resolver CLI. Each subcommand
// reads a request file; resolve prints exactly one recommendation line on
// stdout and keeps every log line on stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/resolution-engine/internal/httputil"
	"github.com/pdiddy/resolution-engine/internal/logging"
	"github.com/pdiddy/resolution-engine/internal/secrets"
	"github.com/pdiddy/resolution-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded by the root command before any subcommand runs.
var (
	logger       zerolog.Logger
	loadedSecret *secrets.Store
)

// rootCmd is the base command for the resolver CLI.
var rootCmd = &cobra.Command{
	Use:   "resolver",
	Short: "Resolve prediction-market questions from declarative request files",
	Long: `resolver evaluates a prediction-market question described by a request
file. It fetches time-bounded evidence from a ranked list of endpoints,
applies the request's predicate, and prints one outcome token:

  p1  OUTCOME_A
  p2  OUTCOME_B
  p3  UNKNOWN_OR_SPLIT
  p4  NOT_YET_RESOLVABLE

Request files may be YAML, JSON, or TOML.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.Setup(os.Stderr, viper.GetString("log_level"))
		logger = l
		if err != nil {
			return err
		}
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Open(viper.GetString("secrets_dir"), viper.GetString("env_file"))
		if err != nil {
			return err
		}
		loadedSecret = s
		if names := s.Names(); len(names) > 0 {
			logger.Debug().Strs("names", names).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./resolver.yaml or ~/.config/resolver/resolver.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("secrets-dir", ".secrets/", "directory of one-file-per-secret credentials")
	pf.String("env-file", ".env", "dotenv file with credentials")

	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
	_ = viper.BindPFlag("env_file", pf.Lookup("env-file"))

	defaults := types.FetchConfig{}.Defaults()
	viper.SetDefault("http.timeout", defaults.Timeout)
	viper.SetDefault("http.user_agent", defaults.UserAgent)
	viper.SetDefault("fetch.max_retries", defaults.MaxRetries)
	viper.SetDefault("fetch.retry_base_delay", httputil.RetryBaseDelay)
	viper.SetDefault("fetch.requests_per_second", defaults.RequestsPerSecond)
	viper.SetDefault("fetch.max_pages", defaults.MaxPages)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("resolver")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "resolver"))
		}
	}

	viper.SetEnvPrefix("RESOLVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "reading config:", err)
		}
	}
}

// engineConfig collects the settings viper resolved from flags, env, and file.
func engineConfig() types.EngineConfig {
	return types.EngineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("http.timeout"),
				UserAgent: viper.GetString("http.user_agent"),
			},
			MaxRetries:        viper.GetInt("fetch.max_retries"),
			RetryBaseDelay:    viper.GetDuration("fetch.retry_base_delay"),
			RequestsPerSecond: viper.GetFloat64("fetch.requests_per_second"),
			MaxPages:          viper.GetInt("fetch.max_pages"),
		}.Defaults(),
		LogLevel:   viper.GetString("log_level"),
		SecretsDir: viper.GetString("secrets_dir"),
		EnvFile:    viper.GetString("env_file"),
	}
}

// parseNow reads the --now override used to replay a resolution.
func parseNow(s string) (func() time.Time, error) {
	if s == "" {
		return time.Now, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q (want RFC 3339): %w", s, err)
	}
	return func() time.Time { return t }, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
