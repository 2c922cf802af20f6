// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the advisor-search CLI.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/advisor-search/internal/config"
	"github.com/pdiddy/advisor-search/internal/logging"
	"github.com/pdiddy/advisor-search/internal/secrets"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is assembled once per invocation before any subcommand runs.
	cfg types.Config
	log *logrus.Logger
)

// rootCmd is the base command for the advisor-search CLI.
var rootCmd = &cobra.Command{
	Use:   "advisor-search",
	Short: "Find professors whose research matches your keywords",
	Long: `advisor-search asks a hosted language model for a ranked list of professors
matching up to five research keywords, filtered by university ranking and
department. Results are printed as ranked cards, a table, or JSON, and can be
saved to a file or recorded in a local history database.

The same search is available over HTTP with "advisor-search serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		boot := logging.New(viper.GetString("log_level"), logging.FormatText)

		loaded := config.LoadEnvFiles(boot)
		if len(loaded) > 0 {
			boot.WithField("files", loaded).Debug("loaded env files")
		}

		sec, err := secrets.Load(secrets.DefaultDir, boot)
		if err != nil {
			return err
		}
		if len(sec) > 0 {
			boot.WithField("secrets", sec.Names()).Debug("loaded secrets")
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		v := viper.GetViper()
		config.Setup(v, cfgFile)
		used, err := config.ReadFile(v)
		if err != nil {
			return err
		}

		cfg = config.Build(v, sec)
		log = logging.New(cfg.LogLevel, logging.FormatText)
		if used != "" {
			log.WithField("file", used).Debug("using config file")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./advisor-search.yaml or ~/.config/advisor-search/advisor-search.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("provider", "", "generation API: gemini or anthropic")
	rootCmd.PersistentFlags().String("model", "", "model identifier")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai.model", rootCmd.PersistentFlags().Lookup("model"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
