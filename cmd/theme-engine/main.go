// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the theme-engine CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials resolved at startup from .env, the
// environment and .secrets/.
var loadedSecrets map[string]string

// rootCmd is the base command for the theme-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "theme-engine",
	Short: "Restyle WordPress Elementor themes and assemble new sites",
	Long: `theme-engine works on WordPress WXR exports built with Elementor. It
extracts pages, sections, texts and colors, rewrites copy and colors in a
requested style with a generative AI backend, writes the restyled export,
and assembles new one-page and multi-page sites from stored sections.

Each stage is a subcommand: extract, transform, replace, store, generate,
evaluate and images. run chains extract, transform and replace as
background jobs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		asJSON, _ := cmd.Flags().GetBool("log-json")
		cfg := logger.DefaultConfig()
		cfg.Level = logger.Level(level)
		cfg.JSON = asJSON
		logger.Init(cfg)

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		envFile, _ := cmd.Flags().GetString("env-file")
		s, err := secrets.Resolve(secretsDir, envFile)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Default().Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./theme-engine.yaml or ~/.config/theme-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files (one key per file)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with API keys")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("theme-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "theme-engine"))
		}
	}

	viper.SetEnvPrefix("THEME_ENGINE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Default().Info("using config file", "path", viper.ConfigFileUsed())
	}
}

// commandContext is cancelled on SIGINT or SIGTERM and carries the logger.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return logger.ContextWithLogger(ctx, logger.Default()), cancel
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
