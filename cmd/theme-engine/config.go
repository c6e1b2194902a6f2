// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/theme-engine/internal/images"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/secrets"
	"github.com/pdiddy/theme-engine/internal/store"
	"github.com/pdiddy/theme-engine/internal/transform"
	"github.com/pdiddy/theme-engine/pkg/types"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// bindFlag binds a command flag to a config key so that an explicit flag
// overrides the config file and THEME_ENGINE_* environment variables.
func bindFlag(cmd *cobra.Command, flag, key string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// storeFlags adds the store selection flags shared by several commands.
func storeFlags(cmd *cobra.Command) {
	cmd.Flags().String("store-driver", "", "store backend: sqlite (default) or postgres")
	cmd.Flags().String("db", "", "SQLite database path (default processing/index/themes.db)")
	cmd.Flags().Bool("migrate", false, "apply schema migrations on open (postgres)")
}

// aiFlags adds the AI backend flags shared by several commands.
func aiFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "AI provider: openai (default) or anthropic")
	cmd.Flags().String("model", "", "AI model identifier")
}

// loadConfig assembles the pipeline configuration from the config file,
// environment, the flags bound on cmd and the loaded secrets.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	for flag, key := range map[string]string{
		"store-driver": "store.driver",
		"db":           "store.path",
		"migrate":      "store.migrate",
		"provider":     "transformation.provider",
		"model":        "transformation.model",
	} {
		if cmd.Flags().Lookup(flag) != nil {
			bindFlag(cmd, flag, key)
		}
	}

	var cfg types.PipelineConfig
	raw, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return cfg, fmt.Errorf("encoding settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding settings: %w", err)
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

func openStore(ctx context.Context, cfg types.PipelineConfig) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// newClient builds the AI backend. With optional set, a missing key yields
// a nil client and the caller falls back to non-AI behavior.
func newClient(ctx context.Context, cfg types.PipelineConfig, optional bool) (llm.Client, error) {
	client, err := llm.New(cfg.Transformation.AIConfig)
	if errors.Is(err, llm.ErrNoAPIKey) && optional {
		logger.FromContext(ctx).Warn("no AI API key configured, using fallbacks")
		return nil, nil
	}
	return client, err
}

func newTransformer(ctx context.Context, cfg types.PipelineConfig, cache transform.Cache) (*transform.Transformer, error) {
	client, err := newClient(ctx, cfg, false)
	if err != nil {
		return nil, err
	}
	return transform.New(client, cache, cfg.Transformation), nil
}

// newImageReplacer returns nil when no Unsplash key is configured.
func newImageReplacer(ctx context.Context, cfg types.PipelineConfig, client llm.Client) *images.Replacer {
	photos, err := images.NewUnsplash(cfg.Images)
	if err != nil {
		logger.FromContext(ctx).Debug("image replacement disabled", "err", err)
		return nil
	}
	return &images.Replacer{Client: client, Photos: photos}
}
