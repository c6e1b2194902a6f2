// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials. Keys come from a .env
// file, the process environment and a directory of plain-text files, in
// increasing order of precedence. In the directory each file is one secret:
// the filename is the key name and the trimmed contents are the value.
//
// Supported keys: openai-api-key, anthropic-api-key, unsplash-access-key, supabase-dsn.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// Key names.
const (
	OpenAIAPIKey      = "openai-api-key"
	AnthropicAPIKey   = "anthropic-api-key"
	UnsplashAccessKey = "unsplash-access-key"
	SupabaseDSN       = "supabase-dsn"
)

// envNames maps each key to the environment variables it may be read from,
// first match wins.
var envNames = map[string][]string{
	OpenAIAPIKey:      {"OPENAI_API_KEY"},
	AnthropicAPIKey:   {"ANTHROPIC_API_KEY"},
	UnsplashAccessKey: {"UNSPLASH_ACCESS_KEY"},
	SupabaseDSN:       {"SUPABASE_DSN", "DATABASE_URL"},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Default().Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv reads the known keys from the dotenv file at path, then from the
// process environment. The environment wins. A missing file is not an error.
func LoadEnv(path string) (map[string]string, error) {
	file := map[string]string{}
	if path != "" {
		read, err := godotenv.Read(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		default:
			file = read
		}
	}

	out := map[string]string{}
	for key, names := range envNames {
		for _, name := range names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				out[key] = v
				break
			}
			if v := strings.TrimSpace(file[name]); v != "" {
				out[key] = v
				break
			}
		}
	}
	return out, nil
}

// Resolve merges LoadEnv(envFile) and Load(dir); files in dir win.
func Resolve(dir, envFile string) (map[string]string, error) {
	out, err := LoadEnv(envFile)
	if err != nil {
		return nil, err
	}
	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		out[k] = v
	}
	return out, nil
}

// Apply fills credentials missing from cfg. The AI key is chosen by the
// configured provider.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	ai := &cfg.Transformation.AIConfig
	if ai.APIKey == "" {
		switch ai.Provider {
		case types.ProviderAnthropic:
			ai.APIKey = secrets[AnthropicAPIKey]
		default:
			ai.APIKey = secrets[OpenAIAPIKey]
		}
	}
	if cfg.Images.AccessKey == "" {
		cfg.Images.AccessKey = secrets[UnsplashAccessKey]
	}
	if cfg.Store.DSN == "" {
		cfg.Store.DSN = secrets[SupabaseDSN]
	}
}
