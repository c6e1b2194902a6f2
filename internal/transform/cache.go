// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/theme-engine/internal/logger"
)

// Cache stores AI results by content key. The theme store implements it.
type Cache interface {
	GetCached(ctx context.Context, key string) (string, bool, error)
	PutCached(ctx context.Context, key, value string) error
	InvalidateCached(ctx context.Context, prefix string) error
}

// StylePrefix is the key prefix shared by every cached result for style.
func StylePrefix(style string) string {
	return digest(style)[:16] + ":"
}

// CacheKey is the content address of one AI call: the style prefix, the
// kind of call and a digest over the model and inputs.
func CacheKey(kind, model, style string, inputs []string) string {
	parts := append([]string{model}, inputs...)
	return StylePrefix(style) + kind + ":" + digest(parts...)
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// InvalidateCache drops every cached result for style.
func (t *Transformer) InvalidateCache(ctx context.Context, style string) error {
	if t.Cache == nil {
		return nil
	}
	return t.Cache.InvalidateCached(ctx, StylePrefix(style))
}

// cached decodes the result for (kind, style, inputs) into out, computing
// it with compute on a miss. Concurrent callers with the same key share one
// computation. Cache read and write failures are logged and ignored.
func (t *Transformer) cached(ctx context.Context, kind, style string, inputs []string, out any, compute func() (any, error)) error {
	key := CacheKey(kind, t.Model, style, inputs)
	log := logger.FromContext(ctx)

	v, err, _ := t.group.Do(key, func() (any, error) {
		if t.Cache != nil {
			raw, ok, err := t.Cache.GetCached(ctx, key)
			if err != nil {
				log.Warn("cache read failed", "key", key, "err", err)
			} else if ok {
				return []byte(raw), nil
			}
		}

		res, err := compute()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", kind, err)
		}
		if t.Cache != nil {
			if err := t.Cache.PutCached(ctx, key, string(data)); err != nil {
				log.Warn("cache write failed", "key", key, "err", err)
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return fmt.Errorf("decoding %s result: %w", kind, err)
	}
	return nil
}
