// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package replace

import (
	"context"
	"fmt"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/internal/wxr"
)

// ReplaceFile applies the transformation result at transformPath to the
// export at src and writes the outcome to out, creating directories.
func ReplaceFile(ctx context.Context, src, transformPath, out string) (Stats, error) {
	doc, err := wxr.ReadFile(src)
	if err != nil {
		return Stats{}, err
	}
	result, err := LoadResult(transformPath)
	if err != nil {
		return Stats{}, err
	}
	if len(result.TextTransformations) == 0 && len(result.ColorPalette.OriginalColors) == 0 {
		logger.FromContext(ctx).Warn("no transformations found, copying export unchanged", "path", transformPath)
	}

	stats, err := Apply(ctx, doc, result)
	if err != nil {
		return stats, err
	}
	if err := doc.WriteFile(out); err != nil {
		return stats, fmt.Errorf("writing %s: %w", out, err)
	}
	return stats, nil
}
