// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// unsplashBaseURL is the Unsplash API endpoint. Package-level var for test substitution.
var unsplashBaseURL = "https://api.unsplash.com"

const searchPerPage = 5

var (
	// ErrNoAccessKey is returned when Unsplash is built without an access key.
	ErrNoAccessKey = errors.New("images: Unsplash access key is not configured")

	// ErrNoResults is returned when a search finds no photo.
	ErrNoResults = errors.New("images: no photos found")
)

// Unsplash searches the Unsplash photo library.
type Unsplash struct {
	client *resty.Client
}

// NewUnsplash builds a client authenticated with cfg.AccessKey.
func NewUnsplash(cfg types.ImageConfig) (*Unsplash, error) {
	if cfg.AccessKey == "" {
		return nil, ErrNoAccessKey
	}
	base := cfg.BaseURL
	if base == "" {
		base = unsplashBaseURL
	}
	cfg = cfg.WithDefaults()
	client := httputil.NewClient(cfg.HTTPConfig, base).
		SetHeader("Authorization", "Client-ID "+cfg.AccessKey).
		SetHeader("Accept-Version", "v1")
	return &Unsplash{client: client}, nil
}

// Search returns the regular-size URL of the first photo matching keywords.
func (u *Unsplash) Search(ctx context.Context, keywords string) (string, error) {
	return u.SearchOriented(ctx, keywords, "")
}

// SearchOriented is Search restricted to an orientation (landscape,
// portrait or squarish). An empty orientation is not sent.
func (u *Unsplash) SearchOriented(ctx context.Context, keywords, orientation string) (string, error) {
	params := map[string]string{
		"query":    keywords,
		"per_page": strconv.Itoa(searchPerPage),
	}
	if orientation != "" {
		params["orientation"] = orientation
	}

	resp, err := httputil.Do(ctx, 0, func(ctx context.Context) (*resty.Response, error) {
		return u.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get("/search/photos")
	})
	if err != nil {
		return "", fmt.Errorf("searching Unsplash for %q: %w", keywords, err)
	}

	url := gjson.GetBytes(resp.Body(), "results.0.urls.regular").String()
	if url == "" {
		return "", fmt.Errorf("%q: %w", keywords, ErrNoResults)
	}
	return url, nil
}
