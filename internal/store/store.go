// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists themes, pages, sections, transformation data and
// cached AI replies. Two backends implement Store: a local SQLite file and
// a Postgres database (Supabase).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/pdiddy/theme-engine/pkg/types"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrNoContent is returned when a theme has no stored XML.
	ErrNoContent = errors.New("store: theme has no XML content")

	// ErrUnknownDriver is returned by Open for an unsupported driver.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// SectionFilter narrows ListSections. Zero fields are ignored.
type SectionFilter struct {
	ThemeID  string
	PageID   string
	Category string
	// Query is a full-text search over section content.
	Query string
	Limit int
}

// PageFilter narrows ListPages. Zero fields are ignored.
type PageFilter struct {
	ThemeID  string
	Category string
	Limit    int
}

// Store is the persistence surface used by the pipeline.
type Store interface {
	CreateTheme(ctx context.Context, t *types.Theme) error
	GetTheme(ctx context.Context, id string) (*types.Theme, error)
	ListThemes(ctx context.Context) ([]types.Theme, error)
	// UpdateThemeContent stores XML in the first empty content column.
	UpdateThemeContent(ctx context.Context, id, content string) error
	// ThemeContent returns the theme's XML from its content or xml_content
	// column, falling back to the newest theme_files row.
	ThemeContent(ctx context.Context, id string) (string, error)
	AddThemeFile(ctx context.Context, themeID, content string) error

	InsertPages(ctx context.Context, pages []types.Page) error
	ListPages(ctx context.Context, f PageFilter) ([]types.Page, error)

	InsertSections(ctx context.Context, sections []types.Section) error
	ListSections(ctx context.Context, f SectionFilter) ([]types.Section, error)
	UpdateSectionCategory(ctx context.Context, id, category string) error

	GetTransformationData(ctx context.Context, themeID string) (*types.TransformationData, error)
	SaveTransformationData(ctx context.Context, d *types.TransformationData) error
	SaveTransformation(ctx context.Context, t *types.Transformation) error

	GetCached(ctx context.Context, key string) (string, bool, error)
	PutCached(ctx context.Context, key, value string) error
	InvalidateCached(ctx context.Context, prefix string) error

	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	cfg = cfg.WithDefaults()
	switch cfg.Driver {
	case types.DriverSQLite:
		return OpenSQLite(cfg.Path)
	case types.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, cfg.Migrate)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

var (
	themeColumns   = []string{"id", "title", "COALESCE(description, '') AS description", "status", "created_at"}
	pageColumns    = []string{"id", "theme_id", "COALESCE(post_id, '') AS post_id", "title", "category", "COALESCE(elementor_data, '') AS elementor_data", "COALESCE(content, '') AS content", "created_at"}
	sectionColumns = []string{"id", "theme_id", "page_id", "category", "content", "created_at"}
)

// pagesQuery and sectionsQuery are shared by both backends; only the
// placeholder format and the full-text clause differ.
func pagesQuery(f PageFilter, ph squirrel.PlaceholderFormat) squirrel.SelectBuilder {
	q := squirrel.Select(pageColumns...).From("pages").OrderBy("created_at", "id").PlaceholderFormat(ph)
	if f.ThemeID != "" {
		q = q.Where(squirrel.Eq{"theme_id": f.ThemeID})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"category": f.Category})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func sectionsQuery(f SectionFilter, ph squirrel.PlaceholderFormat) squirrel.SelectBuilder {
	q := squirrel.Select(sectionColumns...).From("sections").OrderBy("created_at", "id").PlaceholderFormat(ph)
	if f.ThemeID != "" {
		q = q.Where(squirrel.Eq{"theme_id": f.ThemeID})
	}
	if f.PageID != "" {
		q = q.Where(squirrel.Eq{"page_id": f.PageID})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"category": f.Category})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

// Persist writes a freshly extracted theme with its pages and sections.
// Transformation data is saved only when the theme has none yet.
func Persist(ctx context.Context, s Store, res *types.ExtractionResult) error {
	if err := s.CreateTheme(ctx, &res.Theme); err != nil {
		return err
	}
	if err := s.InsertPages(ctx, res.Pages); err != nil {
		return err
	}
	if err := s.InsertSections(ctx, res.Sections); err != nil {
		return err
	}
	_, err := s.GetTransformationData(ctx, res.Theme.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.SaveTransformationData(ctx, &res.Transformation)
	case err != nil:
		return err
	}
	return nil
}
