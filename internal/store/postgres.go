// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// DBInterface is the subset of pgxpool.Pool the Postgres backend uses.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Postgres is the Supabase Store backend.
type Postgres struct {
	db DBInterface
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool.
func NewPostgres(db DBInterface) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects to dsn, optionally applying the embedded
// migrations first.
func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	if migrate {
		if err := ApplyMigrations(ctx, dsn); err != nil {
			return nil, err
		}
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	logger.FromContext(ctx).Debug("postgres store opened", "max_conns", pool.Config().MaxConns)
	return &Postgres{db: pool}, nil
}

// Close shuts down the connection pool.
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

func (p *Postgres) exec(ctx context.Context, b squirrel.Sqlizer) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("building query: %w", err)
	}
	return p.db.Exec(ctx, query, args...)
}

func (p *Postgres) selectAll(ctx context.Context, dst any, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return pgxscan.Select(ctx, p.db, dst, query, args...)
}

func (p *Postgres) getOne(ctx context.Context, dst any, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	return pgxscan.Get(ctx, p.db, dst, query, args...)
}

type themeRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r themeRow) theme() types.Theme {
	return types.Theme{ID: r.ID, Title: r.Title, Description: r.Description, Status: r.Status, CreatedAt: r.CreatedAt}
}

type pageRow struct {
	ID            string    `db:"id"`
	ThemeID       string    `db:"theme_id"`
	PostID        string    `db:"post_id"`
	Title         string    `db:"title"`
	Category      string    `db:"category"`
	ElementorData string    `db:"elementor_data"`
	Content       string    `db:"content"`
	CreatedAt     time.Time `db:"created_at"`
}

type sectionRow struct {
	ID        string    `db:"id"`
	ThemeID   string    `db:"theme_id"`
	PageID    string    `db:"page_id"`
	Category  string    `db:"category"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

type transformationDataRow struct {
	ID        string    `db:"id"`
	ThemeID   string    `db:"theme_id"`
	Texts     []string  `db:"texts"`
	Colors    []string  `db:"colors"`
	CreatedAt time.Time `db:"created_at"`
}

func (p *Postgres) CreateTheme(ctx context.Context, t *types.Theme) error {
	_, err := p.exec(ctx, squirrel.Insert("themes").
		Columns("id", "title", "description", "status", "content", "created_at").
		Values(t.ID, t.Title, t.Description, t.Status, t.Content, createdAt(t.CreatedAt)).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("inserting theme %s: %w", t.ID, err)
	}
	return nil
}

func (p *Postgres) GetTheme(ctx context.Context, id string) (*types.Theme, error) {
	var row themeRow
	err := p.getOne(ctx, &row, squirrel.Select(themeColumns...).From("themes").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("theme %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning theme %s: %w", id, err)
	}
	t := row.theme()
	return &t, nil
}

func (p *Postgres) ListThemes(ctx context.Context) ([]types.Theme, error) {
	var rows []themeRow
	err := p.selectAll(ctx, &rows, squirrel.Select(themeColumns...).From("themes").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	out := make([]types.Theme, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.theme())
	}
	return out, nil
}

type themeContentRow struct {
	Content    string `db:"content"`
	XMLContent string `db:"xml_content"`
}

func (p *Postgres) themeContentRow(ctx context.Context, id string) (themeContentRow, error) {
	var row themeContentRow
	err := p.getOne(ctx, &row, squirrel.Select("COALESCE(content, '') AS content", "COALESCE(xml_content, '') AS xml_content").
		From("themes").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		if pgxscan.NotFound(err) {
			return row, fmt.Errorf("theme %s: %w", id, ErrNotFound)
		}
		return row, fmt.Errorf("reading theme %s: %w", id, err)
	}
	return row, nil
}

func (p *Postgres) UpdateThemeContent(ctx context.Context, id, content string) error {
	row, err := p.themeContentRow(ctx, id)
	if err != nil {
		return err
	}
	column := contentColumn(row.Content, row.XMLContent)
	if column == "" {
		return nil
	}
	_, err = p.exec(ctx, squirrel.Update("themes").Set(column, content).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("updating theme %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) ThemeContent(ctx context.Context, id string) (string, error) {
	row, err := p.themeContentRow(ctx, id)
	if err != nil {
		return "", err
	}
	for _, v := range []string{row.Content, row.XMLContent} {
		if v != "" {
			return v, nil
		}
	}

	var file string
	err = p.getOne(ctx, &file, squirrel.Select("content").From("theme_files").
		Where(squirrel.Eq{"theme_id": id}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		if pgxscan.NotFound(err) {
			return "", fmt.Errorf("theme %s: %w", id, ErrNoContent)
		}
		return "", fmt.Errorf("reading theme files for %s: %w", id, err)
	}
	if file == "" {
		return "", fmt.Errorf("theme %s: %w", id, ErrNoContent)
	}
	return file, nil
}

func (p *Postgres) AddThemeFile(ctx context.Context, themeID, content string) error {
	_, err := p.exec(ctx, squirrel.Insert("theme_files").
		Columns("theme_id", "content", "created_at").
		Values(themeID, content, time.Now().UTC()).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("inserting theme file for %s: %w", themeID, err)
	}
	return nil
}

func (p *Postgres) InsertPages(ctx context.Context, pages []types.Page) error {
	if len(pages) == 0 {
		return nil
	}
	b := squirrel.Insert("pages").
		Columns("id", "theme_id", "post_id", "title", "category", "elementor_data", "content", "created_at").
		PlaceholderFormat(squirrel.Dollar)
	for _, pg := range pages {
		b = b.Values(pg.ID, pg.ThemeID, pg.PostID, pg.Title, pg.Category, pg.ElementorData, pg.Content, createdAt(pg.CreatedAt))
	}
	if _, err := p.exec(ctx, b); err != nil {
		return fmt.Errorf("inserting %d pages: %w", len(pages), err)
	}
	return nil
}

func (p *Postgres) ListPages(ctx context.Context, f PageFilter) ([]types.Page, error) {
	var rows []pageRow
	if err := p.selectAll(ctx, &rows, pagesQuery(f, squirrel.Dollar)); err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	out := make([]types.Page, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Page(r))
	}
	return out, nil
}

func (p *Postgres) InsertSections(ctx context.Context, sections []types.Section) error {
	if len(sections) == 0 {
		return nil
	}
	b := squirrel.Insert("sections").
		Columns("id", "theme_id", "page_id", "category", "content", "created_at").
		PlaceholderFormat(squirrel.Dollar)
	for _, s := range sections {
		b = b.Values(s.ID, s.ThemeID, s.PageID, s.Category, s.Content, createdAt(s.CreatedAt))
	}
	if _, err := p.exec(ctx, b); err != nil {
		return fmt.Errorf("inserting %d sections: %w", len(sections), err)
	}
	return nil
}

func (p *Postgres) ListSections(ctx context.Context, f SectionFilter) ([]types.Section, error) {
	q := sectionsQuery(f, squirrel.Dollar)
	if f.Query != "" {
		q = q.Where(squirrel.ILike{"content": "%" + f.Query + "%"})
	}
	var rows []sectionRow
	if err := p.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	out := make([]types.Section, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Section(r))
	}
	return out, nil
}

func (p *Postgres) UpdateSectionCategory(ctx context.Context, id, category string) error {
	tag, err := p.exec(ctx, squirrel.Update("sections").
		Set("category", category).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("updating section %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) GetTransformationData(ctx context.Context, themeID string) (*types.TransformationData, error) {
	var row transformationDataRow
	err := p.getOne(ctx, &row, squirrel.Select("id", "theme_id", "texts", "colors", "created_at").
		From("transformation_data").
		Where(squirrel.Eq{"theme_id": themeID}).
		OrderBy("created_at").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("transformation data for %s: %w", themeID, ErrNotFound)
		}
		return nil, fmt.Errorf("reading transformation data for %s: %w", themeID, err)
	}
	d := types.TransformationData(row)
	return &d, nil
}

func (p *Postgres) SaveTransformationData(ctx context.Context, d *types.TransformationData) error {
	_, err := p.exec(ctx, squirrel.Insert("transformation_data").
		Columns("id", "theme_id", "texts", "colors", "created_at").
		Values(d.ID, d.ThemeID, nonNil(d.Texts), nonNil(d.Colors), createdAt(d.CreatedAt)).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("inserting transformation data: %w", err)
	}
	return nil
}

func (p *Postgres) SaveTransformation(ctx context.Context, t *types.Transformation) error {
	_, err := p.exec(ctx, squirrel.Insert("transformations").
		Columns("id", "theme_id", "result_theme_id", "style", "status", "created_at").
		Values(t.ID, t.ThemeID, t.ResultThemeID, t.Style, t.Status, createdAt(t.CreatedAt)).
		Suffix("ON CONFLICT (id) DO UPDATE SET result_theme_id = EXCLUDED.result_theme_id, status = EXCLUDED.status").
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("saving transformation %s: %w", t.ID, err)
	}
	return nil
}

func (p *Postgres) GetCached(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.getOne(ctx, &v, squirrel.Select("value").From("ai_cache").
		Where(squirrel.Eq{"key": key}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		if pgxscan.NotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	return v, true, nil
}

func (p *Postgres) PutCached(ctx context.Context, key, value string) error {
	_, err := p.exec(ctx, squirrel.Insert("ai_cache").
		Columns("key", "value", "created_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at").
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

func (p *Postgres) InvalidateCached(ctx context.Context, prefix string) error {
	_, err := p.exec(ctx, squirrel.Delete("ai_cache").
		Where(squirrel.Like{"key": prefix + "%"}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}
