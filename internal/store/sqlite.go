// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/theme-engine/internal/logger"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// SQLite is the local Store backend.
type SQLite struct {
	db  *sql.DB
	fts bool
}

// fts5Available reports whether the linked SQLite was compiled with FTS5.
// mattn/go-sqlite3 only includes it with the sqlite_fts5 build tag.
var fts5Available = func(db *sql.DB) bool {
	var used int
	if err := db.QueryRow(`SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&used); err != nil {
		return false
	}
	return used == 1
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path in WAL mode and creates
// the schema if it does not exist.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, fts: fts5Available(db)}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS themes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			content TEXT,
			xml_content TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS theme_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			theme_id TEXT NOT NULL REFERENCES themes(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			theme_id TEXT NOT NULL REFERENCES themes(id),
			post_id TEXT,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			elementor_data TEXT,
			content TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			theme_id TEXT NOT NULL,
			page_id TEXT NOT NULL,
			category TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_category ON sections(category)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_theme_id ON sections(theme_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_category ON pages(category)`,
		`CREATE TABLE IF NOT EXISTS transformation_data (
			id TEXT PRIMARY KEY,
			theme_id TEXT NOT NULL,
			texts TEXT NOT NULL,
			colors TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transformation_data_theme ON transformation_data(theme_id)`,
		`CREATE TABLE IF NOT EXISTS transformations (
			id TEXT PRIMARY KEY,
			theme_id TEXT NOT NULL,
			result_theme_id TEXT,
			style TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ai_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	if !s.fts {
		logger.Default().Debug("sqlite built without FTS5, keyword search uses LIKE")
		return nil
	}

	// FTS5 virtual table over section content with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(content, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER sections_au AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

func (s *SQLite) exec(ctx context.Context, b squirrel.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLite) query(ctx context.Context, b squirrel.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return s.db.QueryContext(ctx, query, args...)
}

func (s *SQLite) CreateTheme(ctx context.Context, t *types.Theme) error {
	_, err := s.exec(ctx, squirrel.Insert("themes").
		Columns("id", "title", "description", "status", "content", "created_at").
		Values(t.ID, t.Title, t.Description, t.Status, t.Content, createdAt(t.CreatedAt)))
	if err != nil {
		return fmt.Errorf("inserting theme %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLite) GetTheme(ctx context.Context, id string) (*types.Theme, error) {
	rows, err := s.query(ctx, squirrel.Select(themeColumns...).From("themes").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("querying theme %s: %w", id, err)
	}
	themes, err := scanThemes(rows)
	if err != nil {
		return nil, err
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("theme %s: %w", id, ErrNotFound)
	}
	return &themes[0], nil
}

func (s *SQLite) ListThemes(ctx context.Context) ([]types.Theme, error) {
	rows, err := s.query(ctx, squirrel.Select(themeColumns...).From("themes").OrderBy("created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	return scanThemes(rows)
}

func scanThemes(rows *sql.Rows) ([]types.Theme, error) {
	defer rows.Close()
	var out []types.Theme
	for rows.Next() {
		var t types.Theme
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning theme: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateThemeContent(ctx context.Context, id, content string) error {
	var current, xml sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT content, xml_content FROM themes WHERE id = ?`, id).Scan(&current, &xml)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("theme %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading theme %s: %w", id, err)
	}
	column := contentColumn(current.String, xml.String)
	if column == "" {
		return nil
	}
	if _, err := s.exec(ctx, squirrel.Update("themes").Set(column, content).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("updating theme %s: %w", id, err)
	}
	return nil
}

// contentColumn picks the first empty XML column, or "" when both are set.
func contentColumn(content, xml string) string {
	switch {
	case content == "":
		return "content"
	case xml == "":
		return "xml_content"
	}
	return ""
}

func (s *SQLite) ThemeContent(ctx context.Context, id string) (string, error) {
	var content, xml sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT content, xml_content FROM themes WHERE id = ?`, id).Scan(&content, &xml)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("theme %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading theme %s: %w", id, err)
	}
	for _, v := range []string{content.String, xml.String} {
		if v != "" {
			return v, nil
		}
	}

	var file string
	err = s.db.QueryRowContext(ctx,
		`SELECT content FROM theme_files WHERE theme_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, id,
	).Scan(&file)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && file == "") {
		return "", fmt.Errorf("theme %s: %w", id, ErrNoContent)
	}
	if err != nil {
		return "", fmt.Errorf("reading theme files for %s: %w", id, err)
	}
	return file, nil
}

func (s *SQLite) AddThemeFile(ctx context.Context, themeID, content string) error {
	_, err := s.exec(ctx, squirrel.Insert("theme_files").
		Columns("theme_id", "content", "created_at").
		Values(themeID, content, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("inserting theme file for %s: %w", themeID, err)
	}
	return nil
}

func (s *SQLite) InsertPages(ctx context.Context, pages []types.Page) error {
	if len(pages) == 0 {
		return nil
	}
	b := squirrel.Insert("pages").Columns("id", "theme_id", "post_id", "title", "category", "elementor_data", "content", "created_at")
	for _, p := range pages {
		b = b.Values(p.ID, p.ThemeID, p.PostID, p.Title, p.Category, p.ElementorData, p.Content, createdAt(p.CreatedAt))
	}
	if _, err := s.exec(ctx, b); err != nil {
		return fmt.Errorf("inserting %d pages: %w", len(pages), err)
	}
	return nil
}

func (s *SQLite) ListPages(ctx context.Context, f PageFilter) ([]types.Page, error) {
	rows, err := s.query(ctx, pagesQuery(f, squirrel.Question))
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()
	var out []types.Page
	for rows.Next() {
		var p types.Page
		if err := rows.Scan(&p.ID, &p.ThemeID, &p.PostID, &p.Title, &p.Category, &p.ElementorData, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) InsertSections(ctx context.Context, sections []types.Section) error {
	if len(sections) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (id, theme_id, page_id, category, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx, sec.ID, sec.ThemeID, sec.PageID, sec.Category, sec.Content, createdAt(sec.CreatedAt)); err != nil {
			return fmt.Errorf("inserting section %s: %w", sec.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) ListSections(ctx context.Context, f SectionFilter) ([]types.Section, error) {
	q := sectionsQuery(f, squirrel.Question)
	switch {
	case f.Query == "":
	case s.fts:
		q = q.Where("rowid IN (SELECT rowid FROM sections_fts WHERE sections_fts MATCH ?)", ftsPhrase(f.Query))
	default:
		q = q.Where(`content LIKE ? ESCAPE '\'`, likePattern(f.Query))
	}
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer rows.Close()
	var out []types.Section
	for rows.Next() {
		var sec types.Section
		if err := rows.Scan(&sec.ID, &sec.ThemeID, &sec.PageID, &sec.Category, &sec.Content, &sec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// ftsPhrase quotes q as a single FTS5 phrase so user text is never parsed
// as query syntax.
func ftsPhrase(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

// likePattern matches q anywhere, with LIKE wildcards in q taken literally.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *SQLite) UpdateSectionCategory(ctx context.Context, id, category string) error {
	res, err := s.exec(ctx, squirrel.Update("sections").Set("category", category).Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("updating section %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("section %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) GetTransformationData(ctx context.Context, themeID string) (*types.TransformationData, error) {
	var (
		d             types.TransformationData
		texts, colors string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, theme_id, texts, colors, created_at FROM transformation_data
		 WHERE theme_id = ? ORDER BY created_at LIMIT 1`, themeID,
	).Scan(&d.ID, &d.ThemeID, &texts, &colors, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transformation data for %s: %w", themeID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading transformation data for %s: %w", themeID, err)
	}
	if err := json.Unmarshal([]byte(texts), &d.Texts); err != nil {
		return nil, fmt.Errorf("decoding texts: %w", err)
	}
	if err := json.Unmarshal([]byte(colors), &d.Colors); err != nil {
		return nil, fmt.Errorf("decoding colors: %w", err)
	}
	return &d, nil
}

func (s *SQLite) SaveTransformationData(ctx context.Context, d *types.TransformationData) error {
	texts, err := json.Marshal(nonNil(d.Texts))
	if err != nil {
		return fmt.Errorf("encoding texts: %w", err)
	}
	colors, err := json.Marshal(nonNil(d.Colors))
	if err != nil {
		return fmt.Errorf("encoding colors: %w", err)
	}
	_, err = s.exec(ctx, squirrel.Insert("transformation_data").
		Columns("id", "theme_id", "texts", "colors", "created_at").
		Values(d.ID, d.ThemeID, string(texts), string(colors), createdAt(d.CreatedAt)))
	if err != nil {
		return fmt.Errorf("inserting transformation data: %w", err)
	}
	return nil
}

func (s *SQLite) SaveTransformation(ctx context.Context, t *types.Transformation) error {
	_, err := s.exec(ctx, squirrel.Insert("transformations").
		Columns("id", "theme_id", "result_theme_id", "style", "status", "created_at").
		Values(t.ID, t.ThemeID, t.ResultThemeID, t.Style, t.Status, createdAt(t.CreatedAt)).
		Suffix("ON CONFLICT(id) DO UPDATE SET result_theme_id=excluded.result_theme_id, status=excluded.status"))
	if err != nil {
		return fmt.Errorf("saving transformation %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLite) GetCached(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ai_cache WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	return v, true, nil
}

func (s *SQLite) PutCached(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_cache (key, value, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, created_at=excluded.created_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

func (s *SQLite) InvalidateCached(ctx context.Context, prefix string) error {
	if _, err := s.exec(ctx, squirrel.Delete("ai_cache").Where(squirrel.Like{"key": prefix + "%"})); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
