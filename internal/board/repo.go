package board

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"opsboard/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// editable column whitelists for partial updates
var categoryColumns = map[string]bool{
	"name":         true,
	"section":      true,
	"icon":         true,
	"color":        true,
	"external_url": true,
	"csv_url":      true,
}

var linkColumns = map[string]bool{
	"title":       true,
	"url":         true,
	"category_id": true,
}

// InsertCategory stores cat and returns the authoritative row with the
// store-assigned id and timestamp.
func (r *Repo) InsertCategory(ctx context.Context, cat models.Category) (*models.Category, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO categories (name, section, icon, color, external_url, csv_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cat.Name, cat.Section, nullString(cat.Icon), nullString(cat.Color),
		nullString(cat.ExternalURL), nullString(cat.CSVURL))
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert category id: %w", err)
	}
	return r.GetCategory(ctx, id)
}

func (r *Repo) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, section, icon, color, external_url, csv_url, created_at
		FROM categories
		WHERE id = ?
	`, id)

	var (
		c           models.Category
		icon        sql.NullString
		color       sql.NullString
		externalURL sql.NullString
		csvURL      sql.NullString
		created     time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Section, &icon, &color, &externalURL, &csvURL, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	c.Icon = icon.String
	c.Color = color.String
	c.ExternalURL = externalURL.String
	c.CSVURL = csvURL.String
	c.CreatedAt = created
	return &c, nil
}

// ListCategories returns every category, optionally filtered by
// section, in insertion order.
func (r *Repo) ListCategories(ctx context.Context, section string) ([]models.Category, error) {
	q := `
		SELECT id, name, section, icon, color, external_url, csv_url, created_at
		FROM categories
	`
	var args []any
	if strings.TrimSpace(section) != "" {
		q += " WHERE section = ?"
		args = append(args, strings.TrimSpace(section))
	}
	q += " ORDER BY id ASC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0, 16)
	for rows.Next() {
		var (
			c           models.Category
			icon        sql.NullString
			color       sql.NullString
			externalURL sql.NullString
			csvURL      sql.NullString
			created     time.Time
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Section, &icon, &color, &externalURL, &csvURL, &created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = icon.String
		c.Color = color.String
		c.ExternalURL = externalURL.String
		c.CSVURL = csvURL.String
		c.CreatedAt = created
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows categories: %w", err)
	}
	return out, nil
}

// UpdateCategory applies a partial update. Unknown fields are ignored;
// an update with no known fields is a no-op returning false.
func (r *Repo) UpdateCategory(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	return r.updatePartial(ctx, "categories", categoryColumns, id, fields)
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, _ := res.RowsAffected()
	// links referencing this category are left in place on purpose
	return n > 0, nil
}

func (r *Repo) InsertLink(ctx context.Context, link models.Link) (*models.Link, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO links (title, url, category_id)
		VALUES (?, ?, ?)
	`, link.Title, link.URL, link.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert link id: %w", err)
	}
	return r.GetLink(ctx, id)
}

func (r *Repo) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, url, category_id, created_at
		FROM links
		WHERE id = ?
	`, id)

	var (
		l       models.Link
		created time.Time
	)
	if err := row.Scan(&l.ID, &l.Title, &l.URL, &l.CategoryID, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	l.CreatedAt = created
	return &l, nil
}

// ListLinks filters by category id, or by the owning category's
// section when categoryID is 0 and section is set.
func (r *Repo) ListLinks(ctx context.Context, categoryID int64, section string) ([]models.Link, error) {
	q := `
		SELECT id, title, url, category_id, created_at
		FROM links
	`
	var args []any
	switch {
	case categoryID > 0:
		q += " WHERE category_id = ?"
		args = append(args, categoryID)
	case strings.TrimSpace(section) != "":
		q += " WHERE category_id IN (SELECT id FROM categories WHERE section = ?)"
		args = append(args, strings.TrimSpace(section))
	}
	q += " ORDER BY id ASC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	out := make([]models.Link, 0, 16)
	for rows.Next() {
		var (
			l       models.Link
			created time.Time
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.CategoryID, &created); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.CreatedAt = created
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows links: %w", err)
	}
	return out, nil
}

func (r *Repo) UpdateLink(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	return r.updatePartial(ctx, "links", linkColumns, id, fields)
}

func (r *Repo) DeleteLink(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) updatePartial(ctx context.Context, table string, allowed map[string]bool, id int64, fields map[string]any) (bool, error) {
	var sets []string
	var args []any
	for col, val := range fields {
		if !allowed[col] {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+table+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
