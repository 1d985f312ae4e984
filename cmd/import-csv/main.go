package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"opsboard/pkg/database"
)

func main() {
	var (
		categoriesIn = flag.String("categories", "data/categories.csv", "input CSV path for categories")
		linksIn      = flag.String("links", "data/links.csv", "input CSV path for links")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := importCategories(ctx, db, *categoriesIn); err != nil {
		log.Fatalf("import categories failed: %v", err)
	}
	if err := importLinks(ctx, db, *linksIn); err != nil {
		log.Fatalf("import links failed: %v", err)
	}

	log.Printf("✅ imported categories from %s and links from %s", *categoriesIn, *linksIn)
}

func importCategories(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO categories (id, name, section, icon, color, external_url, csv_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  section = excluded.section,
		  icon = excluded.icon,
		  color = excluded.color,
		  external_url = excluded.external_url,
		  csv_url = excluded.csv_url
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		name := valueAt(header, row, "name")
		section := valueAt(header, row, "section")
		if name == "" || section == "" {
			continue
		}

		id, err := parseNullInt(valueAt(header, row, "id"))
		if err != nil {
			return fmt.Errorf("parse id for %s: %w", name, err)
		}

		if _, err := stmt.ExecContext(
			ctx,
			id,
			name,
			section,
			nullString(valueAt(header, row, "icon")),
			nullString(valueAt(header, row, "color")),
			nullString(valueAt(header, row, "external_url")),
			nullString(valueAt(header, row, "csv_url")),
		); err != nil {
			return err
		}
	}

	return nil
}

func importLinks(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO links (id, title, url, category_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  url = excluded.url,
		  category_id = excluded.category_id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "title")
		url := valueAt(header, row, "url")
		if title == "" || url == "" {
			continue
		}

		id, err := parseNullInt(valueAt(header, row, "id"))
		if err != nil {
			return fmt.Errorf("parse id for %s: %w", title, err)
		}

		categoryID, err := strconv.ParseInt(valueAt(header, row, "category_id"), 10, 64)
		if err != nil {
			return fmt.Errorf("parse category_id for %s: %w", title, err)
		}

		if _, err := stmt.ExecContext(ctx, id, title, url, categoryID); err != nil {
			return err
		}
	}

	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNullInt(raw string) (sql.NullInt64, error) {
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
