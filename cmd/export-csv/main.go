package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"opsboard/pkg/database"
)

func main() {
	var (
		categoriesOut = flag.String("categories", "data/categories.csv", "output CSV path for categories")
		linksOut      = flag.String("links", "data/links.csv", "output CSV path for links")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportCategories(ctx, db, *categoriesOut); err != nil {
		log.Fatalf("export categories failed: %v", err)
	}
	if err := exportLinks(ctx, db, *linksOut); err != nil {
		log.Fatalf("export links failed: %v", err)
	}

	log.Printf("✅ exported categories to %s and links to %s", *categoriesOut, *linksOut)
}

func exportCategories(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "section", "icon", "color", "external_url", "csv_url", "created_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, name, section, icon, color, external_url, csv_url, created_at
        FROM categories
        ORDER BY id
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          int64
			name        string
			section     string
			icon        sql.NullString
			color       sql.NullString
			externalURL sql.NullString
			csvURL      sql.NullString
			createdAt   sql.NullTime
		)

		if err := rows.Scan(&id, &name, &section, &icon, &color, &externalURL, &csvURL, &createdAt); err != nil {
			return err
		}

		created := ""
		if createdAt.Valid {
			created = createdAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{
			strconv.FormatInt(id, 10),
			name,
			section,
			icon.String,
			color.String,
			externalURL.String,
			csvURL.String,
			created,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportLinks(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "url", "category_id", "created_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, title, url, category_id, created_at
        FROM links
        ORDER BY id
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id         int64
			title      string
			url        string
			categoryID int64
			createdAt  sql.NullTime
		)

		if err := rows.Scan(&id, &title, &url, &categoryID, &createdAt); err != nil {
			return err
		}

		created := ""
		if createdAt.Valid {
			created = createdAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{
			strconv.FormatInt(id, 10),
			title,
			url,
			strconv.FormatInt(categoryID, 10),
			created,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
