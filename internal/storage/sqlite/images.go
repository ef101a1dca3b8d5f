// Package sqlite persists indexed image records in the local store.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"hivelens/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS indexed_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_url TEXT UNIQUE NOT NULL,
		hive_author TEXT,
		hive_permlink TEXT,
		hive_post_url TEXT,
		hive_title TEXT,
		hive_timestamp TEXT,
		hive_tags TEXT,
		ai_analysis_status TEXT DEFAULT 'pending',
		ai_content_type TEXT,
		ai_features TEXT,
		indexed_at TEXT DEFAULT CURRENT_TIMESTAMP,
		last_ai_attempt_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_image_url ON indexed_images (image_url);
	CREATE INDEX IF NOT EXISTS idx_hive_author ON indexed_images (hive_author);
	CREATE INDEX IF NOT EXISTS idx_hive_title ON indexed_images (LOWER(hive_title));
	CREATE INDEX IF NOT EXISTS idx_hive_tags ON indexed_images (LOWER(hive_tags));
	CREATE INDEX IF NOT EXISTS idx_ai_status ON indexed_images (ai_analysis_status);`

// ImageStore writes image records to the sqlite database at path.
type ImageStore struct {
	db   *sqlx.DB
	path string
}

func NewImageStore(db *sqlx.DB, path string) *ImageStore {
	return &ImageStore{db: db, path: path}
}

// EnsureSchema creates the table and indexes if missing. Safe to call on
// every startup.
func (s *ImageStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertBatch inserts records in one multi-row statement, silently skipping
// URLs that already exist. It returns how many rows were actually added;
// the caller derives skips as len(records) minus the return value.
func (s *ImageStore) InsertBatch(ctx context.Context, records []domain.ImageRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT OR IGNORE INTO indexed_images
		(image_url, hive_author, hive_permlink, hive_post_url, hive_title, hive_timestamp, hive_tags, ai_analysis_status)
		VALUES `)

	args := make([]any, 0, len(records)*7)
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, 'pending')")

		tags := []byte("[]")
		if len(rec.Tags) > 0 {
			var err error
			tags, err = json.Marshal(rec.Tags)
			if err != nil {
				return 0, fmt.Errorf("serialize tags for %s: %w", rec.ImageURL, err)
			}
		}

		args = append(args,
			rec.ImageURL,
			rec.Author,
			rec.Permlink,
			rec.PostURL,
			rec.Title,
			rec.Timestamp.UTC().Format(time.RFC3339),
			string(tags),
		)
	}

	result, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}

	added, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(added), nil
}

// CurrentSizeBytes reports the store file size. A missing file reports zero,
// not an error: the store simply has not been written yet.
func (s *ImageStore) CurrentSizeBytes(ctx context.Context) (int64, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat store: %w", err)
	}
	return info.Size(), nil
}

// CountInRange counts records with a post timestamp in [from, to).
func (s *ImageStore) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM indexed_images WHERE hive_timestamp >= ? AND hive_timestamp < ?`,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("count in range: %w", err)
	}
	return count, nil
}

// DistinctDates lists the distinct post dates (YYYY-MM-DD) present in the
// store, newest first.
func (s *ImageStore) DistinctDates(ctx context.Context) ([]string, error) {
	var dates []string
	err := s.db.SelectContext(ctx, &dates,
		`SELECT DISTINCT SUBSTR(hive_timestamp, 1, 10) AS sync_date FROM indexed_images ORDER BY sync_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct dates: %w", err)
	}
	return dates, nil
}
