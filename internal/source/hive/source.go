// Package hive fetches candidate posts from the HiveSQL mirror of the Hive
// blockchain.
package hive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"hivelens/internal/domain"
)

const postURLBase = "https://hive.blog"

// One query per sync run: top-level posts in the window whose metadata text
// contains an image marker, newest first. The LIKE filters are a cheap
// pre-filter; the extractor decides what actually counts as an image.
const postsQuery = `
	SELECT
		author,
		created,
		title,
		permlink,
		json_metadata
	FROM Comments
	WHERE
		depth = 0
		AND created >= @from
		AND created < @to
		AND (json_metadata LIKE '%"image":%' OR json_metadata LIKE '%"images":%')
	ORDER BY created DESC`

// Source queries HiveSQL over a pooled SQL Server connection.
type Source struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func New(db *sqlx.DB, logger *slog.Logger) *Source {
	return &Source{
		db:     db,
		logger: logger.With("source", "hivesql"),
	}
}

type postRow struct {
	Author       string         `db:"author"`
	Created      time.Time      `db:"created"`
	Title        sql.NullString `db:"title"`
	Permlink     string         `db:"permlink"`
	JSONMetadata sql.NullString `db:"json_metadata"`
}

// FetchPosts returns the raw posts created in [from, to), ordered by
// creation time descending.
func (s *Source) FetchPosts(ctx context.Context, from, to time.Time) ([]domain.RawPost, error) {
	start := time.Now()

	var rows []postRow
	err := s.db.SelectContext(ctx, &rows, postsQuery,
		sql.Named("from", from),
		sql.Named("to", to),
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	s.logger.Info("fetched posts",
		"count", len(rows),
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"duration", time.Since(start),
	)

	posts := make([]domain.RawPost, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, domain.RawPost{
			Author:       r.Author,
			CreatedAt:    r.Created,
			Title:        r.Title.String,
			Permlink:     r.Permlink,
			JSONMetadata: r.JSONMetadata.String,
			PostURL:      PostURL(r.Author, r.Permlink),
		})
	}

	return posts, nil
}

// PostURL builds the canonical web URL for a post.
func PostURL(author, permlink string) string {
	return fmt.Sprintf("%s/@%s/%s", postURLBase, author, permlink)
}
