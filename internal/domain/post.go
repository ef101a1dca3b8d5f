package domain

import "time"

// RawPost is a top-level post row fetched from the external content source.
// JSONMetadata is the post's free-form metadata blob and may be malformed.
type RawPost struct {
	Author       string    `db:"author"`
	CreatedAt    time.Time `db:"created"`
	Title        string    `db:"title"`
	Permlink     string    `db:"permlink"`
	JSONMetadata string    `db:"json_metadata"`
	PostURL      string    `db:"post_url"`
}
