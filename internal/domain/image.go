package domain

import "time"

// ImageRecord is the unit of persistence. ImageURL is the natural key:
// the store keeps at most one row per URL and silently skips duplicates.
type ImageRecord struct {
	ImageURL  string    `json:"imageUrl"`
	Author    string    `json:"author"`
	Permlink  string    `json:"permlink"`
	PostURL   string    `json:"postUrl"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags,omitempty"`
}
