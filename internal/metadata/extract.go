// Package metadata parses the free-form per-post metadata blob into
// candidate image URLs and tags.
package metadata

import (
	"encoding/json"
	"strings"
)

// Extracted holds the normalized output for one post. Both slices are
// deduplicated; order follows first appearance in the blob.
type Extracted struct {
	URLs []string
	Tags []string
}

// Extract parses a post's metadata blob. A blob that is empty, not valid
// JSON, or not a JSON object yields empty sets. It never fails: malformed
// metadata is an expected, per-post condition.
func Extract(blob string) Extracted {
	var out Extracted
	if blob == "" {
		return out
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		return out
	}

	seen := make(map[string]struct{})
	for _, key := range []string{"image", "images"} {
		for _, u := range candidateURLs(parsed[key]) {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out.URLs = append(out.URLs, u)
		}
	}

	out.Tags = stringList(parsed["tags"])
	return out
}

// candidateURLs accepts either a single URL value or a list, filtering out
// anything that is not an http(s) URL string.
func candidateURLs(value any) []string {
	switch v := value.(type) {
	case string:
		if isHTTPURL(v) {
			return []string{v}
		}
	case []any:
		var urls []string
		for _, item := range v {
			if s, ok := item.(string); ok && isHTTPURL(s) {
				urls = append(urls, s)
			}
		}
		return urls
	}
	return nil
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var result []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
