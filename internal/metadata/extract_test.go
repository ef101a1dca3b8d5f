package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_MalformedBlobs(t *testing.T) {
	blobs := map[string]string{
		"empty":          "",
		"not json":       "{not valid json",
		"json number":    "42",
		"json array":     `["https://example.com/a.jpg"]`,
		"truncated":      `{"image": ["https://example.com/a.jpg"`,
		"null":           "null",
		"object no keys": "{}",
	}

	for name, blob := range blobs {
		t.Run(name, func(t *testing.T) {
			got := Extract(blob)
			assert.Empty(t, got.URLs)
			assert.Empty(t, got.Tags)
		})
	}
}

func TestExtract_SingleImageString(t *testing.T) {
	got := Extract(`{"image": "https://images.hive.blog/p/abc.png"}`)

	assert.Equal(t, []string{"https://images.hive.blog/p/abc.png"}, got.URLs)
}

func TestExtract_ImageList(t *testing.T) {
	got := Extract(`{
		"image": ["https://example.com/a.jpg", "http://example.com/b.jpg"],
		"tags": ["photography", "nature"]
	}`)

	assert.Equal(t, []string{"https://example.com/a.jpg", "http://example.com/b.jpg"}, got.URLs)
	assert.Equal(t, []string{"photography", "nature"}, got.Tags)
}

func TestExtract_ImagesKey(t *testing.T) {
	got := Extract(`{"images": ["https://example.com/c.jpg"]}`)

	assert.Equal(t, []string{"https://example.com/c.jpg"}, got.URLs)
}

func TestExtract_FiltersNonURLValues(t *testing.T) {
	got := Extract(`{
		"image": ["ipfs://bafybei", "not a url", 12, null, {"url": "https://x.test/a.jpg"}, "https://example.com/ok.jpg"],
		"tags": ["art", 7, null, ["nested"]]
	}`)

	assert.Equal(t, []string{"https://example.com/ok.jpg"}, got.URLs)
	assert.Equal(t, []string{"art"}, got.Tags)
}

func TestExtract_DeduplicatesURLsAndTags(t *testing.T) {
	got := Extract(`{
		"image": ["https://example.com/a.jpg", "https://example.com/a.jpg"],
		"images": ["https://example.com/a.jpg", "https://example.com/b.jpg"],
		"tags": ["Art", "Art", "art"]
	}`)

	assert.Equal(t, []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}, got.URLs)
	// Tag case is preserved, so "Art" and "art" stay distinct.
	assert.Equal(t, []string{"Art", "art"}, got.Tags)
}

func TestExtract_IgnoresNonListImageObject(t *testing.T) {
	got := Extract(`{"image": {"0": "https://example.com/a.jpg"}, "tags": {"0": "art"}}`)

	assert.Empty(t, got.URLs)
	assert.Empty(t, got.Tags)
}
