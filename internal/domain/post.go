package domain

import (
	"crypto/md5"
	"encoding/hex"
)

// PostRecord is a single post extracted from an author's profile.
type PostRecord struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	BodyText       string   `json:"text"`
	Tags           []string `json:"tags"`
	PublishedAtRaw string   `json:"publishedAt"`
	ContentHash    string   `json:"contentHash"`
}

// CrawlResult is everything one profile crawl produced.
type CrawlResult struct {
	Source         string       `json:"source"`
	Handle         string       `json:"handle"`
	Posts          []PostRecord `json:"posts"`
	TotalPostCount int          `json:"postCount"`
}

// ContentHash hashes the body text, or the fallback when the body is empty.
func ContentHash(body, fallback string) string {
	data := body
	if data == "" {
		data = fallback
	}
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}
