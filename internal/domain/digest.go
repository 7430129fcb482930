package domain

// SourceVelog names the only blog platform crawled today.
const SourceVelog = "velog"

// Digest is the compressed artifact stored with a finished job and read by keyword extraction.
type Digest struct {
	Source             string `json:"source"`
	BaseURL            string `json:"baseUrl"`
	PostCount          int    `json:"postCount"`
	RecentCount        int    `json:"recentCount"`
	RecentActivityText string `json:"recentActivityText"`
}

// EmptyDigest is stored for subjects that have no link to crawl.
func EmptyDigest(source string) Digest {
	return Digest{Source: source}
}

// Preview is a crawl reduced to a digest without touching job state.
type Preview struct {
	Digest Digest       `json:"digest"`
	Posts  []PostRecord `json:"posts"`
}
