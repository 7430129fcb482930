package scanner

import (
	"fmt"
	"sort"
	"strings"

	"BlogIngest/internal/ports"
)

// Registry keeps a mapping from link types to the crawler that handles them.
type Registry struct {
	crawlers map[string]ports.ProfileCrawler
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{crawlers: map[string]ports.ProfileCrawler{}}
}

// Register adds or replaces a crawler under the given link type.
func (r *Registry) Register(linkType string, crawler ports.ProfileCrawler) {
	if r.crawlers == nil {
		r.crawlers = map[string]ports.ProfileCrawler{}
	}
	r.crawlers[normalizeType(linkType)] = crawler
}

// Resolve returns a crawler by link type or an error if it is absent.
func (r *Registry) Resolve(linkType string) (ports.ProfileCrawler, error) {
	if crawler, ok := r.crawlers[normalizeType(linkType)]; ok {
		return crawler, nil
	}
	return nil, fmt.Errorf("crawler for link type %s is not registered (known: %s)", linkType, strings.Join(r.Types(), ", "))
}

// Types lists registered link types in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.crawlers))
	for t := range r.crawlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeType(linkType string) string {
	return strings.ToUpper(strings.TrimSpace(linkType))
}
