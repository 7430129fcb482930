package scanner

import (
	"context"
	"strings"
	"testing"

	"BlogIngest/internal/domain"
)

type stubCrawler struct{ name string }

func (s stubCrawler) Name() string { return s.name }

func (s stubCrawler) Crawl(context.Context, string) (domain.CrawlResult, error) {
	return domain.CrawlResult{Source: s.name}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("velog", stubCrawler{name: "velog"})

	got, err := reg.Resolve(" VELOG ")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Name() != "velog" {
		t.Fatalf("unexpected crawler %s", got.Name())
	}

	_, err = reg.Resolve("GITHUB")
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
	if !strings.Contains(err.Error(), "known: VELOG") {
		t.Fatalf("error should list registered types: %v", err)
	}
}

func TestRegistryReplaceAndTypes(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register("VELOG", stubCrawler{name: "first"})
	reg.Register("velog", stubCrawler{name: "second"})
	reg.Register("tistory", stubCrawler{name: "tistory"})

	got, err := reg.Resolve("VELOG")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Name() != "second" {
		t.Fatalf("expected replacement, got %s", got.Name())
	}

	types := reg.Types()
	if len(types) != 2 || types[0] != "TISTORY" || types[1] != "VELOG" {
		t.Fatalf("unexpected types %v", types)
	}
}
