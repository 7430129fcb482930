package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var totalCountPattern = regexp.MustCompile(`전체보기\s*\((\d{1,6})\)`)

// readTotalCount reads the author's post total from the "전체보기 (N)" counter.
func readTotalCount(doc *goquery.Document) (int, bool) {
	var (
		count int
		found bool
	)
	doc.Find("a, span, div, li, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := totalCountPattern.FindStringSubmatch(strings.TrimSpace(s.Text()))
		if m == nil {
			return true
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return true
		}
		count, found = n, true
		return false
	})
	return count, found
}
