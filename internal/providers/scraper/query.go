package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	formMatcher  = cascadia.MustCompile("form")
	fieldMatcher = cascadia.MustCompile("input, select, textarea")
	labelMatcher = cascadia.MustCompile("label")
)

// attr returns a non-empty attribute value. Missing and empty attributes
// are treated alike, mirroring how forms are authored in practice.
func attr(s *goquery.Selection, name string) (string, bool) {
	v, ok := s.Attr(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// hasAttr reports attribute presence regardless of value (`[required]`).
func hasAttr(s *goquery.Selection, name string) bool {
	_, ok := s.Attr(name)
	return ok
}

// tagName returns the lowercase element name.
func tagName(s *goquery.Selection) string {
	return strings.ToLower(goquery.NodeName(s))
}

// labelIndex maps a `for` value to the trimmed text of the first label
// carrying it, in document order.
type labelIndex map[string]string

func indexLabels(doc *goquery.Document) labelIndex {
	idx := make(labelIndex)
	doc.FindMatcher(labelMatcher).Each(func(_ int, s *goquery.Selection) {
		target, ok := s.Attr("for")
		if !ok {
			return
		}
		if _, seen := idx[target]; !seen {
			idx[target] = strings.TrimSpace(s.Text())
		}
	})
	return idx
}

// precedingLabel returns the trimmed text of the element sibling directly
// before s when that sibling is a <label>.
func precedingLabel(s *goquery.Selection) string {
	prev := s.PrevMatcher(labelMatcher)
	if prev.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(prev.Text())
}
