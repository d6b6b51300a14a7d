package process

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelectors is the fixed exclusion set stripped from content nodes
// before text extraction: scripts, styling, ad containers, and editorial
// inserts that the reader pages mix into the book text.
var nonContentSelectors = []string{
	"script",
	"style",
	"noscript",
	"iframe",
	"ins",
	"div[class*='ad']",
	"div[class*='banner']",
	"div[class*='editor']",
}

var (
	lineBreakTagRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphTagRe = regexp.MustCompile(`(?i)<p[^>]*>`)
	anyTagRe       = regexp.MustCompile(`<[^>]+>`)

	horizontalSpaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLineRunRe    = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// StripNonContent removes the exclusion set from sel in place. Callers that
// need the original tree intact should pass a clone.
func StripNonContent(sel *goquery.Selection) {
	for _, selector := range nonContentSelectors {
		sel.Find(selector).Remove()
	}
}

// ExtractText strips non-content markup from every node in sel and converts
// the remaining HTML to plain text with paragraph breaks.
func ExtractText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		clone := s.Clone()
		StripNonContent(clone)
		if fragment, err := goquery.OuterHtml(clone); err == nil {
			b.WriteString(fragment)
		}
	})
	return CleanContent(b.String())
}

// CleanContent converts an HTML fragment to plain text: line-break tags
// become "\n", paragraph openers "\n\n", remaining tags are stripped,
// entities decoded, horizontal whitespace collapsed, and runs of three or
// more newlines squeezed to exactly two. Deterministic and total.
func CleanContent(fragment string) string {
	if fragment == "" {
		return ""
	}

	fragment = lineBreakTagRe.ReplaceAllString(fragment, "\n")
	fragment = paragraphTagRe.ReplaceAllString(fragment, "\n\n")
	fragment = anyTagRe.ReplaceAllString(fragment, "")
	fragment = html.UnescapeString(fragment)
	fragment = horizontalSpaceRe.ReplaceAllString(fragment, " ")
	fragment = blankLineRunRe.ReplaceAllString(fragment, "\n\n")

	return strings.TrimSpace(fragment)
}
