package sites

import (
	"fmt"
	"regexp"
)

// KeyAuthorToday identifies the author.today source.
const KeyAuthorToday = "authortoday"

var authorTodayIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/work/(\d+)`),
}

// AuthorToday returns the adapter for author.today. Listings come from the
// popularity ranking; works are identified by a numeric /work/<id> path and
// read at /work/<id>/read.
func AuthorToday() *Adapter {
	return &Adapter{
		key:      KeyAuthorToday,
		baseURL:  "https://author.today",
		language: "Русский",
		listingSelectors: []string{
			"div.book-row",
			"article[class*='book']",
			"div.work-item",
			"div[data-work-id]",
		},
		fields: map[FieldKind][]extractor{
			FieldTitle: {
				text("a.book-title"),
				text("h2 a"),
				text("a[href*='/work/']"),
			},
			FieldBookLink: {
				attr("a.book-title", "href"),
				attr("h2 a", "href"),
				attr("a[href*='/work/']", "href"),
			},
			FieldAuthor: {
				text("a.author-name"),
				text("span.author a"),
			},
			FieldGenre: {
				joinedLinks("a[href*='/genre/']"),
			},
			FieldDescription: {
				text("div.description"),
				text("p.annotation"),
			},
			FieldImage: {
				attr("img.cover", "src"),
				attr("img.cover", "data-src"),
				attr("img[data-src]", "data-src"),
				attr("img", "src"),
			},
			FieldStatus: {
				markers("Полный текст", "Завершено"),
			},
		},
		idPatterns: authorTodayIDPatterns,
		contentSelectors: []string{
			"div.book-content",
			"div[class*='chapter-content']",
			"div.text",
			"div[class*='content']",
		},
		pageURL: func(base string, page int) string {
			if page <= 1 {
				return base + "/work/popular"
			}
			return fmt.Sprintf("%s/work/popular?page=%d", base, page)
		},
		readURL: func(base string, id int64, _ string) string {
			if id <= 0 {
				return ""
			}
			return fmt.Sprintf("%s/work/%d/read", base, id)
		},
		// author.today offers no direct download endpoint
		downloadURL: nil,
	}
}
