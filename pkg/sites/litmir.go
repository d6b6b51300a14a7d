package sites

import (
	"fmt"
	"regexp"
)

// KeyLitmir identifies the litmir.club source.
const KeyLitmir = "litmir"

var litmirIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[?&]b=(\d+)`),
	regexp.MustCompile(`(?i)/b[drs]/(\d+)`),
	regexp.MustCompile(`(?i)/b/(\d+)`),
	regexp.MustCompile(`(?i)/book[-_]?(\d+)`),
}

var litmirPagesRe = regexp.MustCompile(`Страниц:\s*(\d+)`)

// Litmir returns the adapter for litmir.club. Listings are table rows carrying
// schema.org microdata; the first page lives at the site root and later pages
// use a query-string page number.
func Litmir() *Adapter {
	return &Adapter{
		key:      KeyLitmir,
		baseURL:  "https://litmir.club",
		language: "Русский",
		listingSelectors: []string{
			"tr:has(span[itemprop='name'])",
			"div.book-item",
			"div.book_block",
		},
		fields: map[FieldKind][]extractor{
			FieldTitle: {
				text("span[itemprop='name']"),
				text("div.book_name a"),
				text("a.book_name"),
			},
			FieldBookLink: {
				attr("a:has(span[itemprop='name'])", "href"),
				attr("div.book_name a", "href"),
				attr("a[href*='/bd/']", "href"),
				attr("a[href*='?b=']", "href"),
			},
			FieldAuthor: {
				text("a[href*='/a/?id=']"),
				text("span.desc2 a"),
				text("div.author a"),
			},
			FieldGenre: {
				// Visible genre links merged with the hidden "show more" span;
				// the "..." placeholder and the expander link are discarded.
				joinedLinks(
					"span[itemprop='genre'] > a:not([id*='more'])",
					"span[itemprop='genre'] span[id*='genres_rest'] a",
				),
			},
			FieldDescription: {
				textWithout("div.description", "div[style]"),
				text("div[itemprop='description']"),
			},
			FieldImage: {
				attr("img.lt32", "data-src"),
				attr("img.lt32", "src"),
				attr("img[data-src]", "data-src"),
				attr("img[src*='/data/Book/']", "src"),
			},
			FieldPages: {
				matchText(litmirPagesRe),
			},
			FieldStatus: {
				markers("Книга закончена", "Завершено", "Полный текст"),
			},
		},
		idPatterns: litmirIDPatterns,
		contentSelectors: []string{
			"div.page_text",
			"div[class*='page_text']",
			"div#book_text",
		},
		pageURL: func(base string, page int) string {
			if page <= 1 {
				return base
			}
			return fmt.Sprintf("%s/knigi?page=%d", base, page)
		},
		readURL: func(base string, id int64, _ string) string {
			if id <= 0 {
				return ""
			}
			return fmt.Sprintf("%s/br/?b=%d", base, id)
		},
		downloadURL: func(base string, id int64) string {
			if id <= 0 {
				return ""
			}
			return fmt.Sprintf("%s/b/d/%d/fb2", base, id)
		},
	}
}
