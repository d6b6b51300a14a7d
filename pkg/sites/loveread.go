package sites

import (
	"fmt"
	"regexp"
)

// KeyLoveread identifies the loveread.ec source.
const KeyLoveread = "loveread"

var lovereadIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[?&]id=(\d+)`),
	regexp.MustCompile(`(?i)/book/(\d+)`),
}

// Loveread returns the adapter for loveread.ec. Unlike the other sources its
// listing pagination is path-segment based, and books are identified by the
// id query parameter of their view page.
func Loveread() *Adapter {
	return &Adapter{
		key:      KeyLoveread,
		baseURL:  "http://loveread.ec",
		language: "Русский",
		listingSelectors: []string{
			"li:has(a[href*='view_global.php'])",
			"td:has(a[href*='view_global.php'])",
			"div.book_item",
		},
		fields: map[FieldKind][]extractor{
			FieldTitle: {
				text("a[href*='view_global.php']"),
				text("div.book_name a"),
			},
			FieldBookLink: {
				attr("a[href*='view_global.php']", "href"),
				attr("div.book_name a", "href"),
			},
			FieldAuthor: {
				text("a[href*='biography-author']"),
				text("span.author a"),
			},
			FieldGenre: {
				joinedLinks("a[href*='id_genre']"),
			},
			FieldDescription: {
				text("p.span_str"),
				text("div.description"),
			},
			FieldImage: {
				attr("img[src*='photo_books']", "src"),
				attr("img[data-src]", "data-src"),
			},
			FieldPages: {
				matchText(regexp.MustCompile(`Страниц:\s*(\d+)`)),
			},
			FieldStatus: {
				markers("Полный текст", "Книга закончена"),
			},
		},
		idPatterns: lovereadIDPatterns,
		contentSelectors: []string{
			"td.tb_read_book",
			"div.take_book",
			"p.MsoNormal",
		},
		pageURL: func(base string, page int) string {
			if page <= 1 {
				return base + "/biblioteka"
			}
			return fmt.Sprintf("%s/biblioteka/page/%d", base, page)
		},
		readURL: func(base string, id int64, _ string) string {
			if id <= 0 {
				return ""
			}
			return fmt.Sprintf("%s/read_book.php?id=%d&p=1", base, id)
		},
		downloadURL: func(base string, id int64) string {
			if id <= 0 {
				return ""
			}
			return fmt.Sprintf("%s/download_book.php?id=%d", base, id)
		},
	}
}
