package sites

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookharvest/pkg/utils"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestForSource(t *testing.T) {
	for _, key := range Keys() {
		adapter, err := ForSource(key)
		require.NoError(t, err, key)
		assert.Equal(t, key, adapter.Key())
		assert.NotEmpty(t, adapter.BaseURL())
		assert.NotEmpty(t, adapter.Language())
	}
}

func TestForSource_Unknown(t *testing.T) {
	adapter, err := ForSource("gutenberg")
	assert.Nil(t, adapter)
	require.ErrorIs(t, err, utils.ErrUnknownSource)
	assert.Contains(t, err.Error(), "gutenberg")
	assert.Contains(t, err.Error(), KeyLitmir)
}

func TestLitmir_ExtractID(t *testing.T) {
	a := Litmir()
	tests := []struct {
		name     string
		url      string
		expected int64
	}{
		{"query param", "https://litmir.club/bd/?b=123456", 123456},
		{"query param not first", "https://litmir.club/br/?p=2&b=7890", 7890},
		{"bd path", "https://litmir.club/bd/123", 123},
		{"bs path", "https://litmir.club/bs/456", 456},
		{"b path", "https://litmir.club/b/789", 789},
		{"book slug", "https://litmir.club/book-321", 321},
		{"fallback last number", "https://litmir.club/some/5/path/42", 42},
		{"no number", "https://litmir.club/about", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.ExtractID(tt.url))
		})
	}
}

func TestLitmir_ExtractID_ParamOrderIrrelevant(t *testing.T) {
	a := Litmir()
	assert.Equal(t, a.ExtractID("https://litmir.club/br/?b=99&p=4"), a.ExtractID("https://litmir.club/br/?p=4&b=99"))
}

func TestAuthorToday_ExtractID(t *testing.T) {
	a := AuthorToday()
	assert.Equal(t, int64(314159), a.ExtractID("https://author.today/work/314159"))
	assert.Equal(t, int64(314159), a.ExtractID("/work/314159/read"))
}

func TestLoveread_ExtractID(t *testing.T) {
	a := Loveread()
	assert.Equal(t, int64(2771), a.ExtractID("http://loveread.ec/view_global.php?id=2771"))
}

func TestAdapter_ListingNodesCascade(t *testing.T) {
	a := Litmir()

	// Primary selector present: microdata table rows.
	doc := parseDoc(t, `<table>
		<tr><td><a href="/bd/?b=1"><span itemprop="name">One</span></a></td></tr>
		<tr><td><a href="/bd/?b=2"><span itemprop="name">Two</span></a></td></tr>
		<tr><td>no book here</td></tr>
	</table>`)
	nodes := a.ListingNodes(doc)
	require.Len(t, nodes, 2)

	// Primary absent: falls through to the next selector.
	doc = parseDoc(t, `<div class="book-item"><a href="/bd/?b=3">Three</a></div>`)
	nodes = a.ListingNodes(doc)
	require.Len(t, nodes, 1)

	// Nothing matches: end of pages.
	doc = parseDoc(t, `<div class="footer">empty</div>`)
	assert.Nil(t, a.ListingNodes(doc))
}

func TestAdapter_FieldChain(t *testing.T) {
	a := Litmir()

	doc := parseDoc(t, `<tr>
		<td><a href="/bd/?b=77"><span itemprop="name">Мастер и Маргарита</span></a></td>
		<td><a href="/a/?id=5">Булгаков</a></td>
		<td><div class="description">Роман о дьяволе.<div style="display:none">скрыто</div></div></td>
		<td><img class="lt32" data-src="//litmir.club/data/Book/77.jpg"></td>
		<td>Страниц: 384</td>
		<td>Книга закончена</td>
	</tr>`)
	node := doc.Find("tr").First()

	assert.Equal(t, "Мастер и Маргарита", a.Field(node, FieldTitle))
	assert.Equal(t, "/bd/?b=77", a.Field(node, FieldBookLink))
	assert.Equal(t, "Булгаков", a.Field(node, FieldAuthor))
	assert.Equal(t, "Роман о дьяволе.", a.Field(node, FieldDescription))
	assert.Equal(t, "//litmir.club/data/Book/77.jpg", a.Field(node, FieldImage))
	assert.Equal(t, "384", a.Field(node, FieldPages))
	assert.Equal(t, "Книга закончена", a.Field(node, FieldStatus))
}

func TestAdapter_FieldChain_Fallback(t *testing.T) {
	a := Litmir()
	doc := parseDoc(t, `<div><div class="book_name"><a href="/b/12">Запасной вариант</a></div></div>`)
	node := doc.Find("div").First()

	assert.Equal(t, "Запасной вариант", a.Field(node, FieldTitle))
	assert.Equal(t, "/b/12", a.Field(node, FieldBookLink))
	assert.Equal(t, "", a.Field(node, FieldAuthor))
}

func TestLitmir_GenreMergesHiddenLinks(t *testing.T) {
	a := Litmir()
	doc := parseDoc(t, `<tr><td><span itemprop="genre">
		<a href="/g/1">Фантастика</a>,
		<a href="/g/2">Детектив</a>,
		<a id="genres_more_5">...</a>
		<span id="genres_rest_5" style="display:none">
			<a href="/g/3">Проза</a>,
			<a href="/g/2">Детектив</a>
		</span>
	</span></td></tr>`)
	node := doc.Find("tr").First()

	assert.Equal(t, "Фантастика, Детектив, Проза", a.Field(node, FieldGenre))
}

func TestAdapter_PageURL(t *testing.T) {
	litmir := Litmir()
	assert.Equal(t, "https://litmir.club", litmir.PageURL(1))
	assert.Equal(t, "https://litmir.club/knigi?page=3", litmir.PageURL(3))

	at := AuthorToday()
	assert.Equal(t, "https://author.today/work/popular", at.PageURL(1))
	assert.Equal(t, "https://author.today/work/popular?page=2", at.PageURL(2))

	lr := Loveread()
	assert.Equal(t, "http://loveread.ec/biblioteka", lr.PageURL(1))
	assert.Equal(t, "http://loveread.ec/biblioteka/page/4", lr.PageURL(4))
}

func TestAdapter_ReadAndDownloadURLs(t *testing.T) {
	litmir := Litmir()
	assert.Equal(t, "https://litmir.club/br/?b=55", litmir.ReadURL(55, ""))
	assert.Equal(t, "https://litmir.club/b/d/55/fb2", litmir.DownloadURL(55))
	assert.Equal(t, "", litmir.ReadURL(0, ""))

	at := AuthorToday()
	assert.Equal(t, "https://author.today/work/55/read", at.ReadURL(55, ""))
	assert.Equal(t, "", at.DownloadURL(55))

	lr := Loveread()
	assert.Equal(t, "http://loveread.ec/read_book.php?id=55&p=1", lr.ReadURL(55, ""))
	assert.Equal(t, "http://loveread.ec/download_book.php?id=55", lr.DownloadURL(55))
}

func TestAdapter_AbsoluteURL(t *testing.T) {
	a := Litmir()
	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"empty", "", ""},
		{"protocol relative", "//litmir.club/data/x.jpg", "https://litmir.club/data/x.jpg"},
		{"absolute http", "http://other.site/x", "http://other.site/x"},
		{"absolute https", "https://other.site/x", "https://other.site/x"},
		{"rooted path", "/bd/?b=5", "https://litmir.club/bd/?b=5"},
		{"bare path", "bd/?b=5", "https://litmir.club/bd/?b=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.AbsoluteURL(tt.ref))
		})
	}
}

func TestAdapter_WithBaseURL(t *testing.T) {
	a := Litmir().WithBaseURL("http://127.0.0.1:8080/")
	assert.Equal(t, "http://127.0.0.1:8080", a.PageURL(1))
	assert.Equal(t, "http://127.0.0.1:8080/knigi?page=2", a.PageURL(2))
	// Original stays bound to the production host.
	assert.Equal(t, "https://litmir.club", Litmir().PageURL(1))
}

func TestAdapter_ContentNode(t *testing.T) {
	a := Litmir()

	doc := parseDoc(t, `<div class="page_text"><p>текст</p></div>`)
	require.NotNil(t, a.ContentNode(doc))

	doc = parseDoc(t, `<div id="book_text"><p>текст</p></div>`)
	require.NotNil(t, a.ContentNode(doc))

	doc = parseDoc(t, `<div class="nothing"></div>`)
	assert.Nil(t, a.ContentNode(doc))
}
