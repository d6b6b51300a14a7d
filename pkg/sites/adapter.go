// Package sites holds one extraction-strategy variant per supported catalog
// website. Each variant is an Adapter parameterized entirely by data tables:
// ordered listing selectors, per-field extractor chains, ID regex patterns,
// and URL builders. Adding a source means adding a constructor in its own
// file, not subclassing anything.
package sites

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookharvest/pkg/utils"
)

// FieldKind names one extractable listing-node field.
type FieldKind int

const (
	FieldTitle FieldKind = iota
	FieldAuthor
	FieldGenre
	FieldDescription
	FieldImage
	FieldBookLink
	FieldPages
	FieldStatus
)

// extractor pulls one candidate value out of a listing node. Returns "" when
// the candidate does not apply; chains are evaluated in order and the first
// non-empty result wins.
type extractor func(node *goquery.Selection) string

// text extracts the trimmed text of the first match of selector.
func text(selector string) extractor {
	return func(node *goquery.Selection) string {
		return strings.TrimSpace(node.Find(selector).First().Text())
	}
}

// attr extracts a named attribute of the first match of selector.
func attr(selector, name string) extractor {
	return func(node *goquery.Selection) string {
		val, _ := node.Find(selector).First().Attr(name)
		return strings.TrimSpace(val)
	}
}

// matchText extracts the first capture group of re applied to the node text.
func matchText(re *regexp.Regexp) extractor {
	return func(node *goquery.Selection) string {
		m := re.FindStringSubmatch(node.Text())
		if m == nil {
			return ""
		}
		return m[1]
	}
}

// textWithout extracts the text of the first match of selector after
// removing the excluded descendants from a clone.
func textWithout(selector string, exclude ...string) extractor {
	return func(node *goquery.Selection) string {
		sel := node.Find(selector).First()
		if sel.Length() == 0 {
			return ""
		}
		clone := sel.Clone()
		for _, ex := range exclude {
			clone.Find(ex).Remove()
		}
		return strings.TrimSpace(clone.Text())
	}
}

// markers reports the first marker phrase found in the node text.
func markers(phrases ...string) extractor {
	return func(node *goquery.Selection) string {
		text := node.Text()
		for _, phrase := range phrases {
			if strings.Contains(text, phrase) {
				return phrase
			}
		}
		return ""
	}
}

// joinedLinks extracts the texts of all matches of selector joined with
// ", ", first-seen order, duplicates and the ellipsis placeholder dropped.
func joinedLinks(selectors ...string) extractor {
	return func(node *goquery.Selection) string {
		var labels []string
		seen := make(map[string]bool)
		for _, selector := range selectors {
			node.Find(selector).Each(func(_ int, s *goquery.Selection) {
				label := strings.TrimSpace(s.Text())
				if label == "" || label == "..." || label == "…" || seen[label] {
					return
				}
				seen[label] = true
				labels = append(labels, label)
			})
		}
		return strings.Join(labels, ", ")
	}
}

// lastNumberRe backs the ID-extraction fallback: the last number anywhere in
// the URL.
var lastNumberRe = regexp.MustCompile(`\d+`)

// Adapter binds the extraction strategy for one source website. Base URL and
// pagination convention are adapter-local; the shared harvester never
// hardcodes either.
type Adapter struct {
	key              string
	baseURL          string
	language         string
	listingSelectors []string
	fields           map[FieldKind][]extractor
	idPatterns       []*regexp.Regexp
	contentSelectors []string
	pageURL          func(base string, page int) string
	readURL          func(base string, id int64, bookURL string) string
	downloadURL      func(base string, id int64) string
}

// Keys returns the supported source keys in their canonical order.
func Keys() []string {
	return []string{KeyLitmir, KeyAuthorToday, KeyLoveread}
}

// ForSource returns the adapter variant for a source key. An unknown key is
// a configuration mistake and the only fatal error class in the pipeline.
func ForSource(key string) (*Adapter, error) {
	switch key {
	case KeyLitmir:
		return Litmir(), nil
	case KeyAuthorToday:
		return AuthorToday(), nil
	case KeyLoveread:
		return Loveread(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", utils.ErrUnknownSource, key, strings.Join(Keys(), ", "))
	}
}

// Key returns the source identity this adapter is bound to.
func (a *Adapter) Key() string { return a.key }

// BaseURL returns the source's base URL.
func (a *Adapter) BaseURL() string { return a.baseURL }

// Language returns the source-inferred default language label.
func (a *Adapter) Language() string { return a.language }

// WithBaseURL returns a copy of the adapter bound to a different base URL.
// Exists for exercising adapters against local test servers.
func (a *Adapter) WithBaseURL(base string) *Adapter {
	clone := *a
	clone.baseURL = strings.TrimRight(base, "/")
	return &clone
}

// PageURL builds the listing URL for a 1-based page number using the
// adapter's pagination convention.
func (a *Adapter) PageURL(page int) string {
	return a.pageURL(a.baseURL, page)
}

// ReadURL builds the full-text reader URL for a record.
func (a *Adapter) ReadURL(id int64, bookURL string) string {
	if a.readURL == nil {
		return ""
	}
	return a.readURL(a.baseURL, id, bookURL)
}

// DownloadURL builds the download URL for a record, or "" when the source
// offers none.
func (a *Adapter) DownloadURL(id int64) string {
	if a.downloadURL == nil {
		return ""
	}
	return a.downloadURL(a.baseURL, id)
}

// ListingNodes locates the per-book fragments on a listing page. The fixed
// selector list is tried in order and the first non-empty match wins. An
// empty result means the source has no more books, not an error.
func (a *Adapter) ListingNodes(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range a.listingSelectors {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}
		nodes := make([]*goquery.Selection, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			nodes = append(nodes, s)
		})
		return nodes
	}
	return nil
}

// Field extracts the raw value of one field kind from a listing node, or ""
// when no candidate in the chain applies. Defaults are the normalizer's job.
func (a *Adapter) Field(node *goquery.Selection, kind FieldKind) string {
	for _, extract := range a.fields[kind] {
		if val := extract(node); val != "" {
			return val
		}
	}
	return ""
}

// ExtractID pulls the canonical numeric identifier out of a book URL. The
// site patterns are tried in order; when none match structurally, the last
// number found anywhere in the URL is used. Returns 0 when unassigned.
func (a *Adapter) ExtractID(rawURL string) int64 {
	if rawURL == "" {
		return 0
	}
	for _, re := range a.idPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			if id := parseID(m[1]); id > 0 {
				return id
			}
		}
	}
	numbers := lastNumberRe.FindAllString(rawURL, -1)
	if len(numbers) > 0 {
		return parseID(numbers[len(numbers)-1])
	}
	return 0
}

// ContentNode locates the full-text container(s) on a reader page, trying
// the content selector list in order. Returns nil when no selector matches.
func (a *Adapter) ContentNode(doc *goquery.Document) *goquery.Selection {
	for _, selector := range a.contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// AbsoluteURL resolves a possibly relative reference against the adapter's
// base URL. Empty input stays empty.
func (a *Adapter) AbsoluteURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return a.baseURL + ref
	}
	return a.baseURL + "/" + ref
}

func parseID(digits string) int64 {
	var id int64
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		id = id*10 + int64(r-'0')
		if id < 0 { // overflow
			return 0
		}
	}
	return id
}
