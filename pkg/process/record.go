package process

import (
	"html"
	"regexp"
	"strings"

	"bookharvest/pkg/models"
)

// RawBook carries field values exactly as a site adapter extracted them,
// before any decoding, truncation, or default substitution.
type RawBook struct {
	ID          int64
	Title       string
	Author      string
	Genre       string
	Description string
	ImageURL    string
	BookURL     string
	ReadURL     string
	DownloadURL string
	Language    string
	PageCount   *int
	IsCompleted bool
	Content     string
	Source      string
}

// \s does not match U+00A0, which litmir pages use liberally.
var whitespaceRunRe = regexp.MustCompile(`[\s\x{00a0}]+`)

// Normalize turns a raw extraction result into a catalog-ready BookRecord:
// entities decoded, whitespace runs collapsed (paragraph breaks survive in
// Content), every field truncated to its limit, defaults substituted for
// empty fields. Pure and total; it never fails and performs no I/O.
func Normalize(raw RawBook, defaultLanguage string) models.BookRecord {
	rec := models.BookRecord{
		ID:          raw.ID,
		Title:       Truncate(cleanText(raw.Title), models.MaxTitleLen),
		Author:      Truncate(cleanText(raw.Author), models.MaxAuthorLen),
		Genre:       Truncate(cleanText(raw.Genre), models.MaxGenreLen),
		Description: Truncate(cleanText(raw.Description), models.MaxDescriptionLen),
		ImageURL:    Truncate(strings.TrimSpace(raw.ImageURL), models.MaxURLLen),
		BookURL:     Truncate(strings.TrimSpace(raw.BookURL), models.MaxURLLen),
		ReadURL:     Truncate(strings.TrimSpace(raw.ReadURL), models.MaxURLLen),
		DownloadURL: Truncate(strings.TrimSpace(raw.DownloadURL), models.MaxURLLen),
		Language:    Truncate(cleanText(raw.Language), models.MaxLanguageLen),
		IsCompleted: raw.IsCompleted,
		Content:     Truncate(normalizeContent(raw.Content), models.MaxContentLen),
		Source:      raw.Source,
	}

	if raw.PageCount != nil && *raw.PageCount > 0 {
		pc := *raw.PageCount
		rec.PageCount = &pc
	}

	if rec.Author == "" {
		rec.Author = models.DefaultAuthor
	}
	if rec.Genre == "" {
		rec.Genre = models.DefaultGenre
	}
	if rec.Description == "" {
		rec.Description = models.DefaultDescription
	}
	if rec.Language == "" {
		rec.Language = defaultLanguage
	}

	return rec
}

// cleanText decodes HTML entities and collapses all whitespace runs to a
// single space.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeContent decodes entities and collapses horizontal whitespace but
// keeps paragraph breaks intact.
func normalizeContent(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(s)
	s = horizontalSpaceRe.ReplaceAllString(s, " ")
	s = blankLineRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
