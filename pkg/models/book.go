package models

import "fmt"

// Field length limits enforced by normalization and re-checked at the catalog
// boundary. Values beyond these are truncated, never rejected.
const (
	MaxTitleLen       = 255
	MaxAuthorLen      = 100
	MaxGenreLen       = 200
	MaxDescriptionLen = 2000
	MaxURLLen         = 500
	MaxLanguageLen    = 50
	MaxContentLen     = 5000
)

// Defaults substituted for empty fields during normalization. The merger
// treats a stored field equal to its default as "nothing to preserve" and an
// incoming field equal to its default as "nothing to offer".
const (
	DefaultAuthor      = "Unknown"
	DefaultGenre       = "Unspecified"
	DefaultDescription = "No description available"
)

// BookRecord is one harvested catalog entry. ID is the canonical per-site
// identifier extracted from the book URL; 0 means unassigned, in which case
// the (Title, Author) pair is the identity key.
type BookRecord struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
	BookURL     string `json:"book_url,omitempty"`
	ReadURL     string `json:"read_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Language    string `json:"language,omitempty"`
	PageCount   *int   `json:"page_count,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	Content     string `json:"content,omitempty"`
	Source      string `json:"source,omitempty"` // Source key the record was harvested from
}

// Valid reports whether the record may enter the merge stage. A record with
// an unassigned ID and an empty title has no identity and must be dropped.
func (b *BookRecord) Valid() bool {
	return b.ID > 0 || b.Title != ""
}

// Key returns the catalog identity key: the canonical ID when assigned,
// otherwise the composite (title, author) pair.
func (b *BookRecord) Key() string {
	if b.ID > 0 {
		return fmt.Sprintf("id/%d", b.ID)
	}
	return "ta/" + TitleAuthorKey(b.Title, b.Author)
}

// TitleAuthorKey builds the composite lookup key for a (title, author) pair.
// The separator cannot appear in normalized text.
func TitleAuthorKey(title, author string) string {
	return title + "\x1f" + author
}

// MergeReport is the outcome tally of one merge batch.
type MergeReport struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`

	// CommitErr records a batch-level commit failure. When set, none of the
	// staged inserts/updates were applied and the counts describe work that
	// was rolled back.
	CommitErr error `json:"-"`
}

// Total returns the number of records the merger classified.
func (r MergeReport) Total() int {
	return r.Added + r.Updated + r.Skipped + r.Errored
}

func (r MergeReport) String() string {
	s := fmt.Sprintf("added=%d updated=%d skipped=%d errored=%d", r.Added, r.Updated, r.Skipped, r.Errored)
	if r.CommitErr != nil {
		s += fmt.Sprintf(" commit_error=%q", r.CommitErr.Error())
	}
	return s
}
