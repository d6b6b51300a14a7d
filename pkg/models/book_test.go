package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookRecord_Valid(t *testing.T) {
	tests := []struct {
		name  string
		rec   BookRecord
		valid bool
	}{
		{"id and title", BookRecord{ID: 42, Title: "War and Peace"}, true},
		{"id only", BookRecord{ID: 42}, true},
		{"title only", BookRecord{Title: "War and Peace"}, true},
		{"neither", BookRecord{Author: "Tolstoy"}, false},
		{"zero value", BookRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.rec.Valid())
		})
	}
}

func TestBookRecord_Key(t *testing.T) {
	withID := BookRecord{ID: 7, Title: "Title", Author: "Author"}
	assert.Equal(t, "id/7", withID.Key())

	withoutID := BookRecord{Title: "Title", Author: "Author"}
	assert.Equal(t, "ta/Title\x1fAuthor", withoutID.Key())
}

func TestBookRecord_KeyIgnoresTitleWhenIDAssigned(t *testing.T) {
	a := BookRecord{ID: 7, Title: "One"}
	b := BookRecord{ID: 7, Title: "Another"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestBookRecord_JSONRoundTrip(t *testing.T) {
	pages := 372
	rec := BookRecord{
		ID:          123,
		Title:       "Герой нашего времени",
		Author:      "Лермонтов",
		Genre:       "Классика, Проза",
		Description: "A novel.",
		ImageURL:    "https://example.com/cover.jpg",
		BookURL:     "https://example.com/bd/123",
		ReadURL:     "https://example.com/br/?b=123",
		Language:    "Русский",
		PageCount:   &pages,
		IsCompleted: true,
		Content:     "Chapter one.\n\nChapter two.",
		Source:      "litmir",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got BookRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec, got)
}

func TestBookRecord_OmitEmpty(t *testing.T) {
	rec := BookRecord{Title: "Bare", Author: DefaultAuthor, Genre: DefaultGenre, Description: DefaultDescription}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, "image_url")
	assert.NotContains(t, raw, "page_count")
	assert.NotContains(t, raw, "content")
	assert.NotContains(t, raw, `"id"`)
}

func TestMergeReport_Total(t *testing.T) {
	rep := MergeReport{Added: 1, Updated: 2, Skipped: 3, Errored: 4}
	assert.Equal(t, 10, rep.Total())
}

func TestMergeReport_String(t *testing.T) {
	rep := MergeReport{Added: 1, Skipped: 2}
	assert.Equal(t, "added=1 updated=0 skipped=2 errored=0", rep.String())

	rep.CommitErr = assert.AnError
	assert.Contains(t, rep.String(), "commit_error=")
}
