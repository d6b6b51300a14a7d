package catalog

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"bookharvest/pkg/models"
)

// Merger decides insert/update/skip per harvested record against the
// catalog, applies the field-overwrite policy, and commits the whole batch
// atomically. Records are expected to be normalized already.
type Merger struct {
	log *logrus.Entry
}

// NewMerger creates a Merger
func NewMerger(log *logrus.Entry) *Merger {
	return &Merger{log: log}
}

// Merge runs one batch against the store. Intra-batch duplicates (same ID or
// same (title, author) pair) are suppressed with first occurrence winning.
// Existing entries are looked up by ID first, then by exact (title, author).
// A per-record failure is counted and skipped; the batch itself is committed
// as one transaction, so a commit failure applies nothing and is carried in
// the report rather than returned.
func (m *Merger) Merge(batch []models.BookRecord, store Store) models.MergeReport {
	var rep models.MergeReport

	seenIDs := make(map[int64]bool)
	seenPairs := make(map[string]bool)

	for i := range batch {
		rec := &batch[i]

		// Records without identity never reach the tallies.
		if !rec.Valid() {
			m.log.WithField("source", rec.Source).Warn("Dropping record without identity before merge")
			continue
		}

		// Intra-batch dedup: first occurrence wins.
		pairKey := models.TitleAuthorKey(rec.Title, rec.Author)
		if (rec.ID > 0 && seenIDs[rec.ID]) || (rec.Title != "" && seenPairs[pairKey]) {
			rep.Skipped++
			continue
		}
		if rec.ID > 0 {
			seenIDs[rec.ID] = true
		}
		if rec.Title != "" {
			seenPairs[pairKey] = true
		}

		outcome, err := m.mergeOne(rec, store)
		if err != nil {
			rep.Errored++
			m.log.WithFields(logrus.Fields{
				"title": rec.Title, "id": rec.ID,
			}).Errorf("Merge failed for record: %v", err)
			continue
		}
		switch outcome {
		case outcomeAdded:
			rep.Added++
		case outcomeUpdated:
			rep.Updated++
		case outcomeSkipped:
			rep.Skipped++
		}
	}

	if err := store.Commit(); err != nil {
		rep.CommitErr = err
		m.log.Errorf("Batch commit failed, no changes applied: %v", err)
	}

	m.log.WithFields(logrus.Fields{
		"added": rep.Added, "updated": rep.Updated, "skipped": rep.Skipped, "errored": rep.Errored,
	}).Info("Merge complete")
	return rep
}

type mergeOutcome int

const (
	outcomeAdded mergeOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// mergeOne classifies a single record against the committed catalog state
// and stages the resulting insert or patch.
func (m *Merger) mergeOne(rec *models.BookRecord, store Store) (mergeOutcome, error) {
	existing, err := m.lookup(rec, store)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		if err := store.Insert(rec); err != nil {
			return 0, err
		}
		return outcomeAdded, nil
	}

	fields := diffFields(rec, existing)
	if len(fields) == 0 {
		return outcomeSkipped, nil
	}
	if err := store.Patch(existing.Key(), fields); err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

// lookup finds an existing catalog entry: canonical ID first, then the exact
// (title, author) pair.
func (m *Merger) lookup(rec *models.BookRecord, store Store) (*models.BookRecord, error) {
	if rec.ID > 0 {
		existing, err := store.FindByID(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup by id %d: %w", rec.ID, err)
		}
		if existing != nil {
			return existing, nil
		}
	}
	if rec.Title == "" {
		return nil, nil
	}
	existing, err := store.FindByTitleAuthor(rec.Title, rec.Author)
	if err != nil {
		return nil, fmt.Errorf("lookup by title/author: %w", err)
	}
	return existing, nil
}

// diffFields applies the field-overwrite policy: a field is overwritten only
// when the incoming value is non-empty, is not that field's normalization
// default, and differs from the stored value. Title, author, and identifiers
// are immutable after creation.
func diffFields(incoming, existing *models.BookRecord) Fields {
	fields := make(Fields)

	if eligible(incoming.Description, models.DefaultDescription, existing.Description) {
		fields["description"] = incoming.Description
	}
	if eligible(incoming.Genre, models.DefaultGenre, existing.Genre) {
		fields["genre"] = incoming.Genre
	}
	if eligible(incoming.ImageURL, "", existing.ImageURL) {
		fields["image_url"] = incoming.ImageURL
	}
	if eligible(incoming.Content, "", existing.Content) {
		fields["content"] = incoming.Content
	}
	if incoming.PageCount != nil &&
		(existing.PageCount == nil || *existing.PageCount != *incoming.PageCount) {
		fields["page_count"] = *incoming.PageCount
	}
	if incoming.IsCompleted != existing.IsCompleted {
		fields["is_completed"] = incoming.IsCompleted
	}

	return fields
}

// eligible reports whether value may overwrite stored under the policy.
func eligible(value, fieldDefault, stored string) bool {
	if value == "" || value == fieldDefault {
		return false
	}
	return value != stored
}
