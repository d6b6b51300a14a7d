package catalog

import "bookharvest/pkg/models"

// Fields is a partial update keyed by the record's JSON field names.
type Fields map[string]interface{}

// Store is persistent keyed storage of book records. Insert and Patch only
// stage mutations; Commit applies everything staged since the last commit in
// one transaction, or nothing at all.
type Store interface {
	// FindByID returns the committed record with the given canonical ID, or
	// nil when absent.
	FindByID(id int64) (*models.BookRecord, error)

	// FindByTitleAuthor returns the committed record with the exact
	// (title, author) pair, or nil when absent.
	FindByTitleAuthor(title, author string) (*models.BookRecord, error)

	// Insert stages a new record under its identity key.
	Insert(rec *models.BookRecord) error

	// Patch stages a partial update of the record stored under key.
	Patch(key string, fields Fields) error

	// Commit atomically applies all staged mutations. On error nothing is
	// applied; either way the staging area is cleared.
	Commit() error

	// Count returns the number of committed records.
	Count() (int, error)

	// List returns up to limit committed records (0 = all), in key order.
	List(limit int) ([]models.BookRecord, error)

	// Close cleanly closes the underlying database.
	Close() error
}
