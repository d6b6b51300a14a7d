package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"bookharvest/pkg/models"
	"bookharvest/pkg/utils"
)

const (
	bookKeyPrefix = "book:"   // Prefix for record keys in DB
	taIndexPrefix = "idx:ta:" // Secondary index: (title,author) -> primary record key
)

// badgerLogrusAdapter bridges badger's internal logger onto logrus.
type badgerLogrusAdapter struct {
	*logrus.Entry
}

func (l badgerLogrusAdapter) Errorf(f string, v ...interface{})   { l.Entry.Errorf(f, v...) }
func (l badgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }
func (l badgerLogrusAdapter) Infof(f string, v ...interface{})    { l.Entry.Infof(f, v...) }
func (l badgerLogrusAdapter) Debugf(f string, v ...interface{})   { l.Entry.Debugf(f, v...) }

// stagedOp is one pending mutation. Exactly one of insert/patch is set.
type stagedOp struct {
	key    string
	insert *models.BookRecord
	patch  Fields
}

// BadgerStore implements Store on BadgerDB. Mutations are buffered in memory
// and applied by Commit inside a single update transaction, so a failed
// batch never leaves the catalog half-written.
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry

	mu      sync.Mutex
	pending []stagedOp
}

// NewBadgerStore opens (or creates) the catalog database at dbPath.
func NewBadgerStore(dbPath string, logger *logrus.Entry) (*BadgerStore, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create catalog directory %s: %w", dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogrusAdapter{logger.WithField("component", "badgerdb")}).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	logger.Infof("Catalog database opened at: %s", dbPath)
	return &BadgerStore{db: db, log: logger}, nil
}

// FindByID implements Store.
func (s *BadgerStore) FindByID(id int64) (*models.BookRecord, error) {
	if id <= 0 {
		return nil, nil
	}
	return s.getRecord(bookKeyPrefix + fmt.Sprintf("id/%d", id))
}

// FindByTitleAuthor implements Store. It resolves the (title, author) index
// entry to the primary record key.
func (s *BadgerStore) FindByTitleAuthor(title, author string) (*models.BookRecord, error) {
	idxKey := []byte(taIndexPrefix + models.TitleAuthorKey(title, author))

	var primaryKey string
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(idxKey)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: reading index key '%s': %w", utils.ErrDatabase, string(idxKey), errGet)
		}
		return item.Value(func(val []byte) error {
			primaryKey = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if primaryKey == "" {
		return nil, nil
	}
	return s.getRecord(primaryKey)
}

// getRecord loads and decodes one committed record by its full DB key.
func (s *BadgerStore) getRecord(fullKey string) (*models.BookRecord, error) {
	var rec *models.BookRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get([]byte(fullKey))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: reading record key '%s': %w", utils.ErrDatabase, fullKey, errGet)
		}
		return item.Value(func(val []byte) error {
			var decoded models.BookRecord
			if errJSON := json.Unmarshal(val, &decoded); errJSON != nil {
				return fmt.Errorf("%w: decoding record key '%s': %w", utils.ErrDatabase, fullKey, errJSON)
			}
			rec = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert implements Store: stages a new record under its identity key.
func (s *BadgerStore) Insert(rec *models.BookRecord) error {
	if rec == nil || !rec.Valid() {
		return fmt.Errorf("%w: refusing to stage record without identity", utils.ErrMerge)
	}
	clone := *rec
	s.mu.Lock()
	s.pending = append(s.pending, stagedOp{key: bookKeyPrefix + rec.Key(), insert: &clone})
	s.mu.Unlock()
	return nil
}

// Patch implements Store: stages a partial update of an existing record.
func (s *BadgerStore) Patch(key string, fields Fields) error {
	if key == "" || len(fields) == 0 {
		return fmt.Errorf("%w: empty patch", utils.ErrMerge)
	}
	staged := make(Fields, len(fields))
	for k, v := range fields {
		staged[k] = v
	}
	s.mu.Lock()
	s.pending = append(s.pending, stagedOp{key: bookKeyPrefix + key, patch: staged})
	s.mu.Unlock()
	return nil
}

const maxConflictRetries = 10

// Commit implements Store: applies every staged mutation in one badger
// update transaction. Transaction conflicts are retried; they resolve in
// microseconds under concurrent readers.
func (s *BadgerStore) Commit() error {
	s.mu.Lock()
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			return applyOps(txn, ops)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.log.Debugf("Commit transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	if err != nil {
		s.log.Errorf("Catalog commit of %d staged ops failed: %v", len(ops), err)
		return fmt.Errorf("%w: %w", utils.ErrCommit, err)
	}

	s.log.Debugf("Committed %d staged catalog ops", len(ops))
	return nil
}

// applyOps writes all staged mutations within one transaction.
func applyOps(txn *badger.Txn, ops []stagedOp) error {
	for _, op := range ops {
		switch {
		case op.insert != nil:
			data, errJSON := json.Marshal(op.insert)
			if errJSON != nil {
				return fmt.Errorf("encoding record '%s': %w", op.key, errJSON)
			}
			if err := txn.Set([]byte(op.key), data); err != nil {
				return fmt.Errorf("setting record '%s': %w", op.key, err)
			}
			idxKey := taIndexPrefix + models.TitleAuthorKey(op.insert.Title, op.insert.Author)
			if err := txn.Set([]byte(idxKey), []byte(op.key)); err != nil {
				return fmt.Errorf("setting index '%s': %w", idxKey, err)
			}

		case op.patch != nil:
			item, errGet := txn.Get([]byte(op.key))
			if errGet != nil {
				return fmt.Errorf("loading record '%s' for patch: %w", op.key, errGet)
			}
			var current map[string]interface{}
			errVal := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &current)
			})
			if errVal != nil {
				return fmt.Errorf("decoding record '%s' for patch: %w", op.key, errVal)
			}
			for field, value := range op.patch {
				current[field] = value
			}
			data, errJSON := json.Marshal(current)
			if errJSON != nil {
				return fmt.Errorf("re-encoding record '%s': %w", op.key, errJSON)
			}
			if err := txn.Set([]byte(op.key), data); err != nil {
				return fmt.Errorf("patching record '%s': %w", op.key, err)
			}
		}
	}
	return nil
}

// Count implements Store: a key-only scan over committed records.
func (s *BadgerStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(bookKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", utils.ErrDatabase, err)
	}
	return count, nil
}

// List implements Store.
func (s *BadgerStore) List(limit int) ([]models.BookRecord, error) {
	var records []models.BookRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			errVal := it.Item().Value(func(val []byte) error {
				var rec models.BookRecord
				if errJSON := json.Unmarshal(val, &rec); errJSON != nil {
					s.log.Warnf("Skipping undecodable record key '%s': %v", it.Item().Key(), errJSON)
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if errVal != nil {
				return errVal
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %w", utils.ErrDatabase, err)
	}
	return records, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	dropped := len(s.pending)
	s.pending = nil
	s.mu.Unlock()
	if dropped > 0 {
		s.log.Warnf("Closing catalog with %d uncommitted staged ops, dropping them", dropped)
	}
	return s.db.Close()
}
