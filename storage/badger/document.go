package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// readDocument reads and deserializes a document at the given key.
// Returns nil (no error) if the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

// writeDocument stores the primary record and all index entries.
func writeDocument(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
		return err
	}
	idBytes := storage.MarshalID(doc.Id)
	if err := tx.Set(makeDocumentNameKey(doc.Filename), idBytes); err != nil {
		return err
	}
	if err := tx.Set(makeDocumentCreatedKey(doc.CreatedAt, doc.Id), idBytes); err != nil {
		return err
	}
	return tx.Set(makeDocumentStatusKey(doc.Status, doc.CreatedAt, doc.Id), idBytes)
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.Id == 0 {
				doc.Id = core.DocumentIDFromFilename(doc.Filename)
			}

			existing, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if existing != nil {
				return storage.ErrDuplicateKey
			}

			// The name index is case-insensitive, so a filename differing
			// only by case from a stored one is still a duplicate even
			// though the content-hashed ids differ.
			_, err = tx.Get(makeDocumentNameKey(doc.Filename))
			if err == nil {
				return storage.ErrDuplicateKey
			}
			if err != badger.ErrKeyNotFound {
				return err
			}

			now := time.Now().UTC()
			if doc.CreatedAt.IsZero() {
				doc.CreatedAt = now
			}
			doc.UpdatedAt = now

			if err := writeDocument(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments replaces existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			old, err := readDocument(tx, makeDocumentKey(doc.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.UpdatedAt = time.Now().UTC()

			// Status index key embeds the status; drop the stale entry
			if old.Status != doc.Status {
				if err := tx.Delete(makeDocumentStatusKey(old.Status, old.CreatedAt, old.Id)); err != nil {
					return err
				}
			}
			if old.Filename != doc.Filename {
				item, err := tx.Get(makeDocumentNameKey(doc.Filename))
				if err == nil {
					var holder core.ID
					valErr := item.Value(func(val []byte) error {
						var err error
						holder, err = storage.UnmarshalID(val)
						return err
					})
					if valErr != nil {
						return valErr
					}
					// A case-only rename maps to the same index key and
					// is allowed; another document holding it is not.
					if holder != doc.Id {
						return storage.ErrDuplicateKey
					}
				} else if err != badger.ErrKeyNotFound {
					return err
				}
				if err := tx.Delete(makeDocumentNameKey(old.Filename)); err != nil {
					return err
				}
			}

			if err := writeDocument(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocumentStatus applies a partial status/progress/error update.
func (r *DocumentRepository) UpdateDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, progress int, errMsg string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if doc.Status != status {
			if err := tx.Delete(makeDocumentStatusKey(doc.Status, doc.CreatedAt, doc.Id)); err != nil {
				return err
			}
		}

		doc.Status = status
		doc.Progress = progress
		doc.Error = errMsg
		doc.UpdatedAt = time.Now().UTC()
		if status == core.StatusCompleted {
			doc.ProcessedAt = doc.UpdatedAt
		}

		if err := writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeDocumentNameKey(doc.Filename)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentCreatedKey(doc.CreatedAt, doc.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentStatusKey(doc.Status, doc.CreatedAt, doc.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentByFilename retrieves a document by its unique filename.
func (r *DocumentRepository) GetDocumentByFilename(ctx context.Context, filename string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentNameKey(filename))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		err = item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocumentsByStatus retrieves all documents with the given status,
// ordered by creation time descending.
func (r *DocumentRepository) ListDocumentsByStatus(ctx context.Context, status core.DocumentStatus) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentStatusPrefix(status)
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration needs a seek key past the end of the prefix range
		seekKey := append(slices.Clone(opts.Prefix), 0xff)

		for iter.Seek(seekKey); iter.ValidForPrefix(opts.Prefix); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListStaleProcessing retrieves processing documents whose last update is
// older than the cutoff, most stale first.
func (r *DocumentRepository) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]*core.Document, error) {
	processing, err := r.ListDocumentsByStatus(ctx, core.StatusProcessing)
	if err != nil {
		return nil, err
	}

	var stale []*core.Document
	for _, doc := range processing {
		if doc.UpdatedAt.Before(cutoff) {
			stale = append(stale, doc)
		}
	}
	slices.SortFunc(stale, func(a, b *core.Document) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})
	return stale, nil
}

// ListRecentDocuments retrieves up to limit documents, newest first.
func (r *DocumentRepository) ListRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentCreatedPrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seekKey := append(slices.Clone(opts.Prefix), 0xff)

		count := 0
		for iter.Seek(seekKey); iter.ValidForPrefix(opts.Prefix) && count < limit; iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}
