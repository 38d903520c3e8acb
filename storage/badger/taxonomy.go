package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
)

// TaxonomyRepository implements storage.TaxonomyRepository for BadgerDB.
type TaxonomyRepository struct {
	backend *Backend
}

var _ storage.TaxonomyRepository = (*TaxonomyRepository)(nil)

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(backend *Backend) (*TaxonomyRepository, error) {
	return &TaxonomyRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TaxonomyRepository has no resources to release.
func (r *TaxonomyRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TaxonomyRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// readTerm reads and deserializes a term at the given key.
// Returns nil (no error) if the key doesn't exist.
func readTerm(tx *badger.Txn, key []byte) (*core.TaxonomyTerm, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var term *core.TaxonomyTerm
	err = item.Value(func(val []byte) error {
		var err error
		term, err = storage.UnmarshalTerm(val)
		return err
	})
	return term, err
}

// AddTerms adds one or more taxonomy terms to storage.
func (r *TaxonomyRepository) AddTerms(ctx context.Context, terms ...*core.TaxonomyTerm) ([]*core.TaxonomyTerm, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, term := range terms {
			if term.Id == 0 {
				term.Id = core.TermIDFromName(term.Term)
			}

			existing, err := readTerm(tx, makeTermKey(term.Id))
			if err != nil {
				return err
			}
			if existing != nil {
				return storage.ErrDuplicateKey
			}

			term.InsertedAt = time.Now().UTC()
			term.UpdatedAt = term.InsertedAt

			if err := writeTerm(tx, term); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return terms, err
}

// writeTerm stores the primary record and all index entries.
func writeTerm(tx *badger.Txn, term *core.TaxonomyTerm) error {
	if err := tx.Set(makeTermKey(term.Id), storage.MarshalTerm(term)); err != nil {
		return err
	}
	idBytes := storage.MarshalID(term.Id)
	if err := tx.Set(makeTermNameKey(term.Term), idBytes); err != nil {
		return err
	}
	if term.Subcategory != "" {
		if err := tx.Set(makeTermSubcategoryKey(term.Subcategory, term.Id), idBytes); err != nil {
			return err
		}
	}
	if term.ParentId != 0 {
		if err := tx.Set(makeTermParentKey(term.ParentId, term.Id), idBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetTerm retrieves a single term by ID.
func (r *TaxonomyRepository) GetTerm(ctx context.Context, id core.ID) (*core.TaxonomyTerm, error) {
	var result *core.TaxonomyTerm
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTerm(tx, makeTermKey(id))
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

// FindTermByName finds a term by its name, case-insensitively.
func (r *TaxonomyRepository) FindTermByName(ctx context.Context, name string) (*core.TaxonomyTerm, error) {
	var result *core.TaxonomyTerm
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTermNameKey(name))
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

		result, err = readTerm(tx, makeTermKey(id))
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

// FindTermBySynonym resolves a synonym string to its owning canonical term.
func (r *TaxonomyRepository) FindTermBySynonym(ctx context.Context, synonym string) (*core.TaxonomyTerm, error) {
	var result *core.TaxonomyTerm
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSynonymNameKey(synonym))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var synID core.ID
		err = item.Value(func(val []byte) error {
			synID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		synItem, err := tx.Get(makeSynonymKey(synID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var syn *core.TaxonomySynonym
		err = synItem.Value(func(val []byte) error {
			syn, err = storage.UnmarshalSynonym(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readTerm(tx, makeTermKey(syn.TermId))
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

// AddSynonyms adds synonym links. Synonyms already present are skipped.
func (r *TaxonomyRepository) AddSynonyms(ctx context.Context, synonyms ...*core.TaxonomySynonym) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, syn := range synonyms {
			if syn.Id == 0 {
				syn.Id = core.SynonymIDFromName(syn.Synonym)
			}

			if _, err := tx.Get(makeSynonymKey(syn.Id)); err == nil {
				continue
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			syn.InsertedAt = time.Now().UTC()

			if err := tx.Set(makeSynonymKey(syn.Id), storage.MarshalSynonym(syn)); err != nil {
				return err
			}
			if err := tx.Set(makeSynonymNameKey(syn.Synonym), storage.MarshalID(syn.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetOrCreateTerm finds or creates a term by name.
// Content-based IDs make concurrent creation of the same term converge on a
// single record: the loser of the race finds the winner's record and returns
// it instead of duplicating.
func (r *TaxonomyRepository) GetOrCreateTerm(ctx context.Context, name, primaryCategory, subcategory string) (*core.TaxonomyTerm, error) {
	term, err := r.FindTermByName(ctx, name)
	if err == nil {
		return term, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	newTerm := &core.TaxonomyTerm{
		Id:              core.TermIDFromName(name),
		Term:            name,
		PrimaryCategory: primaryCategory,
		Subcategory:     subcategory,
	}

	added, err := r.AddTerms(ctx, newTerm)
	if err != nil {
		// Add failed; another writer may have created it first
		term, findErr := r.FindTermByName(ctx, name)
		if findErr == nil {
			return term, nil
		}
		return nil, err
	}

	return added[0], nil
}

// ListTerms retrieves all taxonomy terms.
func (r *TaxonomyRepository) ListTerms(ctx context.Context) ([]*core.TaxonomyTerm, error) {
	var results []*core.TaxonomyTerm
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(termPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var term *core.TaxonomyTerm
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				term, err = storage.UnmarshalTerm(val)
				return err
			}); err != nil {
				return err
			}
			if term != nil {
				results = append(results, term)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListTermsBySubcategory retrieves all terms with the given subcategory.
func (r *TaxonomyRepository) ListTermsBySubcategory(ctx context.Context, subcategory string) ([]*core.TaxonomyTerm, error) {
	return r.listByIndex(makeTermSubcategoryPrefix(subcategory))
}

// ListChildTerms retrieves the terms whose parent is the given term.
func (r *TaxonomyRepository) ListChildTerms(ctx context.Context, parentID core.ID) ([]*core.TaxonomyTerm, error) {
	return r.listByIndex(makeTermParentPrefix(parentID))
}

// listByIndex scans an index prefix whose values are term IDs and loads the
// referenced terms.
func (r *TaxonomyRepository) listByIndex(prefix []byte) ([]*core.TaxonomyTerm, error) {
	var results []*core.TaxonomyTerm
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			term, err := readTerm(tx, makeTermKey(id))
			if err != nil {
				return err
			}
			if term != nil {
				results = append(results, term)
			}
		}
		return nil
	}, false)
	return results, err
}
