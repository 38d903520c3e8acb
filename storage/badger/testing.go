package badger

import "github.com/hustings/canvass/storage"

// NewMemoryRepositories creates in-memory document and taxonomy repositories
// for testing. Returns docRepo, taxonomyRepo, backend, and error.
// Caller must close both repos and backend when done.
func NewMemoryRepositories() (storage.DocumentRepository, storage.TaxonomyRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	taxonomyRepo, err := NewTaxonomyRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return docRepo, taxonomyRepo, backend, nil
}
