package canvass

import (
	"context"
	"log/slog"

	"github.com/hustings/canvass/ai"
	"github.com/hustings/canvass/ai/openai"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/pipeline"
	"github.com/hustings/canvass/search"
	"github.com/hustings/canvass/storage"
	"github.com/hustings/canvass/storage/badger"
	"github.com/hustings/canvass/taxonomy"
)

// Archive bundles the storage backend, repositories, and AI provider behind
// one handle. It is the embedding application's entry point; the packages
// underneath remain usable directly.
type Archive struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	taxRepo  storage.TaxonomyRepository
	provider ai.Provider
	logger   *slog.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*archiveOptions)

type archiveOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) ArchiveOption {
	return func(o *archiveOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing one
// from config. Used by tests to inject mocks.
func WithProvider(provider ai.Provider) ArchiveOption {
	return func(o *archiveOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory, discarding data on
// close.
func WithInMemory() ArchiveOption {
	return func(o *archiveOptions) {
		o.inMemory = true
	}
}

// NewArchive opens the document archive at filePath.
func NewArchive(filePath string, opts ...ArchiveOption) (*Archive, error) {
	options := &archiveOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	taxRepo, err := badger.NewTaxonomyRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Archive{
		backend:  backend,
		docRepo:  docRepo,
		taxRepo:  taxRepo,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (a *Archive) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the underlying document store.
func (a *Archive) DocumentRepository() storage.DocumentRepository {
	return a.docRepo
}

// TaxonomyRepository exposes the underlying taxonomy store.
func (a *Archive) TaxonomyRepository() storage.TaxonomyRepository {
	return a.taxRepo
}

// Ingest registers documents for analysis. Each document gets a
// content-based ID derived from its filename and starts in the pending
// state.
func (a *Archive) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if doc.Status == 0 {
			doc.Status = core.StatusPending
		}
	}
	return a.docRepo.AddDocuments(ctx, docs...)
}

// NewOrchestrator creates an analysis pipeline bound to the archive's
// repositories and provider.
func (a *Archive) NewOrchestrator(opts ...pipeline.Option) (*pipeline.Orchestrator, error) {
	return pipeline.New(a.docRepo, a.taxRepo, a.provider, opts...)
}

// NewSearchEngine creates a search engine bound to the archive's
// repositories and provider.
func (a *Archive) NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(a.docRepo, a.taxRepo, a.provider, opts...)
}

// NewNormalizer creates a keyword normalizer bound to the archive's
// taxonomy repository.
func (a *Archive) NewNormalizer(opts ...taxonomy.Option) (*taxonomy.Normalizer, error) {
	return taxonomy.NewNormalizer(a.taxRepo, opts...)
}
