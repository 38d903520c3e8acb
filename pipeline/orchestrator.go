package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/hustings/canvass/ai"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
	"github.com/hustings/canvass/taxonomy"
)

// Config holds the orchestration knobs for the analysis pipeline.
type Config struct {
	// StageRetries is the number of retries after a failed stage attempt.
	StageRetries int

	// RetryBaseDelay is the backoff delay before the first retry. Doubles
	// on each subsequent retry.
	RetryBaseDelay time.Duration

	// StageTimeout bounds a single stage attempt, including the model call.
	StageTimeout time.Duration

	// Workers is the size of the worker pool used by ProcessPending.
	Workers int

	// StuckThreshold is how long a document may sit in the processing state
	// without an update before Stuck reports it.
	StuckThreshold time.Duration

	// AutoCreateTerms controls whether unmatched keywords create new
	// taxonomy terms during normalization.
	AutoCreateTerms bool
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		StageRetries:    1,
		RetryBaseDelay:  2 * time.Second,
		StageTimeout:    300 * time.Second,
		Workers:         3,
		StuckThreshold:  2 * time.Hour,
		AutoCreateTerms: true,
	}
}

// Orchestrator drives documents through the ordered analysis stages,
// persisting progress incrementally and enforcing single ownership per
// document. All methods are safe for concurrent use.
type Orchestrator struct {
	docs       storage.DocumentRepository
	terms      storage.TaxonomyRepository
	provider   ai.Provider
	runner     *stageRunner
	normalizer *taxonomy.Normalizer
	pool       *ants.Pool
	cfg        Config
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[core.ID]*procHandle
}

// procHandle tracks one in-flight pipeline invocation.
type procHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) error {
		if cfg.StageRetries < 0 {
			return fmt.Errorf("stage retries must be >= 0, got %d", cfg.StageRetries)
		}
		if cfg.Workers < 1 {
			return fmt.Errorf("workers must be >= 1, got %d", cfg.Workers)
		}
		if cfg.StageTimeout <= 0 {
			return fmt.Errorf("stage timeout must be positive, got %s", cfg.StageTimeout)
		}
		o.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates a pipeline orchestrator.
func New(docs storage.DocumentRepository, terms storage.TaxonomyRepository, provider ai.Provider, opts ...Option) (*Orchestrator, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if terms == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	o := &Orchestrator{
		docs:     docs,
		terms:    terms,
		provider: provider,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		inflight: make(map[core.ID]*procHandle),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	normalizer, err := taxonomy.NewNormalizer(terms,
		taxonomy.WithAutoCreate(o.cfg.AutoCreateTerms),
		taxonomy.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	o.normalizer = normalizer

	pool, err := ants.NewPool(o.cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	o.pool = pool
	o.runner = newStageRunner(provider.Analyzer(), o.cfg.StageTimeout)

	return o, nil
}

// Close releases the worker pool. In-flight invocations are not cancelled;
// call Cancel per document first if needed.
func (o *Orchestrator) Close() error {
	o.pool.Release()
	return nil
}

// Process runs the analysis pipeline for one document. Completed documents
// are a no-op; failed documents resume from their first missing stage.
// Returns ErrAlreadyProcessing if another invocation owns the document.
func (o *Orchestrator) Process(ctx context.Context, id core.ID) error {
	doc, err := o.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if doc.Status == core.StatusCompleted {
		o.logger.Debug("document already completed, skipping", "id", doc.Id, "filename", doc.Filename)
		return nil
	}

	return o.runOwned(ctx, doc)
}

// Reprocess clears a document's analysis and runs the full pipeline again.
// Completed documents require force; pending and failed documents reprocess
// unconditionally.
func (o *Orchestrator) Reprocess(ctx context.Context, id core.ID, force bool) error {
	doc, err := o.docs.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if doc.Status == core.StatusCompleted && !force {
		return ErrReprocessCompleted
	}

	doc.Analysis = core.AnalysisRecord{}
	doc.Keywords = nil
	doc.Categories = nil
	doc.Vector = nil
	doc.SearchText = ""
	doc.Error = ""

	return o.runOwned(ctx, doc)
}

// Cancel stops the in-flight pipeline invocation for a document and waits
// for it to release the document. Returns ErrNotProcessing if no invocation
// owns the document.
func (o *Orchestrator) Cancel(id core.ID) error {
	o.mu.Lock()
	h, ok := o.inflight[id]
	o.mu.Unlock()
	if !ok {
		return ErrNotProcessing
	}

	h.cancel()
	<-h.done
	return nil
}

// Stuck lists documents that have sat in the processing state past the
// configured threshold, most stale first. These are invocations that died
// without reaching a terminal status; Reprocess recovers them.
func (o *Orchestrator) Stuck(ctx context.Context) ([]*core.Document, error) {
	cutoff := time.Now().Add(-o.cfg.StuckThreshold)
	return o.docs.ListStaleProcessing(ctx, cutoff)
}

// ProcessPending runs the pipeline for every pending document using the
// worker pool, bounded at the configured concurrency. It blocks until all
// submitted documents finish and returns the number processed successfully
// along with the first error encountered, if any.
func (o *Orchestrator) ProcessPending(ctx context.Context) (int, error) {
	pending, err := o.docs.ListDocumentsByStatus(ctx, core.StatusPending)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		ok       int
	)

	for _, doc := range pending {
		doc := doc
		wg.Add(1)
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			if err := o.runOwned(ctx, doc); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("document %s: %w", doc.Filename, err)
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	return ok, firstErr
}

// runOwned acquires ownership of the document, runs the pipeline, and
// releases ownership when done.
func (o *Orchestrator) runOwned(ctx context.Context, doc *core.Document) error {
	runCtx, h, err := o.acquire(ctx, doc.Id)
	if err != nil {
		return err
	}
	defer o.release(doc.Id, h)

	return o.run(runCtx, doc)
}

// acquire registers an in-flight invocation for the document. The returned
// context is cancelled by Cancel.
func (o *Orchestrator) acquire(ctx context.Context, id core.ID) (context.Context, *procHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.inflight[id]; ok {
		return nil, nil, ErrAlreadyProcessing
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &procHandle{cancel: cancel, done: make(chan struct{})}
	o.inflight[id] = h
	return runCtx, h, nil
}

func (o *Orchestrator) release(id core.ID, h *procHandle) {
	o.mu.Lock()
	delete(o.inflight, id)
	o.mu.Unlock()
	h.cancel()
	close(h.done)
}

// run executes the ordered stages for the document. Each stage's output is
// persisted before the next stage starts, so a crash or failure loses at
// most one stage of work. Stages that already have recorded output are
// skipped, which makes resuming a failed document cheap.
func (o *Orchestrator) run(ctx context.Context, doc *core.Document) error {
	logger := o.logger.With("id", doc.Id, "filename", doc.Filename)
	logger.Info("starting pipeline")

	doc.Status = core.StatusProcessing
	doc.Progress = progressAfter(len(doc.Analysis.CompletedStages()))
	doc.Error = ""
	if _, err := o.docs.UpdateDocuments(ctx, doc); err != nil {
		return err
	}

	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return o.fail(doc, st.name, ErrCancelled, logger)
		}

		if doc.Analysis.StageDone(st.name) {
			logger.Debug("stage already complete, skipping", "stage", st.name)
			continue
		}

		attempts := o.cfg.StageRetries + 1
		err := retryWithBackoff(ctx, func() error {
			return o.runner.run(ctx, st, doc, &doc.Analysis)
		}, attempts, o.cfg.RetryBaseDelay, logger.With("stage", st.name))
		if err != nil {
			if ctx.Err() != nil {
				return o.fail(doc, st.name, ErrCancelled, logger)
			}
			return o.fail(doc, st.name, err, logger)
		}

		logger.Debug("stage complete", "stage", st.name)

		// The final stage's progress lands with the completed status below.
		if i < len(stages)-1 {
			doc.Progress = progressAfter(i + 1)
			if _, err := o.docs.UpdateDocuments(ctx, doc); err != nil {
				return err
			}
		}
	}

	if err := o.finalize(ctx, doc, logger); err != nil {
		if ctx.Err() != nil {
			return o.fail(doc, "finalize", ErrCancelled, logger)
		}
		return o.fail(doc, "finalize", err, logger)
	}

	logger.Info("pipeline complete", "keywords", len(doc.Keywords))
	return nil
}

// finalize normalizes keywords, rebuilds the search digest, embeds it, and
// marks the document completed. Embedding failure is logged but not fatal:
// the document completes without a vector and falls back to text search.
func (o *Orchestrator) finalize(ctx context.Context, doc *core.Document, logger *slog.Logger) error {
	if ka := doc.Analysis.TaxonomyKeywords; ka != nil {
		resolved, keywords, categories, err := o.normalizer.Normalize(ctx, ka.Mappings)
		if err != nil {
			return err
		}
		ka.Mappings = resolved
		doc.Keywords = keywords
		doc.Categories = categories
	}

	doc.SearchText = core.BuildSearchText(doc)

	attempts := o.cfg.StageRetries + 1
	err := retryWithBackoff(ctx, func() error {
		vector, embedErr := o.provider.Embedder().EmbedText(ctx, doc.SearchText)
		if embedErr != nil {
			return embedErr
		}
		doc.Vector = vector
		return nil
	}, attempts, o.cfg.RetryBaseDelay, logger)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		logger.Warn("embedding failed, completing without vector", "error", err)
		doc.Vector = nil
	}

	doc.Status = core.StatusCompleted
	doc.Progress = 100
	doc.Error = ""
	doc.ProcessedAt = time.Now()

	_, updateErr := o.docs.UpdateDocuments(ctx, doc)
	return updateErr
}

// fail records a terminal failure with the failing stage in the error
// reason. Completed stage outputs persisted so far are kept.
func (o *Orchestrator) fail(doc *core.Document, stageName string, cause error, logger *slog.Logger) error {
	stageErr := &StageError{Stage: stageName, Err: cause}
	logger.Warn("pipeline failed", "stage", stageName, "error", cause)

	doc.Status = core.StatusFailed
	doc.Error = stageErr.Error()

	// Best-effort persist with a fresh context: the run context may already
	// be cancelled and the failure must still be recorded.
	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := o.docs.UpdateDocuments(persistCtx, doc); err != nil && !errors.Is(err, storage.ErrStorageClosed) {
		logger.Error("failed to persist failure status", "error", err)
	}

	return stageErr
}

// progressAfter converts a completed-stage count into a whole percentage.
// Capped below 100: full progress is only recorded together with the
// completed status.
func progressAfter(done int) int {
	if done <= 0 {
		return 0
	}
	if done >= len(stages) {
		done = len(stages) - 1
	}
	return int(math.Round(100 * float64(done) / float64(len(stages))))
}
