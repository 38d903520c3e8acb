package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustings/canvass/ai/mock"
	"github.com/hustings/canvass/core"
	"github.com/hustings/canvass/storage"
	"github.com/hustings/canvass/storage/badger"
)

// stageResponses maps each stage's system prompt to a well-formed model
// reply, so a scripted analyzer can drive the whole pipeline.
func stageResponses() map[string]string {
	return map[string]string{
		coreMetadataSystemPrompt: `{
			"title": "Rivera for Council",
			"summary": "A mailer promoting Maria Rivera for city council.",
			"document_type": "mailer",
			"election_year": "2024",
			"language": "en"
		}`,
		classificationSystemPrompt: `{
			"category": "candidate promotion",
			"tone": "positive",
			"purpose": "introduce the candidate",
			"target_audience": "district voters"
		}`,
		entityExtractionSystemPrompt: `{
			"candidates": ["Maria Rivera"],
			"parties": [],
			"organizations": ["Rivera for Council"],
			"locations": ["4th district"],
			"dates": ["November 5th"]
		}`,
		textExtractionSystemPrompt: `{
			"full_text": "Maria Rivera for City Council. Safer streets, stronger schools.",
			"quotes": ["Safer streets, stronger schools."]
		}`,
		designElementsSystemPrompt: `{
			"colors": ["blue", "white"],
			"imagery": ["candidate photo"],
			"layout": "single column",
			"typography": "bold sans-serif"
		}`,
		taxonomyKeywordsSystemPrompt: `{
			"keywords": [
				{"term": "safer streets", "category": "Crime", "relevance": 0.9},
				{"term": "education funding", "category": "Education", "relevance": 0.6}
			]
		}`,
		communicationFocusSystemPrompt: `{
			"primary_issue": "public safety",
			"secondary_issues": ["education"],
			"messaging_strategy": "positive introduction"
		}`,
	}
}

// scriptedAnalyzer replies per stage and tracks calls per system prompt.
type scriptedAnalyzer struct {
	mu        sync.Mutex
	responses map[string]string
	failOn    map[string]error // system prompt -> error to return
	failOnce  map[string]error // consumed on first call
	calls     map[string]int
	block     bool // block until context cancellation
}

func newScriptedAnalyzer() *scriptedAnalyzer {
	return &scriptedAnalyzer{
		responses: stageResponses(),
		failOn:    make(map[string]error),
		failOnce:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *scriptedAnalyzer) analyze(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	s.mu.Lock()
	s.calls[systemPrompt]++
	block := s.block
	err, permanent := s.failOn[systemPrompt]
	onceErr, once := s.failOnce[systemPrompt]
	if once {
		delete(s.failOnce, systemPrompt)
	}
	resp := s.responses[systemPrompt]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if permanent {
		return nil, err
	}
	if once {
		return nil, onceErr
	}
	return []byte(resp), nil
}

func (s *scriptedAnalyzer) callCount(systemPrompt string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[systemPrompt]
}

type pipelineFixture struct {
	orchestrator *Orchestrator
	docs         storage.DocumentRepository
	terms        storage.TaxonomyRepository
	analyzer     *scriptedAnalyzer
	embedder     *mock.MockEmbedder
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.StageTimeout = 5 * time.Second
	cfg.Workers = 1
	return cfg
}

func setupPipeline(t *testing.T, cfg Config) *pipelineFixture {
	docRepo, taxRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	analyzer := newScriptedAnalyzer()
	mockAnalyzer := mock.NewMockAnalyzer()
	mockAnalyzer.AnalyzeFunc = analyzer.analyze
	mockEmbedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(mockAnalyzer, mockEmbedder)

	orchestrator, err := New(docRepo, taxRepo, provider, WithConfig(cfg))
	require.NoError(t, err)

	t.Cleanup(func() {
		orchestrator.Close()
		taxRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	return &pipelineFixture{
		orchestrator: orchestrator,
		docs:         docRepo,
		terms:        taxRepo,
		analyzer:     analyzer,
		embedder:     mockEmbedder,
	}
}

func (f *pipelineFixture) addDocument(t *testing.T, filename string) *core.Document {
	added, err := f.docs.AddDocuments(context.Background(), &core.Document{
		Filename: filename,
		Text:     "Maria Rivera for City Council. Safer streets, stronger schools.",
		Status:   core.StatusPending,
	})
	require.NoError(t, err)
	return added[0]
}

func TestProcessCompletesDocument(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	// Preload a canonical term so one keyword resolves via synonym
	added, err := f.terms.AddTerms(ctx, &core.TaxonomyTerm{Term: "public safety", PrimaryCategory: "Crime"})
	require.NoError(t, err)
	require.NoError(t, f.terms.AddSynonyms(ctx, &core.TaxonomySynonym{Synonym: "safer streets", TermId: added[0].Id}))

	doc := f.addDocument(t, "rivera-mailer.pdf")
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))

	processed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, processed.Status)
	assert.Equal(t, 100, processed.Progress)
	assert.Empty(t, processed.Error)
	assert.False(t, processed.ProcessedAt.IsZero())
	require.NoError(t, core.ValidateDocument(processed))

	assert.Equal(t, core.StageNames, processed.Analysis.CompletedStages())
	assert.Equal(t, "mailer", processed.Analysis.CoreMetadata.DocumentType)

	// safer streets resolved via synonym; education funding auto-created
	assert.Equal(t, []string{"public safety", "education funding"}, processed.Keywords)
	assert.Equal(t, []string{"Crime", "Education"}, processed.Categories)
	createdTerm, err := f.terms.FindTermByName(ctx, "education funding")
	require.NoError(t, err)
	assert.Equal(t, "Education", createdTerm.PrimaryCategory)

	assert.NotEmpty(t, processed.Vector)
	assert.Contains(t, processed.SearchText, "Rivera for Council")
}

func TestProcessPermanentStageFailure(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.analyzer.failOn[entityExtractionSystemPrompt] = errors.New("model unavailable")

	doc := f.addDocument(t, "broken.pdf")
	err := f.orchestrator.Process(ctx, doc.Id)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, core.StageEntityExtraction, stageErr.Stage)
	assert.ErrorIs(t, err, ErrProvider)

	failed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, core.StageEntityExtraction)
	require.NoError(t, core.ValidateDocument(failed))

	// Earlier stage outputs survive the failure
	assert.Equal(t, []string{core.StageCoreMetadata, core.StageClassification},
		failed.Analysis.CompletedStages())

	// Retried once before giving up
	assert.Equal(t, 2, f.analyzer.callCount(entityExtractionSystemPrompt))
}

func TestProcessStageTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.StageTimeout = 20 * time.Millisecond
	f := setupPipeline(t, cfg)
	ctx := context.Background()

	// The analyzer hangs until its context is cancelled, so every attempt
	// runs into the stage deadline
	f.analyzer.block = true

	doc := f.addDocument(t, "slow.pdf")
	err := f.orchestrator.Process(ctx, doc.Id)
	require.Error(t, err)

	// A stage deadline is a provider failure, not a caller cancellation
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrCancelled)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, core.StageCoreMetadata, stageErr.Stage)

	failed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "timed out")
	require.NoError(t, core.ValidateDocument(failed))

	// The deadline follows the same retry bound as any other stage failure
	assert.Equal(t, 2, f.analyzer.callCount(coreMetadataSystemPrompt))
}

func TestProcessRetriesTransientFailure(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.analyzer.failOnce[classificationSystemPrompt] = errors.New("timeout")

	doc := f.addDocument(t, "flaky.pdf")
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))

	processed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, processed.Status)
	assert.Equal(t, 2, f.analyzer.callCount(classificationSystemPrompt))
}

func TestProcessResumesAfterFailure(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.analyzer.failOn[entityExtractionSystemPrompt] = errors.New("model unavailable")
	doc := f.addDocument(t, "resume.pdf")
	require.Error(t, f.orchestrator.Process(ctx, doc.Id))

	// Clear the fault and run again: completed stages are not re-executed
	delete(f.analyzer.failOn, entityExtractionSystemPrompt)
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))

	processed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, processed.Status)
	assert.Equal(t, 1, f.analyzer.callCount(coreMetadataSystemPrompt))
	assert.Equal(t, 1, f.analyzer.callCount(classificationSystemPrompt))
}

func TestProcessCompletedIsNoop(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	doc := f.addDocument(t, "done.pdf")
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))
	firstCalls := f.analyzer.callCount(coreMetadataSystemPrompt)

	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))
	assert.Equal(t, firstCalls, f.analyzer.callCount(coreMetadataSystemPrompt))
}

func TestReprocess(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	doc := f.addDocument(t, "redo.pdf")
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))

	// Completed documents are protected
	err := f.orchestrator.Reprocess(ctx, doc.Id, false)
	assert.ErrorIs(t, err, ErrReprocessCompleted)

	require.NoError(t, f.orchestrator.Reprocess(ctx, doc.Id, true))
	assert.Equal(t, 2, f.analyzer.callCount(coreMetadataSystemPrompt))

	processed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, processed.Status)
}

func TestCancelInFlight(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.analyzer.block = true
	doc := f.addDocument(t, "slow.pdf")

	processErr := make(chan error, 1)
	go func() {
		processErr <- f.orchestrator.Process(ctx, doc.Id)
	}()

	// Wait for the pipeline to own the document
	require.Eventually(t, func() bool {
		d, err := f.docs.GetDocument(ctx, doc.Id)
		return err == nil && d.Status == core.StatusProcessing
	}, 5*time.Second, 10*time.Millisecond)

	// A second invocation is rejected while the first owns the document
	assert.ErrorIs(t, f.orchestrator.Process(ctx, doc.Id), ErrAlreadyProcessing)

	require.NoError(t, f.orchestrator.Cancel(doc.Id))

	select {
	case err := <-processErr:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("process did not return after cancellation")
	}

	cancelled, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, cancelled.Status)
	assert.Contains(t, cancelled.Error, "cancelled")

	// Nothing in flight anymore
	assert.ErrorIs(t, f.orchestrator.Cancel(doc.Id), ErrNotProcessing)
}

func TestStuck(t *testing.T) {
	cfg := testConfig()
	cfg.StuckThreshold = time.Nanosecond
	f := setupPipeline(t, cfg)
	ctx := context.Background()

	doc := f.addDocument(t, "stalled.pdf")
	require.NoError(t, f.docs.UpdateDocumentStatus(ctx, doc.Id, core.StatusProcessing, 29, ""))
	time.Sleep(10 * time.Millisecond)

	stuck, err := f.orchestrator.Stuck(ctx)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "stalled.pdf", stuck[0].Filename)
}

func TestStuckRespectsThreshold(t *testing.T) {
	f := setupPipeline(t, testConfig()) // default 2h threshold
	ctx := context.Background()

	doc := f.addDocument(t, "recent.pdf")
	require.NoError(t, f.docs.UpdateDocumentStatus(ctx, doc.Id, core.StatusProcessing, 29, ""))

	stuck, err := f.orchestrator.Stuck(ctx)
	require.NoError(t, err)
	assert.Empty(t, stuck, "a recently updated document is not stuck")
}

func TestProcessPending(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.addDocument(t, "one.pdf")
	f.addDocument(t, "two.pdf")
	f.addDocument(t, "three.pdf")

	processed, err := f.orchestrator.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	completed, err := f.docs.ListDocumentsByStatus(ctx, core.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 3)

	pending, err := f.docs.ListDocumentsByStatus(ctx, core.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEmbeddingFailureIsNotFatal(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	doc := f.addDocument(t, "novector.pdf")
	require.NoError(t, f.orchestrator.Process(ctx, doc.Id))

	processed, err := f.docs.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, processed.Status)
	assert.Empty(t, processed.Vector)
	assert.NotEmpty(t, processed.SearchText, "text search still works without a vector")
}

func TestProcessMalformedStageOutput(t *testing.T) {
	f := setupPipeline(t, testConfig())
	ctx := context.Background()

	f.analyzer.responses[classificationSystemPrompt] = `{"category": "attack"}`

	doc := f.addDocument(t, "badjson.pdf")
	err := f.orchestrator.Process(ctx, doc.Id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	failed, _ := f.docs.GetDocument(ctx, doc.Id)
	assert.Equal(t, core.StatusFailed, failed.Status)
	assert.True(t, strings.Contains(failed.Error, core.StageClassification))
}

func TestNewValidation(t *testing.T) {
	docRepo, taxRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { taxRepo.Close(); docRepo.Close(); backend.Close() }()

	provider := mock.NewMockProvider()

	_, err = New(nil, taxRepo, provider)
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = New(docRepo, nil, provider)
	assert.ErrorIs(t, err, ErrTaxonomyRepositoryRequired)

	_, err = New(docRepo, taxRepo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = New(docRepo, taxRepo, provider, WithConfig(Config{Workers: 0, StageTimeout: time.Second}))
	assert.Error(t, err)
}
