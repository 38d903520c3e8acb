package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hustings/canvass/ai"
	"github.com/hustings/canvass/core"
)

// stageRunner executes a single stage against the analyzer with a per-stage
// timeout. Provider failures and malformed output come back wrapped in
// ErrProvider or ErrValidation so the orchestrator can classify them.
type stageRunner struct {
	analyzer ai.Analyzer
	timeout  time.Duration
}

func newStageRunner(analyzer ai.Analyzer, timeout time.Duration) *stageRunner {
	return &stageRunner{analyzer: analyzer, timeout: timeout}
}

// run executes one stage for the document and records its output on success.
// The analysis record is only mutated when the output parses and validates.
func (r *stageRunner) run(ctx context.Context, st stage, doc *core.Document, rec *core.AnalysisRecord) error {
	stageCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.analyzer.Analyze(stageCtx, st.system, st.user(doc, rec.Digest()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: stage timed out after %s", ErrProvider, r.timeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return st.parse(raw, rec)
}
