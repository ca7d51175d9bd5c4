package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/citeright/citeright/internal/aggregate"
	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/observability"
)

// Advisory review bodies for the no_papers terminal state. The wording
// distinguishes "nothing relevant found" from "the search source was
// down" so the user knows whether retrying the same input makes sense.
const (
	NoPapersMessage        = "No relevant papers found. Try different keywords or add seed papers."
	RetrievalFailedMessage = "The paper search could not be completed because the search service was unavailable. Please try again later."
)

// Request carries the inputs of one pipeline run.
type Request struct {
	// Title is the research paper title.
	Title string `validate:"required"`

	// Problem is the problem statement or research notes.
	Problem string `validate:"required"`

	// SeedIDs are optional arXiv identifiers or URLs of papers that
	// must appear in the result set.
	SeedIDs []string
}

// Snapshot is the immutable state published after every transition.
// Each transition produces a fresh value; observers never see partial
// mutations.
type Snapshot struct {
	// RunID uniquely identifies the pipeline run.
	RunID string `json:"run_id"`

	// Status is the current run state.
	Status Status `json:"status"`

	// Title and Problem echo the run inputs.
	Title   string `json:"title"`
	Problem string `json:"problem"`

	// Keywords is the derived keyword set, populated after derivation.
	Keywords []string `json:"keywords"`

	// Papers is the ranked paper set, populated after aggregation.
	Papers []*domain.Paper `json:"papers"`

	// Review is the synthesized review text, or an advisory message in
	// the no_papers state.
	Review string `json:"review"`

	// Progress is the run progress from 0 to 100.
	Progress int `json:"progress"`

	// Message is a human-readable description of the current step.
	Message string `json:"status_message"`

	// Err carries the error description in the error state.
	Err string `json:"error,omitempty"`
}

// ProgressFunc receives every published snapshot, synchronously and in
// transition order. It runs on the pipeline's goroutine and must not
// block indefinitely.
type ProgressFunc func(Snapshot)

// KeywordDeriver derives search terms from the run inputs.
type KeywordDeriver interface {
	Derive(ctx context.Context, title, problem string) ([]string, error)
}

// PaperAggregator retrieves and ranks the candidate paper set.
type PaperAggregator interface {
	Aggregate(ctx context.Context, keywords, seedIDs []string) aggregate.Result
}

// ReviewSynthesizer produces the review text.
type ReviewSynthesizer interface {
	Synthesize(ctx context.Context, problem string, papers []*domain.Paper) string
}

// Orchestrator runs the three pipeline stages strictly in sequence and
// tracks the latest snapshot. Stages never overlap; seed fetches and
// scoring inside the stages are sequential as well. An Orchestrator may
// be reused across runs but runs one Process call at a time.
type Orchestrator struct {
	deriver     KeywordDeriver
	aggregator  PaperAggregator
	synthesizer ReviewSynthesizer
	validate    *validator.Validate
	metrics     *observability.Metrics
	logger      zerolog.Logger

	mu      sync.Mutex
	current Snapshot
}

// NewOrchestrator creates an Orchestrator over the three stage
// implementations. The metrics may be nil.
func NewOrchestrator(deriver KeywordDeriver, aggregator PaperAggregator, synthesizer ReviewSynthesizer, metrics *observability.Metrics, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		deriver:     deriver,
		aggregator:  aggregator,
		synthesizer: synthesizer,
		validate:    validator.New(),
		metrics:     metrics,
		logger:      logger.With().Str("component", "orchestrator").Logger(),
		current:     Snapshot{Status: StatusIdle},
	}
}

// State returns a copy of the latest published snapshot. Safe to call
// from another goroutine while a run is in flight.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Process runs the full pipeline for the given request and returns the
// terminal snapshot. The callback, when non-nil, is invoked
// synchronously after every state transition with the full current
// snapshot. Process itself never returns an error: validation and
// stage failures terminate the run in the error state, and an empty
// aggregation terminates it in no_papers.
func (o *Orchestrator) Process(ctx context.Context, req Request, callback ProgressFunc) Snapshot {
	start := time.Now()
	run := newRun(o, req, callback)

	if o.metrics != nil {
		o.metrics.RecordRunStarted()
	}
	run.logger.Info().Str("title", req.Title).Int("seed_count", len(req.SeedIDs)).Msg("pipeline run started")

	run.publish(StatusProcessing, 0, "Starting process...")

	if err := o.validate.Struct(req); err != nil {
		return run.fail(start, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}

	// Stage 1: keyword derivation.
	run.publish(StatusProcessing, 10, "Generating keywords...")
	stageStart := time.Now()
	keywords, err := o.deriver.Derive(observability.WithStage(ctx, "keywords"), req.Title, req.Problem)
	if err != nil {
		return run.fail(start, err)
	}
	o.recordStage(run.logger, "keywords", stageStart)
	if o.metrics != nil {
		o.metrics.RecordKeywordsDerived(len(keywords))
	}
	run.snapshot.Keywords = keywords
	run.publish(StatusProcessing, 30, fmt.Sprintf("Generated %d keywords", len(keywords)))

	// Stage 2: paper aggregation.
	run.publish(StatusProcessing, 40, "Searching for relevant papers...")
	stageStart = time.Now()
	result := o.aggregator.Aggregate(observability.WithStage(ctx, "aggregate"), keywords, req.SeedIDs)
	o.recordStage(run.logger, "aggregate", stageStart)
	if o.metrics != nil {
		o.metrics.RecordAggregation(result.Retrieved, result.Duplicates, result.FilteredOut, len(result.Papers))
	}

	if len(result.Papers) == 0 {
		message := "No papers found for the given keywords"
		review := NoPapersMessage
		if result.RetrievalFailed {
			message = "Paper search failed"
			review = RetrievalFailedMessage
			run.logger.Warn().Err(result.RetrievalErr).Msg("retrieval failed, ending run without papers")
		}
		run.snapshot.Review = review
		run.publish(StatusNoPapers, 50, message)
		if o.metrics != nil {
			o.metrics.RecordRunNoPapers(time.Since(start).Seconds())
		}
		return run.snapshot
	}

	run.snapshot.Papers = result.Papers
	run.publish(StatusProcessing, 60, fmt.Sprintf("Found %d relevant papers", len(result.Papers)))

	// Stage 3: review synthesis. Model failures arrive as review
	// content, never as an error.
	run.publish(StatusProcessing, 70, "Generating literature review...")
	stageStart = time.Now()
	run.snapshot.Review = o.synthesizer.Synthesize(observability.WithStage(ctx, "review"), req.Problem, result.Papers)
	o.recordStage(run.logger, "review", stageStart)

	run.publish(StatusCompleted, 100, "Literature review completed")
	if o.metrics != nil {
		o.metrics.RecordRunCompleted(time.Since(start).Seconds())
	}
	run.logger.Info().Int("paper_count", len(result.Papers)).Msg("pipeline run completed")
	return run.snapshot
}

func (o *Orchestrator) recordStage(logger zerolog.Logger, stage string, start time.Time) {
	stageLogger := observability.WithStageContext(logger, stage)
	stageLogger.Debug().
		Dur("duration", time.Since(start)).
		Msg("stage complete")
	if o.metrics != nil {
		o.metrics.RecordStageDuration(stage, time.Since(start).Seconds())
	}
}

// run tracks the in-flight snapshot of one Process call.
type run struct {
	orch     *Orchestrator
	snapshot Snapshot
	callback ProgressFunc
	logger   zerolog.Logger
}

func newRun(o *Orchestrator, req Request, callback ProgressFunc) *run {
	runID := uuid.NewString()
	return &run{
		orch: o,
		snapshot: Snapshot{
			RunID:   runID,
			Status:  StatusProcessing,
			Title:   req.Title,
			Problem: req.Problem,
		},
		callback: callback,
		logger:   observability.WithRunContext(o.logger, runID),
	}
}

// publish stores the new snapshot as the orchestrator's current state
// and invokes the progress callback with it.
func (r *run) publish(status Status, progress int, message string) {
	r.snapshot.Status = status
	r.snapshot.Progress = progress
	r.snapshot.Message = message

	r.orch.mu.Lock()
	r.orch.current = r.snapshot
	r.orch.mu.Unlock()

	r.logger.Debug().
		Str("status", status.String()).
		Int("progress", progress).
		Msg(message)

	if r.callback != nil {
		r.callback(r.snapshot)
	}
}

// fail transitions to the terminal error state, preserving the
// progress value the run had reached.
func (r *run) fail(start time.Time, err error) Snapshot {
	r.logger.Error().Err(err).Msg("pipeline run failed")
	r.snapshot.Err = err.Error()
	r.publish(StatusError, r.snapshot.Progress, fmt.Sprintf("Error: %v", err))
	if r.orch.metrics != nil {
		r.orch.metrics.RecordRunFailed(time.Since(start).Seconds())
	}
	return r.snapshot
}
