package debate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/llms"
	"github.com/kadirpekel/debaterag/pkg/rag"
)

// previewLimit bounds chunk excerpts in the retrieval summary step.
// Presentation only: agents always receive the full chunk text.
const previewLimit = 200

// RetrieverFactory builds a fresh retriever index. Called once per run so
// no index state is shared between sessions.
type RetrieverFactory func(ctx context.Context) (rag.Retriever, error)

// Engine drives the staged debate pipeline: setup, indexing, retrieval,
// per-document evidence gathering, ambiguity detection, peer-informed debate
// rounds and final synthesis.
//
// The pipeline is inherently sequential: every completion call depends on
// the output of the stage before it, so the engine issues exactly one call
// at a time and emits steps in strict production order.
type Engine struct {
	cfg        config.DebateConfig
	llm        llms.Provider
	chunker    *rag.Chunker
	retrievers RetrieverFactory
}

// New creates a debate engine. The completion provider and retriever factory
// are required; their absence is a configuration error.
func New(cfg config.DebateConfig, llm llms.Provider, retrievers RetrieverFactory) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: completion provider is required", ErrConfiguration)
	}
	if retrievers == nil {
		return nil, fmt.Errorf("%w: retriever factory is required", ErrConfiguration)
	}

	chunker, err := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &Engine{
		cfg:        cfg,
		llm:        llm,
		chunker:    chunker,
		retrievers: retrievers,
	}, nil
}

// Stream validates the input synchronously, then runs the pipeline on its
// own goroutine, relaying each event in production order on the returned
// channel. The channel closes after the terminal "done" or "error" event;
// the closed channel is the only end-of-stream sentinel.
//
// Cancelling ctx stops the relay. An in-flight completion call is not
// interrupted mid-request beyond context propagation; its result is
// discarded.
func (e *Engine) Stream(ctx context.Context, documents []string, query string, opts Options) (<-chan Event, error) {
	opts = e.fillOptions(opts)
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, inputErrorf("query must not be empty")
	}

	docs := cleanDocuments(documents)
	if len(docs) == 0 {
		return nil, inputErrorf("at least one non-empty document is required")
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		e.produce(ctx, events, docs, query, opts)
	}()

	return events, nil
}

// Run is the batched form: it drains the stream, buffering steps, and
// returns after the terminal event. Validation and failure semantics are
// identical to Stream.
func (e *Engine) Run(ctx context.Context, documents []string, query string, opts Options) (*Result, error) {
	events, err := e.Stream(ctx, documents, query, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Query: query, Steps: []Step{}}
	for event := range events {
		switch event.Event {
		case EventStep:
			result.Steps = append(result.Steps, *event.Data)
		case EventDone:
			result.FinalAnswer = event.FinalAnswer
			if event.Stats != nil {
				result.Stats = *event.Stats
			}
			return result, nil
		case EventError:
			if event.Err != nil {
				return nil, event.Err
			}
			return nil, fmt.Errorf("%s", event.Detail)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("stream closed without a terminal event")
}

func (e *Engine) produce(ctx context.Context, out chan<- Event, docs []rag.Document, query string, opts Options) {
	emit := func(event Event) bool {
		select {
		case out <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}
	step := func(s Step) bool {
		return emit(Event{Event: EventStep, Data: &s})
	}
	fail := func(err error) {
		emit(Event{Event: EventError, Detail: err.Error(), Err: err})
	}

	chunks := e.chunker.Split(docs)

	if !step(Step{
		Stage:   StageSetup,
		Speaker: "System",
		Message: fmt.Sprintf("Received %d documents. Split into %d chunks.", len(docs), len(chunks)),
	}) {
		return
	}

	if !step(Step{
		Stage:   StageIndexing,
		Speaker: "Indexer",
		Message: "Embedding documents for retrieval...",
	}) {
		return
	}

	retriever, err := e.retrievers(ctx)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrRetrieval, err))
		return
	}

	embedStart := time.Now()
	if err := retriever.Index(ctx, chunks); err != nil {
		fail(fmt.Errorf("%w: %v", ErrRetrieval, err))
		return
	}
	embedSeconds := time.Since(embedStart).Seconds()

	k := opts.TopK
	if k > len(chunks) {
		k = len(chunks)
	}
	retrieved, err := retriever.Search(ctx, query, k)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrRetrieval, err))
		return
	}

	if !step(Step{
		Stage:   StageSetup,
		Speaker: "System",
		Message: fmt.Sprintf("Retrieved %d chunks for the query.", len(retrieved)),
	}) {
		return
	}

	lines := make([]string, 0, len(retrieved))
	for i, chunk := range retrieved {
		lines = append(lines, fmt.Sprintf("[%d] Doc %d: %s", i+1, chunk.DocID, compact(chunk.Text, previewLimit)))
	}
	summary := "No chunks retrieved."
	if len(lines) > 0 {
		summary = strings.Join(lines, "\n")
	}
	if !step(Step{
		Stage:   StageRetrieval,
		Speaker: "Retriever",
		Message: summary,
	}) {
		return
	}

	// Round 0: one evidence answer per retrieved chunk, each agent
	// constrained to its own chunk.
	answers := make([]string, 0, len(retrieved))
	for i, chunk := range retrieved {
		answer, err := e.llm.Complete(ctx, opts.Model, evidencePrompt(query, chunk.Text))
		if err != nil {
			fail(fmt.Errorf("%w: %v", ErrCompletion, err))
			return
		}
		answers = append(answers, answer)

		round, docID := 0, chunk.DocID
		if !step(Step{
			Stage:   StageEvidence,
			Speaker: fmt.Sprintf("Doc Agent %d", i+1),
			Message: answer,
			Round:   &round,
			DocID:   &docID,
		}) {
			return
		}
	}

	guidance, err := e.llm.Complete(ctx, opts.Model, ambiguityPrompt(query, answers))
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrCompletion, err))
		return
	}
	round0 := 0
	if !step(Step{
		Stage:   StageAmbiguity,
		Speaker: "Ambiguity Solver",
		Message: guidance,
		Round:   &round0,
	}) {
		return
	}

	// Debate rounds: each agent refines its answer from the previous
	// round's full peer set plus the current ambiguity guidance, then the
	// guidance itself is recomputed from the new answers.
	for round := 1; round <= opts.Rounds; round++ {
		previous := answers
		answers = make([]string, 0, len(retrieved))

		for i, chunk := range retrieved {
			answer, err := e.llm.Complete(ctx, opts.Model, debatePrompt(query, chunk.Text, previous, guidance))
			if err != nil {
				fail(fmt.Errorf("%w: %v", ErrCompletion, err))
				return
			}
			answers = append(answers, answer)

			r, docID := round, chunk.DocID
			if !step(Step{
				Stage:   StageDebate,
				Speaker: fmt.Sprintf("Debater %d", i+1),
				Message: answer,
				Round:   &r,
				DocID:   &docID,
			}) {
				return
			}
		}

		guidance, err = e.llm.Complete(ctx, opts.Model, ambiguityPrompt(query, answers))
		if err != nil {
			fail(fmt.Errorf("%w: %v", ErrCompletion, err))
			return
		}
		r := round
		if !step(Step{
			Stage:   StageAmbiguity,
			Speaker: "Ambiguity Solver",
			Message: guidance,
			Round:   &r,
		}) {
			return
		}
	}

	finalAnswer, err := e.llm.Complete(ctx, opts.Model, synthesisPrompt(query, answers))
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrCompletion, err))
		return
	}
	lastRound := opts.Rounds
	if !step(Step{
		Stage:   StageSynthesis,
		Speaker: "Synthesizer",
		Message: finalAnswer,
		Round:   &lastRound,
	}) {
		return
	}

	emit(Event{
		Event:       EventDone,
		FinalAnswer: finalAnswer,
		Query:       query,
		Stats: &Stats{
			Documents:        len(docs),
			Chunks:           len(chunks),
			Retrieved:        len(retrieved),
			Model:            opts.Model,
			Rounds:           opts.Rounds,
			EmbeddingSeconds: math.Round(embedSeconds*1000) / 1000,
		},
	})
}

func (e *Engine) fillOptions(opts Options) Options {
	if opts.Model == "" {
		opts.Model = e.llm.ModelName()
	}
	if opts.TopK == 0 {
		opts.TopK = e.cfg.TopK
	}
	if opts.Rounds == 0 {
		opts.Rounds = e.cfg.Rounds
	}
	return opts
}

// cleanDocuments strips whitespace and silently drops empty documents,
// assigning 1-based ids to the survivors in submission order.
func cleanDocuments(documents []string) []rag.Document {
	docs := make([]rag.Document, 0, len(documents))
	for _, text := range documents {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		id := len(docs) + 1
		docs = append(docs, rag.Document{
			ID:     id,
			Source: fmt.Sprintf("user_doc_%d", id),
			Text:   trimmed,
		})
	}
	return docs
}

// compact collapses whitespace and truncates to limit characters with an
// ellipsis. Limits are measured in runes so multibyte text is never cut
// mid-character.
func compact(text string, limit int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	runes := []rune(cleaned)
	if len(runes) <= limit {
		return cleaned
	}
	return strings.TrimRight(string(runes[:limit-3]), " ") + "..."
}
