package debate

// Pipeline stages, in emission order.
const (
	StageSetup     = "setup"
	StageIndexing  = "indexing"
	StageRetrieval = "retrieval"
	StageEvidence  = "evidence"
	StageAmbiguity = "ambiguity"
	StageDebate    = "debate"
	StageSynthesis = "synthesis"
)

// Event kinds on the wire.
const (
	EventStep  = "step"
	EventDone  = "done"
	EventError = "error"
)

// Step is one entry in the debate transcript. Steps are append-only:
// created once, emitted once, never mutated.
type Step struct {
	Stage   string `json:"stage"`
	Speaker string `json:"speaker"`
	Message string `json:"message"`
	Round   *int   `json:"round"`
	DocID   *int   `json:"doc_id"`
}

// Stats summarizes a completed pipeline run.
type Stats struct {
	Documents        int     `json:"documents"`
	Chunks           int     `json:"chunks"`
	Retrieved        int     `json:"retrieved"`
	Model            string  `json:"model"`
	Rounds           int     `json:"rounds"`
	EmbeddingSeconds float64 `json:"embedding_seconds"`
}

// Event is the wire-level unit of the streaming form. A stream is any number
// of "step" events followed by exactly one "done" or "error".
type Event struct {
	Event       string `json:"event"`
	Data        *Step  `json:"data,omitempty"`
	FinalAnswer string `json:"final_answer,omitempty"`
	Stats       *Stats `json:"stats,omitempty"`
	Query       string `json:"query,omitempty"`
	Detail      string `json:"detail,omitempty"`

	// Err carries the original pipeline error for in-process consumers.
	// Detail holds the wire representation.
	Err error `json:"-"`
}

// Result is the batched form: the full event stream collapsed.
type Result struct {
	Query       string `json:"query"`
	Steps       []Step `json:"steps"`
	FinalAnswer string `json:"final_answer"`
	Stats       Stats  `json:"stats"`
}

// Options bound a single run. Zero values fall back to engine defaults.
type Options struct {
	// Model is the completion model identifier.
	Model string `json:"model,omitempty"`

	// TopK is the number of chunks to retrieve, 1-20.
	TopK int `json:"top_k,omitempty"`

	// Rounds is the number of debate rounds, 1-4.
	Rounds int `json:"rounds,omitempty"`
}

// Hard bounds on a run, matching the request schema.
const (
	MaxTopK   = 20
	MaxRounds = 4
)

func (o Options) validate() error {
	if o.TopK < 1 || o.TopK > MaxTopK {
		return inputErrorf("top_k must be between 1 and %d, got %d", MaxTopK, o.TopK)
	}
	if o.Rounds < 1 || o.Rounds > MaxRounds {
		return inputErrorf("rounds must be between 1 and %d, got %d", MaxRounds, o.Rounds)
	}
	return nil
}
