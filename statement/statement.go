// Package statement defines the data model shared by the generation
// orchestration layer: requests, results, candidate statements and the closed
// set of generator kinds.
package statement

import "errors"

// Kind identifies which backend produced a result.
type Kind string

const (
	// KindClaude is the remote adapter backed by the Anthropic API.
	KindClaude Kind = "claude"

	// KindLocal is the adapter backed by the local inference sidecar.
	KindLocal Kind = "local"

	// KindParaphrase is the adapter backed by the sidecar's paraphrase model.
	KindParaphrase Kind = "paraphrase"
)

// Kinds lists every known generator kind. The set is closed at compile time;
// fallback policy is expressed as an ordered subset of this list.
var Kinds = []Kind{KindClaude, KindLocal, KindParaphrase}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindClaude, KindLocal, KindParaphrase:
		return true
	}
	return false
}

const (
	// MinCount and MaxCount bound the number of false statements a single
	// request may ask for.
	MinCount = 1
	MaxCount = 10

	// MaxBatchSize bounds the number of pairs in one batch request.
	MaxBatchSize = 20
)

var (
	// ErrNoGenerator indicates that no registered generator kind is usable.
	ErrNoGenerator = errors.New("no generator available")

	// ErrInvalidInput indicates that request validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotReady indicates that a generator's backing model is still loading.
	ErrNotReady = errors.New("generator not ready")
)

// Request captures a single false-statement generation request.
// PartialText is semantically expected to be a prefix of FullText, though that
// is not enforced.
type Request struct {
	PartialText string `json:"partial_sentence"`
	FullText    string `json:"full_sentence"`
	Count       int    `json:"num_statements"`
	Kind        Kind   `json:"generator_kind,omitempty"`
}

// Validate checks the structural invariants of the request.
func (r *Request) Validate() error {
	if r == nil {
		return ErrInvalidInput
	}
	if r.FullText == "" {
		return errors.Join(ErrInvalidInput, errors.New("full_sentence is required"))
	}
	if r.Count < MinCount || r.Count > MaxCount {
		return errors.Join(ErrInvalidInput, errors.New("num_statements must be between 1 and 10"))
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return errors.Join(ErrInvalidInput, errors.New("unknown generator kind"))
	}
	return nil
}

// Pair is one (partial, full) sentence pair inside a batch. Pairs are
// processed independently; one pair's failure never aborts its siblings.
type Pair struct {
	PartialText string `json:"partial_sentence"`
	FullText    string `json:"full_sentence"`
}

// Candidate is an ephemeral scored candidate produced during filtering and
// discarded after ranking.
type Candidate struct {
	Text       string
	Similarity float32
}

// Result is the outcome of a single generation request. FalseSentences holds
// at most the requested count; an empty slice is a valid degraded outcome.
type Result struct {
	OriginalSentence string   `json:"original_sentence"`
	PartialSentence  string   `json:"partial_sentence"`
	FalseSentences   []string `json:"false_sentences"`
	GeneratorUsed    Kind     `json:"generator_used"`
	Index            int      `json:"index,omitempty"`
}
