// Package generator defines the capability contracts that statement
// generator adapters implement, plus the Outcome type the orchestrator uses
// to distinguish degraded results from real ones.
package generator

import (
	"context"

	"github.com/gentext/gentext/qa"
)

// Generator produces plausible-but-false completions for a partial sentence.
// Implementations must never panic across this boundary; failures are
// reported through the returned error and recovered by the orchestrator.
type Generator interface {
	// Kind returns the stable tag identifying this adapter.
	Kind() string

	// GenerateFalseStatements returns up to count false statements for the
	// given (partial, full) sentence pair.
	GenerateFalseStatements(ctx context.Context, partial, full string, count int) ([]string, error)

	// Ready reports whether the backing model or client can serve requests
	// without a blocking wait.
	Ready() bool
}

// BatchGenerator is implemented by adapters with a native batch path that is
// cheaper than per-pair calls (a single loaded-model invocation across the
// whole batch). The orchestrator prefers it when present.
type BatchGenerator interface {
	Generator

	// GenerateStatementsBatch returns one statement list per input pair,
	// positionally aligned with the inputs.
	GenerateStatementsBatch(ctx context.Context, partials, fulls []string, count int) ([][]string, error)
}

// QAGenerator is implemented by adapters capable of producing multiple-choice
// questions from free text, with exactly one correct answer per question.
type QAGenerator interface {
	GenerateQA(ctx context.Context, text string, numQuestions int) ([]qa.Question, error)
}

// Status classifies an Outcome.
type Status int

const (
	// StatusOK means the adapter produced at least one statement.
	StatusOK Status = iota

	// StatusEmpty means the adapter ran but produced nothing usable.
	StatusEmpty
)

// Outcome is the explicit result type for a generation attempt. It replaces
// exception-driven fallback control flow: callers branch on Status instead of
// recovering from errors.
type Outcome struct {
	Statements []string
	Status     Status
	Reason     string
}

// OK wraps statements in a successful outcome; an empty list downgrades to
// StatusEmpty.
func OK(statements []string) Outcome {
	if len(statements) == 0 {
		return Empty("generator produced no usable statements")
	}
	return Outcome{Statements: statements, Status: StatusOK}
}

// Empty marks a degraded, recoverable outcome.
func Empty(reason string) Outcome {
	return Outcome{Status: StatusEmpty, Reason: reason}
}
