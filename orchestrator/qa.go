package orchestrator

import (
	"context"
	"errors"

	"github.com/gentext/gentext/generator"
	"github.com/gentext/gentext/qa"
	"github.com/gentext/gentext/statement"
)

// GenerateQA produces multiple-choice questions from free text, dispatching
// to the requested kind when it is QA-capable, otherwise to the first
// QA-capable generator in the fallback order. Exactly one answer per
// returned question is marked correct; questions that violate this are
// dropped during parsing.
func (o *Orchestrator) GenerateQA(ctx context.Context, kind statement.Kind, text string, numQuestions int) (*qa.Set, error) {
	gen, used, err := o.qaGenerator(kind)
	if err != nil {
		return nil, err
	}

	questions, err := gen.GenerateQA(ctx, text, numQuestions)
	if err != nil {
		o.logger.Error("qa generation failed", "kind", used, "error", err)
		if isInvalidInput(err) {
			return nil, err
		}
		// Degrade to an empty set; the request itself succeeded.
		return &qa.Set{Questions: []qa.Question{}}, nil
	}
	return &qa.Set{Questions: questions, Count: len(questions)}, nil
}

func (o *Orchestrator) qaGenerator(kind statement.Kind) (generator.QAGenerator, statement.Kind, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if kind != "" {
		if gen, ok := o.generators[kind]; ok {
			if qg, ok := gen.(generator.QAGenerator); ok {
				return qg, kind, nil
			}
		}
	}
	for _, k := range o.opts.FallbackOrder {
		gen, ok := o.generators[k]
		if !ok {
			continue
		}
		if qg, ok := gen.(generator.QAGenerator); ok {
			return qg, k, nil
		}
	}
	return nil, "", statement.ErrNoGenerator
}

func isInvalidInput(err error) bool {
	return errors.Is(err, statement.ErrInvalidInput)
}
