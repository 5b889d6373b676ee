// Package errorhandler converts downstream failures into degraded results.
package errorhandler

import (
	"errors"

	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/statement"
)

// ErrorHandlerFunc maps a chain error to a replacement error (or nil to
// swallow it).
type ErrorHandlerFunc func(error) error

// ErrorHandler applies a mapping function to errors from downstream.
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler builds the middleware.
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name.
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute maps downstream errors through the handler.
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil && m.handler != nil {
		return m.handler(err)
	}
	return err
}

// Degrader swallows generation failures and substitutes an empty result,
// keeping the caller-visible contract of never failing a well-formed
// request. Validation and availability errors still propagate.
type Degrader struct{}

// NewDegrader builds the middleware.
func NewDegrader() *Degrader {
	return &Degrader{}
}

// Name returns the middleware name.
func (m *Degrader) Name() string {
	return "Degrader"
}

// Execute degrades non-contract errors to an empty result.
func (m *Degrader) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, statement.ErrInvalidInput) || errors.Is(err, statement.ErrNoGenerator) {
		return err
	}
	if ctx.Result == nil && ctx.Request != nil {
		ctx.Result = &statement.Result{
			OriginalSentence: ctx.Request.FullText,
			PartialSentence:  ctx.Request.PartialText,
			FalseSentences:   []string{},
			GeneratorUsed:    ctx.Request.Kind,
		}
	}
	return nil
}
