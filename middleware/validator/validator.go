// Package validator provides request validation and result filtering
// middlewares.
package validator

import (
	"strings"

	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/statement"
)

// ValidatorFunc is an extra check run after structural validation.
type ValidatorFunc func(*statement.Request) error

// RequestValidator rejects malformed requests before any model work
// happens.
type RequestValidator struct {
	extra ValidatorFunc
}

// NewRequestValidator builds the middleware. extra may be nil.
func NewRequestValidator(extra ValidatorFunc) *RequestValidator {
	return &RequestValidator{extra: extra}
}

// Name returns the middleware name.
func (m *RequestValidator) Name() string {
	return "RequestValidator"
}

// Execute validates the request and continues the chain.
func (m *RequestValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if ctx.Request == nil {
		return statement.ErrInvalidInput
	}
	if err := ctx.Request.Validate(); err != nil {
		return err
	}
	if m.extra != nil {
		if err := m.extra(ctx.Request); err != nil {
			return err
		}
	}
	return next(ctx)
}

// ResultFilter normalizes the statements coming back from a generator:
// trims whitespace and drops empties.
type ResultFilter struct{}

// NewResultFilter builds the middleware.
func NewResultFilter() *ResultFilter {
	return &ResultFilter{}
}

// Name returns the middleware name.
func (m *ResultFilter) Name() string {
	return "ResultFilter"
}

// Execute runs the rest of the chain, then cleans the result in place.
func (m *ResultFilter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil || ctx.Result == nil {
		return err
	}
	cleaned := make([]string, 0, len(ctx.Result.FalseSentences))
	for _, s := range ctx.Result.FalseSentences {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	ctx.Result.FalseSentences = cleaned
	return nil
}
