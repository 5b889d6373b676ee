// Package enricher stamps requests with identity and custom metadata.
package enricher

import (
	"github.com/google/uuid"

	"github.com/gentext/gentext/middleware"
)

// EnricherFunc adds data to the context before generation runs.
type EnricherFunc func(*middleware.Context) error

// RequestID assigns a fresh UUID to requests that arrive without one.
type RequestID struct{}

// NewRequestID builds the middleware.
func NewRequestID() *RequestID {
	return &RequestID{}
}

// Name returns the middleware name.
func (m *RequestID) Name() string {
	return "RequestID"
}

// Execute sets RequestID when missing, then continues the chain.
func (m *RequestID) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if ctx.RequestID == "" {
		ctx.RequestID = uuid.NewString()
	}
	return next(ctx)
}

// ContextEnricher runs an arbitrary enrichment function.
type ContextEnricher struct {
	enricher EnricherFunc
}

// NewContextEnricher builds the middleware.
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{enricher: enricher}
}

// Name returns the middleware name.
func (m *ContextEnricher) Name() string {
	return "ContextEnricher"
}

// Execute enriches the context, then continues the chain.
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
