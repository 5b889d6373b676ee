// Package logger provides request and result logging middlewares.
package logger

import (
	"log/slog"
	"time"

	"github.com/gentext/gentext/middleware"
	"github.com/gentext/gentext/pkg/logging"
)

// RequestLogger logs each generation request before it runs.
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger builds the middleware; a nil logger uses the package
// default.
func NewRequestLogger(l *slog.Logger) *RequestLogger {
	if l == nil {
		l = logging.WithComponent("middleware")
	}
	return &RequestLogger{logger: l}
}

// Name returns the middleware name.
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request and continues the chain.
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if ctx.Request != nil {
		m.logger.Info("generation request",
			"request_id", ctx.RequestID,
			"kind", ctx.Request.Kind,
			"count", ctx.Request.Count,
		)
	}
	return next(ctx)
}

// ResultLogger logs the outcome and duration of each generation request.
type ResultLogger struct {
	logger *slog.Logger
}

// NewResultLogger builds the middleware; a nil logger uses the package
// default.
func NewResultLogger(l *slog.Logger) *ResultLogger {
	if l == nil {
		l = logging.WithComponent("middleware")
	}
	return &ResultLogger{logger: l}
}

// Name returns the middleware name.
func (m *ResultLogger) Name() string {
	return "ResultLogger"
}

// Execute runs the rest of the chain, then logs what came back.
func (m *ResultLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		m.logger.Error("generation failed",
			"request_id", ctx.RequestID,
			"elapsed", elapsed,
			"error", err,
		)
	case ctx.Result != nil:
		m.logger.Info("generation completed",
			"request_id", ctx.RequestID,
			"elapsed", elapsed,
			"generator", ctx.Result.GeneratorUsed,
			"statements", len(ctx.Result.FalseSentences),
		)
	}
	return err
}
