// Package middleware provides a composable interception chain around
// statement generation. Middlewares see the request on the way in and the
// result on the way out, and may short-circuit the chain by returning an
// error.
package middleware

import (
	"context"

	"github.com/gentext/gentext/statement"
)

// Context carries one generation request through the chain.
type Context struct {
	// Request is the validated (or to-be-validated) generation request.
	Request *statement.Request

	// Result is populated by the final handler and visible to middlewares
	// on the way back out.
	Result *statement.Result

	// RequestID identifies this request in logs and traces.
	RequestID string

	// Metadata passes data between middlewares.
	Metadata map[string]any

	context context.Context
}

// NewContext wraps a request for chain execution.
func NewContext(ctx context.Context, req *statement.Request) *Context {
	return &Context{
		Request:  req,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.context
}

// Middleware intercepts a generation request. Returning an error stops the
// chain; the error propagates to the caller unchanged.
type Middleware interface {
	// Name identifies the middleware in logs.
	Name() string

	// Execute runs the middleware logic, calling next to continue the
	// chain.
	Execute(ctx *Context, next Handler) error
}

// Handler passes control to the next middleware or the final handler.
type Handler func(*Context) error

// Chain is an ordered sequence of middlewares.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a chain executing middlewares front to back.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain.
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the chain, ending in finalHandler.
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}
