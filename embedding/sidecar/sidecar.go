// Package sidecar implements vector.Embedder on the local inference
// sidecar's sentence encoder.
package sidecar

import (
	"context"
	"errors"

	"github.com/gentext/gentext/sidecar"
	"github.com/gentext/gentext/vector"
)

// Embedder sends texts to the sidecar's /v1/embed endpoint.
type Embedder struct {
	client    *sidecar.Client
	dimension int
}

// New creates a sidecar-backed Embedder.
func New(client *sidecar.Client, dimension int) vector.Embedder {
	return &Embedder{client: client, dimension: dimension}
}

// Dimension return number of embedding dimensions
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts text to a vector embedding
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch converts multiple texts to embeddings in one encoder call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.client.Embed(ctx, texts)
}
