// Package sidecar is the HTTP client for the local inference sidecar, which
// hosts the generative model, the paraphraser and the sentence encoder behind
// a small JSON API.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to one sidecar instance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a sidecar client with a sane default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateParams are the sampling controls for a generation call.
type GenerateParams struct {
	Prompt            string  `json:"prompt"`
	NumReturn         int     `json:"num_return_sequences"`
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type generateResponse struct {
	Outputs []string `json:"outputs"`
	Error   string   `json:"error,omitempty"`
}

// Generate samples NumReturn completions for one prompt.
func (c *Client) Generate(ctx context.Context, params GenerateParams) ([]string, error) {
	var resp generateResponse
	if err := c.post(ctx, "/v1/generate", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: generate: %s", resp.Error)
	}
	return resp.Outputs, nil
}

type batchGenerateRequest struct {
	Prompts []string `json:"prompts"`
	GenerateParams
}

type batchGenerateResponse struct {
	Outputs [][]string `json:"outputs"`
	Error   string     `json:"error,omitempty"`
}

// GenerateBatch samples completions for several prompts in one model call.
// The response is positionally aligned with prompts.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, params GenerateParams) ([][]string, error) {
	req := batchGenerateRequest{Prompts: prompts, GenerateParams: params}
	var resp batchGenerateResponse
	if err := c.post(ctx, "/v1/generate_batch", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: generate_batch: %s", resp.Error)
	}
	if len(resp.Outputs) != len(prompts) {
		return nil, fmt.Errorf("sidecar: expected %d output lists, got %d", len(prompts), len(resp.Outputs))
	}
	return resp.Outputs, nil
}

type paraphraseRequest struct {
	Text             string  `json:"text"`
	NumParaphrases   int     `json:"num_paraphrases"`
	MaxLength        int     `json:"max_length"`
	DiversityPenalty float64 `json:"diversity_penalty"`
}

type paraphraseResponse struct {
	Paraphrases []string `json:"paraphrases"`
	Error       string   `json:"error,omitempty"`
}

// Paraphrase produces diverse rewordings of text via the sidecar's
// seq2seq paraphraser.
func (c *Client) Paraphrase(ctx context.Context, text string, n int) ([]string, error) {
	req := paraphraseRequest{
		Text:             text,
		NumParaphrases:   n,
		MaxLength:        128,
		DiversityPenalty: 0.7,
	}
	var resp paraphraseResponse
	if err := c.post(ctx, "/v1/paraphrase", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: paraphrase: %s", resp.Error)
	}
	return resp.Paraphrases, nil
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors   [][]float32 `json:"vectors"`
	Dimension int         `json:"dimension"`
	Error     string      `json:"error,omitempty"`
}

// Embed encodes texts with the sidecar's sentence encoder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	if err := c.post(ctx, "/v1/embed", embedRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("sidecar: embed: %s", resp.Error)
	}
	if len(resp.Vectors) != len(texts) {
		return nil, fmt.Errorf("sidecar: expected %d vectors, got %d", len(texts), len(resp.Vectors))
	}
	return resp.Vectors, nil
}

type loadModelRequest struct {
	Model string `json:"model"`
}

// LoadModel asks the sidecar to load the named model into memory. The call
// blocks until the load finishes or the context expires.
func (c *Client) LoadModel(ctx context.Context, model string) error {
	return c.post(ctx, "/v1/models/load", loadModelRequest{Model: model}, nil)
}

// Healthy probes the sidecar with a short deadline.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sidecar: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sidecar: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar: %s returned status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sidecar: decode response: %w", err)
	}
	return nil
}
