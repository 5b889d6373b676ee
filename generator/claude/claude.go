// Package claude implements the remote statement generator backed by the
// Anthropic messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/qa"
	"github.com/gentext/gentext/statement"
)

// Config holds Claude generator configuration.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64

	// MaxAttempts bounds the retry loop for transient API failures.
	MaxAttempts int

	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration

	// BatchDelay spaces out per-pair calls in a batch to stay under rate
	// limits.
	BatchDelay time.Duration
}

// DefaultConfig returns the defaults used when fields are zero. The high
// temperature is intentional: false statements should be creative.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-3-7-sonnet-20250219",
		MaxTokens:   1024,
		Temperature: 0.9,
		MaxAttempts: 3,
		RetryBase:   500 * time.Millisecond,
		BatchDelay:  500 * time.Millisecond,
	}
}

// Generator is the remote adapter. It never lets an API failure escape its
// boundary: exhausted retries and malformed responses degrade to an empty
// list with a logged cause.
type Generator struct {
	config *Config
	client anthropic.Client
	logger *slog.Logger
}

// New creates a Claude generator. An empty API key is an initialization
// failure; the orchestrator records it and leaves the kind unregistered.
func New(config *Config) (*Generator, error) {
	if config == nil {
		return nil, errors.New("claude: config cannot be nil")
	}
	if config.APIKey == "" {
		return nil, errors.New("claude: API key not provided")
	}
	if config.Model == "" {
		config.Model = "claude-3-7-sonnet-20250219"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryBase <= 0 {
		config.RetryBase = 500 * time.Millisecond
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Generator{
		config: config,
		client: anthropic.NewClient(options...),
		logger: logging.WithComponent("generator").With("kind", statement.KindClaude),
	}, nil
}

// Kind implements generator.Generator.
func (g *Generator) Kind() string {
	return string(statement.KindClaude)
}

// Ready implements generator.Generator. The API client needs no warm-up.
func (g *Generator) Ready() bool {
	return true
}

// GenerateFalseStatements implements generator.Generator.
func (g *Generator) GenerateFalseStatements(ctx context.Context, partial, full string, count int) ([]string, error) {
	prompt := statementPrompt(partial, full, count)

	text, err := g.complete(ctx, prompt)
	if err != nil {
		g.logger.Error("statement generation failed", "error", err)
		return nil, nil
	}

	statements := parseStatements(text, partial, count)
	g.logger.Debug("generated false statements", "count", len(statements))
	return statements, nil
}

// GenerateStatementsBatch implements generator.BatchGenerator. The API has no
// native batch endpoint, so pairs are issued sequentially with a small delay
// between calls to respect rate limits; a failed pair yields an empty slice.
func (g *Generator) GenerateStatementsBatch(ctx context.Context, partials, fulls []string, count int) ([][]string, error) {
	results := make([][]string, len(partials))
	for i := range partials {
		if i > 0 && g.config.BatchDelay > 0 {
			select {
			case <-time.After(g.config.BatchDelay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
		full := ""
		if i < len(fulls) {
			full = fulls[i]
		}
		statements, err := g.GenerateFalseStatements(ctx, partials[i], full, count)
		if err != nil {
			results[i] = []string{}
			continue
		}
		results[i] = statements
	}
	return results, nil
}

// GenerateQA implements generator.QAGenerator.
func (g *Generator) GenerateQA(ctx context.Context, text string, numQuestions int) ([]qa.Question, error) {
	if len(strings.TrimSpace(text)) < 20 {
		return nil, fmt.Errorf("%w: input text too short for QA generation", statement.ErrInvalidInput)
	}

	raw, err := g.complete(ctx, qaPrompt(text, numQuestions))
	if err != nil {
		g.logger.Error("qa generation failed", "error", err)
		return nil, err
	}

	questions, err := qa.ParseQuestions(raw)
	if err != nil {
		g.logger.Error("qa response parse failed", "error", err)
		return nil, err
	}
	if len(questions) > numQuestions {
		questions = questions[:numQuestions]
	}
	return questions, nil
}

// complete sends one prompt and returns the text of the first content block,
// retrying transient failures with doubling backoff.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.config.Model),
		MaxTokens: g.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.config.Temperature > 0 {
		params.Temperature = param.NewOpt(g.config.Temperature)
	}

	var lastErr error
	delay := g.config.RetryBase
	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		msg, err := g.client.Messages.New(ctx, params)
		if err == nil {
			for _, block := range msg.Content {
				if block.Type == "text" {
					return block.Text, nil
				}
			}
			return "", errors.New("claude: response has no text content")
		}

		lastErr = err
		if !transient(err) || attempt == g.config.MaxAttempts {
			break
		}
		g.logger.Warn("transient API failure, retrying", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
	return "", fmt.Errorf("claude: API call failed: %w", lastErr)
}

// transient reports whether the failure is worth retrying: rate limits,
// server errors and plain network errors qualify; client errors do not.
func transient(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == 429 || apierr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

func statementPrompt(partial, full string, count int) string {
	return fmt.Sprintf(`I need you to generate %d plausible but factually incorrect completions for this sentence fragment.
The original complete sentence is: %q

The beginning of the sentence is: %q

Generate %d different completions that:
1. Sound plausible and grammatically correct
2. Are factually incorrect (different from the original)
3. Are diverse and creative
4. Are concise (try to match the length and style of the original)

Output the false statements only, one per line, with no explanations or numbering.`,
		count, full, partial, count)
}

func qaPrompt(text string, numQuestions int) string {
	return fmt.Sprintf(`Please generate %d multiple-choice questions based on the following text.

Text:
%s

For each question:
1. Create an accurate question based on the text
2. Provide THREE possible answers for each question:
   - One answer that is completely correct (mark this as "correct": true)
   - Two answers that sound plausible but are factually incorrect (mark these as "correct": false)
3. The false answers should be convincing but clearly wrong when compared to the text
4. Randomize the order of correct and incorrect answers

Return your response in this exact JSON format:
{"questions": [{"question": "...", "answers": [{"text": "...", "correct": true}, {"text": "...", "correct": false}, {"text": "...", "correct": false}]}]}

Do not include any additional text outside of this JSON structure.`,
		numQuestions, text)
}

// parseStatements splits a line-delimited model response into statements,
// dropping blank and bare-numbering lines, re-prepending the partial sentence
// when the model dropped it, and capping at count.
func parseStatements(text, partial string, count int) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, count)
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" || isNumbering(s) {
			continue
		}
		s = stripListPrefix(s)
		if partial != "" && !strings.HasPrefix(s, partial) {
			s = joinPartial(partial, s)
		}
		out = append(out, s)
		if len(out) == count {
			break
		}
	}
	return out
}

func isNumbering(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripListPrefix removes leading "1.", "2)", "-" style list markers.
func stripListPrefix(s string) string {
	trimmed := strings.TrimLeft(s, "0123456789")
	if trimmed != s {
		trimmed = strings.TrimLeft(trimmed, ".):")
		return strings.TrimSpace(trimmed)
	}
	if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") {
		return strings.TrimSpace(s[2:])
	}
	return s
}

func joinPartial(partial, completion string) string {
	if strings.HasSuffix(partial, " ") || strings.HasPrefix(completion, " ") {
		return partial + completion
	}
	return partial + " " + completion
}
