// Package textpipe turns raw article text (or HTML) into the sentence pairs
// the generators consume: clean, summarize extractively, keep sentences that
// work as quiz statements, and derive the partial prefix for each.
package textpipe

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkoukk/tiktoken-go"

	"github.com/gentext/gentext/pkg/logging"
	"github.com/gentext/gentext/statement"
	"github.com/gentext/gentext/textheur"
)

// Options configures a Pipeline.
type Options struct {
	// SummaryRatio is the fraction of sentences the extractive summary keeps.
	SummaryRatio float64

	// MinSentenceLen and MaxSentenceLen bound candidate sentences in runes.
	MinSentenceLen int
	MaxSentenceLen int

	// PartialRatio is the fraction of words kept when deriving the partial
	// prefix from a full sentence.
	PartialRatio float64

	// MaxTokens clamps input text to a token budget before any other stage.
	// Zero disables clamping.
	MaxTokens int

	// Encoding names the tiktoken encoding used for the clamp.
	Encoding string
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		SummaryRatio:   0.3,
		MinSentenceLen: 30,
		MaxSentenceLen: 150,
		PartialRatio:   0.7,
		MaxTokens:      0,
		Encoding:       "cl100k_base",
	}
}

// Option customizes the pipeline.
type Option func(*Options)

// WithSummaryRatio overrides the extractive summary ratio.
func WithSummaryRatio(r float64) Option {
	return func(o *Options) {
		if r > 0 && r <= 1 {
			o.SummaryRatio = r
		}
	}
}

// WithSentenceBounds overrides the candidate length bounds.
func WithSentenceBounds(min, max int) Option {
	return func(o *Options) {
		if min > 0 {
			o.MinSentenceLen = min
		}
		if max > min {
			o.MaxSentenceLen = max
		}
	}
}

// WithPartialRatio overrides the partial-prefix word ratio.
func WithPartialRatio(r float64) Option {
	return func(o *Options) {
		if r > 0 && r < 1 {
			o.PartialRatio = r
		}
	}
}

// WithTokenBudget enables input clamping to at most n tokens.
func WithTokenBudget(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTokens = n
		}
	}
}

// tokenCodec is the slice of the tiktoken API the clamp needs.
type tokenCodec interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
	enc    tokenCodec
}

// New constructs a Pipeline. The token encoder is resolved eagerly when a
// budget is set; resolution failure disables the clamp rather than failing
// the whole pipeline.
func New(opts ...Option) *Pipeline {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	p := &Pipeline{opts: cfg, logger: logging.WithComponent("textpipe")}
	if cfg.MaxTokens > 0 {
		enc, err := tiktoken.GetEncoding(cfg.Encoding)
		if err != nil {
			p.logger.Warn("token encoding unavailable, clamp disabled", "encoding", cfg.Encoding, "error", err)
		} else {
			p.enc = enc
		}
	}
	return p
}

// ExtractHTML pulls readable text out of an HTML document, keeping headings,
// paragraphs and list items and dropping script/style noise.
func (p *Pipeline) ExtractHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script,style,nav,footer,aside").Remove()
	var out []string
	doc.Find("h1,h2,h3,h4,p,li").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if t != "" {
			out = append(out, t)
		}
	})
	return strings.Join(out, "\n\n"), nil
}

// Clean normalizes whitespace and strips control characters and citation
// markers like [12].
func (p *Pipeline) Clean(text string) string {
	if text == "" {
		return ""
	}
	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	b = citationRe.ReplaceAllString(b, "")
	b = spaceRe.ReplaceAllString(b, " ")
	b = newlineRe.ReplaceAllString(b, "\n\n")
	return strings.TrimSpace(b)
}

var (
	citationRe = regexp.MustCompile(`\[\d+\]`)
	spaceRe    = regexp.MustCompile(`[ \t]+`)
	newlineRe  = regexp.MustCompile(`\n{3,}`)
)

// ClampTokens truncates text to the configured token budget. Without a
// budget or encoder it returns the text unchanged.
func (p *Pipeline) ClampTokens(text string) string {
	if p.opts.MaxTokens <= 0 || p.enc == nil {
		return text
	}
	ids := p.enc.Encode(text, nil, nil)
	if len(ids) <= p.opts.MaxTokens {
		return text
	}
	return p.enc.Decode(ids[:p.opts.MaxTokens])
}

// Summarize keeps the highest-scoring SummaryRatio fraction of sentences,
// scored by normalized content-word frequency, preserving original order.
func (p *Pipeline) Summarize(text string) string {
	sentences := textheur.SplitSentences(text)
	if len(sentences) <= 1 {
		return text
	}

	keep := int(float64(len(sentences))*p.opts.SummaryRatio + 0.5)
	if keep < 1 {
		keep = 1
	}
	if keep >= len(sentences) {
		return text
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range contentWords(s) {
			freq[w]++
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		words := contentWords(s)
		if len(words) == 0 {
			ranked[i] = scored{index: i}
			continue
		}
		var sum int
		for _, w := range words {
			sum += freq[w]
		}
		ranked[i] = scored{index: i, score: float64(sum) / float64(len(words))}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	chosen := make([]bool, len(sentences))
	for _, r := range ranked[:keep] {
		chosen[r.index] = true
	}
	var out []string
	for i, s := range sentences {
		if chosen[i] {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// stopwords excluded from frequency scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "it": {}, "its": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "he": {}, "she": {}, "they": {}, "his": {}, "her": {},
	"their": {}, "which": {}, "who": {}, "has": {}, "have": {}, "had": {},
	"not": {}, "also": {}, "into": {}, "than": {}, "then": {}, "there": {},
}

func contentWords(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if f == "" {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SelectSentences returns the sentences usable as quiz statements: length
// within bounds, declarative, and free of quoted speech.
func (p *Pipeline) SelectSentences(text string) []string {
	var out []string
	for _, s := range textheur.SplitSentences(text) {
		if p.usable(s) {
			out = append(out, s)
		}
	}
	return out
}

func (p *Pipeline) usable(s string) bool {
	n := len([]rune(s))
	if n < p.opts.MinSentenceLen || n > p.opts.MaxSentenceLen {
		return false
	}
	if strings.ContainsAny(s, `"?`) || strings.Contains(s, "“") || strings.Contains(s, "”") {
		return false
	}
	return true
}

// Partial returns the leading PartialRatio fraction of a sentence's words.
// A sentence too short to split yields itself minus its last word, and a
// single word is returned as is.
func (p *Pipeline) Partial(sentence string) string {
	words := strings.Fields(sentence)
	if len(words) <= 1 {
		return sentence
	}
	keep := int(float64(len(words)) * p.opts.PartialRatio)
	if keep < 1 {
		keep = 1
	}
	if keep >= len(words) {
		keep = len(words) - 1
	}
	return strings.Join(words[:keep], " ")
}

// Pairs runs the full pipeline over raw text: clamp, clean, summarize,
// select, and derive partials. The result feeds directly into batch
// generation.
func (p *Pipeline) Pairs(text string) []statement.Pair {
	text = p.ClampTokens(text)
	text = p.Clean(text)
	summary := p.Summarize(text)
	sentences := p.SelectSentences(summary)
	pairs := make([]statement.Pair, 0, len(sentences))
	for _, s := range sentences {
		pairs = append(pairs, statement.Pair{
			PartialText: p.Partial(s),
			FullText:    s,
		})
	}
	return pairs
}
