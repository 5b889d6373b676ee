package textpipe

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	p := New()
	in := "The  mitochondria\tis the powerhouse of the cell.[12]\n\n\n\nIt was discovered in 1857."
	got := p.Clean(in)
	if strings.Contains(got, "[12]") {
		t.Errorf("citation marker survived: %q", got)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\t") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("newlines not collapsed: %q", got)
	}
}

func TestExtractHTML(t *testing.T) {
	p := New()
	html := `<html><head><style>p{color:red}</style></head><body>
		<nav>Home | About</nav>
		<h1>Photosynthesis</h1>
		<p>Plants convert light into chemical energy.</p>
		<script>alert("hi")</script>
		<li>Chlorophyll absorbs light.</li>
		<footer>Copyright</footer>
	</body></html>`

	got, err := p.ExtractHTML(html)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	for _, want := range []string{"Photosynthesis", "Plants convert light", "Chlorophyll"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	for _, drop := range []string{"alert", "color:red", "Home | About", "Copyright"} {
		if strings.Contains(got, drop) {
			t.Errorf("noise %q survived in %q", drop, got)
		}
	}
}

func TestSelectSentences(t *testing.T) {
	p := New()
	text := strings.Join([]string{
		"Short one.", // under min length
		"The French Revolution began in 1789 and reshaped Europe.", // keeps
		"Did the revolution succeed in all of its stated aims?",    // question
		`He said "liberty or death" to the assembled crowd there.`, // quoted speech
		"The revolution abolished feudal privileges across France.", // keeps
		strings.Repeat("very ", 40) + "long sentence.",              // over max length
	}, " ")

	got := p.SelectSentences(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	for _, s := range got {
		if strings.Contains(s, "?") || strings.Contains(s, `"`) {
			t.Errorf("unfit sentence selected: %q", s)
		}
	}
}

func TestPartial(t *testing.T) {
	p := New()
	tests := []struct {
		in   string
		want string
	}{
		{"The quick brown fox jumps over the lazy dog today", "The quick brown fox jumps over the"},
		{"Two words", "Two"},
		{"Single", "Single"},
	}
	for _, tc := range tests {
		if got := p.Partial(tc.in); got != tc.want {
			t.Errorf("Partial(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPartialShorterThanFull(t *testing.T) {
	p := New()
	full := "Water boils at one hundred degrees Celsius at sea level."
	partial := p.Partial(full)
	if !strings.HasPrefix(full, partial) {
		t.Fatalf("partial %q is not a prefix of %q", partial, full)
	}
	if len(strings.Fields(partial)) >= len(strings.Fields(full)) {
		t.Fatalf("partial not shorter: %q", partial)
	}
}

func TestSummarizeRatio(t *testing.T) {
	p := New(WithSummaryRatio(0.3))
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString("The ancient city traded extensively in olive oil and wine. ")
	}
	sb.WriteString("Cats nap.")
	text := strings.TrimSpace(sb.String())

	summary := p.Summarize(text)
	in := len(strings.Split(text, ". "))
	out := len(strings.Split(summary, ". "))
	if out >= in {
		t.Fatalf("summary did not shrink: %d -> %d sentences", in, out)
	}
}

func TestSummarizeSingleSentencePassthrough(t *testing.T) {
	p := New()
	text := "A lone sentence stays untouched."
	if got := p.Summarize(text); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestPairsEndToEnd(t *testing.T) {
	p := New(WithSummaryRatio(1.0))
	text := "The Great Barrier Reef is the largest coral reef system on Earth. " +
		"It stretches for over two thousand kilometres along Australia. " +
		"Coral bleaching has damaged large sections of the reef system."

	pairs := p.Pairs(text)
	if len(pairs) == 0 {
		t.Fatal("expected pairs from clean declarative text")
	}
	for _, pr := range pairs {
		if pr.PartialText == "" || pr.FullText == "" {
			t.Fatalf("empty field in pair: %+v", pr)
		}
		if !strings.HasPrefix(pr.FullText, pr.PartialText) {
			t.Fatalf("partial %q not a prefix of %q", pr.PartialText, pr.FullText)
		}
	}
}

type fakeCodec struct{}

func (fakeCodec) Encode(text string, _, _ []string) []int {
	ids := make([]int, len(strings.Fields(text)))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (fakeCodec) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i := range parts {
		parts[i] = "tok"
	}
	return strings.Join(parts, " ")
}

func TestClampTokens(t *testing.T) {
	p := New(WithTokenBudget(5))
	p.enc = fakeCodec{}

	short := "one two three"
	if got := p.ClampTokens(short); got != short {
		t.Fatalf("under-budget text modified: %q", got)
	}

	long := strings.Repeat("word ", 20)
	got := p.ClampTokens(long)
	if n := len(strings.Fields(got)); n != 5 {
		t.Fatalf("expected 5 tokens after clamp, got %d", n)
	}
}
