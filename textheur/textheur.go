// Package textheur implements the lightweight grammatical heuristics the
// candidate filter relies on: sentence boundary detection, verb and subject
// detection, and year extraction. These are deliberately shallow checks meant
// to discard obviously broken generator output, not a parser.
package textheur

import (
	"regexp"
	"strings"
	"unicode"
)

var sentenceEnd = regexp.MustCompile(`([.!?]["')\]]?)\s+`)

// SplitSentences splits text on sentence-final punctuation followed by
// whitespace. Abbreviation handling is intentionally minimal.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\x1f")
	parts := strings.Split(marked, "\x1f")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstSentence returns the first sentence of text, or "" when text is blank.
func FirstSentence(text string) string {
	sents := SplitSentences(text)
	if len(sents) == 0 {
		return ""
	}
	return sents[0]
}

// NormalizeTrailing trims trailing whitespace and normalizes the sentence to
// end with a single terminal punctuation mark.
func NormalizeTrailing(sent string) string {
	sent = strings.TrimSpace(sent)
	trimmed := strings.TrimRight(sent, ".!?…")
	if trimmed == sent {
		return sent
	}
	return strings.TrimSpace(trimmed) + "."
}

// WordCount counts whitespace-separated tokens.
func WordCount(sent string) int {
	return len(strings.Fields(sent))
}

// Auxiliary and high-frequency irregular verbs that carry no regular suffix.
var commonVerbs = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "shall": {}, "should": {},
	"may": {}, "might": {}, "must": {},
	"said": {}, "says": {}, "say": {}, "made": {}, "make": {}, "makes": {},
	"went": {}, "goes": {}, "go": {}, "took": {}, "take": {}, "takes": {},
	"came": {}, "come": {}, "comes": {}, "got": {}, "get": {}, "gets": {},
	"became": {}, "become": {}, "becomes": {}, "gave": {}, "give": {}, "gives": {},
	"found": {}, "find": {}, "finds": {}, "thought": {}, "think": {}, "thinks": {},
	"knew": {}, "know": {}, "knows": {}, "saw": {}, "see": {}, "sees": {},
	"won": {}, "win": {}, "wins": {}, "lost": {}, "lose": {}, "loses": {},
	"led": {}, "lead": {}, "leads": {}, "held": {}, "hold": {}, "holds": {},
	"grew": {}, "grow": {}, "grows": {}, "rose": {}, "rise": {}, "rises": {},
	"fell": {}, "fall": {}, "falls": {}, "sold": {}, "sell": {}, "sells": {},
	"built": {}, "build": {}, "builds": {}, "kept": {}, "keep": {}, "keeps": {},
	"began": {}, "begin": {}, "begins": {}, "wrote": {}, "write": {}, "writes": {},
	"met": {}, "meet": {}, "meets": {}, "ran": {}, "run": {}, "runs": {},
	"paid": {}, "pay": {}, "pays": {}, "left": {}, "leave": {}, "leaves": {},
	"brought": {}, "bring": {}, "brings": {}, "spent": {}, "spend": {}, "spends": {},
}

// Words that end in verb-like suffixes but rarely act as verbs.
var suffixExceptions = map[string]struct{}{
	"during": {}, "thing": {}, "things": {}, "something": {}, "nothing": {},
	"anything": {}, "everything": {}, "morning": {}, "evening": {}, "king": {},
	"spring": {}, "string": {}, "wing": {}, "ring": {}, "being": {},
	"hundred": {}, "red": {}, "bed": {}, "sacred": {}, "need": {}, "speed": {},
	"indeed": {}, "seed": {}, "breed": {}, "feed": {},
}

// HasVerb reports whether the sentence contains a plausible verb: either a
// known auxiliary/irregular form or a word carrying a regular verb suffix.
func HasVerb(sent string) bool {
	for _, raw := range strings.Fields(sent) {
		w := strings.ToLower(strings.Trim(raw, ".,;:!?\"'()[]"))
		if w == "" {
			continue
		}
		if _, ok := commonVerbs[w]; ok {
			return true
		}
		if _, skip := suffixExceptions[w]; skip {
			continue
		}
		if len(w) > 4 && (strings.HasSuffix(w, "ed") || strings.HasSuffix(w, "ing")) {
			return true
		}
		if len(w) > 5 && (strings.HasSuffix(w, "izes") || strings.HasSuffix(w, "ises") ||
			strings.HasSuffix(w, "ates") || strings.HasSuffix(w, "ifies")) {
			return true
		}
	}
	return false
}

var subjectPronouns = map[string]struct{}{
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "there": {},
	"someone": {}, "everyone": {}, "nobody": {}, "who": {},
}

var determiners = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "its": {}, "his": {}, "her": {}, "their": {},
	"our": {}, "my": {}, "your": {}, "each": {}, "every": {}, "some": {},
	"many": {}, "most": {}, "all": {}, "both": {}, "no": {},
}

// HasSubject reports whether the sentence has a detectable grammatical
// subject: a subject pronoun, a determiner introducing a noun phrase, or a
// capitalized token (proper noun) beyond the sentence-initial position.
func HasSubject(sent string) bool {
	fields := strings.Fields(sent)
	for i, raw := range fields {
		w := strings.Trim(raw, ".,;:!?\"'()[]")
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		if _, ok := subjectPronouns[lower]; ok {
			return true
		}
		if _, ok := determiners[lower]; ok && i < len(fields)-1 {
			return true
		}
		if i > 0 {
			r := []rune(w)
			if unicode.IsUpper(r[0]) {
				return true
			}
		}
	}
	// A sentence-initial proper noun followed by anything still counts.
	if len(fields) >= 2 {
		r := []rune(strings.Trim(fields[0], "\"'("))
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			return true
		}
	}
	return false
}

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|2[0-9]{3})\b`)

// Years extracts every four-digit year-like value in the sentence.
func Years(sent string) []int {
	matches := yearPattern.FindAllString(sent, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		y := 0
		for _, d := range m {
			y = y*10 + int(d-'0')
		}
		out = append(out, y)
	}
	return out
}

// HasYearAfter reports whether the sentence mentions a year strictly greater
// than cutoff. Used as an anachronism guard for historical-sounding content.
func HasYearAfter(sent string, cutoff int) bool {
	for _, y := range Years(sent) {
		if y > cutoff {
			return true
		}
	}
	return false
}
