// Package qa holds the multiple-choice question model, the JSON extraction
// used to parse model output, and the plain-text lettered formatter.
package qa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Answer is a single choice. Exactly one answer per question is correct.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a multiple-choice item generated from input text.
type Question struct {
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Set is the response shape of a QA generation call.
type Set struct {
	Questions []Question `json:"questions"`
	Count     int        `json:"total_questions"`
}

var (
	// ErrNoCorrectAnswer indicates a question with zero correct answers.
	ErrNoCorrectAnswer = errors.New("question has no correct answer")

	// ErrMultipleCorrectAnswers indicates a question with more than one.
	ErrMultipleCorrectAnswers = errors.New("question has multiple correct answers")
)

// Validate checks that the question has answers and exactly one marked
// correct.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Answers) < 2 {
		return errors.New("question needs at least two answers")
	}
	correct := 0
	for _, a := range q.Answers {
		if a.Correct {
			correct++
		}
	}
	switch {
	case correct == 0:
		return ErrNoCorrectAnswer
	case correct > 1:
		return ErrMultipleCorrectAnswers
	}
	return nil
}

// ParseQuestions extracts the questions array from raw model output. The
// model sometimes wraps the JSON in prose or a fenced code block; both are
// tolerated. Questions failing validation are dropped, not fatal.
func ParseQuestions(raw string) ([]Question, error) {
	jsonStr := extractJSONObject(raw)
	if jsonStr == "" {
		return nil, errors.New("no JSON object in model output")
	}

	var payload struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("parse qa payload: %w", err)
	}
	if payload.Questions == nil {
		return nil, errors.New("model output lacks questions array")
	}

	out := make([]Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		if err := q.Validate(); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// extractJSONObject returns the outermost {...} block in s, stripping fenced
// code blocks first.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if strings.HasPrefix(strings.ToLower(s), "json") {
			s = s[4:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

var letters = []string{"A", "B", "C", "D", "E", "F"}

// Format renders questions as the lettered plain-text quiz layout consumed by
// the front end.
func Format(questions []Question) string {
	var b strings.Builder
	total := len(questions)
	for i, q := range questions {
		fmt.Fprintf(&b, "%d/%d\n%s\n", i+1, total, q.Question)
		for j, a := range q.Answers {
			if j >= len(letters) {
				break
			}
			fmt.Fprintf(&b, "%s\n%s\n", letters[j], a.Text)
		}
		b.WriteString("Show Explanation\n\n")
	}
	return strings.TrimSpace(b.String())
}
