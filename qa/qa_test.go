package qa

import (
	"strings"
	"testing"
)

func TestQuestionValidate(t *testing.T) {
	t.Run("exactly one correct answer passes", func(t *testing.T) {
		q := Question{
			Question: "What did the company announce?",
			Answers: []Answer{
				{Text: "Record profits", Correct: true},
				{Text: "Major layoffs"},
				{Text: "A merger"},
			},
		}
		if err := q.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no correct answer fails", func(t *testing.T) {
		q := Question{
			Question: "What did the company announce?",
			Answers:  []Answer{{Text: "A"}, {Text: "B"}},
		}
		if err := q.Validate(); err != ErrNoCorrectAnswer {
			t.Fatalf("expected ErrNoCorrectAnswer, got %v", err)
		}
	})

	t.Run("multiple correct answers fail", func(t *testing.T) {
		q := Question{
			Question: "What did the company announce?",
			Answers:  []Answer{{Text: "A", Correct: true}, {Text: "B", Correct: true}},
		}
		if err := q.Validate(); err != ErrMultipleCorrectAnswers {
			t.Fatalf("expected ErrMultipleCorrectAnswers, got %v", err)
		}
	})
}

func TestParseQuestions(t *testing.T) {
	payload := `{"questions":[
		{"question":"Q1?","answers":[{"text":"right","correct":true},{"text":"wrong1","correct":false},{"text":"wrong2","correct":false}]},
		{"question":"Q2?","answers":[{"text":"a","correct":false},{"text":"b","correct":false}]}
	]}`

	t.Run("plain JSON", func(t *testing.T) {
		qs, err := ParseQuestions(payload)
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		// Q2 has no correct answer and must be dropped.
		if len(qs) != 1 || qs[0].Question != "Q1?" {
			t.Fatalf("unexpected questions: %+v", qs)
		}
	})

	t.Run("fenced code block", func(t *testing.T) {
		qs, err := ParseQuestions("```json\n" + payload + "\n```")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if len(qs) != 1 {
			t.Fatalf("expected 1 question, got %d", len(qs))
		}
	})

	t.Run("prose around JSON", func(t *testing.T) {
		qs, err := ParseQuestions("Here are your questions:\n"+payload+"\nEnjoy!")
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if len(qs) != 1 {
			t.Fatalf("expected 1 question, got %d", len(qs))
		}
	})

	t.Run("no JSON at all", func(t *testing.T) {
		if _, err := ParseQuestions("sorry, I cannot help"); err == nil {
			t.Fatal("expected error for missing JSON")
		}
	})
}

func TestFormat(t *testing.T) {
	out := Format([]Question{
		{
			Question: "What did the company announce?",
			Answers: []Answer{
				{Text: "Record profits", Correct: true},
				{Text: "Major layoffs"},
			},
		},
	})

	for _, want := range []string{"1/1", "What did the company announce?", "A\nRecord profits", "B\nMajor layoffs", "Show Explanation"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
}
