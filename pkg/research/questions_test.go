package research

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPairAnswers(t *testing.T) {
	questions := []ClarifyingQuestion{
		{Question: "What is the scope?", Reason: "Narrow the topic"},
		{Question: "Who is the audience?", Reason: "Set the tone"},
		{Question: "What timeframe matters?", Reason: "Bound the sources"},
	}

	tests := []struct {
		name    string
		answers []string
		wantErr bool
		wantGot int
	}{
		{name: "all answered", answers: []string{"a", "b", "c"}},
		{name: "whitespace trimmed", answers: []string{" a ", "b\n", "\tc"}},
		{name: "blank answer", answers: []string{"a", "   ", "c"}, wantErr: true, wantGot: 2},
		{name: "too few", answers: []string{"a", "b"}, wantErr: true, wantGot: 2},
		{name: "too many", answers: []string{"a", "b", "c", "d"}, wantErr: true, wantGot: 4},
		{name: "none", answers: nil, wantErr: true, wantGot: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := PairAnswers(questions, tt.answers)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got pairs %v", pairs)
				}
				var countErr *AnswerCountError
				if !errors.As(err, &countErr) {
					t.Fatalf("expected *AnswerCountError, got %T (%v)", err, err)
				}
				if countErr.Want != len(questions) || countErr.Got != tt.wantGot {
					t.Errorf("error counts = want %d got %d, expected want %d got %d",
						countErr.Want, countErr.Got, len(questions), tt.wantGot)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pairs) != len(questions) {
				t.Fatalf("expected %d pairs, got %d", len(questions), len(pairs))
			}
			for i, p := range pairs {
				if p.Index != i+1 {
					t.Errorf("pair %d has index %d", i, p.Index)
				}
				if p.Question != questions[i].Question {
					t.Errorf("pair %d question = %q", i, p.Question)
				}
				if p.Answer != strings.TrimSpace(tt.answers[i]) {
					t.Errorf("pair %d answer = %q, want trimmed %q", i, p.Answer, tt.answers[i])
				}
			}
		})
	}
}

func TestAnswerCountErrorMessage(t *testing.T) {
	err := &AnswerCountError{Want: 3, Got: 1}
	want := "expected answers to all 3 questions, got 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFormatTranscript(t *testing.T) {
	pairs := []QuestionAnswer{
		{Index: 1, Question: "What is the scope?", Answer: "Go services"},
		{Index: 2, Question: "Who is the audience?", Answer: "Backend engineers"},
	}
	want := "1. What is the scope? - Response: Go services\n" +
		"2. Who is the audience? - Response: Backend engineers\n"
	if got := FormatTranscript(pairs); got != want {
		t.Errorf("FormatTranscript = %q, want %q", got, want)
	}
}

func TestStaticCollector(t *testing.T) {
	c := StaticCollector{"one", "two"}
	answers, err := c.Collect(context.Background(), []ClarifyingQuestion{
		{Question: "A?"}, {Question: "B?"},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(answers) != 2 || answers[0] != "one" || answers[1] != "two" {
		t.Errorf("answers = %v", answers)
	}
}

func TestPromptCollector(t *testing.T) {
	questions := []ClarifyingQuestion{
		{Question: "First?", Reason: "to narrow scope"},
		{Question: "Second?", Reason: "to pick sources"},
	}

	var out bytes.Buffer
	c := &PromptCollector{In: strings.NewReader("one\ntwo\n"), Out: &out}

	answers, err := c.Collect(context.Background(), questions)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(answers) != 2 || answers[0] != "one" || answers[1] != "two" {
		t.Fatalf("answers = %v", answers)
	}

	printed := out.String()
	for _, want := range []string{
		"Please answer the following questions to help with your research:",
		"Question 1: First?",
		"Reason: to narrow scope",
		"Question 2: Second?",
		"Reason: to pick sources",
		"Your answer: ",
		"Thank you! Proceeding with research...",
	} {
		if !strings.Contains(printed, want) {
			t.Errorf("output missing %q\noutput:\n%s", want, printed)
		}
	}
	if got := strings.Count(printed, strings.Repeat("=", 50)); got != 4 {
		t.Errorf("expected 4 divider lines, got %d", got)
	}
}

func TestPromptCollectorMissingFinalNewline(t *testing.T) {
	var out bytes.Buffer
	c := &PromptCollector{In: strings.NewReader("answer"), Out: &out}

	answers, err := c.Collect(context.Background(), []ClarifyingQuestion{{Question: "Only?", Reason: "r"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(answers) != 1 || answers[0] != "answer" {
		t.Fatalf("answers = %v", answers)
	}
}

func TestPromptCollectorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &PromptCollector{In: strings.NewReader("x\n"), Out: &bytes.Buffer{}}
	if _, err := c.Collect(ctx, []ClarifyingQuestion{{Question: "Q?", Reason: "r"}}); err == nil {
		t.Fatal("expected context error")
	}
}
