package research

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// AnswerCountError reports that the collected answers do not line up with the
// generated questions.
type AnswerCountError struct {
	Want int
	Got  int
}

func (e *AnswerCountError) Error() string {
	return fmt.Sprintf("expected answers to all %d questions, got %d", e.Want, e.Got)
}

// PairAnswers matches answers to questions by position. Every question needs
// a non-blank answer; anything else fails with an AnswerCountError so the
// caller can re-prompt instead of planning on partial input.
func PairAnswers(questions []ClarifyingQuestion, answers []string) ([]QuestionAnswer, error) {
	got := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			got++
		}
	}
	if len(answers) != len(questions) || got != len(questions) {
		return nil, &AnswerCountError{Want: len(questions), Got: got}
	}

	pairs := make([]QuestionAnswer, len(questions))
	for i, q := range questions {
		pairs[i] = QuestionAnswer{
			Index:    i + 1,
			Question: q.Question,
			Answer:   strings.TrimSpace(answers[i]),
		}
	}
	return pairs, nil
}

// FormatTranscript renders question/answer pairs in the form the planner
// prompt expects, one numbered line per pair.
func FormatTranscript(pairs []QuestionAnswer) string {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%d. %s - Response: %s\n", p.Index, p.Question, p.Answer)
	}
	return b.String()
}

// PromptCollector asks for answers interactively, one blocking prompt per
// question. Used by the CLI; the run is suspended at the prompt until the
// user responds.
type PromptCollector struct {
	In  io.Reader
	Out io.Writer
}

func (c *PromptCollector) Collect(ctx context.Context, questions []ClarifyingQuestion) ([]string, error) {
	reader := bufio.NewReader(c.In)
	answers := make([]string, 0, len(questions))

	fmt.Fprintln(c.Out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(c.Out, "Please answer the following questions to help with your research:")
	fmt.Fprintln(c.Out, strings.Repeat("=", 50))

	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(c.Out, "\nQuestion %d: %s\n", i+1, q.Question)
		fmt.Fprintf(c.Out, "Reason: %s\n", q.Reason)
		fmt.Fprint(c.Out, "Your answer: ")

		line, err := reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return nil, fmt.Errorf("reading answer %d: %w", i+1, err)
		}
		answers = append(answers, strings.TrimSpace(line))
	}

	fmt.Fprintln(c.Out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(c.Out, "Thank you! Proceeding with research...")
	fmt.Fprintln(c.Out, strings.Repeat("=", 50))
	return answers, nil
}

// StaticCollector hands back answers supplied up front, for callers that
// already collected them (HTTP requests, CLI flags, tests).
type StaticCollector []string

func (c StaticCollector) Collect(ctx context.Context, questions []ClarifyingQuestion) ([]string, error) {
	return c, nil
}
