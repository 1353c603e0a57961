// Package assist connects the viewer to a natural-language reasoning
// assistant. The assistant receives the raw ontology markup plus a question
// and answers with free text or a structured query result.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable wraps transport, auth and breaker failures.
	ErrUnavailable = errors.New("assistant unavailable")
	// ErrMalformedResponse is returned when a query answer is not the expected JSON object.
	ErrMalformedResponse = errors.New("malformed assistant response")
)

// Mode selects the kind of answer requested.
type Mode string

const (
	// ModeQuery asks for a class-expression result as JSON.
	ModeQuery Mode = "query"
	// ModeChat asks for a free-form answer.
	ModeChat Mode = "chat"
)

// Result is the structured answer to a class-expression query.
type Result struct {
	Subclasses  []string `json:"subclasses"`
	Instances   []string `json:"instances"`
	Explanation string   `json:"explanation"`
}

// Request is one call to the assistant.
type Request struct {
	Ontology string
	Input    string
	Mode     Mode
}

// Reply carries the raw text and, for queries, the parsed result.
type Reply struct {
	Text   string  `json:"text"`
	Result *Result `json:"result,omitempty"`
}

// Assistant answers questions about an ontology document.
type Assistant interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// Options configures the backend returned by New.
type Options struct {
	Backend    string
	Model      string
	Endpoint   string
	APIKey     string
	MaxContext int
	Timeout    time.Duration
}

// New returns the configured backend.
func New(opts Options, logger *zap.Logger) (Assistant, error) {
	switch opts.Backend {
	case "", "stub":
		return NewStub(), nil
	case "gemini":
		if FindModel(opts.Model) == nil {
			return nil, fmt.Errorf("unknown model %q", opts.Model)
		}
		return NewGemini(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown assistant backend %q", opts.Backend)
	}
}

// DLExamples are sample class expressions for the query mode.
var DLExamples = []string{
	"Researcher",
	"Record",
	"Researcher and appliesMethod some Interview",
	"ResearchProject and hasResearcher value Researcher_DrSmith",
	"SubjectObject and hasSubjectObjects some Record",
	"Code and hasRelatedCode some Code",
	"AnalyticCategory or DescriptiveCategory",
	"Record and isInterpreted some Interpretation",
	"GroundedTheory and hasElaboratedTheory some AnalyticCategory",
	"FieldOfStudy and hasSubjectObjectApplication some SubjectObject",
}

// ChatExamples are sample questions for the chat mode.
var ChatExamples = []string{
	"List all Research Projects and their Researchers.",
	"What are the objectives of the 'Qualitative Education Study'?",
	"Which Theoretical Framework is being used?",
	"What research questions are posed?",
	"Show the methods applied by researcher 'Dr. Smith'.",
	"List all data records collected from 'University Students'.",
	"What codes emerged from the 'Initial Coding Interpretation'?",
	"Find the Core Category of the grounded theory.",
	"Show the relationship between Analytic and Descriptive categories.",
	"List all Bibliography entries and what records they refer to.",
}

// ParseResult decodes a query answer, tolerating a fenced code block around
// the JSON.
func ParseResult(text string) (*Result, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r.Subclasses == nil {
		r.Subclasses = []string{}
	}
	if r.Instances == nil {
		r.Instances = []string{}
	}
	return &r, nil
}

// Truncate cuts markup to at most n bytes on a rune boundary. n <= 0 keeps
// everything.
func Truncate(markup string, n int) string {
	if n <= 0 || len(markup) <= n {
		return markup
	}
	for n > 0 && !utf8.RuneStart(markup[n]) {
		n--
	}
	return markup[:n]
}
