// Package extract coerces raw model text into structured results. Models
// are asked for a bare JSON object but routinely wrap it in prose or
// markdown fences, so parsing is two-phase: a strict JSON parse of the raw
// text, then a boundary scan between the outermost braces on failure.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kayz/cadforge/internal/logger"
)

// MalformedPayloadError reports raw text that could not be parsed as a
// structured payload by either phase.
type MalformedPayloadError struct {
	Snippet string
	Err     error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload (near %q): %v", e.Snippet, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// MissingFieldError reports a well-formed payload lacking a required key.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("payload missing required field %q", e.Field)
}

// GenerationResult is the extracted outcome of a generation call.
type GenerationResult struct {
	// Code is plain source text: no markdown fence, embedded escape
	// sequences resolved (barring the decode fallback).
	Code string
	// RawResponse is the untouched model text, retained for diagnostics.
	RawResponse string
}

// Verdict is the reviewer's correctness call.
type Verdict string

const (
	VerdictYes       Verdict = "Yes"
	VerdictNo        Verdict = "No"
	VerdictPartially Verdict = "Partially"
)

// EvaluationResult is the extracted outcome of a review call.
type EvaluationResult struct {
	IsCorrect    Verdict
	SyntaxErrors string
	Issues       []string
	ImprovedCode string
	Summary      string
	RawResponse  string
}

type generationPayload struct {
	Code *string `json:"code"`
}

type evaluationPayload struct {
	IsCorrect    *string  `json:"is_correct"`
	SyntaxErrors *string  `json:"syntax_errors"`
	Issues       []string `json:"issues"`
	ImprovedCode *string  `json:"improved_code"`
	Summary      *string  `json:"summary"`
}

// Generation parses raw model text into a GenerationResult.
func Generation(raw string) (GenerationResult, error) {
	candidate, err := payload(raw)
	if err != nil {
		return GenerationResult{}, err
	}

	var p generationPayload
	if err := json.Unmarshal(candidate, &p); err != nil {
		return GenerationResult{}, &MalformedPayloadError{Snippet: snippet(string(candidate)), Err: err}
	}
	if p.Code == nil || *p.Code == "" {
		return GenerationResult{}, &MissingFieldError{Field: "code"}
	}

	return GenerationResult{
		Code:        DecodeEscapes(*p.Code),
		RawResponse: raw,
	}, nil
}

// Evaluation parses raw model text into an EvaluationResult.
func Evaluation(raw string) (EvaluationResult, error) {
	candidate, err := payload(raw)
	if err != nil {
		return EvaluationResult{}, err
	}

	var p evaluationPayload
	if err := json.Unmarshal(candidate, &p); err != nil {
		return EvaluationResult{}, &MalformedPayloadError{Snippet: snippet(string(candidate)), Err: err}
	}
	if p.IsCorrect == nil || *p.IsCorrect == "" {
		return EvaluationResult{}, &MissingFieldError{Field: "is_correct"}
	}
	if p.Summary == nil {
		return EvaluationResult{}, &MissingFieldError{Field: "summary"}
	}

	result := EvaluationResult{
		IsCorrect:   normalizeVerdict(*p.IsCorrect),
		Issues:      p.Issues,
		Summary:     *p.Summary,
		RawResponse: raw,
	}
	if p.SyntaxErrors != nil {
		result.SyntaxErrors = *p.SyntaxErrors
	}
	if p.ImprovedCode != nil && *p.ImprovedCode != "" {
		result.ImprovedCode = DecodeEscapes(*p.ImprovedCode)
	}
	return result, nil
}

// payload locates the structured payload inside raw text. Phase one is a
// strict parse of the trimmed input; phase two strips markdown fences and
// scans for the outermost matched braces, tolerating leading and trailing
// prose the model added despite instructions.
func payload(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &MalformedPayloadError{Snippet: "", Err: fmt.Errorf("empty response")}
	}

	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return json.RawMessage(trimmed), nil
	}

	candidate, err := scanPayload(trimmed)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(candidate)) {
		return nil, &MalformedPayloadError{Snippet: snippet(candidate), Err: fmt.Errorf("candidate is not valid JSON")}
	}
	return json.RawMessage(candidate), nil
}

// scanPayload returns the inclusive slice between the first '{' and the
// last '}' after fences are stripped.
func scanPayload(text string) (string, error) {
	text = stripFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", &MalformedPayloadError{Snippet: snippet(text), Err: fmt.Errorf("no JSON object found")}
	}
	return text[start : end+1], nil
}

// stripFences removes leading/trailing markdown code-fence lines.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func normalizeVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return VerdictYes
	case "no":
		return VerdictNo
	case "partially", "partial":
		return VerdictPartially
	default:
		// Field presence is validated here, vocabulary is not: an
		// off-script verdict passes through verbatim.
		logger.Warn("unrecognized is_correct verdict %q, keeping verbatim", s)
		return Verdict(s)
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
