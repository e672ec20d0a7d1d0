package extract

import (
	"errors"
	"strings"
	"testing"
)

const cleanPayload = `{"code": "import cadquery as cq\n\nresult = cq.Workplane(\"XY\").box(10.0, 10.0, 10.0)"}`

func TestGenerationCleanPayload(t *testing.T) {
	res, err := Generation(cleanPayload)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if !strings.Contains(res.Code, "import cadquery as cq") {
		t.Fatalf("expected cadquery import in code, got: %q", res.Code)
	}
	if strings.Contains(res.Code, "```") {
		t.Fatalf("expected no markdown fence in code, got: %q", res.Code)
	}
	if res.RawResponse != cleanPayload {
		t.Fatalf("expected raw response retained verbatim")
	}
}

func TestGenerationNoisyWrappingIsIdempotent(t *testing.T) {
	clean, err := Generation(cleanPayload)
	if err != nil {
		t.Fatalf("Generation clean failed: %v", err)
	}

	wrappings := []string{
		"Sure! Here is the code you asked for:\n" + cleanPayload + "\nLet me know if you need changes.",
		"```json\n" + cleanPayload + "\n```",
		"Here you go:\n\n```json\n" + cleanPayload + "\n```\n\nHope this helps!",
		"```\n" + cleanPayload + "\n```",
	}
	for _, raw := range wrappings {
		noisy, err := Generation(raw)
		if err != nil {
			t.Fatalf("Generation noisy failed for %q: %v", raw[:40], err)
		}
		if noisy.Code != clean.Code {
			t.Fatalf("noisy wrapping changed extraction:\nclean: %q\nnoisy: %q", clean.Code, noisy.Code)
		}
	}
}

func TestGenerationResolvesEmbeddedEscapes(t *testing.T) {
	res, err := Generation(cleanPayload)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if !strings.Contains(res.Code, "\n") {
		t.Fatalf("expected real newlines in code, got: %q", res.Code)
	}
	if strings.Contains(res.Code, `\n`) {
		t.Fatalf("expected no unresolved escape sequences, got: %q", res.Code)
	}
	if !strings.Contains(res.Code, `"XY"`) {
		t.Fatalf("expected decoded quotes, got: %q", res.Code)
	}
}

func TestGenerationDoubleEscapedCode(t *testing.T) {
	// The model double-escaped the newlines: after the JSON parse the code
	// still holds literal backslash-n pairs, which the second pass resolves.
	raw := `{"code": "line_one\\nline_two"}`
	res, err := Generation(raw)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if res.Code != "line_one\nline_two" {
		t.Fatalf("expected second decode pass, got: %q", res.Code)
	}
}

func TestGenerationMissingCodeField(t *testing.T) {
	for _, raw := range []string{
		`{"script": "print(1)"}`,
		`{"code": ""}`,
		`{"code": null}`,
	} {
		_, err := Generation(raw)
		var missing *MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingFieldError for %q, got: %v", raw, err)
		}
		if missing.Field != "code" {
			t.Fatalf("expected field code, got: %q", missing.Field)
		}
	}
}

func TestGenerationMalformedPayload(t *testing.T) {
	for _, raw := range []string{
		"",
		"no braces here at all",
		`{"code": "unbalanced`,
		"The model explained itself and never produced an object.",
	} {
		_, err := Generation(raw)
		var malformed *MalformedPayloadError
		if !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedPayloadError for %q, got: %v", raw, err)
		}
	}
}

func TestScanPayloadBoundaries(t *testing.T) {
	got, err := scanPayload(`prose before {"a": 1} prose after`)
	if err != nil {
		t.Fatalf("scanPayload failed: %v", err)
	}
	if got != `{"a": 1}` {
		t.Fatalf("expected exact inner payload, got: %q", got)
	}
}

func TestEvaluationFullPayload(t *testing.T) {
	raw := `Review complete.
{"is_correct": "Partially",
 "syntax_errors": null,
 "issues": ["fillet radius exceeds wall thickness", "hole depth not parametric"],
 "improved_code": "import cadquery as cq\nresult = cq.Workplane(\"XY\").box(1, 1, 1)",
 "summary": "Mostly right, two dimensional issues."}`

	res, err := Evaluation(raw)
	if err != nil {
		t.Fatalf("Evaluation failed: %v", err)
	}
	if res.IsCorrect != VerdictPartially {
		t.Fatalf("expected Partially, got: %q", res.IsCorrect)
	}
	if len(res.Issues) != 2 || res.Issues[0] != "fillet radius exceeds wall thickness" {
		t.Fatalf("expected ordered issues, got: %v", res.Issues)
	}
	if res.SyntaxErrors != "" {
		t.Fatalf("expected empty syntax errors for null, got: %q", res.SyntaxErrors)
	}
	if !strings.Contains(res.ImprovedCode, "import cadquery") {
		t.Fatalf("expected improved code, got: %q", res.ImprovedCode)
	}
	if res.Summary == "" {
		t.Fatalf("expected summary")
	}
}

func TestEvaluationVerdictNormalization(t *testing.T) {
	cases := map[string]Verdict{
		"yes":       VerdictYes,
		"No":        VerdictNo,
		"PARTIALLY": VerdictPartially,
		"partial":   VerdictPartially,
		"maybe":     Verdict("maybe"),
	}
	for in, want := range cases {
		raw := `{"is_correct": "` + in + `", "summary": "s"}`
		res, err := Evaluation(raw)
		if err != nil {
			t.Fatalf("Evaluation failed for %q: %v", in, err)
		}
		if res.IsCorrect != want {
			t.Fatalf("verdict %q: expected %q, got %q", in, want, res.IsCorrect)
		}
	}
}

func TestEvaluationMissingFields(t *testing.T) {
	for raw, field := range map[string]string{
		`{"summary": "s"}`:                        "is_correct",
		`{"is_correct": "Yes"}`:                   "summary",
		`{"is_correct": "", "summary": "s"}`:      "is_correct",
		`{"is_correct": null, "summary": "done"}`: "is_correct",
	} {
		_, err := Evaluation(raw)
		var missing *MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingFieldError for %q, got: %v", raw, err)
		}
		if missing.Field != field {
			t.Fatalf("expected field %q for %q, got %q", field, raw, missing.Field)
		}
	}
}

func TestStripFences(t *testing.T) {
	in := "```python\ncode line\n```"
	if got := stripFences(in); got != "code line" {
		t.Fatalf("expected fences stripped, got: %q", got)
	}
	if got := stripFences("no fences"); got != "no fences" {
		t.Fatalf("expected passthrough, got: %q", got)
	}
}
