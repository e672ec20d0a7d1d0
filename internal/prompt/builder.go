package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kayz/cadforge/internal/config"
	"github.com/kayz/cadforge/internal/logger"
)

const generationPreamble = `You are an expert mechanical CAD engineer. You translate descriptions of
mechanical parts into parametric CadQuery (Python) source code.

Rules:
- Name every dimension as a variable so the part stays parametric.
- Assign the finished solid to a variable named "result".
- Respond with a single JSON object of the form {"code": "..."} and nothing
  else. No markdown fences, no explanation before or after the object.`

const evaluationPreamble = `You are a strict CAD code reviewer. You are given the original request for a
mechanical part and the CadQuery (Python) code that was generated for it.
Review the code for syntax errors, missing features and dimensional mistakes.

Respond with a single JSON object and nothing else, using exactly these keys:
{"is_correct": "Yes" | "No" | "Partially",
 "syntax_errors": null or a description string,
 "issues": [list of issue strings],
 "improved_code": null or a corrected full script string,
 "summary": one-sentence overall judgement}`

const (
	documentBegin = "[BEGIN SPEC DOCUMENT]"
	documentEnd   = "[END SPEC DOCUMENT]"
)

// Builder assembles generation and evaluation prompts from the instruction
// preamble, the few-shot example library and a task.
type Builder struct {
	cfg config.PromptConfig
}

// NewBuilder creates a new Builder from config.
func NewBuilder(cfg config.PromptConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Generation assembles the code-generation prompt for a task.
func (b *Builder) Generation(task Task) (string, error) {
	if err := task.Validate(); err != nil {
		return "", fmt.Errorf("invalid task: %w", err)
	}

	var sections []section
	sections = appendSection(sections, "Instructions", b.preamble())
	sections = appendSection(sections, "Examples", renderExamples(b.Examples()))

	switch task.Kind {
	case TaskDocument:
		// Document content goes in verbatim, unescaped and untruncated,
		// fenced by sentinels so the model can tell data from instructions.
		doc := documentBegin + "\n" + task.Text + "\n" + documentEnd
		sections = appendSection(sections, "Specification Document", doc)
		sections = appendSection(sections, "Request",
			"Generate the CadQuery code for the part described in the specification document above.")
	default:
		sections = appendSection(sections, "Request", strings.TrimSpace(task.Text))
	}

	return renderSections(sections), nil
}

// Evaluation assembles the review prompt for a task and its generated code.
// Both the task text and the code are embedded verbatim.
func (b *Builder) Evaluation(task Task, code string) (string, error) {
	if err := task.Validate(); err != nil {
		return "", fmt.Errorf("invalid task: %w", err)
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("no generated code to evaluate")
	}

	var sections []section
	sections = appendSection(sections, "Instructions", evaluationPreamble)
	sections = appendSection(sections, "Original Request", task.Text)
	sections = appendSection(sections, "Generated Code", code)

	return renderSections(sections), nil
}

// Examples returns the few-shot library in its fixed render order:
// built-ins first, then any extra on-disk examples sorted by file name.
func (b *Builder) Examples() []Example {
	examples := make([]Example, len(builtinExamples))
	copy(examples, builtinExamples)
	return append(examples, b.extraExamples()...)
}

func (b *Builder) preamble() string {
	if b.cfg.PreamblePath == "" {
		return generationPreamble
	}
	content, err := os.ReadFile(b.cfg.PreamblePath)
	if err != nil {
		logger.Warn("Preamble override not found, using built-in: %s", b.cfg.PreamblePath)
		return generationPreamble
	}
	return strings.TrimSpace(string(content))
}

func (b *Builder) extraExamples() []Example {
	if b.cfg.ExamplesDir == "" {
		return nil
	}
	entries, err := os.ReadDir(b.cfg.ExamplesDir)
	if err != nil {
		logger.Warn("Examples dir not readable, skipping: %s", b.cfg.ExamplesDir)
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var out []Example
	for _, name := range names {
		path := filepath.Join(b.cfg.ExamplesDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Example file not readable, skipping: %s", path)
			continue
		}
		var ex Example
		if err := json.Unmarshal(data, &ex); err != nil {
			logger.Warn("Example file not valid JSON, skipping: %s", path)
			continue
		}
		if ex.User == "" || ex.Assistant == "" {
			logger.Warn("Example file missing user/assistant, skipping: %s", path)
			continue
		}
		out = append(out, ex)
	}
	return out
}

type section struct {
	title   string
	content string
}

func appendSection(list []section, title, content string) []section {
	if strings.TrimSpace(content) == "" {
		return list
	}
	return append(list, section{title: title, content: content})
}

func renderSections(sections []section) string {
	var out strings.Builder
	for i, s := range sections {
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString("### ")
		out.WriteString(s.title)
		out.WriteString("\n\n")
		out.WriteString(s.content)
	}
	return out.String()
}

func renderExamples(examples []Example) string {
	var parts []string
	for _, ex := range examples {
		parts = append(parts, "User: "+ex.User+"\nAssistant: "+ex.Assistant)
	}
	return strings.Join(parts, "\n\n")
}
