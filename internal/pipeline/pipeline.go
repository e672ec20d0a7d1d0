// Package pipeline orchestrates a single generation run: build prompt,
// invoke the model, extract the structured result, and optionally route it
// through a review pass. Each run is single-shot; every failure is terminal
// and carries the stage it happened in.
package pipeline

import (
	"context"
	"fmt"

	"github.com/kayz/cadforge/internal/extract"
	"github.com/kayz/cadforge/internal/llm"
	"github.com/kayz/cadforge/internal/logger"
	"github.com/kayz/cadforge/internal/prompt"
)

// Stage names the pipeline step a run was in when it ended.
type Stage string

const (
	StageGenerating Stage = "generating"
	StageExtracting Stage = "extracting"
	StageEvaluating Stage = "evaluating"
	StageEvaluated  Stage = "evaluated"
	StageDone       Stage = "done"
)

// StageError is a terminal pipeline failure tagged with its stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Request describes one pipeline run. Task and Sampling are built once per
// invocation and not mutated afterwards.
type Request struct {
	Task     prompt.Task
	Sampling llm.SamplingConfig
	Evaluate bool
}

// Outcome is the result of a successful run. Generation is immutable once
// produced: a reviewer's improved code is surfaced in Evaluation, never
// substituted back into Generation.
type Outcome struct {
	Generation extract.GenerationResult
	Evaluation *extract.EvaluationResult
}

// Pipeline ties the prompt builder, the model invoker and the extractor
// together. Auditor may be nil.
type Pipeline struct {
	Builder *prompt.Builder
	Invoker llm.Invoker
	Auditor *Auditor

	Provider string
	Model    string
}

// Run executes one generation pass, plus a review pass when requested.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.Sampling.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampling config: %w", err)
	}

	genPrompt, err := p.Builder.Generation(req.Task)
	if err != nil {
		return nil, err
	}

	logger.Debug("generation prompt assembled (%d bytes)", len(genPrompt))
	raw, err := p.Invoker.Invoke(ctx, genPrompt, req.Sampling)
	if err != nil {
		p.audit(req, genPrompt, nil, StageGenerating)
		return nil, &StageError{Stage: StageGenerating, Err: err}
	}

	gen, err := extract.Generation(raw)
	if err != nil {
		p.audit(req, genPrompt, nil, StageExtracting)
		return nil, &StageError{Stage: StageExtracting, Err: err}
	}

	outcome := &Outcome{Generation: gen}
	stage := StageDone

	if req.Evaluate {
		eval, err := p.evaluate(ctx, req, gen)
		if err != nil {
			p.audit(req, genPrompt, outcome, StageEvaluating)
			return nil, &StageError{Stage: StageEvaluating, Err: err}
		}
		outcome.Evaluation = &eval
		stage = StageEvaluated
	}

	p.audit(req, genPrompt, outcome, stage)
	return outcome, nil
}
