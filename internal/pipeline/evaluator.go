package pipeline

import (
	"context"

	"github.com/kayz/cadforge/internal/extract"
	"github.com/kayz/cadforge/internal/llm"
	"github.com/kayz/cadforge/internal/logger"
)

// evaluate runs the review cycle: a second prompt embedding the original
// task and the generated code, a second model call, and the same extraction
// step. The generation result is never modified here.
func (p *Pipeline) evaluate(ctx context.Context, req Request, gen extract.GenerationResult) (extract.EvaluationResult, error) {
	evalPrompt, err := p.Builder.Evaluation(req.Task, gen.Code)
	if err != nil {
		return extract.EvaluationResult{}, err
	}

	// Review runs with provider-default sampling: the verdict should not
	// inherit the creativity settings of the generation call.
	logger.Debug("evaluation prompt assembled (%d bytes)", len(evalPrompt))
	raw, err := p.Invoker.Invoke(ctx, evalPrompt, llm.SamplingConfig{})
	if err != nil {
		return extract.EvaluationResult{}, err
	}

	eval, err := extract.Evaluation(raw)
	if err != nil {
		return extract.EvaluationResult{}, err
	}

	if eval.ImprovedCode != "" {
		logger.Info("reviewer proposed improved code (%d bytes); original kept as primary artifact", len(eval.ImprovedCode))
	}
	return eval, nil
}
