package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/cadforge/internal/config"
	"github.com/kayz/cadforge/internal/extract"
	"github.com/kayz/cadforge/internal/llm"
	"github.com/kayz/cadforge/internal/logger"
	"github.com/kayz/cadforge/internal/pipeline"
	"github.com/kayz/cadforge/internal/prompt"
)

// newInvoker builds the provider from config. Replaced in tests.
var newInvoker = func(ctx context.Context, ai config.AIConfig) (llm.Invoker, error) {
	switch strings.ToLower(strings.TrimSpace(ai.Provider)) {
	case "", "gemini", "google":
		return llm.NewGeminiProvider(ctx, llm.GeminiConfig{
			APIKey: ai.APIKey,
			Model:  ai.Model,
		})
	case "openai":
		return llm.NewOpenAICompatProvider(llm.OpenAICompatConfig{
			APIKey:  ai.APIKey,
			BaseURL: ai.BaseURL,
			Model:   ai.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (expected gemini or openai)", ai.Provider)
	}
}

func newGenerateCommand() *cobra.Command {
	var (
		promptText   string
		specFilePath string
		temperature  float32
		topK         int32
		topP         float32
		evaluate     bool
		outputPath   string
		providerName string
		modelName    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate parametric CadQuery code from a part description",
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := resolveTask(promptText, specFilePath)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if providerName != "" {
				cfg.AI.Provider = providerName
			}
			if modelName != "" {
				cfg.AI.Model = modelName
			}

			// Sampling parameters are passed through only when the user
			// actually set them; otherwise the provider default applies.
			var sampling llm.SamplingConfig
			if cmd.Flags().Changed("temperature") {
				sampling.Temperature = llm.Float32Ptr(temperature)
			}
			if cmd.Flags().Changed("top-k") {
				sampling.TopK = llm.Int32Ptr(topK)
			}
			if cmd.Flags().Changed("top-p") {
				sampling.TopP = llm.Float32Ptr(topP)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			invoker, err := newInvoker(ctx, cfg.AI)
			if err != nil {
				return fmt.Errorf("init %s provider: %w", cfg.AI.Provider, err)
			}

			p := &pipeline.Pipeline{
				Builder:  prompt.NewBuilder(cfg.Prompt),
				Invoker:  invoker,
				Auditor:  pipeline.NewAuditor(cfg.Audit, config.ConfigDir()),
				Provider: cfg.AI.Provider,
				Model:    cfg.AI.Model,
			}

			outcome, err := p.Run(ctx, pipeline.Request{
				Task:     task,
				Sampling: sampling,
				Evaluate: evaluate,
			})
			if err != nil {
				return describeFailure(err)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(outcome.Generation.Code), 0644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				logger.Info("code written to %s", outputPath)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), outcome.Generation.Code)
			}

			if outcome.Evaluation != nil {
				reportEvaluation(cmd, outcome.Evaluation, outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&promptText, "prompt", "p", "", "Free-text description of the part")
	cmd.Flags().StringVar(&specFilePath, "spec-file", "", "Path to a specification document (plain text)")
	cmd.Flags().Float32VarP(&temperature, "temperature", "t", 0, "Sampling temperature in [0, 2]")
	cmd.Flags().Int32Var(&topK, "top-k", 0, "Top-k sampling (positive integer)")
	cmd.Flags().Float32Var(&topP, "top-p", 0, "Top-p sampling in (0, 1]")
	cmd.Flags().BoolVarP(&evaluate, "evaluate", "e", false, "Run a review pass on the generated code")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write generated code to file (default: stdout)")
	cmd.Flags().StringVar(&providerName, "provider", "", "Override configured provider: gemini, openai")
	cmd.Flags().StringVar(&modelName, "model", "", "Override configured model")

	return cmd
}

// resolveTask enforces the exactly-one-task-variant invariant before any
// model call happens.
func resolveTask(promptText, specFilePath string) (prompt.Task, error) {
	hasPrompt := strings.TrimSpace(promptText) != ""
	hasSpec := strings.TrimSpace(specFilePath) != ""

	switch {
	case hasPrompt && hasSpec:
		return prompt.Task{}, fmt.Errorf("--prompt and --spec-file are mutually exclusive")
	case hasPrompt:
		return prompt.FreeformTask(promptText), nil
	case hasSpec:
		data, err := os.ReadFile(specFilePath)
		if err != nil {
			return prompt.Task{}, fmt.Errorf("read spec file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return prompt.Task{}, fmt.Errorf("spec file %s is empty", specFilePath)
		}
		return prompt.DocumentTask(string(data)), nil
	default:
		return prompt.Task{}, fmt.Errorf("either --prompt or --spec-file is required")
	}
}

// describeFailure maps a pipeline failure to a message that tells the user
// which stage failed and whether the cause was the provider or the payload.
func describeFailure(err error) error {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return err
	}

	var quotaErr *llm.QuotaError
	var transportErr *llm.TransportError
	var malformedErr *extract.MalformedPayloadError
	var missingErr *extract.MissingFieldError

	switch {
	case errors.As(err, &quotaErr):
		return fmt.Errorf("%s stage hit the provider rate limit, try again later: %w", stageErr.Stage, stageErr.Err)
	case errors.As(err, &transportErr):
		return fmt.Errorf("%s stage could not reach the provider: %w", stageErr.Stage, stageErr.Err)
	case errors.As(err, &malformedErr):
		return fmt.Errorf("%s stage got an unparseable model response: %w", stageErr.Stage, stageErr.Err)
	case errors.As(err, &missingErr):
		return fmt.Errorf("%s stage got an incomplete model response: %w", stageErr.Stage, stageErr.Err)
	default:
		return err
	}
}

func reportEvaluation(cmd *cobra.Command, eval *extract.EvaluationResult, outputPath string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "--- Review ---")
	fmt.Fprintf(out, "Correct: %s\n", eval.IsCorrect)
	if eval.SyntaxErrors != "" {
		fmt.Fprintf(out, "Syntax errors: %s\n", eval.SyntaxErrors)
	}
	for _, issue := range eval.Issues {
		fmt.Fprintf(out, "- %s\n", issue)
	}
	if eval.Summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", eval.Summary)
	}

	if eval.ImprovedCode == "" {
		return
	}
	// The reviewer's rewrite is an alternative artifact; it never replaces
	// the generated code at the primary output path.
	if outputPath != "" {
		improvedPath := outputPath + ".improved"
		if err := os.WriteFile(improvedPath, []byte(eval.ImprovedCode), 0644); err != nil {
			logger.Warn("write improved code: %v", err)
			return
		}
		fmt.Fprintf(out, "Improved code written to %s\n", improvedPath)
	} else {
		fmt.Fprintln(out, "--- Improved code (reviewer suggestion) ---")
		fmt.Fprintln(out, eval.ImprovedCode)
	}
}

func init() {
	rootCmd.AddCommand(newGenerateCommand())
}
