package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
	"github.com/ternarybob/stockbrief/internal/models"
)

// Executor runs a single analysis task: it renders the isolated task context
// into a prompt, invokes the reasoning capability, decodes and validates the
// payload against the task's output schema, and retries transient failures
// within the configured budget.
type Executor struct {
	llm      interfaces.LLMService
	validate *validator.Validate
	retry    RetryConfig
	logger   arbor.ILogger
}

// NewExecutor creates a task executor backed by the given reasoning service.
func NewExecutor(llm interfaces.LLMService, retry RetryConfig, logger arbor.ILogger) *Executor {
	return &Executor{
		llm:      llm,
		validate: validator.New(),
		retry:    retry,
		logger:   logger,
	}
}

// Run executes one task invocation and returns its settled TaskResult. It
// never returns an error: every failure mode is folded into the result so
// the orchestrator can treat settlement uniformly.
func (e *Executor) Run(ctx context.Context, spec TaskSpec, tctx *TaskContext) models.TaskResult {
	start := time.Now()

	prompt, err := tctx.Render(spec)
	if err != nil {
		return e.failed(spec, start, 0, models.FailureSchemaViolation, err)
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.retry.Backoff(attempt - 1)
			e.logger.Debug().
				Str("task", spec.Name).
				Str("ticker", tctx.Ticker).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying task after backoff")

			select {
			case <-ctx.Done():
				return e.failed(spec, start, attempts, cancellationKind(ctx), ctx.Err())
			case <-time.After(backoff):
			}
		}

		attempts++
		payload, err := e.invoke(ctx, spec, prompt)
		if err == nil {
			e.logger.Debug().
				Str("task", spec.Name).
				Str("ticker", tctx.Ticker).
				Int("attempts", attempts).
				Dur("duration", time.Since(start)).
				Msg("Task completed")

			return models.TaskResult{
				Task:        spec.Name,
				Payload:     payload,
				Attempts:    attempts,
				Duration:    time.Since(start),
				CompletedAt: time.Now().UTC(),
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			return e.failed(spec, start, attempts, cancellationKind(ctx), ctx.Err())
		}
		if !IsTransientError(err) && !IsSchemaViolation(err) {
			// Permanent upstream error; retrying cannot help.
			break
		}
	}

	kind := models.FailureUpstreamUnavailable
	if IsSchemaViolation(lastErr) {
		kind = models.FailureSchemaViolation
	}
	return e.failed(spec, start, attempts, kind, lastErr)
}

// invoke performs one round trip to the reasoning capability and validates
// the response against the task's output schema.
func (e *Executor) invoke(ctx context.Context, spec TaskSpec, prompt string) (any, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: spec.SystemPrompt},
		{Role: "user", Content: prompt},
	}

	response, err := e.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("task %s invocation failed: %w", spec.Name, err)
	}

	payload := spec.NewPayload()
	if err := json.Unmarshal([]byte(extractJSON(response)), payload); err != nil {
		return nil, &SchemaViolationError{Task: spec.Name, Reason: fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	if err := e.validate.Struct(payload); err != nil {
		return nil, &SchemaViolationError{Task: spec.Name, Reason: err.Error()}
	}

	return payload, nil
}

func (e *Executor) failed(spec TaskSpec, start time.Time, attempts int, kind models.FailureKind, err error) models.TaskResult {
	message := "unknown failure"
	if err != nil {
		message = err.Error()
	}

	e.logger.Warn().
		Str("task", spec.Name).
		Str("kind", string(kind)).
		Int("attempts", attempts).
		Msg("Task failed: " + message)

	return models.TaskResult{
		Task: spec.Name,
		Failure: &models.TaskFailure{
			Kind:     kind,
			Message:  message,
			Attempts: attempts,
		},
		Attempts:    attempts,
		Duration:    time.Since(start),
		CompletedAt: time.Now().UTC(),
	}
}

// cancellationKind maps a done context to the failure kind the result
// should carry.
func cancellationKind(ctx context.Context) models.FailureKind {
	if ctx.Err() == context.DeadlineExceeded {
		return models.FailureTimeout
	}
	return models.FailureCancelled
}

// extractJSON strips markdown fences and surrounding prose from a model
// response, returning the outermost JSON object. Models occasionally wrap
// payloads despite instructions not to.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		if idx := strings.LastIndex(response, "```"); idx >= 0 {
			response = response[:idx]
		}
		response = strings.TrimSpace(response)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return response
}
