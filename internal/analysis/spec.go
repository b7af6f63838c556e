package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/stockbrief/internal/models"
)

// TaskCategory groups tasks by how quickly their outputs go stale.
// Market-derived sections age out faster than qualitative commentary.
type TaskCategory string

const (
	CategoryMarket      TaskCategory = "market"
	CategoryQualitative TaskCategory = "qualitative"
)

// TaskSpec is the static declaration of one analysis task: its name, the
// prior task payloads it consumes, its output schema and its prompt. Specs
// are process-wide configuration, loaded once and immutable thereafter.
type TaskSpec struct {
	// Name is the task identifier and the section key in the AnalysisRecord.
	Name string

	// Category drives the freshness oracle's per-category staleness window.
	Category TaskCategory

	// Requires lists the names of tasks whose payloads this task consumes.
	// RawFinancials is always available and never listed here.
	Requires []string

	// Terminal marks the synthesis task. Its failure fails the whole run;
	// it tolerates missing upstream payloads instead of requiring them.
	Terminal bool

	// NewPayload returns a pointer to an empty typed payload struct for
	// this task's output schema.
	NewPayload func() any

	// SystemPrompt frames the task for the reasoning capability.
	SystemPrompt string

	// Instruction describes the task and enumerates the JSON fields the
	// payload must carry. Appended to the rendered task context.
	Instruction string
}

// TaskContext is the isolated execution context handed to one task
// invocation. It carries only the ticker, the run's shared read-only
// RawFinancials and the payloads of the task's declared dependencies.
// Nothing in it survives the invocation, and no task ever observes another
// task's context.
type TaskContext struct {
	Ticker     string
	Financials *models.RawFinancials
	Inputs     map[string]any
}

// NewTaskContext builds the execution context for one task from the run's
// shared financials and the settled results of the task's dependencies.
// Only payloads of declared, succeeded dependencies are included.
func NewTaskContext(ticker string, financials *models.RawFinancials, spec TaskSpec, results map[string]models.TaskResult) *TaskContext {
	inputs := make(map[string]any, len(spec.Requires))
	for _, dep := range spec.Requires {
		if result, ok := results[dep]; ok && result.Succeeded() {
			inputs[dep] = result.Payload
		}
	}

	return &TaskContext{
		Ticker:     ticker,
		Financials: financials,
		Inputs:     inputs,
	}
}

// Render serializes the context into the user prompt body: the raw financial
// bundle, then each dependency section, then the task instruction. Missing
// dependency sections are rendered as unavailable so the terminal synthesis
// task can degrade gracefully instead of crashing.
func (c *TaskContext) Render(spec TaskSpec) (string, error) {
	financialsJSON, err := json.MarshalIndent(c.Financials, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize financials: %w", err)
	}

	prompt := fmt.Sprintf("Company ticker: %s\n\nRaw financial data:\n%s\n", c.Ticker, financialsJSON)

	for _, dep := range spec.Requires {
		payload, ok := c.Inputs[dep]
		if !ok {
			prompt += fmt.Sprintf("\nSection %q: data unavailable\n", dep)
			continue
		}
		payloadJSON, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize %s payload: %w", dep, err)
		}
		prompt += fmt.Sprintf("\nSection %q:\n%s\n", dep, payloadJSON)
	}

	prompt += "\n" + spec.Instruction
	return prompt, nil
}
