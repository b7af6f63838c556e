package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockbrief/internal/models"
)

func TestNewTaskContextIncludesOnlyDeclaredSucceededDeps(t *testing.T) {
	target := TaskSpec{
		Name:     models.TaskRatios,
		Requires: []string{models.TaskFinancial},
	}

	results := map[string]models.TaskResult{
		models.TaskFinancial: {
			Task:    models.TaskFinancial,
			Payload: &models.FinancialData{Ticker: "ACME", Revenue: 5000, SharesOutstanding: 100, FiscalYear: "2025"},
		},
		// Succeeded but undeclared: must not leak into the context.
		models.TaskRisk: {
			Task:    models.TaskRisk,
			Payload: &models.RiskAssessment{Ticker: "ACME"},
		},
	}

	tctx := NewTaskContext("ACME", &models.RawFinancials{Ticker: "ACME"}, target, results)

	assert.Len(t, tctx.Inputs, 1)
	assert.Contains(t, tctx.Inputs, models.TaskFinancial)
	assert.NotContains(t, tctx.Inputs, models.TaskRisk)
}

func TestNewTaskContextExcludesFailedDeps(t *testing.T) {
	target := TaskSpec{
		Name:     models.TaskDecision,
		Requires: []string{models.TaskFinancial, models.TaskRisk},
	}

	results := map[string]models.TaskResult{
		models.TaskFinancial: {
			Task:    models.TaskFinancial,
			Payload: &models.FinancialData{Ticker: "ACME"},
		},
		models.TaskRisk: {
			Task:    models.TaskRisk,
			Failure: &models.TaskFailure{Kind: models.FailureSchemaViolation},
		},
	}

	tctx := NewTaskContext("ACME", &models.RawFinancials{Ticker: "ACME"}, target, results)

	assert.Contains(t, tctx.Inputs, models.TaskFinancial)
	assert.NotContains(t, tctx.Inputs, models.TaskRisk)
}

func TestRenderMarksMissingSectionsUnavailable(t *testing.T) {
	target := TaskSpec{
		Name:        models.TaskDecision,
		Requires:    []string{models.TaskFinancial, models.TaskRisk},
		Instruction: "Synthesize the final recommendation.",
	}

	results := map[string]models.TaskResult{
		models.TaskFinancial: {
			Task:    models.TaskFinancial,
			Payload: &models.FinancialData{Ticker: "ACME", Revenue: 5000},
		},
	}

	tctx := NewTaskContext("ACME", &models.RawFinancials{Ticker: "ACME", CompanyName: "Acme Corp"}, target, results)

	prompt, err := tctx.Render(target)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Company ticker: ACME")
	assert.Contains(t, prompt, "Acme Corp")
	assert.Contains(t, prompt, `Section "financial"`)
	assert.Contains(t, prompt, `Section "risk": data unavailable`)
	assert.Contains(t, prompt, "Synthesize the final recommendation.")
}
