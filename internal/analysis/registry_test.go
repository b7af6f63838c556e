package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockbrief/internal/models"
)

func spec(name string, terminal bool, requires ...string) TaskSpec {
	return TaskSpec{
		Name:       name,
		Category:   CategoryQualitative,
		Requires:   requires,
		Terminal:   terminal,
		NewPayload: func() any { return &models.CompanyKnowledge{} },
	}
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name    string
		specs   []TaskSpec
		wantErr string
	}{
		{
			name:    "empty task name",
			specs:   []TaskSpec{spec("", true)},
			wantErr: "empty name",
		},
		{
			name:    "duplicate task name",
			specs:   []TaskSpec{spec("a", false), spec("a", false), spec("z", true)},
			wantErr: "duplicate task name",
		},
		{
			name:    "no terminal task",
			specs:   []TaskSpec{spec("a", false)},
			wantErr: "exactly one terminal task",
		},
		{
			name:    "two terminal tasks",
			specs:   []TaskSpec{spec("a", true), spec("b", true)},
			wantErr: "exactly one terminal task",
		},
		{
			name:    "unknown dependency",
			specs:   []TaskSpec{spec("a", false, "missing"), spec("z", true)},
			wantErr: "unknown task",
		},
		{
			name:    "dependency on terminal task",
			specs:   []TaskSpec{spec("a", false, "z"), spec("z", true)},
			wantErr: "depends on terminal task",
		},
		{
			name:    "two-node cycle",
			specs:   []TaskSpec{spec("a", false, "b"), spec("b", false, "a"), spec("z", true)},
			wantErr: "cycle",
		},
		{
			name:    "self cycle",
			specs:   []TaskSpec{spec("a", false, "a"), spec("z", true)},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := NewRegistry(tt.specs)
			require.Error(t, err)
			assert.Nil(t, registry)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTopologicalBatches(t *testing.T) {
	registry, err := NewRegistry([]TaskSpec{
		spec("a", false),
		spec("b", false, "a"),
		spec("c", false, "a"),
		spec("d", false, "b", "c"),
		spec("z", true, "d"),
	})
	require.NoError(t, err)

	batches := registry.TopologicalBatches()
	require.Len(t, batches, 4)

	names := func(batch []TaskSpec) []string {
		var out []string
		for _, s := range batch {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"a"}, names(batches[0]))
	assert.Equal(t, []string{"b", "c"}, names(batches[1]))
	assert.Equal(t, []string{"d"}, names(batches[2]))
	assert.Equal(t, []string{"z"}, names(batches[3]))
}

func TestTopologicalBatchesDependencyOrdering(t *testing.T) {
	registry, err := NewRegistry(DefaultTaskSpecs())
	require.NoError(t, err)

	// Every dependency must settle in a strictly earlier batch.
	batchOf := make(map[string]int)
	for i, batch := range registry.TopologicalBatches() {
		for _, s := range batch {
			batchOf[s.Name] = i
		}
	}

	for _, s := range registry.Specs() {
		for _, dep := range s.Requires {
			assert.Less(t, batchOf[dep], batchOf[s.Name],
				"dependency %s of %s must be in an earlier batch", dep, s.Name)
		}
	}
}

func TestDefaultTaskSpecs(t *testing.T) {
	registry, err := NewRegistry(DefaultTaskSpecs())
	require.NoError(t, err)

	assert.Len(t, registry.Specs(), 9)
	assert.Equal(t, models.TaskDecision, registry.Terminal().Name)

	// The terminal synthesis task consumes every other task.
	assert.Len(t, registry.Terminal().Requires, 8)

	// ratios and valuation are market sections; the decision batch is last.
	batches := registry.TopologicalBatches()
	last := batches[len(batches)-1]
	require.Len(t, last, 1)
	assert.Equal(t, models.TaskDecision, last[0].Name)
}

func TestTerminalPanicsWithoutTerminalSpec(t *testing.T) {
	// Construct a registry bypassing NewRegistry to exercise the guard.
	registry := &Registry{specs: []TaskSpec{spec("a", false)}}
	assert.Panics(t, func() { registry.Terminal() })
}
