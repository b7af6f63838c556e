package analysis

import (
	"fmt"
)

// Registry holds the fixed set of task specs and their dependency graph.
// Construction validates the graph: unknown dependencies and cycles are
// configuration errors that must fail process startup, never a run.
type Registry struct {
	specs   []TaskSpec
	byName  map[string]TaskSpec
	batches [][]TaskSpec
}

// NewRegistry builds a registry from the given specs. Returns a
// *ConfigurationError when a task names a dependency that does not exist,
// the graph contains a cycle, or the terminal task declaration is invalid.
func NewRegistry(specs []TaskSpec) (*Registry, error) {
	byName := make(map[string]TaskSpec, len(specs))
	terminalCount := 0
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &ConfigurationError{Message: "task with empty name"}
		}
		if _, exists := byName[spec.Name]; exists {
			return nil, &ConfigurationError{Message: fmt.Sprintf("duplicate task name %q", spec.Name)}
		}
		byName[spec.Name] = spec
		if spec.Terminal {
			terminalCount++
		}
	}

	if terminalCount != 1 {
		return nil, &ConfigurationError{Message: fmt.Sprintf("exactly one terminal task required, got %d", terminalCount)}
	}

	for _, spec := range specs {
		for _, dep := range spec.Requires {
			depSpec, ok := byName[dep]
			if !ok {
				return nil, &ConfigurationError{Message: fmt.Sprintf("task %q requires unknown task %q", spec.Name, dep)}
			}
			if depSpec.Terminal {
				return nil, &ConfigurationError{Message: fmt.Sprintf("task %q depends on terminal task %q", spec.Name, dep)}
			}
		}
	}

	batches, err := computeBatches(specs)
	if err != nil {
		return nil, err
	}

	return &Registry{
		specs:   specs,
		byName:  byName,
		batches: batches,
	}, nil
}

// computeBatches layers the graph: batch N contains every task whose
// dependencies are all satisfied by strictly earlier batches. Order within a
// batch is declaration order, which keeps logging and tests deterministic.
func computeBatches(specs []TaskSpec) ([][]TaskSpec, error) {
	settled := make(map[string]bool, len(specs))
	remaining := make([]TaskSpec, len(specs))
	copy(remaining, specs)

	var batches [][]TaskSpec
	for len(remaining) > 0 {
		var batch []TaskSpec
		var next []TaskSpec

		for _, spec := range remaining {
			ready := true
			for _, dep := range spec.Requires {
				if !settled[dep] {
					ready = false
					break
				}
			}
			if ready {
				batch = append(batch, spec)
			} else {
				next = append(next, spec)
			}
		}

		if len(batch) == 0 {
			names := make([]string, len(next))
			for i, spec := range next {
				names[i] = spec.Name
			}
			return nil, &ConfigurationError{Message: fmt.Sprintf("dependency cycle among tasks %v", names)}
		}

		for _, spec := range batch {
			settled[spec.Name] = true
		}
		batches = append(batches, batch)
		remaining = next
	}

	return batches, nil
}

// TopologicalBatches returns the dependency-layered task batches. Tasks
// within a batch have no dependency relationship and are safe to run
// concurrently; every dependency of a task sits in a strictly earlier batch.
func (r *Registry) TopologicalBatches() [][]TaskSpec {
	batches := make([][]TaskSpec, len(r.batches))
	for i, batch := range r.batches {
		batches[i] = make([]TaskSpec, len(batch))
		copy(batches[i], batch)
	}
	return batches
}

// Specs returns all task specs in declaration order.
func (r *Registry) Specs() []TaskSpec {
	specs := make([]TaskSpec, len(r.specs))
	copy(specs, r.specs)
	return specs
}

// Spec returns the named task spec.
func (r *Registry) Spec(name string) (TaskSpec, bool) {
	spec, ok := r.byName[name]
	return spec, ok
}

// Terminal returns the synthesis task spec.
func (r *Registry) Terminal() TaskSpec {
	for _, spec := range r.specs {
		if spec.Terminal {
			return spec
		}
	}
	// NewRegistry guarantees exactly one terminal spec.
	panic("registry has no terminal task")
}
