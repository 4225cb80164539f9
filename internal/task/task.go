// Package task defines the Task contract and the registry that resolves a
// playbook task's type string to a concrete implementation.
package task

import (
	"context"
	"sort"
)

// Args is the resolved argument map passed to a task: its own `args`
// entries, plus `_variables` (a snapshot of the run's variable map) and,
// when the task is iterating, `item`.
type Args map[string]any

// Task is a registered unit of work. Validate runs once before execution
// and surfaces config errors; Run performs the work (or, in dry-run mode,
// only computes what it would have done).
type Task interface {
	// Validate checks args for required fields and valid enum values.
	// A non-nil error is a config error: the task is skipped, not the run.
	Validate(args Args) error

	// Run executes the task. In dry-run mode, Run must not mutate the
	// filesystem or invoke external tools, but must return a result of
	// the same shape it would have produced live.
	Run(ctx context.Context, args Args, dryRun bool) (any, error)
}

// NewTaskFunc constructs a Task instance. Task packages register one of
// these per type name from their own init(), so this package never imports
// the concrete implementations and no import cycle is possible.
type NewTaskFunc func() Task

var constructors = map[string]NewTaskFunc{}

// Register records a task type's constructor. Called from init() in each
// task implementation's package.
func Register(taskType string, constructor NewTaskFunc) {
	constructors[taskType] = constructor
}

// New resolves a task type string to a fresh Task instance.
func New(taskType string) (Task, bool) {
	constructor, ok := constructors[taskType]
	if !ok {
		return nil, false
	}
	return constructor(), true
}

// Registered returns the sorted set of currently registered type names,
// useful for error messages and for tests asserting on the full registry.
func Registered() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
