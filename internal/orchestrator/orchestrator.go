// Package orchestrator runs a loaded playbook: resolving each task's input
// set, dispatching it single/fan-out/batch, and threading results and
// variables through to the next task.
package orchestrator

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/logctx"
	"github.com/hristovelev/crunchize/internal/pathinfer"
	"github.com/hristovelev/crunchize/internal/playbook"
	"github.com/hristovelev/crunchize/internal/record"
	"github.com/hristovelev/crunchize/internal/sequence"
	"github.com/hristovelev/crunchize/internal/task"
	"github.com/hristovelev/crunchize/internal/template"
)

// Orchestrator executes a playbook's task list in order.
type Orchestrator struct {
	Config   playbook.Config
	DryRun   bool
	Logger   *slog.Logger
	Resolver *template.Resolver

	// MaxWorkers bounds fan-out concurrency; defaults to runtime.NumCPU().
	MaxWorkers int

	variables   map[string]any
	taskResults map[string]any

	// taskWasLoop tracks, per task name, whether that task fanned out over
	// items — consulted so file_amount/every_nth are never re-applied to an
	// input set a prior iterating task already produced (Invariant 3).
	taskWasLoop map[string]bool

	// previousTaskName is the task executed immediately before the one
	// currently running, consulted for implicit-input chaining.
	previousTaskName string
}

// New builds an Orchestrator for one playbook run.
func New(pb *playbook.Playbook, cfg playbook.Config, dryRun bool, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	vars := make(map[string]any, len(pb.Vars))
	for k, v := range pb.Vars {
		vars[k] = v
	}

	o := &Orchestrator{
		Config:      cfg,
		DryRun:      dryRun,
		Logger:      logger,
		Resolver:    template.New(),
		MaxWorkers:  runtime.NumCPU(),
		variables:   vars,
		taskResults: make(map[string]any),
		taskWasLoop: make(map[string]bool),
	}
	o.Resolver.Warn = func(expr string) {
		o.Logger.Warn("unresolved template expression", "expr", expr)
	}

	// vars may themselves contain templates; resolve once against themselves.
	for k, v := range vars {
		vars[k] = o.Resolver.Resolve(v, vars)
	}

	return o
}

// Run executes every task definition in order, returning ctx's error
// before starting the next task once ctx has been cancelled.
func (o *Orchestrator) Run(ctx context.Context, tasks []playbook.TaskDefinition) error {
	for i, def := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.runOne(ctx, i, def); err != nil {
			return err
		}
	}
	return nil
}

// Results returns the accumulated task_results map.
func (o *Orchestrator) Results() map[string]any { return o.taskResults }

// Variables returns the accumulated variables map.
func (o *Orchestrator) Variables() map[string]any { return o.variables }

func (o *Orchestrator) runOne(ctx context.Context, index int, def playbook.TaskDefinition) error {
	if def.Type == "" {
		o.Logger.Error("skipping task: no type specified", "task", def.Name)
		return nil
	}

	logctx.SetCurrentTask(def.Name)
	defer logctx.SetCurrentTask("")

	o.Logger.Info("running task", "task", def.Name, "type", def.Type)

	impl, ok := task.New(def.Type)
	if !ok {
		ce := crunchizeerrors.ErrUnknownTaskType(def.Type)
		o.Logger.Error(ce.Error(), "task", def.Name)
		return nil
	}

	items, wasPreFiltered := o.resolveInputSet(def)

	var output any
	if items != nil {
		if !wasPreFiltered {
			items = o.applyInputFilters(items)
		}
		if def.Batch {
			output = o.runBatch(ctx, impl, def, items)
			o.taskWasLoop[def.Name] = false
		} else {
			output = o.runFanOut(ctx, impl, def, items)
			o.taskWasLoop[def.Name] = true
		}
	} else {
		output = o.runSingle(ctx, impl, def)
		o.taskWasLoop[def.Name] = false
	}

	o.taskResults[def.Name] = output
	o.variables[def.Name] = output
	if def.Register != "" {
		o.variables[def.Register] = output
		o.Logger.Debug("registered result to variable", "var", def.Register)
	}

	o.previousTaskName = def.Name
	return nil
}

// resolveInputSet determines the items a task iterates over, honoring the
// precedence input > loop > implicit previous-task output > none. The
// second return value reports whether the set came from a task that already
// fanned out (so file_amount/every_nth must not be reapplied to it).
func (o *Orchestrator) resolveInputSet(def playbook.TaskDefinition) ([]any, bool) {
	if def.Input != "" {
		if result, ok := o.taskResults[def.Input]; ok {
			if list, isList := result.([]any); isList {
				return list, o.taskWasLoop[def.Input]
			}
			return nil, false
		}
		if v, ok := o.variables[def.Input]; ok {
			if list, isList := v.([]any); isList {
				return list, false
			}
			return nil, false
		}
		o.Logger.Warn("input not found in task results or variables", "input", def.Input)
		return nil, false
	}

	if def.Loop != nil {
		resolved := o.Resolver.Resolve(def.Loop, o.variables)
		if list, ok := resolved.([]any); ok {
			return list, false
		}
		return nil, false
	}

	// Implicit: consume the previous task's output, if it's a list.
	if o.previousTaskName != "" {
		if result, ok := o.taskResults[o.previousTaskName]; ok {
			if list, isList := result.([]any); isList {
				return list, o.taskWasLoop[o.previousTaskName]
			}
		}
	}
	return nil, false
}

// applyInputFilters applies the playbook's file_amount stride sampling and
// every_nth decimation to a freshly-resolved (not already-iterated) input set.
func (o *Orchestrator) applyInputFilters(items []any) []any {
	if o.Config.FileAmount >= 1.0 && o.Config.EveryNth <= 1 {
		return items
	}

	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = pathinfer.Resolve(item, pathinfer.Input)
	}

	kept := sequence.FilterByAmount(paths, o.Config.FileAmount)
	kept = sequence.EveryNth(kept, o.Config.EveryNth)

	out := make([]any, len(kept))
	for i, idx := range kept {
		out[i] = items[idx]
	}
	return out
}

func (o *Orchestrator) runSingle(ctx context.Context, impl task.Task, def playbook.TaskDefinition) any {
	ctxVars := cloneMap(o.variables)
	resolvedArgs := o.resolveArgs(def.Args, ctxVars)
	return o.invoke(ctx, impl, def, resolvedArgs)
}

func (o *Orchestrator) runBatch(ctx context.Context, impl task.Task, def playbook.TaskDefinition, items []any) any {
	ctxVars := cloneMap(o.variables)
	resolvedArgs := o.resolveArgs(def.Args, ctxVars)
	resolvedArgs["items"] = items
	return o.invoke(ctx, impl, def, resolvedArgs)
}

// runFanOut dispatches one goroutine per item, bounded by MaxWorkers,
// preserving submission order in the returned result list regardless of
// completion order.
func (o *Orchestrator) runFanOut(ctx context.Context, impl task.Task, def playbook.TaskDefinition, items []any) []any {
	o.Logger.Info("parallelizing task over items", "count", len(items))

	results := make([]any, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.MaxWorkers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			itemCtx := cloneMap(o.variables)
			itemCtx["item"] = item
			itemCtx["index"] = i
			itemCtx["total"] = len(items)
			itemCtx["first_item"] = items[0]
			itemCtx["last_item"] = items[len(items)-1]
			if m, ok := record.Classify(item).AsMap(); ok {
				for k, v := range m {
					if _, reserved := itemCtx[k]; !reserved {
						itemCtx[k] = v
					}
				}
			}

			resolvedArgs := o.resolveArgs(def.Args, itemCtx)
			if _, has := resolvedArgs["item"]; !has {
				resolvedArgs["item"] = item
			}

			results[i] = o.invoke(gctx, impl, def, resolvedArgs)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) resolveArgs(args map[string]any, ctxVars map[string]any) task.Args {
	resolved := o.Resolver.Resolve(mapAny(args), ctxVars)
	m, _ := resolved.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	out := task.Args(m)
	out["_variables"] = cloneMap(o.variables)
	return out
}

func (o *Orchestrator) invoke(ctx context.Context, impl task.Task, def playbook.TaskDefinition, args task.Args) any {
	if err := impl.Validate(args); err != nil {
		o.Logger.Error("task config invalid", "task", def.Name, "error", err)
		return nil
	}

	result, err := impl.Run(ctx, args, o.DryRun)
	if err != nil {
		o.Logger.Error("task execution failed", "task", def.Name, "error", err)
		return nil
	}
	return result
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mapAny(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
