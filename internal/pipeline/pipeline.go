package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/sitegraph/internal/model"
)

// Step is one stage of a run.
type Step interface {
	// Do executes the step. It returns an error when the run cannot
	// continue; recoverable problems are logged and recorded in run.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging and the run record.
	Name() string
}

// Pipeline executes steps in order over a run.
type Pipeline struct {
	steps []Step

	// finally run after steps regardless of their outcome.
	finally []Step

	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still recorded in the run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithFinally registers steps that run after the regular steps even when
// one of them failed or the context was canceled. They receive a context
// that is not canceled with the parent.
func WithFinally(steps ...Step) Option {
	return func(p *Pipeline) {
		p.finally = append(p.finally, steps...)
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps, stamps the finish time, then runs the finally
// steps. It returns the first step error, or the context error if the
// run was canceled between steps. A finally step error is returned only
// when the run itself succeeded.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	err := p.execute(ctx, run)
	run.Finish()

	finalCtx := context.WithoutCancel(ctx)
	for _, step := range p.finally {
		if ferr := p.do(finalCtx, step, run); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

func (p *Pipeline) execute(ctx context.Context, run *model.Run) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline canceled", "step", step.Name(), "site", run.Site, "reason", err)
			run.Canceled = true
			if firstErr == nil {
				run.Fail(err)
				firstErr = err
			}
			return firstErr
		}

		if err := p.do(ctx, step, run); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				run.Canceled = true
			}
			if firstErr == nil {
				run.Fail(err)
				firstErr = err
			}
			if !p.continueOnError || run.Canceled {
				return firstErr
			}
		}
	}
	return firstErr
}

func (p *Pipeline) do(ctx context.Context, step Step, run *model.Run) error {
	p.logger.Info("executing step", "step", step.Name(), "site", run.Site)
	if err := step.Do(ctx, run); err != nil {
		p.logger.Error("step failed", "step", step.Name(), "site", run.Site, "error", err)
		return err
	}
	p.logger.Debug("step completed", "step", step.Name(), "site", run.Site)
	run.PerformedSteps = append(run.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of regular steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order, finally
// steps last.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps)+len(p.finally))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finally {
		names = append(names, step.Name())
	}
	return names
}
