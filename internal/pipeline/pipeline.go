package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/docmirror/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each one receiving the job as left by
// the previous steps.
type Step interface {
	// Do executes the step for one page.
	// Returns an error if the page cannot be mirrored; recoverable
	// problems are recorded on the job and Do returns nil.
	Do(ctx context.Context, job *model.PageJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes its steps in order for one page.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps are added with AddSteps after creation.
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

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps for job.
// Context cancellation is checked before each step. The first failing
// step stops the pipeline; its error is returned prefixed with the step
// name.
func (p *Pipeline) Execute(ctx context.Context, job *model.PageJob) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", job.URL,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", job.URL,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"url", job.URL,
				"error", err,
			)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
