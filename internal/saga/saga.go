// Package saga runs a fixed sequence of forward steps across independent
// systems and, when one fails, undoes the completed ones in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("saga")

// DefaultCompensationTimeout bounds the whole compensation phase.
const DefaultCompensationTimeout = 10 * time.Second

// Step is one forward action and its optional undo.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	// Compensate undoes Do. Nil means the step leaves nothing to undo.
	Compensate func(ctx context.Context) error
}

// CompensationError records one undo that did not succeed.
type CompensationError struct {
	Step string
	Err  error
}

// Failure is returned by Run when a step fails. Err is the step's own
// error; Compensations lists the undos that failed, if any.
type Failure struct {
	Step          string
	Err           error
	Compensated   []string
	Compensations []CompensationError
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("saga step %q failed: %v", f.Step, f.Err)
	if len(f.Compensations) > 0 {
		failed := make([]string, 0, len(f.Compensations))
		for _, c := range f.Compensations {
			failed = append(failed, fmt.Sprintf("%s: %v", c.Step, c.Err))
		}
		msg += "; compensation failed (" + strings.Join(failed, ", ") + ")"
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// CompensationFailed reports whether any undo failed, which may leave
// orphaned records behind.
func (f *Failure) CompensationFailed() bool {
	return len(f.Compensations) > 0
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

// Observer is notified of every compensation outcome.
type Observer func(step string, err error)

// Runner executes sagas.
type Runner struct {
	name                string
	compensationTimeout time.Duration
	observe             Observer
	logger              *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCompensationTimeout overrides DefaultCompensationTimeout.
func WithCompensationTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.compensationTimeout = d
		}
	}
}

// WithObserver registers a callback for compensation outcomes.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observe = o }
}

// NewRunner creates a Runner named for logs and spans.
func NewRunner(name string, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		name:                name,
		compensationTimeout: DefaultCompensationTimeout,
		logger:              logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes steps in order. On the first failure it runs the
// compensations of the already completed steps, newest first, each exactly
// once, under a context that survives request cancellation but is bounded
// by the compensation timeout. The returned error is a *Failure.
func (r *Runner) Run(ctx context.Context, steps ...Step) error {
	ctx, span := tracer.Start(ctx, "Saga."+r.name)
	defer span.End()

	completed := make([]Step, 0, len(steps))
	for _, step := range steps {
		if err := step.Do(ctx); err != nil {
			span.SetAttributes(attribute.String("saga.failed_step", step.Name))
			span.SetStatus(codes.Error, err.Error())

			failure := &Failure{Step: step.Name, Err: err}
			r.compensate(ctx, completed, failure)
			return failure
		}
		completed = append(completed, step)
	}
	return nil
}

func (r *Runner) compensate(ctx context.Context, completed []Step, failure *Failure) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.compensationTimeout)
	defer cancel()

	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}

		err := step.Compensate(cctx)
		if r.observe != nil {
			r.observe(step.Name, err)
		}
		if err != nil {
			failure.Compensations = append(failure.Compensations, CompensationError{Step: step.Name, Err: err})
			r.logger.Error("saga compensation failed",
				zap.String("saga", r.name),
				zap.String("step", step.Name),
				zap.String("failed_step", failure.Step),
				zap.Bool("alert", true),
				zap.Error(err),
			)
			continue
		}
		failure.Compensated = append(failure.Compensated, step.Name)
		r.logger.Warn("saga step compensated",
			zap.String("saga", r.name),
			zap.String("step", step.Name),
			zap.String("failed_step", failure.Step),
		)
	}
}
