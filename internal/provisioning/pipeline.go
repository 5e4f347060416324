package provisioning

import (
	"fmt"
	"time"
)

// Pipeline runs phases strictly in order.
//
// Interruption is checked before every phase and after the last one; an
// interrupted attempt is rolled back and Run returns nil. A phase failing
// with a domain error is rolled back once before the error is returned.
// Other errors are returned as is and left to the recovery hook.
type Pipeline struct {
	Phases   []Phase
	rollback Rollbacker
}

// NewPipeline creates a pipeline of phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// WithRollback sets the rollbacker used on failure and interruption.
func (p *Pipeline) WithRollback(r Rollbacker) *Pipeline {
	p.rollback = r
	return p
}

// Run executes the phases.
func (p *Pipeline) Run(ctx *Context) error {
	start := time.Now()
	ctx.Observer.Printf("Starting provisioning with %d phases...", len(p.Phases))

	for i, phase := range p.Phases {
		if ctx.Interrupted() {
			return p.interrupted(ctx, fmt.Sprintf("before %s", phase.Name()))
		}

		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(p.Phases))
		LogPhaseStart(ctx.Observer, name)

		if err := phase.Provision(ctx); err != nil {
			if ctx.Interrupted() {
				return p.interrupted(ctx, fmt.Sprintf("during %s", phase.Name()))
			}
			LogPhaseFailed(ctx.Observer, name, err)
			wrapped := fmt.Errorf("%s phase failed: %w", phase.Name(), err)
			if IsDomainError(err) {
				p.doRollback(ctx, RollbackFailed)
			}
			return wrapped
		}

		LogPhaseComplete(ctx.Observer, name, time.Since(phaseStart))
	}

	if ctx.Interrupted() {
		return p.interrupted(ctx, "after the last phase")
	}

	ctx.Observer.Printf("Provisioning completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) interrupted(ctx *Context, where string) error {
	ctx.Observer.Event(Event{
		Type:    EventInterrupted,
		Message: fmt.Sprintf("interrupted %s", where),
	})
	ctx.Observer.Warn("Interrupted %s, rolling back", where)
	if err := p.doRollback(ctx, RollbackInterrupted); err != nil {
		return fmt.Errorf("rollback after interruption failed: %w", err)
	}
	return nil
}

func (p *Pipeline) doRollback(ctx *Context, reason string) error {
	if p.rollback == nil {
		return nil
	}
	if err := p.rollback.Rollback(ctx, reason); err != nil {
		ctx.Observer.Error("Rollback failed: %v", err)
		return err
	}
	return nil
}
