package provisioning

import (
	"context"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
)

// Context wraps all dependencies and state of one provisioning attempt.
// Cancellation of the embedded context.Context is the interruption signal.
type Context struct {
	context.Context
	Machine  *config.Machine
	Client   ec2.Client
	Store    metadata.Store
	Observer Observer
	Timeouts *config.Timeouts
	Metrics  *Metrics

	// Sequence is the admission sequence number of the attempt.
	Sequence int64

	// Results populated by the phases.
	Instance *InstanceHandle
	Volumes  []*VolumeHandle
	Address  *metadata.ElasticAddressRecord
	Warnings []*ConfigWarning
}

// ContextOption configures NewContext.
type ContextOption func(*Context)

// WithObserver sets the observer. The default is a ConsoleObserver.
func WithObserver(o Observer) ContextOption {
	return func(c *Context) {
		c.Observer = o
	}
}

// WithTimeouts sets the timeouts. The default is config.LoadTimeouts().
func WithTimeouts(t *config.Timeouts) ContextOption {
	return func(c *Context) {
		c.Timeouts = t
	}
}

// WithSequence records the admission sequence number.
func WithSequence(seq int64) ContextOption {
	return func(c *Context) {
		c.Sequence = seq
	}
}

// NewContext creates a new provisioning context for machine.
func NewContext(
	ctx context.Context,
	machine *config.Machine,
	client ec2.Client,
	store metadata.Store,
	opts ...ContextOption,
) *Context {
	c := &Context{
		Context:  ctx,
		Machine:  machine,
		Client:   client,
		Store:    store,
		Metrics:  NewMetrics(),
		Instance: NewInstanceHandle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Observer == nil {
		c.Observer = NewConsoleObserver()
	}
	if c.Timeouts == nil {
		c.Timeouts = config.LoadTimeouts()
	}
	return c
}

// Detached returns the attempt's context without its cancellation.
// Provider calls that create or attach resources run on it: once such a call
// is issued its result is recorded even if the attempt is interrupted
// meanwhile, so rollback knows what to tear down. Interruption is then
// observed at the next check point.
func (c *Context) Detached() context.Context {
	return context.WithoutCancel(c.Context)
}

// Interrupted reports whether the attempt has been interrupted.
func (c *Context) Interrupted() bool {
	return c.Err() != nil
}

// Warn records a non-fatal configuration warning and reports it.
func (c *Context) Warn(phase, message string) {
	w := &ConfigWarning{Message: message}
	c.Warnings = append(c.Warnings, w)
	LogWarning(c.Observer, phase, w)
}
