// Package rollback tears down a failed or interrupted attempt through the
// destroy workflow.
package rollback

import (
	"context"
	"fmt"
	"sync"

	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
)

// Coordinator dispatches at most one successful forced destroy per
// instance ID. A failed destroy releases the ID so a later rollback or
// Recover can try again. It is safe to share between attempts.
type Coordinator struct {
	destroyer provisioning.Destroyer

	mu         sync.Mutex
	dispatched map[string]bool
}

var _ provisioning.Rollbacker = (*Coordinator)(nil)

// New creates a Coordinator that destroys through d.
func New(d provisioning.Destroyer) *Coordinator {
	return &Coordinator{
		destroyer:  d,
		dispatched: make(map[string]bool),
	}
}

// Rollback implements provisioning.Rollbacker.
//
// The destroy runs with the attempt's cancellation stripped, so an
// interrupted attempt still cleans up. Confirmation is forced and the
// machine configuration is not validated again.
func (c *Coordinator) Rollback(ctx *provisioning.Context, reason string) error {
	id := ctx.Instance.ID()
	if id == "" {
		ctx.Observer.Printf("No instance was created, nothing to roll back")
		return nil
	}
	if !c.claim(id) {
		return nil
	}

	ctx.Observer.Event(provisioning.Event{
		Type:     provisioning.EventRollback,
		Phase:    "rollback",
		Message:  fmt.Sprintf("Rolling back instance %s (%s)", id, reason),
		Resource: id,
		Fields:   map[string]string{"reason": reason},
	})
	provisioning.RecordRollback(reason)

	dctx := ctx.Detached()
	if ctx.Timeouts.Delete > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(dctx, ctx.Timeouts.Delete)
		defer cancel()
	}

	err := c.destroyer.Destroy(dctx, provisioning.DestroyRequest{
		Machine:        ctx.Machine.Name,
		InstanceID:     id,
		Address:        ctx.Address,
		Force:          true,
		ValidateConfig: false,
	})
	if err != nil {
		c.release(id)
		return fmt.Errorf("failed to roll back instance %s: %w", id, err)
	}
	ctx.Instance.SetState(provisioning.StateTerminated)
	return nil
}

// Recover is the backstop for errors that escaped the pipeline's own
// handling. Domain errors were already rolled back; anything else rolls
// back if an instance exists.
func (c *Coordinator) Recover(ctx *provisioning.Context, err error) error {
	if err == nil || provisioning.IsDomainError(err) {
		return nil
	}
	if ctx.Instance.State() == provisioning.StateNotCreated {
		return nil
	}
	ctx.Observer.Error("Unexpected error, rolling back: %v", err)
	return c.Rollback(ctx, provisioning.RollbackRecovered)
}

// Dispatched reports whether a destroy for id is in flight or has succeeded.
func (c *Coordinator) Dispatched(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatched[id]
}

func (c *Coordinator) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dispatched[id] {
		return false
	}
	c.dispatched[id] = true
	return true
}

func (c *Coordinator) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dispatched, id)
}
