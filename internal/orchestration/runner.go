package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/address"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/admission"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/destroy"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/launch"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/readiness"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/remote"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/rollback"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/volumes"
	"github.com/madhurranjan/vagrant-aws/internal/util/async"
)

// Result is what an attempt hands back to the caller.
type Result struct {
	Machine  string
	Attempt  string
	Sequence int64

	Instance provisioning.InstanceInfo
	Volumes  []provisioning.VolumeHandle
	Address  *metadata.ElasticAddressRecord
	Metrics  map[string]time.Duration
	Warnings []string

	// Interrupted is set when the attempt was cancelled and rolled back.
	Interrupted bool

	// AlreadyCreated is set when the machine already had a recorded
	// instance and nothing was launched.
	AlreadyCreated bool
}

// Runner executes provisioning attempts. A Runner may run many attempts
// concurrently; they share its admission throttle and rollback coordinator.
type Runner struct {
	client     ec2.Client
	store      metadata.Store
	observer   provisioning.Observer
	timeouts   *config.Timeouts
	throttle   *admission.Throttle
	destroyer  provisioning.Destroyer
	rollback   *rollback.Coordinator
	remoteOpts []remote.Option
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver sets the observer. The default is a ConsoleObserver.
func WithObserver(o provisioning.Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithTimeouts sets the timeouts. The default is config.LoadTimeouts().
func WithTimeouts(t *config.Timeouts) Option {
	return func(r *Runner) {
		r.timeouts = t
	}
}

// WithThrottle sets the admission throttle. The default throttle uses the
// admission cooldown from the timeouts.
func WithThrottle(t *admission.Throttle) Option {
	return func(r *Runner) {
		r.throttle = t
	}
}

// WithDestroyer sets the destroy workflow used for rollback.
func WithDestroyer(d provisioning.Destroyer) Option {
	return func(r *Runner) {
		r.destroyer = d
	}
}

// WithRemoteOptions configures the SSH wait phase.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(r *Runner) {
		r.remoteOpts = append(r.remoteOpts, opts...)
	}
}

// NewRunner creates a Runner.
func NewRunner(client ec2.Client, store metadata.Store, opts ...Option) *Runner {
	r := &Runner{client: client, store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = provisioning.NewConsoleObserver()
	}
	if r.timeouts == nil {
		r.timeouts = config.LoadTimeouts()
	}
	if r.throttle == nil {
		r.throttle = admission.New(r.timeouts.AdmissionCooldown)
	}
	if r.destroyer == nil {
		r.destroyer = destroy.New(client, store, destroy.WithObserver(r.observer))
	}
	r.rollback = rollback.New(r.destroyer)
	return r
}

// Phases returns the phases run for machine, in order.
func (r *Runner) Phases(m *config.Machine) []provisioning.Phase {
	phases := []provisioning.Phase{launch.NewPhase(), readiness.NewPhase()}
	if len(m.EBSDevices()) > 0 {
		phases = append(phases, volumes.NewPhase())
	}
	if m.ElasticIP.Mode() != config.ElasticIPNone {
		phases = append(phases, address.NewPhase())
	}
	return append(phases, remote.NewPhase(r.remoteOpts...))
}

// Up runs one attempt for machine.
//
// A machine with a recorded instance is skipped: the Result carries the
// recorded ID with AlreadyCreated set. An interrupted attempt is rolled back
// and returns a Result with Interrupted set and a nil error. A failed attempt
// is rolled back and returns its error along with the partial Result.
func (r *Runner) Up(ctx context.Context, m *config.Machine) (res *Result, err error) {
	attempt := uuid.NewString()
	observer := r.observer.WithFields(map[string]string{"machine": m.Name, "attempt": attempt[:8]})

	id, err := metadata.LoadInstanceID(ctx, r.store, m.Name)
	switch {
	case err == nil && id != "":
		observer.Info("Machine %s is already created (%s), skipping", m.Name, id)
		return &Result{
			Machine:        m.Name,
			Attempt:        attempt,
			Instance:       provisioning.InstanceInfo{ID: id},
			AlreadyCreated: true,
		}, nil
	case err != nil && !errors.Is(err, metadata.ErrNotFound) && ctx.Err() == nil:
		return nil, fmt.Errorf("failed to look up existing instance of %s: %w", m.Name, err)
	}

	seq, err := r.throttle.Admit(ctx)
	if err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("admission failed: %w", err)
		}
		observer.Warn("Interrupted while waiting for admission")
		provisioning.RecordAttempt(provisioning.ResultInterrupted)
		return &Result{
			Machine:     m.Name,
			Attempt:     attempt,
			Sequence:    seq,
			Instance:    provisioning.NewInstanceHandle().Info(),
			Interrupted: true,
		}, nil
	}

	pctx := provisioning.NewContext(ctx, m, r.client, r.store,
		provisioning.WithObserver(observer),
		provisioning.WithTimeouts(r.timeouts),
		provisioning.WithSequence(seq),
	)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during provisioning of %s: %v", m.Name, p)
			if rbErr := r.rollback.Recover(pctx, err); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			provisioning.RecordAttempt(provisioning.ResultFailed)
			res = r.result(pctx, attempt)
		}
	}()

	pipeline := provisioning.NewPipeline(r.Phases(m)...).WithRollback(r.rollback)
	if err := pipeline.Run(pctx); err != nil {
		if rbErr := r.rollback.Recover(pctx, err); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		provisioning.RecordAttempt(provisioning.ResultFailed)
		return r.result(pctx, attempt), err
	}

	if pctx.Interrupted() {
		provisioning.RecordAttempt(provisioning.ResultInterrupted)
		res := r.result(pctx, attempt)
		res.Interrupted = true
		return res, nil
	}

	r.handoff(pctx)
	provisioning.RecordAttempt(provisioning.ResultReady)
	return r.result(pctx, attempt), nil
}

// UpAll runs one attempt per machine concurrently. Results are returned in
// the order of machines; an attempt that failed before producing a Result
// leaves a nil entry. Errors of all failed attempts are joined.
func (r *Runner) UpAll(ctx context.Context, machines []*config.Machine) ([]*Result, error) {
	results := make([]*Result, len(machines))
	tasks := make([]async.Task, 0, len(machines))
	for i, m := range machines {
		tasks = append(tasks, async.Task{
			Name: m.Name,
			Func: func(ctx context.Context) error {
				res, err := r.Up(ctx, m)
				results[i] = res
				return err
			},
		})
	}
	return results, async.RunParallel(ctx, tasks)
}

// handoff records the instance ID so destroy can find it later. A failure
// to record it leaves the instance usable but flags the handle.
func (r *Runner) handoff(ctx *provisioning.Context) {
	id := ctx.Instance.ID()
	if err := metadata.SaveInstanceID(ctx.Detached(), ctx.Store, ctx.Machine.Name, id); err != nil {
		ctx.Observer.Error("Failed to record instance ID %s: %v", id, err)
		ctx.Instance.SetState(provisioning.StateReadyWithErrors)
		return
	}
	ctx.Instance.SetState(provisioning.StateReady)
	ctx.Observer.Info("Machine %s is ready (%s)", ctx.Machine.Name, id)
}

func (r *Runner) result(ctx *provisioning.Context, attempt string) *Result {
	res := &Result{
		Machine:  ctx.Machine.Name,
		Attempt:  attempt,
		Sequence: ctx.Sequence,
		Instance: ctx.Instance.Info(),
		Address:  ctx.Address,
		Metrics:  ctx.Metrics.Snapshot(),
	}
	for _, v := range ctx.Volumes {
		res.Volumes = append(res.Volumes, *v)
	}
	for _, w := range ctx.Warnings {
		res.Warnings = append(res.Warnings, w.Message)
	}
	return res
}
