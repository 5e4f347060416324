// Package readiness waits for a launched instance to reach the running state.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/retry"
	"github.com/madhurranjan/vagrant-aws/internal/util/timing"
)

const phaseName = "readiness"

// Phase polls the instance until it is running or the ready timeout is
// spent. The try budget is half the timeout in seconds, at least one.
type Phase struct{}

// NewPhase creates a readiness phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements provisioning.Phase.
func (p *Phase) Name() string {
	return phaseName
}

// Tries returns the check budget for a ready timeout in seconds.
func Tries(timeoutSeconds int) int {
	if tries := timeoutSeconds / 2; tries > 0 {
		return tries
	}
	return 1
}

// Provision implements provisioning.Phase.
func (p *Phase) Provision(ctx *provisioning.Context) error {
	if ctx.Interrupted() {
		return nil
	}

	id := ctx.Instance.ID()
	seconds := ctx.Machine.InstanceReadyTimeout
	ctx.Observer.Info("Waiting for instance %s to become ready (timeout %ds)...", id, seconds)

	elapsed, err := timing.Run(func() error {
		_, err := retry.Poll(ctx, func(c context.Context) (bool, error) {
			return checkRunning(c, ctx, id)
		}, retry.WithInterval(ctx.Timeouts.ReadyPoll), retry.WithTries(Tries(seconds)))
		return err
	})
	ctx.Metrics.Record(provisioning.MetricInstanceReadyTime, elapsed)

	switch {
	case err == nil:
		ctx.Instance.SetState(provisioning.StateRunning)
		ctx.Observer.Info("Instance %s is running after %v", id, elapsed.Round(time.Millisecond))
		return nil
	case ctx.Interrupted():
		return nil
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &provisioning.ReadyTimeoutError{Seconds: seconds}
	}
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		err = fatal.Err
	}
	return provisioning.ProviderFailure("DescribeInstances", id, err)
}

func checkRunning(c context.Context, ctx *provisioning.Context, id string) (bool, error) {
	inst, err := ctx.Client.GetInstance(c, id)
	if err != nil {
		// A new instance may not be visible yet.
		if ec2.IsNotFound(err) || ec2.IsRetryable(err) {
			return false, err
		}
		return false, retry.Fatal(err)
	}

	ctx.Instance.SetAvailabilityZone(inst.AvailabilityZone)
	ctx.Instance.SetAddresses(inst.PublicIP, inst.PrivateIP)

	switch inst.State {
	case ec2.InstanceRunning:
		return true, nil
	case ec2.InstanceShuttingDown, ec2.InstanceTerminated, ec2.InstanceStopping, ec2.InstanceStopped:
		return false, retry.Fatal(&provisioning.ProviderError{
			Operation: "DescribeInstances",
			Message:   fmt.Sprintf("instance %s entered state %s while booting", id, inst.State),
		})
	default:
		return false, nil
	}
}
