package remote

import (
	"context"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/retry"
	"github.com/madhurranjan/vagrant-aws/internal/util/timing"
)

const phaseName = "ssh"

// Phase polls the instance until SSH is reachable.
type Phase struct {
	newProber ProberFactory
}

// Option configures a Phase.
type Option func(*Phase)

// WithProberFactory replaces DefaultProber.
func WithProberFactory(f ProberFactory) Option {
	return func(p *Phase) {
		p.newProber = f
	}
}

// NewPhase creates a remote control wait phase.
func NewPhase(opts ...Option) *Phase {
	p := &Phase{newProber: DefaultProber}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements provisioning.Phase.
func (p *Phase) Name() string {
	return phaseName
}

// Provision implements provisioning.Phase. An interruption ends the wait
// without an error.
func (p *Phase) Provision(ctx *provisioning.Context) error {
	if ctx.Interrupted() {
		return nil
	}

	info := ctx.Instance.Info()
	host := info.PublicIP
	if host == "" {
		host = info.PrivateIP
	}
	if host == "" {
		return &provisioning.ProviderError{
			Operation: "DescribeInstances",
			Message:   "instance " + info.ID + " has no address to connect to",
		}
	}

	prober, err := p.newProber(ctx.Machine, host, ctx.Timeouts.SSHDial)
	if err != nil {
		return &provisioning.ConfigError{Field: "ssh.private_key_path", Message: err.Error()}
	}

	ctx.Observer.Info("Waiting for SSH on %s...", host)
	elapsed, err := timing.Run(func() error {
		_, err := retry.Poll(ctx, func(c context.Context) (bool, error) {
			if err := prober.Probe(c); err != nil {
				return false, err
			}
			return true, nil
		}, retry.WithInterval(ctx.Timeouts.SSHPoll), retry.WithTries(0))
		return err
	})
	ctx.Metrics.Record(provisioning.MetricInstanceSSHTime, elapsed)

	if ctx.Interrupted() {
		return nil
	}
	if err != nil {
		return err
	}
	ctx.Observer.Info("Machine is ready for SSH access after %v", elapsed.Round(time.Millisecond))
	return nil
}
