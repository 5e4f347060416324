package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/admission"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/remote"
)

// fakeCloud is a small thread-safe EC2 simulation. Instances boot after
// bootChecks DescribeInstances calls; bootChecks < 0 never boots.
type fakeCloud struct {
	mu         sync.Mutex
	bootChecks int
	launched   []ec2.RunInstanceOpts
	checks     map[string]int
	volumes    map[string]ec2.CreateVolumeOpts
	attached   map[string]bool
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		bootChecks: 2,
		checks:     map[string]int{},
		volumes:    map[string]ec2.CreateVolumeOpts{},
		attached:   map[string]bool{},
	}
}

func (f *fakeCloud) client() *ec2.MockClient {
	return &ec2.MockClient{
		RunInstanceFunc: func(_ context.Context, opts ec2.RunInstanceOpts) (*ec2.Instance, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.launched = append(f.launched, opts)
			id := fmt.Sprintf("i-%d", len(f.launched))
			return &ec2.Instance{ID: id, State: ec2.InstancePending, PrivateIP: "10.0.0.5"}, nil
		},
		GetInstanceFunc: func(_ context.Context, id string) (*ec2.Instance, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.checks[id]++
			inst := &ec2.Instance{ID: id, State: ec2.InstancePending, AvailabilityZone: "us-east-1b"}
			if f.bootChecks >= 0 && f.checks[id] >= f.bootChecks {
				inst.State = ec2.InstanceRunning
				inst.PublicIP = "198.51.100.20"
				inst.PrivateIP = "10.0.0.5"
			}
			return inst, nil
		},
		CreateVolumeFunc: func(_ context.Context, opts ec2.CreateVolumeOpts) (*ec2.Volume, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			id := fmt.Sprintf("vol-%d", len(f.volumes)+1)
			f.volumes[id] = opts
			return &ec2.Volume{ID: id, State: ec2.VolumeCreating, Size: opts.Size}, nil
		},
		GetVolumeFunc: func(_ context.Context, id string) (*ec2.Volume, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			state := ec2.VolumeAvailable
			if f.attached[id] {
				state = ec2.VolumeInUse
			}
			return &ec2.Volume{ID: id, State: state}, nil
		},
		AttachVolumeFunc: func(_ context.Context, volumeID, _, _ string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.attached[volumeID] = true
			return nil
		},
		GetAddressFunc: func(_ context.Context, id string) (*ec2.Address, error) {
			return &ec2.Address{PublicIP: id, AllocationID: "eipalloc-1"}, nil
		},
		AssociateAddressFunc: func(context.Context, *ec2.Address, string) (string, error) {
			return "eipassoc-1", nil
		},
	}
}

func (f *fakeCloud) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launched)
}

// recordingDestroyer records rollback dispatches.
type recordingDestroyer struct {
	mu       sync.Mutex
	requests []provisioning.DestroyRequest
}

func (d *recordingDestroyer) Destroy(_ context.Context, req provisioning.DestroyRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	return nil
}

func (d *recordingDestroyer) Requests() []provisioning.DestroyRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]provisioning.DestroyRequest(nil), d.requests...)
}

// readyProber succeeds on the first probe.
type readyProber struct{}

func (readyProber) Probe(context.Context) error { return nil }

type proberFunc func(ctx context.Context) error

func (f proberFunc) Probe(ctx context.Context) error { return f(ctx) }

func proberFactory(p remote.Prober) remote.ProberFactory {
	return func(*config.Machine, string, time.Duration) (remote.Prober, error) {
		return p, nil
	}
}

func testMachine(name string) *config.Machine {
	return &config.Machine{
		Name:                 name,
		Region:               "us-east-1",
		AMI:                  "ami-12345678",
		InstanceType:         "t3.micro",
		KeypairName:          "deploy",
		SecurityGroups:       []string{"ssh"},
		InstanceReadyTimeout: 10,
	}
}

type testEnv struct {
	cloud     *fakeCloud
	client    *ec2.MockClient
	store     *metadata.MemoryStore
	destroyer *recordingDestroyer
	observer  *provisioning.MockObserver
}

func newTestEnv() *testEnv {
	cloud := newFakeCloud()
	client := cloud.client()
	client.GetSecurityGroupsFunc = func(context.Context, ec2.SecurityGroupQuery) ([]ec2.SecurityGroup, error) {
		return []ec2.SecurityGroup{{
			ID:      "sg-1",
			Name:    "ssh",
			Ingress: []ec2.IngressRule{{Protocol: "tcp", FromPort: 22, ToPort: 22}},
		}}, nil
	}
	return &testEnv{
		cloud:     cloud,
		client:    client,
		store:     metadata.NewMemoryStore(),
		destroyer: &recordingDestroyer{},
		observer:  provisioning.NewMockObserver(),
	}
}

func (e *testEnv) runner(prober remote.Prober, opts ...Option) *Runner {
	base := []Option{
		WithObserver(e.observer),
		WithTimeouts(&config.Timeouts{}),
		WithThrottle(admission.New(0)),
		WithDestroyer(e.destroyer),
		WithRemoteOptions(remote.WithProberFactory(proberFactory(prober))),
	}
	return NewRunner(e.client, e.store, append(base, opts...)...)
}

func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}
