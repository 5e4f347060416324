package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/orchestration"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/destroy"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/remote"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Region: "us-east-1",
		Machines: []config.Machine{
			{Name: "web", AMI: "ami-1", InstanceType: "t3.micro", KeypairName: "deploy"},
			{Name: "db", AMI: "ami-1", InstanceType: "t3.micro", KeypairName: "deploy", Region: "eu-west-1"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

type readyProber struct{}

func (readyProber) Probe(context.Context) error { return nil }

// stubFactories replaces the package factories and restores them when the
// test ends. Tests using it must not run in parallel.
func stubFactories(t *testing.T, cfg *config.Config, store metadata.Store, client ec2.Client) *[]string {
	t.Helper()
	origLoad, origStore, origClient, origObserver := loadConfig, newStore, newEC2Client, newObserver
	origRunner, origDestroyer, origMetrics := newRunner, newDestroyer, writeMetricsFile
	t.Cleanup(func() {
		loadConfig, newStore, newEC2Client, newObserver = origLoad, origStore, origClient, origObserver
		newRunner, newDestroyer, writeMetricsFile = origRunner, origDestroyer, origMetrics
	})

	var regions []string
	loadConfig = func(string) (*config.Config, error) { return cfg, nil }
	newStore = func(context.Context, *config.Config) (metadata.Store, error) { return store, nil }
	newEC2Client = func(_ context.Context, region, _ string, _ *config.Timeouts) (ec2.Client, error) {
		regions = append(regions, region)
		return client, nil
	}
	newObserver = func() provisioning.Observer { return provisioning.NewMockObserver() }
	newRunner = func(c ec2.Client, s metadata.Store, opts ...orchestration.Option) *orchestration.Runner {
		opts = append(opts,
			orchestration.WithTimeouts(&config.Timeouts{}),
			orchestration.WithRemoteOptions(remote.WithProberFactory(
				func(*config.Machine, string, time.Duration) (remote.Prober, error) { return readyProber{}, nil },
			)),
		)
		return orchestration.NewRunner(c, s, opts...)
	}
	return &regions
}

func bootingClient() *ec2.MockClient {
	return &ec2.MockClient{
		GetInstanceFunc: func(_ context.Context, id string) (*ec2.Instance, error) {
			return &ec2.Instance{ID: id, State: ec2.InstanceRunning, PublicIP: "198.51.100.9"}, nil
		},
		GetSecurityGroupsFunc: func(context.Context, ec2.SecurityGroupQuery) ([]ec2.SecurityGroup, error) {
			return []ec2.SecurityGroup{{Name: "default", Ingress: []ec2.IngressRule{{Protocol: "-1"}}}}, nil
		},
	}
}

func TestSelectMachines(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	all, err := selectMachines(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := selectMachines(cfg, []string{"db"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "eu-west-1", one[0].Region)

	_, err = selectMachines(cfg, []string{"cache"})
	assert.ErrorContains(t, err, `machine "cache" is not defined`)
}

func TestGroupByRegion(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	machines, err := selectMachines(cfg, nil)
	require.NoError(t, err)

	regions, groups := groupByRegion(machines)

	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, regions)
	assert.Equal(t, "db", groups["eu-west-1"][0].Name)
	assert.Equal(t, "web", groups["us-east-1"][0].Name)
}

func TestUp(t *testing.T) {
	store := metadata.NewMemoryStore()
	regions := stubFactories(t, testConfig(), store, bootingClient())
	metricsPath := filepath.Join(t.TempDir(), "vagrant-aws.prom")

	err := Up(context.Background(), "machines.yaml", nil, metricsPath)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"us-east-1", "eu-west-1"}, *regions)
	assert.True(t, store.Has("web", metadata.KeyInstanceID))
	assert.True(t, store.Has("db", metadata.KeyInstanceID))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vagrant_aws_provision_attempts_total")
}

func TestUp_SkipsRecordedMachine(t *testing.T) {
	store := metadata.NewMemoryStore()
	require.NoError(t, metadata.SaveInstanceID(context.Background(), store, "web", "i-9"))
	client := bootingClient()
	var launched int32
	client.RunInstanceFunc = func(context.Context, ec2.RunInstanceOpts) (*ec2.Instance, error) {
		atomic.AddInt32(&launched, 1)
		return &ec2.Instance{ID: "i-db", State: ec2.InstancePending}, nil
	}
	stubFactories(t, testConfig(), store, client)

	require.NoError(t, Up(context.Background(), "machines.yaml", nil, ""))

	assert.Equal(t, int32(1), atomic.LoadInt32(&launched))
	id, err := metadata.LoadInstanceID(context.Background(), store, "web")
	require.NoError(t, err)
	assert.Equal(t, "i-9", id)
}

func TestNewObserver_JSON(t *testing.T) {
	origFormat, origOutput := logFormat, logOutput
	t.Cleanup(func() { logFormat, logOutput = origFormat, origOutput })

	var buf bytes.Buffer
	logOutput = &buf
	require.NoError(t, SetLogFormat(LogFormatJSON))

	observer := newObserver()
	require.IsType(t, &provisioning.LogrObserver{}, observer)
	observer.WithFields(map[string]string{"machine": "web"}).Info("Launched instance %s", "i-1")

	assert.Contains(t, buf.String(), `"msg":"Launched instance i-1"`)
	assert.Contains(t, buf.String(), `"machine":"web"`)
}

func TestSetLogFormat(t *testing.T) {
	origFormat := logFormat
	t.Cleanup(func() { logFormat = origFormat })

	require.NoError(t, SetLogFormat(LogFormatText))
	assert.IsType(t, &provisioning.ConsoleObserver{}, newObserver())
	require.Error(t, SetLogFormat("xml"))
	assert.Equal(t, LogFormatText, logFormat)
}

func TestUp_Failure(t *testing.T) {
	client := bootingClient()
	client.RunInstanceFunc = func(context.Context, ec2.RunInstanceOpts) (*ec2.Instance, error) {
		return nil, &ec2.NotFoundError{Code: "InvalidAMIID.NotFound"}
	}
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), client)

	err := Up(context.Background(), "machines.yaml", []string{"web"}, "")

	var nf *provisioning.ResourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ami-1", nf.ID)
}

func TestUp_MetricsWriteError(t *testing.T) {
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), bootingClient())
	writeMetricsFile = func(string) error { return errors.New("permission denied") }

	err := Up(context.Background(), "machines.yaml", []string{"web"}, "/metrics.prom")
	assert.ErrorContains(t, err, "failed to write metrics")
}

func TestUp_ConfigError(t *testing.T) {
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), bootingClient())
	loadConfig = func(string) (*config.Config, error) { return nil, errors.New("failed to read config file") }

	err := Up(context.Background(), "missing.yaml", nil, "")
	assert.ErrorContains(t, err, "failed to read config file")
}

type fakeDestroyer struct {
	requests []provisioning.DestroyRequest
	err      error
}

func (f *fakeDestroyer) Destroy(_ context.Context, req provisioning.DestroyRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

func TestDestroy(t *testing.T) {
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), bootingClient())
	fake := &fakeDestroyer{}
	newDestroyer = func(ec2.Client, metadata.Store, *config.Config, provisioning.Observer) provisioning.Destroyer {
		return fake
	}

	require.NoError(t, Destroy(context.Background(), "machines.yaml", nil, true))

	require.Len(t, fake.requests, 2)
	for _, req := range fake.requests {
		assert.True(t, req.Force)
		assert.True(t, req.ValidateConfig)
	}
}

func TestDestroy_DeclinedIsSkipped(t *testing.T) {
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), bootingClient())
	newDestroyer = func(ec2.Client, metadata.Store, *config.Config, provisioning.Observer) provisioning.Destroyer {
		return &fakeDestroyer{err: destroy.ErrDeclined}
	}

	assert.NoError(t, Destroy(context.Background(), "machines.yaml", []string{"web"}, false))
}

func TestDestroy_Error(t *testing.T) {
	stubFactories(t, testConfig(), metadata.NewMemoryStore(), bootingClient())
	newDestroyer = func(ec2.Client, metadata.Store, *config.Config, provisioning.Observer) provisioning.Destroyer {
		return &fakeDestroyer{err: errors.New("terminate failed")}
	}

	err := Destroy(context.Background(), "machines.yaml", []string{"web"}, true)
	assert.ErrorContains(t, err, "web: terminate failed")
}

func TestDestroy_EndToEnd(t *testing.T) {
	store := metadata.NewMemoryStore()
	require.NoError(t, metadata.SaveInstanceID(context.Background(), store, "web", "i-42"))
	var terminated []string
	client := bootingClient()
	client.TerminateInstanceFunc = func(_ context.Context, id string) error {
		terminated = append(terminated, id)
		return nil
	}
	stubFactories(t, testConfig(), store, client)

	require.NoError(t, Destroy(context.Background(), "machines.yaml", []string{"web"}, true))

	assert.Equal(t, []string{"i-42"}, terminated)
	assert.False(t, store.Has("web", metadata.KeyInstanceID))
}
