package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/orchestration"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning/admission"
	"github.com/madhurranjan/vagrant-aws/internal/util/async"
)

var (
	newRunner = orchestration.NewRunner

	writeMetricsFile = provisioning.WriteMetricsFile
)

// Up handles the up command.
//
// All selected machines are provisioned concurrently. Machines in the same
// region share an EC2 client; all attempts share one admission throttle.
func Up(ctx context.Context, configPath string, names []string, metricsFile string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	machines, err := selectMachines(cfg, names)
	if err != nil {
		return err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}

	timeouts := config.LoadTimeouts()
	observer := newObserver()
	throttle := admission.New(timeouts.AdmissionCooldown)

	var (
		mu      sync.Mutex
		results []*orchestration.Result
	)
	regions, groups := groupByRegion(machines)
	tasks := make([]async.Task, 0, len(regions))
	for _, region := range regions {
		client, err := newEC2Client(ctx, region, cfg.Profile, timeouts)
		if err != nil {
			return fmt.Errorf("failed to create EC2 client for %s: %w", region, err)
		}
		runner := newRunner(client, store,
			orchestration.WithObserver(observer),
			orchestration.WithTimeouts(timeouts),
			orchestration.WithThrottle(throttle),
		)
		group := groups[region]
		tasks = append(tasks, async.Task{
			Name: region,
			Func: func(ctx context.Context) error {
				res, err := runner.UpAll(ctx, group)
				mu.Lock()
				results = append(results, res...)
				mu.Unlock()
				return err
			},
		})
	}

	runErr := async.RunParallel(ctx, tasks)
	fmt.Fprint(os.Stdout, renderSummary(results))

	if metricsFile != "" {
		if err := writeMetricsFile(metricsFile); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	return runErr
}
