package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-logr/logr/funcr"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
)

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.LoadFile

	newStore = metadata.New

	newEC2Client = func(ctx context.Context, region, profile string, timeouts *config.Timeouts) (ec2.Client, error) {
		client, err := ec2.NewRealClient(ctx, region, ec2.WithProfile(profile), ec2.WithTimeouts(timeouts))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	newObserver = func() provisioning.Observer {
		if logFormat == LogFormatJSON {
			return provisioning.NewLogrObserver(funcr.NewJSON(func(obj string) {
				_, _ = fmt.Fprintln(logOutput, obj)
			}, funcr.Options{}))
		}
		return provisioning.NewConsoleObserver()
	}
)

// Status output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	logFormat = LogFormatText

	logOutput io.Writer = os.Stderr
)

// SetLogFormat selects how status output is written: colored text lines or
// one JSON object per line.
func SetLogFormat(format string) error {
	switch format {
	case LogFormatText, LogFormatJSON:
		logFormat = format
		return nil
	default:
		return fmt.Errorf("unknown log format %q (expected %s or %s)", format, LogFormatText, LogFormatJSON)
	}
}

// selectMachines returns the named machines, or all of them when names is
// empty.
func selectMachines(cfg *config.Config, names []string) ([]*config.Machine, error) {
	if len(names) == 0 {
		out := make([]*config.Machine, 0, len(cfg.Machines))
		for i := range cfg.Machines {
			out = append(out, &cfg.Machines[i])
		}
		return out, nil
	}

	out := make([]*config.Machine, 0, len(names))
	for _, name := range names {
		m, ok := cfg.Machine(name)
		if !ok {
			return nil, fmt.Errorf("machine %q is not defined in the configuration", name)
		}
		out = append(out, m)
	}
	return out, nil
}

// groupByRegion groups machines by region. Regions are returned sorted.
func groupByRegion(machines []*config.Machine) ([]string, map[string][]*config.Machine) {
	groups := make(map[string][]*config.Machine)
	for _, m := range machines {
		groups[m.Region] = append(groups[m.Region], m)
	}
	regions := make([]string, 0, len(groups))
	for r := range groups {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions, groups
}
