package remote

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ssh"
	"github.com/madhurranjan/vagrant-aws/internal/util/netutil"
)

const defaultSSHPort = 22

// Prober makes a single reachability check against the instance.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFactory builds the prober for host once its address is known.
type ProberFactory func(m *config.Machine, host string, dialTimeout time.Duration) (Prober, error)

// BannerProber treats a host as reachable once it sends an SSH
// identification line. It is used when no private key is configured.
type BannerProber struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Probe implements Prober.
func (b *BannerProber) Probe(ctx context.Context) error {
	banner, err := netutil.ReadBanner(ctx, b.Host, b.Port, b.Timeout)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(banner, "SSH-") {
		return fmt.Errorf("unexpected banner from %s: %q", netutil.Address(b.Host, b.Port), banner)
	}
	return nil
}

// DefaultProber authenticates with the machine's private key when one is
// configured and falls back to a banner check otherwise.
func DefaultProber(m *config.Machine, host string, dialTimeout time.Duration) (Prober, error) {
	port := m.SSH.Port
	if port == 0 {
		port = defaultSSHPort
	}

	if m.SSH.PrivateKeyPath == "" {
		return &BannerProber{Host: host, Port: port, Timeout: dialTimeout}, nil
	}

	key, err := os.ReadFile(m.SSH.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	client, err := ssh.NewClient(&ssh.Config{
		Host:        host,
		Port:        port,
		User:        m.SSH.Username,
		PrivateKey:  key,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
