// Package netutil provides TCP reachability checks.
package netutil

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 2 * time.Second

// Address joins host and port.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// PortOpen reports whether a TCP connection to host:port succeeds.
func PortOpen(ctx context.Context, host string, port int, timeout time.Duration) bool {
	conn, err := dial(ctx, host, port, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ReadBanner connects to host:port and returns the first line the server sends.
// SSH servers announce themselves with an "SSH-" identification line.
func ReadBanner(ctx context.Context, host string, port int, timeout time.Duration) (string, error) {
	conn, err := dial(ctx, host, port, timeout)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read banner from %s: %w", Address(host, port), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func dial(ctx context.Context, host string, port int, timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", Address(host, port))
}
