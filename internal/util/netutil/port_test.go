package netutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T, banner string) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if banner != "" {
				_, _ = conn.Write([]byte(banner))
			}
			_ = conn.Close()
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestPortOpen(t *testing.T) {
	t.Parallel()
	port := listen(t, "")

	assert.True(t, PortOpen(context.Background(), "127.0.0.1", port, time.Second))
	assert.False(t, PortOpen(context.Background(), "127.0.0.1", closedPort(t), 200*time.Millisecond))
}

func TestReadBanner(t *testing.T) {
	t.Parallel()
	port := listen(t, "SSH-2.0-OpenSSH_9.6\r\n")

	banner, err := ReadBanner(context.Background(), "127.0.0.1", port, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", banner)
}

func TestReadBanner_ConnectionRefused(t *testing.T) {
	t.Parallel()
	_, err := ReadBanner(context.Background(), "127.0.0.1", closedPort(t), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.0.0.5:22", Address("10.0.0.5", 22))
	assert.Equal(t, "[::1]:22", Address("::1", 22))
}
