package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateTestKey(t *testing.T) (ed25519.PrivateKey, []byte) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	return priv, pem.EncodeToMemory(block)
}

// startServer runs a minimal SSH server that accepts only authorized.
func startServer(t *testing.T, authorized ssh.PublicKey) (string, int) {
	t.Helper()
	hostKey, _ := generateTestKey(t)
	hostSigner, err := ssh.NewSignerFromKey(hostKey)
	require.NoError(t, err)

	serverConfig := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if string(key.Marshal()) == string(authorized.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, assert.AnError
		},
	}
	serverConfig.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer func() { _ = conn.Close() }()
				_, chans, reqs, err := ssh.NewServerConn(conn, serverConfig)
				if err != nil {
					return
				}
				go ssh.DiscardRequests(reqs)
				for ch := range chans {
					_ = ch.Reject(ssh.Prohibited, "no channels")
				}
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	_, keyPEM := generateTestKey(t)

	client, err := NewClient(&Config{Host: "10.0.0.5", User: "ec2-user", PrivateKey: keyPEM})
	require.NoError(t, err)
	assert.Equal(t, defaultPort, client.config.Port)
	assert.Equal(t, defaultDialTimeout, client.config.DialTimeout)
	assert.NotNil(t, client.config.HostKeyCallback)
	assert.Equal(t, "10.0.0.5:22", client.Address())
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()
	_, keyPEM := generateTestKey(t)

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"missing host", &Config{User: "root", PrivateKey: keyPEM}},
		{"missing user", &Config{Host: "h", PrivateKey: keyPEM}},
		{"missing key", &Config{Host: "h", User: "root"}},
		{"invalid key", &Config{Host: "h", User: "root", PrivateKey: []byte("invalid key")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewClient_DoesNotMutateConfig(t *testing.T) {
	t.Parallel()
	_, keyPEM := generateTestKey(t)
	cfg := &Config{Host: "h", User: "root", PrivateKey: keyPEM}

	_, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Zero(t, cfg.Port)
	assert.Nil(t, cfg.HostKeyCallback)
}

func TestProbe_Success(t *testing.T) {
	t.Parallel()
	priv, keyPEM := generateTestKey(t)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	host, port := startServer(t, signer.PublicKey())

	client, err := NewClient(&Config{Host: host, Port: port, User: "ec2-user", PrivateKey: keyPEM})
	require.NoError(t, err)
	assert.NoError(t, client.Probe(context.Background()))
}

func TestProbe_AuthRejected(t *testing.T) {
	t.Parallel()
	other, _ := generateTestKey(t)
	otherSigner, err := ssh.NewSignerFromKey(other)
	require.NoError(t, err)
	host, port := startServer(t, otherSigner.PublicKey())

	_, keyPEM := generateTestKey(t)
	client, err := NewClient(&Config{Host: host, Port: port, User: "ec2-user", PrivateKey: keyPEM})
	require.NoError(t, err)

	err = client.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handshake")
}

func TestProbe_ConnectionRefused(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, keyPEM := generateTestKey(t)
	client, err := NewClient(&Config{
		Host:        "127.0.0.1",
		Port:        port,
		User:        "ec2-user",
		PrivateKey:  keyPEM,
		DialTimeout: time.Second,
	})
	require.NoError(t, err)

	err = client.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:"+strconv.Itoa(port))
}
