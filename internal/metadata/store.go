package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/platform/s3"
)

// Keys used by the provisioning workflows.
const (
	KeyInstanceID = "id"
	KeyElasticIP  = "elastic_ip"
)

// ErrNotFound is returned by Get when the key has never been written or has
// been deleted.
var ErrNotFound = errors.New("metadata key not found")

// Store is a per-machine key/value store.
// Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, machine, key string) ([]byte, error)
	Put(ctx context.Context, machine, key string, value []byte) error
	Delete(ctx context.Context, machine, key string) error
}

// New builds the store selected by cfg.Metadata.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Metadata.Backend {
	case "", config.MetadataBackendFile:
		return NewFileStore(cfg.DataDir), nil
	case config.MetadataBackendS3:
		client, err := s3.NewClient(ctx, s3.Options{
			Region:    cfg.Metadata.Region,
			Profile:   cfg.Profile,
			Endpoint:  cfg.Metadata.Endpoint,
			AccessKey: cfg.Metadata.AccessKey,
			SecretKey: cfg.Metadata.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		exists, err := client.BucketExists(ctx, cfg.Metadata.Bucket)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("metadata bucket %s does not exist", cfg.Metadata.Bucket)
		}
		return NewS3Store(client, cfg.Metadata.Bucket, cfg.Metadata.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata.Backend)
	}
}

// SaveInstanceID records the provider ID of a machine's instance.
func SaveInstanceID(ctx context.Context, s Store, machine, id string) error {
	return s.Put(ctx, machine, KeyInstanceID, []byte(id))
}

// LoadInstanceID returns the recorded instance ID, or ErrNotFound.
func LoadInstanceID(ctx context.Context, s Store, machine string) (string, error) {
	data, err := s.Get(ctx, machine, KeyInstanceID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
