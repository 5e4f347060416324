package metadata

import (
	"context"
	"path"

	"github.com/madhurranjan/vagrant-aws/internal/platform/s3"
)

// ObjectClient is the subset of the S3 client used by S3Store.
type ObjectClient interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

// S3Store keeps values as objects at <prefix>/machines/<machine>/aws/<key>.
type S3Store struct {
	client ObjectClient
	bucket string
	prefix string
}

// NewS3Store returns a store writing to bucket under prefix.
func NewS3Store(client ObjectClient, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(machine, key string) string {
	return path.Join(s.prefix, "machines", machine, "aws", key)
}

// Get reads a value.
func (s *S3Store) Get(ctx context.Context, machine, key string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, s.bucket, s.objectKey(machine, key))
	if err != nil {
		if s3.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes a value.
func (s *S3Store) Put(ctx context.Context, machine, key string, value []byte) error {
	return s.client.PutObject(ctx, s.bucket, s.objectKey(machine, key), value)
}

// Delete removes a value.
func (s *S3Store) Delete(ctx context.Context, machine, key string) error {
	return s.client.DeleteObject(ctx, s.bucket, s.objectKey(machine, key))
}
