// Package admission limits how fast provisioning attempts reach the EC2 API.
//
// Attempts are admitted in batches of config.AdmissionBatchSize. Each batch
// after the first waits one cooldown per batch ahead of it.
package admission

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/util/retry"
)

// Throttle is the process-wide admission gate. One Throttle is shared by all
// attempts of a process.
type Throttle struct {
	seq       atomic.Int64
	batchSize int64
	cooldown  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithBatchSize sets the number of attempts per batch.
func WithBatchSize(n int) Option {
	return func(t *Throttle) {
		if n > 0 {
			t.batchSize = int64(n)
		}
	}
}

// WithSleeper replaces the cooldown sleep, for tests.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Throttle) {
		t.sleep = fn
	}
}

// New returns a Throttle with the given cooldown between batches.
func New(cooldown time.Duration, opts ...Option) *Throttle {
	t := &Throttle{
		batchSize: config.AdmissionBatchSize,
		cooldown:  cooldown,
		sleep:     retry.Sleep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Admit takes the next sequence number and blocks until its batch is
// admitted. The only error is ctx ending during a cooldown.
func (t *Throttle) Admit(ctx context.Context) (int64, error) {
	seq := t.seq.Add(1)
	batch := Batch(seq, t.batchSize)

	for cursor := int64(1); batch > cursor; cursor++ {
		if err := t.sleep(ctx, t.cooldown); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

// Issued returns how many sequence numbers have been handed out.
func (t *Throttle) Issued() int64 {
	return t.seq.Load()
}

// Batch returns the 1-based batch of sequence number seq: ceil(seq/size).
func Batch(seq, size int64) int64 {
	return (seq + size - 1) / size
}
