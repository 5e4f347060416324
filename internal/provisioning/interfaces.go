package provisioning

import (
	"context"

	"github.com/madhurranjan/vagrant-aws/internal/metadata"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Rollbacker tears down whatever an attempt has created so far.
// Implementations must be idempotent.
type Rollbacker interface {
	Rollback(ctx *Context, reason string) error
}

// Rollback reasons.
const (
	RollbackInterrupted = "interrupted"
	RollbackFailed      = "failed"
	RollbackRecovered   = "recovered"
)

// DestroyRequest asks the destroy workflow to tear down a machine.
type DestroyRequest struct {
	Machine string

	// InstanceID overrides the ID recorded in the metadata store.
	InstanceID string

	// Address overrides the elastic address record in the metadata store.
	Address *metadata.ElasticAddressRecord

	// Force skips the interactive confirmation.
	Force bool

	// ValidateConfig validates the machine configuration before destroying.
	ValidateConfig bool
}

// Destroyer executes destroy requests.
type Destroyer interface {
	Destroy(ctx context.Context, req DestroyRequest) error
}
