// Package address associates an elastic IP with the instance.
//
// Either an existing address is looked up by allocation ID or public IP, or
// a new one is allocated. After association the address record is written
// to the metadata store so destroy can release it later.
package address

import (
	"fmt"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/tags"
	"github.com/madhurranjan/vagrant-aws/internal/util/timing"
)

const phaseName = "elastic-ip"

// Phase runs the workflow selected by the machine's elastic IP mode.
type Phase struct{}

// NewPhase creates an elastic address phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements provisioning.Phase.
func (p *Phase) Name() string {
	return phaseName
}

// Provision implements provisioning.Phase.
func (p *Phase) Provision(ctx *provisioning.Context) error {
	eip := ctx.Machine.ElasticIP
	if eip.Mode() == config.ElasticIPNone {
		return nil
	}

	elapsed, err := timing.Run(func() error {
		if eip.Mode() == config.ElasticIPExisting {
			return AssociateExisting(ctx, eip.Existing)
		}
		return AllocateAndAssociate(ctx, eip.Pool)
	})
	ctx.Metrics.Record(provisioning.MetricInstanceElasticIPTime, elapsed)
	return err
}

// AssociateExisting associates the address identified by id, an allocation
// ID or a public IP, with the instance.
func AssociateExisting(ctx *provisioning.Context, id string) error {
	return associate(ctx, id, false)
}

// AllocateAndAssociate allocates a new address from pool and associates it.
// The address is released again if association fails.
func AllocateAndAssociate(ctx *provisioning.Context, pool string) error {
	m := ctx.Machine
	addr, err := ctx.Client.AllocateAddress(ctx.Detached(), ec2.AllocateAddressOpts{
		VPC:  m.UsesVPC(),
		Pool: pool,
		Tags: tags.NewBuilder(m.Name).Merge(m.Tags).Build(),
	})
	if err != nil {
		return provisioning.ProviderFailure("AllocateAddress", pool, err)
	}
	provisioning.LogResourceCreated(ctx.Observer, phaseName, "elastic IP", addr.PublicIP, addr.AllocationID)

	if err := associate(ctx, addr.PublicIP, true); err != nil {
		// Once associated, the address is released by destroy through ctx.Address.
		if ctx.Address == nil {
			if relErr := ctx.Client.ReleaseAddress(ctx.Detached(), addr); relErr != nil {
				ctx.Observer.Error("Failed to release elastic IP %s: %v", addr.PublicIP, relErr)
			}
		}
		return err
	}
	return nil
}

func associate(ctx *provisioning.Context, id string, allocated bool) error {
	instanceID := ctx.Instance.ID()

	addr, err := ctx.Client.GetAddress(ctx, id)
	if err != nil {
		return addressFailure("DescribeAddresses", id, err)
	}

	ctx.Observer.Info("Associating elastic IP %s with %s", addr.PublicIP, instanceID)
	associationID, err := ctx.Client.AssociateAddress(ctx.Detached(), addr, instanceID)
	if err != nil {
		return addressFailure("AssociateAddress", id, err)
	}

	rec := &metadata.ElasticAddressRecord{
		PublicIP:      addr.PublicIP,
		AllocationID:  addr.AllocationID,
		AssociationID: associationID,
		Allocated:     allocated,
	}
	ctx.Address = rec
	ctx.Instance.SetAddresses(addr.PublicIP, "")

	if err := metadata.SaveElasticAddress(ctx.Detached(), ctx.Store, ctx.Machine.Name, rec); err != nil {
		return fmt.Errorf("failed to persist elastic IP record: %w", err)
	}
	return nil
}

func addressFailure(op, id string, err error) error {
	if ec2.IsNotFound(err) {
		return &provisioning.AddressNotFoundError{Address: id, Err: err}
	}
	return provisioning.ProviderFailure(op, id, err)
}
