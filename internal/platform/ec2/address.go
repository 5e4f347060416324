package ec2

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/madhurranjan/vagrant-aws/internal/util/ptr"
)

const allocationIDPrefix = "eipalloc-"

// AllocateAddress allocates a new elastic IP.
func (c *RealClient) AllocateAddress(ctx context.Context, opts AllocateAddressOpts) (*Address, error) {
	domain := types.DomainTypeStandard
	if opts.VPC {
		domain = types.DomainTypeVpc
	}
	input := &ec2.AllocateAddressInput{
		Domain:         domain,
		PublicIpv4Pool: ptr.String(opts.Pool),
	}
	if opts.VPC {
		input.TagSpecifications = tagSpec(types.ResourceTypeElasticIp, opts.Tags)
	}

	out, err := c.api.AllocateAddress(ctx, input)
	if err != nil {
		return nil, classifyError("AllocateAddress", err)
	}
	return &Address{
		PublicIP:     aws.ToString(out.PublicIp),
		AllocationID: aws.ToString(out.AllocationId),
		Domain:       string(out.Domain),
	}, nil
}

// GetAddress looks up an elastic IP by allocation ID or public IP.
func (c *RealClient) GetAddress(ctx context.Context, id string) (*Address, error) {
	input := &ec2.DescribeAddressesInput{}
	if strings.HasPrefix(id, allocationIDPrefix) {
		input.AllocationIds = []string{id}
	} else {
		input.PublicIps = []string{id}
	}

	out, err := c.api.DescribeAddresses(ctx, input)
	if err != nil {
		return nil, classifyError("DescribeAddresses", err)
	}
	if len(out.Addresses) == 0 {
		return nil, &NotFoundError{Code: "InvalidAddress.NotFound", Message: fmt.Sprintf("address %s does not exist", id)}
	}
	a := out.Addresses[0]
	return &Address{
		PublicIP:      aws.ToString(a.PublicIp),
		AllocationID:  aws.ToString(a.AllocationId),
		AssociationID: aws.ToString(a.AssociationId),
		InstanceID:    aws.ToString(a.InstanceId),
		Domain:        string(a.Domain),
	}, nil
}

// AssociateAddress associates addr with instanceID.
func (c *RealClient) AssociateAddress(ctx context.Context, addr *Address, instanceID string) (string, error) {
	input := &ec2.AssociateAddressInput{InstanceId: aws.String(instanceID)}
	if addr.IsVPC() {
		input.AllocationId = aws.String(addr.AllocationID)
	} else {
		input.PublicIp = aws.String(addr.PublicIP)
	}

	var associationID string
	err := c.withRetry(ctx, func() error {
		out, err := c.api.AssociateAddress(ctx, input)
		if err != nil {
			return classifyError("AssociateAddress", err)
		}
		associationID = aws.ToString(out.AssociationId)
		return nil
	})
	return associationID, err
}

// DisassociateAddress detaches addr from whatever it is associated with.
func (c *RealClient) DisassociateAddress(ctx context.Context, addr *Address) error {
	input := &ec2.DisassociateAddressInput{}
	if addr.AssociationID != "" {
		input.AssociationId = aws.String(addr.AssociationID)
	} else {
		input.PublicIp = aws.String(addr.PublicIP)
	}
	return c.withRetry(ctx, func() error {
		_, err := c.api.DisassociateAddress(ctx, input)
		return classifyError("DisassociateAddress", err)
	})
}

// ReleaseAddress returns addr to the pool.
func (c *RealClient) ReleaseAddress(ctx context.Context, addr *Address) error {
	input := &ec2.ReleaseAddressInput{}
	if addr.IsVPC() {
		input.AllocationId = aws.String(addr.AllocationID)
	} else {
		input.PublicIp = aws.String(addr.PublicIP)
	}
	return c.withRetry(ctx, func() error {
		_, err := c.api.ReleaseAddress(ctx, input)
		return classifyError("ReleaseAddress", err)
	})
}
