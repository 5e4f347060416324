package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// GetSubnet describes a subnet.
func (c *RealClient) GetSubnet(ctx context.Context, id string) (*Subnet, error) {
	out, err := c.api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{id}})
	if err != nil {
		return nil, classifyError("DescribeSubnets", err)
	}
	if len(out.Subnets) == 0 {
		return nil, &NotFoundError{Code: "InvalidSubnetID.NotFound", Message: fmt.Sprintf("subnet %s does not exist", id)}
	}
	s := out.Subnets[0]
	return &Subnet{
		ID:               aws.ToString(s.SubnetId),
		VpcID:            aws.ToString(s.VpcId),
		AvailabilityZone: aws.ToString(s.AvailabilityZone),
	}, nil
}

// GetSecurityGroups returns the groups matching query with their inbound rules.
func (c *RealClient) GetSecurityGroups(ctx context.Context, query SecurityGroupQuery) ([]SecurityGroup, error) {
	input := &ec2.DescribeSecurityGroupsInput{}
	switch {
	case len(query.IDs) > 0:
		input.GroupIds = query.IDs
	case query.VpcID != "":
		// GroupNames only resolves in the default VPC; filter for anything else.
		input.Filters = []types.Filter{{Name: aws.String("vpc-id"), Values: []string{query.VpcID}}}
		if len(query.Names) > 0 {
			input.Filters = append(input.Filters, types.Filter{Name: aws.String("group-name"), Values: query.Names})
		}
	default:
		input.GroupNames = query.Names
	}

	out, err := c.api.DescribeSecurityGroups(ctx, input)
	if err != nil {
		return nil, classifyError("DescribeSecurityGroups", err)
	}

	groups := make([]SecurityGroup, 0, len(out.SecurityGroups))
	for _, g := range out.SecurityGroups {
		sg := SecurityGroup{
			ID:    aws.ToString(g.GroupId),
			Name:  aws.ToString(g.GroupName),
			VpcID: aws.ToString(g.VpcId),
		}
		for _, p := range g.IpPermissions {
			sg.Ingress = append(sg.Ingress, IngressRule{
				Protocol: aws.ToString(p.IpProtocol),
				FromPort: aws.ToInt32(p.FromPort),
				ToPort:   aws.ToInt32(p.ToPort),
			})
		}
		groups = append(groups, sg)
	}
	return groups, nil
}
