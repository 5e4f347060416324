package ec2

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/madhurranjan/vagrant-aws/internal/util/ptr"
)

// RunInstance launches exactly one instance.
func (c *RealClient) RunInstance(ctx context.Context, opts RunInstanceOpts) (*Instance, error) {
	token := opts.ClientToken
	if token == "" {
		token = c.newToken()
	}

	input := &ec2.RunInstancesInput{
		ImageId:           aws.String(opts.ImageID),
		InstanceType:      types.InstanceType(opts.InstanceType),
		MinCount:          aws.Int32(1),
		MaxCount:          aws.Int32(1),
		ClientToken:       aws.String(token),
		KeyName:           ptr.String(opts.KeyName),
		SubnetId:          ptr.String(opts.SubnetID),
		PrivateIpAddress:  ptr.String(opts.PrivateIP),
		EbsOptimized:      aws.Bool(opts.EBSOptimized),
		Monitoring:        &types.RunInstancesMonitoringEnabled{Enabled: aws.Bool(opts.Monitoring)},
		TagSpecifications: tagSpec(types.ResourceTypeInstance, opts.Tags),
	}

	if opts.AvailabilityZone != "" {
		input.Placement = &types.Placement{AvailabilityZone: aws.String(opts.AvailabilityZone)}
	}
	if len(opts.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = opts.SecurityGroupIDs
	}
	if len(opts.SecurityGroupNames) > 0 {
		input.SecurityGroups = opts.SecurityGroupNames
	}
	if opts.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(opts.UserData)))
	}
	for _, bd := range opts.BlockDevices {
		input.BlockDeviceMappings = append(input.BlockDeviceMappings, types.BlockDeviceMapping{
			DeviceName:  aws.String(bd.DeviceName),
			VirtualName: ptr.String(bd.VirtualName),
		})
	}
	switch {
	case opts.IAMInstanceProfileARN != "":
		input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Arn: aws.String(opts.IAMInstanceProfileARN)}
	case opts.IAMInstanceProfileName != "":
		input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Name: aws.String(opts.IAMInstanceProfileName)}
	}
	if opts.TerminateOnShutdown {
		input.InstanceInitiatedShutdownBehavior = types.ShutdownBehaviorTerminate
	}

	out, err := c.api.RunInstances(ctx, input)
	if err != nil {
		return nil, classifyError("RunInstances", err)
	}
	if len(out.Instances) == 0 {
		return nil, fmt.Errorf("RunInstances: no instance in response")
	}
	return instanceFromEC2(out.Instances[0]), nil
}

// GetInstance describes a single instance.
func (c *RealClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return nil, classifyError("DescribeInstances", err)
	}
	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if aws.ToString(inst.InstanceId) == id {
				return instanceFromEC2(inst), nil
			}
		}
	}
	return nil, &NotFoundError{Code: "InvalidInstanceID.NotFound", Message: fmt.Sprintf("instance %s does not exist", id)}
}

// TerminateInstance terminates an instance. Attached volumes flagged
// delete-on-termination go with it.
func (c *RealClient) TerminateInstance(ctx context.Context, id string) error {
	return c.withRetry(ctx, func() error {
		_, err := c.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}})
		return classifyError("TerminateInstances", err)
	})
}

func instanceFromEC2(inst types.Instance) *Instance {
	out := &Instance{
		ID:        aws.ToString(inst.InstanceId),
		PublicIP:  aws.ToString(inst.PublicIpAddress),
		PrivateIP: aws.ToString(inst.PrivateIpAddress),
		VpcID:     aws.ToString(inst.VpcId),
		SubnetID:  aws.ToString(inst.SubnetId),
	}
	if inst.State != nil {
		out.State = InstanceState(inst.State.Name)
	}
	if inst.Placement != nil {
		out.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	return out
}
