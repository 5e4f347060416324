package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// CreateVolume creates an EBS volume in the given availability zone.
func (c *RealClient) CreateVolume(ctx context.Context, opts CreateVolumeOpts) (*Volume, error) {
	input := &ec2.CreateVolumeInput{
		AvailabilityZone:  aws.String(opts.AvailabilityZone),
		Size:              aws.Int32(opts.Size),
		TagSpecifications: tagSpec(types.ResourceTypeVolume, opts.Tags),
	}
	if opts.VolumeType != "" {
		input.VolumeType = types.VolumeType(opts.VolumeType)
	}
	if opts.IOPS > 0 {
		input.Iops = aws.Int32(opts.IOPS)
	}

	out, err := c.api.CreateVolume(ctx, input)
	if err != nil {
		return nil, classifyError("CreateVolume", err)
	}
	return &Volume{
		ID:               aws.ToString(out.VolumeId),
		State:            VolumeState(out.State),
		AvailabilityZone: aws.ToString(out.AvailabilityZone),
		Size:             aws.ToInt32(out.Size),
	}, nil
}

// GetVolume describes a single volume.
func (c *RealClient) GetVolume(ctx context.Context, id string) (*Volume, error) {
	out, err := c.api.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{id}})
	if err != nil {
		return nil, classifyError("DescribeVolumes", err)
	}
	if len(out.Volumes) == 0 {
		return nil, &NotFoundError{Code: "InvalidVolume.NotFound", Message: fmt.Sprintf("volume %s does not exist", id)}
	}
	v := out.Volumes[0]
	return &Volume{
		ID:               aws.ToString(v.VolumeId),
		State:            VolumeState(v.State),
		AvailabilityZone: aws.ToString(v.AvailabilityZone),
		Size:             aws.ToInt32(v.Size),
	}, nil
}

// AttachVolume attaches a volume to an instance as device.
func (c *RealClient) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	return c.withRetry(ctx, func() error {
		_, err := c.api.AttachVolume(ctx, &ec2.AttachVolumeInput{
			Device:     aws.String(device),
			InstanceId: aws.String(instanceID),
			VolumeId:   aws.String(volumeID),
		})
		return classifyError("AttachVolume", err)
	})
}

// SetDeleteOnTermination sets the delete-on-termination flag of the volume
// attached to instanceID at device.
func (c *RealClient) SetDeleteOnTermination(ctx context.Context, instanceID, device string, deleteOnTermination bool) error {
	return c.withRetry(ctx, func() error {
		_, err := c.api.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
			InstanceId: aws.String(instanceID),
			BlockDeviceMappings: []types.InstanceBlockDeviceMappingSpecification{{
				DeviceName: aws.String(device),
				Ebs:        &types.EbsInstanceBlockDeviceSpecification{DeleteOnTermination: aws.Bool(deleteOnTermination)},
			}},
		})
		return classifyError("ModifyInstanceAttribute", err)
	})
}
