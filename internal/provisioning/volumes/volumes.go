// Package volumes creates and attaches the EBS volumes of a machine.
//
// Volumes are handled one at a time in request order. A failure aborts the
// remaining devices; volumes already attached are released by instance
// termination because delete-on-termination is set on each attachment.
package volumes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/ptr"
	"github.com/madhurranjan/vagrant-aws/internal/util/retry"
	"github.com/madhurranjan/vagrant-aws/internal/util/tags"
	"github.com/madhurranjan/vagrant-aws/internal/util/timing"
)

const phaseName = "volumes"

// Phase attaches every EBS-backed block device of the machine.
type Phase struct{}

// NewPhase creates a volumes phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements provisioning.Phase.
func (p *Phase) Name() string {
	return phaseName
}

// Provision implements provisioning.Phase.
func (p *Phase) Provision(ctx *provisioning.Context) error {
	devices := ctx.Machine.EBSDevices()
	if len(devices) == 0 {
		return nil
	}

	elapsed, err := timing.Run(func() error {
		for i, b := range devices {
			ctx.Observer.Progress(phaseName, i, len(devices))
			if err := attach(ctx, b); err != nil {
				return err
			}
		}
		ctx.Observer.Progress(phaseName, len(devices), len(devices))
		return nil
	})
	ctx.Metrics.Record(provisioning.MetricInstanceVolumesTime, elapsed)
	return err
}

func attach(ctx *provisioning.Context, b config.BlockDevice) error {
	m := ctx.Machine
	device := b.DeviceName
	if device == "" {
		device = config.DefaultVolumeDevice
	}
	if b.EBS.VolumeSize == nil {
		return &provisioning.ConfigError{
			Field:   fmt.Sprintf("block_device_mapping[%s].ebs.volume_size", device),
			Message: "EBS volumes require a size",
		}
	}

	seconds := m.VolumeWaitSeconds()
	tries := seconds / 2
	if tries < 1 {
		tries = 1
	}

	az := ctx.Instance.AvailabilityZone()
	if az == "" {
		az = m.AvailabilityZone
	}
	instanceID := ctx.Instance.ID()

	provisioning.LogResourceCreating(ctx.Observer, phaseName, "volume", device)
	vol, err := ctx.Client.CreateVolume(ctx.Detached(), ec2.CreateVolumeOpts{
		AvailabilityZone: az,
		Size:             *b.EBS.VolumeSize,
		VolumeType:       b.EBS.VolumeType,
		IOPS:             ptr.Deref(b.EBS.IOPS),
		Tags: tags.NewBuilder(m.Name).
			Merge(m.Tags).
			WithName(tags.VolumeName(m.Name, device)).
			WithDevice(device).
			Build(),
	})
	if err != nil {
		return provisioning.ProviderFailure("CreateVolume", device, err)
	}

	h := &provisioning.VolumeHandle{ID: vol.ID, Device: device, State: provisioning.VolumeCreating}
	ctx.Volumes = append(ctx.Volumes, h)
	provisioning.LogResourceCreated(ctx.Observer, phaseName, "volume", device, vol.ID)

	err = waitForState(ctx, vol.ID, ec2.VolumeAvailable, ctx.Timeouts.VolumePoll, tries)
	if err != nil {
		if isExhausted(err) {
			return &provisioning.VolumeProvisionTimeoutError{VolumeID: vol.ID, Device: device, Seconds: seconds}
		}
		return err
	}
	h.State = provisioning.VolumeAvailable

	ctx.Observer.Info("Attaching volume %s to %s at %s", vol.ID, instanceID, device)
	if err := ctx.Client.AttachVolume(ctx.Detached(), vol.ID, instanceID, device); err != nil {
		return provisioning.ProviderFailure("AttachVolume", vol.ID, err)
	}
	h.State = provisioning.VolumeAttaching

	err = waitForState(ctx, vol.ID, ec2.VolumeInUse, ctx.Timeouts.VolumeAttachPoll, tries)
	if err != nil {
		if isExhausted(err) {
			return &provisioning.VolumeAttachTimeoutError{VolumeID: vol.ID, Device: device, Seconds: seconds}
		}
		return err
	}
	h.State = provisioning.VolumeInUse

	deleteOnTermination := true
	if b.EBS.DeleteOnTermination != nil {
		deleteOnTermination = *b.EBS.DeleteOnTermination
	}
	if err := ctx.Client.SetDeleteOnTermination(ctx.Detached(), instanceID, device, deleteOnTermination); err != nil {
		return provisioning.ProviderFailure("ModifyInstanceAttribute", instanceID, err)
	}
	return nil
}

func waitForState(ctx *provisioning.Context, volumeID string, want ec2.VolumeState, interval time.Duration, tries int) error {
	_, err := retry.Poll(ctx, func(c context.Context) (bool, error) {
		vol, err := ctx.Client.GetVolume(c, volumeID)
		if err != nil {
			if ec2.IsNotFound(err) || ec2.IsRetryable(err) {
				return false, err
			}
			return false, retry.Fatal(err)
		}
		if vol.State == ec2.VolumeError {
			return false, retry.Fatal(&provisioning.ProviderError{
				Operation: "DescribeVolumes",
				Message:   fmt.Sprintf("volume %s entered state %s", volumeID, vol.State),
			})
		}
		return vol.State == want, nil
	}, retry.WithInterval(interval), retry.WithTries(tries))

	if err == nil || isExhausted(err) || ctx.Interrupted() {
		return err
	}
	var fatal *retry.FatalError
	if errors.As(err, &fatal) {
		err = fatal.Err
	}
	return provisioning.ProviderFailure("DescribeVolumes", volumeID, err)
}

func isExhausted(err error) bool {
	var exhausted *retry.ExhaustedError
	return errors.As(err, &exhausted)
}
