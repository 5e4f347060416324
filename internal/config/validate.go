package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if len(c.Machines) == 0 {
		return fmt.Errorf("at least one machine is required")
	}

	switch c.Metadata.Backend {
	case MetadataBackendFile:
	case MetadataBackendS3:
		if c.Metadata.Bucket == "" {
			return fmt.Errorf("metadata.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid metadata backend %q: must be %q or %q",
			c.Metadata.Backend, MetadataBackendFile, MetadataBackendS3)
	}

	seen := make(map[string]bool, len(c.Machines))
	var errs []error
	for i := range c.Machines {
		m := &c.Machines[i]
		if seen[m.Name] {
			errs = append(errs, fmt.Errorf("duplicate machine name %q", m.Name))
			continue
		}
		seen[m.Name] = true
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("machine %q: %w", m.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single machine. EBS devices without a size are not
// rejected here; the volume workflow reports them once the instance exists.
func (m *Machine) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Region == "" {
		return fmt.Errorf("region is required")
	}
	if m.AMI == "" {
		return fmt.Errorf("ami is required")
	}
	if m.InstanceType == "" {
		return fmt.Errorf("instance_type is required")
	}
	if m.InstanceReadyTimeout < 0 {
		return fmt.Errorf("instance_ready_timeout must not be negative")
	}
	if m.VolumeTimeout < 0 {
		return fmt.Errorf("volume_timeout must not be negative")
	}
	if m.PrivateIPAddress != "" {
		if net.ParseIP(m.PrivateIPAddress) == nil {
			return fmt.Errorf("invalid private_ip_address %q", m.PrivateIPAddress)
		}
		if !m.UsesVPC() {
			return fmt.Errorf("private_ip_address requires subnet_id")
		}
	}
	if m.IAMInstanceProfileARN != "" && m.IAMInstanceProfileName != "" {
		return fmt.Errorf("iam_instance_profile_arn and iam_instance_profile_name are mutually exclusive")
	}
	if m.ElasticIP.Existing != "" && m.ElasticIP.Allocate {
		return fmt.Errorf("elastic_ip.existing and elastic_ip.allocate are mutually exclusive")
	}
	if m.SSH.Port < 0 || m.SSH.Port > 65535 {
		return fmt.Errorf("invalid ssh port %d", m.SSH.Port)
	}

	devices := make(map[string]bool, len(m.BlockDeviceMapping))
	for i, b := range m.BlockDeviceMapping {
		name := b.DeviceName
		if name == "" {
			if !b.IsEBS() {
				return fmt.Errorf("block_device_mapping[%d]: device_name is required for ephemeral devices", i)
			}
			name = DefaultVolumeDevice
		}
		if !strings.HasPrefix(name, "/dev/") && !strings.HasPrefix(name, "xvd") {
			return fmt.Errorf("block_device_mapping[%d]: invalid device name %q", i, name)
		}
		if devices[name] {
			return fmt.Errorf("block_device_mapping[%d]: device %s mapped twice", i, name)
		}
		devices[name] = true
		if b.EBS.IOPS != nil && *b.EBS.IOPS <= 0 {
			return fmt.Errorf("block_device_mapping[%d]: iops must be positive", i)
		}
	}
	return nil
}
