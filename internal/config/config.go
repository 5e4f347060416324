package config

import "time"

// Config is the top-level configuration file.
type Config struct {
	// Region is the default AWS region for machines that do not set one.
	Region string `yaml:"region"`

	// Profile selects a shared AWS credentials profile. Empty uses the
	// SDK default chain.
	Profile string `yaml:"profile"`

	// DataDir is where the file metadata backend stores per-machine state.
	DataDir string `yaml:"data_dir"`

	Metadata MetadataConfig `yaml:"metadata"`
	Machines []Machine      `yaml:"machines"`
}

// MetadataConfig selects where per-machine state is persisted.
type MetadataConfig struct {
	Backend  string `yaml:"backend"` // file or s3
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// AccessKey and SecretKey are only needed for S3-compatible services
	// outside the default credential chain.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Machine is the provisioning request for a single instance.
// It is built once per attempt and not modified afterwards.
type Machine struct {
	Name             string `yaml:"name"`
	Region           string `yaml:"region"`
	AvailabilityZone string `yaml:"availability_zone"`
	AMI              string `yaml:"ami"`
	InstanceType     string `yaml:"instance_type"`
	KeypairName      string `yaml:"keypair_name"`
	PrivateIPAddress string `yaml:"private_ip_address"`
	SubnetID         string `yaml:"subnet_id"`

	// SecurityGroups are group IDs when SubnetID is set, group names otherwise.
	SecurityGroups []string          `yaml:"security_groups"`
	Tags           map[string]string `yaml:"tags"`
	UserData       string            `yaml:"user_data"`

	BlockDeviceMapping []BlockDevice `yaml:"block_device_mapping"`
	ElasticIP          ElasticIP     `yaml:"elastic_ip"`

	IAMInstanceProfileARN  string `yaml:"iam_instance_profile_arn"`
	IAMInstanceProfileName string `yaml:"iam_instance_profile_name"`

	Monitoring          bool `yaml:"monitoring"`
	EBSOptimized        bool `yaml:"ebs_optimized"`
	TerminateOnShutdown bool `yaml:"terminate_on_shutdown"`

	// InstanceReadyTimeout is the boot wait budget in seconds.
	InstanceReadyTimeout int `yaml:"instance_ready_timeout"`

	// VolumeTimeout is the wait budget in seconds for each EBS volume state
	// change. Zero falls back to InstanceReadyTimeout.
	VolumeTimeout int `yaml:"volume_timeout"`

	SSH SSHConfig `yaml:"ssh"`
}

// BlockDevice describes one entry of the block device mapping.
// It is ephemeral unless one of the EBS fields is set.
type BlockDevice struct {
	DeviceName  string  `yaml:"device_name"`
	VirtualName string  `yaml:"virtual_name"`
	EBS         EBSSpec `yaml:"ebs"`
}

// EBSSpec holds the EBS-specific fields of a block device.
type EBSSpec struct {
	VolumeSize          *int32 `yaml:"volume_size"`
	VolumeType          string `yaml:"volume_type"`
	IOPS                *int32 `yaml:"iops"`
	DeleteOnTermination *bool  `yaml:"delete_on_termination"`
}

// IsEBS reports whether the device is backed by an EBS volume.
func (b BlockDevice) IsEBS() bool {
	e := b.EBS
	return e.VolumeSize != nil || e.VolumeType != "" || e.IOPS != nil || e.DeleteOnTermination != nil
}

// ElasticIPMode is how a public address is attached after boot.
type ElasticIPMode string

// Elastic address modes.
const (
	ElasticIPNone     ElasticIPMode = "none"
	ElasticIPExisting ElasticIPMode = "existing"
	ElasticIPAllocate ElasticIPMode = "allocate"
)

// ElasticIP configures the elastic address for a machine.
type ElasticIP struct {
	// Existing is an allocation ID (eipalloc-...) or public IP to associate.
	Existing string `yaml:"existing"`

	// Allocate requests a new address.
	Allocate bool `yaml:"allocate"`

	// Pool is the public IPv4 pool to allocate from. Empty uses Amazon's pool.
	Pool string `yaml:"pool"`
}

// Mode returns the configured elastic address mode.
func (e ElasticIP) Mode() ElasticIPMode {
	switch {
	case e.Existing != "":
		return ElasticIPExisting
	case e.Allocate:
		return ElasticIPAllocate
	default:
		return ElasticIPNone
	}
}

// SSHConfig holds the settings used to probe remote control readiness.
type SSHConfig struct {
	Username       string `yaml:"username"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Port           int    `yaml:"port"`
}

// EBSDevices returns the EBS-backed block devices in request order.
func (m *Machine) EBSDevices() []BlockDevice {
	var out []BlockDevice
	for _, b := range m.BlockDeviceMapping {
		if b.IsEBS() {
			out = append(out, b)
		}
	}
	return out
}

// EphemeralDevices returns the block devices mapped at launch.
func (m *Machine) EphemeralDevices() []BlockDevice {
	var out []BlockDevice
	for _, b := range m.BlockDeviceMapping {
		if !b.IsEBS() {
			out = append(out, b)
		}
	}
	return out
}

// UsesVPC reports whether the machine launches into a subnet.
func (m *Machine) UsesVPC() bool {
	return m.SubnetID != ""
}

// ReadyTimeout returns the boot wait budget.
func (m *Machine) ReadyTimeout() time.Duration {
	return time.Duration(m.InstanceReadyTimeout) * time.Second
}

// VolumeWaitSeconds returns the per-state wait budget for EBS volumes.
func (m *Machine) VolumeWaitSeconds() int {
	if m.VolumeTimeout > 0 {
		return m.VolumeTimeout
	}
	return m.InstanceReadyTimeout
}

// Machine returns the machine with the given name.
func (c *Config) Machine(name string) (*Machine, bool) {
	for i := range c.Machines {
		if c.Machines[i].Name == name {
			return &c.Machines[i], true
		}
	}
	return nil, false
}
