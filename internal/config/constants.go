package config

// Provisioning constants.
const (
	// SSHPort is the port probed for remote control readiness and checked
	// against security group rules before launch.
	SSHPort = 22

	// AdmissionBatchSize is the number of attempts admitted per cooldown.
	AdmissionBatchSize = 10

	// DefaultVolumeDevice is used for EBS volumes that do not name a device.
	DefaultVolumeDevice = "/dev/sdf"

	// DefaultInstanceReadyTimeout is the boot wait budget in seconds.
	DefaultInstanceReadyTimeout = 120

	// DefaultSSHUsername is the login user when none is configured.
	DefaultSSHUsername = "ec2-user"

	// DefaultDataDir holds per-machine state for the file metadata backend.
	DefaultDataDir = ".vagrant"
)

// Metadata backends.
const (
	MetadataBackendFile = "file"
	MetadataBackendS3   = "s3"
)
