package ec2

import (
	"context"

	"github.com/madhurranjan/vagrant-aws/internal/util/tags"
)

// InstanceState is the lifecycle state reported by EC2.
type InstanceState string

// Instance states.
const (
	InstancePending      InstanceState = "pending"
	InstanceRunning      InstanceState = "running"
	InstanceShuttingDown InstanceState = "shutting-down"
	InstanceTerminated   InstanceState = "terminated"
	InstanceStopping     InstanceState = "stopping"
	InstanceStopped      InstanceState = "stopped"
)

// Instance is the subset of instance attributes the pipeline uses.
type Instance struct {
	ID               string
	State            InstanceState
	AvailabilityZone string
	PublicIP         string
	PrivateIP        string
	VpcID            string
	SubnetID         string
}

// BlockDeviceMapping is a launch-time (ephemeral) device mapping.
type BlockDeviceMapping struct {
	DeviceName  string
	VirtualName string
}

// RunInstanceOpts holds all parameters for launching a single instance.
type RunInstanceOpts struct {
	ImageID          string
	InstanceType     string
	AvailabilityZone string
	KeyName          string
	PrivateIP        string
	SubnetID         string

	// SecurityGroupIDs is used for subnet launches, SecurityGroupNames otherwise.
	SecurityGroupIDs   []string
	SecurityGroupNames []string

	UserData     string
	BlockDevices []BlockDeviceMapping

	IAMInstanceProfileARN  string
	IAMInstanceProfileName string

	Monitoring          bool
	EBSOptimized        bool
	TerminateOnShutdown bool

	Tags []tags.Tag

	// ClientToken makes the launch idempotent. Generated when empty.
	ClientToken string
}

// VolumeState is the state reported for an EBS volume.
type VolumeState string

// Volume states.
const (
	VolumeCreating  VolumeState = "creating"
	VolumeAvailable VolumeState = "available"
	VolumeInUse     VolumeState = "in-use"
	VolumeDeleting  VolumeState = "deleting"
	VolumeError     VolumeState = "error"
)

// Volume is an EBS volume.
type Volume struct {
	ID               string
	State            VolumeState
	AvailabilityZone string
	Size             int32
}

// CreateVolumeOpts holds the parameters for creating an EBS volume.
type CreateVolumeOpts struct {
	AvailabilityZone string
	Size             int32
	VolumeType       string
	IOPS             int32
	Tags             []tags.Tag
}

// Address is an elastic IP address.
type Address struct {
	PublicIP      string
	AllocationID  string
	AssociationID string
	InstanceID    string
	Domain        string
}

// IsVPC reports whether the address is VPC-scoped. VPC addresses are
// associated and released by allocation ID, classic ones by public IP.
func (a *Address) IsVPC() bool {
	return a.AllocationID != ""
}

// AllocateAddressOpts holds the parameters for allocating an elastic IP.
type AllocateAddressOpts struct {
	VPC  bool
	Pool string
	Tags []tags.Tag
}

// Subnet is a VPC subnet.
type Subnet struct {
	ID               string
	VpcID            string
	AvailabilityZone string
}

// IngressRule is one inbound permission of a security group.
type IngressRule struct {
	Protocol string
	FromPort int32
	ToPort   int32
}

// SecurityGroup is a security group with its inbound rules.
type SecurityGroup struct {
	ID      string
	Name    string
	VpcID   string
	Ingress []IngressRule
}

// AllowsTCP reports whether any inbound rule admits TCP traffic on port.
func (g SecurityGroup) AllowsTCP(port int32) bool {
	for _, r := range g.Ingress {
		switch r.Protocol {
		case "-1", "all":
			return true
		case "tcp", "6":
			if r.FromPort <= port && port <= r.ToPort {
				return true
			}
		}
	}
	return false
}

// SecurityGroupQuery selects security groups by ID or by name.
// With VpcID set, names are matched inside that VPC only.
type SecurityGroupQuery struct {
	IDs   []string
	Names []string
	VpcID string
}

// InstanceManager defines the interface for managing instances.
type InstanceManager interface {
	RunInstance(ctx context.Context, opts RunInstanceOpts) (*Instance, error)
	// GetInstance returns a *NotFoundError when the instance does not exist.
	GetInstance(ctx context.Context, id string) (*Instance, error)
	TerminateInstance(ctx context.Context, id string) error
}

// VolumeManager defines the interface for managing EBS volumes.
type VolumeManager interface {
	CreateVolume(ctx context.Context, opts CreateVolumeOpts) (*Volume, error)
	GetVolume(ctx context.Context, id string) (*Volume, error)
	AttachVolume(ctx context.Context, volumeID, instanceID, device string) error
	// SetDeleteOnTermination updates the attachment flag of an in-use volume.
	SetDeleteOnTermination(ctx context.Context, instanceID, device string, deleteOnTermination bool) error
}

// AddressManager defines the interface for managing elastic IPs.
type AddressManager interface {
	AllocateAddress(ctx context.Context, opts AllocateAddressOpts) (*Address, error)
	// GetAddress looks an address up by allocation ID (eipalloc-...) or public IP.
	GetAddress(ctx context.Context, id string) (*Address, error)
	// AssociateAddress returns the association ID, empty for classic addresses.
	AssociateAddress(ctx context.Context, addr *Address, instanceID string) (string, error)
	DisassociateAddress(ctx context.Context, addr *Address) error
	ReleaseAddress(ctx context.Context, addr *Address) error
}

// NetworkInspector defines read-only network lookups.
type NetworkInspector interface {
	GetSubnet(ctx context.Context, id string) (*Subnet, error)
	GetSecurityGroups(ctx context.Context, query SecurityGroupQuery) ([]SecurityGroup, error)
}

// Client combines all EC2 operations used by the pipeline.
type Client interface {
	InstanceManager
	VolumeManager
	AddressManager
	NetworkInspector
}
