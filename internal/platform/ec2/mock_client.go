package ec2

import "context"

// MockClient is a mock implementation of Client.
// Unset functions return zero values.
type MockClient struct {
	RunInstanceFunc       func(ctx context.Context, opts RunInstanceOpts) (*Instance, error)
	GetInstanceFunc       func(ctx context.Context, id string) (*Instance, error)
	TerminateInstanceFunc func(ctx context.Context, id string) error

	CreateVolumeFunc           func(ctx context.Context, opts CreateVolumeOpts) (*Volume, error)
	GetVolumeFunc              func(ctx context.Context, id string) (*Volume, error)
	AttachVolumeFunc           func(ctx context.Context, volumeID, instanceID, device string) error
	SetDeleteOnTerminationFunc func(ctx context.Context, instanceID, device string, deleteOnTermination bool) error

	AllocateAddressFunc     func(ctx context.Context, opts AllocateAddressOpts) (*Address, error)
	GetAddressFunc          func(ctx context.Context, id string) (*Address, error)
	AssociateAddressFunc    func(ctx context.Context, addr *Address, instanceID string) (string, error)
	DisassociateAddressFunc func(ctx context.Context, addr *Address) error
	ReleaseAddressFunc      func(ctx context.Context, addr *Address) error

	GetSubnetFunc         func(ctx context.Context, id string) (*Subnet, error)
	GetSecurityGroupsFunc func(ctx context.Context, query SecurityGroupQuery) ([]SecurityGroup, error)
}

var _ Client = (*MockClient)(nil)

// RunInstance implements InstanceManager.
func (m *MockClient) RunInstance(ctx context.Context, opts RunInstanceOpts) (*Instance, error) {
	if m.RunInstanceFunc != nil {
		return m.RunInstanceFunc(ctx, opts)
	}
	return &Instance{ID: "i-mock", State: InstancePending}, nil
}

// GetInstance implements InstanceManager.
func (m *MockClient) GetInstance(ctx context.Context, id string) (*Instance, error) {
	if m.GetInstanceFunc != nil {
		return m.GetInstanceFunc(ctx, id)
	}
	return &Instance{ID: id, State: InstanceRunning}, nil
}

// TerminateInstance implements InstanceManager.
func (m *MockClient) TerminateInstance(ctx context.Context, id string) error {
	if m.TerminateInstanceFunc != nil {
		return m.TerminateInstanceFunc(ctx, id)
	}
	return nil
}

// CreateVolume implements VolumeManager.
func (m *MockClient) CreateVolume(ctx context.Context, opts CreateVolumeOpts) (*Volume, error) {
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(ctx, opts)
	}
	return &Volume{ID: "vol-mock", State: VolumeCreating, AvailabilityZone: opts.AvailabilityZone, Size: opts.Size}, nil
}

// GetVolume implements VolumeManager.
func (m *MockClient) GetVolume(ctx context.Context, id string) (*Volume, error) {
	if m.GetVolumeFunc != nil {
		return m.GetVolumeFunc(ctx, id)
	}
	return &Volume{ID: id, State: VolumeAvailable}, nil
}

// AttachVolume implements VolumeManager.
func (m *MockClient) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	if m.AttachVolumeFunc != nil {
		return m.AttachVolumeFunc(ctx, volumeID, instanceID, device)
	}
	return nil
}

// SetDeleteOnTermination implements VolumeManager.
func (m *MockClient) SetDeleteOnTermination(ctx context.Context, instanceID, device string, deleteOnTermination bool) error {
	if m.SetDeleteOnTerminationFunc != nil {
		return m.SetDeleteOnTerminationFunc(ctx, instanceID, device, deleteOnTermination)
	}
	return nil
}

// AllocateAddress implements AddressManager.
func (m *MockClient) AllocateAddress(ctx context.Context, opts AllocateAddressOpts) (*Address, error) {
	if m.AllocateAddressFunc != nil {
		return m.AllocateAddressFunc(ctx, opts)
	}
	return &Address{PublicIP: "203.0.113.10", AllocationID: "eipalloc-mock"}, nil
}

// GetAddress implements AddressManager.
func (m *MockClient) GetAddress(ctx context.Context, id string) (*Address, error) {
	if m.GetAddressFunc != nil {
		return m.GetAddressFunc(ctx, id)
	}
	return nil, &NotFoundError{Code: "InvalidAddress.NotFound"}
}

// AssociateAddress implements AddressManager.
func (m *MockClient) AssociateAddress(ctx context.Context, addr *Address, instanceID string) (string, error) {
	if m.AssociateAddressFunc != nil {
		return m.AssociateAddressFunc(ctx, addr, instanceID)
	}
	return "", nil
}

// DisassociateAddress implements AddressManager.
func (m *MockClient) DisassociateAddress(ctx context.Context, addr *Address) error {
	if m.DisassociateAddressFunc != nil {
		return m.DisassociateAddressFunc(ctx, addr)
	}
	return nil
}

// ReleaseAddress implements AddressManager.
func (m *MockClient) ReleaseAddress(ctx context.Context, addr *Address) error {
	if m.ReleaseAddressFunc != nil {
		return m.ReleaseAddressFunc(ctx, addr)
	}
	return nil
}

// GetSubnet implements NetworkInspector.
func (m *MockClient) GetSubnet(ctx context.Context, id string) (*Subnet, error) {
	if m.GetSubnetFunc != nil {
		return m.GetSubnetFunc(ctx, id)
	}
	return &Subnet{ID: id, VpcID: "vpc-mock"}, nil
}

// GetSecurityGroups implements NetworkInspector.
func (m *MockClient) GetSecurityGroups(ctx context.Context, query SecurityGroupQuery) ([]SecurityGroup, error) {
	if m.GetSecurityGroupsFunc != nil {
		return m.GetSecurityGroupsFunc(ctx, query)
	}
	return nil, nil
}
