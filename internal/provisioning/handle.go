package provisioning

import "sync"

// InstanceState is the lifecycle state of the instance owned by an attempt.
type InstanceState string

// Instance lifecycle states.
const (
	StateNotCreated      InstanceState = "not-created"
	StatePending         InstanceState = "pending"
	StateRunning         InstanceState = "running"
	StateReady           InstanceState = "ready"
	StateReadyWithErrors InstanceState = "ready-with-errors"
	StateTerminated      InstanceState = "terminated"
)

// InstanceHandle tracks the instance created by an attempt.
// It is read by the recovery hook from outside the attempt's goroutine, so
// all access goes through its methods.
type InstanceHandle struct {
	mu               sync.Mutex
	id               string
	state            InstanceState
	availabilityZone string
	publicIP         string
	privateIP        string
}

// InstanceInfo is a point-in-time copy of an InstanceHandle.
type InstanceInfo struct {
	ID               string
	State            InstanceState
	AvailabilityZone string
	PublicIP         string
	PrivateIP        string
}

// NewInstanceHandle returns a handle in StateNotCreated.
func NewInstanceHandle() *InstanceHandle {
	return &InstanceHandle{state: StateNotCreated}
}

// ID returns the provider-assigned ID, or "" before creation.
func (h *InstanceHandle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// State returns the current lifecycle state.
func (h *InstanceHandle) State() InstanceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AvailabilityZone returns the zone the provider placed the instance in.
func (h *InstanceHandle) AvailabilityZone() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.availabilityZone
}

// MarkCreated records the ID returned by the create call and moves the
// handle to StatePending.
func (h *InstanceHandle) MarkCreated(id, availabilityZone string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.id = id
	h.availabilityZone = availabilityZone
	h.state = StatePending
}

// SetState moves the handle to s.
func (h *InstanceHandle) SetState(s InstanceState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

// SetAddresses records the instance's IP addresses. Empty values leave the
// current value unchanged.
func (h *InstanceHandle) SetAddresses(publicIP, privateIP string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if publicIP != "" {
		h.publicIP = publicIP
	}
	if privateIP != "" {
		h.privateIP = privateIP
	}
}

// SetAvailabilityZone records the placement zone once the provider reports it.
func (h *InstanceHandle) SetAvailabilityZone(az string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if az != "" {
		h.availabilityZone = az
	}
}

// Info returns a copy of the handle's fields.
func (h *InstanceHandle) Info() InstanceInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return InstanceInfo{
		ID:               h.id,
		State:            h.state,
		AvailabilityZone: h.availabilityZone,
		PublicIP:         h.publicIP,
		PrivateIP:        h.privateIP,
	}
}

// VolumeState is the state of an EBS volume during attachment.
type VolumeState string

// Volume states.
const (
	VolumeCreating  VolumeState = "creating"
	VolumeAvailable VolumeState = "available"
	VolumeAttaching VolumeState = "attaching"
	VolumeInUse     VolumeState = "in-use"
)

// VolumeHandle tracks one EBS volume created for the instance.
type VolumeHandle struct {
	ID     string
	Device string
	State  VolumeState
}
