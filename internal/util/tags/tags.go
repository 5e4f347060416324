package tags

import (
	"fmt"
	"sort"
)

// Standard tag keys.
const (
	// KeyName is the EC2 console display name.
	KeyName = "Name"

	// KeyMachine identifies the machine a resource belongs to.
	KeyMachine = "vagrant-aws/machine"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "vagrant-aws/managed-by"

	// KeyDevice records the block device a volume was created for.
	KeyDevice = "vagrant-aws/device"
)

// ManagedBy is the value stored under KeyManagedBy.
const ManagedBy = "vagrant-aws"

// Tag is a single key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Builder provides a fluent interface for building resource tags.
type Builder struct {
	tags map[string]string
}

// NewBuilder creates a builder with the machine, managed-by and Name tags set.
func NewBuilder(machine string) *Builder {
	return &Builder{
		tags: map[string]string{
			KeyName:      machine,
			KeyMachine:   machine,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithName overrides the Name tag.
func (b *Builder) WithName(name string) *Builder {
	b.tags[KeyName] = name
	return b
}

// WithDevice tags a volume with the device it backs.
func (b *Builder) WithDevice(device string) *Builder {
	b.tags[KeyDevice] = device
	return b
}

// Merge adds user tags. User tags win over defaults, except the managed-by
// marker which destroy relies on.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		if k == KeyManagedBy {
			continue
		}
		b.tags[k] = v
	}
	return b
}

// Build returns the tags sorted by key.
func (b *Builder) Build() []Tag {
	out := make([]Tag, 0, len(b.tags))
	for k, v := range b.tags {
		out = append(out, Tag{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Map returns a copy of the tags as a map.
func (b *Builder) Map() map[string]string {
	out := make(map[string]string, len(b.tags))
	for k, v := range b.tags {
		out[k] = v
	}
	return out
}

// VolumeName returns the Name tag used for a machine's volume on device.
func VolumeName(machine, device string) string {
	return fmt.Sprintf("%s-%s", machine, sanitizeDevice(device))
}

func sanitizeDevice(device string) string {
	out := make([]byte, 0, len(device))
	for i := 0; i < len(device); i++ {
		c := device[i]
		if c == '/' {
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
			continue
		}
		out = append(out, c)
	}
	for len(out) > 0 && out[0] == '-' {
		out = out[1:]
	}
	return string(out)
}
