// Package destroy tears down a machine created by the provisioning pipeline.
//
// Resources are removed in dependency order: the elastic address is
// disassociated (and released if it was allocated for the machine), the
// instance is terminated, and finally the machine's metadata records are
// deleted. Resources that are already gone count as destroyed. Attached
// EBS volumes are released by the provider with the instance.
package destroy
