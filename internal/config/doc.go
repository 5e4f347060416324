// Package config defines the machine configuration consumed by the
// provisioning pipeline.
//
// A configuration file describes one or more [Machine]s. Each machine is
// the immutable request for a single EC2 instance: image, instance type,
// networking, block devices, elastic address and SSH settings. [LoadFile]
// reads the YAML file, applies defaults and validates it; [LoadTimeouts]
// reads the polling and retry tunables from the environment.
package config
