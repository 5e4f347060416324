// Package launch creates the EC2 instance for a machine.
//
// Before the RunInstances call it emits non-fatal warnings for risky
// configurations: a missing keypair, a subnet launch without an elastic IP,
// and security groups that do not admit SSH. Only ephemeral block devices
// are mapped at launch; EBS-backed devices are left to the volumes phase.
package launch
