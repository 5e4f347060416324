// Package provisioning provides the shared types and the phase pipeline used
// to bring a single EC2 instance to a usable state.
//
// # Subpackages
//
//   - admission/: process-wide launch batching
//   - launch/: RunInstances request building and pre-flight warnings
//   - readiness/: boot wait with a try budget
//   - volumes/: EBS volume creation and attachment
//   - address/: elastic address association
//   - remote/: SSH reachability wait
//   - rollback/: forced destroy on failure or interruption
//   - destroy/: instance teardown and address release
//
// # Core Types
//
// Context carries the machine request, provider client, metadata store,
// observer, metrics and the InstanceHandle of one attempt.
// Phase defines a provisioning step with Name() and Provision() methods.
// Pipeline runs phases in order and routes failures through a Rollbacker.
package provisioning
