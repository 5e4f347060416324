// Package retry provides bounded retry helpers for operations against the
// EC2 API and for polling remote state.
//
// [WithExponentialBackoff] retries a failing operation with growing delays.
// [Poll] repeats a readiness check at a fixed interval under a try budget;
// every wait in the provisioning pipeline (instance boot, volume state,
// SSH reachability) goes through it.
package retry
