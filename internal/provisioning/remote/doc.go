// Package remote waits until the instance accepts SSH connections.
//
// The wait has no try budget. It ends when a probe succeeds or when the
// attempt is interrupted, and the time spent is recorded as
// instance_ssh_time.
package remote
