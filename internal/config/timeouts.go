package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds the polling intervals and retry tunables of the pipeline.
// These values can be customized via environment variables.
type Timeouts struct {
	AdmissionCooldown time.Duration // Pause between admission batches
	ReadyPoll         time.Duration // Interval between instance state checks
	VolumePoll        time.Duration // Interval between checks for a new volume to become available
	VolumeAttachPoll  time.Duration // Interval between checks for a volume to become in-use
	SSHPoll           time.Duration // Interval between SSH reachability probes
	SSHDial           time.Duration // Timeout for a single SSH probe
	Delete            time.Duration // Timeout for the whole destroy workflow
	RetryMaxAttempts  int           // Maximum number of retry attempts for API calls
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - VAGRANT_AWS_ADMISSION_COOLDOWN (default: 30s)
//   - VAGRANT_AWS_READY_POLL_INTERVAL (default: 3s)
//   - VAGRANT_AWS_VOLUME_POLL_INTERVAL (default: 5s)
//   - VAGRANT_AWS_VOLUME_ATTACH_POLL_INTERVAL (default: 0s)
//   - VAGRANT_AWS_SSH_POLL_INTERVAL (default: 2s)
//   - VAGRANT_AWS_SSH_DIAL_TIMEOUT (default: 10s)
//   - VAGRANT_AWS_TIMEOUT_DELETE (default: 5m)
//   - VAGRANT_AWS_RETRY_MAX_ATTEMPTS (default: 5)
//   - VAGRANT_AWS_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		AdmissionCooldown: parseDuration("VAGRANT_AWS_ADMISSION_COOLDOWN", 30*time.Second),
		ReadyPoll:         parseDuration("VAGRANT_AWS_READY_POLL_INTERVAL", 3*time.Second),
		VolumePoll:        parseDuration("VAGRANT_AWS_VOLUME_POLL_INTERVAL", 5*time.Second),
		VolumeAttachPoll:  parseDuration("VAGRANT_AWS_VOLUME_ATTACH_POLL_INTERVAL", 0),
		SSHPoll:           parseDuration("VAGRANT_AWS_SSH_POLL_INTERVAL", 2*time.Second),
		SSHDial:           parseDuration("VAGRANT_AWS_SSH_DIAL_TIMEOUT", 10*time.Second),
		Delete:            parseDuration("VAGRANT_AWS_TIMEOUT_DELETE", 5*time.Minute),
		RetryMaxAttempts:  parseInt("VAGRANT_AWS_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("VAGRANT_AWS_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set, fails to parse, or is negative, the default
// value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
