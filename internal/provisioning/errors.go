package provisioning

import (
	"errors"
	"fmt"

	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
)

// domainError marks errors that the pipeline has already handled. The
// recovery hook never rolls back for them a second time.
type domainError interface {
	error
	domainError()
}

// IsDomainError reports whether err, or any error it wraps, is one of the
// package's error types.
func IsDomainError(err error) bool {
	var de domainError
	return errors.As(err, &de)
}

// ConfigWarning is a non-fatal configuration finding. It is reported
// through the Observer and never stops an attempt.
type ConfigWarning struct {
	Message string
}

func (w *ConfigWarning) Error() string { return w.Message }

// ConfigError is a request that cannot be provisioned as written.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

func (*ConfigError) domainError() {}

// ResourceNotFoundError is a referenced resource the provider does not know.
type ResourceNotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }
func (*ResourceNotFoundError) domainError()    {}

// AddressNotFoundError is an elastic address that could not be found or
// associated.
type AddressNotFoundError struct {
	Address string
	Err     error
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("elastic IP %s not found", e.Address)
}

func (e *AddressNotFoundError) Unwrap() error { return e.Err }
func (*AddressNotFoundError) domainError()    {}

// ProviderError is a request the provider rejected.
type ProviderError struct {
	Operation string
	Code      string
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s failed: %s: %s", e.Operation, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
func (*ProviderError) domainError()    {}

// TransportError is an HTTP-layer failure talking to the provider.
type TransportError struct {
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error (status %d): %s", e.Operation, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (*TransportError) domainError()    {}

// ReadyTimeoutError is returned when the instance did not boot within its
// ready timeout.
type ReadyTimeoutError struct {
	Seconds int
}

func (e *ReadyTimeoutError) Error() string {
	return fmt.Sprintf("instance did not become ready within %d seconds", e.Seconds)
}

func (*ReadyTimeoutError) domainError() {}

// VolumeProvisionTimeoutError is returned when a new volume never became
// available.
type VolumeProvisionTimeoutError struct {
	VolumeID string
	Device   string
	Seconds  int
}

func (e *VolumeProvisionTimeoutError) Error() string {
	return fmt.Sprintf("volume %s for %s was not available within %d seconds", e.VolumeID, e.Device, e.Seconds)
}

func (*VolumeProvisionTimeoutError) domainError() {}

// VolumeAttachTimeoutError is returned when an attached volume never
// reported in-use.
type VolumeAttachTimeoutError struct {
	VolumeID string
	Device   string
	Seconds  int
}

func (e *VolumeAttachTimeoutError) Error() string {
	return fmt.Sprintf("volume %s did not attach at %s within %d seconds", e.VolumeID, e.Device, e.Seconds)
}

func (*VolumeAttachTimeoutError) domainError() {}

// ProviderFailure converts an error from the ec2 client into a domain error.
// Not-found errors become ResourceNotFoundError with id as the resource ID.
// Domain errors and errors of other kinds are returned unchanged.
func ProviderFailure(op, id string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}

	var nf *ec2.NotFoundError
	if errors.As(err, &nf) {
		return &ResourceNotFoundError{Resource: nf.Resource(), ID: id, Err: err}
	}
	var apiErr *ec2.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Operation: op, Code: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var te *ec2.TransportError
	if errors.As(err, &te) {
		return &TransportError{Operation: op, Status: te.Status, Body: te.Body, Err: err}
	}
	return err
}
