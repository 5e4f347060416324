package ec2

import (
	"errors"
	"fmt"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// NotFoundError reports that the API could not find a referenced resource.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Resource returns the kind of resource that was not found.
func (e *NotFoundError) Resource() string {
	switch strings.TrimSuffix(e.Code, ".NotFound") {
	case "InvalidSubnetID":
		return "subnet"
	case "InvalidAllocationID", "InvalidAddress", "InvalidAssociationID":
		return "address"
	case "InvalidInstanceID":
		return "instance"
	case "InvalidVolume", "InvalidVolumeID":
		return "volume"
	case "InvalidGroup", "InvalidGroupId":
		return "security group"
	case "InvalidAMIID":
		return "image"
	case "InvalidKeyPair":
		return "key pair"
	default:
		return "resource"
	}
}

// APIError is a request the EC2 service understood and rejected.
type APIError struct {
	Operation string
	Code      string
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Operation, e.Code, e.Message)
}

// TransportError is a failure below the API layer: a non-API HTTP response
// or a request that never reached the service.
type TransportError struct {
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: request failed: %s", e.Operation, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyError maps SDK errors into the package error types.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		code := apiErr.ErrorCode()
		if strings.HasSuffix(code, ".NotFound") {
			return &NotFoundError{Code: code, Message: apiErr.ErrorMessage()}
		}
		return &APIError{Operation: op, Code: code, Message: apiErr.ErrorMessage()}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		body := ""
		if respErr.Err != nil {
			body = respErr.Err.Error()
		}
		return &TransportError{Operation: op, Status: respErr.HTTPStatusCode(), Body: body, Err: err}
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return &TransportError{Operation: op, Body: sendErr.Error(), Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRetryable reports errors worth retrying: throttling and the brief
// IncorrectState window right after a resource changes state.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		var te *TransportError
		return errors.As(err, &te) && (te.Status == 0 || te.Status >= 500)
	}
	switch apiErr.Code {
	case "RequestLimitExceeded", "Throttling", "IncorrectState", "IncorrectInstanceState", "InternalError", "Unavailable":
		return true
	}
	return false
}
