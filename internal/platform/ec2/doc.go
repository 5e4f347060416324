// Package ec2 wraps the AWS EC2 API for the provisioning pipeline.
//
// The [Client] interface exposes the instance, volume, elastic address and
// network inspection calls the pipeline needs, using plain Go types instead
// of SDK shapes. [RealClient] implements it on top of aws-sdk-go-v2;
// [MockClient] is a function-field test double.
//
// All errors returned by [RealClient] are classified once, here: missing
// resources come back as [*NotFoundError], other service rejections as
// [*APIError], and HTTP-layer failures as [*TransportError]. Callers use
// errors.As and never inspect messages.
package ec2
