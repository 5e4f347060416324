package launch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/tags"
)

const phaseName = "launch"

// defaultSecurityGroup is the implicit group EC2 assigns when none is given.
const defaultSecurityGroup = "default"

// Phase launches the instance and records its ID on the context.
type Phase struct{}

// NewPhase creates a launch phase.
func NewPhase() *Phase {
	return &Phase{}
}

// Name implements provisioning.Phase.
func (p *Phase) Name() string {
	return phaseName
}

// Provision implements provisioning.Phase.
func (p *Phase) Provision(ctx *provisioning.Context) error {
	m := ctx.Machine

	if m.KeypairName == "" {
		ctx.Warn(phaseName, "No keypair configured; you will not be able to SSH into the instance unless the AMI provides another way in")
	}
	if m.UsesVPC() && m.ElasticIP.Mode() == config.ElasticIPNone {
		ctx.Warn(phaseName, "Launching into a subnet without an elastic IP; the instance may only be reachable from inside the VPC")
	}

	checkSSHIngress(ctx)
	if ctx.Interrupted() {
		// Nothing exists yet; the pipeline rolls back on its next check.
		return nil
	}

	opts := BuildRunInstanceOpts(m)
	ctx.Observer.Info("Launching %s instance from %s in %s", m.InstanceType, m.AMI, m.Region)
	provisioning.LogResourceCreating(ctx.Observer, phaseName, "instance", m.Name)

	inst, err := ctx.Client.RunInstance(ctx.Detached(), opts)
	if err != nil {
		return classifyLaunchError(m, err)
	}

	ctx.Instance.MarkCreated(inst.ID, inst.AvailabilityZone)
	ctx.Instance.SetAddresses(inst.PublicIP, inst.PrivateIP)
	provisioning.LogResourceCreated(ctx.Observer, phaseName, "instance", m.Name, inst.ID)
	ctx.Observer.Info("Launched instance %s", inst.ID)
	return nil
}

// BuildRunInstanceOpts translates a machine into a RunInstances request.
func BuildRunInstanceOpts(m *config.Machine) ec2.RunInstanceOpts {
	opts := ec2.RunInstanceOpts{
		ImageID:                m.AMI,
		InstanceType:           m.InstanceType,
		AvailabilityZone:       m.AvailabilityZone,
		KeyName:                m.KeypairName,
		PrivateIP:              m.PrivateIPAddress,
		SubnetID:               m.SubnetID,
		UserData:               m.UserData,
		IAMInstanceProfileARN:  m.IAMInstanceProfileARN,
		IAMInstanceProfileName: m.IAMInstanceProfileName,
		Monitoring:             m.Monitoring,
		EBSOptimized:           m.EBSOptimized,
		TerminateOnShutdown:    m.TerminateOnShutdown,
		Tags:                   tags.NewBuilder(m.Name).Merge(m.Tags).Build(),
	}

	if m.UsesVPC() {
		opts.SecurityGroupIDs = m.SecurityGroups
	} else {
		opts.SecurityGroupNames = m.SecurityGroups
	}

	for _, b := range m.EphemeralDevices() {
		opts.BlockDevices = append(opts.BlockDevices, ec2.BlockDeviceMapping{
			DeviceName:  b.DeviceName,
			VirtualName: b.VirtualName,
		})
	}
	return opts
}

// checkSSHIngress warns when no configured security group admits TCP on the
// SSH port. A failed check is reported and otherwise ignored.
func checkSSHIngress(ctx *provisioning.Context) {
	m := ctx.Machine

	query := ec2.SecurityGroupQuery{}
	switch {
	case len(m.SecurityGroups) == 0:
		query.Names = []string{defaultSecurityGroup}
		if m.UsesVPC() {
			subnet, err := ctx.Client.GetSubnet(ctx, m.SubnetID)
			if err != nil {
				ctx.Warn(phaseName, fmt.Sprintf("Could not check security groups for SSH access: %v", err))
				return
			}
			query.VpcID = subnet.VpcID
		}
	case m.UsesVPC():
		query.IDs = m.SecurityGroups
	default:
		query.Names = m.SecurityGroups
	}

	groups, err := ctx.Client.GetSecurityGroups(ctx, query)
	if err != nil {
		ctx.Warn(phaseName, fmt.Sprintf("Could not check security groups for SSH access: %v", err))
		return
	}

	for _, g := range groups {
		if g.AllowsTCP(config.SSHPort) {
			return
		}
	}

	names := make([]string, 0, len(query.IDs)+len(query.Names))
	names = append(names, query.IDs...)
	names = append(names, query.Names...)
	ctx.Warn(phaseName, fmt.Sprintf(
		"Security groups [%s] do not allow inbound TCP port %d; SSH to the instance will likely fail",
		strings.Join(names, ", "), config.SSHPort))
}

func classifyLaunchError(m *config.Machine, err error) error {
	var nf *ec2.NotFoundError
	if errors.As(err, &nf) {
		return &provisioning.ResourceNotFoundError{
			Resource: nf.Resource(),
			ID:       notFoundID(m, nf.Resource()),
			Err:      err,
		}
	}
	return provisioning.ProviderFailure("RunInstances", "", err)
}

func notFoundID(m *config.Machine, resource string) string {
	switch resource {
	case "subnet":
		return m.SubnetID
	case "image":
		return m.AMI
	case "key pair":
		return m.KeypairName
	case "security group":
		return strings.Join(m.SecurityGroups, ",")
	default:
		return ""
	}
}
