package orchestration

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
	"github.com/madhurranjan/vagrant-aws/internal/util/ptr"
)

var _ = Describe("Provisioning attempts", func() {
	var (
		env *testEnv
		ctx context.Context
	)

	BeforeEach(func() {
		env = newTestEnv()
		ctx = context.Background()
	})

	Context("launching into a subnet without security groups", func() {
		var (
			m       *config.Machine
			queries []ec2.SecurityGroupQuery
		)

		BeforeEach(func() {
			m = testMachine("web")
			m.SubnetID = "subnet-1"
			m.SecurityGroups = nil
			env.client.GetSubnetFunc = func(_ context.Context, id string) (*ec2.Subnet, error) {
				return &ec2.Subnet{ID: id, VpcID: "vpc-42"}, nil
			}
			env.client.GetSecurityGroupsFunc = func(_ context.Context, q ec2.SecurityGroupQuery) ([]ec2.SecurityGroup, error) {
				queries = append(queries, q)
				return []ec2.SecurityGroup{{ID: "sg-default", Name: "default", VpcID: "vpc-42"}}, nil
			}
		})

		It("checks the VPC's default group and still provisions", func() {
			res, err := env.runner(readyProber{}).Up(ctx, m)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Instance.State).To(Equal(provisioning.StateReady))
			Expect(queries).To(HaveLen(1))
			Expect(queries[0].VpcID).To(Equal("vpc-42"))
			Expect(queries[0].Names).To(ConsistOf("default"))
		})

		It("reports both pre-flight warnings without rolling back", func() {
			res, err := env.runner(readyProber{}).Up(ctx, m)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Warnings).To(HaveLen(2))
			Expect(strings.Join(res.Warnings, "\n")).To(And(
				ContainSubstring("without an elastic IP"),
				ContainSubstring("port 22"),
			))
			Expect(env.destroyer.Requests()).To(BeEmpty())
		})

		It("launches with security group IDs into the subnet", func() {
			m.SecurityGroups = []string{"sg-1"}
			env.client.GetSecurityGroupsFunc = func(context.Context, ec2.SecurityGroupQuery) ([]ec2.SecurityGroup, error) {
				return []ec2.SecurityGroup{{ID: "sg-1", Ingress: []ec2.IngressRule{{Protocol: "-1"}}}}, nil
			}

			_, err := env.runner(readyProber{}).Up(ctx, m)

			Expect(err).NotTo(HaveOccurred())
			Expect(env.cloud.launched).To(HaveLen(1))
			Expect(env.cloud.launched[0].SubnetID).To(Equal("subnet-1"))
			Expect(env.cloud.launched[0].SecurityGroupIDs).To(ConsistOf("sg-1"))
			Expect(env.cloud.launched[0].SecurityGroupNames).To(BeEmpty())
		})
	})

	Context("with one 20 GiB EBS volume", func() {
		var m *config.Machine

		BeforeEach(func() {
			m = testMachine("db")
			m.BlockDeviceMapping = []config.BlockDevice{
				{DeviceName: "/dev/sdb", VirtualName: "ephemeral0"},
				{DeviceName: "/dev/sdf", EBS: config.EBSSpec{VolumeSize: ptr.Int32(20), VolumeType: "gp3"}},
			}
		})

		It("maps only the ephemeral device at launch", func() {
			_, err := env.runner(readyProber{}).Up(ctx, m)

			Expect(err).NotTo(HaveOccurred())
			Expect(env.cloud.launched[0].BlockDevices).To(ConsistOf(ec2.BlockDeviceMapping{
				DeviceName:  "/dev/sdb",
				VirtualName: "ephemeral0",
			}))
		})

		It("creates the volume in the instance's zone and attaches it", func() {
			res, err := env.runner(readyProber{}).Up(ctx, m)

			Expect(err).NotTo(HaveOccurred())
			Expect(env.cloud.volumes).To(HaveLen(1))
			opts := env.cloud.volumes["vol-1"]
			Expect(opts.Size).To(Equal(int32(20)))
			Expect(opts.AvailabilityZone).To(Equal("us-east-1b"))

			Expect(res.Volumes).To(ConsistOf(provisioning.VolumeHandle{
				ID:     "vol-1",
				Device: "/dev/sdf",
				State:  provisioning.VolumeInUse,
			}))
			Expect(res.Metrics).To(HaveKey(provisioning.MetricInstanceVolumesTime))
			Expect(res.Instance.State).To(Equal(provisioning.StateReady))
		})

		It("rolls back once when the volume never becomes available", func() {
			env.client.GetVolumeFunc = func(_ context.Context, id string) (*ec2.Volume, error) {
				return &ec2.Volume{ID: id, State: ec2.VolumeCreating}, nil
			}

			_, err := env.runner(readyProber{}).Up(ctx, m)

			var timeout *provisioning.VolumeProvisionTimeoutError
			Expect(errorsAs(err, &timeout)).To(BeTrue())
			Expect(timeout.Device).To(Equal("/dev/sdf"))
			Expect(env.destroyer.Requests()).To(HaveLen(1))
		})
	})

	Context("when the instance never boots", func() {
		BeforeEach(func() {
			env.cloud.bootChecks = -1
		})

		It("gives up after half the ready timeout in checks", func() {
			m := testMachine("web")
			m.InstanceReadyTimeout = 10

			_, err := env.runner(readyProber{}).Up(ctx, m)

			var timeout *provisioning.ReadyTimeoutError
			Expect(errorsAs(err, &timeout)).To(BeTrue())
			Expect(timeout.Seconds).To(Equal(10))
			Expect(env.cloud.checks).To(HaveKeyWithValue("i-1", 5))
			Expect(env.destroyer.Requests()).To(HaveLen(1))
		})
	})

	Context("when the attempt is interrupted", func() {
		It("does not wait for boot and rolls back without an error", func() {
			cctx, cancel := context.WithCancel(ctx)
			env.client.RunInstanceFunc = func(c context.Context, opts ec2.RunInstanceOpts) (*ec2.Instance, error) {
				cancel()
				return &ec2.Instance{ID: "i-77", State: ec2.InstancePending}, nil
			}

			res, err := env.runner(readyProber{}).Up(cctx, testMachine("web"))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Interrupted).To(BeTrue())
			Expect(env.cloud.checks).To(BeEmpty())
			Expect(env.destroyer.Requests()).To(ConsistOf(HaveField("InstanceID", "i-77")))
		})
	})
})
