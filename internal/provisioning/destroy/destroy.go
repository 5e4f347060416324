package destroy

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/madhurranjan/vagrant-aws/internal/config"
	"github.com/madhurranjan/vagrant-aws/internal/metadata"
	"github.com/madhurranjan/vagrant-aws/internal/platform/ec2"
	"github.com/madhurranjan/vagrant-aws/internal/provisioning"
)

const phaseName = "destroy"

// ErrDeclined is returned when the user declines the confirmation prompt.
var ErrDeclined = errors.New("destroy declined")

// ConfirmFunc asks whether machine should be destroyed.
type ConfirmFunc func(ctx context.Context, machine string) (bool, error)

// Destroyer implements provisioning.Destroyer against EC2.
type Destroyer struct {
	client   ec2.Client
	store    metadata.Store
	observer provisioning.Observer
	config   *config.Config
	confirm  ConfirmFunc
}

var _ provisioning.Destroyer = (*Destroyer)(nil)

// Option configures a Destroyer.
type Option func(*Destroyer)

// WithObserver sets the observer. The default is a ConsoleObserver.
func WithObserver(o provisioning.Observer) Option {
	return func(d *Destroyer) {
		d.observer = o
	}
}

// WithConfig sets the configuration used when a request asks for
// validation.
func WithConfig(cfg *config.Config) Option {
	return func(d *Destroyer) {
		d.config = cfg
	}
}

// WithConfirm replaces the interactive confirmation prompt.
func WithConfirm(f ConfirmFunc) Option {
	return func(d *Destroyer) {
		d.confirm = f
	}
}

// New creates a Destroyer.
func New(client ec2.Client, store metadata.Store, opts ...Option) *Destroyer {
	d := &Destroyer{
		client:  client,
		store:   store,
		confirm: PromptConfirm,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.observer == nil {
		d.observer = provisioning.NewConsoleObserver()
	}
	return d
}

// PromptConfirm asks on the terminal.
func PromptConfirm(ctx context.Context, machine string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Destroy machine %q?", machine)).
				Description("The instance is terminated and its elastic IP released").
				Affirmative("Destroy").
				Negative("Cancel").
				Value(&ok),
		),
	).RunWithContext(ctx)
	return ok, err
}

// Destroy implements provisioning.Destroyer.
func (d *Destroyer) Destroy(ctx context.Context, req provisioning.DestroyRequest) error {
	if req.ValidateConfig {
		if err := d.validate(req.Machine); err != nil {
			return err
		}
	}

	if !req.Force {
		ok, err := d.confirm(ctx, req.Machine)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return ErrDeclined
		}
	}

	instanceID, err := d.instanceID(ctx, req)
	if err != nil {
		return err
	}
	rec, err := d.addressRecord(ctx, req)
	if err != nil {
		return err
	}

	if instanceID == "" && rec == nil {
		d.observer.Info("Machine %s is not created", req.Machine)
		return d.forget(ctx, req.Machine)
	}

	d.observer.Printf("[%s] Destroying machine %s...", phaseName, req.Machine)

	if rec != nil {
		if err := d.releaseAddress(ctx, rec); err != nil {
			return err
		}
	}
	if instanceID != "" {
		if err := d.terminate(ctx, instanceID); err != nil {
			return err
		}
	}
	if err := d.forget(ctx, req.Machine); err != nil {
		return err
	}

	d.observer.Printf("[%s] Machine %s destroyed", phaseName, req.Machine)
	return nil
}

func (d *Destroyer) validate(machine string) error {
	if d.config == nil {
		return fmt.Errorf("no configuration to validate machine %s against", machine)
	}
	m, ok := d.config.Machine(machine)
	if !ok {
		return fmt.Errorf("machine %q is not defined", machine)
	}
	return m.Validate()
}

func (d *Destroyer) instanceID(ctx context.Context, req provisioning.DestroyRequest) (string, error) {
	if req.InstanceID != "" {
		return req.InstanceID, nil
	}
	id, err := metadata.LoadInstanceID(ctx, d.store, req.Machine)
	if errors.Is(err, metadata.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load instance ID: %w", err)
	}
	return id, nil
}

func (d *Destroyer) addressRecord(ctx context.Context, req provisioning.DestroyRequest) (*metadata.ElasticAddressRecord, error) {
	if req.Address != nil {
		return req.Address, nil
	}
	rec, err := metadata.LoadElasticAddress(ctx, d.store, req.Machine)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load elastic IP record: %w", err)
	}
	return rec, nil
}

func (d *Destroyer) releaseAddress(ctx context.Context, rec *metadata.ElasticAddressRecord) error {
	addr := &ec2.Address{
		PublicIP:      rec.PublicIP,
		AllocationID:  rec.AllocationID,
		AssociationID: rec.AssociationID,
	}

	provisioning.LogResourceDeleting(d.observer, phaseName, "elastic IP association", rec.PublicIP)
	if err := d.client.DisassociateAddress(ctx, addr); err != nil && !ec2.IsNotFound(err) {
		return fmt.Errorf("failed to disassociate elastic IP %s: %w", rec.PublicIP, err)
	}

	if !rec.Allocated {
		return nil
	}
	provisioning.LogResourceDeleting(d.observer, phaseName, "elastic IP", rec.PublicIP)
	if err := d.client.ReleaseAddress(ctx, addr); err != nil && !ec2.IsNotFound(err) {
		return fmt.Errorf("failed to release elastic IP %s: %w", rec.PublicIP, err)
	}
	provisioning.LogResourceDeleted(d.observer, phaseName, "elastic IP", rec.PublicIP)
	return nil
}

func (d *Destroyer) terminate(ctx context.Context, id string) error {
	provisioning.LogResourceDeleting(d.observer, phaseName, "instance", id)
	if err := d.client.TerminateInstance(ctx, id); err != nil {
		if !ec2.IsNotFound(err) {
			return fmt.Errorf("failed to terminate instance %s: %w", id, err)
		}
		d.observer.Printf("[%s] Instance %s already gone", phaseName, id)
	}
	provisioning.LogResourceDeleted(d.observer, phaseName, "instance", id)
	return nil
}

func (d *Destroyer) forget(ctx context.Context, machine string) error {
	for _, key := range []string{metadata.KeyElasticIP, metadata.KeyInstanceID} {
		if err := d.store.Delete(ctx, machine, key); err != nil {
			return fmt.Errorf("failed to delete %s record: %w", key, err)
		}
	}
	return nil
}
