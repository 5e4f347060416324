package metadata

import (
	"context"
	"fmt"

	"sigs.k8s.io/yaml"
)

// ElasticAddressRecord describes the public address associated with a
// machine. Allocated is true only when the address was allocated on the
// machine's behalf and must be released on destroy.
type ElasticAddressRecord struct {
	PublicIP      string `json:"public_ip"`
	AllocationID  string `json:"allocation_id,omitempty"`
	AssociationID string `json:"association_id,omitempty"`
	Allocated     bool   `json:"allocated"`
}

// SaveElasticAddress persists rec under KeyElasticIP.
func SaveElasticAddress(ctx context.Context, s Store, machine string, rec *ElasticAddressRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode elastic address record: %w", err)
	}
	return s.Put(ctx, machine, KeyElasticIP, data)
}

// LoadElasticAddress reads the record saved by SaveElasticAddress.
// It returns ErrNotFound when the machine has no address record.
func LoadElasticAddress(ctx context.Context, s Store, machine string) (*ElasticAddressRecord, error) {
	data, err := s.Get(ctx, machine, KeyElasticIP)
	if err != nil {
		return nil, err
	}
	var rec ElasticAddressRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode elastic address record: %w", err)
	}
	return &rec, nil
}
