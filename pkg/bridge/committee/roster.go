// Copyright 2025 Certen Protocol
//
// Static committee roster loading, following the teacher's YAML
// chain-config loading style (gopkg.in/yaml.v3, read-file-then-Unmarshal).
package committee

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
	"github.com/mangonet-labs/bridge-node/pkg/crypto/bls"
)

// RosterEntry describes one authority: its BLS public key, its voting
// stake and the endpoint the aggregator reaches it on.
type RosterEntry struct {
	ID        string `yaml:"id"`
	PublicKey string `yaml:"public_key"` // hex-encoded BLS12-381 public key
	Stake     uint64 `yaml:"stake"`
	Endpoint  string `yaml:"endpoint"`
}

// Roster is the full committee, loaded once at startup.
type Roster struct {
	Members []RosterEntry `yaml:"members"`
}

// LoadRoster reads and parses a committee roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("committee: read roster file: %w", err)
	}
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("committee: parse roster file: %w", err)
	}
	if len(roster.Members) == 0 {
		return nil, fmt.Errorf("committee: roster %s has no members", path)
	}
	return &roster, nil
}

// TotalStake sums the stake of every member.
func (r *Roster) TotalStake() uint64 {
	var total uint64
	for _, m := range r.Members {
		total += m.Stake
	}
	return total
}

// ValidityThreshold computes the committee's default validity threshold,
// the minimum aggregate stake a certificate must carry. spec.md leaves the
// exact formula committee-defined; this follows the ⌊(total_stake+2)/3⌋
// convention the spec names as typical for 2f+1-style semantics.
func (r *Roster) ValidityThreshold() uint64 {
	return (r.TotalStake() + 2) / 3
}

// ResolveMembers builds the Aggregator's member list, resolving each
// roster entry into a live AuthorityClient.
func (r *Roster) ResolveMembers(newClient func(endpoint string) AuthorityClient) ([]Member, error) {
	members := make([]Member, 0, len(r.Members))
	for _, entry := range r.Members {
		pk, err := bls.PublicKeyFromHex(entry.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("committee: authority %s: parse public key: %w", entry.ID, err)
		}
		members = append(members, Member{
			ID:        bridge.AuthorityID(entry.ID),
			PublicKey: pk,
			Stake:     entry.Stake,
			Client:    newClient(entry.Endpoint),
		})
	}
	return members, nil
}
