package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/identity"
)

// Manifest is the per-requisition list of known ATS candidates, the bridge
// between ATS identity and local batches. It only ever grows: Merge unions by
// candidate id and never removes entries.
type Manifest struct {
	SyncedAt    string           `json:"synced_at"`
	PositionIDs []string         `json:"position_ids"`
	Count       int              `json:"count"`
	Candidates  []*ats.Candidate `json:"candidates"`
}

// LoadManifest reads a manifest file. A missing file yields an empty
// manifest, not an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest atomically via a temp file rename.
func (m *Manifest) Save(path string) error {
	m.Count = len(m.Candidates)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Merge unions incoming candidates into the manifest, keyed by candidate id.
// Existing entries are overwritten by re-fetched ones; nothing is removed.
// Returns the ids that were not present before.
func (m *Manifest) Merge(incoming []*ats.Candidate) (newIDs []string) {
	index := make(map[string]int, len(m.Candidates))
	for i, c := range m.Candidates {
		index[c.CandidateID] = i
	}

	for _, c := range incoming {
		if c.CandidateID == "" {
			continue
		}
		if i, ok := index[c.CandidateID]; ok {
			m.Candidates[i] = c
			continue
		}
		index[c.CandidateID] = len(m.Candidates)
		m.Candidates = append(m.Candidates, c)
		newIDs = append(newIDs, c.CandidateID)
	}
	m.Count = len(m.Candidates)
	return newIDs
}

// Find returns the manifest entry for a candidate id.
func (m *Manifest) Find(candidateID string) *ats.Candidate {
	for _, c := range m.Candidates {
		if c.CandidateID == candidateID {
			return c
		}
	}
	return nil
}

// KeyIndex maps normalized candidate keys to manifest entries. Both name
// orientations are indexed because extracted-resume filenames are not
// guaranteed to agree with the ATS on which token is the surname.
func (m *Manifest) KeyIndex() map[string]*ats.Candidate {
	index := make(map[string]*ats.Candidate, len(m.Candidates)*2)
	for _, c := range m.Candidates {
		first := strings.TrimSpace(c.FirstName)
		last := strings.TrimSpace(c.LastName)
		for _, form := range []string{last + " " + first, first + " " + last} {
			key := identity.Normalize(form)
			if key == "" {
				continue
			}
			if _, taken := index[key]; !taken {
				index[key] = c
			}
		}
	}
	return index
}
