package workspace

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const StatusActive = "active"

// lastSyncLayout is how watermarks are written. Older hand-edited configs may
// carry other shapes, so parsing is lenient.
const lastSyncLayout = time.RFC3339

var lastSyncParseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PositionLink ties a requisition to one ATS position.
type PositionLink struct {
	JobID string `yaml:"job_id"`
	Title string `yaml:"title,omitempty"`
}

// ATSIntegration is the `ats_integration` block of requisition.yaml. JobID is
// the legacy single-position form, kept readable so old configs keep working;
// Positions supersedes it.
type ATSIntegration struct {
	JobID     string         `yaml:"job_id,omitempty"`
	Positions []PositionLink `yaml:"positions,omitempty"`
	LastSync  string         `yaml:"last_sync,omitempty"`
}

type RequisitionConfig struct {
	Title  string         `yaml:"title,omitempty"`
	Status string         `yaml:"status,omitempty"`
	ATS    ATSIntegration `yaml:"ats_integration"`
}

// PositionIDs returns the linked ATS position IDs, preferring the positions
// list and falling back to the legacy single job_id, deduplicated in order.
func (c *RequisitionConfig) PositionIDs() []string {
	var ids []string
	seen := map[string]struct{}{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, p := range c.ATS.Positions {
		add(p.JobID)
	}
	if len(ids) == 0 {
		add(c.ATS.JobID)
	}
	return ids
}

// LastSyncTime parses the watermark. ok is false when absent or unparseable;
// an unparseable watermark degrades to a full sync rather than an error.
func (c *RequisitionConfig) LastSyncTime() (t time.Time, ok bool) {
	if c.ATS.LastSync == "" {
		return time.Time{}, false
	}
	for _, layout := range lastSyncParseLayouts {
		if t, err := time.Parse(layout, c.ATS.LastSync); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (c *RequisitionConfig) SetLastSync(t time.Time) {
	c.ATS.LastSync = t.Format(lastSyncLayout)
}

// LoadRequisition reads requisition.yaml. A missing file is an error: a
// requisition directory without a config is not a requisition.
func (w *Workspace) LoadRequisition(client, req string) (*RequisitionConfig, error) {
	data, err := os.ReadFile(w.configPath(client, req))
	if err != nil {
		return nil, fmt.Errorf("read requisition config: %w", err)
	}

	var cfg RequisitionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse requisition config: %w", err)
	}
	return &cfg, nil
}

// SaveRequisition writes requisition.yaml atomically.
func (w *Workspace) SaveRequisition(client, req string, cfg *RequisitionConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode requisition config: %w", err)
	}

	path := w.configPath(client, req)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
