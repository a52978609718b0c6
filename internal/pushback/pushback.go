// Package pushback writes local assessment results back to the ATS: a note on
// the candidate record (the primary side effect), the score onto custom
// fields, and, when a sendout is known, a pipeline status derived from the
// recommendation.
package pushback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/assess"
	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/syncer"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// ATSWriter is the slice of the ATS client the pusher needs.
type ATSWriter interface {
	AddCandidateNote(candidateID, note, noteType string) error
	SetAssessmentScore(candidateID string, score float64, recommendation string) error
	UpdatePipelineInterview(sendoutID, status, notes string) error
}

// DefaultStatusMap maps recommendations onto ATS pipeline statuses. Pending
// records have no mapping and leave the pipeline untouched.
func DefaultStatusMap() map[string]string {
	return map[string]string{
		assess.StrongRecommend: "Interview Scheduled",
		assess.Recommend:       "Interview Scheduled",
		assess.Conditional:     "On Hold",
		assess.DoNotRecommend:  "Not Selected",
	}
}

type Pusher struct {
	ws     *workspace.Workspace
	writer ATSWriter
	logger *zap.Logger

	// StatusMap overrides DefaultStatusMap when non-nil.
	StatusMap map[string]string
	now       func() time.Time
}

func NewPusher(ws *workspace.Workspace, writer ATSWriter, logger *zap.Logger) *Pusher {
	return &Pusher{ws: ws, writer: writer, logger: logger, now: time.Now}
}

// Stats summarizes one push run. Diagnostic, not authoritative state.
type Stats struct {
	Total   int                 `json:"total"`
	Updated int                 `json:"updated"`
	Skipped int                 `json:"skipped"`
	Errors  int                 `json:"errors"`
	DryRun  bool                `json:"dry_run,omitempty"`
	Details []map[string]string `json:"details,omitempty"`
}

// Push resolves each assessment record to an ATS candidate via the manifest
// and writes the results back. Records without a manifest match are skipped,
// never fatal; a pipeline status failure is logged and the candidate still
// counts as updated. With dryRun only the resolution runs.
func (p *Pusher) Push(client, req string, dryRun bool, batchFilter string) (*Stats, error) {
	records, err := assess.LoadRecords(p.ws.AssessmentsDir(client, req), batchFilter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no assessment records for %s/%s", client, req)
	}

	manifest, err := syncer.LoadManifest(p.ws.ManifestPath(client, req))
	if err != nil {
		return nil, err
	}
	if len(manifest.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates manifest for %s/%s, run sync first", client, req)
	}
	index := manifest.KeyIndex()

	stats := &Stats{DryRun: dryRun}
	for _, record := range records {
		stats.Total++
		detail := map[string]string{"key": record.Key}

		candidate := p.resolve(index, record.Key)
		if candidate == nil {
			p.logger.Warn("no manifest entry for assessment",
				zap.String("key", record.Key),
			)
			detail["outcome"] = "skipped"
			detail["reason"] = "no manifest match"
			stats.Skipped++
			stats.Details = append(stats.Details, detail)
			continue
		}
		detail["candidate_id"] = candidate.CandidateID

		if dryRun {
			detail["outcome"] = "would_update"
			stats.Updated++
			stats.Details = append(stats.Details, detail)
			continue
		}

		if err := p.pushOne(candidate, record, detail); err != nil {
			detail["outcome"] = "error"
			detail["error"] = err.Error()
			stats.Errors++
			stats.Details = append(stats.Details, detail)
			continue
		}
		detail["outcome"] = "updated"
		stats.Updated++
		stats.Details = append(stats.Details, detail)
	}

	if err := p.writeLog(client, req, stats); err != nil {
		p.logger.Warn("writing push log", zap.Error(err))
	}
	return stats, nil
}

// resolve finds the manifest candidate for a key: exact match first, then a
// two-way substring fallback. The fallback is lossy and logged as such.
func (p *Pusher) resolve(index map[string]*ats.Candidate, key string) *ats.Candidate {
	if c, ok := index[key]; ok {
		return c
	}

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			p.logger.Warn("low-confidence candidate match",
				zap.String("assessment_key", key),
				zap.String("manifest_key", k),
			)
			return index[k]
		}
	}
	return nil
}

func (p *Pusher) pushOne(candidate *ats.Candidate, record *assess.Record, detail map[string]string) error {
	if err := p.writer.AddCandidateNote(candidate.CandidateID, formatNote(record), "Assessment"); err != nil {
		return fmt.Errorf("add note: %w", err)
	}

	if err := p.writer.SetAssessmentScore(candidate.CandidateID, record.Percentage, record.Recommendation); err != nil {
		p.logger.Warn("setting assessment score failed",
			zap.String("candidate_id", candidate.CandidateID),
			zap.Error(err),
		)
		detail["score_error"] = err.Error()
	}

	status := p.statusFor(record.Recommendation)
	if candidate.SendoutID != "" && status != "" {
		if err := p.writer.UpdatePipelineInterview(candidate.SendoutID, status, ""); err != nil {
			p.logger.Warn("pipeline status update failed",
				zap.String("sendout_id", candidate.SendoutID),
				zap.Error(err),
			)
			detail["pipeline_error"] = err.Error()
		} else {
			detail["pipeline_status"] = status
		}
	}
	return nil
}

func (p *Pusher) statusFor(recommendation string) string {
	m := p.StatusMap
	if m == nil {
		m = DefaultStatusMap()
	}
	return m[recommendation]
}

func formatNote(r *assess.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment: %s\n", r.Name)
	fmt.Fprintf(&b, "Score: %.1f/%d (%.1f%%)\n", r.TotalScore, r.MaxScore, r.Percentage)
	fmt.Fprintf(&b, "Recommendation: %s\n", r.Recommendation)
	if r.StabilityRisk != "" {
		fmt.Fprintf(&b, "Stability risk: %s\n", r.StabilityRisk)
	}

	names := make([]string, 0, len(r.Scores))
	for name := range r.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cs := r.Scores[name]
		fmt.Fprintf(&b, "- %s: %.1f/%d\n", name, cs.Score, cs.Max)
	}

	if r.Summary != "" {
		b.WriteString("\n" + r.Summary + "\n")
	}
	return b.String()
}

func (p *Pusher) writeLog(client, req string, stats *Stats) error {
	entry := struct {
		PushedAt string `json:"pushed_at"`
		*Stats
	}{
		PushedAt: p.now().Format(time.RFC3339),
		Stats:    stats,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(p.ws.RequisitionDir(client, req), "push_log.json")
	return os.WriteFile(path, data, 0o644)
}
