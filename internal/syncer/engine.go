// Package syncer discovers ATS candidates for local requisitions: one-shot
// full/incremental syncs, manifest maintenance, resume downloads and the
// polling watcher.
package syncer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// CandidateSource is the slice of the ATS client the engine needs.
type CandidateSource interface {
	Authenticate(force bool) error
	GetPositionCandidates(positionID string) ([]*ats.Candidate, error)
}

// dateAddedLayouts covers the shapes the ATS emits for DateAdded.
var dateAddedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 3:04:05 PM",
	"2006-01-02",
}

type Engine struct {
	ws     *workspace.Workspace
	src    CandidateSource
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(ws *workspace.Workspace, src CandidateSource, logger *zap.Logger) *Engine {
	return &Engine{ws: ws, src: src, logger: logger, now: time.Now}
}

// SyncResult summarizes one sync of one requisition.
type SyncResult struct {
	Total           int
	New             int
	NewCandidateIDs []string
	// PositionErrors holds per-position fetch failures. Non-empty with a nil
	// Sync error means partial success.
	PositionErrors map[string]error
}

// Sync discovers candidates for a requisition and merges them into its
// manifest. With incremental true and a parseable watermark, only candidates
// added after the watermark are merged; the watermark advances either way.
//
// A position fetch failure is tallied and the remaining positions still run;
// only all positions failing aborts the sync without touching manifest or
// watermark.
func (e *Engine) Sync(client, req string, incremental bool) (*SyncResult, error) {
	cfg, err := e.ws.LoadRequisition(client, req)
	if err != nil {
		return nil, err
	}
	positions := cfg.PositionIDs()
	if len(positions) == 0 {
		return nil, fmt.Errorf("requisition %s/%s has no linked ATS positions", client, req)
	}

	var watermark time.Time
	haveWatermark := false
	if incremental {
		watermark, haveWatermark = cfg.LastSyncTime()
		if !haveWatermark {
			e.logger.Debug("no usable watermark, running full sync",
				zap.String("requisition", req))
		}
	}

	if err := e.src.Authenticate(false); err != nil {
		return nil, err
	}

	result := &SyncResult{PositionErrors: map[string]error{}}
	var fetched []*ats.Candidate
	seen := map[string]struct{}{}
	for _, pos := range positions {
		candidates, err := e.fetchPosition(pos)
		if err != nil {
			e.logger.Warn("position fetch failed",
				zap.String("position", pos),
				zap.Error(err),
			)
			result.PositionErrors[pos] = err
			continue
		}
		for _, c := range candidates {
			if _, dup := seen[c.CandidateID]; dup {
				continue
			}
			seen[c.CandidateID] = struct{}{}
			fetched = append(fetched, c)
		}
	}

	if len(result.PositionErrors) == len(positions) {
		return result, fmt.Errorf("all %d positions failed for %s/%s", len(positions), client, req)
	}

	if haveWatermark {
		fetched = filterAfter(fetched, watermark)
	}

	manifest, err := LoadManifest(e.ws.ManifestPath(client, req))
	if err != nil {
		return nil, err
	}
	result.NewCandidateIDs = manifest.Merge(fetched)
	result.New = len(result.NewCandidateIDs)
	result.Total = len(manifest.Candidates)

	now := e.now()
	manifest.SyncedAt = now.Format(time.RFC3339)
	manifest.PositionIDs = positions
	if err := manifest.Save(e.ws.ManifestPath(client, req)); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	// Watermark advances even when nothing new was found: it records
	// "checked up to", not "found something at".
	cfg.SetLastSync(now)
	if err := e.ws.SaveRequisition(client, req, cfg); err != nil {
		return nil, fmt.Errorf("advance watermark: %w", err)
	}

	e.logger.Info("sync complete",
		zap.String("client", client),
		zap.String("requisition", req),
		zap.Int("total", result.Total),
		zap.Int("new", result.New),
		zap.Int("failed_positions", len(result.PositionErrors)),
	)
	return result, nil
}

// fetchPosition fetches one position's candidates, retrying once after a
// forced re-authentication when the session turns out to be dead.
func (e *Engine) fetchPosition(positionID string) ([]*ats.Candidate, error) {
	candidates, err := e.src.GetPositionCandidates(positionID)
	var authErr *ats.AuthError
	if errors.As(err, &authErr) {
		if err := e.src.Authenticate(true); err != nil {
			return nil, err
		}
		return e.src.GetPositionCandidates(positionID)
	}
	return candidates, err
}

// filterAfter keeps candidates added strictly after the watermark. A
// candidate whose DateAdded cannot be parsed is kept: missing a candidate is
// worse than re-merging one.
func filterAfter(candidates []*ats.Candidate, watermark time.Time) []*ats.Candidate {
	var kept []*ats.Candidate
	for _, c := range candidates {
		added, ok := parseDateAdded(c.DateAdded)
		if ok && !added.After(watermark) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func parseDateAdded(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateAddedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
