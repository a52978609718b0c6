package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/batch"
	"github.com/mwhite-hr/reqflow/internal/identity"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// DocumentSource is the slice of the ATS client the downloader needs.
type DocumentSource interface {
	GetCandidateDocuments(candidateID string) ([]*ats.Document, error)
	DownloadDocument(candidateID, documentID string) ([]byte, error)
}

type Downloader struct {
	ws     *workspace.Workspace
	src    DocumentSource
	logger *zap.Logger
}

func NewDownloader(ws *workspace.Workspace, src DocumentSource, logger *zap.Logger) *Downloader {
	return &Downloader{ws: ws, src: src, logger: logger}
}

// DownloadResult summarizes one download run.
type DownloadResult struct {
	Downloaded int                 `json:"downloaded"`
	Skipped    int                 `json:"skipped"`
	Errors     int                 `json:"errors"`
	BatchName  string              `json:"batch_name,omitempty"`
	Details    []map[string]string `json:"details,omitempty"`
}

// Download fetches resumes for manifest candidates into a fresh batch's
// originals/. With candidateIDs empty the whole manifest is attempted; the
// watcher passes exactly the newly discovered ids to avoid re-downloading.
// Candidates whose resume already exists in an earlier batch are skipped
// unless overwrite is set. Per-candidate failures are tallied, never fatal.
func (d *Downloader) Download(client, req string, candidateIDs []string, overwrite bool) (*DownloadResult, error) {
	manifest, err := LoadManifest(d.ws.ManifestPath(client, req))
	if err != nil {
		return nil, err
	}
	if len(manifest.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates manifest for %s/%s, run sync first", client, req)
	}

	targets := manifest.Candidates
	if len(candidateIDs) > 0 {
		targets = nil
		for _, id := range candidateIDs {
			if c := manifest.Find(id); c != nil {
				targets = append(targets, c)
			}
		}
	}

	store := batch.NewStore(d.ws.BatchesDir(client, req), d.logger)
	result := &DownloadResult{}
	var dest *batch.Batch

	for _, c := range targets {
		key := identity.Normalize(c.Name())
		detail := map[string]string{"candidate_id": c.CandidateID, "key": key}

		if !overwrite {
			existing, err := store.FindResume(key, batch.Originals)
			if err == nil && existing != "" {
				detail["outcome"] = "skipped"
				result.Skipped++
				result.Details = append(result.Details, detail)
				continue
			}
		}

		doc, content, err := d.fetchResume(c.CandidateID)
		if err != nil {
			d.logger.Warn("resume download failed",
				zap.String("candidate_id", c.CandidateID),
				zap.Error(err),
			)
			detail["outcome"] = "error"
			detail["error"] = err.Error()
			result.Errors++
			result.Details = append(result.Details, detail)
			continue
		}

		if dest == nil {
			dest, err = store.Create("ats_download")
			if err != nil {
				return nil, err
			}
			result.BatchName = dest.Name
		}

		// Named after the candidate, not the ATS file, so a later run can
		// recover the key from the filename and skip the re-download.
		name := identity.DisplayName(key) + filepath.Ext(doc.FileName)
		if key == "" {
			name = "candidate_" + c.CandidateID + filepath.Ext(doc.FileName)
		}
		if err := os.WriteFile(filepath.Join(dest.OriginalsDir(), name), content, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		if err := dest.AddSourceFile(name); err != nil {
			return nil, err
		}

		detail["outcome"] = "downloaded"
		detail["file"] = name
		result.Downloaded++
		result.Details = append(result.Details, detail)
	}

	if dest != nil {
		if err := d.writeLog(dest, result); err != nil {
			d.logger.Warn("writing download log", zap.Error(err))
		}
	}
	return result, nil
}

// fetchResume picks the candidate's resume-looking attachment, falling back
// to the first one, and downloads it.
func (d *Downloader) fetchResume(candidateID string) (*ats.Document, []byte, error) {
	docs, err := d.src.GetCandidateDocuments(candidateID)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, fmt.Errorf("candidate %s has no documents", candidateID)
	}

	doc := docs[0]
	for _, candidate := range docs {
		lower := strings.ToLower(candidate.FileName + " " + candidate.DocumentType)
		if strings.Contains(lower, "resume") || strings.Contains(lower, "cv") {
			doc = candidate
			break
		}
	}

	content, err := d.src.DownloadDocument(candidateID, doc.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return doc, content, nil
}

func (d *Downloader) writeLog(dest *batch.Batch, result *DownloadResult) error {
	entry := struct {
		LoggedAt string `json:"logged_at"`
		*DownloadResult
	}{
		LoggedAt:       time.Now().Format(time.RFC3339),
		DownloadResult: result,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest.Dir, "download_log.json"), data, 0o644)
}
