package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/ats"
	"github.com/mwhite-hr/reqflow/internal/batch"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

func seedWatchedRequisition(t *testing.T, ws *workspace.Workspace, client, req, status, position string) {
	t.Helper()
	require.NoError(t, ws.EnsureLayout(client, req))
	cfg := &workspace.RequisitionConfig{Status: status}
	if position != "" {
		cfg.ATS.Positions = []workspace.PositionLink{{JobID: position}}
	}
	require.NoError(t, ws.SaveRequisition(client, req, cfg))
}

func newTestWatcher(t *testing.T, src *stubSource, docs *stubDocs) (*Watcher, *workspace.Workspace) {
	t.Helper()

	ws := workspace.New(t.TempDir(), zap.NewNop())
	engine := NewEngine(ws, src, zap.NewNop())
	downloader := NewDownloader(ws, docs, zap.NewNop())

	w := NewWatcher(engine, downloader, ws, src, zap.NewNop())
	w.Once = true
	return w, ws
}

func TestWatcherOnce(t *testing.T) {
	src := &stubSource{byPosition: map[string][]*ats.Candidate{
		"100": {candidate("1", "Jane", "Doe", "2026-07-01T09:00:00Z")},
	}}
	w, ws := newTestWatcher(t, src, &stubDocs{})
	seedWatchedRequisition(t, ws, "acme", "REQ-1", "active", "100")

	require.NoError(t, w.Run(context.Background(), Scope{Client: "acme", Requisition: "REQ-1"}))

	m, err := LoadManifest(ws.ManifestPath("acme", "REQ-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)
}

func TestWatcherSkipsInactiveRequisitions(t *testing.T) {
	src := &stubSource{byPosition: map[string][]*ats.Candidate{
		"100": {candidate("1", "Jane", "Doe", "")},
		"200": {candidate("2", "Sam", "Reyes", "")},
	}}
	w, ws := newTestWatcher(t, src, &stubDocs{})
	seedWatchedRequisition(t, ws, "acme", "REQ-1", "active", "100")
	seedWatchedRequisition(t, ws, "acme", "REQ-2", "archived", "200")

	require.NoError(t, w.Run(context.Background(), Scope{Client: "acme"}))

	m, err := LoadManifest(ws.ManifestPath("acme", "REQ-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)

	m, err = LoadManifest(ws.ManifestPath("acme", "REQ-2"))
	require.NoError(t, err)
	assert.Zero(t, m.Count)
}

func TestWatcherContinuesPastFailingRequisition(t *testing.T) {
	src := &stubSource{
		byPosition: map[string][]*ats.Candidate{
			"200": {candidate("2", "Sam", "Reyes", "")},
		},
		errs: map[string]error{"100": &ats.TransportError{Err: context.DeadlineExceeded}},
	}
	w, ws := newTestWatcher(t, src, &stubDocs{})
	seedWatchedRequisition(t, ws, "acme", "REQ-1", "active", "100")
	seedWatchedRequisition(t, ws, "acme", "REQ-2", "active", "200")

	require.NoError(t, w.Run(context.Background(), Scope{Client: "acme"}))

	m, err := LoadManifest(ws.ManifestPath("acme", "REQ-2"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count, "a failing requisition must not stop the rest of the tick")
}

func TestWatcherAutoDownloadNewOnly(t *testing.T) {
	src := &stubSource{byPosition: map[string][]*ats.Candidate{
		"100": {candidate("1", "Jane", "Doe", "2026-07-01T09:00:00Z")},
	}}
	docs := &stubDocs{
		docs: map[string][]*ats.Document{
			"1": {{DocumentID: "10", FileName: "resume.pdf"}},
		},
		content: map[string][]byte{"1/10": []byte("bytes")},
	}
	w, ws := newTestWatcher(t, src, docs)
	w.AutoDownload = true
	seedWatchedRequisition(t, ws, "acme", "REQ-1", "active", "100")

	require.NoError(t, w.Run(context.Background(), Scope{Client: "acme", Requisition: "REQ-1"}))

	store := batch.NewStore(ws.BatchesDir("acme", "REQ-1"), zap.NewNop())
	path, err := store.FindResume("doe_jane", batch.Originals)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	src := &stubSource{byPosition: map[string][]*ats.Candidate{}}
	w, ws := newTestWatcher(t, src, &stubDocs{})
	w.Once = false
	w.Interval = time.Hour
	seedWatchedRequisition(t, ws, "acme", "REQ-1", "active", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, Scope{Client: "acme"}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatcherScopeNeedsClient(t *testing.T) {
	w, _ := newTestWatcher(t, &stubSource{}, &stubDocs{})
	_, err := w.resolve(Scope{Requisition: "REQ-1"})
	require.Error(t, err)
}
