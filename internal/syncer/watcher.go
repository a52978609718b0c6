package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/utils"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// Scope selects which requisitions a watcher tick covers: one requisition,
// one client's active requisitions, or every active requisition.
type Scope struct {
	Client      string
	Requisition string
}

type target struct {
	client string
	req    string
}

// Watcher is a single-threaded polling loop over the sync engine.
// Requisitions within a tick run sequentially; a failing one is logged and
// the tick moves on.
type Watcher struct {
	engine     *Engine
	downloader *Downloader
	ws         *workspace.Workspace
	src        CandidateSource
	logger     *zap.Logger

	Interval     time.Duration
	AutoDownload bool
	// Once makes Run return after a single tick.
	Once bool
}

func NewWatcher(engine *Engine, downloader *Downloader, ws *workspace.Workspace, src CandidateSource, logger *zap.Logger) *Watcher {
	return &Watcher{
		engine:     engine,
		downloader: downloader,
		ws:         ws,
		src:        src,
		logger:     logger,
		Interval:   15 * time.Minute,
	}
}

// Run ticks until the context is canceled or, in Once mode, after one tick.
// Transport and auth failures inside a tick log and wait for the next
// interval instead of terminating the loop.
func (w *Watcher) Run(ctx context.Context, scope Scope) error {
	for {
		if err := w.tick(scope); err != nil {
			w.logger.Warn("watch tick failed", zap.Error(err))
		}
		if w.Once {
			return nil
		}
		if err := utils.WaitFor(ctx, w.Interval); err != nil {
			w.logger.Info("watcher stopped")
			return nil
		}
	}
}

func (w *Watcher) tick(scope Scope) error {
	if err := w.src.Authenticate(false); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	targets, err := w.resolve(scope)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		w.logger.Debug("no requisitions in scope")
		return nil
	}

	totalNew := 0
	for _, tg := range targets {
		result, err := w.engine.Sync(tg.client, tg.req, true)
		if err != nil {
			w.logger.Warn("requisition sync failed",
				zap.String("client", tg.client),
				zap.String("requisition", tg.req),
				zap.Error(err),
			)
			continue
		}
		totalNew += result.New

		if w.AutoDownload && len(result.NewCandidateIDs) > 0 {
			dl, err := w.downloader.Download(tg.client, tg.req, result.NewCandidateIDs, false)
			if err != nil {
				w.logger.Warn("auto-download failed",
					zap.String("requisition", tg.req),
					zap.Error(err),
				)
				continue
			}
			w.logger.Info("auto-downloaded resumes",
				zap.String("requisition", tg.req),
				zap.Int("downloaded", dl.Downloaded),
				zap.Int("errors", dl.Errors),
			)
		}
	}

	w.logger.Info("tick complete",
		zap.Int("requisitions", len(targets)),
		zap.Int("new_candidates", totalNew),
	)
	return nil
}

// resolve expands a scope into concrete requisitions. The three scope shapes
// are one iterator with different filters, not three code paths.
func (w *Watcher) resolve(scope Scope) ([]target, error) {
	if scope.Requisition != "" {
		if scope.Client == "" {
			return nil, fmt.Errorf("a requisition scope needs a client")
		}
		return []target{{client: scope.Client, req: scope.Requisition}}, nil
	}

	clients := []string{scope.Client}
	if scope.Client == "" {
		var err error
		clients, err = w.ws.ListClients()
		if err != nil {
			return nil, err
		}
	}

	var targets []target
	for _, client := range clients {
		reqs, err := w.ws.ListRequisitions(client, workspace.StatusActive)
		if err != nil {
			return nil, err
		}
		for _, req := range reqs {
			targets = append(targets, target{client: client, req: req})
		}
	}
	return targets, nil
}
