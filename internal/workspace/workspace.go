// Package workspace owns the on-disk layout: a root directory holding
// clients, each with requisitions, each with resume batches, assessments and
// an optional framework. Requisition metadata lives in requisition.yaml next
// to the data it describes.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	clientsDirName    = "clients"
	requisitionsName  = "requisitions"
	configFileName    = "requisition.yaml"
	lockFileName      = ".reqflow.lock"
	incomingRelPath   = "resumes/incoming"
	batchesRelPath    = "resumes/batches"
	assessRelPath     = "assessments/individual"
	frameworkRelPath  = "framework"
	frameworkFileName = "framework_config.yaml"
)

type Workspace struct {
	Root   string
	logger *zap.Logger
}

func New(root string, logger *zap.Logger) *Workspace {
	return &Workspace{Root: root, logger: logger}
}

func (w *Workspace) ClientDir(client string) string {
	return filepath.Join(w.Root, clientsDirName, client)
}

func (w *Workspace) RequisitionDir(client, req string) string {
	return filepath.Join(w.ClientDir(client), requisitionsName, req)
}

func (w *Workspace) IncomingDir(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), incomingRelPath)
}

func (w *Workspace) BatchesDir(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), batchesRelPath)
}

func (w *Workspace) AssessmentsDir(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), assessRelPath)
}

func (w *Workspace) FrameworkFile(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), frameworkRelPath, frameworkFileName)
}

func (w *Workspace) configPath(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), configFileName)
}

// ManifestPath is where the requisition's candidates manifest lives.
func (w *Workspace) ManifestPath(client, req string) string {
	return filepath.Join(w.RequisitionDir(client, req), "candidates_manifest.json")
}

// EnsureLayout creates the requisition's directory skeleton. Existing
// directories are left untouched.
func (w *Workspace) EnsureLayout(client, req string) error {
	base := w.RequisitionDir(client, req)
	for _, rel := range []string{incomingRelPath, batchesRelPath, assessRelPath, frameworkRelPath} {
		if err := os.MkdirAll(filepath.Join(base, rel), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", rel, err)
		}
	}
	return nil
}

// ListClients returns client codes present under the root, sorted.
func (w *Workspace) ListClients() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.Root, clientsDirName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var clients []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			clients = append(clients, e.Name())
		}
	}
	sort.Strings(clients)
	return clients, nil
}

// ListRequisitions returns requisition IDs for a client whose configured
// status matches the filter. An empty filter matches everything; a
// requisition without an explicit status counts as active.
func (w *Workspace) ListRequisitions(client, status string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.ClientDir(client), requisitionsName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reqs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if status != "" {
			cfg, err := w.LoadRequisition(client, e.Name())
			if err != nil {
				w.logger.Warn("skipping requisition with unreadable config",
					zap.String("client", client),
					zap.String("requisition", e.Name()),
					zap.Error(err),
				)
				continue
			}
			got := cfg.Status
			if got == "" {
				got = StatusActive
			}
			if !strings.EqualFold(got, status) {
				continue
			}
		}
		reqs = append(reqs, e.Name())
	}
	sort.Strings(reqs)
	return reqs, nil
}
