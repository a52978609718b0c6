package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const clientInfoFileName = "client_info.yaml"

// ClientInfo is the client-level metadata file written at intake.
type ClientInfo struct {
	CompanyName  string `yaml:"company_name"`
	Industry     string `yaml:"industry,omitempty"`
	ContactName  string `yaml:"contact_name,omitempty"`
	ContactEmail string `yaml:"contact_email,omitempty"`
	CreatedAt    string `yaml:"created_at,omitempty"`
}

// InitClient creates a client's directory skeleton and writes its info file.
// Client codes are lowercase letters, digits and underscores; an existing
// client is an error, not an overwrite.
func (w *Workspace) InitClient(client string, info *ClientInfo) error {
	if !validClientCode(client) {
		return fmt.Errorf("client code %q: only lowercase letters, digits and underscores", client)
	}

	dir := w.ClientDir(client)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("client %s already exists", client)
	}
	if err := os.MkdirAll(filepath.Join(dir, requisitionsName), 0o755); err != nil {
		return err
	}

	if info.CreatedAt == "" {
		info.CreatedAt = time.Now().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode client info: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, clientInfoFileName), data, 0o644)
}

// LoadClientInfo reads a client's info file.
func (w *Workspace) LoadClientInfo(client string) (*ClientInfo, error) {
	data, err := os.ReadFile(filepath.Join(w.ClientDir(client), clientInfoFileName))
	if err != nil {
		return nil, fmt.Errorf("read client info: %w", err)
	}
	var info ClientInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse client info: %w", err)
	}
	return &info, nil
}

// InitRequisition creates a requisition's directory skeleton and writes its
// initial config. The client must exist first; an existing requisition is an
// error.
func (w *Workspace) InitRequisition(client, req string, cfg *RequisitionConfig) error {
	if _, err := os.Stat(w.ClientDir(client)); err != nil {
		return fmt.Errorf("client %s not found, initialize it first", client)
	}
	if _, err := os.Stat(w.configPath(client, req)); err == nil {
		return fmt.Errorf("requisition %s/%s already exists", client, req)
	}

	if err := w.EnsureLayout(client, req); err != nil {
		return err
	}
	if cfg.Status == "" {
		cfg.Status = StatusActive
	}
	return w.SaveRequisition(client, req, cfg)
}

func validClientCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
