package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const manifestFileName = "batch_manifest.yaml"

// Batch statuses. A batch moves forward only; there is no un-assess.
const (
	StatusCreated  = "created"
	StatusAssessed = "assessed"
)

type Batch struct {
	Name string
	Dir  string
}

func (b *Batch) OriginalsDir() string { return filepath.Join(b.Dir, originalsDirName) }
func (b *Batch) ExtractedDir() string { return filepath.Join(b.Dir, extractedDirName) }

// Manifest describes one batch. Stored as batch_manifest.yaml inside the
// batch directory.
type Manifest struct {
	BatchName     string   `yaml:"batch_name"`
	CreatedAt     string   `yaml:"created_at"`
	Source        string   `yaml:"source"`
	FileCount     int      `yaml:"file_count"`
	SourceFiles   []string `yaml:"source_files,omitempty"`
	Status        string   `yaml:"status"`
	AssessedCount int      `yaml:"assessed_count,omitempty"`
}

// Manifest loads the batch's manifest. A missing manifest yields a zero
// manifest carrying only the batch name.
func (b *Batch) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(b.Dir, manifestFileName))
	if os.IsNotExist(err) {
		return &Manifest{BatchName: b.Name, Status: StatusCreated}, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest of %s: %w", b.Name, err)
	}
	return &m, nil
}

func (b *Batch) saveManifest(m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.Dir, manifestFileName), data, 0o644)
}

// MarkAssessed records that n candidates of this batch have been assessed and
// flips the status.
func (b *Batch) MarkAssessed(n int) error {
	m, err := b.Manifest()
	if err != nil {
		return err
	}
	m.Status = StatusAssessed
	m.AssessedCount = n
	return b.saveManifest(m)
}

// AddSourceFile records a file landed in originals/ after batch creation.
func (b *Batch) AddSourceFile(name string) error {
	m, err := b.Manifest()
	if err != nil {
		return err
	}
	m.SourceFiles = append(m.SourceFiles, name)
	m.FileCount = len(m.SourceFiles)
	return b.saveManifest(m)
}
