// Package batch manages a requisition's resume batches: one directory per
// intake event, holding the files as received (originals/) and the extracted
// plain-text resume bodies (extracted/), plus a yaml manifest. Batches are
// append-only and never merged.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/identity"
)

const (
	originalsDirName = "originals"
	extractedDirName = "extracted"
	// batchNameLayout gives second resolution; same-second collisions get a
	// numeric suffix so names stay unique and sortable by creation time.
	batchNameLayout = "2006-01-02-15-04-05"

	extractedSuffix = "_resume.txt"
)

// Which selects the file class FindResume searches.
type Which string

const (
	Originals Which = "originals"
	Extracted Which = "extracted"
)

// Store manages the batch directories of one requisition.
type Store struct {
	// Dir is the requisition's batches directory.
	Dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{Dir: dir, logger: logger, now: time.Now}
}

// Create makes a new batch directory with originals/ and extracted/ and an
// initial manifest. Names are derived from the creation time; a second call
// within the same clock second yields -02, -03 and so on. The suffix is
// zero-padded so lexical order stays creation order past nine collisions.
func (s *Store) Create(source string) (*Batch, error) {
	base := s.now().Format(batchNameLayout)
	name := base
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(s.Dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s-%02d", base, i)
	}

	dir := filepath.Join(s.Dir, name)
	for _, sub := range []string{originalsDirName, extractedDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create batch %s: %w", name, err)
		}
	}

	b := &Batch{Name: name, Dir: dir}
	m := &Manifest{
		BatchName: name,
		CreatedAt: s.now().Format(time.RFC3339),
		Source:    source,
		Status:    StatusCreated,
	}
	if err := b.saveManifest(m); err != nil {
		return nil, err
	}

	s.logger.Debug("created batch", zap.String("batch", name), zap.String("source", source))
	return b, nil
}

// List returns the requisition's batches in name order, which is creation
// order. Directories without a manifest are still listed; their manifest
// fields are zero.
func (s *Store) List() ([]*Batch, error) {
	entries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var batches []*Batch
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		batches = append(batches, &Batch{Name: e.Name(), Dir: filepath.Join(s.Dir, e.Name())})
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Name < batches[j].Name })
	return batches, nil
}

// Get returns a batch by name.
func (s *Store) Get(name string) (*Batch, error) {
	dir := filepath.Join(s.Dir, name)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("batch %s: not a directory", name)
	}
	return &Batch{Name: name, Dir: dir}, nil
}

// Resume is one extracted resume attributed to a candidate key.
type Resume struct {
	Key   string
	Path  string
	Batch string
}

// ListExtracted merges extracted/ across every batch in name order,
// deduplicating by normalized key. The earliest batch wins for a key; later
// copies are ignored. This makes the oldest extraction authoritative, which
// is a policy, not an accident of iteration order.
func (s *Store) ListExtracted() ([]*Resume, error) {
	batches, err := s.List()
	if err != nil {
		return nil, err
	}

	var resumes []*Resume
	seen := map[string]struct{}{}
	for _, b := range batches {
		entries, err := os.ReadDir(b.ExtractedDir())
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			key := keyFromExtracted(e.Name())
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			resumes = append(resumes, &Resume{
				Key:   key,
				Path:  filepath.Join(b.ExtractedDir(), e.Name()),
				Batch: b.Name,
			})
		}
	}
	return resumes, nil
}

// FindResume locates a candidate's file by normalized key, scanning batches
// in name order. Returns "" when nothing matches.
func (s *Store) FindResume(key string, which Which) (string, error) {
	batches, err := s.List()
	if err != nil {
		return "", err
	}

	for _, b := range batches {
		dir := b.OriginalsDir()
		if which == Extracted {
			dir = b.ExtractedDir()
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			var got string
			if which == Extracted {
				got = keyFromExtracted(e.Name())
			} else {
				got = identity.FromFilename(e.Name())
			}
			if got == key {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", nil
}

// ImportFiles copies external files into a fresh batch's originals/,
// recording each in the manifest. Used by manual intake.
func (s *Store) ImportFiles(source string, paths []string) (*Batch, error) {
	b, err := s.Create(source)
	if err != nil {
		return nil, err
	}

	m, err := b.Manifest()
	if err != nil {
		return nil, err
	}

	for _, src := range paths {
		if err := copyFile(src, filepath.Join(b.OriginalsDir(), filepath.Base(src))); err != nil {
			return nil, fmt.Errorf("import %s: %w", src, err)
		}
		m.SourceFiles = append(m.SourceFiles, filepath.Base(src))
	}
	m.FileCount = len(m.SourceFiles)

	if err := b.saveManifest(m); err != nil {
		return nil, err
	}
	return b, nil
}

// keyFromExtracted recovers the candidate key from an extracted file name.
// The canonical form is <key>_resume.txt; anything else is normalized from
// the whole filename.
func keyFromExtracted(name string) string {
	if strings.HasSuffix(name, extractedSuffix) {
		return identity.Normalize(strings.TrimSuffix(name, extractedSuffix))
	}
	return identity.FromFilename(name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
