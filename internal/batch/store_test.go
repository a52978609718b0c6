package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zap.NewNop())
}

func writeExtracted(t *testing.T, b *Batch, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(b.ExtractedDir(), name), []byte(content), 0o644))
}

func TestCreateBatch(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 7, 1, 10, 30, 5, 0, time.UTC) }

	b, err := s.Create("ats_download")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-01-10-30-05", b.Name)
	assert.DirExists(t, b.OriginalsDir())
	assert.DirExists(t, b.ExtractedDir())

	m, err := b.Manifest()
	require.NoError(t, err)
	assert.Equal(t, "ats_download", m.Source)
	assert.Equal(t, StatusCreated, m.Status)
}

func TestCreateBatchSameSecond(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 7, 1, 10, 30, 5, 0, time.UTC) }

	b1, err := s.Create("manual")
	require.NoError(t, err)
	b2, err := s.Create("manual")
	require.NoError(t, err)
	b3, err := s.Create("manual")
	require.NoError(t, err)

	assert.Equal(t, "2026-07-01-10-30-05", b1.Name)
	assert.Equal(t, "2026-07-01-10-30-05-02", b2.Name)
	assert.Equal(t, "2026-07-01-10-30-05-03", b3.Name)
}

func TestCreateBatchManyCollisionsSortInCreationOrder(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 7, 1, 10, 30, 5, 0, time.UTC) }

	var created []string
	for i := 0; i < 12; i++ {
		b, err := s.Create("manual")
		require.NoError(t, err)
		created = append(created, b.Name)
	}

	batches, err := s.List()
	require.NoError(t, err)
	require.Len(t, batches, 12)
	for i, b := range batches {
		assert.Equal(t, created[i], b.Name, "position %d", i)
	}
}

func TestListOrder(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"2026-07-02-09-00-00", "2026-07-01-10-30-05", "2026-07-01-10-30-05-02"} {
		require.NoError(t, os.MkdirAll(filepath.Join(s.Dir, name, "extracted"), 0o755))
	}

	batches, err := s.List()
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "2026-07-01-10-30-05", batches[0].Name)
	assert.Equal(t, "2026-07-01-10-30-05-02", batches[1].Name)
	assert.Equal(t, "2026-07-02-09-00-00", batches[2].Name)
}

func TestListExtractedFirstWins(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	early, err := s.Create("manual")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	late, err := s.Create("manual")
	require.NoError(t, err)

	writeExtracted(t, early, "doe_jane_resume.txt", "early jane")
	writeExtracted(t, late, "doe_jane_resume.txt", "late jane")
	writeExtracted(t, late, "reyes_sam_resume.txt", "sam")

	resumes, err := s.ListExtracted()
	require.NoError(t, err)
	require.Len(t, resumes, 2)

	byKey := map[string]*Resume{}
	for _, r := range resumes {
		byKey[r.Key] = r
	}
	require.Contains(t, byKey, "doe_jane")
	assert.Equal(t, early.Name, byKey["doe_jane"].Batch)
	data, err := os.ReadFile(byKey["doe_jane"].Path)
	require.NoError(t, err)
	assert.Equal(t, "early jane", string(data))
	assert.Equal(t, late.Name, byKey["reyes_sam"].Batch)
}

func TestFindResume(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Create("manual")
	require.NoError(t, err)

	writeExtracted(t, b, "doe_jane_resume.txt", "text")
	require.NoError(t, os.WriteFile(filepath.Join(b.OriginalsDir(), "Jane Doe Resume.pdf"), []byte("pdf"), 0o644))

	path, err := s.FindResume("doe_jane", Extracted)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(b.ExtractedDir(), "doe_jane_resume.txt"), path)

	path, err = s.FindResume("doe_jane", Originals)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(b.OriginalsDir(), "Jane Doe Resume.pdf"), path)

	path, err = s.FindResume("nobody_here", Extracted)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestImportFiles(t *testing.T) {
	s := newTestStore(t)
	src := t.TempDir()
	f1 := filepath.Join(src, "Jane Doe Resume.pdf")
	f2 := filepath.Join(src, "sam_reyes_cv.docx")
	require.NoError(t, os.WriteFile(f1, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("two"), 0o644))

	b, err := s.ImportFiles("manual_upload", []string{f1, f2})
	require.NoError(t, err)

	m, err := b.Manifest()
	require.NoError(t, err)
	assert.Equal(t, 2, m.FileCount)
	assert.Equal(t, []string{"Jane Doe Resume.pdf", "sam_reyes_cv.docx"}, m.SourceFiles)
	assert.FileExists(t, filepath.Join(b.OriginalsDir(), "Jane Doe Resume.pdf"))
}

func TestMarkAssessed(t *testing.T) {
	s := newTestStore(t)
	b, err := s.Create("manual")
	require.NoError(t, err)

	require.NoError(t, b.MarkAssessed(7))

	m, err := b.Manifest()
	require.NoError(t, err)
	assert.Equal(t, StatusAssessed, m.Status)
	assert.Equal(t, 7, m.AssessedCount)
}
