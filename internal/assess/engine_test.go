package assess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/batch"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// stubScorer replays canned responses in order.
type stubScorer struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (s *stubScorer) Score(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("no canned response")
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

const goodResponse = `{
  "categories": {
    "core_experience": {"score": 20, "evidence": "8 years in payroll"},
    "technical_competencies": {"score": 15, "evidence": "Workday, ADP"},
    "communication_skills": {"score": 16, "evidence": "led client briefings"},
    "strategic_acumen": {"score": 12, "evidence": "owned vendor strategy"},
    "cultural_fit": {"score": 8, "evidence": "startup background"}
  },
  "recommendation": "STRONG RECOMMEND",
  "summary": "Solid payroll lead."
}`

func newTestRunner(t *testing.T, scorer Scorer) (*Runner, *workspace.Workspace) {
	t.Helper()

	ws := workspace.New(t.TempDir(), zap.NewNop())
	require.NoError(t, ws.EnsureLayout("acme", "REQ-1"))
	require.NoError(t, ws.SaveRequisition("acme", "REQ-1", &workspace.RequisitionConfig{Status: "active"}))

	return NewRunner(ws, scorer, zap.NewNop()), ws
}

func seedResume(t *testing.T, ws *workspace.Workspace, key, text string) string {
	t.Helper()

	store := batch.NewStore(ws.BatchesDir("acme", "REQ-1"), zap.NewNop())
	b, err := store.Create("manual")
	require.NoError(t, err)
	path := filepath.Join(b.ExtractedDir(), key+"_resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return b.Name
}

func TestAssessKey(t *testing.T) {
	scorer := &stubScorer{responses: []string{goodResponse}}
	r, ws := newTestRunner(t, scorer)
	batchName := seedResume(t, ws, "doe_jane", "Jane has 8 years in payroll operations.")

	record, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)

	assert.Equal(t, "doe_jane", record.Key)
	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, batchName, record.Batch)
	// 20+15+16+12+8 from the scorer plus the local stability 8. The scorer's
	// own "STRONG RECOMMEND" is discarded; 79% derives to RECOMMEND.
	assert.Equal(t, 79.0, record.TotalScore)
	assert.Equal(t, 79.0, record.Percentage)
	assert.Equal(t, Recommend, record.Recommendation)
	assert.Equal(t, 2, record.Tier)
	assert.Equal(t, RiskLowMedium, record.StabilityRisk)
	assert.True(t, RecordExists(ws.AssessmentsDir("acme", "REQ-1"), "doe_jane"))
}

func TestAssessStabilityAlwaysLocal(t *testing.T) {
	// The scorer tries to score job_stability itself; the heuristic wins.
	response := `{"categories": {
		"core_experience": {"score": 10}, "technical_competencies": {"score": 10},
		"communication_skills": {"score": 10}, "strategic_acumen": {"score": 10},
		"cultural_fit": {"score": 5}, "job_stability": {"score": 10, "evidence": "made up"}
	}, "recommendation": "CONDITIONAL"}`
	scorer := &stubScorer{responses: []string{response}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "3 years as an analyst")

	record, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)
	assert.Equal(t, 6.0, record.Scores[StabilityCategory].Score)
	assert.Equal(t, RiskMedium, record.StabilityRisk)
}

func TestAssessRetriesOnceOnMalformedResponse(t *testing.T) {
	scorer := &stubScorer{responses: []string{"here are my thoughts...", goodResponse}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "resume text")

	_, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)
	assert.Equal(t, 2, scorer.calls)
	assert.Contains(t, scorer.prompts[1], "previous reply was not usable")
}

func TestAssessRetriesOnMissingRecommendation(t *testing.T) {
	// Structurally valid categories but no recommendation label: the
	// corrective retry must fire, then the good response lands.
	noLabel := `{"categories": {
		"core_experience": {"score": 20}, "technical_competencies": {"score": 15},
		"communication_skills": {"score": 16}, "strategic_acumen": {"score": 12},
		"cultural_fit": {"score": 8}
	}}`
	scorer := &stubScorer{responses: []string{noLabel, goodResponse}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "resume text")

	_, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)
	assert.Equal(t, 2, scorer.calls)
	assert.Contains(t, scorer.prompts[1], "unrecognized recommendation")
}

func TestAssessRejectsUnknownRecommendationLabel(t *testing.T) {
	bad := `{"categories": {
		"core_experience": {"score": 20}, "technical_competencies": {"score": 15},
		"communication_skills": {"score": 16}, "strategic_acumen": {"score": 12},
		"cultural_fit": {"score": 8}
	}, "recommendation": "MAYBE"}`
	scorer := &stubScorer{responses: []string{bad}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "resume text")

	_, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "MAYBE")
	assert.Equal(t, 2, scorer.calls, "one corrective retry, then fail")
}

func TestAssessFailsAfterSecondMalformedResponse(t *testing.T) {
	scorer := &stubScorer{responses: []string{"nope", "still nope"}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "resume text")

	_, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, scorer.calls)
}

func TestAssessStripsCodeFences(t *testing.T) {
	scorer := &stubScorer{responses: []string{"```json\n" + goodResponse + "\n```"}}
	r, ws := newTestRunner(t, scorer)
	seedResume(t, ws, "doe_jane", "resume text")

	record, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)
	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, 20.0, record.Scores["core_experience"].Score)
}

func TestAssessNilScorerHeuristicOnly(t *testing.T) {
	r, ws := newTestRunner(t, nil)
	seedResume(t, ws, "doe_jane", "over 10 years in payroll")

	record, err := r.AssessKey(context.Background(), "acme", "REQ-1", "doe_jane")
	require.NoError(t, err)
	assert.Equal(t, Pending, record.Recommendation)
	assert.Zero(t, record.Tier)
	assert.Equal(t, 10.0, record.Scores[StabilityCategory].Score)
}

func TestAssessBatchSkipsExistingAndTallies(t *testing.T) {
	scorer := &stubScorer{responses: []string{goodResponse}}
	r, ws := newTestRunner(t, scorer)

	store := batch.NewStore(ws.BatchesDir("acme", "REQ-1"), zap.NewNop())
	b, err := store.Create("manual")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(b.ExtractedDir(), "doe_jane_resume.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b.ExtractedDir(), "reyes_sam_resume.txt"), []byte("text"), 0o644))

	// Sam is already assessed.
	existing := &Record{Key: "reyes_sam", Scores: map[string]*CategoryScore{}}
	existing.Finalize(DefaultFramework())
	require.NoError(t, existing.Save(ws.AssessmentsDir("acme", "REQ-1")))

	stats, err := r.AssessBatch(context.Background(), "acme", "REQ-1", b.Name)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Assessed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Errors)

	m, err := b.Manifest()
	require.NoError(t, err)
	assert.Equal(t, batch.StatusAssessed, m.Status)
	assert.Equal(t, 1, m.AssessedCount)
}

func TestAssessBatchPerCandidateFailure(t *testing.T) {
	// First candidate gets garbage twice, second gets a good response.
	scorer := &stubScorer{responses: []string{"junk", "junk", goodResponse}}
	r, ws := newTestRunner(t, scorer)

	store := batch.NewStore(ws.BatchesDir("acme", "REQ-1"), zap.NewNop())
	b, err := store.Create("manual")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(b.ExtractedDir(), "doe_jane_resume.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b.ExtractedDir(), "reyes_sam_resume.txt"), []byte("text"), 0o644))

	stats, err := r.AssessBatch(context.Background(), "acme", "REQ-1", b.Name)
	require.NoError(t, err, "one failing candidate must not abort the batch")
	assert.Equal(t, 1, stats.Assessed)
	assert.Equal(t, 1, stats.Errors)
}

func TestLoadFrameworkCustomFile(t *testing.T) {
	r, ws := newTestRunner(t, nil)
	_ = r

	custom := `categories:
  - name: core_experience
    max_score: 50
  - name: job_stability
    max_score: 50
thresholds:
  strong: 90
  recommend: 75
  conditional: 60
`
	require.NoError(t, os.WriteFile(ws.FrameworkFile("acme", "REQ-1"), []byte(custom), 0o644))

	f, err := LoadFramework(ws.FrameworkFile("acme", "REQ-1"))
	require.NoError(t, err)
	assert.Equal(t, 100, f.MaxScore())
	assert.Equal(t, 90.0, f.Thresholds.Strong)

	label, _ := f.RecommendationFor(89.9)
	assert.Equal(t, Recommend, label)
}

func TestLoadFrameworkMissingFileUsesDefault(t *testing.T) {
	f, err := LoadFramework(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, f.MaxScore())
	assert.Equal(t, 85.0, f.Thresholds.Strong)
}
