package assess

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeClampsScores(t *testing.T) {
	f := DefaultFramework()
	r := &Record{
		Key: "doe_jane",
		Scores: map[string]*CategoryScore{
			"core_experience":        {Score: 30}, // over the max of 25
			"technical_competencies": {Score: -3},
			"communication_skills":   {Score: 15},
			"strategic_acumen":       {Score: 10},
			"job_stability":          {Score: 8},
			"cultural_fit":           {Score: 5},
		},
	}
	r.Finalize(f)

	assert.Equal(t, 25.0, r.Scores["core_experience"].Score)
	assert.Equal(t, 0.0, r.Scores["technical_competencies"].Score)
	assert.Equal(t, 25, r.Scores["core_experience"].Max)
	assert.Equal(t, 63.0, r.TotalScore)
	assert.Equal(t, 100, r.MaxScore)
	assert.Equal(t, 63.0, r.Percentage)
	assert.Equal(t, Conditional, r.Recommendation)
	assert.Equal(t, 3, r.Tier)
}

func TestFinalizeFillsMissingCategories(t *testing.T) {
	f := DefaultFramework()
	r := &Record{Key: "doe_jane", Scores: map[string]*CategoryScore{}}
	r.Finalize(f)

	require.Len(t, r.Scores, len(f.Categories))
	assert.Zero(t, r.TotalScore)
	assert.Equal(t, DoNotRecommend, r.Recommendation)
	assert.Equal(t, 4, r.Tier)
}

func TestRecommendationThresholds(t *testing.T) {
	f := DefaultFramework()
	tests := []struct {
		pct   float64
		label string
		tier  int
	}{
		{100, StrongRecommend, 1},
		{85, StrongRecommend, 1},
		{84.9, Recommend, 2},
		{70, Recommend, 2},
		{69.9, Conditional, 3},
		{55, Conditional, 3},
		{54.9, DoNotRecommend, 4},
		{0, DoNotRecommend, 4},
	}
	for _, tt := range tests {
		label, tier := f.RecommendationFor(tt.pct)
		assert.Equal(t, tt.label, label, "pct %.1f", tt.pct)
		assert.Equal(t, tt.tier, tier, "pct %.1f", tt.pct)
	}
}

func TestPercentageRounding(t *testing.T) {
	f := &Framework{
		Categories: []Category{{Name: "only", Max: 30}},
		Thresholds: Thresholds{Strong: 85, Recommend: 70, Conditional: 55},
	}
	r := &Record{Key: "k", Scores: map[string]*CategoryScore{"only": {Score: 20}}}
	r.Finalize(f)
	// 20/30 = 66.666... rounds to one decimal.
	assert.Equal(t, 66.7, r.Percentage)
}

func TestRecordSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	f := DefaultFramework()

	r := &Record{Key: "doe_jane", Batch: "2026-07-01-10-00-00", Scores: map[string]*CategoryScore{}}
	r.Finalize(f)
	require.NoError(t, r.Save(dir))
	assert.True(t, RecordExists(dir, "doe_jane"))
	assert.FileExists(t, filepath.Join(dir, "doe_jane_assessment.json"))

	other := &Record{Key: "reyes_sam", Batch: "2026-07-02-09-00-00", Scores: map[string]*CategoryScore{}}
	other.Finalize(f)
	require.NoError(t, other.Save(dir))

	all, err := LoadRecords(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := LoadRecords(dir, "2026-07-01-10-00-00")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "doe_jane", filtered[0].Key)
}

func TestLoadRecordsMissingDir(t *testing.T) {
	records, err := LoadRecords(filepath.Join(t.TempDir(), "nope"), "")
	require.NoError(t, err)
	assert.Empty(t, records)
}
