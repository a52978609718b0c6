package assess

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Recommendation labels, strongest first. Tier numbers follow the same order.
const (
	StrongRecommend = "STRONG RECOMMEND"
	Recommend       = "RECOMMEND"
	Conditional     = "CONDITIONAL"
	DoNotRecommend  = "DO NOT RECOMMEND"
	// Pending marks a heuristic-only record produced without a scorer.
	Pending = "PENDING"
)

const recordSuffix = "_assessment.json"

type CategoryScore struct {
	Score    float64 `json:"score"`
	Max      int     `json:"max"`
	Evidence string  `json:"evidence,omitempty"`
}

// Record is one candidate's assessment for one requisition. Overwritten by
// re-assessment; there is no versioning.
type Record struct {
	Key            string                    `json:"key"`
	Name           string                    `json:"name,omitempty"`
	Batch          string                    `json:"batch,omitempty"`
	AssessedAt     string                    `json:"assessed_at"`
	Scores         map[string]*CategoryScore `json:"scores"`
	TotalScore     float64                   `json:"total_score"`
	MaxScore       int                       `json:"max_score"`
	Percentage     float64                   `json:"percentage"`
	Recommendation string                    `json:"recommendation"`
	Tier           int                       `json:"recommendation_tier"`
	StabilityRisk  string                    `json:"stability_risk,omitempty"`
	Summary        string                    `json:"summary,omitempty"`
}

// RecommendationFor maps a percentage onto a label and tier using the
// framework's thresholds. A percentage exactly on a threshold takes the
// stronger label; 84.9 against a Strong threshold of 85 stays at Recommend.
func (f *Framework) RecommendationFor(percentage float64) (string, int) {
	switch {
	case percentage >= f.Thresholds.Strong:
		return StrongRecommend, 1
	case percentage >= f.Thresholds.Recommend:
		return Recommend, 2
	case percentage >= f.Thresholds.Conditional:
		return Conditional, 3
	default:
		return DoNotRecommend, 4
	}
}

// Finalize clamps every category score into [0, max], recomputes the totals
// and derives the recommendation. Scorers occasionally over-score a category;
// clamping keeps the invariant without failing the candidate.
func (r *Record) Finalize(f *Framework) {
	var total float64
	for _, c := range f.Categories {
		cs, ok := r.Scores[c.Name]
		if !ok {
			cs = &CategoryScore{}
			r.Scores[c.Name] = cs
		}
		cs.Max = c.Max
		cs.Score = math.Max(0, math.Min(cs.Score, float64(c.Max)))
		total += cs.Score
	}

	r.TotalScore = round1(total)
	r.MaxScore = f.MaxScore()
	if r.MaxScore > 0 {
		r.Percentage = round1(total / float64(r.MaxScore) * 100)
	}
	r.Recommendation, r.Tier = f.RecommendationFor(r.Percentage)
}

// Save writes the record atomically as <key>_assessment.json under dir.
func (r *Record) Save(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, r.Key+recordSuffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// RecordExists reports whether a candidate already has an assessment on disk.
func RecordExists(dir, key string) bool {
	_, err := os.Stat(filepath.Join(dir, key+recordSuffix))
	return err == nil
}

// LoadRecords reads every assessment record under dir, optionally filtered to
// one batch name.
func LoadRecords(dir, batchFilter string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse record %s: %w", e.Name(), err)
		}
		if batchFilter != "" && r.Batch != batchFilter {
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
