// Package assess scores extracted resumes against a per-requisition
// assessment framework. Category scores come from an external scorer; job
// stability is always computed locally so a single deterministic signal
// survives even a fully hallucinated response.
package assess

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category names the default framework uses. job_stability is special-cased:
// its score is produced by the local heuristic, never by the scorer.
const StabilityCategory = "job_stability"

type Category struct {
	Name        string `yaml:"name" json:"name"`
	Max         int    `yaml:"max_score" json:"max_score"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Thresholds are the ordered percentage cut-offs for the four recommendation
// tiers. Strong > Recommend > Conditional must hold.
type Thresholds struct {
	Strong      float64 `yaml:"strong" json:"strong"`
	Recommend   float64 `yaml:"recommend" json:"recommend"`
	Conditional float64 `yaml:"conditional" json:"conditional"`
}

type Framework struct {
	Categories []Category `yaml:"categories" json:"categories"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// DefaultFramework is the built-in scoring model, used whenever a requisition
// does not carry its own framework_config.yaml.
func DefaultFramework() *Framework {
	return &Framework{
		Categories: []Category{
			{Name: "core_experience", Max: 25, Description: "depth and relevance of directly applicable experience"},
			{Name: "technical_competencies", Max: 20, Description: "mastery of the role's required skills and tools"},
			{Name: "communication_skills", Max: 20, Description: "written clarity, presentation and stakeholder evidence"},
			{Name: "strategic_acumen", Max: 15, Description: "scope of ownership, planning and business judgment"},
			{Name: StabilityCategory, Max: 10, Description: "tenure pattern across positions"},
			{Name: "cultural_fit", Max: 10, Description: "alignment signals with the client environment"},
		},
		Thresholds: Thresholds{Strong: 85, Recommend: 70, Conditional: 55},
	}
}

// LoadFramework reads a requisition's framework file, falling back to the
// default when the file does not exist.
func LoadFramework(path string) (*Framework, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultFramework(), nil
	}
	if err != nil {
		return nil, err
	}

	var f Framework
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse framework: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("framework %s defines no categories", path)
	}
	if f.Thresholds == (Thresholds{}) {
		f.Thresholds = DefaultFramework().Thresholds
	}
	return &f, nil
}

// MaxScore is the sum of category maxima.
func (f *Framework) MaxScore() int {
	total := 0
	for _, c := range f.Categories {
		total += c.Max
	}
	return total
}

// Category returns the named category, or nil.
func (f *Framework) Category(name string) *Category {
	for i := range f.Categories {
		if f.Categories[i].Name == name {
			return &f.Categories[i]
		}
	}
	return nil
}
