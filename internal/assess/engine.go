package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/batch"
	"github.com/mwhite-hr/reqflow/internal/identity"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

// Scorer produces category scores for a resume. Implementations are external
// services; the engine owns validation and never trusts the response shape.
type Scorer interface {
	Score(ctx context.Context, prompt string) (string, error)
}

// ValidationError reports a scorer response that stayed malformed after the
// corrective retry. Fatal for that candidate only.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "assess: invalid scorer response: " + e.Msg
}

// scorerResponse is the JSON shape the scorer is instructed to return. The
// recommendation is validated but never stored: the record's label is derived
// from thresholds only.
type scorerResponse struct {
	Categories map[string]struct {
		Score    float64 `json:"score"`
		Evidence string  `json:"evidence"`
	} `json:"categories"`
	Recommendation string `json:"recommendation"`
	Summary        string `json:"summary"`
}

// Runner assesses a requisition's extracted resumes. A nil scorer degrades to
// heuristic-only records marked Pending.
type Runner struct {
	ws     *workspace.Workspace
	scorer Scorer
	logger *zap.Logger
	now    func() time.Time
}

func NewRunner(ws *workspace.Workspace, scorer Scorer, logger *zap.Logger) *Runner {
	return &Runner{ws: ws, scorer: scorer, logger: logger, now: time.Now}
}

// Stats summarizes an assessment run over multiple candidates.
type Stats struct {
	Total    int
	Assessed int
	Skipped  int
	Errors   int
}

// AssessKey assesses a single candidate by normalized key, overwriting any
// existing record.
func (r *Runner) AssessKey(ctx context.Context, client, req, key string) (*Record, error) {
	store := batch.NewStore(r.ws.BatchesDir(client, req), r.logger)
	resumes, err := store.ListExtracted()
	if err != nil {
		return nil, err
	}
	var target *batch.Resume
	for _, res := range resumes {
		if res.Key == key {
			target = res
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("no extracted resume for %s", key)
	}

	framework, err := LoadFramework(r.ws.FrameworkFile(client, req))
	if err != nil {
		return nil, err
	}
	return r.assessOne(ctx, client, req, framework, target)
}

// AssessBatch assesses every extracted resume attributed to one batch,
// skipping candidates that already have a record. Per-candidate failures are
// tallied and do not abort the rest.
func (r *Runner) AssessBatch(ctx context.Context, client, req, batchName string) (*Stats, error) {
	stats, err := r.assessWhere(ctx, client, req, func(res *batch.Resume) bool {
		return res.Batch == batchName
	})
	if err != nil {
		return nil, err
	}

	store := batch.NewStore(r.ws.BatchesDir(client, req), r.logger)
	if b, err := store.Get(batchName); err == nil {
		if err := b.MarkAssessed(stats.Assessed); err != nil {
			r.logger.Warn("marking batch assessed", zap.Error(err))
		}
	}
	return stats, nil
}

// AssessAllPending assesses every extracted resume that has no record yet.
func (r *Runner) AssessAllPending(ctx context.Context, client, req string) (*Stats, error) {
	return r.assessWhere(ctx, client, req, func(*batch.Resume) bool { return true })
}

func (r *Runner) assessWhere(ctx context.Context, client, req string, include func(*batch.Resume) bool) (*Stats, error) {
	store := batch.NewStore(r.ws.BatchesDir(client, req), r.logger)
	resumes, err := store.ListExtracted()
	if err != nil {
		return nil, err
	}

	framework, err := LoadFramework(r.ws.FrameworkFile(client, req))
	if err != nil {
		return nil, err
	}

	assessDir := r.ws.AssessmentsDir(client, req)
	stats := &Stats{}
	for _, res := range resumes {
		if !include(res) {
			continue
		}
		stats.Total++

		if RecordExists(assessDir, res.Key) {
			stats.Skipped++
			continue
		}

		if _, err := r.assessOne(ctx, client, req, framework, res); err != nil {
			r.logger.Warn("assessment failed",
				zap.String("key", res.Key),
				zap.Error(err),
			)
			stats.Errors++
			continue
		}
		stats.Assessed++
	}
	return stats, nil
}

func (r *Runner) assessOne(ctx context.Context, client, req string, framework *Framework, res *batch.Resume) (*Record, error) {
	text, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, err
	}

	record := &Record{
		Key:        res.Key,
		Name:       identity.DisplayName(res.Key),
		Batch:      res.Batch,
		AssessedAt: r.now().Format(time.RFC3339),
		Scores:     map[string]*CategoryScore{},
	}

	var scorerLabel string
	if r.scorer != nil {
		resp, err := r.score(ctx, framework, string(text))
		if err != nil {
			return nil, err
		}
		for name, cs := range resp.Categories {
			if framework.Category(name) == nil {
				continue
			}
			record.Scores[name] = &CategoryScore{Score: cs.Score, Evidence: cs.Evidence}
		}
		scorerLabel = resp.Recommendation
		record.Summary = resp.Summary
	}

	// The stability category is always ours, whatever the scorer said.
	if c := framework.Category(StabilityCategory); c != nil {
		score, risk := StabilityScore(string(text), c.Max)
		record.Scores[StabilityCategory] = &CategoryScore{
			Score:    score,
			Evidence: "tenure heuristic, risk " + risk,
		}
		record.StabilityRisk = risk
	}

	record.Finalize(framework)
	if r.scorer == nil {
		record.Recommendation = Pending
		record.Tier = 0
	}
	if scorerLabel != "" && scorerLabel != record.Recommendation {
		r.logger.Debug("scorer recommendation overridden by thresholds",
			zap.String("key", res.Key),
			zap.String("scorer", scorerLabel),
			zap.String("derived", record.Recommendation),
		)
	}

	if err := record.Save(r.ws.AssessmentsDir(client, req)); err != nil {
		return nil, err
	}

	r.logger.Info("assessed candidate",
		zap.String("key", res.Key),
		zap.Float64("percentage", record.Percentage),
		zap.String("recommendation", record.Recommendation),
	)
	return record, nil
}

// score calls the scorer and validates the response, issuing one corrective
// retry on a malformed reply before giving up on the candidate.
func (r *Runner) score(ctx context.Context, framework *Framework, resume string) (*scorerResponse, error) {
	prompt := buildPrompt(framework, resume)

	raw, err := r.scorer.Score(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, verr := parseResponse(framework, raw)
	if verr == nil {
		return resp, nil
	}

	r.logger.Debug("retrying with corrective prompt", zap.Error(verr))
	raw, err = r.scorer.Score(ctx, prompt+correctiveSuffix(verr))
	if err != nil {
		return nil, err
	}
	return parseResponse(framework, raw)
}

func parseResponse(framework *Framework, raw string) (*scorerResponse, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, &ValidationError{Msg: "empty response"}
	}

	var resp scorerResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	for _, c := range framework.Categories {
		if c.Name == StabilityCategory {
			continue
		}
		if _, ok := resp.Categories[c.Name]; !ok {
			return nil, &ValidationError{Msg: "missing category " + c.Name}
		}
	}

	switch resp.Recommendation {
	case StrongRecommend, Recommend, Conditional, DoNotRecommend:
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("unrecognized recommendation %q", resp.Recommendation)}
	}
	return &resp, nil
}

// stripCodeFences unwraps a ```json ... ``` block, a habit scorers fall into
// no matter how the prompt is worded.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func correctiveSuffix(verr error) string {
	return "\n\nYour previous reply was not usable: " + verr.Error() +
		". Reply with the JSON object only, no prose and no code fences."
}

func buildPrompt(framework *Framework, resume string) string {
	var b strings.Builder
	b.WriteString("You are screening a resume for a recruitment pipeline. ")
	b.WriteString("Score the candidate in each category below. Reply with a single JSON object of the form ")
	b.WriteString(`{"categories": {"<name>": {"score": <number>, "evidence": "<short quote or fact>"}}, "recommendation": "<label>", "summary": "<2-3 sentences>"}`)
	b.WriteString(" where <label> is one of STRONG RECOMMEND, RECOMMEND, CONDITIONAL or DO NOT RECOMMEND, and nothing else.\n\nCategories:\n")
	for _, c := range framework.Categories {
		if c.Name == StabilityCategory {
			continue
		}
		fmt.Fprintf(&b, "- %s (0-%d): %s\n", c.Name, c.Max, c.Description)
	}
	b.WriteString("\nResume:\n")
	b.WriteString(resume)
	return b.String()
}
