package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/assess"
	"github.com/mwhite-hr/reqflow/internal/assess/gemini"
	"github.com/mwhite-hr/reqflow/internal/secrets"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score extracted resumes against the requisition's framework",
	Run: func(cmd *cobra.Command, _ []string) {
		runAssess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringP("client", "c", "", "client code")
	assessCmd.Flags().StringP("req", "r", "", "requisition id")
	assessCmd.Flags().String("key", "", "assess a single candidate by normalized key")
	assessCmd.Flags().String("batch", "", "assess one batch")
	assessCmd.Flags().Bool("all-pending", false, "assess every resume without a record")
	assessCmd.MarkFlagRequired("client")
	assessCmd.MarkFlagRequired("req")
}

func runAssess(cmd *cobra.Command) {
	l := newLogger()
	config := mustConfig(l)
	ctx := context.Background()

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")
	key, _ := cmd.Flags().GetString("key")
	batchName, _ := cmd.Flags().GetString("batch")
	allPending, _ := cmd.Flags().GetBool("all-pending")

	if key == "" && batchName == "" && !allPending {
		l.Fatal("one of --key, --batch or --all-pending is required")
	}

	ws := newWorkspace(config, l)
	scorer := newScorer(ctx, config, l)

	lock := lockRequisition(ws, client, req, l)
	defer lock.Release()

	runner := assess.NewRunner(ws, scorer, l)

	switch {
	case key != "":
		record, err := runner.AssessKey(ctx, client, req, key)
		if err != nil {
			fatalUnlock(lock, l, "assessment failed", zap.Error(err))
		}
		l.Info("assessment complete",
			zap.String("key", record.Key),
			zap.Float64("percentage", record.Percentage),
			zap.String("recommendation", record.Recommendation),
		)
	case batchName != "":
		stats, err := runner.AssessBatch(ctx, client, req, batchName)
		if err != nil {
			fatalUnlock(lock, l, "batch assessment failed", zap.Error(err))
		}
		logAssessStats(l, stats)
	default:
		stats, err := runner.AssessAllPending(ctx, client, req)
		if err != nil {
			fatalUnlock(lock, l, "assessment failed", zap.Error(err))
		}
		logAssessStats(l, stats)
	}
}

// newScorer builds the Gemini scorer when an api key is configured. Without
// one, assessments degrade to the local heuristic and Pending records.
func newScorer(ctx context.Context, config *Config, l *zap.Logger) assess.Scorer {
	if config.Gemini == nil {
		l.Warn("no gemini configuration, producing heuristic-only records")
		return nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		l.Warn("no gemini api key, producing heuristic-only records", zap.Error(err))
		return nil
	}

	scorer, err := gemini.New(ctx, apiKey, config.Gemini.Model, l)
	if err != nil {
		l.Fatal("creating gemini scorer", zap.Error(err))
	}
	return scorer
}

func logAssessStats(l *zap.Logger, stats *assess.Stats) {
	l.Info("assessment summary",
		zap.Int("total", stats.Total),
		zap.Int("assessed", stats.Assessed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
}
