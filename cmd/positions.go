package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/ats"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Inspect ATS positions",
}

var positionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ATS positions",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()
		config := mustConfig(l)

		status, _ := cmd.Flags().GetString("status")
		companyID, _ := cmd.Flags().GetString("company-id")

		client := newATSClient(context.Background(), config, l)
		positions, err := client.GetPositions(ats.PositionFilters{Status: status, CompanyID: companyID})
		if err != nil {
			l.Fatal("listing positions", zap.Error(err))
		}

		for _, p := range positions {
			l.Info("position",
				zap.String("job_id", p.JobID),
				zap.String("title", p.Title),
				zap.String("status", p.Status),
				zap.String("city", p.City),
				zap.String("state", p.State),
			)
		}
		l.Info("positions listed", zap.Int("count", len(positions)))
	},
}

var positionsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one position and its pipeline candidates",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		l := newLogger()
		config := mustConfig(l)

		client := newATSClient(context.Background(), config, l)
		position, err := client.GetPosition(args[0])
		if err != nil {
			l.Fatal("fetching position", zap.Error(err))
		}
		l.Info("position",
			zap.String("job_id", position.JobID),
			zap.String("title", position.Title),
			zap.String("status", position.Status),
		)

		candidates, err := client.GetPositionCandidates(args[0])
		if err != nil {
			l.Fatal("fetching pipeline candidates", zap.Error(err))
		}
		for _, c := range candidates {
			l.Info("candidate",
				zap.String("candidate_id", c.CandidateID),
				zap.String("name", c.Name()),
				zap.String("pipeline_status", c.PipelineStatus),
			)
		}
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify ATS connectivity and credentials",
	Run: func(_ *cobra.Command, _ []string) {
		l := newLogger()
		config := mustConfig(l)

		client := newATSClient(context.Background(), config, l)
		if err := client.TestConnection(); err != nil {
			l.Fatal("ats unreachable", zap.Error(err))
		}
		l.Info("ats connection ok")
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd, pingCmd)
	positionsCmd.AddCommand(positionsListCmd, positionsShowCmd)

	positionsListCmd.Flags().String("status", "", "filter by position status")
	positionsListCmd.Flags().String("company-id", "", "filter by company id")
}
