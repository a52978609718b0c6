package cmd

import (
	"context"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/pushback"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push assessment results back to the ATS",
	Run: func(cmd *cobra.Command, _ []string) {
		runPush(cmd)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringP("client", "c", "", "client code")
	pushCmd.Flags().StringP("req", "r", "", "requisition id")
	pushCmd.Flags().Bool("dry-run", false, "resolve candidates without writing to the ATS")
	pushCmd.Flags().String("batch", "", "restrict to records from one batch")
	pushCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	pushCmd.MarkFlagRequired("client")
	pushCmd.MarkFlagRequired("req")
}

func runPush(cmd *cobra.Command) {
	l := newLogger()
	config := mustConfig(l)

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	batchFilter, _ := cmd.Flags().GetString("batch")
	yes, _ := cmd.Flags().GetBool("yes")

	// A live push writes notes and pipeline statuses a recruiter will see.
	if !dryRun && !yes {
		prompt := promptui.Select{
			Label: "Push assessment results to the ATS?",
			Items: []string{"Yes", "No"},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			l.Fatal("exiting", zap.Error(err))
		}
		if answer != "Yes" {
			l.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	ws := newWorkspace(config, l)
	atsClient := newATSClient(context.Background(), config, l)

	lock := lockRequisition(ws, client, req, l)
	defer lock.Release()

	pusher := pushback.NewPusher(ws, atsClient, l)
	if config.Push != nil && len(config.Push.StatusMap) > 0 {
		pusher.StatusMap = config.Push.StatusMap
	}

	stats, err := pusher.Push(client, req, dryRun, batchFilter)
	if err != nil {
		fatalUnlock(lock, l, "push failed", zap.Error(err))
	}

	l.Info("push summary",
		zap.Bool("dry_run", stats.DryRun),
		zap.Int("total", stats.Total),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
}
