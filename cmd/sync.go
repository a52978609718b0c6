package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Discover ATS candidates for a requisition and update its manifest",
	Run: func(cmd *cobra.Command, _ []string) {
		runSync(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringP("client", "c", "", "client code")
	syncCmd.Flags().StringP("req", "r", "", "requisition id")
	syncCmd.Flags().Bool("since-last-sync", false, "incremental sync from the last watermark")
	syncCmd.MarkFlagRequired("client")
	syncCmd.MarkFlagRequired("req")
}

func runSync(cmd *cobra.Command) {
	l := newLogger()
	config := mustConfig(l)

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")
	incremental, _ := cmd.Flags().GetBool("since-last-sync")

	ws := newWorkspace(config, l)
	atsClient := newATSClient(context.Background(), config, l)

	lock := lockRequisition(ws, client, req, l)
	defer lock.Release()

	engine := syncer.NewEngine(ws, atsClient, l)
	result, err := engine.Sync(client, req, incremental)
	if err != nil {
		fatalUnlock(lock, l, "sync failed", zap.Error(err))
	}

	l.Info("sync summary",
		zap.Int("total", result.Total),
		zap.Int("new", result.New),
		zap.Int("failed_positions", len(result.PositionErrors)),
	)
}
