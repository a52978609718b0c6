package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/syncer"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download resumes for manifest candidates into a new batch",
	Run: func(cmd *cobra.Command, _ []string) {
		runDownload(cmd)
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("client", "c", "", "client code")
	downloadCmd.Flags().StringP("req", "r", "", "requisition id")
	downloadCmd.Flags().Bool("overwrite", false, "re-download resumes that already exist locally")
	downloadCmd.Flags().StringSlice("candidate-id", nil, "restrict to specific candidate ids")
	downloadCmd.MarkFlagRequired("client")
	downloadCmd.MarkFlagRequired("req")
}

func runDownload(cmd *cobra.Command) {
	l := newLogger()
	config := mustConfig(l)

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	ids, _ := cmd.Flags().GetStringSlice("candidate-id")

	ws := newWorkspace(config, l)
	atsClient := newATSClient(context.Background(), config, l)

	lock := lockRequisition(ws, client, req, l)
	defer lock.Release()

	downloader := syncer.NewDownloader(ws, atsClient, l)
	result, err := downloader.Download(client, req, ids, overwrite)
	if err != nil {
		fatalUnlock(lock, l, "download failed", zap.Error(err))
	}

	l.Info("download summary",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.String("batch", result.BatchName),
	)
}
