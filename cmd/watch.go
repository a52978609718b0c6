package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/syncer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the ATS for new candidates across requisitions",
	Run: func(cmd *cobra.Command, _ []string) {
		runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("client", "c", "", "restrict to one client")
	watchCmd.Flags().StringP("req", "r", "", "restrict to one requisition (requires --client)")
	watchCmd.Flags().Int("interval", 0, "minutes between ticks (overrides config)")
	watchCmd.Flags().Bool("auto-download", false, "download resumes for newly discovered candidates")
	watchCmd.Flags().Bool("once", false, "run a single tick and exit")
}

func runWatch(cmd *cobra.Command) {
	l := newLogger()
	config := mustConfig(l)

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")
	interval, _ := cmd.Flags().GetInt("interval")
	autoDownload, _ := cmd.Flags().GetBool("auto-download")
	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := newWorkspace(config, l)
	atsClient := newATSClient(ctx, config, l)

	engine := syncer.NewEngine(ws, atsClient, l)
	downloader := syncer.NewDownloader(ws, atsClient, l)
	watcher := syncer.NewWatcher(engine, downloader, ws, atsClient, l)

	if config.Watch != nil {
		if config.Watch.IntervalMinutes > 0 {
			watcher.Interval = time.Duration(config.Watch.IntervalMinutes) * time.Minute
		}
		watcher.AutoDownload = config.Watch.AutoDownload
	}
	if interval > 0 {
		watcher.Interval = time.Duration(interval) * time.Minute
	}
	if autoDownload {
		watcher.AutoDownload = true
	}
	watcher.Once = once

	l.Info("starting watcher",
		zap.Duration("interval", watcher.Interval),
		zap.Bool("auto_download", watcher.AutoDownload),
		zap.Bool("once", watcher.Once),
	)

	if err := watcher.Run(ctx, syncer.Scope{Client: client, Requisition: req}); err != nil {
		l.Fatal("watcher failed", zap.Error(err))
	}
}
