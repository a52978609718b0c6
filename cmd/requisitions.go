package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var requisitionsCmd = &cobra.Command{
	Use:   "requisitions",
	Short: "List a client's requisitions",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()
		config := mustConfig(l)
		ws := newWorkspace(config, l)

		client, _ := cmd.Flags().GetString("client")
		status, _ := cmd.Flags().GetString("status")

		reqs, err := ws.ListRequisitions(client, status)
		if err != nil {
			l.Fatal("listing requisitions", zap.Error(err))
		}

		for _, req := range reqs {
			cfg, err := ws.LoadRequisition(client, req)
			if err != nil {
				l.Warn("unreadable requisition config",
					zap.String("requisition", req),
					zap.Error(err),
				)
				continue
			}
			l.Info("requisition",
				zap.String("id", req),
				zap.String("title", cfg.Title),
				zap.String("status", cfg.Status),
				zap.Strings("positions", cfg.PositionIDs()),
				zap.String("last_sync", cfg.ATS.LastSync),
			)
		}
		l.Info("requisitions listed",
			zap.String("client", client),
			zap.Int("count", len(reqs)),
		)
	},
}

func init() {
	rootCmd.AddCommand(requisitionsCmd)

	requisitionsCmd.Flags().StringP("client", "c", "", "client code")
	requisitionsCmd.Flags().String("status", "", "filter by status (empty matches all)")
	requisitionsCmd.MarkFlagRequired("client")
}
