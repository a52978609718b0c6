package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwhite-hr/reqflow/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Manage a requisition's resume batches",
}

var batchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty batch",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()
		store, _ := batchStore(cmd, l)

		b, err := store.Create("manual")
		if err != nil {
			l.Fatal("creating batch", zap.Error(err))
		}
		l.Info("created batch", zap.String("batch", b.Name), zap.String("dir", b.Dir))
	},
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batches with their manifests",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()
		store, _ := batchStore(cmd, l)

		batches, err := store.List()
		if err != nil {
			l.Fatal("listing batches", zap.Error(err))
		}
		for _, b := range batches {
			m, err := b.Manifest()
			if err != nil {
				l.Warn("unreadable manifest", zap.String("batch", b.Name), zap.Error(err))
				continue
			}
			l.Info("batch",
				zap.String("name", b.Name),
				zap.String("source", m.Source),
				zap.String("status", m.Status),
				zap.Int("files", m.FileCount),
				zap.Int("assessed", m.AssessedCount),
			)
		}
	},
}

var batchImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import resume files into a new batch",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := newLogger()
		store, _ := batchStore(cmd, l)

		b, err := store.ImportFiles("manual_upload", args)
		if err != nil {
			l.Fatal("importing files", zap.Error(err))
		}
		l.Info("imported files", zap.String("batch", b.Name), zap.Int("count", len(args)))
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchCreateCmd, batchListCmd, batchImportCmd)

	batchCmd.PersistentFlags().StringP("client", "c", "", "client code")
	batchCmd.PersistentFlags().StringP("req", "r", "", "requisition id")
	batchCmd.MarkPersistentFlagRequired("client")
	batchCmd.MarkPersistentFlagRequired("req")
}

func batchStore(cmd *cobra.Command, l *zap.Logger) (*batch.Store, *Config) {
	config := mustConfig(l)

	client, _ := cmd.Flags().GetString("client")
	req, _ := cmd.Flags().GetString("req")

	ws := newWorkspace(config, l)
	return batch.NewStore(ws.BatchesDir(client, req), l), config
}
