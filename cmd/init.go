package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mwhite-hr/reqflow/internal/assess"
	"github.com/mwhite-hr/reqflow/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create clients and requisitions in the workspace",
}

var initClientCmd = &cobra.Command{
	Use:   "client <code>",
	Short: "Create a client's directory skeleton and info file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := newLogger()
		config := mustConfig(l)
		ws := newWorkspace(config, l)

		company, _ := cmd.Flags().GetString("company")
		industry, _ := cmd.Flags().GetString("industry")
		contactName, _ := cmd.Flags().GetString("contact-name")
		contactEmail, _ := cmd.Flags().GetString("contact-email")

		code := strings.ToLower(args[0])
		err := ws.InitClient(code, &workspace.ClientInfo{
			CompanyName:  company,
			Industry:     industry,
			ContactName:  contactName,
			ContactEmail: contactEmail,
		})
		if err != nil {
			l.Fatal("initializing client", zap.Error(err))
		}
		l.Info("client created", zap.String("client", code))
	},
}

var initReqCmd = &cobra.Command{
	Use:   "req <req-id>",
	Short: "Create a requisition's directory skeleton, config and framework",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := newLogger()
		config := mustConfig(l)
		ws := newWorkspace(config, l)

		client, _ := cmd.Flags().GetString("client")
		title, _ := cmd.Flags().GetString("title")
		positions, _ := cmd.Flags().GetStringSlice("position")

		req := args[0]
		if !strings.HasPrefix(req, "REQ-") {
			l.Warn("requisition id does not follow the REQ-YYYY-NNN-ROLE convention",
				zap.String("requisition", req))
		}

		cfg := &workspace.RequisitionConfig{Title: title}
		for _, p := range positions {
			cfg.ATS.Positions = append(cfg.ATS.Positions, workspace.PositionLink{JobID: p})
		}
		if err := ws.InitRequisition(client, req, cfg); err != nil {
			l.Fatal("initializing requisition", zap.Error(err))
		}

		// Seed the default framework so the scoring model is visible and
		// editable from day one.
		data, err := yaml.Marshal(assess.DefaultFramework())
		if err != nil {
			l.Fatal("encoding default framework", zap.Error(err))
		}
		if err := os.WriteFile(ws.FrameworkFile(client, req), data, 0o644); err != nil {
			l.Fatal("writing default framework", zap.Error(err))
		}

		l.Info("requisition created",
			zap.String("client", client),
			zap.String("requisition", req),
			zap.Int("positions", len(positions)),
		)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.AddCommand(initClientCmd, initReqCmd)

	initClientCmd.Flags().String("company", "", "full company name")
	initClientCmd.Flags().String("industry", "", "industry or sector")
	initClientCmd.Flags().String("contact-name", "", "primary contact name")
	initClientCmd.Flags().String("contact-email", "", "primary contact email")
	initClientCmd.MarkFlagRequired("company")

	initReqCmd.Flags().StringP("client", "c", "", "client code")
	initReqCmd.Flags().String("title", "", "job title")
	initReqCmd.Flags().StringSlice("position", nil, "ATS position id to link (repeatable)")
	initReqCmd.MarkFlagRequired("client")
	initReqCmd.MarkFlagRequired("title")
}
