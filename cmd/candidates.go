package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Inspect ATS candidate records",
}

var candidatesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search candidates by free text, email or name",
	Run: func(cmd *cobra.Command, _ []string) {
		l := newLogger()
		config := mustConfig(l)

		query, _ := cmd.Flags().GetString("query")
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if query == "" && email == "" && name == "" {
			l.Fatal("one of --query, --email or --name is required")
		}

		client := newATSClient(context.Background(), config, l)
		results, err := client.SearchCandidates(query, email, name)
		if err != nil {
			l.Fatal("searching candidates", zap.Error(err))
		}

		for _, raw := range results {
			l.Info("candidate",
				zap.Any("CandidateId", raw["CandidateId"]),
				zap.Any("FirstName", raw["FirstName"]),
				zap.Any("LastName", raw["LastName"]),
				zap.Any("EmailAddress", raw["EmailAddress"]),
			)
		}
		l.Info("search complete", zap.Int("count", len(results)))
	},
}

var candidatesShowCmd = &cobra.Command{
	Use:   "show <candidate-id>",
	Short: "Dump one candidate record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		l := newLogger()
		config := mustConfig(l)

		client := newATSClient(context.Background(), config, l)
		raw, err := client.GetCandidate(args[0])
		if err != nil {
			l.Fatal("fetching candidate", zap.Error(err))
		}

		pretty, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			l.Fatal("encoding candidate", zap.Error(err))
		}
		fmt.Println(string(pretty))
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesSearchCmd, candidatesShowCmd)

	candidatesSearchCmd.Flags().String("query", "", "free text query")
	candidatesSearchCmd.Flags().String("email", "", "email address")
	candidatesSearchCmd.Flags().String("name", "", "candidate name")
}
