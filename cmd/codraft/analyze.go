package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/codraft/internal/reasoning"
)

// analyzeCMD runs the complexity analyzer against a message without
// touching the model API. Useful for tuning word limits offline.
func analyzeCMD() *cobra.Command {
	var asJSON bool
	var analyze = &cobra.Command{
		Use:   "analyze [message]",
		Short: "Classify a message's reasoning complexity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			profile := reasoning.AnalyzeComplexity(message)

			if asJSON {
				out, err := json.MarshalIndent(profile, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "level:        %s (score %d)\n", profile.Level, profile.Score)
			fmt.Fprintf(w, "word limit:   %d\n", profile.RecommendedWordLimit)
			fmt.Fprintf(w, "verification: %s\n", profile.RecommendedVerification)
			fmt.Fprintf(w, "words: %d  sentences: %d  question words: %d\n",
				profile.WordCount, profile.SentenceCount, profile.QuestionWords)
			return nil
		},
	}
	analyze.Flags().BoolVar(&asJSON, "json", false, "emit the full profile as JSON")

	return analyze
}
