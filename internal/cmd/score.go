package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "score <gufi>",
		Short: "Score a single flight and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			outcome, err := a.runner.ScoreFlight(args[0], persist)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(outcome, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "write the score and attempt to the database")
	return cmd
}
