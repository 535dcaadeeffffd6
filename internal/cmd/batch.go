package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmacd/skyscore/internal/storage/sqlite"
)

func newBatchCmd() *cobra.Command {
	var (
		days         int
		limit        int
		minAlt       float64
		minPoints    int
		workers      int
		callsignLike string
		callsign     string
		rescore      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score all recent unscored flights",
		Long: `Walks recent flights in the database, discards ghost tracks, splits
touch-and-go patterns into legs and scores every approach. Flights with
a recorded attempt are skipped unless --rescore is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			// Flags default from config so a bare "skyscore batch" works
			if days <= 0 {
				days = a.cfg.Batch.Days
			}
			if limit <= 0 {
				limit = a.cfg.Batch.Limit
			}
			if minAlt <= 0 {
				minAlt = a.cfg.Batch.MinAltFt
			}
			if minPoints <= 0 {
				minPoints = a.cfg.Batch.MinPoints
			}
			if workers > 0 {
				a.cfg.Batch.Workers = workers
			}
			if callsignLike == "" {
				callsignLike = a.cfg.Batch.CallsignLike
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, err = a.runner.Run(ctx, sqlite.CandidateFilter{
				Since:        time.Now().UTC().AddDate(0, 0, -days),
				CallsignLike: callsignLike,
				Callsign:     callsign,
				MinPoints:    minPoints,
				MaxMinAlt:    minAlt,
				Limit:        limit,
				Rescore:      rescore,
			})
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "look-back window in days")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum flights per run")
	cmd.Flags().Float64Var(&minAlt, "min-alt", 0, "only flights that descended below this altitude (ft)")
	cmd.Flags().IntVar(&minPoints, "min-points", 0, "minimum track points per flight")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent scoring workers")
	cmd.Flags().StringVar(&callsignLike, "callsign-like", "", "SQL LIKE pattern on callsign")
	cmd.Flags().StringVar(&callsign, "callsign", "", "exact callsign match")
	cmd.Flags().BoolVar(&rescore, "rescore", false, "re-score flights with an existing attempt")
	return cmd
}
