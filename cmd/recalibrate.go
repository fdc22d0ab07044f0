package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundalike/soundalike/internal/app"
	"github.com/soundalike/soundalike/internal/recommender"
	"github.com/soundalike/soundalike/pkg/standardize"
)

var recalibrateTimeout time.Duration

var recalibrateCmd = &cobra.Command{
	Use:   "recalibrate",
	Short: "Refit the standardizer over the full current catalog",
	Long: `Recompute per-block mean and scale statistics from every catalog
vector and atomically replace the persisted standardizer. Safe to invoke
repeatedly; a failed fit keeps the previous standardizer.`,
	RunE: runRecalibrate,
}

func init() {
	rootCmd.AddCommand(recalibrateCmd)

	recalibrateCmd.Flags().DurationVar(&recalibrateTimeout, "timeout", 10*time.Minute,
		"recalibration timeout")
}

func runRecalibrate(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), recalibrateTimeout)
	defer cancel()

	std, err := a.Service.Recalibrate(ctx)
	if errors.Is(err, standardize.ErrStandardizerUnavailable) {
		return fmt.Errorf("catalog too small to fit statistics: %w", err)
	}
	if errors.Is(err, recommender.ErrRecalibrationInFlight) {
		return fmt.Errorf("another recalibration is already running")
	}
	if err != nil {
		return err
	}

	fmt.Printf("standardizer refitted over %d tracks at %s\n",
		std.Rows, std.FittedAt.Format(time.RFC3339))
	return nil
}
