package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"salaryman/internal/recurring"
)

// Detect mines one user's transaction history and prints the candidates.
func (a *App) Detect(ctx context.Context, opts DetectOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot detect patterns")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	detections, err := engine.DetectRecurringPatterns(ctx, opts.UserID, a.detectionOverride(opts))
	if err != nil {
		return err
	}
	if len(detections) == 0 {
		fmt.Fprintln(os.Stdout, "no recurring patterns detected")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tFrequency\tAvg Amount\tNext Due\tConfidence\tRisk\tCategory\tTracked")

	for _, d := range detections {
		tracked := ""
		if d.AlreadyTracked {
			tracked = "yes"
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			d.SuggestedName,
			d.Pattern.Frequency,
			formatDecimal(d.Pattern.AverageAmount, 2),
			d.Pattern.PredictedNext.Format("2006-01-02"),
			d.Pattern.Confidence,
			d.Risk,
			categoryLabel(d.SuggestedCategoryID),
			tracked,
		)
	}

	writer.Flush()
	return nil
}

// detectionOverride builds a full option set from config and overlays the
// flags the user actually passed. Nil means "use the engine defaults".
func (a *App) detectionOverride(opts DetectOptions) *recurring.Options {
	if opts.MinOccurrences <= 0 && opts.LookbackMonths <= 0 && opts.ConfidenceThreshold <= 0 {
		return nil
	}

	det := a.Config.Detection
	override := recurring.Options{
		MinOccurrences:      det.MinOccurrences,
		AmountTolerancePct:  det.AmountTolerancePct,
		DateVarianceDays:    det.DateVarianceDays,
		LookbackMonths:      det.LookbackMonths,
		ConfidenceThreshold: det.ConfidenceThreshold,
		LargeAmount:         decimal.NewFromFloat(det.LargeAmount),
		MediumAmount:        decimal.NewFromFloat(det.MediumAmount),
	}
	if opts.MinOccurrences > 0 {
		override.MinOccurrences = opts.MinOccurrences
	}
	if opts.LookbackMonths > 0 {
		override.LookbackMonths = opts.LookbackMonths
	}
	if opts.ConfidenceThreshold > 0 {
		override.ConfidenceThreshold = opts.ConfidenceThreshold
	}
	return &override
}
