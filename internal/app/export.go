package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"salaryman/internal/costs"
)

// Export renders one user's cost breakdown as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	analysis, err := engine.GetCostAnalysis(ctx, opts.UserID, nil)
	if err != nil {
		return err
	}
	if len(analysis.Categories) == 0 {
		a.Logger.Info().Msg("no recurring spend to export")
		return nil
	}

	a.Logger.Info().Int("categories", len(analysis.Categories)).Msg("exporting cost breakdown")

	if opts.CSVPath != "" {
		if err := writeCategoriesCSV(a.resolveExportPath(opts.CSVPath), analysis); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCategoriesPNG(a.resolveExportPath(opts.PNGPath), analysis); err != nil {
			return err
		}
	}

	return nil
}

// resolveExportPath keeps relative outputs inside the configured export
// directory.
func (a *App) resolveExportPath(path string) string {
	if filepath.IsAbs(path) || a.Config.Export.OutputDir == "" {
		return path
	}
	return filepath.Join(a.Config.Export.OutputDir, path)
}

func writeCategoriesCSV(path string, analysis *costs.Analysis) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"category", "monthly", "quarterly", "yearly", "percent"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, cat := range analysis.Categories {
		record := []string{
			categoryLabel(cat.CategoryID),
			cat.Monthly.String(),
			cat.Quarterly.String(),
			cat.Yearly.String(),
			fmt.Sprintf("%.2f", cat.Percent),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCategoriesPNG(path string, analysis *costs.Analysis) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(analysis.Categories))
	for _, cat := range analysis.Categories {
		bars = append(bars, chart.Value{
			Label: categoryLabel(cat.CategoryID),
			Value: cat.Monthly.InexactFloat64(),
		})
	}

	graph := chart.BarChart{
		Title:    "Monthly recurring spend by category",
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func categoryLabel(id string) string {
	if id == "" {
		return "uncategorized"
	}
	return id
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
