package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"salaryman/internal/costs"
)

// Costs prints the cost analysis for one user.
func (a *App) Costs(ctx context.Context, opts CostsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot analyze costs")
	}
	defer closeStore()

	engine := a.newEngine(store, nil)

	var override *costs.Options
	if opts.BudgetFraction > 0 {
		override = &costs.Options{BudgetFraction: opts.BudgetFraction}
	}

	analysis, err := engine.GetCostAnalysis(ctx, opts.UserID, override)
	if err != nil {
		return err
	}

	out := os.Stdout
	fmt.Fprintf(out, "Recurring spend (as of %s)\n", analysis.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(out, "  monthly    %s\n", formatDecimal(analysis.MonthlyTotal, 2))
	fmt.Fprintf(out, "  quarterly  %s\n", formatDecimal(analysis.QuarterlyTotal, 2))
	fmt.Fprintf(out, "  yearly     %s\n", formatDecimal(analysis.YearlyTotal, 2))

	budget := analysis.Budget
	fmt.Fprintf(out, "Budget: income %s, budget %s, utilization %.1f%%, available %s\n",
		formatDecimal(budget.MonthlyIncome, 2),
		formatDecimal(budget.Budget, 2),
		budget.UtilizationPct,
		formatDecimal(budget.Available, 2),
	)

	if len(analysis.Categories) > 0 {
		fmt.Fprintln(out, "By category:")
		writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "  Category\tMonthly\tQuarterly\tYearly\tShare%")
		for _, cat := range analysis.Categories {
			fmt.Fprintf(writer, "  %s\t%s\t%s\t%s\t%.1f\n",
				categoryLabel(cat.CategoryID),
				formatDecimal(cat.Monthly, 2),
				formatDecimal(cat.Quarterly, 2),
				formatDecimal(cat.Yearly, 2),
				cat.Percent,
			)
		}
		writer.Flush()
	}

	if len(analysis.Frequencies) > 0 {
		fmt.Fprintln(out, "By frequency:")
		writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "  Frequency\tCount\tPer Cycle")
		for _, freq := range analysis.Frequencies {
			fmt.Fprintf(writer, "  %s\t%d\t%s\n", freq.Frequency, freq.Count, formatDecimal(freq.Total, 2))
		}
		writer.Flush()
	}

	trend := analysis.Trend
	fmt.Fprintf(out, "Trend: month %s vs %s (%+.1f%%), quarter %s vs %s (%+.1f%%)\n",
		formatDecimal(trend.CurrentMonth, 2),
		formatDecimal(trend.PreviousMonth, 2),
		trend.MonthChangePct,
		formatDecimal(trend.CurrentQuarter, 2),
		formatDecimal(trend.PreviousQuarter, 2),
		trend.QuarterChangePct,
	)

	for _, s := range analysis.Suggestions {
		fmt.Fprintf(out, "Suggestion [%s/%s]: %s (save %s/mo)\n",
			s.Kind, s.Priority, s.Message, formatDecimal(s.EstimatedSaving, 2))
	}

	return nil
}
