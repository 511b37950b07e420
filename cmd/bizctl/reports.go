package main

import (
	"fmt"
	"os"
	"strconv"

	"bizdash/internal/core"
	"bizdash/internal/export"
	"bizdash/internal/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagFrom      string
	flagTo        string
	flagProject   string
	flagCategory  string
	flagReportOut string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Line items over a date range, with totals",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&flagFrom, "from", "", "First day, YYYY-MM-DD (default 30 days before --to)")
	f.StringVar(&flagTo, "to", "", "Last day, YYYY-MM-DD (default today)")
	f.StringVar(&flagProject, "project", "", "Only this project id")
	f.StringVar(&flagCategory, "category", "", "Only this category key")
	f.StringVarP(&flagReportOut, "out", "o", "", "Write an XLSX workbook instead of printing")
	rootCmd.AddCommand(reportCmd)
}

func reportFlags() (services.ReportQuery, error) {
	var (
		q   services.ReportQuery
		err error
	)
	if flagFrom != "" {
		if q.From, err = core.ParseDate(flagFrom); err != nil {
			return q, fmt.Errorf("--from: %w", err)
		}
	}
	if flagTo != "" {
		if q.To, err = core.ParseDate(flagTo); err != nil {
			return q, fmt.Errorf("--to: %w", err)
		}
	}
	if flagProject != "" {
		if q.ProjectID, err = uuid.Parse(flagProject); err != nil {
			return q, fmt.Errorf("invalid project id %q: %w", flagProject, err)
		}
	}
	q.Category = core.CategoryKey(flagCategory)
	return q, nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	q, err := reportFlags()
	if err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := a.dash.Report(cmd.Context(), flagUser, q)
	if err != nil {
		return err
	}

	if flagReportOut != "" {
		data, err := export.ReportXLSX(rep)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		if err := os.WriteFile(flagReportOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", flagReportOut, err)
		}
		a.logger.Info("Report exported", "path", flagReportOut, "lines", len(rep.Lines))
		return nil
	}

	rows := make([][]string, 0, len(rep.Lines)+1)
	for _, l := range rep.Lines {
		rows = append(rows, []string{
			l.Expense.CreatedAt.Format("2006-01-02"),
			l.Project,
			l.Expense.Description,
			l.Category.Name,
			l.Amount.StringFixed(2),
		})
	}
	rows = append(rows, []string{"Total", "", strconv.Itoa(rep.Expenses.Count) + " items", "", rep.Expenses.Total.StringFixed(2)})
	printTable(fmt.Sprintf("REPORT  %s .. %s", rep.From, rep.To), []string{"Date", "Project", "Description", "Category", "Amount"}, rows)
	return nil
}
