package main

import (
	"fmt"
	"strconv"

	"bizdash/internal/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var flagMonths int

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Project totals and budgets",
	RunE:  runProjects,
}

var projectsSummaryCmd = &cobra.Command{
	Use:   "summary <project-id>",
	Short: "Totals, budget usage and category split for one project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectSummary,
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Expense analytics",
}

var analyticsMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Spend per calendar month",
	RunE:  runAnalyticsMonthly,
}

func init() {
	projectsCmd.AddCommand(projectsSummaryCmd)
	analyticsMonthlyCmd.Flags().IntVarP(&flagMonths, "months", "m", services.DefaultWindowMonths, "Number of months ending with the current one")
	analyticsCmd.AddCommand(analyticsMonthlyCmd)
	rootCmd.AddCommand(projectsCmd, analyticsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	list, err := a.projects.List(cmd.Context(), flagUser)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		budget := "-"
		if s.HasBudget {
			budget = s.Budget.Percentage.StringFixed(0) + "%"
			if s.Budget.IsOverBudget || s.Budget.IsNearLimit {
				budget = warn(budget)
			}
		}
		rows = append(rows, []string{
			s.Project.ID.String(),
			s.Project.Title,
			strconv.Itoa(s.ExpenseCount),
			s.TotalCost.StringFixed(2),
			s.BalanceDue.StringFixed(2),
			string(s.PaymentStatus),
			budget,
		})
	}
	printTable("PROJECTS", []string{"ID", "Title", "Items", "Total", "Due", "Payment", "Budget"}, rows)
	return nil
}

func runProjectSummary(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid project id %q: %w", args[0], err)
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	d, err := a.dash.ProjectDetail(cmd.Context(), flagUser, id)
	if err != nil {
		return err
	}

	s := d.Summary
	pairs := [][2]string{
		{"Title", s.Project.Title},
		{"Line items", strconv.Itoa(s.ExpenseCount)},
		{"Total cost", s.TotalCost.StringFixed(2)},
		{"Paid", s.Project.AmountPaid.StringFixed(2)},
		{"Balance due", s.BalanceDue.StringFixed(2)},
		{"Payment status", string(s.PaymentStatus)},
	}
	if s.HasBudget {
		used := s.Budget.Percentage.StringFixed(1) + "%"
		switch {
		case s.Budget.IsOverBudget:
			used = warn(used + " over budget")
		case s.Budget.IsNearLimit:
			used = warn(used + " near limit")
		}
		pairs = append(pairs,
			[2]string{"Budget", s.Budget.Budget.StringFixed(2)},
			[2]string{"Remaining", s.Budget.Remaining.StringFixed(2)},
			[2]string{"Used", used})
	}
	keyValues("PROJECT  "+id.String(), pairs...)

	rows := make([][]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		rows = append(rows, []string{c.Label.Name, c.Amount.StringFixed(2), c.Percent.StringFixed(1) + "%"})
	}
	printTable("CATEGORIES", []string{"Category", "Amount", "Share"}, rows)
	return nil
}

func runAnalyticsMonthly(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	if flagMonths < 1 {
		return fmt.Errorf("--months must be at least 1")
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	an, err := a.dash.Analytics(cmd.Context(), flagUser, flagMonths)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(an.Monthly)+1)
	for _, m := range an.Monthly {
		rows = append(rows, []string{m.Label, m.Total.StringFixed(2)})
	}
	rows = append(rows, []string{"Average item", an.Expenses.Average.StringFixed(2)})
	printTable(fmt.Sprintf("MONTHLY SPEND  last %d months", flagMonths), []string{"Month", "Total"}, rows)
	return nil
}
