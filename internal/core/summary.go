package core

import "github.com/shopspring/decimal"

// ProjectSummary is the derived view of one project and its expenses.
type ProjectSummary struct {
	Project       Project
	ExpenseCount  int
	TotalCost     decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentStatus PaymentStatus
	Budget        BudgetUsage
	HasBudget     bool
	Categories    CategoryTotals
}

// Overview aggregates every project summary for the dashboard cards.
type Overview struct {
	ProjectCount       int
	TotalSpent         decimal.Decimal
	TotalBudget        decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalBalanceDue    decimal.Decimal
	OverBudgetCount    int
	NearLimitCount     int
	AverageProjectCost decimal.Decimal
}

// ExpenseOverview summarizes a flat list of line items.
type ExpenseOverview struct {
	Count   int
	Total   decimal.Decimal
	Average decimal.Decimal
}

// SummarizeProject derives totals, payment status and budget usage for p.
// Only expenses belonging to p are counted.
func SummarizeProject(p Project, expenses []Expense) ProjectSummary {
	own := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ProjectID == p.ID {
			own = append(own, e)
		}
	}
	total := TotalCost(own)
	usage, ok := ComputeBudgetUsage(p.Budget, total)
	return ProjectSummary{
		Project:       p,
		ExpenseCount:  len(own),
		TotalCost:     total,
		BalanceDue:    BalanceDue(total, p.AmountPaid),
		PaymentStatus: EffectiveProjectPaymentStatus(p.AmountPaid, total),
		Budget:        usage,
		HasBudget:     ok,
		Categories:    NewCategoryTotals(own),
	}
}

// SummarizeProjects summarizes every project against a shared expense list.
func SummarizeProjects(projects []Project, expenses []Expense) []ProjectSummary {
	byProject := make(map[string][]Expense, len(projects))
	for _, e := range expenses {
		k := e.ProjectID.String()
		byProject[k] = append(byProject[k], e)
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, SummarizeProject(p, byProject[p.ID.String()]))
	}
	return out
}

// DashboardStats rolls project summaries up into dashboard totals.
// Projects without a budget contribute nothing to TotalBudget and are never
// counted as over budget.
func DashboardStats(summaries []ProjectSummary) Overview {
	o := Overview{
		ProjectCount:       len(summaries),
		TotalSpent:         decimal.Zero,
		TotalBudget:        decimal.Zero,
		TotalPaid:          decimal.Zero,
		TotalBalanceDue:    decimal.Zero,
		AverageProjectCost: decimal.Zero,
	}
	for _, s := range summaries {
		o.TotalSpent = o.TotalSpent.Add(s.TotalCost)
		o.TotalPaid = o.TotalPaid.Add(s.Project.AmountPaid)
		o.TotalBalanceDue = o.TotalBalanceDue.Add(s.BalanceDue)
		if !s.HasBudget {
			continue
		}
		o.TotalBudget = o.TotalBudget.Add(s.Project.Budget)
		if s.Budget.IsOverBudget {
			o.OverBudgetCount++
		}
		if s.Budget.IsNearLimit {
			o.NearLimitCount++
		}
	}
	if o.ProjectCount > 0 {
		o.AverageProjectCost = o.TotalSpent.Div(decimal.NewFromInt(int64(o.ProjectCount))).Round(2)
	}
	return o
}

// ExpenseStats counts items and averages their amounts.
func ExpenseStats(items []Expense) ExpenseOverview {
	o := ExpenseOverview{Count: len(items), Total: TotalCost(items), Average: decimal.Zero}
	if o.Count > 0 {
		o.Average = o.Total.Div(decimal.NewFromInt(int64(o.Count))).Round(2)
	}
	return o
}
