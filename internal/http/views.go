package http

import (
	"time"

	"bizdash/internal/core"
	"bizdash/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money and percentages travel as fixed two-decimal strings so clients never
// see float rounding.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type (
	projectJSON struct {
		ID         uuid.UUID `json:"id"`
		Title      string    `json:"title"`
		Budget     string    `json:"budget"`
		AmountPaid string    `json:"amount_paid"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}

	budgetJSON struct {
		Budget       string `json:"budget"`
		Spent        string `json:"spent"`
		Percentage   string `json:"percentage"`
		Remaining    string `json:"remaining"`
		IsOverBudget bool   `json:"is_over_budget"`
		IsNearLimit  bool   `json:"is_near_limit"`
	}

	categoryAmountJSON struct {
		Key    string `json:"key"`
		Amount string `json:"amount"`
	}

	summaryJSON struct {
		Project       projectJSON          `json:"project"`
		ExpenseCount  int                  `json:"expense_count"`
		TotalCost     string               `json:"total_cost"`
		BalanceDue    string               `json:"balance_due"`
		PaymentStatus core.PaymentStatus   `json:"payment_status"`
		Budget        *budgetJSON          `json:"budget,omitempty"`
		Categories    []categoryAmountJSON `json:"categories"`
	}

	expenseJSON struct {
		ID          uuid.UUID `json:"id"`
		ProjectID   uuid.UUID `json:"project_id"`
		Description string    `json:"description"`
		Quantity    string    `json:"quantity"`
		Price       string    `json:"price"`
		Amount      string    `json:"amount"`
		Category    string    `json:"category"`
		CreatedAt   time.Time `json:"created_at"`
	}

	categoryJSON struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Color string    `json:"color"`
	}

	breakdownJSON struct {
		Key     string `json:"key"`
		Name    string `json:"name"`
		Color   string `json:"color"`
		Amount  string `json:"amount"`
		Percent string `json:"percent"`
	}

	overviewJSON struct {
		ProjectCount       int    `json:"project_count"`
		TotalSpent         string `json:"total_spent"`
		TotalBudget        string `json:"total_budget"`
		TotalPaid          string `json:"total_paid"`
		TotalBalanceDue    string `json:"total_balance_due"`
		OverBudgetCount    int    `json:"over_budget_count"`
		NearLimitCount     int    `json:"near_limit_count"`
		AverageProjectCost string `json:"average_project_cost"`
	}

	jobJSON struct {
		ID                    uuid.UUID      `json:"id"`
		PersonName            string         `json:"person_name"`
		Title                 string         `json:"title"`
		Type                  core.JobType   `json:"type"`
		Location              string         `json:"location,omitempty"`
		MapLink               string         `json:"map_link,omitempty"`
		Description           string         `json:"description,omitempty"`
		ScheduledDate         string         `json:"scheduled_date"`
		ScheduledTime         string         `json:"scheduled_time"`
		Status                core.JobStatus `json:"status"`
		StoredStatus          core.JobStatus `json:"stored_status"`
		IsCompleted           bool           `json:"is_completed"`
		CompletedAt           *time.Time     `json:"completed_at,omitempty"`
		ReminderEnabled       bool           `json:"reminder_enabled"`
		ReminderMinutesBefore int            `json:"reminder_minutes_before"`
	}

	jobStatsJSON struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Completed int `json:"completed"`
		Overdue   int `json:"overdue"`
		Cancelled int `json:"cancelled"`
		Today     int `json:"today"`
		Invalid   int `json:"invalid"`
	}

	activityJSON struct {
		Action    string    `json:"action"`
		OldValue  string    `json:"old_value,omitempty"`
		NewValue  string    `json:"new_value,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	dashboardJSON struct {
		GeneratedAt    time.Time     `json:"generated_at"`
		Overview       overviewJSON  `json:"overview"`
		Projects       []summaryJSON `json:"projects"`
		Jobs           jobStatsJSON  `json:"jobs"`
		Upcoming       []jobJSON     `json:"upcoming"`
		RecentExpenses []expenseJSON `json:"recent_expenses"`
	}

	monthJSON struct {
		Label string `json:"label"`
		Year  int    `json:"year"`
		Month int    `json:"month"`
		Total string `json:"total"`
	}

	expenseStatsJSON struct {
		Count   int    `json:"count"`
		Total   string `json:"total"`
		Average string `json:"average"`
	}

	analyticsJSON struct {
		GeneratedAt time.Time        `json:"generated_at"`
		Expenses    expenseStatsJSON `json:"expenses"`
		Categories  []breakdownJSON  `json:"categories"`
		Monthly     []monthJSON      `json:"monthly"`
	}

	reportLineJSON struct {
		expenseJSON
		Project       string `json:"project"`
		CategoryName  string `json:"category_name"`
		CategoryColor string `json:"category_color"`
	}

	reportJSON struct {
		GeneratedAt time.Time        `json:"generated_at"`
		From        string           `json:"from"`
		To          string           `json:"to"`
		Expenses    expenseStatsJSON `json:"expenses"`
		Categories  []breakdownJSON  `json:"categories"`
		Lines       []reportLineJSON `json:"lines"`
	}

	projectDetailJSON struct {
		Summary    summaryJSON     `json:"summary"`
		Expenses   []expenseJSON   `json:"expenses"`
		Categories []breakdownJSON `json:"categories"`
		Invoices   []invoiceJSON   `json:"invoices"`
	}

	invoiceJSON struct {
		ID             uuid.UUID `json:"id"`
		ProjectID      uuid.UUID `json:"project_id"`
		InvoiceNumber  string    `json:"invoice_number"`
		ClientName     string    `json:"client_name"`
		InvoiceDate    string    `json:"invoice_date"`
		DueDate        string    `json:"due_date"`
		Subtotal       string    `json:"subtotal"`
		TaxAmount      string    `json:"tax_amount"`
		DiscountAmount string    `json:"discount_amount"`
		Total          string    `json:"total"`
		Status         string    `json:"status"`
	}

	invoiceLineJSON struct {
		No          int    `json:"no"`
		Description string `json:"description"`
		Quantity    string `json:"quantity"`
		Price       string `json:"price"`
		Amount      string `json:"amount"`
	}

	invoiceTotalsJSON struct {
		Subtotal       string `json:"subtotal"`
		TaxRate        string `json:"tax_rate"`
		TaxAmount      string `json:"tax_amount"`
		DiscountAmount string `json:"discount_amount"`
		GrandTotal     string `json:"grand_total"`
	}

	previewJSON struct {
		Lines  []invoiceLineJSON `json:"lines"`
		Totals invoiceTotalsJSON `json:"totals"`
	}

	settingsJSON struct {
		CompanyName       string `json:"company_name"`
		CompanyAddress    string `json:"company_address"`
		CompanyPhone      string `json:"company_phone"`
		CompanyEmail      string `json:"company_email"`
		TaxRate           string `json:"tax_rate"`
		TaxEnabled        bool   `json:"tax_enabled"`
		InvoicePrefix     string `json:"invoice_prefix"`
		NextInvoiceNumber int    `json:"next_invoice_number"`
		PaymentTerms      string `json:"payment_terms"`
		ThankYouMessage   string `json:"thank_you_message"`
	}

	campaignSettingsJSON struct {
		DefaultPlatform     string `json:"default_platform"`
		DefaultContractType string `json:"default_contract_type"`
		Currency            string `json:"currency"`
		TaxRate             string `json:"tax_rate"`
	}

	advertiserJSON struct {
		ID              uuid.UUID          `json:"id"`
		Name            string             `json:"name"`
		Phone           string             `json:"phone,omitempty"`
		Salary          string             `json:"salary"`
		TargetVideos    int                `json:"target_videos"`
		CompletedVideos int                `json:"completed_videos"`
		Platform        string             `json:"platform,omitempty"`
		ContractType    string             `json:"contract_type,omitempty"`
		AdTypes         []string           `json:"ad_types"`
		Notes           string             `json:"notes,omitempty"`
		TargetsLocked   bool               `json:"targets_locked"`
		State           core.ProgressState `json:"state"`
		Progress        float64            `json:"progress"`
	}

	deliveryJSON struct {
		ID             uuid.UUID           `json:"id"`
		AdvertiserID   uuid.UUID           `json:"advertiser_id"`
		VideoLink      string              `json:"video_link"`
		SubmissionDate string              `json:"submission_date"`
		Status         core.DeliveryStatus `json:"status"`
		VerifiedBy     string              `json:"verified_by,omitempty"`
		VerifiedAt     *time.Time          `json:"verified_at,omitempty"`
		Notes          string              `json:"notes,omitempty"`
	}

	productJSON struct {
		ID           uuid.UUID                  `json:"id"`
		AdvertiserID uuid.UUID                  `json:"advertiser_id"`
		ProductName  string                     `json:"product_name"`
		Quantity     int                        `json:"quantity"`
		DateSent     string                     `json:"date_sent"`
		Status       core.ProductDeliveryStatus `json:"status"`
		Price        string                     `json:"price"`
		Notes        string                     `json:"notes,omitempty"`
	}

	paymentJSON struct {
		ID           uuid.UUID                  `json:"id"`
		AdvertiserID uuid.UUID                  `json:"advertiser_id"`
		Amount       string                     `json:"amount"`
		Status       core.CampaignPaymentStatus `json:"status"`
		PaymentDate  string                     `json:"payment_date,omitempty"`
		ApprovedBy   string                     `json:"approved_by,omitempty"`
		ApprovedAt   *time.Time                 `json:"approved_at,omitempty"`
		Notes        string                     `json:"notes,omitempty"`
	}

	bucketJSON struct {
		Name      string  `json:"name"`
		Completed int     `json:"completed"`
		Target    int     `json:"target"`
		Rate      float64 `json:"rate"`
	}

	adTypeCountJSON struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	efficiencyJSON struct {
		AdvertiserID uuid.UUID `json:"advertiser_id"`
		Name         string    `json:"name"`
		Salary       string    `json:"salary"`
		Videos       int       `json:"videos"`
		CostPerVideo string    `json:"cost_per_video"`
	}

	campaignOverviewJSON struct {
		TeamSize             int     `json:"team_size"`
		SalaryBudget         string  `json:"salary_budget"`
		TargetVideos         int     `json:"target_videos"`
		CompletedVideos      int     `json:"completed_videos"`
		CompletionRate       float64 `json:"completion_rate"`
		CostPerVideo         string  `json:"cost_per_video"`
		TotalPaid            string  `json:"total_paid"`
		TotalUnpaid          string  `json:"total_unpaid"`
		ApprovedDeliveries   int     `json:"approved_deliveries"`
		PendingDeliveries    int     `json:"pending_deliveries"`
		RejectedDeliveries   int     `json:"rejected_deliveries"`
		ProductDeliveryValue string  `json:"product_delivery_value"`
	}

	campaignReportJSON struct {
		Overview   campaignOverviewJSON `json:"overview"`
		ByAdType   []bucketJSON         `json:"by_ad_type"`
		ByMonth    []bucketJSON         `json:"by_month"`
		AdTypes    []adTypeCountJSON    `json:"ad_types"`
		Efficiency []efficiencyJSON     `json:"efficiency"`
	}
)

// mapSlice converts every element with fn, always returning a non-nil slice
// so empty lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func toProject(p core.Project) projectJSON {
	return projectJSON{
		ID:         p.ID,
		Title:      p.Title,
		Budget:     money(p.Budget),
		AmountPaid: money(p.AmountPaid),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toSummary(s core.ProjectSummary) summaryJSON {
	out := summaryJSON{
		Project:       toProject(s.Project),
		ExpenseCount:  s.ExpenseCount,
		TotalCost:     money(s.TotalCost),
		BalanceDue:    money(s.BalanceDue),
		PaymentStatus: s.PaymentStatus,
		Categories: mapSlice(s.Categories.Entries(), func(c core.CategoryAmount) categoryAmountJSON {
			return categoryAmountJSON{Key: string(c.Key), Amount: money(c.Amount)}
		}),
	}
	if s.HasBudget {
		out.Budget = &budgetJSON{
			Budget:       money(s.Budget.Budget),
			Spent:        money(s.Budget.Spent),
			Percentage:   money(s.Budget.Percentage),
			Remaining:    money(s.Budget.Remaining),
			IsOverBudget: s.Budget.IsOverBudget,
			IsNearLimit:  s.Budget.IsNearLimit,
		}
	}
	return out
}

func toExpense(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		Description: e.Description,
		Quantity:    e.Quantity.String(),
		Price:       money(e.Price),
		Amount:      money(e.Amount()),
		Category:    string(e.Category),
		CreatedAt:   e.CreatedAt,
	}
}

func toCategory(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color}
}

func toBreakdown(b services.CategoryBreakdown) breakdownJSON {
	return breakdownJSON{
		Key:     string(b.Label.Key),
		Name:    b.Label.Name,
		Color:   b.Label.Color,
		Amount:  money(b.Amount),
		Percent: money(b.Percent),
	}
}

func toOverview(o core.Overview) overviewJSON {
	return overviewJSON{
		ProjectCount:       o.ProjectCount,
		TotalSpent:         money(o.TotalSpent),
		TotalBudget:        money(o.TotalBudget),
		TotalPaid:          money(o.TotalPaid),
		TotalBalanceDue:    money(o.TotalBalanceDue),
		OverBudgetCount:    o.OverBudgetCount,
		NearLimitCount:     o.NearLimitCount,
		AverageProjectCost: money(o.AverageProjectCost),
	}
}

func toJob(v core.JobView) jobJSON {
	j := v.Job
	return jobJSON{
		ID:                    j.ID,
		PersonName:            j.PersonName,
		Title:                 j.Title,
		Type:                  j.Type,
		Location:              j.Location,
		MapLink:               j.MapLink,
		Description:           j.Description,
		ScheduledDate:         j.ScheduledDate,
		ScheduledTime:         j.ScheduledTime,
		Status:                v.Status,
		StoredStatus:          j.Status,
		IsCompleted:           j.IsCompleted,
		CompletedAt:           j.CompletedAt,
		ReminderEnabled:       j.ReminderEnabled,
		ReminderMinutesBefore: j.ReminderMinutesBefore,
	}
}

func toJobStats(s core.JobStats) jobStatsJSON {
	return jobStatsJSON(s)
}

func toActivity(a core.JobActivity) activityJSON {
	return activityJSON{Action: a.Action, OldValue: a.OldValue, NewValue: a.NewValue, CreatedAt: a.CreatedAt}
}

func toDashboard(d services.Dashboard) dashboardJSON {
	return dashboardJSON{
		GeneratedAt:    d.GeneratedAt,
		Overview:       toOverview(d.Overview),
		Projects:       mapSlice(d.Projects, toSummary),
		Jobs:           toJobStats(d.Jobs),
		Upcoming:       mapSlice(d.Upcoming, toJob),
		RecentExpenses: mapSlice(d.RecentExpenses, toExpense),
	}
}

func toExpenseStats(o core.ExpenseOverview) expenseStatsJSON {
	return expenseStatsJSON{Count: o.Count, Total: money(o.Total), Average: money(o.Average)}
}

func toAnalytics(a services.Analytics) analyticsJSON {
	return analyticsJSON{
		GeneratedAt: a.GeneratedAt,
		Expenses:    toExpenseStats(a.Expenses),
		Categories:  mapSlice(a.Categories, toBreakdown),
		Monthly: mapSlice(a.Monthly, func(m core.MonthBucket) monthJSON {
			return monthJSON{Label: m.Label, Year: m.Year, Month: int(m.Month), Total: money(m.Total)}
		}),
	}
}

func toReport(r services.Report) reportJSON {
	return reportJSON{
		GeneratedAt: r.GeneratedAt,
		From:        r.From.String(),
		To:          r.To.String(),
		Expenses:    toExpenseStats(r.Expenses),
		Categories:  mapSlice(r.Categories, toBreakdown),
		Lines: mapSlice(r.Lines, func(l services.ReportLine) reportLineJSON {
			return reportLineJSON{
				expenseJSON:   toExpense(l.Expense),
				Project:       l.Project,
				CategoryName:  l.Category.Name,
				CategoryColor: l.Category.Color,
			}
		}),
	}
}

func toProjectDetail(d services.ProjectDetail) projectDetailJSON {
	return projectDetailJSON{
		Summary:    toSummary(d.Summary),
		Expenses:   mapSlice(d.Expenses, toExpense),
		Categories: mapSlice(d.Categories, toBreakdown),
		Invoices:   mapSlice(d.Invoices, toInvoice),
	}
}

func toInvoice(inv core.Invoice) invoiceJSON {
	return invoiceJSON{
		ID:             inv.ID,
		ProjectID:      inv.ProjectID,
		InvoiceNumber:  inv.InvoiceNumber,
		ClientName:     inv.ClientName,
		InvoiceDate:    inv.InvoiceDate.String(),
		DueDate:        inv.DueDate.String(),
		Subtotal:       money(inv.Subtotal),
		TaxAmount:      money(inv.TaxAmount),
		DiscountAmount: money(inv.DiscountAmount),
		Total:          money(inv.Total),
		Status:         inv.Status,
	}
}

func toPreview(p services.InvoicePreview) previewJSON {
	return previewJSON{
		Lines: mapSlice(p.Lines, func(l core.InvoiceLine) invoiceLineJSON {
			return invoiceLineJSON{
				No:          l.No,
				Description: l.Description,
				Quantity:    l.Quantity.String(),
				Price:       money(l.Price),
				Amount:      money(l.Amount),
			}
		}),
		Totals: invoiceTotalsJSON{
			Subtotal:       money(p.Totals.Subtotal),
			TaxRate:        money(p.Totals.TaxRate),
			TaxAmount:      money(p.Totals.TaxAmount),
			DiscountAmount: money(p.Totals.DiscountAmount),
			GrandTotal:     money(p.Totals.GrandTotal),
		},
	}
}

func toSettings(s core.InvoiceSettings) settingsJSON {
	return settingsJSON{
		CompanyName:       s.CompanyName,
		CompanyAddress:    s.CompanyAddress,
		CompanyPhone:      s.CompanyPhone,
		CompanyEmail:      s.CompanyEmail,
		TaxRate:           money(s.TaxRate),
		TaxEnabled:        s.TaxEnabled,
		InvoicePrefix:     s.InvoicePrefix,
		NextInvoiceNumber: s.NextInvoiceNumber,
		PaymentTerms:      s.PaymentTerms,
		ThankYouMessage:   s.ThankYouMessage,
	}
}

func toCampaignSettings(s core.CampaignSettings) campaignSettingsJSON {
	return campaignSettingsJSON{
		DefaultPlatform:     s.DefaultPlatform,
		DefaultContractType: s.DefaultContractType,
		Currency:            s.Currency,
		TaxRate:             money(s.TaxRate),
	}
}

func toAdvertiser(v services.AdvertiserView) advertiserJSON {
	a := v.Advertiser
	adTypes := a.AdTypes
	if adTypes == nil {
		adTypes = []string{}
	}
	return advertiserJSON{
		ID:              a.ID,
		Name:            a.Name,
		Phone:           a.Phone,
		Salary:          money(a.Salary),
		TargetVideos:    a.TargetVideos,
		CompletedVideos: a.CompletedVideos,
		Platform:        a.Platform,
		ContractType:    a.ContractType,
		AdTypes:         adTypes,
		Notes:           a.Notes,
		TargetsLocked:   a.TargetsLocked,
		State:           v.State,
		Progress:        v.Progress,
	}
}

func toDelivery(d core.Delivery) deliveryJSON {
	return deliveryJSON{
		ID:             d.ID,
		AdvertiserID:   d.AdvertiserID,
		VideoLink:      d.VideoLink,
		SubmissionDate: d.SubmissionDate.String(),
		Status:         d.Status,
		VerifiedBy:     d.VerifiedBy,
		VerifiedAt:     d.VerifiedAt,
		Notes:          d.Notes,
	}
}

func toProduct(p core.ProductDelivery) productJSON {
	return productJSON{
		ID:           p.ID,
		AdvertiserID: p.AdvertiserID,
		ProductName:  p.ProductName,
		Quantity:     p.Quantity,
		DateSent:     p.DateSent.String(),
		Status:       p.Status,
		Price:        money(p.Price),
		Notes:        p.Notes,
	}
}

func toPayment(p core.Payment) paymentJSON {
	return paymentJSON{
		ID:           p.ID,
		AdvertiserID: p.AdvertiserID,
		Amount:       money(p.Amount),
		Status:       p.Status,
		PaymentDate:  p.PaymentDate.String(),
		ApprovedBy:   p.ApprovedBy,
		ApprovedAt:   p.ApprovedAt,
		Notes:        p.Notes,
	}
}

func toBucket(b core.CompletionBucket) bucketJSON {
	return bucketJSON(b)
}

func toCampaignReport(r services.CampaignReport) campaignReportJSON {
	o := r.Overview
	return campaignReportJSON{
		Overview: campaignOverviewJSON{
			TeamSize:             o.TeamSize,
			SalaryBudget:         money(o.SalaryBudget),
			TargetVideos:         o.TargetVideos,
			CompletedVideos:      o.CompletedVideos,
			CompletionRate:       o.CompletionRate,
			CostPerVideo:         money(o.CostPerVideo),
			TotalPaid:            money(o.TotalPaid),
			TotalUnpaid:          money(o.TotalUnpaid),
			ApprovedDeliveries:   o.ApprovedDeliveries,
			PendingDeliveries:    o.PendingDeliveries,
			RejectedDeliveries:   o.RejectedDeliveries,
			ProductDeliveryValue: money(o.ProductDeliveryValue),
		},
		ByAdType: mapSlice(r.ByAdType, toBucket),
		ByMonth:  mapSlice(r.ByMonth, toBucket),
		AdTypes: mapSlice(r.AdTypes, func(c core.AdTypeCount) adTypeCountJSON {
			return adTypeCountJSON(c)
		}),
		Efficiency: mapSlice(r.Efficiency, func(e core.AdvertiserEfficiency) efficiencyJSON {
			return efficiencyJSON{
				AdvertiserID: e.AdvertiserID,
				Name:         e.Name,
				Salary:       money(e.Salary),
				Videos:       e.Videos,
				CostPerVideo: money(e.CostPerVideo),
			}
		}),
	}
}
