package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLabelLayout is the layout of MonthBucket labels ("Jan 2006").
const MonthLabelLayout = "Jan 2006"

// Budget thresholds, in percent.
var (
	nearLimitPercent = decimal.NewFromInt(80)
	fullPercent      = decimal.NewFromInt(100)
)

type (
	// CategoryAmount is one bucket of a category grouping.
	CategoryAmount struct {
		Key    CategoryKey
		Amount decimal.Decimal
	}

	// CategoryShare is a category bucket with its share of a total.
	CategoryShare struct {
		Key     CategoryKey
		Amount  decimal.Decimal
		Percent decimal.Decimal
	}

	// CategoryTotals maps category keys to summed line-item amounts. Entries
	// keep the order in which each key first appeared in the input.
	CategoryTotals struct {
		entries []CategoryAmount
		index   map[CategoryKey]int
	}

	// MonthBucket is the total for one calendar month.
	MonthBucket struct {
		Label string
		Year  int
		Month time.Month
		Total decimal.Decimal
	}

	// BudgetUsage describes how much of a budget has been spent.
	// Percentage is clamped to [0, 100]; Remaining is signed and goes negative
	// when the budget is exceeded.
	BudgetUsage struct {
		Budget       decimal.Decimal
		Spent        decimal.Decimal
		Percentage   decimal.Decimal
		Remaining    decimal.Decimal
		IsOverBudget bool
		IsNearLimit  bool
	}
)

// LineItemAmount is quantity * price. Negative inputs are passed through.
func LineItemAmount(e Expense) decimal.Decimal {
	return e.Quantity.Mul(e.Price)
}

// TotalCost sums LineItemAmount over items. Empty input yields zero.
func TotalCost(items []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range items {
		total = total.Add(LineItemAmount(e))
	}
	return total
}

// NewCategoryTotals groups items by category, summing line-item amounts.
// Only categories that occur in items are present.
func NewCategoryTotals(items []Expense) CategoryTotals {
	ct := CategoryTotals{index: make(map[CategoryKey]int)}
	for _, e := range items {
		ct.add(e.Category, LineItemAmount(e))
	}
	return ct
}

func (ct *CategoryTotals) add(key CategoryKey, amount decimal.Decimal) {
	if ct.index == nil {
		ct.index = make(map[CategoryKey]int)
	}
	if i, ok := ct.index[key]; ok {
		ct.entries[i].Amount = ct.entries[i].Amount.Add(amount)
		return
	}
	ct.index[key] = len(ct.entries)
	ct.entries = append(ct.entries, CategoryAmount{Key: key, Amount: amount})
}

// Entries returns the buckets in first-occurrence order.
func (ct CategoryTotals) Entries() []CategoryAmount {
	out := make([]CategoryAmount, len(ct.entries))
	copy(out, ct.entries)
	return out
}

// Get returns the total for key and whether the key is present.
func (ct CategoryTotals) Get(key CategoryKey) (decimal.Decimal, bool) {
	i, ok := ct.index[key]
	if !ok {
		return decimal.Zero, false
	}
	return ct.entries[i].Amount, true
}

// Len returns the number of categories.
func (ct CategoryTotals) Len() int {
	return len(ct.entries)
}

// Sum adds up every bucket. It equals TotalCost of the same input.
func (ct CategoryTotals) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, e := range ct.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// SortedByValueDesc returns the buckets ordered by amount, largest first.
// Ties keep first-occurrence order.
func (ct CategoryTotals) SortedByValueDesc() []CategoryAmount {
	out := ct.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// Shares returns each bucket, sorted by value, with its percentage of total
// rounded to two places. A non-positive total yields zero percentages.
func (ct CategoryTotals) Shares(total decimal.Decimal) []CategoryShare {
	sorted := ct.SortedByValueDesc()
	out := make([]CategoryShare, 0, len(sorted))
	for _, e := range sorted {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = e.Amount.Mul(fullPercent).Div(total).Round(2)
		}
		out = append(out, CategoryShare{Key: e.Key, Amount: e.Amount, Percent: pct})
	}
	return out
}

// MonthWindow returns windowMonths consecutive month buckets, all zero, in
// ascending order and ending with the month containing now.
func MonthWindow(now time.Time, windowMonths int) []MonthBucket {
	if windowMonths <= 0 {
		return []MonthBucket{}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(windowMonths - 1), 0)
	buckets := make([]MonthBucket, windowMonths)
	for i := range buckets {
		m := first.AddDate(0, i, 0)
		buckets[i] = MonthBucket{
			Label: m.Format(MonthLabelLayout),
			Year:  m.Year(),
			Month: m.Month(),
			Total: decimal.Zero,
		}
	}
	return buckets
}

// MonthlyTotals sums line items into a trailing window of calendar months
// ending at the month containing now. Every month in the window is present
// even when nothing matches; items outside the window are ignored.
func MonthlyTotals(items []Expense, now time.Time, windowMonths int) []MonthBucket {
	buckets := MonthWindow(now, windowMonths)
	for _, e := range items {
		if i := monthIndex(buckets, e.CreatedAt.In(now.Location())); i >= 0 {
			buckets[i].Total = buckets[i].Total.Add(LineItemAmount(e))
		}
	}
	return buckets
}

func monthIndex(buckets []MonthBucket, t time.Time) int {
	for i, b := range buckets {
		if b.Year == t.Year() && b.Month == t.Month() {
			return i
		}
	}
	return -1
}

// ComputeBudgetUsage reports spending against a budget. The second result is
// false when budget <= 0, which means no budget is set; the usage is then not
// applicable and must not be displayed.
func ComputeBudgetUsage(budget, spent decimal.Decimal) (BudgetUsage, bool) {
	if !budget.IsPositive() {
		return BudgetUsage{}, false
	}
	pct := spent.Mul(fullPercent).Div(budget)
	if pct.GreaterThan(fullPercent) {
		pct = fullPercent
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return BudgetUsage{
		Budget:       budget,
		Spent:        spent,
		Percentage:   pct,
		Remaining:    budget.Sub(spent),
		IsOverBudget: spent.GreaterThan(budget),
		IsNearLimit:  pct.GreaterThanOrEqual(nearLimitPercent) && pct.LessThan(fullPercent),
	}, true
}

// ProgressFraction is completed/target, or 0 when target <= 0.
func ProgressFraction(completed, target int) float64 {
	if target <= 0 {
		return 0
	}
	return float64(completed) / float64(target)
}

// CostPerUnit is totalPaid/totalUnits, or 0 when totalUnits <= 0.
func CostPerUnit(totalPaid decimal.Decimal, totalUnits int) decimal.Decimal {
	if totalUnits <= 0 {
		return decimal.Zero
	}
	return totalPaid.Div(decimal.NewFromInt(int64(totalUnits)))
}
