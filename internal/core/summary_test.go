package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEffectiveProjectPaymentStatus(t *testing.T) {
	tests := []struct {
		name  string
		paid  string
		total string
		want  PaymentStatus
	}{
		{"nothing paid", "0", "100", PaymentUnpaid},
		{"partial", "40", "100", PaymentPartiallyPaid},
		{"exact", "100", "100", PaymentPaid},
		{"overpaid", "150", "100", PaymentPaid},
		{"no cost, nothing paid", "0", "0", PaymentUnpaid},
		{"no cost, something paid", "10", "0", PaymentPartiallyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveProjectPaymentStatus(dec(tt.paid), dec(tt.total)); got != tt.want {
				t.Errorf("EffectiveProjectPaymentStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordProjectPayment(t *testing.T) {
	total := dec("100")
	patch, err := RecordProjectPayment(decimal.Zero, total, dec("60"))
	if err != nil || patch.Status != PaymentPartiallyPaid || !patch.AmountPaid.Equal(dec("60")) {
		t.Fatalf("first payment: %+v %v", patch, err)
	}
	patch, err = RecordProjectPayment(patch.AmountPaid, total, dec("40"))
	if err != nil || patch.Status != PaymentPaid {
		t.Fatalf("second payment: %+v %v", patch, err)
	}
	if _, err := RecordProjectPayment(decimal.Zero, total, decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSummarizeProject(t *testing.T) {
	p := Project{ID: uuid.New(), Title: "Bath", Budget: dec("1000"), AmountPaid: dec("1300")}
	other := uuid.New()
	expenses := []Expense{
		{ProjectID: p.ID, Quantity: dec("2"), Price: dec("400"), Category: CategoryMaterials},
		{ProjectID: p.ID, Quantity: dec("1"), Price: dec("400"), Category: CategoryLabor},
		{ProjectID: other, Quantity: dec("1"), Price: dec("999"), Category: CategoryLabor},
	}
	s := SummarizeProject(p, expenses)

	if s.ExpenseCount != 2 || !s.TotalCost.Equal(dec("1200")) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if !s.BalanceDue.Equal(dec("-100")) {
		t.Fatalf("overpayment balance should stay negative, got %s", s.BalanceDue)
	}
	if s.PaymentStatus != PaymentPaid {
		t.Fatalf("expected paid, got %s", s.PaymentStatus)
	}
	if !s.HasBudget || !s.Budget.IsOverBudget || !s.Budget.Percentage.Equal(dec("100")) {
		t.Fatalf("unexpected budget usage: %+v", s.Budget)
	}
	if !s.Categories.Sum().Equal(s.TotalCost) {
		t.Fatalf("category sum must equal total cost")
	}
}

func TestDashboardStats(t *testing.T) {
	a := Project{ID: uuid.New(), Budget: dec("100")}
	b := Project{ID: uuid.New(), Budget: dec("1000"), AmountPaid: dec("50")}
	c := Project{ID: uuid.New()}
	expenses := []Expense{
		{ProjectID: a.ID, Quantity: dec("1"), Price: dec("150")},
		{ProjectID: b.ID, Quantity: dec("1"), Price: dec("850")},
		{ProjectID: c.ID, Quantity: dec("1"), Price: dec("20")},
	}
	o := DashboardStats(SummarizeProjects([]Project{a, b, c}, expenses))

	if o.ProjectCount != 3 || !o.TotalSpent.Equal(dec("1020")) || !o.TotalBudget.Equal(dec("1100")) {
		t.Fatalf("unexpected totals: %+v", o)
	}
	if o.OverBudgetCount != 1 || o.NearLimitCount != 1 {
		t.Fatalf("unexpected budget counts: %+v", o)
	}
	if !o.AverageProjectCost.Equal(dec("340")) {
		t.Fatalf("average = %s, want 340", o.AverageProjectCost)
	}
	if !o.TotalBalanceDue.Equal(dec("970")) {
		t.Fatalf("balance = %s, want 970", o.TotalBalanceDue)
	}
}

func TestExpenseStats(t *testing.T) {
	if s := ExpenseStats(nil); s.Count != 0 || !s.Average.IsZero() {
		t.Fatalf("empty stats should be zero: %+v", s)
	}
	s := ExpenseStats([]Expense{
		{Quantity: dec("1"), Price: dec("10")},
		{Quantity: dec("1"), Price: dec("5")},
	})
	if s.Count != 2 || !s.Average.Equal(dec("7.5")) {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
