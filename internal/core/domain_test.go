package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("expected 2025-03-09, got %s", d)
	}
	for _, in := range []string{"", "2025-13-01", "09/03/2025"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", in, err)
		}
	}
	if !(Date{}).IsEmpty() || (Date{}).String() != "" {
		t.Fatalf("zero date should be empty")
	}
}

func TestProjectValidate(t *testing.T) {
	good := Project{Title: "Kitchen", Budget: decimal.NewFromInt(1000)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Project{
		{Title: "  "},
		{Title: strings.Repeat("x", 201)},
		{Title: "ok", Budget: decimal.NewFromInt(-1)},
		{Title: "ok", AmountPaid: decimal.NewFromInt(-1)},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if (Project{Title: "x"}).HasBudget() {
		t.Fatalf("zero budget means no budget")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Description: "Tiles",
		Quantity:    decimal.NewFromInt(2),
		Price:       decimal.RequireFromString("10.50"),
		Category:    CategoryMaterials,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !good.Amount().Equal(decimal.NewFromInt(21)) {
		t.Fatalf("expected amount 21, got %s", good.Amount())
	}

	bads := []Expense{
		{Description: "", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1), Category: CategoryOther},
		{Description: "a", Quantity: decimal.NewFromInt(-1), Price: decimal.NewFromInt(1), Category: CategoryOther},
		{Description: "a", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1), Category: CategoryOther},
		{Description: "a", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1), Category: ""},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryKey(t *testing.T) {
	id := uuid.New()
	c := Category{ID: id, Name: "Paint"}
	if c.Key() != CategoryKey(id.String()) {
		t.Fatalf("expected key to be the category id")
	}
	if err := (Category{}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrEmptyTitle, true},
		{fmt.Errorf("save: %w", ErrInvalidTaxRate), true},
		{Project{Title: strings.Repeat("x", 201)}.Validate(), true},
		{Job{PersonName: "A", Title: "B", Type: JobTypeOther, ScheduledDate: "2025-01-01", ScheduledTime: "10:00", ReminderEnabled: true, ReminderMinutesBefore: -1}.Validate(), true},
		{errors.New("disk full"), false},
		{nil, false},
	}
	for i, tt := range tests {
		if got := IsValidation(tt.err); got != tt.want {
			t.Errorf("case %d: IsValidation(%v) = %v, want %v", i, tt.err, got, tt.want)
		}
	}
}
