package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Legacy expense categories. Newer records reference a user-defined category
// id instead; both travel as a CategoryKey.
const (
	CategoryMaterials      CategoryKey = "Materials"
	CategoryLabor          CategoryKey = "Labor"
	CategoryMarketing      CategoryKey = "Marketing"
	CategoryEquipment      CategoryKey = "Equipment"
	CategoryTransportation CategoryKey = "Transportation"
	CategoryUtilities      CategoryKey = "Utilities"
	CategoryWedding        CategoryKey = "Wedding"
	CategoryOther          CategoryKey = "Other"
)

type (
	// CategoryKey identifies an expense category for aggregation. It is
	// either a legacy enum value or a category id; resolving it to a name
	// or colour happens outside the aggregator.
	CategoryKey string

	Date struct {
		time.Time
	}

	Project struct {
		ID         uuid.UUID
		UserID     string
		Title      string
		Budget     decimal.Decimal // zero means no budget set
		AmountPaid decimal.Decimal
		Status     PaymentStatus // last persisted value, informational only
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Expense is a single project line item.
	Expense struct {
		ID          uuid.UUID
		UserID      string
		ProjectID   uuid.UUID
		Description string
		Quantity    decimal.Decimal
		Price       decimal.Decimal
		Category    CategoryKey
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Category struct {
		ID        uuid.UUID
		UserID    string
		Name      string
		Color     string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("start date is after end date")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidTarget    = errors.New("target videos must be positive")

	ErrTitleTooLong       = errors.New("title too long (max 200 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// IsValidation reports whether err is a rejected input rather than a storage
// or transport failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidQuantity, ErrInvalidDate, ErrInvalidDateRange, ErrEmptyTitle,
		ErrEmptyDescription, ErrEmptyName, ErrEmptyCategory, ErrInvalidTarget,
		ErrTitleTooLong, ErrDescriptionTooLong, ErrEmptyVideoLink,
		ErrInvalidPlatform, ErrInvalidContractType, ErrEmptyCurrency,
		ErrInvalidTaxRate, ErrNegativeInvoiceNumber, ErrEmptyPersonName,
		ErrInvalidJobType, ErrInvalidStatus, ErrNegativeReminder,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > 200 {
		return ErrTitleTooLong
	}
	if p.Budget.IsNegative() || p.AmountPaid.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// HasBudget reports whether a budget has been set for the project.
func (p Project) HasBudget() bool {
	return p.Budget.IsPositive()
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if e.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if e.Price.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Amount is quantity * price.
func (e Expense) Amount() decimal.Decimal {
	return LineItemAmount(e)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Key returns the aggregation key for expenses filed under this category.
func (c Category) Key() CategoryKey {
	return CategoryKey(c.ID.String())
}
