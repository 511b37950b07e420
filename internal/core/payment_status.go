package core

import "github.com/shopspring/decimal"

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

type PaymentStatus string

// ProjectPaymentPatch is written when a payment is recorded on a project.
type ProjectPaymentPatch struct {
	AmountPaid decimal.Decimal
	Status     PaymentStatus
}

// IsValid returns true if the status is one of the known values.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartiallyPaid, PaymentPaid:
		return true
	default:
		return false
	}
}

// EffectiveProjectPaymentStatus derives a project's payment status from the
// amount paid so far and the project's total cost. A project with no cost is
// never paid; any positive payment on it counts as partial.
func EffectiveProjectPaymentStatus(amountPaid, totalCost decimal.Decimal) PaymentStatus {
	switch {
	case totalCost.IsPositive() && amountPaid.GreaterThanOrEqual(totalCost):
		return PaymentPaid
	case amountPaid.IsPositive():
		return PaymentPartiallyPaid
	default:
		return PaymentUnpaid
	}
}

// BalanceDue is totalCost - amountPaid. Overpayment yields a negative value.
func BalanceDue(totalCost, amountPaid decimal.Decimal) decimal.Decimal {
	return totalCost.Sub(amountPaid)
}

// RecordProjectPayment adds amount to what has been paid on a project and
// re-derives its payment status.
func RecordProjectPayment(amountPaid, totalCost, amount decimal.Decimal) (ProjectPaymentPatch, error) {
	if !amount.IsPositive() {
		return ProjectPaymentPatch{}, ErrInvalidAmount
	}
	paid := amountPaid.Add(amount)
	return ProjectPaymentPatch{
		AmountPaid: paid,
		Status:     EffectiveProjectPaymentStatus(paid, totalCost),
	}, nil
}
