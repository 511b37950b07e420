package export

import "github.com/shopspring/decimal"

// money marks a cell value to be written as a number with two decimals.
type money struct {
	decimal.Decimal
}
