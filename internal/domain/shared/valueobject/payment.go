package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a customer settles a deposit.
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodBank  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMixed PaymentMethod = "MIXED"
)

// IsValid checks if the method is a known PaymentMethod
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodMixed:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (p PaymentMethod) String() string {
	return string(p)
}

// PaymentSplit is a value object describing how a total amount is divided
// between cash and bank transfer. It is immutable once constructed and the
// split must match the total exactly - no rounding tolerance.
type PaymentSplit struct {
	method PaymentMethod
	cash   decimal.Decimal
	bank   decimal.Decimal
}

// NewPaymentSplit builds a PaymentSplit and verifies it against total.
func NewPaymentSplit(method PaymentMethod, cash, bank, total decimal.Decimal) (PaymentSplit, error) {
	if !method.IsValid() {
		return PaymentSplit{}, fmt.Errorf("unknown payment method: %s", method)
	}
	if cash.IsNegative() || bank.IsNegative() {
		return PaymentSplit{}, fmt.Errorf("payment amounts cannot be negative")
	}

	switch method {
	case PaymentMethodCash:
		if !bank.IsZero() {
			return PaymentSplit{}, fmt.Errorf("cash payment cannot carry a bank transfer amount")
		}
		if !cash.Equal(total) {
			return PaymentSplit{}, fmt.Errorf("cash amount %s does not equal total %s", cash, total)
		}
	case PaymentMethodBank:
		if !cash.IsZero() {
			return PaymentSplit{}, fmt.Errorf("bank payment cannot carry a cash amount")
		}
		if !bank.Equal(total) {
			return PaymentSplit{}, fmt.Errorf("bank transfer amount %s does not equal total %s", bank, total)
		}
	case PaymentMethodMixed:
		if !cash.Add(bank).Equal(total) {
			return PaymentSplit{}, fmt.Errorf("cash %s + bank transfer %s does not equal total %s", cash, bank, total)
		}
	}

	return PaymentSplit{method: method, cash: cash, bank: bank}, nil
}

// Method returns the payment method
func (p PaymentSplit) Method() PaymentMethod {
	return p.method
}

// Cash returns the cash portion
func (p PaymentSplit) Cash() decimal.Decimal {
	return p.cash
}

// Bank returns the bank transfer portion
func (p PaymentSplit) Bank() decimal.Decimal {
	return p.bank
}

// Total returns cash + bank
func (p PaymentSplit) Total() decimal.Decimal {
	return p.cash.Add(p.bank)
}
