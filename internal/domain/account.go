package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered bank account the clearing core can debit or credit
// when a cheque settles or is reversed. Cheque amounts stay in integer minor
// units; the registry balance is decimal because upstream statements are.
type Account struct {
	ID            string
	AccountNumber string
	RoutingCode   string
	HolderName    string
	Email         string
	Phone         string
	Balance       decimal.Decimal
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateDebit checks if the account can cover amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// MinorToDecimal converts integer minor units to a decimal major amount.
func MinorToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
