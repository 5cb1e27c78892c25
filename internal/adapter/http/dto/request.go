package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/usecase"
)

// SubmitChequeRequest represents a cheque presented for clearing. The amount
// is in integer minor units; the issue date is a calendar day.
type SubmitChequeRequest struct {
	RoutingCode   string `json:"routing_code"`
	AccountNumber string `json:"account_number"`
	SerialNumber  string `json:"serial_number"`
	PayerAccount  string `json:"payer_account"`
	PayeeAccount  string `json:"payee_account"`
	AmountMinor   int64  `json:"amount_minor"`
	IssueDate     string `json:"issue_date"`
}

// ToUseCaseInput converts to use case input.
func (r *SubmitChequeRequest) ToUseCaseInput() (usecase.SubmitChequeInput, error) {
	issueDate, err := time.Parse("2006-01-02", r.IssueDate)
	if err != nil {
		return usecase.SubmitChequeInput{}, err
	}

	return usecase.SubmitChequeInput{
		RoutingCode:   r.RoutingCode,
		AccountNumber: r.AccountNumber,
		SerialNumber:  r.SerialNumber,
		PayerAccount:  r.PayerAccount,
		PayeeAccount:  r.PayeeAccount,
		AmountMinor:   r.AmountMinor,
		IssueDate:     issueDate,
	}, nil
}

// CreateAccountRequest represents a request to register an account.
type CreateAccountRequest struct {
	AccountNumber string          `json:"account_number"`
	RoutingCode   string          `json:"routing_code"`
	HolderName    string          `json:"holder_name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		AccountNumber: r.AccountNumber,
		RoutingCode:   r.RoutingCode,
		HolderName:    r.HolderName,
		Email:         r.Email,
		Phone:         r.Phone,
		Balance:       r.Balance,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
