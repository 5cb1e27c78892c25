package domain

import (
	"regexp"
	"time"
)

// ViolationCode identifies a single validation failure. Violations are data:
// the clearing state machine decides disposition from the returned codes.
type ViolationCode string

const (
	ViolationAmountNotPositive    ViolationCode = "amount_not_positive"
	ViolationAmountExceedsCeiling ViolationCode = "amount_exceeds_ceiling"
	ViolationDailyCeilingExceeded ViolationCode = "payer_daily_ceiling_exceeded"
	ViolationIssueDateStale       ViolationCode = "issue_date_stale"
	ViolationIssueDateFuture      ViolationCode = "issue_date_future"
	ViolationInvalidRoutingCode   ViolationCode = "invalid_routing_code"
	ViolationInvalidAccountNumber ViolationCode = "invalid_account_number"
	ViolationInvalidSerialNumber  ViolationCode = "invalid_serial_number"
	ViolationInvalidPayerAccount  ViolationCode = "invalid_payer_account"
	ViolationInvalidPayeeAccount  ViolationCode = "invalid_payee_account"
	ViolationSameAccount          ViolationCode = "payer_equals_payee"
	ViolationDuplicateInstrument  ViolationCode = "duplicate_instrument"
)

// Identifier formats. Routing codes follow the IFSC shape the original bank
// feed uses: four letters, a zero, six alphanumerics.
var (
	routingCodeRe   = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountNumberRe = regexp.MustCompile(`^[0-9]{9,18}$`)
	serialNumberRe  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Limits is the configured validation surface.
type Limits struct {
	MaxAmountMinor     int64
	PayerDailyCapMinor int64
	IssueDateMaxAge    time.Duration
	IssueDateMaxFuture time.Duration
}

// History carries the ledger-derived facts validation needs. The engine
// itself stays pure; callers query the ledger store and pass the results in.
type History struct {
	// PayerDayTotalMinor is the payer's aggregate of non-rejected cheques
	// submitted the same day, excluding the cheque under validation.
	PayerDayTotalMinor int64
	// TerminalDuplicate is true when a terminal record exists for the same
	// natural key with a different payload hash.
	TerminalDuplicate bool
}

// ValidationResult carries zero or more violations.
type ValidationResult struct {
	Violations []ViolationCode
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool {
	return len(r.Violations) == 0
}

// Codes returns the violations as plain strings for ledger storage.
func (r ValidationResult) Codes() []string {
	codes := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		codes = append(codes, string(v))
	}
	return codes
}

// ValidateCheque runs the validation categories in order: structural, then
// limits, then duplicate detection. The first failing category short-circuits
// the rest, but all violations within a category are accumulated.
func ValidateCheque(c *Cheque, now time.Time, hist History, limits Limits) ValidationResult {
	if structural := validateStructural(c, now, limits); len(structural) > 0 {
		return ValidationResult{Violations: structural}
	}

	if limit := validateLimits(c, hist, limits); len(limit) > 0 {
		return ValidationResult{Violations: limit}
	}

	if hist.TerminalDuplicate {
		return ValidationResult{Violations: []ViolationCode{ViolationDuplicateInstrument}}
	}

	return ValidationResult{}
}

func validateStructural(c *Cheque, now time.Time, limits Limits) []ViolationCode {
	var violations []ViolationCode

	if c.AmountMinor <= 0 {
		violations = append(violations, ViolationAmountNotPositive)
	}

	if !routingCodeRe.MatchString(c.RoutingCode) {
		violations = append(violations, ViolationInvalidRoutingCode)
	}

	if !accountNumberRe.MatchString(c.AccountNumber) {
		violations = append(violations, ViolationInvalidAccountNumber)
	}

	if !serialNumberRe.MatchString(c.SerialNumber) {
		violations = append(violations, ViolationInvalidSerialNumber)
	}

	if !accountNumberRe.MatchString(c.PayerAccount) {
		violations = append(violations, ViolationInvalidPayerAccount)
	}

	if !accountNumberRe.MatchString(c.PayeeAccount) {
		violations = append(violations, ViolationInvalidPayeeAccount)
	}

	if c.PayerAccount != "" && c.PayerAccount == c.PayeeAccount {
		violations = append(violations, ViolationSameAccount)
	}

	if limits.IssueDateMaxAge > 0 && c.IssueDate.Before(now.Add(-limits.IssueDateMaxAge)) {
		violations = append(violations, ViolationIssueDateStale)
	}

	if limits.IssueDateMaxFuture >= 0 && c.IssueDate.After(now.Add(limits.IssueDateMaxFuture)) {
		violations = append(violations, ViolationIssueDateFuture)
	}

	return violations
}

func validateLimits(c *Cheque, hist History, limits Limits) []ViolationCode {
	var violations []ViolationCode

	if limits.MaxAmountMinor > 0 && c.AmountMinor > limits.MaxAmountMinor {
		violations = append(violations, ViolationAmountExceedsCeiling)
	}

	if limits.PayerDailyCapMinor > 0 && hist.PayerDayTotalMinor+c.AmountMinor > limits.PayerDailyCapMinor {
		violations = append(violations, ViolationDailyCeilingExceeded)
	}

	return violations
}
