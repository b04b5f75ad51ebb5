package domain

import (
	"errors"
	"time"
)

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanActive    LoanStatus = "active"
	LoanPaid      LoanStatus = "paid"
	LoanDefaulted LoanStatus = "defaulted"
)

var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUnrecognizedHash = errors.New("unrecognized password hash scheme")
var ErrNoLinkedEntity = errors.New("no linked entity for user")
var ErrLoanNotFound = errors.New("loan not found")
var ErrNotSignedIn = errors.New("not signed in")
var ErrNotAuthorized = errors.New("not authorized")

// Loan is a single lending agreement. Amounts are minor units (cents).
type Loan struct {
	ID             int64
	CustomerID     string
	LenderID       string
	CustomerName   string
	LenderName     string
	PrincipalCents int64
	InterestRate   float64
	TermMonths     int
	Status         LoanStatus
	StartDate      time.Time
	DueDate        time.Time
	PaidCents      int64
}

// OutstandingCents is what remains to be repaid on this loan.
func (l *Loan) OutstandingCents() int64 {
	rem := l.PrincipalCents - l.PaidCents
	if rem < 0 {
		return 0
	}
	return rem
}

// Payment is a single repayment against a loan.
type Payment struct {
	ID          int64
	LoanID      int64
	AmountCents int64
	Method      string
	PaidAt      time.Time
}

// BalanceSummary aggregates a customer's position across all their loans.
type BalanceSummary struct {
	LoanCount        int
	PrincipalCents   int64
	PaidCents        int64
	OutstandingCents int64
}

// LogPeriod is the time window of an activity-log query.
type LogPeriod string

const (
	PeriodToday LogPeriod = "today"
	PeriodWeek  LogPeriod = "week"
	PeriodMonth LogPeriod = "month"
)

// ValidPeriod reports whether p is a recognized log period.
func ValidPeriod(p string) bool {
	switch LogPeriod(p) {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// ActivityEntry is a single row of the audit trail.
type ActivityEntry struct {
	ID        int64
	UserID    string
	UserName  string
	Action    string
	Detail    string
	CreatedAt time.Time
}
