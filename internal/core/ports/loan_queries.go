package ports

import (
	"context"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

// LoanQueries is the read-only reporting collaborator. The bot never
// mutates lending data.
type LoanQueries interface {
	// LoanByID returns one loan, or domain.ErrLoanNotFound.
	LoanByID(ctx context.Context, loanID int64) (*domain.Loan, error)

	// OutstandingBalance aggregates a customer's position across all loans.
	OutstandingBalance(ctx context.Context, customerID string) (*domain.BalanceSummary, error)

	// LoansByCustomer lists every loan held by a customer.
	LoansByCustomer(ctx context.Context, customerID string) ([]domain.Loan, error)

	// LoansByLender lists every loan funded by a lender.
	LoansByLender(ctx context.Context, lenderID string) ([]domain.Loan, error)

	// ActiveLoans lists loans in the active state. An empty lenderID means
	// no lender filter (admin view).
	ActiveLoans(ctx context.Context, lenderID string) ([]domain.Loan, error)

	// PaymentsByLoan lists the repayment history of one loan, newest first.
	PaymentsByLoan(ctx context.Context, loanID int64) ([]domain.Payment, error)

	// UsersByRole lists accounts holding the given role.
	UsersByRole(ctx context.Context, role string) ([]domain.UserSummary, error)

	// ActivityByPeriod lists audit-trail entries within the period.
	ActivityByPeriod(ctx context.Context, period domain.LogPeriod) ([]domain.ActivityEntry, error)
}
