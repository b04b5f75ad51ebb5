package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

// LoanRepository implements ports.LoanQueries against the lending
// database. Strictly read-only: every statement is a SELECT.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository wraps the given pool.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `
	l.id, l.customer_id, l.lender_id, c.name, le.name,
	l.principal_cents, l.interest_rate, l.term_months, l.status,
	l.start_date, l.due_date,
	COALESCE((SELECT SUM(p.amount_cents) FROM payments p WHERE p.loan_id = l.id), 0)`

const loanFrom = `
	FROM loans l
	JOIN customers c ON c.id = l.customer_id
	JOIN lenders le ON le.id = l.lender_id`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.ID, &l.CustomerID, &l.LenderID, &l.CustomerName, &l.LenderName,
		&l.PrincipalCents, &l.InterestRate, &l.TermMonths, &l.Status,
		&l.StartDate, &l.DueDate, &l.PaidCents,
	)
	return &l, err
}

func (r *LoanRepository) LoanByID(ctx context.Context, loanID int64) (*domain.Loan, error) {
	query := `SELECT` + loanColumns + loanFrom + ` WHERE l.id = $1`
	loan, err := scanLoan(r.pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("loan by id: %w", err)
	}
	return loan, nil
}

func (r *LoanRepository) OutstandingBalance(ctx context.Context, customerID string) (*domain.BalanceSummary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(l.principal_cents), 0),
		       COALESCE(SUM(paid.total), 0)
		FROM loans l
		LEFT JOIN LATERAL (
			SELECT SUM(p.amount_cents) AS total FROM payments p WHERE p.loan_id = l.id
		) paid ON true
		WHERE l.customer_id = $1`

	var s domain.BalanceSummary
	err := r.pool.QueryRow(ctx, query, customerID).Scan(&s.LoanCount, &s.PrincipalCents, &s.PaidCents)
	if err != nil {
		return nil, fmt.Errorf("outstanding balance: %w", err)
	}
	s.OutstandingCents = s.PrincipalCents - s.PaidCents
	if s.OutstandingCents < 0 {
		s.OutstandingCents = 0
	}
	return &s, nil
}

func (r *LoanRepository) LoansByCustomer(ctx context.Context, customerID string) ([]domain.Loan, error) {
	query := `SELECT` + loanColumns + loanFrom + ` WHERE l.customer_id = $1 ORDER BY l.id`
	return r.queryLoans(ctx, query, customerID)
}

func (r *LoanRepository) LoansByLender(ctx context.Context, lenderID string) ([]domain.Loan, error) {
	query := `SELECT` + loanColumns + loanFrom + ` WHERE l.lender_id = $1 ORDER BY l.id`
	return r.queryLoans(ctx, query, lenderID)
}

func (r *LoanRepository) ActiveLoans(ctx context.Context, lenderID string) ([]domain.Loan, error) {
	if lenderID == "" {
		query := `SELECT` + loanColumns + loanFrom + ` WHERE l.status = 'active' ORDER BY l.id`
		return r.queryLoans(ctx, query)
	}
	query := `SELECT` + loanColumns + loanFrom + ` WHERE l.status = 'active' AND l.lender_id = $1 ORDER BY l.id`
	return r.queryLoans(ctx, query, lenderID)
}

func (r *LoanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

func (r *LoanRepository) PaymentsByLoan(ctx context.Context, loanID int64) ([]domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount_cents, method, paid_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY paid_at DESC`

	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("payments by loan: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.AmountCents, &p.Method, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments by loan: %w", err)
	}
	return payments, nil
}

func (r *LoanRepository) UsersByRole(ctx context.Context, role string) ([]domain.UserSummary, error) {
	query := `
		SELECT user_id, name, email, role
		FROM users
		WHERE role = $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	defer rows.Close()

	var users []domain.UserSummary
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.UserID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	return users, nil
}

func (r *LoanRepository) ActivityByPeriod(ctx context.Context, period domain.LogPeriod) ([]domain.ActivityEntry, error) {
	query := `
		SELECT a.id, a.user_id, COALESCE(u.name, a.user_id), a.action, COALESCE(a.detail, ''), a.created_at
		FROM activity_log a
		LEFT JOIN users u ON u.user_id = a.user_id
		WHERE a.created_at >= ` + periodCutoff(period) + `
		ORDER BY a.created_at DESC
		LIMIT 100`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("activity by period: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activity by period: %w", err)
	}
	return entries, nil
}

// periodCutoff maps a validated LogPeriod to a SQL expression. Periods are
// an enum checked by the router, so this never sees free-form input.
func periodCutoff(period domain.LogPeriod) string {
	switch period {
	case domain.PeriodToday:
		return `date_trunc('day', now())`
	case domain.PeriodWeek:
		return `now() - interval '7 days'`
	default:
		return `now() - interval '30 days'`
	}
}
