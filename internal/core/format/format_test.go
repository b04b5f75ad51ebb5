package format

import (
	"strings"
	"testing"
	"time"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{125000, "$1,250.00"},
		{100000000, "$1,000,000.00"},
		{-9950, "-$99.50"},
	}
	for _, tc := range cases {
		if got := Money(tc.cents); got != tc.want {
			t.Errorf("Money(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestLoanDetail(t *testing.T) {
	loan := &domain.Loan{
		ID:             12,
		CustomerName:   "Alice",
		LenderName:     "Acme Capital",
		PrincipalCents: 500_000,
		PaidCents:      125_000,
		InterestRate:   4.5,
		TermMonths:     12,
		Status:         domain.LoanActive,
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	out := LoanDetail(loan)
	for _, want := range []string{"Loan #12", "ACTIVE", "Alice", "Acme Capital", "$5,000.00", "$3,750.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("loan detail missing %q:\n%s", want, out)
		}
	}
}

func TestLoanList_Empty(t *testing.T) {
	if out := LoanList("Your loans", nil); !strings.Contains(out, "No loans") {
		t.Fatalf("empty list should say so, got %q", out)
	}
}

func TestBalance(t *testing.T) {
	out := Balance("Alice", &domain.BalanceSummary{
		LoanCount:        2,
		PrincipalCents:   1_000_000,
		PaidCents:        400_000,
		OutstandingCents: 600_000,
	})
	for _, want := range []string{"Alice", "Loans: 2", "$10,000.00", "$6,000.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("balance missing %q:\n%s", want, out)
		}
	}

	empty := Balance("Bob", &domain.BalanceSummary{})
	if !strings.Contains(empty, "no loans") {
		t.Fatalf("zero loans should read friendly, got %q", empty)
	}
}

func TestPaymentHistory_Total(t *testing.T) {
	out := PaymentHistory(3, []domain.Payment{
		{LoanID: 3, AmountCents: 10_000, Method: "card", PaidAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{LoanID: 3, AmountCents: 15_000, Method: "transfer", PaidAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	if !strings.Contains(out, "Total: $250.00") {
		t.Fatalf("expected summed total, got:\n%s", out)
	}

	if out := PaymentHistory(3, nil); !strings.Contains(out, "No payments") {
		t.Fatalf("empty history should say so, got %q", out)
	}
}

func TestHelp_PerRole(t *testing.T) {
	customer := Help(domain.RoleCustomer)
	if !strings.Contains(customer, "/balance") || strings.Contains(customer, "/users") {
		t.Fatalf("customer help wrong:\n%s", customer)
	}
	admin := Help(domain.RoleAdmin)
	if !strings.Contains(admin, "/users") || !strings.Contains(admin, "/logs") {
		t.Fatalf("admin help wrong:\n%s", admin)
	}
}
