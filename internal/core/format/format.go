// Package format turns query results into the text blocks the bot sends.
// Every function is pure: no I/O, no state, strings in and out.
package format

import (
	"fmt"
	"strings"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

const dateLayout = "02 Jan 2006"

// Money renders minor units as a dollar amount, e.g. 125000 → "$1,250.00".
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	return fmt.Sprintf("%s$%s.%02d", sign, group(whole), frac)
}

// group inserts thousands separators into a non-negative integer.
func group(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// LoanNotFound is the reply for a loan id the caller cannot see.
func LoanNotFound(loanID int64) string {
	return fmt.Sprintf("No loan found with ID %d.", loanID)
}

// LoanDetail renders one loan in full.
func LoanDetail(l *domain.Loan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loan #%d — %s\n", l.ID, strings.ToUpper(string(l.Status)))
	fmt.Fprintf(&b, "Customer: %s\n", l.CustomerName)
	fmt.Fprintf(&b, "Lender: %s\n", l.LenderName)
	fmt.Fprintf(&b, "Principal: %s at %.2f%% over %d months\n", Money(l.PrincipalCents), l.InterestRate, l.TermMonths)
	fmt.Fprintf(&b, "Paid: %s · Outstanding: %s\n", Money(l.PaidCents), Money(l.OutstandingCents()))
	fmt.Fprintf(&b, "Started: %s · Due: %s", l.StartDate.Format(dateLayout), l.DueDate.Format(dateLayout))
	return b.String()
}

// LoanList renders a titled, one-line-per-loan listing.
func LoanList(title string, loans []domain.Loan) string {
	if len(loans) == 0 {
		return "No loans to show."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", title, len(loans))
	for _, l := range loans {
		fmt.Fprintf(&b, "#%d · %s · %s · outstanding %s\n",
			l.ID, l.CustomerName, l.Status, Money(l.OutstandingCents()))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Balance renders a customer's aggregate position.
func Balance(name string, s *domain.BalanceSummary) string {
	if s.LoanCount == 0 {
		return "You have no loans on record."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Balance for %s\n", name)
	fmt.Fprintf(&b, "Loans: %d\n", s.LoanCount)
	fmt.Fprintf(&b, "Borrowed: %s\n", Money(s.PrincipalCents))
	fmt.Fprintf(&b, "Repaid: %s\n", Money(s.PaidCents))
	fmt.Fprintf(&b, "Outstanding: %s", Money(s.OutstandingCents))
	return b.String()
}

// PaymentHistory renders the repayments against one loan.
func PaymentHistory(loanID int64, payments []domain.Payment) string {
	if len(payments) == 0 {
		return fmt.Sprintf("No payments recorded for loan #%d.", loanID)
	}
	var b strings.Builder
	var total int64
	fmt.Fprintf(&b, "Payments for loan #%d:\n", loanID)
	for _, p := range payments {
		fmt.Fprintf(&b, "%s · %s (%s)\n", p.PaidAt.Format(dateLayout), Money(p.AmountCents), p.Method)
		total += p.AmountCents
	}
	fmt.Fprintf(&b, "Total: %s", Money(total))
	return b.String()
}

// UserList renders the admin user listing for one role.
func UserList(role string, users []domain.UserSummary) string {
	if len(users) == 0 {
		return fmt.Sprintf("No %s accounts found.", role)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s accounts (%d):\n", capitalize(role), len(users))
	for _, u := range users {
		fmt.Fprintf(&b, "%s — %s\n", u.Name, u.Email)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ActivityLog renders audit entries for one period.
func ActivityLog(period domain.LogPeriod, entries []domain.ActivityEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No activity recorded for this %s.", periodNoun(period))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Activity (%s, %d entries):\n", period, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%s · %s · %s", e.CreatedAt.Format("02 Jan 15:04"), e.UserName, e.Action)
		if e.Detail != "" {
			fmt.Fprintf(&b, " — %s", e.Detail)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func periodNoun(p domain.LogPeriod) string {
	switch p {
	case domain.PeriodToday:
		return "day"
	case domain.PeriodWeek:
		return "week"
	default:
		return "month"
	}
}

// Help renders the command overview for a role.
func Help(role string) string {
	var b strings.Builder
	b.WriteString("Here's what you can do:\n")
	b.WriteString("/checkloan — look up a loan by ID\n")
	switch role {
	case domain.RoleCustomer:
		b.WriteString("/balance — your outstanding balance\n")
		b.WriteString("/loans — your loans\n")
		b.WriteString("/history — payment history for a loan\n")
	case domain.RoleLender:
		b.WriteString("/loans — loans you funded\n")
		b.WriteString("/active — your active loans\n")
		b.WriteString("/payments — payment tracking for a loan\n")
	case domain.RoleAdmin:
		b.WriteString("/active — all active loans\n")
		b.WriteString("/payments — payment tracking for a loan\n")
		b.WriteString("/users — list accounts by role\n")
		b.WriteString("/logs — activity logs by period\n")
	}
	b.WriteString("/signout — sign out\n")
	b.WriteString("/cancel — abort whatever is in progress")
	return b.String()
}
