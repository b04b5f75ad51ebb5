package service

import "github.com/prestalink/lending-bot/internal/core/domain"

// Menu button labels. The router maps these back to actions, so the labels
// double as a command surface.
const (
	btnCheckLoan   = "🔍 Check Loan"
	btnBalance     = "💰 My Balance"
	btnLoans       = "📋 My Loans"
	btnActiveLoans = "📈 Active Loans"
	btnHistory     = "🧾 Loan History"
	btnPayments    = "💳 Payment Tracking"
	btnListUsers   = "👥 List Users"
	btnViewLogs    = "📜 Activity Logs"
	btnHelp        = "❓ Help"
	btnSignOut     = "🚪 Sign Out"
)

// MenuFor returns the role-specific reply keyboard attached to greetings
// and the welcome reply. Exactly one menu per role.
func MenuFor(role string) [][]string {
	switch role {
	case domain.RoleAdmin:
		return [][]string{
			{btnCheckLoan, btnActiveLoans},
			{btnPayments, btnListUsers},
			{btnViewLogs, btnHelp},
			{btnSignOut},
		}
	case domain.RoleLender:
		return [][]string{
			{btnCheckLoan, btnLoans},
			{btnActiveLoans, btnPayments},
			{btnHelp, btnSignOut},
		}
	case domain.RoleCustomer:
		return [][]string{
			{btnCheckLoan, btnBalance},
			{btnLoans, btnHistory},
			{btnHelp, btnSignOut},
		}
	default:
		return nil
	}
}
