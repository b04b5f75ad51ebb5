package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/core/domain"
	"github.com/prestalink/lending-bot/internal/core/format"
	"github.com/prestalink/lending-bot/internal/core/ports"
)

// Action names one routable operation. Callback payloads carry these
// values verbatim, so they are part of the button wire contract.
type Action string

const (
	ActionCheckLoan       Action = "check_loan"
	ActionBalance         Action = "balance"
	ActionLoans           Action = "loans"
	ActionActiveLoans     Action = "active_loans"
	ActionLoanHistory     Action = "loan_history"
	ActionPaymentTracking Action = "payment_tracking"
	ActionListUsers       Action = "list_users"
	ActionViewLogs        Action = "view_logs"
	ActionHelp            Action = "help"
)

type actionSpec struct {
	roles   []string
	handler func(r *Router, ctx context.Context, sess *domain.Session) error
}

// actions is the single permission table. Both entry surfaces (commands
// and button presses) resolve to an Action and pass through this map, so
// authorization cannot drift between them.
var actions = map[Action]actionSpec{
	ActionCheckLoan: {
		roles:   []string{domain.RoleCustomer, domain.RoleLender, domain.RoleAdmin},
		handler: (*Router).askCheckLoan,
	},
	ActionBalance: {
		roles:   []string{domain.RoleCustomer},
		handler: (*Router).showBalance,
	},
	ActionLoans: {
		roles:   []string{domain.RoleCustomer, domain.RoleLender},
		handler: (*Router).showLoans,
	},
	ActionActiveLoans: {
		roles:   []string{domain.RoleLender, domain.RoleAdmin},
		handler: (*Router).showActiveLoans,
	},
	ActionLoanHistory: {
		roles:   []string{domain.RoleCustomer},
		handler: (*Router).askHistoryLoan,
	},
	ActionPaymentTracking: {
		roles:   []string{domain.RoleLender, domain.RoleAdmin},
		handler: (*Router).askPaymentLoan,
	},
	ActionListUsers: {
		roles:   []string{domain.RoleAdmin},
		handler: (*Router).askUserRole,
	},
	ActionViewLogs: {
		roles:   []string{domain.RoleAdmin},
		handler: (*Router).askLogPeriod,
	},
	ActionHelp: {
		roles:   []string{domain.RoleCustomer, domain.RoleLender, domain.RoleAdmin},
		handler: (*Router).showHelp,
	},
}

// commandActions maps slash commands to actions.
var commandActions = map[string]Action{
	"/checkloan": ActionCheckLoan,
	"/balance":   ActionBalance,
	"/loans":     ActionLoans,
	"/active":    ActionActiveLoans,
	"/history":   ActionLoanHistory,
	"/payments":  ActionPaymentTracking,
	"/users":     ActionListUsers,
	"/logs":      ActionViewLogs,
	"/help":      ActionHelp,
}

// buttonActions maps reply-keyboard labels to the same actions.
var buttonActions = map[string]Action{
	btnCheckLoan:   ActionCheckLoan,
	btnBalance:     ActionBalance,
	btnLoans:       ActionLoans,
	btnActiveLoans: ActionActiveLoans,
	btnHistory:     ActionLoanHistory,
	btnPayments:    ActionPaymentTracking,
	btnListUsers:   ActionListUsers,
	btnViewLogs:    ActionViewLogs,
	btnHelp:        ActionHelp,
}

const (
	msgNotSignedIn   = "You're not signed in. Use /signin to sign in."
	msgNotAuthorized = "You're not allowed to do that."
	msgUnknown       = "I didn't understand that. Use /help to see what I can do."
	msgSignedOut     = "You've been signed out. Use /signin to sign in again."
	msgAskLoanID     = "Send me the loan ID (a number):"
	msgBadLoanID     = "That isn't a loan ID. Send a number, or /cancel:"
	msgAskRole       = "Which role do you want to list?"
	msgBadRole       = "Pick one of: customer, lender, admin — or /cancel."
	msgAskPeriod     = "Which period do you want logs for?"
	msgBadPeriod     = "Pick one of: today, week, month — or /cancel."
)

// Router is the role-gated front door: every inbound update, from either
// entry surface, goes through here exactly once.
type Router struct {
	sessions  ports.SessionStore
	creds     ports.CredentialStore
	queries   ports.LoanQueries
	auth      ports.AuthFlow
	messenger ports.Messenger
	log       zerolog.Logger
}

// NewRouter wires the router with its collaborators.
func NewRouter(
	sessions ports.SessionStore,
	creds ports.CredentialStore,
	queries ports.LoanQueries,
	auth ports.AuthFlow,
	messenger ports.Messenger,
	log zerolog.Logger,
) *Router {
	return &Router{
		sessions:  sessions,
		creds:     creds,
		queries:   queries,
		auth:      auth,
		messenger: messenger,
		log:       log,
	}
}

// Route handles one inbound update.
func (r *Router) Route(ctx context.Context, up ports.Update) error {
	sess := r.sessions.Get(up.ChatID)

	if up.IsCallback {
		return r.routeCallback(ctx, sess, up)
	}
	return r.routeMessage(ctx, sess, up)
}

func (r *Router) routeCallback(ctx context.Context, sess *domain.Session, up ports.Update) error {
	if err := r.messenger.Ack(ctx, up.CallbackID); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", sess.Identity).Msg("callback ack failed")
	}

	data := strings.TrimSpace(up.CallbackData)
	if isCancel(data) {
		return r.cancel(ctx, sess)
	}
	act := Action(data)
	if _, ok := actions[act]; !ok {
		return r.messenger.Send(ctx, sess.Identity, msgUnknown, nil)
	}
	return r.dispatch(ctx, sess, act)
}

func (r *Router) routeMessage(ctx context.Context, sess *domain.Session, up ports.Update) error {
	text := strings.TrimSpace(up.Text)

	// The cancel directive wins over everything, including a wizard step
	// that has not run yet and any pending prompt.
	if isCancel(text) {
		return r.cancel(ctx, sess)
	}

	if sess.AuthInProgress() {
		return r.auth.Step(ctx, sess, up)
	}

	switch strings.ToLower(firstWord(text)) {
	case "/start":
		return r.greet(ctx, sess)
	case "/signin", "/login":
		return r.auth.Begin(ctx, sess)
	case "/signout", "/logout":
		return r.signOut(ctx, sess)
	}
	if text == btnSignOut {
		return r.signOut(ctx, sess)
	}

	if act, ok := actionForText(text); ok {
		return r.dispatch(ctx, sess, act)
	}

	if sess.Prompt != domain.PromptNone && up.HasText {
		return r.promptReply(ctx, sess, text)
	}

	return r.messenger.Send(ctx, sess.Identity, msgUnknown, nil)
}

// actionForText resolves the command entry surface: a slash command or a
// menu button label.
func actionForText(text string) (Action, bool) {
	if act, ok := commandActions[strings.ToLower(firstWord(text))]; ok {
		return act, true
	}
	act, ok := buttonActions[text]
	return act, ok
}

func firstWord(text string) string {
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return text[:i]
	}
	return text
}

func isCancel(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "/cancel" || t == "cancel"
}

// cancel is the global abort: always accepted, regardless of
// authentication state, and idempotent.
func (r *Router) cancel(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptNone
	return r.auth.Cancel(ctx, sess)
}

// dispatch authorizes and runs one named action. Starting a new action
// replaces any pending prompt.
func (r *Router) dispatch(ctx context.Context, sess *domain.Session, act Action) error {
	spec, ok := actions[act]
	if !ok {
		return r.messenger.Send(ctx, sess.Identity, msgUnknown, nil)
	}

	if err := r.authorize(ctx, sess, spec.roles); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotSignedIn):
			return r.messenger.Send(ctx, sess.Identity, msgNotSignedIn, nil)
		case errors.Is(err, domain.ErrNotAuthorized):
			r.log.Info().
				Str("action", string(act)).
				Str("role", sess.Role).
				Int64("chat_id", sess.Identity).
				Msg("action denied")
			return r.messenger.Send(ctx, sess.Identity, msgNotAuthorized, nil)
		default:
			r.log.Error().Err(err).Str("action", string(act)).Msg("authorization check failed")
			return r.messenger.Send(ctx, sess.Identity, msgSystemError, nil)
		}
	}

	sess.Prompt = domain.PromptNone
	return spec.handler(r, ctx, sess)
}

// authorize checks sign-in and role membership. The role is resolved at
// most once per session: the first check does one credential store lookup
// and caches the case-folded result, every later check is a cache hit.
func (r *Router) authorize(ctx context.Context, sess *domain.Session, roles []string) error {
	if !sess.SignedIn() {
		return domain.ErrNotSignedIn
	}

	if sess.Role == "" {
		role, err := r.creds.FindRoleByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				// Account vanished underneath the session.
				sess.Reset()
				return domain.ErrNotSignedIn
			}
			return err
		}
		sess.Role = strings.ToLower(role)
	}

	for _, role := range roles {
		if sess.Role == role {
			return nil
		}
	}
	return domain.ErrNotAuthorized
}

// ── Greeting, sign-out, help ─────────────────────────────────────────────

func (r *Router) greet(ctx context.Context, sess *domain.Session) error {
	if sess.SignedIn() {
		return r.messenger.Send(ctx, sess.Identity,
			"Hello, "+sess.DisplayName+"! Pick an option below.",
			&ports.ReplyOptions{Menu: MenuFor(sess.Role)})
	}
	return r.messenger.Send(ctx, sess.Identity,
		"Welcome to the PrestaLink lending assistant. Use /signin to sign in.", nil)
}

func (r *Router) signOut(ctx context.Context, sess *domain.Session) error {
	if !sess.SignedIn() {
		return r.messenger.Send(ctx, sess.Identity, msgNotSignedIn, nil)
	}
	r.log.Info().Str("user_id", sess.UserID).Int64("chat_id", sess.Identity).Msg("signed out")
	r.sessions.Clear(sess.Identity)
	return r.messenger.Send(ctx, sess.Identity, msgSignedOut, &ports.ReplyOptions{RemoveMenu: true})
}

func (r *Router) showHelp(ctx context.Context, sess *domain.Session) error {
	return r.messenger.Send(ctx, sess.Identity, format.Help(sess.Role),
		&ports.ReplyOptions{Menu: MenuFor(sess.Role)})
}

// ── Prompt-opening handlers ──────────────────────────────────────────────

func (r *Router) askCheckLoan(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptCheckLoan
	return r.messenger.Send(ctx, sess.Identity, msgAskLoanID, &ports.ReplyOptions{ForceReply: true})
}

func (r *Router) askHistoryLoan(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptHistoryLoan
	return r.messenger.Send(ctx, sess.Identity, msgAskLoanID, &ports.ReplyOptions{ForceReply: true})
}

func (r *Router) askPaymentLoan(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptPaymentLoan
	return r.messenger.Send(ctx, sess.Identity, msgAskLoanID, &ports.ReplyOptions{ForceReply: true})
}

func (r *Router) askUserRole(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptUserRole
	return r.messenger.Send(ctx, sess.Identity, msgAskRole,
		&ports.ReplyOptions{Menu: [][]string{{domain.RoleCustomer, domain.RoleLender, domain.RoleAdmin}}})
}

func (r *Router) askLogPeriod(ctx context.Context, sess *domain.Session) error {
	sess.Prompt = domain.PromptLogPeriod
	return r.messenger.Send(ctx, sess.Identity, msgAskPeriod,
		&ports.ReplyOptions{Menu: [][]string{{string(domain.PeriodToday), string(domain.PeriodWeek), string(domain.PeriodMonth)}}})
}

// promptReply interprets a plain-text message as the answer to whichever
// one-shot prompt is pending. Invalid input re-issues the prompt instead
// of abandoning it.
func (r *Router) promptReply(ctx context.Context, sess *domain.Session, text string) error {
	switch sess.Prompt {
	case domain.PromptCheckLoan, domain.PromptHistoryLoan, domain.PromptPaymentLoan:
		loanID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || loanID <= 0 {
			return r.messenger.Send(ctx, sess.Identity, msgBadLoanID, &ports.ReplyOptions{ForceReply: true})
		}
		prompt := sess.Prompt
		sess.Prompt = domain.PromptNone
		if prompt == domain.PromptCheckLoan {
			return r.showLoan(ctx, sess, loanID)
		}
		return r.showPayments(ctx, sess, loanID)

	case domain.PromptUserRole:
		role := strings.ToLower(text)
		if !domain.ValidRole(role) {
			return r.messenger.Send(ctx, sess.Identity, msgBadRole,
				&ports.ReplyOptions{Menu: [][]string{{domain.RoleCustomer, domain.RoleLender, domain.RoleAdmin}}})
		}
		sess.Prompt = domain.PromptNone
		return r.showUsers(ctx, sess, role)

	case domain.PromptLogPeriod:
		period := strings.ToLower(text)
		if !domain.ValidPeriod(period) {
			return r.messenger.Send(ctx, sess.Identity, msgBadPeriod,
				&ports.ReplyOptions{Menu: [][]string{{string(domain.PeriodToday), string(domain.PeriodWeek), string(domain.PeriodMonth)}}})
		}
		sess.Prompt = domain.PromptNone
		return r.showLogs(ctx, sess, domain.LogPeriod(period))
	}
	return r.messenger.Send(ctx, sess.Identity, msgUnknown, nil)
}

// ── Query handlers ───────────────────────────────────────────────────────

// visibleLoan fetches a loan and applies the caller's visibility: customers
// see their own loans, lenders the loans they funded, admins everything.
// Loans outside the caller's scope read as not found.
func (r *Router) visibleLoan(ctx context.Context, sess *domain.Session, loanID int64) (*domain.Loan, error) {
	loan, err := r.queries.LoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	switch sess.Role {
	case domain.RoleCustomer:
		if loan.CustomerID != sess.DomainID {
			return nil, domain.ErrLoanNotFound
		}
	case domain.RoleLender:
		if loan.LenderID != sess.DomainID {
			return nil, domain.ErrLoanNotFound
		}
	}
	return loan, nil
}

func (r *Router) showLoan(ctx context.Context, sess *domain.Session, loanID int64) error {
	loan, err := r.visibleLoan(ctx, sess, loanID)
	if err != nil {
		return r.queryReply(ctx, sess, err, format.LoanNotFound(loanID))
	}
	return r.messenger.Send(ctx, sess.Identity, format.LoanDetail(loan), nil)
}

func (r *Router) showPayments(ctx context.Context, sess *domain.Session, loanID int64) error {
	if _, err := r.visibleLoan(ctx, sess, loanID); err != nil {
		return r.queryReply(ctx, sess, err, format.LoanNotFound(loanID))
	}
	payments, err := r.queries.PaymentsByLoan(ctx, loanID)
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.PaymentHistory(loanID, payments), nil)
}

func (r *Router) showBalance(ctx context.Context, sess *domain.Session) error {
	summary, err := r.queries.OutstandingBalance(ctx, sess.DomainID)
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.Balance(sess.DisplayName, summary), nil)
}

func (r *Router) showLoans(ctx context.Context, sess *domain.Session) error {
	var (
		loans []domain.Loan
		err   error
	)
	if sess.Role == domain.RoleLender {
		loans, err = r.queries.LoansByLender(ctx, sess.DomainID)
	} else {
		loans, err = r.queries.LoansByCustomer(ctx, sess.DomainID)
	}
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.LoanList("Your loans", loans), nil)
}

func (r *Router) showActiveLoans(ctx context.Context, sess *domain.Session) error {
	lenderID := ""
	if sess.Role == domain.RoleLender {
		lenderID = sess.DomainID
	}
	loans, err := r.queries.ActiveLoans(ctx, lenderID)
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.LoanList("Active loans", loans), nil)
}

func (r *Router) showUsers(ctx context.Context, sess *domain.Session, role string) error {
	users, err := r.queries.UsersByRole(ctx, role)
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.UserList(role, users), nil)
}

func (r *Router) showLogs(ctx context.Context, sess *domain.Session, period domain.LogPeriod) error {
	entries, err := r.queries.ActivityByPeriod(ctx, period)
	if err != nil {
		return r.queryReply(ctx, sess, err, "")
	}
	return r.messenger.Send(ctx, sess.Identity, format.ActivityLog(period, entries), nil)
}

// queryReply translates a query failure into a user-visible reply. A loan
// not-found gets notFoundMsg when provided; everything else is reported as
// a generic transient error without internal detail.
func (r *Router) queryReply(ctx context.Context, sess *domain.Session, err error, notFoundMsg string) error {
	if errors.Is(err, domain.ErrLoanNotFound) && notFoundMsg != "" {
		return r.messenger.Send(ctx, sess.Identity, notFoundMsg, nil)
	}
	r.log.Error().Err(err).Int64("chat_id", sess.Identity).Msg("domain query failed")
	return r.messenger.Send(ctx, sess.Identity, msgSystemError, nil)
}
