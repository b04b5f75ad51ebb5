package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/core/domain"
	"github.com/prestalink/lending-bot/internal/core/ports"
)

type stubQueries struct {
	loans    map[int64]*domain.Loan
	payments map[int64][]domain.Payment
	users    map[string][]domain.UserSummary
	activity []domain.ActivityEntry
	calls    int
}

func newStubQueries() *stubQueries {
	return &stubQueries{
		loans:    make(map[int64]*domain.Loan),
		payments: make(map[int64][]domain.Payment),
		users:    make(map[string][]domain.UserSummary),
	}
}

func (q *stubQueries) LoanByID(_ context.Context, loanID int64) (*domain.Loan, error) {
	q.calls++
	loan, ok := q.loans[loanID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

func (q *stubQueries) OutstandingBalance(_ context.Context, customerID string) (*domain.BalanceSummary, error) {
	q.calls++
	summary := &domain.BalanceSummary{}
	for _, l := range q.loans {
		if l.CustomerID == customerID {
			summary.LoanCount++
			summary.PrincipalCents += l.PrincipalCents
			summary.PaidCents += l.PaidCents
			summary.OutstandingCents += l.OutstandingCents()
		}
	}
	return summary, nil
}

func (q *stubQueries) LoansByCustomer(_ context.Context, customerID string) ([]domain.Loan, error) {
	q.calls++
	var out []domain.Loan
	for _, l := range q.loans {
		if l.CustomerID == customerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (q *stubQueries) LoansByLender(_ context.Context, lenderID string) ([]domain.Loan, error) {
	q.calls++
	var out []domain.Loan
	for _, l := range q.loans {
		if l.LenderID == lenderID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (q *stubQueries) ActiveLoans(_ context.Context, lenderID string) ([]domain.Loan, error) {
	q.calls++
	var out []domain.Loan
	for _, l := range q.loans {
		if l.Status == domain.LoanActive && (lenderID == "" || l.LenderID == lenderID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (q *stubQueries) PaymentsByLoan(_ context.Context, loanID int64) ([]domain.Payment, error) {
	q.calls++
	return q.payments[loanID], nil
}

func (q *stubQueries) UsersByRole(_ context.Context, role string) ([]domain.UserSummary, error) {
	q.calls++
	return q.users[role], nil
}

func (q *stubQueries) ActivityByPeriod(_ context.Context, _ domain.LogPeriod) ([]domain.ActivityEntry, error) {
	q.calls++
	return q.activity, nil
}

type routerFixture struct {
	router   *Router
	sessions *SessionStore
	creds    *stubCreds
	queries  *stubQueries
	msg      *stubMessenger
}

func newRouterFixture() *routerFixture {
	creds := newStubCreds()
	queries := newStubQueries()
	msg := &stubMessenger{}
	sessions := NewSessionStore()
	auth := NewAuthService(creds, msg, zerolog.Nop())
	return &routerFixture{
		router:   NewRouter(sessions, creds, queries, auth, msg, zerolog.Nop()),
		sessions: sessions,
		creds:    creds,
		queries:  queries,
		msg:      msg,
	}
}

func (f *routerFixture) signedIn(identity int64, role string) *domain.Session {
	sess := f.sessions.Get(identity)
	sess.UserID = "u-" + role
	sess.Role = role
	sess.DomainID = "d-" + role
	sess.DisplayName = strings.ToUpper(role[:1]) + role[1:]
	return sess
}

func (f *routerFixture) text(identity int64, text string) error {
	return f.router.Route(context.Background(), ports.Update{
		ChatID: identity, MessageID: 1, Text: text, HasText: true,
	})
}

func (f *routerFixture) button(identity int64, data string) error {
	return f.router.Route(context.Background(), ports.Update{
		ChatID: identity, IsCallback: true, CallbackID: "cb1", CallbackData: data,
	})
}

func seedLoan(f *routerFixture, id int64, customerID, lenderID string, status domain.LoanStatus) {
	f.queries.loans[id] = &domain.Loan{
		ID:             id,
		CustomerID:     customerID,
		LenderID:       lenderID,
		CustomerName:   "Some Customer",
		LenderName:     "Some Lender",
		PrincipalCents: 500_000,
		PaidCents:      100_000,
		InterestRate:   4.5,
		TermMonths:     12,
		Status:         status,
		StartDate:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

// ── Authorization gate ───────────────────────────────────────────────────

func TestRouter_UnauthenticatedCommand(t *testing.T) {
	f := newRouterFixture()
	if err := f.text(1, "/loans"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !strings.Contains(f.msg.last().text, "not signed in") {
		t.Fatalf("expected not-signed-in reply, got %q", f.msg.last().text)
	}
	if f.queries.calls != 0 {
		t.Fatalf("no query may run for an unauthenticated caller")
	}
}

func TestRouter_CustomerDeniedAdminAction(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleCustomer)
	if err := f.text(1, "/users"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !strings.Contains(f.msg.last().text, "not allowed") {
		t.Fatalf("expected unauthorized reply, got %q", f.msg.last().text)
	}
	if f.queries.calls != 0 {
		t.Fatalf("denied action must not reach the query service")
	}
}

func TestRouter_RoleCacheSingleLookup(t *testing.T) {
	f := newRouterFixture()
	sess := f.sessions.Get(1)
	sess.UserID = "u1"
	sess.DomainID = "c9"
	f.creds.roles["u1"] = "Customer" // store returns mixed case

	if err := f.text(1, "/balance"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if f.creds.roleLookups != 1 {
		t.Fatalf("first check should resolve the role once, did %d lookups", f.creds.roleLookups)
	}
	if sess.Role != "customer" {
		t.Fatalf("cached role should be case-folded, got %q", sess.Role)
	}

	if err := f.text(1, "/balance"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if f.creds.roleLookups != 1 {
		t.Fatalf("second check must be a cache hit, did %d lookups", f.creds.roleLookups)
	}
}

func TestRouter_VanishedAccount(t *testing.T) {
	f := newRouterFixture()
	sess := f.sessions.Get(1)
	sess.UserID = "ghost" // no credential record behind it

	if err := f.text(1, "/loans"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !strings.Contains(f.msg.last().text, "not signed in") {
		t.Fatalf("vanished account must read as unauthenticated, got %q", f.msg.last().text)
	}
	if sess.SignedIn() {
		t.Fatalf("session must be reset when the account is gone")
	}
}

func TestRouter_CrossSurfaceParity(t *testing.T) {
	// For every action, the command surface and the button surface must
	// make the identical permission decision for the same session.
	commandFor := map[Action]string{}
	for cmd, act := range commandActions {
		commandFor[act] = cmd
	}

	for act := range actions {
		for _, role := range []string{domain.RoleCustomer, domain.RoleLender, domain.RoleAdmin} {
			viaCommand := newRouterFixture()
			viaCommand.signedIn(1, role)
			if err := viaCommand.text(1, commandFor[act]); err != nil {
				t.Fatalf("%s via command: %v", act, err)
			}

			viaButton := newRouterFixture()
			viaButton.signedIn(1, role)
			if err := viaButton.button(1, string(act)); err != nil {
				t.Fatalf("%s via button: %v", act, err)
			}

			cmdDenied := strings.Contains(viaCommand.msg.last().text, "not allowed")
			btnDenied := strings.Contains(viaButton.msg.last().text, "not allowed")
			if cmdDenied != btnDenied {
				t.Errorf("action %s, role %s: command denied=%v but button denied=%v",
					act, role, cmdDenied, btnDenied)
			}
		}
	}
}

func TestRouter_MenuButtonsResolve(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleCustomer)
	if err := f.text(1, btnBalance); err != nil {
		t.Fatalf("route: %v", err)
	}
	if f.queries.calls != 1 {
		t.Fatalf("menu button should dispatch the balance query")
	}
}

// ── Wizard integration ───────────────────────────────────────────────────

func TestRouter_CancelDuringPasswordStep(t *testing.T) {
	f := newRouterFixture()
	f.creds.byEmail["alice@example.com"] = &domain.Credential{
		UserID: "u1", PasswordHash: mustHash(t, "s3cret"), Role: "customer",
	}
	f.creds.entities["u1"] = &domain.LinkedEntity{DomainID: "c9", DisplayName: "Alice"}

	_ = f.text(1, "/signin")
	_ = f.text(1, "alice@example.com")

	sess := f.sessions.Get(1)
	if sess.AuthState != domain.AuthAwaitPassword {
		t.Fatalf("setup: expected AWAIT_PASSWORD")
	}

	if err := f.text(1, "/cancel"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sess.AuthState != domain.AuthIdle || sess.Pending != nil {
		t.Fatalf("cancel must purge the wizard, state=%v pending=%v", sess.AuthState, sess.Pending)
	}
	if sess.SignedIn() {
		t.Fatalf("cancel must not authenticate")
	}
	if !strings.Contains(f.msg.last().text, "Cancelled") {
		t.Fatalf("expected cancellation acknowledgment, got %q", f.msg.last().text)
	}
}

func TestRouter_TextAfterFailedSignInIsOrdinary(t *testing.T) {
	f := newRouterFixture()
	f.creds.byEmail["alice@example.com"] = &domain.Credential{
		UserID: "u1", PasswordHash: mustHash(t, "s3cret"), Role: "customer",
	}

	_ = f.text(1, "/signin")
	_ = f.text(1, "alice@example.com")
	_ = f.text(1, "wrong-password")

	sess := f.sessions.Get(1)
	if sess.AuthInProgress() {
		t.Fatalf("failed sign-in must close the wizard")
	}

	// The next message is not a password attempt; it falls through to the
	// ordinary unauthenticated path.
	if err := f.text(1, "another-try"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if !strings.Contains(f.msg.last().text, "didn't understand") {
		t.Fatalf("expected ordinary unknown-command reply, got %q", f.msg.last().text)
	}
}

func TestRouter_SignInCommandRestartsWizard(t *testing.T) {
	f := newRouterFixture()
	_ = f.text(1, "/signin")
	sess := f.sessions.Get(1)
	sess.Pending = &domain.PendingAuth{Email: "stale@example.com"}

	// Re-entering the wizard discards the stale scratch.
	sess.AuthState = domain.AuthIdle
	if err := f.text(1, "/signin"); err != nil {
		t.Fatalf("route: %v", err)
	}
	if sess.Pending != nil {
		t.Fatalf("sign-in entry must clear stale pendingAuth")
	}
	if sess.AuthState != domain.AuthAwaitEmail {
		t.Fatalf("expected AWAIT_EMAIL")
	}
}

// ── Pending prompts ──────────────────────────────────────────────────────

func TestRouter_CheckLoanPromptFlow(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleCustomer)
	seedLoan(f, 7, "d-customer", "l1", domain.LoanActive)

	_ = f.text(1, "/checkloan")
	sess := f.sessions.Get(1)
	if sess.Prompt != domain.PromptCheckLoan {
		t.Fatalf("expected loan-id prompt to be pending")
	}

	// Invalid reply re-issues the prompt.
	_ = f.text(1, "seven")
	if sess.Prompt != domain.PromptCheckLoan {
		t.Fatalf("invalid id must keep the prompt pending")
	}
	if !strings.Contains(f.msg.last().text, "isn't a loan ID") {
		t.Fatalf("expected re-prompt, got %q", f.msg.last().text)
	}

	_ = f.text(1, "7")
	if sess.Prompt != domain.PromptNone {
		t.Fatalf("valid reply must clear the prompt")
	}
	if !strings.Contains(f.msg.last().text, "Loan #7") {
		t.Fatalf("expected loan detail, got %q", f.msg.last().text)
	}
}

func TestRouter_CustomerCannotSeeForeignLoan(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleCustomer)
	seedLoan(f, 9, "someone-else", "l1", domain.LoanActive)

	_ = f.text(1, "/checkloan")
	_ = f.text(1, "9")
	if !strings.Contains(f.msg.last().text, "No loan found") {
		t.Fatalf("foreign loan must read as not found, got %q", f.msg.last().text)
	}
}

func TestRouter_UserRolePromptValidation(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleAdmin)
	f.queries.users[domain.RoleLender] = []domain.UserSummary{
		{UserID: "u5", Name: "Lenny", Email: "lenny@example.com", Role: domain.RoleLender},
	}

	_ = f.text(1, "/users")
	sess := f.sessions.Get(1)
	if sess.Prompt != domain.PromptUserRole {
		t.Fatalf("expected role prompt")
	}

	_ = f.text(1, "manager")
	if sess.Prompt != domain.PromptUserRole {
		t.Fatalf("unknown role must keep the prompt pending")
	}

	_ = f.text(1, "Lender")
	if sess.Prompt != domain.PromptNone {
		t.Fatalf("valid role must clear the prompt")
	}
	if !strings.Contains(f.msg.last().text, "Lenny") {
		t.Fatalf("expected lender listing, got %q", f.msg.last().text)
	}
}

func TestRouter_LogPeriodPromptValidation(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleAdmin)
	f.queries.activity = []domain.ActivityEntry{
		{ID: 1, UserName: "Root", Action: "login", CreatedAt: time.Now()},
	}

	_ = f.text(1, "/logs")
	sess := f.sessions.Get(1)

	_ = f.text(1, "fortnight")
	if sess.Prompt != domain.PromptLogPeriod {
		t.Fatalf("unknown period must keep the prompt pending")
	}

	_ = f.text(1, "week")
	if sess.Prompt != domain.PromptNone {
		t.Fatalf("valid period must clear the prompt")
	}
	if !strings.Contains(f.msg.last().text, "Activity") {
		t.Fatalf("expected activity listing, got %q", f.msg.last().text)
	}
}

func TestRouter_CancelClearsPendingPrompt(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleCustomer)

	_ = f.text(1, "/checkloan")
	sess := f.sessions.Get(1)
	if sess.Prompt == domain.PromptNone {
		t.Fatalf("setup: prompt should be pending")
	}

	_ = f.text(1, "cancel")
	if sess.Prompt != domain.PromptNone {
		t.Fatalf("cancel must clear the pending prompt")
	}
}

func TestRouter_NewActionReplacesPendingPrompt(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleAdmin)

	_ = f.text(1, "/users")
	_ = f.text(1, "/logs")
	sess := f.sessions.Get(1)
	if sess.Prompt != domain.PromptLogPeriod {
		t.Fatalf("a new action must replace the earlier prompt, got %v", sess.Prompt)
	}
}

// ── Sign-out and greeting ────────────────────────────────────────────────

func TestRouter_SignOut(t *testing.T) {
	f := newRouterFixture()
	f.signedIn(1, domain.RoleLender)

	if err := f.text(1, "/signout"); err != nil {
		t.Fatalf("route: %v", err)
	}
	sess := f.sessions.Get(1)
	if sess.SignedIn() || sess.Pending != nil || sess.Prompt != domain.PromptNone {
		t.Fatalf("sign-out must reset the session: %+v", sess)
	}
	if f.msg.last().opts == nil || !f.msg.last().opts.RemoveMenu {
		t.Fatalf("sign-out should remove the reply menu")
	}
}

func TestRouter_GreetingByAuthState(t *testing.T) {
	f := newRouterFixture()
	_ = f.text(1, "/start")
	if !strings.Contains(f.msg.last().text, "/signin") {
		t.Fatalf("unauthenticated greeting should point at /signin, got %q", f.msg.last().text)
	}

	f.signedIn(2, domain.RoleAdmin)
	_ = f.text(2, "/start")
	if f.msg.last().opts == nil || len(f.msg.last().opts.Menu) == 0 {
		t.Fatalf("signed-in greeting should attach the role menu")
	}
}
