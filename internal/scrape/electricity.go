package scrape

import "context"

// Electricity scrapes the electricity utility portal. Login is a single
// form submission, optionally preceded by a cookie-consent dialog.
type Electricity struct {
	cfg      Provider
	sessions SessionFactory
}

func NewElectricity(cfg Provider, sessions SessionFactory) *Electricity {
	return &Electricity{cfg: cfg, sessions: sessions}
}

func (e *Electricity) Service() string { return ServiceElectricity }

func (e *Electricity) Scrape(ctx context.Context, username, password string) ([]Entry, error) {
	sess, err := e.sessions(ctx)
	if err != nil {
		return nil, stepError(ServiceElectricity, "launch session", KindSession, err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, e.cfg.LoginURL); err != nil {
		return nil, stepError(ServiceElectricity, "open login page", KindNavigation, err)
	}

	if e.cfg.ConsentSelector != "" {
		sess.ClickIfVisible(ctx, e.cfg.ConsentSelector)
	}

	if err := submitLogin(ctx, sess, e.cfg, username, password); err != nil {
		return nil, stepError(ServiceElectricity, "submit credentials", KindLogin, err)
	}
	if err := sess.WaitVisible(ctx, e.cfg.LoggedInSelector); err != nil {
		return nil, stepError(ServiceElectricity, "await authenticated page", KindLogin, err)
	}

	if err := sess.Navigate(ctx, e.cfg.BillingURL); err != nil {
		return nil, stepError(ServiceElectricity, "open billing page", KindNavigation, err)
	}
	if err := sess.WaitVisible(ctx, e.cfg.ReadySelector); err != nil {
		return nil, stepError(ServiceElectricity, "await billing content", KindNavigation, err)
	}

	raw := map[string]string{}
	if err := sess.Eval(ctx, singleEntryJS(e.cfg.Fields), &raw); err != nil {
		return nil, stepError(ServiceElectricity, "extract fields", KindExtraction, err)
	}

	return []Entry{normalizeEntry(e.cfg.Fields, raw)}, nil
}

// submitLogin fills the credential form and submits it. Shared by the
// providers with a single-step login page.
func submitLogin(ctx context.Context, sess Session, cfg Provider, username, password string) error {
	if err := sess.WaitVisible(ctx, cfg.UsernameSelector); err != nil {
		return err
	}
	if err := sess.SendKeys(ctx, cfg.UsernameSelector, username); err != nil {
		return err
	}
	if err := sess.SendKeys(ctx, cfg.PasswordSelector, password); err != nil {
		return err
	}
	return sess.Click(ctx, cfg.SubmitSelector)
}
