package scrape

import "context"

// Water scrapes the water utility portal. The account page is a plain table,
// so most fields are addressed by cell position rather than a class.
type Water struct {
	cfg      Provider
	sessions SessionFactory
}

func NewWater(cfg Provider, sessions SessionFactory) *Water {
	return &Water{cfg: cfg, sessions: sessions}
}

func (w *Water) Service() string { return ServiceWater }

func (w *Water) Scrape(ctx context.Context, username, password string) ([]Entry, error) {
	sess, err := w.sessions(ctx)
	if err != nil {
		return nil, stepError(ServiceWater, "launch session", KindSession, err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, w.cfg.LoginURL); err != nil {
		return nil, stepError(ServiceWater, "open login page", KindNavigation, err)
	}

	if err := submitLogin(ctx, sess, w.cfg, username, password); err != nil {
		return nil, stepError(ServiceWater, "submit credentials", KindLogin, err)
	}
	if err := sess.WaitVisible(ctx, w.cfg.LoggedInSelector); err != nil {
		return nil, stepError(ServiceWater, "await authenticated page", KindLogin, err)
	}

	if err := sess.Navigate(ctx, w.cfg.BillingURL); err != nil {
		return nil, stepError(ServiceWater, "open account page", KindNavigation, err)
	}
	if err := sess.WaitVisible(ctx, w.cfg.ReadySelector); err != nil {
		return nil, stepError(ServiceWater, "await account content", KindNavigation, err)
	}

	raw := map[string]string{}
	if err := sess.Eval(ctx, singleEntryJS(w.cfg.Fields), &raw); err != nil {
		return nil, stepError(ServiceWater, "extract fields", KindExtraction, err)
	}

	return []Entry{normalizeEntry(w.cfg.Fields, raw)}, nil
}
