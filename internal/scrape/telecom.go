package scrape

import "context"

// Telecom scrapes the telecom provider portal. Login happens in two steps
// (username, then password on a separate prompt), and the dashboard lists
// one bill card per connection, so a single authenticated session can yield
// multiple entries.
type Telecom struct {
	cfg      Provider
	sessions SessionFactory
}

func NewTelecom(cfg Provider, sessions SessionFactory) *Telecom {
	return &Telecom{cfg: cfg, sessions: sessions}
}

func (t *Telecom) Service() string { return ServiceTelecom }

func (t *Telecom) Scrape(ctx context.Context, username, password string) ([]Entry, error) {
	sess, err := t.sessions(ctx)
	if err != nil {
		return nil, stepError(ServiceTelecom, "launch session", KindSession, err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, t.cfg.LoginURL); err != nil {
		return nil, stepError(ServiceTelecom, "open login page", KindNavigation, err)
	}

	if err := sess.WaitVisible(ctx, t.cfg.UsernameSelector); err != nil {
		return nil, stepError(ServiceTelecom, "await username prompt", KindLogin, err)
	}
	if err := sess.SendKeys(ctx, t.cfg.UsernameSelector, username); err != nil {
		return nil, stepError(ServiceTelecom, "submit username", KindLogin, err)
	}
	if err := sess.Click(ctx, t.cfg.SubmitSelector); err != nil {
		return nil, stepError(ServiceTelecom, "submit username", KindLogin, err)
	}

	if err := sess.WaitVisible(ctx, t.cfg.PasswordSelector); err != nil {
		return nil, stepError(ServiceTelecom, "await password prompt", KindLogin, err)
	}
	if err := sess.SendKeys(ctx, t.cfg.PasswordSelector, password); err != nil {
		return nil, stepError(ServiceTelecom, "submit password", KindLogin, err)
	}
	if err := sess.Click(ctx, t.cfg.SubmitSelector); err != nil {
		return nil, stepError(ServiceTelecom, "submit password", KindLogin, err)
	}

	if err := sess.WaitVisible(ctx, t.cfg.LoggedInSelector); err != nil {
		return nil, stepError(ServiceTelecom, "await authenticated page", KindLogin, err)
	}

	if err := sess.Navigate(ctx, t.cfg.BillingURL); err != nil {
		return nil, stepError(ServiceTelecom, "open billing page", KindNavigation, err)
	}
	if err := sess.WaitVisible(ctx, t.cfg.ReadySelector); err != nil {
		return nil, stepError(ServiceTelecom, "await billing content", KindNavigation, err)
	}

	var raws []map[string]string
	if err := sess.Eval(ctx, cardEntriesJS(t.cfg.CardSelector, t.cfg.Fields), &raws); err != nil {
		return nil, stepError(ServiceTelecom, "extract fields", KindExtraction, err)
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		entries = append(entries, composeTelecomEntry(t.cfg.Fields, raw))
	}
	return entries, nil
}

// composeTelecomEntry assembles the provider's split units/cents amount
// nodes into a single totalAmount field.
func composeTelecomEntry(fields []FieldSpec, raw map[string]string) Entry {
	entry := normalizeEntry(fields, raw)
	units, cents := entry["amountUnits"], entry["amountCents"]
	if units == NotFound || cents == NotFound {
		entry["totalAmount"] = NotFound
	} else {
		entry["totalAmount"] = units + "," + cents + "€"
	}
	delete(entry, "amountUnits")
	delete(entry, "amountCents")
	return entry
}
