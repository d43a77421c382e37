package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Provider portals fingerprint automation, so the browser pins a desktop
// user agent and disables the automation hint.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.102 Safari/537.36"

// consentGrace bounds how long ClickIfVisible waits for an optional dialog.
const consentGrace = 3 * time.Second

// browserSession implements Session on a dedicated headless Chrome tab.
type browserSession struct {
	tab     context.Context
	cancels []context.CancelFunc
}

// NewBrowserSession launches a headless Chrome process and opens one tab.
// The session inherits ctx, so cancelling it tears the browser down.
func NewBrowserSession(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &browserSession{
		tab:     tabCtx,
		cancels: []context.CancelFunc{cancelTab, cancelAlloc},
	}

	// Start the browser up front so launch failures surface here instead
	// of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	return s, nil
}

// run executes actions on the tab while honoring the per-call context.
func (s *browserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(s.tab, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *browserSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *browserSession) WaitVisible(ctx context.Context, sel string) error {
	return s.run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

func (s *browserSession) SendKeys(ctx context.Context, sel, value string) error {
	return s.run(ctx, chromedp.SendKeys(sel, value, chromedp.ByQuery))
}

func (s *browserSession) Click(ctx context.Context, sel string) error {
	return s.run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

func (s *browserSession) ClickIfVisible(ctx context.Context, sel string) bool {
	grace, cancel := context.WithTimeout(ctx, consentGrace)
	defer cancel()
	return s.run(grace, chromedp.Click(sel, chromedp.ByQuery)) == nil
}

func (s *browserSession) Eval(ctx context.Context, js string, out any) error {
	return s.run(ctx, chromedp.Evaluate(js, out))
}

func (s *browserSession) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}
