package place

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// BrowserFetcher renders place pages in a real browser. Google serves richer
// markup to full browsers than to plain HTTP clients, so browser mode
// recovers fields the meta tags alone do not carry. The browser is launched
// lazily on first use and shared across requests.
type BrowserFetcher struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL, lang string) (*Document, error) {
	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Locale:    playwright.String(lang),
		UserAgent: playwright.String(browserUA),
	})
	if err != nil {
		return nil, err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = page.Close()
		case <-done:
		}
	}()

	if _, err := page.Goto(withLangParam(rawURL, lang), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, err
	}

	if err := clickRejectCookiesIfRequired(page); err != nil {
		return nil, err
	}

	body, err := page.Content()
	if err != nil {
		return nil, err
	}

	return &Document{Body: body, Locale: lang}, nil
}

func (f *BrowserFetcher) ensureBrowser() (playwright.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil && f.browser.IsConnected() {
		return f.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()

		return nil, fmt.Errorf("launching browser: %w", err)
	}

	f.pw = pw
	f.browser = browser

	return browser, nil
}

// Close shuts down the shared browser, if one was started.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			return err
		}

		f.browser = nil
	}

	if f.pw != nil {
		if err := f.pw.Stop(); err != nil {
			return err
		}

		f.pw = nil
	}

	return nil
}

func clickRejectCookiesIfRequired(page playwright.Page) error {
	// click the cookie reject button if exists
	sel := `form[action="https://consent.google.com/save"]:first-of-type button:first-of-type`

	const timeout = 500

	//nolint:staticcheck // TODO replace with the new playwright API
	el, err := page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeout),
	})

	if err != nil {
		return nil
	}

	if el == nil {
		return nil
	}

	//nolint:staticcheck // TODO replace with the new playwright API
	return el.Click()
}
