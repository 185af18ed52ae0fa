package place

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sadewadee/google-place-resolver/pkg/resilience"
)

const (
	fetchTimeout  = 8 * time.Second
	maxBodyBytes  = 4 << 20
	browserUA     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// DocumentFetcher retrieves one language variant of a place page.
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL, lang string) (*Document, error)
}

// HTTPFetcher fetches documents with a plain HTTP client. Transient failures
// are retried with backoff before the pipeline gives up on the variant.
type HTTPFetcher struct {
	client  *http.Client
	retryer *resilience.Retryer
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		retryer: resilience.NewFetchRetryer(),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, lang string) (*Document, error) {
	target := withLangParam(rawURL, lang)

	var body string

	err := f.retryer.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}

		req.Header.Set("User-Agent", browserUA)
		req.Header.Set("Accept-Language", lang)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("document fetch status: %s", resp.Status)
		}

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}

		body = string(raw)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Document{Body: body, Locale: lang}, nil
}

// withLangParam sets (or overrides) the hl parameter so Google serves the
// requested language variant.
func withLangParam(rawURL, lang string) string {
	if lang == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}

		return rawURL + sep + "hl=" + url.QueryEscape(lang)
	}

	q := u.Query()
	q.Set("hl", lang)
	u.RawQuery = q.Encode()

	return u.String()
}
