package place

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const (
	expandTimeout   = 10 * time.Second
	expandMaxHops   = 15
	defaultLang     = "en"
	expandUserAgent = "google-place-resolver/1.0 (+https://github.com/sadewadee/google-place-resolver)"
)

// shortenerHosts are hosts whose URLs are redirect stubs that must be
// expanded before any pattern matching is attempted.
var shortenerHosts = map[string]bool{
	"maps.app.goo.gl": true,
	"app.goo.gl":      true,
	"goo.gl":          true,
	"g.co":            true,
}

// Normalizer expands shortened Maps URLs and detects a language hint for the
// rest of the pipeline.
type Normalizer struct {
	client *http.Client
}

type NormalizerOption func(*Normalizer)

// WithExpandClient overrides the HTTP client used for shortened-URL expansion.
func WithExpandClient(c *http.Client) NormalizerOption {
	return func(n *Normalizer) {
		n.client = c
	}
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		client: &http.Client{
			Timeout: expandTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= expandMaxHops {
					return fmt.Errorf("stopped after %d redirects", expandMaxHops)
				}

				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize returns the expanded URL and the detected language. Expansion
// failures are silent: the original URL is returned so the pipeline can still
// try its patterns against it. The result is never empty.
func (n *Normalizer) Normalize(ctx context.Context, q Query) (finalURL, lang string) {
	finalURL = strings.TrimSpace(q.RawURL)

	if isShortened(finalURL) {
		if expanded := n.expand(ctx, finalURL); expanded != "" {
			finalURL = expanded
		}
	}

	return finalURL, DetectLanguage(q.Language, finalURL, nil)
}

func isShortened(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return shortenerHosts[strings.ToLower(u.Host)]
}

func (n *Normalizer) expand(ctx context.Context, raw string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return ""
	}

	req.Header.Set("User-Agent", expandUserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.Request != nil && resp.Request.URL != nil {
		final := resp.Request.URL.String()
		if strings.HasPrefix(final, "http://") || strings.HasPrefix(final, "https://") {
			return final
		}
	}

	return ""
}

// domainLangs maps domain suffixes to a language hint. Checked in order.
var domainLangs = []struct {
	suffix string
	lang   string
}{
	{".co.kr", "ko"},
	{".co.jp", "ja"},
	{".com.tw", "zh-TW"},
	{".com.br", "pt"},
	{".co.th", "th"},
	{".com.vn", "vi"},
	{".de", "de"},
	{".fr", "fr"},
	{".es", "es"},
	{".it", "it"},
	{".ru", "ru"},
	{".nl", "nl"},
	{".kr", "ko"},
	{".jp", "ja"},
	{".cn", "zh-CN"},
	{".th", "th"},
	{".vn", "vi"},
}

// langBoxes maps coarse country rectangles to a language. Best-effort only;
// border regions may misclassify and that is acceptable (the hint merely
// steers the secondary document fetch).
var langBoxes = []struct {
	minLat, maxLat, minLng, maxLng float64
	lang                           string
}{
	{33.0, 38.7, 124.5, 131.0, "ko"}, // South Korea
	{30.9, 45.6, 129.4, 146.0, "ja"}, // Japan
	{21.8, 25.4, 119.9, 122.1, "zh-TW"},
	{18.0, 53.6, 73.5, 119.8, "zh-CN"},
	{5.6, 20.5, 97.3, 105.7, "th"},  // Thailand
	{8.4, 23.4, 102.1, 109.5, "vi"}, // Vietnam
	{47.2, 55.1, 5.8, 15.1, "de"},   // Germany
	{41.3, 51.1, -5.2, 9.6, "fr"},   // France
	{36.0, 43.8, -9.4, 3.4, "es"},   // Spain
	{36.6, 47.1, 6.6, 18.6, "it"},   // Italy
	{-33.8, 5.3, -73.9, -34.7, "pt"}, // Brazil
}

// DetectLanguage applies the precedence chain: explicit request language,
// domain/keyword hints in the URL, coordinate bounding box, then "en".
func DetectLanguage(requested, rawURL string, coords *Coordinates) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}

	if lang := languageFromURL(rawURL); lang != "" {
		return lang
	}

	if coords != nil && coords.Valid() {
		if lang := LanguageForCoordinates(*coords); lang != "" {
			return lang
		}
	}

	return defaultLang
}

// LocalLanguage guesses the language spoken at the place itself, from URL
// hints first and the coordinate boxes second. Unlike DetectLanguage it
// ignores the requested language and carries no default: "" means no hint.
func LocalLanguage(rawURL string, coords *Coordinates) string {
	if lang := languageFromURL(rawURL); lang != "" {
		return lang
	}

	if coords != nil && coords.Valid() {
		return LanguageForCoordinates(*coords)
	}

	return ""
}

func languageFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return scriptLanguage(rawURL)
	}

	host := strings.ToLower(u.Host)
	for _, d := range domainLangs {
		if strings.HasSuffix(host, d.suffix) {
			return d.lang
		}
	}

	// hl= is authoritative when Google put it there itself
	if hl := u.Query().Get("hl"); hl != "" {
		return hl
	}

	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		decoded = rawURL
	}

	return scriptLanguage(decoded)
}

// scriptLanguage guesses a language from the Unicode scripts present in the
// URL text (place names are frequently embedded in the path).
func scriptLanguage(s string) string {
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Hangul, r):
			return "ko"
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			return "ja"
		case unicode.Is(unicode.Thai, r):
			return "th"
		case unicode.Is(unicode.Cyrillic, r):
			return "ru"
		case unicode.Is(unicode.Han, r):
			return "zh-CN"
		}
	}

	return ""
}

// LanguageForCoordinates returns the language for the first bounding box that
// contains the point, or "" when no box matches.
func LanguageForCoordinates(c Coordinates) string {
	for _, b := range langBoxes {
		if c.Lat >= b.minLat && c.Lat <= b.maxLat && c.Lng >= b.minLng && c.Lng <= b.maxLng {
			return b.lang
		}
	}

	return ""
}
