package place

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"
	"github.com/playwright-community/playwright-go"
)

// ResolveJobOptions configures ResolveJob.
type ResolveJobOptions func(*ResolveJob)

// ResolveJob resolves one place URL inside a scrapemate pipeline. The
// framework fetches the document (plain HTTP or browser, per the runner
// config); Process runs extraction, lookup and reconciliation.
type ResolveJob struct {
	scrapemate.Job

	Language     string
	Lookup       *LookupClient
	VerifyEmails bool
}

func NewResolveJob(id, rawURL, langCode string, opts ...ResolveJobOptions) *ResolveJob {
	const (
		maxRetries = 2
		prio       = scrapemate.PriorityMedium
	)

	if id == "" {
		id = uuid.New().String()
	}

	job := ResolveJob{
		Job: scrapemate.Job{
			ID:         id,
			Method:     http.MethodGet,
			URL:        rawURL,
			URLParams:  map[string]string{"hl": langCode},
			MaxRetries: maxRetries,
			Priority:   prio,
		},
		Language: langCode,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithJobLookup(c *LookupClient) ResolveJobOptions {
	return func(j *ResolveJob) {
		j.Lookup = c
	}
}

func WithJobEmailVerification(enabled bool) ResolveJobOptions {
	return func(j *ResolveJob) {
		j.VerifyEmails = enabled
	}
}

func (j *ResolveJob) UseInResults() bool {
	return true
}

func (j *ResolveJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
	}()

	log := scrapemate.GetLoggerFromContext(ctx)

	doc := &Document{Body: string(resp.Body), Locale: j.Language}

	meta, err := ParseDocuments(doc, nil)
	if err != nil {
		log.Info(fmt.Sprintf("resolve_skip reason=no_metadata url=%q", j.URL))

		return nil, nil, err
	}

	if meta.Coords == nil {
		meta.Coords = CoordinatesFromHTML(doc.Body)
	}

	ids := ExtractIdentifiers(j.URL)

	var api *APIRecord

	if j.Lookup.Enabled() {
		api = j.Lookup.Lookup(ctx, ids, j.Language)

		if api == nil {
			if extra := supplementIdentifiers(ids, doc.Body, meta.Coords); len(extra) > 0 {
				api = j.Lookup.Lookup(ctx, extra, j.Language)
			}
		}
	}

	place := Reconcile(meta, api)
	place.ResolvedURL = j.URL

	if err := place.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, j.URL)
	}

	if j.VerifyEmails && place.Email != "" {
		place.EmailVerified = VerifyEmail(ctx, place.Email)
	}

	log.Info(fmt.Sprintf("resolve_done url=%q source=%s", j.URL, place.Source))

	return place, nil, nil
}

// BrowserActions loads the page in browser mode and dismisses the consent
// dialog before handing the rendered document back to the pipeline.
func (j *ResolveJob) BrowserActions(_ context.Context, page playwright.Page) scrapemate.Response {
	var resp scrapemate.Response

	pageResponse, err := page.Goto(j.GetFullURL(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})

	if err != nil {
		resp.Error = err

		return resp
	}

	if err = clickRejectCookiesIfRequired(page); err != nil {
		resp.Error = err

		return resp
	}

	resp.URL = pageResponse.URL()
	resp.StatusCode = pageResponse.Status()
	resp.Headers = make(http.Header, len(pageResponse.Headers()))

	for k, v := range pageResponse.Headers() {
		resp.Headers.Add(k, v)
	}

	body, err := page.Content()
	if err != nil {
		resp.Error = err

		return resp
	}

	resp.Body = []byte(body)

	return resp
}
