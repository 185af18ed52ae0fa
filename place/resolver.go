package place

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Resolver runs the full pipeline for one query: URL normalization,
// identifier extraction, parallel document fetches and API lookup,
// reconciliation. It is safe for concurrent use; all per-request state lives
// on the stack.
type Resolver struct {
	normalizer   *Normalizer
	fetcher      DocumentFetcher
	lookup       *LookupClient
	verifyEmails bool
}

type ResolverOption func(*Resolver)

func WithFetcher(f DocumentFetcher) ResolverOption {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

func WithLookupClient(c *LookupClient) ResolverOption {
	return func(r *Resolver) {
		r.lookup = c
	}
}

func WithEmailVerification(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.verifyEmails = enabled
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		normalizer: NewNormalizer(),
		fetcher:    NewHTTPFetcher(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve turns a Maps URL into a reconciled place record.
// The only terminal failures are an unusable URL (ErrInvalidURL) and the
// complete absence of a place name (ErrNotFound); upstream failures degrade
// to partial results instead.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Place, error) {
	raw := strings.TrimSpace(q.RawURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidURL)
	}

	if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	finalURL, _ := r.normalizer.Normalize(ctx, q)

	ids := ExtractIdentifiers(finalURL)
	coords := identifierCoords(ids)
	lang := DetectLanguage(q.Language, finalURL, coords)
	localLang := LocalLanguage(finalURL, coords)

	var (
		primary   *Document
		secondary *Document
		api       *APIRecord
	)

	// The two document fetches and the API lookup are read-only and
	// independent once the URL identifiers are known. A failed fetch is
	// not fatal here: the API record alone may still name the place.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if doc, err := r.fetcher.Fetch(gctx, finalURL, lang); err == nil {
			primary = doc
		}

		return nil
	})

	// The secondary document carries the place's own language so the local
	// name can sit alongside the requested-language one. When the primary
	// already is that language there is nothing to add.
	if localLang != "" && localLang != lang {
		g.Go(func() error {
			if doc, err := r.fetcher.Fetch(gctx, finalURL, localLang); err == nil {
				secondary = doc
			}

			return nil
		})
	}

	if r.lookup.Enabled() {
		g.Go(func() error {
			api = r.lookup.Lookup(gctx, ids, lang)

			return nil
		})
	}

	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	meta := &Metadata{}

	if primary != nil {
		parsed, err := ParseDocuments(primary, secondary)
		if err != nil && api == nil {
			return nil, err
		}

		if parsed != nil {
			meta = parsed
		}

		if meta.Coords == nil {
			meta.Coords = CoordinatesFromHTML(primary.Body)
		}

		// A lookup that came back empty gets one more chance with
		// identifiers mined from the fetched document.
		if api == nil && r.lookup.Enabled() {
			if extra := supplementIdentifiers(ids, primary.Body, meta.Coords); len(extra) > 0 {
				api = r.lookup.Lookup(ctx, extra, lang)
			}
		}
	}

	p := Reconcile(meta, api)
	p.ResolvedURL = finalURL

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, finalURL)
	}

	if r.verifyEmails && p.Email != "" {
		p.EmailVerified = VerifyEmail(ctx, p.Email)
	}

	return p, nil
}

func identifierCoords(ids []Identifier) *Coordinates {
	for _, id := range ids {
		if id.Kind == KindCoordinates {
			return id.Coords
		}
	}

	return nil
}

// supplementIdentifiers mines the fetched document for identifiers the URL
// did not carry: a ChIJ place id (or ludocid derived from an ftid), plus
// coordinates to sharpen a later text search.
func supplementIdentifiers(ids []Identifier, html string, coords *Coordinates) []Identifier {
	var (
		ftid string
		name string
	)

	for _, id := range ids {
		switch id.Kind {
		case KindFTID:
			ftid = id.Value
		case KindName:
			if name == "" {
				name = id.Value
			}
		}
	}

	var out []Identifier

	if id, ok := PlaceIDFromHTML(html, ftid); ok {
		out = append(out, id)
	}

	if name != "" {
		out = append(out, Identifier{Kind: KindName, Value: name})
	}

	if coords != nil {
		out = append(out, Identifier{Kind: KindCoordinates, Coords: coords})
	}

	// Nothing beyond coordinates alone is not actionable.
	if len(out) == 1 && out[0].Kind == KindCoordinates {
		return nil
	}

	return out
}
