package place

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mcnijman/go-emailaddress"
)

const (
	nameSeparator    = " · "
	maxCategoryRunes = 50
	maxReviewCount   = 10_000_000
)

// placeholderTitles are the titles Google serves when a URL resolves to the
// generic Maps landing page instead of a place. Seeing one means "not found".
var placeholderTitles = []string{
	"Google Maps",
	"Google 지도",
	"Google マップ",
	"Google Карты",
}

// ParseDocuments mines a Metadata record out of the primary document and, when
// available, a secondary local-language document. The only terminal failure is
// a missing or placeholder name; every other field degrades to its default.
func ParseDocuments(primary, secondary *Document) (*Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(primary.Body))
	if err != nil {
		return nil, err
	}

	title := documentTitle(doc)
	if title == "" || isPlaceholderTitle(title) {
		return nil, ErrNotFound
	}

	name, address := splitTitle(title)

	md := Metadata{
		Name:    name,
		Address: address,
		Status:  StatusUnknown,
	}

	desc := metaContent(doc, "og:description")
	if desc == "" {
		desc = doc.Find(`meta[name="description"]`).AttrOr("content", "")
	}

	md.Description = desc
	md.ImageURL = metaContent(doc, "og:image")

	md.Rating, md.ReviewCount = extractRating(desc, primary.Body, primary.Locale)
	md.PriceLevel = extractPrice(desc)
	md.Status = extractStatus(desc + " " + primary.Body[:min(len(primary.Body), 1<<16)])
	md.Category = extractCategory(desc)

	md.Phone = extractPhone(doc, primary.Body)
	md.Website = extractWebsite(doc)
	md.Email = extractEmail(doc)
	md.Coords = CoordinatesFromHTML(primary.Body)

	if secondary != nil {
		mergeSecondaryName(&md, secondary)
	}

	return &md, nil
}

func documentTitle(doc *goquery.Document) string {
	if t := metaContent(doc, "og:title"); t != "" {
		return strings.TrimSpace(t)
	}

	if t := doc.Find(`[itemprop="name"]`).First().AttrOr("content", ""); t != "" {
		return strings.TrimSpace(t)
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

func isPlaceholderTitle(title string) bool {
	for _, p := range placeholderTitles {
		if title == p {
			return true
		}
	}

	return false
}

// splitTitle splits "name · address parts..." into the place name and a
// joined formatted address.
func splitTitle(title string) (name, address string) {
	parts := strings.Split(title, nameSeparator)

	name = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		address = strings.TrimSpace(strings.Join(parts[1:], nameSeparator))
	}

	return name, address
}

// mergeSecondaryName keeps the secondary-locale name only when it actually
// differs from the primary one, guarding against a duplicated translation.
func mergeSecondaryName(md *Metadata, secondary *Document) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(secondary.Body))
	if err != nil {
		return
	}

	title := documentTitle(doc)
	if title == "" || isPlaceholderTitle(title) {
		return
	}

	name, _ := splitTitle(title)
	if name != "" && name != md.Name {
		md.NameLocal = name
	}
}

func metaContent(doc *goquery.Document, property string) string {
	return doc.Find(`meta[property="` + property + `"]`).First().AttrOr("content", "")
}

// ---- rating / review count strategies ----
//
// Each strategy is a pure function over the description (and, for the later
// fallbacks, the full body). They run in fixed priority order; the first one
// that succeeds wins. Keeping them in a list keeps the ordering explicit and
// lets each be tested in isolation.

type ratingStrategy struct {
	name string
	fn   func(desc, body, locale string) (float64, int, bool)
}

var (
	reRatingParen    = regexp.MustCompile(`(\d(?:\.\d)?)\s*\(([\d,]+)\)`)
	reStarsWithCount = regexp.MustCompile(`(★+)(☆*)\s*\(([\d,]+)\)`)
	reStarsOnly      = regexp.MustCompile(`(★+)(☆*)`)
	reRatingTuple    = regexp.MustCompile(`\[\\?"(\d\.\d)\\?",(\d+)\]`)
	reStarLabel      = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:stars?|étoiles?|Sterne)|별표?\s*(\d(?:\.\d)?)개?점?|(\d(?:\.\d)?)つ星`)
	reReviewLabel    = regexp.MustCompile(`([\d,]+)\s*(?:reviews?|avis|Rezensionen|件のクチコミ)|리뷰\s*([\d,]+)개?|([\d,]+)개의?\s*리뷰`)
	reAnyFloat       = regexp.MustCompile(`\d\.\d`)
	reAnyInt         = regexp.MustCompile(`[\d,]{1,11}`)
)

var ratingStrategies = []ratingStrategy{
	{"paren", ratingFromParen},
	{"stars_count", ratingFromStarsWithCount},
	{"stars_only", ratingFromStarsOnly},
	{"body_tuple", ratingFromBodyTuple},
	{"a11y_label", ratingFromLabels},
	{"keyword_adjacent", ratingFromKeywords},
}

func extractRating(desc, body, locale string) (rating float64, reviews int) {
	for _, s := range ratingStrategies {
		r, n, ok := s.fn(desc, body, locale)
		if !ok {
			continue
		}

		if r < 0 || r > 5 {
			continue
		}

		if n < 0 {
			n = 0
		}

		return r, n
	}

	return 0, 0
}

// "4.5(433)" in the description.
func ratingFromParen(desc, _, _ string) (float64, int, bool) {
	m := reRatingParen.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, false
	}

	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || r > 5 {
		return 0, 0, false
	}

	n, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return 0, 0, false
	}

	return r, n, true
}

// "★★★★☆(433)": the filled-star count is the rating numerator.
func ratingFromStarsWithCount(desc, _, _ string) (float64, int, bool) {
	m := reStarsWithCount.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, false
	}

	filled := len([]rune(m[1]))

	n, err := strconv.Atoi(strings.ReplaceAll(m[3], ",", ""))
	if err != nil {
		return 0, 0, false
	}

	return float64(filled), n, true
}

// A bare star run: rating = filled/total × 5, no review count available.
func ratingFromStarsOnly(desc, _, _ string) (float64, int, bool) {
	m := reStarsOnly.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, false
	}

	filled := len([]rune(m[1]))
	total := filled + len([]rune(m[2]))

	if total == 0 {
		return 0, 0, false
	}

	return float64(filled) / float64(total) * 5, 0, true
}

// A `["4.5",433]` shaped literal anywhere in the body, accepted only within
// sane bounds since the page is full of unrelated number pairs.
func ratingFromBodyTuple(_, body, _ string) (float64, int, bool) {
	for _, m := range reRatingTuple.FindAllStringSubmatch(body, 20) {
		r, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		if r >= 1 && r <= 5 && n > 0 && n < maxReviewCount {
			return r, n, true
		}
	}

	return 0, 0, false
}

// Localized accessibility labels ("4.5 stars", "별표 4.5개", "리뷰 433개").
func ratingFromLabels(_, body, _ string) (float64, int, bool) {
	sm := reStarLabel.FindStringSubmatch(body)
	if sm == nil {
		return 0, 0, false
	}

	var rawRating string
	for _, g := range sm[1:] {
		if g != "" {
			rawRating = g
			break
		}
	}

	r, err := strconv.ParseFloat(rawRating, 64)
	if err != nil || r > 5 {
		return 0, 0, false
	}

	n := 0
	if rm := reReviewLabel.FindStringSubmatch(body); rm != nil {
		for _, g := range rm[1:] {
			if g != "" {
				n, _ = strconv.Atoi(strings.ReplaceAll(g, ",", ""))
				break
			}
		}
	}

	return r, n, true
}

// ratingKeywords/reviewKeywords drive the last-resort adjacent scan.
var (
	ratingKeywords = []string{"rating", "평점", "評価", "bewertung", "note"}
	reviewKeywords = []string{"review", "리뷰", "クチコミ", "rezension", "avis"}
)

// Last resort: any float near a rating keyword plus any integer near a review
// keyword, same bounds check as the tuple scan.
func ratingFromKeywords(_, body, _ string) (float64, int, bool) {
	lower := strings.ToLower(body)

	r, ok := floatNearKeyword(lower, body, ratingKeywords)
	if !ok || r < 1 || r > 5 {
		return 0, 0, false
	}

	n, _ := intNearKeyword(lower, body, reviewKeywords)
	if n < 0 || n >= maxReviewCount {
		n = 0
	}

	return r, n, true
}

func floatNearKeyword(lower, body string, keywords []string) (float64, bool) {
	const window = 48

	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}

		lo := max(0, idx-window)
		hi := min(len(body), idx+len(kw)+window)

		if m := reAnyFloat.FindString(body[lo:hi]); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				return v, true
			}
		}
	}

	return 0, false
}

func intNearKeyword(lower, body string, keywords []string) (int, bool) {
	const window = 48

	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}

		lo := max(0, idx-window)
		hi := min(len(body), idx+len(kw)+window)

		for _, m := range reAnyInt.FindAllString(body[lo:hi], -1) {
			v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
			if err == nil && v > 0 {
				return v, true
			}
		}
	}

	return 0, false
}

// ---- price level ----

var (
	// Explicit numeric ranges like ₩10,000~₩20,000 are preferred over
	// repeated-symbol tiers like ₩₩₩.
	rePriceRange   = regexp.MustCompile(`[₩$€£¥￥][\d,]+(?:원)?\s*[~–—-]\s*[₩$€£¥￥]?[\d,]+(?:원)?\+?`)
	rePriceSymbols = regexp.MustCompile(`[₩$€£¥￥]{1,4}`)
)

func extractPrice(desc string) string {
	if m := rePriceRange.FindString(desc); m != "" {
		return strings.TrimSpace(m)
	}

	for _, loc := range rePriceSymbols.FindAllStringIndex(desc, -1) {
		// A symbol run immediately followed by a digit is a currency amount,
		// not a tier; the range pattern above already had its chance at those.
		if rest := desc[loc[1]:]; rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			continue
		}

		return desc[loc[0]:loc[1]]
	}

	return ""
}

// ---- business status ----

var statusVocabulary = []struct {
	needle string
	status BusinessStatus
}{
	{"폐업", StatusPermanentlyClosed},
	{"Permanently closed", StatusPermanentlyClosed},
	{"permanently closed", StatusPermanentlyClosed},
	{"임시 휴업", StatusTemporarilyClosed},
	{"임시휴업", StatusTemporarilyClosed},
	{"Temporarily closed", StatusTemporarilyClosed},
	{"temporarily closed", StatusTemporarilyClosed},
	{"영업 중", StatusOperational},
	{"영업중", StatusOperational},
	{"Open now", StatusOperational},
	{"Open 24 hours", StatusOperational},
	{"Open ⋅", StatusOperational},
}

func extractStatus(s string) BusinessStatus {
	for _, v := range statusVocabulary {
		if strings.Contains(s, v.needle) {
			return v.status
		}
	}

	return StatusUnknown
}

// ---- category ----

// extractCategory derives the category from what remains of the description
// once the stats block is stripped. Two heuristics in order: the segment right
// after the stats block, then the last non-empty segment.
func extractCategory(desc string) string {
	if desc == "" {
		return ""
	}

	segments := strings.Split(desc, "·")

	statsIdx := -1
	for i, seg := range segments {
		if reRatingParen.MatchString(seg) || reStarsOnly.MatchString(seg) {
			statsIdx = i
			break
		}
	}

	if statsIdx >= 0 && statsIdx+1 < len(segments) {
		if c := cleanCategory(segments[statsIdx+1]); c != "" {
			return c
		}
	}

	for i := len(segments) - 1; i >= 0; i-- {
		if c := cleanCategory(segments[i]); c != "" {
			return c
		}
	}

	return ""
}

func cleanCategory(seg string) string {
	seg = strings.TrimSpace(seg)

	if seg == "" || len([]rune(seg)) >= maxCategoryRunes {
		return ""
	}

	// Stats, price and status tokens are not categories.
	if reRatingParen.MatchString(seg) || reStarsOnly.MatchString(seg) || rePriceSymbols.MatchString(seg) {
		return ""
	}

	if extractStatus(seg) != StatusUnknown {
		return ""
	}

	return seg
}

// ---- phone / website / email ----

var rePhone = regexp.MustCompile(`\+?\d{1,4}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{4}`)

func extractPhone(doc *goquery.Document, body string) string {
	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		return strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
	}

	return strings.TrimSpace(rePhone.FindString(body))
}

// excludedWebsiteHosts are the provider's own domains, CDNs and its video
// host; the first outbound link not on this list is the business website.
var excludedWebsiteHosts = []string{
	"google.com",
	"google.co",
	"gstatic.com",
	"googleusercontent.com",
	"googleapis.com",
	"ggpht.com",
	"goo.gl",
	"youtube.com",
	"youtu.be",
	"schema.org",
}

func extractWebsite(doc *goquery.Document) string {
	var website string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := s.AttrOr("href", "")
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}

		if isExcludedHost(href) {
			return true
		}

		website = href

		return false
	})

	return website
}

func isExcludedHost(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	for _, h := range excludedWebsiteHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}

	return false
}

func extractEmail(doc *goquery.Document) string {
	var email string

	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimPrefix(s.AttrOr("href", ""), "mailto:")

		parsed, err := emailaddress.Parse(strings.TrimSpace(raw))
		if err != nil {
			return true
		}

		email = parsed.String()

		return false
	})

	return email
}
