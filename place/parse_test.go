package place

import (
	"errors"
	"testing"
)

func docWithTitle(title, desc string) *Document {
	return &Document{
		Body: `<html><head>` +
			`<meta property="og:title" content="` + title + `">` +
			`<meta property="og:description" content="` + desc + `">` +
			`</head><body></body></html>`,
		Locale: "ko",
	}
}

func TestParseDocuments_PlaceholderTitleIsNotFound(t *testing.T) {
	for _, title := range []string{"Google Maps", "Google 지도"} {
		_, err := ParseDocuments(docWithTitle(title, ""), nil)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("title %q: expected ErrNotFound, got %v", title, err)
		}
	}
}

func TestParseDocuments_TitleSplit(t *testing.T) {
	doc := docWithTitle("광장시장 · 서울특별시 종로구 창경궁로 88", "")

	md, err := ParseDocuments(doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.Name != "광장시장" {
		t.Fatalf("expected name 광장시장, got %q", md.Name)
	}

	if md.Address != "서울특별시 종로구 창경궁로 88" {
		t.Fatalf("unexpected address %q", md.Address)
	}
}

func TestParseDocuments_SecondaryNameKeptOnlyWhenDifferent(t *testing.T) {
	primary := docWithTitle("광장시장 · 서울", "")

	md, err := ParseDocuments(primary, docWithTitle("Gwangjang Market · Seoul", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.NameLocal != "Gwangjang Market" {
		t.Fatalf("expected secondary name kept, got %q", md.NameLocal)
	}

	md, err = ParseDocuments(primary, docWithTitle("광장시장 · Seoul", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.NameLocal != "" {
		t.Fatalf("expected duplicate secondary name dropped, got %q", md.NameLocal)
	}
}

func TestExtractRating_ParenPattern(t *testing.T) {
	r, n := extractRating("4.5(433) · 한식당", "", "ko")

	if r != 4.5 || n != 433 {
		t.Fatalf("expected 4.5/433, got %v/%d", r, n)
	}
}

func TestExtractRating_ParenPatternStripsCommas(t *testing.T) {
	r, n := extractRating("4.3(1,024)", "", "en")

	if r != 4.3 || n != 1024 {
		t.Fatalf("expected 4.3/1024, got %v/%d", r, n)
	}
}

func TestExtractRating_StarsWithCount(t *testing.T) {
	r, n := extractRating("★★★★☆(1,024)", "", "en")

	if r != 4 || n != 1024 {
		t.Fatalf("expected 4/1024, got %v/%d", r, n)
	}
}

func TestExtractRating_StarsOnlyProportional(t *testing.T) {
	r, n := extractRating("★★★★☆", "", "en")

	if r != 4.0 || n != 0 {
		t.Fatalf("expected 4.0/0, got %v/%d", r, n)
	}

	r, _ = extractRating("★★★☆☆☆", "", "en")

	if r != 2.5 {
		t.Fatalf("expected 2.5 for 3 of 6 stars, got %v", r)
	}
}

func TestExtractRating_BodyTupleBounds(t *testing.T) {
	r, n := extractRating("", `junk ["4.3",512] junk`, "en")

	if r != 4.3 || n != 512 {
		t.Fatalf("expected 4.3/512, got %v/%d", r, n)
	}

	r, n = extractRating("", `["9.9",512]`, "en")

	if r != 0 || n != 0 {
		t.Fatalf("expected out-of-bounds tuple rejected, got %v/%d", r, n)
	}
}

func TestExtractRating_LocalizedLabels(t *testing.T) {
	body := `aria-label="별표 4.5개점" other "리뷰 433개"`

	r, n := extractRating("", body, "ko")

	if r != 4.5 || n != 433 {
		t.Fatalf("expected 4.5/433, got %v/%d", r, n)
	}
}

func TestExtractRating_NoMatchDefaultsToZero(t *testing.T) {
	r, n := extractRating("just a place", "nothing useful", "en")

	if r != 0 || n != 0 {
		t.Fatalf("expected zero defaults, got %v/%d", r, n)
	}
}

func TestExtractPrice_RangePreferredOverSymbols(t *testing.T) {
	got := extractPrice("₩₩ · ₩10,000~₩20,000")

	if got != "₩10,000~₩20,000" {
		t.Fatalf("expected numeric range, got %q", got)
	}
}

func TestExtractPrice_SymbolTier(t *testing.T) {
	got := extractPrice("한식당 · ₩₩")

	if got != "₩₩" {
		t.Fatalf("expected ₩₩, got %q", got)
	}
}

func TestExtractPrice_TierAfterAmountOfSameSymbol(t *testing.T) {
	got := extractPrice("₩10,000 상당 · ₩")

	if got != "₩" {
		t.Fatalf("expected trailing tier symbol despite earlier amount, got %q", got)
	}
}

func TestExtractPrice_Empty(t *testing.T) {
	if got := extractPrice("no price here"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestExtractStatus(t *testing.T) {
	cases := []struct {
		in   string
		want BusinessStatus
	}{
		{"폐업한 가게", StatusPermanentlyClosed},
		{"Permanently closed", StatusPermanentlyClosed},
		{"임시 휴업", StatusTemporarilyClosed},
		{"Temporarily closed", StatusTemporarilyClosed},
		{"영업 중", StatusOperational},
		{"Open now", StatusOperational},
		{"nothing", StatusUnknown},
	}

	for _, c := range cases {
		if got := extractStatus(c.in); got != c.want {
			t.Fatalf("%q: expected %s, got %s", c.in, c.want, got)
		}
	}
}

func TestExtractCategory_SegmentAfterStats(t *testing.T) {
	got := extractCategory("4.5(433) · 한식당 · 서울")

	if got != "한식당" {
		t.Fatalf("expected 한식당, got %q", got)
	}
}

func TestExtractCategory_LastSegmentFallback(t *testing.T) {
	got := extractCategory("서울 종로구 · 시장")

	if got != "시장" {
		t.Fatalf("expected 시장, got %q", got)
	}
}

func TestExtractCategory_RejectsPriceAndStatusTokens(t *testing.T) {
	got := extractCategory("4.5(433) · ₩₩ · 영업 중")

	if got != "" {
		t.Fatalf("expected no category, got %q", got)
	}
}

func TestExtractWebsite_SkipsProviderHosts(t *testing.T) {
	body := `<html><head><meta property="og:title" content="광장시장 · 서울"></head><body>
		<a href="https://www.google.com/maps">maps</a>
		<a href="https://lh3.googleusercontent.com/p/x">photo</a>
		<a href="https://www.gwangjangmarket.co.kr">site</a>
	</body></html>`

	md, err := ParseDocuments(&Document{Body: body}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.Website != "https://www.gwangjangmarket.co.kr" {
		t.Fatalf("unexpected website %q", md.Website)
	}
}

func TestExtractPhone_TelLinkPreferred(t *testing.T) {
	body := `<html><head><meta property="og:title" content="광장시장 · 서울"></head>` +
		`<body><a href="tel:02-1234-5678">call</a> 010-9999-8888</body></html>`

	md, err := ParseDocuments(&Document{Body: body}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.Phone != "02-1234-5678" {
		t.Fatalf("expected tel link phone, got %q", md.Phone)
	}
}
