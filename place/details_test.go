package place

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestFormatPriceRange(t *testing.T) {
	got := formatPriceRange(&apiMoney{CurrencyCode: "KRW", Units: "10000"}, &apiMoney{CurrencyCode: "KRW", Units: "20000"})
	if got != "₩10,000~₩20,000" {
		t.Fatalf("expected ₩10,000~₩20,000, got %q", got)
	}

	got = formatPriceRange(&apiMoney{CurrencyCode: "USD", Units: "50"}, nil)
	if got != "$50+" {
		t.Fatalf("expected $50+ for unbounded range, got %q", got)
	}

	got = formatPriceRange(&apiMoney{CurrencyCode: "XXX", Units: "100"}, nil)
	if got != "XXX100+" {
		t.Fatalf("expected raw currency code fallback, got %q", got)
	}

	if got = formatPriceRange(nil, nil); got != "" {
		t.Fatalf("expected empty for missing start, got %q", got)
	}
}

func TestGroupDigits(t *testing.T) {
	cases := map[string]string{
		"5":       "5",
		"500":     "500",
		"5000":    "5,000",
		"1234567": "1,234,567",
	}

	for in, want := range cases {
		if got := groupDigits(in); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
}

func TestPriceTierSymbols(t *testing.T) {
	if got := priceTierSymbols("PRICE_LEVEL_MODERATE", "ko"); got != "₩₩" {
		t.Fatalf("expected ₩₩, got %q", got)
	}

	if got := priceTierSymbols("PRICE_LEVEL_VERY_EXPENSIVE", "en"); got != "$$$$" {
		t.Fatalf("expected $$$$, got %q", got)
	}

	if got := priceTierSymbols("PRICE_LEVEL_FREE", "en"); got != "" {
		t.Fatalf("expected empty for free tier, got %q", got)
	}
}

func TestStatusFromAPI(t *testing.T) {
	cases := map[string]BusinessStatus{
		"OPERATIONAL":        StatusOperational,
		"CLOSED_TEMPORARILY": StatusTemporarilyClosed,
		"CLOSED_PERMANENTLY": StatusPermanentlyClosed,
		"":                   StatusUnknown,
		"SOMETHING_NEW":      StatusUnknown,
	}

	for in, want := range cases {
		if got := statusFromAPI(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestCategoryFromTypes(t *testing.T) {
	got := categoryFromTypes([]string{"point_of_interest", "establishment", "korean_restaurant"})
	if got != "korean restaurant" {
		t.Fatalf("expected specific type, got %q", got)
	}

	if got := categoryFromTypes([]string{"point_of_interest"}); got != "" {
		t.Fatalf("expected empty for generic-only types, got %q", got)
	}
}

func TestSearchQuery(t *testing.T) {
	ids := []Identifier{
		{Kind: KindCID, Value: "123"},
		{Kind: KindCoordinates, Coords: &Coordinates{Lat: 37.57, Lng: 126.99}},
		{Kind: KindName, Value: "Gwangjang Market"},
	}

	name, coords := searchQuery(ids)

	if name != "Gwangjang Market" {
		t.Fatalf("expected name, got %q", name)
	}

	if coords == nil || coords.Lat != 37.57 {
		t.Fatalf("expected coordinates, got %+v", coords)
	}
}

func TestAPIPlaceToRecord_UnratedStaysAbsent(t *testing.T) {
	zero := 0.0
	zeroCount := 0

	p := apiPlace{
		Rating:          &zero,
		UserRatingCount: &zeroCount,
	}
	p.DisplayName = &struct {
		Text string `json:"text"`
	}{Text: "x"}

	rec := p.toRecord("en")

	if rec.Rating != nil {
		t.Fatalf("rating 0 with 0 reviews must become absent")
	}
}

func TestLookupClient_CIDRoutedToLegacyDetails(t *testing.T) {
	var gotQuery url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"status":"OK","result":{"name":"Gwangjang Market","rating":4.5,"user_ratings_total":433,"types":["market"]}}`)
	}))
	defer srv.Close()

	c := NewLookupClient("key")
	c.legacyURL = srv.URL

	rec := c.Lookup(context.Background(), []Identifier{{Kind: KindCID, Value: "11672739581206168839"}}, "en")

	if rec == nil || rec.Name != "Gwangjang Market" {
		t.Fatalf("expected record resolved via legacy endpoint, got %+v", rec)
	}

	if gotQuery.Get("cid") != "11672739581206168839" {
		t.Fatalf("expected cid query parameter, got %v", gotQuery)
	}

	if gotQuery.Get("place_id") != "" {
		t.Fatalf("cid lookups must not send place_id, got %v", gotQuery)
	}
}

func TestLookupClient_DisabledWithoutKey(t *testing.T) {
	var c *LookupClient

	if c.Enabled() {
		t.Fatalf("nil client must be disabled")
	}

	if NewLookupClient("").Enabled() {
		t.Fatalf("empty key must disable lookup")
	}

	if !NewLookupClient("key").Enabled() {
		t.Fatalf("expected enabled with key")
	}
}
