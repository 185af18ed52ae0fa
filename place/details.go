package place

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sadewadee/google-place-resolver/pkg/resilience"
)

const (
	placesBaseURL    = "https://places.googleapis.com/v1/places"
	legacyDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"
	lookupTimeout    = 8 * time.Second
	searchBiasRadius = 500.0
)

// detailFieldMask lists the fields requested for a direct Place Details call.
const detailFieldMask = "id,displayName,formattedAddress,rating,userRatingCount,priceLevel,priceRange,businessStatus,nationalPhoneNumber,websiteUri,types,primaryTypeDisplayName,googleMapsUri,regularOpeningHours,photos,location,reservable,delivery,takeout,dineIn"

// searchFieldMask is the detail mask prefixed for search responses.
const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.rating,places.userRatingCount,places.priceLevel,places.priceRange,places.businessStatus,places.nationalPhoneNumber,places.websiteUri,places.types,places.primaryTypeDisplayName,places.googleMapsUri,places.regularOpeningHours,places.photos,places.location,places.reservable,places.delivery,places.takeout,places.dineIn"

// LookupClient queries the Places API for authoritative place data. Every
// failure mode (transport error, non-200, empty result set, open breaker)
// yields an absent record, never a fatal error: the pipeline must keep working
// with HTML-only data.
type LookupClient struct {
	apiKey    string
	client    *http.Client
	breaker   *resilience.CircuitBreaker
	baseURL   string
	legacyURL string
}

func NewLookupClient(apiKey string) *LookupClient {
	return &LookupClient{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: lookupTimeout,
		},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		}),
		baseURL:   placesBaseURL,
		legacyURL: legacyDetailsURL,
	}
}

// Enabled reports whether an API key was configured. Without one the resolver
// runs in HTML-only mode.
func (c *LookupClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Lookup resolves the first usable identifier to an API record. ChIJ place ids
// go to Place Details, numeric customer ids to the legacy endpoint, and names
// (optionally with coordinates for a location bias) to text search. Returns
// nil when nothing could be resolved.
func (c *LookupClient) Lookup(ctx context.Context, ids []Identifier, lang string) *APIRecord {
	if !c.Enabled() {
		return nil
	}

	for _, id := range ids {
		switch {
		case id.DirectLookup():
			if rec := c.details(ctx, id.Value, lang); rec != nil {
				return rec
			}

			if rec := c.legacyDetails(ctx, "place_id", id.Value, lang); rec != nil {
				return rec
			}
		case id.Kind == KindCID:
			// The v1 endpoint rejects bare customer ids outright; only the
			// legacy endpoint still resolves them.
			if rec := c.legacyDetails(ctx, "cid", id.Value, lang); rec != nil {
				return rec
			}
		}
	}

	name, coords := searchQuery(ids)
	if name == "" {
		return nil
	}

	return c.textSearch(ctx, name, coords, lang)
}

// searchQuery picks the free-text name and the best coordinates out of the
// identifier candidates.
func searchQuery(ids []Identifier) (string, *Coordinates) {
	var (
		name   string
		coords *Coordinates
	)

	for _, id := range ids {
		switch id.Kind {
		case KindName:
			if name == "" {
				name = id.Value
			}
		case KindCoordinates:
			if coords == nil {
				coords = id.Coords
			}
		}
	}

	return name, coords
}

func (c *LookupClient) details(ctx context.Context, placeID, lang string) *APIRecord {
	var rec *APIRecord

	err := c.breaker.Execute(ctx, func() error {
		endpoint := c.baseURL + "/" + url.PathEscape(placeID) + "?languageCode=" + url.QueryEscape(lang)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("X-Goog-FieldMask", detailFieldMask)

		var result apiPlace

		if err := c.do(req, &result); err != nil {
			return err
		}

		rec = result.toRecord(lang)

		return nil
	})
	if err != nil || rec == nil {
		return nil
	}

	return rec
}

func (c *LookupClient) textSearch(ctx context.Context, query string, coords *Coordinates, lang string) *APIRecord {
	var rec *APIRecord

	err := c.breaker.Execute(ctx, func() error {
		payload := map[string]any{
			"textQuery":      query,
			"languageCode":   lang,
			"maxResultCount": 1,
		}

		if coords != nil {
			payload["locationBias"] = map[string]any{
				"circle": map[string]any{
					"center": map[string]any{
						"latitude":  coords.Lat,
						"longitude": coords.Lng,
					},
					"radius": searchBiasRadius,
				},
			}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+":searchText", bytes.NewReader(body))
		if err != nil {
			return err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		req.Header.Set("X-Goog-FieldMask", searchFieldMask)

		var result struct {
			Places []apiPlace `json:"places"`
		}

		if err := c.do(req, &result); err != nil {
			return err
		}

		if len(result.Places) == 0 {
			return fmt.Errorf("text search: no results for %q", query)
		}

		rec = result.Places[0].toRecord(lang)

		return nil
	})
	if err != nil || rec == nil {
		return nil
	}

	return rec
}

// legacyDetails falls back to the legacy Place Details endpoint, which still
// accepts identifiers the v1 endpoint rejects. param is "place_id" for place
// ids and "cid" for numeric customer ids.
func (c *LookupClient) legacyDetails(ctx context.Context, param, value, lang string) *APIRecord {
	var rec *APIRecord

	err := c.breaker.Execute(ctx, func() error {
		q := url.Values{}
		q.Set(param, value)
		q.Set("language", lang)
		q.Set("fields", "name,rating,user_ratings_total,types,price_level,formatted_address,opening_hours,formatted_phone_number,website,geometry,business_status")
		q.Set("key", c.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.legacyURL+"?"+q.Encode(), nil)
		if err != nil {
			return err
		}

		var result struct {
			Status string            `json:"status"`
			Result legacyPlaceResult `json:"result"`
		}

		if err := c.do(req, &result); err != nil {
			return err
		}

		if result.Status != "OK" {
			return fmt.Errorf("legacy details status: %s", result.Status)
		}

		rec = result.Result.toRecord(lang)

		return nil
	})
	if err != nil || rec == nil {
		return nil
	}

	return rec
}

func (c *LookupClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}

// apiPlace mirrors the Places API (New) response shape.
type apiPlace struct {
	ID          string `json:"id"`
	DisplayName *struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	Rating           *float64 `json:"rating"`
	UserRatingCount  *int     `json:"userRatingCount"`
	PriceLevel       string   `json:"priceLevel"`
	PriceRange       *struct {
		StartPrice *apiMoney `json:"startPrice"`
		EndPrice   *apiMoney `json:"endPrice"`
	} `json:"priceRange"`
	BusinessStatus      string   `json:"businessStatus"`
	NationalPhoneNumber string   `json:"nationalPhoneNumber"`
	WebsiteURI          string   `json:"websiteUri"`
	Types               []string `json:"types"`
	PrimaryTypeDisplay  *struct {
		Text string `json:"text"`
	} `json:"primaryTypeDisplayName"`
	GoogleMapsURI       string `json:"googleMapsUri"`
	RegularOpeningHours *struct {
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"regularOpeningHours"`
	Photos []struct {
		Name string `json:"name"`
	} `json:"photos"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Reservable *bool `json:"reservable"`
	Delivery   *bool `json:"delivery"`
	Takeout    *bool `json:"takeout"`
	DineIn     *bool `json:"dineIn"`
}

type apiMoney struct {
	CurrencyCode string `json:"currencyCode"`
	Units        string `json:"units"`
}

func (p apiPlace) toRecord(lang string) *APIRecord {
	if p.DisplayName == nil || p.DisplayName.Text == "" {
		return nil
	}

	rec := &APIRecord{
		PlaceID:       p.ID,
		Name:          p.DisplayName.Text,
		Address:       p.FormattedAddress,
		Rating:        p.Rating,
		ReviewCount:   p.UserRatingCount,
		Status:        statusFromAPI(p.BusinessStatus),
		Phone:         p.NationalPhoneNumber,
		Website:       p.WebsiteURI,
		Types:         p.Types,
		GoogleMapsURI: p.GoogleMapsURI,
		Reservable:    p.Reservable,
		Delivery:      p.Delivery,
		Takeout:       p.Takeout,
		DineIn:        p.DineIn,
	}

	// A rating of 0 with no reviews means "unrated", not "rated zero".
	if rec.Rating != nil && *rec.Rating == 0 && (rec.ReviewCount == nil || *rec.ReviewCount == 0) {
		rec.Rating = nil
	}

	if p.PrimaryTypeDisplay != nil {
		rec.Category = p.PrimaryTypeDisplay.Text
	}

	if rec.Category == "" {
		rec.Category = categoryFromTypes(p.Types)
	}

	if p.PriceRange != nil {
		rec.PriceLevel = formatPriceRange(p.PriceRange.StartPrice, p.PriceRange.EndPrice)
	}

	if rec.PriceLevel == "" {
		rec.PriceLevel = priceTierSymbols(p.PriceLevel, lang)
	}

	if p.RegularOpeningHours != nil {
		rec.OpeningHours = p.RegularOpeningHours.WeekdayDescriptions
	}

	if len(p.Photos) > 0 {
		rec.ImageURL = p.Photos[0].Name
	}

	if p.Location != nil {
		c := Coordinates{Lat: p.Location.Latitude, Lng: p.Location.Longitude}
		if c.Valid() {
			rec.Coords = &c
		}
	}

	if rec.GoogleMapsURI != "" {
		rec.DirectionsURI = directionsURI(rec.Name, rec.PlaceID)
	}

	return rec
}

// legacyPlaceResult mirrors the legacy Place Details response shape.
type legacyPlaceResult struct {
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	Types            []string `json:"types"`
	PriceLevel       *int     `json:"price_level"`
	FormattedAddress string   `json:"formatted_address"`
	OpeningHours     *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	FormattedPhoneNumber string `json:"formatted_phone_number"`
	Website              string `json:"website"`
	BusinessStatus       string `json:"business_status"`
	Geometry             *struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (p legacyPlaceResult) toRecord(lang string) *APIRecord {
	if p.Name == "" {
		return nil
	}

	rec := &APIRecord{
		Name:        p.Name,
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingsTotal,
		Status:      statusFromAPI(p.BusinessStatus),
		Phone:       p.FormattedPhoneNumber,
		Website:     p.Website,
		Types:       p.Types,
		Category:    categoryFromTypes(p.Types),
	}

	if rec.Rating != nil && *rec.Rating == 0 && (rec.ReviewCount == nil || *rec.ReviewCount == 0) {
		rec.Rating = nil
	}

	if p.PriceLevel != nil {
		rec.PriceLevel = strings.Repeat(currencySymbolForLanguage(lang), *p.PriceLevel)
	}

	if p.OpeningHours != nil {
		rec.OpeningHours = p.OpeningHours.WeekdayText
	}

	if p.Geometry != nil {
		c := Coordinates{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng}
		if c.Valid() {
			rec.Coords = &c
		}
	}

	return rec
}

func statusFromAPI(s string) BusinessStatus {
	switch s {
	case "OPERATIONAL":
		return StatusOperational
	case "CLOSED_TEMPORARILY":
		return StatusTemporarilyClosed
	case "CLOSED_PERMANENTLY":
		return StatusPermanentlyClosed
	default:
		return StatusUnknown
	}
}

// categoryFromTypes picks the most specific type, skipping the generic ones
// Google attaches to everything.
func categoryFromTypes(types []string) string {
	for _, t := range types {
		if t == "point_of_interest" || t == "establishment" || t == "food" {
			continue
		}

		return strings.ReplaceAll(t, "_", " ")
	}

	return ""
}

var currencySymbols = map[string]string{
	"KRW": "₩",
	"JPY": "¥",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CNY": "￥",
	"TWD": "NT$",
	"THB": "฿",
	"VND": "₫",
	"BRL": "R$",
}

// formatPriceRange renders an explicit API price range as
// "<symbol><start>~<symbol><end>", or "<symbol><start>+" when unbounded.
func formatPriceRange(start, end *apiMoney) string {
	if start == nil {
		return ""
	}

	sym, ok := currencySymbols[start.CurrencyCode]
	if !ok {
		sym = start.CurrencyCode
	}

	from := sym + groupDigits(start.Units)

	if end == nil || end.Units == "" {
		return from + "+"
	}

	return from + "~" + sym + groupDigits(end.Units)
}

// groupDigits inserts thousands separators into a plain integer string.
func groupDigits(units string) string {
	if len(units) <= 3 {
		return units
	}

	var b strings.Builder

	lead := len(units) % 3
	if lead > 0 {
		b.WriteString(units[:lead])
	}

	for i := lead; i < len(units); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}

		b.WriteString(units[i : i+3])
	}

	return b.String()
}

var priceTiers = map[string]int{
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// priceTierSymbols turns the coarse price tier enum into a repeated currency
// symbol string, picking the symbol from the request language.
func priceTierSymbols(level, lang string) string {
	n, ok := priceTiers[level]
	if !ok {
		return ""
	}

	return strings.Repeat(currencySymbolForLanguage(lang), n)
}

func currencySymbolForLanguage(lang string) string {
	base, _, _ := strings.Cut(lang, "-")

	switch base {
	case "ko":
		return "₩"
	case "ja":
		return "¥"
	case "zh":
		return "¥"
	case "th":
		return "฿"
	case "vi":
		return "₫"
	case "de", "fr", "es", "it":
		return "€"
	case "pt":
		return "R$"
	default:
		return "$"
	}
}

func directionsURI(name, placeID string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", name)

	if placeID != "" {
		q.Set("destination_place_id", placeID)
	}

	return "https://www.google.com/maps/dir/?" + q.Encode()
}
