package place

import "strings"

// foodKeywords drives the delivery/takeout inference on HTML-only results:
// food businesses almost always offer both.
var foodKeywords = []string{
	"restaurant", "cafe", "café", "coffee", "bakery", "bar", "pizzeria",
	"diner", "bistro", "pub", "food",
	"음식점", "식당", "카페", "레스토랑", "베이커리", "빵집", "커피",
	"レストラン", "カフェ", "食堂", "居酒屋",
	"餐厅", "咖啡",
}

// Reconcile merges HTML-derived metadata with the optional API record under a
// fixed precedence policy. The result is deterministic for a given pair of
// inputs regardless of which source arrived first.
func Reconcile(meta *Metadata, api *APIRecord) *Place {
	p := &Place{
		Name:        meta.Name,
		NameLocal:   meta.NameLocal,
		Address:     meta.Address,
		Rating:      meta.Rating,
		ReviewCount: meta.ReviewCount,
		PriceLevel:  meta.PriceLevel,
		Status:      meta.Status,
		Category:    meta.Category,
		Phone:       meta.Phone,
		Website:     meta.Website,
		Email:       meta.Email,
		ImageURL:    meta.ImageURL,
		Coords:      meta.Coords,
		Source:      "html",
	}

	if p.Status == "" {
		p.Status = StatusUnknown
	}

	if api == nil {
		inferDiningOptions(p)

		return p
	}

	p.Source = "merged"
	p.PlaceID = api.PlaceID

	if p.Name == "" {
		p.Name = api.Name
		p.Source = "api"
	}

	if p.Address == "" {
		p.Address = api.Address
	}

	// Rating and review count: API wins whenever it carries a value.
	if api.Rating != nil {
		p.Rating = *api.Rating
	}

	if api.ReviewCount != nil {
		p.ReviewCount = *api.ReviewCount
	}

	p.PriceLevel = reconcilePrice(meta.PriceLevel, api.PriceLevel)

	if api.Status != StatusUnknown {
		p.Status = api.Status
	}

	// Phone, website and category: API only fills gaps, HTML keeps
	// precedence when it found something.
	if p.Phone == "" {
		p.Phone = api.Phone
	}

	if p.Website == "" {
		p.Website = api.Website
	}

	if p.Category == "" {
		p.Category = api.Category
	}

	if p.ImageURL == "" {
		p.ImageURL = api.ImageURL
	}

	if p.Coords == nil {
		p.Coords = api.Coords
	}

	// API-only extras are taken verbatim, including nil: once an API record
	// exists, a missing value stays missing rather than being backfilled
	// with a guess.
	p.Reservable = api.Reservable
	p.Delivery = api.Delivery
	p.Takeout = api.Takeout
	p.DineIn = api.DineIn
	p.OpeningHours = api.OpeningHours
	p.GoogleMapsURI = api.GoogleMapsURI
	p.DirectionsURI = api.DirectionsURI

	return p
}

// reconcilePrice picks a price level by information content: an explicit
// numeric range beats symbol tiers, and HTML values carrying digits beat the
// API's coarse symbols.
func reconcilePrice(html, api string) string {
	apiHasDigits := containsDigit(api)
	htmlHasDigits := containsDigit(html)

	switch {
	case apiHasDigits:
		return api
	case htmlHasDigits:
		return html
	case api != "":
		return api
	default:
		return html
	}
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

// inferDiningOptions sets delivery/takeout for food businesses. Called only
// when no API record exists at all; with one present, absent values stay
// absent. Non-food categories stay undefined either way.
func inferDiningOptions(p *Place) {
	category := strings.ToLower(p.Category)
	if category == "" {
		return
	}

	for _, kw := range foodKeywords {
		if strings.Contains(category, kw) {
			t := true
			p.Delivery = &t
			p.Takeout = &t

			return
		}
	}
}
