package place

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BusinessStatus is the normalized operating status of a place.
type BusinessStatus string

const (
	StatusOperational       BusinessStatus = "operational"
	StatusTemporarilyClosed BusinessStatus = "temporarily_closed"
	StatusPermanentlyClosed BusinessStatus = "permanently_closed"
	StatusUnknown           BusinessStatus = "unknown"
)

// Query is one inbound resolve request. It is created per request and
// discarded after the response is written.
type Query struct {
	RawURL   string
	Language string
}

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) Valid() bool {
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}

	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// IdentifierKind enumerates the identifier formats Google uses for the same
// place across URL schemes and APIs.
type IdentifierKind int

const (
	KindNone IdentifierKind = iota
	KindPlaceID
	KindFTID
	KindCID
	KindCoordinates
	KindName
)

func (k IdentifierKind) String() string {
	switch k {
	case KindPlaceID:
		return "place_id"
	case KindFTID:
		return "ftid"
	case KindCID:
		return "cid"
	case KindCoordinates:
		return "coordinates"
	case KindName:
		return "name"
	default:
		return "none"
	}
}

// Identifier is one resolved identifier candidate. A request may yield zero,
// one or several candidates; they are tried in declaration order.
type Identifier struct {
	Kind   IdentifierKind
	Value  string
	Coords *Coordinates
}

// DirectLookup reports whether the identifier can be used for a v1 Place
// Details call. Only ChIJ-prefixed place ids qualify; numeric ludocid-style
// ids route to the legacy details endpoint instead.
func (id Identifier) DirectLookup() bool {
	return id.Kind == KindPlaceID && strings.HasPrefix(id.Value, "ChIJ")
}

// Document is one fetched language variant of a place page.
type Document struct {
	Body   string
	Locale string
}

// Metadata holds the fields mined out of one or two Documents.
// Invariants: Rating is a decimal in [0,5] when non-zero; ReviewCount >= 0.
type Metadata struct {
	Name        string
	NameLocal   string
	Address     string
	Description string
	ImageURL    string
	Rating      float64
	ReviewCount int
	PriceLevel  string
	Status      BusinessStatus
	Category    string
	Phone       string
	Website     string
	Email       string
	Coords      *Coordinates
}

// APIRecord is the authoritative record returned by the Places API.
// Pointer fields distinguish "absent" from a zero value so the reconciler can
// apply its precedence rules faithfully.
type APIRecord struct {
	PlaceID       string
	Name          string
	Address       string
	Rating        *float64
	ReviewCount   *int
	PriceLevel    string
	Status        BusinessStatus
	Phone         string
	Website       string
	Category      string
	Types         []string
	ImageURL      string
	GoogleMapsURI string
	DirectionsURI string
	Reservable    *bool
	Delivery      *bool
	Takeout       *bool
	DineIn        *bool
	OpeningHours  []string
	Coords        *Coordinates
}

// Place is the reconciled, final record for one request. It is owned solely
// by that request and never cached or persisted by the web path.
type Place struct {
	PlaceID       string         `json:"place_id,omitempty"`
	Name          string         `json:"name"`
	NameLocal     string         `json:"name_local,omitempty"`
	Address       string         `json:"address,omitempty"`
	Rating        float64        `json:"rating"`
	ReviewCount   int            `json:"review_count"`
	PriceLevel    string         `json:"price_level,omitempty"`
	Status        BusinessStatus `json:"business_status"`
	Category      string         `json:"category,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Website       string         `json:"website,omitempty"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	GoogleMapsURI string         `json:"google_maps_uri,omitempty"`
	DirectionsURI string         `json:"directions_uri,omitempty"`
	Reservable    *bool          `json:"reservable,omitempty"`
	Delivery      *bool          `json:"delivery,omitempty"`
	Takeout       *bool          `json:"takeout,omitempty"`
	DineIn        *bool          `json:"dine_in,omitempty"`
	OpeningHours  []string       `json:"opening_hours,omitempty"`
	Coords        *Coordinates   `json:"coordinates,omitempty"`
	ResolvedURL   string         `json:"resolved_url,omitempty"`
	Source        string         `json:"source,omitempty"` // html | api | merged
}

func (p *Place) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is empty")
	}

	return nil
}

func (p *Place) CsvHeaders() []string {
	return []string{
		"resolved_url",
		"place_id",
		"name",
		"name_local",
		"address",
		"rating",
		"review_count",
		"price_level",
		"business_status",
		"category",
		"phone",
		"website",
		"email",
		"latitude",
		"longitude",
		"google_maps_uri",
		"opening_hours",
		"source",
	}
}

func (p *Place) CsvRow() []string {
	var lat, lng string
	if p.Coords != nil {
		lat = fmt.Sprintf("%f", p.Coords.Lat)
		lng = fmt.Sprintf("%f", p.Coords.Lng)
	}

	return []string{
		p.ResolvedURL,
		p.PlaceID,
		p.Name,
		p.NameLocal,
		p.Address,
		fmt.Sprintf("%.1f", p.Rating),
		fmt.Sprintf("%d", p.ReviewCount),
		p.PriceLevel,
		string(p.Status),
		p.Category,
		p.Phone,
		p.Website,
		p.Email,
		lat,
		lng,
		p.GoogleMapsURI,
		stringify(p.OpeningHours),
		p.Source,
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		d, _ := json.Marshal(v)

		return string(d)
	}
}
