package place

// Response is the external JSON contract, shaped after the Places API so
// existing consumers can swap data sources without changes.
type Response struct {
	PlaceID          string         `json:"place_id,omitempty"`
	Name             string         `json:"name"`
	NameLocal        string         `json:"name_local,omitempty"`
	FormattedAddress string         `json:"formatted_address,omitempty"`
	Rating           float64        `json:"rating"`
	UserRatingsTotal int            `json:"user_ratings_total"`
	PriceLevel       string         `json:"price_level,omitempty"`
	BusinessStatus   BusinessStatus `json:"business_status"`
	PhoneNumber      string         `json:"phone_number,omitempty"`
	Website          string         `json:"website,omitempty"`
	Email            string         `json:"email,omitempty"`
	Types            []string       `json:"types"`
	Photos           []Photo        `json:"photos"`
	Geometry         *Geometry      `json:"geometry,omitempty"`
	GoogleMapsURI    string         `json:"google_maps_uri,omitempty"`
	DirectionsURI    string         `json:"directions_uri,omitempty"`
	Reservable       *bool          `json:"reservable,omitempty"`
	Delivery         *bool          `json:"delivery,omitempty"`
	Takeout          *bool          `json:"takeout,omitempty"`
	DineIn           *bool          `json:"dine_in,omitempty"`
	OpeningHours     []string       `json:"opening_hours,omitempty"`
}

type Photo struct {
	PhotoReference string `json:"photo_reference"`
}

type Geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// BuildResponse shapes the reconciled record into the external schema.
// Types and photos are always present: empty slices, never null.
func BuildResponse(p *Place) *Response {
	r := &Response{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		NameLocal:        p.NameLocal,
		FormattedAddress: p.Address,
		Rating:           p.Rating,
		UserRatingsTotal: p.ReviewCount,
		PriceLevel:       p.PriceLevel,
		BusinessStatus:   p.Status,
		PhoneNumber:      p.Phone,
		Website:          p.Website,
		Email:            p.Email,
		Types:            []string{},
		Photos:           []Photo{},
		GoogleMapsURI:    p.GoogleMapsURI,
		DirectionsURI:    p.DirectionsURI,
		Reservable:       p.Reservable,
		Delivery:         p.Delivery,
		Takeout:          p.Takeout,
		DineIn:           p.DineIn,
		OpeningHours:     p.OpeningHours,
	}

	if r.BusinessStatus == "" {
		r.BusinessStatus = StatusUnknown
	}

	if p.Category != "" {
		r.Types = []string{p.Category}
	}

	if p.ImageURL != "" {
		r.Photos = []Photo{{PhotoReference: p.ImageURL}}
	}

	if p.Coords != nil {
		g := &Geometry{}
		g.Location.Lat = p.Coords.Lat
		g.Location.Lng = p.Coords.Lng
		r.Geometry = g
	}

	return r
}
