package place

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	olc "github.com/google/open-location-code/go"
)

var (
	rePlaceIDParam = regexp.MustCompile(`[?&]place_id=([A-Za-z0-9_-]+)`)
	reFtidParam    = regexp.MustCompile(`[?&]ftid=(0x[0-9a-fA-F]+:0x[0-9a-fA-F]+)`)
	reFtidBlob     = regexp.MustCompile(`!1s(0x[0-9a-fA-F]+:0x[0-9a-fA-F]+)`)
	reCidParam     = regexp.MustCompile(`[?&]cid=(\d+)`)
	rePanCoord     = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	reBangCoord    = regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)
	rePlacePath    = regexp.MustCompile(`/maps/place/([^/@?]+)`)
	reSearchPath   = regexp.MustCompile(`/maps/search/([^/@?]+)`)
	rePlusCode     = regexp.MustCompile(`\b[23456789CFGHJMPQRVWX]{8}\+[23456789CFGHJMPQRVWX]{2,3}\b`)

	rePlaceIDLiteral = regexp.MustCompile(`ChIJ[A-Za-z0-9_-]{10,}`)
	reLudocid        = regexp.MustCompile(`ludocid[=\\]+(\d+)`)
	reCenterCoord    = regexp.MustCompile(`center=(-?\d+\.\d+)%2C(-?\d+\.\d+)`)
	reLLCoord        = regexp.MustCompile(`[?&]ll=(-?\d+\.\d+),(-?\d+\.\d+)`)
	reJSONCoord      = regexp.MustCompile(`"latitude"\s*:\s*(-?\d+\.?\d*)\s*,\s*"longitude"\s*:\s*(-?\d+\.?\d*)`)
)

// ExtractIdentifiers pulls identifier candidates out of a (already expanded)
// Maps URL, ordered by confidence. The first usable candidate wins downstream.
func ExtractIdentifiers(rawURL string) []Identifier {
	var ids []Identifier

	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		decoded = rawURL
	}

	if m := rePlaceIDParam.FindStringSubmatch(rawURL); m != nil {
		ids = append(ids, Identifier{Kind: KindPlaceID, Value: m[1]})
	}

	if m := reFtidParam.FindStringSubmatch(rawURL); m != nil {
		ids = append(ids, Identifier{Kind: KindFTID, Value: m[1]})
	} else if m := reFtidBlob.FindStringSubmatch(decoded); m != nil {
		ids = append(ids, Identifier{Kind: KindFTID, Value: m[1]})
	}

	if m := reCidParam.FindStringSubmatch(rawURL); m != nil {
		ids = append(ids, Identifier{Kind: KindCID, Value: m[1]})
	}

	// Precise !3d/!4d pairs outrank the pan position in the @ segment.
	if c := coordsFromPattern(reBangCoord, decoded); c != nil {
		ids = append(ids, Identifier{Kind: KindCoordinates, Coords: c})
	} else if c := coordsFromPattern(rePanCoord, rawURL); c != nil {
		ids = append(ids, Identifier{Kind: KindCoordinates, Coords: c})
	}

	if c := coordsFromPlusCode(decoded); c != nil {
		ids = append(ids, Identifier{Kind: KindCoordinates, Coords: c})
	}

	if name := freeTextName(rawURL, decoded); name != "" {
		ids = append(ids, Identifier{Kind: KindName, Value: name})
	}

	return ids
}

func coordsFromPattern(re *regexp.Regexp, s string) *Coordinates {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)

	if err1 != nil || err2 != nil {
		return nil
	}

	c := Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil
	}

	return &c
}

// coordsFromPlusCode decodes a full Open Location Code embedded in the URL.
// Short codes need a reference locality to recover and are skipped here.
func coordsFromPlusCode(s string) *Coordinates {
	code := rePlusCode.FindString(s)
	if code == "" {
		return nil
	}

	area, err := olc.Decode(code)
	if err != nil {
		return nil
	}

	lat, lng := area.Center()

	c := Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil
	}

	return &c
}

func freeTextName(rawURL, decoded string) string {
	if m := rePlacePath.FindStringSubmatch(rawURL); m != nil {
		return cleanPathName(m[1])
	}

	u, err := url.Parse(rawURL)
	if err == nil {
		if q := strings.TrimSpace(u.Query().Get("q")); q != "" && !looksLikeCoordinates(q) {
			return q
		}
	}

	if m := reSearchPath.FindStringSubmatch(decoded); m != nil {
		return cleanPathName(m[1])
	}

	return ""
}

func cleanPathName(segment string) string {
	segment = strings.ReplaceAll(segment, "+", " ")

	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}

	return strings.TrimSpace(segment)
}

func looksLikeCoordinates(s string) bool {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return false
	}

	_, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	_, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)

	return err1 == nil && err2 == nil
}

// PlaceIDFromHTML scans a fetched document for a usable identifier when the
// URL only yielded an ftid. Priority: ChIJ literal, ludocid literal, then the
// ftid's second hex component converted to a decimal ludocid. First match
// wins; the two numeric forms resolve through the legacy details endpoint.
func PlaceIDFromHTML(html, ftid string) (Identifier, bool) {
	if m := rePlaceIDLiteral.FindString(html); m != "" {
		return Identifier{Kind: KindPlaceID, Value: m}, true
	}

	if m := reLudocid.FindStringSubmatch(html); m != nil {
		return Identifier{Kind: KindCID, Value: m[1]}, true
	}

	if cid := LudocidFromFtid(ftid); cid != "" {
		return Identifier{Kind: KindCID, Value: cid}, true
	}

	return Identifier{}, false
}

// LudocidFromFtid converts the second hex component of an ftid (0x...:0x...)
// into the decimal customer id Google uses elsewhere.
func LudocidFromFtid(ftid string) string {
	_, hexPart, ok := strings.Cut(ftid, ":")
	if !ok {
		return ""
	}

	hexPart = strings.TrimPrefix(hexPart, "0x")

	n, err := strconv.ParseUint(hexPart, 16, 64)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%d", n)
}

// CoordinatesFromHTML re-extracts coordinates from a fetched document using
// an ordered fallback: !3d/!4d pairs, center=, ll=, then a JSON-style
// latitude/longitude pair. Invalid candidates are skipped, not fatal.
func CoordinatesFromHTML(html string) *Coordinates {
	for _, re := range []*regexp.Regexp{reBangCoord, reCenterCoord, reLLCoord, reJSONCoord} {
		if c := coordsFromPattern(re, html); c != nil {
			return c
		}
	}

	return nil
}
