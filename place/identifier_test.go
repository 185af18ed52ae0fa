package place

import "testing"

func TestExtractIdentifiers_PlaceIDParamFirst(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/place/?place_id=ChIJN1t_tDeuEmsRUsoyG83frY4&cid=123")

	if len(ids) < 2 {
		t.Fatalf("expected at least 2 identifiers, got %d", len(ids))
	}

	if ids[0].Kind != KindPlaceID || ids[0].Value != "ChIJN1t_tDeuEmsRUsoyG83frY4" {
		t.Fatalf("expected place_id first, got %s=%q", ids[0].Kind, ids[0].Value)
	}

	if ids[1].Kind != KindCID || ids[1].Value != "123" {
		t.Fatalf("expected cid second, got %s=%q", ids[1].Kind, ids[1].Value)
	}
}

func TestExtractIdentifiers_FtidParam(t *testing.T) {
	ids := ExtractIdentifiers("https://maps.google.com/?ftid=0x357ca2f1:0x1f2e3d4c")

	if len(ids) == 0 || ids[0].Kind != KindFTID || ids[0].Value != "0x357ca2f1:0x1f2e3d4c" {
		t.Fatalf("expected ftid identifier, got %+v", ids)
	}
}

func TestExtractIdentifiers_FtidFromDataBlob(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/place/x/data=!3m1!4b1!4m6!3m5!1s0x357ca2f1:0x1f2e3d4c")

	var found bool
	for _, id := range ids {
		if id.Kind == KindFTID && id.Value == "0x357ca2f1:0x1f2e3d4c" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected ftid from !1s blob, got %+v", ids)
	}
}

func TestExtractIdentifiers_BangCoordsOutrankPanCoords(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/place/x/@37.5700,126.9990,17z/data=!3d37.570376!4d126.999842")

	var coords *Coordinates
	for _, id := range ids {
		if id.Kind == KindCoordinates {
			coords = id.Coords
			break
		}
	}

	if coords == nil {
		t.Fatalf("expected coordinates, got %+v", ids)
	}

	if coords.Lat != 37.570376 || coords.Lng != 126.999842 {
		t.Fatalf("expected precise !3d/!4d pair, got %v", coords)
	}
}

func TestExtractIdentifiers_PanCoordsFallback(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/@37.5700,126.9990,17z")

	var coords *Coordinates
	for _, id := range ids {
		if id.Kind == KindCoordinates {
			coords = id.Coords
			break
		}
	}

	if coords == nil || coords.Lat != 37.57 || coords.Lng != 126.999 {
		t.Fatalf("expected pan coordinates, got %+v", ids)
	}
}

func TestExtractIdentifiers_PlusCode(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/place/8Q98H2W5%2B2X")

	var coords *Coordinates
	for _, id := range ids {
		if id.Kind == KindCoordinates {
			coords = id.Coords
			break
		}
	}

	if coords == nil || !coords.Valid() {
		t.Fatalf("expected decoded plus code coordinates, got %+v", ids)
	}
}

func TestExtractIdentifiers_FreeTextName(t *testing.T) {
	ids := ExtractIdentifiers("https://www.google.com/maps/place/Gwangjang+Market/@37.57,126.99,17z")

	var name string
	for _, id := range ids {
		if id.Kind == KindName {
			name = id.Value
			break
		}
	}

	if name != "Gwangjang Market" {
		t.Fatalf("expected free-text name, got %q", name)
	}
}

func TestExtractIdentifiers_QueryParamName(t *testing.T) {
	ids := ExtractIdentifiers("https://maps.google.com/?q=Gwangjang+Market")

	var name string
	for _, id := range ids {
		if id.Kind == KindName {
			name = id.Value
			break
		}
	}

	if name != "Gwangjang Market" {
		t.Fatalf("expected name from q=, got %q", name)
	}
}

func TestExtractIdentifiers_CoordinateQueryIsNotAName(t *testing.T) {
	ids := ExtractIdentifiers("https://maps.google.com/?q=37.57,126.99")

	for _, id := range ids {
		if id.Kind == KindName {
			t.Fatalf("coordinate query must not become a name: %q", id.Value)
		}
	}
}

func TestIdentifier_DirectLookup(t *testing.T) {
	if !(Identifier{Kind: KindPlaceID, Value: "ChIJN1t_tDeuEmsRUsoyG83frY4"}).DirectLookup() {
		t.Fatalf("ChIJ place id must allow direct lookup")
	}

	if (Identifier{Kind: KindCID, Value: "123456"}).DirectLookup() {
		t.Fatalf("numeric cid must not allow direct lookup")
	}
}

func TestLudocidFromFtid(t *testing.T) {
	if got := LudocidFromFtid("0x357ca2f1:0x1f"); got != "31" {
		t.Fatalf("expected 31, got %q", got)
	}

	if got := LudocidFromFtid("garbage"); got != "" {
		t.Fatalf("expected empty for malformed ftid, got %q", got)
	}
}

func TestPlaceIDFromHTML_Priority(t *testing.T) {
	html := `ludocid=99887766 and ChIJN1t_tDeuEmsRUsoyG83frY4`

	id, ok := PlaceIDFromHTML(html, "0x357ca2f1:0x1f")
	if !ok || id.Kind != KindPlaceID || id.Value != "ChIJN1t_tDeuEmsRUsoyG83frY4" {
		t.Fatalf("expected ChIJ literal to win, got %+v", id)
	}

	id, ok = PlaceIDFromHTML("ludocid=99887766", "0x357ca2f1:0x1f")
	if !ok || id.Kind != KindCID || id.Value != "99887766" {
		t.Fatalf("expected ludocid literal second, got %+v", id)
	}

	id, ok = PlaceIDFromHTML("nothing here", "0x357ca2f1:0x1f")
	if !ok || id.Kind != KindCID || id.Value != "31" {
		t.Fatalf("expected ftid-derived ludocid last, got %+v", id)
	}

	if _, ok = PlaceIDFromHTML("nothing here", ""); ok {
		t.Fatalf("expected no identifier without any source")
	}
}

func TestCoordinatesFromHTML_OrderedFallback(t *testing.T) {
	c := CoordinatesFromHTML(`center=37.570000%2C126.999000 and !3d35.100000!4d129.030000`)
	if c == nil || c.Lat != 35.1 {
		t.Fatalf("expected !3d/!4d pair to win, got %+v", c)
	}

	c = CoordinatesFromHTML(`center=37.570000%2C126.999000`)
	if c == nil || c.Lat != 37.57 {
		t.Fatalf("expected center fallback, got %+v", c)
	}

	c = CoordinatesFromHTML(`"latitude":37.57,"longitude":126.99`)
	if c == nil || c.Lng != 126.99 {
		t.Fatalf("expected JSON pair fallback, got %+v", c)
	}

	if c = CoordinatesFromHTML(`!3d999.0!4d126.99`); c != nil {
		t.Fatalf("expected out-of-range coordinates rejected, got %+v", c)
	}
}
