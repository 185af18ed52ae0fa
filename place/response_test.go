package place

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildResponse_TypesEmptyIffNoCategory(t *testing.T) {
	r := BuildResponse(&Place{Name: "x"})

	if r.Types == nil || len(r.Types) != 0 {
		t.Fatalf("expected empty types slice, got %#v", r.Types)
	}

	r = BuildResponse(&Place{Name: "x", Category: "한식당"})

	if len(r.Types) != 1 || r.Types[0] != "한식당" {
		t.Fatalf("expected category in types, got %#v", r.Types)
	}
}

func TestBuildResponse_PhotosEmptyIffNoImage(t *testing.T) {
	r := BuildResponse(&Place{Name: "x"})

	if r.Photos == nil || len(r.Photos) != 0 {
		t.Fatalf("expected empty photos slice, got %#v", r.Photos)
	}

	r = BuildResponse(&Place{Name: "x", ImageURL: "https://lh3.googleusercontent.com/p/x"})

	if len(r.Photos) != 1 || r.Photos[0].PhotoReference == "" {
		t.Fatalf("expected photo reference, got %#v", r.Photos)
	}
}

func TestBuildResponse_ArraysSerializeAsJSONArrays(t *testing.T) {
	data, err := json.Marshal(BuildResponse(&Place{Name: "x"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(data)

	if !strings.Contains(s, `"types":[]`) || !strings.Contains(s, `"photos":[]`) {
		t.Fatalf("expected [] not null for empty arrays: %s", s)
	}
}

func TestBuildResponse_StatusDefaultsToUnknown(t *testing.T) {
	r := BuildResponse(&Place{Name: "x"})

	if r.BusinessStatus != StatusUnknown {
		t.Fatalf("expected unknown status default, got %s", r.BusinessStatus)
	}
}

func TestBuildResponse_Geometry(t *testing.T) {
	r := BuildResponse(&Place{Name: "x", Coords: &Coordinates{Lat: 37.57, Lng: 126.99}})

	if r.Geometry == nil || r.Geometry.Location.Lat != 37.57 {
		t.Fatalf("expected geometry from coordinates, got %#v", r.Geometry)
	}

	if BuildResponse(&Place{Name: "x"}).Geometry != nil {
		t.Fatalf("expected nil geometry without coordinates")
	}
}
