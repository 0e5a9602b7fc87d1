package facts

import "testing"

func TestCanonicalAmenityKeyEquivalence(t *testing.T) {
	variants := []string{"Wi-Fi", "wifi", "WI-FI", "wi fi", "Internet"}
	for _, v := range variants {
		if key := CanonicalAmenityKey(v); key != "wifi" {
			t.Errorf("CanonicalAmenityKey(%q) = %q, want wifi", v, key)
		}
	}
}

func TestCanonicalAmenityKeyFallbacks(t *testing.T) {
	if key := CanonicalAmenityKey("Outdoor Shower"); key != "outdoor_shower" {
		t.Errorf("unmatched names should slugify, got %q", key)
	}
	if key := CanonicalAmenityKey(""); key != "unknown" {
		t.Errorf("empty input should yield unknown, got %q", key)
	}
	if key := SyntheticAmenityKey(993); key != "amenity_993" {
		t.Errorf("SyntheticAmenityKey = %q", key)
	}
}

func TestBuildAmenityIndex(t *testing.T) {
	raw := map[string]any{
		"wifiUsername": "beachhouse",
		"wifiPassword": "surf123",
		"description":  "Garage parking available. No pets.",
		"listingAmenities": []any{
			map[string]any{"name": "Swimming Pool"},
			map[string]any{"amenityId": 993},
		},
		"listingBedTypes": []any{
			map[string]any{"bedTypeId": 3, "quantity": 2},
		},
		"checkInTimeStart": 16,
		"checkOutTime":     11,
	}
	idx := BuildAmenityIndex(raw)

	if v := idx.Supports("wifi"); v == nil || !*v {
		t.Error("wifi should be implied by credentials")
	}
	if v := idx.Supports("pool"); v == nil || !*v {
		t.Error("pool should come from listingAmenities")
	}
	if v, ok := idx.Amenities["amenity_993"]; !ok || !v {
		t.Error("opaque amenity ids should get synthetic keys")
	}
	if v := idx.Supports("pets"); v == nil || *v {
		t.Error("description text should disable pets")
	}
	if v := idx.Supports("parking"); v == nil || !*v {
		t.Error("description text should imply parking")
	}
	if idx.Meta["check_in_start"] != "4:00 PM" {
		t.Errorf("check_in_start = %q", idx.Meta["check_in_start"])
	}
	if idx.Meta["check_out_time"] != "11:00 AM" {
		t.Errorf("check_out_time = %q", idx.Meta["check_out_time"])
	}
	if idx.BedTypes["Bed type 3"] != 2 {
		t.Errorf("bed types = %v", idx.BedTypes)
	}
}

func TestAmenityIndexSearch(t *testing.T) {
	raw := map[string]any{
		"wifiUsername": "beachhouse",
		"listingAmenities": []any{
			map[string]any{"name": "Hot Tub"},
		},
	}
	idx := BuildAmenityIndex(raw)

	hits := idx.Search("do you have a hot tub", 3)
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Key != "amenity:hot_tub" {
		t.Errorf("top hit = %+v, want hot_tub entry first", hits[0])
	}
	if idx.Search("", 3) != nil {
		t.Error("empty query should return nil")
	}
}

func TestHourClock(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{16, "4:00 PM"},
		{0, "12:00 AM"},
		{12, "12:00 PM"},
		{11, "11:00 AM"},
		{"15", "3:00 PM"},
		{24, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := HourClock(tt.in); got != tt.want {
			t.Errorf("HourClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
