package facts

// Listing holds the typed facts extracted from a raw listing payload.
type Listing struct {
	Name          string
	Bedrooms      *int
	Beds          *int
	Bathrooms     *int
	Capacity      *int
	CheckInStart  string
	CheckInEnd    string
	CheckOutTime  string
	Cancellation  string
	Address       string
	City          string
	State         string
	Latitude      *float64
	Longitude     *float64
	WifiUsername  string
	WifiPassword  string
	DoorCode      string
	Amenities     *AmenityIndex
}

// ExtractListing normalizes a raw listing payload into Listing facts,
// tolerating the field-name variants the providers emit.
func ExtractListing(raw map[string]any) Listing {
	if raw == nil {
		return Listing{Amenities: BuildAmenityIndex(nil)}
	}
	if inner, ok := raw["result"].(map[string]any); ok {
		raw = inner
	}
	return Listing{
		Name:         ToString(raw["name"]),
		Bedrooms:     ToInt(getMap(raw, "bedroomsNumber", "bedrooms", "numberOfBedrooms")),
		Beds:         ToInt(getMap(raw, "bedsNumber", "beds", "numberOfBeds", "bedCount")),
		Bathrooms:    ToInt(getMap(raw, "bathroomsNumber", "bathrooms", "numberOfBathrooms")),
		Capacity:     ToInt(getMap(raw, "personCapacity", "maxGuests")),
		CheckInStart: HourClock(raw["checkInTimeStart"]),
		CheckInEnd:   HourClock(raw["checkInTimeEnd"]),
		CheckOutTime: HourClock(raw["checkOutTime"]),
		Cancellation: ToString(raw["cancellationPolicy"]),
		Address:      ToString(getMap(raw, "address", "address1")),
		City:         ToString(raw["city"]),
		State:        ToString(getMap(raw, "state", "province")),
		Latitude:     ToFloat(raw["latitude"]),
		Longitude:    ToFloat(raw["longitude"]),
		WifiUsername: ToString(raw["wifiUsername"]),
		WifiPassword: ToString(raw["wifiPassword"]),
		DoorCode:     ToString(getMap(raw, "doorSecurityCode", "doorCode")),
		Amenities:    BuildAmenityIndex(raw),
	}
}

// Summary renders the one-line property summary used in prompts, e.g.
// "3 bedrooms, 5 beds, 2 baths, up to 8 guests". Empty when nothing is
// known.
func (l Listing) Summary() string {
	var bits []string
	if l.Bedrooms != nil {
		bits = append(bits, plural(*l.Bedrooms, "bedroom"))
	}
	if l.Beds != nil {
		bits = append(bits, plural(*l.Beds, "bed"))
	}
	if l.Bathrooms != nil {
		bits = append(bits, plural(*l.Bathrooms, "bath"))
	}
	if l.Capacity != nil {
		bits = append(bits, "up to "+plural(*l.Capacity, "guest"))
	}
	out := ""
	for i, b := range bits {
		if i > 0 {
			out += ", "
		}
		out += b
	}
	return out
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return ToString(n) + " " + noun + "s"
}
