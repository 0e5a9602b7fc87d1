package facts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// amenitySynonyms folds vendor amenity phrasings into canonical keys.
// Multiple raw phrases map to one key so "Wi-Fi", "wifi", and "internet"
// all land on "wifi".
var amenitySynonyms = map[string][]string{
	"wifi":         {"wifi", "wi fi", "wi-fi", "internet"},
	"parking":      {"parking", "garage", "driveway"},
	"pool":         {"pool", "swimming pool"},
	"hot_tub":      {"hot tub", "jacuzzi", "spa"},
	"ac":           {"ac", "a/c", "air conditioning", "aircon"},
	"heating":      {"heating", "heater", "heat"},
	"kitchen":      {"kitchen", "full kitchen"},
	"washer":       {"washer", "washing machine", "laundry"},
	"dryer":        {"dryer", "tumble dryer"},
	"dishwasher":   {"dishwasher"},
	"tv":           {"tv", "television", "smart tv"},
	"pets_allowed": {"pets", "pet friendly", "dogs", "cats"},
	"gym":          {"gym", "fitness"},
	"elevator":     {"elevator", "lift"},
	"balcony":      {"balcony", "terrace", "patio"},
	"grill":        {"grill", "bbq", "barbecue"},
	"crib":         {"crib", "pack n play", "pack-and-play"},
	"ev_charger":   {"ev charger", "ev charging", "electric vehicle charger"},
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	spacedNorm = regexp.MustCompile(`\s+`)
)

// Slug reduces a raw name to a stable lowercase underscore key.
func Slug(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

func normalizeSpaces(s string) string {
	return strings.TrimSpace(spacedNorm.ReplaceAllString(s, " "))
}

// CanonicalAmenityKey maps a raw amenity name to its canonical key:
// synonym-table match first, then a slug of the raw name. Empty input
// yields "unknown".
func CanonicalAmenityKey(raw string) string {
	s := strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(raw), " "))
	for key, syns := range amenitySynonyms {
		for _, syn := range syns {
			if s == syn || strings.Contains(s, syn) {
				return key
			}
		}
	}
	if slug := Slug(s); slug != "" {
		return slug
	}
	return "unknown"
}

// SyntheticAmenityKey names an amenity known only by an opaque vendor
// id. Stable and non-colliding with name-derived keys.
func SyntheticAmenityKey(id int) string {
	return fmt.Sprintf("amenity_%d", id)
}

// AmenityHit is one scored corpus entry returned by AmenityIndex.Search.
type AmenityHit struct {
	Key   string
	Label string
	Value string
}

type corpusEntry struct {
	key   string
	label string
	value string
}

// AmenityIndex is the normalized amenity and meta-fact view of a raw
// listing payload.
type AmenityIndex struct {
	Amenities map[string]bool
	Labels    map[string]string
	Meta      map[string]string
	BedTypes  map[string]int

	corpus []corpusEntry
}

// BuildAmenityIndex canonicalizes a raw listing payload's amenities,
// scalar meta facts, and bed types into a searchable index.
func BuildAmenityIndex(raw map[string]any) *AmenityIndex {
	idx := &AmenityIndex{
		Amenities: map[string]bool{},
		Labels:    map[string]string{},
		Meta:      map[string]string{},
		BedTypes:  map[string]int{},
	}
	if raw == nil {
		return idx
	}

	idx.ingestScalars(raw)
	idx.ingestImplied(raw)
	idx.ingestListingAmenities(raw)
	idx.ingestBedTypes(raw)
	idx.buildCorpus(raw)
	return idx
}

func (idx *AmenityIndex) ingestScalars(raw map[string]any) {
	for k, v := range raw {
		switch v.(type) {
		case string, int, int64, float64, bool:
			if s := ToString(v); s != "" {
				idx.Meta[k] = s
			}
		}
	}
	if t := HourClock(raw["checkInTimeStart"]); t != "" {
		idx.Meta["check_in_start"] = t
	}
	if t := HourClock(raw["checkInTimeEnd"]); t != "" {
		idx.Meta["check_in_end"] = t
	}
	if t := HourClock(raw["checkOutTime"]); t != "" {
		idx.Meta["check_out_time"] = t
	}
}

// ingestImplied derives amenity flags the vendor never lists directly:
// wifi from credentials, pets and parking from description text.
func (idx *AmenityIndex) ingestImplied(raw map[string]any) {
	if ToString(raw["wifiUsername"]) != "" || ToString(raw["wifiPassword"]) != "" {
		idx.setAmenity("wifi", true, "Wi-Fi")
	}

	var blob strings.Builder
	for _, k := range []string{"description", "houseRules", "specialInstruction"} {
		blob.WriteString(strings.ToLower(ToString(raw[k])))
		blob.WriteString(" ")
	}
	desc := blob.String()

	if mp := ToInt(raw["maxPetsAllowed"]); mp != nil {
		idx.setAmenity("pets_allowed", *mp > 0, "Pets allowed")
	}
	if strings.Contains(desc, "no pets") || strings.Contains(desc, "pets not allowed") {
		idx.setAmenity("pets_allowed", false, "Pets allowed")
	}
	if strings.Contains(desc, "pets allowed") || strings.Contains(desc, "pet friendly") {
		idx.setAmenity("pets_allowed", true, "Pets allowed")
	}
	for _, w := range []string{"parking", "garage", "driveway"} {
		if strings.Contains(desc, w) {
			if _, ok := idx.Amenities["parking"]; !ok {
				idx.setAmenity("parking", true, "Parking")
			}
			break
		}
	}
}

func (idx *AmenityIndex) ingestListingAmenities(raw map[string]any) {
	list, _ := raw["listingAmenities"].([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := ToString(getMap(m, "name", "amenityName"))
		if name != "" {
			key := CanonicalAmenityKey(name)
			idx.setAmenity(key, true, name)
			continue
		}
		if id := ToInt(m["amenityId"]); id != nil {
			key := SyntheticAmenityKey(*id)
			idx.setAmenity(key, true, key)
		}
	}
}

func (idx *AmenityIndex) ingestBedTypes(raw map[string]any) {
	list, _ := raw["listingBedTypes"].([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		qty := ToInt(m["quantity"])
		if qty == nil || *qty <= 0 {
			continue
		}
		label := "Bed"
		if id := ToInt(m["bedTypeId"]); id != nil {
			label = fmt.Sprintf("Bed type %d", *id)
		}
		idx.BedTypes[label] += *qty
	}
}

func (idx *AmenityIndex) setAmenity(key string, val bool, label string) {
	idx.Amenities[key] = val
	if _, ok := idx.Labels[key]; !ok {
		idx.Labels[key] = strings.TrimSpace(label)
	}
}

func (idx *AmenityIndex) buildCorpus(raw map[string]any) {
	for key, val := range idx.Amenities {
		label := idx.Labels[key]
		if label == "" {
			label = titleWords(strings.ReplaceAll(key, "_", " "))
		}
		vtxt := "no"
		if val {
			vtxt = "yes"
		}
		idx.corpus = append(idx.corpus, corpusEntry{"amenity:" + key, label, vtxt})
		for _, syn := range amenitySynonyms[key] {
			idx.corpus = append(idx.corpus, corpusEntry{"amenity:" + key, syn, vtxt})
		}
	}
	for k, v := range idx.Meta {
		idx.corpus = append(idx.corpus, corpusEntry{"meta:" + Slug(k), k, normalizeSpaces(v)})
	}
	for name, qty := range idx.BedTypes {
		idx.corpus = append(idx.corpus, corpusEntry{"bedtype:" + Slug(name), name, fmt.Sprintf("%d", qty)})
	}
	list, _ := raw["listingImages"].([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if cap := ToString(getMap(m, "caption", "airbnbCaption", "vrboCaption")); cap != "" {
			idx.corpus = append(idx.corpus, corpusEntry{"image:caption", "image", cap})
		}
	}
}

// Supports reports whether the listing has the named amenity. Nil when
// the index has no signal either way.
func (idx *AmenityIndex) Supports(keyOrName string) *bool {
	key := CanonicalAmenityKey(keyOrName)
	if v, ok := idx.Amenities[key]; ok {
		return &v
	}
	return nil
}

// Search scores corpus entries by token overlap with the query, label
// matches weighted higher, and returns the top hits.
func (idx *AmenityIndex) Search(query string, topk int) []AmenityHit {
	q := strings.ToLower(normalizeSpaces(query))
	if q == "" || topk <= 0 {
		return nil
	}
	toks := strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(toks) == 0 {
		return nil
	}

	type scored struct {
		score float64
		hit   AmenityHit
	}
	var results []scored
	for _, e := range idx.corpus {
		text := strings.ToLower(e.label + " " + e.value)
		label := strings.ToLower(e.label)
		score := 0.0
		for _, t := range toks {
			if strings.Contains(text, t) {
				score += 1.0
				if strings.Contains(label, t) {
					score += 0.5
				}
			}
		}
		if score > 0 {
			results = append(results, scored{score, AmenityHit{e.key, e.label, e.value}})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > topk {
		results = results[:topk]
	}
	out := make([]AmenityHit, len(results))
	for i, r := range results {
		out[i] = r.hit
	}
	return out
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// HourClock renders a 0-23 hour value as a 12-hour clock string, e.g.
// 16 becomes "4:00 PM". Empty string for anything out of range.
func HourClock(v any) string {
	h := ToInt(v)
	if h == nil || *h < 0 || *h > 23 {
		return ""
	}
	ampm := "AM"
	if *h >= 12 {
		ampm = "PM"
	}
	hr := *h % 12
	if hr == 0 {
		hr = 12
	}
	return fmt.Sprintf("%d:00 %s", hr, ampm)
}
