// Package dataset holds the immutable driver and location catalog the
// guardian scores rides against, and the loaders that build it.
package dataset

import (
	"errors"
	"sort"
	"strings"

	"github.com/example/ride-guardian/internal/models"
)

var (
	ErrEmptyCatalog = errors.New("catalog has no drivers or no locations")
	ErrBadRecord    = errors.New("malformed dataset record")
)

// aliases maps the first five numbered locations to the names the booking
// page has always used.
var aliases = map[string]string{
	"001": "home",
	"002": "office",
	"003": "mall",
	"004": "friend",
	"005": "restaurant",
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	drivers   []models.Driver
	locations map[string]models.Location
}

// New validates and indexes drivers and locations. Location keys are taken
// from Location.Key; numbered keys 001-005 also get their alias.
func New(drivers []models.Driver, locations []models.Location) (*Catalog, error) {
	if len(drivers) == 0 || len(locations) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		drivers:   append([]models.Driver(nil), drivers...),
		locations: make(map[string]models.Location, len(locations)+len(aliases)),
	}
	for _, l := range locations {
		c.locations[l.Key] = l
	}
	for num, alias := range aliases {
		if l, ok := c.locations[num]; ok {
			if _, taken := c.locations[alias]; !taken {
				l.Key = alias
				c.locations[alias] = l
			}
		}
	}
	return c, nil
}

// Drivers returns a copy of the driver list.
func (c *Catalog) Drivers() []models.Driver {
	return append([]models.Driver(nil), c.drivers...)
}

func (c *Catalog) Location(key string) (models.Location, bool) {
	l, ok := c.locations[key]
	return l, ok
}

// LocationSafety returns the location's safety score, or ok=false when the
// key is unknown.
func (c *Catalog) LocationSafety(key string) (float64, bool) {
	l, ok := c.locations[key]
	if !ok {
		return 0, false
	}
	return l.SafetyScore, true
}

// Locations lists every lookup key, sorted.
func (c *Catalog) Locations() []models.Location {
	out := make([]models.Location, 0, len(c.locations))
	for _, l := range c.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// locationKey turns "LOC001" into "001"; other ids are lower-cased.
func locationKey(id string) string {
	id = strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(strings.ToUpper(id), "LOC"); ok && rest != "" {
		for len(rest) < 3 {
			rest = "0" + rest
		}
		return rest
	}
	return strings.ToLower(id)
}

// Builtin returns the demo catalog used when no dataset is configured.
func Builtin() *Catalog {
	c, _ := New(
		[]models.Driver{
			{ID: "D001", Name: "Ahmad Rizki", Photo: "driver1.jpg", Rating: 4.8, TotalRides: 1523, AcceptanceRate: 0.92, VehicleNumber: "B 1234 ABC", VehicleModel: "Honda Vario"},
			{ID: "D002", Name: "Budi Santoso", Photo: "driver2.jpg", Rating: 4.5, TotalRides: 892, AcceptanceRate: 0.85, VehicleNumber: "B 5678 DEF", VehicleModel: "Yamaha NMAX"},
			{ID: "D003", Name: "Cahyo Prakoso", Photo: "driver3.jpg", Rating: 4.2, TotalRides: 234, AcceptanceRate: 0.75, VehicleNumber: "B 9012 GHI", VehicleModel: "Honda Beat"},
		},
		[]models.Location{
			{Key: "home", Name: "Home - Apartment Sudirman Park", Coords: models.Coord{Lat: -6.2088, Lon: 106.8456}, SafetyScore: 0.9},
			{Key: "office", Name: "GoTower - Pasaraya", Coords: models.Coord{Lat: -6.2433, Lon: 106.7987}, SafetyScore: 0.95},
			{Key: "mall", Name: "Grand Indonesia Mall", Coords: models.Coord{Lat: -6.1951, Lon: 106.8218}, SafetyScore: 0.88},
			{Key: "friend", Name: "Sarah's Place - Kemang", Coords: models.Coord{Lat: -6.2633, Lon: 106.8133}, SafetyScore: 0.82},
			{Key: "restaurant", Name: "Sate Khas Senayan", Coords: models.Coord{Lat: -6.2275, Lon: 106.8007}, SafetyScore: 0.87},
		},
	)
	return c
}
