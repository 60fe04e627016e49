package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/ride-guardian/internal/models"
)

// LoadCSV builds a catalog from a drivers file and a locations file.
func LoadCSV(driversPath, locationsPath string) (*Catalog, error) {
	df, err := os.Open(driversPath)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	defer df.Close()
	lf, err := os.Open(locationsPath)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	defer lf.Close()

	drivers, err := ReadDrivers(df)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %s: %w", driversPath, err)
	}
	locations, err := ReadLocations(lf)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadCSV: %s: %w", locationsPath, err)
	}
	return New(drivers, locations)
}

// ReadDrivers parses driver_id,name,photo,rating,total_trips,acceptance_rate,
// license_plate,vehicle_model[,cancellation_rate]. Extra columns are ignored.
func ReadDrivers(r io.Reader) ([]models.Driver, error) {
	rows, err := readRows(r, "driver_id", "name", "rating", "total_trips", "acceptance_rate")
	if err != nil {
		return nil, err
	}
	out := make([]models.Driver, 0, len(rows))
	for i, row := range rows {
		var p fieldParser
		d := models.Driver{
			ID:               row["driver_id"],
			Name:             row["name"],
			Photo:            row["photo"],
			Rating:           p.float(row, "rating"),
			TotalRides:       p.int(row, "total_trips"),
			AcceptanceRate:   p.float(row, "acceptance_rate"),
			CancellationRate: p.float(row, "cancellation_rate"),
			VehicleNumber:    row["license_plate"],
			VehicleModel:     row["vehicle_model"],
		}
		if p.err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, p.err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ReadLocations parses location_id,name,latitude,longitude,safety_score
// [,category,district]. Keys follow locationKey.
func ReadLocations(r io.Reader) ([]models.Location, error) {
	rows, err := readRows(r, "location_id", "name", "latitude", "longitude", "safety_score")
	if err != nil {
		return nil, err
	}
	out := make([]models.Location, 0, len(rows))
	for i, row := range rows {
		var p fieldParser
		l := models.Location{
			Key:         locationKey(row["location_id"]),
			Name:        row["name"],
			Coords:      models.Coord{Lat: p.float(row, "latitude"), Lon: p.float(row, "longitude")},
			SafetyScore: p.float(row, "safety_score"),
			Category:    row["category"],
			District:    row["district"],
		}
		if p.err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, p.err)
		}
		out = append(out, l)
	}
	return out, nil
}

func readRows(r io.Reader, required ...string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrBadRecord)
	}
	header := records[0]
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	for _, col := range required {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadRecord, col)
		}
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// fieldParser keeps the first conversion error so a row can be parsed
// field by field and checked once.
type fieldParser struct{ err error }

func (p *fieldParser) float(row map[string]string, key string) float64 {
	v := row[key]
	if v == "" || p.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q", ErrBadRecord, key, v)
	}
	return f
}

func (p *fieldParser) int(row map[string]string, key string) int {
	v := row[key]
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// some exports write counts as floats
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			p.err = fmt.Errorf("%w: %s=%q", ErrBadRecord, key, v)
			return 0
		}
		return int(f)
	}
	return n
}
