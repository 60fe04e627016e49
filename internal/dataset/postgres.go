package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/example/ride-guardian/internal/models"
)

const (
	driversQuery = `SELECT driver_id, name, COALESCE(photo, ''), rating, total_trips, acceptance_rate,
	COALESCE(cancellation_rate, 0), COALESCE(license_plate, ''), COALESCE(vehicle_model, '')
	FROM drivers ORDER BY driver_id`
	locationsQuery = `SELECT location_id, name, latitude, longitude, safety_score,
	COALESCE(category, ''), COALESCE(district, '')
	FROM locations ORDER BY location_id`
)

// LoadPostgres reads the catalog from the drivers and locations tables.
// The connection is only held for the duration of the load.
func LoadPostgres(ctx context.Context, dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadPostgres: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("dataset.LoadPostgres: ping: %w", err)
	}
	return loadFromDB(ctx, db)
}

func loadFromDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, driversQuery)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadPostgres: drivers: %w", err)
	}
	var drivers []models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Photo, &d.Rating, &d.TotalRides, &d.AcceptanceRate,
			&d.CancellationRate, &d.VehicleNumber, &d.VehicleModel); err != nil {
			rows.Close()
			return nil, fmt.Errorf("dataset.LoadPostgres: scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("dataset.LoadPostgres: drivers: %w", err)
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, locationsQuery)
	if err != nil {
		return nil, fmt.Errorf("dataset.LoadPostgres: locations: %w", err)
	}
	defer rows.Close()
	var locations []models.Location
	for rows.Next() {
		var (
			id string
			l  models.Location
		)
		if err := rows.Scan(&id, &l.Name, &l.Coords.Lat, &l.Coords.Lon, &l.SafetyScore, &l.Category, &l.District); err != nil {
			return nil, fmt.Errorf("dataset.LoadPostgres: scan location: %w", err)
		}
		l.Key = locationKey(id)
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset.LoadPostgres: locations: %w", err)
	}
	return New(drivers, locations)
}
