package models

import (
	"math"
	"time"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Driver is a catalog entry. Photo and vehicle fields are display data only.
type Driver struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Photo            string  `json:"photo"`
	Rating           float64 `json:"rating"` // 1..5
	TotalRides       int     `json:"total_rides"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	VehicleNumber    string  `json:"vehicle_number"`
	VehicleModel     string  `json:"vehicle_model"`
}

// SafetyScore blends rating, experience, acceptance and cancellation into [0,1].
func (d Driver) SafetyScore() float64 {
	rating := (d.Rating - 1) / 4
	experience := float64(d.TotalRides) / 2000
	if experience > 1 {
		experience = 1
	}
	score := rating*0.4 + experience*0.3 + d.AcceptanceRate*0.2 + (1-d.CancellationRate)*0.1
	return Clamp01(score)
}

type Location struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Coords      Coord   `json:"coords"`
	SafetyScore float64 `json:"safety_score"`
	Category    string  `json:"category,omitempty"`
	District    string  `json:"district,omitempty"`
}

type RideStatus string

const (
	RideActive    RideStatus = "ACTIVE"
	RideCompleted RideStatus = "COMPLETED"
)

type RouteType string

const (
	RouteStandard RouteType = "standard"
	RouteSafe     RouteType = "safe"
)

type EventType string

const (
	EventVoiceAlert      EventType = "VOICE_ALERT"
	EventRouteDeviation  EventType = "ROUTE_DEVIATION"
	EventEmergencyAction EventType = "EMERGENCY_ACTION"
	// EventVoiceCheck is never produced; reports skip it when counting incidents.
	EventVoiceCheck EventType = "VOICE_CHECK"
)

// SafetyEvent is one entry of a ride's append-only log.
type SafetyEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Level     string    `json:"level,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Action    string    `json:"action,omitempty"`
	Status    string    `json:"status,omitempty"`
	Details   string    `json:"details,omitempty"`
}

type Ride struct {
	ID                string
	Driver            Driver
	Pickup            Location
	Dropoff           Location
	EstimatedDuration int // minutes
	RouteType         RouteType
	Status            RideStatus
	StartTime         time.Time
	CompletedAt       time.Time
	Events            []SafetyEvent
}

type Report struct {
	RideID          string        `json:"ride_id"`
	OverallScore    float64       `json:"overall_score"`
	Incidents       int           `json:"incidents"`
	Duration        string        `json:"duration"`
	DistanceKM      float64       `json:"distance_km"`
	DriverName      string        `json:"driver_name"`
	DriverRating    float64       `json:"driver_rating"`
	RouteType       RouteType     `json:"route_type"`
	Pickup          string        `json:"pickup"`
	Dropoff         string        `json:"dropoff"`
	Events          []SafetyEvent `json:"events"`
	Highlights      []string      `json:"highlights"`
	Recommendations []string      `json:"recommendations"`
	Narrative       string        `json:"ai_summary,omitempty"`
	CompletedAt     time.Time     `json:"completed_at"`
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
