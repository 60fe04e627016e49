package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/example/ride-guardian/docs"
	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/dispatch"
	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/rides"
)

// Guardian is the ride registry as seen by the API.
type Guardian interface {
	Assess(ctx context.Context, pickup, dropoff string) (rides.Assessment, error)
	Start(ctx context.Context, pickup, dropoff string, routeType models.RouteType) (models.Ride, error)
	Status(ctx context.Context, id string) (rides.Status, error)
	AppendVoiceEvent(ctx context.Context, id, text string) (assistant.Result, error)
	AppendEmergencyEvent(ctx context.Context, id, action string) (rides.EmergencyAck, error)
	CheckIn(ctx context.Context, id string) (string, error)
	End(ctx context.Context, id string) (models.Report, error)
	Active() int
}

type Locations interface {
	Locations() []models.Location
}

type Reports interface {
	Report(rideID string) (models.Report, bool)
}

type Server struct {
	guardian  Guardian
	locations Locations
	reports   Reports
	wsReg     *dispatch.WSRegistry
	logger    *slog.Logger
	mux       *mux.Router
}

// Options wires a Server. Reports and WSReg are optional; without them the
// report download and live stream routes answer 404.
type Options struct {
	Guardian  Guardian
	Locations Locations
	Reports   Reports
	WSReg     *dispatch.WSRegistry
	Logger    *slog.Logger
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		guardian:  opts.Guardian,
		locations: opts.Locations,
		reports:   opts.Reports,
		wsReg:     opts.WSReg,
		logger:    opts.Logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api").Subrouter()
	api.HandleFunc("/calculate-risk", s.handleCalculateRisk).Methods(http.MethodPost)
	api.HandleFunc("/start-ride", s.handleStartRide).Methods(http.MethodPost)
	api.HandleFunc("/ride-status/{ride_id}", s.handleRideStatus).Methods(http.MethodGet)
	api.HandleFunc("/voice-check", s.handleVoiceCheck).Methods(http.MethodPost)
	api.HandleFunc("/emergency-action", s.handleEmergencyAction).Methods(http.MethodPost)
	api.HandleFunc("/end-ride/{ride_id}", s.handleEndRide).Methods(http.MethodPost)
	api.HandleFunc("/ride-checkin/{ride_id}", s.handleCheckIn).Methods(http.MethodGet)
	api.HandleFunc("/safety-report/{ride_id}", s.handleSafetyReport).Methods(http.MethodGet)
	api.HandleFunc("/locations", s.handleLocations).Methods(http.MethodGet)

	s.mux.HandleFunc("/ws/rides/{ride_id}", s.handleRideWS)
	s.mux.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName())))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
