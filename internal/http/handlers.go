package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/ride-guardian/internal/assistant"
	"github.com/example/ride-guardian/internal/models"
	"github.com/example/ride-guardian/internal/risk"
)

type rideRequest struct {
	Pickup    string           `json:"pickup"`
	Dropoff   string           `json:"dropoff"`
	RouteType models.RouteType `json:"route_type,omitempty"`
}

type driverSummary struct {
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Rides   int     `json:"rides"`
	Vehicle string  `json:"vehicle"`
}

type riskResponse struct {
	Driver             driverSummary `json:"driver"`
	RiskAnalysis       risk.Analysis `json:"risk_analysis"`
	SafeRouteAvailable bool          `json:"safe_route_available"`
	Recommendations    []string      `json:"recommendations"`

	AIAssessment *assistant.RideAssessment `json:"ai_assessment,omitempty"`
}

type startResponse struct {
	RideID         string `json:"ride_id"`
	Status         string `json:"status"`
	GuardianActive bool   `json:"guardian_active"`
}

type voiceRequest struct {
	RideID string `json:"ride_id"`
	Text   string `json:"text"`
}

type sentiment struct {
	Level      assistant.Level `json:"level"`
	Confidence float64         `json:"confidence"`
}

type voiceResponse struct {
	Sentiment        sentiment `json:"sentiment"`
	AIResponse       string    `json:"ai_response"`
	SuggestedActions []string  `json:"suggested_actions"`
}

type emergencyRequest struct {
	RideID string `json:"ride_id"`
	Action string `json:"action"`
}

type endResponse struct {
	Status       string        `json:"status"`
	SafetyReport models.Report `json:"safety_report"`
}

// handleCalculateRisk godoc
// @Summary      Quote the risk of a ride
// @Tags         rides
// @Accept       json
// @Produce      json
// @Param        request  body      rideRequest  true  "pickup and dropoff keys"
// @Success      200      {object}  riskResponse
// @Failure      400      {object}  map[string]string
// @Router       /api/calculate-risk [post]
func (s *Server) handleCalculateRisk(w http.ResponseWriter, r *http.Request) {
	var req rideRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := s.guardian.Assess(r.Context(), req.Pickup, req.Dropoff)
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	recs := a.Recommendations
	if recs == nil {
		recs = []string{}
	}
	writeJSON(w, http.StatusOK, riskResponse{
		Driver: driverSummary{
			Name:    a.Driver.Name,
			Rating:  a.Driver.Rating,
			Rides:   a.Driver.TotalRides,
			Vehicle: a.Driver.VehicleNumber,
		},
		RiskAnalysis:       a.Analysis,
		SafeRouteAvailable: a.SafeRouteAvailable,
		Recommendations:    recs,
		AIAssessment:       a.AI,
	})
}

// handleStartRide godoc
// @Summary      Start a monitored ride
// @Tags         rides
// @Accept       json
// @Produce      json
// @Param        request  body      rideRequest  true  "pickup, dropoff and route type"
// @Success      200      {object}  startResponse
// @Failure      400      {object}  map[string]string
// @Router       /api/start-ride [post]
func (s *Server) handleStartRide(w http.ResponseWriter, r *http.Request) {
	var req rideRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ride, err := s.guardian.Start(r.Context(), req.Pickup, req.Dropoff, models.RouteType(strings.ToLower(string(req.RouteType))))
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{RideID: ride.ID, Status: "STARTED", GuardianActive: true})
}

// handleRideStatus godoc
// @Summary      Progress and safety events of an active ride
// @Tags         rides
// @Produce      json
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  rides.Status
// @Failure      404      {object}  map[string]string
// @Router       /api/ride-status/{ride_id} [get]
func (s *Server) handleRideStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.guardian.Status(r.Context(), mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleVoiceCheck godoc
// @Summary      Classify a rider transcript
// @Tags         guardian
// @Accept       json
// @Produce      json
// @Param        request  body      voiceRequest  true  "ride id and transcript"
// @Success      200      {object}  voiceResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/voice-check [post]
func (s *Server) handleVoiceCheck(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.guardian.AppendVoiceEvent(r.Context(), req.RideID, req.Text)
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	actions := res.Actions
	if actions == nil {
		actions = []string{}
	}
	writeJSON(w, http.StatusOK, voiceResponse{
		Sentiment:        sentiment{Level: res.Level, Confidence: res.Confidence},
		AIResponse:       res.Response,
		SuggestedActions: actions,
	})
}

// handleEmergencyAction godoc
// @Summary      Trigger an emergency action
// @Tags         guardian
// @Accept       json
// @Produce      json
// @Param        request  body      emergencyRequest  true  "ride id and action"
// @Success      200      {object}  rides.EmergencyAck
// @Failure      404      {object}  map[string]string
// @Router       /api/emergency-action [post]
func (s *Server) handleEmergencyAction(w http.ResponseWriter, r *http.Request) {
	var req emergencyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ack, err := s.guardian.AppendEmergencyEvent(r.Context(), req.RideID, req.Action)
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

// handleEndRide godoc
// @Summary      End a ride and build its safety report
// @Tags         rides
// @Produce      json
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  endResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/end-ride/{ride_id} [post]
func (s *Server) handleEndRide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["ride_id"]
	report, err := s.guardian.End(r.Context(), id)
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	if s.wsReg != nil {
		s.wsReg.CloseRide(id)
	}
	writeJSON(w, http.StatusOK, endResponse{Status: string(models.RideCompleted), SafetyReport: report})
}

// handleCheckIn godoc
// @Summary      Companion check-in message for an active ride
// @Tags         guardian
// @Produce      json
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /api/ride-checkin/{ride_id} [get]
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["ride_id"]
	msg, err := s.guardian.CheckIn(r.Context(), id)
	if err != nil {
		s.writeRideError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"ride_id": id, "message": msg})
}

// handleSafetyReport godoc
// @Summary      Archived report of a finished ride
// @Tags         rides
// @Produce      json
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  models.Report
// @Failure      404      {object}  map[string]string
// @Router       /api/safety-report/{ride_id} [get]
func (s *Server) handleSafetyReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	report, ok := s.reports.Report(mux.Vars(r)["ride_id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleLocations godoc
// @Summary      Bookable locations
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  models.Location
// @Router       /api/locations [get]
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	if s.locations == nil {
		writeJSON(w, http.StatusOK, []models.Location{})
		return
	}
	writeJSON(w, http.StatusOK, s.locations.Locations())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "ok", "active_rides": s.guardian.Active()})
}
