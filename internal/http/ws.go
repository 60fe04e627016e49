package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleRideWS streams the safety events of one ride until the client
// disconnects. Clients only listen; anything they send is discarded.
func (s *Server) handleRideWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["ride_id"]
	if s.wsReg == nil {
		writeError(w, http.StatusNotFound, "live updates disabled")
		return
	}
	if _, err := s.guardian.Status(r.Context(), id); err != nil {
		s.writeRideError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "ride_id", id, "error", err)
		return
	}
	sess := s.wsReg.Add(id, conn)
	defer func() {
		s.wsReg.Remove(id, sess)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
