package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/osakwee57-dev/My-attendance/internal/auth"
	"github.com/osakwee57-dev/My-attendance/internal/broadcast"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWebsocket streams matching events to the client. The subscription
// filter follows the caller's role: issuers watch their own sessions,
// students watch their department and level. A ?session= query narrows the
// stream to a single session for live report views.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var filter broadcast.Filter
	if raw := r.URL.Query().Get("session"); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id")
			return
		}
		filter = broadcast.Filter{SessionID: sessionID}
	} else if claims.UserType == auth.UserTypeHOC {
		hocID, err := uuid.Parse(claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		filter = broadcast.Filter{HocID: hocID}
	} else {
		filter = broadcast.Filter{Department: claims.Department, Level: claims.Level}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	sub := s.bus.Subscribe(filter)
	defer sub.Close()
	defer conn.Close()

	// Reader only notices disconnects; clients never send application
	// messages on this stream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
