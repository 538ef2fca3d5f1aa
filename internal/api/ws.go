package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamJobLogs streams job log lines over WebSocket and closes with the
// job's final status once every line has been sent.
func (s *Server) StreamJobLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.Jobs.Get(id)
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Debug("websocket upgrade failed", "job", id, "err", err)
		return
	}
	defer conn.Close()

	offset := 0
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// Read Done before the logs so no line appended before
			// completion is missed.
			done := job.Done()
			for _, line := range job.LogsSince(offset) {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return
				}
				offset++
			}
			if done {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, job.Snapshot().Status))
				return
			}
		}
	}
}
