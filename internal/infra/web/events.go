package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleJobEvents streams one job's progress as Server-Sent Events: every
// log line as its own data event, in append order, then exactly one
// terminal event carrying {status, result}, then the stream closes.
//
// The handler never polls the job state on a timer. It subscribes to the
// status hub and re-reads the snapshot after each wake-up, keeping a cursor
// over the log lines it has already written, so no interleaving of writer
// speed and reader speed can drop or duplicate a line. A comment line goes
// out on the configured heartbeat interval while the job is quiet, keeping
// intermediaries from timing out the connection.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	// NotFound must fire before streaming starts.
	notify, subID, err := s.hub.Subscribe(r.Context(), jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.hub.Unsubscribe(jobID, subID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.Duration(s.stream.HeartbeatSeconds) * time.Second
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	sent := 0
	for {
		snap, err := s.hub.Snapshot(jobID)
		if err != nil {
			return
		}
		for _, line := range snap.Logs[sent:] {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
		sent = len(snap.Logs)
		flusher.Flush()

		if snap.Status.Terminal() {
			payload, _ := json.Marshal(map[string]any{
				"status": snap.Status,
				"result": snap.Result,
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-notify:
		}
	}
}
