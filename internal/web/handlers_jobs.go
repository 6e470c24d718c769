package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
	"github.com/JonMunkholm/smarttools/internal/web/templates"
)

// resultResponse is the JSON form of a finished job.
type resultResponse struct {
	JobID       string   `json:"job_id"`
	Op          string   `json:"op"`
	Summary     string   `json:"summary"`
	Count       int      `json:"count"`
	Notes       []string `json:"notes,omitempty"`
	Filename    string   `json:"filename"`
	Size        string   `json:"size"`
	Bytes       int      `json:"bytes"`
	DownloadURL string   `json:"download_url"`
}

// statusResponse is returned by /api/status.
type statusResponse struct {
	Sessions   int                   `json:"sessions"`
	Operations int                   `json:"operations"`
	Jobs       core.JobLimiterStatus `json:"jobs"`
}

// handleJobProgress streams progress as Server-Sent Events.
//
// Each snapshot is sent as a "progress" event whose id is the step, so a
// reconnecting client skips what it has already seen. The stream ends with
// a single "done" or "failed" event.
func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	sess, err := s.existingSession(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	updates, err := s.service.SubscribeProgress(sess.ID, jobID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	cursor := newProgressCursor(r.Header.Get("Last-Event-ID"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	logger := logging.FromContext(r.Context()).With("job_id", jobID)

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("progress stream closed by client")
			return
		case p, ok := <-updates:
			if !ok {
				final, err := s.service.JobProgress(sess.ID, jobID)
				if err != nil {
					logger.Warn("job gone before final event", "error", err)
					return
				}
				event := "done"
				if final.State == core.JobFailed {
					event = "failed"
				}
				if err := writeEvent(w, event, final.Step, final); err != nil {
					return
				}
				_ = rc.Flush()
				return
			}
			if !cursor.admit(p) {
				continue
			}
			if err := writeEvent(w, "progress", p.Step, p); err != nil {
				logger.Debug("progress write failed", "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				logger.Warn("progress flush failed", "error", err)
				return
			}
		}
	}
}

// progressCursor drops snapshots a client has already seen. Steps only grow
// while a job runs; step 0 is the snapshot taken before any work and is
// never sent.
type progressCursor struct {
	last int
}

func newProgressCursor(lastEventID string) *progressCursor {
	c := &progressCursor{}
	if n, err := strconv.Atoi(lastEventID); err == nil && n > 0 {
		c.last = n
	}
	return c
}

func (c *progressCursor) admit(p core.JobProgress) bool {
	if p.Step < 1 || p.Step <= c.last {
		return false
	}
	c.last = p.Step
	return true
}

func writeEvent(w http.ResponseWriter, event string, id int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event, id, data)
	return err
}

// handleJobResult waits for the job and returns its summary and download link.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	sess, err := s.existingSession(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.JobResult(r.Context(), sess.ID, jobID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	size := humanize.Bytes(uint64(res.Artifact.Size()))
	downloadURL := "/api/jobs/" + jobID + "/download"

	respond(w, r, templates.ResultPanel(templates.ResultParams{
		Summary:     res.Summary,
		Notes:       res.Notes,
		Filename:    res.Artifact.Filename,
		Size:        size,
		DownloadURL: downloadURL,
	}), resultResponse{
		JobID:       jobID,
		Op:          res.Kind.Key(),
		Summary:     res.Summary,
		Count:       res.Count,
		Notes:       res.Notes,
		Filename:    res.Artifact.Filename,
		Size:        size,
		Bytes:       res.Artifact.Size(),
		DownloadURL: downloadURL,
	})
}

// handleDownload sends the job's artifact as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	sess, err := s.existingSession(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.JobResult(r.Context(), sess.ID, jobID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	a := res.Artifact
	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(a.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Data); err != nil {
		logging.FromContext(r.Context()).Warn("download interrupted", "job_id", jobID, "error", err)
		return
	}

	logging.FromContext(r.Context()).Info("artifact downloaded",
		"job_id", jobID,
		"filename", a.Filename,
		"bytes", a.Size(),
	)
}

// handleHistory returns the session's recent actions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	entries := sess.History()
	respond(w, r, templates.HistoryList(entries), entries)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports session and job capacity.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Sessions:   s.service.Sessions().Len(),
		Operations: core.OperationCount(),
		Jobs:       s.service.LimiterStatus(),
	})
}
