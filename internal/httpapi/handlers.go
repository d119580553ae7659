package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/relayforge/conductor/internal/history"
	"github.com/relayforge/conductor/internal/model"
	"github.com/relayforge/conductor/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusResponse is the GET /status payload. "done" means an execution
// report with a date is on disk, whichever Council run wrote it; "idle"
// means none has been written yet. This reading of an otherwise ambiguous
// spec is recorded as an Open Question decision.
type statusResponse struct {
	Status         string `json:"status"`
	WaitingCount   int    `json:"waiting_count"`
	CouncilCount   int    `json:"council_count"`
	StagedProjects int    `json:"staged_projects"`
	TotalPending   int    `json:"total_pending"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Staging.ListStagedProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	waiting, pending := 0, 0
	for _, p := range projects {
		switch p.Status {
		case model.StagedStatusStaged:
			waiting++
		case model.StagedStatusPending:
			pending++
		}
	}

	var report model.ExecutionReport
	status := "idle"
	if err := store.ReadJSON(s.ExecutionReportPath, &report); err == nil && report.Date != "" {
		status = "done"
	}

	var brief model.ProposalBrief
	_ = store.ReadJSON(s.BriefPath, &brief)

	writeJSON(w, http.StatusOK, statusResponse{
		Status:         status,
		WaitingCount:   waiting,
		CouncilCount:   len(brief.Candidates),
		StagedProjects: len(projects),
		TotalPending:   waiting + pending,
	})
}

func (s *Server) handleMorningBrief(w http.ResponseWriter, r *http.Request) {
	var brief model.ProposalBrief
	if err := store.ReadJSON(s.BriefPath, &brief); err != nil {
		writeJSON(w, http.StatusOK, model.ProposalBrief{Candidates: []model.ProposalCandidate{}})
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

func (s *Server) handleStagedProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Staging.ListStagedProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []model.StagedProject{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	proj, err := s.Staging.GetProject(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleProjectDiff(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	diff, err := s.Staging.GetProjectDiff(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "diff not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"diff": diff})
}

func (s *Server) handleProjectFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	files, err := s.Staging.GetProjectFiles(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "files not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// decisionRequest is the POST /project/{id}/decision body.
type decisionRequest struct {
	Action model.DecisionAction `json:"action"`
	Reason string               `json:"reason"`
}

func (s *Server) handleProjectDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proj, err := s.Staging.GetProject(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	ctx := r.Context()
	switch req.Action {
	case model.DecisionMerge:
		if err := s.Staging.AcceptProject(ctx, id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.History != nil {
			_ = s.History.Record(history.Entry{
				ID:       proj.ID,
				Title:    proj.Title,
				PRURL:    proj.PRURL,
				MergedAt: time.Now(),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "merged"})

	case model.DecisionPending:
		if err := s.Staging.SetPending(id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "pending"})

	case model.DecisionReject:
		if err := s.Staging.RejectProject(ctx, id, req.Reason); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "rejected"})

	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) handleRejected(w http.ResponseWriter, r *http.Request) {
	rejected, err := s.Staging.ListRejected()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rejected == nil {
		rejected = []model.RejectedMetadata{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rejected": rejected, "count": len(rejected)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Staging.ListStagedProjects()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rejected, _ := s.Staging.ListRejected()
	merged, _ := s.History.List()

	counts := map[model.StagedStatus]int{}
	for _, p := range projects {
		counts[p.Status]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"staged":         counts[model.StagedStatusStaged],
		"pending":        counts[model.StagedStatusPending],
		"rejected_total": len(rejected),
		"merged_total":   len(merged),
	})
}

func (s *Server) handleCouncilStats(w http.ResponseWriter, r *http.Request) {
	var report model.ExecutionReport
	if err := store.ReadJSON(s.ExecutionReportPath, &report); err != nil {
		writeJSON(w, http.StatusOK, model.ExecutionReport{})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.History.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.Notifier.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (s *Server) handleRecordNotification(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var n model.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.Notifier.Record(n); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

// handleCouncilStart triggers a Convene in the background — it must
// outlive this request, so it runs detached from the request context
// rather than under r.Context(), matching the "background fire-and-
// forget" trigger the manual Council endpoint describes.
func (s *Server) handleCouncilStart(w http.ResponseWriter, r *http.Request) {
	if running, _ := s.Council.IsRunning(); running {
		writeError(w, http.StatusConflict, "council is already running")
		return
	}

	startedAt := time.Now()
	go func() {
		if _, err := s.Council.Convene(context.Background()); err != nil {
			slog.Error("httpapi: council convene failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "started_at": startedAt})
}

func (s *Server) handleCouncilStatus(w http.ResponseWriter, r *http.Request) {
	running, startedAt := s.Council.IsRunning()
	resp := map[string]any{"running": running}
	if running {
		resp["started_at"] = startedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
