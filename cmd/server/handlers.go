package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/liamcoop/spinecheck/appointments"
	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/internal/logger"
	"github.com/liamcoop/spinecheck/report"
	"github.com/liamcoop/spinecheck/scoring"
)

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:     "healthy",
		Storage:    "memory",
		Conditions: s.engine.Catalog().Len(),
		Sessions:   s.sessions.Len(),
	}

	if s.db != nil {
		health.Storage = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, health)
			return
		}
	}

	respondJSON(w, http.StatusOK, health)
}

// List conditions handler
func (s *Server) handleListConditions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"conditions": s.engine.Catalog().Entries(),
	})
}

// Get condition handler
func (s *Server) handleGetCondition(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Catalog().Get(chi.URLParam(r, "conditionId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "condition not found", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// List adjustments handler
func (s *Server) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"adjustments": s.engine.Adjustments(),
		"options":     s.engine.Options(),
	})
}

// Assess handler: scores a complete response in one request
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	// missing fields keep their reset values, e.g. pain level 5
	resp := assessment.NewResponse()
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp.Normalize()
	if err := resp.Validate(); err != nil {
		s.metrics.AssessmentRejected()
		respondError(w, http.StatusBadRequest, "invalid assessment", err)
		return
	}

	out := AssessResponse{Report: s.score(resp)}
	if r.URL.Query().Get("explain") == "true" {
		out.Breakdown = s.engine.Explain(resp)
	}
	respondJSON(w, http.StatusOK, out)
}

// score ranks a validated response and records the outcome
func (s *Server) score(resp assessment.Response) report.Report {
	ranked := scoring.Rank(s.engine.Score(resp))

	top := ""
	if len(ranked) > 0 {
		top = ranked[0].Condition.ID
	}
	s.metrics.ObserveAssessment(len(ranked), top, resp.HasRedFlag())

	if resp.HasRedFlag() {
		logger.Warn("assessment reported a red flag", "candidates", len(ranked))
	}
	logger.Debug("assessment scored", "candidates", len(ranked), "top", top)

	return report.Build(resp, ranked)
}

// Create session handler
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// Get session handler
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// Delete session handler
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sessionId")); err != nil {
		respondError(w, http.StatusNotFound, "session not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit step handler. The answers are stored even when the stage fails
// validation, so the form can show them again.
func (s *Server) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	step, err := assessment.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid stage", err)
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessions.Update(chi.URLParam(r, "sessionId"), func(sess *assessment.Session) error {
		switch step {
		case assessment.StepLocations:
			return sess.SubmitLocations(req.Tags)
		case assessment.StepSymptoms:
			return sess.SubmitSymptoms(req.Tags)
		case assessment.StepTriggers:
			return sess.SubmitTriggers(req.Tags)
		default:
			pain := sess.Response.PainLevel
			if req.PainLevel != nil {
				pain = *req.PainLevel
			}
			return sess.SubmitDetails(req.Duration, pain, req.Additional)
		}
	})
	switch {
	case errors.Is(err, assessment.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, assessment.ErrStepOrder):
		respondError(w, http.StatusConflict, "stage submitted out of order", err)
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid answers", err)
	default:
		respondJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

// Back handler
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(sess *assessment.Session) error {
		sess.Back()
		return nil
	})
}

// Reset handler
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(sess *assessment.Session) error {
		sess.Reset()
		return nil
	})
}

var errNotFirstStage = errors.New("locations can only be changed at the first stage")

// Toggle spine section handler: clicking the spine diagram ticks or unticks
// the matching location while the first stage is open
func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	location, err := assessment.LocationForSection(chi.URLParam(r, "section"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid spine section", err)
		return
	}

	s.updateSession(w, r, func(sess *assessment.Session) error {
		if sess.Step != assessment.StepLocations {
			return errNotFirstStage
		}
		sess.Response.ToggleLocation(location)
		return nil
	})
}

// Session report handler
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	resp, err := sess.Snapshot()
	if err != nil {
		respondError(w, http.StatusConflict, "assessment is not complete", err)
		return
	}

	out := AssessResponse{Report: s.score(resp)}
	if r.URL.Query().Get("explain") == "true" {
		out.Breakdown = s.engine.Explain(resp)
	}
	respondJSON(w, http.StatusOK, out)
}

// Create appointment handler
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	appt := &appointments.Appointment{
		Name:     req.Name,
		Phone:    req.Phone,
		Date:     req.Date,
		Time:     req.Time,
		Symptoms: req.Symptoms,
	}

	switch {
	case req.SessionID != "":
		sess, err := s.sessions.Get(req.SessionID)
		if err != nil {
			respondError(w, http.StatusNotFound, "session not found", err)
			return
		}
		appt.Attach(sess.Response)
	case len(req.Assessment) > 0:
		resp, err := decodeAssessment(req.Assessment)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid assessment", err)
			return
		}
		appt.Attach(resp)
	}

	if err := appt.Validate(s.now()); err != nil {
		respondError(w, http.StatusBadRequest, "invalid appointment", err)
		return
	}

	if err := s.appointments.Add(r.Context(), appt); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save appointment", err)
		return
	}
	s.metrics.AppointmentBooked(appt.Assessment != nil)

	logger.Info("appointment booked",
		"appointment", appt.ID,
		"date", appt.Date,
		"with_assessment", appt.Assessment != nil,
	)
	respondJSON(w, http.StatusCreated, appt)
}

// List appointments handler
func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := s.appointments.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list appointments", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointments": list,
	})
}

// Get appointment handler
func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.appointments.Get(r.Context(), chi.URLParam(r, "appointmentId"))
	if errors.Is(err, appointments.ErrNotFound) {
		respondError(w, http.StatusNotFound, "appointment not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get appointment", err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

// decodeAssessment reads answers sent inline with a booking. They may be
// incomplete, but tags are normalized and closed values must be valid.
func decodeAssessment(raw json.RawMessage) (assessment.Response, error) {
	resp := assessment.NewResponse()
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, err
	}
	resp.Normalize()
	if err := resp.ValidateValues(); err != nil {
		return resp, err
	}
	return resp, nil
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*assessment.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found", err)
		return nil, false
	}
	return sess, true
}

// updateSession applies fn atomically to the session named in the URL
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, fn func(*assessment.Session) error) {
	sess, err := s.sessions.Update(chi.URLParam(r, "sessionId"), fn)
	switch {
	case errors.Is(err, assessment.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, errNotFirstStage):
		respondError(w, http.StatusConflict, err.Error(), nil)
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid request", err)
	default:
		respondJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}
