package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/liamcoop/spinecheck/appointments"
	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/internal/config"
	"github.com/liamcoop/spinecheck/report"
	"github.com/liamcoop/spinecheck/scoring"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
		Scoring: config.ScoringConfig{
			Options: scoring.DefaultOptions(),
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServerWithDB(cfg, nil)
	if err != nil {
		t.Fatalf("NewServerWithDB() failed: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/api/v1/health", nil)
	expectStatus(t, rec, http.StatusOK)

	var health HealthResponse
	decode(t, rec, &health)
	if health.Status != "healthy" || health.Storage != "memory" || health.Conditions != 7 {
		t.Errorf("health = %+v", health)
	}
}

func TestConditions(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/api/v1/conditions", nil)
	expectStatus(t, rec, http.StatusOK)

	var list struct {
		Conditions []struct {
			ID string `json:"id"`
		} `json:"conditions"`
	}
	decode(t, rec, &list)
	if len(list.Conditions) != 7 || list.Conditions[0].ID != "cervical_disc" {
		t.Errorf("conditions = %+v", list.Conditions)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/conditions/acute_strain", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/api/v1/conditions/sprained_ankle", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestAdjustments(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/api/v1/adjustments", nil)
	expectStatus(t, rec, http.StatusOK)

	var body struct {
		Adjustments []scoring.Adjustment `json:"adjustments"`
	}
	decode(t, rec, &body)
	if len(body.Adjustments) != len(scoring.DefaultAdjustments()) {
		t.Errorf("got %d adjustments", len(body.Adjustments))
	}
}

func TestAssess(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/assess", map[string]any{
		"locations":  []string{"lower_back"},
		"symptoms":   []string{"pain", "stiffness"},
		"triggers":   []string{"lifting", "bending"},
		"duration":   "acute",
		"additional": []string{"sudden_onset"},
	})
	expectStatus(t, rec, http.StatusOK)

	var out AssessResponse
	decode(t, rec, &out)

	if len(out.Results) == 0 || out.Results[0].ConditionID != "acute_strain" {
		t.Fatalf("results = %+v", out.Results)
	}
	if out.Results[0].Score != 12 {
		t.Errorf("top score = %v, want 12", out.Results[0].Score)
	}
	if out.Summary.PainLevel != "5/10" {
		t.Errorf("omitted pain level should default to 5, got %q", out.Summary.PainLevel)
	}
	if out.Breakdown != nil {
		t.Error("breakdown should only be returned on request")
	}
}

func TestAssessExplain(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/assess?explain=true", map[string]any{
		"locations": []string{"neck"},
		"symptoms":  []string{"pain"},
		"duration":  "subacute",
	})
	expectStatus(t, rec, http.StatusOK)

	var out AssessResponse
	decode(t, rec, &out)
	if len(out.Breakdown) != 7 {
		t.Errorf("breakdown has %d entries, want 7", len(out.Breakdown))
	}
}

func TestAssessRedFlagWithoutResults(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/assess", map[string]any{
		"locations":  []string{"neck"},
		"symptoms":   []string{"walking_difficulty"},
		"duration":   "acute",
		"additional": []string{"bladder_issue"},
	})
	expectStatus(t, rec, http.StatusOK)

	var out AssessResponse
	decode(t, rec, &out)
	if !out.UrgentCare {
		t.Error("urgent care should be flagged")
	}
	if len(out.Results) != 0 || out.Advisory != report.Advisory {
		t.Errorf("expected the advisory and no results, got %+v", out.Report)
	}
}

func TestAssessValidation(t *testing.T) {
	s := newTestServer(t, testConfig())

	testCases := []struct {
		name string
		body string
	}{
		{"no symptoms", `{"locations":["leg"],"symptoms":[],"duration":"acute"}`},
		{"no locations", `{"symptoms":["pain"],"duration":"acute"}`},
		{"no duration", `{"locations":["leg"],"symptoms":["pain"]}`},
		{"pain out of range", `{"locations":["leg"],"symptoms":["pain"],"duration":"acute","painLevel":11}`},
		{"malformed", `{"locations":`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assess", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			expectStatus(t, rec, http.StatusBadRequest)

			var errResp ErrorResponse
			decode(t, rec, &errResp)
			if errResp.Error == "" || errResp.Details == "" {
				t.Errorf("error response = %+v", errResp)
			}
		})
	}
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", nil)
	expectStatus(t, rec, http.StatusCreated)

	var sess SessionResponse
	decode(t, rec, &sess)
	if sess.Stage != "locations" || sess.Progress != 25 {
		t.Fatalf("new session = %+v", sess)
	}
	base := "/api/v1/sessions/" + sess.ID

	// out of order
	rec = do(t, s, http.MethodPut, base+"/steps/symptoms", StepRequest{Tags: []string{"pain"}})
	expectStatus(t, rec, http.StatusConflict)

	// report before completion
	rec = do(t, s, http.MethodPost, base+"/report", nil)
	expectStatus(t, rec, http.StatusConflict)

	steps := []struct {
		path string
		body StepRequest
	}{
		{"/steps/1", StepRequest{Tags: []string{"lower_back", "leg"}}},
		{"/steps/2", StepRequest{Tags: []string{"pain", "numbness"}}},
		{"/steps/3", StepRequest{}},
		{"/steps/4", StepRequest{Duration: "subacute"}},
	}
	for _, step := range steps {
		rec = do(t, s, http.MethodPut, base+step.path, step.body)
		expectStatus(t, rec, http.StatusOK)
	}

	decode(t, rec, &sess)
	if !sess.Complete || sess.Progress != 100 {
		t.Errorf("session after last stage = %+v", sess)
	}

	rec = do(t, s, http.MethodPost, base+"/report", nil)
	expectStatus(t, rec, http.StatusOK)

	var out AssessResponse
	decode(t, rec, &out)
	if len(out.Results) != 3 || out.Results[0].ConditionID != "lumbar_disc" {
		t.Errorf("results = %+v", out.Results)
	}
}

func TestSessionInvalidStageKeepsAnswers(t *testing.T) {
	s := newTestServer(t, testConfig())

	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)
	base := "/api/v1/sessions/" + sess.ID

	expectStatus(t, do(t, s, http.MethodPut, base+"/steps/1", StepRequest{Tags: []string{"neck"}}), http.StatusOK)

	// empty symptom stage is rejected and the session stays at stage 2
	rec := do(t, s, http.MethodPut, base+"/steps/2", StepRequest{Tags: []string{}})
	expectStatus(t, rec, http.StatusBadRequest)

	decode(t, do(t, s, http.MethodGet, base, nil), &sess)
	if sess.Stage != "symptoms" {
		t.Errorf("stage = %s, want symptoms", sess.Stage)
	}
}

func TestSessionBackAndReset(t *testing.T) {
	s := newTestServer(t, testConfig())

	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)
	base := "/api/v1/sessions/" + sess.ID

	expectStatus(t, do(t, s, http.MethodPut, base+"/steps/1", StepRequest{Tags: []string{"leg"}}), http.StatusOK)

	rec := do(t, s, http.MethodPost, base+"/back", nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &sess)
	if sess.Stage != "locations" || len(sess.Response.Locations) != 1 {
		t.Errorf("after back = %+v", sess)
	}

	rec = do(t, s, http.MethodPost, base+"/reset", nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &sess)
	if len(sess.Response.Locations) != 0 || sess.Response.PainLevel != 5 {
		t.Errorf("after reset = %+v", sess.Response)
	}
}

func TestSessionSpineToggle(t *testing.T) {
	s := newTestServer(t, testConfig())

	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)
	base := "/api/v1/sessions/" + sess.ID

	rec := do(t, s, http.MethodPost, base+"/spine/lumbar", nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &sess)
	if len(sess.Response.Locations) != 1 || sess.Response.Locations[0] != "lower_back" {
		t.Errorf("locations = %v, want [lower_back]", sess.Response.Locations)
	}

	rec = do(t, s, http.MethodPost, base+"/spine/lumbar", nil)
	decode(t, rec, &sess)
	if len(sess.Response.Locations) != 0 {
		t.Errorf("second toggle should untick, got %v", sess.Response.Locations)
	}

	expectStatus(t, do(t, s, http.MethodPost, base+"/spine/coccyx", nil), http.StatusBadRequest)
}

func TestSessionConcurrentToggles(t *testing.T) {
	s := newTestServer(t, testConfig())

	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)
	base := "/api/v1/sessions/" + sess.ID

	sections := []string{"cervical", "thoracic", "lumbar", "sacral"}
	var wg sync.WaitGroup
	for _, section := range sections {
		wg.Add(1)
		go func(section string) {
			defer wg.Done()
			if rec := do(t, s, http.MethodPost, base+"/spine/"+section, nil); rec.Code != http.StatusOK {
				t.Errorf("toggle %s: status = %d", section, rec.Code)
			}
		}(section)
	}
	wg.Wait()

	decode(t, do(t, s, http.MethodGet, base, nil), &sess)
	if len(sess.Response.Locations) != len(sections) {
		t.Errorf("locations = %v, want one per section", sess.Response.Locations)
	}

	expectStatus(t, do(t, s, http.MethodPut, base+"/steps/1", StepRequest{Tags: sess.Response.Locations}), http.StatusOK)
	expectStatus(t, do(t, s, http.MethodPost, base+"/spine/lumbar", nil), http.StatusConflict)
}

func TestSessionDelete(t *testing.T) {
	s := newTestServer(t, testConfig())

	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)

	expectStatus(t, do(t, s, http.MethodDelete, "/api/v1/sessions/"+sess.ID, nil), http.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodGet, "/api/v1/sessions/"+sess.ID, nil), http.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodDelete, "/api/v1/sessions/"+sess.ID, nil), http.StatusNotFound)
}

func TestAppointments(t *testing.T) {
	s := newTestServer(t, testConfig())

	// a session with answers to attach
	var sess SessionResponse
	decode(t, do(t, s, http.MethodPost, "/api/v1/sessions", nil), &sess)
	expectStatus(t, do(t, s, http.MethodPut, "/api/v1/sessions/"+sess.ID+"/steps/1",
		StepRequest{Tags: []string{"neck"}}), http.StatusOK)

	rec := do(t, s, http.MethodPost, "/api/v1/appointments", CreateAppointmentRequest{
		Name:      "Kim Minji",
		Phone:     "010-1234-5678",
		Date:      "2026-03-20",
		Time:      "10:00",
		SessionID: sess.ID,
	})
	expectStatus(t, rec, http.StatusCreated)

	var appt appointments.Appointment
	decode(t, rec, &appt)
	if appt.ID == "" || appt.Assessment == nil {
		t.Fatalf("appointment = %+v", appt)
	}
	if !strings.HasPrefix(appt.Symptoms, "Pain location: Neck") {
		t.Errorf("symptoms were not pre-filled: %q", appt.Symptoms)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/appointments", CreateAppointmentRequest{
		Name:  "Lee Jun",
		Phone: "01198765432",
		Date:  "2026-03-21",
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = do(t, s, http.MethodGet, "/api/v1/appointments", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Appointments []appointments.Appointment `json:"appointments"`
	}
	decode(t, rec, &list)
	if len(list.Appointments) != 2 || list.Appointments[0].Name != "Lee Jun" {
		t.Errorf("appointments = %+v", list.Appointments)
	}

	expectStatus(t, do(t, s, http.MethodGet, "/api/v1/appointments/"+appt.ID, nil), http.StatusOK)
	expectStatus(t, do(t, s, http.MethodGet, "/api/v1/appointments/unknown", nil), http.StatusNotFound)
}

func TestAppointmentValidation(t *testing.T) {
	s := newTestServer(t, testConfig())

	testCases := []struct {
		name string
		req  CreateAppointmentRequest
		want int
	}{
		{"missing name", CreateAppointmentRequest{Phone: "010-1234-5678", Date: "2026-03-20"}, http.StatusBadRequest},
		{"bad phone", CreateAppointmentRequest{Name: "Kim", Phone: "12345", Date: "2026-03-20"}, http.StatusBadRequest},
		{"past date", CreateAppointmentRequest{Name: "Kim", Phone: "010-1234-5678", Date: "2026-03-13"}, http.StatusBadRequest},
		{"unknown session", CreateAppointmentRequest{Name: "Kim", Phone: "010-1234-5678", Date: "2026-03-20", SessionID: "gone"}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, do(t, s, http.MethodPost, "/api/v1/appointments", tc.req), tc.want)
		})
	}
}

func TestAppointmentInlineAssessment(t *testing.T) {
	s := newTestServer(t, testConfig())

	booking := func(answers map[string]any) map[string]any {
		return map[string]any{
			"name":       "Kim Minji",
			"phone":      "010-1234-5678",
			"date":       "2026-03-20",
			"assessment": answers,
		}
	}

	rejected := []struct {
		name    string
		answers map[string]any
	}{
		{"unknown duration", map[string]any{"locations": []string{"neck"}, "duration": "forever"}},
		{"pain above range", map[string]any{"locations": []string{"neck"}, "painLevel": 999}},
		{"pain below range", map[string]any{"locations": []string{"neck"}, "painLevel": -1}},
		{"wrong type", map[string]any{"locations": "neck"}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, do(t, s, http.MethodPost, "/api/v1/appointments", booking(tc.answers)), http.StatusBadRequest)
		})
	}

	rec := do(t, s, http.MethodPost, "/api/v1/appointments", booking(map[string]any{
		"locations": []string{"neck", "neck", ""},
		"symptoms":  []string{"pain"},
	}))
	expectStatus(t, rec, http.StatusCreated)

	var appt appointments.Appointment
	decode(t, rec, &appt)
	if appt.Assessment == nil {
		t.Fatalf("assessment was not attached: %+v", appt)
	}
	if diff := cmp.Diff([]string{"neck"}, appt.Assessment.Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
	if appt.Assessment.PainLevel != assessment.DefaultPainLevel {
		t.Errorf("pain level = %d, want default %d", appt.Assessment.PainLevel, assessment.DefaultPainLevel)
	}
	if !strings.HasPrefix(appt.Symptoms, "Pain location: Neck\n") || !strings.Contains(appt.Symptoms, "Pain level: 5/10") {
		t.Errorf("symptom note = %q", appt.Symptoms)
	}

	var list struct {
		Appointments []appointments.Appointment `json:"appointments"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/v1/appointments", nil), &list)
	if len(list.Appointments) != 1 {
		t.Errorf("rejected bookings were stored: %d appointments", len(list.Appointments))
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 2
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, s, http.MethodGet, "/api/v1/conditions", nil), http.StatusOK)
	}
	rec := do(t, s, http.MethodGet, "/api/v1/conditions", nil)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}

	// health stays reachable
	expectStatus(t, do(t, s, http.MethodGet, "/api/v1/health", nil), http.StatusOK)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	do(t, s, http.MethodPost, "/api/v1/assess", map[string]any{
		"locations": []string{"lower_back", "leg"},
		"symptoms":  []string{"pain", "numbness"},
		"duration":  "subacute",
	})

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	for _, want := range []string{
		`spinecheck_assessments_total{outcome="matched"} 1`,
		`spinecheck_top_condition_total{condition="lumbar_disc"} 1`,
		fmt.Sprintf(`spinecheck_http_requests_total{method="POST",route="/api/v1/assess",status="%d"} 1`, http.StatusOK),
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCustomAdjustmentsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Adjustments = []scoring.Adjustment{{
		ID:         "broken",
		Expression: `pain_level +`,
		Bonus:      1,
		Active:     true,
	}}

	if _, err := NewServerWithDB(cfg, nil); err == nil {
		t.Error("a server with an invalid adjustment should not start")
	}
}
