//go:build integration

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer and runs migrations
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Run migrations
	migrationSQL, err := os.ReadFile("../../migrations/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
		postgres.Terminate(ctx)
	}

	return db, cleanup
}

// TestEndToEnd_QuestionnaireAndBooking walks the complete workflow:
// 1. Start a session and answer all four stages
// 2. Fetch the report
// 3. Book an appointment carrying the answers
// 4. Read the booking back from Postgres
func TestEndToEnd_QuestionnaireAndBooking(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	server, err := NewServerWithDB(testConfig(), db)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server)
	defer ts.Close()
	baseURL := ts.URL + "/api/v1"

	health := makeRequest(t, "GET", baseURL+"/health", nil)
	if health["storage"] != "postgres" {
		t.Errorf("Expected postgres storage, got %v", health["storage"])
	}

	// Step 1: answer the questionnaire
	t.Log("Step 1: Answering the questionnaire...")
	session := makeRequest(t, "POST", baseURL+"/sessions", nil)
	sessionID := session["id"].(string)

	stages := []struct {
		stage string
		body  map[string]any
	}{
		{"locations", map[string]any{"tags": []string{"lower_back"}}},
		{"symptoms", map[string]any{"tags": []string{"pain", "stiffness"}}},
		{"triggers", map[string]any{"tags": []string{"lifting", "bending"}}},
		{"details", map[string]any{"duration": "acute", "painLevel": 6, "additional": []string{"sudden_onset"}}},
	}
	for _, s := range stages {
		session = makeRequest(t, "PUT", baseURL+"/sessions/"+sessionID+"/steps/"+s.stage, s.body)
	}
	if complete, _ := session["complete"].(bool); !complete {
		t.Fatalf("Expected a complete session, got %v", session)
	}

	// Step 2: report
	t.Log("Step 2: Fetching the report...")
	result := makeRequest(t, "POST", baseURL+"/sessions/"+sessionID+"/report", nil)
	results, ok := result["results"].([]any)
	if !ok || len(results) == 0 {
		t.Fatalf("Expected results, got %v", result)
	}
	top := results[0].(map[string]any)
	if top["conditionId"] != "acute_strain" {
		t.Errorf("Expected acute_strain first, got %v", top["conditionId"])
	}

	// Step 3: booking
	t.Log("Step 3: Booking an appointment...")
	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	booked := makeRequest(t, "POST", baseURL+"/appointments", map[string]any{
		"name":      "Kim Minji",
		"phone":     "010-1234-5678",
		"date":      date,
		"time":      "14:00",
		"sessionId": sessionID,
	})
	appointmentID := booked["id"].(string)

	// Step 4: read back
	t.Log("Step 4: Reading the appointment back...")
	stored := makeRequest(t, "GET", baseURL+"/appointments/"+appointmentID, nil)
	if stored["date"] != date {
		t.Errorf("Expected date %s, got %v", date, stored["date"])
	}
	attached, ok := stored["assessment"].(map[string]any)
	if !ok {
		t.Fatalf("Expected an attached assessment, got %v", stored)
	}
	if attached["duration"] != "acute" || attached["painLevel"] != float64(6) {
		t.Errorf("Attached assessment mismatch: %v", attached)
	}

	list := makeRequest(t, "GET", baseURL+"/appointments", nil)
	if items, _ := list["appointments"].([]any); len(items) != 1 {
		t.Errorf("Expected 1 appointment, got %v", list["appointments"])
	}
}

func makeRequest(t *testing.T, method, url string, body any) map[string]any {
	resp, err := makeHTTPRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to make %s request to %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return result
}

func makeHTTPRequest(method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	return client.Do(req)
}
