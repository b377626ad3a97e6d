package appointments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL.
// The attached assessment is kept as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a new appointment
func (s *PostgresStore) Add(ctx context.Context, a *Appointment) error {
	prepare(a)
	if _, err := uuid.Parse(a.ID); err != nil {
		return fmt.Errorf("appointment ID %q is not a UUID: %w", a.ID, err)
	}

	var assessmentJSON any
	if a.Assessment != nil {
		data, err := json.Marshal(a.Assessment)
		if err != nil {
			return fmt.Errorf("failed to encode assessment: %w", err)
		}
		assessmentJSON = data
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (id, name, phone, preferred_date, preferred_time, symptoms, assessment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Name, a.Phone, a.Date, a.Time, a.Symptoms, assessmentJSON, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	return nil
}

// Get retrieves an appointment by ID
func (s *PostgresStore) Get(ctx context.Context, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, preferred_date, preferred_time, symptoms, assessment, created_at
		FROM appointments
		WHERE id = $1
	`, id)

	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// List returns all appointments, newest first
func (s *PostgresStore) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, preferred_date, preferred_time, symptoms, assessment, created_at
		FROM appointments
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	list := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		list = append(list, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*Appointment, error) {
	var (
		a              Appointment
		day            time.Time
		assessmentJSON []byte
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &day, &a.Time, &a.Symptoms, &assessmentJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Date = day.Format(DateLayout)

	if len(assessmentJSON) > 0 {
		if err := json.Unmarshal(assessmentJSON, &a.Assessment); err != nil {
			return nil, fmt.Errorf("failed to decode assessment: %w", err)
		}
	}
	return &a, nil
}
