package scheduler

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job kinds understood by the worker's handler registry.
const (
	JobKindBookingExpiry = "booking.expiry"
	JobKindShowReminders = "show.reminders"
)

// Payload is the job's kind-specific argument blob, stored as jsonb.
type Payload json.RawMessage

func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	return string(p), nil
}

func (p *Payload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = Payload("{}")
	case []byte:
		*p = Payload(append([]byte(nil), v...))
	case string:
		*p = Payload(v)
	default:
		return fmt.Errorf("unsupported payload source type %T", value)
	}
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload(append([]byte(nil), data...))
	return nil
}

// Job is a unit of deferred work. Rows survive restarts, so anything
// scheduled here happens even if the process dies before the due time.
type Job struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Kind        string     `json:"kind" gorm:"size:64;not null;index:idx_jobs_kind_status"`
	Payload     Payload    `json:"payload" gorm:"type:jsonb"`
	DueAt       time.Time  `json:"due_at" gorm:"not null;index"`
	Status      JobStatus  `json:"status" gorm:"size:16;not null;default:'PENDING';index:idx_jobs_kind_status"`
	Attempts    int        `json:"attempts" gorm:"not null;default:0"`
	LastError   string     `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Job) TableName() string {
	return "scheduler_jobs"
}

// NewJob builds a pending job; payload must be a JSON-marshalable value.
func NewJob(kind string, payload interface{}, dueAt time.Time) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job payload: %w", err)
	}
	return &Job{
		Kind:    kind,
		Payload: Payload(data),
		DueAt:   dueAt,
		Status:  JobStatusPending,
	}, nil
}

// DecodePayload unmarshals the payload into dest.
func (j *Job) DecodePayload(dest interface{}) error {
	return json.Unmarshal([]byte(j.Payload), dest)
}
