package model

import (
	"encoding/json"
	"time"
)

// TaskState is the lifecycle of one background job.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// TaskRecord is what a polling client sees for a background job.
type TaskRecord struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	State     TaskState       `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
