package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeMOTReminder JobType = "mot_reminder"
	JobTypeMOTRefresh  JobType = "mot_refresh"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// MOTReminderJobPayload contains the payload for MOT reminder jobs
type MOTReminderJobPayload struct {
	VehicleID    uint   `json:"vehicle_id"`
	VehicleUUID  string `json:"vehicle_uuid"`
	UserID       uint   `json:"user_id"`
	Registration string `json:"registration"`
}

// ToMap converts the payload to a map for storage
func (p MOTReminderJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"vehicle_id":   p.VehicleID,
		"vehicle_uuid": p.VehicleUUID,
		"user_id":      p.UserID,
		"registration": p.Registration,
	}
}

// FromMap creates a payload from a map
func MOTReminderJobPayloadFromMap(data map[string]interface{}) (*MOTReminderJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload MOTReminderJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// MOTRefreshJobPayload contains the payload for MOT data refresh jobs
type MOTRefreshJobPayload struct {
	VehicleID    uint   `json:"vehicle_id"`
	Registration string `json:"registration"`
}

// ToMap converts the payload to a map for storage
func (p MOTRefreshJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"vehicle_id":   p.VehicleID,
		"registration": p.Registration,
	}
}

// FromMap creates a payload from a map
func MOTRefreshJobPayloadFromMap(data map[string]interface{}) (*MOTRefreshJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload MOTRefreshJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
