package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMOTReminderJobPayloadRoundTrip(t *testing.T) {
	payload := MOTReminderJobPayload{
		VehicleID:    7,
		VehicleUUID:  "11111111-2222-3333-4444-555555555555",
		UserID:       3,
		Registration: "AB12CDE",
	}

	restored, err := MOTReminderJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *restored)
}

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeMOTReminder,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp timeout", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
	assert.False(t, job.IsRetryable())
}

func TestJobStopsRetryingAtMaxRetries(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: DefaultMaxRetries}

	for i := 0; i < DefaultMaxRetries; i++ {
		job.MarkAsFailed("boom")
	}
	assert.False(t, job.IsRetryable())
}
