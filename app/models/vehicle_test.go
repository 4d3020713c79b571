package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRegistration(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ab12 cde", "AB12CDE"},
		{" AB12CDE ", "AB12CDE"},
		{"ab 12 cde", "AB12CDE"},
		{"AB12CDE", "AB12CDE"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeRegistration(tt.input))
	}
}

func TestVehicleValidateRejectsBadRegistration(t *testing.T) {
	vehicle := &Vehicle{UserID: 1, Registration: "x"}
	assert.Error(t, vehicle.Validate(), "single character plate must fail validation")

	vehicle.Registration = "AB12CDE"
	assert.NoError(t, vehicle.Validate())
}

func TestIsTerminalSubscriptionStatus(t *testing.T) {
	assert.True(t, IsTerminalSubscriptionStatus(SubscriptionStatusCanceled))
	assert.True(t, IsTerminalSubscriptionStatus(SubscriptionStatusIncompleteExpired))
	assert.False(t, IsTerminalSubscriptionStatus(SubscriptionStatusActive))
	assert.False(t, IsTerminalSubscriptionStatus(SubscriptionStatusPastDue))
	assert.False(t, IsTerminalSubscriptionStatus(SubscriptionStatusInactive))
}
